package auth

import (
	"errors"
	"testing"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "s3cret" {
		t.Fatal("hash must not equal the plaintext")
	}
	if err := VerifyPassword(hash, "s3cret"); err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if err := VerifyPassword(hash, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestPasswordEdgeCases(t *testing.T) {
	if _, err := HashPassword(""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty password: got %v", err)
	}
	if err := VerifyPassword("", "s3cret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("empty hash: got %v", err)
	}
	if err := VerifyPassword("not-a-bcrypt-hash", "s3cret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("bogus hash: got %v", err)
	}
}
