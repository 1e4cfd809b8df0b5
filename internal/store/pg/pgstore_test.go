package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"schoolhub.org/internal/auth"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

func verify(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserCreateMapsUniqueViolation(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`insert into users`).
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})

	user := auth.User{FirstName: "Ada", LastName: "L", Email: "ada@example.com", PasswordHash: "h", Active: true}
	err := store.Users().Create(context.Background(), &user)
	if !errors.Is(err, auth.ErrDuplicateIdentity) {
		t.Fatalf("expected ErrDuplicateIdentity, got %v", err)
	}
	verify(t, mock)
}

func TestUserCreateFillsGeneratedFields(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now().UTC()
	mock.ExpectQuery(`insert into users`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	user := auth.User{FirstName: "Ada", LastName: "L", Email: "ada@example.com", PasswordHash: "h", Active: true}
	if err := store.Users().Create(context.Background(), &user); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if user.ID == "" {
		t.Fatal("id was not generated")
	}
	if !user.CreatedAt.Equal(now) {
		t.Fatalf("created_at not scanned: %v", user.CreatedAt)
	}
	verify(t, mock)
}

func TestUserFindNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`(?s)select .+ from users where id=\$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.Users().Find(context.Background(), "missing")
	var nf *auth.NotFoundError
	if !errors.As(err, &nf) || nf.Entity != "user" {
		t.Fatalf("expected user not-found, got %v", err)
	}
	verify(t, mock)
}

func TestRoleCreateRollsBackOnMissingPermission(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery(`insert into roles`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec(`insert into role_permissions`).
		WithArgs(sqlmock.AnyArg(), "perm-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`insert into role_permissions`).
		WithArgs(sqlmock.AnyArg(), "perm-missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	role := auth.Role{Name: "Admin", Active: true}
	err := store.Roles().Create(context.Background(), &role, []string{"perm-1", "perm-missing"})
	var nf *auth.NotFoundError
	if !errors.As(err, &nf) || nf.Entity != "permission" || nf.Key != "perm-missing" {
		t.Fatalf("expected permission not-found, got %v", err)
	}
	verify(t, mock)
}

func TestRoleCreateCommitsWithPermissions(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery(`insert into roles`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec(`insert into role_permissions`).
		WithArgs(sqlmock.AnyArg(), "perm-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	role := auth.Role{Name: "Admin", Active: true}
	if err := store.Roles().Create(context.Background(), &role, []string{"perm-1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if role.ID == "" {
		t.Fatal("role id was not generated")
	}
	verify(t, mock)
}

func TestRoleCreateMapsDuplicateName(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`insert into roles`).
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})
	mock.ExpectRollback()

	role := auth.Role{Name: "Admin", Active: true}
	err := store.Roles().Create(context.Background(), &role, nil)
	if !errors.Is(err, auth.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	verify(t, mock)
}

func TestReplaceRolesTransaction(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`select exists\(select 1 from users`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`select exists\(select 1 from roles`).
		WithArgs("role-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec(`delete from user_roles`).
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`insert into user_roles`).
		WithArgs("user-1", "role-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := store.Users().ReplaceRoles(context.Background(), "user-1", []string{"role-1"}); err != nil {
		t.Fatalf("ReplaceRoles: %v", err)
	}
	verify(t, mock)
}

func TestReplaceRolesAbortsOnUnknownRole(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`select exists\(select 1 from users`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`select exists\(select 1 from roles`).
		WithArgs("role-missing").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	err := store.Users().ReplaceRoles(context.Background(), "user-1", []string{"role-missing"})
	var nf *auth.NotFoundError
	if !errors.As(err, &nf) || nf.Entity != "role" {
		t.Fatalf("expected role not-found, got %v", err)
	}
	verify(t, mock)
}

func TestPermissionEnsureInsertsMissingOnly(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`insert into permissions`).
		WithArgs(sqlmock.AnyArg(), "users.view", "User Management", true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`insert into permissions`).
		WithArgs(sqlmock.AnyArg(), "users.edit", "User Management", true).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Permissions().Ensure(context.Background(), []auth.Permission{
		{Name: "users.view", GroupName: "User Management", Active: true},
		{Name: "users.edit", GroupName: "User Management", Active: true},
	})
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	verify(t, mock)
}

func TestRoleDeleteNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`delete from roles`).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Roles().Delete(context.Background(), "missing")
	if !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	verify(t, mock)
}
