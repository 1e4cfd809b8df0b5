package httpapi

import (
	"net/http"
	"time"

	"schoolhub.org/internal/audit"
	"schoolhub.org/internal/auth"
)

type registerRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type authenticateRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token      string    `json:"token"`
	StatusCode string    `json:"statusCode,omitempty"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeInvalidArgument, "malformed request body")
		return
	}

	result, user, err := a.svc.Register(r.Context(), auth.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	ctx := audit.WithRequestID(r.Context(), RequestIDFromContext(r.Context()))
	_ = audit.LogEvent(ctx, "user.registered", map[string]any{"user_id": user.ID})

	writeSuccess(w, r, http.StatusCreated, "User registered successfully", loginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
	})
}

func (a *API) authenticate(w http.ResponseWriter, r *http.Request) {
	var req authenticateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeInvalidArgument, "malformed request body")
		return
	}

	result, user, err := a.svc.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	ctx := audit.WithRequestID(r.Context(), RequestIDFromContext(r.Context()))
	_ = audit.LogEvent(ctx, "user.authenticated", map[string]any{"user_id": user.ID})

	writeSuccess(w, r, http.StatusOK, "Authentication successful", loginResponse{
		Token:      result.Token,
		StatusCode: "200",
		ExpiresAt:  result.ExpiresAt,
	})
}
