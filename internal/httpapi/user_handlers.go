package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"schoolhub.org/internal/audit"
	"schoolhub.org/internal/auth"
)

type attachRolesRequest struct {
	UserID    string   `json:"userId"`
	RolesList []string `json:"rolesList"`
}

type updateUserRequest struct {
	ID           string  `json:"id"`
	Title        *string `json:"title"`
	FirstName    *string `json:"firstName"`
	MiddleName   *string `json:"middleName"`
	LastName     *string `json:"lastName"`
	DisplayName  *string `json:"displayName"`
	Email        *string `json:"email"`
	Username     *string `json:"username"`
	MobileNumber *string `json:"mobileNumber"`
	Active       *bool   `json:"active"`
}

type userPayload struct {
	auth.User
	Roles []auth.Role `json:"roles"`
}

func (a *API) attachRolesToUser(w http.ResponseWriter, r *http.Request) {
	var req attachRolesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeInvalidArgument, "malformed request body")
		return
	}

	user, roles, err := a.svc.AttachRoles(r.Context(), req.UserID, req.RolesList)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "user.roles_replaced", map[string]any{
		"user_id": user.ID, "role_count": len(roles),
	})
	writeSuccess(w, r, http.StatusOK, "Roles attached successfully", userPayload{
		User:  user,
		Roles: rolesOrEmpty(roles),
	})
}

func (a *API) getUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	user, err := a.svc.GetUser(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	roles, err := a.svc.UserRoles(r.Context(), user.ID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeSuccess(w, r, http.StatusOK, "User fetched successfully", userPayload{
		User:  user,
		Roles: rolesOrEmpty(roles),
	})
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.svc.ListUsers(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if users == nil {
		users = []auth.User{}
	}
	writeSuccess(w, r, http.StatusOK, "Users fetched successfully", users)
}

func (a *API) updateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeInvalidArgument, "malformed request body")
		return
	}

	user, err := a.svc.UpdateUser(r.Context(), req.ID, auth.UserUpdate{
		Title:        req.Title,
		FirstName:    req.FirstName,
		MiddleName:   req.MiddleName,
		LastName:     req.LastName,
		DisplayName:  req.DisplayName,
		Email:        req.Email,
		Username:     req.Username,
		MobileNumber: req.MobileNumber,
		Active:       req.Active,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "user.updated", map[string]any{"user_id": user.ID})
	writeSuccess(w, r, http.StatusOK, "User updated successfully", user)
}

func rolesOrEmpty(roles []auth.Role) []auth.Role {
	if roles == nil {
		return []auth.Role{}
	}
	return roles
}
