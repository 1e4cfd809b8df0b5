package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"schoolhub.org/internal/audit"
)

type permissionRef struct {
	ID string `json:"id"`
}

type createRoleRequest struct {
	Name        string          `json:"name"`
	Permissions []permissionRef `json:"permissions"`
}

type updateRoleNameRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (a *API) createRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeInvalidArgument, "malformed request body")
		return
	}
	permissionIDs := make([]string, 0, len(req.Permissions))
	for _, ref := range req.Permissions {
		permissionIDs = append(permissionIDs, ref.ID)
	}

	role, err := a.svc.CreateRole(r.Context(), req.Name, permissionIDs)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "role.created", map[string]any{
		"role_id": role.ID, "name": role.Name,
	})
	writeSuccess(w, r, http.StatusCreated, "Role created successfully", role)
}

func (a *API) updateRoleName(w http.ResponseWriter, r *http.Request) {
	var req updateRoleNameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeInvalidArgument, "malformed request body")
		return
	}

	role, err := a.svc.UpdateRoleName(r.Context(), req.ID, req.Name)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "role.renamed", map[string]any{
		"role_id": role.ID, "name": role.Name,
	})
	writeSuccess(w, r, http.StatusOK, "Role updated successfully", role)
}

func (a *API) getRole(w http.ResponseWriter, r *http.Request) {
	role, err := a.svc.GetRole(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeSuccess(w, r, http.StatusOK, "Role fetched successfully", role)
}

func (a *API) deleteRole(w http.ResponseWriter, r *http.Request) {
	role, err := a.svc.DeleteRole(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "role.deleted", map[string]any{
		"role_id": role.ID, "name": role.Name,
	})
	writeSuccess(w, r, http.StatusOK, "Role deleted successfully", role)
}

func (a *API) rolesWithPermissionsTree(w http.ResponseWriter, r *http.Request) {
	tree, err := a.svc.RolesWithPermissionsTree(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeSuccess(w, r, http.StatusOK, "Roles with permissions fetched successfully", tree)
}

func (a *API) rolesWithPermissionsGroupedTree(w http.ResponseWriter, r *http.Request) {
	tree, err := a.svc.RolesWithPermissionsGroupedTree(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeSuccess(w, r, http.StatusOK, "Roles with grouped permissions fetched successfully", tree)
}

func (a *API) permissionsGroupedByGroup(w http.ResponseWriter, r *http.Request) {
	tree, err := a.svc.PermissionsGroupedByGroup(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeSuccess(w, r, http.StatusOK, "Permissions fetched successfully", tree)
}
