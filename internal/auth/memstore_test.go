package auth

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// memStore is the in-memory Store used across service tests.
type memStore struct {
	seq         int
	users       map[string]User
	roles       map[string]Role
	permissions map[string]Permission
	userRoles   map[string][]string
	rolePerms   map[string][]string
}

func newMemStore() *memStore {
	return &memStore{
		users:       make(map[string]User),
		roles:       make(map[string]Role),
		permissions: make(map[string]Permission),
		userRoles:   make(map[string][]string),
		rolePerms:   make(map[string][]string),
	}
}

func (m *memStore) Users() UserStore             { return (*memUsers)(m) }
func (m *memStore) Roles() RoleStore             { return (*memRoles)(m) }
func (m *memStore) Permissions() PermissionStore { return (*memPerms)(m) }

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%03d", prefix, m.seq)
}

func (m *memStore) addPermission(name, group string) Permission {
	perm := Permission{
		ID:        m.nextID("perm"),
		Name:      name,
		GroupName: group,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	m.permissions[perm.ID] = perm
	return perm
}

type memUsers memStore

func (m *memUsers) Create(_ context.Context, u *User) error {
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return ErrDuplicateIdentity
		}
	}
	u.ID = (*memStore)(m).nextID("user")
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = *u
	return nil
}

func (m *memUsers) Find(_ context.Context, id string) (User, error) {
	u, ok := m.users[id]
	if !ok {
		return User{}, &NotFoundError{Entity: "user", Key: id}
	}
	return u, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, &NotFoundError{Entity: "user", Key: email}
}

func (m *memUsers) FindByLogin(_ context.Context, login string) (User, error) {
	for _, u := range m.users {
		if u.Username == login || u.Email == login {
			return u, nil
		}
	}
	return User{}, &NotFoundError{Entity: "user", Key: login}
}

func (m *memUsers) List(_ context.Context) ([]User, error) {
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memUsers) Update(_ context.Context, id string, upd UserUpdate) (User, error) {
	u, ok := m.users[id]
	if !ok {
		return User{}, &NotFoundError{Entity: "user", Key: id}
	}
	if upd.Title != nil {
		u.Title = *upd.Title
	}
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	if upd.MiddleName != nil {
		u.MiddleName = *upd.MiddleName
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	if upd.DisplayName != nil {
		u.DisplayName = *upd.DisplayName
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.Username != nil {
		u.Username = *upd.Username
	}
	if upd.MobileNumber != nil {
		u.MobileNumber = *upd.MobileNumber
	}
	if upd.Active != nil {
		u.Active = *upd.Active
	}
	u.UpdatedAt = time.Now().UTC()
	m.users[id] = u
	return u, nil
}

func (m *memUsers) ReplaceRoles(_ context.Context, userID string, roleIDs []string) error {
	if _, ok := m.users[userID]; !ok {
		return &NotFoundError{Entity: "user", Key: userID}
	}
	for _, id := range roleIDs {
		if _, ok := m.roles[id]; !ok {
			return &NotFoundError{Entity: "role", Key: id}
		}
	}
	m.userRoles[userID] = append([]string(nil), roleIDs...)
	return nil
}

func (m *memUsers) RolesForUser(_ context.Context, userID string) ([]Role, error) {
	var roles []Role
	for _, id := range m.userRoles[userID] {
		roles = append(roles, m.roles[id])
	}
	return roles, nil
}

type memRoles memStore

func (m *memRoles) Create(_ context.Context, role *Role, permissionIDs []string) error {
	for _, existing := range m.roles {
		if existing.Name == role.Name {
			return ErrConflict
		}
	}
	for _, id := range permissionIDs {
		if _, ok := m.permissions[id]; !ok {
			return &NotFoundError{Entity: "permission", Key: id}
		}
	}
	role.ID = (*memStore)(m).nextID("role")
	role.CreatedAt = time.Now().UTC()
	role.UpdatedAt = role.CreatedAt
	m.roles[role.ID] = *role
	m.rolePerms[role.ID] = append([]string(nil), permissionIDs...)
	return nil
}

func (m *memRoles) Find(_ context.Context, id string) (Role, error) {
	role, ok := m.roles[id]
	if !ok {
		return Role{}, &NotFoundError{Entity: "role", Key: id}
	}
	return role, nil
}

func (m *memRoles) List(_ context.Context) ([]Role, error) {
	out := make([]Role, 0, len(m.roles))
	for _, role := range m.roles {
		out = append(out, role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memRoles) Rename(_ context.Context, id, name string) (Role, error) {
	role, ok := m.roles[id]
	if !ok {
		return Role{}, &NotFoundError{Entity: "role", Key: id}
	}
	role.Name = name
	role.UpdatedAt = time.Now().UTC()
	m.roles[id] = role
	return role, nil
}

func (m *memRoles) Delete(_ context.Context, id string) error {
	if _, ok := m.roles[id]; !ok {
		return &NotFoundError{Entity: "role", Key: id}
	}
	delete(m.roles, id)
	delete(m.rolePerms, id)
	for userID, roleIDs := range m.userRoles {
		kept := roleIDs[:0]
		for _, roleID := range roleIDs {
			if roleID != id {
				kept = append(kept, roleID)
			}
		}
		m.userRoles[userID] = kept
	}
	return nil
}

type memPerms memStore

func (m *memPerms) Ensure(_ context.Context, perms []Permission) error {
	for _, perm := range perms {
		exists := false
		for _, existing := range m.permissions {
			if existing.Name == perm.Name {
				exists = true
				break
			}
		}
		if !exists {
			(*memStore)(m).addPermission(perm.Name, perm.GroupName)
		}
	}
	return nil
}

func (m *memPerms) Find(_ context.Context, id string) (Permission, error) {
	perm, ok := m.permissions[id]
	if !ok {
		return Permission{}, &NotFoundError{Entity: "permission", Key: id}
	}
	return perm, nil
}

func (m *memPerms) List(_ context.Context) ([]Permission, error) {
	out := make([]Permission, 0, len(m.permissions))
	for _, perm := range m.permissions {
		out = append(out, perm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memPerms) ForRole(_ context.Context, roleID string) ([]Permission, error) {
	var perms []Permission
	for _, id := range m.rolePerms[roleID] {
		perms = append(perms, m.permissions[id])
	}
	return perms, nil
}
