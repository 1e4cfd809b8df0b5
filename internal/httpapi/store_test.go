package httpapi

import (
	"context"
	"fmt"
	"sort"
	"time"

	"schoolhub.org/internal/auth"
)

// testStore is a map-backed auth.Store for handler tests.
type testStore struct {
	seq       int
	users     map[string]auth.User
	roles     map[string]auth.Role
	perms     map[string]auth.Permission
	userRoles map[string][]string
	rolePerms map[string][]string
}

func newTestStore() *testStore {
	return &testStore{
		users:     map[string]auth.User{},
		roles:     map[string]auth.Role{},
		perms:     map[string]auth.Permission{},
		userRoles: map[string][]string{},
		rolePerms: map[string][]string{},
	}
}

func (s *testStore) Users() auth.UserStore             { return (*testUsers)(s) }
func (s *testStore) Roles() auth.RoleStore             { return (*testRoles)(s) }
func (s *testStore) Permissions() auth.PermissionStore { return (*testPerms)(s) }

func (s *testStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%03d", prefix, s.seq)
}

func (s *testStore) addPermission(name, group string) auth.Permission {
	p := auth.Permission{ID: s.nextID("perm"), Name: name, GroupName: group, Active: true, CreatedAt: time.Now().UTC()}
	s.perms[p.ID] = p
	return p
}

type testUsers testStore

func (s *testUsers) Create(_ context.Context, u *auth.User) error {
	for _, e := range s.users {
		if e.Email == u.Email {
			return auth.ErrDuplicateIdentity
		}
	}
	u.ID = (*testStore)(s).nextID("user")
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	s.users[u.ID] = *u
	return nil
}

func (s *testUsers) Find(_ context.Context, id string) (auth.User, error) {
	u, ok := s.users[id]
	if !ok {
		return auth.User{}, &auth.NotFoundError{Entity: "user", Key: id}
	}
	return u, nil
}

func (s *testUsers) FindByEmail(_ context.Context, email string) (auth.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return auth.User{}, &auth.NotFoundError{Entity: "user", Key: email}
}

func (s *testUsers) FindByLogin(_ context.Context, login string) (auth.User, error) {
	for _, u := range s.users {
		if u.Username == login || u.Email == login {
			return u, nil
		}
	}
	return auth.User{}, &auth.NotFoundError{Entity: "user", Key: login}
}

func (s *testUsers) List(_ context.Context) ([]auth.User, error) {
	var out []auth.User
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *testUsers) Update(_ context.Context, id string, upd auth.UserUpdate) (auth.User, error) {
	u, ok := s.users[id]
	if !ok {
		return auth.User{}, &auth.NotFoundError{Entity: "user", Key: id}
	}
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
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
	s.users[id] = u
	return u, nil
}

func (s *testUsers) ReplaceRoles(_ context.Context, userID string, roleIDs []string) error {
	if _, ok := s.users[userID]; !ok {
		return &auth.NotFoundError{Entity: "user", Key: userID}
	}
	for _, id := range roleIDs {
		if _, ok := s.roles[id]; !ok {
			return &auth.NotFoundError{Entity: "role", Key: id}
		}
	}
	s.userRoles[userID] = append([]string(nil), roleIDs...)
	return nil
}

func (s *testUsers) RolesForUser(_ context.Context, userID string) ([]auth.Role, error) {
	var roles []auth.Role
	for _, id := range s.userRoles[userID] {
		roles = append(roles, s.roles[id])
	}
	return roles, nil
}

type testRoles testStore

func (s *testRoles) Create(_ context.Context, role *auth.Role, permissionIDs []string) error {
	for _, e := range s.roles {
		if e.Name == role.Name {
			return auth.ErrConflict
		}
	}
	for _, id := range permissionIDs {
		if _, ok := s.perms[id]; !ok {
			return &auth.NotFoundError{Entity: "permission", Key: id}
		}
	}
	role.ID = (*testStore)(s).nextID("role")
	role.CreatedAt = time.Now().UTC()
	role.UpdatedAt = role.CreatedAt
	s.roles[role.ID] = *role
	s.rolePerms[role.ID] = append([]string(nil), permissionIDs...)
	return nil
}

func (s *testRoles) Find(_ context.Context, id string) (auth.Role, error) {
	role, ok := s.roles[id]
	if !ok {
		return auth.Role{}, &auth.NotFoundError{Entity: "role", Key: id}
	}
	return role, nil
}

func (s *testRoles) List(_ context.Context) ([]auth.Role, error) {
	var out []auth.Role
	for _, role := range s.roles {
		out = append(out, role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *testRoles) Rename(_ context.Context, id, name string) (auth.Role, error) {
	role, ok := s.roles[id]
	if !ok {
		return auth.Role{}, &auth.NotFoundError{Entity: "role", Key: id}
	}
	role.Name = name
	s.roles[id] = role
	return role, nil
}

func (s *testRoles) Delete(_ context.Context, id string) error {
	if _, ok := s.roles[id]; !ok {
		return &auth.NotFoundError{Entity: "role", Key: id}
	}
	delete(s.roles, id)
	delete(s.rolePerms, id)
	return nil
}

type testPerms testStore

func (s *testPerms) Ensure(_ context.Context, perms []auth.Permission) error {
	for _, p := range perms {
		found := false
		for _, e := range s.perms {
			if e.Name == p.Name {
				found = true
				break
			}
		}
		if !found {
			(*testStore)(s).addPermission(p.Name, p.GroupName)
		}
	}
	return nil
}

func (s *testPerms) Find(_ context.Context, id string) (auth.Permission, error) {
	p, ok := s.perms[id]
	if !ok {
		return auth.Permission{}, &auth.NotFoundError{Entity: "permission", Key: id}
	}
	return p, nil
}

func (s *testPerms) List(_ context.Context) ([]auth.Permission, error) {
	var out []auth.Permission
	for _, p := range s.perms {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *testPerms) ForRole(_ context.Context, roleID string) ([]auth.Permission, error) {
	var out []auth.Permission
	for _, id := range s.rolePerms[roleID] {
		out = append(out, s.perms[id])
	}
	return out, nil
}
