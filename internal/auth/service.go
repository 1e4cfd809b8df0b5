package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Service composes the token codec and the permission graph into the
// account lifecycle and administrative operations. It holds no mutable
// state of its own; every call works on a fresh snapshot of the graph.
type Service struct {
	store Store
	codec *TokenCodec
	now   func() time.Time
}

// ServiceOption configures Service construction.
type ServiceOption func(*Service)

// WithClock overrides the time source (tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the auth service.
func NewService(store Store, codec *TokenCodec, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth: store is required")
	}
	if codec == nil {
		return nil, errors.New("auth: token codec is required")
	}
	s := &Service{store: store, codec: codec, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// EnsureBuiltins makes sure the builtin permission catalog exists.
func (s *Service) EnsureBuiltins(ctx context.Context) error {
	return s.store.Permissions().Ensure(ctx, BuiltinPermissions)
}

// RegisterInput carries the self-registration request.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// TokenResult is an issued bearer token with its expiry.
type TokenResult struct {
	Token     string
	ExpiresAt time.Time
}

// Register creates a new account and issues a token for it. The user is
// persisted before the token is signed, so a storage failure never leaves a
// token referring to a non-persisted identity.
func (s *Service) Register(ctx context.Context, in RegisterInput) (TokenResult, User, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return TokenResult{}, User{}, err
	}
	if in.Password == "" {
		return TokenResult{}, User{}, &ValidationError{Field: "password", Rule: "required"}
	}

	if _, err := s.store.Users().FindByEmail(ctx, email); err == nil {
		return TokenResult{}, User{}, ErrDuplicateIdentity
	} else if !errors.Is(err, ErrNotFound) {
		return TokenResult{}, User{}, err
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return TokenResult{}, User{}, err
	}

	user := User{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        email,
		PasswordHash: hash,
		Active:       true,
	}
	if err := s.store.Users().Create(ctx, &user); err != nil {
		return TokenResult{}, User{}, err
	}

	result, err := s.issueToken(user)
	if err != nil {
		return TokenResult{}, User{}, err
	}
	return result, user, nil
}

// Authenticate verifies credentials and issues a token. Unknown email,
// inactive account and wrong password all collapse into
// ErrInvalidCredentials so the transport layer cannot enumerate users.
func (s *Service) Authenticate(ctx context.Context, email, password string) (TokenResult, User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return TokenResult{}, User{}, ErrInvalidCredentials
	}
	user, err := s.store.Users().FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenResult{}, User{}, ErrInvalidCredentials
		}
		return TokenResult{}, User{}, err
	}
	if !user.Active {
		return TokenResult{}, User{}, ErrInvalidCredentials
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return TokenResult{}, User{}, ErrInvalidCredentials
	}

	result, err := s.issueToken(user)
	if err != nil {
		return TokenResult{}, User{}, err
	}
	return result, user, nil
}

func (s *Service) issueToken(user User) (TokenResult, error) {
	token, err := s.codec.Issue(user.LoginKey())
	if err != nil {
		return TokenResult{}, err
	}
	return TokenResult{
		Token:     token,
		ExpiresAt: s.now().UTC().Add(s.codec.Validity()),
	}, nil
}

// UserByLogin resolves a user by login key (username or email).
func (s *Service) UserByLogin(ctx context.Context, login string) (User, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return User{}, fmt.Errorf("%w: login is required", ErrInvalidInput)
	}
	return s.store.Users().FindByLogin(ctx, login)
}

// PermissionsForUser flattens the permission names of every active role
// assigned to the user, deduplicated by name in first-encounter order.
func (s *Service) PermissionsForUser(ctx context.Context, userID string) ([]string, error) {
	roles, err := s.store.Users().RolesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var names []string
	for _, role := range roles {
		if !role.Active {
			continue
		}
		perms, err := s.store.Permissions().ForRole(ctx, role.ID)
		if err != nil {
			return nil, err
		}
		for _, perm := range perms {
			if perm.Name == "" {
				continue
			}
			if _, ok := seen[perm.Name]; ok {
				continue
			}
			seen[perm.Name] = struct{}{}
			names = append(names, perm.Name)
		}
	}
	return names, nil
}

// CreateRole creates a role with the given permission set. Every
// permission id is resolved before anything is written, so an unresolvable
// id leaves no partially attached role behind.
func (s *Service) CreateRole(ctx context.Context, name string, permissionIDs []string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, &ValidationError{Field: "name", Rule: "required"}
	}

	ids := dedupeIDs(permissionIDs)
	for _, id := range ids {
		if _, err := s.store.Permissions().Find(ctx, id); err != nil {
			if errors.Is(err, ErrNotFound) {
				return Role{}, &NotFoundError{Entity: "permission", Key: id}
			}
			return Role{}, err
		}
	}

	role := Role{Name: name, Active: true}
	if err := s.store.Roles().Create(ctx, &role, ids); err != nil {
		return Role{}, err
	}
	return role, nil
}

// UpdateRoleName renames a role. Name uniqueness is enforced by the store.
func (s *Service) UpdateRoleName(ctx context.Context, id, name string) (Role, error) {
	if strings.TrimSpace(id) == "" {
		return Role{}, fmt.Errorf("%w: role id is required", ErrInvalidInput)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, &ValidationError{Field: "name", Rule: "required"}
	}
	return s.store.Roles().Rename(ctx, id, name)
}

// GetRole returns a role by id.
func (s *Service) GetRole(ctx context.Context, id string) (Role, error) {
	if strings.TrimSpace(id) == "" {
		return Role{}, fmt.Errorf("%w: role id is required", ErrInvalidInput)
	}
	return s.store.Roles().Find(ctx, id)
}

// DeleteRole removes a role and returns the deleted entity.
func (s *Service) DeleteRole(ctx context.Context, id string) (Role, error) {
	if strings.TrimSpace(id) == "" {
		return Role{}, fmt.Errorf("%w: role id is required", ErrInvalidInput)
	}
	role, err := s.store.Roles().Find(ctx, id)
	if err != nil {
		return Role{}, err
	}
	if err := s.store.Roles().Delete(ctx, id); err != nil {
		return Role{}, err
	}
	return role, nil
}

// AttachRoles replaces the user's role set with the given ids; an empty
// list clears every assignment. All ids are resolved before the set is
// touched.
func (s *Service) AttachRoles(ctx context.Context, userID string, roleIDs []string) (User, []Role, error) {
	if strings.TrimSpace(userID) == "" {
		return User{}, nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	user, err := s.store.Users().Find(ctx, userID)
	if err != nil {
		return User{}, nil, err
	}

	ids := dedupeIDs(roleIDs)
	for _, id := range ids {
		if _, err := s.store.Roles().Find(ctx, id); err != nil {
			if errors.Is(err, ErrNotFound) {
				return User{}, nil, &NotFoundError{Entity: "role", Key: id}
			}
			return User{}, nil, err
		}
	}

	if err := s.store.Users().ReplaceRoles(ctx, userID, ids); err != nil {
		return User{}, nil, err
	}
	roles, err := s.store.Users().RolesForUser(ctx, userID)
	if err != nil {
		return User{}, nil, err
	}
	return user, roles, nil
}

// GetUser returns a user by id.
func (s *Service) GetUser(ctx context.Context, id string) (User, error) {
	if strings.TrimSpace(id) == "" {
		return User{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.store.Users().Find(ctx, id)
}

// UserRoles returns the roles currently assigned to a user.
func (s *Service) UserRoles(ctx context.Context, userID string) ([]Role, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.store.Users().RolesForUser(ctx, userID)
}

// ListUsers returns all users in insertion order.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.store.Users().List(ctx)
}

// UpdateUser applies a partial update; only non-nil fields change.
func (s *Service) UpdateUser(ctx context.Context, id string, upd UserUpdate) (User, error) {
	if strings.TrimSpace(id) == "" {
		return User{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if upd.Email != nil {
		email, err := normalizeEmail(*upd.Email)
		if err != nil {
			return User{}, err
		}
		upd.Email = &email
	}
	if upd.Username != nil {
		username := strings.TrimSpace(*upd.Username)
		upd.Username = &username
	}
	return s.store.Users().Update(ctx, id, upd)
}

// RolesWithPermissionsTree renders the flat role/permission hierarchy from
// a fresh graph snapshot.
func (s *Service) RolesWithPermissionsTree(ctx context.Context) ([]*TreeNode, error) {
	roles, permsByRole, err := s.snapshotRoles(ctx)
	if err != nil {
		return nil, err
	}
	return RolesWithPermissionsTree(roles, permsByRole), nil
}

// RolesWithPermissionsGroupedTree renders the role hierarchy with the
// per-role group level inserted.
func (s *Service) RolesWithPermissionsGroupedTree(ctx context.Context) ([]*TreeNode, error) {
	roles, permsByRole, err := s.snapshotRoles(ctx)
	if err != nil {
		return nil, err
	}
	return RolesWithPermissionsGroupedTree(roles, permsByRole), nil
}

// PermissionsGroupedByGroup renders the role-independent group partition of
// the whole permission catalog.
func (s *Service) PermissionsGroupedByGroup(ctx context.Context) ([]*TreeNode, error) {
	perms, err := s.store.Permissions().List(ctx)
	if err != nil {
		return nil, err
	}
	return PermissionsGroupedByGroup(perms), nil
}

func (s *Service) snapshotRoles(ctx context.Context) ([]Role, map[string][]Permission, error) {
	roles, err := s.store.Roles().List(ctx)
	if err != nil {
		return nil, nil, err
	}
	permsByRole := make(map[string][]Permission, len(roles))
	for _, role := range roles {
		if role.ID == "" {
			continue
		}
		perms, err := s.store.Permissions().ForRole(ctx, role.ID)
		if err != nil {
			return nil, nil, err
		}
		permsByRole[role.ID] = perms
	}
	return roles, permsByRole, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return "", &ValidationError{Field: "email", Rule: "required"}
	}
	if !strings.Contains(email, "@") {
		return "", &ValidationError{Field: "email", Rule: "format"}
	}
	return email, nil
}

func dedupeIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
