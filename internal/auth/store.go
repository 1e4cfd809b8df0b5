package auth

import "context"

// Store is the persistence boundary for the user-role-permission graph.
// Relations are exposed as queries, never as in-memory back references that
// would need consistency bookkeeping.
type Store interface {
	Users() UserStore
	Roles() RoleStore
	Permissions() PermissionStore
}

// UserStore manages user accounts and their role assignments.
type UserStore interface {
	// Create persists a new user, filling in the generated id and
	// timestamps. A duplicate email or username yields
	// ErrDuplicateIdentity.
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	// FindByLogin resolves a user by login key: username or email.
	FindByLogin(ctx context.Context, login string) (User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, id string, upd UserUpdate) (User, error)
	// ReplaceRoles overwrites the user's role set with the given ids.
	// Every id must resolve or the set is left unchanged.
	ReplaceRoles(ctx context.Context, userID string, roleIDs []string) error
	RolesForUser(ctx context.Context, userID string) ([]Role, error)
}

// RoleStore manages roles and their permission sets.
type RoleStore interface {
	// Create persists the role together with its permission set in one
	// atomic operation; any unresolvable permission id aborts the whole
	// creation.
	Create(ctx context.Context, role *Role, permissionIDs []string) error
	Find(ctx context.Context, id string) (Role, error)
	List(ctx context.Context) ([]Role, error)
	Rename(ctx context.Context, id, name string) (Role, error)
	Delete(ctx context.Context, id string) error
}

// PermissionStore manages the permission catalog.
type PermissionStore interface {
	// Ensure inserts any catalog entries that do not exist yet, keyed by
	// name. Existing entries are left untouched.
	Ensure(ctx context.Context, perms []Permission) error
	Find(ctx context.Context, id string) (Permission, error)
	List(ctx context.Context) ([]Permission, error)
	ForRole(ctx context.Context, roleID string) ([]Permission, error)
}
