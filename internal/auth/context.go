package auth

import "context"

// Principal is the request-scoped security context: the resolved user plus
// the permission names flattened from its active roles. It is bound at most
// once per request and never shared across requests.
type Principal struct {
	User        User
	Permissions map[string]struct{}
}

// NewPrincipal constructs a principal with a deduplicated permission set.
func NewPrincipal(user User, permissionNames []string) Principal {
	set := make(map[string]struct{}, len(permissionNames))
	for _, name := range permissionNames {
		if name == "" {
			continue
		}
		set[name] = struct{}{}
	}
	return Principal{User: user, Permissions: set}
}

// HasPermission reports whether the principal holds the named permission.
func (p Principal) HasPermission(name string) bool {
	_, ok := p.Permissions[name]
	return ok
}

type principalContextKey struct{}

// ContextWithPrincipal binds the security context for the remainder of
// request processing.
func ContextWithPrincipal(ctx context.Context, principal Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, &principal)
}

// PrincipalFromContext extracts the bound security context, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	v, ok := ctx.Value(principalContextKey{}).(*Principal)
	if !ok || v == nil {
		return Principal{}, false
	}
	return *v, true
}
