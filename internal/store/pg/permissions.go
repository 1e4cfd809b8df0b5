package pg

import (
	"context"
	"database/sql"
	"errors"

	"schoolhub.org/internal/auth"
	"schoolhub.org/internal/ids"
)

type permissionStore struct {
	db *sql.DB
}

var _ auth.PermissionStore = (*permissionStore)(nil)

// Ensure inserts any catalog entries that do not exist yet, keyed by name.
// Entries already present (from earlier boots or SQL seeds) are left alone.
func (s *permissionStore) Ensure(ctx context.Context, perms []auth.Permission) error {
	for _, perm := range perms {
		id := perm.ID
		if id == "" {
			id = ids.New()
		}
		if _, err := s.db.ExecContext(ctx, `
			insert into permissions (id, name, group_name, active)
			values ($1, $2, nullif($3,''), $4)
			on conflict (name) do nothing
		`, id, perm.Name, perm.GroupName, perm.Active); err != nil {
			return err
		}
	}
	return nil
}

func (s *permissionStore) Find(ctx context.Context, id string) (auth.Permission, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, name, coalesce(group_name, ''), active, created_at
		from permissions where id=$1
	`, id)
	perm, err := scanPermission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Permission{}, &auth.NotFoundError{Entity: "permission", Key: id}
	}
	return perm, err
}

func (s *permissionStore) List(ctx context.Context) ([]auth.Permission, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, name, coalesce(group_name, ''), active, created_at
		from permissions order by id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPermissions(rows)
}

func (s *permissionStore) ForRole(ctx context.Context, roleID string) ([]auth.Permission, error) {
	rows, err := s.db.QueryContext(ctx, `
		select p.id, p.name, coalesce(p.group_name, ''), p.active, p.created_at
		from permissions p
		join role_permissions rp on rp.permission_id = p.id
		where rp.role_id = $1
		order by p.id
	`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPermissions(rows)
}

func scanPermission(row interface{ Scan(...any) error }) (auth.Permission, error) {
	var perm auth.Permission
	err := row.Scan(&perm.ID, &perm.Name, &perm.GroupName, &perm.Active, &perm.CreatedAt)
	return perm, err
}

func collectPermissions(rows *sql.Rows) ([]auth.Permission, error) {
	var perms []auth.Permission
	for rows.Next() {
		perm, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		perms = append(perms, perm)
	}
	return perms, rows.Err()
}
