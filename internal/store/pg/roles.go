package pg

import (
	"context"
	"database/sql"
	"errors"

	"schoolhub.org/internal/auth"
	"schoolhub.org/internal/ids"
)

type roleStore struct {
	db *sql.DB
}

var _ auth.RoleStore = (*roleStore)(nil)

// Create inserts the role and its permission links in one transaction. Any
// unresolvable permission id rolls the whole insert back.
func (s *roleStore) Create(ctx context.Context, role *auth.Role, permissionIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	role.ID = ids.New()
	row := tx.QueryRowContext(ctx, `
		insert into roles (id, name, active)
		values ($1, $2, $3)
		returning created_at, updated_at
	`, role.ID, role.Name, role.Active)
	if err := row.Scan(&role.CreatedAt, &role.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return auth.ErrConflict
		}
		return err
	}

	for _, permID := range permissionIDs {
		res, err := tx.ExecContext(ctx, `
			insert into role_permissions (role_id, permission_id)
			select $1, id from permissions where id=$2
		`, role.ID, permID)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return &auth.NotFoundError{Entity: "permission", Key: permID}
		}
	}
	return tx.Commit()
}

func (s *roleStore) Find(ctx context.Context, id string) (auth.Role, error) {
	var role auth.Role
	err := s.db.QueryRowContext(ctx, `
		select id, name, active, created_at, updated_at from roles where id=$1
	`, id).Scan(&role.ID, &role.Name, &role.Active, &role.CreatedAt, &role.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Role{}, &auth.NotFoundError{Entity: "role", Key: id}
	}
	return role, err
}

func (s *roleStore) List(ctx context.Context) ([]auth.Role, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, name, active, created_at, updated_at from roles order by id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []auth.Role
	for rows.Next() {
		var role auth.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Active, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (s *roleStore) Rename(ctx context.Context, id, name string) (auth.Role, error) {
	var role auth.Role
	err := s.db.QueryRowContext(ctx, `
		update roles set name=$2, updated_at=now()
		where id=$1
		returning id, name, active, created_at, updated_at
	`, id, name).Scan(&role.ID, &role.Name, &role.Active, &role.CreatedAt, &role.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Role{}, &auth.NotFoundError{Entity: "role", Key: id}
	}
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return auth.Role{}, auth.ErrConflict
		}
		return auth.Role{}, err
	}
	return role, nil
}

func (s *roleStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from roles where id=$1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &auth.NotFoundError{Entity: "role", Key: id}
	}
	return nil
}
