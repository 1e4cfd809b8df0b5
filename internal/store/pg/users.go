package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"schoolhub.org/internal/auth"
	"schoolhub.org/internal/ids"
)

type userStore struct {
	db *sql.DB
}

var _ auth.UserStore = (*userStore)(nil)

const userColumns = `id, title, first_name, middle_name, last_name, display_name,
	email, username, mobile_number, password_hash, active, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (auth.User, error) {
	var (
		u                                        auth.User
		title, middle, display, username, mobile sql.NullString
	)
	err := row.Scan(&u.ID, &title, &u.FirstName, &middle, &u.LastName, &display,
		&u.Email, &username, &mobile, &u.PasswordHash, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return auth.User{}, err
	}
	u.Title = title.String
	u.MiddleName = middle.String
	u.DisplayName = display.String
	u.Username = username.String
	u.MobileNumber = mobile.String
	return u, nil
}

func (s *userStore) Create(ctx context.Context, user *auth.User) error {
	user.ID = ids.New()
	row := s.db.QueryRowContext(ctx, `
		insert into users (id, title, first_name, middle_name, last_name, display_name,
			email, username, mobile_number, password_hash, active)
		values ($1, nullif($2,''), $3, nullif($4,''), $5, nullif($6,''),
			$7, nullif($8,''), nullif($9,''), $10, $11)
		returning created_at, updated_at
	`, user.ID, user.Title, user.FirstName, user.MiddleName, user.LastName, user.DisplayName,
		user.Email, user.Username, user.MobileNumber, user.PasswordHash, user.Active)
	if err := row.Scan(&user.CreatedAt, &user.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return auth.ErrDuplicateIdentity
		}
		return err
	}
	return nil
}

func (s *userStore) Find(ctx context.Context, id string) (auth.User, error) {
	row := s.db.QueryRowContext(ctx, `select `+userColumns+` from users where id=$1`, id)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.User{}, &auth.NotFoundError{Entity: "user", Key: id}
	}
	return user, err
}

func (s *userStore) FindByEmail(ctx context.Context, email string) (auth.User, error) {
	row := s.db.QueryRowContext(ctx, `select `+userColumns+` from users where email=$1`, email)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.User{}, &auth.NotFoundError{Entity: "user", Key: email}
	}
	return user, err
}

func (s *userStore) FindByLogin(ctx context.Context, login string) (auth.User, error) {
	row := s.db.QueryRowContext(ctx, `
		select `+userColumns+` from users where username=$1 or email=$1
	`, login)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.User{}, &auth.NotFoundError{Entity: "user", Key: login}
	}
	return user, err
}

func (s *userStore) List(ctx context.Context) ([]auth.User, error) {
	rows, err := s.db.QueryContext(ctx, `select `+userColumns+` from users order by id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []auth.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *userStore) Update(ctx context.Context, id string, upd auth.UserUpdate) (auth.User, error) {
	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}
	if upd.Title != nil {
		add("title", nullify(*upd.Title))
	}
	if upd.FirstName != nil {
		add("first_name", *upd.FirstName)
	}
	if upd.MiddleName != nil {
		add("middle_name", nullify(*upd.MiddleName))
	}
	if upd.LastName != nil {
		add("last_name", *upd.LastName)
	}
	if upd.DisplayName != nil {
		add("display_name", nullify(*upd.DisplayName))
	}
	if upd.Email != nil {
		add("email", *upd.Email)
	}
	if upd.Username != nil {
		add("username", nullify(*upd.Username))
	}
	if upd.MobileNumber != nil {
		add("mobile_number", nullify(*upd.MobileNumber))
	}
	if upd.Active != nil {
		add("active", *upd.Active)
	}
	if len(sets) == 0 {
		return s.Find(ctx, id)
	}
	sets = append(sets, "updated_at=now()")

	args = append(args, id)
	query := fmt.Sprintf(`update users set %s where id=$%d returning `+userColumns,
		strings.Join(sets, ", "), len(args))
	row := s.db.QueryRowContext(ctx, query, args...)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.User{}, &auth.NotFoundError{Entity: "user", Key: id}
	}
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return auth.User{}, auth.ErrDuplicateIdentity
		}
		return auth.User{}, err
	}
	return user, nil
}

func (s *userStore) ReplaceRoles(ctx context.Context, userID string, roleIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err := tx.QueryRowContext(ctx, `select exists(select 1 from users where id=$1)`, userID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return &auth.NotFoundError{Entity: "user", Key: userID}
	}

	for _, roleID := range roleIDs {
		var ok bool
		if err := tx.QueryRowContext(ctx, `select exists(select 1 from roles where id=$1)`, roleID).Scan(&ok); err != nil {
			return err
		}
		if !ok {
			return &auth.NotFoundError{Entity: "role", Key: roleID}
		}
	}

	if _, err := tx.ExecContext(ctx, `delete from user_roles where user_id=$1`, userID); err != nil {
		return err
	}
	for _, roleID := range roleIDs {
		if _, err := tx.ExecContext(ctx, `
			insert into user_roles (user_id, role_id) values ($1, $2)
		`, userID, roleID); err != nil {
			if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
				return &auth.NotFoundError{Entity: "role", Key: roleID}
			}
			return err
		}
	}
	return tx.Commit()
}

func (s *userStore) RolesForUser(ctx context.Context, userID string) ([]auth.Role, error) {
	rows, err := s.db.QueryContext(ctx, `
		select r.id, r.name, r.active, r.created_at, r.updated_at
		from roles r
		join user_roles ur on ur.role_id = r.id
		where ur.user_id = $1
		order by r.id
	`, userID)
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

func nullify(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
