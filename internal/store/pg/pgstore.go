package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"schoolhub.org/internal/auth"
)

const (
	pgErrUniqueViolation     = "23505"
	pgErrForeignKeyViolation = "23503"
)

// Store is the Postgres-backed auth.Store. All accessors share the single
// *sql.DB pool.
type Store struct {
	db          *sql.DB
	users       *userStore
	roles       *roleStore
	permissions *permissionStore
}

var _ auth.Store = (*Store)(nil)

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return NewStore(db), nil
}

// NewStore wraps an existing pool (tests use sqlmock here).
func NewStore(db *sql.DB) *Store {
	s := &Store{db: db}
	s.users = &userStore{db: db}
	s.roles = &roleStore{db: db}
	s.permissions = &permissionStore{db: db}
	return s
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Users() auth.UserStore { return s.users }

func (s *Store) Roles() auth.RoleStore { return s.roles }

func (s *Store) Permissions() auth.PermissionStore { return s.permissions }

func maybePgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}
