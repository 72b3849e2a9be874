package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pgx "github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/AlibekovAA/dashboard-auth/internal/common/db"
	commonerrors "github.com/AlibekovAA/dashboard-auth/internal/common/errors"
	"github.com/AlibekovAA/dashboard-auth/internal/common/logger"
	"github.com/AlibekovAA/dashboard-auth/internal/common/resilience"
	"github.com/AlibekovAA/dashboard-auth/internal/user/domain"
	"github.com/AlibekovAA/dashboard-auth/internal/user/repository/migrations"
)

const (
	pgDriver   = "postgres"
	usersTable = "users"

	usernameConstraint = "users_username_key"
	emailConstraint    = "users_email_key"
)

const userColumns = `id, username, first_name, last_name, email, password, created_at`

// PgRepository stores users in Postgres. BIGSERIAL ids are never reused and
// uniqueness is enforced by the table constraints.
type PgRepository struct {
	pool    *pgxpool.Pool
	breaker *resilience.CircuitBreaker
	log     *logger.Logger
}

func NewPgRepository(pool *pgxpool.Pool, breaker *resilience.CircuitBreaker, log *logger.Logger) *PgRepository {
	return &PgRepository{pool: pool, breaker: breaker, log: log}
}

// IsBusinessError reports errors the store returns as answers; the circuit
// breaker should not count them as faults.
func IsBusinessError(err error) bool {
	if _, ok := db.UniqueViolation(err); ok {
		return true
	}
	return errors.Is(err, commonerrors.ErrUserNotFound) ||
		errors.Is(err, commonerrors.ErrUsernameAlreadyExists) ||
		errors.Is(err, commonerrors.ErrEmailAlreadyExists)
}

// EnsureSchema applies the embedded migrations, retrying while the
// database is still coming up.
func (r *PgRepository) EnsureSchema(ctx context.Context) error {
	sqlDB := db.OpenSQL(r.pool)
	defer sqlDB.Close()

	return db.RetryWithBackoff(ctx, r.log, db.StartupRetryConfig, func() error {
		if err := db.RunMigrations(ctx, sqlDB, migrations.Migrations); err != nil {
			return fmt.Errorf("migrate users schema: %w", err)
		}
		return nil
	})
}

func (r *PgRepository) call(ctx context.Context, operation string, fn func(context.Context) error) error {
	start := time.Now()
	err := r.breaker.Call(ctx, fn)
	var fault error
	if err != nil && !IsBusinessError(err) {
		fault = err
	}
	observe(pgDriver, operation, start, fault)
	if errors.Is(err, commonerrors.ErrCircuitOpen) {
		return err
	}
	if fault != nil {
		return commonerrors.ErrStorageFailure.WithCause(fault)
	}
	return err
}

// read is call for idempotent queries: transient failures are retried
// inside a single breaker call.
func (r *PgRepository) read(ctx context.Context, operation string, fn func(context.Context) error) error {
	return r.call(ctx, operation, func(ctx context.Context) error {
		return db.RetryWithBackoff(ctx, r.log, db.DefaultRetryConfig, func() error {
			return fn(ctx)
		})
	})
}

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		u  domain.User
		id int64
	)
	if err := row.Scan(&id, &u.Username, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		return domain.User{}, err
	}
	u.ID = domain.ID(id)
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

func mapConflict(err error) error {
	constraint, ok := db.UniqueViolation(err)
	if !ok {
		return err
	}
	switch constraint {
	case emailConstraint:
		return commonerrors.ErrEmailAlreadyExists.WithCause(err)
	case usernameConstraint:
		return commonerrors.ErrUsernameAlreadyExists.WithCause(err)
	}
	return commonerrors.ErrUsernameAlreadyExists.WithCause(err)
}

func (r *PgRepository) Create(ctx context.Context, candidate domain.NewUser) (domain.User, error) {
	var created domain.User
	err := r.call(ctx, "create", func(ctx context.Context) error {
		start := time.Now()
		row := r.pool.QueryRow(ctx,
			`INSERT INTO users (username, first_name, last_name, email, password, created_at)
			 VALUES ($1, $2, $3, $4, $5, now())
			 RETURNING `+userColumns,
			candidate.Username, candidate.FirstName, candidate.LastName, candidate.Email, candidate.PasswordHash,
		)
		u, err := scanUser(row)
		if err := db.HandleExecError(err, "create user", usersTable, start); err != nil {
			return mapConflict(err)
		}
		created = u
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return created, nil
}

func (r *PgRepository) findOne(ctx context.Context, operation, where string, arg any) (domain.User, bool, error) {
	var (
		found domain.User
		ok    bool
	)
	err := r.read(ctx, operation, func(ctx context.Context) error {
		start := time.Now()
		u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where+` = $1`, arg))
		err = db.HandleQueryError(err, commonerrors.ErrUserNotFound, strings.ReplaceAll(operation, "_", " "), usersTable, start)
		if errors.Is(err, commonerrors.ErrUserNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found, ok = u, true
		return nil
	})
	if err != nil {
		return domain.User{}, false, err
	}
	return found, ok, nil
}

func (r *PgRepository) FindByID(ctx context.Context, id domain.ID) (domain.User, bool, error) {
	return r.findOne(ctx, "find_by_id", "id", int64(id))
}

func (r *PgRepository) FindByUsername(ctx context.Context, username string) (domain.User, bool, error) {
	return r.findOne(ctx, "find_by_username", "username", username)
}

func (r *PgRepository) FindByEmail(ctx context.Context, email string) (domain.User, bool, error) {
	return r.findOne(ctx, "find_by_email", "email", email)
}

func (r *PgRepository) List(ctx context.Context) ([]domain.User, error) {
	return r.Search(ctx, "")
}

func (r *PgRepository) Search(ctx context.Context, query string) ([]domain.User, error) {
	var users []domain.User
	err := r.read(ctx, "search", func(ctx context.Context) error {
		start := time.Now()
		rows, err := r.pool.Query(ctx,
			`SELECT `+userColumns+`
			 FROM users
			 WHERE $1 = ''
			    OR strpos(lower(username), lower($1)) > 0
			    OR strpos(lower(first_name), lower($1)) > 0
			    OR strpos(lower(last_name), lower($1)) > 0
			    OR strpos(lower(email), lower($1)) > 0
			 ORDER BY id ASC`,
			query,
		)
		if err != nil {
			return db.HandleQueryError(err, nil, "search users", usersTable, start)
		}
		defer rows.Close()

		users = users[:0]
		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return fmt.Errorf("failed to scan user: %w", err)
			}
			users = append(users, u)
		}
		return db.HandleQueryError(rows.Err(), nil, "search users", usersTable, start)
	})
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

func (r *PgRepository) Update(ctx context.Context, id domain.ID, patch domain.Patch) (domain.User, error) {
	var updated domain.User
	err := r.call(ctx, "update", func(ctx context.Context) error {
		start := time.Now()
		row := r.pool.QueryRow(ctx,
			`UPDATE users SET
			    username   = COALESCE($2, username),
			    first_name = COALESCE($3, first_name),
			    last_name  = COALESCE($4, last_name),
			    email      = COALESCE($5, email)
			 WHERE id = $1
			 RETURNING `+userColumns,
			int64(id), patch.Username, patch.FirstName, patch.LastName, patch.Email,
		)
		u, err := scanUser(row)
		if err := db.HandleQueryError(err, commonerrors.ErrUserNotFound, "update user", usersTable, start); err != nil {
			return mapConflict(err)
		}
		updated = u
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return updated, nil
}

func (r *PgRepository) Delete(ctx context.Context, id domain.ID) (bool, error) {
	var removed bool
	err := r.call(ctx, "delete", func(ctx context.Context) error {
		start := time.Now()
		tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, int64(id))
		if err := db.HandleExecError(err, "delete user", usersTable, start); err != nil {
			return err
		}
		removed = tag.RowsAffected() > 0
		return nil
	})
	return removed, err
}

func (r *PgRepository) Count(ctx context.Context) (int, error) {
	var n int64
	err := r.read(ctx, "count", func(ctx context.Context) error {
		start := time.Now()
		err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n)
		return db.HandleQueryError(err, nil, "count users", usersTable, start)
	})
	return int(n), err
}
