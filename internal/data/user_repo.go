package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/target/courseshop/internal/data/pgxutil"
	"github.com/target/courseshop/internal/domain/model"
)

const userColumns = `id, email, name, password_hash, avatar_url, created_at`

// UserRepo provides database operations for accounts.
type UserRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewUserRepo creates a new UserRepo with real time provider.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewUserRepoWithTimeProvider creates a new UserRepo with a custom time provider (useful for tests).
func NewUserRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *UserRepo {
	return &UserRepo{DB: db, timeProvider: tp}
}

// GetByID retrieves a user by ID. A malformed id is reported as not found.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	if !isUUID(id) {
		return nil, ErrUserNotFound
	}
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, "get user by id", id)
}

// GetByEmail retrieves a user by normalised email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, "get user by email", model.NormalizeEmail(email))
}

// Create inserts a user. The caller supplies the password hash.
func (r *UserRepo) Create(ctx context.Context, u *model.User) (*model.User, error) {
	if u == nil {
		return nil, errors.New("user is required")
	}
	createdAt := r.timeProvider.Now().UTC()
	out, err := r.getOne(ctx, `
		INSERT INTO users (email, name, password_hash, avatar_url, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns,
		"create user",
		model.NormalizeEmail(u.Email), u.Name, u.PasswordHash, u.AvatarURL, createdAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	return out, nil
}

// UpdateProfile changes the display name and, when provided, the avatar.
func (r *UserRepo) UpdateProfile(ctx context.Context, id string, req model.UpdateProfileRequest) (*model.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !isUUID(id) {
		return nil, ErrUserNotFound
	}
	return r.getOne(ctx, `
		UPDATE users SET name = $2, avatar_url = COALESCE($3, avatar_url)
		WHERE id = $1
		RETURNING `+userColumns,
		"update user profile",
		id, req.Name, req.AvatarURL,
	)
}

// List returns users ordered by creation time.
func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]*model.User, error) {
	if limit <= 0 {
		limit = 50
	}
	offset = max(offset, 0)

	var rowsOut []model.User
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.User])
		return err
	}); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	res := make([]*model.User, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// Delete removes a user and, via cascading keys, their cart and orders.
func (r *UserRepo) Delete(ctx context.Context, id string) (bool, error) {
	if !isUUID(id) {
		return false, nil
	}
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete user rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *UserRepo) getOne(ctx context.Context, query, op string, args ...any) (*model.User, error) {
	var out model.User
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.User])
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &out, nil
}
