package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/target/courseshop/internal/domain/session"
)

// SessionRepo is the Postgres-backed session store.
// Expiry is enforced on read; Cleanup sweeps expired rows.
type SessionRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewSessionRepo creates a new SessionRepo with real time provider.
func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewSessionRepoWithTimeProvider creates a new SessionRepo with a custom time provider (useful for tests).
func NewSessionRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *SessionRepo {
	return &SessionRepo{DB: db, timeProvider: tp}
}

// Get loads a live session record.
func (r *SessionRepo) Get(ctx context.Context, id string) (session.Record, error) {
	if id == "" {
		return session.Record{}, session.ErrNotFound
	}
	var (
		rec    session.Record
		values []byte
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, data, created_at, last_access, expires_at
		FROM sessions WHERE id = $1 AND expires_at > $2`,
		id, r.timeProvider.Now().UTC(),
	).Scan(&rec.ID, &values, &rec.CreatedAt, &rec.LastAccess, &rec.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Record{}, session.ErrNotFound
	}
	if err != nil {
		return session.Record{}, fmt.Errorf("get session: %w", err)
	}
	if err := json.Unmarshal(values, &rec.Values); err != nil {
		return session.Record{}, fmt.Errorf("decode session data: %w", err)
	}
	return rec, nil
}

// Save upserts the record.
func (r *SessionRepo) Save(ctx context.Context, rec session.Record) error {
	if rec.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	values, err := json.Marshal(rec.Values)
	if err != nil {
		return fmt.Errorf("encode session data: %w", err)
	}
	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO sessions (id, data, created_at, last_access, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET data = EXCLUDED.data, last_access = EXCLUDED.last_access, expires_at = EXCLUDED.expires_at`,
		rec.ID, values, rec.CreatedAt.UTC(), rec.LastAccess.UTC(), rec.ExpiresAt.UTC())
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Delete removes a record. Unknown ids are not an error.
func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Cleanup deletes expired rows and reports how many were removed.
func (r *SessionRepo) Cleanup(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, r.timeProvider.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("cleanup sessions: %w", err)
	}
	return res.RowsAffected()
}

// Purge deletes every session.
func (r *SessionRepo) Purge(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM sessions`)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return res.RowsAffected()
}

// Ping checks the database connection.
func (r *SessionRepo) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}
