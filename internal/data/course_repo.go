package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/target/courseshop/internal/data/pgxutil"
	"github.com/target/courseshop/internal/domain/model"
)

const courseColumns = `id, title, price_cents, image_url, owner_id, created_at, updated_at`

// CourseRepo provides database operations for the course catalog.
type CourseRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewCourseRepo creates a new CourseRepo with real time provider.
func NewCourseRepo(db *sql.DB) *CourseRepo {
	return &CourseRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// List returns every course, newest first.
func (r *CourseRepo) List(ctx context.Context) ([]*model.Course, error) {
	var rowsOut []model.Course
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `SELECT `+courseColumns+` FROM courses ORDER BY created_at DESC`)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Course])
		return err
	}); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	res := make([]*model.Course, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// GetByID retrieves a course by ID.
func (r *CourseRepo) GetByID(ctx context.Context, id string) (*model.Course, error) {
	if !isUUID(id) {
		return nil, ErrCourseNotFound
	}
	return r.getOne(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, "get course", id)
}

// Create inserts a course owned by ownerID. in must already be validated.
func (r *CourseRepo) Create(ctx context.Context, ownerID string, in model.CourseInput) (*model.Course, error) {
	now := r.timeProvider.Now().UTC()
	return r.getOne(ctx, `
		INSERT INTO courses (title, price_cents, image_url, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING `+courseColumns,
		"create course",
		in.Title, in.PriceCents(), in.ImageURL, ownerID, now,
	)
}

// Update replaces the editable fields of a course. in must already be validated.
func (r *CourseRepo) Update(ctx context.Context, id string, in model.CourseInput) (*model.Course, error) {
	if !isUUID(id) {
		return nil, ErrCourseNotFound
	}
	return r.getOne(ctx, `
		UPDATE courses SET title = $2, price_cents = $3, image_url = $4, updated_at = $5
		WHERE id = $1
		RETURNING `+courseColumns,
		"update course",
		id, in.Title, in.PriceCents(), in.ImageURL, r.timeProvider.Now().UTC(),
	)
}

// Delete removes a course. It reports whether a row was deleted.
func (r *CourseRepo) Delete(ctx context.Context, id string) (bool, error) {
	if !isUUID(id) {
		return false, nil
	}
	res, err := r.DB.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete course: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete course rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *CourseRepo) getOne(ctx context.Context, query, op string, args ...any) (*model.Course, error) {
	var out model.Course
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Course])
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCourseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &out, nil
}
