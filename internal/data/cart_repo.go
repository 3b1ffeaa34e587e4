package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/target/courseshop/internal/data/pgxutil"
	"github.com/target/courseshop/internal/domain/model"
)

// CartRepo provides database operations for per-user carts.
type CartRepo struct {
	DB *sql.DB
}

// NewCartRepo creates a new CartRepo.
func NewCartRepo(db *sql.DB) *CartRepo {
	return &CartRepo{DB: db}
}

// Get returns the user's cart joined with current course data.
func (r *CartRepo) Get(ctx context.Context, userID string) (model.Cart, error) {
	var items []model.CartItem
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT ci.course_id, c.title, c.price_cents, ci.quantity
			FROM cart_items ci
			JOIN courses c ON c.id = ci.course_id
			WHERE ci.user_id = $1
			ORDER BY ci.added_at`, userID)
		if err != nil {
			return err
		}
		defer rows.Close()
		items, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.CartItem])
		return err
	}); err != nil {
		return model.Cart{}, fmt.Errorf("get cart: %w", err)
	}
	return model.Cart{Items: items}, nil
}

// Add puts one more of the course into the cart.
func (r *CartRepo) Add(ctx context.Context, userID, courseID string) error {
	if !isUUID(courseID) {
		return ErrCourseNotFound
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO cart_items (user_id, course_id, quantity)
		VALUES ($1, $2, 1)
		ON CONFLICT (user_id, course_id) DO UPDATE SET quantity = cart_items.quantity + 1`,
		userID, courseID)
	if err != nil {
		return fmt.Errorf("add cart item: %w", err)
	}
	return nil
}

// Remove decrements the course quantity, dropping the line at zero.
func (r *CartRepo) Remove(ctx context.Context, userID, courseID string) error {
	if !isUUID(courseID) {
		return nil
	}
	return pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{Fn: func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			UPDATE cart_items SET quantity = quantity - 1
			WHERE user_id = $1 AND course_id = $2`, userID, courseID); err != nil {
			return fmt.Errorf("decrement cart item: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			DELETE FROM cart_items WHERE user_id = $1 AND course_id = $2 AND quantity <= 0`,
			userID, courseID); err != nil {
			return fmt.Errorf("drop empty cart item: %w", err)
		}
		return nil
	}})
}

// Clear empties the cart.
func (r *CartRepo) Clear(ctx context.Context, userID string) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
