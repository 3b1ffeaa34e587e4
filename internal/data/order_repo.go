package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/target/courseshop/internal/data/pgxutil"
	"github.com/target/courseshop/internal/domain/model"
)

// OrderRepo provides database operations for orders.
type OrderRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewOrderRepo creates a new OrderRepo with real time provider.
func NewOrderRepo(db *sql.DB) *OrderRepo {
	return &OrderRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// ListByUser returns a user's orders with their lines, newest first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID string) ([]*model.Order, error) {
	var orders []*model.Order
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT id, user_id, created_at FROM orders
			WHERE user_id = $1 ORDER BY created_at DESC`, userID)
		if err != nil {
			return err
		}
		orders, err = pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[model.Order])
		if err != nil {
			return err
		}
		if len(orders) == 0 {
			return nil
		}

		byID := make(map[string]*model.Order, len(orders))
		ids := make([]string, len(orders))
		for i, o := range orders {
			byID[o.ID] = o
			ids[i] = o.ID
		}
		itemRows, err := conn.Query(ctx, `
			SELECT order_id, course_id, title, price_cents, quantity
			FROM order_items WHERE order_id = ANY($1::uuid[])
			ORDER BY title`, ids)
		if err != nil {
			return err
		}
		items, err := pgx.CollectRows(itemRows, pgx.RowToStructByName[model.OrderItem])
		if err != nil {
			return err
		}
		for _, it := range items {
			if o, ok := byID[it.OrderID]; ok {
				o.Items = append(o.Items, it)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// Create snapshots the given cart lines into a new order.
func (r *OrderRepo) Create(ctx context.Context, userID string, items []model.CartItem) (*model.Order, error) {
	if len(items) == 0 {
		return nil, ErrCartEmpty
	}
	order := &model.Order{UserID: userID}
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{Fn: func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO orders (user_id, created_at) VALUES ($1, $2)
			RETURNING id, created_at`, userID, r.timeProvider.Now().UTC(),
		).Scan(&order.ID, &order.CreatedAt); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		batch := &pgx.Batch{}
		for _, it := range items {
			batch.Queue(`
				INSERT INTO order_items (order_id, course_id, title, price_cents, quantity)
				VALUES ($1, $2, $3, $4, $5)`,
				order.ID, it.CourseID, it.Title, it.PriceCents, it.Quantity)
			order.Items = append(order.Items, model.OrderItem{
				OrderID:    order.ID,
				CourseID:   it.CourseID,
				Title:      it.Title,
				PriceCents: it.PriceCents,
				Quantity:   it.Quantity,
			})
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert order items: %w", err)
		}
		return nil
	}})
	if err != nil {
		return nil, err
	}
	return order, nil
}
