//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import "time"

// CartItem is one course line in a user's cart.
type CartItem struct {
	CourseID   string `json:"course_id"   db:"course_id"`
	Title      string `json:"title"       db:"title"`
	PriceCents int64  `json:"price_cents" db:"price_cents"`
	Quantity   int    `json:"quantity"    db:"quantity"`
}

// Cart is the set of items a user intends to order.
type Cart struct {
	Items []CartItem `json:"items"`
}

// TotalCents sums price times quantity over all items.
func (c Cart) TotalCents() int64 {
	var total int64
	for _, it := range c.Items {
		total += it.PriceCents * int64(it.Quantity)
	}
	return total
}

// Order is a snapshot of a cart at checkout time.
type Order struct {
	ID        string      `json:"id"         db:"id"`
	UserID    string      `json:"user_id"    db:"user_id"`
	Items     []OrderItem `json:"items"      db:"-"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}

// OrderItem is a priced line frozen at checkout.
type OrderItem struct {
	OrderID    string `json:"order_id"    db:"order_id"`
	CourseID   string `json:"course_id"   db:"course_id"`
	Title      string `json:"title"       db:"title"`
	PriceCents int64  `json:"price_cents" db:"price_cents"`
	Quantity   int    `json:"quantity"    db:"quantity"`
}

// TotalCents sums the order lines.
func (o Order) TotalCents() int64 {
	var total int64
	for _, it := range o.Items {
		total += it.PriceCents * int64(it.Quantity)
	}
	return total
}
