package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/target/courseshop/internal/data"
	"github.com/target/courseshop/internal/domain/model"
	apperrors "github.com/target/courseshop/internal/errors"
	"github.com/target/courseshop/internal/ports"
)

// ShopServiceOptions groups dependencies for ShopService.
type ShopServiceOptions struct {
	Carts  ports.CartRepository
	Orders ports.OrderRepository
}

// ShopService manages carts and turns them into orders.
type ShopService struct {
	carts  ports.CartRepository
	orders ports.OrderRepository
}

// NewShopService constructs a ShopService.
func NewShopService(opts ShopServiceOptions) *ShopService {
	if opts.Carts == nil || opts.Orders == nil {
		panic("CartRepository and OrderRepository are required")
	}
	return &ShopService{carts: opts.Carts, orders: opts.Orders}
}

// Cart returns the user's cart.
func (s *ShopService) Cart(ctx context.Context, userID string) (model.Cart, error) {
	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return model.Cart{}, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

// AddToCart adds one unit of a course.
func (s *ShopService) AddToCart(ctx context.Context, userID, courseID string) error {
	err := s.carts.Add(ctx, userID, courseID)
	if errors.Is(err, data.ErrCourseNotFound) {
		return apperrors.Wrap(err, apperrors.ErrCodeNotFound, "course not found")
	}
	if err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}

// RemoveFromCart removes one unit of a course and returns the updated cart.
func (s *ShopService) RemoveFromCart(ctx context.Context, userID, courseID string) (model.Cart, error) {
	if err := s.carts.Remove(ctx, userID, courseID); err != nil {
		return model.Cart{}, fmt.Errorf("remove from cart: %w", err)
	}
	return s.Cart(ctx, userID)
}

// Orders lists the user's orders, newest first.
func (s *ShopService) Orders(ctx context.Context, userID string) ([]*model.Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// Checkout snapshots the cart into an order and empties the cart.
func (s *ShopService) Checkout(ctx context.Context, userID string) (*model.Order, error) {
	cart, err := s.Cart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, apperrors.Wrap(data.ErrCartEmpty, apperrors.ErrCodeValidation, "cart is empty")
	}
	order, err := s.orders.Create(ctx, userID, cart.Items)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	if err := s.carts.Clear(ctx, userID); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}
	return order, nil
}
