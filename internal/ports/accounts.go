package ports

import (
	"context"

	"github.com/target/courseshop/internal/domain/model"
)

// UserReader resolves the user bound to a session.
type UserReader interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// UserRepository persists accounts.
type UserRepository interface {
	UserReader
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, u *model.User) (*model.User, error)
	UpdateProfile(ctx context.Context, id string, req model.UpdateProfileRequest) (*model.User, error)
	List(ctx context.Context, limit, offset int) ([]*model.User, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// CourseRepository persists the catalog.
type CourseRepository interface {
	List(ctx context.Context) ([]*model.Course, error)
	GetByID(ctx context.Context, id string) (*model.Course, error)
	Create(ctx context.Context, ownerID string, in model.CourseInput) (*model.Course, error)
	Update(ctx context.Context, id string, in model.CourseInput) (*model.Course, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// CartRepository persists per-user carts.
type CartRepository interface {
	Get(ctx context.Context, userID string) (model.Cart, error)
	Add(ctx context.Context, userID, courseID string) error
	Remove(ctx context.Context, userID, courseID string) error
	Clear(ctx context.Context, userID string) error
}

// OrderRepository persists checked-out orders.
type OrderRepository interface {
	ListByUser(ctx context.Context, userID string) ([]*model.Order, error)
	Create(ctx context.Context, userID string, items []model.CartItem) (*model.Order, error)
}
