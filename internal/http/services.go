package httpx

import (
	"context"

	"github.com/target/courseshop/internal/domain/model"
	"github.com/target/courseshop/internal/service"
)

// AccountsService is a minimal interface for the auth and profile pages.
type AccountsService interface {
	Register(ctx context.Context, req model.RegisterRequest) (*model.User, error)
	Authenticate(ctx context.Context, email, password string) (*model.User, error)
	UpdateProfile(ctx context.Context, id string, req model.UpdateProfileRequest) (*model.User, error)
}

// CoursesService is a minimal interface for the catalog pages.
type CoursesService interface {
	List(ctx context.Context) ([]*model.Course, error)
	Get(ctx context.Context, id string) (*model.Course, error)
	Create(ctx context.Context, ownerID string, in model.CourseInput) (*model.Course, error)
	GetOwned(ctx context.Context, userID, id string) (*model.Course, error)
	Update(ctx context.Context, userID, id string, in model.CourseInput) (*model.Course, error)
	Delete(ctx context.Context, userID, id string) error
}

// ShopService is a minimal interface for the cart and orders pages.
type ShopService interface {
	Cart(ctx context.Context, userID string) (model.Cart, error)
	AddToCart(ctx context.Context, userID, courseID string) error
	RemoveFromCart(ctx context.Context, userID, courseID string) (model.Cart, error)
	Orders(ctx context.Context, userID string) ([]*model.Order, error)
	Checkout(ctx context.Context, userID string) (*model.Order, error)
}

// AvatarStore persists an uploaded avatar and returns its public URL.
type AvatarStore interface {
	Save(ctx context.Context, userID string, up *Upload) (string, error)
}

// Compile-time interface assertions to ensure concrete services satisfy their UI interfaces.
var (
	_ AccountsService = (*service.AccountService)(nil)
	_ CoursesService  = (*service.CourseService)(nil)
	_ ShopService     = (*service.ShopService)(nil)
)
