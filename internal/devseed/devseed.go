// Package devseed fills an empty development database with a demo account and catalog.
package devseed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/target/courseshop/internal/domain/model"
	apperrors "github.com/target/courseshop/internal/errors"
)

// DemoEmail and DemoPassword sign in to the seeded account.
const (
	DemoEmail    = "demo@courseshop.local"
	DemoPassword = "demo-password"
)

// Accounts is the subset of the account service used for seeding.
type Accounts interface {
	Register(ctx context.Context, req model.RegisterRequest) (*model.User, error)
	Authenticate(ctx context.Context, email, password string) (*model.User, error)
}

// Courses is the subset of the catalog service used for seeding.
type Courses interface {
	List(ctx context.Context) ([]*model.Course, error)
	Create(ctx context.Context, ownerID string, in model.CourseInput) (*model.Course, error)
}

// Services bundles the dependencies needed for development seeding.
type Services struct {
	Accounts Accounts
	Courses  Courses
}

// Run creates the demo account if missing and seeds the catalog when it is empty.
func Run(ctx context.Context, svcs Services, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	owner, err := seedAccount(ctx, svcs.Accounts, logger)
	if err != nil {
		return err
	}

	existing, err := svcs.Courses.List(ctx)
	if err != nil {
		return fmt.Errorf("list courses: %w", err)
	}
	if len(existing) > 0 {
		logger.InfoContext(ctx, "catalog already seeded", "courses", len(existing))
		return nil
	}

	failures := 0
	for _, in := range defaultCourses() {
		c, err := svcs.Courses.Create(ctx, owner.ID, in)
		if err != nil {
			logger.ErrorContext(ctx, "failed to create course", "title", in.Title, "error", err)
			failures++
			continue
		}
		logger.InfoContext(ctx, "created course", "id", c.ID, "title", c.Title)
	}
	if failures > 0 {
		return fmt.Errorf("%d seed errors; check logs", failures)
	}
	return nil
}

func seedAccount(ctx context.Context, accounts Accounts, logger *slog.Logger) (*model.User, error) {
	u, err := accounts.Register(ctx, model.RegisterRequest{
		Email:    DemoEmail,
		Name:     "Demo Author",
		Password: DemoPassword,
		Confirm:  DemoPassword,
	})
	if err == nil {
		logger.InfoContext(ctx, "created demo account", "email", DemoEmail)
		return u, nil
	}
	if !apperrors.IsConflict(err) {
		return nil, fmt.Errorf("register demo account: %w", err)
	}
	u, err = accounts.Authenticate(ctx, DemoEmail, DemoPassword)
	if err != nil {
		return nil, fmt.Errorf("demo account exists with a different password: %w", err)
	}
	logger.InfoContext(ctx, "demo account already exists", "email", DemoEmail)
	return u, nil
}

func defaultCourses() []model.CourseInput {
	return []model.CourseInput{
		{Title: "Go for JavaScript developers", Price: "49.00", ImageURL: "https://picsum.photos/seed/go/600/400"},
		{Title: "Practical PostgreSQL", Price: "39.50", ImageURL: "https://picsum.photos/seed/pg/600/400"},
		{Title: "HTTP from the ground up", Price: "29.99", ImageURL: "https://picsum.photos/seed/http/600/400"},
		{Title: "Server-side rendering with templates", Price: "19", ImageURL: "https://picsum.photos/seed/ssr/600/400"},
	}
}
