package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/courseshop/internal/domain/model"
	apperrors "github.com/target/courseshop/internal/errors"
	"github.com/target/courseshop/internal/mocks/memory"
)

func courseInput(title string) model.CourseInput {
	return model.CourseInput{Title: title, Price: "19.99", ImageURL: "https://img.example/c.png"}
}

func TestCourseService_OwnerChecks(t *testing.T) {
	svc := NewCourseService(CourseServiceOptions{Courses: memory.NewCourseRepo()})
	ctx := context.Background()

	c, err := svc.Create(ctx, "owner", courseInput("Go basics"))
	require.NoError(t, err)
	assert.Equal(t, int64(1999), c.PriceCents)

	_, err = svc.Update(ctx, "intruder", c.ID, courseInput("Hijacked"))
	assert.True(t, apperrors.IsForbidden(err))

	updated, err := svc.Update(ctx, "owner", c.ID, courseInput("Go advanced"))
	require.NoError(t, err)
	assert.Equal(t, "Go advanced", updated.Title)

	assert.True(t, apperrors.IsForbidden(svc.Delete(ctx, "intruder", c.ID)))
	require.NoError(t, svc.Delete(ctx, "owner", c.ID))

	_, err = svc.Get(ctx, c.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCourseService_CreateValidation(t *testing.T) {
	svc := NewCourseService(CourseServiceOptions{Courses: memory.NewCourseRepo()})

	in := courseInput("")
	_, err := svc.Create(context.Background(), "owner", in)
	assert.True(t, apperrors.IsValidation(err))
}

func TestShopService_CheckoutClearsCart(t *testing.T) {
	courses := memory.NewCourseRepo()
	catalog := NewCourseService(CourseServiceOptions{Courses: courses})
	shop := NewShopService(ShopServiceOptions{Carts: memory.NewCartRepo(courses), Orders: memory.NewOrderRepo()})
	ctx := context.Background()

	c, err := catalog.Create(ctx, "owner", courseInput("Go basics"))
	require.NoError(t, err)

	_, err = shop.Checkout(ctx, "buyer")
	assert.True(t, apperrors.IsValidation(err), "empty cart cannot be ordered")

	require.NoError(t, shop.AddToCart(ctx, "buyer", c.ID))
	assert.True(t, apperrors.IsNotFound(shop.AddToCart(ctx, "buyer", "missing")))

	order, err := shop.Checkout(ctx, "buyer")
	require.NoError(t, err)
	assert.Equal(t, int64(1999), order.TotalCents())

	cart, err := shop.Cart(ctx, "buyer")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	orders, err := shop.Orders(ctx, "buyer")
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestShopService_RemoveFromCart(t *testing.T) {
	courses := memory.NewCourseRepo()
	catalog := NewCourseService(CourseServiceOptions{Courses: courses})
	shop := NewShopService(ShopServiceOptions{Carts: memory.NewCartRepo(courses), Orders: memory.NewOrderRepo()})
	ctx := context.Background()

	c, err := catalog.Create(ctx, "owner", courseInput("Go basics"))
	require.NoError(t, err)
	require.NoError(t, shop.AddToCart(ctx, "buyer", c.ID))
	require.NoError(t, shop.AddToCart(ctx, "buyer", c.ID))

	cart, err := shop.RemoveFromCart(ctx, "buyer", c.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 1, cart.Items[0].Quantity)

	cart, err = shop.RemoveFromCart(ctx, "buyer", c.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}
