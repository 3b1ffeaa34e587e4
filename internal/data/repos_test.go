package data

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/courseshop/internal/domain/model"
	"github.com/target/courseshop/internal/domain/session"
	"github.com/target/courseshop/internal/testutil"
)

func createTestUser(t *testing.T, repo *UserRepo, email string) *model.User {
	t.Helper()
	u, err := repo.Create(context.Background(), &model.User{Email: email, Name: "Test", PasswordHash: "hash"})
	require.NoError(t, err)
	return u
}

func createTestCourse(t *testing.T, repo *CourseRepo, ownerID, title, price string) *model.Course {
	t.Helper()
	in := model.CourseInput{Title: title, Price: price, ImageURL: "https://img.example.com/c.png"}
	require.NoError(t, in.Validate())
	c, err := repo.Create(context.Background(), ownerID, in)
	require.NoError(t, err)
	return c
}

func TestUserRepo(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	repo := NewUserRepoWithTimeProvider(db, NewFixedTimeProvider(testutil.TestTime()))

	u := createTestUser(t, repo, "  Ada@Example.com ")
	assert.Equal(t, "ada@example.com", u.Email)
	assert.True(t, u.CreatedAt.Equal(testutil.TestTime()))

	_, err := repo.Create(ctx, &model.User{Email: "ADA@example.com", Name: "Dup", PasswordHash: "hash"})
	require.ErrorIs(t, err, ErrEmailExists)

	got, err := repo.GetByEmail(ctx, "ada@EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = repo.GetByID(ctx, "not-a-uuid")
	require.ErrorIs(t, err, ErrUserNotFound)
	_, err = repo.GetByID(ctx, uuid.NewString())
	require.ErrorIs(t, err, ErrUserNotFound)

	avatar := "/images/avatar.png"
	updated, err := repo.UpdateProfile(ctx, u.ID, model.UpdateProfileRequest{Name: "Ada L.", AvatarURL: &avatar})
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", updated.Name)
	require.NotNil(t, updated.AvatarURL)
	assert.Equal(t, avatar, *updated.AvatarURL)

	updated, err = repo.UpdateProfile(ctx, u.ID, model.UpdateProfileRequest{Name: "Ada"})
	require.NoError(t, err)
	require.NotNil(t, updated.AvatarURL, "avatar is kept when not replaced")
	assert.Equal(t, avatar, *updated.AvatarURL)

	createTestUser(t, repo, "grace@example.com")
	list, err := repo.List(ctx, 1, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	deleted, err := repo.Delete(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = repo.Delete(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestCourseRepo(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, NewUserRepo(db), "owner@example.com")
	repo := NewCourseRepo(db)

	c := createTestCourse(t, repo, owner.ID, "Go in Practice", "19.99")
	assert.Equal(t, int64(1999), c.PriceCents)
	assert.Equal(t, owner.ID, c.OwnerID)

	in := model.CourseInput{Title: "Go in Production", Price: "25", ImageURL: c.ImageURL}
	require.NoError(t, in.Validate())
	updated, err := repo.Update(ctx, c.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Go in Production", updated.Title)
	assert.Equal(t, int64(2500), updated.PriceCents)

	_, err = repo.GetByID(ctx, "bogus")
	require.ErrorIs(t, err, ErrCourseNotFound)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	deleted, err := repo.Delete(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestCartAndOrderRepos(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, NewUserRepo(db), "buyer@example.com")
	courses := NewCourseRepo(db)
	c1 := createTestCourse(t, courses, user.ID, "One", "10")
	c2 := createTestCourse(t, courses, user.ID, "Two", "2.50")

	carts := NewCartRepo(db)
	require.NoError(t, carts.Add(ctx, user.ID, c1.ID))
	require.NoError(t, carts.Add(ctx, user.ID, c1.ID))
	require.NoError(t, carts.Add(ctx, user.ID, c2.ID))
	require.ErrorIs(t, carts.Add(ctx, user.ID, "bogus"), ErrCourseNotFound)

	cart, err := carts.Get(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, int64(2250), cart.TotalCents())

	require.NoError(t, carts.Remove(ctx, user.ID, c2.ID))
	cart, err = carts.Get(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1, "line dropped at zero quantity")

	orders := NewOrderRepo(db)
	_, err = orders.Create(ctx, user.ID, nil)
	require.ErrorIs(t, err, ErrCartEmpty)

	order, err := orders.Create(ctx, user.ID, cart.Items)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), order.TotalCents())
	require.NoError(t, carts.Clear(ctx, user.ID))

	// Order lines are a snapshot and survive later price changes.
	in := model.CourseInput{Title: "One", Price: "99", ImageURL: c1.ImageURL}
	require.NoError(t, in.Validate())
	_, err = courses.Update(ctx, c1.ID, in)
	require.NoError(t, err)

	list, err := orders.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, order.ID, list[0].ID)
	assert.Equal(t, int64(2000), list[0].TotalCents())
}

func TestSessionRepo(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	clock := NewFixedTimeProvider(testutil.TestTime())
	repo := NewSessionRepoWithTimeProvider(db, clock)

	now := clock.Now()
	rec := session.Record{
		ID:         "sess-1",
		Values:     map[string]json.RawMessage{session.KeyUserID: json.RawMessage(`"u1"`)},
		CreatedAt:  now,
		LastAccess: now,
		ExpiresAt:  now.Add(time.Hour),
	}
	require.NoError(t, repo.Save(ctx, rec))

	got, err := repo.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.JSONEq(t, `"u1"`, string(got.Values[session.KeyUserID]))

	rec.ExpiresAt = now.Add(2 * time.Hour)
	require.NoError(t, repo.Save(ctx, rec))

	clock.AddTime(90 * time.Minute)
	_, err = repo.Get(ctx, "sess-1")
	require.NoError(t, err, "upsert extended the expiry")

	clock.AddTime(time.Hour)
	_, err = repo.Get(ctx, "sess-1")
	require.ErrorIs(t, err, session.ErrNotFound)

	n, err := repo.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, repo.Delete(ctx, "missing"))
	require.NoError(t, repo.Save(ctx, session.Record{ID: "sess-2", ExpiresAt: clock.Now().Add(time.Hour)}))
	n, err = repo.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, repo.Ping(ctx))
}
