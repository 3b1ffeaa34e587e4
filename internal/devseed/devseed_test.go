package devseed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/courseshop/internal/mocks/memory"
	"github.com/target/courseshop/internal/service"
	"golang.org/x/crypto/bcrypt"
)

func newSeedServices(t *testing.T) (Services, *memory.CourseRepo) {
	t.Helper()
	accounts, err := service.NewAccountService(service.AccountServiceOptions{
		Users: memory.NewUserRepo(),
		Cost:  bcrypt.MinCost,
	})
	require.NoError(t, err)
	courses := memory.NewCourseRepo()
	return Services{
		Accounts: accounts,
		Courses:  service.NewCourseService(service.CourseServiceOptions{Courses: courses}),
	}, courses
}

func TestRun_SeedsEmptyCatalog(t *testing.T) {
	ctx := context.Background()
	svcs, courses := newSeedServices(t)

	require.NoError(t, Run(ctx, svcs, nil))

	list, err := courses.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, len(defaultCourses()))

	u, err := svcs.Accounts.Authenticate(ctx, DemoEmail, DemoPassword)
	require.NoError(t, err)
	for _, c := range list {
		assert.Equal(t, u.ID, c.OwnerID)
	}
}

func TestRun_Idempotent(t *testing.T) {
	ctx := context.Background()
	svcs, courses := newSeedServices(t)

	require.NoError(t, Run(ctx, svcs, nil))
	require.NoError(t, Run(ctx, svcs, nil))

	list, err := courses.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, len(defaultCourses()))
}

func TestDefaultCoursesAreValid(t *testing.T) {
	for _, in := range defaultCourses() {
		in := in
		assert.NoError(t, in.Validate(), in.Title)
	}
}
