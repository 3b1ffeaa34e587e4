package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/target/courseshop/internal/data"
	"github.com/target/courseshop/internal/domain/model"
	"github.com/target/courseshop/internal/ports"
)

var (
	_ ports.UserRepository   = (*UserRepo)(nil)
	_ ports.CourseRepository = (*CourseRepo)(nil)
	_ ports.CartRepository   = (*CartRepo)(nil)
	_ ports.OrderRepository  = (*OrderRepo)(nil)
)

// UserRepo is an in-memory ports.UserRepository.
type UserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
	Err   error
}

// NewUserRepo creates an empty user repository.
func NewUserRepo() *UserRepo {
	return &UserRepo{users: map[string]*model.User{}}
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, data.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	email = model.NormalizeEmail(email)
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, data.ErrUserNotFound
}

func (r *UserRepo) Create(_ context.Context, u *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return nil, data.ErrEmailExists
		}
	}
	cp := *u
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	r.users[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *UserRepo) UpdateProfile(_ context.Context, id string, req model.UpdateProfileRequest) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, data.ErrUserNotFound
	}
	u.Name = req.Name
	if req.AvatarURL != nil {
		v := *req.AvatarURL
		u.AvatarURL = &v
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepo) List(_ context.Context, limit, offset int) ([]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := make([]*model.User, 0, len(r.users))
	for _, u := range r.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return page(out, limit, offset), nil
}

func (r *UserRepo) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}
	_, ok := r.users[id]
	delete(r.users, id)
	return ok, nil
}

// CourseRepo is an in-memory ports.CourseRepository.
type CourseRepo struct {
	mu      sync.Mutex
	courses map[string]*model.Course
	seq     int
}

// NewCourseRepo creates an empty course repository.
func NewCourseRepo() *CourseRepo {
	return &CourseRepo{courses: map[string]*model.Course{}}
}

func (r *CourseRepo) List(_ context.Context) ([]*model.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Course, 0, len(r.courses))
	for _, c := range r.courses {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *CourseRepo) GetByID(_ context.Context, id string) (*model.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.courses[id]
	if !ok {
		return nil, data.ErrCourseNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *CourseRepo) Create(_ context.Context, ownerID string, in model.CourseInput) (*model.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	now := time.Now().UTC().Add(time.Duration(r.seq) * time.Microsecond)
	c := &model.Course{
		ID:         uuid.NewString(),
		Title:      in.Title,
		PriceCents: in.PriceCents(),
		ImageURL:   in.ImageURL,
		OwnerID:    ownerID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.courses[c.ID] = c
	cp := *c
	return &cp, nil
}

func (r *CourseRepo) Update(_ context.Context, id string, in model.CourseInput) (*model.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.courses[id]
	if !ok {
		return nil, data.ErrCourseNotFound
	}
	c.Title = in.Title
	c.PriceCents = in.PriceCents()
	c.ImageURL = in.ImageURL
	c.UpdatedAt = time.Now().UTC()
	cp := *c
	return &cp, nil
}

func (r *CourseRepo) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.courses[id]
	delete(r.courses, id)
	return ok, nil
}

// CartRepo is an in-memory ports.CartRepository backed by a CourseRepo.
type CartRepo struct {
	mu      sync.Mutex
	courses *CourseRepo
	lines   map[string][]model.CartItem
}

// NewCartRepo creates an empty cart repository resolving courses from courses.
func NewCartRepo(courses *CourseRepo) *CartRepo {
	return &CartRepo{courses: courses, lines: map[string][]model.CartItem{}}
}

func (r *CartRepo) Get(ctx context.Context, userID string) (model.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []model.CartItem
	for _, it := range r.lines[userID] {
		c, err := r.courses.GetByID(ctx, it.CourseID)
		if err != nil {
			continue
		}
		it.Title = c.Title
		it.PriceCents = c.PriceCents
		items = append(items, it)
	}
	return model.Cart{Items: items}, nil
}

func (r *CartRepo) Add(ctx context.Context, userID, courseID string) error {
	if _, err := r.courses.GetByID(ctx, courseID); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	lines := r.lines[userID]
	for i := range lines {
		if lines[i].CourseID == courseID {
			lines[i].Quantity++
			return nil
		}
	}
	r.lines[userID] = append(lines, model.CartItem{CourseID: courseID, Quantity: 1})
	return nil
}

func (r *CartRepo) Remove(_ context.Context, userID, courseID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	lines := r.lines[userID]
	for i := range lines {
		if lines[i].CourseID != courseID {
			continue
		}
		lines[i].Quantity--
		if lines[i].Quantity <= 0 {
			lines = append(lines[:i], lines[i+1:]...)
		}
		r.lines[userID] = lines
		return nil
	}
	return nil
}

func (r *CartRepo) Clear(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.lines, userID)
	return nil
}

// OrderRepo is an in-memory ports.OrderRepository.
type OrderRepo struct {
	mu     sync.Mutex
	orders []*model.Order
}

// NewOrderRepo creates an empty order repository.
func NewOrderRepo() *OrderRepo {
	return &OrderRepo{}
}

func (r *OrderRepo) ListByUser(_ context.Context, userID string) ([]*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Order
	for i := len(r.orders) - 1; i >= 0; i-- {
		if o := r.orders[i]; o.UserID == userID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *OrderRepo) Create(_ context.Context, userID string, items []model.CartItem) (*model.Order, error) {
	if len(items) == 0 {
		return nil, data.ErrCartEmpty
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	o := &model.Order{ID: uuid.NewString(), UserID: userID, CreatedAt: time.Now().UTC()}
	for _, it := range items {
		o.Items = append(o.Items, model.OrderItem{
			OrderID:    o.ID,
			CourseID:   it.CourseID,
			Title:      it.Title,
			PriceCents: it.PriceCents,
			Quantity:   it.Quantity,
		})
	}
	r.orders = append(r.orders, o)
	cp := *o
	return &cp, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
