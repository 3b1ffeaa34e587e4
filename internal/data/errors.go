package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	// User repository sentinels.
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already registered")

	// Course repository sentinels.
	ErrCourseNotFound = errors.New("course not found")

	// Cart / order sentinels.
	ErrCartEmpty = errors.New("cart is empty")
)
