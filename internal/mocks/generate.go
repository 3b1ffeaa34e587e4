// Package mocks provides gomock-generated doubles for the ports interfaces.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	users := mocks.NewMockUserReader(ctrl)
//	users.EXPECT().GetByID(gomock.Any(), "u1").Return(user, nil)
//
// Hand-written in-memory fakes live in internal/mocks/memory.
package mocks

// Generate mock for UserReader interface from internal/ports package.
// This creates MockUserReader with methods for all UserReader interface methods:
// GetByID
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=user_reader_mock.go github.com/target/courseshop/internal/ports UserReader

// Generate mock for SessionStore interface from internal/ports package.
// This creates MockSessionStore with methods for all SessionStore interface methods:
// Get, Save, Delete
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=session_store_mock.go github.com/target/courseshop/internal/ports SessionStore
