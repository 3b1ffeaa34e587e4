package errors

import (
	"context"
	"fmt"
	"testing"

	apperrors "github.com/target/courseshop/internal/errors"
)

type customErr struct{}

func (*customErr) Error() string { return "custom" }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"app error code", fmt.Errorf("wrap: %w", apperrors.SessionUnavailable(context.DeadlineExceeded)), "session_unavailable"},
		{"innermost type", fmt.Errorf("outer: %w", &customErr{}), "errors_customerr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Fatalf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}
