package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapDBError_NilError(t *testing.T) {
	if err := MapDBError(nil); err != nil {
		t.Errorf("MapDBError(nil) = %v, want nil", err)
	}
}

func TestMapDBError_ContextErrors(t *testing.T) {
	if err := MapDBError(fmt.Errorf("query: %w", context.DeadlineExceeded)); GetCode(err) != ErrCodeTimeout {
		t.Errorf("expected timeout code, got %v", GetCode(err))
	}
	if err := MapDBError(context.Canceled); GetCode(err) != ErrCodeCanceled {
		t.Errorf("expected canceled code, got %v", GetCode(err))
	}
}

func TestMapDBError_NoRows(t *testing.T) {
	if err := MapDBError(pgx.ErrNoRows); !IsNotFound(err) {
		t.Errorf("expected NotFound, got %v", GetCode(err))
	}
}

func TestMapDBError_UniqueViolation(t *testing.T) {
	tests := []struct {
		name      string
		pgErr     *pgconn.PgError
		wantField string
		wantMsg   string
	}{
		{
			name:      "column name",
			pgErr:     &pgconn.PgError{Code: pgerrcode.UniqueViolation, ColumnName: "email"},
			wantField: "email",
			wantMsg:   "An account with this email already exists.",
		},
		{
			name: "detail message",
			pgErr: &pgconn.PgError{
				Code:   pgerrcode.UniqueViolation,
				Detail: `Key (title)=(Go) already exists.`,
			},
			wantField: "title",
			wantMsg:   "This value already exists. Please choose a different one.",
		},
		{
			name:      "constraint name",
			pgErr:     &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"},
			wantField: "email",
			wantMsg:   "An account with this email already exists.",
		},
		{
			name:      "ambiguous constraint",
			pgErr:     &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "cart_items_user_course_key"},
			wantField: "",
			wantMsg:   "This value already exists. Please choose a different one.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.pgErr)
			if !IsConflict(err) {
				t.Fatalf("MapDBError() should be Conflict, got %v", GetCode(err))
			}
			if field := GetField(err); field != tt.wantField {
				t.Errorf("field = %q, want %q", field, tt.wantField)
			}
			var appErr *AppError
			if !errors.As(err, &appErr) || appErr.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", appErr.Message, tt.wantMsg)
			}
		})
	}
}

func TestMapDBError_ForeignKeyViolation(t *testing.T) {
	err := MapDBError(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, TableName: "courses"})
	if GetCode(err) != ErrCodeForeignKey {
		t.Fatalf("expected foreign key code, got %v", GetCode(err))
	}
	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError")
	}
	if want := "Cannot complete operation because the referenced course is missing or still in use."; appErr.Message != want {
		t.Errorf("message = %q, want %q", appErr.Message, want)
	}
}

func TestMapDBError_ConstraintViolations(t *testing.T) {
	for _, code := range []string{pgerrcode.CheckViolation, pgerrcode.NotNullViolation} {
		err := MapDBError(&pgconn.PgError{Code: code, ColumnName: "price"})
		if !IsValidation(err) {
			t.Errorf("code %s: expected validation, got %v", code, GetCode(err))
		}
		if GetField(err) != "price" {
			t.Errorf("code %s: field = %q", code, GetField(err))
		}
	}
}

func TestMapDBError_UnknownPgError(t *testing.T) {
	err := MapDBError(&pgconn.PgError{Code: pgerrcode.DiskFull})
	if GetCode(err) != ErrCodeInternal {
		t.Errorf("expected internal, got %v", GetCode(err))
	}
}

func TestMapDBError_StandardError(t *testing.T) {
	orig := errors.New("boom")
	if err := MapDBError(orig); !errors.Is(err, orig) || GetCode(err) != "" {
		t.Errorf("expected original error to pass through, got %v", err)
	}
}

func TestTableLabel(t *testing.T) {
	tests := map[string]string{
		"users":         "account",
		" ORDER_ITEMS ": "order",
		"wish_lists":    "wish lists",
		"":              "item",
	}
	for in, want := range tests {
		if got := tableLabel(in); got != want {
			t.Errorf("tableLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
