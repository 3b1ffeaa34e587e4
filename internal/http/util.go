package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/target/courseshop/internal/domain/session"
	apperrors "github.com/target/courseshop/internal/errors"
)

// formValue returns the trimmed form field.
func formValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.FormValue(key))
}

// requireSession returns the request's session. The session stage always sets one,
// so a nil session means the route was mounted outside the pipeline.
func requireSession(r *http.Request) (*session.Session, error) {
	sess := StateFrom(r).Session
	if sess == nil {
		return nil, apperrors.Internal("session stage did not run")
	}
	return sess, nil
}

// userMessage returns the client-safe message of a 4xx AppError, or "" for anything else.
func userMessage(err error) string {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return ""
	}
	if apperrors.HTTPStatus(err) >= http.StatusInternalServerError {
		return ""
	}
	return appErr.Message
}

// fieldErrors converts a validation error into a field map for form templates.
func fieldErrors(err error) map[string]string {
	field := apperrors.GetField(err)
	if field == "" {
		return nil
	}
	return map[string]string{field: userMessage(err)}
}

// redirect answers a form post with 302 to target.
func redirect(w http.ResponseWriter, r *http.Request, target string) error {
	http.Redirect(w, r, target, http.StatusFound)
	return nil
}
