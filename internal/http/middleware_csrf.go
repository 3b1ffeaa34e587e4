package httpx

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/target/courseshop/internal/domain/session"
	apperrors "github.com/target/courseshop/internal/errors"
	"github.com/target/courseshop/internal/observability/metrics"
)

const (
	// CSRFFormField is the form field carrying the verification token.
	CSRFFormField = "_csrf"
	// DefaultCSRFTokenLength is the length of the CSRF token in bytes.
	DefaultCSRFTokenLength = 32
	// csrfRejectMessage is shown to the user on a failed check.
	csrfRejectMessage = "invalid verification token"
)

// csrfHeaders are checked, in order, after the form field.
//
//nolint:gochecknoglobals // static read-only lookup
var csrfHeaders = []string{"X-Csrf-Token", "X-Xsrf-Token", "Csrf-Token", "Xsrf-Token"}

// CSRFConfig holds configuration for the CSRF stage.
type CSRFConfig struct {
	// TokenLength is the length of the CSRF token in bytes (default: 32)
	TokenLength int
	Metrics     *metrics.Registry
}

// CSRFStage keeps one token per session and checks it on state-changing requests.
// GET, HEAD, OPTIONS, and TRACE requests only make sure a token exists.
// A state-changing request without a prior session always fails.
func CSRFStage(cfg CSRFConfig) Stage {
	if cfg.TokenLength == 0 {
		cfg.TokenLength = DefaultCSRFTokenLength
	}

	return Stage{Name: "csrf", Wrap: func(next HandlerFunc) HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) error {
			st := StateFrom(r)
			sess := st.Session
			if sess == nil {
				return apperrors.Internal("csrf check requires a session")
			}
			token := sess.String(session.KeyCSRF)

			if !requiresCSRFValidation(r.Method) {
				if token == "" {
					var err error
					token, err = generateCSRFToken(cfg.TokenLength)
					if err != nil {
						return err
					}
					if err := sess.Put(session.KeyCSRF, token); err != nil {
						return fmt.Errorf("store csrf token: %w", err)
					}
				}
				st.CSRFToken = token
				return next(w, r)
			}

			if sess.IsNew() || !validateCSRFToken(r, token) {
				cfg.Metrics.CSRFRejected()
				return apperrors.CSRF(csrfRejectMessage)
			}
			st.CSRFToken = token
			return next(w, r)
		}
	}}
}

// requiresCSRFValidation returns true if the HTTP method requires CSRF validation.
// Safe methods (GET, HEAD, OPTIONS, TRACE) are exempt.
func requiresCSRFValidation(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return false
	default:
		return true
	}
}

// generateCSRFToken generates a cryptographically secure random CSRF token.
// Returns an error if random generation fails - we fail closed rather than
// falling back to a predictable token.
func generateCSRFToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("csrf token generation failed: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// submittedCSRFToken returns the first non-empty token from the form field or the headers.
func submittedCSRFToken(r *http.Request) string {
	if err := r.ParseForm(); err == nil {
		if v := r.FormValue(CSRFFormField); v != "" {
			return v
		}
	}
	for _, h := range csrfHeaders {
		if v := r.Header.Get(h); v != "" {
			return v
		}
	}
	return ""
}

// validateCSRFToken compares the submitted token with the session token in constant time.
func validateCSRFToken(r *http.Request, sessionToken string) bool {
	if sessionToken == "" {
		return false
	}
	submitted := submittedCSRFToken(r)
	if submitted == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(submitted), []byte(sessionToken)) == 1
}
