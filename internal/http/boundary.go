package httpx

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/target/courseshop/internal/domain/session"
	apperrors "github.com/target/courseshop/internal/errors"
	obserrors "github.com/target/courseshop/internal/observability/errors"
	"github.com/target/courseshop/internal/observability/metrics"
)

// LoginPath is where unauthenticated visitors of protected pages are sent.
const LoginPath = "/auth/login#login"

const genericErrorMessage = "Something went wrong. Please try again later."

var errLoginRequired = apperrors.Unauthorized("login required")

// NewRequestID returns a new ULID string.
func NewRequestID() string {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return ulid.Make().String()
	}
	return id.String()
}

// ErrorBoundaryConfig groups the collaborators of the ErrorBoundary.
type ErrorBoundaryConfig struct {
	Renderer PageRenderer
	Logger   *slog.Logger
	Metrics  *metrics.Registry
}

// ErrorBoundary adapts an error-returning chain to an http.Handler. It owns the
// RequestState and turns returned errors and panics into a rendered response.
type ErrorBoundary struct {
	renderer PageRenderer
	logger   *slog.Logger
	metrics  *metrics.Registry
}

// NewErrorBoundary constructs an ErrorBoundary.
func NewErrorBoundary(cfg ErrorBoundaryConfig) *ErrorBoundary {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorBoundary{
		renderer: cfg.Renderer,
		logger:   logger.With("component", "error_boundary"),
		metrics:  cfg.Metrics,
	}
}

// Wrap returns next as an http.Handler guarded by the boundary.
func (b *ErrorBoundary) Wrap(next HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := RequestIDFrom(ctx)
		if id == "" {
			id = NewRequestID()
			ctx = WithRequestID(ctx, id)
		}
		st := &RequestState{RequestID: id}
		r = r.WithContext(withState(ctx, st))

		tw := &statusWriter{ResponseWriter: w}
		if err := b.run(next, tw, r); err != nil {
			b.handle(tw, r, err)
		}
	})
}

func (b *ErrorBoundary) run(next HandlerFunc, w http.ResponseWriter, r *http.Request) (err error) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		//nolint:errorlint,err113 // http.ErrAbortHandler is a sentinel compared by identity
		if rec == http.ErrAbortHandler {
			panic(rec)
		}
		b.logger.ErrorContext(r.Context(), "panic",
			slog.Any("error", rec),
			slog.String("request_id", StateFrom(r).RequestID),
			slog.String("stack", string(debug.Stack())),
		)
		err = fmt.Errorf("panic: %v", rec)
	}()
	return next(w, r)
}

func (b *ErrorBoundary) handle(w *statusWriter, r *http.Request, err error) {
	st := StateFrom(r)
	if clientGone(r.Context(), err) {
		b.logger.DebugContext(r.Context(), "client went away",
			slog.String("request_id", st.RequestID),
			slog.Any("error", err),
		)
		return
	}

	status := apperrors.HTTPStatus(err)
	if apperrors.IsUnauthorized(err) {
		status = http.StatusFound
	}
	b.log(r, err, status)
	b.metrics.RequestError(err)

	if w.wroteHeader {
		return
	}
	if status == http.StatusFound {
		http.Redirect(w, r, LoginPath, http.StatusFound)
		return
	}

	msg := publicMessage(err, status)
	if b.renderer != nil {
		// Stages that failed early never exposed the token; forms on the page still need it.
		if st.CSRFToken == "" && st.Session != nil && !st.Session.IsNew() {
			st.CSRFToken = st.Session.String(session.KeyCSRF)
		}
		data := NewTemplateData(r, PageMeta{Title: http.StatusText(status), CurrentPage: PageError}).
			With("Status", status).
			With("Message", msg).
			Build()
		if rerr := b.renderer.RenderFull(w, status, data); rerr == nil {
			return
		}
	}
	http.Error(w, msg, status)
}

func (b *ErrorBoundary) log(r *http.Request, err error, status int) {
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	b.logger.LogAttrs(r.Context(), level, "request failed",
		slog.String("error_type", obserrors.Classify(err)),
		slog.Any("error", err),
		slog.Int("status", status),
		slog.String("request_id", StateFrom(r).RequestID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
}

// publicMessage returns text safe to show. Server errors never leak details.
func publicMessage(err error, status int) string {
	if status >= http.StatusInternalServerError {
		return genericErrorMessage
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return http.StatusText(status)
}

func clientGone(ctx context.Context, err error) bool {
	return ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled))
}

// statusWriter records whether a response has been started.
type statusWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
