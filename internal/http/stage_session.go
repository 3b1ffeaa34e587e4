package httpx

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/target/courseshop/internal/domain/session"
	apperrors "github.com/target/courseshop/internal/errors"
	"github.com/target/courseshop/internal/service"
)

// DefaultSessionCookieName is the session cookie name when none is configured.
const DefaultSessionCookieName = "sid"

// SessionManager loads and commits sessions. Implemented by service.SessionService.
type SessionManager interface {
	Load(ctx context.Context, cookieValue string) (*session.Session, error)
	Commit(ctx context.Context, sess *session.Session) (service.CommitResult, error)
	IdleTimeout() time.Duration
}

// SessionStageConfig configures SessionStage.
type SessionStageConfig struct {
	Sessions     SessionManager // Required
	CookieName   string
	CookieDomain string
	// Secure forces the Secure attribute. TLS requests always get it.
	Secure bool
	Logger *slog.Logger
}

// SessionStage loads the session before the rest of the chain runs and commits it
// afterwards. Downstream output is buffered so the cookie can still be set and so a
// failed commit never leaves a half-written success response.
func SessionStage(cfg SessionStageConfig) Stage {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultSessionCookieName
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return Stage{Name: "session", Wrap: func(next HandlerFunc) HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) error {
			st := StateFrom(r)

			var raw string
			if c, err := r.Cookie(cfg.CookieName); err == nil {
				raw = c.Value
			}
			sess, err := cfg.Sessions.Load(r.Context(), raw)
			if err != nil {
				return apperrors.SessionUnavailable(err)
			}
			st.Session = sess

			bw := newBufferedWriter()
			handlerErr := next(bw, r)

			// Nothing reaches a gone client, so its session is left as stored.
			if r.Context().Err() != nil {
				return handlerErr
			}

			// The write must not be aborted by a client disconnect once issued.
			res, commitErr := cfg.Sessions.Commit(context.WithoutCancel(r.Context()), sess)
			if commitErr != nil {
				if handlerErr != nil {
					cfg.Logger.ErrorContext(r.Context(), "session commit failed after handler error",
						"error", commitErr, "request_id", st.RequestID)
					return handlerErr
				}
				return apperrors.SessionUnavailable(commitErr)
			}
			setSessionCookie(w, r, cfg, res, cfg.Sessions.IdleTimeout())

			if handlerErr != nil {
				return handlerErr
			}
			return bw.flushTo(w)
		}
	}}
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, cfg SessionStageConfig, res service.CommitResult, idle time.Duration) {
	secure := cfg.Secure || r.TLS != nil || isForwardedHTTPS(r)
	switch {
	case res.SetCookie:
		http.SetCookie(w, &http.Cookie{
			Name:     cfg.CookieName,
			Value:    res.Value,
			Path:     "/",
			Domain:   cfg.CookieDomain,
			Expires:  res.ExpiresAt,
			MaxAge:   int(idle / time.Second),
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})
	case res.ClearCookie:
		http.SetCookie(w, &http.Cookie{
			Name:     cfg.CookieName,
			Value:    "",
			Path:     "/",
			Domain:   cfg.CookieDomain,
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// isForwardedHTTPS checks if the request was forwarded over HTTPS.
// Handles comma-separated values in X-Forwarded-Proto header.
func isForwardedHTTPS(r *http.Request) bool {
	xfProto := r.Header.Get("X-Forwarded-Proto")
	if xfProto == "" {
		return false
	}
	for _, proto := range strings.Split(xfProto, ",") {
		if strings.EqualFold(strings.TrimSpace(proto), "https") {
			return true
		}
	}
	return false
}

// bufferedWriter collects a response so it can be committed or discarded as a whole.
type bufferedWriter struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newBufferedWriter() *bufferedWriter {
	return &bufferedWriter{header: make(http.Header)}
}

func (b *bufferedWriter) Header() http.Header { return b.header }

func (b *bufferedWriter) WriteHeader(status int) {
	if b.status == 0 {
		b.status = status
	}
}

func (b *bufferedWriter) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

func (b *bufferedWriter) flushTo(w http.ResponseWriter) error {
	dst := w.Header()
	for k, v := range b.header {
		dst[k] = append(dst[k], v...)
	}
	status := b.status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if b.body.Len() == 0 {
		return nil
	}
	_, err := b.body.WriteTo(w)
	return err
}
