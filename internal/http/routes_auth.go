package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/target/courseshop/internal/domain/model"
	"github.com/target/courseshop/internal/domain/session"
	apperrors "github.com/target/courseshop/internal/errors"
	"github.com/target/courseshop/internal/service"
)

const (
	loginRedirect    = "/auth/login#login"
	registerRedirect = "/auth/login#register"
)

// AuthRoutes handles sign-in, sign-up and sign-out.
type AuthRoutes struct {
	Accounts AccountsService
	Renderer PageRenderer
	Logger   *slog.Logger
}

// Prefix implements RouteGroup.
func (AuthRoutes) Prefix() string { return "/auth" }

// Routes implements RouteGroup.
func (h AuthRoutes) Routes(g *Group) {
	g.Get("/login", h.loginPage)
	g.Post("/login", h.login)
	g.Post("/register", h.register)
	g.Get("/logout", h.logout)
	g.Post("/logout", h.logout)
}

func (h AuthRoutes) loginPage(w http.ResponseWriter, r *http.Request) error {
	data := NewTemplateData(r, PageMeta{Title: "Sign in", CurrentPage: PageAuth}).Build()
	return h.Renderer.RenderFull(w, http.StatusOK, data)
}

func (h AuthRoutes) login(w http.ResponseWriter, r *http.Request) error {
	sess, err := requireSession(r)
	if err != nil {
		return err
	}
	user, err := h.Accounts.Authenticate(r.Context(), formValue(r, "email"), r.FormValue("password"))
	if errors.Is(err, service.ErrInvalidCredentials) {
		if ferr := AddFlash(r, FlashLogin, "Invalid email or password."); ferr != nil {
			return ferr
		}
		return redirect(w, r, loginRedirect)
	}
	if err != nil {
		return err
	}

	// Rotate the session id on sign-in.
	sess.RenewID(service.NewSessionID())
	if err := sess.Put(session.KeyUserID, user.ID); err != nil {
		return err
	}
	if err := sess.Put(session.KeyAuthenticated, true); err != nil {
		return err
	}
	h.logger().InfoContext(r.Context(), "user signed in",
		"user_id", user.ID, "request_id", StateFrom(r).RequestID)
	return redirect(w, r, "/")
}

func (h AuthRoutes) register(w http.ResponseWriter, r *http.Request) error {
	req := model.RegisterRequest{
		Email:    r.FormValue("email"),
		Name:     r.FormValue("name"),
		Password: r.FormValue("password"),
		Confirm:  r.FormValue("confirm"),
	}
	_, err := h.Accounts.Register(r.Context(), req)
	if apperrors.IsValidation(err) || apperrors.IsConflict(err) {
		if ferr := AddFlash(r, FlashReg, userMessage(err)); ferr != nil {
			return ferr
		}
		return redirect(w, r, registerRedirect)
	}
	if err != nil {
		return err
	}
	if err := AddFlash(r, FlashSuccess, "Account created. You can sign in now."); err != nil {
		return err
	}
	return redirect(w, r, loginRedirect)
}

func (h AuthRoutes) logout(w http.ResponseWriter, r *http.Request) error {
	sess, err := requireSession(r)
	if err != nil {
		return err
	}
	sess.Destroy()
	return redirect(w, r, loginRedirect)
}

func (h AuthRoutes) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}
