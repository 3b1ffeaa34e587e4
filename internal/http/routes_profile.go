package httpx

import (
	"net/http"

	"github.com/target/courseshop/internal/domain/model"
	apperrors "github.com/target/courseshop/internal/errors"
)

// ProfileRoutes shows and updates the signed-in user's profile.
type ProfileRoutes struct {
	Accounts AccountsService
	Avatars  AvatarStore
	Renderer PageRenderer
}

// Prefix implements RouteGroup.
func (ProfileRoutes) Prefix() string { return "/profile" }

// Routes implements RouteGroup.
func (h ProfileRoutes) Routes(g *Group) {
	g.Get("/", RequireAuth(h.show))
	g.Post("/", RequireAuth(h.update))
}

func (h ProfileRoutes) show(w http.ResponseWriter, r *http.Request) error {
	data := NewTemplateData(r, PageMeta{Title: "Profile", CurrentPage: PageProfile}).Build()
	return h.Renderer.RenderFull(w, http.StatusOK, data)
}

func (h ProfileRoutes) update(w http.ResponseWriter, r *http.Request) error {
	st := StateFrom(r)
	req := model.UpdateProfileRequest{Name: formValue(r, "name")}
	if st.Upload != nil {
		if h.Avatars == nil {
			return apperrors.Internal("avatar storage is not configured")
		}
		url, err := h.Avatars.Save(r.Context(), st.User.ID, st.Upload)
		if err != nil {
			return err
		}
		req.AvatarURL = &url
	}

	_, err := h.Accounts.UpdateProfile(r.Context(), st.User.ID, req)
	if apperrors.IsValidation(err) {
		if ferr := AddFlash(r, FlashError, userMessage(err)); ferr != nil {
			return ferr
		}
		return redirect(w, r, "/profile")
	}
	if err != nil {
		return err
	}
	return redirect(w, r, "/profile")
}
