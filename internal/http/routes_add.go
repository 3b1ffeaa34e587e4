package httpx

import (
	"net/http"

	"github.com/target/courseshop/internal/domain/model"
	apperrors "github.com/target/courseshop/internal/errors"
)

// AddRoutes serves the new-course form.
type AddRoutes struct {
	Courses  CoursesService
	Renderer PageRenderer
}

// Prefix implements RouteGroup.
func (AddRoutes) Prefix() string { return "/add" }

// Routes implements RouteGroup.
func (h AddRoutes) Routes(g *Group) {
	g.Get("/", RequireAuth(h.form))
	g.Post("/", RequireAuth(h.create))
}

func (h AddRoutes) form(w http.ResponseWriter, r *http.Request) error {
	data := NewTemplateData(r, PageMeta{Title: "Add course", CurrentPage: PageAdd}).
		With("Form", model.CourseInput{}).
		Build()
	return h.Renderer.RenderFull(w, http.StatusOK, data)
}

func (h AddRoutes) create(w http.ResponseWriter, r *http.Request) error {
	in := model.CourseInput{
		Title:    formValue(r, "title"),
		Price:    formValue(r, "price"),
		ImageURL: formValue(r, "img"),
	}
	_, err := h.Courses.Create(r.Context(), StateFrom(r).User.ID, in)
	if apperrors.IsValidation(err) {
		data := NewTemplateData(r, PageMeta{Title: "Add course", CurrentPage: PageAdd}).
			With("Form", in).
			WithError(userMessage(err)).
			WithFieldErrors(fieldErrors(err)).
			Build()
		return h.Renderer.RenderFull(w, http.StatusUnprocessableEntity, data)
	}
	if err != nil {
		return err
	}
	return redirect(w, r, "/courses")
}
