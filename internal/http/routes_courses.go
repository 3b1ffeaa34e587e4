package httpx

import (
	"net/http"

	"github.com/target/courseshop/internal/domain/model"
	apperrors "github.com/target/courseshop/internal/errors"
)

// CourseRoutes serves the catalog: list, detail, owner edit and removal.
type CourseRoutes struct {
	Courses  CoursesService
	Renderer PageRenderer
}

// Prefix implements RouteGroup.
func (CourseRoutes) Prefix() string { return "/courses" }

// Routes implements RouteGroup.
func (h CourseRoutes) Routes(g *Group) {
	g.Get("/", h.list)
	g.Get("/{id}", h.show)
	g.Get("/{id}/edit", RequireAuth(h.editForm))
	g.Post("/{id}/edit", RequireAuth(h.update))
	g.Post("/remove", RequireAuth(h.remove))
}

func (h CourseRoutes) list(w http.ResponseWriter, r *http.Request) error {
	courses, err := h.Courses.List(r.Context())
	if err != nil {
		return err
	}
	var userID string
	if u := StateFrom(r).User; u != nil {
		userID = u.ID
	}
	data := NewTemplateData(r, PageMeta{Title: "Courses", CurrentPage: PageCourses}).
		With("Courses", courses).
		With("UserID", userID).
		Build()
	return h.Renderer.RenderFull(w, http.StatusOK, data)
}

func (h CourseRoutes) show(w http.ResponseWriter, r *http.Request) error {
	course, err := h.Courses.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		return err
	}
	data := NewTemplateData(r, PageMeta{Title: course.Title, CurrentPage: PageCourse}).
		With("Course", course).
		Build()
	return h.Renderer.RenderFull(w, http.StatusOK, data)
}

func (h CourseRoutes) editForm(w http.ResponseWriter, r *http.Request) error {
	course, err := h.Courses.GetOwned(r.Context(), StateFrom(r).User.ID, r.PathValue("id"))
	if err != nil {
		return err
	}
	return h.renderEdit(w, r, course, nil)
}

func (h CourseRoutes) update(w http.ResponseWriter, r *http.Request) error {
	userID := StateFrom(r).User.ID
	id := r.PathValue("id")
	in := model.CourseInput{
		Title:    formValue(r, "title"),
		Price:    formValue(r, "price"),
		ImageURL: formValue(r, "img"),
	}
	course, err := h.Courses.Update(r.Context(), userID, id, in)
	if apperrors.IsValidation(err) {
		draft := &model.Course{ID: id, Title: in.Title, ImageURL: in.ImageURL}
		return h.renderEdit(w, r, draft, err)
	}
	if err != nil {
		return err
	}
	return redirect(w, r, "/courses/"+course.ID)
}

func (h CourseRoutes) renderEdit(w http.ResponseWriter, r *http.Request, course *model.Course, formErr error) error {
	b := NewTemplateData(r, PageMeta{Title: "Edit " + course.Title, CurrentPage: PageCourseEdit}).
		With("Course", course)
	status := http.StatusOK
	if formErr != nil {
		status = http.StatusUnprocessableEntity
		b.WithError(userMessage(formErr)).WithFieldErrors(fieldErrors(formErr))
	}
	return h.Renderer.RenderFull(w, status, b.Build())
}

func (h CourseRoutes) remove(w http.ResponseWriter, r *http.Request) error {
	if err := h.Courses.Delete(r.Context(), StateFrom(r).User.ID, formValue(r, "id")); err != nil {
		return err
	}
	if err := AddFlash(r, FlashSuccess, "Course removed."); err != nil {
		return err
	}
	return redirect(w, r, "/courses")
}
