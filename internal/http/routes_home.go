package httpx

import "net/http"

// HomeRoutes serves the landing page.
type HomeRoutes struct {
	Renderer PageRenderer
}

// Prefix implements RouteGroup.
func (HomeRoutes) Prefix() string { return "/" }

// Routes implements RouteGroup.
func (h HomeRoutes) Routes(g *Group) {
	g.Get("/", h.index)
}

func (h HomeRoutes) index(w http.ResponseWriter, r *http.Request) error {
	data := NewTemplateData(r, PageMeta{Title: "Home", CurrentPage: PageHome}).Build()
	return h.Renderer.RenderFull(w, http.StatusOK, data)
}
