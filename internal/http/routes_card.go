package httpx

import (
	"net/http"

	"github.com/target/courseshop/internal/domain/model"
)

// CardRoutes serves the shopping cart.
type CardRoutes struct {
	Shop     ShopService
	Renderer PageRenderer
}

// Prefix implements RouteGroup.
func (CardRoutes) Prefix() string { return "/card" }

// Routes implements RouteGroup.
func (h CardRoutes) Routes(g *Group) {
	g.Get("/", RequireAuth(h.show))
	g.Post("/add", RequireAuth(h.add))
	g.Delete("/remove/{id}", RequireAuth(h.removeJSON))
	g.Post("/remove/{id}", RequireAuth(h.removeForm))
}

func (h CardRoutes) show(w http.ResponseWriter, r *http.Request) error {
	cart, err := h.Shop.Cart(r.Context(), StateFrom(r).User.ID)
	if err != nil {
		return err
	}
	data := NewTemplateData(r, PageMeta{Title: "Cart", CurrentPage: PageCard}).
		With("Cart", cart).
		With("Total", cart.TotalCents()).
		Build()
	return h.Renderer.RenderFull(w, http.StatusOK, data)
}

func (h CardRoutes) add(w http.ResponseWriter, r *http.Request) error {
	if err := h.Shop.AddToCart(r.Context(), StateFrom(r).User.ID, formValue(r, "id")); err != nil {
		return err
	}
	return redirect(w, r, "/card")
}

type cartResponse struct {
	Items []model.CartItem `json:"items"`
	Total string           `json:"total"`
}

// removeJSON answers script-driven removals with the updated cart.
func (h CardRoutes) removeJSON(w http.ResponseWriter, r *http.Request) error {
	cart, err := h.Shop.RemoveFromCart(r.Context(), StateFrom(r).User.ID, r.PathValue("id"))
	if err != nil {
		return err
	}
	items := cart.Items
	if items == nil {
		items = []model.CartItem{}
	}
	WriteJSON(w, http.StatusOK, cartResponse{Items: items, Total: model.FormatPrice(cart.TotalCents())})
	return nil
}

func (h CardRoutes) removeForm(w http.ResponseWriter, r *http.Request) error {
	if _, err := h.Shop.RemoveFromCart(r.Context(), StateFrom(r).User.ID, r.PathValue("id")); err != nil {
		return err
	}
	return redirect(w, r, "/card")
}
