package httpx

import (
	"net/http"

	apperrors "github.com/target/courseshop/internal/errors"
)

// OrderRoutes lists orders and checks out the cart.
type OrderRoutes struct {
	Shop     ShopService
	Renderer PageRenderer
}

// Prefix implements RouteGroup.
func (OrderRoutes) Prefix() string { return "/orders" }

// Routes implements RouteGroup.
func (h OrderRoutes) Routes(g *Group) {
	g.Get("/", RequireAuth(h.list))
	g.Post("/", RequireAuth(h.checkout))
}

func (h OrderRoutes) list(w http.ResponseWriter, r *http.Request) error {
	orders, err := h.Shop.Orders(r.Context(), StateFrom(r).User.ID)
	if err != nil {
		return err
	}
	data := NewTemplateData(r, PageMeta{Title: "Orders", CurrentPage: PageOrders}).
		With("Orders", orders).
		Build()
	return h.Renderer.RenderFull(w, http.StatusOK, data)
}

func (h OrderRoutes) checkout(w http.ResponseWriter, r *http.Request) error {
	_, err := h.Shop.Checkout(r.Context(), StateFrom(r).User.ID)
	if apperrors.IsValidation(err) {
		if ferr := AddFlash(r, FlashError, userMessage(err)); ferr != nil {
			return ferr
		}
		return redirect(w, r, "/card")
	}
	if err != nil {
		return err
	}
	return redirect(w, r, "/orders")
}
