package v1

import (
	"net/http"

	"atelier-admin/internal/usecase"
)

type ProductHandler struct {
	productUC *usecase.ProductUsecase
}

func NewProductHandler(uc *usecase.ProductUsecase) *ProductHandler {
	return &ProductHandler{productUC: uc}
}

// ListProducts returns the whole product list for the picker.
// Query params: refresh (optional) - "true" bypasses the cache
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("refresh") == "true"
	products, err := h.productUC.ListProducts(r.Context(), force)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, products)
}
