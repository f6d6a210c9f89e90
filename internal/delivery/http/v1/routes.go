package v1

import "net/http"

// RegisterAdminRoutes mounts the variant desk endpoints. protect wraps every
// handler with the admin auth chain.
func RegisterAdminRoutes(mux *http.ServeMux, products *ProductHandler, variants *VariantHandler, protect func(http.HandlerFunc) http.Handler) {
	mux.Handle("GET /api/v1/admin/products", protect(products.ListProducts))
	mux.Handle("POST /api/v1/admin/products/{productId}/variant-sessions", protect(variants.OpenSession))

	const session = "/api/v1/admin/variant-sessions/{id}"
	mux.Handle("GET "+session, protect(variants.GetSession))
	mux.Handle("DELETE "+session, protect(variants.DiscardSession))
	mux.Handle("POST "+session+"/reload", protect(variants.Reload))

	// Groups
	mux.Handle("POST "+session+"/groups", protect(variants.AddGroup))
	mux.Handle("POST "+session+"/groups/sync", protect(variants.SyncGroups))
	mux.Handle("PATCH "+session+"/groups/{groupId}", protect(variants.UpdateGroup))
	mux.Handle("DELETE "+session+"/groups/{groupId}", protect(variants.RemoveGroup))
	mux.Handle("POST "+session+"/groups/{groupId}/move", protect(variants.MoveGroup))

	// Rows
	mux.Handle("PATCH "+session+"/rows/{rowId}", protect(variants.UpdateRow))
	mux.Handle("POST "+session+"/rows/{rowId}/image", protect(variants.AttachImage))
	mux.Handle("POST "+session+"/selection", protect(variants.Select))
	mux.Handle("DELETE "+session+"/selection", protect(variants.RemoveSelected))
	mux.Handle("POST "+session+"/bulk", protect(variants.ApplyBulk))

	mux.Handle("POST "+session+"/save", protect(variants.Save))
	mux.Handle("POST "+session+"/export", protect(variants.Export))
}
