package v1

import (
	"net/http"

	"atelier-admin/internal/domain"
	"atelier-admin/internal/matrix"
	"atelier-admin/internal/usecase"
	"atelier-admin/pkg/utils"
)

type VariantHandler struct {
	variantUC     *usecase.VariantUsecase
	maxUploadSize int64
}

func NewVariantHandler(uc *usecase.VariantUsecase, maxUploadSizeMB int64) *VariantHandler {
	return &VariantHandler{
		variantUC:     uc,
		maxUploadSize: maxUploadSizeMB << 20, // Convert MB to bytes
	}
}

// --- Views ---

type rowView struct {
	domain.VariantRow
	Status   string `json:"status"`
	Selected bool   `json:"selected"`
}

type sessionView struct {
	ID             string               `json:"id"`
	ProductID      string               `json:"productId"`
	Mode           string               `json:"mode"`
	PersistedCount int                  `json:"persistedCount"`
	Groups         []domain.OptionGroup `json:"groups"`
	Rows           []rowView            `json:"rows"`
	SelectedCount  int                  `json:"selectedCount"`
	Saving         bool                 `json:"saving"`
	Version        int                  `json:"version"`
	LastExportURL  string               `json:"lastExportUrl,omitempty"`
	Notice         *domain.Notice       `json:"notice,omitempty"`
}

func newSessionView(s *domain.VariantSession, notice *domain.Notice) sessionView {
	rows := make([]rowView, len(s.Rows))
	selected := 0
	for i, r := range s.Rows {
		rows[i] = rowView{VariantRow: r, Status: r.Status(), Selected: s.Selected[r.ID]}
		if rows[i].Selected {
			selected++
		}
	}
	return sessionView{
		ID:             s.ID,
		ProductID:      s.ProductID,
		Mode:           s.Mode(),
		PersistedCount: len(s.Persisted.Variants),
		Groups:         s.Groups,
		Rows:           rows,
		SelectedCount:  selected,
		Saving:         len(s.Pending) > 0,
		Version:        s.Version,
		LastExportURL:  s.LastExportURL,
		Notice:         notice,
	}
}

func (h *VariantHandler) writeResult(w http.ResponseWriter, r *http.Request, status int, res *usecase.SessionResult, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, status, newSessionView(res.Session, res.Notice))
}

// --- Requests ---

type updateGroupRequest struct {
	Name    *string   `json:"name" validate:"omitempty,max=100"`
	Values  *[]string `json:"values"`
	Enabled *bool     `json:"enabled"`
}

type moveGroupRequest struct {
	Direction string `json:"direction" validate:"required,oneof=up down"`
}

type updateRowRequest struct {
	SKU            *string `json:"sku" validate:"omitempty,max=100"`
	Price          *string `json:"price" validate:"omitempty,max=32"`
	CompareAtPrice *string `json:"compareAtPrice" validate:"omitempty,max=32"`
	Inventory      *string `json:"inventory" validate:"omitempty,max=32"`
	ManageStock    *bool   `json:"manageStock"`
}

type selectionRequest struct {
	Action string `json:"action" validate:"required,oneof=toggle all clear"`
	RowID  string `json:"rowId" validate:"required_if=Action toggle"`
}

type bulkRequest struct {
	Price          string `json:"price" validate:"max=32"`
	CompareAtPrice string `json:"compareAtPrice" validate:"max=32"`
	Inventory      string `json:"inventory" validate:"max=32"`
}

type exportResponse struct {
	URL string `json:"url"`
}

// --- Session lifecycle ---

func (h *VariantHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	res, err := h.variantUC.Open(r.Context(), r.PathValue("productId"))
	h.writeResult(w, r, http.StatusCreated, res, err)
}

func (h *VariantHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.variantUC.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, newSessionView(s, nil))
}

func (h *VariantHandler) DiscardSession(w http.ResponseWriter, r *http.Request) {
	if err := h.variantUC.Discard(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *VariantHandler) Reload(w http.ResponseWriter, r *http.Request) {
	res, err := h.variantUC.Reload(r.Context(), r.PathValue("id"))
	h.writeResult(w, r, http.StatusOK, res, err)
}

// --- Groups ---

func (h *VariantHandler) AddGroup(w http.ResponseWriter, r *http.Request) {
	res, err := h.variantUC.Dispatch(r.Context(), r.PathValue("id"), matrix.AddGroup{})
	h.writeResult(w, r, http.StatusOK, res, err)
}

func (h *VariantHandler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	var req updateGroupRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.variantUC.Dispatch(r.Context(), r.PathValue("id"), matrix.UpdateGroup{
		GroupID: r.PathValue("groupId"),
		Patch:   domain.GroupPatch{Name: req.Name, Values: req.Values, Enabled: req.Enabled},
	})
	h.writeResult(w, r, http.StatusOK, res, err)
}

func (h *VariantHandler) RemoveGroup(w http.ResponseWriter, r *http.Request) {
	res, err := h.variantUC.Dispatch(r.Context(), r.PathValue("id"), matrix.RemoveGroup{GroupID: r.PathValue("groupId")})
	h.writeResult(w, r, http.StatusOK, res, err)
}

func (h *VariantHandler) MoveGroup(w http.ResponseWriter, r *http.Request) {
	var req moveGroupRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.variantUC.Dispatch(r.Context(), r.PathValue("id"), matrix.MoveGroup{
		GroupID:   r.PathValue("groupId"),
		Direction: req.Direction,
	})
	h.writeResult(w, r, http.StatusOK, res, err)
}

func (h *VariantHandler) SyncGroups(w http.ResponseWriter, r *http.Request) {
	res, err := h.variantUC.Dispatch(r.Context(), r.PathValue("id"), matrix.SyncGroups{})
	h.writeResult(w, r, http.StatusOK, res, err)
}

// --- Rows ---

func (h *VariantHandler) UpdateRow(w http.ResponseWriter, r *http.Request) {
	var req updateRowRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.variantUC.Dispatch(r.Context(), r.PathValue("id"), matrix.UpdateRow{
		RowID: r.PathValue("rowId"),
		Patch: domain.RowPatch{
			SKU:            req.SKU,
			Price:          req.Price,
			CompareAtPrice: req.CompareAtPrice,
			Inventory:      req.Inventory,
			ManageStock:    req.ManageStock,
		},
	})
	h.writeResult(w, r, http.StatusOK, res, err)
}

// AttachImage expects a multipart form with "file" and an optional "mode".
func (h *VariantHandler) AttachImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "File too large or invalid format")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid file")
		return
	}
	defer file.Close()

	res, err := h.variantUC.AttachImage(r.Context(), r.PathValue("id"), usecase.ImageInput{
		RowID:       r.PathValue("rowId"),
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Mode:        r.FormValue("mode"),
		File:        file,
	})
	h.writeResult(w, r, http.StatusOK, res, err)
}

// --- Selection & bulk ---

func (h *VariantHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	var action matrix.Action
	switch req.Action {
	case domain.SelectionToggle:
		action = matrix.ToggleSelect{RowID: req.RowID}
	case domain.SelectionAll:
		action = matrix.SelectAll{}
	default:
		action = matrix.ClearSelection{}
	}
	res, err := h.variantUC.Dispatch(r.Context(), r.PathValue("id"), action)
	h.writeResult(w, r, http.StatusOK, res, err)
}

func (h *VariantHandler) RemoveSelected(w http.ResponseWriter, r *http.Request) {
	res, err := h.variantUC.Dispatch(r.Context(), r.PathValue("id"), matrix.RemoveSelected{})
	h.writeResult(w, r, http.StatusOK, res, err)
}

func (h *VariantHandler) ApplyBulk(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.variantUC.Dispatch(r.Context(), r.PathValue("id"), matrix.ApplyBulk{Fields: domain.BulkFields{
		Price:          req.Price,
		CompareAtPrice: req.CompareAtPrice,
		Inventory:      req.Inventory,
	}})
	h.writeResult(w, r, http.StatusOK, res, err)
}

// --- Persistence ---

func (h *VariantHandler) Save(w http.ResponseWriter, r *http.Request) {
	res, err := h.variantUC.Save(r.Context(), r.PathValue("id"))
	h.writeResult(w, r, http.StatusOK, res, err)
}

func (h *VariantHandler) Export(w http.ResponseWriter, r *http.Request) {
	url, err := h.variantUC.Export(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, exportResponse{URL: url})
}
