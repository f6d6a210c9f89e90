package domain

import (
	"context"
	"time"
)

// OptionPair is one name/value attribute of a variant.
type OptionPair struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// OptionGroup is a named axis of variation edited by the admin.
// Disabled groups stay in the session but do not take part in combinations.
type OptionGroup struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Values  []string `json:"values"`
	Enabled bool     `json:"enabled"`
}

// OptionSchema is the server-side shape of an option group (variantOptions).
type OptionSchema struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// PersistedVariant is a variant record as stored by the catalog API, after
// normalization of the accepted response shapes.
type PersistedVariant struct {
	ID             string       `json:"id"`
	Options        []OptionPair `json:"options"`
	SKU            string       `json:"sku"`
	Price          *float64     `json:"price"`
	CompareAtPrice *float64     `json:"compareAtPrice"`
	Inventory      *float64     `json:"inventory"`
	ManageStock    bool         `json:"manageStock"`
	Images         []string     `json:"images"`
}

// VariantListing is everything the catalog API knows about a product's variants.
type VariantListing struct {
	Variants []PersistedVariant `json:"variants"`
	Options  []OptionSchema     `json:"variantOptions"`
}

// HasData reports whether the product already has variants or an option schema.
func (l VariantListing) HasData() bool {
	return len(l.Variants) > 0 || len(l.Options) > 0
}

// VariantRow is the editable working copy of one combination.
// Numeric fields hold the text the admin typed; blank means "not set".
type VariantRow struct {
	ID             string       `json:"id"`
	PersistedID    string       `json:"persistedId,omitempty"`
	Key            string       `json:"key"`
	Options        []OptionPair `json:"options"`
	SKU            string       `json:"sku"`
	Price          string       `json:"price"`
	CompareAtPrice string       `json:"compareAtPrice"`
	Inventory      string       `json:"inventory"`
	ManageStock    bool         `json:"manageStock"`
	Images         []string     `json:"images"`
	Dirty          bool         `json:"dirty"`
	// Revision increases on every local edit of the row.
	Revision int `json:"revision"`
}

// Bound reports whether the row refers to a persisted variant.
func (r VariantRow) Bound() bool {
	return r.PersistedID != ""
}

// Status is the label shown next to the row in the matrix.
func (r VariantRow) Status() string {
	switch {
	case r.Bound() && r.Dirty:
		return RowStatusExistingDirty
	case r.Bound():
		return RowStatusExisting
	case r.Dirty:
		return RowStatusNewDirty
	default:
		return RowStatusNew
	}
}

// RowPatch carries the fields of a row edit; nil fields are left untouched.
type RowPatch struct {
	SKU            *string `json:"sku"`
	Price          *string `json:"price"`
	CompareAtPrice *string `json:"compareAtPrice"`
	Inventory      *string `json:"inventory"`
	ManageStock    *bool   `json:"manageStock"`
}

// GroupPatch carries the fields of a group edit; nil fields are left untouched.
type GroupPatch struct {
	Name    *string   `json:"name"`
	Values  *[]string `json:"values"`
	Enabled *bool     `json:"enabled"`
}

// BulkFields is the bulk-edit form. Blank fields are not applied.
type BulkFields struct {
	Price          string `json:"price"`
	CompareAtPrice string `json:"compareAtPrice"`
	Inventory      string `json:"inventory"`
}

// VariantSession is the working state of one admin editing one product's variants.
type VariantSession struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	UserID    string          `json:"userId"`
	Groups    []OptionGroup   `json:"groups"`
	Rows      []VariantRow    `json:"rows"`
	Selected  map[string]bool `json:"selected"`
	// ComboKeys is the ordered key list of the last generated combinations.
	ComboKeys []string       `json:"comboKeys"`
	Persisted VariantListing `json:"persisted"`
	// Pending maps row ID to the revision submitted by an in-flight save.
	Pending map[string]int `json:"pending,omitempty"`
	Version int            `json:"version"`
	// LastExportURL is the most recent spreadsheet export of this session.
	LastExportURL string    `json:"lastExportUrl,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Mode is "edit" when the product already has variant data, "add" otherwise.
func (s *VariantSession) Mode() string {
	if s.Persisted.HasData() {
		return SessionModeEdit
	}
	return SessionModeAdd
}

// RowByID returns the index of the row with the given ID, or -1.
func (s *VariantSession) RowByID(id string) int {
	for i := range s.Rows {
		if s.Rows[i].ID == id {
			return i
		}
	}
	return -1
}

// GroupByID returns the index of the group with the given ID, or -1.
func (s *VariantSession) GroupByID(id string) int {
	for i := range s.Groups {
		if s.Groups[i].ID == id {
			return i
		}
	}
	return -1
}

// UpsertEntry is one variant in a bulk upsert. Presence of ID means update.
type UpsertEntry struct {
	ID             string            `json:"_id,omitempty"`
	SKU            string            `json:"sku,omitempty"`
	Options        map[string]string `json:"options"`
	OptionsArray   []OptionPair      `json:"optionsArray"`
	Price          *float64          `json:"price,omitempty"`
	CompareAtPrice *float64          `json:"compareAtPrice,omitempty"`
	Inventory      *int64            `json:"inventory,omitempty"`
	ManageStock    bool              `json:"manageStock"`
}

// UpsertRequest is the body of the bulk upsert call.
type UpsertRequest struct {
	Variants       []UpsertEntry  `json:"variants"`
	VariantOptions []OptionSchema `json:"variantOptions"`
}

// UpsertResult is the normalized outcome reported by the catalog API.
type UpsertResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// ImageUpload is a processed image to attach to a persisted variant.
type ImageUpload struct {
	VariantID   string
	Filename    string
	ContentType string
	Data        []byte
	// Mode is sent only when it is not "primary".
	Mode string
}

// SaveAudit records one successful bulk upsert.
type SaveAudit struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	SessionID string    `json:"sessionId"`
	UserID    string    `json:"userId"`
	Entries   int       `json:"entries"`
	Created   int       `json:"created"`
	Updated   int       `json:"updated"`
	Payload   []byte    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// --- Interfaces ---

type SessionStore interface {
	Get(ctx context.Context, id string) (*VariantSession, error)
	Save(ctx context.Context, session *VariantSession) error
	Delete(ctx context.Context, id string) error
}

type SaveAuditRepository interface {
	Record(ctx context.Context, audit *SaveAudit) error
}

type ExportStorage interface {
	UploadBuffer(ctx context.Context, folder string, data []byte, contentType string) (string, error)
	DeleteFile(ctx context.Context, fileURL string) error
}
