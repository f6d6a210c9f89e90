package matrix

import (
	"strings"

	"atelier-admin/internal/domain"

	"github.com/shopspring/decimal"
)

// Submission is a bulk upsert ready to send, with the revision of every row
// it carries.
type Submission struct {
	Request   domain.UpsertRequest
	Revisions map[string]int
}

// BuildUpsert collects the dirty rows of s (restricted to the selection when
// one exists) into an upsert request. It returns nil when there is nothing to
// save. Blank numeric fields are omitted; text that is not a number fails
// the whole build.
func BuildUpsert(s domain.VariantSession) (*Submission, error) {
	var rows []domain.VariantRow
	for _, r := range s.Rows {
		if !r.Dirty {
			continue
		}
		if len(s.Selected) > 0 && !s.Selected[r.ID] {
			continue
		}
		rows = append(rows, r)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	sub := &Submission{
		Request: domain.UpsertRequest{
			Variants:       make([]domain.UpsertEntry, 0, len(rows)),
			VariantOptions: EffectiveAxes(s.Groups),
		},
		Revisions: make(map[string]int, len(rows)),
	}
	if sub.Request.VariantOptions == nil {
		sub.Request.VariantOptions = []domain.OptionSchema{}
	}
	for _, r := range rows {
		entry, err := upsertEntry(r)
		if err != nil {
			return nil, err
		}
		sub.Request.Variants = append(sub.Request.Variants, entry)
		sub.Revisions[r.ID] = r.Revision
	}
	return sub, nil
}

func upsertEntry(r domain.VariantRow) (domain.UpsertEntry, error) {
	entry := domain.UpsertEntry{
		ID:           r.PersistedID,
		SKU:          strings.TrimSpace(r.SKU),
		Options:      Combination(r.Options).Map(),
		OptionsArray: append([]domain.OptionPair{}, r.Options...),
		ManageStock:  r.ManageStock,
	}

	var err error
	if entry.Price, err = parsePrice(r, "price", r.Price); err != nil {
		return entry, err
	}
	if entry.CompareAtPrice, err = parsePrice(r, "compareAtPrice", r.CompareAtPrice); err != nil {
		return entry, err
	}
	if entry.Inventory, err = parseInventory(r, r.Inventory); err != nil {
		return entry, err
	}
	return entry, nil
}

func parsePrice(r domain.VariantRow, field, raw string) (*float64, error) {
	d, ok, err := parseDecimal(r, field, raw)
	if err != nil || !ok {
		return nil, err
	}
	f := d.InexactFloat64()
	return &f, nil
}

func parseInventory(r domain.VariantRow, raw string) (*int64, error) {
	d, ok, err := parseDecimal(r, "inventory", raw)
	if err != nil || !ok {
		return nil, err
	}
	if !d.IsInteger() {
		return nil, &domain.InvalidNumberError{SKU: r.SKU, Field: "inventory", Value: raw}
	}
	n := d.IntPart()
	return &n, nil
}

func parseDecimal(r domain.VariantRow, field, raw string) (decimal.Decimal, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Decimal{}, false, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, false, &domain.InvalidNumberError{SKU: r.SKU, Field: field, Value: raw}
	}
	return d, true, nil
}
