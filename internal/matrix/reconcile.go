package matrix

import (
	"fmt"
	"strconv"
	"strings"

	"atelier-admin/internal/domain"
	"atelier-admin/pkg/utils"

	"github.com/shopspring/decimal"
)

// Index maps canonical keys to persisted variants.
type Index map[string]domain.PersistedVariant

// BuildIndex indexes persisted variants by the canonical key of their
// attributes. When two records share a key the later one wins.
func BuildIndex(variants []domain.PersistedVariant) Index {
	idx := make(Index, len(variants))
	for _, v := range variants {
		idx[CanonicalKey(v.Options)] = v
	}
	return idx
}

// SynthesizeSKU derives the SKU of a new row: "SKU-" followed by
// NAME-VALUE segments in axis order, or the row position when every
// segment is empty.
func SynthesizeSKU(c Combination, position int) string {
	parts := make([]string, 0, len(c))
	for _, p := range c {
		name, value := utils.SKUSegment(p.Name), utils.SKUSegment(p.Value)
		if name == "" && value == "" {
			continue
		}
		parts = append(parts, name+"-"+value)
	}
	if len(parts) == 0 {
		return "SKU-" + strconv.Itoa(position)
	}
	return "SKU-" + strings.Join(parts, "-")
}

// newRow builds the row for a combination that has no working row yet.
func newRow(id string, c Combination, position int, idx Index) domain.VariantRow {
	key := c.Key()
	if match, ok := idx[key]; ok {
		return boundRow(domain.VariantRow{ID: id, Key: key, Options: c}, match)
	}
	return domain.VariantRow{
		ID:          id,
		Key:         key,
		Options:     c,
		SKU:         SynthesizeSKU(c, position),
		ManageStock: true,
		Images:      []string{},
	}
}

// boundRow copies the persisted commerce fields onto row and marks it clean.
func boundRow(row domain.VariantRow, v domain.PersistedVariant) domain.VariantRow {
	row.PersistedID = v.ID
	row.SKU = v.SKU
	row.Price = formatNumber(v.Price)
	row.CompareAtPrice = formatNumber(v.CompareAtPrice)
	row.Inventory = formatNumber(v.Inventory)
	row.ManageStock = v.ManageStock
	row.Images = append([]string{}, v.Images...)
	row.Dirty = false
	return row
}

func formatNumber(f *float64) string {
	if f == nil {
		return ""
	}
	return decimal.NewFromFloat(*f).String()
}

// KeyDiff describes how the combination key list changed.
type KeyDiff struct {
	Added    []string
	Removed  []string
	Retained []string
	// Reordered is true when the retained keys appear in a different order.
	Reordered bool
}

// Unchanged reports whether next produces exactly the previous key list.
func (d KeyDiff) Unchanged() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && !d.Reordered
}

func (d KeyDiff) String() string {
	return fmt.Sprintf("added=%d removed=%d retained=%d reordered=%t",
		len(d.Added), len(d.Removed), len(d.Retained), d.Reordered)
}

// DiffKeys compares the previous and next ordered key lists.
func DiffKeys(prev, next []string) KeyDiff {
	var d KeyDiff
	inNext := make(map[string]bool, len(next))
	for _, k := range next {
		inNext[k] = true
	}
	inPrev := make(map[string]bool, len(prev))
	var prevRetained []string
	for _, k := range prev {
		inPrev[k] = true
		if inNext[k] {
			prevRetained = append(prevRetained, k)
		} else {
			d.Removed = append(d.Removed, k)
		}
	}
	for _, k := range next {
		if inPrev[k] {
			d.Retained = append(d.Retained, k)
		} else {
			d.Added = append(d.Added, k)
		}
	}
	if len(prevRetained) != len(d.Retained) {
		d.Reordered = true
		return d
	}
	for i := range prevRetained {
		if prevRetained[i] != d.Retained[i] {
			d.Reordered = true
			break
		}
	}
	return d
}
