package matrix

import (
	"testing"

	"atelier-admin/internal/domain"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUpsertWithoutDirtyRows(t *testing.T) {
	_, s := openSizesColors(t)
	sub, err := BuildUpsert(s)
	require.NoError(t, err)
	assert.Nil(t, sub)
}

func TestBuildUpsertEntries(t *testing.T) {
	e, s := openSizesColors(t)
	bound := rowByKey(t, s, pair("size", "7"), pair("color", "gold"))
	fresh := rowByKey(t, s, pair("size", "6"), pair("color", "silver"))

	s = apply(t, e, s, UpdateRow{RowID: bound.ID, Patch: domain.RowPatch{Price: str("480"), CompareAtPrice: str("")}})
	s = apply(t, e, s, UpdateRow{RowID: fresh.ID, Patch: domain.RowPatch{SKU: str("  NEW-6-S "), Inventory: str("4")}})

	sub, err := BuildUpsert(s)
	require.NoError(t, err)
	require.NotNil(t, sub)
	require.Len(t, sub.Request.Variants, 2)
	assert.Equal(t, map[string]int{bound.ID: 1, fresh.ID: 1}, sub.Revisions)
	assert.Equal(t, []domain.OptionSchema{
		{Name: "size", Values: []string{"6", "7"}},
		{Name: "color", Values: []string{"gold", "silver"}},
	}, sub.Request.VariantOptions)

	var first, second domain.UpsertEntry
	for _, v := range sub.Request.Variants {
		if v.ID == "v7g" {
			first = v
		} else {
			second = v
		}
	}

	assert.Equal(t, "R-7-G", first.SKU)
	require.NotNil(t, first.Price)
	assert.Equal(t, 480.0, *first.Price)
	assert.Nil(t, first.CompareAtPrice)
	require.NotNil(t, first.Inventory)
	assert.Equal(t, int64(3), *first.Inventory)
	assert.Equal(t, map[string]string{"size": "7", "color": "gold"}, first.Options)
	assert.Equal(t, []domain.OptionPair{pair("size", "7"), pair("color", "gold")}, first.OptionsArray)

	assert.Equal(t, "", second.ID)
	assert.Equal(t, "NEW-6-S", second.SKU)
	assert.Nil(t, second.Price)
	assert.True(t, second.ManageStock)
}

func TestUpsertEntryJSONOmitsBlankFields(t *testing.T) {
	e, s := openSizesColors(t)
	fresh := rowByKey(t, s, pair("size", "6"), pair("color", "gold"))
	s = apply(t, e, s, UpdateRow{RowID: fresh.ID, Patch: domain.RowPatch{Inventory: str("2")}})

	sub, err := BuildUpsert(s)
	require.NoError(t, err)
	require.NotNil(t, sub)

	raw, err := json.Marshal(sub.Request)
	require.NoError(t, err)

	var decoded struct {
		Variants       []map[string]any `json:"variants"`
		VariantOptions []map[string]any `json:"variantOptions"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded.Variants, 1)

	entry := decoded.Variants[0]
	assert.NotContains(t, entry, "_id")
	assert.NotContains(t, entry, "price")
	assert.NotContains(t, entry, "compareAtPrice")
	assert.Equal(t, 2.0, entry["inventory"])
	assert.Equal(t, true, entry["manageStock"])
	assert.Contains(t, entry, "options")
	assert.Contains(t, entry, "optionsArray")
	assert.Len(t, decoded.VariantOptions, 2)
}

func TestBuildUpsertRespectsSelection(t *testing.T) {
	e, s := openSizesColors(t)
	s = apply(t, e, s, ApplyBulk{Fields: domain.BulkFields{Price: "100"}})
	s = apply(t, e, s, ToggleSelect{RowID: s.Rows[3].ID})

	sub, err := BuildUpsert(s)
	require.NoError(t, err)
	require.Len(t, sub.Request.Variants, 1)
	assert.Contains(t, sub.Revisions, s.Rows[3].ID)
}

func TestBuildUpsertWithCleanSelection(t *testing.T) {
	e, s := openSizesColors(t)
	s = apply(t, e, s, UpdateRow{RowID: s.Rows[0].ID, Patch: domain.RowPatch{Price: str("1")}})
	s = apply(t, e, s, ToggleSelect{RowID: s.Rows[1].ID})

	sub, err := BuildUpsert(s)
	require.NoError(t, err)
	assert.Nil(t, sub)
}

func TestBuildUpsertRejectsInvalidNumbers(t *testing.T) {
	cases := []struct {
		name  string
		patch domain.RowPatch
		field string
	}{
		{"price text", domain.RowPatch{Price: str("abc")}, "price"},
		{"compare text", domain.RowPatch{CompareAtPrice: str("1,50")}, "compareAtPrice"},
		{"fractional inventory", domain.RowPatch{Inventory: str("2.5")}, "inventory"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, s := openSizesColors(t)
			s = apply(t, e, s, UpdateRow{RowID: s.Rows[0].ID, Patch: tc.patch})

			sub, err := BuildUpsert(s)
			assert.Nil(t, sub)
			var numErr *domain.InvalidNumberError
			require.ErrorAs(t, err, &numErr)
			assert.Equal(t, tc.field, numErr.Field)
			assert.Equal(t, s.Rows[0].SKU, numErr.SKU)
		})
	}
}

func TestBuildUpsertWithoutAxesSendsEmptySchema(t *testing.T) {
	e := NewEngineWithIDs(seqIDs())
	s := e.Open("s1", "p1", domain.VariantListing{
		Options: []domain.OptionSchema{{Name: "size", Values: []string{"6"}}},
	})
	s = apply(t, e, s, UpdateRow{RowID: s.Rows[0].ID, Patch: domain.RowPatch{Price: str("10")}})
	s.Groups[0].Enabled = false

	sub, err := BuildUpsert(s)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.NotNil(t, sub.Request.VariantOptions)
	assert.Empty(t, sub.Request.VariantOptions)
}
