package matrix

import (
	"testing"

	"atelier-admin/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// persist simulates the catalog applying a submission: every entry becomes a
// persisted record, new ones under generated IDs.
func persist(listing domain.VariantListing, req domain.UpsertRequest, ids func() string) domain.VariantListing {
	byID := map[string]int{}
	out := domain.VariantListing{Options: req.VariantOptions}
	for i, v := range listing.Variants {
		byID[v.ID] = i
		out.Variants = append(out.Variants, v)
	}
	for _, entry := range req.Variants {
		var inventory *float64
		if entry.Inventory != nil {
			f := float64(*entry.Inventory)
			inventory = &f
		}
		rec := domain.PersistedVariant{
			ID:             entry.ID,
			Options:        entry.OptionsArray,
			SKU:            entry.SKU,
			Price:          entry.Price,
			CompareAtPrice: entry.CompareAtPrice,
			Inventory:      inventory,
			ManageStock:    entry.ManageStock,
		}
		if i, ok := byID[entry.ID]; ok && entry.ID != "" {
			out.Variants[i] = rec
			continue
		}
		rec.ID = ids()
		out.Variants = append(out.Variants, rec)
	}
	return out
}

func TestRefreshAfterSaveBindsAndCleansRows(t *testing.T) {
	e, s := openSizesColors(t)
	fresh := rowByKey(t, s, pair("size", "6"), pair("color", "gold"))
	s = apply(t, e, s, UpdateRow{RowID: fresh.ID, Patch: domain.RowPatch{Price: str("250")}})

	sub, err := BuildUpsert(s)
	require.NoError(t, err)
	s = e.MarkSubmitted(s, sub.Revisions)

	listing := persist(s.Persisted, sub.Request, func() string { return "v6g" })
	s = e.Refresh(s, listing).Session

	row := rowByKey(t, s, pair("size", "6"), pair("color", "gold"))
	assert.Equal(t, fresh.ID, row.ID)
	assert.Equal(t, "v6g", row.PersistedID)
	assert.Equal(t, "250", row.Price)
	assert.False(t, row.Dirty)
	assert.Equal(t, domain.RowStatusExisting, row.Status())
	assert.Nil(t, s.Pending)

	again, err := BuildUpsert(s)
	require.NoError(t, err)
	assert.Nil(t, again)
}

func TestRefreshKeepsEditsMadeDuringSave(t *testing.T) {
	e, s := openSizesColors(t)
	fresh := rowByKey(t, s, pair("size", "6"), pair("color", "gold"))
	s = apply(t, e, s, UpdateRow{RowID: fresh.ID, Patch: domain.RowPatch{Price: str("250")}})

	sub, err := BuildUpsert(s)
	require.NoError(t, err)
	s = e.MarkSubmitted(s, sub.Revisions)

	// Edited while the request was in flight.
	s = apply(t, e, s, UpdateRow{RowID: fresh.ID, Patch: domain.RowPatch{Price: str("275")}})

	listing := persist(s.Persisted, sub.Request, func() string { return "v6g" })
	s = e.Refresh(s, listing).Session

	row := rowByKey(t, s, pair("size", "6"), pair("color", "gold"))
	assert.Equal(t, "v6g", row.PersistedID)
	assert.Equal(t, "275", row.Price)
	assert.True(t, row.Dirty)
	assert.Equal(t, domain.RowStatusExistingDirty, row.Status())

	next, err := BuildUpsert(s)
	require.NoError(t, err)
	require.Len(t, next.Request.Variants, 1)
	assert.Equal(t, "v6g", next.Request.Variants[0].ID)
}

func TestRefreshKeepsLocalGroups(t *testing.T) {
	e, s := openSizesColors(t)
	values := []string{"6", "7", "8"}
	s = apply(t, e, s, UpdateGroup{GroupID: s.Groups[0].ID, Patch: domain.GroupPatch{Values: &values}})
	groups := s.Groups

	s = e.Refresh(s, s.Persisted).Session
	assert.Equal(t, groups, s.Groups)
	assert.Len(t, s.Rows, 6)
}

func TestRefreshUnbindsVanishedRecords(t *testing.T) {
	e, s := openSizesColors(t)
	bound := rowByKey(t, s, pair("size", "7"), pair("color", "gold"))
	require.True(t, bound.Bound())

	s = e.Refresh(s, domain.VariantListing{Options: s.Persisted.Options}).Session
	row := rowByKey(t, s, pair("size", "7"), pair("color", "gold"))
	assert.False(t, row.Bound())
	assert.Equal(t, "500", row.Price, "working values stay on the row")
	assert.Equal(t, domain.SessionModeEdit, s.Mode())
}

func TestClearPendingAfterFailedSave(t *testing.T) {
	e, s := openSizesColors(t)
	s = apply(t, e, s, UpdateRow{RowID: s.Rows[0].ID, Patch: domain.RowPatch{Price: str("1")}})
	sub, err := BuildUpsert(s)
	require.NoError(t, err)

	s = e.MarkSubmitted(s, sub.Revisions)
	require.Len(t, s.Pending, 1)
	s = e.ClearPending(s)
	assert.Nil(t, s.Pending)
	assert.True(t, s.Rows[0].Dirty)
}
