package matrix

import (
	"strings"

	"atelier-admin/internal/domain"
)

// --- Group actions ---

// AddGroup appends an empty, enabled option group.
type AddGroup struct{}

func (AddGroup) apply(e *Engine, s *domain.VariantSession) (*domain.Notice, error) {
	s.Groups = append(s.Groups, domain.OptionGroup{
		ID:      e.newID(),
		Values:  []string{},
		Enabled: true,
	})
	return nil, nil
}

// UpdateGroup merges a partial edit into a group.
type UpdateGroup struct {
	GroupID string
	Patch   domain.GroupPatch
}

func (a UpdateGroup) apply(_ *Engine, s *domain.VariantSession) (*domain.Notice, error) {
	i := s.GroupByID(a.GroupID)
	if i < 0 {
		return nil, domain.ErrGroupNotFound
	}
	if a.Patch.Name != nil {
		s.Groups[i].Name = *a.Patch.Name
	}
	if a.Patch.Values != nil {
		s.Groups[i].Values = NormalizeValues(*a.Patch.Values)
	}
	if a.Patch.Enabled != nil {
		s.Groups[i].Enabled = *a.Patch.Enabled
	}
	return nil, nil
}

// RemoveGroup deletes a group.
type RemoveGroup struct {
	GroupID string
}

func (a RemoveGroup) apply(_ *Engine, s *domain.VariantSession) (*domain.Notice, error) {
	i := s.GroupByID(a.GroupID)
	if i < 0 {
		return nil, domain.ErrGroupNotFound
	}
	s.Groups = append(s.Groups[:i], s.Groups[i+1:]...)
	return nil, nil
}

// MoveGroup swaps a group with its neighbour. Moving past either end is a no-op.
type MoveGroup struct {
	GroupID   string
	Direction string
}

func (a MoveGroup) apply(_ *Engine, s *domain.VariantSession) (*domain.Notice, error) {
	i := s.GroupByID(a.GroupID)
	if i < 0 {
		return nil, domain.ErrGroupNotFound
	}
	j := i
	switch a.Direction {
	case domain.DirectionUp:
		j = i - 1
	case domain.DirectionDown:
		j = i + 1
	default:
		return nil, domain.ErrInvalidDirection
	}
	if j < 0 || j >= len(s.Groups) {
		return nil, nil
	}
	s.Groups[i], s.Groups[j] = s.Groups[j], s.Groups[i]
	return nil, nil
}

// SyncGroups replaces the groups with the persisted option schema, discarding
// local group edits.
type SyncGroups struct{}

func (SyncGroups) apply(e *Engine, s *domain.VariantSession) (*domain.Notice, error) {
	s.Groups = seedGroups(s.Persisted, e.newID)
	return domain.InfoNotice(domain.MessageGroupsSynced), nil
}

// --- Row actions ---

// UpdateRow merges field edits into a row and marks it dirty.
type UpdateRow struct {
	RowID string
	Patch domain.RowPatch
}

func (a UpdateRow) apply(_ *Engine, s *domain.VariantSession) (*domain.Notice, error) {
	i := s.RowByID(a.RowID)
	if i < 0 {
		return nil, domain.ErrRowNotFound
	}
	r := &s.Rows[i]
	if a.Patch.SKU != nil {
		r.SKU = *a.Patch.SKU
	}
	if a.Patch.Price != nil {
		r.Price = *a.Patch.Price
	}
	if a.Patch.CompareAtPrice != nil {
		r.CompareAtPrice = *a.Patch.CompareAtPrice
	}
	if a.Patch.Inventory != nil {
		r.Inventory = *a.Patch.Inventory
	}
	if a.Patch.ManageStock != nil {
		r.ManageStock = *a.Patch.ManageStock
	}
	touch(r)
	return nil, nil
}

// SetRowImages replaces the image list of a row after an upload. It does not
// change the dirty flag: images are not part of the upsert payload.
type SetRowImages struct {
	RowID  string
	Images []string
}

func (a SetRowImages) apply(_ *Engine, s *domain.VariantSession) (*domain.Notice, error) {
	i := s.RowByID(a.RowID)
	if i < 0 {
		return nil, domain.ErrRowNotFound
	}
	s.Rows[i].Images = append([]string{}, a.Images...)
	return nil, nil
}

// ToggleSelect adds or removes a row from the selection.
type ToggleSelect struct {
	RowID string
}

func (a ToggleSelect) apply(_ *Engine, s *domain.VariantSession) (*domain.Notice, error) {
	if s.RowByID(a.RowID) < 0 {
		return nil, domain.ErrRowNotFound
	}
	if s.Selected[a.RowID] {
		delete(s.Selected, a.RowID)
	} else {
		s.Selected[a.RowID] = true
	}
	return nil, nil
}

// SelectAll selects every row.
type SelectAll struct{}

func (SelectAll) apply(_ *Engine, s *domain.VariantSession) (*domain.Notice, error) {
	for _, r := range s.Rows {
		s.Selected[r.ID] = true
	}
	return nil, nil
}

// ClearSelection empties the selection.
type ClearSelection struct{}

func (ClearSelection) apply(_ *Engine, s *domain.VariantSession) (*domain.Notice, error) {
	s.Selected = map[string]bool{}
	return nil, nil
}

// RemoveSelected drops the selected rows from the working set. Persisted
// variants are not deleted.
type RemoveSelected struct{}

func (RemoveSelected) apply(_ *Engine, s *domain.VariantSession) (*domain.Notice, error) {
	kept := s.Rows[:0]
	for _, r := range s.Rows {
		if !s.Selected[r.ID] {
			kept = append(kept, r)
		}
	}
	s.Rows = kept
	s.Selected = map[string]bool{}
	return nil, nil
}

// ApplyBulk writes the non-blank bulk fields into the selected rows, or into
// every row when nothing is selected.
type ApplyBulk struct {
	Fields domain.BulkFields
}

func (a ApplyBulk) apply(_ *Engine, s *domain.VariantSession) (*domain.Notice, error) {
	price := strings.TrimSpace(a.Fields.Price)
	compareAt := strings.TrimSpace(a.Fields.CompareAtPrice)
	inventory := strings.TrimSpace(a.Fields.Inventory)
	if price == "" && compareAt == "" && inventory == "" {
		return domain.InfoNotice(domain.MessageNothingToApply), nil
	}

	for i := range s.Rows {
		r := &s.Rows[i]
		if len(s.Selected) > 0 && !s.Selected[r.ID] {
			continue
		}
		if price != "" {
			r.Price = price
		}
		if compareAt != "" {
			r.CompareAtPrice = compareAt
		}
		if inventory != "" {
			r.Inventory = inventory
		}
		touch(r)
	}
	return nil, nil
}

func touch(r *domain.VariantRow) {
	r.Dirty = true
	r.Revision++
}
