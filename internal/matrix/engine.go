package matrix

import (
	"atelier-admin/internal/domain"

	"github.com/google/uuid"
)

// Engine applies actions to variant sessions. It only holds the ID source so
// tests can make generated IDs predictable.
type Engine struct {
	newID func() string
}

func NewEngine() *Engine {
	return &Engine{newID: uuid.NewString}
}

// NewEngineWithIDs returns an Engine that takes row and group IDs from newID.
func NewEngineWithIDs(newID func() string) *Engine {
	return &Engine{newID: newID}
}

// Outcome is the result of applying an action.
type Outcome struct {
	Session domain.VariantSession
	Notice  *domain.Notice
	Diff    KeyDiff
}

// Action is one user operation on a session.
type Action interface {
	apply(e *Engine, s *domain.VariantSession) (*domain.Notice, error)
}

// Open creates a session for a product from its persisted variants: groups
// are seeded and rows reconciled.
func (e *Engine) Open(id, productID string, listing domain.VariantListing) domain.VariantSession {
	s := domain.VariantSession{
		ID:        id,
		ProductID: productID,
		Groups:    []domain.OptionGroup{},
		Rows:      []domain.VariantRow{},
		Selected:  map[string]bool{},
	}
	return e.Refresh(s, listing).Session
}

// Apply runs a on a copy of s. On error the returned outcome is zero and s is
// untouched.
func (e *Engine) Apply(s domain.VariantSession, a Action) (Outcome, error) {
	out := clone(s)
	notice, err := a.apply(e, &out)
	if err != nil {
		return Outcome{}, err
	}
	var diff KeyDiff
	if regroups(a) {
		diff = e.regenerate(&out, BuildIndex(out.Persisted.Variants))
	}
	out.Version++
	return Outcome{Session: out, Notice: notice, Diff: diff}, nil
}

// Refresh replaces the persisted data of s and reconciles its rows against
// it. Rows that match a persisted record are bound to it. A bound row takes
// the persisted field values unless it was edited after the last submitted
// save, in which case its edits are kept and it stays dirty.
func (e *Engine) Refresh(s domain.VariantSession, listing domain.VariantListing) Outcome {
	out := clone(s)
	out.Persisted = listing
	if len(out.Groups) == 0 {
		out.Groups = seedGroups(listing, e.newID)
	}

	idx := BuildIndex(listing.Variants)
	known := make(map[string]bool, len(listing.Variants))
	for _, v := range listing.Variants {
		known[v.ID] = true
	}
	for i, row := range out.Rows {
		match, ok := idx[row.Key]
		if !ok {
			if row.Bound() && !known[row.PersistedID] {
				out.Rows[i].PersistedID = ""
			}
			continue
		}
		submitted, pending := out.Pending[row.ID]
		if !row.Dirty || (pending && submitted == row.Revision) {
			out.Rows[i] = boundRow(row, match)
			continue
		}
		out.Rows[i].PersistedID = match.ID
	}
	out.Pending = nil

	diff := e.regenerate(&out, idx)
	out.Version++
	return Outcome{Session: out, Diff: diff}
}

// MarkSubmitted records the row revisions sent by a save.
func (e *Engine) MarkSubmitted(s domain.VariantSession, revisions map[string]int) domain.VariantSession {
	out := clone(s)
	out.Pending = make(map[string]int, len(revisions))
	for id, rev := range revisions {
		out.Pending[id] = rev
	}
	return out
}

// ClearPending forgets an in-flight save, e.g. after it failed.
func (e *Engine) ClearPending(s domain.VariantSession) domain.VariantSession {
	out := clone(s)
	out.Pending = nil
	return out
}

// regenerate recomputes the combinations of s and rebuilds its rows when the
// key list changed. Rows whose key is retained are carried over with their
// edits; new keys get fresh rows; rows of removed keys are dropped.
func (e *Engine) regenerate(s *domain.VariantSession, idx Index) KeyDiff {
	combos := Combinations(EffectiveAxes(s.Groups))
	keys := make([]string, len(combos))
	for i, c := range combos {
		keys[i] = c.Key()
	}

	diff := DiffKeys(s.ComboKeys, keys)
	if diff.Unchanged() && len(s.Rows) > 0 {
		return diff
	}

	current := make(map[string]domain.VariantRow, len(s.Rows))
	for _, r := range s.Rows {
		current[r.Key] = r
	}
	rows := make([]domain.VariantRow, 0, len(combos))
	for i, c := range combos {
		if r, ok := current[keys[i]]; ok {
			r.Options = c
			rows = append(rows, r)
			continue
		}
		rows = append(rows, newRow(e.newID(), c, i, idx))
	}
	s.Rows = rows
	s.ComboKeys = keys
	s.Selected = map[string]bool{}
	return diff
}

func regroups(a Action) bool {
	switch a.(type) {
	case AddGroup, UpdateGroup, RemoveGroup, MoveGroup, SyncGroups:
		return true
	}
	return false
}

func clone(s domain.VariantSession) domain.VariantSession {
	out := s
	out.Groups = make([]domain.OptionGroup, len(s.Groups))
	for i, g := range s.Groups {
		g.Values = append([]string{}, g.Values...)
		out.Groups[i] = g
	}
	out.Rows = make([]domain.VariantRow, len(s.Rows))
	for i, r := range s.Rows {
		r.Options = append(Combination{}, r.Options...)
		r.Images = append([]string{}, r.Images...)
		out.Rows[i] = r
	}
	out.Selected = make(map[string]bool, len(s.Selected))
	for id, ok := range s.Selected {
		if ok {
			out.Selected[id] = true
		}
	}
	out.ComboKeys = append([]string{}, s.ComboKeys...)
	if s.Pending != nil {
		out.Pending = make(map[string]int, len(s.Pending))
		for id, rev := range s.Pending {
			out.Pending[id] = rev
		}
	}
	return out
}
