package matrix

import (
	"sort"

	"atelier-admin/internal/domain"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// seedGroups builds option groups from persisted data: the server-provided
// schema when there is one, otherwise the attribute names observed on the
// variants, sorted by name.
func seedGroups(listing domain.VariantListing, newID func() string) []domain.OptionGroup {
	if len(listing.Options) > 0 {
		groups := make([]domain.OptionGroup, 0, len(listing.Options))
		for _, o := range listing.Options {
			groups = append(groups, domain.OptionGroup{
				ID:      newID(),
				Name:    o.Name,
				Values:  NormalizeValues(o.Values),
				Enabled: true,
			})
		}
		return groups
	}
	return inferGroups(listing.Variants, newID)
}

func inferGroups(variants []domain.PersistedVariant, newID func() string) []domain.OptionGroup {
	buckets := make(map[string][]string)
	for _, v := range variants {
		for _, p := range v.Options {
			buckets[p.Name] = append(buckets[p.Name], p.Value)
		}
	}
	names := make([]string, 0, len(buckets))
	for name := range buckets {
		names = append(names, name)
	}
	col := collate.New(language.English)
	sort.SliceStable(names, func(i, j int) bool {
		if c := col.CompareString(names[i], names[j]); c != 0 {
			return c < 0
		}
		return names[i] < names[j]
	})

	groups := make([]domain.OptionGroup, 0, len(names))
	for _, name := range names {
		groups = append(groups, domain.OptionGroup{
			ID:      newID(),
			Name:    name,
			Values:  NormalizeValues(buckets[name]),
			Enabled: true,
		})
	}
	return groups
}
