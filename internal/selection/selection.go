// Package selection decides which fetched items are worth the cost of AI classification.
package selection

import (
	"sort"

	"SocialListener/internal/domain"
)

// RequiresFullPopulation reports whether criteria can only be satisfied after every page is fetched.
// Popular and trend selection cost O(population) fetches, newest costs O(count).
func RequiresFullPopulation(criteria domain.SelectionCriteria) bool {
	return criteria.Trend || criteria.Order == domain.OrderPopular || criteria.Order == domain.OrderOldest
}

// Select returns at most criteria.Count items in the requested order.
// The input slice is never modified and ties are broken by ascending ID.
func Select(items []domain.RawItem, criteria domain.SelectionCriteria) []domain.RawItem {
	if len(items) == 0 || criteria.Count <= 0 {
		return []domain.RawItem{}
	}

	sorted := make([]domain.RawItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, less(sorted, criteria.Order))

	n := criteria.Count
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n:n]
}

// TrendSelection holds the two batches compared in trend mode.
type TrendSelection struct {
	Oldest []domain.RawItem
	Newest []domain.RawItem
	// Overlapping is set when the population is smaller than 2*count and the batches share items.
	Overlapping bool
}

// Trend selects the oldest and the newest count items.
func Trend(items []domain.RawItem, count int) TrendSelection {
	oldest := Select(items, domain.SelectionCriteria{Count: count, Order: domain.OrderOldest})
	newest := Select(items, domain.SelectionCriteria{Count: count, Order: domain.OrderNewest})

	seen := make(map[string]struct{}, len(oldest))
	for _, item := range oldest {
		seen[item.ID] = struct{}{}
	}

	overlapping := false
	for _, item := range newest {
		if _, ok := seen[item.ID]; ok {
			overlapping = true
			break
		}
	}

	return TrendSelection{Oldest: oldest, Newest: newest, Overlapping: overlapping}
}

func less(items []domain.RawItem, order domain.Order) func(i, j int) bool {
	switch order {
	case domain.OrderPopular:
		return func(i, j int) bool {
			if items[i].Engagement != items[j].Engagement {
				return items[i].Engagement > items[j].Engagement
			}
			return items[i].ID < items[j].ID
		}
	case domain.OrderOldest:
		return func(i, j int) bool {
			if !items[i].Timestamp.Equal(items[j].Timestamp) {
				return items[i].Timestamp.Before(items[j].Timestamp)
			}
			return items[i].ID < items[j].ID
		}
	default:
		return func(i, j int) bool {
			if !items[i].Timestamp.Equal(items[j].Timestamp) {
				return items[i].Timestamp.After(items[j].Timestamp)
			}
			return items[i].ID < items[j].ID
		}
	}
}
