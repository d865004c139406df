// Package aggregate rolls classification records up into channel and topic level insights.
package aggregate

import (
	"context"
	"sort"

	"SocialListener/internal/classifier"
	"SocialListener/internal/domain"
)

const topItemsPerCategory = 5

// Generator runs narrative model tasks; *classifier.Adapter implements it.
type Generator interface {
	Generate(ctx context.Context, task classifier.TaskSpec, lines []string) (string, error)
	GenerateJSON(ctx context.Context, task classifier.TaskSpec, lines []string, v any) error
}

// Aggregate counts records per category and keeps the most engaging items of each.
// Every category of the enum and Unclassified is present in CategoryCounts, so the counts sum to len(records).
func Aggregate(records []domain.ClassificationRecord, categories []domain.Category) domain.AggregateReport {
	report := domain.AggregateReport{
		Total:          len(records),
		CategoryCounts: make(map[domain.Category]int, len(categories)+1),
		TopItems:       make(map[domain.Category][]domain.ClassificationRecord),
	}
	for _, c := range categories {
		report.CategoryCounts[c] = 0
	}
	report.CategoryCounts[domain.Unclassified] = 0

	grouped := make(map[domain.Category][]domain.ClassificationRecord)
	for _, rec := range records {
		report.CategoryCounts[rec.Category]++
		grouped[rec.Category] = append(grouped[rec.Category], rec)
	}

	for c, recs := range grouped {
		sort.SliceStable(recs, func(i, j int) bool {
			if recs[i].RawEngagement != recs[j].RawEngagement {
				return recs[i].RawEngagement > recs[j].RawEngagement
			}
			return recs[i].ItemID < recs[j].ItemID
		})
		if len(recs) > topItemsPerCategory {
			recs = recs[:topItemsPerCategory]
		}
		report.TopItems[c] = recs
	}

	return report
}

// Distribution returns the share of records per category, in the range 0..1.
func Distribution(records []domain.ClassificationRecord, categories []domain.Category) map[domain.Category]float64 {
	out := make(map[domain.Category]float64, len(categories)+1)
	for _, c := range categories {
		out[c] = 0
	}
	out[domain.Unclassified] = 0
	if len(records) == 0 {
		return out
	}
	for _, rec := range records {
		out[rec.Category]++
	}
	for c, n := range out {
		out[c] = n / float64(len(records))
	}
	return out
}

// InCategory returns the items whose record carries the given category, in item order.
func InCategory(items []domain.RawItem, records []domain.ClassificationRecord, category domain.Category) []domain.RawItem {
	wanted := make(map[string]struct{})
	for _, rec := range records {
		if rec.Category == category {
			wanted[rec.ItemID] = struct{}{}
		}
	}
	out := make([]domain.RawItem, 0, len(wanted))
	for _, item := range items {
		if _, ok := wanted[item.ID]; ok {
			out = append(out, item)
		}
	}
	return out
}
