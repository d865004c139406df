package selection

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"SocialListener/internal/domain"
)

var base = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

func population(n int) []domain.RawItem {
	items := make([]domain.RawItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, domain.RawItem{
			ID:         fmt.Sprintf("item-%02d", i),
			Timestamp:  base.Add(time.Duration(i) * time.Hour),
			Engagement: int64(i * 10),
		})
	}
	// shuffle deterministically so ordering comes from Select, not input order
	items[0], items[n-1] = items[n-1], items[0]
	items[2], items[5] = items[5], items[2]
	return items
}

func ids(items []domain.RawItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func TestSelectNewest(t *testing.T) {
	t.Parallel()

	items := population(10)
	got := Select(items, domain.SelectionCriteria{Count: 3, Order: domain.OrderNewest})

	want := []string{"item-09", "item-08", "item-07"}
	if !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("unexpected selection: %v, want %v", ids(got), want)
	}

	for i := 1; i < len(got); i++ {
		if got[i].Timestamp.After(got[i-1].Timestamp) {
			t.Fatalf("selection not sorted newest first at %d", i)
		}
	}

	all := map[string]bool{}
	for _, item := range items {
		all[item.ID] = true
	}
	for _, item := range got {
		if !all[item.ID] {
			t.Fatalf("selected item %s not in population", item.ID)
		}
	}
}

func TestSelectPopularTieBreaksByID(t *testing.T) {
	t.Parallel()

	items := []domain.RawItem{
		{ID: "d", Engagement: 50},
		{ID: "b", Engagement: 100},
		{ID: "c", Engagement: 100},
		{ID: "a", Engagement: 100},
		{ID: "e", Engagement: 5},
	}

	got := Select(items, domain.SelectionCriteria{Count: 3, Order: domain.OrderPopular})
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("unexpected selection: %v, want %v", ids(got), want)
	}
}

func TestSelectTimestampTieBreaksByID(t *testing.T) {
	t.Parallel()

	items := []domain.RawItem{
		{ID: "z", Timestamp: base},
		{ID: "m", Timestamp: base},
		{ID: "a", Timestamp: base.Add(-time.Hour)},
	}

	got := Select(items, domain.SelectionCriteria{Count: 2, Order: domain.OrderNewest})
	if !reflect.DeepEqual(ids(got), []string{"m", "z"}) {
		t.Fatalf("unexpected selection: %v", ids(got))
	}

	got = Select(items, domain.SelectionCriteria{Count: 3, Order: domain.OrderOldest})
	if !reflect.DeepEqual(ids(got), []string{"a", "m", "z"}) {
		t.Fatalf("unexpected oldest selection: %v", ids(got))
	}
}

func TestSelectIsIdempotent(t *testing.T) {
	t.Parallel()

	items := population(12)
	criteria := domain.SelectionCriteria{Count: 5, Order: domain.OrderPopular}

	first := Select(items, criteria)
	second := Select(items, criteria)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("selection differs between runs: %v vs %v", ids(first), ids(second))
	}
}

func TestSelectDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	items := population(6)
	before := ids(items)
	_ = Select(items, domain.SelectionCriteria{Count: 6, Order: domain.OrderPopular})
	if !reflect.DeepEqual(before, ids(items)) {
		t.Fatalf("input reordered: %v -> %v", before, ids(items))
	}
}

func TestSelectCountAbovePopulation(t *testing.T) {
	t.Parallel()

	got := Select(population(4), domain.SelectionCriteria{Count: 10, Order: domain.OrderNewest})
	if len(got) != 4 {
		t.Fatalf("expected all 4 items, got %d", len(got))
	}
}

func TestSelectEmptyPopulation(t *testing.T) {
	t.Parallel()

	got := Select(nil, domain.SelectionCriteria{Count: 3, Order: domain.OrderPopular})
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil selection, got %v", got)
	}
}

func TestTrendDisjointWhenPopulationLargeEnough(t *testing.T) {
	t.Parallel()

	sel := Trend(population(10), 5)
	if sel.Overlapping {
		t.Fatalf("expected disjoint batches")
	}
	if !reflect.DeepEqual(ids(sel.Oldest), []string{"item-00", "item-01", "item-02", "item-03", "item-04"}) {
		t.Fatalf("unexpected oldest batch: %v", ids(sel.Oldest))
	}
	if sel.Newest[0].ID != "item-09" {
		t.Fatalf("unexpected newest head: %s", sel.Newest[0].ID)
	}
}

func TestTrendOverlapReported(t *testing.T) {
	t.Parallel()

	sel := Trend(population(4), 5)
	if !sel.Overlapping {
		t.Fatalf("expected overlapping batches for population 4 and count 5")
	}
	if len(sel.Oldest) != 4 || len(sel.Newest) != 4 {
		t.Fatalf("unexpected batch sizes: %d/%d", len(sel.Oldest), len(sel.Newest))
	}
}

func TestRequiresFullPopulation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		criteria domain.SelectionCriteria
		want     bool
	}{
		{domain.SelectionCriteria{Order: domain.OrderNewest}, false},
		{domain.SelectionCriteria{Order: domain.OrderPopular}, true},
		{domain.SelectionCriteria{Order: domain.OrderNewest, Trend: true}, true},
	}
	for _, tc := range cases {
		if got := RequiresFullPopulation(tc.criteria); got != tc.want {
			t.Fatalf("RequiresFullPopulation(%+v) = %v, want %v", tc.criteria, got, tc.want)
		}
	}
}
