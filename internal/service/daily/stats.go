package daily

import (
	"sort"

	"github.com/heartmarshall/pulsepal-backend/internal/domain"
)

// ComputeStats derives the deterministic statistics for one window. Pure
// in-memory computation: it never touches a store and never fails. Empty
// windows yield zeroed counts and an empty co-occurrence table.
//
// Tag co-occurrence counts unordered tag pairs appearing within the same
// calendar day (UTC), which subsumes pairs on the same event. Trend
// deltas compare per-type counts against the prior window of equal
// length.
func ComputeStats(windowDays int, current, prior []domain.Event) domain.DailyStats {
	stats := domain.DailyStats{
		WindowDays:   windowDays,
		EventCount:   len(current),
		TypeCounts:   countTypes(current),
		TagCounts:    map[string]int{},
		CoOccurrence: []domain.TagPairCount{},
		TrendDeltas:  map[domain.EventType]int{},
	}

	for _, ev := range current {
		for _, tag := range ev.Tags {
			stats.TagCounts[tag]++
		}
	}

	stats.CoOccurrence = coOccurrence(current)

	priorCounts := countTypes(prior)
	for t, n := range stats.TypeCounts {
		stats.TrendDeltas[t] = n - priorCounts[t]
	}
	for t, n := range priorCounts {
		if _, ok := stats.TypeCounts[t]; !ok {
			stats.TrendDeltas[t] = -n
		}
	}

	return stats
}

func countTypes(events []domain.Event) map[domain.EventType]int {
	counts := map[domain.EventType]int{}
	for _, ev := range events {
		counts[ev.Type]++
	}
	return counts
}

// coOccurrence counts each unordered tag pair once per day it appears.
// Pairs are keyed with tags in lexical order so (a,b) and (b,a) collapse.
func coOccurrence(events []domain.Event) []domain.TagPairCount {
	tagsByDay := map[string]map[string]struct{}{}
	for _, ev := range events {
		day := ev.CreatedAt.UTC().Format("2006-01-02")
		if tagsByDay[day] == nil {
			tagsByDay[day] = map[string]struct{}{}
		}
		for _, tag := range ev.Tags {
			tagsByDay[day][tag] = struct{}{}
		}
	}

	type pair struct{ a, b string }
	counts := map[pair]int{}
	for _, tags := range tagsByDay {
		sorted := make([]string, 0, len(tags))
		for tag := range tags {
			sorted = append(sorted, tag)
		}
		sort.Strings(sorted)
		for i := 0; i < len(sorted); i++ {
			for j := i + 1; j < len(sorted); j++ {
				counts[pair{sorted[i], sorted[j]}]++
			}
		}
	}

	out := make([]domain.TagPairCount, 0, len(counts))
	for p, n := range counts {
		out = append(out, domain.TagPairCount{TagA: p.a, TagB: p.b, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].TagA != out[j].TagA {
			return out[i].TagA < out[j].TagA
		}
		return out[i].TagB < out[j].TagB
	})
	return out
}
