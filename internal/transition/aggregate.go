// Package transition counts how often users move from one category to
// another.
package transition

import (
	"fmt"
	"sort"

	"github.com/runnerr0/chordmap/internal/eventlog"
)

// AggregationError reports structurally invalid events: an empty category,
// or a user whose events are not contiguous in the sorted sequence.
type AggregationError struct {
	Row    int
	Reason string
}

func (e *AggregationError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("aggregate transitions: row %d: %s", e.Row, e.Reason)
	}
	return "aggregate transitions: " + e.Reason
}

// Pair is an ordered (source, target) category pair.
type Pair struct {
	Source string
	Target string
}

// Counts maps a pair to the number of times it was observed.
type Counts map[Pair]int

// Transition is one entry of Counts.
type Transition struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Count  int    `json:"count"`
}

// Result is the output of Aggregate.
type Result struct {
	Counts     Counts
	Categories []string       // every endpoint of a counted pair, sorted
	Visits     map[string]int // occurrences per category, all events
	Events     int
	Users      int
}

// Aggregate walks events, which must already be sorted by user then time,
// and counts every adjacent same-user pair whose categories differ.
// Events with an empty user id never pair with a neighbour.
func Aggregate(events []eventlog.Event, visits map[string]int) (*Result, error) {
	res := &Result{
		Counts: make(Counts),
		Visits: visits,
		Events: len(events),
	}
	if res.Visits == nil {
		res.Visits = make(map[string]int)
		for _, e := range events {
			res.Visits[e.Category]++
		}
	}

	finished := make(map[string]bool)
	set := make(map[string]struct{})

	for i, e := range events {
		if e.Category == "" {
			return nil, &AggregationError{Row: e.Row, Reason: "empty category"}
		}
		if i == 0 || events[i-1].UserID != e.UserID {
			if e.UserID != "" {
				if finished[e.UserID] {
					return nil, &AggregationError{Row: e.Row, Reason: fmt.Sprintf("events for user %q are not contiguous; input is not sorted by user", e.UserID)}
				}
				res.Users++
			}
			if i > 0 && events[i-1].UserID != "" {
				finished[events[i-1].UserID] = true
			}
			continue
		}
		if e.UserID == "" {
			continue
		}

		prev := events[i-1]
		if prev.Category == e.Category {
			continue
		}

		res.Counts[Pair{Source: prev.Category, Target: e.Category}]++
		set[prev.Category] = struct{}{}
		set[e.Category] = struct{}{}
	}

	res.Categories = sortedKeys(set)
	return res, nil
}

// FromRows rebuilds a Result from previously stored transitions.
func FromRows(rows []Transition, visits map[string]int) (*Result, error) {
	res := &Result{Counts: make(Counts, len(rows)), Visits: visits}
	if res.Visits == nil {
		res.Visits = make(map[string]int)
	}
	set := make(map[string]struct{})
	for _, r := range rows {
		if r.Source == r.Target {
			return nil, &AggregationError{Reason: fmt.Sprintf("self-transition %q", r.Source)}
		}
		if r.Count <= 0 {
			return nil, &AggregationError{Reason: fmt.Sprintf("non-positive count %d for %q -> %q", r.Count, r.Source, r.Target)}
		}
		res.Counts[Pair{Source: r.Source, Target: r.Target}] += r.Count
		set[r.Source] = struct{}{}
		set[r.Target] = struct{}{}
	}
	for _, n := range res.Visits {
		res.Events += n
	}
	res.Categories = sortedKeys(set)
	return res, nil
}

// Sorted returns every transition ordered by source, then target.
func (r *Result) Sorted() []Transition {
	out := make([]Transition, 0, len(r.Counts))
	for p, n := range r.Counts {
		out = append(out, Transition{Source: p.Source, Target: p.Target, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].Target < out[j].Target
	})
	return out
}

// Top returns the n most frequent transitions, ties broken by source then
// target. n <= 0 returns all of them.
func (r *Result) Top(n int) []Transition {
	all := r.Sorted()
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Count > all[j].Count
	})
	if n > 0 && n < len(all) {
		all = all[:n]
	}
	return all
}

// Total is the sum of all transition counts.
func (r *Result) Total() int {
	total := 0
	for _, n := range r.Counts {
		total += n
	}
	return total
}

// Has reports whether category is an endpoint of any transition.
func (r *Result) Has(category string) bool {
	i := sort.SearchStrings(r.Categories, category)
	return i < len(r.Categories) && r.Categories[i] == category
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
