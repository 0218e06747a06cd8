package transition

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/chordmap/internal/eventlog"
)

// seq builds sorted events for one user from a category sequence.
func seq(user string, cats ...string) []eventlog.Event {
	events := make([]eventlog.Event, len(cats))
	for i, c := range cats {
		events[i] = eventlog.Event{Row: i + 1, UserID: user, Category: c}
	}
	return events
}

func TestAggregate_SkipsSelfTransitions(t *testing.T) {
	res, err := Aggregate(seq("u1", "A", "A", "B", "A"), nil)
	require.NoError(t, err)

	assert.Equal(t, Counts{{"A", "B"}: 1, {"B", "A"}: 1}, res.Counts)
	_, selfLoop := res.Counts[Pair{"A", "A"}]
	assert.False(t, selfLoop)
	assert.Equal(t, []string{"A", "B"}, res.Categories)
	assert.Equal(t, map[string]int{"A": 3, "B": 1}, res.Visits)
}

func TestAggregate_NoCrossUserTransitions(t *testing.T) {
	events := append(seq("user1", "W", "X"), seq("user2", "Y", "Z")...)
	res, err := Aggregate(events, nil)
	require.NoError(t, err)

	assert.Equal(t, Counts{{"W", "X"}: 1, {"Y", "Z"}: 1}, res.Counts)
	_, crossed := res.Counts[Pair{"X", "Y"}]
	assert.False(t, crossed)
	assert.Equal(t, 2, res.Users)
}

func TestAggregate_CategorySetExcludesIsolatedVisits(t *testing.T) {
	events := append(seq("u1", "lonely"), seq("u2", "A", "B")...)
	res, err := Aggregate(events, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, res.Categories)
	assert.False(t, res.Has("lonely"))
	assert.Equal(t, 1, res.Visits["lonely"])
}

func TestAggregate_EveryEndpointInCategorySet(t *testing.T) {
	events := append(seq("a", "x", "y", "z", "x"), seq("b", "q", "x", "q")...)
	res, err := Aggregate(events, nil)
	require.NoError(t, err)

	for p, n := range res.Counts {
		assert.Positive(t, n)
		assert.NotEqual(t, p.Source, p.Target)
		assert.True(t, res.Has(p.Source), "source %q", p.Source)
		assert.True(t, res.Has(p.Target), "target %q", p.Target)
	}
}

func TestAggregate_EmptyUserNeverPairs(t *testing.T) {
	events := append(seq("", "A", "B"), seq("u", "C", "D")...)
	res, err := Aggregate(events, nil)
	require.NoError(t, err)

	assert.Equal(t, Counts{{"C", "D"}: 1}, res.Counts)
	assert.Equal(t, 1, res.Users)
}

func TestAggregate_RejectsEmptyCategory(t *testing.T) {
	_, err := Aggregate(seq("u", "A", "", "B"), nil)

	var ae *AggregationError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, 2, ae.Row)
	assert.Contains(t, err.Error(), "empty category")
}

func TestAggregate_RejectsUnsortedUsers(t *testing.T) {
	events := append(append(seq("u1", "A"), seq("u2", "B")...), seq("u1", "C")...)
	_, err := Aggregate(events, nil)

	var ae *AggregationError
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, ae.Reason, `"u1" are not contiguous`)
}

func TestAggregate_UsesProvidedVisits(t *testing.T) {
	visits := map[string]int{"A": 10, "B": 4}
	res, err := Aggregate(seq("u", "A", "B"), visits)
	require.NoError(t, err)
	assert.Equal(t, visits, res.Visits)
}

func TestAggregate_Empty(t *testing.T) {
	res, err := Aggregate(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Counts)
	assert.Empty(t, res.Categories)
	assert.Zero(t, res.Total())
}

func TestAggregate_Deterministic(t *testing.T) {
	events := append(seq("a", "x", "y", "x", "z"), seq("b", "z", "y", "x")...)

	first, err := Aggregate(events, nil)
	require.NoError(t, err)
	second, err := Aggregate(events, nil)
	require.NoError(t, err)

	if diff := cmp.Diff(first.Sorted(), second.Sorted()); diff != "" {
		t.Errorf("transitions differ between runs (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(first.Categories, second.Categories); diff != "" {
		t.Errorf("categories differ between runs (-first +second):\n%s", diff)
	}
}

func TestResult_SortedAndTop(t *testing.T) {
	res, err := Aggregate(append(seq("u", "a", "b", "a", "b", "a", "c"), seq("z", "c", "a")...), nil)
	require.NoError(t, err)

	assert.Equal(t, []Transition{
		{Source: "a", Target: "b", Count: 2},
		{Source: "a", Target: "c", Count: 1},
		{Source: "b", Target: "a", Count: 2},
		{Source: "c", Target: "a", Count: 1},
	}, res.Sorted())

	assert.Equal(t, []Transition{
		{Source: "a", Target: "b", Count: 2},
		{Source: "b", Target: "a", Count: 2},
	}, res.Top(2))

	assert.Len(t, res.Top(0), 4)
	assert.Equal(t, 6, res.Total())
}

func TestFromRows(t *testing.T) {
	rows := []Transition{
		{Source: "bienvenue", Target: "tutorial", Count: 3},
		{Source: "tutorial", Target: "bienvenue", Count: 1},
	}
	res, err := FromRows(rows, map[string]int{"bienvenue": 5, "tutorial": 4})
	require.NoError(t, err)

	assert.Equal(t, rows, res.Sorted())
	assert.Equal(t, []string{"bienvenue", "tutorial"}, res.Categories)
	assert.Equal(t, 9, res.Events)
}

func TestFromRows_RejectsInvalidRows(t *testing.T) {
	_, err := FromRows([]Transition{{Source: "a", Target: "a", Count: 1}}, nil)
	assert.Error(t, err)

	_, err = FromRows([]Transition{{Source: "a", Target: "b", Count: 0}}, nil)
	assert.Error(t, err)
}
