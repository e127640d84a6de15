package dedupe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shillz96/carfinderai/internal/lead"
)

func testTime() time.Time {
	return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
}

func ledgerValues(urls ...string) [][]string {
	values := [][]string{lead.Header}
	for _, u := range urls {
		values = append(values, lead.Lead{ListingURL: u}.Row(testTime()))
	}
	return values
}

func TestFilterDropsKnownURLs(t *testing.T) {
	t.Parallel()

	candidates := []lead.Lead{
		{Title: "a", ListingURL: "https://example.org/1"},
		{Title: "b", ListingURL: "https://example.org/2"},
		{Title: "c", ListingURL: "https://example.org/3"},
	}
	got := Filter(candidates, ledgerValues("https://example.org/2"), nil)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Title)
	assert.Equal(t, "c", got[1].Title)
}

func TestFilterKeepsCandidatesWithoutURL(t *testing.T) {
	t.Parallel()

	candidates := []lead.Lead{{Title: "no url"}}
	got := Filter(candidates, ledgerValues("https://example.org/1"), nil)
	require.Len(t, got, 1)
	assert.Equal(t, "no url", got[0].Title)
}

func TestFilterEmptyLedgerKeepsAll(t *testing.T) {
	t.Parallel()

	candidates := []lead.Lead{
		{Title: "a", ListingURL: "https://example.org/1"},
		{Title: "b", ListingURL: "https://example.org/2"},
	}
	assert.Len(t, Filter(candidates, nil, nil), 2)
}

func TestFilterFallsBackToDefaultColumn(t *testing.T) {
	t.Parallel()

	// Header without a recognizable URL column: position H still works.
	values := [][]string{
		{"c0", "c1", "c2", "c3", "c4", "c5", "c6", "c7"},
		{"", "", "", "", "", "", "", "https://example.org/dup"},
	}
	candidates := []lead.Lead{
		{Title: "dup", ListingURL: "https://example.org/dup"},
		{Title: "new", ListingURL: "https://example.org/new"},
	}
	got := Filter(candidates, values, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].Title)
}
