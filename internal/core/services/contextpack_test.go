package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/machinecraft-tech/vectorpenter/internal/core/domain"
)

func textSnippets(texts ...string) []domain.Snippet {
	out := make([]domain.Snippet, len(texts))
	for i, text := range texts {
		out[i] = domain.Snippet{
			ID:         domain.ChunkID("doc", i),
			DocumentID: "doc",
			Seq:        i,
			Text:       text,
		}
	}
	return out
}

func TestBuildContextNumbersBlocksInRenderOrder(t *testing.T) {
	pack, n := BuildContext(textSnippets("first", "second"), 1000)

	assert.Equal(t, 2, n)
	assert.Equal(t, "[#1] doc::0\nfirst\n\n[#2] doc::1\nsecond\n\n", pack)
}

func TestBuildContextStopsAtWholeBlocks(t *testing.T) {
	long := strings.Repeat("x", 100)
	pack, n := BuildContext(textSnippets("short", long), 40)

	// The second block does not fit; it is excluded whole, never cut.
	assert.Equal(t, 1, n)
	assert.Equal(t, "[#1] doc::0\nshort\n\n", pack)
}

func TestBuildContextSkipsEmptyText(t *testing.T) {
	snippets := []domain.Snippet{
		{ID: "doc::0", DocumentID: "doc", Seq: 0, Text: "real"},
		{ID: "ghost::1", Seq: 1}, // failed hydration
	}

	pack, n := BuildContext(snippets, 1000)

	assert.Equal(t, 1, n)
	assert.NotContains(t, pack, "ghost")
}

func TestBuildContextEmptyInput(t *testing.T) {
	pack, n := BuildContext(nil, 1000)
	assert.Empty(t, pack)
	assert.Zero(t, n)
}

func TestCombinedContextLocalBeforeExternal(t *testing.T) {
	snippets := textSnippets("local evidence")
	external := []domain.ExternalResult{
		{Title: "Example", Link: "https://example.com", Snippet: "external snippet"},
	}

	pack, localN, extN := BuildCombinedContext(snippets, external, ContextConfig{MaxChars: 2000})

	assert.Equal(t, 1, localN)
	assert.Equal(t, 1, extN)

	localIdx := strings.Index(pack, "[#1]")
	extIdx := strings.Index(pack, "[G#1]")
	require.GreaterOrEqual(t, localIdx, 0)
	require.Greater(t, extIdx, localIdx, "local evidence renders before external")

	assert.Contains(t, pack, "### External Web Context (Google)")
	assert.Contains(t, pack, "[G#1] Example\nexternal snippet\n(https://example.com)")
}

func TestCombinedContextNeverExceedsBudget(t *testing.T) {
	long := strings.Repeat("z", 400)
	snippets := textSnippets(long, long, long)
	external := []domain.ExternalResult{
		{Title: "T1", Link: "l1", Snippet: strings.Repeat("e", 300)},
		{Title: "T2", Link: "l2", Snippet: strings.Repeat("e", 300)},
	}

	for _, maxChars := range []int{100, 500, 900, 1300, 5000} {
		t.Run(fmt.Sprintf("max=%d", maxChars), func(t *testing.T) {
			pack, _, _ := BuildCombinedContext(snippets, external, ContextConfig{MaxChars: maxChars})
			assert.LessOrEqual(t, len(pack), maxChars+len(truncationMarker))
		})
	}
}

func TestCombinedContextReservesLocalFraction(t *testing.T) {
	// Local content alone would fill the whole budget; with external
	// results present only the local fraction is available to it.
	long := strings.Repeat("z", 90)
	snippets := textSnippets(long, long, long, long, long, long, long, long, long, long)
	external := []domain.ExternalResult{{Title: "T", Link: "l", Snippet: "ext"}}

	pack, localN, _ := BuildCombinedContext(snippets, external, ContextConfig{MaxChars: 1000})

	// 80% of 1000 = 800 budget; each block is ~102 chars, so at most 7 fit.
	assert.LessOrEqual(t, localN, 7)
	assert.Contains(t, pack, "[G#1]")
}

func TestCombinedContextTruncatesExternalWhenHeadroomTight(t *testing.T) {
	// Local fills well past the 80% line, leaving less than the
	// external minimum but more than zero.
	long := strings.Repeat("z", 930)
	snippets := textSnippets(long)
	external := []domain.ExternalResult{{Title: "Title", Link: "link", Snippet: strings.Repeat("e", 300)}}

	cfg := ContextConfig{MaxChars: 1000, LocalFraction: 0.96, ExternalMinChars: 200}
	pack, _, _ := BuildCombinedContext(snippets, external, cfg)

	assert.True(t, strings.HasSuffix(pack, truncationMarker), "tight headroom hard-truncates with a marker")
	assert.LessOrEqual(t, len(pack), 1000+len(truncationMarker))
	assert.Contains(t, pack, "### External Web Context")
}

func TestCombinedContextExternalMinCharsGatesWholeAppend(t *testing.T) {
	// Identical headroom; only the configured minimum differs. Below
	// the minimum the section is hard-truncated even when it would fit.
	long := strings.Repeat("z", 736) // rendered block is 750 chars, leaving 250
	snippets := textSnippets(long)
	external := []domain.ExternalResult{
		{Title: "Example", Link: "https://example.com", Snippet: "short external snippet"},
	}

	loose, _, _ := BuildCombinedContext(snippets, external, ContextConfig{MaxChars: 1000, ExternalMinChars: 100})
	tight, _, _ := BuildCombinedContext(snippets, external, ContextConfig{MaxChars: 1000, ExternalMinChars: 400})

	assert.False(t, strings.HasSuffix(loose, truncationMarker), "ample minimum appends the section whole")
	assert.True(t, strings.HasSuffix(tight, truncationMarker), "high minimum forces truncation")
	assert.NotEqual(t, loose, tight)
}

func TestCombinedContextCountsOnlySurvivingExternalEntries(t *testing.T) {
	// When truncation cuts into the section, the external count covers
	// only entries whose block survives whole.
	long := strings.Repeat("z", 746) // rendered block is 760 chars, leaving 240
	snippets := textSnippets(long)
	external := []domain.ExternalResult{
		{Title: "T1", Link: "l1", Snippet: strings.Repeat("a", 100)},
		{Title: "T2", Link: "l2", Snippet: strings.Repeat("b", 100)},
	}

	pack, _, extN := BuildCombinedContext(snippets, external, ContextConfig{MaxChars: 1000})

	assert.Equal(t, 1, extN)
	assert.Contains(t, pack, "(l1)")
	assert.NotContains(t, pack, "(l2)")
	assert.True(t, strings.HasSuffix(pack, truncationMarker))
}

func TestCombinedContextExternalOnlyWhenLocalTooLarge(t *testing.T) {
	// A single oversized local block renders nothing; external evidence
	// still gets the remaining budget.
	long := strings.Repeat("z", 2000)
	snippets := textSnippets(long)
	external := []domain.ExternalResult{{Title: "T", Link: "l", Snippet: "ext"}}

	pack, localN, extN := BuildCombinedContext(snippets, external, ContextConfig{MaxChars: 300})

	assert.Zero(t, localN)
	assert.Equal(t, 1, extN)
	assert.Contains(t, pack, "[G#1]")
	assert.NotContains(t, pack, "[#1]")
}

func TestCombinedContextNoExternalUsesFullBudget(t *testing.T) {
	// Without external results the local evidence gets the whole
	// budget, not just its fraction.
	block := strings.Repeat("z", 85) // each rendered block ~97 chars
	snippets := textSnippets(block, block, block, block, block, block, block, block, block, block)

	_, withExt, _ := BuildCombinedContext(snippets, []domain.ExternalResult{{Title: "T", Link: "l", Snippet: "e"}}, ContextConfig{MaxChars: 1000})
	_, noExt, _ := BuildCombinedContext(snippets, nil, ContextConfig{MaxChars: 1000})

	assert.Greater(t, noExt, withExt)
}

func TestTruncateRespectsUTF8(t *testing.T) {
	s := "héllo wörld" // multi-byte runes
	for max := 0; max <= len(s); max++ {
		got := truncate(s, max)
		assert.True(t, len(got) <= max)
		assert.True(t, strings.HasPrefix(s, got))
		// No broken rune at the boundary.
		assert.True(t, isValidUTF8(got), "truncate(%q, %d) = %q", s, max, got)
	}
}

func isValidUTF8(s string) bool {
	for _, r := range s {
		if r == '�' {
			return false
		}
	}
	return true
}
