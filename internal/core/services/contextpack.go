package services

import (
	"fmt"
	"strings"

	"github.com/machinecraft-tech/vectorpenter/internal/core/domain"
)

// Context assembly defaults. The local/external split and the minimum
// external headroom are tuning knobs, not load-bearing semantics.
const (
	DefaultMaxChars         = 12000
	DefaultLocalFraction    = 0.8
	DefaultExternalMinChars = 200

	truncationMarker = "..."
	externalHeader   = "### External Web Context (Google)\n\n"
)

// ContextConfig tunes context pack assembly.
type ContextConfig struct {
	// MaxChars is the hard character budget for the whole pack.
	MaxChars int

	// LocalFraction is the share of MaxChars reserved for local
	// evidence (default 0.8); the headroom goes to external results.
	LocalFraction float64

	// ExternalMinChars is the minimum remaining budget required to
	// append the external section whole; with less remaining, the
	// section is hard-truncated instead of omitted.
	ExternalMinChars int
}

func (c ContextConfig) withDefaults() ContextConfig {
	if c.MaxChars <= 0 {
		c.MaxChars = DefaultMaxChars
	}
	if c.LocalFraction <= 0 || c.LocalFraction > 1 {
		c.LocalFraction = DefaultLocalFraction
	}
	if c.ExternalMinChars <= 0 {
		c.ExternalMinChars = DefaultExternalMinChars
	}
	return c
}

// BuildContext renders local snippets into a numbered, citation-ready
// context pack within maxChars. Each snippet becomes a whole block
// "[#n] doc::seq\ntext\n\n" where n is the 1-based position in final
// rendered order; rendering stops before the first block that would
// exceed the budget. Snippets with no text (failed hydration) are
// skipped - they carry nothing citable.
//
// Returns the rendered pack and the number of blocks emitted.
func BuildContext(snippets []domain.Snippet, maxChars int) (string, int) {
	var buf strings.Builder
	n := 0
	for _, s := range snippets {
		if s.Text == "" {
			continue
		}
		block := fmt.Sprintf("[#%d] %s::%d\n%s\n\n", n+1, s.DocumentID, s.Seq, s.Text)
		if buf.Len()+len(block) > maxChars {
			break
		}
		buf.WriteString(block)
		n++
	}
	return buf.String(), n
}

// BuildCombinedContext renders local snippets followed by external web
// results under a total character budget. Local evidence gets the
// configured fraction of the budget; external results fill whatever
// headroom local rendering leaves. When the headroom is below
// ExternalMinChars but nonzero, the external section is hard-truncated
// with an ellipsis marker rather than dropped.
//
// The total rendered length never exceeds MaxChars by more than the
// truncation marker.
//
// Returns the pack and the counts of local and external entries
// rendered.
func BuildCombinedContext(snippets []domain.Snippet, external []domain.ExternalResult, cfg ContextConfig) (string, int, int) {
	cfg = cfg.withDefaults()

	localBudget := int(float64(cfg.MaxChars) * cfg.LocalFraction)
	if len(external) == 0 {
		localBudget = cfg.MaxChars
	}

	local, localCount := BuildContext(snippets, localBudget)
	if len(external) == 0 {
		return local, localCount, 0
	}

	remaining := cfg.MaxChars - len(local)
	if remaining <= 0 {
		return local, localCount, 0
	}

	section, extCount := renderExternal(external)
	if remaining < cfg.ExternalMinChars || len(section) > remaining {
		section = truncate(section, remaining) + truncationMarker
		extCount = wholeExternalEntries(external, remaining)
	}

	return local + section, localCount, extCount
}

// renderExternal formats web results as a labeled section:
// "[G#n] title\nsnippet\n(link)". Entries missing a title or snippet
// were already filtered by the searcher.
func renderExternal(results []domain.ExternalResult) (string, int) {
	var buf strings.Builder
	buf.WriteString(externalHeader)
	n := 0
	for _, r := range results {
		buf.WriteString(fmt.Sprintf("[G#%d] %s\n%s\n(%s)\n\n", n+1, r.Title, r.Snippet, r.Link))
		n++
	}
	return buf.String(), n
}

// wholeExternalEntries counts external entries whose rendered block
// fits entirely within the first limit bytes of the section, so the
// reported source count matches what actually survives truncation.
func wholeExternalEntries(results []domain.ExternalResult, limit int) int {
	used := len(externalHeader)
	n := 0
	for i, r := range results {
		block := fmt.Sprintf("[G#%d] %s\n%s\n(%s)\n\n", i+1, r.Title, r.Snippet, r.Link)
		if used+len(block) > limit {
			break
		}
		used += len(block)
		n++
	}
	return n
}

// truncate cuts s to at most max bytes without splitting a UTF-8
// sequence.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && s[max]&0xC0 == 0x80 {
		max--
	}
	return s[:max]
}
