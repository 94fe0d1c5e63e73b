package services

import "github.com/machinecraft-tech/vectorpenter/internal/core/domain"

// HybridMerge combines keyword and vector result streams into one
// deduplicated set of at most k matches using round-robin interleaving:
// on each turn one source contributes its next not-yet-emitted match,
// keyword first, then vector, until k unique matches are collected or
// both streams are exhausted. A duplicate does not consume a source's
// turn; the source advances past it to its next unseen match.
//
// The alternation is a deliberate tie-break policy - neither source
// dominates just by being fetched first - and the ID set guarantees no
// duplicates regardless of overlap between the streams. The provenance
// tag on each emitted match records which source contributed it first.
func HybridMerge(keyword, vector []domain.Match, k int) []domain.Match {
	if k < 1 {
		return nil
	}

	seen := make(map[string]struct{}, k)
	merged := make([]domain.Match, 0, k)

	// takeNext advances the cursor past already-emitted matches and
	// emits the first unseen one, if any.
	takeNext := func(stream []domain.Match, cursor *int, fallbackSource string) {
		for *cursor < len(stream) {
			m := stream[*cursor]
			*cursor++
			if _, dup := seen[m.ID]; dup {
				continue
			}
			seen[m.ID] = struct{}{}
			if m.Source == "" {
				m.Source = fallbackSource
			}
			merged = append(merged, m)
			return
		}
	}

	ki, vi := 0, 0
	for len(merged) < k && (ki < len(keyword) || vi < len(vector)) {
		takeNext(keyword, &ki, domain.SourceKeyword)
		if len(merged) < k {
			takeNext(vector, &vi, domain.SourceVector)
		}
	}

	return merged
}
