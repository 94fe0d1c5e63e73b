package services

import (
	"context"
	"sort"

	"github.com/machinecraft-tech/vectorpenter/internal/core/domain"
	"github.com/machinecraft-tech/vectorpenter/internal/core/ports/driven"
	"github.com/machinecraft-tech/vectorpenter/internal/logger"
)

// DefaultExpandMaxChars bounds the cumulative size of an expanded
// snippet set.
const DefaultExpandMaxChars = 16000

// ExpandNeighbors pulls up to left preceding and right following chunks
// (by sequence number, same document) for each snippet, restoring local
// narrative continuity around each hit. Neighbors inherit the score of
// the snippet that pulled them in - they carry no relevance signal of
// their own - and are tagged with the triggering identifier.
//
// The combined set is sorted into reading order (document ID, sequence)
// and greedily trimmed against maxChars, stopping as soon as the next
// snippet would exceed the budget.
//
// Expansion must never fail the query: any store error falls back to
// returning the input unchanged.
func ExpandNeighbors(ctx context.Context, store driven.ChunkStore, snippets []domain.Snippet, left, right, maxChars int) []domain.Snippet {
	if store == nil || len(snippets) == 0 || (left <= 0 && right <= 0) {
		return snippets
	}
	if maxChars <= 0 {
		maxChars = DefaultExpandMaxChars
	}

	present := make(map[string]struct{}, len(snippets))
	for _, s := range snippets {
		present[s.ID] = struct{}{}
	}

	expanded := make([]domain.Snippet, 0, len(snippets)*(1+left+right))
	expanded = append(expanded, snippets...)

	for _, s := range snippets {
		if s.DocumentID == "" {
			// Hydration could not resolve this one; nothing to expand.
			continue
		}

		fromSeq := s.Seq - left
		if fromSeq < 0 {
			fromSeq = 0 // documents start at sequence 0
		}
		toSeq := s.Seq + right

		neighbors, err := store.GetChunkRange(ctx, s.DocumentID, fromSeq, toSeq)
		if err != nil {
			logger.Warn("neighbor expansion failed for %s: %v (returning unexpanded results)", s.ID, err)
			return snippets
		}

		for _, n := range neighbors {
			if _, dup := present[n.ID]; dup {
				continue
			}
			present[n.ID] = struct{}{}
			expanded = append(expanded, domain.Snippet{
				ID:         n.ID,
				DocumentID: n.DocumentID,
				Seq:        n.Seq,
				Text:       n.Text,
				Score:      s.Score, // inherited, no independent signal
				Source:     s.Source,
				NeighborOf: s.ID,
			})
		}
	}

	// Reading order: by document, then sequence.
	sort.SliceStable(expanded, func(i, j int) bool {
		if expanded[i].DocumentID != expanded[j].DocumentID {
			return expanded[i].DocumentID < expanded[j].DocumentID
		}
		return expanded[i].Seq < expanded[j].Seq
	})

	trimmed := make([]domain.Snippet, 0, len(expanded))
	total := 0
	for _, s := range expanded {
		if total+len(s.Text) > maxChars {
			break
		}
		trimmed = append(trimmed, s)
		total += len(s.Text)
	}

	if len(trimmed) != len(snippets) {
		logger.Debug("neighbor expansion: %d originals -> %d snippets (budget %d chars)",
			len(snippets), len(trimmed), maxChars)
	}

	return trimmed
}
