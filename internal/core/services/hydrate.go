package services

import (
	"context"

	"github.com/machinecraft-tech/vectorpenter/internal/core/domain"
	"github.com/machinecraft-tech/vectorpenter/internal/core/ports/driven"
	"github.com/machinecraft-tech/vectorpenter/internal/logger"
)

// HydrateMatches resolves match identifiers to full chunk text and
// positional metadata in one batched store lookup. Matches whose
// identifier is not found are passed through with empty text fields
// rather than dropped, so the score-position mapping survives for
// callers that depend on list length.
func HydrateMatches(ctx context.Context, store driven.ChunkStore, matches []domain.Match) ([]domain.Snippet, error) {
	if len(matches) == 0 {
		return []domain.Snippet{}, nil
	}

	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}

	chunks, err := store.GetChunksByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	snippets := make([]domain.Snippet, 0, len(matches))
	for _, m := range matches {
		s := domain.Snippet{
			ID:     m.ID,
			Score:  m.Score,
			Source: m.Source,
		}
		if c, ok := chunks[m.ID]; ok {
			s.DocumentID = c.DocumentID
			s.Seq = c.Seq
			s.Text = c.Text
		} else {
			logger.Debug("hydrate: chunk %s not found in store", m.ID)
		}
		snippets = append(snippets, s)
	}

	return snippets, nil
}
