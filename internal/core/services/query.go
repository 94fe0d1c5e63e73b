package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/machinecraft-tech/vectorpenter/internal/core/domain"
	"github.com/machinecraft-tech/vectorpenter/internal/core/ports/driven"
	"github.com/machinecraft-tech/vectorpenter/internal/core/ports/driving"
	"github.com/machinecraft-tech/vectorpenter/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// DefaultMaxK bounds the requested result count to keep retrieval
// latency and cost sane.
const DefaultMaxK = 100

// DefaultGroundingMaxResults is the number of web results fetched when
// grounding fires.
const DefaultGroundingMaxResults = 3

// Fixed user-visible answers for the two non-exceptional failure modes.
const (
	// noEvidenceAnswer is returned without invoking generation when no
	// evidence survives the pipeline.
	noEvidenceAnswer = "I couldn't find any indexed content matching your question. " +
		"Ingest documents first, or try rephrasing the question."

	// generationFailedAnswer is returned when every chat provider
	// failed; the retrieval work is already spent, so this is an answer
	// string rather than an error.
	generationFailedAnswer = "I found relevant context but couldn't generate an answer right now. " +
		"Please try again in a moment."
)

// PipelineConfig tunes the query pipeline. Zero values fall back to the
// package defaults.
type PipelineConfig struct {
	// Namespace is the default vector namespace.
	Namespace string

	// MaxK clamps the requested result count.
	MaxK int

	// NeighborLeft/NeighborRight are the expansion window sizes.
	NeighborLeft  int
	NeighborRight int

	// ExpandMaxChars bounds the expanded snippet set.
	ExpandMaxChars int

	// GroundingThreshold is the weak-evidence similarity cutoff.
	GroundingThreshold float64

	// GroundingMaxResults caps web results per query.
	GroundingMaxResults int

	// Context tunes context pack assembly.
	Context ContextConfig
}

func (c PipelineConfig) withDefaults() PipelineConfig {
	if c.MaxK <= 0 {
		c.MaxK = DefaultMaxK
	}
	if c.NeighborLeft < 0 {
		c.NeighborLeft = 0
	}
	if c.NeighborRight < 0 {
		c.NeighborRight = 0
	}
	if c.ExpandMaxChars <= 0 {
		c.ExpandMaxChars = DefaultExpandMaxChars
	}
	if c.GroundingThreshold <= 0 {
		c.GroundingThreshold = DefaultGroundingThreshold
	}
	if c.GroundingMaxResults <= 0 {
		c.GroundingMaxResults = DefaultGroundingMaxResults
	}
	c.Context = c.Context.withDefaults()
	return c
}

// QueryService runs the retrieval-and-generation pipeline. All backends
// are injected once at construction and shared across concurrent
// queries; per-query state (matches, snippets, the context pack) is
// local to each call.
type QueryService struct {
	store     driven.ChunkStore
	embedder  driven.EmbeddingService
	vectorIdx driven.VectorIndex
	keyword   driven.KeywordIndex  // optional
	rerankers []driven.Reranker    // optional, priority order
	searcher  driven.WebSearcher   // optional
	chats     []driven.ChatService // optional, priority order
	cfg       PipelineConfig
}

// NewQueryService creates the query service. keyword, rerankers,
// searcher, and chats are optional; the pipeline degrades gracefully
// when they are nil or empty.
func NewQueryService(
	store driven.ChunkStore,
	embedder driven.EmbeddingService,
	vectorIdx driven.VectorIndex,
	keyword driven.KeywordIndex,
	rerankers []driven.Reranker,
	searcher driven.WebSearcher,
	chats []driven.ChatService,
	cfg PipelineConfig,
) *QueryService {
	return &QueryService{
		store:     store,
		embedder:  embedder,
		vectorIdx: vectorIdx,
		keyword:   keyword,
		rerankers: rerankers,
		searcher:  searcher,
		chats:     chats,
		cfg:       cfg.withDefaults(),
	}
}

// retrieval holds the intermediate state handed from retrieval to
// assembly.
type retrieval struct {
	snippets   []domain.Snippet
	bestScore  float64
	numResults int
	searchType string
}

// Ask runs the full pipeline: embed, retrieve, hydrate, optionally
// rerank, expand neighbors, optionally ground, assemble the context
// pack, and generate a cited answer.
func (s *QueryService) Ask(ctx context.Context, question string, opts domain.AskOptions) (*domain.AskResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}

	k := s.effectiveK(opts.K)
	logger.Section("Query Pipeline")
	logger.Debug("question=%q k=%d hybrid=%t rerank=%t grounding=%t",
		question, k, opts.Hybrid, opts.Rerank, opts.Grounding)

	r, err := s.retrieve(ctx, question, k, opts)
	if err != nil {
		return nil, err
	}

	if opts.Rerank {
		var provider string
		r.snippets, provider = RerankChain(ctx, s.rerankers, question, r.snippets)
		if provider != "" {
			r.searchType += "+rerank"
		}
	}

	r.snippets = ExpandNeighbors(ctx, s.store, r.snippets,
		s.cfg.NeighborLeft, s.cfg.NeighborRight, s.cfg.ExpandMaxChars)

	var external []domain.ExternalResult
	if opts.Grounding && ShouldGround(s.searcher, r.bestScore, r.numResults, k, s.cfg.GroundingThreshold) {
		external = s.ground(ctx, question)
		if len(external) > 0 {
			r.searchType += "+grounding"
		}
	}

	pack, localCount, extCount := BuildCombinedContext(r.snippets, external, s.cfg.Context)
	sources := localCount + extCount

	result := &domain.AskResult{
		Question:   question,
		K:          k,
		SearchType: r.searchType,
		Sources:    sources,
	}

	if pack == "" {
		logger.Info("no evidence survived the pipeline, skipping generation")
		result.Answer = noEvidenceAnswer
		return result, nil
	}

	result.Answer = s.generate(ctx, question, pack)
	return result, nil
}

// Search runs retrieval only: embed, retrieve, hydrate, optionally
// rerank, expand. No grounding and no generation.
func (s *QueryService) Search(ctx context.Context, query string, opts domain.AskOptions) ([]domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.SearchResult{}, nil
	}

	k := s.effectiveK(opts.K)
	r, err := s.retrieve(ctx, query, k, opts)
	if err != nil {
		return nil, err
	}

	if opts.Rerank {
		r.snippets, _ = RerankChain(ctx, s.rerankers, query, r.snippets)
	}

	r.snippets = ExpandNeighbors(ctx, s.store, r.snippets,
		s.cfg.NeighborLeft, s.cfg.NeighborRight, s.cfg.ExpandMaxChars)

	results := make([]domain.SearchResult, 0, len(r.snippets))
	for _, snip := range r.snippets {
		text := snip.Text
		if len(text) > 500 {
			text = truncate(text, 500) + truncationMarker
		}
		results = append(results, domain.SearchResult{
			ID:         snip.ID,
			DocumentID: snip.DocumentID,
			Seq:        snip.Seq,
			Text:       text,
			Score:      snip.Score,
			Source:     snip.Source,
		})
	}
	return results, nil
}

// retrieve embeds the query and runs vector (and optionally keyword)
// retrieval, merging and hydrating the results. Embedding and vector
// failures are fatal; keyword failures degrade to vector-only.
func (s *QueryService) retrieve(ctx context.Context, query string, k int, opts domain.AskOptions) (*retrieval, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.vectorIdx == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	ns := opts.Namespace
	if ns == "" {
		ns = s.cfg.Namespace
	}

	hybrid := opts.Hybrid && s.keyword != nil && s.keyword.Available(ctx)

	// Oversample when merging so deduplication has room.
	fetchK := k
	if hybrid {
		fetchK = k * 2
	}

	vecMatches, err := s.vectorIdx.Query(ctx, ns, vec, fetchK)
	if err != nil {
		return nil, err
	}

	var bestScore float64
	if len(vecMatches) > 0 {
		bestScore = vecMatches[0].Score
	}

	r := &retrieval{bestScore: bestScore, searchType: domain.SourceVector}

	var matches []domain.Match
	if hybrid {
		kwMatches, kwErr := s.keyword.Search(ctx, query, fetchK)
		if kwErr != nil {
			logger.Warn("keyword search failed: %v (falling back to vector-only)", kwErr)
			matches = clampMatches(vecMatches, k)
		} else {
			matches = HybridMerge(kwMatches, vecMatches, k)
			r.searchType = "hybrid"
			logger.Info("hybrid search: %d keyword + %d vector -> %d merged",
				len(kwMatches), len(vecMatches), len(matches))
		}
	} else {
		if opts.Hybrid {
			logger.Debug("keyword engine unavailable, using vector-only search")
		}
		matches = clampMatches(vecMatches, k)
	}

	r.numResults = len(matches)

	r.snippets, err = HydrateMatches(ctx, s.store, matches)
	if err != nil {
		return nil, fmt.Errorf("hydrate matches: %w", err)
	}

	return r, nil
}

// ground fetches external web evidence. All failures are swallowed:
// grounding is optional enhancement, never a point of query failure.
func (s *QueryService) ground(ctx context.Context, query string) []domain.ExternalResult {
	results, err := s.searcher.Search(ctx, query, s.cfg.GroundingMaxResults)
	if err != nil {
		logger.Warn("grounding search failed: %v (continuing without external evidence)", err)
		return nil
	}
	logger.Info("grounding: %d external results", len(results))
	return results
}

// generate runs the chat provider chain. Provider failures fall through
// to the next provider; when all fail, a fixed apology answer is
// returned instead of an error.
func (s *QueryService) generate(ctx context.Context, question, pack string) string {
	for _, chat := range s.chats {
		answer, err := chat.Answer(ctx, question, pack)
		if err != nil {
			logger.Warn("generation with %s failed: %v (trying next provider)", chat.ModelName(), err)
			continue
		}
		return answer
	}

	logger.Error("all generation providers failed")
	return generationFailedAnswer
}

func (s *QueryService) effectiveK(k int) int {
	if k <= 0 {
		return domain.DefaultK
	}
	if k > s.cfg.MaxK {
		return s.cfg.MaxK
	}
	return k
}

func clampMatches(matches []domain.Match, k int) []domain.Match {
	if len(matches) > k {
		return matches[:k]
	}
	return matches
}
