package cli

import (
	"context"
	"fmt"

	"github.com/machinecraft-tech/vectorpenter/internal/adapters/driven/config"
	openaiembed "github.com/machinecraft-tech/vectorpenter/internal/adapters/driven/embedding/openai"
	"github.com/machinecraft-tech/vectorpenter/internal/adapters/driven/grounding/googlecse"
	"github.com/machinecraft-tech/vectorpenter/internal/adapters/driven/keyword/bleve"
	"github.com/machinecraft-tech/vectorpenter/internal/adapters/driven/keyword/typesense"
	openaichat "github.com/machinecraft-tech/vectorpenter/internal/adapters/driven/llm/openai"
	"github.com/machinecraft-tech/vectorpenter/internal/adapters/driven/llm/vertex"
	"github.com/machinecraft-tech/vectorpenter/internal/adapters/driven/rerank/cohere"
	"github.com/machinecraft-tech/vectorpenter/internal/adapters/driven/rerank/voyage"
	"github.com/machinecraft-tech/vectorpenter/internal/adapters/driven/storage/sqlite"
	"github.com/machinecraft-tech/vectorpenter/internal/adapters/driven/vector/pinecone"
	"github.com/machinecraft-tech/vectorpenter/internal/core/ports/driven"
	"github.com/machinecraft-tech/vectorpenter/internal/core/services"
	"github.com/machinecraft-tech/vectorpenter/internal/ingest"
	"github.com/machinecraft-tech/vectorpenter/internal/logger"
)

// appConfig is the configuration loaded by ensureServices, kept for
// commands that need raw settings (serve address, ingest root).
var appConfig *config.Config

// ensureServices wires the driven adapters into the query and ingest
// services. It is a no-op when the services are already set, which is
// how tests inject mocks.
func ensureServices(ctx context.Context) error {
	if queryService != nil && ingestService != nil {
		return nil
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	appConfig = cfg
	if cfg.Verbose {
		logger.SetVerbose(true)
	}

	store, err := sqlite.NewStore(cfg.Data.Dir)
	if err != nil {
		return fmt.Errorf("opening chunk store: %w", err)
	}

	// Required backends are still optional at wiring time: the query
	// service reports a missing embedder or vector index per call, so
	// commands that never touch them (ingest without indexing) work
	// without keys.
	var embedder driven.EmbeddingService
	if cfg.OpenAI.APIKey != "" {
		e, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey: cfg.OpenAI.APIKey,
			Model:  cfg.OpenAI.EmbeddingModel,
		})
		if err != nil {
			return err
		}
		embedder = e
	} else {
		logger.Warn("OPENAI_API_KEY not set; embedding-backed commands will fail")
	}

	var vectorIdx driven.VectorIndex
	if cfg.Pinecone.APIKey != "" && cfg.Pinecone.Host != "" {
		v, err := pinecone.NewIndex(pinecone.Config{
			APIKey: cfg.Pinecone.APIKey,
			Host:   cfg.Pinecone.Host,
		})
		if err != nil {
			return err
		}
		vectorIdx = v
	} else {
		logger.Warn("Pinecone not configured; vector retrieval is unavailable")
	}

	keyword, err := buildKeywordIndex(cfg)
	if err != nil {
		return err
	}

	var rerankers []driven.Reranker
	if cfg.Rerank.VoyageAPIKey != "" {
		r, err := voyage.NewReranker(voyage.Config{APIKey: cfg.Rerank.VoyageAPIKey})
		if err != nil {
			return err
		}
		rerankers = append(rerankers, r)
	}
	if cfg.Rerank.CohereAPIKey != "" {
		r, err := cohere.NewReranker(cohere.Config{APIKey: cfg.Rerank.CohereAPIKey})
		if err != nil {
			return err
		}
		rerankers = append(rerankers, r)
	}

	var searcher driven.WebSearcher
	if cfg.Grounding.APIKey != "" && cfg.Grounding.CX != "" {
		s, err := googlecse.NewSearcher(googlecse.Config{
			APIKey:           cfg.Grounding.APIKey,
			CX:               cfg.Grounding.CX,
			QueriesPerSecond: cfg.Grounding.QueriesPerSecond,
		})
		if err != nil {
			return err
		}
		searcher = s
	}

	var chats []driven.ChatService
	if cfg.Vertex.Enabled && cfg.Vertex.ProjectID != "" {
		c, err := vertex.NewChatService(ctx, vertex.Config{
			ProjectID: cfg.Vertex.ProjectID,
			Location:  cfg.Vertex.Location,
			Model:     cfg.Vertex.Model,
		})
		if err != nil {
			logger.Warn("Vertex chat unavailable, falling back to OpenAI: %v", err)
		} else {
			chats = append(chats, c)
		}
	}
	if cfg.OpenAI.APIKey != "" {
		c, err := openaichat.NewChatService(openaichat.Config{
			APIKey: cfg.OpenAI.APIKey,
			Model:  cfg.OpenAI.ChatModel,
		})
		if err != nil {
			return err
		}
		chats = append(chats, c)
	}

	queryService = services.NewQueryService(store, embedder, vectorIdx, keyword,
		rerankers, searcher, chats, services.PipelineConfig{
			Namespace:           cfg.Pinecone.Namespace,
			MaxK:                cfg.Pipeline.MaxK,
			NeighborLeft:        cfg.Pipeline.NeighborLeft,
			NeighborRight:       cfg.Pipeline.NeighborRight,
			ExpandMaxChars:      cfg.Pipeline.ExpandMaxChars,
			GroundingThreshold:  cfg.Pipeline.GroundingThreshold,
			GroundingMaxResults: cfg.Pipeline.GroundingMaxResults,
			Context: services.ContextConfig{
				MaxChars:      cfg.Pipeline.ContextMaxChars,
				LocalFraction: cfg.Pipeline.LocalFraction,
			},
		})

	chunker := ingest.NewChunker(
		ingest.WithChunkWords(cfg.Pipeline.ChunkWords),
		ingest.WithOverlapWords(cfg.Pipeline.ChunkOverlap),
	)
	ingestService = ingest.NewService(store, embedder, vectorIdx, keyword,
		ingest.WithChunker(chunker),
		ingest.WithNamespace(cfg.Pinecone.Namespace),
	)

	return nil
}

// buildKeywordIndex constructs the configured keyword engine, or nil
// when keyword search is off.
func buildKeywordIndex(cfg *config.Config) (driven.KeywordIndex, error) {
	switch cfg.Keyword.Engine {
	case config.EngineTypesense:
		if cfg.Typesense.APIKey == "" {
			logger.Warn("typesense selected but TYPESENSE_API_KEY not set; keyword search disabled")
			return nil, nil
		}
		return typesense.NewIndex(typesense.Config{
			URL: fmt.Sprintf("%s://%s:%d",
				cfg.Typesense.Protocol, cfg.Typesense.Host, cfg.Typesense.Port),
			APIKey:     cfg.Typesense.APIKey,
			Collection: cfg.Typesense.Collection,
		})
	case config.EngineBleve:
		return bleve.NewEngine(cfg.Data.BlevePath)
	case config.EngineOff:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown keyword engine %q", cfg.Keyword.Engine)
	}
}
