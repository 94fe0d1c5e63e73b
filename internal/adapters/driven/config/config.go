// Package config loads application configuration from an optional TOML
// file, a .env file, and environment variables. Environment variables
// win over the file so API keys never need to live on disk.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config is the full application configuration. Zero values defer to
// the adapter and pipeline defaults.
type Config struct {
	Verbose bool `toml:"verbose"`

	Data      Data      `toml:"data"`
	Pipeline  Pipeline  `toml:"pipeline"`
	OpenAI    OpenAI    `toml:"openai"`
	Pinecone  Pinecone  `toml:"pinecone"`
	Keyword   Keyword   `toml:"keyword"`
	Typesense Typesense `toml:"typesense"`
	Rerank    Rerank    `toml:"rerank"`
	Grounding Grounding `toml:"grounding"`
	Vertex    Vertex    `toml:"vertex"`
	API       API       `toml:"api"`
}

// Data locates local state on disk.
type Data struct {
	// Dir is the root for the database and local indexes.
	Dir string `toml:"dir"`

	// DatabasePath overrides the default <dir>/vectorpenter.db.
	DatabasePath string `toml:"database_path"`

	// BlevePath overrides the default <dir>/bleve.
	BlevePath string `toml:"bleve_path"`
}

// Pipeline tunes retrieval and context assembly.
type Pipeline struct {
	K                   int     `toml:"k"`
	MaxK                int     `toml:"max_k"`
	ChunkWords          int     `toml:"chunk_words"`
	ChunkOverlap        int     `toml:"chunk_overlap"`
	NeighborLeft        int     `toml:"neighbor_left"`
	NeighborRight       int     `toml:"neighbor_right"`
	ExpandMaxChars      int     `toml:"expand_max_chars"`
	ContextMaxChars     int     `toml:"context_max_chars"`
	LocalFraction       float64 `toml:"local_fraction"`
	GroundingThreshold  float64 `toml:"grounding_threshold"`
	GroundingMaxResults int     `toml:"grounding_max_results"`
}

// OpenAI configures embeddings and the fallback chat provider.
type OpenAI struct {
	APIKey         string `toml:"api_key"`
	EmbeddingModel string `toml:"embedding_model"`
	ChatModel      string `toml:"chat_model"`
}

// Pinecone configures the vector index.
type Pinecone struct {
	APIKey    string `toml:"api_key"`
	Host      string `toml:"host"`
	Namespace string `toml:"namespace"`
}

// Keyword selects the keyword engine: "typesense", "bleve", or "off".
type Keyword struct {
	Engine string `toml:"engine"`
}

// Typesense configures the hosted keyword engine.
type Typesense struct {
	APIKey     string `toml:"api_key"`
	Host       string `toml:"host"`
	Port       int    `toml:"port"`
	Protocol   string `toml:"protocol"`
	Collection string `toml:"collection"`
}

// Rerank holds the reranker provider keys. A provider with no key is
// left out of the chain.
type Rerank struct {
	VoyageAPIKey string `toml:"voyage_api_key"`
	CohereAPIKey string `toml:"cohere_api_key"`
}

// Grounding configures Google Programmable Search.
type Grounding struct {
	APIKey           string  `toml:"api_key"`
	CX               string  `toml:"cx"`
	QueriesPerSecond float64 `toml:"queries_per_second"`
}

// Vertex configures the optional primary chat provider.
type Vertex struct {
	Enabled   bool   `toml:"enabled"`
	ProjectID string `toml:"project_id"`
	Location  string `toml:"location"`
	Model     string `toml:"model"`
}

// API configures the HTTP server.
type API struct {
	Addr string `toml:"addr"`
}

// Keyword engine names.
const (
	EngineTypesense = "typesense"
	EngineBleve     = "bleve"
	EngineOff       = "off"
)

// Default returns the baseline configuration before file and
// environment overrides.
func Default() Config {
	return Config{
		Data:     Data{Dir: "data"},
		Keyword:  Keyword{Engine: EngineBleve},
		Pinecone: Pinecone{Namespace: "default"},
		Typesense: Typesense{
			Host:     "localhost",
			Port:     8108,
			Protocol: "http",
		},
		Vertex: Vertex{Location: "us-central1"},
		API:    API{Addr: ":8080"},
	}
}

// Load builds the configuration: defaults, then the TOML file at path
// (skipped when missing), then .env, then environment variables. An
// empty path skips the file and applies defaults plus environment only.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// No config file is fine; env carries the secrets.
		case err != nil:
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	// Populate the process environment from .env without clobbering
	// variables the caller already exported.
	_ = godotenv.Load()

	cfg.applyEnv()

	if cfg.Data.DatabasePath == "" {
		cfg.Data.DatabasePath = filepath.Join(cfg.Data.Dir, "vectorpenter.db")
	}
	if cfg.Data.BlevePath == "" {
		cfg.Data.BlevePath = filepath.Join(cfg.Data.Dir, "bleve")
	}

	return &cfg, nil
}

// applyEnv overlays environment variables onto the configuration.
func (c *Config) applyEnv() {
	envString(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	envString(&c.OpenAI.EmbeddingModel, "OPENAI_EMBEDDING_MODEL")
	envString(&c.OpenAI.ChatModel, "OPENAI_CHAT_MODEL")

	envString(&c.Pinecone.APIKey, "PINECONE_API_KEY")
	envString(&c.Pinecone.Host, "PINECONE_HOST")
	envString(&c.Pinecone.Namespace, "PINECONE_NAMESPACE")

	envString(&c.Keyword.Engine, "KEYWORD_ENGINE")
	envString(&c.Typesense.APIKey, "TYPESENSE_API_KEY")
	envString(&c.Typesense.Host, "TYPESENSE_HOST")
	envInt(&c.Typesense.Port, "TYPESENSE_PORT")
	envString(&c.Typesense.Protocol, "TYPESENSE_PROTOCOL")
	envString(&c.Typesense.Collection, "TYPESENSE_COLLECTION")

	envString(&c.Rerank.VoyageAPIKey, "VOYAGE_API_KEY")
	envString(&c.Rerank.CohereAPIKey, "COHERE_API_KEY")

	envString(&c.Grounding.APIKey, "GOOGLE_SEARCH_API_KEY")
	envString(&c.Grounding.CX, "GOOGLE_SEARCH_CX")
	envFloat(&c.Pipeline.GroundingThreshold, "GROUNDING_SIM_THRESHOLD")

	envBool(&c.Vertex.Enabled, "USE_VERTEX_CHAT")
	envString(&c.Vertex.ProjectID, "GCP_PROJECT_ID")
	envString(&c.Vertex.Location, "GCP_LOCATION")
	envString(&c.Vertex.Model, "VERTEX_CHAT_MODEL")

	envString(&c.API.Addr, "API_ADDR")
	envString(&c.Data.Dir, "DATA_DIR")
	envString(&c.Data.DatabasePath, "DATABASE_PATH")
	envBool(&c.Verbose, "VECTORPENTER_VERBOSE")
}

func envString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
