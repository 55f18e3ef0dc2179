package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Retrieval strategies selectable via RETRIEVAL_STRATEGY.
const (
	StrategyVector     = "vector"
	StrategyTruncation = "truncation"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	// LLM (OpenAI-compatible chat completions; Groq by default)
	GroqAPIKey  string `env:"GROQ_API_KEY"`
	GroqBaseURL string `env:"GROQ_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	GroqModel   string `env:"GROQ_MODEL" envDefault:"llama-3.1-8b-instant"`

	// Embeddings (vector strategy only)
	EmbeddingBaseURL string `env:"EMBEDDING_BASE_URL" envDefault:"https://api.openai.com/v1"`
	EmbeddingAPIKey  string `env:"EMBEDDING_API_KEY"`
	EmbeddingModel   string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`

	// Retrieval
	Strategy        string `env:"RETRIEVAL_STRATEGY" envDefault:"vector"`
	TopK            int    `env:"TOP_K" envDefault:"4"`
	MaxContextChars int    `env:"MAX_CONTEXT_CHARS" envDefault:"3000"`
	HistoryAware    bool   `env:"HISTORY_AWARE" envDefault:"true"`

	// Chunking
	ChunkSize    int `env:"CHUNK_SIZE" envDefault:"1000"`
	ChunkOverlap int `env:"CHUNK_OVERLAP" envDefault:"200"`

	// Upload limits
	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"16777216"` // 16MB

	// Session lifecycle
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"1h"`

	// External call timeout
	LLMTimeout time.Duration `env:"LLM_TIMEOUT" envDefault:"60s"`

	// PDF
	PDFFallbackPdftotext bool `env:"PDF_FALLBACK_PDFTOTEXT" envDefault:"true"`
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.GroqAPIKey == "" {
		return fmt.Errorf("GROQ_API_KEY is required")
	}
	switch c.Strategy {
	case StrategyVector:
		if c.EmbeddingAPIKey == "" {
			return fmt.Errorf("EMBEDDING_API_KEY is required for the vector strategy")
		}
	case StrategyTruncation:
	default:
		return fmt.Errorf("unknown RETRIEVAL_STRATEGY %q (want %q or %q)", c.Strategy, StrategyVector, StrategyTruncation)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive")
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must satisfy 0 <= overlap < CHUNK_SIZE")
	}
	if c.TopK <= 0 {
		return fmt.Errorf("TOP_K must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}
