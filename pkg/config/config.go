package config

import (
	"context"
	"time"
)

// Config represents the complete configuration for the supervisor.
// It provides type-safe access to all configuration values with validation.
type Config struct {
	LLM        LLMConfig        `koanf:"llm"        validate:"required"`
	Knowledge  KnowledgeConfig  `koanf:"knowledge"  validate:"required"`
	Travel     TravelConfig     `koanf:"travel"     validate:"required"`
	Search     SearchConfig     `koanf:"search"`
	Server     ServerConfig     `koanf:"server"     validate:"required"`
	Checkpoint CheckpointConfig `koanf:"checkpoint"`
	Monitoring MonitoringConfig `koanf:"monitoring"`
}

// LLMConfig configures the text-completion gateway and the embedding backend.
type LLMConfig struct {
	Provider        string          `koanf:"provider"          env:"LLM_PROVIDER"          validate:"oneof=google openai anthropic ollama mock"`
	Model           string          `koanf:"model"             env:"LLM_MODEL"             validate:"required"`
	APIKey          SensitiveString `koanf:"api_key"           env:"GEMINI_API_KEY"        sensitive:"true"`
	BaseURL         string          `koanf:"base_url"          env:"LLM_BASE_URL"`
	EmbeddingModel  string          `koanf:"embedding_model"   env:"LLM_EMBEDDING_MODEL"   validate:"required"`
	Temperature     float64         `koanf:"temperature"       env:"LLM_TEMPERATURE"       validate:"min=0,max=2"`
	MaxTokens       int             `koanf:"max_tokens"        env:"LLM_MAX_TOKENS"        validate:"min=1"`
	RetryAttempts   int             `koanf:"retry_attempts"    env:"LLM_RETRY_ATTEMPTS"    validate:"min=0,max=10"`
	RetryBackoff    time.Duration   `koanf:"retry_backoff"     env:"LLM_RETRY_BACKOFF"`
	RetryMaxBackoff time.Duration   `koanf:"retry_max_backoff" env:"LLM_RETRY_MAX_BACKOFF"`
}

// KnowledgeConfig configures retrieval collections, chunking and ingestion.
type KnowledgeConfig struct {
	DataDir              string            `koanf:"data_dir"              env:"KNOWLEDGE_DATA_DIR"              validate:"required"`
	RawDir               string            `koanf:"raw_dir"               env:"KNOWLEDGE_RAW_DIR"`
	ProcessedDir         string            `koanf:"processed_dir"         env:"KNOWLEDGE_PROCESSED_DIR"`
	RegulatoryCollection string            `koanf:"regulatory_collection" env:"KNOWLEDGE_REGULATORY_COLLECTION" validate:"required"`
	TopK                 int               `koanf:"top_k"                 env:"KNOWLEDGE_TOP_K"                 validate:"min=1"`
	ScoreThreshold       float64           `koanf:"score_threshold"       env:"KNOWLEDGE_SCORE_THRESHOLD"       validate:"min=0,max=2"`
	ChunkSize            int               `koanf:"chunk_size"            env:"KNOWLEDGE_CHUNK_SIZE"            validate:"min=1"`
	ChunkOverlap         int               `koanf:"chunk_overlap"         env:"KNOWLEDGE_CHUNK_OVERLAP"         validate:"min=0,ltfield=ChunkSize"`
	DocumentChunkSize    int               `koanf:"document_chunk_size"   env:"KNOWLEDGE_DOCUMENT_CHUNK_SIZE"   validate:"min=1"`
	DocumentChunkOverlap int               `koanf:"document_chunk_overlap" env:"KNOWLEDGE_DOCUMENT_CHUNK_OVERLAP" validate:"min=0,ltfield=DocumentChunkSize"`
	DocumentTopK         int               `koanf:"document_top_k"        env:"KNOWLEDGE_DOCUMENT_TOP_K"        validate:"min=1"`
	BatchSize            int               `koanf:"batch_size"            env:"KNOWLEDGE_BATCH_SIZE"            validate:"min=1"`
	EmbeddingCacheSize   int               `koanf:"embedding_cache_size"  env:"KNOWLEDGE_EMBEDDING_CACHE_SIZE"  validate:"min=0"`
	Sources              map[string]string `koanf:"sources"`
}

// TravelConfig configures the travel planning workflow and its tools.
type TravelConfig struct {
	HomeBase             string          `koanf:"home_base"              env:"TRAVEL_HOME_BASE"              validate:"required"`
	HomeCurrency         string          `koanf:"home_currency"          env:"TRAVEL_HOME_CURRENCY"          validate:"len=3"`
	PlansDir             string          `koanf:"plans_dir"              env:"TRAVEL_PLANS_DIR"`
	ExportPDF            bool            `koanf:"export_pdf"             env:"TRAVEL_EXPORT_PDF"`
	FontDir              string          `koanf:"font_dir"               env:"TRAVEL_FONT_DIR"`
	AgentMaxIterations   int             `koanf:"agent_max_iterations"   env:"TRAVEL_AGENT_MAX_ITERATIONS"   validate:"min=1"`
	HTTPTimeout          time.Duration   `koanf:"http_timeout"           env:"TRAVEL_HTTP_TIMEOUT"`
	ExchangeRateAPIKey   SensitiveString `koanf:"exchange_rate_api_key"  env:"EXCHANGERATE_API_KEY"          sensitive:"true"`
	SerperAPIKey         SensitiveString `koanf:"serper_api_key"         env:"SERPER_API_KEY"                sensitive:"true"`
	OpenWeatherMapAPIKey SensitiveString `koanf:"openweathermap_api_key" env:"OPENWEATHERMAP_API_KEY"        sensitive:"true"`
	TomTomAPIKey         SensitiveString `koanf:"tomtom_api_key"         env:"TOMTOM_API_KEY"                sensitive:"true"`
}

// SearchConfig configures the news agent and its web tools.
type SearchConfig struct {
	TavilyAPIKey       SensitiveString `koanf:"tavily_api_key"      env:"TAVILY_API_KEY"             sensitive:"true"`
	WikipediaLang      string          `koanf:"wikipedia_lang"      env:"SEARCH_WIKIPEDIA_LANG"`
	WikipediaSentences int             `koanf:"wikipedia_sentences" env:"SEARCH_WIKIPEDIA_SENTENCES" validate:"min=1"`
	MaxResults         int             `koanf:"max_results"         env:"SEARCH_MAX_RESULTS"         validate:"min=1"`
	MaxIterations      int             `koanf:"max_iterations"      env:"SEARCH_MAX_ITERATIONS"      validate:"min=1"`
	Timeout            time.Duration   `koanf:"timeout"             env:"SEARCH_TIMEOUT"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host           string          `koanf:"host"             env:"SERVER_HOST"             validate:"required"`
	Port           int             `koanf:"port"             env:"SERVER_PORT"             validate:"min=1,max=65535"`
	Timeout        time.Duration   `koanf:"timeout"          env:"SERVER_TIMEOUT"`
	MaxUploadBytes int64           `koanf:"max_upload_bytes" env:"SERVER_MAX_UPLOAD_BYTES" validate:"min=1"`
	SessionTTL     time.Duration   `koanf:"session_ttl"      env:"SERVER_SESSION_TTL"`
	MaxSessions    int             `koanf:"max_sessions"     env:"SERVER_MAX_SESSIONS"     validate:"min=1"`
	RateLimit      RateLimitConfig `koanf:"rate_limit"`
}

// RateLimitConfig bounds requests per client IP. A zero limit disables it.
type RateLimitConfig struct {
	Limit  int64         `koanf:"limit"  env:"RATE_LIMIT_LIMIT"  validate:"min=0"`
	Period time.Duration `koanf:"period" env:"RATE_LIMIT_PERIOD"`
	Prefix string        `koanf:"prefix" env:"RATE_LIMIT_PREFIX"`
}

// CheckpointConfig selects where travel runs persist intermediate state.
type CheckpointConfig struct {
	Driver   string        `koanf:"driver"    env:"CHECKPOINT_DRIVER"    validate:"oneof=none memory redis"`
	RedisURL string        `koanf:"redis_url" env:"REDIS_URL"`
	Prefix   string        `koanf:"prefix"    env:"CHECKPOINT_PREFIX"`
	TTL      time.Duration `koanf:"ttl"       env:"CHECKPOINT_TTL"`
}

// MonitoringConfig toggles the Prometheus metrics endpoint.
type MonitoringConfig struct {
	Enabled bool   `koanf:"enabled" env:"MONITORING_ENABLED"`
	Path    string `koanf:"path"    env:"MONITORING_PATH"`
}

// Default returns the configuration used when no other source overrides a key.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:        "google",
			Model:           "gemini-1.5-flash-latest",
			EmbeddingModel:  "embedding-001",
			Temperature:     0.5,
			MaxTokens:       2048,
			RetryAttempts:   2,
			RetryBackoff:    500 * time.Millisecond,
			RetryMaxBackoff: 5 * time.Second,
		},
		Knowledge: KnowledgeConfig{
			DataDir:              "data/embeddings",
			RawDir:               "data/raw",
			ProcessedDir:         "data/processed",
			RegulatoryCollection: "resmi_gazete",
			TopK:                 5,
			ChunkSize:            1000,
			ChunkOverlap:         150,
			DocumentChunkSize:    1000,
			DocumentChunkOverlap: 200,
			DocumentTopK:         5,
			BatchSize:            128,
			EmbeddingCacheSize:   1024,
			Sources: map[string]string{
				"resmi_gazete": "aa_resmi_gazete_tum_haberler.json",
				"haberler":     "trt_haberler.json",
			},
		},
		Travel: TravelConfig{
			HomeBase:           "Ayrancılar, İzmir",
			HomeCurrency:       "TRY",
			PlansDir:           "plans",
			ExportPDF:          true,
			FontDir:            "assets/fonts",
			AgentMaxIterations: 8,
			HTTPTimeout:        15 * time.Second,
		},
		Search: SearchConfig{
			WikipediaLang:      "tr",
			WikipediaSentences: 5,
			MaxResults:         5,
			MaxIterations:      6,
			Timeout:            15 * time.Second,
		},
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			Timeout:        120 * time.Second,
			MaxUploadBytes: 20 << 20,
			SessionTTL:     2 * time.Hour,
			MaxSessions:    1024,
			RateLimit: RateLimitConfig{
				Limit:  60,
				Period: time.Minute,
				Prefix: "supervisor:ratelimit:",
			},
		},
		Checkpoint: CheckpointConfig{
			Driver: "memory",
			Prefix: "travel:run:",
			TTL:    24 * time.Hour,
		},
		Monitoring: MonitoringConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// SensitiveString hides its value when printed or marshaled.
type SensitiveString string

func (s SensitiveString) String() string {
	if s == "" {
		return ""
	}
	return redactedValue
}

// Value returns the raw secret.
func (s SensitiveString) Value() string {
	return string(s)
}

func (s SensitiveString) MarshalJSON() ([]byte, error) {
	if s == "" {
		return []byte(`""`), nil
	}
	return []byte(`"` + redactedValue + `"`), nil
}

// Service loads and validates configuration.
type Service interface {
	Load(ctx context.Context, sources ...Source) (*Config, error)
	Validate(config *Config) error
	GetSource(key string) SourceType
}

// Source defines the interface for configuration sources.
type Source interface {
	// Load reads configuration from the source.
	Load() (map[string]any, error)
	// Type returns the source type identifier.
	Type() SourceType
}

// SourceType identifies the type of configuration source.
type SourceType string

const (
	SourceCLI     SourceType = "cli"
	SourceYAML    SourceType = "yaml"
	SourceEnv     SourceType = "env"
	SourceDefault SourceType = "default"
)

// Metadata contains metadata about configuration sources.
type Metadata struct {
	Sources  map[string]SourceType `json:"sources"`
	LoadedAt time.Time             `json:"loaded_at"`
}
