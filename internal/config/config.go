package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var (
	ErrMissingRequired = errors.New("missing required configuration")
	ErrInvalidValue    = errors.New("invalid configuration value")
)

const (
	StoreWeaviate = "weaviate"
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"

	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

type Config struct {
	DBHost string `envconfig:"DB_HOST" default:"postgres"`
	DBPort int    `envconfig:"DB_PORT" default:"5432"`
	DBUser string `envconfig:"DB_USER" default:"tutor"`
	DBPass string `envconfig:"DB_PASS" default:"password"`
	DBName string `envconfig:"DB_NAME" default:"tutor"`

	// Document store: "postgres" or "mongo"
	DocumentStore string `envconfig:"DOCUMENT_STORE" default:"postgres"`
	MongoURI      string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDBName   string `envconfig:"MONGO_DB_NAME" default:"project_tutor"`

	// Vector index: "weaviate" or "memory"
	VectorStore     string `envconfig:"VECTOR_STORE" default:"weaviate"`
	WeaviateHost    string `envconfig:"WEAVIATE_HOST" default:"localhost:8080"`
	WeaviateScheme  string `envconfig:"WEAVIATE_SCHEME" default:"http"`
	VectorClassName string `envconfig:"VECTOR_CLASS_NAME" default:"StudyChunk"`

	NSQLookupd string `envconfig:"NSQ_LOOKUPD" default:"nsqlookupd:4161"`
	NSQDHost   string `envconfig:"NSQD_HOST" default:"nsqd:4150"`
	NSQDHTTP   string `envconfig:"NSQD_HTTP" default:"nsqd:4151"`

	EnableAPI         bool   `envconfig:"ENABLE_API" default:"true"`
	EnableIndexWorker bool   `envconfig:"ENABLE_INDEX_WORKER" default:"true"`
	MigrationPath     string `envconfig:"MIGRATION_PATH" default:"file://migrations"`

	// Providers
	LLMProvider   string `envconfig:"LLM_PROVIDER" default:"gemini"`
	EmbedProvider string `envconfig:"EMBED_PROVIDER" default:"gemini"`

	// Gemini values seed the settings row; the UI can change them later.
	GeminiAPIKey string `envconfig:"GEMINI_API_KEY"`
	LLMModel     string `envconfig:"LLM_MODEL" default:"gemini-2.5-flash"`
	EmbedModel   string `envconfig:"EMBED_MODEL" default:"text-embedding-004"`

	OpenAIAPIKey     string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL    string `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	OpenAIModel      string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	OpenAIEmbedModel string `envconfig:"OPENAI_EMBED_MODEL" default:"text-embedding-3-small"`

	OllamaHost       string `envconfig:"OLLAMA_HOST" default:"http://localhost:11434"`
	OllamaModel      string `envconfig:"OLLAMA_MODEL" default:"llama3.1"`
	OllamaEmbedModel string `envconfig:"OLLAMA_EMBED_MODEL" default:"nomic-embed-text"`

	// Pipeline
	ChunkSize          int     `envconfig:"CHUNK_SIZE" default:"1000"`
	ChunkOverlap       int     `envconfig:"CHUNK_OVERLAP" default:"200"`
	EmbedMaxRetries    int     `envconfig:"EMBED_MAX_RETRIES" default:"2"`
	GenerateMaxRetries int     `envconfig:"GENERATE_MAX_RETRIES" default:"2"`
	EmbedRateLimit     float64 `envconfig:"EMBED_RATE_LIMIT" default:"0"` // requests per second, 0 = unlimited

	// Server
	LogLevel        string `envconfig:"LOG_LEVEL" default:"info"`
	ServerPort      int    `envconfig:"SERVER_PORT" default:"8081"`
	QueryLogPath    string `envconfig:"QUERY_LOG_PATH" default:"data/logs/query.log"`
	MaxUploadSizeMB int64  `envconfig:"MAX_UPLOAD_SIZE_MB" default:"50"`
	UploadDir       string `envconfig:"TUTOR_UPLOAD_DIR" default:"./uploads"`

	// Resilience
	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
}

func Load() (*Config, error) {
	// Env vars set in the shell win; .env files only fill the gaps.
	_ = godotenv.Load(".env")

	cwd, _ := os.Getwd()
	rootEnv := filepath.Join(cwd, "../.env")
	_ = godotenv.Load(rootEnv)

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DBHost == "" {
		return fmt.Errorf("%w: DB_HOST", ErrMissingRequired)
	}
	if c.DBUser == "" {
		return fmt.Errorf("%w: DB_USER", ErrMissingRequired)
	}
	if c.DBName == "" {
		return fmt.Errorf("%w: DB_NAME", ErrMissingRequired)
	}
	if c.DocumentStore == StoreMongo && c.MongoURI == "" {
		return fmt.Errorf("%w: MONGO_URI", ErrMissingRequired)
	}
	switch c.DocumentStore {
	case "", StorePostgres, StoreMongo:
	default:
		return fmt.Errorf("%w: DOCUMENT_STORE=%q", ErrInvalidValue, c.DocumentStore)
	}
	switch c.VectorStore {
	case "", StoreWeaviate, StoreMemory:
	default:
		return fmt.Errorf("%w: VECTOR_STORE=%q", ErrInvalidValue, c.VectorStore)
	}
	for _, p := range []struct{ name, value string }{{"LLM_PROVIDER", c.LLMProvider}, {"EMBED_PROVIDER", c.EmbedProvider}} {
		switch p.value {
		case "", ProviderGemini, ProviderOpenAI, ProviderOllama:
		default:
			return fmt.Errorf("%w: %s=%q", ErrInvalidValue, p.name, p.value)
		}
	}
	if (c.LLMProvider == ProviderOpenAI || c.EmbedProvider == ProviderOpenAI) && c.OpenAIAPIKey == "" {
		return fmt.Errorf("%w: OPENAI_API_KEY", ErrMissingRequired)
	}
	if c.ChunkSize < 0 || c.ChunkOverlap < 0 {
		return fmt.Errorf("%w: CHUNK_SIZE and CHUNK_OVERLAP must be non-negative", ErrInvalidValue)
	}
	return nil
}
