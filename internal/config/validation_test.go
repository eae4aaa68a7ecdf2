package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"projecttutor/backend/internal/config"
)

func TestConfig_Validate(t *testing.T) {
	base := func() config.Config {
		return config.Config{DBHost: "localhost", DBUser: "user", DBName: "db"}
	}

	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		errIs   error
		mention string
	}{
		{"Minimal", func(c *config.Config) {}, nil, ""},
		{"Mongo With URI", func(c *config.Config) {
			c.DocumentStore = config.StoreMongo
			c.MongoURI = "mongodb://localhost:27017"
		}, nil, ""},
		{"Memory Index With Ollama", func(c *config.Config) {
			c.VectorStore = config.StoreMemory
			c.LLMProvider = config.ProviderOllama
			c.EmbedProvider = config.ProviderOllama
		}, nil, ""},
		{"Missing DBHost", func(c *config.Config) { c.DBHost = "" }, config.ErrMissingRequired, "DB_HOST"},
		{"Missing DBUser", func(c *config.Config) { c.DBUser = "" }, config.ErrMissingRequired, "DB_USER"},
		{"Missing DBName", func(c *config.Config) { c.DBName = "" }, config.ErrMissingRequired, "DB_NAME"},
		{"Mongo Without URI", func(c *config.Config) { c.DocumentStore = config.StoreMongo }, config.ErrMissingRequired, "MONGO_URI"},
		{"Unknown Document Store", func(c *config.Config) { c.DocumentStore = "sqlite" }, config.ErrInvalidValue, "DOCUMENT_STORE"},
		{"Unknown Vector Store", func(c *config.Config) { c.VectorStore = "chroma" }, config.ErrInvalidValue, "VECTOR_STORE"},
		{"Unknown LLM Provider", func(c *config.Config) { c.LLMProvider = "claude" }, config.ErrInvalidValue, "LLM_PROVIDER"},
		{"OpenAI Without Key", func(c *config.Config) { c.EmbedProvider = config.ProviderOpenAI }, config.ErrMissingRequired, "OPENAI_API_KEY"},
		{"Negative Overlap", func(c *config.Config) { c.ChunkOverlap = -1 }, config.ErrInvalidValue, "CHUNK_OVERLAP"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)

			err := c.Validate()
			if tt.errIs == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.errIs)
			assert.Contains(t, err.Error(), tt.mention)
		})
	}
}
