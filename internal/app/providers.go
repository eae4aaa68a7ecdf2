package app

import (
	"fmt"

	"projecttutor/backend/internal/adapter/gemini"
	"projecttutor/backend/internal/adapter/ollama"
	"projecttutor/backend/internal/adapter/openai"
	"projecttutor/backend/internal/config"
	"projecttutor/backend/internal/embedding"
	"projecttutor/backend/internal/generation"
	"projecttutor/backend/internal/settings"
)

func newEmbedProvider(cfg *config.Config, settingsSvc *settings.Service) (embedding.Provider, error) {
	switch cfg.EmbedProvider {
	case config.ProviderOpenAI:
		return openai.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIEmbedModel), nil
	case config.ProviderOllama:
		c, err := ollama.NewClient(cfg.OllamaHost, cfg.OllamaModel, cfg.OllamaEmbedModel, nil)
		if err != nil {
			return nil, fmt.Errorf("ollama embed provider: %w", err)
		}
		return c, nil
	case "", config.ProviderGemini:
		return gemini.NewEmbedder(settingsSvc), nil
	}
	return nil, fmt.Errorf("%w: EMBED_PROVIDER=%q", config.ErrInvalidValue, cfg.EmbedProvider)
}

func newGenerator(cfg *config.Config, settingsSvc *settings.Service) (generation.Generator, error) {
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		return openai.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIEmbedModel), nil
	case config.ProviderOllama:
		c, err := ollama.NewClient(cfg.OllamaHost, cfg.OllamaModel, cfg.OllamaEmbedModel, nil)
		if err != nil {
			return nil, fmt.Errorf("ollama llm provider: %w", err)
		}
		return c, nil
	case "", config.ProviderGemini:
		return gemini.NewGenerator(settingsSvc), nil
	}
	return nil, fmt.Errorf("%w: LLM_PROVIDER=%q", config.ErrInvalidValue, cfg.LLMProvider)
}
