package factory

import (
	"fmt"

	"screening-onboarding-be/pkg/llm"
	"screening-onboarding-be/pkg/llm/ollama"
	"screening-onboarding-be/pkg/llm/openai"
)

func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "openai":
		if modelName == "" {
			return nil, fmt.Errorf("openai provider needs a model name")
		}
		return openai.NewProvider(apiKey, baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
