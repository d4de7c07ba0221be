package factory

import (
	"fmt"

	"policylens-be/pkg/llm"
	"policylens-be/pkg/llm/huggingface"
	"policylens-be/pkg/llm/ollama"
)

func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama", "":
		return ollama.NewOllamaProvider(baseURL, modelName)
	case "huggingface", "openai":
		return huggingface.NewHuggingFaceProvider(apiKey, baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
