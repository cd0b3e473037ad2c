package ai

import "context"

// Runtime is implemented by chat backends such as OpenRouter and a local Ollama.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// Provider identifiers accepted by the default_provider setting.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
)

// JSONObject is the response format that asks for a single JSON object.
var JSONObject = &ResponseFormat{Type: "json_object"}
