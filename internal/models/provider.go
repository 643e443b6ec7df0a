package models

import "time"

// Provider is an OpenAI-compatible LLM endpoint. The roster lives in the
// llm_providers table with a JSON file fallback watched for hot reload.
type Provider struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	BaseURL      string    `json:"base_url"`
	APIKey       string    `json:"api_key,omitempty"`
	DefaultModel string    `json:"default_model"`
	Enabled      bool      `json:"enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProvidersConfig mirrors the providers JSON file shape
type ProvidersConfig struct {
	Providers []Provider `json:"providers"`
}

// LLMMessage is one turn sent to the model provider
type LLMMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LLMCallOptions are per-call overrides for the gateway
type LLMCallOptions struct {
	Model       string                 `json:"model,omitempty"`
	Temperature *float64               `json:"temperature,omitempty"`
	MaxTokens   int                    `json:"max_tokens,omitempty"`
	JSONSchema  map[string]interface{} `json:"json_schema,omitempty"`
	SchemaName  string                 `json:"schema_name,omitempty"`
}

// LLMResult is the gateway's response
type LLMResult struct {
	Content    string `json:"content"`
	TokensUsed int    `json:"tokens_used,omitempty"`
}
