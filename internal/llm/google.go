package llm

import (
	openai "github.com/sashabaranov/go-openai"
)

const googleBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

// Google is reached through its OpenAI-compatible surface.
func NewGoogleProvider(apiKey string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = googleBaseURL
	return &OpenAIProvider{client: openai.NewClientWithConfig(cfg), name: "google"}
}
