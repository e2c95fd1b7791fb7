package llm

import (
	"encoding/json"
	"log"
	"os"
)

// PriceEntry is USD per million tokens.
type PriceEntry struct {
	Provider string  `json:"provider"`
	Input    float64 `json:"input"`
	Output   float64 `json:"output"`
}

// Pricing has a built-in table for the models the service defaults to;
// PRICING_JSON_PATH overrides it wholesale for everything else.
var Pricing = map[string]PriceEntry{
	"gpt-4.1":                   {Provider: "openai", Input: 2.00, Output: 8.00},
	"gpt-4.1-mini":              {Provider: "openai", Input: 0.40, Output: 1.60},
	"claude-haiku-4-5-20251001": {Provider: "anthropic", Input: 1.00, Output: 5.00},
}

func init() {
	path := os.Getenv("PRICING_JSON_PATH")
	if path == "" {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("WARNING: cannot read %s, using built-in pricing: %v", path, err)
		return
	}
	var raw struct {
		Models map[string]PriceEntry `json:"models"`
	}
	if err := json.Unmarshal(data, &raw); err != nil || len(raw.Models) == 0 {
		log.Printf("WARNING: invalid pricing file %s, using built-in pricing", path)
		return
	}
	Pricing = raw.Models
}

func CalculateCost(model string, inputTokens, outputTokens int) float64 {
	entry, ok := Pricing[model]
	if !ok {
		return 0.0
	}
	return (float64(inputTokens) * entry.Input / 1_000_000) +
		(float64(outputTokens) * entry.Output / 1_000_000)
}

var ProviderServers = map[string]string{
	"openai":    "api.openai.com",
	"anthropic": "api.anthropic.com",
	"google":    "generativelanguage.googleapis.com",
	"ollama":    "localhost",
}

var ProviderPorts = map[string]int{
	"openai":    443,
	"anthropic": 443,
	"google":    443,
	"ollama":    11434,
}
