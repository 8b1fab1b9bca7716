package rag

import (
	"sort"
	"strings"
)

// DefaultContextLimit is used for models missing from the table.
const DefaultContextLimit = 8192

// modelContextLimits maps a model-name fragment to its maximum context size.
// Lookup is by substring match against the lower-cased model name.
var modelContextLimits = map[string]int{
	// OpenAI
	"gpt-4-turbo":   128000,
	"gpt-4":         8192,
	"gpt-3.5-turbo": 16385,

	// Claude
	"claude-3-5-sonnet": 200000,
	"claude-3-opus":     200000,
	"claude-3-haiku":    200000,

	// Google
	"gemini-1.5-pro":   2000000,
	"gemini-1.5-flash": 1000000,

	// Ollama - Llama 3.1 / 3.2
	"llama3.1:8b":   128000,
	"llama3.1:70b":  128000,
	"llama3.1:405b": 128000,
	"llama3.1":      128000,
	"llama3.2:1b":   131072,
	"llama3.2:3b":   131072,
	"llama3.2:90b":  131072,

	// Ollama - Mistral
	"mistral:7b":         32768,
	"mistral:latest":     32768,
	"mistral-small":      32768,
	"mistral-large":      128000,
	"codestral:22b":      32000,
	"mixtral:latest":     32000,
	"mixtral:8x7b":       32000,
	"mistrallite:latest": 32000,

	// Ollama - Qwen
	"qwen2.5:7b":     32768,
	"qwen2.5:14b":    32768,
	"qwen2.5:32b":    32768,
	"qwen2.5:72b":    131072,
	"qwen3-coder:30b": 256000,

	// Ollama - Gemma 2
	"gemma2:2b":  8192,
	"gemma2:9b":  8192,
	"gemma2:27b": 8192,

	// Ollama - Phi
	"phi3:14b":    128000,
	"phi3:latest": 128000,
	"phi4:14b":    16000,
	"phi4:latest": 16000,

	// Ollama - DeepSeek
	"deepseek-coder:6.7b": 16384,
	"deepseek-coder:33b":  16384,
	"deepseek-r1:32b":     128000,

	// Ollama - Code Llama
	"codellama:7b":  16384,
	"codellama:13b": 16384,
	"codellama:34b": 128000,

	"gpt-oss:20b": 128000,
}

// limitKeys holds the table keys sorted longest-first (then lexicographically)
// so that lookup is deterministic and the most specific fragment wins,
// e.g. "gpt-4-turbo" matches before "gpt-4".
var limitKeys = func() []string {
	keys := make([]string, 0, len(modelContextLimits))
	for k := range modelContextLimits {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

// ModelContextLimit returns the maximum context size for a model name.
// Unknown models get DefaultContextLimit.
func ModelContextLimit(model string) int {
	name := strings.ToLower(model)
	for _, key := range limitKeys {
		if strings.Contains(name, key) {
			return modelContextLimits[key]
		}
	}
	return DefaultContextLimit
}
