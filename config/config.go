package config

import (
	"os"
	"strconv"
)

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

type LLMConfig struct {
	Provider    string
	Model       string
	Temperature float32
}

type Config struct {
	PostgresDSN string

	LLM LLMConfig

	// OpenAI-compatible endpoint. The defaults target DashScope's
	// compatible mode so qwen-max works out of the box.
	OpenAIAPIKey  string
	OpenAIBaseURL string

	OllamaHost string

	// Directory for transient knowledge-file downloads. Shared across
	// concurrent requests; file names carry the document id plus a
	// timestamp to stay collision-free.
	TempDir string

	ListenAddr string
}

func Load() Config {
	return Config{
		PostgresDSN: getEnv("POSTGRES_DSN", "postgres://localhost:5432/smartqa?sslmode=disable"),
		LLM: LLMConfig{
			Provider:    getEnv("LLM_PROVIDER", ProviderOpenAI),
			Model:       getEnv("LLM_MODEL", "qwen-max"),
			Temperature: getEnvFloat("LLM_TEMPERATURE", 0.7),
		},
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://dashscope.aliyuncs.com/compatible-mode/v1"),
		OllamaHost:    getEnv("OLLAMA_HOST", "http://localhost:11434"),
		TempDir:       getEnv("SMARTQA_TEMP_DIR", "./temp/knowledge"),
		ListenAddr:    getEnv("SMARTQA_LISTEN_ADDR", ":8080"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvFloat(key string, fallback float32) float32 {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(parsed)
		}
	}
	return fallback
}
