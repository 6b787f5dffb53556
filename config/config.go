package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the docchat service
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	LLM       ProviderConfig  `mapstructure:"llm"`
	Embedding ProviderConfig  `mapstructure:"embedding"`
	RAG       RAGConfig       `mapstructure:"rag"`
	Upload    UploadConfig    `mapstructure:"upload"`
	Session   SessionConfig   `mapstructure:"session"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address     string   `mapstructure:"address"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// ProviderConfig describes one OpenAI-compatible endpoint (chat or embeddings)
type ProviderConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// RAGConfig controls chunking and retrieval
type RAGConfig struct {
	ChunkSize       int `mapstructure:"chunk_size"`
	ChunkOverlap    int `mapstructure:"chunk_overlap"`
	TopK            int `mapstructure:"top_k"`
	MaxHistoryTurns int `mapstructure:"max_history_turns"`
}

// UploadConfig bounds incoming files
type UploadConfig struct {
	MaxFileSize int64 `mapstructure:"max_file_size"`
}

// SessionConfig governs session lifecycle. TTL of zero disables idle eviction.
type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// TelemetryConfig toggles the /metrics endpoint
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

func (r RAGConfig) Validate() error {
	if r.ChunkSize <= 0 {
		return fmt.Errorf("rag.chunk_size must be > 0")
	}
	if r.ChunkOverlap < 0 || r.ChunkOverlap >= r.ChunkSize {
		return fmt.Errorf("rag.chunk_overlap must be in [0, chunk_size)")
	}
	if r.TopK <= 0 {
		return fmt.Errorf("rag.top_k must be > 0")
	}
	if r.MaxHistoryTurns < 0 {
		return fmt.Errorf("rag.max_history_turns must be >= 0")
	}
	return nil
}

func (u UploadConfig) Validate() error {
	if u.MaxFileSize <= 0 {
		return fmt.Errorf("upload.max_file_size must be > 0")
	}
	return nil
}

func (p ProviderConfig) Validate(name string) error {
	if strings.TrimSpace(p.BaseURL) == "" {
		return fmt.Errorf("%s.base_url is required", name)
	}
	if strings.TrimSpace(p.Model) == "" {
		return fmt.Errorf("%s.model is required", name)
	}
	if p.Timeout <= 0 {
		return fmt.Errorf("%s.timeout must be > 0", name)
	}
	return nil
}

// LoadConfig reads configuration from file and environment.
// Env vars use the DOCCHAT_ prefix with dots replaced by underscores,
// e.g. DOCCHAT_LLM_API_KEY overrides llm.api_key.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetDefault("server.address", ":8050")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("llm.base_url", "https://api.groq.com/openai/v1")
	// api_key defaults make the keys visible to Unmarshal, so the
	// DOCCHAT_*_API_KEY env overrides apply even without a config file
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "llama-3.3-70b-versatile")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("embedding.base_url", "http://localhost:11434/v1")
	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.model", "nomic-embed-text")
	v.SetDefault("embedding.timeout", 30*time.Second)
	v.SetDefault("rag.chunk_size", 1000)
	v.SetDefault("rag.chunk_overlap", 200)
	v.SetDefault("rag.top_k", 4)
	v.SetDefault("rag.max_history_turns", 10)
	v.SetDefault("upload.max_file_size", 10*1024*1024)
	v.SetDefault("session.ttl", time.Duration(0))
	v.SetDefault("telemetry.enabled", true)

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		exe, _ := os.Executable()
		v.AddConfigPath(filepath.Dir(exe))
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("DOCCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// config file is optional; env and defaults suffice
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.RAG.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Upload.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.LLM.Validate("llm"); err != nil {
		return nil, err
	}
	if err := cfg.Embedding.Validate("embedding"); err != nil {
		return nil, err
	}
	return &cfg, nil
}
