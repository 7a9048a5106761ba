// Package config provides configuration loading and structs for the Kotae server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Documents DocumentsConfig `yaml:"documents"`
	Storage   StorageConfig   `yaml:"storage"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	LLM       LLMConfig       `yaml:"llm"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DocumentsConfig holds the uploaded documents directory and watch settings.
type DocumentsConfig struct {
	Dir   string `yaml:"dir"`
	Watch bool   `yaml:"watch"`
}

// StorageConfig holds paths for the registry database and indices.
type StorageConfig struct {
	DatabasePath   string `yaml:"database_path"`
	BleveIndexPath string `yaml:"bleve_index_path"`
}

// IngestConfig holds text cleaning and chunking settings.
type IngestConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	Workers      int `yaml:"workers"`
}

// EmbeddingConfig holds embedding provider settings. The API key is read from
// the environment, never from the file.
type EmbeddingConfig struct {
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	CacheSize int    `yaml:"cache_size"`
}

// RetrievalConfig holds retrieval settings. Backend is "vector" or "keyword";
// store is "memory" or "qdrant".
type RetrievalConfig struct {
	Backend    string  `yaml:"backend"`
	Store      string  `yaml:"store"`
	TopK       int     `yaml:"top_k"`
	FetchK     int     `yaml:"fetch_k"`
	MMR        bool    `yaml:"mmr"`
	MMRLambda  float64 `yaml:"mmr_lambda"`
	QdrantURL  string  `yaml:"qdrant_url"`
	Collection string  `yaml:"collection"`
}

// LLMConfig holds generation settings. Provider is "openai" or "gemini".
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Documents.Dir = expandPath(cfg.Documents.Dir, configDir)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
