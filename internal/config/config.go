// Package config provides configuration loading and structs for the retrieval service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug         bool                `yaml:"debug"`
	Server        ServerConfig        `yaml:"server"`
	Storage       StorageConfig       `yaml:"storage"`
	Embedding     EmbeddingConfig     `yaml:"embedding"`
	Retrieval     RetrievalConfig     `yaml:"retrieval"`
	KnowledgeBase KnowledgeBaseConfig `yaml:"knowledge_base"`
	Eval          EvalConfig          `yaml:"eval"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	CORSOrigins    []string      `yaml:"cors_origins"`
	RateLimit      float64       `yaml:"rate_limit"` // requests per second on /retrieve; 0 disables
	RateBurst      int           `yaml:"rate_burst"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// StorageConfig locates the persisted vector store.
type StorageConfig struct {
	// VectorStore is a file path, file://, sqlite:// or s3://bucket/key handle.
	VectorStore string   `yaml:"vector_store"`
	Compression string   `yaml:"compression"`
	S3          S3Config `yaml:"s3"`
}

// S3Config holds credentials for s3:// vector store handles.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	Region    string `yaml:"region"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"` // onnx, ollama or mock
	Model      string `yaml:"model"`
	ModelPath  string `yaml:"model_path"`
	VocabPath  string `yaml:"vocab_path"`  // WordPiece vocab.txt for the onnx provider
	OutputName string `yaml:"output_name"` // onnx output holding [1, seq, d] hidden states
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	OllamaURL  string `yaml:"ollama_url"`
	// QueryInstruction is prepended to queries, never to passages.
	QueryInstruction string `yaml:"query_instruction"`
}

// RetrievalConfig bounds top_k on the HTTP surface.
type RetrievalConfig struct {
	DefaultTopK int `yaml:"default_top_k"`
	MaxTopK     int `yaml:"max_top_k"`
}

// KnowledgeBaseConfig locates the chunked knowledge base and how documents are chunked.
type KnowledgeBaseConfig struct {
	Path         string `yaml:"path"`
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
}

// EvalConfig holds evaluation harness settings.
type EvalConfig struct {
	TopK        int `yaml:"top_k"`
	Concurrency int `yaml:"concurrency"`
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
	cfg.expandPaths(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Default returns the built-in configuration with "./" paths resolved against the
// working directory. Used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	dir, err := os.Getwd()
	if err != nil {
		dir = "."
	}
	cfg.expandPaths(dir)
	return cfg
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	switch c.Embedding.Provider {
	case "onnx", "ollama", "mock":
	default:
		return fmt.Errorf("embedding.provider %q (supported: onnx, ollama, mock)", c.Embedding.Provider)
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be positive")
	}
	if c.Retrieval.DefaultTopK > c.Retrieval.MaxTopK {
		return fmt.Errorf("retrieval.default_top_k %d exceeds max_top_k %d", c.Retrieval.DefaultTopK, c.Retrieval.MaxTopK)
	}
	if c.KnowledgeBase.ChunkOverlap >= c.KnowledgeBase.ChunkSize {
		return fmt.Errorf("knowledge_base.chunk_overlap %d must be smaller than chunk_size %d",
			c.KnowledgeBase.ChunkOverlap, c.KnowledgeBase.ChunkSize)
	}
	switch c.Storage.Compression {
	case "zstd", "none":
	default:
		return fmt.Errorf("storage.compression %q (supported: zstd, none)", c.Storage.Compression)
	}
	return nil
}

// Address returns host:port for the HTTP server.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (c *Config) expandPaths(configDir string) {
	c.Storage.VectorStore = expandHandle(c.Storage.VectorStore, configDir)
	c.Embedding.ModelPath = expandPath(c.Embedding.ModelPath, configDir)
	c.Embedding.VocabPath = expandPath(c.Embedding.VocabPath, configDir)
	c.KnowledgeBase.Path = expandPath(c.KnowledgeBase.Path, configDir)
}

// expandHandle expands the path part of file:// and sqlite:// handles and of plain paths.
// Remote handles are returned unchanged.
func expandHandle(handle, configDir string) string {
	for _, scheme := range []string{"file://", "sqlite://"} {
		if strings.HasPrefix(handle, scheme) {
			return scheme + expandPath(strings.TrimPrefix(handle, scheme), configDir)
		}
	}
	if strings.Contains(handle, "://") {
		return handle
	}
	return expandPath(handle, configDir)
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
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
