package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
  request_timeout: 5s
embedding:
  provider: mock
  dimensions: 256
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Server.RequestTimeout != 5*time.Second {
		t.Errorf("request_timeout = %v, want 5s", cfg.Server.RequestTimeout)
	}
	if cfg.Embedding.Provider != "mock" || cfg.Embedding.Dimensions != 256 {
		t.Errorf("unexpected embedding config: %+v", cfg.Embedding)
	}
	if cfg.Storage.VectorStore == "" {
		t.Error("vector_store should be set")
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_debugTrue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("debug: true\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  vector_store: "sqlite://./data/store.db"
knowledge_base:
  path: "./kb/knowledge_base.json"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantStore := "sqlite://" + filepath.Join(dir, "data", "store.db")
	if cfg.Storage.VectorStore != wantStore {
		t.Errorf("vector_store = %s, want %s", cfg.Storage.VectorStore, wantStore)
	}
	wantKB := filepath.Join(dir, "kb", "knowledge_base.json")
	if cfg.KnowledgeBase.Path != wantKB {
		t.Errorf("knowledge_base.path = %s, want %s", cfg.KnowledgeBase.Path, wantKB)
	}
	wantModel := filepath.Join(dir, "models", "bge-large-zh-v1.5.onnx")
	if cfg.Embedding.ModelPath != wantModel {
		t.Errorf("model_path = %s, want %s", cfg.Embedding.ModelPath, wantModel)
	}
	wantVocab := filepath.Join(dir, "models", "vocab.txt")
	if cfg.Embedding.VocabPath != wantVocab {
		t.Errorf("vocab_path = %s, want %s", cfg.Embedding.VocabPath, wantVocab)
	}
	if cfg.Embedding.OutputName != "last_hidden_state" {
		t.Errorf("output_name = %s, want last_hidden_state", cfg.Embedding.OutputName)
	}
}

func TestLoad_remoteHandleUnchanged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  vector_store: "s3://kb/store.bin"
  s3:
    endpoint: "minio:9000"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.VectorStore != "s3://kb/store.bin" {
		t.Errorf("vector_store = %s", cfg.Storage.VectorStore)
	}
}

func TestLoad_invalid(t *testing.T) {
	tests := map[string]string{
		"provider":    "embedding:\n  provider: word2vec\n",
		"top_k":       "retrieval:\n  default_top_k: 50\n  max_top_k: 10\n",
		"overlap":     "knowledge_base:\n  chunk_size: 100\n  chunk_overlap: 100\n",
		"compression": "storage:\n  compression: lz4\n",
		"yaml":        "server: [",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Port != 5001 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Retrieval.DefaultTopK != 5 || cfg.Retrieval.MaxTopK != 100 {
		t.Errorf("default top_k: got %+v", cfg.Retrieval)
	}
	if cfg.Embedding.Dimensions != 1024 || cfg.Embedding.MaxTokens != 512 {
		t.Errorf("embedding defaults: got %+v", cfg.Embedding)
	}
	if cfg.Embedding.QueryInstruction != DefaultQueryInstruction {
		t.Errorf("query_instruction: got %q", cfg.Embedding.QueryInstruction)
	}
	if cfg.KnowledgeBase.ChunkSize != 500 || cfg.KnowledgeBase.ChunkOverlap != 100 {
		t.Errorf("chunking defaults: got %+v", cfg.KnowledgeBase)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "*" {
		t.Errorf("cors origins: got %v", cfg.Server.CORSOrigins)
	}
	if cfg.Server.RateBurst != 0 {
		t.Errorf("burst should stay unset while rate limiting is off, got %d", cfg.Server.RateBurst)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if !filepath.IsAbs(cfg.Storage.VectorStore) {
		t.Errorf("vector_store should be absolute, got %s", cfg.Storage.VectorStore)
	}
	if !strings.HasSuffix(cfg.KnowledgeBase.Path, "knowledge_base.json") {
		t.Errorf("knowledge_base.path = %s", cfg.KnowledgeBase.Path)
	}
	if cfg.Server.Address() != "0.0.0.0:5001" {
		t.Errorf("address = %s", cfg.Server.Address())
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{Server: ServerConfig{Host: "localhost", Port: 9090, RequestTimeout: 10 * time.Second}}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
	if loaded.Server.RequestTimeout != 10*time.Second {
		t.Errorf("loaded request_timeout: got %v", loaded.Server.RequestTimeout)
	}
}
