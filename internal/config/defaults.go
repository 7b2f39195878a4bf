package config

import "time"

// DefaultQueryInstruction is the BGE Chinese retrieval instruction for queries.
const DefaultQueryInstruction = "为这个句子生成表示以用于检索相关文章："

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5001
	}
	if cfg.Server.CORSOrigins == nil {
		cfg.Server.CORSOrigins = []string{"*"}
	}
	if cfg.Server.RateLimit > 0 && cfg.Server.RateBurst == 0 {
		cfg.Server.RateBurst = 20
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 30 * time.Second
	}
	if cfg.Storage.VectorStore == "" {
		cfg.Storage.VectorStore = "./data/vector_store.bin"
	}
	if cfg.Storage.Compression == "" {
		cfg.Storage.Compression = "zstd"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "onnx"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "bge-large-zh-v1.5"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "./models/bge-large-zh-v1.5.onnx"
	}
	if cfg.Embedding.VocabPath == "" {
		cfg.Embedding.VocabPath = "./models/vocab.txt"
	}
	if cfg.Embedding.OutputName == "" {
		cfg.Embedding.OutputName = "last_hidden_state"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 1024
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 512
	}
	if cfg.Embedding.OllamaURL == "" {
		cfg.Embedding.OllamaURL = "http://localhost:11434"
	}
	if cfg.Embedding.QueryInstruction == "" {
		cfg.Embedding.QueryInstruction = DefaultQueryInstruction
	}
	if cfg.Retrieval.DefaultTopK == 0 {
		cfg.Retrieval.DefaultTopK = 5
	}
	if cfg.Retrieval.MaxTopK == 0 {
		cfg.Retrieval.MaxTopK = 100
	}
	if cfg.KnowledgeBase.Path == "" {
		cfg.KnowledgeBase.Path = "./data/knowledge_base.json"
	}
	if cfg.KnowledgeBase.ChunkSize == 0 {
		cfg.KnowledgeBase.ChunkSize = 500
	}
	if cfg.KnowledgeBase.ChunkOverlap == 0 {
		cfg.KnowledgeBase.ChunkOverlap = 100
	}
	if cfg.Eval.TopK == 0 {
		cfg.Eval.TopK = 5
	}
	if cfg.Eval.Concurrency == 0 {
		cfg.Eval.Concurrency = 4
	}
}
