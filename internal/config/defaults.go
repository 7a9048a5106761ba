package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Documents.Dir == "" {
		cfg.Documents.Dir = "./documents"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "./data/kotae.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "./data/keyword-index"
	}
	if cfg.Ingest.ChunkSize == 0 {
		cfg.Ingest.ChunkSize = 600
	}
	if cfg.Ingest.ChunkOverlap == 0 {
		cfg.Ingest.ChunkOverlap = 200
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Retrieval.Backend == "" {
		cfg.Retrieval.Backend = "vector"
	}
	if cfg.Retrieval.Store == "" {
		cfg.Retrieval.Store = "memory"
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 4
	}
	if cfg.Retrieval.FetchK == 0 {
		cfg.Retrieval.FetchK = 12
	}
	if cfg.Retrieval.MMRLambda == 0 {
		cfg.Retrieval.MMRLambda = 0.5
	}
	if cfg.Retrieval.QdrantURL == "" {
		cfg.Retrieval.QdrantURL = "http://localhost:6333"
	}
	if cfg.Retrieval.Collection == "" {
		cfg.Retrieval.Collection = "kotae"
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.7
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 300
	}
}
