package config

// NewDefaultConfig returns a fully-populated Config with workable local
// defaults: local Ollama embeddings, an in-process sqlite index and no
// event broker.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:                   ":8000",
			FirstEventTimeoutSeconds: 30,
		},
		Backend: BackendConfig{
			Upstream:  "https://api.openai.com/v1",
			Model:     "gpt-4o-mini",
			APIKeyEnv: "OPENAI_API_KEY",
		},
		RAG: RAGConfig{
			TopK: 3,
		},
		Knowledge: KnowledgeConfig{
			ChunkSize:    800,
			ChunkOverlap: 100,
		},
		VectorStore: VectorStoreConfig{
			Provider:   "sqlite",
			Path:       "interviewd.db",
			Collection: "knowledge",
			Port:       6334,
		},
		Embedding: EmbeddingConfig{
			Provider:   "ollama",
			Target:     "http://localhost:11434",
			Model:      "nomic-embed-text",
			Dimensions: 768,
		},
		Events: EventsConfig{
			Provider: "nop",
			Topic:    "interview.turns",
		},
	}
}
