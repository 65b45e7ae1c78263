// Package config holds the interviewd configuration surface: defaults,
// config file parsing and environment binding.
package config

// Config is the full interviewd configuration. Sections group related
// settings; the file layout mirrors the struct.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Backend     BackendConfig     `mapstructure:"backend"`
	RAG         RAGConfig         `mapstructure:"rag"`
	Knowledge   KnowledgeConfig   `mapstructure:"knowledge"`
	VectorStore VectorStoreConfig `mapstructure:"vector_store"`
	Embedding   EmbeddingConfig   `mapstructure:"embedding"`
	Events      EventsConfig      `mapstructure:"events"`
	Debug       bool              `mapstructure:"debug"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Listen string `mapstructure:"listen"`

	// FirstEventTimeoutSeconds bounds the wait for the first backend
	// event of a stream.
	FirstEventTimeoutSeconds int `mapstructure:"first_event_timeout_seconds"`
}

// BackendConfig holds generation backend settings.
type BackendConfig struct {
	// Upstream is the OpenAI-compatible API root.
	Upstream string `mapstructure:"upstream"`

	// Model is the default generation model.
	Model string `mapstructure:"model"`

	// APIKeyEnv names the environment variable carrying the upstream API
	// key. The key itself never lives in the config file.
	APIKeyEnv string `mapstructure:"api_key_env"`
}

// RAGConfig holds retrieval settings.
type RAGConfig struct {
	TopK int `mapstructure:"top_k"`
}

// KnowledgeConfig holds knowledge base ingestion settings.
type KnowledgeConfig struct {
	// Dir is the directory of knowledge files indexed at startup. Empty
	// disables startup ingestion.
	Dir string `mapstructure:"dir"`

	ChunkSize    int `mapstructure:"chunk_size"`
	ChunkOverlap int `mapstructure:"chunk_overlap"`
}

// VectorStoreConfig holds vector store settings.
type VectorStoreConfig struct {
	// Provider selects the driver: "sqlite" or "qdrant".
	Provider string `mapstructure:"provider"`

	// Host and Port locate a qdrant provider.
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	// Path locates the sqlite provider's database file.
	Path string `mapstructure:"path"`

	Collection string `mapstructure:"collection"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	// Provider selects the embedder: "ollama" or "openai".
	Provider string `mapstructure:"provider"`

	Target     string `mapstructure:"target"`
	Model      string `mapstructure:"model"`
	APIKeyEnv  string `mapstructure:"api_key_env"`
	Dimensions uint   `mapstructure:"dimensions"`
}

// EventsConfig holds event stream settings.
type EventsConfig struct {
	// Provider selects the publisher: "kafka" or "nop".
	Provider string   `mapstructure:"provider"`
	Brokers  []string `mapstructure:"brokers"`
	Topic    string   `mapstructure:"topic"`
}
