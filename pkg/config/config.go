package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	SQLite    SQLiteConfig
	Vector    VectorConfig
	Milvus    MilvusConfig
	Redis     RedisConfig
	Gemini    GeminiConfig
	Retrieval RetrievalConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type StorageConfig struct {
	// Driver selects the persistence backend: "sqlite" or "memory".
	Driver    string
	UploadDir string
}

type SQLiteConfig struct {
	Path string
}

type VectorConfig struct {
	// Backend selects the vector index: "milvus" or "memory".
	Backend string
}

type MilvusConfig struct {
	Endpoint       string
	CollectionName string
	VectorDim      int
}

type RedisConfig struct {
	Enabled    bool
	Addr       string
	Password   string
	DB         int
	TTLSeconds int
}

type GeminiConfig struct {
	APIKey          string
	Model           string
	EmbeddingModel  string
	Temperature     float32
	TopP            float32
	TopK            int32
	MaxOutputTokens int32
}

type RetrievalConfig struct {
	TopK         int
	ChunkSize    int
	ChunkOverlap int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/docchat")

	viper.SetEnvPrefix("DOCCHAT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 5000)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 120)
	viper.SetDefault("server.bodyLimit", 10*1024*1024)

	viper.SetDefault("storage.driver", "sqlite")
	viper.SetDefault("storage.uploadDir", "./uploads")

	viper.SetDefault("sqlite.path", "./data/docchat.db")

	viper.SetDefault("vector.backend", "memory")

	viper.SetDefault("milvus.endpoint", "localhost:19530")
	viper.SetDefault("milvus.collectionName", "docchat_chunks")
	viper.SetDefault("milvus.vectorDim", 768)

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.ttlSeconds", 86400)

	viper.SetDefault("gemini.model", "gemini-2.0-flash")
	viper.SetDefault("gemini.embeddingModel", "text-embedding-004")
	viper.SetDefault("gemini.temperature", 0.7)
	viper.SetDefault("gemini.topP", 0.8)
	viper.SetDefault("gemini.topK", 40)
	viper.SetDefault("gemini.maxOutputTokens", 8192)

	viper.SetDefault("retrieval.topK", 5)
	viper.SetDefault("retrieval.chunkSize", 1000)
	viper.SetDefault("retrieval.chunkOverlap", 200)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
