package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	Rubric  RubricConfig
	SQLite  SQLiteConfig
	Redis   RedisConfig
	Cache   CacheConfig
	LLM     LLMConfig
	Triage  TriageConfig
	Neo4j   Neo4jConfig
	Zilliz  ZillizConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Host              string
	Port              int
	ReadTimeout       int
	WriteTimeout      int
	BodyLimit         int
	RequestsPerMinute int
}

type RubricConfig struct {
	Path string
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig selects the classification cache store. Backend is "file" or
// "redis"; Dir only applies to the file backend.
type CacheConfig struct {
	Backend string
	Dir     string
}

type LLMConfig struct {
	APIKey             string
	Model              string
	EmbeddingModel     string
	Temperature        float32
	MaxTokens          int
	TimeoutSec         int
	MinRequestInterval int // milliseconds between classification requests
}

type TriageConfig struct {
	PromoteThreshold float64
}

type Neo4jConfig struct {
	Enabled  bool
	URI      string
	Username string
	Password string
	Database string
}

type ZillizConfig struct {
	Enabled        bool
	Endpoint       string
	APIKey         string
	CollectionName string
	VectorDim      int
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
	viper.AddConfigPath("/etc/truststack")

	viper.SetEnvPrefix("TRUST_STACK")
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
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 120)
	viper.SetDefault("server.bodyLimit", 10485760)
	viper.SetDefault("server.requestsPerMinute", 60)

	viper.SetDefault("rubric.path", "./config/rubric.json")

	viper.SetDefault("sqlite.path", "./data/truststack.db")

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("cache.backend", "file")
	viper.SetDefault("cache.dir", "./data/cache/llm")

	viper.SetDefault("llm.model", "gpt-3.5-turbo")
	viper.SetDefault("llm.embeddingModel", "text-embedding-3-small")
	viper.SetDefault("llm.temperature", 0.0)
	viper.SetDefault("llm.maxTokens", 400)
	viper.SetDefault("llm.timeoutSec", 5)
	viper.SetDefault("llm.minRequestInterval", 50)

	viper.SetDefault("triage.promoteThreshold", 0.6)

	viper.SetDefault("neo4j.enabled", false)
	viper.SetDefault("neo4j.uri", "bolt://localhost:7687")
	viper.SetDefault("neo4j.username", "neo4j")
	viper.SetDefault("neo4j.password", "password")
	viper.SetDefault("neo4j.database", "neo4j")

	viper.SetDefault("zilliz.enabled", false)
	viper.SetDefault("zilliz.endpoint", "localhost:19530")
	viper.SetDefault("zilliz.collectionName", "brand_exemplars")
	viper.SetDefault("zilliz.vectorDim", 1536)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
