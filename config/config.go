// Package config loads the application configuration from YAML and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/personalmind/ai"
	"github.com/poiesic/personalmind/chunker"
	"gopkg.in/yaml.v3"
)

// DefaultAPIKeyEnv is the environment variable holding the oracle API key.
const DefaultAPIKeyEnv = "PERSONALMIND_API_KEY"

// ErrInvalidConfig is returned when a loaded configuration fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// DatabaseConfig locates the Badger database.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AIConfig configures the oracle and embedder endpoints.
type AIConfig struct {
	ChatHost          string  `yaml:"chat_host"`
	ChatModel         string  `yaml:"chat_model"`
	EmbeddingHost     string  `yaml:"embedding_host"`
	EmbeddingModel    string  `yaml:"embedding_model"`
	APIKeyEnv         string  `yaml:"api_key_env"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// IngestionConfig configures document processing.
type IngestionConfig struct {
	ChunkSize           int    `yaml:"chunk_size"`
	ChunkOverlap        int    `yaml:"chunk_overlap"`
	TopicCount          int    `yaml:"topic_count"`
	UploadDir           string `yaml:"upload_dir"`
	KnowledgeBaseFolder string `yaml:"knowledge_base_folder"`
}

// ChatConfig configures question answering.
type ChatConfig struct {
	TopK int `yaml:"top_k"`
}

// ReminderConfig configures the due-task reminder loop.
type ReminderConfig struct {
	Window   time.Duration `yaml:"window"`
	Interval time.Duration `yaml:"interval"`
}

// Config is the root application configuration.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	AI        AIConfig        `yaml:"ai"`
	Ingestion IngestionConfig `yaml:"ingestion"`
	Chat      ChatConfig      `yaml:"chat"`
	Reminders ReminderConfig  `yaml:"reminders"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	aiDefaults := ai.DefaultConfig()
	return &Config{
		Database: DatabaseConfig{Path: "personalmind.db"},
		AI: AIConfig{
			ChatHost:       aiDefaults.ChatHost,
			ChatModel:      aiDefaults.ChatModel,
			EmbeddingHost:  aiDefaults.EmbeddingHost,
			EmbeddingModel: aiDefaults.EmbeddingModel,
			APIKeyEnv:      DefaultAPIKeyEnv,
		},
		Ingestion: IngestionConfig{
			ChunkSize:    chunker.DefaultSize,
			ChunkOverlap: chunker.DefaultOverlap,
			TopicCount:   3,
			UploadDir:    "uploads",
		},
		Chat: ChatConfig{TopK: 5},
		Reminders: ReminderConfig{
			Window:   24 * time.Hour,
			Interval: time.Hour,
		},
	}
}

// Load reads the config at path over the defaults. A missing file yields
// the defaults. Fields absent from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadEnv loads variables from .env files into the process environment.
// Variables that are already set win. Missing files are ignored; with no
// paths, ./.env is tried.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", path, err)
		}
	}
	return nil
}

// Validate checks ranges that would otherwise fail deep inside a component.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path is required", ErrInvalidConfig)
	}
	if _, err := chunker.New(c.Ingestion.ChunkSize, c.Ingestion.ChunkOverlap); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Ingestion.TopicCount < 0 {
		return fmt.Errorf("%w: ingestion.topic_count must not be negative", ErrInvalidConfig)
	}
	if c.Chat.TopK <= 0 {
		return fmt.Errorf("%w: chat.top_k must be positive", ErrInvalidConfig)
	}
	if c.Reminders.Window <= 0 || c.Reminders.Interval <= 0 {
		return fmt.Errorf("%w: reminder window and interval must be positive", ErrInvalidConfig)
	}
	if c.AI.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: ai.requests_per_second must not be negative", ErrInvalidConfig)
	}
	return nil
}

// APIKey returns the oracle API key from the configured environment variable.
func (c *Config) APIKey() string {
	if c.AI.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.AI.APIKeyEnv)
}

// AIConfig builds the provider configuration.
func (c *Config) AIConfig() *ai.Config {
	opts := []ai.ConfigOption{
		ai.WithAPIKey(c.APIKey()),
	}
	if c.AI.ChatHost != "" {
		opts = append(opts, ai.WithChatHost(c.AI.ChatHost))
	}
	if c.AI.EmbeddingHost != "" {
		opts = append(opts, ai.WithEmbeddingHost(c.AI.EmbeddingHost))
	}
	if c.AI.ChatModel != "" {
		opts = append(opts, ai.WithChatModel(c.AI.ChatModel))
	}
	if c.AI.EmbeddingModel != "" {
		opts = append(opts, ai.WithEmbeddingModel(c.AI.EmbeddingModel))
	}
	if c.AI.RequestsPerSecond > 0 {
		opts = append(opts, ai.WithRateLimit(c.AI.RequestsPerSecond, c.AI.Burst))
	}
	return ai.NewConfig(opts...)
}
