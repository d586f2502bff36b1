// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package personalmind

import (
	"errors"
	"io"
	"log/slog"

	"github.com/poiesic/personalmind/ai"
	"github.com/poiesic/personalmind/ai/openai"
	"github.com/poiesic/personalmind/chat"
	"github.com/poiesic/personalmind/index"
	"github.com/poiesic/personalmind/ingestion"
	"github.com/poiesic/personalmind/insights"
	"github.com/poiesic/personalmind/reindex"
	"github.com/poiesic/personalmind/storage"
	"github.com/poiesic/personalmind/storage/badger"
	"github.com/poiesic/personalmind/tasks"
)

// Database ties the stores to an AI provider and builds the services that
// run over them.
type Database struct {
	stores   *badger.Stores
	provider ai.AIProvider
	logger   *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	provider ai.AIProvider
	logger   *slog.Logger
}

// WithAIConfig sets the configuration for the default OpenAI-compatible provider.
func WithAIConfig(cfg *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = cfg
	}
}

// WithProvider uses provider instead of building one from the AI config.
// The Database takes ownership and closes it.
func WithProvider(provider ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithLogger sets the logger handed to the services the Database builds.
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = logger
	}
}

// NewDatabase opens (or creates) the database directory at filePath.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	stores, err := badger.OpenStores(filePath)
	if err != nil {
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			stores.Close()
			return nil, err
		}
	}

	return &Database{
		stores:   stores,
		provider: provider,
		logger:   options.logger,
	}, nil
}

// Close releases the provider and the stores.
func (db *Database) Close() error {
	var errs []error
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
		errs = append(errs, err)
	}
	if err := db.stores.Close(); err != nil {
		db.logger.Error("error closing stores", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (db *Database) DocumentRepository() storage.DocumentRepository {
	return db.stores.Documents
}

func (db *Database) TopicRepository() storage.TopicRepository {
	return db.stores.Topics
}

func (db *Database) TaskRepository() storage.TaskRepository {
	return db.stores.Tasks
}

func (db *Database) ChunkRepository() storage.ChunkRepository {
	return db.stores.Chunks
}

func (db *Database) Provider() ai.AIProvider {
	return db.provider
}

func (db *Database) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	opts = append([]ingestion.Option{ingestion.WithLogger(db.logger)}, opts...)
	return ingestion.NewPipeline(db.stores.Documents, db.stores.Topics, db.stores.Tasks,
		db.stores.Chunks, db.provider, opts...)
}

func (db *Database) NewVectorIndex(opts ...index.Option) (*index.VectorIndex, error) {
	opts = append([]index.Option{index.WithLogger(db.logger)}, opts...)
	return index.New(db.provider.Embedder(), db.stores.Chunks, opts...)
}

// NewChatService builds a chat service that retrieves from the vector index.
func (db *Database) NewChatService(opts ...chat.Option) (*chat.Service, error) {
	vectors, err := db.NewVectorIndex()
	if err != nil {
		return nil, err
	}
	opts = append([]chat.Option{chat.WithLogger(db.logger)}, opts...)
	return chat.NewService(db.provider.Oracle(), vectors, opts...)
}

func (db *Database) NewTaskService(opts ...tasks.ServiceOption) (*tasks.Service, error) {
	opts = append([]tasks.ServiceOption{tasks.WithServiceLogger(db.logger)}, opts...)
	return tasks.NewService(db.stores.Tasks, opts...)
}

func (db *Database) NewReminder(opts ...tasks.ReminderOption) (*tasks.Reminder, error) {
	service, err := db.NewTaskService()
	if err != nil {
		return nil, err
	}
	opts = append([]tasks.ReminderOption{tasks.WithReminderLogger(db.logger)}, opts...)
	return tasks.NewReminder(service, opts...)
}

// NewInsightsGenerator builds an insights generator. Call Release on it when done.
func (db *Database) NewInsightsGenerator(opts ...insights.Option) (*insights.Generator, error) {
	opts = append([]insights.Option{insights.WithLogger(db.logger)}, opts...)
	return insights.NewGenerator(db.stores.Documents, db.stores.Topics, db.stores.Tasks,
		db.provider.Oracle(), opts...)
}

func (db *Database) NewReindexer(config *reindex.Config, progress io.Writer) (*reindex.Reindexer, error) {
	return reindex.NewReindexer(db.stores.Chunks, db.provider.Embedder(), config, progress)
}
