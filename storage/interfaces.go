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

package storage

import (
	"context"
	"time"

	"github.com/poiesic/personalmind/core"
)

// Repository provides common operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// Close releases resources held by the repository.
	// The shared backend is closed separately.
	Close() error
}

// DocumentRepository provides operations for managing documents.
type DocumentRepository interface {
	Repository
	// AddDocument stores a new document, assigning its ID from a sequence
	// and setting CreatedAt if zero.
	// Returns ErrDuplicateKey if a document with the same Path exists.
	AddDocument(ctx context.Context, doc *core.Document) (*core.Document, error)

	// UpdateDocument replaces an existing document and sets UpdatedAt.
	// The Path of a stored document cannot change.
	// Returns ErrNotFound if the document doesn't exist.
	UpdateDocument(ctx context.Context, doc *core.Document) (*core.Document, error)

	// GetDocument retrieves a document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// FindDocumentByPath looks a document up by its source locator.
	// Returns ErrNotFound if no document has that path.
	FindDocumentByPath(ctx context.Context, path string) (*core.Document, error)

	// ListDocuments returns all documents ordered by ID.
	ListDocuments(ctx context.Context) ([]*core.Document, error)

	// ListIncompleteDocuments returns documents whose Stage is not Complete.
	ListIncompleteDocuments(ctx context.Context) ([]*core.Document, error)
}

// TopicRepository provides operations for managing topics and document links.
type TopicRepository interface {
	Repository
	// LinkTopic finds or creates the topic with the normalized name, adds
	// weight to its frequency and links it to the document if not already
	// linked. The read-modify-write runs in one transaction.
	// Returns the updated topic and whether a new link was created.
	LinkTopic(ctx context.Context, documentID core.ID, name string, weight float64) (*core.Topic, bool, error)

	// GetTopic retrieves a topic by ID.
	// Returns ErrNotFound if the topic doesn't exist.
	GetTopic(ctx context.Context, id core.ID) (*core.Topic, error)

	// FindTopicByName looks a topic up by name, ignoring case and spacing.
	// Returns ErrNotFound if no such topic exists.
	FindTopicByName(ctx context.Context, name string) (*core.Topic, error)

	// ListTopics returns all topics ordered by frequency descending, then name.
	ListTopics(ctx context.Context) ([]*core.Topic, error)

	// GetDocumentTopics returns the topics linked to a document.
	GetDocumentTopics(ctx context.Context, documentID core.ID) ([]*core.Topic, error)

	// GetTopicDocuments returns the IDs of documents linked to a topic.
	GetTopicDocuments(ctx context.Context, topicID core.ID) ([]core.ID, error)
}

// TaskRepository provides operations for managing tasks.
type TaskRepository interface {
	Repository
	// AddTasks stores new tasks, assigning IDs from a sequence.
	// Tasks are validated before anything is written.
	AddTasks(ctx context.Context, tasks ...*core.Task) ([]*core.Task, error)

	// UpdateTask replaces an existing task and sets UpdatedAt.
	// Returns ErrNotFound if the task doesn't exist.
	UpdateTask(ctx context.Context, task *core.Task) (*core.Task, error)

	// GetTask retrieves a task by ID.
	// Returns ErrNotFound if the task doesn't exist.
	GetTask(ctx context.Context, id core.ID) (*core.Task, error)

	// ListTasks returns all tasks ordered by ID.
	ListTasks(ctx context.Context) ([]*core.Task, error)

	// GetTasksByDocument returns the tasks owned by a document.
	GetTasksByDocument(ctx context.Context, documentID core.ID) ([]*core.Task, error)

	// GetTasksDueBetween returns tasks with start <= DueDate <= end,
	// ordered by due date. Tasks without a due date are never returned.
	GetTasksDueBetween(ctx context.Context, start, end time.Time) ([]*core.Task, error)
}

// ChunkRepository stores indexed chunks and their vectors.
type ChunkRepository interface {
	Repository
	// PutChunks writes chunks, replacing any stored under the same
	// (document, ordinal) pair.
	PutChunks(ctx context.Context, chunks ...*core.Chunk) error

	// DeleteDocumentChunks removes every chunk of a document and returns
	// how many were removed.
	DeleteDocumentChunks(ctx context.Context, documentID core.ID) (int, error)

	// GetChunk retrieves a chunk by document and ordinal.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, documentID core.ID, ordinal int) (*core.Chunk, error)

	// GetDocumentChunks returns a document's chunks ordered by ordinal.
	GetDocumentChunks(ctx context.Context, documentID core.ID) ([]*core.Chunk, error)

	// ScanChunks calls fn for every stored chunk in key order.
	// Iteration stops at the first error returned by fn.
	ScanChunks(ctx context.Context, fn func(*core.Chunk) error) error

	// CountChunks returns the number of stored chunks.
	CountChunks(ctx context.Context) (int, error)

	// FindSimilar finds chunks similar to the given vector.
	// Returns chunks with similarity >= minSimilarity, up to limit results,
	// ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.ChunkMatch, error)
}
