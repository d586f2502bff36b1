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

package badger

import (
	"errors"

	"github.com/poiesic/personalmind/storage"
)

// Stores bundles every repository that shares one backend.
type Stores struct {
	Backend   *Backend
	Documents storage.DocumentRepository
	Topics    storage.TopicRepository
	Tasks     storage.TaskRepository
	Chunks    storage.ChunkRepository
}

// OpenStores opens a file-backed database at path and builds all repositories.
func OpenStores(path string) (*Stores, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	return newStores(backend)
}

// NewMemoryStores creates in-memory repositories for testing.
// Caller must Close the result when done.
func NewMemoryStores() (*Stores, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}
	return newStores(backend)
}

func newStores(backend *Backend) (*Stores, error) {
	stores := &Stores{Backend: backend}

	docs, err := NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	stores.Documents = docs

	tasks, err := NewTaskRepository(backend)
	if err != nil {
		docs.Close()
		backend.Close()
		return nil, err
	}
	stores.Tasks = tasks

	stores.Topics, _ = NewTopicRepository(backend)
	stores.Chunks, _ = NewChunkRepository(backend)
	return stores, nil
}

// Close releases the repositories, then the backend.
func (s *Stores) Close() error {
	return errors.Join(
		s.Chunks.Close(),
		s.Topics.Close(),
		s.Tasks.Close(),
		s.Documents.Close(),
		s.Backend.Close(),
	)
}
