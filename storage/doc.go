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

// Package storage provides the storage abstraction layer for PersonalMind.
//
// Repository interfaces decouple the relational records (documents, topics,
// document-topic links, tasks) and the chunk vector store from the BadgerDB
// implementation in storage/badger.
//
// # Architecture
//
//   - DocumentRepository: documents, unique by source path, with stage records
//   - TopicRepository: topics with accumulating frequency and document links
//   - TaskRepository: tasks with a due-date index
//   - ChunkRepository: indexed chunks with vector similarity search
//
// # Usage
//
//	stores, err := badger.OpenStores("/path/to/db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer stores.Close()
//
// Use in tests with in-memory storage:
//
//	stores, err := badger.NewMemoryStores()
//
// # Serialization
//
// Values are stored as JSON. IDs inside keys and index values are 8-byte
// big-endian so that lexicographic key order matches numeric order.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
