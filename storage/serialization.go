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
	"fmt"

	"github.com/poiesic/personalmind/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	if err != nil {
		return 0, decodeError(err)
	}
	return id, nil
}

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) []byte {
	buf := make([]byte, core.DocumentMUS.Size(*doc))
	core.DocumentMUS.Marshal(*doc, buf)
	return buf
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	doc, _, err := core.DocumentMUS.Unmarshal(data)
	if err != nil {
		return nil, decodeError(err)
	}
	return &doc, nil
}

// MarshalTopic serializes a Topic to bytes.
func MarshalTopic(topic *core.Topic) []byte {
	buf := make([]byte, core.TopicMUS.Size(*topic))
	core.TopicMUS.Marshal(*topic, buf)
	return buf
}

// UnmarshalTopic deserializes a Topic from bytes.
func UnmarshalTopic(data []byte) (*core.Topic, error) {
	topic, _, err := core.TopicMUS.Unmarshal(data)
	if err != nil {
		return nil, decodeError(err)
	}
	return &topic, nil
}

// MarshalDocumentTopic serializes a DocumentTopic link to bytes.
func MarshalDocumentTopic(link *core.DocumentTopic) []byte {
	buf := make([]byte, core.DocumentTopicMUS.Size(*link))
	core.DocumentTopicMUS.Marshal(*link, buf)
	return buf
}

// UnmarshalDocumentTopic deserializes a DocumentTopic link from bytes.
func UnmarshalDocumentTopic(data []byte) (*core.DocumentTopic, error) {
	link, _, err := core.DocumentTopicMUS.Unmarshal(data)
	if err != nil {
		return nil, decodeError(err)
	}
	return &link, nil
}

// MarshalTask serializes a Task to bytes.
func MarshalTask(task *core.Task) []byte {
	buf := make([]byte, core.TaskMUS.Size(*task))
	core.TaskMUS.Marshal(*task, buf)
	return buf
}

// UnmarshalTask deserializes a Task from bytes.
func UnmarshalTask(data []byte) (*core.Task, error) {
	task, _, err := core.TaskMUS.Unmarshal(data)
	if err != nil {
		return nil, decodeError(err)
	}
	return &task, nil
}

// MarshalChunk serializes a Chunk to bytes.
func MarshalChunk(chunk *core.Chunk) []byte {
	buf := make([]byte, core.ChunkMUS.Size(*chunk))
	core.ChunkMUS.Marshal(*chunk, buf)
	return buf
}

// UnmarshalChunk deserializes a Chunk from bytes.
func UnmarshalChunk(data []byte) (*core.Chunk, error) {
	chunk, _, err := core.ChunkMUS.Unmarshal(data)
	if err != nil {
		return nil, decodeError(err)
	}
	return &chunk, nil
}

func decodeError(err error) error {
	return fmt.Errorf("%w: %w", ErrSerializationFailed, err)
}
