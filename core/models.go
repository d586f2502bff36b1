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

package core

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent derives a stable 64-bit ID from text.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Category is a PARA classification label.
type Category string

const (
	CategoryProjects  Category = "Projects"
	CategoryAreas     Category = "Areas"
	CategoryResources Category = "Resources"
	CategoryArchives  Category = "Archives"
)

// Categories lists the PARA labels in matching priority order.
var Categories = []Category{
	CategoryProjects,
	CategoryAreas,
	CategoryResources,
	CategoryArchives,
}

// Valid reports whether c is one of the four PARA labels.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// TaskStatus is the lifecycle state of a Task.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
)

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	return s == TaskStatusPending || s == TaskStatusCompleted
}

// Stage is the persisted ingestion state of a Document.
type Stage int

const (
	StageNotStarted Stage = iota
	StageTextExtracted
	StageClassified
	StageTopicsLinked
	StageChunksIndexed
	StageTasksExtracted
	StageComplete
)

var stageNames = [...]string{
	"NotStarted",
	"TextExtracted",
	"Classified",
	"TopicsLinked",
	"ChunksIndexed",
	"TasksExtracted",
	"Complete",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

type Document struct {
	Id        ID
	Title     string
	Type      string   // Declared type, e.g. "pdf", "md", "docx"
	Path      string   // Source locator, unique across documents
	Tags      []string // Free-form tags
	Category  Category // Empty until classified
	Stage     Stage
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Topic struct {
	Id         ID
	Name       string // Normalized, see NormalizeTopicName
	Frequency  float64
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// NormalizeTopicName trims, collapses inner whitespace and lowercases a topic name.
func NormalizeTopicName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// TopicID returns the content ID for a topic name.
func TopicID(name string) ID {
	return IDFromContent("topic:" + NormalizeTopicName(name))
}

type DocumentTopic struct {
	DocumentId ID
	TopicId    ID
}

type Task struct {
	Id         ID
	Title      string
	DueDate    *time.Time
	Status     TaskStatus
	DocumentId ID // Zero when the task has no owning document
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// Chunk is a window of document text materialized into the vector index.
type Chunk struct {
	Id         string // See ChunkID
	DocumentId ID
	Ordinal    int
	Text       string
	Title      string
	Category   Category
	Vector     []float32
}

// ChunkID builds the index key for the ordinal-th chunk of a document.
func ChunkID(documentID ID, ordinal int) string {
	return fmt.Sprintf("%d_%d", documentID, ordinal)
}

type ChunkMatch struct {
	Chunk *Chunk
	Score float32
}
