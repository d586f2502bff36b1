package core

import (
	"fmt"
	"strings"
)

func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if strings.TrimSpace(doc.Path) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyPath)
	}

	if strings.TrimSpace(doc.Title) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyTitle)
	}

	if doc.Category != "" && !doc.Category.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidDocument, ErrInvalidCategory, doc.Category)
	}

	return nil
}

func ValidateTask(task *Task) error {
	if task == nil {
		return fmt.Errorf("%w: task is nil", ErrInvalidTask)
	}

	if strings.TrimSpace(task.Title) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTask, ErrEmptyTitle)
	}

	if !task.Status.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidTask, ErrInvalidStatus, task.Status)
	}

	return nil
}

func ValidateTopic(topic *Topic) error {
	if topic == nil {
		return fmt.Errorf("%w: topic is nil", ErrInvalidTopic)
	}

	if NormalizeTopicName(topic.Name) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTopic, ErrEmptyTopicName)
	}

	return nil
}

func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}

	if chunk.Id != ChunkID(chunk.DocumentId, chunk.Ordinal) {
		return fmt.Errorf("%w: id %q does not match document %d ordinal %d",
			ErrInvalidChunk, chunk.Id, chunk.DocumentId, chunk.Ordinal)
	}

	return nil
}
