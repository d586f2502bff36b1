package core

import "errors"

var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidTask indicates a Task failed validation.
	ErrInvalidTask = errors.New("invalid task")

	// ErrInvalidTopic indicates a Topic failed validation.
	ErrInvalidTopic = errors.New("invalid topic")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrEmptyTitle indicates a required title is empty.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrEmptyPath indicates the document source locator is empty.
	ErrEmptyPath = errors.New("path cannot be empty")

	// ErrEmptyContent indicates chunk text is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrEmptyTopicName indicates the topic name is empty after normalization.
	ErrEmptyTopicName = errors.New("topic name cannot be empty")

	// ErrInvalidCategory indicates a category outside the PARA set.
	ErrInvalidCategory = errors.New("invalid category")

	// ErrInvalidStatus indicates an unknown task status.
	ErrInvalidStatus = errors.New("invalid task status")

	// ErrInvalidLength indicates an encoded length prefix that cannot fit
	// in the remaining bytes.
	ErrInvalidLength = errors.New("invalid encoded length")
)
