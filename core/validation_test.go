package core

import (
	"errors"
	"testing"
)

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name    string
		doc     *Document
		wantErr error
	}{
		{
			name:    "valid unclassified document",
			doc:     &Document{Title: "Notes", Path: "/tmp/notes.md", Type: "md"},
			wantErr: nil,
		},
		{
			name:    "valid classified document",
			doc:     &Document{Title: "Notes", Path: "/tmp/notes.md", Category: CategoryAreas},
			wantErr: nil,
		},
		{
			name:    "nil document",
			doc:     nil,
			wantErr: ErrInvalidDocument,
		},
		{
			name:    "empty path",
			doc:     &Document{Title: "Notes"},
			wantErr: ErrEmptyPath,
		},
		{
			name:    "blank title",
			doc:     &Document{Title: "  ", Path: "/tmp/a.txt"},
			wantErr: ErrEmptyTitle,
		},
		{
			name:    "unknown category",
			doc:     &Document{Title: "Notes", Path: "/tmp/a.txt", Category: "Inbox"},
			wantErr: ErrInvalidCategory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.doc)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateDocument() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDocument() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidDocument) {
				t.Errorf("ValidateDocument() error should wrap ErrInvalidDocument, got %v", err)
			}
		})
	}
}

func TestValidateTask(t *testing.T) {
	tests := []struct {
		name    string
		task    *Task
		wantErr error
	}{
		{name: "valid", task: &Task{Title: "Submit report", Status: TaskStatusPending}},
		{name: "completed", task: &Task{Title: "Submit report", Status: TaskStatusCompleted}},
		{name: "nil", task: nil, wantErr: ErrInvalidTask},
		{name: "empty title", task: &Task{Title: " \t", Status: TaskStatusPending}, wantErr: ErrEmptyTitle},
		{name: "bad status", task: &Task{Title: "x", Status: "done"}, wantErr: ErrInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTask(tt.task)
			if tt.wantErr == nil && err != nil {
				t.Errorf("ValidateTask() unexpected error = %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateTask() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateTopic(t *testing.T) {
	if err := ValidateTopic(&Topic{Name: "go"}); err != nil {
		t.Errorf("ValidateTopic() unexpected error = %v", err)
	}
	if err := ValidateTopic(&Topic{Name: "   "}); !errors.Is(err, ErrEmptyTopicName) {
		t.Errorf("ValidateTopic() error = %v, want %v", err, ErrEmptyTopicName)
	}
}

func TestValidateChunk(t *testing.T) {
	ok := &Chunk{Id: ChunkID(4, 1), DocumentId: 4, Ordinal: 1, Text: "abc"}
	if err := ValidateChunk(ok); err != nil {
		t.Errorf("ValidateChunk() unexpected error = %v", err)
	}

	mismatched := &Chunk{Id: "4_2", DocumentId: 4, Ordinal: 1, Text: "abc"}
	if err := ValidateChunk(mismatched); !errors.Is(err, ErrInvalidChunk) {
		t.Errorf("ValidateChunk() error = %v, want %v", err, ErrInvalidChunk)
	}

	empty := &Chunk{Id: ChunkID(4, 0), DocumentId: 4}
	if err := ValidateChunk(empty); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("ValidateChunk() error = %v, want %v", err, ErrEmptyContent)
	}
}
