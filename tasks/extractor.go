package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/personalmind/ai"
	"github.com/poiesic/personalmind/core"
	"github.com/poiesic/personalmind/dates"
)

const (
	extractInputLimit  = 3000
	extractTemperature = 0.3
	extractMaxTokens   = 500
)

var (
	ErrOracleRequired   = errors.New("oracle required")
	ErrResolverRequired = errors.New("date resolver required")
)

const extractPrompt = `Extract all tasks, action items, TODOs, and assignments from this text.
For each task, identify:
1. Task title/description
2. Due date (if mentioned)

Return a JSON array of tasks. If no tasks found, return empty array [].

Text: %s

Example output:
[
  {"title": "Complete assignment", "due_date_text": "December 10"},
  {"title": "Review chapter 5", "due_date_text": null}
]

Return ONLY the JSON array, nothing else.`

// nullReplacer quotes bare null values so they decode as the sentinel string.
var nullReplacer = strings.NewReplacer(": null", `: "null"`, ":null", `: "null"`)

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithExtractorLogger sets the logger.
func WithExtractorLogger(logger *slog.Logger) ExtractorOption {
	return func(e *Extractor) {
		e.logger = logger.With("component", "tasks")
	}
}

// Extractor derives task candidates from document text.
type Extractor struct {
	oracle   ai.Oracle
	resolver *dates.Resolver
	logger   *slog.Logger
}

// NewExtractor creates an Extractor.
func NewExtractor(oracle ai.Oracle, resolver *dates.Resolver, opts ...ExtractorOption) (*Extractor, error) {
	if oracle == nil {
		return nil, ErrOracleRequired
	}
	if resolver == nil {
		return nil, ErrResolverRequired
	}
	e := &Extractor{
		oracle:   oracle,
		resolver: resolver,
		logger:   slog.Default().With("component", "tasks"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Extract returns pending tasks owned by documentID. Elements that are not
// objects or have a blank title are skipped. When the oracle fails or the
// reply is not a JSON array the result degrades to an empty list.
func (e *Extractor) Extract(ctx context.Context, text string, documentID core.ID) ai.Result[[]*core.Task] {
	prompt := fmt.Sprintf(extractPrompt, ai.Truncate(text, extractInputLimit))
	reply, err := e.oracle.Complete(ctx, prompt, extractTemperature, extractMaxTokens)
	if err != nil {
		return e.fallback(err)
	}

	items, err := parseReply(reply)
	if err != nil {
		e.logger.Debug("unparseable task reply", "reply", ai.Truncate(reply, 200))
		return e.fallback(err)
	}

	var tasks []*core.Task
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		title, _ := obj["title"].(string)
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}

		task := &core.Task{
			Title:      title,
			Status:     core.TaskStatusPending,
			DocumentId: documentID,
		}
		if dueText, _ := obj["due_date_text"].(string); !dates.IsNone(dueText) {
			if due, ok := e.resolver.ResolveFirst(dueText); ok {
				task.DueDate = &due
			}
		}
		tasks = append(tasks, task)
	}
	return ai.Ok(tasks)
}

func (e *Extractor) fallback(err error) ai.Result[[]*core.Task] {
	result := ai.Fallback[[]*core.Task]("tasks", nil, err)
	e.logger.Warn("task extraction degraded", "err", result.Err)
	return result
}

// parseReply strips a code fence, quotes bare nulls and decodes a JSON array.
func parseReply(reply string) ([]any, error) {
	cleaned := nullReplacer.Replace(ai.StripCodeFence(reply))

	var decoded any
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrMalformedReply, err)
	}
	items, ok := decoded.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected a JSON array, got %T", ai.ErrMalformedReply, decoded)
	}
	return items, nil
}
