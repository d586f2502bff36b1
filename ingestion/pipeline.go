package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/poiesic/personalmind/ai"
	"github.com/poiesic/personalmind/chunker"
	"github.com/poiesic/personalmind/classify"
	"github.com/poiesic/personalmind/core"
	"github.com/poiesic/personalmind/dates"
	"github.com/poiesic/personalmind/extract"
	"github.com/poiesic/personalmind/index"
	"github.com/poiesic/personalmind/storage"
	"github.com/poiesic/personalmind/tasks"
)

// topicWeight is added to a topic's frequency each time a document mentions it.
const topicWeight = 1.0

// TextExtractor reads the plain text of a source file.
type TextExtractor interface {
	Extract(path, declaredType string) (string, error)
}

// Pipeline orchestrates the ingestion of single documents.
type Pipeline struct {
	documents  storage.DocumentRepository
	topics     storage.TopicRepository
	extractor  TextExtractor
	classifier *classify.Classifier
	chunker    *chunker.Chunker
	index      *index.VectorIndex
	tasks      *tasks.Extractor
	taskStore  *tasks.Service
	topicCount int
	now        func() time.Time
	baseLogger *slog.Logger
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.baseLogger = logger
		p.logger = logger.With("component", "ingestion")
		return nil
	}
}

// WithChunkWindow sets the chunk size and overlap in characters.
// Default is chunker.DefaultSize / chunker.DefaultOverlap.
func WithChunkWindow(size, overlap int) Option {
	return func(p *Pipeline) error {
		c, err := chunker.New(size, overlap)
		if err != nil {
			return err
		}
		p.chunker = c
		return nil
	}
}

// WithTopicCount sets how many topics are requested per document.
// Default is classify.DefaultTopicCount.
func WithTopicCount(n int) Option {
	return func(p *Pipeline) error {
		if n < 0 {
			return fmt.Errorf("topic count must not be negative: %d", n)
		}
		p.topicCount = n
		return nil
	}
}

// WithClock sets the time source used to resolve relative due dates.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) error {
		p.now = now
		return nil
	}
}

// WithTextExtractor replaces the file text extractor.
func WithTextExtractor(extractor TextExtractor) Option {
	return func(p *Pipeline) error {
		p.extractor = extractor
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	documents storage.DocumentRepository,
	topics storage.TopicRepository,
	taskRepository storage.TaskRepository,
	chunks storage.ChunkRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Pipeline, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if topics == nil {
		return nil, ErrTopicRepositoryRequired
	}
	if taskRepository == nil {
		return nil, ErrTaskRepositoryRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	p := &Pipeline{
		documents:  documents,
		topics:     topics,
		chunker:    chunker.Default(),
		topicCount: classify.DefaultTopicCount,
		now:        time.Now,
		baseLogger: slog.Default(),
		logger:     slog.Default().With("component", "ingestion"),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	// Collaborators are built after options so they get the final config.
	if p.extractor == nil {
		p.extractor = extract.New(extract.WithLogger(p.baseLogger))
	}

	var err error
	p.classifier, err = classify.New(provider.Oracle(), classify.WithLogger(p.baseLogger))
	if err != nil {
		return nil, err
	}
	p.index, err = index.New(provider.Embedder(), chunks, index.WithLogger(p.baseLogger))
	if err != nil {
		return nil, err
	}
	p.tasks, err = tasks.NewExtractor(provider.Oracle(), dates.New(dates.WithClock(p.now)),
		tasks.WithExtractorLogger(p.baseLogger))
	if err != nil {
		return nil, err
	}
	p.taskStore, err = tasks.NewService(taskRepository, tasks.WithServiceLogger(p.baseLogger),
		tasks.WithServiceClock(p.now))
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Result describes an ingested document.
type Result struct {
	DocumentID core.ID
	Title      string
	Category   core.Category
	Topics     []string
	Chunks     int
	Tasks      int

	// Skipped is set when a document with the same path already existed
	// and nothing was processed.
	Skipped bool
}

// Ingest runs the document at path through every stage. An empty title
// defaults to the file name without its extension and an empty type to the
// file extension.
//
// Re-ingesting a known path is a no-op that reports the stored document.
// Text extraction failures and empty documents are returned before anything
// is stored. A failure in a later stage leaves the document recorded at the
// last stage it completed.
func (p *Pipeline) Ingest(ctx context.Context, path, title, declaredType string) (*Result, error) {
	if title == "" {
		title = titleFromPath(path)
	}
	if declaredType == "" {
		declaredType = typeFromPath(path)
	}

	existing, err := p.documents.FindDocumentByPath(ctx, path)
	switch {
	case err == nil:
		return p.skip(ctx, existing)
	case !errors.Is(err, storage.ErrNotFound):
		return nil, err
	}

	text, err := p.extractor.Extract(path, declaredType)
	if err != nil {
		p.logger.Error("text extraction failed", "path", path, "err", err)
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		p.logger.Error("empty document", "path", path)
		return nil, &EmptyDocumentError{Path: path}
	}

	doc, err := p.documents.AddDocument(ctx, &core.Document{
		Title: title,
		Type:  extract.NormalizeType(declaredType),
		Path:  path,
		Tags:  []string{},
		Stage: core.StageTextExtracted,
	})
	if errors.Is(err, storage.ErrDuplicateKey) {
		// Lost a race with another ingestion of the same path.
		if existing, findErr := p.documents.FindDocumentByPath(ctx, path); findErr == nil {
			return p.skip(ctx, existing)
		}
	}
	if err != nil {
		return nil, err
	}
	p.logger.Debug("stage reached", "document_id", doc.Id, "stage", doc.Stage)

	category := p.classifier.ClassifyCategory(ctx, text, title).Value
	topicNames := p.classifier.ExtractTopics(ctx, text, p.topicCount).Value
	doc.Category = category
	if doc, err = p.advance(ctx, doc, core.StageClassified); err != nil {
		return nil, err
	}

	result := &Result{
		DocumentID: doc.Id,
		Title:      doc.Title,
		Category:   doc.Category,
		Topics:     make([]string, 0, len(topicNames)),
	}

	for _, name := range topicNames {
		topic, _, err := p.topics.LinkTopic(ctx, doc.Id, name, topicWeight)
		if errors.Is(err, core.ErrEmptyTopicName) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("linking topic %q: %w", name, err)
		}
		// Stored names are normalized; the result keeps the oracle's casing.
		result.Topics = append(result.Topics, strings.TrimSpace(name))
		p.logger.Debug("topic linked", "document_id", doc.Id, "topic", topic.Name)
	}
	if doc, err = p.advance(ctx, doc, core.StageTopicsLinked); err != nil {
		return nil, err
	}

	windows := p.chunker.Split(text)
	if len(windows) > 0 {
		entries := make([]index.Entry, len(windows))
		for i, window := range windows {
			entries[i] = index.Entry{
				DocumentID: doc.Id,
				Ordinal:    i,
				Text:       window,
				Title:      doc.Title,
				Category:   doc.Category,
			}
		}
		if _, err := p.index.Add(ctx, entries...); err != nil {
			return nil, fmt.Errorf("indexing chunks: %w", err)
		}
		result.Chunks = len(windows)
	}
	if doc, err = p.advance(ctx, doc, core.StageChunksIndexed); err != nil {
		return nil, err
	}

	extracted := p.tasks.Extract(ctx, text, doc.Id).Value
	saved, err := p.taskStore.Save(ctx, extracted)
	if err != nil {
		return nil, fmt.Errorf("saving tasks: %w", err)
	}
	result.Tasks = len(saved)
	if doc, err = p.advance(ctx, doc, core.StageTasksExtracted); err != nil {
		return nil, err
	}

	if _, err = p.advance(ctx, doc, core.StageComplete); err != nil {
		return nil, err
	}

	p.logger.Info("document ingested",
		"document_id", doc.Id,
		"path", path,
		"category", result.Category,
		"topics", len(result.Topics),
		"chunks", result.Chunks,
		"tasks", result.Tasks)
	return result, nil
}

// advance records that doc reached stage.
func (p *Pipeline) advance(ctx context.Context, doc *core.Document, stage core.Stage) (*core.Document, error) {
	doc.Stage = stage
	updated, err := p.documents.UpdateDocument(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("recording stage %s: %w", stage, err)
	}
	p.logger.Debug("stage reached", "document_id", updated.Id, "stage", stage)
	return updated, nil
}

func (p *Pipeline) skip(ctx context.Context, doc *core.Document) (*Result, error) {
	p.logger.Info("document already ingested", "document_id", doc.Id, "path", doc.Path)
	linked, err := p.topics.GetDocumentTopics(ctx, doc.Id)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(linked))
	for i, topic := range linked {
		names[i] = topic.Name
	}
	return &Result{
		DocumentID: doc.Id,
		Title:      doc.Title,
		Category:   doc.Category,
		Topics:     names,
		Skipped:    true,
	}, nil
}

func titleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// typeFromPath returns the declared type implied by a file extension.
// Legacy .doc files are read as docx.
func typeFromPath(path string) string {
	ext := extract.NormalizeType(filepath.Ext(path))
	if ext == "doc" {
		return "docx"
	}
	return ext
}
