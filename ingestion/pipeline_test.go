package ingestion

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/personalmind/ai/mock"
	"github.com/poiesic/personalmind/chunker"
	"github.com/poiesic/personalmind/core"
	"github.com/poiesic/personalmind/extract"
	"github.com/poiesic/personalmind/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

type fixture struct {
	pipeline *Pipeline
	stores   *badger.Stores
	oracle   *mock.MockOracle
	embedder *mock.MockEmbedder
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	stores, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })

	oracle := mock.NewMockOracle()
	embedder := mock.NewMockEmbedder()
	provider := mock.NewMockProviderWithServices(oracle, embedder)

	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	p, err := NewPipeline(stores.Documents, stores.Topics, stores.Tasks, stores.Chunks, provider, opts...)
	require.NoError(t, err)

	return &fixture{pipeline: p, stores: stores, oracle: oracle, embedder: embedder}
}

// script makes the oracle answer like a well-behaved model.
func (f *fixture) script() {
	f.oracle.
		On("main topics", `["Taxes", "Finance", "taxes"]`).
		On("PARA categories", "Areas").
		On("Extract all tasks", `[{"title": "File taxes", "due_date_text": "2025-12-10"}]`)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewPipeline_RequiresCollaborators(t *testing.T) {
	stores, err := badger.NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()
	provider := mock.NewMockProvider()

	_, err = NewPipeline(nil, stores.Topics, stores.Tasks, stores.Chunks, provider)
	assert.ErrorIs(t, err, ErrDocumentRepositoryRequired)

	_, err = NewPipeline(stores.Documents, nil, stores.Tasks, stores.Chunks, provider)
	assert.ErrorIs(t, err, ErrTopicRepositoryRequired)

	_, err = NewPipeline(stores.Documents, stores.Topics, nil, stores.Chunks, provider)
	assert.ErrorIs(t, err, ErrTaskRepositoryRequired)

	_, err = NewPipeline(stores.Documents, stores.Topics, stores.Tasks, nil, provider)
	assert.ErrorIs(t, err, ErrChunkRepositoryRequired)

	_, err = NewPipeline(stores.Documents, stores.Topics, stores.Tasks, stores.Chunks, nil)
	assert.ErrorIs(t, err, ErrAIProviderRequired)
}

func TestNewPipeline_Options(t *testing.T) {
	stores, err := badger.NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()
	provider := mock.NewMockProvider()

	_, err = NewPipeline(stores.Documents, stores.Topics, stores.Tasks, stores.Chunks, provider,
		WithChunkWindow(50, 50))
	assert.ErrorIs(t, err, chunker.ErrInvalidWindow)

	_, err = NewPipeline(stores.Documents, stores.Topics, stores.Tasks, stores.Chunks, provider,
		WithTopicCount(-1))
	assert.Error(t, err)

	p, err := NewPipeline(stores.Documents, stores.Topics, stores.Tasks, stores.Chunks, provider,
		WithChunkWindow(200, 20), WithTopicCount(5), WithLogger(nil))
	require.NoError(t, err)
	assert.Equal(t, 200, p.chunker.Size())
	assert.Equal(t, 20, p.chunker.Overlap())
	assert.Equal(t, 5, p.topicCount)
}

func TestIngest_EndToEnd(t *testing.T) {
	f := newFixture(t, WithChunkWindow(500, 50))
	f.script()
	ctx := context.Background()

	text := strings.Repeat("receipts ", 133) + "tax"
	require.Len(t, text, 1200)
	path := writeFile(t, t.TempDir(), "taxes.txt", text)

	result, err := f.pipeline.Ingest(ctx, path, "Tax notes", "txt")
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Equal(t, "Tax notes", result.Title)
	assert.Equal(t, core.CategoryAreas, result.Category)
	assert.True(t, result.Category.Valid())
	assert.Equal(t, []string{"Taxes", "Finance"}, result.Topics)
	assert.Equal(t, 3, result.Chunks)
	assert.Equal(t, 1, result.Tasks)

	docs, err := f.stores.Documents.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, result.DocumentID, docs[0].Id)
	assert.Equal(t, path, docs[0].Path)
	assert.Equal(t, "txt", docs[0].Type)
	assert.Equal(t, core.StageComplete, docs[0].Stage)
	assert.Equal(t, core.CategoryAreas, docs[0].Category)

	count, err := f.stores.Chunks.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	chunks, err := f.stores.Chunks.GetDocumentChunks(ctx, result.DocumentID)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for i, c := range chunks {
		assert.Equal(t, i, c.Ordinal)
		assert.Equal(t, core.ChunkID(result.DocumentID, i), c.Id)
		assert.Equal(t, "Tax notes", c.Title)
		assert.Equal(t, core.CategoryAreas, c.Category)
		assert.NotEmpty(t, c.Vector)
	}

	topics, err := f.stores.Topics.GetDocumentTopics(ctx, result.DocumentID)
	require.NoError(t, err)
	assert.Len(t, topics, 2)

	tasks, err := f.stores.Tasks.GetTasksByDocument(ctx, result.DocumentID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "File taxes", tasks[0].Title)
	assert.Equal(t, core.TaskStatusPending, tasks[0].Status)
	require.NotNil(t, tasks[0].DueDate)
	assert.Equal(t, 2025, tasks[0].DueDate.Year())
	assert.Equal(t, time.December, tasks[0].DueDate.Month())
	assert.Equal(t, 10, tasks[0].DueDate.Day())

	incomplete, err := f.stores.Documents.ListIncompleteDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, incomplete)
}

func TestIngest_SkipsKnownPath(t *testing.T) {
	f := newFixture(t)
	f.script()
	ctx := context.Background()
	path := writeFile(t, t.TempDir(), "notes.md", "Remember to file taxes before the deadline.")

	first, err := f.pipeline.Ingest(ctx, path, "Notes", "md")
	require.NoError(t, err)
	calls := f.oracle.CallCount()

	second, err := f.pipeline.Ingest(ctx, path, "Notes again", "md")
	require.NoError(t, err)
	assert.True(t, second.Skipped)
	assert.Equal(t, first.DocumentID, second.DocumentID)
	assert.Equal(t, "Notes", second.Title)
	assert.Equal(t, first.Category, second.Category)
	assert.Equal(t, []string{"Taxes", "Finance"}, first.Topics)
	// A skip reports the stored, normalized names.
	assert.ElementsMatch(t, []string{"taxes", "finance"}, second.Topics)
	assert.Equal(t, calls, f.oracle.CallCount())

	docs, err := f.stores.Documents.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	topic, err := f.stores.Topics.FindTopicByName(ctx, "taxes")
	require.NoError(t, err)
	assert.Equal(t, 1.0, topic.Frequency)
}

func TestIngest_TopicAccumulation(t *testing.T) {
	f := newFixture(t)
	f.script()
	ctx := context.Background()
	dir := t.TempDir()

	first, err := f.pipeline.Ingest(ctx, writeFile(t, dir, "a.txt", "first"), "A", "txt")
	require.NoError(t, err)

	topic, err := f.stores.Topics.FindTopicByName(ctx, "Taxes")
	require.NoError(t, err)
	assert.Equal(t, 1.0, topic.Frequency, "repeated topic in one extraction counts once")

	second, err := f.pipeline.Ingest(ctx, writeFile(t, dir, "b.txt", "second"), "B", "txt")
	require.NoError(t, err)

	topics, err := f.stores.Topics.ListTopics(ctx)
	require.NoError(t, err)
	require.Len(t, topics, 2)

	topic, err = f.stores.Topics.FindTopicByName(ctx, "taxes")
	require.NoError(t, err)
	assert.Equal(t, 2.0, topic.Frequency)

	docIDs, err := f.stores.Topics.GetTopicDocuments(ctx, topic.Id)
	require.NoError(t, err)
	assert.ElementsMatch(t, []core.ID{first.DocumentID, second.DocumentID}, docIDs)
}

func TestIngest_EmptyDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	path := writeFile(t, t.TempDir(), "blank.txt", "  \n\t  ")

	_, err := f.pipeline.Ingest(ctx, path, "Blank", "txt")
	var emptyErr *EmptyDocumentError
	require.ErrorAs(t, err, &emptyErr)
	assert.Equal(t, path, emptyErr.Path)

	docs, err := f.stores.Documents.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Zero(t, f.oracle.CallCount())
}

func TestIngest_ExtractionFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dir := t.TempDir()

	_, err := f.pipeline.Ingest(ctx, writeFile(t, dir, "image.png", "png"), "Image", "png")
	var unsupported *extract.UnsupportedTypeError
	assert.ErrorAs(t, err, &unsupported)

	_, err = f.pipeline.Ingest(ctx, filepath.Join(dir, "missing.txt"), "Missing", "txt")
	var extractionErr *extract.ExtractionError
	assert.ErrorAs(t, err, &extractionErr)

	docs, err := f.stores.Documents.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestIngest_OracleFailureDegrades(t *testing.T) {
	f := newFixture(t)
	f.oracle.CompleteFunc = func(context.Context, string, float64, int) (string, error) {
		return "", errors.New("service unavailable")
	}
	ctx := context.Background()
	path := writeFile(t, t.TempDir(), "notes.txt", "Some notes about nothing in particular.")

	result, err := f.pipeline.Ingest(ctx, path, "Notes", "txt")
	require.NoError(t, err)
	assert.Equal(t, core.CategoryResources, result.Category)
	assert.Equal(t, []string{"General"}, result.Topics)
	assert.Equal(t, 1, result.Chunks)
	assert.Zero(t, result.Tasks)

	doc, err := f.stores.Documents.GetDocument(ctx, result.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, core.StageComplete, doc.Stage)
}

func TestIngest_IndexFailureRecordsStage(t *testing.T) {
	f := newFixture(t)
	f.script()
	f.embedder.EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
		return nil, errors.New("embedding service down")
	}
	ctx := context.Background()
	path := writeFile(t, t.TempDir(), "notes.txt", "Some notes.")

	_, err := f.pipeline.Ingest(ctx, path, "Notes", "txt")
	require.Error(t, err)

	incomplete, err := f.stores.Documents.ListIncompleteDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, incomplete, 1)
	assert.Equal(t, core.StageTopicsLinked, incomplete[0].Stage)
	assert.Equal(t, core.CategoryAreas, incomplete[0].Category)

	// The partial record still makes the path a known one.
	result, err := f.pipeline.Ingest(ctx, path, "Notes", "txt")
	require.NoError(t, err)
	assert.True(t, result.Skipped)
}

func TestIngest_DefaultsTitleAndType(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	path := writeFile(t, t.TempDir(), "Project Plan.MD", "# Plan\n\nShip it.")

	result, err := f.pipeline.Ingest(ctx, path, "", "")
	require.NoError(t, err)
	assert.Equal(t, "Project Plan", result.Title)

	doc, err := f.stores.Documents.GetDocument(ctx, result.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, "md", doc.Type)
}

func TestIngest_NoTopicsRequested(t *testing.T) {
	f := newFixture(t, WithTopicCount(0))
	f.script()
	ctx := context.Background()
	path := writeFile(t, t.TempDir(), "notes.txt", "Some notes.")

	result, err := f.pipeline.Ingest(ctx, path, "Notes", "txt")
	require.NoError(t, err)
	assert.Empty(t, result.Topics)
	assert.Zero(t, f.oracle.CallsMatching("main topics"))
}

type stubExtractor struct {
	text string
}

func (s stubExtractor) Extract(string, string) (string, error) {
	return s.text, nil
}

func TestIngest_CustomTextExtractor(t *testing.T) {
	f := newFixture(t, WithTextExtractor(stubExtractor{text: "from somewhere else"}))
	ctx := context.Background()

	result, err := f.pipeline.Ingest(ctx, "s3://bucket/report.pdf", "Report", "pdf")
	require.NoError(t, err)

	chunks, err := f.stores.Chunks.GetDocumentChunks(ctx, result.DocumentID)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "from somewhere else", chunks[0].Text)
}

func TestTypeFromPath(t *testing.T) {
	tests := map[string]string{
		"a.pdf":          "pdf",
		"b.PDF":          "pdf",
		"c.doc":          "docx",
		"d.docx":         "docx",
		"dir/e.md":       "md",
		"no-extension":   "",
		"archive.tar.gz": "gz",
	}
	for path, want := range tests {
		t.Run(path, func(t *testing.T) {
			assert.Equal(t, want, typeFromPath(path))
		})
	}
}
