package tasks

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/personalmind/ai"
	"github.com/poiesic/personalmind/ai/mock"
	"github.com/poiesic/personalmind/core"
	"github.com/poiesic/personalmind/dates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

func newTestExtractor(t *testing.T) (*Extractor, *mock.MockOracle) {
	t.Helper()
	oracle := mock.NewMockOracle()
	resolver := dates.New(dates.WithClock(func() time.Time { return fixedNow }))
	e, err := NewExtractor(oracle, resolver)
	require.NoError(t, err)
	return e, oracle
}

func TestNewExtractor_RequiresCollaborators(t *testing.T) {
	_, err := NewExtractor(nil, dates.New())
	assert.ErrorIs(t, err, ErrOracleRequired)

	_, err = NewExtractor(mock.NewMockOracle(), nil)
	assert.ErrorIs(t, err, ErrResolverRequired)
}

func TestExtract(t *testing.T) {
	e, oracle := newTestExtractor(t)
	oracle.Default = `[
  {"title": "Complete assignment", "due_date_text": "due December 10"},
  {"title": "Review chapter 5", "due_date_text": null},
  {"title": "Call dentist", "due_date_text": "tomorrow"}
]`

	result := e.Extract(context.Background(), "notes", 42)
	require.False(t, result.Degraded())
	require.Len(t, result.Value, 3)

	first := result.Value[0]
	assert.Equal(t, "Complete assignment", first.Title)
	assert.Equal(t, core.TaskStatusPending, first.Status)
	assert.Equal(t, core.ID(42), first.DocumentId)
	require.NotNil(t, first.DueDate)
	assert.True(t, time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC).Equal(*first.DueDate))

	assert.Nil(t, result.Value[1].DueDate)

	require.NotNil(t, result.Value[2].DueDate)
	assert.True(t, fixedNow.AddDate(0, 0, 1).Equal(*result.Value[2].DueDate))
}

func TestExtract_Prompt(t *testing.T) {
	e, oracle := newTestExtractor(t)
	oracle.Default = "[]"

	e.Extract(context.Background(), strings.Repeat("t", 4000)+"TAIL", 1)

	calls := oracle.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Prompt, "Extract all tasks")
	assert.Contains(t, calls[0].Prompt, strings.Repeat("t", 3000))
	assert.NotContains(t, calls[0].Prompt, "TAIL")
	assert.Equal(t, 0.3, calls[0].Temperature)
	assert.Equal(t, 500, calls[0].MaxTokens)
}

func TestExtract_CodeFenceAndBareNulls(t *testing.T) {
	e, oracle := newTestExtractor(t)
	oracle.Default = "```json\n[{\"title\": \"A\", \"due_date_text\":null}, {\"title\": \"B\", \"due_date_text\": NULL}]\n```"

	// NULL (upper case) is not a JSON literal and is not rewritten.
	result := e.Extract(context.Background(), "text", 1)
	assert.True(t, result.Degraded())

	oracle.Default = "```json\n[{\"title\": \"A\", \"due_date_text\":null}]\n```"
	result = e.Extract(context.Background(), "text", 1)
	require.False(t, result.Degraded())
	require.Len(t, result.Value, 1)
	assert.Nil(t, result.Value[0].DueDate)
}

func TestExtract_SkipsUnusableElements(t *testing.T) {
	e, oracle := newTestExtractor(t)
	oracle.Default = `[
  "just a string",
  42,
  {"title": "   "},
  {"due_date_text": "tomorrow"},
  {"title": 7},
  {"title": "  Keep me  ", "due_date_text": "sometime"}
]`

	result := e.Extract(context.Background(), "text", 3)
	require.False(t, result.Degraded())
	require.Len(t, result.Value, 1)
	assert.Equal(t, "Keep me", result.Value[0].Title)
	assert.Nil(t, result.Value[0].DueDate)
}

func TestExtract_SentinelMeansNoDate(t *testing.T) {
	e, oracle := newTestExtractor(t)
	oracle.Default = `[{"title": "A", "due_date_text": "Null"}, {"title": "B", "due_date_text": ""}]`

	result := e.Extract(context.Background(), "text", 1)
	require.Len(t, result.Value, 2)
	assert.Nil(t, result.Value[0].DueDate)
	assert.Nil(t, result.Value[1].DueDate)
}

func TestExtract_Degraded(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*mock.MockOracle)
	}{
		{"malformed json", func(o *mock.MockOracle) { o.Default = "Here are your tasks: buy milk" }},
		{"json object", func(o *mock.MockOracle) { o.Default = `{"title": "A"}` }},
		{"json null", func(o *mock.MockOracle) { o.Default = "null" }},
		{"oracle error", func(o *mock.MockOracle) { o.OnError("Extract", errors.New("timeout")) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, oracle := newTestExtractor(t)
			tt.setup(oracle)

			result := e.Extract(context.Background(), "text", 1)
			assert.True(t, result.Degraded())
			assert.Empty(t, result.Value)

			var oracleErr *ai.OracleError
			require.ErrorAs(t, result.Err, &oracleErr)
			assert.Equal(t, "tasks", oracleErr.Op)
		})
	}
}

func TestExtract_EmptyArray(t *testing.T) {
	e, oracle := newTestExtractor(t)
	oracle.Default = "[]"

	result := e.Extract(context.Background(), "nothing to do", 1)
	assert.False(t, result.Degraded())
	assert.Empty(t, result.Value)
}
