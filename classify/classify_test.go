package classify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/poiesic/personalmind/ai"
	"github.com/poiesic/personalmind/ai/mock"
	"github.com/poiesic/personalmind/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClassifier(t *testing.T) (*Classifier, *mock.MockOracle) {
	t.Helper()
	oracle := mock.NewMockOracle()
	c, err := New(oracle)
	require.NoError(t, err)
	return c, oracle
}

func TestNew_RequiresOracle(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrOracleRequired)
}

func TestExtractTopics(t *testing.T) {
	c, oracle := newTestClassifier(t)
	oracle.On("main topics", `["Machine Learning", "Data Science", "Python", "Extra"]`)

	result := c.ExtractTopics(context.Background(), "some text", 3)
	require.False(t, result.Degraded())
	assert.Equal(t, []string{"Machine Learning", "Data Science", "Python"}, result.Value)

	calls := oracle.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Prompt, "extract the top 3 main topics")
	assert.Equal(t, 0.3, calls[0].Temperature)
	assert.Equal(t, 100, calls[0].MaxTokens)
}

func TestExtractTopics_TruncatesInput(t *testing.T) {
	c, oracle := newTestClassifier(t)
	oracle.Default = `["x"]`

	c.ExtractTopics(context.Background(), strings.Repeat("a", 5000)+"TAIL", 3)

	prompt := oracle.Calls()[0].Prompt
	assert.Contains(t, prompt, strings.Repeat("a", 2000))
	assert.NotContains(t, prompt, strings.Repeat("a", 2001))
	assert.NotContains(t, prompt, "TAIL")
}

func TestExtractTopics_CodeFence(t *testing.T) {
	c, oracle := newTestClassifier(t)
	oracle.Default = "```json\n[\"Go\", \"Badger\"]\n```"

	result := c.ExtractTopics(context.Background(), "text", 3)
	require.False(t, result.Degraded())
	assert.Equal(t, []string{"Go", "Badger"}, result.Value)
}

func TestExtractTopics_DropsBlankAndDuplicateNames(t *testing.T) {
	c, oracle := newTestClassifier(t)
	oracle.Default = `["Go", "  go ", "", "Rust"]`

	result := c.ExtractTopics(context.Background(), "text", 4)
	require.False(t, result.Degraded())
	assert.Equal(t, []string{"Go", "Rust"}, result.Value)
}

func TestExtractTopics_Fallbacks(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*mock.MockOracle)
		cause error
	}{
		{
			name:  "oracle error",
			setup: func(o *mock.MockOracle) { o.OnError("topics", errors.New("rate limited")) },
		},
		{
			name:  "not json",
			setup: func(o *mock.MockOracle) { o.Default = "Machine Learning, Python" },
			cause: ai.ErrMalformedReply,
		},
		{
			name:  "json object",
			setup: func(o *mock.MockOracle) { o.Default = `{"topics": ["a"]}` },
			cause: ai.ErrMalformedReply,
		},
		{
			name:  "array of numbers",
			setup: func(o *mock.MockOracle) { o.Default = `[1, 2]` },
			cause: ai.ErrMalformedReply,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, oracle := newTestClassifier(t)
			tt.setup(oracle)

			result := c.ExtractTopics(context.Background(), "text", 3)
			assert.True(t, result.Degraded())
			assert.Equal(t, []string{FallbackTopic}, result.Value)

			var oracleErr *ai.OracleError
			require.ErrorAs(t, result.Err, &oracleErr)
			assert.Equal(t, "topics", oracleErr.Op)
			if tt.cause != nil {
				assert.ErrorIs(t, result.Err, tt.cause)
			}
		})
	}
}

func TestExtractTopics_NonPositiveCount(t *testing.T) {
	c, oracle := newTestClassifier(t)

	result := c.ExtractTopics(context.Background(), "text", 0)
	assert.False(t, result.Degraded())
	assert.Empty(t, result.Value)
	assert.Zero(t, oracle.CallCount())
}

func TestClassifyCategory(t *testing.T) {
	tests := []struct {
		reply string
		want  core.Category
	}{
		{"Projects", core.CategoryProjects},
		{"areas", core.CategoryAreas},
		{"  RESOURCES.  ", core.CategoryResources},
		{"Category: Archives", core.CategoryArchives},
		// Label order decides, not position in the reply.
		{"Archives or maybe Projects", core.CategoryProjects},
	}
	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			c, oracle := newTestClassifier(t)
			oracle.Default = tt.reply

			result := c.ClassifyCategory(context.Background(), "text", "title")
			assert.False(t, result.Degraded())
			assert.Equal(t, tt.want, result.Value)
		})
	}
}

func TestClassifyCategory_Prompt(t *testing.T) {
	c, oracle := newTestClassifier(t)
	oracle.Default = "Areas"

	c.ClassifyCategory(context.Background(), strings.Repeat("b", 3000), "Budget 2025")

	calls := oracle.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Prompt, "Title: Budget 2025")
	assert.Contains(t, calls[0].Prompt, strings.Repeat("b", 1500))
	assert.NotContains(t, calls[0].Prompt, strings.Repeat("b", 1501))
	assert.Equal(t, 0.2, calls[0].Temperature)
	assert.Equal(t, 20, calls[0].MaxTokens)
}

func TestClassifyCategory_Fallbacks(t *testing.T) {
	t.Run("no label in reply", func(t *testing.T) {
		c, oracle := newTestClassifier(t)
		oracle.Default = "I think this is a recipe"

		result := c.ClassifyCategory(context.Background(), "text", "title")
		assert.True(t, result.Degraded())
		assert.Equal(t, core.CategoryResources, result.Value)
		assert.ErrorIs(t, result.Err, ai.ErrMalformedReply)
	})

	t.Run("oracle error", func(t *testing.T) {
		c, oracle := newTestClassifier(t)
		boom := errors.New("connection refused")
		oracle.OnError("PARA", boom)

		result := c.ClassifyCategory(context.Background(), "text", "title")
		assert.True(t, result.Degraded())
		assert.Equal(t, core.CategoryResources, result.Value)
		assert.ErrorIs(t, result.Err, boom)
	})
}

func TestMatchCategory(t *testing.T) {
	category, ok := MatchCategory("projects")
	assert.True(t, ok)
	assert.Equal(t, core.CategoryProjects, category)

	_, ok = MatchCategory("")
	assert.False(t, ok)
}
