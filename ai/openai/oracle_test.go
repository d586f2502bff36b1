package openai

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/poiesic/personalmind/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"golang.org/x/time/rate"
)

// fakeModel implements llms.Model for testing
type fakeModel struct {
	reply    *llms.ContentResponse
	err      error
	lastOpts llms.CallOptions
	lastText string
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.lastOpts = llms.CallOptions{}
	for _, opt := range options {
		opt(&m.lastOpts)
	}
	if len(messages) > 0 && len(messages[0].Parts) > 0 {
		if tc, ok := messages[0].Parts[0].(llms.TextContent); ok {
			m.lastText = tc.Text
		}
	}
	return m.reply, m.err
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func newTestOracle(model llms.Model) *Oracle {
	return &Oracle{client: model, logger: slog.Default()}
}

func TestOracle_Complete(t *testing.T) {
	t.Run("returns trimmed reply and forwards options", func(t *testing.T) {
		model := &fakeModel{reply: &llms.ContentResponse{
			Choices: []*llms.ContentChoice{{Content: "  SEARCH \n"}},
		}}
		o := newTestOracle(model)

		reply, err := o.Complete(context.Background(), "classify this", 0.1, 10)
		require.NoError(t, err)
		assert.Equal(t, "SEARCH", reply)
		assert.Equal(t, 0.1, model.lastOpts.Temperature)
		assert.Equal(t, 10, model.lastOpts.MaxTokens)
		assert.Equal(t, "classify this", model.lastText)
	})

	t.Run("wraps transport errors", func(t *testing.T) {
		cause := errors.New("503 service unavailable")
		o := newTestOracle(&fakeModel{err: cause})

		_, err := o.Complete(context.Background(), "x", 0.5, 5)
		require.Error(t, err)

		var oe *ai.OracleError
		require.ErrorAs(t, err, &oe)
		assert.Equal(t, "complete", oe.Op)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("no choices is an empty reply", func(t *testing.T) {
		o := newTestOracle(&fakeModel{reply: &llms.ContentResponse{}})

		_, err := o.Complete(context.Background(), "x", 0.5, 5)
		assert.ErrorIs(t, err, ai.ErrEmptyReply)
	})

	t.Run("rate limiter honours context", func(t *testing.T) {
		model := &fakeModel{reply: &llms.ContentResponse{
			Choices: []*llms.ContentChoice{{Content: "ok"}},
		}}
		o := newTestOracle(model)
		o.limiter = rate.NewLimiter(rate.Every(time.Hour), 1)

		_, err := o.Complete(context.Background(), "first", 0, 1)
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err = o.Complete(ctx, "second", 0, 1)
		require.Error(t, err)
		var oe *ai.OracleError
		assert.ErrorAs(t, err, &oe)
	})
}

func TestNewOracle_InvalidConfig(t *testing.T) {
	cfg := ai.NewConfig(ai.WithChatModel(""))
	_, err := NewOracle(cfg)
	assert.Error(t, err)
}

func TestNewProvider(t *testing.T) {
	provider, err := NewProvider(ai.DefaultConfig())
	require.NoError(t, err)
	defer provider.Close()

	assert.NotNil(t, provider.Oracle())
	assert.NotNil(t, provider.Embedder())
}
