package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/personalmind/ai"
	"github.com/poiesic/personalmind/ai/mock"
	"github.com/poiesic/personalmind/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRetriever returns a fixed set of matches and records queries.
type fakeRetriever struct {
	matches []*core.ChunkMatch
	err     error
	queries []string
	k       int
}

func (f *fakeRetriever) Query(_ context.Context, text string, k int) ([]*core.ChunkMatch, error) {
	f.queries = append(f.queries, text)
	f.k = k
	return f.matches, f.err
}

func match(docID core.ID, ordinal int, text string, score float32) *core.ChunkMatch {
	return &core.ChunkMatch{
		Chunk: &core.Chunk{
			Id:         core.ChunkID(docID, ordinal),
			DocumentId: docID,
			Ordinal:    ordinal,
			Text:       text,
		},
		Score: score,
	}
}

func TestRouter_KeywordSkipsOracle(t *testing.T) {
	oracle := mock.NewMockOracle()
	router, err := NewRouter(oracle, nil)
	require.NoError(t, err)

	result := router.Route(context.Background(), "What is in my notes about taxes?")
	assert.False(t, result.Degraded())
	assert.Equal(t, IntentSearch, result.Value)
	assert.Zero(t, oracle.CallCount())
}

func TestRouter_OraclePath(t *testing.T) {
	tests := []struct {
		reply string
		want  Intent
	}{
		{"GENERAL", IntentGeneral},
		{"search", IntentSearch},
		{"\"SEARCH\"", IntentSearch},
		{"I'm not sure", IntentGeneral},
	}
	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			oracle := mock.NewMockOracle()
			oracle.Default = tt.reply
			router, err := NewRouter(oracle, nil)
			require.NoError(t, err)

			result := router.Route(context.Background(), "good morning")
			assert.False(t, result.Degraded())
			assert.Equal(t, tt.want, result.Value)

			calls := oracle.Calls()
			require.Len(t, calls, 1)
			assert.Contains(t, calls[0].Prompt, "Question: good morning")
			assert.Equal(t, 0.1, calls[0].Temperature)
			assert.Equal(t, 10, calls[0].MaxTokens)
		})
	}
}

func TestRouter_OracleFailureRoutesToSearch(t *testing.T) {
	oracle := mock.NewMockOracle().OnError("Classify", errors.New("down"))
	router, err := NewRouter(oracle, nil)
	require.NoError(t, err)

	result := router.Route(context.Background(), "good morning")
	assert.True(t, result.Degraded())
	assert.Equal(t, IntentSearch, result.Value)
}

func TestMatchesKeyword(t *testing.T) {
	assert.True(t, MatchesKeyword("SHOW ME my receipts"))
	assert.True(t, MatchesKeyword("Tell me about Go"))
	assert.False(t, MatchesKeyword("hello there"))
}

func TestAnswerer_EmptyRetrieval(t *testing.T) {
	oracle := mock.NewMockOracle()
	retriever := &fakeRetriever{}
	answerer, err := NewAnswerer(oracle, retriever, 0, nil)
	require.NoError(t, err)

	result, err := answerer.Answer(context.Background(), "where are my taxes?")
	require.NoError(t, err)
	assert.False(t, result.Degraded())
	assert.Equal(t, NothingFoundMessage, result.Value.Text)
	assert.Empty(t, result.Value.Sources)
	assert.Zero(t, oracle.CallCount())
	assert.Equal(t, DefaultTopK, retriever.k)
}

func TestAnswerer_BuildsContextAndSources(t *testing.T) {
	oracle := mock.NewMockOracle().On("Context:", "You paid them in April.")
	retriever := &fakeRetriever{matches: []*core.ChunkMatch{
		match(3, 0, "Taxes filed April 10.", 0.9),
		match(1, 2, "Refund expected in May.", 0.8),
		match(3, 1, "Receipts in the blue folder.", 0.7),
	}}
	answerer, err := NewAnswerer(oracle, retriever, 3, nil)
	require.NoError(t, err)

	result, err := answerer.Answer(context.Background(), "when did I pay taxes?")
	require.NoError(t, err)
	assert.False(t, result.Degraded())
	assert.Equal(t, "You paid them in April.", result.Value.Text)
	assert.Equal(t, []core.ID{3, 1}, result.Value.Sources)
	assert.Equal(t, 3, retriever.k)

	calls := oracle.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Prompt,
		"[Chunk 1]: Taxes filed April 10.\n\n[Chunk 2]: Refund expected in May.\n\n[Chunk 3]: Receipts in the blue folder.")
	assert.Contains(t, calls[0].Prompt, "Question: when did I pay taxes?")
	assert.Equal(t, 0.5, calls[0].Temperature)
	assert.Equal(t, 500, calls[0].MaxTokens)
}

func TestAnswerer_OracleFailure(t *testing.T) {
	oracle := mock.NewMockOracle().OnError("Context:", errors.New("quota exceeded"))
	retriever := &fakeRetriever{matches: []*core.ChunkMatch{match(5, 0, "text", 1)}}
	answerer, err := NewAnswerer(oracle, retriever, 5, nil)
	require.NoError(t, err)

	result, err := answerer.Answer(context.Background(), "question")
	require.NoError(t, err)
	assert.True(t, result.Degraded())
	assert.Equal(t, AnswerErrorMessage, result.Value.Text)
	assert.Equal(t, []core.ID{5}, result.Value.Sources)

	var oracleErr *ai.OracleError
	require.ErrorAs(t, result.Err, &oracleErr)
	assert.Equal(t, "answer", oracleErr.Op)
}

func TestAnswerer_RetrievalFailure(t *testing.T) {
	boom := errors.New("index unavailable")
	answerer, err := NewAnswerer(mock.NewMockOracle(), &fakeRetriever{err: boom}, 5, nil)
	require.NoError(t, err)

	_, err = answerer.Answer(context.Background(), "question")
	assert.ErrorIs(t, err, boom)
}

func TestNewAnswerer_RequiresCollaborators(t *testing.T) {
	_, err := NewAnswerer(nil, &fakeRetriever{}, 5, nil)
	assert.ErrorIs(t, err, ErrOracleRequired)

	_, err = NewAnswerer(mock.NewMockOracle(), nil, 5, nil)
	assert.ErrorIs(t, err, ErrRetrieverRequired)
}

func TestService_ProcessSearch(t *testing.T) {
	oracle := mock.NewMockOracle().On("Context:", "Found it.")
	retriever := &fakeRetriever{matches: []*core.ChunkMatch{match(9, 0, "notes", 1)}}
	service, err := NewService(oracle, retriever, WithTopK(2))
	require.NoError(t, err)

	reply, err := service.Process(context.Background(), "find my notes")
	require.NoError(t, err)
	assert.Equal(t, IntentSearch, reply.Intent)
	assert.Equal(t, "Found it.", reply.Text)
	assert.Equal(t, []core.ID{9}, reply.Sources)
	assert.False(t, reply.Degraded)
	assert.Equal(t, 2, retriever.k)
}

func TestService_ProcessEmptyIndex(t *testing.T) {
	service, err := NewService(mock.NewMockOracle(), &fakeRetriever{})
	require.NoError(t, err)

	reply, err := service.Process(context.Background(), "What is in my notes about taxes?")
	require.NoError(t, err)
	assert.Equal(t, NothingFoundMessage, reply.Text)
	assert.Empty(t, reply.Sources)
}

func TestService_ProcessGeneral(t *testing.T) {
	oracle := mock.NewMockOracle().
		On("Classify this user question", "GENERAL").
		On("general conversation query", "Good morning to you too!")
	retriever := &fakeRetriever{}
	service, err := NewService(oracle, retriever)
	require.NoError(t, err)

	reply, err := service.Process(context.Background(), "good morning")
	require.NoError(t, err)
	assert.Equal(t, IntentGeneral, reply.Intent)
	assert.Equal(t, "Good morning to you too!", reply.Text)
	assert.Empty(t, reply.Sources)
	assert.False(t, reply.Degraded)
	assert.Empty(t, retriever.queries)

	calls := oracle.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, 0.7, calls[1].Temperature)
	assert.Equal(t, 300, calls[1].MaxTokens)
}

func TestService_ProcessGeneralFailure(t *testing.T) {
	oracle := mock.NewMockOracle().
		On("Classify this user question", "GENERAL").
		OnError("general conversation query", errors.New("down"))
	service, err := NewService(oracle, &fakeRetriever{})
	require.NoError(t, err)

	reply, err := service.Process(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, GeneralErrorMessage, reply.Text)
	assert.True(t, reply.Degraded)
}
