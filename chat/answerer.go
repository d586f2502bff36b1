package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/personalmind/ai"
	"github.com/poiesic/personalmind/core"
)

const (
	DefaultTopK = 5

	// NothingFoundMessage answers a question when retrieval finds no chunks.
	NothingFoundMessage = "I couldn't find any relevant information in your documents."

	// AnswerErrorMessage replaces the answer when the oracle fails.
	AnswerErrorMessage = "I encountered an error generating the answer. Please try again."

	ragTemperature = 0.5
	ragMaxTokens   = 500
)

var ErrRetrieverRequired = errors.New("retriever required")

const ragPrompt = `You are a helpful AI assistant for PersonalMind, a second brain system.
Use the following context from the user's documents to answer their question.
If the context doesn't contain relevant information, say so.

Context:
%s

Question: %s

Answer:`

// Retriever returns the chunks nearest to a query, best first.
type Retriever interface {
	Query(ctx context.Context, text string, k int) ([]*core.ChunkMatch, error)
}

// Answer is a generated reply and the documents it drew on.
type Answer struct {
	Text    string
	Sources []core.ID
}

// Answerer answers questions from retrieved document chunks.
type Answerer struct {
	oracle    ai.Oracle
	retriever Retriever
	topK      int
	logger    *slog.Logger
}

// NewAnswerer creates an Answerer that retrieves topK chunks per question.
// A non-positive topK uses DefaultTopK.
func NewAnswerer(oracle ai.Oracle, retriever Retriever, topK int, logger *slog.Logger) (*Answerer, error) {
	if oracle == nil {
		return nil, ErrOracleRequired
	}
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Answerer{
		oracle:    oracle,
		retriever: retriever,
		topK:      topK,
		logger:    logger.With("component", "answerer"),
	}, nil
}

// Answer retrieves context for question and asks the oracle to answer from
// it. An empty retrieval is a normal outcome with NothingFoundMessage and
// no sources. Only a retrieval failure is returned as an error; an oracle
// failure degrades to AnswerErrorMessage with the sources still reported.
func (a *Answerer) Answer(ctx context.Context, question string) (ai.Result[Answer], error) {
	matches, err := a.retriever.Query(ctx, question, a.topK)
	if err != nil {
		return ai.Result[Answer]{}, fmt.Errorf("retrieving context: %w", err)
	}
	if len(matches) == 0 {
		a.logger.Debug("no chunks retrieved", "question", question)
		return ai.Ok(Answer{Text: NothingFoundMessage}), nil
	}

	sources := SourceIDs(matches)
	prompt := fmt.Sprintf(ragPrompt, BuildContext(matches), question)
	reply, err := a.oracle.Complete(ctx, prompt, ragTemperature, ragMaxTokens)
	if err != nil {
		result := ai.Fallback("answer", Answer{Text: AnswerErrorMessage, Sources: sources}, err)
		a.logger.Warn("answer generation degraded", "err", result.Err)
		return result, nil
	}
	return ai.Ok(Answer{Text: reply, Sources: sources}), nil
}

// BuildContext labels each chunk with its 1-based rank and joins them with
// blank lines.
func BuildContext(matches []*core.ChunkMatch) string {
	parts := make([]string, len(matches))
	for i, m := range matches {
		parts[i] = fmt.Sprintf("[Chunk %d]: %s", i+1, m.Chunk.Text)
	}
	return strings.Join(parts, "\n\n")
}

// SourceIDs returns the distinct owning documents in rank order.
func SourceIDs(matches []*core.ChunkMatch) []core.ID {
	seen := make(map[core.ID]bool, len(matches))
	var ids []core.ID
	for _, m := range matches {
		if seen[m.Chunk.DocumentId] {
			continue
		}
		seen[m.Chunk.DocumentId] = true
		ids = append(ids, m.Chunk.DocumentId)
	}
	return ids
}
