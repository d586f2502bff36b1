package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/personalmind/ai"
)

// Intent is the route chosen for a question.
type Intent string

const (
	IntentSearch  Intent = "SEARCH"
	IntentGeneral Intent = "GENERAL"
)

const (
	routerTemperature = 0.1
	routerMaxTokens   = 10
)

var ErrOracleRequired = errors.New("oracle required")

// SearchKeywords route a question to SEARCH without asking the oracle.
var SearchKeywords = []string{"find", "search", "show me", "what", "where", "which", "list", "tell me about"}

const routerPrompt = `Classify this user question into one category:
- SEARCH: User wants to find information from their documents
- GENERAL: General conversation or greeting

Question: %s

Return ONLY "SEARCH" or "GENERAL", nothing else.`

// Router classifies questions by intent.
type Router struct {
	oracle ai.Oracle
	logger *slog.Logger
}

// NewRouter creates a Router.
func NewRouter(oracle ai.Oracle, logger *slog.Logger) (*Router, error) {
	if oracle == nil {
		return nil, ErrOracleRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		oracle: oracle,
		logger: logger.With("component", "router"),
	}, nil
}

// Route picks SEARCH on any keyword hit. Otherwise the oracle decides, and
// any reply not containing SEARCH means GENERAL. If the oracle fails the
// question is routed to SEARCH.
func (r *Router) Route(ctx context.Context, question string) ai.Result[Intent] {
	if MatchesKeyword(question) {
		return ai.Ok(IntentSearch)
	}

	reply, err := r.oracle.Complete(ctx, fmt.Sprintf(routerPrompt, question), routerTemperature, routerMaxTokens)
	if err != nil {
		result := ai.Fallback("route", IntentSearch, err)
		r.logger.Warn("routing degraded", "err", result.Err)
		return result
	}
	if strings.Contains(strings.ToUpper(reply), string(IntentSearch)) {
		return ai.Ok(IntentSearch)
	}
	return ai.Ok(IntentGeneral)
}

// MatchesKeyword reports whether question contains a search keyword,
// ignoring case.
func MatchesKeyword(question string) bool {
	lower := strings.ToLower(question)
	for _, keyword := range SearchKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
