package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/personalmind/ai"
	"github.com/poiesic/personalmind/core"
)

const (
	DefaultTopicCount = 3

	// FallbackTopic is the single topic reported when extraction degrades.
	FallbackTopic = "General"

	// FallbackCategory is used when the reply names no known category.
	FallbackCategory = core.CategoryResources

	topicsInputLimit   = 2000
	topicsTemperature  = 0.3
	topicsMaxTokens    = 100
	categoryInputLimit = 1500
	categoryTemp       = 0.2
	categoryMaxTokens  = 20
)

var ErrOracleRequired = errors.New("oracle required")

const topicsPrompt = `Analyze the following text and extract the top %d main topics or themes.
Return ONLY a JSON array of topic names, nothing else.

Text: %s

Example output: ["Machine Learning", "Data Science", "Python"]
`

const categoryPrompt = `Classify this document into ONE of these PARA categories:
- Projects: Active assignments, personal projects, things with deadlines
- Areas: Ongoing responsibilities (academics, career, health, finance)
- Resources: Learning materials, references, guides, documentation
- Archives: Completed or old documents

Title: %s
Text: %s

Return ONLY the category name (Projects, Areas, Resources, or Archives), nothing else.`

// Option configures a Classifier.
type Option func(*Classifier)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Classifier) {
		c.logger = logger.With("component", "classify")
	}
}

// Classifier extracts topics and assigns categories using an oracle.
type Classifier struct {
	oracle ai.Oracle
	logger *slog.Logger
}

// New creates a Classifier.
func New(oracle ai.Oracle, opts ...Option) (*Classifier, error) {
	if oracle == nil {
		return nil, ErrOracleRequired
	}
	c := &Classifier{
		oracle: oracle,
		logger: slog.Default().With("component", "classify"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ExtractTopics asks for the top n topics of text. The reply must be a
// JSON array of strings; it is truncated to n, blank names are dropped and
// names equal after normalization are kept once.
func (c *Classifier) ExtractTopics(ctx context.Context, text string, n int) ai.Result[[]string] {
	if n <= 0 {
		return ai.Ok[[]string](nil)
	}

	prompt := fmt.Sprintf(topicsPrompt, n, ai.Truncate(text, topicsInputLimit))
	reply, err := c.oracle.Complete(ctx, prompt, topicsTemperature, topicsMaxTokens)
	if err != nil {
		return c.topicsFallback(err)
	}

	var topics []string
	if err := json.Unmarshal([]byte(ai.StripCodeFence(reply)), &topics); err != nil {
		return c.topicsFallback(fmt.Errorf("%w: %w", ai.ErrMalformedReply, err))
	}
	if len(topics) > n {
		topics = topics[:n]
	}
	return ai.Ok(dedupeTopics(topics))
}

func (c *Classifier) topicsFallback(err error) ai.Result[[]string] {
	result := ai.Fallback("topics", []string{FallbackTopic}, err)
	c.logger.Warn("topic extraction degraded", "err", result.Err)
	return result
}

// ClassifyCategory assigns one PARA category to a document. The reply is
// scanned for each label in order, ignoring case, and the first hit wins.
func (c *Classifier) ClassifyCategory(ctx context.Context, text, title string) ai.Result[core.Category] {
	prompt := fmt.Sprintf(categoryPrompt, title, ai.Truncate(text, categoryInputLimit))
	reply, err := c.oracle.Complete(ctx, prompt, categoryTemp, categoryMaxTokens)
	if err != nil {
		return c.categoryFallback(err)
	}

	if category, ok := MatchCategory(reply); ok {
		return ai.Ok(category)
	}
	return c.categoryFallback(fmt.Errorf("%w: no category in %q", ai.ErrMalformedReply, reply))
}

func (c *Classifier) categoryFallback(err error) ai.Result[core.Category] {
	result := ai.Fallback("category", FallbackCategory, err)
	c.logger.Warn("category classification degraded", "err", result.Err)
	return result
}

// MatchCategory finds the first PARA label contained in reply, ignoring case.
func MatchCategory(reply string) (core.Category, bool) {
	lower := strings.ToLower(reply)
	for _, category := range core.Categories {
		if strings.Contains(lower, strings.ToLower(string(category))) {
			return category, true
		}
	}
	return "", false
}

func dedupeTopics(topics []string) []string {
	seen := make(map[string]bool, len(topics))
	out := make([]string, 0, len(topics))
	for _, topic := range topics {
		topic = strings.TrimSpace(topic)
		key := core.NormalizeTopicName(topic)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, topic)
	}
	return out
}
