package insights

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/personalmind/ai"
	"github.com/poiesic/personalmind/core"
	"github.com/poiesic/personalmind/storage"
)

const (
	// RecentWindow is how far back a document counts as recent.
	RecentWindow = 7 * 24 * time.Hour

	// TopTopicCount is how many topics Stats reports.
	TopTopicCount = 5

	// promptTopicCount is how many of the top topics are quoted in prompts.
	promptTopicCount = 3

	// patternMinDocuments is the library size at which patterns are reported.
	patternMinDocuments = 3

	insightTemperature  = 0.7
	reflectionMaxTokens = 150
	insightMaxTokens    = 100
)

var (
	ErrDocumentRepositoryRequired = errors.New("document repository required")
	ErrTopicRepositoryRequired    = errors.New("topic repository required")
	ErrTaskRepositoryRequired     = errors.New("task repository required")
	ErrOracleRequired             = errors.New("oracle required")
)

// Type names the kind of an insight.
type Type string

const (
	TypeReflection  Type = "reflection"
	TypeSuggestion  Type = "suggestion"
	TypePattern     Type = "pattern"
	TypeAchievement Type = "achievement"
)

type Insight struct {
	ID      string
	Type    Type
	Title   string
	Content string
	Date    time.Time

	// Degraded is set when Content is templated text standing in for a
	// failed oracle call.
	Degraded bool
}

type Stats struct {
	TotalDocuments  int
	RecentDocuments int
	TotalTasks      int
	CompletedTasks  int
	PendingTasks    int
	TopTopics       []*core.Topic
}

const reflectionPrompt = `Generate a brief, encouraging weekly reflection for a user based on their activity:
- Uploaded %d documents this week
- Main topics: %s
- Completed %d tasks

Write 2-3 sentences that:
1. Acknowledge their progress
2. Highlight their focus areas
3. Suggest a next step

Keep it personal, positive, and actionable.`

const suggestionPrompt = `Generate a brief, actionable suggestion for a user based on their knowledge base:
- Main topics: %s
- Pending tasks: %d

Write 1-2 sentences suggesting a practical action they could take to apply their knowledge or organize their work better.

Keep it specific and actionable.`

const patternPrompt = `Based on a user's focus on these topics: %s

Generate a brief insight about their learning pattern or suggest how these topics connect.

Write 1-2 sentences that help them see the bigger picture or optimize their learning approach.`

// Option configures a Generator.
type Option func(*Generator) error

// WithPoolSize sets how many oracle calls may run at once.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(g *Generator) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if g.pool != nil {
			g.pool.Release()
		}
		g.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) error {
		if logger == nil {
			logger = slog.Default()
		}
		g.logger = logger.With("component", "insights")
		return nil
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) error {
		g.now = now
		return nil
	}
}

// Generator computes statistics and insights over the stores.
type Generator struct {
	documents storage.DocumentRepository
	topics    storage.TopicRepository
	tasks     storage.TaskRepository
	oracle    ai.Oracle
	pool      *ants.Pool
	now       func() time.Time
	logger    *slog.Logger
}

// NewGenerator creates a Generator. Call Release when done with it.
func NewGenerator(
	documents storage.DocumentRepository,
	topics storage.TopicRepository,
	tasks storage.TaskRepository,
	oracle ai.Oracle,
	opts ...Option,
) (*Generator, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if topics == nil {
		return nil, ErrTopicRepositoryRequired
	}
	if tasks == nil {
		return nil, ErrTaskRepositoryRequired
	}
	if oracle == nil {
		return nil, ErrOracleRequired
	}

	g := &Generator{
		documents: documents,
		topics:    topics,
		tasks:     tasks,
		oracle:    oracle,
		now:       time.Now,
		logger:    slog.Default().With("component", "insights"),
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			g.Release()
			return nil, err
		}
	}

	if g.pool == nil {
		poolSize := runtime.NumCPU() / 2
		if poolSize < 1 {
			poolSize = 1
		}
		pool, err := ants.NewPool(poolSize)
		if err != nil {
			return nil, err
		}
		g.pool = pool
	}
	return g, nil
}

// Release stops the worker pool.
// The generator should not be used after calling Release.
func (g *Generator) Release() {
	if g.pool != nil {
		g.pool.Release()
	}
}

// Stats counts documents and tasks and returns the most frequent topics.
func (g *Generator) Stats(ctx context.Context) (*Stats, error) {
	docs, err := g.documents.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	tasks, err := g.tasks.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	topics, err := g.topics.ListTopics(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing topics: %w", err)
	}

	stats := &Stats{
		TotalDocuments: len(docs),
		TotalTasks:     len(tasks),
	}
	since := g.now().Add(-RecentWindow)
	for _, doc := range docs {
		if !doc.CreatedAt.Before(since) {
			stats.RecentDocuments++
		}
	}
	for _, task := range tasks {
		switch task.Status {
		case core.TaskStatusCompleted:
			stats.CompletedTasks++
		case core.TaskStatusPending:
			stats.PendingTasks++
		}
	}
	if len(topics) > TopTopicCount {
		topics = topics[:TopTopicCount]
	}
	stats.TopTopics = topics
	return stats, nil
}

// Generate returns the insights that apply to the current stats, always in
// the order reflection, suggestion, pattern, achievement. The oracle-backed
// insights are generated concurrently.
func (g *Generator) Generate(ctx context.Context) ([]Insight, error) {
	stats, err := g.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return g.FromStats(ctx, stats)
}

// job is one oracle-backed insight.
type job struct {
	typ       Type
	title     string
	prompt    string
	maxTokens int
	fallback  string
}

// FromStats generates insights for precomputed stats.
func (g *Generator) FromStats(ctx context.Context, stats *Stats) ([]Insight, error) {
	date := g.now()
	topics := topicList(stats.TopTopics)

	var jobs []job
	if stats.RecentDocuments > 0 {
		jobs = append(jobs, job{
			typ:       TypeReflection,
			title:     "Weekly Reflection",
			prompt:    fmt.Sprintf(reflectionPrompt, stats.RecentDocuments, topics, stats.CompletedTasks),
			maxTokens: reflectionMaxTokens,
			fallback: fmt.Sprintf("This week you've been productive with %d new documents focusing on %s. Keep up the great work!",
				stats.RecentDocuments, topics),
		})
	}
	if stats.TotalDocuments > 0 && stats.PendingTasks > 0 {
		jobs = append(jobs, job{
			typ:       TypeSuggestion,
			title:     "Suggested Action",
			prompt:    fmt.Sprintf(suggestionPrompt, topics, stats.PendingTasks),
			maxTokens: insightMaxTokens,
			fallback: fmt.Sprintf("Consider organizing your %d pending tasks by priority to stay focused on what matters most.",
				stats.PendingTasks),
		})
	}
	if stats.TotalDocuments >= patternMinDocuments && len(stats.TopTopics) > 0 {
		jobs = append(jobs, job{
			typ:       TypePattern,
			title:     "Learning Pattern Detected",
			prompt:    fmt.Sprintf(patternPrompt, topics),
			maxTokens: insightMaxTokens,
			fallback: fmt.Sprintf("Your focus on %s shows a clear learning direction. Consider how these topics interconnect.",
				topics),
		})
	}

	insights := make([]Insight, len(jobs))
	var wg sync.WaitGroup
	for i, j := range jobs {
		wg.Add(1)
		err := g.pool.Submit(func() {
			defer wg.Done()
			insights[i] = g.run(ctx, j, date)
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return nil, fmt.Errorf("submitting %s insight: %w", j.typ, err)
		}
	}
	wg.Wait()

	if content, ok := Achievement(stats.CompletedTasks, stats.TotalTasks); ok {
		insights = append(insights, Insight{
			ID:      insightID(TypeAchievement),
			Type:    TypeAchievement,
			Title:   "Milestone Reached",
			Content: content,
			Date:    date,
		})
	}
	return insights, nil
}

func (g *Generator) run(ctx context.Context, j job, date time.Time) Insight {
	insight := Insight{
		ID:    insightID(j.typ),
		Type:  j.typ,
		Title: j.title,
		Date:  date,
	}
	result := g.complete(ctx, j)
	insight.Content = result.Value
	insight.Degraded = result.Degraded()
	return insight
}

func (g *Generator) complete(ctx context.Context, j job) ai.Result[string] {
	reply, err := g.oracle.Complete(ctx, j.prompt, insightTemperature, j.maxTokens)
	if err == nil && reply == "" {
		err = ai.ErrEmptyReply
	}
	if err != nil {
		result := ai.Fallback(string(j.typ), j.fallback, err)
		g.logger.Warn("insight degraded", "type", j.typ, "err", result.Err)
		return result
	}
	return ai.Ok(reply)
}

// Achievement describes task completion progress. It reports false when no
// task has been completed.
func Achievement(completed, total int) (string, bool) {
	if completed <= 0 {
		return "", false
	}
	var rate float64
	if total > 0 {
		rate = float64(completed) / float64(total) * 100
	}
	switch {
	case completed >= 10:
		return fmt.Sprintf("Congratulations! You've completed %d tasks with a %.0f%% completion rate. Your consistency is impressive!",
			completed, rate), true
	case completed >= 5:
		return fmt.Sprintf("Great progress! You've completed %d tasks. Keep building this momentum!", completed), true
	default:
		return fmt.Sprintf("You've completed %d tasks. Every step forward counts!", completed), true
	}
}

func insightID(t Type) string {
	return string(t) + "_1"
}

func topicList(topics []*core.Topic) string {
	if len(topics) > promptTopicCount {
		topics = topics[:promptTopicCount]
	}
	names := make([]string, len(topics))
	for i, topic := range topics {
		names[i] = topic.Name
	}
	return strings.Join(names, ", ")
}
