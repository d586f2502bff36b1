package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/poiesic/personalmind/reindex"
	"github.com/urfave/cli/v2"
)

func topicsCommand() *cli.Command {
	return &cli.Command{
		Name:   "topics",
		Usage:  "List topics by frequency",
		Action: topicsAction,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of topics to show (0 for all)",
			},
		},
	}
}

func documentsCommand() *cli.Command {
	return &cli.Command{
		Name:   "documents",
		Usage:  "List ingested documents with their processing stage",
		Action: documentsAction,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "incomplete",
				Usage: "Only show documents whose ingestion did not finish",
			},
		},
	}
}

func insightsCommand() *cli.Command {
	return &cli.Command{
		Name:   "insights",
		Usage:  "Show knowledge-base statistics and generated insights",
		Action: insightsAction,
	}
}

func reindexCommand() *cli.Command {
	return &cli.Command{
		Name:   "reindex",
		Usage:  "Re-embed all indexed chunks with the configured embedding model",
		Action: reindexAction,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "Number of chunks to process in each batch",
				Value: 100,
			},
			&cli.IntFlag{
				Name:  "report-interval",
				Usage: "Report progress every N chunks",
				Value: 100,
			},
			&cli.IntFlag{
				Name:  "max-retries",
				Usage: "Maximum retry attempts for failed operations",
				Value: 3,
			},
			&cli.DurationFlag{
				Name:  "retry-delay",
				Usage: "Base delay for exponential backoff",
				Value: 1 * time.Second,
			},
		},
	}
}

func topicsAction(c *cli.Context) error {
	db, _, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	topics, err := db.TopicRepository().ListTopics(c.Context)
	if err != nil {
		return err
	}
	if limit := c.Int("limit"); limit > 0 && len(topics) > limit {
		topics = topics[:limit]
	}
	if len(topics) == 0 {
		fmt.Fprintln(c.App.Writer, "No topics.")
		return nil
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FREQUENCY\tTOPIC")
	for _, t := range topics {
		fmt.Fprintf(tw, "%.0f\t%s\n", t.Frequency, t.Name)
	}
	return tw.Flush()
}

func documentsAction(c *cli.Context) error {
	db, _, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := db.DocumentRepository()
	list := repo.ListDocuments
	if c.Bool("incomplete") {
		list = repo.ListIncompleteDocuments
	}
	docs, err := list(c.Context)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Fprintln(c.App.Writer, "No documents.")
		return nil
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTAGE\tCATEGORY\tTYPE\tTITLE\tPATH")
	for _, d := range docs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", d.Id, d.Stage, d.Category, d.Type, d.Title, d.Path)
	}
	return tw.Flush()
}

func insightsAction(c *cli.Context) error {
	db, _, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	generator, err := db.NewInsightsGenerator()
	if err != nil {
		return err
	}
	defer generator.Release()

	stats, err := generator.Stats(c.Context)
	if err != nil {
		return err
	}
	w := c.App.Writer
	fmt.Fprintf(w, "Documents: %d (%d this week)\n", stats.TotalDocuments, stats.RecentDocuments)
	fmt.Fprintf(w, "Tasks:     %d (%d completed, %d pending)\n", stats.TotalTasks, stats.CompletedTasks, stats.PendingTasks)
	if len(stats.TopTopics) > 0 {
		fmt.Fprint(w, "Topics:   ")
		for _, t := range stats.TopTopics {
			fmt.Fprintf(w, " %s (%.0f)", t.Name, t.Frequency)
		}
		fmt.Fprintln(w)
	}

	insights, err := generator.FromStats(c.Context, stats)
	if err != nil {
		return err
	}
	for _, in := range insights {
		fmt.Fprintf(w, "\n%s [%s]\n%s\n", in.Title, in.Date.Format("2006-01-02"), in.Content)
	}
	return nil
}

func reindexAction(c *cli.Context) error {
	cfg := &reindex.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if cfg.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if cfg.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	db, _, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	reindexer, err := db.NewReindexer(cfg, c.App.ErrWriter)
	if err != nil {
		return err
	}
	_, err = reindexer.Run(c.Context)
	return err
}
