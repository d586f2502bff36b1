package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/poiesic/personalmind"
	"github.com/poiesic/personalmind/blobstore"
	"github.com/poiesic/personalmind/config"
	"github.com/poiesic/personalmind/ingestion"
	"github.com/urfave/cli/v2"
)

func ingestCommand() *cli.Command {
	return &cli.Command{
		Name:      "ingest",
		Usage:     "Ingest a single document",
		ArgsUsage: "<file>",
		Action:    ingestAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "title",
				Usage: "Document title (defaults to the file name)",
			},
			&cli.StringFlag{
				Name:  "type",
				Usage: "Document type: pdf, txt, md, docx (defaults to the file extension)",
			},
		},
	}
}

func uploadCommand() *cli.Command {
	return &cli.Command{
		Name:      "upload",
		Usage:     "Copy a document into the upload directory and ingest it",
		ArgsUsage: "<file>",
		Action:    uploadAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "title",
				Usage: "Document title (defaults to the file name)",
			},
		},
	}
}

func ingestFolderCommand() *cli.Command {
	return &cli.Command{
		Name:      "ingest-folder",
		Usage:     "Ingest every supported document under a folder",
		ArgsUsage: "[dir]",
		Action:    ingestFolderAction,
	}
}

func previewCommand() *cli.Command {
	return &cli.Command{
		Name:      "preview",
		Usage:     "Count the documents a folder ingestion would pick up",
		ArgsUsage: "[dir]",
		Action:    previewAction,
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Ingest a folder, then keep ingesting new documents as they appear",
		ArgsUsage: "[dir]",
		Action:    watchAction,
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "settle",
				Usage: "How long a file must be unchanged before it is ingested",
				Value: ingestion.DefaultSettleDelay,
			},
		},
	}
}

func newPipeline(db *personalmind.Database, cfg *config.Config) (*ingestion.Pipeline, error) {
	return db.NewIngestionPipeline(
		ingestion.WithChunkWindow(cfg.Ingestion.ChunkSize, cfg.Ingestion.ChunkOverlap),
		ingestion.WithTopicCount(cfg.Ingestion.TopicCount),
	)
}

func ingestAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one file")
	}
	path, err := filepath.Abs(c.Args().First())
	if err != nil {
		return err
	}

	db, cfg, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	pipeline, err := newPipeline(db, cfg)
	if err != nil {
		return err
	}
	result, err := pipeline.Ingest(c.Context, path, c.String("title"), c.String("type"))
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", path, err)
	}
	printResult(c.App.Writer, result)
	return nil
}

func uploadAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one file")
	}
	source := c.Args().First()

	db, cfg, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	store, err := blobstore.New(cfg.Ingestion.UploadDir)
	if err != nil {
		return err
	}
	f, err := os.Open(source)
	if err != nil {
		return err
	}
	locator, err := store.Put(filepath.Base(source), f)
	f.Close()
	if err != nil {
		return fmt.Errorf("storing %s: %w", source, err)
	}
	path, err := store.Resolve(locator)
	if err != nil {
		return err
	}

	title := c.String("title")
	if title == "" {
		base := filepath.Base(source)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	pipeline, err := newPipeline(db, cfg)
	if err != nil {
		return err
	}
	result, err := pipeline.Ingest(c.Context, path, title, "")
	if err != nil {
		// Nothing references an upload that failed before being recorded.
		if !isRecorded(c, db, path) {
			discardUpload(store, locator, slog.Default())
		}
		return fmt.Errorf("ingesting %s: %w", source, err)
	}
	fmt.Fprintf(c.App.Writer, "Stored as %s\n", locator)
	printResult(c.App.Writer, result)
	return nil
}

// discardUpload removes a stored upload. A failure leaves an orphaned file,
// so it is logged with the locator.
func discardUpload(store *blobstore.Store, locator string, logger *slog.Logger) {
	if err := store.Delete(locator); err != nil {
		logger.Warn("failed to remove orphaned upload", "locator", locator, "root", store.Root(), "err", err)
	}
}

func isRecorded(c *cli.Context, db *personalmind.Database, path string) bool {
	_, err := db.DocumentRepository().FindDocumentByPath(c.Context, path)
	return err == nil
}

// folderArg returns the folder argument or the configured knowledge-base folder.
func folderArg(c *cli.Context, cfg *config.Config) (string, error) {
	dir := c.Args().First()
	if dir == "" && cfg != nil {
		dir = cfg.Ingestion.KnowledgeBaseFolder
	}
	if dir == "" {
		return "", fmt.Errorf("%w: no folder given and knowledge_base_folder is not configured", ingestion.ErrInvalidFolder)
	}
	return filepath.Abs(dir)
}

func ingestFolderAction(c *cli.Context) error {
	db, cfg, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	dir, err := folderArg(c, cfg)
	if err != nil {
		return err
	}
	pipeline, err := newPipeline(db, cfg)
	if err != nil {
		return err
	}
	report, err := pipeline.IngestFolder(c.Context, dir)
	if report != nil {
		printReport(c.App.Writer, report)
	}
	return err
}

func previewAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	dir, err := folderArg(c, cfg)
	if err != nil {
		return err
	}
	preview, err := ingestion.PreviewFolder(dir)
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "%s: %d files\n", preview.Path, preview.TotalFiles)
	exts := make([]string, 0, len(preview.ByType))
	for ext := range preview.ByType {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	for _, ext := range exts {
		fmt.Fprintf(w, "  %-6s %d\n", ext, preview.ByType[ext])
	}
	return nil
}

func watchAction(c *cli.Context) error {
	db, cfg, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	dir, err := folderArg(c, cfg)
	if err != nil {
		return err
	}
	pipeline, err := newPipeline(db, cfg)
	if err != nil {
		return err
	}

	// Start watching before the initial pass so nothing slips between them.
	w := c.App.Writer
	watcher, err := ingestion.NewWatcher(pipeline, dir,
		ingestion.WithSettleDelay(c.Duration("settle")),
		ingestion.WithResultHandler(func(path string, result *ingestion.Result, err error) {
			if err != nil {
				fmt.Fprintf(w, "Failed: %s: %v\n", path, err)
				return
			}
			if !result.Skipped {
				printResult(w, result)
			}
		}))
	if err != nil {
		return err
	}
	defer watcher.Close()

	report, err := pipeline.IngestFolder(c.Context, dir)
	if err != nil {
		return err
	}
	printReport(w, report)

	fmt.Fprintf(w, "Watching %s (Ctrl-C to stop)\n", dir)
	if err := watcher.Run(c.Context); err != nil && c.Context.Err() == nil {
		return err
	}
	return nil
}

func printResult(w io.Writer, result *ingestion.Result) {
	if result.Skipped {
		fmt.Fprintf(w, "Skipped %q: already ingested as document %d\n", result.Title, result.DocumentID)
		return
	}
	fmt.Fprintf(w, "Ingested %q as document %d\n", result.Title, result.DocumentID)
	fmt.Fprintf(w, "  category: %s\n", result.Category)
	fmt.Fprintf(w, "  topics:   %s\n", strings.Join(result.Topics, ", "))
	fmt.Fprintf(w, "  chunks:   %d\n", result.Chunks)
	fmt.Fprintf(w, "  tasks:    %d\n", result.Tasks)
}

func printReport(w io.Writer, report *ingestion.FolderReport) {
	fmt.Fprintf(w, "Run %s: %d files, %d processed, %d skipped, %d failed\n",
		report.RunID, report.TotalFiles, report.Processed, report.Skipped, report.Failed)
	for _, fe := range report.Errors {
		fmt.Fprintf(w, "  %s\n", fe.Error())
	}
}
