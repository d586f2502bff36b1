package ingestion

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// FolderExtensions lists the file extensions picked up from folders.
var FolderExtensions = []string{".pdf", ".txt", ".md", ".doc", ".docx"}

// FileError records a file that failed during folder ingestion.
type FileError struct {
	File string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

// FolderReport summarizes a folder ingestion run.
type FolderReport struct {
	RunID      string
	TotalFiles int
	Processed  int
	Failed     int
	Skipped    int
	Errors     []FileError
}

// FolderPreview counts the files a folder ingestion would pick up.
type FolderPreview struct {
	Path       string
	TotalFiles int
	ByType     map[string]int // Keyed by lowercase extension, e.g. ".pdf"
}

// IngestFolder ingests every supported file under root, recursively and
// one file at a time. Failures are recorded in the report and do not stop
// the run. The title of each document is its file name without extension.
//
// Cancelling ctx stops the run between files and returns the partial report
// with ctx.Err().
func (p *Pipeline) IngestFolder(ctx context.Context, root string) (*FolderReport, error) {
	files, err := scanFolder(root)
	if err != nil {
		return nil, err
	}

	report := &FolderReport{
		RunID:      ulid.Make().String(),
		TotalFiles: len(files),
		Errors:     []FileError{},
	}
	logger := p.logger.With("run_id", report.RunID)
	logger.Info("folder ingestion started", "path", root, "files", len(files))
	start := time.Now()

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		result, err := p.Ingest(ctx, file, titleFromPath(file), typeFromPath(file))
		switch {
		case err != nil:
			report.Failed++
			report.Errors = append(report.Errors, FileError{File: file, Err: err})
			logger.Warn("file failed", "file", file, "err", err)
		case result.Skipped:
			report.Skipped++
		default:
			report.Processed++
		}
	}

	logger.Info("folder ingestion finished",
		"processed", report.Processed,
		"failed", report.Failed,
		"skipped", report.Skipped,
		"elapsed", time.Since(start))
	return report, nil
}

// PreviewFolder reports what IngestFolder would pick up under root without
// ingesting anything.
func PreviewFolder(root string) (*FolderPreview, error) {
	files, err := scanFolder(root)
	if err != nil {
		return nil, err
	}
	preview := &FolderPreview{
		Path:       root,
		TotalFiles: len(files),
		ByType:     make(map[string]int),
	}
	for _, file := range files {
		preview.ByType[strings.ToLower(filepath.Ext(file))]++
	}
	return preview, nil
}

// SupportedFile reports whether path has one of FolderExtensions.
func SupportedFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, known := range FolderExtensions {
		if ext == known {
			return true
		}
	}
	return false
}

// scanFolder returns the supported regular files under root in lexical order.
// Unreadable subdirectories are skipped.
func scanFolder(root string) ([]string, error) {
	if root == "" {
		return nil, ErrInvalidFolder
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFolder, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidFolder, root)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return err
		}
		if d.Type().IsRegular() && SupportedFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
