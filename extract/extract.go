package extract

import (
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"
)

// Kind is the extraction strategy selected by a declared type.
type Kind int

const (
	KindUnsupported Kind = iota
	KindPDF
	KindText
	KindWord
)

// KindOf maps a declared type such as "PDF", ".md" or "docx" to its strategy.
func KindOf(declaredType string) Kind {
	switch NormalizeType(declaredType) {
	case "pdf":
		return KindPDF
	case "txt", "text", "md", "markdown":
		return KindText
	case "doc", "docx":
		return KindWord
	default:
		return KindUnsupported
	}
}

// NormalizeType lowercases a declared type and strips a leading dot.
func NormalizeType(declaredType string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(declaredType)), ".")
}

// Supported reports whether declaredType has an extractor.
func Supported(declaredType string) bool {
	return KindOf(declaredType) != KindUnsupported
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger.With("component", "extract")
	}
}

// Extractor converts files to plain text. It holds no per-call state and
// is safe for concurrent use.
type Extractor struct {
	logger *slog.Logger
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		logger: slog.Default().With("component", "extract"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the trimmed plain text of the file at path.
func (e *Extractor) Extract(path, declaredType string) (string, error) {
	var (
		text string
		err  error
	)
	switch KindOf(declaredType) {
	case KindPDF:
		text, err = readPDF(path)
	case KindText:
		text, err = readText(path)
	case KindWord:
		text, err = readWord(path)
	default:
		return "", &UnsupportedTypeError{Type: declaredType}
	}
	if err != nil {
		e.logger.Debug("extraction failed", "path", path, "type", declaredType, "err", err)
		return "", &ExtractionError{Path: path, Type: NormalizeType(declaredType), Err: err}
	}
	e.logger.Debug("extracted text", "path", path, "type", declaredType, "chars", utf8.RuneCountInString(text))
	return text, nil
}

func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", ErrInvalidEncoding
	}
	return strings.TrimSpace(string(data)), nil
}
