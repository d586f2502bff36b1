package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidEncoding indicates a text file is not valid UTF-8.
	ErrInvalidEncoding = errors.New("text is not valid UTF-8")

	// ErrMissingDocumentBody indicates a word-processor archive has no word/document.xml.
	ErrMissingDocumentBody = errors.New("word/document.xml not found")
)

// UnsupportedTypeError is returned for a declared type with no extractor.
type UnsupportedTypeError struct {
	Type string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported document type: %q", e.Type)
}

// ExtractionError is returned when the backing reader fails on a file.
type ExtractionError struct {
	Path string
	Type string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extracting %s text from %s: %v", e.Type, e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
