// Package chunker splits text into overlapping fixed-size windows.
//
// Lengths are counted in runes. For text of length L, window size S and
// overlap O with L > S, Chunk yields ceil((L-S)/(S-O)) + 1 windows, where
// each window starts S-O runes after the previous one and shares exactly O
// runes with it. The final window may be shorter than S.
package chunker

import (
	"errors"
	"fmt"
)

const (
	DefaultSize    = 500
	DefaultOverlap = 50
)

// ErrInvalidWindow is returned for a size/overlap pair that cannot advance.
var ErrInvalidWindow = errors.New("invalid chunk window")

// Chunker holds a validated window configuration.
type Chunker struct {
	size    int
	overlap int
}

// New creates a Chunker. size must be positive and 0 <= overlap < size.
func New(size, overlap int) (*Chunker, error) {
	if err := validate(size, overlap); err != nil {
		return nil, err
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Default returns a Chunker with DefaultSize and DefaultOverlap.
func Default() *Chunker {
	return &Chunker{size: DefaultSize, overlap: DefaultOverlap}
}

func (c *Chunker) Size() int    { return c.size }
func (c *Chunker) Overlap() int { return c.overlap }

// Split chunks text with the configured window.
func (c *Chunker) Split(text string) []string {
	return split([]rune(text), c.size, c.overlap)
}

// Chunk splits text with the given window, validating it first.
func Chunk(text string, size, overlap int) ([]string, error) {
	if err := validate(size, overlap); err != nil {
		return nil, err
	}
	return split([]rune(text), size, overlap), nil
}

// Count returns how many chunks text of length runes would produce.
func Count(length, size, overlap int) int {
	if length <= size {
		return 1
	}
	step := size - overlap
	return (length-size+step-1)/step + 1
}

func validate(size, overlap int) error {
	switch {
	case size <= 0:
		return fmt.Errorf("%w: size %d must be positive", ErrInvalidWindow, size)
	case overlap < 0:
		return fmt.Errorf("%w: overlap %d cannot be negative", ErrInvalidWindow, overlap)
	case overlap >= size:
		return fmt.Errorf("%w: overlap %d must be less than size %d", ErrInvalidWindow, overlap, size)
	}
	return nil
}

// split stops once a window reaches the end of the text, so no trailing
// window is made entirely of overlap.
func split(runes []rune, size, overlap int) []string {
	if len(runes) <= size {
		return []string{string(runes)}
	}

	step := size - overlap
	chunks := make([]string, 0, Count(len(runes), size, overlap))
	for start := 0; ; start += step {
		end := min(start+size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}
