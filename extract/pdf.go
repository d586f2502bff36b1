package extract

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// readPDF concatenates the text of every page, each followed by a newline.
// Pages without content contribute just the newline.
func readPDF(path string) (text string, err error) {
	// The pdf reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var sb strings.Builder
	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if !page.V.IsNull() {
			for _, name := range page.Fonts() {
				if _, ok := fonts[name]; !ok {
					font := page.Font(name)
					fonts[name] = &font
				}
			}
			content, err := page.GetPlainText(fonts)
			if err != nil {
				return "", fmt.Errorf("page %d: %w", i, err)
			}
			sb.WriteString(content)
		}
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String()), nil
}
