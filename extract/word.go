package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"
)

const documentBodyPath = "word/document.xml"

// readWord joins the paragraph texts of a word-processor archive.
func readWord(path string) (string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", err
	}
	defer archive.Close()

	for _, file := range archive.File {
		if file.Name != documentBodyPath {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", err
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", err
		}
		return parseWordBody(content)
	}
	return "", ErrMissingDocumentBody
}

// parseWordBody walks document.xml and returns the body paragraphs joined
// by newlines. Text is collected from every w:t under a paragraph, including
// runs nested in hyperlinks, insertions and smart tags. w:tab becomes a tab
// and w:br or w:cr a line break.
func parseWordBody(content []byte) (string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(content))

	var (
		paragraphs []string
		current    strings.Builder
		stack      []string
		paraDepth  = -1 // stack depth of the open body paragraph
	)
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch el := token.(type) {
		case xml.StartElement:
			name := el.Name.Local
			switch {
			case paraDepth < 0 && name == "p" && len(stack) > 0 && stack[len(stack)-1] == "body":
				paraDepth = len(stack)
				current.Reset()
			case paraDepth >= 0 && name == "tab":
				current.WriteByte('\t')
			case paraDepth >= 0 && (name == "br" || name == "cr"):
				current.WriteByte('\n')
			}
			stack = append(stack, name)
		case xml.EndElement:
			if len(stack) == 0 {
				continue
			}
			stack = stack[:len(stack)-1]
			if len(stack) == paraDepth {
				paragraphs = append(paragraphs, current.String())
				paraDepth = -1
			}
		case xml.CharData:
			if paraDepth >= 0 && len(stack) > 0 && stack[len(stack)-1] == "t" {
				current.Write(el)
			}
		}
	}
	return strings.TrimSpace(strings.Join(paragraphs, "\n")), nil
}
