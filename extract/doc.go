// Package extract turns a stored document into plain text.
//
// Extraction dispatches on the declared type, never on sniffed content:
//
//   - pdf: per-page text, each page followed by a newline, trimmed
//   - txt, text, md, markdown: the file read as-is, trimmed
//   - doc, docx: paragraph texts joined by newlines, trimmed
//
// Any other declared type fails with *UnsupportedTypeError. A file the
// backing reader cannot decode fails with *ExtractionError, which wraps the
// underlying cause.
package extract
