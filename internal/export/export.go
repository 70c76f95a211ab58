// Package export renders parsed curricula as downloadable documents.
package export

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/courseforge/site/internal/curriculum"
)

// Format is a downloadable document type.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
	FormatText Format = "txt"
)

// ParseFormat maps a query value to a Format. An empty value means PDF.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatPDF:
		return FormatPDF, nil
	case FormatXLSX:
		return FormatXLSX, nil
	case FormatText, "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Filename returns a download name for c in format f.
func (f Format) Filename(c curriculum.ParsedCurriculum) string {
	return slug(c.Title) + "." + string(f)
}

// Text writes raw verbatim, or the canonical rendering of c when raw is empty.
func Text(w io.Writer, c curriculum.ParsedCurriculum, raw string) error {
	if strings.TrimSpace(raw) == "" {
		raw = curriculum.Format(c)
	}
	_, err := io.WriteString(w, raw)
	return err
}

// renderPDF is swapped in tests to exercise the fallback.
var renderPDF = PDF

// Document writes c as a PDF. If the PDF cannot be produced it writes the
// plain-text export instead and reports FormatText, so a download always
// succeeds.
func Document(w io.Writer, c curriculum.ParsedCurriculum, raw string) (Format, error) {
	var buf bytes.Buffer
	if err := safePDF(&buf, c); err != nil {
		slog.Warn("PDF export failed, falling back to text", "title", c.Title, "error", err)
		return FormatText, Text(w, c, raw)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return FormatPDF, err
	}
	return FormatPDF, nil
}

// Write renders c in format f.
func Write(w io.Writer, f Format, c curriculum.ParsedCurriculum, raw string) (Format, error) {
	switch f {
	case FormatPDF:
		return Document(w, c, raw)
	case FormatXLSX:
		return FormatXLSX, XLSX(w, c)
	default:
		return FormatText, Text(w, c, raw)
	}
}

func safePDF(w io.Writer, c curriculum.ParsedCurriculum) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf render panic: %v", r)
		}
	}()
	return renderPDF(w, c)
}

func slug(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return "curriculum"
	}
	return s
}
