package export

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"

	"github.com/courseforge/site/internal/curriculum"
)

const sampleRaw = `## Course Title
Go for Backend Engineers

## Course Description
Build production services in Go.

## Learning Objectives
- Write idiomatic Go
- Ship a service

### Week 1
**Module Title:** Foundations
**Key Topics:**
- Types
- Errors
**Activities:**
- Build a CLI

### Week 2
**Module Title:** Concurrency – goroutines & channels
**Key Topics:**
- Goroutines
**Resources:**
- Effective Go

## Capstone Project
Ship a URL shortener.`

func sample() curriculum.ParsedCurriculum {
	return curriculum.Parse(sampleRaw)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatPDF, false},
		{"pdf", FormatPDF, false},
		{"XLSX", FormatXLSX, false},
		{"txt", FormatText, false},
		{"text", FormatText, false},
		{"docx", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFilename(t *testing.T) {
	c := sample()
	if got := FormatPDF.Filename(c); got != "go-for-backend-engineers.pdf" {
		t.Errorf("Filename() = %q", got)
	}
	if got := FormatText.Filename(curriculum.ParsedCurriculum{Title: "!!!"}); got != "curriculum.txt" {
		t.Errorf("Filename() = %q", got)
	}
}

func TestPDF(t *testing.T) {
	var buf bytes.Buffer
	if err := PDF(&buf, sample()); err != nil {
		t.Fatalf("PDF() error = %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatal("output is not a PDF")
	}

	r, err := pdf.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("reading generated PDF: %v", err)
	}
	if r.NumPage() < 1 {
		t.Errorf("NumPage() = %d, want at least 1", r.NumPage())
	}
}

func TestPDF_Paginates(t *testing.T) {
	c := sample()
	for i := 3; i <= 40; i++ {
		c.Weeks = append(c.Weeks, curriculum.WeekData{
			WeekNumber:  i,
			ModuleTitle: "Module",
			KeyTopics:   []string{"one", "two", "three"},
			Activities:  []string{"practice"},
			Resources:   []string{},
		})
	}

	var buf bytes.Buffer
	if err := PDF(&buf, c); err != nil {
		t.Fatalf("PDF() error = %v", err)
	}
	r, err := pdf.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("reading generated PDF: %v", err)
	}
	if r.NumPage() < 2 {
		t.Errorf("NumPage() = %d, want multiple pages", r.NumPage())
	}
}

func TestLatin1(t *testing.T) {
	tr := newLatin1()
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"café", "caf\xe9"},
		{"en – dash", "en \x96 dash"},
		{"emoji 🚀", "emoji ?"},
	}
	for _, tt := range tests {
		if got := tr(tt.in); got != tt.want {
			t.Errorf("tr(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := XLSX(&buf, sample()); err != nil {
		t.Fatalf("XLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != overviewSheet || sheets[1] != scheduleSheet {
		t.Fatalf("sheets = %v", sheets)
	}

	title, err := f.GetCellValue(overviewSheet, "B1")
	if err != nil || title != "Go for Backend Engineers" {
		t.Errorf("overview title = %q, %v", title, err)
	}

	rows, err := f.GetRows(scheduleSheet)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("schedule rows = %d, want header + 2 weeks", len(rows))
	}
	if rows[1][0] != "1" || rows[1][1] != "Foundations" || rows[1][2] != "Types\nErrors" {
		t.Errorf("week 1 row = %q", rows[1])
	}
	if rows[2][4] != "Effective Go" {
		t.Errorf("week 2 resources = %q", rows[2])
	}
}

func TestText(t *testing.T) {
	c := sample()

	var raw bytes.Buffer
	if err := Text(&raw, c, sampleRaw); err != nil {
		t.Fatal(err)
	}
	if raw.String() != sampleRaw {
		t.Error("Text() should write raw content verbatim")
	}

	var formatted bytes.Buffer
	if err := Text(&formatted, c, "  "); err != nil {
		t.Fatal(err)
	}
	if formatted.String() != curriculum.Format(c) {
		t.Error("Text() should fall back to the canonical rendering")
	}
}

func TestDocument(t *testing.T) {
	var buf bytes.Buffer
	got, err := Document(&buf, sample(), sampleRaw)
	if err != nil {
		t.Fatalf("Document() error = %v", err)
	}
	if got != FormatPDF || !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Errorf("Document() = %q, want a PDF", got)
	}
}

func TestDocument_FallsBackToText(t *testing.T) {
	tests := []struct {
		name   string
		render func(io.Writer, curriculum.ParsedCurriculum) error
	}{
		{"error", func(io.Writer, curriculum.ParsedCurriculum) error { return errors.New("boom") }},
		{"panic", func(io.Writer, curriculum.ParsedCurriculum) error { panic("font missing") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := renderPDF
			renderPDF = tt.render
			defer func() { renderPDF = orig }()

			var buf bytes.Buffer
			got, err := Document(&buf, sample(), sampleRaw)
			if err != nil {
				t.Fatalf("Document() error = %v", err)
			}
			if got != FormatText {
				t.Errorf("Document() = %q, want %q", got, FormatText)
			}
			if !strings.Contains(buf.String(), "Go for Backend Engineers") {
				t.Error("fallback should contain the raw curriculum")
			}
		})
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	got, err := Write(&buf, FormatXLSX, sample(), sampleRaw)
	if err != nil || got != FormatXLSX {
		t.Fatalf("Write() = %q, %v", got, err)
	}
	if got.ContentType() != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("ContentType() = %q", got.ContentType())
	}
}
