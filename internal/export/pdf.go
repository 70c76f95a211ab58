package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/courseforge/site/internal/curriculum"
)

const (
	pdfMargin   = 18.0
	pdfLineH    = 6.0
	pdfBodySize = 11.0
)

// PDF writes c as a paginated A4 document.
func PDF(w io.Writer, c curriculum.ParsedCurriculum) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetTitle(c.Title, true)
	pdf.AliasNbPages("{nb}")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	tr := newLatin1()
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(20, 20, 20)
	pdf.MultiCell(0, 9, tr(c.Title), "", "L", false)

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(90, 90, 90)
	pdf.MultiCell(0, 5, tr(strings.Join([]string{c.Duration, c.TimeCommitment, c.Level}, "  |  ")), "", "L", false)
	pdf.Ln(3)

	body := func(s string) {
		pdf.SetFont("Helvetica", "", pdfBodySize)
		pdf.SetTextColor(30, 30, 30)
		pdf.MultiCell(0, pdfLineH, tr(s), "", "L", false)
	}
	heading := func(s string, size float64) {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "B", size)
		pdf.SetTextColor(20, 20, 20)
		pdf.MultiCell(0, size*0.55, tr(s), "", "L", false)
		pdf.Ln(1)
	}
	bullets := func(label string, items []string) {
		if len(items) == 0 {
			return
		}
		pdf.SetFont("Helvetica", "B", pdfBodySize)
		pdf.MultiCell(0, pdfLineH, tr(label), "", "L", false)
		pdf.SetFont("Helvetica", "", pdfBodySize)
		for _, item := range items {
			pdf.SetX(pdfMargin + 4)
			pdf.MultiCell(0, pdfLineH, tr("- "+item), "", "L", false)
		}
	}

	heading("Course Description", 14)
	body(c.Description)

	if len(c.Objectives) > 0 {
		heading("Learning Objectives", 14)
		pdf.SetFont("Helvetica", "", pdfBodySize)
		for _, o := range c.Objectives {
			pdf.SetX(pdfMargin + 4)
			pdf.MultiCell(0, pdfLineH, tr("- "+o), "", "L", false)
		}
	}

	for _, wk := range c.Weeks {
		title := fmt.Sprintf("Week %d", wk.WeekNumber)
		if wk.ModuleTitle != "" {
			title += ": " + wk.ModuleTitle
		}
		heading(title, 13)
		bullets("Key Topics", wk.KeyTopics)
		bullets("Activities", wk.Activities)
		bullets("Resources", wk.Resources)
	}

	if c.CapstoneProject != "" {
		heading("Capstone Project", 14)
		body(c.CapstoneProject)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("rendering pdf: %w", err)
	}
	return pdf.Output(w)
}

// newLatin1 returns a transcoder from UTF-8 to the Windows-1252 encoding the
// core PDF fonts use. Runes outside it become '?'.
func newLatin1() func(string) string {
	enc := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())
	return func(s string) string {
		out, err := enc.String(s)
		if err != nil {
			return strings.Map(func(r rune) rune {
				if r > 0x7e {
					return '?'
				}
				return r
			}, s)
		}
		return strings.ReplaceAll(out, "\x1a", "?")
	}
}
