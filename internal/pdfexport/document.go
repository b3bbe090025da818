// Package pdfexport renders portal documents as PDF files.
package pdfexport

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

const (
	pageWidth   = 210.0
	margin      = 15.0
	contentW    = pageWidth - 2*margin
	lineHeight  = 6.0
	headerTitle = "Police Academy"
	dateLayout  = "02/01/2006"
)

// Renderer builds PDF documents. Output is byte-for-byte reproducible for a
// fixed clock.
type Renderer struct {
	now      func() time.Time
	compress bool
}

// NewRenderer creates a renderer stamping documents with the current time
func NewRenderer() *Renderer {
	return &Renderer{now: time.Now, compress: true}
}

// document wraps fpdf with the portal letterhead and a cp1252 translator for
// the core fonts
type document struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (r *Renderer) newDocument(title string) *document {
	pdf := fpdf.New("P", "mm", "A4", "")
	generated := r.now()

	pdf.SetCreationDate(generated)
	pdf.SetModificationDate(generated)
	pdf.SetCatalogSort(true)
	pdf.SetCompression(r.compress)
	pdf.SetTitle(title, true)
	pdf.SetAuthor(headerTitle, true)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AliasNbPages("")

	d := &document{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}

	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetTextColor(31, 58, 104)
		pdf.CellFormat(contentW/2, 5, d.tr(headerTitle), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(contentW/2, 5, d.tr(title), "", 1, "R", false, 0, "")
		pdf.SetDrawColor(31, 58, 104)
		pdf.Line(margin, pdf.GetY()+1, pageWidth-margin, pdf.GetY()+1)
		pdf.Ln(6)
		pdf.SetTextColor(0, 0, 0)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(120, 120, 120)
		footer := fmt.Sprintf("Generated on %s - page %d/{nb}", generated.Format(dateLayout), pdf.PageNo())
		pdf.CellFormat(0, 10, d.tr(footer), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	return d
}

func (d *document) heading(text string) {
	d.pdf.SetFont("Helvetica", "B", 16)
	d.pdf.MultiCell(contentW, 8, d.tr(text), "", "L", false)
	d.pdf.Ln(2)
}

func (d *document) section(text string) {
	d.pdf.Ln(3)
	d.pdf.SetFont("Helvetica", "B", 12)
	d.pdf.SetFillColor(230, 235, 244)
	d.pdf.CellFormat(contentW, 7, d.tr(text), "", 1, "L", true, 0, "")
	d.pdf.Ln(1)
}

func (d *document) paragraph(text string) {
	d.pdf.SetFont("Helvetica", "", 10)
	d.pdf.MultiCell(contentW, 5, d.tr(text), "", "L", false)
	d.pdf.Ln(1)
}

// field prints a "label: value" line
func (d *document) field(label, value string) {
	d.pdf.SetFont("Helvetica", "B", 10)
	d.pdf.CellFormat(50, lineHeight, d.tr(label), "", 0, "L", false, 0, "")
	d.pdf.SetFont("Helvetica", "", 10)
	d.pdf.MultiCell(contentW-50, lineHeight, d.tr(value), "", "L", false)
}

// table prints a header row and body rows. widths are fractions of the content width.
func (d *document) table(headers []string, widths []float64, rows [][]string) {
	d.pdf.SetFont("Helvetica", "B", 9)
	d.pdf.SetFillColor(31, 58, 104)
	d.pdf.SetTextColor(255, 255, 255)
	for i, h := range headers {
		d.pdf.CellFormat(widths[i]*contentW, 7, d.tr(h), "1", 0, "L", true, 0, "")
	}
	d.pdf.Ln(-1)

	d.pdf.SetFont("Helvetica", "", 9)
	d.pdf.SetTextColor(0, 0, 0)
	d.pdf.SetFillColor(244, 246, 250)
	for n, row := range rows {
		fill := n%2 == 1
		for i, cell := range row {
			d.pdf.CellFormat(widths[i]*contentW, 6, d.tr(truncate(d, cell, widths[i]*contentW-2)), "1", 0, "L", fill, 0, "")
		}
		d.pdf.Ln(-1)
	}
	if len(rows) == 0 {
		d.pdf.SetFont("Helvetica", "I", 9)
		d.pdf.CellFormat(contentW, 6, d.tr("No entries"), "1", 1, "C", false, 0, "")
	}
}

// truncate shortens s with an ellipsis until it fits width
func truncate(d *document, s string, width float64) string {
	if d.pdf.GetStringWidth(d.tr(s)) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && d.pdf.GetStringWidth(d.tr(string(r)+"...")) > width {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}

func (d *document) output() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format(dateLayout)
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func formatScore(score, maxScore float64) string {
	return fmt.Sprintf("%s / %s", trimFloat(score), trimFloat(maxScore))
}

func trimFloat(f float64) string {
	return fmt.Sprintf("%g", f)
}
