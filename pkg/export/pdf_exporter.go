package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Field is a labelled value rendered in a document detail block.
type Field struct {
	Label string
	Value string
}

// Document describes a printable notice: a title, detail fields and an
// optional table (e.g. the panel roster of a defense).
type Document struct {
	Title    string
	Subtitle string
	Fields   []Field
	Table    *Dataset
	Footer   string
}

// PDFExporter renders datasets and notices into PDF bytes.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with an optional title and table body.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	e.renderTable(pdf, data)

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderDocument produces a notice-style PDF with a detail block and an
// optional embedded table.
func (e *PDFExporter) RenderDocument(doc Document) ([]byte, error) {
	if doc.Title == "" {
		return nil, fmt.Errorf("pdf document requires a title")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 15)
	pdf.CellFormat(0, 10, strings.ToUpper(doc.Title), "", 1, "C", false, 0, "")
	if doc.Subtitle != "" {
		pdf.SetFont("Arial", "I", 11)
		pdf.CellFormat(0, 7, doc.Subtitle, "", 1, "C", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "", 11)
	for _, field := range doc.Fields {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(55, 8, field.Label, "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.MultiCell(0, 8, field.Value, "", "", false)
	}

	if doc.Table != nil && len(doc.Table.Headers) > 0 {
		pdf.Ln(6)
		e.renderTable(pdf, *doc.Table)
	}

	if doc.Footer != "" {
		pdf.Ln(10)
		pdf.SetFont("Arial", "I", 9)
		pdf.MultiCell(0, 6, doc.Footer, "", "", false)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf document: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PDFExporter) renderTable(pdf *gofpdf.Fpdf, data Dataset) {
	pdf.SetFont("Arial", "B", 10)
	colWidth := 180.0 / float64(len(data.Headers))
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			pdf.CellFormat(colWidth, 7, row[header], "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}
}
