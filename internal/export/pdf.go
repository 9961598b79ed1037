package export

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"rateio/internal/core"
)

const (
	pdfTitle      = "Relatório de Despesas"
	pdfMarginX    = 10.0
	pdfTitleY     = 10.0
	pdfFirstLineY = 20.0
	pdfLineHeight = 10.0
	pdfPageBottom = 287.0 // A4 height minus a 10mm margin
	pdfFontSize   = 16.0
)

// WritePDF writes a plain text report: the title, then one line per expense
// ("description - amount - category - date"), continuing on new pages as needed.
func WritePDF(w io.Writer, expenses []core.Expense) error {
	pdf := buildPDF(expenses)
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

func buildPDF(expenses []core.Expense) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(pdfTitle, true)
	pdf.SetAutoPageBreak(false, 0)
	// Core fonts are cp1252; translate so accents and "R$" survive.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "", pdfFontSize)
	pdf.Text(pdfMarginX, pdfTitleY, tr(pdfTitle))

	y := pdfFirstLineY
	for _, e := range expenses {
		if y > pdfPageBottom {
			pdf.AddPage()
			y = pdfTitleY
		}
		pdf.Text(pdfMarginX, y, tr(ExpenseLine(e)))
		y += pdfLineHeight
	}
	return pdf
}

// ExpenseLine is the single-line text form of an expense used in reports.
func ExpenseLine(e core.Expense) string {
	return fmt.Sprintf("%s - %s - %s - %s",
		e.Description,
		core.FormatBRL(e.Amount),
		e.Category,
		core.FormatDateBR(e.Date))
}
