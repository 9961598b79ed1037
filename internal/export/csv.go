// Package export renders expenses as downloadable CSV and PDF documents and
// category totals as a pie chart image.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"rateio/internal/core"
)

const (
	CSVFilename = "despesas.csv"
	PDFFilename = "despesas.pdf"
)

var csvHeader = []string{"Descrição", "Valor", "Categoria", "Data"}

// utf8BOM lets spreadsheet software detect the encoding of accented text.
const utf8BOM = "\ufeff"

// WriteCSV writes one row per expense. Values are quoted when they contain
// the separator, which BRL amounts ("R$ 1.234,56") always do.
func WriteCSV(w io.Writer, expenses []core.Expense) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, e := range expenses {
		row := []string{
			e.Description,
			core.FormatBRL(e.Amount),
			e.Category,
			core.FormatDateBR(e.Date),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write expense %d: %w", e.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
