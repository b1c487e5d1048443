package xlsx

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/mfbgull/mini-erp-sub003/internal/application/bom"
	"github.com/mfbgull/mini-erp-sub003/internal/domain"
)

var _ bom.LineParser = (*BOMLineParser)(nil)

// BOMLineParser lee líneas de receta de la primera hoja: columna A código de ítem, columna B cantidad.
// La primera fila se omite si no tiene una cantidad numérica (encabezado). Filas vacías se ignoran.
type BOMLineParser struct{}

// NewBOMLineParser construye el parser.
func NewBOMLineParser() *BOMLineParser {
	return &BOMLineParser{}
}

// ParseLines devuelve las líneas en orden de fila.
func (p *BOMLineParser) ParseLines(r io.Reader) ([]bom.CodeLine, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: no se pudo leer el archivo Excel: %s", domain.ErrInvalidInput, err.Error())
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read excel: %w", err)
	}

	var lines []bom.CodeLine
	for i, row := range rows {
		rowNo := i + 1
		code, rawQty := cell(row, 0), cell(row, 1)
		if code == "" && rawQty == "" {
			continue
		}
		qty, err := decimal.NewFromString(rawQty)
		if err != nil {
			if i == 0 {
				continue // encabezado
			}
			return nil, fmt.Errorf("%w: fila %d: cantidad %q", domain.ErrInvalidQuantity, rowNo, rawQty)
		}
		if code == "" {
			return nil, fmt.Errorf("%w: fila %d: código vacío", domain.ErrInvalidInput, rowNo)
		}
		lines = append(lines, bom.CodeLine{Row: rowNo, ItemCode: code, Quantity: qty})
	}
	return lines, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
