// Package export renders a variant session as a spreadsheet.
package export

import (
	"bytes"
	"fmt"
	"strings"

	"atelier-admin/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	SheetVariants = "Variants"
	SheetOptions  = "Options"
)

// RenderXLSX writes the rows of s into a workbook: one line per row with a
// column per option name, plus a sheet listing the option groups.
func RenderXLSX(s domain.VariantSession) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetVariants); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}
	dirtyStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"FFF2CC"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}

	names := optionNames(s.Rows)
	headers := append([]string{"Status", "SKU"}, names...)
	headers = append(headers, "Price", "Compare At Price", "Inventory", "Manage Stock", "Images", "Variant ID")

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetVariants, cell, h); err != nil {
			return nil, err
		}
		colName, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetVariants, colName, colName, 18); err != nil {
			return nil, err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(SheetVariants, "A1", last, headerStyle); err != nil {
		return nil, err
	}

	for r, row := range s.Rows {
		line := r + 2
		values := map[string]string{}
		for _, p := range row.Options {
			values[p.Name] = p.Value
		}

		cells := []interface{}{row.Status(), row.SKU}
		for _, name := range names {
			cells = append(cells, values[name])
		}
		cells = append(cells,
			numberCell(row.Price),
			numberCell(row.CompareAtPrice),
			numberCell(row.Inventory),
			row.ManageStock,
			strings.Join(row.Images, "\n"),
			row.PersistedID,
		)

		start, _ := excelize.CoordinatesToCellName(1, line)
		if err := f.SetSheetRow(SheetVariants, start, &cells); err != nil {
			return nil, err
		}
		if row.Dirty {
			end, _ := excelize.CoordinatesToCellName(len(headers), line)
			if err := f.SetCellStyle(SheetVariants, start, end, dirtyStyle); err != nil {
				return nil, err
			}
		}
	}

	if err := writeOptions(f, s.Groups, headerStyle); err != nil {
		return nil, err
	}

	idx, err := f.GetSheetIndex(SheetVariants)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("export: write workbook: %w", err)
	}
	return bytes.Clone(buf.Bytes()), nil
}

func writeOptions(f *excelize.File, groups []domain.OptionGroup, headerStyle int) error {
	if _, err := f.NewSheet(SheetOptions); err != nil {
		return err
	}
	header := []interface{}{"Option", "Values", "Enabled"}
	if err := f.SetSheetRow(SheetOptions, "A1", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetOptions, "A1", "C1", headerStyle); err != nil {
		return err
	}
	for i, g := range groups {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{g.Name, strings.Join(g.Values, ", "), g.Enabled}
		if err := f.SetSheetRow(SheetOptions, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(SheetOptions, "A", "A", 20); err != nil {
		return err
	}
	return f.SetColWidth(SheetOptions, "B", "B", 60)
}

// optionNames lists the option names of rows in first-seen order.
func optionNames(rows []domain.VariantRow) []string {
	seen := map[string]bool{}
	var names []string
	for _, r := range rows {
		for _, p := range r.Options {
			if !seen[p.Name] {
				seen[p.Name] = true
				names = append(names, p.Name)
			}
		}
	}
	return names
}

// numberCell writes numeric text as a number and anything else verbatim.
func numberCell(raw string) interface{} {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return raw
	}
	return d.InexactFloat64()
}
