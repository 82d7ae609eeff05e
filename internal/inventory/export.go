package inventory

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	StockSheet     = "Stock"
	MovementsSheet = "Movements"
)

var (
	stockHeader    = []string{"Blood Type", "Units In Stock", "Last Updated"}
	movementHeader = []string{"Time", "Blood Type", "Delta", "Units After", "Reason", "Donation ID"}
)

func writeWorkbook(w io.Writer, entries []Entry, movements []Movement) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", StockSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(MovementsSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#F4CCCC"},
			Pattern: 1,
		},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	stockRows := make([][]any, 0, len(entries))
	for _, e := range entries {
		stockRows = append(stockRows, []any{
			string(e.BloodType),
			e.UnitsInStock,
			e.LastUpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	if err := writeSheet(f, StockSheet, stockHeader, stockRows, headerStyle); err != nil {
		return err
	}

	movementRows := make([][]any, 0, len(movements))
	for _, m := range movements {
		donation := ""
		if m.DonationID != nil {
			donation = m.DonationID.String()
		}
		movementRows = append(movementRows, []any{
			m.CreatedAt.UTC().Format(time.RFC3339),
			string(m.BloodType),
			m.Delta,
			m.UnitsAfter,
			string(m.Reason),
			donation,
		})
	}
	if err := writeSheet(f, MovementsSheet, movementHeader, movementRows, headerStyle); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]any, headerStyle int) error {
	for col, title := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return fmt.Errorf("set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("set header style: %w", err)
		}
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
