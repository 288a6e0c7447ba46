package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/batch-trade-bot/internal/ledger"
)

// ExcelReporter exports the trade history as a spreadsheet
type ExcelReporter struct{}

// NewExcelReporter creates a new Excel reporter
func NewExcelReporter() *ExcelReporter {
	return &ExcelReporter{}
}

// excelStyles holds the style IDs used by the history sheet
type excelStyles struct {
	header   int
	base     int
	price    int
	profit   int
	loss     int
}

// WriteTradeHistory writes the trade history entries to an Excel file
func (r *ExcelReporter) WriteTradeHistory(entries []ledger.HistoryEntry, path string) error {
	// Ensure directory exists before creating file
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const sheet = "Trade History"
	fx.SetSheetName(fx.GetSheetName(0), sheet)

	styles, err := r.createStyles(fx)
	if err != nil {
		return err
	}

	headers := []string{"Placed At", "Trading Day", "Order ID", "Symbol", "Side", "Volume", "Price", "Stop Loss", "Take Profit", "Profit", "Comment"}
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		fx.SetCellValue(sheet, cell, h)
		fx.SetCellStyle(sheet, cell, cell, styles.header)
	}

	for i, e := range entries {
		row := i + 2
		values := []interface{}{
			e.PlacedAt.Format("2006-01-02 15:04:05"),
			e.TradingDay,
			e.OrderID,
			e.Symbol,
			e.Side,
			e.Volume,
			e.Price,
			e.StopLoss,
			e.TakeProfit,
			e.Profit,
			e.Comment,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			fx.SetCellValue(sheet, cell, v)
			fx.SetCellStyle(sheet, cell, cell, styles.base)
		}

		// Price columns get the numeric style, profit gets red or green
		for _, col := range []int{6, 7, 8, 9} {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			fx.SetCellStyle(sheet, cell, cell, styles.price)
		}
		profitCell, _ := excelize.CoordinatesToCellName(10, row)
		if e.Profit < 0 {
			fx.SetCellStyle(sheet, profitCell, profitCell, styles.loss)
		} else {
			fx.SetCellStyle(sheet, profitCell, profitCell, styles.profit)
		}
	}

	fx.SetColWidth(sheet, "A", "A", 20)
	fx.SetColWidth(sheet, "C", "C", 28)
	fx.SetColWidth(sheet, "K", "K", 24)

	return fx.SaveAs(path)
}

// createStyles creates the Excel styles for the history sheet
func (r *ExcelReporter) createStyles(fx *excelize.File) (excelStyles, error) {
	var styles excelStyles
	var err error

	// Header style - dark background with white text
	styles.header, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   true,
			Size:   11,
			Color:  "FFFFFF",
			Family: "Calibri",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"2F4F4F"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return styles, err
	}

	// Base style (light borders)
	styles.base, err = fx.NewStyle(&excelize.Style{
		Border: []excelize.Border{
			{Type: "left", Color: "E0E0E0", Style: 1},
			{Type: "right", Color: "E0E0E0", Style: 1},
			{Type: "bottom", Color: "E0E0E0", Style: 1},
		},
	})
	if err != nil {
		return styles, err
	}

	// Numeric style (right aligned)
	styles.price, err = fx.NewStyle(&excelize.Style{
		NumFmt: 4, // #,##0.00
		Alignment: &excelize.Alignment{
			Horizontal: "right",
		},
		Border: []excelize.Border{
			{Type: "left", Color: "E0E0E0", Style: 1},
			{Type: "right", Color: "E0E0E0", Style: 1},
			{Type: "bottom", Color: "E0E0E0", Style: 1},
		},
	})
	if err != nil {
		return styles, err
	}

	// Green profit style
	styles.profit, err = fx.NewStyle(&excelize.Style{
		NumFmt: 4,
		Font: &excelize.Font{
			Color: "008000",
		},
		Alignment: &excelize.Alignment{
			Horizontal: "right",
		},
		Border: []excelize.Border{
			{Type: "left", Color: "E0E0E0", Style: 1},
			{Type: "right", Color: "E0E0E0", Style: 1},
			{Type: "bottom", Color: "E0E0E0", Style: 1},
		},
	})
	if err != nil {
		return styles, err
	}

	// Red loss style
	styles.loss, err = fx.NewStyle(&excelize.Style{
		NumFmt: 4,
		Font: &excelize.Font{
			Color: "FF0000",
		},
		Alignment: &excelize.Alignment{
			Horizontal: "right",
		},
		Border: []excelize.Border{
			{Type: "left", Color: "E0E0E0", Style: 1},
			{Type: "right", Color: "E0E0E0", Style: 1},
			{Type: "bottom", Color: "E0E0E0", Style: 1},
		},
	})
	return styles, err
}
