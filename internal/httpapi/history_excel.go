package httpapi

import (
	"bytes"
	"fmt"

	"wisefido-bedside/internal/models"

	"github.com/xuri/excelize/v2"
)

// HistoryExportHeader 历史诊断导出表头
var HistoryExportHeader = []string{
	"Recorded At",
	"Heart Rate (bpm)",
	"Heart Rhythm",
	"Risk Level",
	"Note",
}

// GenerateHistoryExport 生成历史诊断 XLSX
// 记录按入参顺序写入（调用方已按时间倒序取出）；缺失读数写占位符，不留全空单元格
func GenerateHistoryExport(records []models.PastDiagnosticRecord) ([]byte, error) {
	f := excelize.NewFile()
	// Note: Don't defer Close() here, because WriteTo needs the file to be open

	sheetName := "Diagnostic History"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range HistoryExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	columnWidths := []float64{
		22, // Recorded At
		18, // Heart Rate
		15, // Heart Rhythm
		12, // Risk Level
		45, // Note
	}
	for i := range HistoryExportHeader {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(sheetName, col, col, columnWidths[i]); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for rowIdx, rec := range records {
		row := rowIdx + 2 // 从第2行开始（第1行是表头）
		values := []any{
			rec.RecordedAt.Format("2006-01-02 15:04:05"),
			heartRateCell(rec.HeartRate),
			rhythmCell(rec.HeartRhythm),
			riskLevelCell(rec.RiskLevel),
			noteCell(rec.Note),
		}
		for col, value := range values {
			if value == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell value at row %d, col %d: %w", row, col+1, err)
			}
		}
	}

	// 冻结表头
	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		Split:       false,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}

	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}

	return buf.Bytes(), nil
}

// heartRateCell 有读数写数值单元格，缺失写占位符
func heartRateCell(v *int) any {
	if v == nil {
		return models.PlaceholderValue
	}
	return *v
}

func rhythmCell(v *models.HeartRhythm) string {
	if v == nil {
		return models.PlaceholderValue
	}
	return string(*v)
}

func riskLevelCell(v *models.RiskLevel) string {
	if v == nil {
		return models.PlaceholderValue
	}
	return string(*v)
}

func noteCell(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
