package excel

import (
	"errors"

	"github.com/xuri/excelize/v2"

	"designlookup/internal/model"
)

// ErrNothingToExport 查询结果没有可导出的数据
var ErrNothingToExport = errors.New("nothing to export")

// 导出工作表名称
const (
	SheetCombined = "Combined"
	SheetDesigns  = "Designs"
	SheetYarns    = "Yarns"
	SheetSummary  = "Summary"
)

// Exporter Excel导出器
type Exporter struct{}

// NewExporter 创建导出器
func NewExporter() *Exporter {
	return &Exporter{}
}

// Export 将查询结果写入工作簿
// 只为非空的部分建表：合并结果、设计表命中、纱线表命中，最后附汇总表
func (e *Exporter) Export(result *model.SearchResult) (*excelize.File, error) {
	if result == nil {
		return nil, ErrNothingToExport
	}

	parts := []struct {
		sheet string
		data  *model.Dataset
	}{
		{SheetCombined, result.Combined},
		{SheetDesigns, result.DesignMatches},
		{SheetYarns, result.YarnMatches},
	}

	f := excelize.NewFile()
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		f.Close()
		return nil, err
	}

	written := 0
	for _, part := range parts {
		if part.data.Len() == 0 {
			continue
		}
		if err := e.writeSheet(f, part.sheet, part.data, headerStyle, written == 0); err != nil {
			f.Close()
			return nil, err
		}
		written++
	}
	if written == 0 {
		f.Close()
		return nil, ErrNothingToExport
	}

	if err := e.writeSummary(f, result, headerStyle); err != nil {
		f.Close()
		return nil, err
	}

	return f, nil
}

func (e *Exporter) writeSheet(f *excelize.File, sheet string, data *model.Dataset, headerStyle int, first bool) error {
	if first {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return err
		}
	} else if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	header := make([]interface{}, len(data.Columns))
	for i, col := range data.Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return err
	}

	for i, record := range data.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := make([]interface{}, len(data.Columns))
		for j := range data.Columns {
			if j < len(record) {
				row[j] = record[j]
			}
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	if len(data.Columns) > 0 {
		last, err := excelize.ColumnNumberToName(len(data.Columns))
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, "A", last, 18); err != nil {
			return err
		}
	}
	return nil
}

func (e *Exporter) writeSummary(f *excelize.File, result *model.SearchResult, headerStyle int) error {
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return err
	}

	counts := result.Counts()
	summary := [][]interface{}{
		{"Item", "Value"},
		{"Query", result.Query},
		{"Result", string(result.Kind)},
		{"Design matches", counts.DesignMatches},
		{"Yarn matches", counts.YarnMatches},
		{"Combined rows", counts.CombinedRows},
	}
	for i, row := range summary {
		for j, val := range row {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+1)
			if err := f.SetCellValue(SheetSummary, cell, val); err != nil {
				return err
			}
		}
	}
	if err := f.SetRowStyle(SheetSummary, 1, 1, headerStyle); err != nil {
		return err
	}
	return f.SetColWidth(SheetSummary, "A", "B", 20)
}
