package excel

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"designlookup/internal/model"
)

// IngestionError 上传文件无法读取或解析
type IngestionError struct {
	Filename string
	Err      error
}

func (e *IngestionError) Error() string {
	return "读取文件失败: " + e.Err.Error()
}

func (e *IngestionError) Unwrap() error {
	return e.Err
}

// Parser 表格解析器：取第一个工作表，首个非空行作为表头
type Parser struct {
	fileID string
}

// NewParser 创建解析器
func NewParser() *Parser {
	return &Parser{
		fileID: uuid.New().String(),
	}
}

// GetFileID 获取文件ID
func (p *Parser) GetFileID() string {
	return p.fileID
}

// Parse 解析上传文件为数据集（未规范化）
// .csv 按 CSV 读取，其余按 xlsx 读取
func (p *Parser) Parse(filename string, reader io.Reader) (*model.Dataset, error) {
	var (
		ds  *model.Dataset
		err error
	)
	if strings.EqualFold(filepath.Ext(filename), ".csv") {
		ds, err = p.parseCSV(reader)
	} else {
		ds, err = p.parseWorkbook(reader)
	}
	if err != nil {
		return nil, &IngestionError{Filename: filename, Err: err}
	}
	ds.Name = filename
	log.Printf("[Parser] %s 解析完成: %d 列, %d 行", filename, len(ds.Columns), len(ds.Rows))
	return ds, nil
}

func (p *Parser) parseWorkbook(reader io.Reader) (*model.Dataset, error) {
	file, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	sheet := sheets[0]

	rows, err := file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}

	headerRow := firstNonEmptyRow(rows)
	if headerRow < 0 {
		return &model.Dataset{Columns: []string{}, Rows: []model.Record{}}, nil
	}

	columns := buildColumns(rows[headerRow:])
	records := make([]model.Record, 0, len(rows)-headerRow-1)
	for i := headerRow + 1; i < len(rows); i++ {
		row := rows[i]
		if isBlankRow(row) {
			continue
		}
		record := make(model.Record, len(columns))
		for col := 0; col < len(columns) && col < len(row); col++ {
			record[col] = cellValue(file, sheet, col, i, row[col])
		}
		records = append(records, record)
	}

	return &model.Dataset{Columns: columns, Rows: records}, nil
}

func (p *Parser) parseCSV(reader io.Reader) (*model.Dataset, error) {
	r := csv.NewReader(reader)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	headerRow := firstNonEmptyRow(rows)
	if headerRow < 0 {
		return &model.Dataset{Columns: []string{}, Rows: []model.Record{}}, nil
	}

	columns := buildColumns(rows[headerRow:])
	records := make([]model.Record, 0, len(rows)-headerRow-1)
	for _, row := range rows[headerRow+1:] {
		if isBlankRow(row) {
			continue
		}
		record := make(model.Record, len(columns))
		for col := 0; col < len(columns) && col < len(row); col++ {
			if row[col] != "" {
				record[col] = row[col]
			}
		}
		records = append(records, record)
	}

	return &model.Dataset{Columns: columns, Rows: records}, nil
}

// buildColumns 以首行为表头；空表头或超出表头宽度的列命名为 "Unnamed: N"
func buildColumns(rows [][]string) []string {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	header := rows[0]
	columns := make([]string, width)
	for i := 0; i < width; i++ {
		if i < len(header) && strings.TrimSpace(header[i]) != "" {
			columns[i] = header[i]
			continue
		}
		columns[i] = fmt.Sprintf("Unnamed: %d", i)
	}
	return columns
}

// cellValue 按单元格类型转换取值
// 数值单元格格式化文本能解析成数字时取 float64，否则（日期、百分比等）保留格式化文本
func cellValue(file *excelize.File, sheet string, col, row int, formatted string) any {
	if formatted == "" {
		return nil
	}

	cell, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return formatted
	}
	cellType, err := file.GetCellType(sheet, cell)
	if err != nil {
		return formatted
	}

	switch cellType {
	case excelize.CellTypeBool:
		return strings.EqualFold(formatted, "TRUE") || formatted == "1"
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		// 移除千分位分隔符
		val := strings.ReplaceAll(formatted, ",", "")
		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return f
		}
		return formatted
	default:
		return formatted
	}
}

func firstNonEmptyRow(rows [][]string) int {
	for i, row := range rows {
		if !isBlankRow(row) {
			return i
		}
	}
	return -1
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
