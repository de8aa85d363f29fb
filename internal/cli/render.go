// Package cli 命令行下的查询结果输出
package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cast"

	"designlookup/internal/model"
)

// DefaultMaxRows 每个表默认最多输出的行数
const DefaultMaxRows = 50

// RenderResult 输出结果类型、对应的表格以及相近设计名称
func RenderResult(w io.Writer, result *model.SearchResult, maxRows int) {
	counts := result.Counts()
	fmt.Fprintf(w, "查询: %s\n结果: %s\n", result.Query, result.Kind)
	fmt.Fprintf(w, "设计表命中: %d  纱线表命中: %d  合并行数: %d\n\n",
		counts.DesignMatches, counts.YarnMatches, counts.CombinedRows)

	switch result.Kind {
	case model.ResultBoth:
		RenderDataset(w, "Combined", result.Combined, maxRows)
		RenderDataset(w, "Designs", result.DesignMatches, maxRows)
		RenderDataset(w, "Yarns", result.YarnMatches, maxRows)
	case model.ResultDesignOnly:
		RenderDataset(w, "Designs", result.DesignMatches, maxRows)
	case model.ResultYarnOnly:
		RenderDataset(w, "Yarns", result.YarnMatches, maxRows)
	case model.ResultNoMatch:
		if len(result.Suggestions) == 0 {
			fmt.Fprintln(w, "没有匹配的设计")
			return
		}
		fmt.Fprintln(w, "没有匹配的设计，相近的设计名称:")
		for _, s := range result.Suggestions {
			fmt.Fprintf(w, "  - %s\n", s)
		}
	}
}

// RenderDataset 以表格输出数据集，超过 maxRows 的部分只显示剩余行数
func RenderDataset(w io.Writer, title string, ds *model.Dataset, maxRows int) {
	if ds == nil {
		return
	}
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)

	header := make(table.Row, len(ds.Columns))
	for i, col := range ds.Columns {
		header[i] = col
	}
	t.AppendHeader(header)

	for i, rec := range ds.Rows {
		if i >= maxRows {
			break
		}
		row := make(table.Row, len(ds.Columns))
		for j := range ds.Columns {
			if j < len(rec) {
				row[j] = FormatValue(rec[j])
			}
		}
		t.AppendRow(row)
	}
	if len(ds.Rows) > maxRows {
		t.AppendFooter(table.Row{fmt.Sprintf("... 还有 %d 行", len(ds.Rows)-maxRows)})
	}
	t.Render()
	fmt.Fprintln(w)
}

// FormatValue 单元格取值转文本，缺失值为空串
func FormatValue(v any) string {
	if v == nil {
		return ""
	}
	return cast.ToString(v)
}
