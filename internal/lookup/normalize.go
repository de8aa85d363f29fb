package lookup

import (
	"strings"

	"github.com/spf13/cast"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"designlookup/internal/model"
)

// MissingKeyPolicy 关键列缺失值的处理方式
type MissingKeyPolicy string

const (
	// MissingKeyExclude 缺失值保持为空串，永远不会被命中，也不会出现在推荐中
	MissingKeyExclude MissingKeyPolicy = "exclude"
	// MissingKeyNaN 兼容旧行为：缺失值变成文本 "NAN"
	MissingKeyNaN MissingKeyPolicy = "nan"
)

// ParseMissingKeyPolicy 解析配置值，无法识别时回落到 exclude
func ParseMissingKeyPolicy(s string) MissingKeyPolicy {
	switch MissingKeyPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case MissingKeyNaN:
		return MissingKeyNaN
	default:
		return MissingKeyExclude
	}
}

const nanText = "nan"

// NormalizeColumnName 列名去首尾空白并转为标题格式
// "  design name " -> "Design Name"
func NormalizeColumnName(name string) string {
	return cases.Title(language.English).String(strings.TrimSpace(name))
}

// NormalizeKey 关键列单元格值: trim(upper(stringify(v)))
func NormalizeKey(v any, policy MissingKeyPolicy) string {
	if v == nil {
		if policy == MissingKeyNaN {
			return strings.ToUpper(nanText)
		}
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.ToUpper(s))
}

// NormalizeQuery 查询词: trim(upper(q))
func NormalizeQuery(q string) string {
	return strings.TrimSpace(strings.ToUpper(q))
}

// Normalize 规范化数据集的列名与关键列取值
// 返回新数据集，行数和顺序不变；没有关键列时原样保留其他列
func Normalize(d *model.Dataset, policy MissingKeyPolicy) *model.Dataset {
	if d == nil {
		return nil
	}
	out := d.Clone()
	for i, col := range out.Columns {
		out.Columns[i] = NormalizeColumnName(col)
	}
	// 短行补齐为缺失值
	for i, row := range out.Rows {
		for len(row) < len(out.Columns) {
			row = append(row, nil)
		}
		out.Rows[i] = row
	}

	keyIdx := out.ColumnIndex(model.KeyColumn)
	if keyIdx < 0 {
		return out
	}
	for _, row := range out.Rows {
		row[keyIdx] = NormalizeKey(row[keyIdx], policy)
	}
	return out
}
