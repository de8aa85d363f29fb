package lookup

import (
	"errors"
	"strings"

	"designlookup/internal/model"
)

// ErrEmptyQuery 查询词为空
var ErrEmptyQuery = errors.New("empty query")

const (
	// DefaultSuggestionLimit 默认最多给出的相近设计名称数量
	DefaultSuggestionLimit = 5
	// suggestionPrefixLen 推荐时只取查询词前 3 个字符
	suggestionPrefixLen = 3
)

// Options 查询引擎参数
type Options struct {
	SuggestionLimit int              `json:"suggestionLimit"`
	MissingKey      MissingKeyPolicy `json:"missingKey"`
}

// Engine 设计名称查询引擎，无状态，可并发使用
type Engine struct {
	opts Options
}

// NewEngine 创建查询引擎
func NewEngine(opts Options) *Engine {
	if opts.SuggestionLimit <= 0 {
		opts.SuggestionLimit = DefaultSuggestionLimit
	}
	if opts.MissingKey == "" {
		opts.MissingKey = MissingKeyExclude
	}
	return &Engine{opts: opts}
}

// Options 返回当前参数
func (e *Engine) Options() Options {
	return e.opts
}

// Normalize 按引擎的缺失值策略规范化数据集
func (e *Engine) Normalize(d *model.Dataset) *model.Dataset {
	return Normalize(d, e.opts.MissingKey)
}

// Search 在两个已规范化的数据集中按设计名称做子串查询
// designs 或 yarns 可以为 nil，视为没有命中
func (e *Engine) Search(designs, yarns *model.Dataset, query string) (*model.SearchResult, error) {
	q := NormalizeQuery(query)
	if q == "" {
		return nil, ErrEmptyQuery
	}

	result := &model.SearchResult{Query: q}

	designRows := e.matchRows(designs, q)
	yarnRows := e.matchRows(yarns, q)

	switch {
	case len(designRows) > 0 && len(yarnRows) > 0:
		result.Kind = model.ResultBoth
		result.DesignMatches = designs.Subset(designRows)
		result.YarnMatches = yarns.Subset(yarnRows)
		result.Combined = e.LeftJoin(result.DesignMatches, result.YarnMatches)
	case len(designRows) > 0:
		result.Kind = model.ResultDesignOnly
		result.DesignMatches = designs.Subset(designRows)
	case len(yarnRows) > 0:
		result.Kind = model.ResultYarnOnly
		result.YarnMatches = yarns.Subset(yarnRows)
	default:
		result.Kind = model.ResultNoMatch
		result.Suggestions = e.Suggest(designs, q)
	}

	return result, nil
}

// matchRows 返回关键列包含 q 的行号（保持原顺序）
func (e *Engine) matchRows(d *model.Dataset, q string) []int {
	keyIdx := d.ColumnIndex(model.KeyColumn)
	if keyIdx < 0 {
		return nil
	}
	var rows []int
	for i := range d.Rows {
		if strings.Contains(e.keyAt(d, i, keyIdx), q) {
			rows = append(rows, i)
		}
	}
	return rows
}

// Suggest 在设计表中找包含查询词前 3 个字符的设计名称（去重，按首次出现顺序）
func (e *Engine) Suggest(designs *model.Dataset, normalizedQuery string) []string {
	keyIdx := designs.ColumnIndex(model.KeyColumn)
	if keyIdx < 0 || normalizedQuery == "" {
		return nil
	}

	prefix := normalizedQuery
	if runes := []rune(normalizedQuery); len(runes) > suggestionPrefixLen {
		prefix = string(runes[:suggestionPrefixLen])
	}

	seen := make(map[string]struct{})
	var out []string
	for i := range designs.Rows {
		key := e.keyAt(designs, i, keyIdx)
		if key == "" || !strings.Contains(key, prefix) {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
		if len(out) >= e.opts.SuggestionLimit {
			break
		}
	}
	return out
}

func (e *Engine) keyAt(d *model.Dataset, row, keyIdx int) string {
	v := d.Value(row, keyIdx)
	if s, ok := v.(string); ok {
		return s
	}
	return NormalizeKey(v, e.opts.MissingKey)
}
