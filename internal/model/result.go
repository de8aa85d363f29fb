package model

// ResultKind 查询结果类型，四者恰有其一
type ResultKind string

const (
	ResultBoth       ResultKind = "both"        // 设计表与纱线表都有命中
	ResultDesignOnly ResultKind = "design_only" // 仅设计表命中
	ResultYarnOnly   ResultKind = "yarn_only"   // 仅纱线表命中
	ResultNoMatch    ResultKind = "no_match"    // 都未命中，给出相近设计名称
)

// SearchResult 一次查询的结果
type SearchResult struct {
	Query         string     `json:"query"` // 规范化后的查询词
	Kind          ResultKind `json:"kind"`
	DesignMatches *Dataset   `json:"designMatches,omitempty"`
	YarnMatches   *Dataset   `json:"yarnMatches,omitempty"`
	Combined      *Dataset   `json:"combined,omitempty"`
	Suggestions   []string   `json:"suggestions,omitempty"`
}

// Counts 汇总各部分行数
func (r *SearchResult) Counts() ResultCounts {
	if r == nil {
		return ResultCounts{}
	}
	return ResultCounts{
		DesignMatches: r.DesignMatches.Len(),
		YarnMatches:   r.YarnMatches.Len(),
		CombinedRows:  r.Combined.Len(),
		Suggestions:   len(r.Suggestions),
	}
}

// ResultCounts 结果统计
type ResultCounts struct {
	DesignMatches int `json:"designMatches"`
	YarnMatches   int `json:"yarnMatches"`
	CombinedRows  int `json:"combinedRows"`
	Suggestions   int `json:"suggestions"`
}
