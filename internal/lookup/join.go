package lookup

import "designlookup/internal/model"

const (
	leftSuffix  = "_x"
	rightSuffix = "_y"
)

// LeftJoin 以设计名称做左外连接
// 左侧每行至少出现一次；右侧同名多行时按笛卡尔积展开，不去重；
// 右侧没有对应行时右侧列填缺失值。
// 两侧都有的非关键列分别加 _x / _y 后缀。
func (e *Engine) LeftJoin(left, right *model.Dataset) *model.Dataset {
	leftKey := left.ColumnIndex(model.KeyColumn)
	rightKey := right.ColumnIndex(model.KeyColumn)

	rightCols := make([]int, 0, len(right.Columns))
	for i := range right.Columns {
		if i != rightKey {
			rightCols = append(rightCols, i)
		}
	}

	columns := joinColumns(left, right, leftKey, rightCols)

	index := make(map[string][]int)
	if rightKey >= 0 {
		for i := range right.Rows {
			k := e.keyAt(right, i, rightKey)
			index[k] = append(index[k], i)
		}
	}

	out := &model.Dataset{
		Name:    left.Name + "+" + right.Name,
		Columns: columns,
		Rows:    make([]model.Record, 0, len(left.Rows)),
	}

	for i := range left.Rows {
		var partners []int
		if leftKey >= 0 {
			partners = index[e.keyAt(left, i, leftKey)]
		}
		if len(partners) == 0 {
			out.Rows = append(out.Rows, joinRow(left, i, right, -1, rightCols))
			continue
		}
		for _, j := range partners {
			out.Rows = append(out.Rows, joinRow(left, i, right, j, rightCols))
		}
	}
	return out
}

func joinColumns(left, right *model.Dataset, leftKey int, rightCols []int) []string {
	rightNames := make(map[string]bool, len(rightCols))
	for _, j := range rightCols {
		rightNames[right.Columns[j]] = true
	}
	leftNames := make(map[string]bool, len(left.Columns))
	for i, col := range left.Columns {
		if i != leftKey {
			leftNames[col] = true
		}
	}

	columns := make([]string, 0, len(left.Columns)+len(rightCols))
	for i, col := range left.Columns {
		if i != leftKey && rightNames[col] {
			col += leftSuffix
		}
		columns = append(columns, col)
	}
	for _, j := range rightCols {
		col := right.Columns[j]
		if leftNames[col] {
			col += rightSuffix
		}
		columns = append(columns, col)
	}
	return columns
}

func joinRow(left *model.Dataset, i int, right *model.Dataset, j int, rightCols []int) model.Record {
	row := make(model.Record, 0, len(left.Columns)+len(rightCols))
	for c := range left.Columns {
		row = append(row, left.Value(i, c))
	}
	for _, c := range rightCols {
		if j < 0 {
			row = append(row, nil)
			continue
		}
		row = append(row, right.Value(j, c))
	}
	return row
}
