package model

// KeyColumn 规范化后的关键列名（设计名称）
const KeyColumn = "Design Name"

// DatasetKind 数据集类型
type DatasetKind string

const (
	KindDesigns DatasetKind = "designs" // 设计主表
	KindYarns   DatasetKind = "yarns"   // 纱线表
)

// ParseDatasetKind 解析数据集类型
func ParseDatasetKind(s string) (DatasetKind, bool) {
	switch DatasetKind(s) {
	case KindDesigns:
		return KindDesigns, true
	case KindYarns:
		return KindYarns, true
	}
	return "", false
}

// Record 一行数据，值与 Dataset.Columns 按位置对应
// 值类型: nil(缺失) / string / float64 / bool
type Record []any

// Dataset 一个上传表格解析出来的数据集
type Dataset struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Rows    []Record `json:"rows"`
}

// Len 行数
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// ColumnIndex 返回列的位置，不存在返回 -1
// 列名重复时返回第一个
func (d *Dataset) ColumnIndex(name string) int {
	if d == nil {
		return -1
	}
	for i, col := range d.Columns {
		if col == name {
			return i
		}
	}
	return -1
}

// HasKey 是否包含关键列
func (d *Dataset) HasKey() bool {
	return d.ColumnIndex(KeyColumn) >= 0
}

// Value 读取指定行列的值，越界视为缺失
func (d *Dataset) Value(row, col int) any {
	if row < 0 || row >= len(d.Rows) || col < 0 {
		return nil
	}
	r := d.Rows[row]
	if col >= len(r) {
		return nil
	}
	return r[col]
}

// Subset 按行号选出子集，保持给定顺序
func (d *Dataset) Subset(rows []int) *Dataset {
	out := &Dataset{
		Name:    d.Name,
		Columns: append([]string(nil), d.Columns...),
		Rows:    make([]Record, 0, len(rows)),
	}
	for _, i := range rows {
		out.Rows = append(out.Rows, d.Rows[i])
	}
	return out
}

// Clone 深拷贝（行切片独立）
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return nil
	}
	out := &Dataset{
		Name:    d.Name,
		Columns: append([]string(nil), d.Columns...),
		Rows:    make([]Record, len(d.Rows)),
	}
	for i, r := range d.Rows {
		out.Rows[i] = append(Record(nil), r...)
	}
	return out
}

// DatasetInfo 数据集概况（用于状态展示）
type DatasetInfo struct {
	Name     string   `json:"name"`
	Rows     int      `json:"rows"`
	Columns  []string `json:"columns"`
	HasKey   bool     `json:"hasKey"`
	Uploaded string   `json:"uploadedAt,omitempty"`
}

// Info 生成概况
func (d *Dataset) Info() DatasetInfo {
	if d == nil {
		return DatasetInfo{}
	}
	return DatasetInfo{
		Name:    d.Name,
		Rows:    len(d.Rows),
		Columns: append([]string(nil), d.Columns...),
		HasKey:  d.HasKey(),
	}
}
