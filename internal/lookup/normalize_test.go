package lookup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"designlookup/internal/model"
)

func TestNormalizeColumnName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"  design name ", "Design Name"},
		{"DESIGN NAME", "Design Name"},
		{"Design Name", "Design Name"},
		{"yarn count", "Yarn Count"},
		{"\tqty\n", "Qty"},
		// 下划线、撇号和数字后面不算新单词
		{"design_name", "Design_name"},
		{"o'neil", "O'neil"},
		{"qty2x", "Qty2x"},
		{"", ""},
	}
	for _, tt := range tests {
		got := NormalizeColumnName(tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
		assert.Equal(t, got, NormalizeColumnName(got), "idempotent for %q", tt.in)
	}
}

func TestNormalize_HeaderAndKeyValue(t *testing.T) {
	t.Parallel()

	raw := &model.Dataset{
		Name:    "designs",
		Columns: []string{"  design name ", "colour"},
		Rows: []model.Record{
			{" abc ", "red"},
			{"x-1", nil},
		},
	}

	got := Normalize(raw, MissingKeyExclude)

	require.Equal(t, []string{"Design Name", "Colour"}, got.Columns)
	require.Len(t, got.Rows, 2)
	assert.Equal(t, "ABC", got.Rows[0][0])
	assert.Equal(t, "red", got.Rows[0][1])
	assert.Equal(t, "X-1", got.Rows[1][0])
	assert.Nil(t, got.Rows[1][1])

	// 输入不被修改
	assert.Equal(t, "  design name ", raw.Columns[0])
	assert.Equal(t, " abc ", raw.Rows[0][0])
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()

	for _, policy := range []MissingKeyPolicy{MissingKeyExclude, MissingKeyNaN} {
		raw := &model.Dataset{
			Columns: []string{" DESIGN name", "qty ", "note"},
			Rows: []model.Record{
				{" ab c ", 12.0, "x"},
				{nil, 3.5},
				{42.0, nil, true},
				{true},
			},
		}
		once := Normalize(raw, policy)
		twice := Normalize(once, policy)
		assert.Equal(t, once, twice, "policy %s", policy)
	}
}

func TestNormalize_StringifiesNonTextKeys(t *testing.T) {
	t.Parallel()

	raw := &model.Dataset{
		Columns: []string{"Design Name"},
		Rows:    []model.Record{{1001.0}, {true}, {nil}},
	}

	got := Normalize(raw, MissingKeyExclude)
	assert.Equal(t, "1001", got.Rows[0][0])
	assert.Equal(t, "TRUE", got.Rows[1][0])
	assert.Equal(t, "", got.Rows[2][0])

	legacy := Normalize(raw, MissingKeyNaN)
	assert.Equal(t, "NAN", legacy.Rows[2][0])
}

func TestNormalize_PadsShortRows(t *testing.T) {
	t.Parallel()

	raw := &model.Dataset{
		Columns: []string{"a", "design name"},
		Rows:    []model.Record{{"only-a"}},
	}
	got := Normalize(raw, MissingKeyExclude)
	require.Len(t, got.Rows[0], 2)
	assert.Equal(t, "", got.Rows[0][1])
}

func TestNormalize_NoKeyColumn(t *testing.T) {
	t.Parallel()

	raw := &model.Dataset{
		Columns: []string{"yarn", "count"},
		Rows:    []model.Record{{" abc ", 2.0}},
	}
	got := Normalize(raw, MissingKeyExclude)
	assert.Equal(t, []string{"Yarn", "Count"}, got.Columns)
	assert.Equal(t, " abc ", got.Rows[0][0])
	assert.False(t, got.HasKey())
}

func TestParseMissingKeyPolicy(t *testing.T) {
	t.Parallel()

	assert.Equal(t, MissingKeyNaN, ParseMissingKeyPolicy(" NaN "))
	assert.Equal(t, MissingKeyExclude, ParseMissingKeyPolicy("exclude"))
	assert.Equal(t, MissingKeyExclude, ParseMissingKeyPolicy("whatever"))
}
