package specialist_test

import (
	"testing"

	"github.com/fwojciec/analyst"
	"github.com/fwojciec/analyst/specialist"
	"github.com/stretchr/testify/assert"
)

func TestReduce(t *testing.T) {
	t.Parallel()

	rows := []analyst.Row{{"x": 1}, {"x": 2}, {"x": 3}}

	tests := []struct {
		op   analyst.AggregateOp
		want any
	}{
		{analyst.OpSum, 6.0},
		{analyst.OpAvg, 2.0},
		{analyst.OpMin, 1.0},
		{analyst.OpMax, 3.0},
		{analyst.OpCount, 3},
	}
	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			t.Parallel()
			got := specialist.Reduce(rows, map[string]analyst.AggregateOp{"x": tt.op})
			assert.Equal(t, analyst.Row{"x_" + string(tt.op): tt.want}, got)
		})
	}

	t.Run("skips nil and non-numeric values", func(t *testing.T) {
		t.Parallel()
		got := specialist.Reduce([]analyst.Row{{"x": "1.5"}, {"x": nil}, {"x": "n/a"}, {}, {"x": 2.5}},
			map[string]analyst.AggregateOp{"x": analyst.OpAvg})
		assert.Equal(t, analyst.Row{"x_avg": 2.0}, got)
	})

	t.Run("no numeric values yields no key", func(t *testing.T) {
		t.Parallel()
		got := specialist.Reduce([]analyst.Row{{"y": 1}}, map[string]analyst.AggregateOp{"x": analyst.OpSum})
		assert.Empty(t, got)
	})
}

func TestGroup(t *testing.T) {
	t.Parallel()

	rows := []analyst.Row{
		{"cat": "b", "v": 1},
		{"cat": "a", "v": 10},
		{"cat": "b", "v": 2},
		{"v": 5},
	}
	got := specialist.Group(rows, "cat", map[string]analyst.AggregateOp{"v": analyst.OpSum}, "n")
	assert.Equal(t, []analyst.Row{
		{"cat": "b", "v_sum": 3.0, "n": 2},
		{"cat": "a", "v_sum": 10.0, "n": 1},
		{"cat": "unknown", "v_sum": 5.0, "n": 1},
	}, got)

	specialist.SortRows(got, "v_sum", analyst.Desc)
	assert.Equal(t, "a", got[0]["cat"])
	assert.Equal(t, "unknown", got[1]["cat"])
	assert.Equal(t, "b", got[2]["cat"])
}

func TestSortRows_MissingLast(t *testing.T) {
	t.Parallel()

	rows := []analyst.Row{{"k": nil}, {"k": 2}, {}, {"k": 1}}
	specialist.SortRows(rows, "k", analyst.Asc)
	assert.Equal(t, 1, rows[0]["k"])
	assert.Equal(t, 2, rows[1]["k"])
	assert.Nil(t, rows[2]["k"])
	assert.Nil(t, rows[3]["k"])
}
