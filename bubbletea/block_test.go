package bubbletea_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/analyst"
	bt "github.com/fwojciec/analyst/bubbletea"
	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserMessageBlock(t *testing.T) {
	t.Parallel()
	b := bt.NewUserMessageBlock("Quantos clientes temos?", bt.NewStyles(analyst.DefaultTheme()))
	view := stripANSI(b.View(80))
	assert.Contains(t, view, "> Quantos clientes temos?")
}

func TestAssistantBlock(t *testing.T) {
	t.Parallel()
	b := bt.NewAssistantBlock("## Resumo\n\nTemos **237 clientes**.", analyst.DefaultTheme())
	view := stripANSI(b.View(80))
	assert.Contains(t, view, "Resumo")
	assert.Contains(t, view, "Temos 237 clientes.")
	assert.Equal(t, b.View(80), b.View(80))
	assert.Equal(t, "## Resumo\n\nTemos **237 clientes**.", b.Text())
}

func TestErrorBlock(t *testing.T) {
	t.Parallel()
	b := bt.NewErrorBlock(errors.New("classifier exploded"), bt.NewStyles(analyst.DefaultTheme()))
	assert.Contains(t, stripANSI(b.View(80)), "✗ classifier exploded")
}

func TestRouteBlock(t *testing.T) {
	t.Parallel()
	styles := bt.NewStyles(analyst.DefaultTheme())

	t.Run("data query", func(t *testing.T) {
		t.Parallel()
		view := stripANSI(bt.NewRouteBlock(bt.RouteFromTurn(countTurn()), styles).View(80))
		assert.Contains(t, view, "↳ data_query · client_view · 92% · llm")
		assert.NotContains(t, view, "degraded")
	})

	t.Run("degraded keyword fallback with error", func(t *testing.T) {
		t.Parallel()
		r := bt.Route{
			Category:   analyst.CategoryDataQuery,
			Specialist: analyst.SpecialistSale,
			Confidence: 0.6,
			Source:     analyst.SourceKeyword,
			Degraded:   true,
			ErrorKind:  analyst.KindStoreUnavailable,
		}
		view := stripANSI(bt.NewRouteBlock(r, styles).View(80))
		assert.Contains(t, view, "sale_view · 60% · keyword · degraded store_unavailable")
	})

	t.Run("general chat omits specialist", func(t *testing.T) {
		t.Parallel()
		r := bt.Route{Category: analyst.CategoryGeneralChat, Confidence: 0.85, Source: analyst.SourceLLM}
		view := stripANSI(bt.NewRouteBlock(r, styles).View(80))
		assert.Contains(t, view, "↳ general_chat · 85% · llm")
	})
}

func TestRouteFromMetadata(t *testing.T) {
	t.Parallel()

	r, ok := bt.RouteFromMetadata(map[string]any{
		"category":        "data_query",
		"specialist":      "cluster_view",
		"confidence":      0.75,
		"decision_source": "keyword",
		"degraded":        true,
		"error_kind":      "invalid_table",
	})
	require.True(t, ok)
	assert.Equal(t, bt.Route{
		Category:   analyst.CategoryDataQuery,
		Specialist: analyst.SpecialistCluster,
		Confidence: 0.75,
		Source:     analyst.SourceKeyword,
		Degraded:   true,
		ErrorKind:  analyst.KindInvalidTable,
	}, r)

	_, ok = bt.RouteFromMetadata(nil)
	assert.False(t, ok)
}

func TestDataBlock(t *testing.T) {
	t.Parallel()
	styles := bt.NewStyles(analyst.DefaultTheme())

	t.Run("rows align with accented text", func(t *testing.T) {
		t.Parallel()
		result := analyst.Result{Rows: []analyst.Row{
			{"label": "Médio", "gm_total": 1234.567, "clientes": 40},
			{"label": "Alto Valor", "gm_total": 99.5, "clientes": 7},
		}}
		meta := analyst.ResponseMetadata{RowCount: 2, QueryKind: analyst.QuerySelect}
		b := bt.NewDataBlock(result, meta, []string{"label", "gm_total"}, styles)

		lines := strings.Split(stripANSI(b.View(80)), "\n")
		require.Len(t, lines, 4)
		assert.Contains(t, lines[0], "select · 2 linhas")
		assert.True(t, strings.HasPrefix(lines[1], "label"))
		assert.Contains(t, lines[1], "clientes")
		assert.Less(t, strings.Index(lines[1], "gm_total"), strings.Index(lines[1], "clientes"))
		assert.Contains(t, lines[2], "1234.57")

		// The second column starts at the same display column in every row.
		col := runewidth.StringWidth("Alto Valor") + 2
		assert.Equal(t, col, runewidth.StringWidth(lines[2][:strings.Index(lines[2], "1234.57")]))
		assert.Equal(t, col, runewidth.StringWidth(lines[3][:strings.Index(lines[3], "99.5")]))
	})

	t.Run("long rows are elided", func(t *testing.T) {
		t.Parallel()
		rows := make([]analyst.Row, 12)
		for i := range rows {
			rows[i] = analyst.Row{"id": i}
		}
		b := bt.NewDataBlock(analyst.Result{Rows: rows}, analyst.ResponseMetadata{RowCount: 12, QueryKind: analyst.QuerySelect}, nil, styles)
		view := stripANSI(b.View(80))
		assert.Contains(t, view, "… mais 4 linhas")
		assert.NotContains(t, view, "\n9\n")
	})

	t.Run("wide cells are truncated on grapheme boundaries", func(t *testing.T) {
		t.Parallel()
		long := strings.Repeat("Visão ", 10)
		b := bt.NewDataBlock(analyst.Result{Rows: []analyst.Row{{"nome": long}}}, analyst.ResponseMetadata{RowCount: 1}, nil, styles)
		lines := strings.Split(stripANSI(b.View(80)), "\n")
		require.Len(t, lines, 3)
		assert.True(t, strings.HasSuffix(lines[2], "…"))
		assert.LessOrEqual(t, runewidth.StringWidth(lines[2]), 24)
	})

	t.Run("record renders key value lines", func(t *testing.T) {
		t.Parallel()
		b := bt.NewDataBlock(analyst.Result{Record: analyst.Row{"total_clientes": 237, "receita_bruta_12m_sum": 35300.5}},
			analyst.ResponseMetadata{RowCount: 1, QueryKind: analyst.QueryAggregate}, nil, styles)
		lines := strings.Split(stripANSI(b.View(80)), "\n")
		require.Len(t, lines, 3)
		assert.Contains(t, lines[1], "receita_bruta_12m_sum")
		assert.Contains(t, lines[1], "35300.5")
		assert.Contains(t, lines[2], "total_clientes")
		assert.Contains(t, lines[2], "237")
	})

	t.Run("null values and toggle", func(t *testing.T) {
		t.Parallel()
		b := bt.NewDataBlock(analyst.Result{Rows: []analyst.Row{{"cluster": nil}}}, analyst.ResponseMetadata{RowCount: 1}, nil, styles)
		assert.Contains(t, stripANSI(b.View(80)), "—")
		assert.False(t, b.Collapsed())

		updated, _ := b.Update(bt.ToggleMsg{})
		db := updated.(*bt.DataBlock)
		assert.True(t, db.Collapsed())
		view := stripANSI(db.View(80))
		assert.True(t, strings.HasPrefix(view, "▶"))
		assert.NotContains(t, view, "\n")
	})

	t.Run("lines fit narrow widths", func(t *testing.T) {
		t.Parallel()
		b := bt.NewDataBlock(analyst.Result{Rows: []analyst.Row{
			{"a": "xxxxxxxxxx", "b": "yyyyyyyyyy", "c": "zzzzzzzzzz"},
		}}, analyst.ResponseMetadata{RowCount: 1}, nil, styles)
		for _, line := range strings.Split(b.View(20), "\n") {
			assert.LessOrEqual(t, lipgloss.Width(line), 20, "line %q", stripANSI(line))
		}
	})
}

func TestBlockSeparator(t *testing.T) {
	t.Parallel()
	styles := bt.NewStyles(analyst.DefaultTheme())
	user := bt.NewUserMessageBlock("oi", styles)
	route := bt.NewRouteBlock(bt.Route{Category: analyst.CategoryGeneralChat}, styles)
	data := bt.NewDataBlock(analyst.Result{}, analyst.ResponseMetadata{}, nil, styles)
	reply := bt.NewAssistantBlock("olá", analyst.DefaultTheme())

	assert.Equal(t, "\n\n", bt.BlockSeparator(user, route))
	assert.Equal(t, "\n", bt.BlockSeparator(route, data))
	assert.Equal(t, "\n", bt.BlockSeparator(route, reply))
	assert.Equal(t, "\n", bt.BlockSeparator(data, reply))
	assert.Equal(t, "\n\n", bt.BlockSeparator(reply, user))
}
