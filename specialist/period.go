package specialist

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/fwojciec/analyst"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Trend is the direction of a period-over-period change.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// Change is the comparison of one metric between two periods.
type Change struct {
	Value1     float64
	Value2     float64
	Absolute   float64
	Percentage float64
	Trend      Trend
}

// CompareValues compares v2 against the base v1. A zero base yields 100%
// when v2 is positive and 0% otherwise.
func CompareValues(v1, v2 float64) Change {
	c := Change{Value1: v1, Value2: v2, Absolute: analyst.Round2(v2 - v1)}
	switch {
	case v1 != 0:
		c.Percentage = analyst.Round2((v2 - v1) / v1 * 100)
	case v2 > 0:
		c.Percentage = 100
	}
	switch {
	case c.Absolute > 0:
		c.Trend = TrendUp
	case c.Absolute < 0:
		c.Trend = TrendDown
	default:
		c.Trend = TrendStable
	}
	return c
}

const monthLayout = "2006-01"

// PeriodMetrics are compared when the parameters name no fields.
var PeriodMetrics = []string{"receita_bruta", "margem_bruta", "receita_liquida", "cmv"}

// PeriodView is the monthly time-series view.
func PeriodView() View {
	return View{
		Ref:         analyst.SpecialistPeriod,
		Table:       TableMonthly,
		Description: "comparação de métricas entre dois meses",
		Fields:      append([]string{"month"}, PeriodMetrics...),
		Keywords: []string{
			"comparar", "compare", "versus", " vs ", "variação", "variacao",
			"crescimento", "mês anterior", "mes anterior", "mensal",
		},
		Examples: []string{
			"Compare a receita deste mês com o anterior",
			"Crescimento da margem entre 2024-01 e 2024-02",
		},
		Metric: "receita_bruta",
	}
}

// PeriodHandler compares monthly metrics between two periods.
type PeriodHandler struct {
	view    View
	store   analyst.TableStore
	timeout time.Duration
	logger  *zap.Logger
}

// Interface compliance check.
var _ analyst.Handler = (*PeriodHandler)(nil)

// NewPeriodHandler binds the period view to store.
func NewPeriodHandler(store analyst.TableStore, opts ...Option) *PeriodHandler {
	o := newOptions(opts)
	v := PeriodView()
	return &PeriodHandler{
		view:    v,
		store:   store,
		timeout: o.timeout,
		logger:  o.logger.With(zap.String("specialist", string(v.Ref))),
	}
}

// Handle compares Period1 with Period2, or the two latest months when either
// is empty. Result rows hold one metric each.
func (h *PeriodHandler) Handle(ctx context.Context, in analyst.AgentInstruction) analyst.AgentResponse {
	start := time.Now()
	p := in.Parameters
	meta := analyst.ResponseMetadata{QueryKind: p.Kind, Diagnostics: map[string]any{"table": h.view.Table}}
	fail := func(err error) analyst.AgentResponse {
		meta.Elapsed = time.Since(start)
		h.logger.Warn("handler failed", zap.String("error_kind", string(analyst.KindOf(err))), zap.Error(err))
		return analyst.Fail(err, meta)
	}

	if p.Table != h.view.Table {
		return fail(fmt.Errorf("%s is bound to %q, got %q: %w", h.view.Ref, h.view.Table, p.Table, analyst.ErrInvalidTable))
	}
	metrics, err := h.metrics(p.Fields)
	if err != nil {
		return fail(err)
	}
	for field := range p.Filters {
		if !h.view.hasField(field) {
			return fail(fmt.Errorf("unknown filter field %q: %w", field, analyst.ErrInvalidParameters))
		}
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	var r1, r2 analyst.Row
	if p.Period1 != "" && p.Period2 != "" {
		r1, r2, err = h.loadPeriods(ctx, p)
	} else {
		r1, r2, err = h.loadLatest(ctx, p)
	}
	if err != nil {
		return fail(err)
	}

	rows := make([]analyst.Row, 0, len(metrics))
	for _, m := range metrics {
		v1, _ := analyst.Float(r1[m])
		v2, _ := analyst.Float(r2[m])
		c := CompareValues(v1, v2)
		rows = append(rows, analyst.Row{
			"metric":            m,
			"period1":           r1["month"],
			"period2":           r2["month"],
			"value1":            analyst.Round2(c.Value1),
			"value2":            analyst.Round2(c.Value2),
			"absolute_change":   c.Absolute,
			"percentage_change": c.Percentage,
			"trend":             string(c.Trend),
		})
	}
	meta.RowCount = len(rows)
	meta.Elapsed = time.Since(start)
	return analyst.Succeed(analyst.Result{Rows: rows}, meta)
}

func (h *PeriodHandler) metrics(fields []string) ([]string, error) {
	var out []string
	for _, f := range fields {
		if f == "month" {
			continue
		}
		if !slices.Contains(PeriodMetrics, f) {
			return nil, fmt.Errorf("unknown metric %q: %w", f, analyst.ErrInvalidParameters)
		}
		out = append(out, f)
	}
	if len(out) == 0 {
		return PeriodMetrics, nil
	}
	return out, nil
}

// loadPeriods fetches both months concurrently and sums multiple rows per
// month.
func (h *PeriodHandler) loadPeriods(ctx context.Context, p analyst.QueryParameters) (analyst.Row, analyst.Row, error) {
	for _, s := range []string{p.Period1, p.Period2} {
		if _, err := time.Parse(monthLayout, s); err != nil {
			return nil, nil, fmt.Errorf("period %q is not YYYY-MM: %w", s, analyst.ErrInvalidParameters)
		}
	}
	var rows [2][]analyst.Row
	g, gctx := errgroup.WithContext(ctx)
	for i, period := range []string{p.Period1, p.Period2} {
		g.Go(func() error {
			where := map[string]any{"month": period}
			for k, v := range p.Filters {
				where[k] = v
			}
			var err error
			rows[i], err = h.store.Select(gctx, analyst.Query{Table: h.view.Table, Where: where})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("%s: %w: %w", h.view.Ref, analyst.ErrStoreUnavailable, err)
	}
	for i, period := range []string{p.Period1, p.Period2} {
		if len(rows[i]) == 0 {
			return nil, nil, fmt.Errorf("no data for period %s: %w", period, analyst.ErrNotFound)
		}
	}
	return sumRows(rows[0], p.Period1), sumRows(rows[1], p.Period2), nil
}

func (h *PeriodHandler) loadLatest(ctx context.Context, p analyst.QueryParameters) (analyst.Row, analyst.Row, error) {
	rows, err := h.store.Select(ctx, analyst.Query{
		Table:   h.view.Table,
		Where:   p.Filters,
		OrderBy: &analyst.OrderBy{Field: "month", Direction: analyst.Desc},
		Limit:   2,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w: %w", h.view.Ref, analyst.ErrStoreUnavailable, err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("need two months to compare, have %d: %w", len(rows), analyst.ErrNotFound)
	}
	return rows[1], rows[0], nil
}

func sumRows(rows []analyst.Row, month string) analyst.Row {
	out := analyst.Row{"month": month}
	for _, m := range PeriodMetrics {
		var sum float64
		for _, r := range rows {
			if f, ok := analyst.Float(r[m]); ok {
				sum += f
			}
		}
		out[m] = sum
	}
	return out
}
