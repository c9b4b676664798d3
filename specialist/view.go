package specialist

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/fwojciec/analyst"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Bound is a comparison applied by a filter alias.
type Bound string

const (
	BoundGT  Bound = "gt"
	BoundGTE Bound = "gte"
	BoundLT  Bound = "lt"
	BoundLTE Bound = "lte"
)

// Alias maps a convenience filter name onto a range bound of a real field,
// e.g. receita_min -> receita_bruta_12m >= value.
type Alias struct {
	Field string
	Bound Bound
}

func (a Alias) apply(r analyst.Range, v any) analyst.Range {
	switch a.Bound {
	case BoundGT:
		r.GT = v
	case BoundGTE:
		r.GTE = v
	case BoundLT:
		r.LT = v
	case BoundLTE:
		r.LTE = v
	}
	return r
}

// View describes one logical data view a handler is bound to.
type View struct {
	Ref         analyst.SpecialistRef
	Table       string
	Description string
	Fields      []string
	Aliases     map[string]Alias
	Keywords    []string
	Examples    []string
	// Metric is the headline numeric field of the view.
	Metric string
	// CountKey names the record key holding a row count.
	CountKey     string
	DefaultOrder *analyst.OrderBy
	// GroupBy, when set, groups select and aggregate queries by default.
	GroupBy             string
	DefaultAggregations map[string]analyst.AggregateOp
	// Enrich is applied to every output row.
	Enrich func(analyst.Row)
}

// Info describes the view to the classifier.
func (v View) Info(bound bool) analyst.SpecialistInfo {
	return analyst.SpecialistInfo{
		Ref:         v.Ref,
		Table:       v.Table,
		Description: v.Description,
		Fields:      v.Fields,
		Keywords:    v.Keywords,
		Examples:    v.Examples,
		Metric:      v.Metric,
		Bound:       bound,
	}
}

func (v View) hasField(f string) bool { return slices.Contains(v.Fields, f) }

// Handler answers instructions for a View against a TableStore.
type Handler struct {
	view         View
	store        analyst.TableStore
	timeout      time.Duration
	defaultLimit int
	maxLimit     int
	logger       *zap.Logger
}

// Interface compliance check.
var _ analyst.Handler = (*Handler)(nil)

// NewHandler binds view to store.
func NewHandler(store analyst.TableStore, view View, opts ...Option) *Handler {
	o := newOptions(opts)
	return &Handler{
		view:         view,
		store:        store,
		timeout:      o.timeout,
		defaultLimit: o.defaultLimit,
		maxLimit:     o.maxLimit,
		logger:       o.logger.With(zap.String("specialist", string(view.Ref))),
	}
}

// View returns the bound view.
func (h *Handler) View() View { return h.view }

// Handle executes the instruction. It never panics on store failure and
// always fills QueryKind, RowCount and Elapsed.
func (h *Handler) Handle(ctx context.Context, in analyst.AgentInstruction) analyst.AgentResponse {
	start := time.Now()
	p := in.Parameters
	meta := analyst.ResponseMetadata{QueryKind: p.Kind, Diagnostics: map[string]any{"table": h.view.Table}}

	fail := func(err error) analyst.AgentResponse {
		meta.Elapsed = time.Since(start)
		h.logger.Warn("handler failed",
			zap.String("error_kind", string(analyst.KindOf(err))),
			zap.Error(err),
		)
		return analyst.Fail(err, meta)
	}

	if p.Table != h.view.Table {
		return fail(fmt.Errorf("%s is bound to %q, got %q: %w", h.view.Ref, h.view.Table, p.Table, analyst.ErrInvalidTable))
	}
	if p.Kind == analyst.QueryAggregate && len(p.Aggregations) == 0 && p.GroupBy == "" {
		p.Aggregations = h.view.DefaultAggregations
		p.GroupBy = h.view.GroupBy
	}
	if err := p.Validate(h.maxLimit); err != nil {
		return fail(err)
	}
	q, err := h.translate(p)
	if err != nil {
		return fail(err)
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	var res analyst.Result
	switch {
	case p.Kind == analyst.QueryCount:
		res, meta.RowCount, err = h.count(ctx, q)
	case p.Kind == analyst.QueryAggregate, h.view.GroupBy != "":
		res, meta.RowCount, err = h.aggregate(ctx, q, p)
	default:
		res, meta.RowCount, err = h.selectRows(ctx, q, meta.Diagnostics)
	}
	if err != nil {
		return fail(err)
	}
	meta.Elapsed = time.Since(start)
	h.logger.Debug("handler succeeded",
		zap.String("query_kind", string(p.Kind)),
		zap.Int("row_count", meta.RowCount),
		zap.Duration("elapsed", meta.Elapsed),
	)
	return analyst.Succeed(res, meta)
}

// translate turns parameters into a store descriptor, resolving aliases and
// checking every referenced field against the view.
func (h *Handler) translate(p analyst.QueryParameters) (analyst.Query, error) {
	q := analyst.Query{Table: h.view.Table}

	for _, f := range p.Fields {
		if h.view.hasField(f) {
			q.Fields = append(q.Fields, f)
		}
	}

	for name, val := range p.Filters {
		if a, ok := h.view.Aliases[name]; ok {
			if q.Ranges == nil {
				q.Ranges = make(map[string]analyst.Range)
			}
			q.Ranges[a.Field] = a.apply(q.Ranges[a.Field], val)
			continue
		}
		if !h.view.hasField(name) {
			return q, fmt.Errorf("unknown filter field %q for %s: %w", name, h.view.Ref, analyst.ErrInvalidParameters)
		}
		if q.Where == nil {
			q.Where = make(map[string]any)
		}
		q.Where[name] = val
	}
	for field, r := range p.Ranges {
		if !h.view.hasField(field) {
			return q, fmt.Errorf("unknown range field %q for %s: %w", field, h.view.Ref, analyst.ErrInvalidParameters)
		}
		if q.Ranges == nil {
			q.Ranges = make(map[string]analyst.Range)
		}
		q.Ranges[field] = merge(q.Ranges[field], r)
	}
	for field := range p.Aggregations {
		if !h.view.hasField(field) {
			return q, fmt.Errorf("unknown aggregation field %q for %s: %w", field, h.view.Ref, analyst.ErrInvalidParameters)
		}
	}
	if p.GroupBy != "" && !h.view.hasField(p.GroupBy) {
		return q, fmt.Errorf("unknown group field %q for %s: %w", p.GroupBy, h.view.Ref, analyst.ErrInvalidParameters)
	}

	q.OrderBy = p.OrderBy
	if q.OrderBy == nil {
		q.OrderBy = h.view.DefaultOrder
	}
	grouped := p.Kind == analyst.QueryAggregate || h.view.GroupBy != ""
	if q.OrderBy != nil && !grouped && !h.view.hasField(q.OrderBy.Field) {
		return q, fmt.Errorf("unknown order field %q for %s: %w", q.OrderBy.Field, h.view.Ref, analyst.ErrInvalidParameters)
	}

	q.Limit = p.Limit
	if q.Limit == 0 {
		q.Limit = h.defaultLimit
	}
	return q, nil
}

func merge(a, b analyst.Range) analyst.Range {
	if b.GT != nil {
		a.GT = b.GT
	}
	if b.GTE != nil {
		a.GTE = b.GTE
	}
	if b.LT != nil {
		a.LT = b.LT
	}
	if b.LTE != nil {
		a.LTE = b.LTE
	}
	return a
}

func (h *Handler) count(ctx context.Context, q analyst.Query) (analyst.Result, int, error) {
	n, err := h.store.Count(ctx, q)
	if err != nil {
		return analyst.Result{}, 0, h.storeErr(err)
	}
	return analyst.Result{Record: analyst.Row{h.view.CountKey: n}}, n, nil
}

// selectRows fetches the page and the total matching count concurrently.
func (h *Handler) selectRows(ctx context.Context, q analyst.Query, diag map[string]any) (analyst.Result, int, error) {
	var (
		rows  []analyst.Row
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = h.store.Select(gctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = h.store.Count(gctx, q)
		return err
	})
	if err := g.Wait(); err != nil {
		return analyst.Result{}, 0, h.storeErr(err)
	}
	h.enrich(rows)
	if rows == nil {
		rows = []analyst.Row{}
	}
	diag["total_matching"] = total
	return analyst.Result{Rows: rows}, len(rows), nil
}

// aggregate fetches every matching row with only the fields it reduces
// over, then reduces in the handler. The limit applies to groups.
func (h *Handler) aggregate(ctx context.Context, q analyst.Query, p analyst.QueryParameters) (analyst.Result, int, error) {
	aggs := p.Aggregations
	if len(aggs) == 0 {
		aggs = h.view.DefaultAggregations
	}
	groupBy := p.GroupBy
	if groupBy == "" {
		groupBy = h.view.GroupBy
	}

	fetch := q
	fetch.OrderBy, fetch.Limit = nil, 0
	fetch.Fields = slices.Sorted(maps.Keys(aggs))
	if groupBy != "" && !slices.Contains(fetch.Fields, groupBy) {
		fetch.Fields = append(fetch.Fields, groupBy)
	}
	rows, err := h.store.Select(ctx, fetch)
	if err != nil {
		return analyst.Result{}, 0, h.storeErr(err)
	}

	if groupBy == "" {
		rec := Reduce(rows, aggs)
		rec[h.view.CountKey] = len(rows)
		h.enrich([]analyst.Row{rec})
		return analyst.Result{Record: rec}, len(rows), nil
	}

	groups := Group(rows, groupBy, aggs, h.view.CountKey)
	h.enrich(groups)
	if q.OrderBy != nil {
		SortRows(groups, orderKey(q.OrderBy.Field, aggs), q.OrderBy.Direction)
	}
	if q.Limit > 0 && len(groups) > q.Limit {
		groups = groups[:q.Limit]
	}
	return analyst.Result{Rows: groups}, len(rows), nil
}

func (h *Handler) enrich(rows []analyst.Row) {
	if h.view.Enrich == nil {
		return
	}
	for _, r := range rows {
		h.view.Enrich(r)
	}
}

func (h *Handler) storeErr(err error) error {
	return fmt.Errorf("%s on %q: %w: %w", h.view.Ref, h.view.Table, analyst.ErrStoreUnavailable, err)
}
