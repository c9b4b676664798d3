// Package specialist holds the registry of data-view handlers and the
// handlers themselves. Each handler translates query parameters into store
// descriptors for one bound view and reduces the rows it gets back.
package specialist

import (
	"fmt"

	"github.com/fwojciec/analyst"
)

// Entry is one registry record. A nil Handler marks a registered but unbound
// specialist.
type Entry struct {
	Info    analyst.SpecialistInfo
	Handler analyst.Handler
}

// Interface compliance check.
var _ analyst.Resolver = (*Registry)(nil)

// Registry maps specialist references to handlers in a fixed priority order.
// It is immutable after construction.
type Registry struct {
	entries []Entry
	index   map[analyst.SpecialistRef]int
}

// NewRegistry creates a registry from entries, in priority order. A later
// entry with the same reference replaces the earlier one in place.
func NewRegistry(entries ...Entry) *Registry {
	r := &Registry{index: make(map[analyst.SpecialistRef]int, len(entries))}
	for _, e := range entries {
		e.Info.Bound = e.Handler != nil
		if i, ok := r.index[e.Info.Ref]; ok {
			r.entries[i] = e
			continue
		}
		r.index[e.Info.Ref] = len(r.entries)
		r.entries = append(r.entries, e)
	}
	return r
}

// NewDefault registers the five views over store. The period view is bound
// only when periodEnabled is set, since its table may not exist yet.
func NewDefault(store analyst.TableStore, periodEnabled bool, opts ...Option) *Registry {
	entries := make([]Entry, 0, 5)
	for _, v := range []View{ClientView(), ClusterView(), SaleView(), ProductView()} {
		entries = append(entries, Entry{Info: v.Info(true), Handler: NewHandler(store, v, opts...)})
	}
	period := Entry{Info: PeriodView().Info(false)}
	if periodEnabled {
		period.Handler = NewPeriodHandler(store, opts...)
	}
	return NewRegistry(append(entries, period)...)
}

// Catalog describes every registered specialist, bound or not, in priority
// order.
func (r *Registry) Catalog() []analyst.SpecialistInfo {
	out := make([]analyst.SpecialistInfo, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Info
	}
	return out
}

// Known reports whether ref is registered, bound or not.
func (r *Registry) Known(ref analyst.SpecialistRef) bool {
	_, ok := r.index[ref]
	return ok
}

// Resolve returns the handler bound to ref.
func (r *Registry) Resolve(ref analyst.SpecialistRef) (analyst.Handler, error) {
	i, ok := r.index[ref]
	if !ok {
		return nil, fmt.Errorf("specialist %q is not registered: %w", ref, analyst.ErrUnknownSpecialist)
	}
	if r.entries[i].Handler == nil {
		return nil, fmt.Errorf("specialist %q has no bound handler: %w", ref, analyst.ErrUnknownSpecialist)
	}
	return r.entries[i].Handler, nil
}
