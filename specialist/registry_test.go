package specialist_test

import (
	"context"
	"testing"

	"github.com/fwojciec/analyst"
	"github.com/fwojciec/analyst/intent"
	"github.com/fwojciec/analyst/memory"
	"github.com/fwojciec/analyst/mock"
	"github.com/fwojciec/analyst/specialist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Default(t *testing.T) {
	t.Parallel()

	t.Run("catalog is in priority order", func(t *testing.T) {
		t.Parallel()
		r := specialist.NewDefault(memory.NewTableStore(nil), false)
		var refs []analyst.SpecialistRef
		for _, info := range r.Catalog() {
			refs = append(refs, info.Ref)
		}
		assert.Equal(t, []analyst.SpecialistRef{
			analyst.SpecialistClient,
			analyst.SpecialistCluster,
			analyst.SpecialistSale,
			analyst.SpecialistProduct,
			analyst.SpecialistPeriod,
		}, refs)
	})

	t.Run("period is registered but unbound by default", func(t *testing.T) {
		t.Parallel()
		r := specialist.NewDefault(memory.NewTableStore(nil), false)
		assert.True(t, r.Known(analyst.SpecialistPeriod))
		assert.False(t, r.Catalog()[4].Bound)
		_, err := r.Resolve(analyst.SpecialistPeriod)
		assert.ErrorIs(t, err, analyst.ErrUnknownSpecialist)
	})

	t.Run("period bound when enabled", func(t *testing.T) {
		t.Parallel()
		r := specialist.NewDefault(memory.NewTableStore(nil), true)
		h, err := r.Resolve(analyst.SpecialistPeriod)
		require.NoError(t, err)
		assert.IsType(t, &specialist.PeriodHandler{}, h)
	})

	t.Run("unknown reference", func(t *testing.T) {
		t.Parallel()
		r := specialist.NewDefault(memory.NewTableStore(nil), true)
		assert.False(t, r.Known("inventory_view"))
		_, err := r.Resolve("inventory_view")
		assert.ErrorIs(t, err, analyst.ErrUnknownSpecialist)
		assert.Equal(t, analyst.KindUnknownSpecialist, analyst.KindOf(err))
	})
}

func TestRegistry_ReplacesDuplicateInPlace(t *testing.T) {
	t.Parallel()

	h := &mock.Handler{}
	r := specialist.NewRegistry(
		specialist.Entry{Info: analyst.SpecialistInfo{Ref: "a"}},
		specialist.Entry{Info: analyst.SpecialistInfo{Ref: "b"}},
		specialist.Entry{Info: analyst.SpecialistInfo{Ref: "a"}, Handler: h},
	)
	cat := r.Catalog()
	require.Len(t, cat, 2)
	assert.Equal(t, analyst.SpecialistRef("a"), cat[0].Ref)
	assert.True(t, cat[0].Bound)
	got, err := r.Resolve("a")
	require.NoError(t, err)
	assert.Same(t, h, got)
}

// Classifier output, on either path, only names registered specialists, and
// every bound one resolves.
func TestRegistry_ResolvesClassifierReferences(t *testing.T) {
	t.Parallel()

	r := specialist.NewDefault(memory.NewTableStore(nil), true)
	utterances := []string{
		"Quantos clientes temos?", "top 5 vendas de janeiro", "categorias com maior margem",
		"qual cluster cresce mais", "compare a receita com o mês anterior", "bom dia",
		"produtos", "pedido 42", "recência média", "segmento premium",
	}
	completers := []analyst.Completer{
		mock.Text(`not json`),
		mock.Text(`{"category":"data_query","confidence":0.8,"specialist":"sale_view"}`),
		mock.Text(`{"category":"data_query","confidence":0.8,"specialist":"warehouse_view"}`),
	}
	for _, c := range completers {
		cl := intent.New(c, r.Catalog())
		for _, u := range utterances {
			d := cl.Classify(context.Background(), u, nil)
			if d.Category != analyst.CategoryDataQuery {
				continue
			}
			assert.True(t, r.Known(d.Specialist), "%q routed to %q", u, d.Specialist)
			_, err := r.Resolve(d.Specialist)
			assert.NoError(t, err, "%q routed to %q", u, d.Specialist)
		}
	}
}
