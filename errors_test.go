package analyst_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fwojciec/analyst"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want analyst.ErrorKind
	}{
		{nil, analyst.KindNone},
		{fmt.Errorf("gemini: %w", analyst.ErrClassificationUnavailable), analyst.KindClassificationUnavailable},
		{fmt.Errorf("resolve %q: %w", "period_comparison", analyst.ErrUnknownSpecialist), analyst.KindUnknownSpecialist},
		{analyst.ErrInvalidTable, analyst.KindInvalidTable},
		{analyst.ErrInvalidParameters, analyst.KindInvalidParameters},
		{fmt.Errorf("bad: %w", analyst.ErrValidation), analyst.KindInvalidParameters},
		{fmt.Errorf("sqlite: %w", analyst.ErrStoreUnavailable), analyst.KindStoreUnavailable},
		{analyst.ErrNotFound, analyst.KindStoreUnavailable},
		{analyst.ErrSynthesisUnavailable, analyst.KindSynthesisUnavailable},
		{errors.New("boom"), analyst.KindInternal},
	}
	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, analyst.KindOf(tt.err))
		})
	}
}
