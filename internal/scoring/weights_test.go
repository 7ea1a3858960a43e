package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultWeights(t *testing.T) {
	w := DefaultWeights()

	assert.NoError(t, w.Validate())
	assert.InDelta(t, 1.0, w.Sum(), 1e-9)
	assert.Equal(t, 0.25, w.Get(CategoryIncome))
	assert.Equal(t, 0.02, w.Get(CategoryLoanType))
}

func TestDefaultWeights_ReturnsIndependentCopies(t *testing.T) {
	a := DefaultWeights()
	a.Income = 0.9

	assert.Equal(t, 0.25, DefaultWeights().Income)
}

func TestWeights_With(t *testing.T) {
	base := DefaultWeights()
	changed := base.With(CategoryCollateral, 0.4)

	assert.Equal(t, 0.4, changed.Collateral)
	assert.Equal(t, 0.10, base.Collateral)
	for _, c := range Categories {
		if c != CategoryCollateral {
			assert.Equal(t, base.Get(c), changed.Get(c), "category %s", c)
		}
	}
}

func TestWeights_Validate(t *testing.T) {
	tests := []struct {
		name    string
		weights Weights
		wantErr string
	}{
		{"negative", DefaultWeights().With(CategoryGuarantors, -0.05), "weight guarantors"},
		{"not a number", DefaultWeights().With(CategoryDemographics, math.NaN()), "weight demographics"},
		{"does not sum to one", DefaultWeights().With(CategoryIncome, 0.5), "sum to 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.weights.Validate()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWeights_Normalize(t *testing.T) {
	w := DefaultWeights().With(CategoryIncome, 0.35).Normalize()

	assert.InDelta(t, 1.0, w.Sum(), 1e-9)
	assert.InDelta(t, 0.35/1.1, w.Income, 1e-9)
	assert.NoError(t, w.Validate())

	assert.Equal(t, DefaultWeights(), Weights{}.Normalize())
}
