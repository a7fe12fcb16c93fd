package fontweight

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_Table(t *testing.T) {
	tests := []struct {
		weight int
		bold   bool
		want   int
	}{
		{300, true, 400},
		{500, true, 700},
		{800, true, 800},
		{300, false, 300},
		{100, true, 400},
		{400, true, 700},
		{600, true, 700},
		{700, true, 700},
		{900, false, 900},
	}
	for _, tt := range tests {
		got, err := Resolve(tt.weight, tt.bold)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "Resolve(%d, %v)", tt.weight, tt.bold)
	}
}

func TestResolve_Totality(t *testing.T) {
	for w := Min; w <= Max; w += Step {
		for _, bold := range []bool{false, true} {
			got, err := Resolve(w, bold)
			require.NoError(t, err)
			assert.NoError(t, Validate(got), "Resolve(%d, %v) left the domain", w, bold)
			assert.GreaterOrEqual(t, got, w, "bold must never lighten a weight")
			if !bold {
				assert.Equal(t, w, got)
			}
		}
	}
}

func TestResolve_InvalidWeight(t *testing.T) {
	for _, w := range []int{0, 50, 99, 150, 950, 1000, -100} {
		_, err := Resolve(w, true)
		var iw *InvalidWeightError
		require.True(t, errors.As(err, &iw), "weight %d: want InvalidWeightError, got %v", w, err)
		assert.Equal(t, w, iw.Weight)
	}
}

func TestAmbiguous(t *testing.T) {
	assert.True(t, Ambiguous(300, true))
	assert.True(t, Ambiguous(500, true))
	assert.False(t, Ambiguous(400, true))
	assert.False(t, Ambiguous(700, true))
	assert.False(t, Ambiguous(300, false))
}

func TestTable_Supports(t *testing.T) {
	assert.True(t, KnownFamilies.Supports("Roboto", 300))
	assert.True(t, KnownFamilies.Supports(" roboto mono ", 600))
	assert.False(t, KnownFamilies.Supports("Arial", 300))
	assert.False(t, KnownFamilies.Supports("No Such Font", 400))
}
