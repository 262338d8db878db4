package mathutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/sgevolve/pkg/mathutil"
)

func TestAbs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 5, mathutil.Abs(-5))
	assert.Equal(t, 5, mathutil.Abs(5))
	assert.Equal(t, 0, mathutil.Abs(0))
	assert.InDelta(t, 0.25, mathutil.Abs(-0.25), 1e-12)
}

func TestClamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		v        float64
		expected float64
	}{
		{name: "below", v: -0.5, expected: 0},
		{name: "inside", v: 0.3, expected: 0.3},
		{name: "above", v: 7, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.InDelta(t, tt.expected, mathutil.Clamp(tt.v, 0, 1), 1e-12)
		})
	}
}
