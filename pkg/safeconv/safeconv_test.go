package safeconv_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/sgevolve/pkg/safeconv"
)

func TestMustIntToUint32(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint32(0), safeconv.MustIntToUint32(0))
	assert.Equal(t, uint32(42), safeconv.MustIntToUint32(42))
	assert.Equal(t, safeconv.MaxUint32, safeconv.MustIntToUint32(int(safeconv.MaxUint32)))

	assert.PanicsWithValue(t, "safeconv: int to uint32 out of bounds", func() {
		safeconv.MustIntToUint32(-1)
	})
	assert.PanicsWithValue(t, "safeconv: int to uint32 out of bounds", func() {
		safeconv.MustIntToUint32(int(safeconv.MaxUint32) + 1)
	})
}

func TestMustNonNegative(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(7), safeconv.MustNonNegative(7))
	assert.PanicsWithValue(t, "safeconv: negative value", func() {
		safeconv.MustNonNegative(-7)
	})
}
