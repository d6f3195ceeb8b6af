package blob

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tenBytes() []byte {
	return []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
}

func TestCountedBufReaderAdvance(t *testing.T) {
	r := NewCountedBufReader(tenBytes())
	assert.Equal(t, 10, r.TotalLen())
	assert.Empty(t, r.Accumulator())

	r.Advance(3)
	assert.Equal(t, []byte{0, 1, 2}, r.Accumulator())
	assert.Equal(t, 7, r.Remaining())
	assert.Equal(t, 10, r.TotalLen())

	r.Advance(100)
	assert.Equal(t, tenBytes(), r.Accumulator())
	assert.Equal(t, 0, r.Remaining())
	assert.Equal(t, 10, r.TotalLen())

	r.Advance(5)
	assert.Equal(t, tenBytes(), r.Accumulator())
	assert.Equal(t, 0, r.Remaining())
}

func TestCountedBufReaderClamps(t *testing.T) {
	for _, n := range []int{10, 11, 1 << 20, math.MaxInt} {
		r := NewCountedBufReader(tenBytes())
		r.Advance(n)
		assert.Equal(t, tenBytes(), r.Accumulator(), "advance(%d)", n)
		assert.Equal(t, 0, r.Remaining(), "advance(%d)", n)
	}
}

func TestCountedBufReaderMonotonic(t *testing.T) {
	data := make([]byte, 257)
	for i := range data {
		data[i] = byte(i)
	}
	r := NewCountedBufReader(data)
	steps := []int{0, 1, -4, 5, 0, 64, 3, 200, 7}

	prevConsumed, prevRemaining := 0, r.Remaining()
	for _, n := range steps {
		r.Advance(n)
		require.Equal(t, len(data), r.Consumed()+r.Remaining())
		require.Equal(t, len(data), r.TotalLen())
		require.GreaterOrEqual(t, r.Consumed(), prevConsumed)
		require.LessOrEqual(t, r.Remaining(), prevRemaining)
		require.Equal(t, data[:r.Consumed()], r.Accumulator())
		prevConsumed, prevRemaining = r.Consumed(), r.Remaining()
	}
}

func TestCountedBufReaderEmpty(t *testing.T) {
	r := NewCountedBufReader(nil)
	r.Advance(1)
	assert.Equal(t, 0, r.TotalLen())
	assert.Empty(t, r.Accumulator())
}

func TestCountedBufReaderIsolation(t *testing.T) {
	data := tenBytes()
	r := NewCountedBufReader(data)

	// the reader keeps its own copy of the source
	data[5] = 0xff
	r.Advance(6)
	acc := r.Accumulator()
	assert.Equal(t, byte(5), acc[5])

	// and the returned accumulator is a copy too
	acc[0] = 0xff
	assert.Equal(t, byte(0), r.Accumulator()[0])
}
