package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boxsmooth3d/pkg/region"
)

func TestVolumeIndexing(t *testing.T) {
	extent := region.New(region.Index{0, 0, 1}, [3]int{4, 3, 2})
	vol, err := NewVolume[float32](extent)
	require.NoError(t, err)
	require.Len(t, vol.Data, 24)

	assert.Equal(t, 4, vol.Width())
	assert.Equal(t, 3, vol.Height())
	assert.Equal(t, 2, vol.Depth())
	assert.Equal(t, [3]int{1, 4, 12}, vol.Strides())

	assert.Equal(t, 0, vol.Offset(region.Index{0, 0, 1}))
	assert.Equal(t, 1+4*2+12*1, vol.Offset(region.Index{1, 2, 2}))

	vol.Set(region.Index{3, 2, 2}, 7.5)
	assert.Equal(t, float32(7.5), vol.At(region.Index{3, 2, 2}))
	assert.Equal(t, float32(7.5), vol.Data[len(vol.Data)-1])
}

func TestFromDataLengthMismatch(t *testing.T) {
	_, err := FromData(make([]int16, 10), region.FromDims(2, 2, 2))
	assert.ErrorIs(t, err, region.ErrInvalidExtent)

	vol, err := FromData(make([]int16, 8), region.FromDims(2, 2, 2))
	require.NoError(t, err)
	assert.Equal(t, [3]float64{1, 1, 1}, vol.Spacing)
}

func TestNewVolumeErrors(t *testing.T) {
	_, err := NewVolume[uint8](region.FromDims(4, 0, 4))
	assert.ErrorIs(t, err, region.ErrInvalidExtent)

	_, err = NewVolume[float64](region.FromDims(1<<21, 1<<21, 1<<21))
	assert.ErrorIs(t, err, ErrAllocationFailure)

	_, err = NewVolume[float64](region.FromDims(1<<30, 1<<30, 1))
	assert.ErrorIs(t, err, ErrAllocationFailure)
}

func TestNewLikeKeepsPlacement(t *testing.T) {
	src, err := NewVolume[int16](region.New(region.Index{0, 0, 1}, [3]int{64, 64, 93}))
	require.NoError(t, err)
	src.Spacing = [3]float64{3.2, 3.2, 1.5}
	src.Origin = [3]float64{-10, 5, 0}
	src.Data[0] = 42

	out, err := NewLike(src)
	require.NoError(t, err)
	assert.True(t, SameShape(src, out))
	assert.Equal(t, int16(0), out.Data[0])
}

func TestCenter(t *testing.T) {
	vol, err := NewVolume[uint16](region.New(region.Index{0, 0, 1}, [3]int{64, 64, 93}))
	require.NoError(t, err)
	vol.Spacing = [3]float64{3.2, 3.2, 1.5}

	c := vol.Center()
	assert.InDelta(t, 3.2*0.5*63, c[0], 1e-9)
	assert.InDelta(t, 3.2*0.5*63, c[1], 1e-9)
	assert.InDelta(t, 1.5*0.5*94, c[2], 1e-9)
}

func TestToFloat64(t *testing.T) {
	src, err := FromData([]int32{-3, 0, 5, 9}, region.FromDims(2, 2, 1))
	require.NoError(t, err)
	f := ToFloat64(src)
	assert.Equal(t, []float64{-3, 0, 5, 9}, f.Data)
	assert.True(t, SameShape(src, f))
}

func TestParseAxis(t *testing.T) {
	a, ok := ParseAxis("Y")
	assert.True(t, ok)
	assert.Equal(t, AxisY, a)
	assert.Equal(t, "y", a.String())

	_, ok = ParseAxis("w")
	assert.False(t, ok)
}

func TestSizeBytes(t *testing.T) {
	f32, err := NewVolume[float32](region.FromDims(4, 4, 4))
	require.NoError(t, err)
	assert.Equal(t, uint64(256), f32.SizeBytes())

	u8, err := NewVolume[uint8](region.FromDims(4, 4, 4))
	require.NoError(t, err)
	assert.Equal(t, uint64(64), u8.SizeBytes())
}

func TestSharesData(t *testing.T) {
	vol, err := NewVolume[int16](region.FromDims(4, 4, 2))
	require.NoError(t, err)
	other, err := NewLike(vol)
	require.NoError(t, err)

	assert.True(t, vol.SharesData(vol))
	assert.False(t, vol.SharesData(other))

	// Overlapping and disjoint views of the same backing array.
	head := &Volume[int16]{Data: vol.Data[:20], Bounds: region.FromDims(4, 5, 1)}
	tail := &Volume[int16]{Data: vol.Data[16:], Bounds: region.FromDims(4, 4, 1)}
	rest := &Volume[int16]{Data: vol.Data[20:], Bounds: region.FromDims(4, 3, 1)}
	assert.True(t, head.SharesData(tail))
	assert.True(t, tail.SharesData(vol))
	assert.False(t, head.SharesData(rest))

	assert.False(t, vol.SharesData(&Volume[int16]{}))
}
