package volumeio

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boxsmooth3d/internal/models"
	"boxsmooth3d/pkg/region"
)

func TestRawRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vol", "head.raw")

	vol, err := models.NewVolume[int16](region.New(region.Index{0, 0, 1}, [3]int{4, 3, 5}))
	require.NoError(t, err)
	vol.Spacing = [3]float64{3.2, 3.2, 1.5}
	vol.Origin = [3]float64{-1, 0, 2.5}
	for i := range vol.Data {
		vol.Data[i] = int16(i*37 - 500)
	}

	require.NoError(t, WriteRaw(path, vol))
	assert.FileExists(t, filepath.Join(dir, "vol", "head.yaml"))

	h, err := ReadHeader(path)
	require.NoError(t, err)
	assert.Equal(t, "int16", h.ScalarType)
	assert.Equal(t, "little", h.ByteOrder)
	assert.Equal(t, "head.raw", h.DataFile)

	loaded, err := ReadRaw[int16](path)
	require.NoError(t, err)
	assert.True(t, models.SameShape(vol, loaded))
	assert.Equal(t, vol.Data, loaded.Data)

	// The header path works as well.
	loaded, err = ReadRaw[int16](HeaderPath(path))
	require.NoError(t, err)
	assert.Equal(t, vol.Data, loaded.Data)

	_, err = ReadRaw[float32](path)
	assert.ErrorIs(t, err, ErrScalarMismatch)
}

func TestReadRawBigEndian(t *testing.T) {
	dir := t.TempDir()
	header := "scalarType: uint16\nbyteOrder: big\nextent:\n  start: [0, 0, 0]\n  size: [2, 1, 1]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tiny.yaml"), []byte(header), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tiny.raw"), []byte{0x01, 0x02, 0xff, 0x00}, 0644))

	vol, err := ReadRaw[uint16](filepath.Join(dir, "tiny.raw"))
	require.NoError(t, err)
	assert.Equal(t, []uint16{0x0102, 0xff00}, vol.Data)
}

func TestReadRawErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadHeader(filepath.Join(dir, "missing.raw"))
	assert.ErrorContains(t, err, "failed to read volume header")

	bad := "scalarType: float32\nextent:\n  size: [4, 0, 4]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "flat.yaml"), []byte(bad), 0644))
	_, err = ReadHeader(filepath.Join(dir, "flat.raw"))
	assert.ErrorIs(t, err, region.ErrInvalidExtent)

	order := "scalarType: float32\nbyteOrder: middle\nextent:\n  size: [1, 1, 1]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "order.yaml"), []byte(order), 0644))
	_, err = ReadHeader(filepath.Join(dir, "order.raw"))
	assert.ErrorContains(t, err, "unknown byte order")

	short := "scalarType: float32\nextent:\n  size: [2, 2, 2]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "short.yaml"), []byte(short), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "short.raw"), make([]byte, 12), 0644))
	_, err = ReadRaw[float32](filepath.Join(dir, "short.raw"))
	assert.ErrorContains(t, err, "holds 12 bytes, header describes 8 samples (32 bytes)")

	long := "scalarType: uint16\nextent:\n  size: [2, 1, 1]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "long.yaml"), []byte(long), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "long.raw"), make([]byte, 6), 0644))
	_, err = ReadRaw[uint16](filepath.Join(dir, "long.raw"))
	assert.ErrorContains(t, err, "holds 6 bytes, header describes 2 samples (4 bytes)")
}

func TestWriteRawRejectsHeaderPath(t *testing.T) {
	dir := t.TempDir()
	vol, err := models.NewVolume[uint8](region.FromDims(2, 2, 2))
	require.NoError(t, err)

	for _, name := range []string{"volume.yaml", "volume.YAML"} {
		path := filepath.Join(dir, name)
		assert.ErrorContains(t, WriteRaw(path, vol), "overwritten by its header")
		assert.NoFileExists(t, path)
	}
}

func TestScalarTypeOf(t *testing.T) {
	assert.Equal(t, "uint8", ScalarTypeOf[uint8]())
	assert.Equal(t, "int32", ScalarTypeOf[int32]())
	assert.Equal(t, "float64", ScalarTypeOf[float64]())
}

// writeTestSlice saves a uniform gray PNG.
func writeTestSlice(t *testing.T, path string, width, height int, gray uint8) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray(x, y, color.Gray{Y: gray})
		}
	}
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()
	require.NoError(t, png.Encode(file, img))
}

func TestLoadAndStackSlices(t *testing.T) {
	dir := t.TempDir()
	// Written out of order; numeric sorting must put slice_10 last.
	for _, n := range []int{10, 2, 1} {
		writeTestSlice(t, filepath.Join(dir, fmt.Sprintf("slice_%d.png", n)), 4, 3, uint8(n*20))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	slices, err := LoadSlices(dir)
	require.NoError(t, err)
	require.Len(t, slices, 3)
	assert.Equal(t, "slice_1.png", slices[0].Filename)
	assert.Equal(t, "slice_2.png", slices[1].Filename)
	assert.Equal(t, "slice_10.png", slices[2].Filename)
	assert.Equal(t, 2, slices[2].Index)

	vol, err := StackSlices[uint8](slices, [3]float64{0.5, 0.5, 2})
	require.NoError(t, err)
	assert.Equal(t, region.FromDims(4, 3, 3), vol.Bounds)
	assert.Equal(t, [3]float64{0.5, 0.5, 2}, vol.Spacing)
	assert.Equal(t, uint8(20), vol.At(region.Index{0, 0, 0}))
	assert.Equal(t, uint8(40), vol.At(region.Index{3, 2, 1}))
	assert.Equal(t, uint8(200), vol.At(region.Index{1, 1, 2}))

	normalized, err := StackSlices[float64](slices, [3]float64{1, 1, 1})
	require.NoError(t, err)
	assert.InDelta(t, 200.0/255.0, normalized.At(region.Index{0, 0, 2}), 1e-9)
}

func TestStackSlicesRejectsMixedSizes(t *testing.T) {
	dir := t.TempDir()
	writeTestSlice(t, filepath.Join(dir, "a1.png"), 4, 4, 10)
	writeTestSlice(t, filepath.Join(dir, "a2.png"), 5, 4, 10)

	slices, err := LoadSlices(dir)
	require.NoError(t, err)
	_, err = StackSlices[float32](slices, [3]float64{1, 1, 1})
	assert.ErrorContains(t, err, "expected 4x4")
}

func TestLoadSlicesEmptyDir(t *testing.T) {
	_, err := LoadSlices(t.TempDir())
	assert.ErrorContains(t, err, "no JPG or PNG images")
}

func TestExtractNumber(t *testing.T) {
	assert.Equal(t, 12, extractNumber("slice-12.jpg"))
	assert.Equal(t, 7, extractNumber("dir/slice7.png"))
	assert.Equal(t, 0, extractNumber("cover.png"))
}
