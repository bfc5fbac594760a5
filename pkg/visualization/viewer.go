package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"

	"boxsmooth3d/internal/models"
	"boxsmooth3d/pkg/region"
)

// Viewer extracts orthogonal 2D slices from a volume and saves them as
// grayscale JPEG images, so smoothed results can be inspected offline.
type Viewer struct {
	// vol holds the samples, converted to float64
	vol *models.Volume[float64]

	// low and high are the intensities mapped to black and white
	low  float64
	high float64
}

// NewViewer creates a viewer whose gray window spans the volume's intensity range.
func NewViewer(vol *models.Volume[float64]) *Viewer {
	v := &Viewer{vol: vol}
	if len(vol.Data) > 0 {
		v.low, v.high = floats.Min(vol.Data), floats.Max(vol.Data)
	}
	return v
}

// SetWindow overrides the intensity range mapped to black and white.
func (v *Viewer) SetWindow(low, high float64) error {
	if high <= low {
		return fmt.Errorf("window high %g must exceed low %g", high, low)
	}
	v.low, v.high = low, high
	return nil
}

// gray maps an intensity to a 16-bit gray level through the window.
func (v *Viewer) gray(value float64) color.Gray16 {
	if v.high <= v.low {
		return color.Gray16{}
	}
	t := (value - v.low) / (v.high - v.low)
	return color.Gray16{Y: uint16(math.Max(0, math.Min(65535, t*65535)))}
}

// ExtractSlice extracts a 2D slice from the volume perpendicular to axis.
// position is an absolute index within the volume's extent on that axis.
func (v *Viewer) ExtractSlice(axis models.Axis, position int) (image.Image, error) {
	ext := v.vol.Bounds
	if axis < models.AxisX || axis > models.AxisZ {
		return nil, fmt.Errorf("invalid axis: %d (must be x, y, or z)", axis)
	}
	lo, hi := ext.Start[axis], ext.Start[axis]+ext.Size[axis]
	if position < lo || position >= hi {
		return nil, fmt.Errorf("position %d outside %s range [%d, %d)", position, axis, lo, hi)
	}

	var img *image.Gray16
	var p region.Index
	p[axis] = position

	switch axis {
	case models.AxisX:
		// YZ plane: z across, y down
		img = image.NewGray16(image.Rect(0, 0, ext.Size[2], ext.Size[1]))
		for y := 0; y < ext.Size[1]; y++ {
			for z := 0; z < ext.Size[2]; z++ {
				p[1], p[2] = ext.Start[1]+y, ext.Start[2]+z
				img.SetGray16(z, y, v.gray(v.vol.At(p)))
			}
		}

	case models.AxisY:
		// XZ plane: x across, z down
		img = image.NewGray16(image.Rect(0, 0, ext.Size[0], ext.Size[2]))
		for z := 0; z < ext.Size[2]; z++ {
			for x := 0; x < ext.Size[0]; x++ {
				p[0], p[2] = ext.Start[0]+x, ext.Start[2]+z
				img.SetGray16(x, z, v.gray(v.vol.At(p)))
			}
		}

	case models.AxisZ:
		// XY plane
		img = image.NewGray16(image.Rect(0, 0, ext.Size[0], ext.Size[1]))
		for y := 0; y < ext.Size[1]; y++ {
			for x := 0; x < ext.Size[0]; x++ {
				p[0], p[1] = ext.Start[0]+x, ext.Start[1]+y
				img.SetGray16(x, y, v.gray(v.vol.At(p)))
			}
		}
	}

	return img, nil
}

// ExtractRegion copies a 3D subregion of the volume into a new volume that
// keeps the region's indices, spacing and origin.
func (v *Viewer) ExtractRegion(r region.Region) (*models.Volume[float64], error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if !v.vol.Bounds.ContainsRegion(r) {
		return nil, fmt.Errorf("region %s extends beyond volume %s", r, v.vol.Bounds)
	}

	sub, err := models.NewVolume[float64](region.New(r.Start, r.Size))
	if err != nil {
		return nil, err
	}
	sub.Spacing = v.vol.Spacing
	sub.Origin = v.vol.Origin
	r.Each(func(p region.Index) {
		sub.Set(p, v.vol.At(p))
	})
	return sub, nil
}

// SaveSlice saves an extracted slice as a JPEG image
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
}

// SaveSliceSequence extracts and saves every slice along the specified axis
func (v *Viewer) SaveSliceSequence(axis models.Axis, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}
	if axis < models.AxisX || axis > models.AxisZ {
		return fmt.Errorf("invalid axis: %d (must be x, y, or z)", axis)
	}

	ext := v.vol.Bounds
	for pos := ext.Start[axis]; pos < ext.Start[axis]+ext.Size[axis]; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.jpg", axis, pos))
		if err := v.SaveSlice(img, filename); err != nil {
			return err
		}
	}

	return nil
}

// SaveCenterSlices saves the slice through the middle of the volume along
// each axis as center_x.jpg, center_y.jpg and center_z.jpg.
func (v *Viewer) SaveCenterSlices(outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}
	ext := v.vol.Bounds
	for _, axis := range []models.Axis{models.AxisX, models.AxisY, models.AxisZ} {
		img, err := v.ExtractSlice(axis, ext.Start[axis]+ext.Size[axis]/2)
		if err != nil {
			return err
		}
		if err := v.SaveSlice(img, filepath.Join(outputDir, fmt.Sprintf("center_%s.jpg", axis))); err != nil {
			return err
		}
	}
	return nil
}
