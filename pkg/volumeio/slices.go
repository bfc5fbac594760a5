package volumeio

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"boxsmooth3d/internal/models"
	"boxsmooth3d/pkg/region"
)

// LoadSlices reads every JPEG or PNG image in dir and returns them ordered
// by the number embedded in their file names, which keeps anatomical order
// for series named slice_1, slice_2, ..., slice_10.
func LoadSlices(dir string) ([]models.Slice, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var imageFiles []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".jpg", ".jpeg", ".png":
			imageFiles = append(imageFiles, entry.Name())
		}
	}
	if len(imageFiles) == 0 {
		return nil, fmt.Errorf("no JPG or PNG images found in %s", dir)
	}

	sort.SliceStable(imageFiles, func(i, j int) bool {
		numI, numJ := extractNumber(imageFiles[i]), extractNumber(imageFiles[j])
		if numI != numJ {
			return numI < numJ
		}
		return imageFiles[i] < imageFiles[j]
	})

	slices := make([]models.Slice, 0, len(imageFiles))
	for i, name := range imageFiles {
		img, err := loadImage(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to load image %s: %w", name, err)
		}
		slices = append(slices, models.Slice{Image: img, Index: i, Filename: name})
	}
	return slices, nil
}

// StackSlices builds a volume with one z-plane per slice. Intensities come
// from the red channel: float types get [0,1], integer types are scaled to
// their positive range. All slices must share the first slice's dimensions.
func StackSlices[T models.Scalar](slices []models.Slice, spacing [3]float64) (*models.Volume[T], error) {
	if len(slices) == 0 {
		return nil, fmt.Errorf("no slices to stack")
	}
	bounds := slices[0].Image.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	vol, err := models.NewVolume[T](region.FromDims(width, height, len(slices)))
	if err != nil {
		return nil, err
	}
	vol.Spacing = spacing

	full := intensityScale[T]()
	plane := width * height
	for z, s := range slices {
		b := s.Image.Bounds()
		if b.Dx() != width || b.Dy() != height {
			return nil, fmt.Errorf("slice %s is %dx%d, expected %dx%d", s.Filename, b.Dx(), b.Dy(), width, height)
		}
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				r, _, _, _ := s.Image.At(b.Min.X+x, b.Min.Y+y).RGBA()
				v := float64(r) * full / 65535
				if full != 1 {
					v = math.Round(v)
				}
				vol.Data[z*plane+y*width+x] = T(v)
			}
		}
	}
	return vol, nil
}

// intensityScale is the sample value that full intensity maps to.
func intensityScale[T models.Scalar]() float64 {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return 255
	case int8:
		return 127
	case uint16, uint32, int32:
		return 65535
	case int16:
		return 32767
	}
	return 1
}

// loadImage decodes a single JPEG or PNG file.
func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// extractNumber returns the digits of a file name read as one number, or 0.
func extractNumber(filename string) int {
	base := filepath.Base(filename)
	var digits strings.Builder
	for _, c := range base {
		if c >= '0' && c <= '9' {
			digits.WriteRune(c)
		}
	}
	if digits.Len() == 0 {
		return 0
	}
	num, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0
	}
	return num
}
