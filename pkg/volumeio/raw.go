// Package volumeio reads and writes volumes for the command-line driver: raw
// sample files described by a YAML header, and directories of 2D slice images.
package volumeio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"boxsmooth3d/internal/models"
	"boxsmooth3d/pkg/region"
)

// ErrScalarMismatch is returned when a raw file holds a different sample type
// than the one requested.
var ErrScalarMismatch = errors.New("scalar type mismatch")

// Header describes a raw volume file. It is stored as YAML next to the data,
// with the same base name and a .yaml extension.
type Header struct {
	// ScalarType is one of uint8, int8, uint16, int16, uint32, int32, float32, float64
	ScalarType string `yaml:"scalarType"`

	// ByteOrder is "little" (default) or "big"
	ByteOrder string `yaml:"byteOrder"`

	Extent struct {
		Start [3]int `yaml:"start"`
		Size  [3]int `yaml:"size"`
	} `yaml:"extent"`

	Spacing [3]float64 `yaml:"spacing"`
	Origin  [3]float64 `yaml:"origin"`

	// DataFile is the raw file name relative to the header
	DataFile string `yaml:"dataFile"`
}

// Region returns the extent described by the header.
func (h *Header) Region() region.Region {
	return region.New(region.Index(h.Extent.Start), h.Extent.Size)
}

func (h *Header) byteOrder() (binary.ByteOrder, error) {
	switch strings.ToLower(h.ByteOrder) {
	case "", "little":
		return binary.LittleEndian, nil
	case "big":
		return binary.BigEndian, nil
	}
	return nil, fmt.Errorf("unknown byte order %q", h.ByteOrder)
}

// ScalarTypeOf names the sample type T as used in headers. Named types report
// the name of their underlying type.
func ScalarTypeOf[T models.Scalar]() string {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return "uint8"
	case int8:
		return "int8"
	case uint16:
		return "uint16"
	case int16:
		return "int16"
	case uint32:
		return "uint32"
	case int32:
		return "int32"
	case float32:
		return "float32"
	case float64:
		return "float64"
	}
	return fmt.Sprintf("%T", zero)
}

// HeaderPath returns the header file that belongs to a raw data file.
func HeaderPath(rawPath string) string {
	return strings.TrimSuffix(rawPath, filepath.Ext(rawPath)) + ".yaml"
}

// ReadHeader loads and checks the header for a raw data file. Either the
// .raw or the .yaml path may be given.
func ReadHeader(path string) (*Header, error) {
	data, err := os.ReadFile(HeaderPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read volume header: %w", err)
	}
	h := &Header{}
	if err := yaml.Unmarshal(data, h); err != nil {
		return nil, fmt.Errorf("failed to parse volume header: %w", err)
	}
	if err := h.Region().Validate(); err != nil {
		return nil, fmt.Errorf("volume header %s: %w", HeaderPath(path), err)
	}
	if _, err := h.byteOrder(); err != nil {
		return nil, fmt.Errorf("volume header %s: %w", HeaderPath(path), err)
	}
	if h.DataFile == "" {
		h.DataFile = filepath.Base(strings.TrimSuffix(path, filepath.Ext(path)) + ".raw")
	}
	return h, nil
}

// ReadRaw loads a raw volume of T together with its header.
func ReadRaw[T models.Scalar](path string) (*models.Volume[T], error) {
	h, err := ReadHeader(path)
	if err != nil {
		return nil, err
	}
	if want := ScalarTypeOf[T](); h.ScalarType != want {
		return nil, fmt.Errorf("%w: file holds %s, requested %s", ErrScalarMismatch, h.ScalarType, want)
	}
	order, _ := h.byteOrder()

	vol, err := models.NewVolume[T](h.Region())
	if err != nil {
		return nil, err
	}
	vol.Spacing = h.Spacing
	vol.Origin = h.Origin

	dataPath := filepath.Join(filepath.Dir(HeaderPath(path)), h.DataFile)
	file, err := os.Open(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open volume data: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat volume data: %w", err)
	}
	if want := int64(binary.Size(vol.Data)); info.Size() != want {
		return nil, fmt.Errorf("%s holds %d bytes, header describes %d samples (%d bytes)",
			dataPath, info.Size(), len(vol.Data), want)
	}

	if err := binary.Read(bufio.NewReader(file), order, vol.Data); err != nil {
		return nil, fmt.Errorf("failed to read %d samples from %s: %w", len(vol.Data), dataPath, err)
	}
	return vol, nil
}

// WriteRaw stores vol little-endian at path and writes its header beside it.
// path must not carry the header's .yaml extension.
func WriteRaw[T models.Scalar](path string, vol *models.Volume[T]) error {
	if strings.EqualFold(filepath.Ext(path), ".yaml") {
		return fmt.Errorf("volume data path %s would be overwritten by its header", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	h := Header{
		ScalarType: ScalarTypeOf[T](),
		ByteOrder:  "little",
		Spacing:    vol.Spacing,
		Origin:     vol.Origin,
		DataFile:   filepath.Base(path),
	}
	h.Extent.Start = vol.Bounds.Start
	h.Extent.Size = vol.Bounds.Size

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create volume file: %w", err)
	}
	w := bufio.NewWriter(file)
	if err := binary.Write(w, binary.LittleEndian, vol.Data); err != nil {
		file.Close()
		return fmt.Errorf("failed to write volume data: %w", err)
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("failed to write volume data: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close volume file: %w", err)
	}

	data, err := yaml.Marshal(&h)
	if err != nil {
		return fmt.Errorf("failed to marshal volume header: %w", err)
	}
	if err := os.WriteFile(HeaderPath(path), data, 0644); err != nil {
		return fmt.Errorf("failed to write volume header: %w", err)
	}
	return nil
}
