package model

import (
	"bytes"
	"image"
	"image/color"

	"github.com/pkg/errors"
	"golang.org/x/image/tiff"
)

var ErrShape = errors.New("raster shape mismatch")

// Raster is a single band grid in row-major order, y=0 being the northern edge.
type Raster struct {
	W   int
	H   int
	Pix []float64
}

func NewRaster(w, h int) *Raster {
	return &Raster{
		W:   w,
		H:   h,
		Pix: make([]float64, w*h),
	}
}

func (r *Raster) At(x, y int) float64 {
	return r.Pix[y*r.W+x]
}

func (r *Raster) Set(x, y int, v float64) {
	r.Pix[y*r.W+x] = v
}

// FromImage converts a decoded band into a raster of raw digital numbers.
func FromImage(i image.Image) *Raster {
	b := i.Bounds()
	r := NewRaster(b.Dx(), b.Dy())

	switch g := i.(type) {
	case *image.Gray16:
		for y := 0; y < r.H; y++ {
			for x := 0; x < r.W; x++ {
				r.Pix[y*r.W+x] = float64(g.Gray16At(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
	case *image.Gray:
		for y := 0; y < r.H; y++ {
			for x := 0; x < r.W; x++ {
				r.Pix[y*r.W+x] = float64(g.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
	default:
		for y := 0; y < r.H; y++ {
			for x := 0; x < r.W; x++ {
				r.Pix[y*r.W+x] = float64(color.Gray16Model.Convert(i.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16).Y)
			}
		}
	}

	return r
}

// ToImage renders the raster as a 16 bit grayscale image, clamping to the
// uint16 range. It is the inverse of FromImage for integer digital numbers.
func ToImage(r *Raster) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, r.W, r.H))

	for y := 0; y < r.H; y++ {
		for x := 0; x < r.W; x++ {
			v := r.At(x, y)
			if v < 0 {
				v = 0
			}
			if v > 65535 {
				v = 65535
			}
			img.SetGray16(x, y, color.Gray16{Y: uint16(v)})
		}
	}

	return img
}

// DecodeTIFF decodes one band file held in memory.
func DecodeTIFF(b []byte) (*Raster, error) {
	img, err := tiff.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, errors.Wrap(err, "could not decode tiff")
	}

	return FromImage(img), nil
}
