// Package qa decodes the Collection 2 quality bands into per-pixel flags.
package qa

import (
	"github.com/project-spencer/dswe/pkg/model"
)

// cloud codes, ordered so later QA bits win
const (
	Clear        = 0
	DilatedCloud = 1
	Cloud        = 2
	CloudShadow  = 3
	Snow         = 4
)

const (
	opacityScale = 0.001
	opacityMax   = 0.3

	glintMax   = 0.2
	irGlintMin = 0.1

	realismFloor = -0.01
)

// ExtractBits returns bits [start, end) of v shifted down to bit 0.
func ExtractBits(v uint16, start, end uint) uint16 {
	return (v & uint16((1<<end)-1)) >> start
}

func bit(v uint16, n uint) bool {
	return v&(1<<n) != 0
}

// CloudCode folds the QA_PIXEL dilated cloud, cloud, shadow and snow bits into
// a single code.
func CloudCode(pixelQA uint16) int {
	code := Clear
	if bit(pixelQA, 1) {
		code = DilatedCloud
	}
	if bit(pixelQA, 3) {
		code = Cloud
	}
	if bit(pixelQA, 4) {
		code = CloudShadow
	}
	if bit(pixelQA, 5) {
		code = Snow
	}
	return code
}

func Contaminated(pixelQA uint16) bool {
	return CloudCode(pixelQA) >= DilatedCloud
}

// RadsatOK is true when no band of the pixel is saturated.
func RadsatOK(radsatQA uint16) bool {
	return radsatQA == 0
}

// AerosolLevel is the two bit aerosol level field (bits 6 and 7).
func AerosolLevel(aerosolQA uint16) uint16 {
	return ExtractBits(aerosolQA, 6, 8)
}

// MedHighAerosol is set whenever bit 7 is, no matter what the other bits say.
func MedHighAerosol(aerosolQA uint16) bool {
	return bit(aerosolQA, 7)
}

func AerosolOK(aerosolQA uint16) bool {
	return !MedHighAerosol(aerosolQA)
}

func OpacityOK(opacityRaw float64) bool {
	return opacityRaw*opacityScale < opacityMax
}

// NoGlint holds when every optical band is below 0.2.
func NoGlint(px map[model.Band]float64) bool {
	for _, b := range model.Optical() {
		if !(px[b] < glintMax) {
			return false
		}
	}
	return true
}

// IRGlint is raised when all infrared bands reach 0.1. It is only counted,
// never used to exclude a pixel.
func IRGlint(px map[model.Band]float64) bool {
	return px[model.Nir] >= irGlintMin && px[model.Swir1] >= irGlintMin && px[model.Swir2] >= irGlintMin
}

// Realistic holds when every optical band is at or above -0.01.
func Realistic(px map[model.Band]float64) bool {
	for _, b := range model.Optical() {
		if px[b] < realismFloor {
			return false
		}
	}
	return true
}

// Flags is every quality flag of one pixel.
type Flags struct {
	Cloud        int
	RadsatOK     bool
	AerosolLevel uint16
	AerosolOK    bool
	OpacityOK    bool
	NoGlint      bool
	IRGlint      bool
	Realistic    bool

	// terrain, filled in by the caller: HillShadow is 1 when illuminated
	HillShadow int
	HillShade  float64
}

// Decode computes the flags of a scaled pixel. QA bands are read raw. Terrain
// fields are left zero.
func Decode(sensor model.Sensor, px map[model.Band]float64) Flags {
	f := Flags{
		Cloud:     CloudCode(uint16(px[model.PixelQA])),
		RadsatOK:  RadsatOK(uint16(px[model.RadsatQA])),
		NoGlint:   NoGlint(px),
		IRGlint:   IRGlint(px),
		Realistic: Realistic(px),
	}

	switch sensor {
	case model.Modern:
		a := uint16(px[model.AerosolQA])
		f.AerosolLevel = AerosolLevel(a)
		f.AerosolOK = AerosolOK(a)
	case model.Legacy:
		f.OpacityOK = OpacityOK(px[model.OpacityQA])
	}

	return f
}

// AtmosOK picks the atmospheric mask of the sensor family: aerosol for Modern,
// opacity for Legacy.
func (f Flags) AtmosOK(sensor model.Sensor) bool {
	if sensor == model.Modern {
		return f.AerosolOK
	}
	return f.OpacityOK
}

func (f Flags) Illuminated() bool {
	return f.HillShadow == 1
}

// Clear is the composite rule for a confidently observed pixel.
func (f Flags) Clear(sensor model.Sensor) bool {
	return f.Cloud == Clear && f.RadsatOK && f.AtmosOK(sensor) && f.Illuminated()
}

// CloudFraction is the share of pixels in a QA_PIXEL raster with any cloud,
// shadow or snow bit set.
func CloudFraction(pixelQA *model.Raster) float64 {
	if len(pixelQA.Pix) == 0 {
		return 0
	}

	n := 0
	for _, v := range pixelQA.Pix {
		if Contaminated(uint16(v)) {
			n++
		}
	}

	return float64(n) / float64(len(pixelQA.Pix))
}
