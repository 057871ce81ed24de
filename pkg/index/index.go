// Package index holds the spectral band ratios DSWE is built on. Inputs are
// scaled reflectances. A zero denominator gives NaN, which compares false
// against every threshold.
package index

import (
	"math"

	"github.com/project-spencer/dswe/pkg/model"
)

func ratio(num, den float64) float64 {
	if den == 0 {
		return math.NaN()
	}
	return num / den
}

// MNDWI is the modified normalized difference water index.
func MNDWI(green, swir1 float64) float64 {
	return ratio(green-swir1, green+swir1)
}

// MBSRV is the visible multi-band spectral relationship.
func MBSRV(green, red float64) float64 {
	return green + red
}

// MBSRN is the near infrared multi-band spectral relationship.
func MBSRN(nir, swir1 float64) float64 {
	return nir + swir1
}

func NDVI(nir, red float64) float64 {
	return ratio(nir-red, nir+red)
}

// AWESH is the automated water extraction index, shadow variant.
func AWESH(blue, green, nir, swir1, swir2 float64) float64 {
	return blue + 2.5*green - 1.5*MBSRN(nir, swir1) - 0.25*swir2
}

// Indices bundles every index of one pixel.
type Indices struct {
	MNDWI float64
	MBSRV float64
	MBSRN float64
	NDVI  float64
	AWESH float64
}

func Compute(px map[model.Band]float64) Indices {
	var (
		blue  = px[model.Blue]
		green = px[model.Green]
		red   = px[model.Red]
		nir   = px[model.Nir]
		swir1 = px[model.Swir1]
		swir2 = px[model.Swir2]
	)

	return Indices{
		MNDWI: MNDWI(green, swir1),
		MBSRV: MBSRV(green, red),
		MBSRN: MBSRN(nir, swir1),
		NDVI:  NDVI(nir, red),
		AWESH: AWESH(blue, green, nir, swir1, swir2),
	}
}
