// Package preprocess turns raw Collection 2 digital numbers into physical units
// and marks pixels that carry fill or unrealistic values.
package preprocess

import (
	"github.com/pkg/errors"
	"github.com/project-spencer/dswe/pkg/model"
)

const (
	reflectanceGain   = 0.0000275
	reflectanceOffset = -0.2

	temperatureGain   = 0.00341802
	temperatureOffset = 149.0

	// RealismFloor is the lowest reflectance still considered physical.
	RealismFloor = -0.01
)

var ErrMissingBand = errors.New("missing band")

func ScaleReflectance(dn float64) float64 {
	return dn*reflectanceGain + reflectanceOffset
}

// ScaleTemperature returns surface temperature in Kelvin.
func ScaleTemperature(dn float64) float64 {
	return dn*temperatureGain + temperatureOffset
}

// Pixel is one scaled band vector. Fill and Unreal are kept apart because the
// tile and site pipelines treat them differently.
type Pixel struct {
	Bands map[model.Band]float64

	// Fill is set when any required reflectance band was exactly zero.
	Fill bool
	// Unreal is set when any required reflectance band is below RealismFloor
	// after scaling.
	Unreal bool
}

// Valid reports whether the pixel passed both the fill and realism checks.
func (p Pixel) Valid() bool {
	return !p.Fill && !p.Unreal
}

func (p Pixel) Get(b model.Band) float64 {
	return p.Bands[b]
}

// Preprocess scales one pixel's raw values. Reflectance bands are scaled once,
// SurfaceTemp is converted to Kelvin, QA and ancillary bands are copied as is.
// raw must hold every band sensor.Required() names.
func Preprocess(sensor model.Sensor, raw map[model.Band]float64) (Pixel, error) {
	for _, b := range sensor.Required() {
		if _, ok := raw[b]; !ok {
			return Pixel{}, errors.Wrapf(ErrMissingBand, "%s", b)
		}
	}

	p := Pixel{Bands: make(map[model.Band]float64, len(raw))}
	for b, v := range raw {
		p.Bands[b] = v
	}

	for _, b := range sensor.Reflectance() {
		dn := raw[b]
		if dn == 0 {
			p.Fill = true
		}

		v := ScaleReflectance(dn)
		if v < RealismFloor {
			p.Unreal = true
		}
		p.Bands[b] = v
	}

	p.Bands[model.SurfaceTemp] = ScaleTemperature(raw[model.SurfaceTemp])

	return p, nil
}
