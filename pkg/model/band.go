package model

import (
	"strings"

	"github.com/pkg/errors"
)

type Band string

// canonical band names, shared by every sensor family after renaming
const (
	Aerosol     Band = "Aerosol"
	Blue        Band = "Blue"
	Green       Band = "Green"
	Red         Band = "Red"
	Nir         Band = "Nir"
	Swir1       Band = "Swir1"
	Swir2       Band = "Swir2"
	SurfaceTemp Band = "SurfaceTemp"

	PixelQA   Band = "pixel_qa"
	RadsatQA  Band = "radsat_qa"
	AerosolQA Band = "aerosol_qa"
	OpacityQA Band = "opacity_qa"
	TempQA    Band = "temp_qa"

	// surface temperature ancillary bands, never scaled
	CloudDist Band = "ST_CDIST"
	Atran     Band = "ST_ATRAN"
	Drad      Band = "ST_DRAD"
	Emis      Band = "ST_EMIS"
	Emsd      Band = "ST_EMSD"
	Trad      Band = "ST_TRAD"
	Urad      Band = "ST_URAD"
)

// Ancillary lists the surface temperature side bands in export order.
var Ancillary = []Band{TempQA, Atran, Drad, Emis, Emsd, Trad, Urad}

// Sensor is a Landsat sensor family. Families differ in band layout and in
// which atmospheric QA product is available.
type Sensor int

const (
	UnknownSensor Sensor = iota
	// Legacy covers the TM and ETM+ instruments on Landsat 4, 5 and 7.
	Legacy
	// Modern covers OLI/TIRS on Landsat 8 and 9.
	Modern
)

var ErrUnknownMission = errors.New("unknown mission")

func (s Sensor) String() string {
	switch s {
	case Legacy:
		return "LS457"
	case Modern:
		return "LS89"
	default:
		return "unknown"
	}
}

// SensorOf maps a mission prefix ("LT05", "LC09", a full product id, ...) to its
// sensor family.
func SensorOf(mission string) (Sensor, error) {
	m := strings.ToUpper(mission)
	if len(m) > 4 {
		m = m[:4]
	}

	switch m {
	case "LT04", "LT05", "LE07":
		return Legacy, nil
	case "LC08", "LC09":
		return Modern, nil
	}

	return UnknownSensor, errors.Wrapf(ErrUnknownMission, "%q", mission)
}

var legacyNames = map[string]Band{
	"SR_B1":            Blue,
	"SR_B2":            Green,
	"SR_B3":            Red,
	"SR_B4":            Nir,
	"SR_B5":            Swir1,
	"SR_B7":            Swir2,
	"ST_B6":            SurfaceTemp,
	"QA_PIXEL":         PixelQA,
	"QA_RADSAT":        RadsatQA,
	"SR_ATMOS_OPACITY": OpacityQA,
	"ST_QA":            TempQA,
}

var modernNames = map[string]Band{
	"SR_B1":         Aerosol,
	"SR_B2":         Blue,
	"SR_B3":         Green,
	"SR_B4":         Red,
	"SR_B5":         Nir,
	"SR_B6":         Swir1,
	"SR_B7":         Swir2,
	"ST_B10":        SurfaceTemp,
	"QA_PIXEL":      PixelQA,
	"SR_QA_AEROSOL": AerosolQA,
	"QA_RADSAT":     RadsatQA,
	"ST_QA":         TempQA,
}

var sharedNames = map[string]Band{
	"ST_CDIST": CloudDist,
	"ST_ATRAN": Atran,
	"ST_DRAD":  Drad,
	"ST_EMIS":  Emis,
	"ST_EMSD":  Emsd,
	"ST_TRAD":  Trad,
	"ST_URAD":  Urad,
}

func (s Sensor) names() map[string]Band {
	switch s {
	case Legacy:
		return legacyNames
	case Modern:
		return modernNames
	}
	return nil
}

// Rename maps a Collection 2 product band name (e.g. "SR_B4") to the canonical
// band for this sensor family.
func (s Sensor) Rename(product string) (Band, bool) {
	if b, ok := s.names()[product]; ok {
		return b, true
	}
	b, ok := sharedNames[product]
	return b, ok
}

// ProductBand finds the product band name a file stem ends with, e.g.
// "LC08_L2SP_027033_20200715_20200722_02_T1_SR_QA_AEROSOL" -> "SR_QA_AEROSOL".
// The longest match wins so "SR_B1" never shadows "ST_B10".
func (s Sensor) ProductBand(stem string) (string, bool) {
	best := ""
	try := func(names map[string]Band) {
		for name := range names {
			if strings.HasSuffix(stem, "_"+name) && len(name) > len(best) {
				best = name
			}
		}
	}
	try(s.names())
	try(sharedNames)

	return best, best != ""
}

// Reflectance returns the surface reflectance bands that must all be present and
// valid for a pixel to count (fill and realism checks).
func (s Sensor) Reflectance() []Band {
	if s == Modern {
		return []Band{Aerosol, Blue, Green, Red, Nir, Swir1, Swir2}
	}
	return []Band{Blue, Green, Red, Nir, Swir1, Swir2}
}

// Optical returns the six reflectance bands common to both families.
func Optical() []Band {
	return []Band{Blue, Green, Red, Nir, Swir1, Swir2}
}

// Required returns every band the pipeline cannot run without.
func (s Sensor) Required() []Band {
	req := append(s.Reflectance(), SurfaceTemp, PixelQA, RadsatQA)
	if s == Modern {
		return append(req, AerosolQA)
	}
	return append(req, OpacityQA)
}
