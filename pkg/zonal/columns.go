package zonal

import (
	"github.com/project-spencer/dswe/pkg/model"
	"github.com/project-spencer/dswe/pkg/pipeline"
)

// IndexColumn names the row key, "<scene id>_<site id>".
const IndexColumn = "system:index"

// short lower case band names used by the per band diagnostics
var shortNames = map[model.Band]string{
	model.Aerosol: "aero",
	model.Blue:    "blue",
	model.Green:   "green",
	model.Red:     "red",
	model.Nir:     "nir",
	model.Swir1:   "swir1",
	model.Swir2:   "swir2",
}

var ancillaryNames = map[model.Band]string{
	model.TempQA: "temp_qa",
	model.Atran:  "atran",
	model.Drad:   "drad",
	model.Emis:   "emis",
	model.Emsd:   "emsd",
	model.Trad:   "trad",
	model.Urad:   "urad",
}

var irBands = []model.Band{model.Nir, model.Swir1, model.Swir2}

// statBands are the bands summarized with median, mean and sd
func statBands(sensor model.Sensor) []model.Band {
	var out []model.Band
	if sensor == model.Modern {
		out = append(out, model.Aerosol)
	}
	return append(append(out, model.Optical()...), model.SurfaceTemp)
}

// checkedBands are the bands with zero and threshold diagnostics
func checkedBands(sensor model.Sensor) []model.Band {
	if sensor == model.Modern {
		return append([]model.Band{model.Aerosol}, model.Optical()...)
	}
	return model.Optical()
}

func atmosColumn(sensor model.Sensor) string {
	if sensor == model.Modern {
		return "pCount_high_aero"
	}
	return "pCount_high_opac"
}

func prefixed(prefix string, bands []model.Band) []string {
	out := make([]string, len(bands))
	for i, b := range bands {
		out[i] = prefix + string(b)
	}
	return out
}

// Columns lists the export columns of a pull in order, without IndexColumn.
func Columns(level pipeline.Level, sensor model.Sensor) []string {
	stats := statBands(sensor)

	var cols []string
	cols = append(cols, prefixed("med_", stats)...)

	if level == pipeline.Tile {
		for _, b := range model.Ancillary {
			cols = append(cols, "med_"+ancillaryNames[b])
		}
		cols = append(cols, "min_SurfaceTemp", "min_cloud_dist")
	} else {
		cols = append(cols, "min_SurfaceTemp")
	}

	cols = append(cols, prefixed("sd_", stats)...)
	cols = append(cols, prefixed("mean_", stats)...)

	if level == pipeline.Tile {
		cols = append(cols, "kurt_SurfaceTemp")
	}

	cols = append(cols, "pCount_dswe_gt0", "pCount_dswe1", "pCount_dswe3", "pCount_dswe1a")

	if level == pipeline.Site {
		cols = append(cols, atmosColumn(sensor), "pCount_unreal_val", "pCount_sun_glint", "pCount_ir_glint")
		for _, b := range checkedBands(sensor) {
			cols = append(cols, "pCount_"+shortNames[b]+"_zero", "pCount_"+shortNames[b]+"_thresh")
		}
		for _, b := range model.Optical() {
			cols = append(cols, "pCount_"+shortNames[b]+"_glint")
		}
		for _, b := range irBands {
			cols = append(cols, "pCount_"+shortNames[b]+"_ir_glint")
		}
	}

	return append(cols, "prop_clouds", "prop_hillShadow", "mean_hillShade")
}
