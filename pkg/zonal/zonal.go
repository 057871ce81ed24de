// Package zonal reduces evaluated scene pixels over site geometries into one
// row of summary statistics per site.
package zonal

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strconv"

	"github.com/project-spencer/dswe/pkg/model"
	"github.com/project-spencer/dswe/pkg/pipeline"
	"github.com/project-spencer/dswe/pkg/preprocess"
	"github.com/project-spencer/dswe/pkg/qa"
	"github.com/project-spencer/dswe/pkg/sites"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Row is the summary of one site in one scene. Values line up with Columns, a
// NaN value is a null.
type Row struct {
	Index   string
	Scene   string
	Site    string
	Columns []string
	Values  []float64
}

func (r Row) Get(column string) (float64, bool) {
	for i, c := range r.Columns {
		if c == column {
			return r.Values[i], !math.IsNaN(r.Values[i])
		}
	}
	return math.NaN(), false
}

// MarshalJSON writes the row as one flat object in column order, nulls for
// missing values.
func (r Row) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer

	key, err := json.Marshal(IndexColumn)
	if err != nil {
		return nil, err
	}
	val, err := json.Marshal(r.Index)
	if err != nil {
		return nil, err
	}

	b.WriteByte('{')
	b.Write(key)
	b.WriteByte(':')
	b.Write(val)

	for i, c := range r.Columns {
		key, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}

		b.WriteByte(',')
		b.Write(key)
		b.WriteByte(':')

		v := r.Values[i]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			b.WriteString("null")
			continue
		}
		b.Write(strconv.AppendFloat(nil, v, 'g', -1, 64))
	}

	b.WriteByte('}')
	return b.Bytes(), nil
}

// median is the lower empirical median
func median(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	s := append([]float64(nil), x...)
	sort.Float64s(s)
	return stat.Quantile(0.5, stat.Empirical, s, nil)
}

func mean(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return stat.Mean(x, nil)
}

func sd(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return stat.PopStdDev(x, nil)
}

func minimum(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return floats.Min(x)
}

// kurtosis needs four samples and some spread
func kurtosis(x []float64) float64 {
	if len(x) < 4 {
		return math.NaN()
	}
	return stat.ExKurtosis(x, nil)
}

func count(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

type reducer struct {
	values map[string]float64
	target map[model.Band][]float64
}

func (r *reducer) add(name string, v float64) {
	r.values[name] += v
}

// Summarize reduces the pixels of res falling inside site. ok is false when
// the site holds no target pixel; such rows are not exported.
func Summarize(res *pipeline.Result, site sites.Site) (Row, bool) {
	s := res.Scene
	level := res.Config.Level
	cols := Columns(level, s.Sensor)

	r := &reducer{
		values: make(map[string]float64, len(cols)),
		target: make(map[model.Band][]float64),
	}

	var (
		n        int
		clouds   float64
		shadows  float64
		shade    []float64
		ancBands = append([]model.Band{model.CloudDist}, model.Ancillary...)
		stats    = statBands(s.Sensor)
	)

	bound := site.Bound()

	for i := range res.Pixels {
		px := &res.Pixels[i]
		if px.Excluded || !bound.Contains(px.Location) || !site.Contains(px.Location) {
			continue
		}

		n++
		f := px.Flags

		clouds += count(f.Cloud != qa.Clear)
		shadows += float64(f.HillShadow)
		if !math.IsNaN(f.HillShade) {
			shade = append(shade, f.HillShade)
		}

		r.add("pCount_dswe_gt0", count(px.GT0))
		r.add("pCount_dswe1", count(px.DSWE1))
		r.add("pCount_dswe3", count(px.DSWE3))
		r.add("pCount_dswe1a", count(px.DSWE1a))

		if level == pipeline.Site {
			siteCounts(r, s.Sensor, px)
		}

		if !px.Target {
			continue
		}

		for _, b := range stats {
			r.target[b] = append(r.target[b], px.Values.Get(b))
		}
		if level == pipeline.Tile {
			for _, b := range ancBands {
				if v, ok := px.Values.Bands[b]; ok {
					r.target[b] = append(r.target[b], v)
				}
			}
		}
	}

	if len(r.target[model.Blue]) == 0 {
		return Row{}, false
	}

	for _, b := range stats {
		x := r.target[b]
		r.values["med_"+string(b)] = median(x)
		r.values["sd_"+string(b)] = sd(x)
		r.values["mean_"+string(b)] = mean(x)
	}

	temp := r.target[model.SurfaceTemp]
	r.values["min_SurfaceTemp"] = minimum(temp)

	if level == pipeline.Tile {
		for _, b := range model.Ancillary {
			r.values["med_"+ancillaryNames[b]] = median(r.target[b])
		}
		r.values["min_cloud_dist"] = minimum(r.target[model.CloudDist])
		r.values["kurt_SurfaceTemp"] = kurtosis(temp)
	}

	r.values["prop_clouds"] = clouds / float64(n)
	r.values["prop_hillShadow"] = shadows / float64(n)
	r.values["mean_hillShade"] = mean(shade)

	row := Row{
		Index:   s.ID + "_" + site.ID,
		Scene:   s.ID,
		Site:    site.ID,
		Columns: cols,
		Values:  make([]float64, len(cols)),
	}
	for i, c := range cols {
		row.Values[i] = r.values[c]
	}

	return row, true
}

func siteCounts(r *reducer, sensor model.Sensor, px *pipeline.Pixel) {
	f := px.Flags

	r.add(atmosColumn(sensor), count(!f.AtmosOK(sensor)))
	r.add("pCount_unreal_val", count(!f.Realistic))
	r.add("pCount_sun_glint", count(!f.NoGlint))
	r.add("pCount_ir_glint", count(f.IRGlint))

	if !px.Diagnostic {
		return
	}

	for _, b := range checkedBands(sensor) {
		v := px.Values.Get(b)
		r.add("pCount_"+shortNames[b]+"_zero", count(v < 0))
		r.add("pCount_"+shortNames[b]+"_thresh", count(v < preprocess.RealismFloor))
	}
	for _, b := range model.Optical() {
		r.add("pCount_"+shortNames[b]+"_glint", count(px.Values.Get(b) >= 0.2))
	}
	for _, b := range irBands {
		r.add("pCount_"+shortNames[b]+"_ir_glint", count(px.Values.Get(b) >= 0.1))
	}
}

// SummarizeAll reduces every site, dropping sites without target pixels.
func SummarizeAll(res *pipeline.Result, all []sites.Site) []Row {
	var rows []Row
	for _, site := range sites.InTile(all, res.Scene.Bound) {
		if row, ok := Summarize(res, site); ok {
			rows = append(rows, row)
		}
	}
	return rows
}
