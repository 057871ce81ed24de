// Package pipeline runs the per-pixel DSWE chain over a whole scene: scaling,
// quality flags, terrain illumination, classification and the masks derived
// from it.
package pipeline

import (
	"context"
	"math"
	"time"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"github.com/project-spencer/dswe/internal/log"
	"github.com/project-spencer/dswe/pkg/dswe"
	"github.com/project-spencer/dswe/pkg/model"
	"github.com/project-spencer/dswe/pkg/preprocess"
	"github.com/project-spencer/dswe/pkg/qa"
	"github.com/project-spencer/dswe/pkg/terrain"
	"golang.org/x/sync/errgroup"
)

// Pixel holds every channel computed for one scene pixel.
type Pixel struct {
	Location orb.Point
	Values   preprocess.Pixel
	Flags    qa.Flags
	Class    dswe.Class
	Algal    bool

	// Excluded pixels are masked out of every statistic.
	Excluded bool
	// Observed is the gate all derived masks pass through.
	Observed bool

	GT0    bool
	DSWE1  bool
	DSWE3  bool
	DSWE1a bool

	// Target is the derived mask of the configured variant.
	Target bool
	// Diagnostic gates the per band value checks of site pulls: illuminated,
	// clear, atmospherically fine and of the variant's class, but not yet
	// screened for realism or glint.
	Diagnostic bool
}

// Result is one evaluated scene.
type Result struct {
	Scene  *model.Scene
	Config Config
	W      int
	H      int
	Pixels []Pixel

	// CloudFraction is the scene wide share of contaminated pixels.
	CloudFraction float64
}

func (r *Result) At(x, y int) *Pixel {
	return &r.Pixels[y*r.W+x]
}

// illumination samples the terrain products at scene pixels
type illumination struct {
	shade  *terrain.Grid
	shadow *terrain.Grid
	flat   float64
}

func newIllumination(cfg Config, s *model.Scene, dem *terrain.Grid) (*illumination, error) {
	il := &illumination{
		flat: 255 * math.Max(0, math.Cos((90-s.SunElevation)*math.Pi/180)),
	}

	if dem == nil {
		return il, nil
	}

	clipped, err := dem.Clip(s.Bound)
	if err != nil {
		return nil, errors.Wrapf(err, "scene %s", s.ID)
	}

	il.shade = terrain.Hillshade(clipped, s.SunAzimuth, s.SunElevation)
	il.shadow = terrain.HillShadow(clipped, s.SunAzimuth, 90-s.SunElevation, cfg.HillShadowNeighborhood)

	return il, nil
}

// at returns hillShadow and hillShade. Without a DEM the terrain is taken as
// flat and lit. Pixels outside the DEM are treated as shadowed.
func (il *illumination) at(p orb.Point) (int, float64) {
	if il.shadow == nil {
		return 1, il.flat
	}

	lit, ok := il.shadow.Sample(p)
	if !ok {
		return 0, math.NaN()
	}
	shade, _ := il.shade.Sample(p)

	return int(lit), shade
}

// Evaluate runs the pipeline on every pixel of the scene. dem may be nil.
// Rows are spread over cfg.Workers goroutines.
func Evaluate(ctx context.Context, cfg Config, s *model.Scene, dem *terrain.Grid) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	cells := s.Cells()
	w, h := cells.W, cells.H

	// optional bands only take part when they line up with the rest
	var bands []model.Band
	for b, r := range s.Bands {
		if r.W == w && r.H == h && len(r.Pix) == w*h {
			bands = append(bands, b)
		} else {
			log.Warnf("scene %s: skipping band %s, %dx%d does not match %dx%d", s.ID, b, r.W, r.H, w, h)
		}
	}

	il, err := newIllumination(cfg, s, dem)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Scene:         s,
		Config:        cfg,
		W:             w,
		H:             h,
		Pixels:        make([]Pixel, w*h),
		CloudFraction: qa.CloudFraction(s.Bands[model.PixelQA]),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)

	for y := 0; y < h; y++ {
		y := y
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			raw := make(map[model.Band]float64, len(bands))
			for x := 0; x < w; x++ {
				i := y*w + x
				for _, b := range bands {
					raw[b] = s.Bands[b].Pix[i]
				}

				loc := cells.Location(x, y)
				px, err := evaluate(cfg, s.Sensor, raw, loc, il)
				if err != nil {
					return errors.Wrapf(err, "pixel %d,%d", x, y)
				}
				res.Pixels[i] = px
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Debugw("evaluated scene", "scene", s.ID, "variant", cfg.Variant, "level", cfg.Level,
		"pixels", w*h, "took", time.Since(start))

	return res, nil
}

func evaluate(cfg Config, sensor model.Sensor, raw map[model.Band]float64, loc orb.Point, il *illumination) (Pixel, error) {
	v, err := preprocess.Preprocess(sensor, raw)
	if err != nil {
		return Pixel{}, err
	}

	f := qa.Decode(sensor, v.Bands)
	f.HillShadow, f.HillShade = il.at(loc)

	c := dswe.Classify(v.Bands)

	px := Pixel{
		Location: loc,
		Values:   v,
		Flags:    f,
		Class:    c,
		Algal:    dswe.Algal(c, v.Bands),
	}

	confident := f.Clear(sensor)

	switch cfg.Level {
	case Tile:
		px.Excluded = v.Fill || v.Unreal || !f.AtmosOK(sensor)
		px.Observed = !px.Excluded && confident
	case Site:
		px.Excluded = v.Fill || !f.RadsatOK
		px.Observed = !px.Excluded && confident && f.Realistic && f.NoGlint
	}

	if px.Excluded {
		return px, nil
	}

	px.GT0 = px.Observed && dswe.GT0(c)
	px.DSWE1 = px.Observed && dswe.IsHigh(c)
	px.DSWE3 = px.Observed && dswe.IsWetland(c)
	px.DSWE1a = px.Observed && dswe.DSWE1a(c, px.Algal)

	var class bool
	switch cfg.Variant {
	case DSWE1:
		px.Target, class = px.DSWE1, dswe.IsHigh(c)
	case DSWE1a:
		px.Target, class = px.DSWE1a, dswe.DSWE1a(c, px.Algal)
	case DSWE3:
		px.Target, class = px.DSWE3, dswe.IsWetland(c)
	}

	px.Diagnostic = confident && class

	return px, nil
}
