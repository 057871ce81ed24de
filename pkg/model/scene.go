package model

import (
	"archive/zip"
	"encoding/gob"
	"encoding/json"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// Scene is one Landsat Collection 2 Level-2 acquisition with its bands already
// renamed to canonical names. Band values are raw digital numbers.
type Scene struct {
	ID           string
	Mission      string
	Sensor       Sensor
	Acquired     time.Time
	Path         int
	Row          int
	CloudCover   float64
	SunAzimuth   float64
	SunElevation float64
	Bound        orb.Bound
	Bands        map[Band]*Raster
}

// Tile returns the WRS-2 path/row as "PPPRRR".
func (s *Scene) Tile() string {
	return pad3(s.Path) + pad3(s.Row)
}

func pad3(v int) string {
	t := strconv.Itoa(v)
	for len(t) < 3 {
		t = "0" + t
	}
	return t
}

// Size returns the width and height of the scene, taken from its pixel QA
// band. Optional bands of another shape do not change it.
func (s *Scene) Size() (int, int) {
	if r, ok := s.Bands[PixelQA]; ok {
		return r.W, r.H
	}
	return 0, 0
}

// Validate checks that all required bands for the scene's sensor are present
// and share the pixel QA shape.
func (s *Scene) Validate() error {
	if s.Sensor == UnknownSensor {
		return errors.Wrapf(ErrUnknownMission, "scene %s", s.ID)
	}

	for _, b := range s.Sensor.Required() {
		if _, ok := s.Bands[b]; !ok {
			return errors.Errorf("scene %s: missing band %s", s.ID, b)
		}
	}

	w, h := s.Size()

	for _, b := range s.Sensor.Required() {
		r := s.Bands[b]
		if r.W != w || r.H != h || len(r.Pix) != w*h {
			return errors.Wrapf(ErrShape, "scene %s band %s is %dx%d, want %dx%d", s.ID, b, r.W, r.H, w, h)
		}
	}

	return nil
}

// Cells maps pixel indices of a scene to lon/lat cell centres.
type Cells struct {
	W, H   int
	origin orb.Point
	dx, dy float64
}

// Cells fixes the pixel geometry of the scene once.
func (s *Scene) Cells() Cells {
	w, h := s.Size()
	c := Cells{
		W:      w,
		H:      h,
		origin: orb.Point{s.Bound.Min.Lon(), s.Bound.Max.Lat()},
	}
	if w > 0 && h > 0 {
		c.dx = (s.Bound.Max.Lon() - s.Bound.Min.Lon()) / float64(w)
		c.dy = (s.Bound.Max.Lat() - s.Bound.Min.Lat()) / float64(h)
	}
	return c
}

// Location returns the lon/lat of the centre of pixel (x, y).
func (c Cells) Location(x, y int) orb.Point {
	return orb.Point{
		c.origin.Lon() + (float64(x)+0.5)*c.dx,
		c.origin.Lat() - (float64(y)+0.5)*c.dy,
	}
}

func (s *Scene) Location(x, y int) orb.Point {
	return s.Cells().Location(x, y)
}

func (s *Scene) Encode(w io.Writer) error {
	enc := gob.NewEncoder(w)
	return enc.Encode(s)
}

func (s *Scene) Decode(r io.Reader) error {
	dec := gob.NewDecoder(r)
	return dec.Decode(s)
}

// metadata is the subset of the Collection 2 MTL.json we read
type metadata struct {
	File struct {
		Product struct {
			ProductID string `json:"LANDSAT_PRODUCT_ID"`
		} `json:"PRODUCT_CONTENTS"`
		Image struct {
			Path         string `json:"WRS_PATH"`
			Row          string `json:"WRS_ROW"`
			Date         string `json:"DATE_ACQUIRED"`
			CenterTime   string `json:"SCENE_CENTER_TIME"`
			CloudCover   string `json:"CLOUD_COVER"`
			SunAzimuth   string `json:"SUN_AZIMUTH"`
			SunElevation string `json:"SUN_ELEVATION"`
		} `json:"IMAGE_ATTRIBUTES"`
		Projection struct {
			ULLat string `json:"CORNER_UL_LAT_PRODUCT"`
			ULLon string `json:"CORNER_UL_LON_PRODUCT"`
			LRLat string `json:"CORNER_LR_LAT_PRODUCT"`
			LRLon string `json:"CORNER_LR_LON_PRODUCT"`
		} `json:"PROJECTION_ATTRIBUTES"`
	} `json:"LANDSAT_METADATA_FILE"`
}

func (m *metadata) apply(s *Scene) error {
	var err error

	s.ID = m.File.Product.ProductID
	s.Mission = s.ID
	if len(s.Mission) > 4 {
		s.Mission = s.Mission[:4]
	}

	s.Sensor, err = SensorOf(s.Mission)
	if err != nil {
		return err
	}

	img := m.File.Image

	if s.Path, err = strconv.Atoi(img.Path); err != nil {
		return errors.Wrap(err, "WRS_PATH")
	}
	if s.Row, err = strconv.Atoi(img.Row); err != nil {
		return errors.Wrap(err, "WRS_ROW")
	}

	stamp := img.Date
	if img.CenterTime != "" {
		// "16:53:27.1234560Z", nanosecond field may be longer than RFC3339 allows
		stamp += "T" + strings.TrimSuffix(img.CenterTime, "Z")
		if i := strings.Index(stamp, "."); i >= 0 {
			stamp = stamp[:i]
		}
		stamp += "Z"
		s.Acquired, err = time.Parse(time.RFC3339, stamp)
	} else {
		s.Acquired, err = time.Parse(time.DateOnly, stamp)
	}
	if err != nil {
		return errors.Wrap(err, "DATE_ACQUIRED")
	}

	type field struct {
		name string
		in   string
		out  *float64
	}

	var ulLat, ulLon, lrLat, lrLon float64
	p := m.File.Projection

	fields := []field{
		{"CLOUD_COVER", img.CloudCover, &s.CloudCover},
		{"SUN_AZIMUTH", img.SunAzimuth, &s.SunAzimuth},
		{"SUN_ELEVATION", img.SunElevation, &s.SunElevation},
		{"CORNER_UL_LAT_PRODUCT", p.ULLat, &ulLat},
		{"CORNER_UL_LON_PRODUCT", p.ULLon, &ulLon},
		{"CORNER_LR_LAT_PRODUCT", p.LRLat, &lrLat},
		{"CORNER_LR_LON_PRODUCT", p.LRLon, &lrLon},
	}

	for _, f := range fields {
		v, err := strconv.ParseFloat(f.in, 64)
		if err != nil {
			return errors.Wrap(err, f.name)
		}
		*f.out = v
	}

	s.Bound = orb.Bound{
		Min: orb.Point{ulLon, lrLat},
		Max: orb.Point{lrLon, ulLat},
	}

	return nil
}

// SceneFromZip reads a scene bundle: the product's MTL.json plus one GeoTIFF per
// band, named "<product id>_<band>.TIF". Unknown files are skipped.
func SceneFromZip(r io.ReaderAt, size int64) (*Scene, error) {
	z, err := zip.NewReader(r, size)
	if err != nil {
		return nil, errors.Wrap(err, "could not open scene bundle")
	}

	s := &Scene{Bands: make(map[Band]*Raster)}

	// metadata first, band naming depends on the sensor
	var found bool
	for _, f := range z.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(f.Name, "MTL.json") {
			continue
		}

		b, err := f.Open()
		if err != nil {
			return nil, errors.Wrap(err, f.Name)
		}

		var m metadata
		err = json.NewDecoder(b).Decode(&m)
		b.Close()

		if err != nil {
			return nil, errors.Wrapf(err, "could not parse %s", f.Name)
		}

		if err := m.apply(s); err != nil {
			return nil, errors.Wrapf(err, "bad metadata in %s", f.Name)
		}

		found = true
		break
	}

	if !found {
		return nil, errors.New("scene bundle has no MTL.json")
	}

	for _, f := range z.File {
		if f.FileInfo().IsDir() {
			continue
		}

		ext := path.Ext(f.Name)
		if !strings.EqualFold(ext, ".tif") && !strings.EqualFold(ext, ".tiff") {
			continue
		}

		name, ok := s.Sensor.ProductBand(strings.TrimSuffix(path.Base(f.Name), ext))
		if !ok {
			continue
		}
		band, _ := s.Sensor.Rename(name)

		b, err := f.Open()
		if err != nil {
			return nil, errors.Wrap(err, f.Name)
		}

		d, err := io.ReadAll(b)
		b.Close()

		if err != nil {
			return nil, errors.Wrap(err, f.Name)
		}

		raster, err := DecodeTIFF(d)
		if err != nil {
			return nil, errors.Wrap(err, f.Name)
		}

		s.Bands[band] = raster
	}

	return s, s.Validate()
}
