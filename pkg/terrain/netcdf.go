package terrain

import (
	"sort"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"github.com/project-spencer/dswe/internal/log"
)

var (
	latNames = []string{"lat", "latitude", "y"}
	lonNames = []string{"lon", "longitude", "x"}
)

// LoadNetCDF reads a lat/lon elevation surface from a NetCDF file. The
// coordinate variables give the cell centres.
func LoadNetCDF(path, variable string) (*Grid, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open %s", path)
	}
	defer nc.Close()

	get := func(names ...string) (interface{}, string, error) {
		for _, n := range names {
			v, err := nc.GetVariable(n)
			if err == nil {
				return v.Values, n, nil
			}
		}
		return nil, "", errors.Errorf("%s has none of %v", path, names)
	}

	lat, latName, err := get(latNames...)
	if err != nil {
		return nil, err
	}
	lon, lonName, err := get(lonNames...)
	if err != nil {
		return nil, err
	}
	z, _, err := get(variable)
	if err != nil {
		return nil, err
	}

	log.Debugf("loading elevation %s from %s (%s, %s)", variable, path, latName, lonName)

	lats, err := vector(lat)
	if err != nil {
		return nil, errors.Wrap(err, latName)
	}
	lons, err := vector(lon)
	if err != nil {
		return nil, errors.Wrap(err, lonName)
	}
	rows, err := matrix(z)
	if err != nil {
		return nil, errors.Wrap(err, variable)
	}

	return FromLatLon(lats, lons, rows)
}

// FromLatLon builds a grid from cell centre coordinates and rows of elevation
// indexed [lat][lon]. Latitudes may run either way.
func FromLatLon(lats, lons []float64, z [][]float64) (*Grid, error) {
	if len(lats) < 2 || len(lons) < 2 {
		return nil, errors.Wrapf(ErrEmpty, "need at least 2x2 cells, got %dx%d", len(lons), len(lats))
	}
	if len(z) != len(lats) {
		return nil, errors.Errorf("have %d rows for %d latitudes", len(z), len(lats))
	}
	for i, r := range z {
		if len(r) != len(lons) {
			return nil, errors.Errorf("row %d has %d cells for %d longitudes", i, len(r), len(lons))
		}
	}
	if !sort.Float64sAreSorted(lons) {
		return nil, errors.New("longitudes must increase")
	}

	ascending := lats[0] < lats[len(lats)-1]

	dLon := (lons[len(lons)-1] - lons[0]) / float64(len(lons)-1)
	dLat := (lats[len(lats)-1] - lats[0]) / float64(len(lats)-1)
	if dLat < 0 {
		dLat = -dLat
	}

	north, south := lats[0], lats[len(lats)-1]
	if ascending {
		north, south = south, north
	}

	b := orb.Bound{
		Min: orb.Point{lons[0] - dLon/2, south - dLat/2},
		Max: orb.Point{lons[len(lons)-1] + dLon/2, north + dLat/2},
	}
	g := NewGrid(b, len(lons), len(lats))

	for y := range z {
		row := z[y]
		if ascending {
			row = z[len(z)-1-y]
		}
		copy(g.Z[y*g.W:(y+1)*g.W], row)
	}

	return g, nil
}

func vector(v interface{}) ([]float64, error) {
	switch t := v.(type) {
	case []float64:
		return t, nil
	case []float32:
		out := make([]float64, len(t))
		for i, x := range t {
			out[i] = float64(x)
		}
		return out, nil
	case []int32:
		out := make([]float64, len(t))
		for i, x := range t {
			out[i] = float64(x)
		}
		return out, nil
	case []int16:
		out := make([]float64, len(t))
		for i, x := range t {
			out[i] = float64(x)
		}
		return out, nil
	}
	return nil, errors.Errorf("unsupported vector type %T", v)
}

func matrix(v interface{}) ([][]float64, error) {
	switch t := v.(type) {
	case [][]float64:
		return t, nil
	case [][]float32:
		out := make([][]float64, len(t))
		for i := range t {
			out[i], _ = vector(t[i])
		}
		return out, nil
	case [][]int32:
		out := make([][]float64, len(t))
		for i := range t {
			out[i], _ = vector(t[i])
		}
		return out, nil
	case [][]int16:
		out := make([][]float64, len(t))
		for i := range t {
			out[i], _ = vector(t[i])
		}
		return out, nil
	}
	return nil, errors.Errorf("unsupported matrix type %T", v)
}
