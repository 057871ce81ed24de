package terrain

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitGrid(n int) *Grid {
	g := NewGrid(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}}, n, n)
	for i := range g.Z {
		g.Z[i] = float64(i)
	}
	return g
}

func TestLocate(t *testing.T) {
	g := unitGrid(10)

	x, y, ok := g.Locate(orb.Point{0.05, 0.95})
	require.True(t, ok)
	assert.Equal(t, 0, x)
	assert.Equal(t, 0, y)

	x, y, ok = g.Locate(orb.Point{1, 0})
	require.True(t, ok)
	assert.Equal(t, 9, x)
	assert.Equal(t, 9, y)

	v, ok := g.Sample(orb.Point{0.25, 0.85})
	require.True(t, ok)
	assert.Equal(t, 12.0, v)

	v, ok = g.Sample(orb.Point{1.5, 0.5})
	assert.False(t, ok)
	assert.True(t, math.IsNaN(v))
}

func TestCenter(t *testing.T) {
	g := unitGrid(4)
	c := g.Center(0, 0)
	assert.InDelta(t, 0.125, c.Lon(), 1e-12)
	assert.InDelta(t, 0.875, c.Lat(), 1e-12)
}

func TestClip(t *testing.T) {
	g := unitGrid(100)

	out, err := g.Clip(orb.Bound{Min: orb.Point{0.4, 0.4}, Max: orb.Point{0.6, 0.6}})
	require.NoError(t, err)

	// 3 km is about 0.027 degrees, so centres 0.375 .. 0.625 survive
	assert.Equal(t, 26, out.W)
	assert.Equal(t, 26, out.H)
	assert.Equal(t, g.At(37, 37), out.At(0, 0))
	assert.Equal(t, g.At(62, 62), out.At(25, 25))
	assert.InDelta(t, 0.37, out.Bound.Min.Lon(), 1e-9)
	assert.InDelta(t, 0.63, out.Bound.Max.Lat(), 1e-9)

	_, err = g.Clip(orb.Bound{Min: orb.Point{5, 5}, Max: orb.Point{6, 6}})
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestHillshadeFlat(t *testing.T) {
	g := NewGrid(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{0.1, 0.1}}, 5, 5)

	hs := Hillshade(g, 135, 45)
	for _, v := range hs.Z {
		assert.InDelta(t, 255*math.Cos(math.Pi/4), v, 1e-9)
	}

	hs = Hillshade(g, 135, 90)
	assert.InDelta(t, 255, hs.At(2, 2), 1e-9)
}

func TestHillshadeFacing(t *testing.T) {
	// elevation drops towards the east, so the slope faces east
	g := NewGrid(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{0.05, 0.05}}, 5, 5)
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			g.Set(x, y, float64(500-100*x))
		}
	}

	east := Hillshade(g, 90, 30).At(2, 2)
	west := Hillshade(g, 270, 30).At(2, 2)

	assert.Greater(t, east, west)
	assert.LessOrEqual(t, east, 255.0)
	assert.GreaterOrEqual(t, west, 0.0)
}

func ridge() *Grid {
	g := NewGrid(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{0.2, 0.01}}, 20, 1)
	g.Set(10, 0, 1000)
	return g
}

func TestHillShadow(t *testing.T) {
	tests := []struct {
		name     string
		azimuth  float64
		shadowed []int
	}{
		// a 1000 m ridge with the sun 10 degrees up reaches about 5.6 km
		{"sun in the east", 90, []int{5, 6, 7, 8, 9}},
		{"sun in the west", 270, []int{11, 12, 13, 14, 15}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := HillShadow(ridge(), tt.azimuth, 80, DefaultNeighborhood)

			for x := 0; x < 20; x++ {
				want := 1.0
				for _, s := range tt.shadowed {
					if s == x {
						want = 0
					}
				}
				assert.Equal(t, want, hs.At(x, 0), "cell %d", x)
			}
		})
	}
}

func TestHillShadowNeighborhood(t *testing.T) {
	// looking only two cells out, the ridge cannot reach cell 5
	hs := HillShadow(ridge(), 90, 80, 2)
	assert.Equal(t, 1.0, hs.At(5, 0))
	assert.Equal(t, 0.0, hs.At(8, 0))
}

func TestHillShadowNight(t *testing.T) {
	hs := HillShadow(ridge(), 90, 95, DefaultNeighborhood)
	for _, v := range hs.Z {
		assert.Equal(t, 0.0, v)
	}
}

func TestFromLatLon(t *testing.T) {
	lats := []float64{10, 11, 12}
	lons := []float64{20, 21}
	z := [][]float64{{1, 2}, {3, 4}, {5, 6}}

	g, err := FromLatLon(lats, lons, z)
	require.NoError(t, err)

	assert.Equal(t, 2, g.W)
	assert.Equal(t, 3, g.H)
	assert.Equal(t, orb.Bound{Min: orb.Point{19.5, 9.5}, Max: orb.Point{21.5, 12.5}}, g.Bound)

	// ascending latitudes are flipped so the first row is the northern one
	assert.Equal(t, 5.0, g.At(0, 0))
	assert.Equal(t, 2.0, g.At(1, 2))

	v, ok := g.Sample(orb.Point{21, 10})
	require.True(t, ok)
	assert.Equal(t, 2.0, v)
}

func TestFromLatLonDescending(t *testing.T) {
	g, err := FromLatLon([]float64{12, 11, 10}, []float64{20, 21}, [][]float64{{1, 2}, {3, 4}, {5, 6}})
	require.NoError(t, err)
	assert.Equal(t, 1.0, g.At(0, 0))
	assert.InDelta(t, 12.5, g.Bound.Max.Lat(), 1e-12)
}

func TestFromLatLonShape(t *testing.T) {
	_, err := FromLatLon([]float64{1, 2}, []float64{1, 2}, [][]float64{{1, 2}})
	assert.Error(t, err)

	_, err = FromLatLon([]float64{1}, []float64{1, 2}, [][]float64{{1, 2}})
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestValueConversion(t *testing.T) {
	v, err := vector([]float32{1.5, 2})
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 2}, v)

	m, err := matrix([][]int16{{1, -2}, {3, 4}})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, -2}, {3, 4}}, m)

	_, err = vector("nope")
	assert.Error(t, err)
}

type ncVar struct {
	name   string
	values interface{}
	dims   []string
}

func writeNetCDF(t *testing.T, vars ...ncVar) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "dem.nc")
	cw, err := cdf.OpenWriter(path)
	require.NoError(t, err)
	for _, v := range vars {
		require.NoError(t, cw.AddVar(v.name, api.Variable{Values: v.values, Dimensions: v.dims}))
	}
	require.NoError(t, cw.Close())

	return path
}

func TestLoadNetCDF(t *testing.T) {
	elevation := [][]int16{{100, 200}, {300, 400}, {500, -10}}

	tests := []struct {
		name     string
		lat, lon string
		lats     interface{}
		lons     interface{}
		// elevation at the north west and south east corners
		nw, se float64
	}{
		{"descending float32", "latitude", "longitude",
			[]float32{40.5, 40.25, 40}, []float32{-96, -95.75}, 100, -10},
		{"ascending float64", "lat", "lon",
			[]float64{40, 40.25, 40.5}, []float64{-96, -95.75}, 500, 200},
		{"projected names", "y", "x",
			[]float32{40.5, 40.25, 40}, []float32{-96, -95.75}, 100, -10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeNetCDF(t,
				ncVar{tt.lat, tt.lats, []string{tt.lat}},
				ncVar{tt.lon, tt.lons, []string{tt.lon}},
				ncVar{"elevation", elevation, []string{tt.lat, tt.lon}},
			)

			g, err := LoadNetCDF(path, "elevation")
			require.NoError(t, err)

			assert.Equal(t, 2, g.W)
			assert.Equal(t, 3, g.H)
			assert.InDelta(t, -96.125, g.Bound.Min.Lon(), 1e-9)
			assert.InDelta(t, 39.875, g.Bound.Min.Lat(), 1e-9)
			assert.InDelta(t, -95.625, g.Bound.Max.Lon(), 1e-9)
			assert.InDelta(t, 40.625, g.Bound.Max.Lat(), 1e-9)

			assert.Equal(t, tt.nw, g.At(0, 0))
			assert.Equal(t, tt.se, g.At(1, 2))

			v, ok := g.Sample(orb.Point{-96, 40.5})
			require.True(t, ok)
			assert.Equal(t, tt.nw, v)
		})
	}
}

func TestLoadNetCDFMissing(t *testing.T) {
	path := writeNetCDF(t,
		ncVar{"latitude", []float32{40.5, 40}, []string{"latitude"}},
		ncVar{"easting", []float32{-96, -95.75}, []string{"easting"}},
		ncVar{"elevation", [][]int16{{1, 2}, {3, 4}}, []string{"latitude", "easting"}},
	)

	_, err := LoadNetCDF(path, "elevation")
	assert.ErrorContains(t, err, "has none of")

	_, err = LoadNetCDF(filepath.Join(t.TempDir(), "absent.nc"), "elevation")
	assert.Error(t, err)
}
