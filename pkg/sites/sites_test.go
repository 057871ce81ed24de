package sites

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const collection = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"id": "lake-1"},
     "geometry": {"type": "Polygon", "coordinates": [[[0,0],[0.01,0],[0.01,0.01],[0,0.01],[0,0]]]}},
    {"type": "Feature", "id": 7, "properties": {},
     "geometry": {"type": "Polygon", "coordinates": [[[1,1],[1.02,1],[1.02,1.02],[1,1.02],[1,1]]]}}
  ]
}`

const points = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"id": 1234},
     "geometry": {"type": "Point", "coordinates": [-105.1, 40.5]}},
    {"type": "Feature", "properties": null,
     "geometry": {"type": "Point", "coordinates": [-104.9, 40.6]}}
  ]
}`

func parse(t *testing.T, s string) *geojson.FeatureCollection {
	t.Helper()
	fc, err := geojson.UnmarshalFeatureCollection([]byte(s))
	require.NoError(t, err)
	return fc
}

func TestParseExtent(t *testing.T) {
	for _, s := range []string{"site", "polygon", "polycenter"} {
		e, err := ParseExtent(s)
		require.NoError(t, err)
		assert.Equal(t, Extent(s), e)
	}

	_, err := ParseExtent("tile")
	assert.ErrorIs(t, err, ErrExtent)
}

func TestPointSites(t *testing.T) {
	all, err := FromFeatureCollection(parse(t, points), Point, 200)
	require.NoError(t, err)
	require.Len(t, all, 2)

	assert.Equal(t, "1234", all[0].ID)
	assert.Equal(t, "1", all[1].ID)

	s := all[0]
	// 0.001 degrees of latitude is about 111 m
	assert.True(t, s.Contains(orb.Point{-105.1, 40.501}))
	assert.False(t, s.Contains(orb.Point{-105.1, 40.503}))
	assert.True(t, s.Bound().Contains(orb.Point{-105.1, 40.501}))
}

func TestPolygonSites(t *testing.T) {
	all, err := FromFeatureCollection(parse(t, collection), Polygon, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)

	assert.Equal(t, "lake-1", all[0].ID)
	assert.Equal(t, "7", all[1].ID)

	assert.True(t, all[0].Contains(orb.Point{0.005, 0.005}))
	assert.False(t, all[0].Contains(orb.Point{0.02, 0.005}))
	assert.Equal(t, orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{0.01, 0.01}}, all[0].Bound())
}

func TestPolyCenterSites(t *testing.T) {
	all, err := FromFeatureCollection(parse(t, collection), PolyCenter, 100)
	require.NoError(t, err)

	c, ok := all[0].Geometry.(orb.Point)
	require.True(t, ok)
	assert.InDelta(t, 0.005, c.Lon(), 1e-9)
	assert.InDelta(t, 0.005, c.Lat(), 1e-9)

	// the corner of the polygon is far outside a 100 m buffer around the centre
	assert.True(t, all[0].Contains(orb.Point{0.005, 0.0055}))
	assert.False(t, all[0].Contains(orb.Point{0.0001, 0.0001}))
}

func TestExtentMismatch(t *testing.T) {
	_, err := FromFeatureCollection(parse(t, points), Polygon, 0)
	assert.Error(t, err)

	_, err = FromFeatureCollection(parse(t, collection), Point, 100)
	assert.Error(t, err)

	_, err = FromFeatureCollection(parse(t, points), Extent("tile"), 100)
	assert.ErrorIs(t, err, ErrExtent)
}

func TestInTile(t *testing.T) {
	all, err := FromFeatureCollection(parse(t, collection), Polygon, 0)
	require.NoError(t, err)

	tile := orb.Bound{Min: orb.Point{-0.5, -0.5}, Max: orb.Point{0.5, 0.5}}
	got := InTile(all, tile)

	require.Len(t, got, 1)
	assert.Equal(t, "lake-1", got[0].ID)
}
