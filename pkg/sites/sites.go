// Package sites holds the geometries zonal statistics are reduced over.
package sites

import (
	"fmt"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/pkg/errors"
)

// Extent is how a site's area is derived from its geometry.
type Extent string

const (
	// Point is a location buffered by a radius.
	Point Extent = "site"
	// Polygon is a waterbody outline used as is.
	Polygon Extent = "polygon"
	// PolyCenter is the centroid of a waterbody outline, buffered.
	PolyCenter Extent = "polycenter"
)

var ErrExtent = errors.New("unknown extent")

func ParseExtent(s string) (Extent, error) {
	switch e := Extent(s); e {
	case Point, Polygon, PolyCenter:
		return e, nil
	}
	return "", errors.Wrapf(ErrExtent, "%q", s)
}

// Site is one named area. Buffer is in metres and only used by the buffered
// extents.
type Site struct {
	ID       string
	Extent   Extent
	Geometry orb.Geometry
	Buffer   float64
}

func (s Site) center() orb.Point {
	if p, ok := s.Geometry.(orb.Point); ok {
		return p
	}
	c, _ := planar.CentroidArea(s.Geometry)
	return c
}

// Contains reports whether p falls inside the site's area.
func (s Site) Contains(p orb.Point) bool {
	switch s.Extent {
	case Point, PolyCenter:
		return geo.Distance(s.center(), p) <= s.Buffer
	}

	switch g := s.Geometry.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, p)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, p)
	}
	return false
}

// Bound covers everything Contains can accept.
func (s Site) Bound() orb.Bound {
	switch s.Extent {
	case Point, PolyCenter:
		return geo.NewBoundAroundPoint(s.center(), s.Buffer)
	}
	return s.Geometry.Bound()
}

func featureID(f *geojson.Feature, i int) string {
	if v, ok := f.Properties["id"]; ok && v != nil {
		switch t := v.(type) {
		case string:
			return t
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64)
		default:
			return fmt.Sprint(t)
		}
	}
	if f.ID != nil {
		return fmt.Sprint(f.ID)
	}
	return strconv.Itoa(i)
}

// FromFeatureCollection turns GeoJSON features into sites. Point extents need
// point features, Polygon extents need (multi)polygons; PolyCenter takes either
// and reduces polygons to their centroid.
func FromFeatureCollection(fc *geojson.FeatureCollection, extent Extent, buffer float64) ([]Site, error) {
	if _, err := ParseExtent(string(extent)); err != nil {
		return nil, err
	}

	out := make([]Site, 0, len(fc.Features))

	for i, f := range fc.Features {
		id := featureID(f, i)

		if f.Geometry == nil {
			return nil, errors.Errorf("feature %s has no geometry", id)
		}

		s := Site{
			ID:     id,
			Extent: extent,
			Buffer: buffer,
		}

		switch g := f.Geometry.(type) {
		case orb.Point:
			if extent == Polygon {
				return nil, errors.Errorf("feature %s: polygon extent needs polygons, got a point", id)
			}
			s.Geometry = g
		case orb.Polygon, orb.MultiPolygon:
			switch extent {
			case Point:
				return nil, errors.Errorf("feature %s: site extent needs points, got %s", id, g.GeoJSONType())
			case PolyCenter:
				c, _ := planar.CentroidArea(g)
				s.Geometry = c
			default:
				s.Geometry = g
			}
		default:
			return nil, errors.Errorf("feature %s: unsupported geometry %s", id, g.GeoJSONType())
		}

		out = append(out, s)
	}

	return out, nil
}

// InTile keeps the sites that overlap a tile footprint.
func InTile(all []Site, tile orb.Bound) []Site {
	var out []Site
	for _, s := range all {
		if s.Bound().Intersects(tile) {
			out = append(out, s)
		}
	}
	return out
}
