// Package terrain derives illumination from an elevation surface: continuous
// hillshade and a binary cast shadow mask.
package terrain

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/pkg/errors"
)

// FootprintPad is how far beyond a tile footprint the elevation surface is kept,
// in metres.
const FootprintPad = 3000

var ErrEmpty = errors.New("empty grid")

// Grid is a regular lon/lat elevation surface in row-major order, y=0 being the
// northern edge. Bound covers the outer cell edges.
type Grid struct {
	Bound orb.Bound
	W     int
	H     int
	Z     []float64
}

func NewGrid(b orb.Bound, w, h int) *Grid {
	return &Grid{
		Bound: b,
		W:     w,
		H:     h,
		Z:     make([]float64, w*h),
	}
}

func (g *Grid) At(x, y int) float64 {
	return g.Z[y*g.W+x]
}

func (g *Grid) Set(x, y int, v float64) {
	g.Z[y*g.W+x] = v
}

func (g *Grid) step() (float64, float64) {
	return (g.Bound.Max.Lon() - g.Bound.Min.Lon()) / float64(g.W),
		(g.Bound.Max.Lat() - g.Bound.Min.Lat()) / float64(g.H)
}

// Center returns the lon/lat of the centre of cell (x, y).
func (g *Grid) Center(x, y int) orb.Point {
	dx, dy := g.step()
	return orb.Point{
		g.Bound.Min.Lon() + (float64(x)+0.5)*dx,
		g.Bound.Max.Lat() - (float64(y)+0.5)*dy,
	}
}

// CellSize returns the east-west and north-south cell extent in metres, measured
// at the centre of the grid.
func (g *Grid) CellSize() (float64, float64) {
	dx, dy := g.step()
	c := g.Bound.Center()

	return geo.Distance(c, orb.Point{c.Lon() + dx, c.Lat()}),
		geo.Distance(c, orb.Point{c.Lon(), c.Lat() + dy})
}

// Locate returns the cell holding p.
func (g *Grid) Locate(p orb.Point) (int, int, bool) {
	if g.W == 0 || g.H == 0 || !g.Bound.Contains(p) {
		return 0, 0, false
	}

	dx, dy := g.step()
	x := int((p.Lon() - g.Bound.Min.Lon()) / dx)
	y := int((g.Bound.Max.Lat() - p.Lat()) / dy)

	// points on the south or east edge
	x = min(x, g.W-1)
	y = min(y, g.H-1)

	return x, y, true
}

// Sample returns the value of the cell nearest to p.
func (g *Grid) Sample(p orb.Point) (float64, bool) {
	x, y, ok := g.Locate(p)
	if !ok {
		return math.NaN(), false
	}
	return g.At(x, y), true
}

// Clip keeps the cells whose centres fall within the footprint padded by
// FootprintPad metres.
func (g *Grid) Clip(footprint orb.Bound) (*Grid, error) {
	pad := geo.BoundPad(footprint, FootprintPad)

	x0, y0, x1, y1 := g.W, g.H, -1, -1
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			if !pad.Contains(g.Center(x, y)) {
				continue
			}
			x0, y0 = min(x0, x), min(y0, y)
			x1, y1 = max(x1, x), max(y1, y)
		}
	}

	if x1 < 0 {
		return nil, errors.Wrapf(ErrEmpty, "no elevation within %v", pad)
	}

	dx, dy := g.step()
	b := orb.Bound{
		Min: orb.Point{g.Bound.Min.Lon() + float64(x0)*dx, g.Bound.Max.Lat() - float64(y1+1)*dy},
		Max: orb.Point{g.Bound.Min.Lon() + float64(x1+1)*dx, g.Bound.Max.Lat() - float64(y0)*dy},
	}

	out := NewGrid(b, x1-x0+1, y1-y0+1)
	for y := y0; y <= y1; y++ {
		copy(out.Z[(y-y0)*out.W:(y-y0+1)*out.W], g.Z[y*g.W+x0:y*g.W+x1+1])
	}

	return out, nil
}

// clamped reads a cell, repeating the edge for coordinates outside the grid
func (g *Grid) clamped(x, y int) float64 {
	x = max(0, min(x, g.W-1))
	y = max(0, min(y, g.H-1))
	return g.At(x, y)
}
