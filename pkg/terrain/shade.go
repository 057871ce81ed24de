package terrain

import (
	"math"
)

// DefaultNeighborhood is how many cells HillShadow looks towards the sun.
const DefaultNeighborhood = 30

func rad(d float64) float64 {
	return d * math.Pi / 180
}

// slopeAspect uses Horn's 3x3 method. Aspect is the downslope direction in
// radians clockwise from north.
func (g *Grid) slopeAspect(x, y int, cx, cy float64) (float64, float64) {
	var (
		nw = g.clamped(x-1, y-1)
		n  = g.clamped(x, y-1)
		ne = g.clamped(x+1, y-1)
		w  = g.clamped(x-1, y)
		e  = g.clamped(x+1, y)
		sw = g.clamped(x-1, y+1)
		s  = g.clamped(x, y+1)
		se = g.clamped(x+1, y+1)
	)

	// east and south gradients
	dzdx := ((ne + 2*e + se) - (nw + 2*w + sw)) / (8 * cx)
	dzdy := ((sw + 2*s + se) - (nw + 2*n + ne)) / (8 * cy)

	slope := math.Atan(math.Hypot(dzdx, dzdy))

	aspect := math.Atan2(-dzdx, dzdy)
	if aspect < 0 {
		aspect += 2 * math.Pi
	}

	return slope, aspect
}

// Hillshade returns the 0-255 illumination of every cell for a sun at the given
// azimuth (degrees clockwise from north) and elevation (degrees above horizon).
func Hillshade(g *Grid, azimuth, elevation float64) *Grid {
	out := NewGrid(g.Bound, g.W, g.H)
	cx, cy := g.CellSize()

	zen := rad(90 - elevation)
	az := rad(azimuth)

	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			slope, aspect := g.slopeAspect(x, y, cx, cy)

			v := math.Cos(zen)*math.Cos(slope) + math.Sin(zen)*math.Sin(slope)*math.Cos(az-aspect)
			out.Set(x, y, 255*math.Max(0, v))
		}
	}

	return out
}

// HillShadow marks cells lit by the sun with 1 and cells in the cast shadow of
// higher terrain with 0. Each cell is checked by walking up to neighborhood
// cells towards the sun and comparing the terrain against the sun ray.
func HillShadow(g *Grid, azimuth, zenith float64, neighborhood int) *Grid {
	out := NewGrid(g.Bound, g.W, g.H)

	if zenith >= 90 {
		// sun at or below the horizon, nothing is lit
		return out
	}

	cx, cy := g.CellSize()

	// one step in cell units, y grows southward
	sx := math.Sin(rad(azimuth))
	sy := -math.Cos(rad(azimuth))
	stepLen := math.Hypot(sx*cx, sy*cy)
	rise := math.Tan(rad(90 - zenith))

	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			z0 := g.At(x, y)
			lit := 1.0

			for k := 1; k <= neighborhood; k++ {
				px := int(math.Round(float64(x) + float64(k)*sx))
				py := int(math.Round(float64(y) + float64(k)*sy))
				if px < 0 || py < 0 || px >= g.W || py >= g.H {
					break
				}

				if g.At(px, py) > z0+float64(k)*stepLen*rise {
					lit = 0
					break
				}
			}

			out.Set(x, y, lit)
		}
	}

	return out
}
