package pipeline

import (
	"time"

	"github.com/project-spencer/dswe/pkg/model"
)

type window struct {
	from time.Time
	to   time.Time
}

// Landsat 7 data after the 2019 orbit drift and before full commissioning is
// not used.
var validity = map[string]window{
	"LE07": {
		from: time.Date(1999, 5, 28, 0, 0, 0, 0, time.UTC),
		to:   time.Date(2019, 12, 31, 0, 0, 0, 0, time.UTC),
	},
}

// Filter selects the scenes of one WRS-2 tile worth processing. Zero fields
// do not filter. End is exclusive.
type Filter struct {
	MaxCloudCover float64
	Start         time.Time
	End           time.Time
	Path          int
	Row           int
}

func inWindow(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}

func (f Filter) Accept(s *model.Scene) bool {
	if f.MaxCloudCover > 0 && !(s.CloudCover < f.MaxCloudCover) {
		return false
	}

	if f.Path != 0 && s.Path != f.Path {
		return false
	}
	if f.Row != 0 && s.Row != f.Row {
		return false
	}

	if !inWindow(s.Acquired, f.Start, f.End) {
		return false
	}

	if w, ok := validity[s.Mission]; ok && !inWindow(s.Acquired, w.from, w.to) {
		return false
	}

	return true
}

// Apply keeps the accepted scenes in order.
func (f Filter) Apply(scenes []*model.Scene) []*model.Scene {
	var out []*model.Scene
	for _, s := range scenes {
		if f.Accept(s) {
			out = append(out, s)
		}
	}
	return out
}
