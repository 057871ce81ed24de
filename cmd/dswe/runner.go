package main

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/project-spencer/dswe/internal/log"
	"github.com/project-spencer/dswe/pkg/export"
	"github.com/project-spencer/dswe/pkg/model"
	"github.com/project-spencer/dswe/pkg/pipeline"
	"github.com/project-spencer/dswe/pkg/sites"
	"github.com/project-spencer/dswe/pkg/terrain"
	"github.com/project-spencer/dswe/pkg/zonal"
)

// runner pulls every configured variant out of the scenes it is handed and
// buffers the rows per export table.
type runner struct {
	settings *settings
	sites    []sites.Site
	dem      *terrain.Grid

	tables map[string]*export.Table
	*sync.Mutex
}

func newRunner(s *settings, all []sites.Site, dem *terrain.Grid) *runner {
	return &runner{
		settings: s,
		sites:    all,
		dem:      dem,
		tables:   make(map[string]*export.Table),
		Mutex:    &sync.Mutex{},
	}
}

func (r *runner) table(name string) *export.Table {
	r.Lock()
	defer r.Unlock()

	t, ok := r.tables[name]
	if !ok {
		t = export.NewTable(name)
		r.tables[name] = t
	}
	return t
}

func (r *runner) lookup(name string) (*export.Table, bool) {
	r.Lock()
	defer r.Unlock()

	t, ok := r.tables[name]
	return t, ok
}

func (r *runner) tableNames() []string {
	r.Lock()
	defer r.Unlock()

	names := make([]string, 0, len(r.tables))
	for n := range r.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// process returns the rows of every variant for one scene. Filtered scenes
// and scenes without sites give no rows.
func (r *runner) process(ctx context.Context, s *model.Scene) ([]zonal.Row, error) {
	if !r.settings.Filter.Accept(s) {
		log.Infof("scene %s filtered out", s.ID)
		return nil, nil
	}

	if len(sites.InTile(r.sites, s.Bound)) == 0 {
		log.Infof("scene %s holds no sites", s.ID)
		return nil, nil
	}

	var rows []zonal.Row

	for _, v := range r.settings.Variants {
		res, err := pipeline.Evaluate(ctx, r.settings.config(v), s, r.dem)
		if err != nil {
			return nil, errors.Wrapf(err, "%s on %s", v, s.ID)
		}

		out := zonal.SummarizeAll(res, r.sites)
		name := export.TaskName(r.settings.Project, r.settings.Extent, s.Sensor, v, s.Tile(), r.settings.RunDate)

		log.Infow("pulled scene", "scene", s.ID, "variant", v, "rows", len(out),
			"cloud_fraction", res.CloudFraction, "table", name)

		r.table(name).Append(out...)

		if r.settings.ExportEndpoint != "" && len(out) > 0 {
			if err := export.SendToRemote(ctx, r.settings.ExportEndpoint, name, out); err != nil {
				return nil, err
			}
		}

		rows = append(rows, out...)
	}

	return rows, nil
}
