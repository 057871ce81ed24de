package main

import (
	"os"
	"runtime"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
	"github.com/project-spencer/dswe/internal/log"
	"github.com/project-spencer/dswe/pkg/pipeline"
	"github.com/project-spencer/dswe/pkg/sites"
	"github.com/project-spencer/dswe/pkg/terrain"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const dateLayout = "2006-01-02"

// pullFlags registers the pipeline settings on the root command.
func pullFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.String("project", "dswe", "project name used in export names")
	f.String("variant", "1", "DSWE variants to pull, e.g. 1, 1a, 3 or 1a+3")
	f.String("level", "site", "pull level: tile or site")
	f.String("extent", "site", "site extent: site, polygon or polycenter")
	f.Float64("site-buffer", 200, "buffer around point sites in metres")
	f.Float64("cloud-thresh", 0, "maximum scene cloud cover in percent (0 keeps all)")
	f.Int("path", 0, "WRS-2 path to keep (0 keeps all)")
	f.Int("row", 0, "WRS-2 row to keep (0 keeps all)")
	f.String("start-date", "", "first acquisition date, "+dateLayout)
	f.String("end-date", "", "acquisition date to stop before, "+dateLayout)
	f.Int("workers", runtime.NumCPU(), "rows evaluated in parallel")
	f.Int("neighborhood", terrain.DefaultNeighborhood, "DEM cells searched towards the sun for hill shadow")
	f.String("sites", "", "GeoJSON feature collection of sites")
	f.String("dem", "", "NetCDF DEM")
	f.String("dem-variable", "elevation", "elevation variable in the DEM")
	f.String("export-endpoint", "", "table sink rows are posted to")
	f.String("run-date", time.Now().Format(dateLayout), "version suffix of export names")

	for _, name := range []string{
		"project", "variant", "level", "extent", "site-buffer", "cloud-thresh", "path", "row",
		"start-date", "end-date", "workers", "neighborhood", "sites", "dem",
		"dem-variable", "export-endpoint", "run-date",
	} {
		_ = viper.BindPFlag(name, f.Lookup(name))
	}
}

type settings struct {
	Project  string
	Variants []pipeline.Variant
	Level    pipeline.Level
	Extent   sites.Extent
	Buffer   float64
	Filter   pipeline.Filter
	Workers  int

	Neighborhood int

	SitesPath      string
	DEMPath        string
	DEMVariable    string
	ExportEndpoint string
	RunDate        string
}

func parseDate(key string) (time.Time, error) {
	v := viper.GetString(key)
	if v == "" {
		return time.Time{}, nil
	}

	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "%s", key)
	}
	return t, nil
}

func loadSettings() (*settings, error) {
	s := &settings{
		Project:        viper.GetString("project"),
		Buffer:         viper.GetFloat64("site-buffer"),
		Workers:        viper.GetInt("workers"),
		Neighborhood:   viper.GetInt("neighborhood"),
		SitesPath:      viper.GetString("sites"),
		DEMPath:        viper.GetString("dem"),
		DEMVariable:    viper.GetString("dem-variable"),
		ExportEndpoint: viper.GetString("export-endpoint"),
		RunDate:        viper.GetString("run-date"),
	}

	var err error

	if s.Variants, err = pipeline.ParseVariants(viper.GetString("variant")); err != nil {
		return nil, err
	}
	if s.Level, err = pipeline.ParseLevel(viper.GetString("level")); err != nil {
		return nil, err
	}
	if s.Extent, err = sites.ParseExtent(viper.GetString("extent")); err != nil {
		return nil, err
	}

	s.Filter.MaxCloudCover = viper.GetFloat64("cloud-thresh")
	s.Filter.Path = viper.GetInt("path")
	s.Filter.Row = viper.GetInt("row")
	if s.Filter.Start, err = parseDate("start-date"); err != nil {
		return nil, err
	}
	if s.Filter.End, err = parseDate("end-date"); err != nil {
		return nil, err
	}

	return s, nil
}

// config is the pipeline configuration of one variant.
func (s *settings) config(v pipeline.Variant) pipeline.Config {
	cfg := pipeline.DefaultConfig()
	cfg.Variant = v
	cfg.Level = s.Level
	cfg.HillShadowNeighborhood = s.Neighborhood
	cfg.Workers = s.Workers
	return cfg
}

func (s *settings) loadSites() ([]sites.Site, error) {
	if s.SitesPath == "" {
		return nil, errors.New("no sites file configured")
	}

	b, err := os.ReadFile(s.SitesPath)
	if err != nil {
		return nil, errors.Wrap(err, "could not read sites")
	}

	fc, err := geojson.UnmarshalFeatureCollection(b)
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse %s", s.SitesPath)
	}

	all, err := sites.FromFeatureCollection(fc, s.Extent, s.Buffer)
	if err != nil {
		return nil, err
	}

	log.Infof("loaded %d sites from %s", len(all), s.SitesPath)
	return all, nil
}

// loadDEM returns nil without a configured DEM; terrain is then flat.
func (s *settings) loadDEM() (*terrain.Grid, error) {
	if s.DEMPath == "" {
		log.Warnf("no DEM configured, assuming flat terrain")
		return nil, nil
	}
	return terrain.LoadNetCDF(s.DEMPath, s.DEMVariable)
}
