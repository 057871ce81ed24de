package pipeline

import (
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"github.com/project-spencer/dswe/pkg/terrain"
)

// Variant picks which water class a pull reduces over.
type Variant string

const (
	// DSWE1 is high confidence open water.
	DSWE1 Variant = "DSWE1"
	// DSWE1a is high confidence water plus algae flagged water.
	DSWE1a Variant = "DSWE1a"
	// DSWE3 is partial surface water, mostly vegetated wetland.
	DSWE3 Variant = "DSWE3"
)

// Level is the granularity of a pull. Tile pulls drop atmospherically bad
// pixels outright, site pulls keep them and count them instead.
type Level string

const (
	Tile Level = "tile"
	Site Level = "site"
)

var ErrConfig = errors.New("invalid pipeline config")

// ParseVariants reads a setting like "1a+3" or "DSWE1,DSWE3". A setting
// naming 1a also pulls plain DSWE1.
func ParseVariants(setting string) ([]Variant, error) {
	tokens := strings.FieldsFunc(strings.ToUpper(setting), func(r rune) bool {
		return r == '+' || r == ',' || r == ' '
	})

	want := make(map[Variant]bool)
	for _, tok := range tokens {
		switch strings.TrimPrefix(tok, "DSWE") {
		case "1":
			want[DSWE1] = true
		case "1A":
			want[DSWE1], want[DSWE1a] = true, true
		case "3":
			want[DSWE3] = true
		default:
			return nil, errors.Wrapf(ErrConfig, "unknown DSWE variant %q in %q", tok, setting)
		}
	}

	var out []Variant
	for _, v := range []Variant{DSWE1, DSWE1a, DSWE3} {
		if want[v] {
			out = append(out, v)
		}
	}

	if len(out) == 0 {
		return nil, errors.Wrapf(ErrConfig, "no DSWE variant in %q", setting)
	}

	return out, nil
}

func ParseLevel(s string) (Level, error) {
	switch l := Level(strings.ToLower(s)); l {
	case Tile, Site:
		return l, nil
	}
	return "", errors.Wrapf(ErrConfig, "unknown level %q", s)
}

// Config parameterizes one pipeline run. The sensor family and atmospheric
// mask come from the scene itself.
type Config struct {
	Variant Variant
	Level   Level

	// HillShadowNeighborhood is how many DEM cells are searched towards the sun.
	HillShadowNeighborhood int

	Workers int
}

func DefaultConfig() Config {
	return Config{
		Variant:                DSWE1,
		Level:                  Site,
		HillShadowNeighborhood: terrain.DefaultNeighborhood,
		Workers:                runtime.NumCPU(),
	}
}

func (c Config) Validate() error {
	switch c.Variant {
	case DSWE1, DSWE1a, DSWE3:
	default:
		return errors.Wrapf(ErrConfig, "unknown variant %q", c.Variant)
	}

	if _, err := ParseLevel(string(c.Level)); err != nil {
		return err
	}

	if c.HillShadowNeighborhood < 1 {
		return errors.Wrapf(ErrConfig, "hill shadow neighborhood %d", c.HillShadowNeighborhood)
	}

	if c.Workers < 1 {
		return errors.Wrapf(ErrConfig, "workers %d", c.Workers)
	}

	return nil
}
