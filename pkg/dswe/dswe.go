// Package dswe implements the Dynamic Surface Water Extent classifier.
//
// Five threshold tests are folded into a code whose decimal digits are the test
// outcomes (t1 is the units digit, t5 the ten-thousands digit). The code is then
// looked up in a fixed table. Codes are decimal on purpose, the table below is
// written the same way.
package dswe

import (
	"github.com/project-spencer/dswe/pkg/index"
	"github.com/project-spencer/dswe/pkg/model"
)

type Class int

const (
	NoWater Class = iota
	HighConfidence
	ModerateConfidence
	PartialWetland
	LowConfidence
)

func (c Class) String() string {
	switch c {
	case NoWater:
		return "no water"
	case HighConfidence:
		return "high confidence water"
	case ModerateConfidence:
		return "moderate confidence water"
	case PartialWetland:
		return "partial surface water"
	case LowConfidence:
		return "low confidence water"
	default:
		return "unknown"
	}
}

// Tests are the five DSWE threshold outcomes of one pixel.
type Tests [5]bool

// Code returns t1 + 10·t2 + 100·t3 + 1000·t4 + 10000·t5.
func (t Tests) Code() int {
	code, mul := 0, 1
	for _, v := range t {
		if v {
			code += mul
		}
		mul *= 10
	}
	return code
}

// Evaluate runs the threshold tests on scaled reflectances.
func Evaluate(px map[model.Band]float64) Tests {
	i := index.Compute(px)

	var (
		blue  = px[model.Blue]
		nir   = px[model.Nir]
		swir1 = px[model.Swir1]
		swir2 = px[model.Swir2]
	)

	return Tests{
		i.MNDWI > 0.124,
		i.MBSRV > i.MBSRN,
		i.AWESH > 0,
		i.MNDWI > -0.44 && swir1 < 0.09 && nir < 0.15 && i.NDVI < 0.7,
		i.MNDWI > -0.5 && blue < 0.1 && swir1 < 0.3 && swir2 < 0.1 && nir < 0.25,
	}
}

var classes = map[int]Class{
	0:    NoWater,
	1:    NoWater,
	10:   NoWater,
	100:  NoWater,
	1000: NoWater,

	1111:  HighConfidence,
	10111: HighConfidence,
	11011: HighConfidence,
	11101: HighConfidence,
	11110: HighConfidence,
	11111: HighConfidence,

	111:   ModerateConfidence,
	1011:  ModerateConfidence,
	1101:  ModerateConfidence,
	1110:  ModerateConfidence,
	10011: ModerateConfidence,
	10101: ModerateConfidence,
	10110: ModerateConfidence,
	11001: ModerateConfidence,
	11010: ModerateConfidence,
	11100: ModerateConfidence,

	11000: PartialWetland,

	11:    LowConfidence,
	101:   LowConfidence,
	110:   LowConfidence,
	1001:  LowConfidence,
	1010:  LowConfidence,
	1100:  LowConfidence,
	10000: LowConfidence,
	10001: LowConfidence,
	10010: LowConfidence,
	10100: LowConfidence,
}

// ClassOf looks a code up in the class table.
func ClassOf(code int) (Class, bool) {
	c, ok := classes[code]
	return c, ok
}

// ClassifyTests never fails: a code outside the table counts as no water.
func ClassifyTests(t Tests) Class {
	c, ok := ClassOf(t.Code())
	if !ok {
		return NoWater
	}
	return c
}

func Classify(px map[model.Band]float64) Class {
	return ClassifyTests(Evaluate(px))
}

const (
	algalGreenMin = 0.05
	algalRedMax   = 0.04
)

// Algal flags likely algae: any water class above high confidence with bright
// green and dark red.
func Algal(c Class, px map[model.Band]float64) bool {
	return c > HighConfidence && px[model.Green] > algalGreenMin && px[model.Red] < algalRedMax
}

// GT0 is any water at all.
func GT0(c Class) bool {
	return c != NoWater
}

// IsHigh is the dswe1 mask.
func IsHigh(c Class) bool {
	return c == HighConfidence
}

// IsWetland is the dswe3 mask.
func IsWetland(c Class) bool {
	return c == PartialWetland
}

// DSWE1a is high confidence water or algae flagged water.
func DSWE1a(c Class, algal bool) bool {
	return c == HighConfidence || algal
}
