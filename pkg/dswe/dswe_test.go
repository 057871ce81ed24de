package dswe

import (
	"math"
	"testing"

	"github.com/project-spencer/dswe/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var listed = map[Class][]int{
	NoWater:            {0, 1, 10, 100, 1000},
	HighConfidence:     {1111, 10111, 11011, 11101, 11110, 11111},
	ModerateConfidence: {111, 1011, 1101, 1110, 10011, 10101, 10110, 11001, 11010, 11100},
	PartialWetland:     {11000},
	LowConfidence:      {11, 101, 110, 1001, 1010, 1100, 10000, 10001, 10010, 10100},
}

func allTests() []Tests {
	out := make([]Tests, 0, 32)
	for m := 0; m < 32; m++ {
		var t Tests
		for i := range t {
			t[i] = m&(1<<i) != 0
		}
		out = append(out, t)
	}
	return out
}

func TestEveryCodeHasExactlyOneClass(t *testing.T) {
	seen := make(map[int]bool)

	for _, tt := range allTests() {
		code := tt.Code()
		require.False(t, seen[code], "code %d produced twice", code)
		seen[code] = true

		matches := 0
		var in Class
		for c, codes := range listed {
			for _, v := range codes {
				if v == code {
					matches++
					in = c
				}
			}
		}
		require.Equal(t, 1, matches, "code %05d", code)

		got, ok := ClassOf(code)
		require.True(t, ok, "code %05d", code)
		assert.Equal(t, in, got, "code %05d", code)
		assert.Equal(t, got, ClassifyTests(tt))
	}

	assert.Len(t, seen, 32)
}

func TestGT0(t *testing.T) {
	for _, tt := range allTests() {
		c := ClassifyTests(tt)
		assert.Equal(t, c != NoWater, GT0(c), "code %05d", tt.Code())
		assert.Equal(t, c == HighConfidence, IsHigh(c))
		assert.Equal(t, c == PartialWetland, IsWetland(c))
	}
}

func TestWorkedExamples(t *testing.T) {
	tests := []struct {
		name     string
		tests    Tests
		wantCode int
		want     Class
	}{
		{"all true", Tests{true, true, true, true, true}, 11111, HighConfidence},
		{"t3 t4 t5", Tests{false, false, true, true, true}, 11100, ModerateConfidence},
		{"none", Tests{}, 0, NoWater},
		{"only t5", Tests{false, false, false, false, true}, 10000, LowConfidence},
		{"t4 t5", Tests{false, false, false, true, true}, 11000, PartialWetland},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, tt.tests.Code())
			assert.Equal(t, tt.want, ClassifyTests(tt.tests))
		})
	}
}

func TestClassOfUnlisted(t *testing.T) {
	_, ok := ClassOf(2)
	assert.False(t, ok)
	assert.Equal(t, NoWater, ClassifyTests(Tests{}))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		px   map[model.Band]float64
		want Class
	}{
		{
			"clear water",
			map[model.Band]float64{model.Blue: 0.04, model.Green: 0.06, model.Red: 0.03, model.Nir: 0.02, model.Swir1: 0.01, model.Swir2: 0.005},
			HighConfidence,
		},
		{
			"vegetation",
			map[model.Band]float64{model.Blue: 0.03, model.Green: 0.06, model.Red: 0.04, model.Nir: 0.35, model.Swir1: 0.2, model.Swir2: 0.1},
			NoWater,
		},
		{
			"all zero",
			map[model.Band]float64{model.Blue: 0, model.Green: 0, model.Red: 0, model.Nir: 0, model.Swir1: 0, model.Swir2: 0},
			NoWater,
		},
		{
			"nan bands",
			map[model.Band]float64{model.Blue: math.NaN(), model.Green: math.NaN(), model.Red: math.NaN(), model.Nir: math.NaN(), model.Swir1: math.NaN(), model.Swir2: math.NaN()},
			NoWater,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.px))
		})
	}
}

func TestZeroDenominatorFailsRatioTests(t *testing.T) {
	// green + swir1 == 0 leaves MNDWI undefined, so t1, t4 and t5 must fail
	px := map[model.Band]float64{model.Blue: 0.05, model.Green: 0, model.Red: 0.01, model.Nir: 0.01, model.Swir1: 0, model.Swir2: 0.01}

	got := Evaluate(px)
	assert.False(t, got[0])
	assert.False(t, got[3])
	assert.False(t, got[4])
}

func TestAlgal(t *testing.T) {
	tests := []struct {
		name  string
		class Class
		green float64
		red   float64
		want  bool
	}{
		{"high confidence is never algal", HighConfidence, 0.06, 0.03, false},
		{"moderate", ModerateConfidence, 0.06, 0.03, true},
		{"dim green", ModerateConfidence, 0.04, 0.03, false},
		{"bright red", LowConfidence, 0.06, 0.04, false},
		{"wetland", PartialWetland, 0.051, 0.039, true},
		{"no water", NoWater, 0.06, 0.03, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			px := map[model.Band]float64{model.Green: tt.green, model.Red: tt.red}
			got := Algal(tt.class, px)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.class == HighConfidence || got, DSWE1a(tt.class, got))
		})
	}
}

func TestClassString(t *testing.T) {
	assert.Equal(t, "high confidence water", HighConfidence.String())
	assert.Equal(t, "unknown", Class(9).String())
}
