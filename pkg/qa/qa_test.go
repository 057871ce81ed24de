package qa

import (
	"testing"

	"github.com/project-spencer/dswe/pkg/model"
	"github.com/stretchr/testify/assert"
)

func TestExtractBits(t *testing.T) {
	assert.Equal(t, uint16(0b11), ExtractBits(0b1100_0000, 6, 8))
	assert.Equal(t, uint16(0b10), ExtractBits(0b1000_0000, 6, 8))
	assert.Equal(t, uint16(0b01), ExtractBits(0b0100_0000, 6, 8))
	// bits at and above end are dropped
	assert.Equal(t, uint16(0b01), ExtractBits(0b1_0100_0000, 6, 8))
	assert.Equal(t, uint16(0xffff), ExtractBits(0xffff, 0, 16))
}

func TestCloudCode(t *testing.T) {
	tests := []struct {
		name string
		qa   uint16
		want int
	}{
		{"clear", 21824, Clear},
		{"fill bit only", 1, Clear},
		{"dilated", 1 << 1, DilatedCloud},
		{"cloud", 1 << 3, Cloud},
		{"shadow", 1 << 4, CloudShadow},
		{"snow", 1 << 5, Snow},
		{"cloud over dilated", 1<<1 | 1<<3, Cloud},
		{"shadow over cloud", 1<<3 | 1<<4, CloudShadow},
		{"snow wins", 1<<1 | 1<<3 | 1<<4 | 1<<5, Snow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CloudCode(tt.qa))
			assert.Equal(t, tt.want >= DilatedCloud, Contaminated(tt.qa))
		})
	}
}

func TestRadsatOK(t *testing.T) {
	assert.True(t, RadsatOK(0))
	assert.False(t, RadsatOK(1))
	assert.False(t, RadsatOK(1<<11))
}

func TestMedHighAerosol(t *testing.T) {
	tests := []struct {
		qa   uint16
		want bool
	}{
		{0, false},
		{1 << 6, false},
		{0b0011_1111, false},
		{1 << 7, true},
		{1<<7 | 1<<6, true},
		{0xff, true},
		{1<<7 | 1<<1 | 1<<5, true},
		{224, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MedHighAerosol(tt.qa), "qa %08b", tt.qa)
		assert.Equal(t, !tt.want, AerosolOK(tt.qa), "qa %08b", tt.qa)
	}

	assert.Equal(t, uint16(3), AerosolLevel(0xc2))
	assert.Equal(t, uint16(1), AerosolLevel(0x42))
}

func TestOpacityOK(t *testing.T) {
	assert.True(t, OpacityOK(0))
	assert.True(t, OpacityOK(299))
	assert.False(t, OpacityOK(300))
	assert.False(t, OpacityOK(1500))
}

func bands(v float64) map[model.Band]float64 {
	px := make(map[model.Band]float64)
	for _, b := range model.Optical() {
		px[b] = v
	}
	return px
}

func TestGlint(t *testing.T) {
	px := bands(0.05)
	assert.True(t, NoGlint(px))
	assert.False(t, IRGlint(px))

	px[model.Red] = 0.2
	assert.False(t, NoGlint(px))

	px = bands(0.15)
	assert.True(t, NoGlint(px))
	assert.True(t, IRGlint(px))

	px[model.Swir2] = 0.099
	assert.False(t, IRGlint(px))
}

func TestRealistic(t *testing.T) {
	px := bands(0.01)
	assert.True(t, Realistic(px))

	px[model.Nir] = -0.01
	assert.True(t, Realistic(px))

	px[model.Nir] = -0.0101
	assert.False(t, Realistic(px))

	// aerosol is not part of the realism set
	px = bands(0.01)
	px[model.Aerosol] = -0.5
	assert.True(t, Realistic(px))
}

func TestFlagsClear(t *testing.T) {
	tests := []struct {
		name   string
		sensor model.Sensor
		qa     map[model.Band]float64
		shadow int
		want   bool
	}{
		{"modern clear", model.Modern, map[model.Band]float64{model.PixelQA: 21824, model.AerosolQA: 0x42}, 1, true},
		{"modern high aerosol", model.Modern, map[model.Band]float64{model.PixelQA: 21824, model.AerosolQA: 0xc2}, 1, false},
		{"modern cloud", model.Modern, map[model.Band]float64{model.PixelQA: 1 << 3}, 1, false},
		{"modern shadowed", model.Modern, map[model.Band]float64{model.PixelQA: 21824}, 0, false},
		{"modern saturated", model.Modern, map[model.Band]float64{model.PixelQA: 21824, model.RadsatQA: 4}, 1, false},
		{"legacy clear", model.Legacy, map[model.Band]float64{model.PixelQA: 5440, model.OpacityQA: 120}, 1, true},
		{"legacy opaque", model.Legacy, map[model.Band]float64{model.PixelQA: 5440, model.OpacityQA: 450}, 1, false},
		// aerosol QA is ignored for legacy sensors
		{"legacy ignores aerosol", model.Legacy, map[model.Band]float64{model.PixelQA: 5440, model.AerosolQA: 0xff, model.OpacityQA: 10}, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			px := bands(0.05)
			for b, v := range tt.qa {
				px[b] = v
			}

			f := Decode(tt.sensor, px)
			f.HillShadow = tt.shadow

			assert.Equal(t, tt.want, f.Clear(tt.sensor))
		})
	}
}

func TestCloudFraction(t *testing.T) {
	r := model.NewRaster(2, 2)
	r.Pix = []float64{21824, 1 << 3, 1 << 5, 0}
	assert.InDelta(t, 0.5, CloudFraction(r), 1e-12)

	assert.Equal(t, 0.0, CloudFraction(model.NewRaster(0, 0)))
}
