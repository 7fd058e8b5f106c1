package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFloat(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *float64
	}{
		{"Plain integer", "250000", floatPtr(250000)},
		{"Plain decimal", "50.85", floatPtr(50.85)},
		{"Negative decimal", "-4.5", floatPtr(-4.5)},
		{"Decimal comma", "8,25", floatPtr(8.25)},
		{"Single decimal digit", "12,5", floatPtr(12.5)},
		{"Thousands comma", "250,000", floatPtr(250000)},
		{"Euro thousands comma", "€ 250,000", floatPtr(250000)},
		{"Several thousands commas", "1,250,000", floatPtr(1250000)},
		{"Thousands comma with decimals", "1,250,000.50", floatPtr(1250000.5)},
		{"Thousands dots", "1.250.000", floatPtr(1250000)},
		{"Thousands dots with decimal comma", "1.250,75", floatPtr(1250.75)},
		{"Non-breaking space", "250\u00a0000", floatPtr(250000)},
		{"Misaligned comma group", "12,3456", nil},
		{"Dot before thousands comma", "1.250,000", nil},
		{"Two decimal commas", "1,25,5", nil},
		{"Text", "on request", nil},
		{"Null marker", "NaN", nil},
		{"Empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseFloat(tt.input)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}

func TestParseInt_ThousandsSeparators(t *testing.T) {
	v := parseInt("1,250")
	require.NotNil(t, v)
	assert.Equal(t, int64(1250), *v)

	assert.Nil(t, parseInt("2,5"))
}

func floatPtr(v float64) *float64 { return &v }
