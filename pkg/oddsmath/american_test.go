package oddsmath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmericanToDecimal(t *testing.T) {
	tests := []struct {
		american int
		expected float64
	}{
		{150, 2.50},
		{-200, 1.50},
		{100, 2.00},
		{-100, 2.00},
		{-110, 1.9091},
		{250, 3.50},
		{-10000, 1.01},
	}

	for _, tt := range tests {
		got, err := AmericanToDecimal(tt.american)
		require.NoError(t, err, "american %d", tt.american)
		assert.InDelta(t, tt.expected, got, 0.00001, "AmericanToDecimal(%d)", tt.american)
	}
}

func TestAmericanToDecimal_Invalid(t *testing.T) {
	for _, american := range []int{0, 50, -99} {
		_, err := AmericanToDecimal(american)
		assert.Error(t, err, "american %d", american)
	}
}

func TestDecimalToAmerican(t *testing.T) {
	tests := []struct {
		dec      float64
		expected int
	}{
		{2.50, 150},
		{1.50, -200},
		{2.00, 100},
	}

	for _, tt := range tests {
		got, err := DecimalToAmerican(tt.dec)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, got, "DecimalToAmerican(%v)", tt.dec)
	}

	_, err := DecimalToAmerican(1.0)
	assert.Error(t, err)
}

func TestParseAmerican(t *testing.T) {
	tests := []struct {
		in       string
		expected int
		wantErr  bool
	}{
		{"+150", 150, false},
		{"-110", -110, false},
		{"150", 150, false},
		{"EVEN", 100, false},
		{"−120", -120, false},
		{"150.0", 150, false},
		{"", 0, true},
		{"abc", 0, true},
		{"1.5x", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmerican(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFractionalToDecimal(t *testing.T) {
	got, err := FractionalToDecimal("5/2")
	require.NoError(t, err)
	assert.InDelta(t, 3.5, got, 0.00001)

	got, err = FractionalToDecimal("1/1")
	require.NoError(t, err)
	assert.InDelta(t, 2.0, got, 0.00001)

	for _, bad := range []string{"5", "5/0", "x/2", "-1/2"} {
		_, err := FractionalToDecimal(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseDecimal(t *testing.T) {
	got, err := ParseDecimal(" 2.50 ")
	require.NoError(t, err)
	assert.Equal(t, 2.5, got)

	_, err = ParseDecimal("n/a")
	assert.Error(t, err)

	_, err = ParseDecimal("-1.5")
	assert.Error(t, err)
}

func TestImpliedProbability(t *testing.T) {
	p, err := AmericanToImpliedProbability(100)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, p, 0.0001)

	_, err = DecimalToImpliedProbability(0)
	assert.Error(t, err)
}
