package domain

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUnits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		raw      string
		decimals uint8
		want     string
		wantErr  string
	}{
		{name: "whole", raw: "12", decimals: 6, want: "12000000"},
		{name: "fraction", raw: "12.5", decimals: 6, want: "12500000"},
		{name: "leading dot", raw: ".25", decimals: 2, want: "25"},
		{name: "full precision", raw: "0.000001", decimals: 6, want: "1"},
		{name: "zero decimals", raw: "7", decimals: 0, want: "7"},
		{name: "too precise", raw: "0.0000001", decimals: 6, wantErr: "more than 6 decimals"},
		{name: "negative", raw: "-1", decimals: 6, wantErr: "must not be negative"},
		{name: "garbage", raw: "1e6", decimals: 6, wantErr: "invalid amount"},
		{name: "signed fraction", raw: "1.+5", decimals: 6, wantErr: "invalid amount"},
		{name: "empty", raw: " ", decimals: 6, wantErr: "amount is required"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseUnits(tc.raw, tc.decimals)
			if tc.wantErr != "" {
				assert.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.String())
		})
	}
}

func TestFormatUnits(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "12.5", FormatUnits(big.NewInt(12_500_000), 6))
	assert.Equal(t, "0.000001", FormatUnits(big.NewInt(1), 6))
	assert.Equal(t, "3", FormatUnits(big.NewInt(3_000_000), 6))
	assert.Equal(t, "-0.5", FormatUnits(big.NewInt(-50), 2))
	assert.Equal(t, "42", FormatUnits(big.NewInt(42), 0))
	assert.Equal(t, "0", FormatUnits(nil, 6))
}
