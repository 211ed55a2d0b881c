package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToTiyin(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"0", 0},
		{"150000", 15_000_000},
		{"150000.5", 15_000_050},
		{"150000.55", 15_000_055},
		{"0.01", 1},
	}
	for _, c := range cases {
		got, err := ToTiyin(decimal.RequireFromString(c.in))
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}

	_, err := ToTiyin(decimal.RequireFromString("100.005"))
	require.Error(t, err, "sub-tiyin precision")
}

func TestParseSums(t *testing.T) {
	d, err := ParseSums("2500000.50")
	require.NoError(t, err)
	assert.Equal(t, "2500000.5", d.String())

	_, err = ParseSums("-1")
	assert.Error(t, err)

	_, err = ParseSums("not-a-number")
	assert.Error(t, err)
}

func TestFromTiyinRoundtrip(t *testing.T) {
	for _, tiyin := range []int64{0, 1, 99, 100, 15_000_055} {
		sums := FromTiyin(tiyin)
		back, err := ToTiyin(sums)
		require.NoError(t, err)
		assert.Equal(t, tiyin, back)
	}
}
