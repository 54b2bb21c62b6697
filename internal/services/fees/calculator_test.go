package fees

import (
	"math"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculator_Conversion(t *testing.T) {
	c := NewCalculator()

	tests := []struct {
		name    string
		gbp     float64
		rate    float64
		want    float64
		wantErr error
	}{
		{name: "whole amounts", gbp: 100, rate: 1.25, want: 125.00},
		{name: "fractional pennies round", gbp: 10.01, rate: 1.245, want: 12.46},
		{name: "zero amount", gbp: 0, rate: 1.25, want: 0},
		{name: "negative amount", gbp: -1, rate: 1.25, wantErr: ErrInvalidAmount},
		{name: "nan amount", gbp: math.NaN(), rate: 1.25, wantErr: ErrInvalidAmount},
		{name: "zero rate", gbp: 100, rate: 0, wantErr: ErrInvalidRate},
		{name: "negative rate", gbp: 100, rate: -1.25, wantErr: ErrInvalidRate},
		{name: "infinite rate", gbp: 100, rate: math.Inf(1), wantErr: ErrInvalidRate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Conversion(tt.gbp, tt.rate)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalculator_ConversionMonotonic(t *testing.T) {
	c := NewCalculator()
	rate := 1.27

	prev := 0.0
	for gbp := 10.0; gbp <= 1000.0; gbp += 10.0 {
		got, err := c.Conversion(gbp, rate)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got, prev, "conversion must not decrease as the amount grows")
		prev = got
	}
}

func TestCalculator_Fees(t *testing.T) {
	c := NewCalculator()

	tests := []struct {
		name         string
		gbp          float64
		bridgePayFee float64
		networkFee   float64
		totalFees    float64
	}{
		{name: "round hundred", gbp: 100, bridgePayFee: 2.50, networkFee: 1.00, totalFees: 3.50},
		{name: "minimum amount", gbp: 10, bridgePayFee: 0.25, networkFee: 1.00, totalFees: 1.25},
		{name: "odd pennies", gbp: 33.33, bridgePayFee: 0.83, networkFee: 1.00, totalFees: 1.83},
		{name: "maximum amount", gbp: 10000, bridgePayFee: 250.00, networkFee: 1.00, totalFees: 251.00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Fees(tt.gbp)
			require.NoError(t, err)
			assert.Equal(t, tt.bridgePayFee, got.BridgePayFee)
			assert.Equal(t, tt.networkFee, got.NetworkFee)
			assert.Equal(t, tt.totalFees, got.TotalFees)
		})
	}

	t.Run("negative amount", func(t *testing.T) {
		_, err := c.Fees(-5)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})
}

func TestCalculator_FeesSumExactly(t *testing.T) {
	c := NewCalculator()

	// The stored total must equal the sum of the rounded parts, not the
	// rounded sum of the raw parts.
	for gbp := 10.0; gbp <= 500.0; gbp += 0.37 {
		b, err := c.Fees(gbp)
		require.NoError(t, err)
		assert.Equal(t, Round2(b.BridgePayFee+b.NetworkFee), b.TotalFees, "gbp=%f", gbp)
	}
}

func TestCalculator_Quote(t *testing.T) {
	c := NewCalculator()

	t.Run("gbp side fills usdt", func(t *testing.T) {
		q, err := c.Quote(100, SideGBP, 1.25)
		require.NoError(t, err)
		assert.Equal(t, 100.00, q.GBPAmount)
		assert.Equal(t, 125.00, q.USDTAmount)
		assert.Equal(t, SideGBP, q.Edited)
	})

	t.Run("usdt side fills gbp", func(t *testing.T) {
		q, err := c.Quote(125, SideUSDT, 1.25)
		require.NoError(t, err)
		assert.Equal(t, 100.00, q.GBPAmount)
		assert.Equal(t, 125.00, q.USDTAmount)
		assert.Equal(t, SideUSDT, q.Edited)
	})

	t.Run("unknown side", func(t *testing.T) {
		_, err := c.Quote(100, QuoteSide("eur"), 1.25)
		assert.Error(t, err)
	})
}

func TestCalculator_SwapRoundTrip(t *testing.T) {
	c := NewCalculator()

	rates := []float64{0.79, 1.0, 1.25, 1.2689}
	amounts := []float64{10, 33.33, 100, 9999.99}

	for _, rate := range rates {
		for _, amount := range amounts {
			q, err := c.Quote(amount, SideGBP, rate)
			require.NoError(t, err)

			swapped, err := c.Swap(q)
			require.NoError(t, err)
			assert.Equal(t, SideUSDT, swapped.Edited)

			back, err := c.Swap(swapped)
			require.NoError(t, err)

			// Two swaps return to the original amounts within a penny.
			assert.InDelta(t, q.GBPAmount, back.GBPAmount, 0.01, "rate=%f amount=%f", rate, amount)
			assert.InDelta(t, q.USDTAmount, back.USDTAmount, 0.01, "rate=%f amount=%f", rate, amount)
		}
	}
}

func TestGeneratePaymentReference(t *testing.T) {
	refPattern := regexp.MustCompile(`^REF-[A-Z0-9]{8}$`)

	seen := make(map[string]bool, 10000)
	charCounts := make(map[byte]int, len(referenceChars))
	for i := 0; i < 10000; i++ {
		ref, err := GeneratePaymentReference()
		require.NoError(t, err)
		assert.Regexp(t, refPattern, ref)
		assert.False(t, seen[ref], "duplicate reference %s after %d draws", ref, i)
		seen[ref] = true
		for j := len(ReferencePrefix); j < len(ref); j++ {
			charCounts[ref[j]]++
		}
	}

	// 80000 drawn characters over a 36-symbol alphabet: every symbol must
	// appear, and none wildly more often than the expected 1/36.
	expected := float64(10000*8) / float64(len(referenceChars))
	for i := 0; i < len(referenceChars); i++ {
		ch := referenceChars[i]
		count := charCounts[ch]
		assert.Greater(t, count, 0, "character %c never drawn", ch)
		assert.InDelta(t, expected, float64(count), expected*0.2, "character %c frequency skewed", ch)
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.23, Round2(1.234))
	assert.Equal(t, 1.24, Round2(1.236))
	assert.Equal(t, 0.0, Round2(0.004))
	assert.Equal(t, -1.23, Round2(-1.234))
}
