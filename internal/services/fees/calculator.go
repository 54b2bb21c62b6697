// Package fees implements the pure conversion and fee arithmetic for
// GBP to USDT requests, plus payment reference generation. Nothing in
// this package touches the database.
package fees

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math"
)

// Defaults applied when no override is configured.
const (
	DefaultFeePercent = 0.025 // 2.5% BridgePay fee
	DefaultNetworkFee = 1.00  // flat GBP network fee

	ReferencePrefix = "REF-"
	referenceLength = 8
	referenceChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var (
	ErrInvalidAmount = errors.New("amount must be a non-negative finite number")
	ErrInvalidRate   = errors.New("exchange rate must be a positive finite number")
)

// QuoteSide marks which amount field the user last edited.
type QuoteSide string

const (
	SideGBP  QuoteSide = "gbp"
	SideUSDT QuoteSide = "usdt"
)

// Breakdown is the fee split for one transaction, all amounts in GBP.
type Breakdown struct {
	BridgePayFee float64 `json:"bridgepay_fee"`
	NetworkFee   float64 `json:"network_fee"`
	TotalFees    float64 `json:"total_fees"`
}

// Quote is a bidirectional amount pair at a frozen rate.
type Quote struct {
	GBPAmount  float64   `json:"gbp_amount"`
	USDTAmount float64   `json:"usdt_amount"`
	Rate       float64   `json:"rate"`
	Edited     QuoteSide `json:"edited"`
}

// Calculator computes conversions and fee breakdowns with configured rates.
type Calculator struct {
	FeePercent float64
	NetworkFee float64
}

// NewCalculator returns a calculator with the default fee schedule.
func NewCalculator() *Calculator {
	return &Calculator{
		FeePercent: DefaultFeePercent,
		NetworkFee: DefaultNetworkFee,
	}
}

// Round2 rounds to two decimal places, the precision of every stored amount.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func validAmount(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func validRate(r float64) bool {
	return r > 0 && !math.IsInf(r, 0) && !math.IsNaN(r)
}

// Conversion returns round(gbp * rate, 2), the USDT amount bought by
// gbp at the given rate.
func (c *Calculator) Conversion(gbpAmount, rate float64) (float64, error) {
	if !validAmount(gbpAmount) {
		return 0, ErrInvalidAmount
	}
	if !validRate(rate) {
		return 0, ErrInvalidRate
	}
	return Round2(gbpAmount * rate), nil
}

// Fees returns the fee breakdown for a GBP amount. The total is computed
// from the two rounded parts so total == bridgepay + network holds exactly.
func (c *Calculator) Fees(gbpAmount float64) (Breakdown, error) {
	if !validAmount(gbpAmount) {
		return Breakdown{}, ErrInvalidAmount
	}
	bridgePayFee := Round2(gbpAmount * c.FeePercent)
	networkFee := Round2(c.NetworkFee)
	return Breakdown{
		BridgePayFee: bridgePayFee,
		NetworkFee:   networkFee,
		TotalFees:    Round2(bridgePayFee + networkFee),
	}, nil
}

// Quote fills in the side of the amount pair the user did not edit.
func (c *Calculator) Quote(amount float64, edited QuoteSide, rate float64) (Quote, error) {
	if !validAmount(amount) {
		return Quote{}, ErrInvalidAmount
	}
	if !validRate(rate) {
		return Quote{}, ErrInvalidRate
	}

	q := Quote{Rate: rate, Edited: edited}
	switch edited {
	case SideGBP:
		q.GBPAmount = Round2(amount)
		q.USDTAmount = Round2(amount * rate)
	case SideUSDT:
		q.USDTAmount = Round2(amount)
		q.GBPAmount = Round2(amount / rate)
	default:
		return Quote{}, fmt.Errorf("unknown quote side %q", edited)
	}
	return q, nil
}

// Swap flips the edited side of a quote, recomputing the derived amount at
// the same rate. Swapping twice returns the original quote up to rounding.
func (c *Calculator) Swap(q Quote) (Quote, error) {
	switch q.Edited {
	case SideGBP:
		return c.Quote(q.USDTAmount, SideUSDT, q.Rate)
	case SideUSDT:
		return c.Quote(q.GBPAmount, SideGBP, q.Rate)
	}
	return Quote{}, fmt.Errorf("unknown quote side %q", q.Edited)
}

// GeneratePaymentReference returns a fresh "REF-" + 8 uppercase
// alphanumeric code. References are random; the transactions table
// carries a unique index, and creation retries on collision.
func GeneratePaymentReference() (string, error) {
	// Rejection sampling keeps the alphabet uniform: bytes at or above
	// the largest multiple of len(referenceChars) are discarded.
	limit := byte(256 - 256%len(referenceChars))

	out := make([]byte, 0, referenceLength)
	buf := make([]byte, 2*referenceLength)
	for len(out) < referenceLength {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, referenceChars[int(b)%len(referenceChars)])
			if len(out) == referenceLength {
				break
			}
		}
	}
	return ReferencePrefix + string(out), nil
}
