// Package amount turns on-chain fixed point amounts into display values.
// Raw amounts are never modified; every display value is a derived copy.
package amount

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Cogwheel-Validator/spectra-explorer/explorer/lcd"
	"github.com/shopspring/decimal"
)

// DisplayPlaces is the number of decimals shown for display amounts.
const DisplayPlaces = 2

var hundred = decimal.NewFromInt(100)

// Parse reads an integer or Dec string as returned by the LCD. An empty string
// is zero.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// MustParseOrZero is Parse that maps bad input to zero.
func MustParseOrZero(s string) decimal.Decimal {
	d, err := Parse(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ToDisplay scales raw down by 10^decimals.
func ToDisplay(raw decimal.Decimal, decimals int32) decimal.Decimal {
	return raw.Shift(-decimals)
}

// Display renders raw in display units with two decimal places,
// e.g. 5000000 with 6 decimals is "5.00".
func Display(raw decimal.Decimal, decimals int32) string {
	return ToDisplay(raw, decimals).StringFixed(DisplayPlaces)
}

// Percentages expresses each bucket as bucket / sum * 100, rounded to two
// places. A zero sum yields zero for every bucket.
func Percentages(buckets ...decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, len(buckets))
	sum := decimal.Sum(decimal.Zero, buckets...)
	if sum.IsZero() {
		for i := range out {
			out[i] = decimal.Zero
		}
		return out
	}
	for i, b := range buckets {
		out[i] = b.Div(sum).Mul(hundred).Round(DisplayPlaces)
	}
	return out
}

// SumDenom adds up every coin of the given denom. Unparsable amounts count as
// zero.
func SumDenom(coins []lcd.Coin, denom string) decimal.Decimal {
	total := decimal.Zero
	for _, c := range coins {
		if c.Denom != denom {
			continue
		}
		total = total.Add(MustParseOrZero(c.Amount))
	}
	return total
}

// SumDecDenom is SumDenom for decimal coins.
func SumDecDenom(coins []lcd.DecCoin, denom string) decimal.Decimal {
	total := decimal.Zero
	for _, c := range coins {
		if c.Denom != denom {
			continue
		}
		total = total.Add(MustParseOrZero(c.Amount))
	}
	return total
}

var coinPattern = regexp.MustCompile(`^([0-9]+(?:\.[0-9]+)?)([a-zA-Z][a-zA-Z0-9/:._-]{1,127})$`)

// ParseCoins parses an event coin list such as "12ukii,3ibc/AB12".
func ParseCoins(s string) ([]lcd.Coin, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	coins := make([]lcd.Coin, 0, len(parts))
	for _, p := range parts {
		m := coinPattern.FindStringSubmatch(strings.TrimSpace(p))
		if m == nil {
			return nil, fmt.Errorf("invalid coin %q", p)
		}
		coins = append(coins, lcd.Coin{Amount: m[1], Denom: m[2]})
	}
	return coins, nil
}
