// Package governance turns proposal tallies into display percentages.
package governance

import (
	"github.com/Cogwheel-Validator/spectra-explorer/explorer/amount"
	"github.com/Cogwheel-Validator/spectra-explorer/explorer/lcd"
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// TallyRatios holds each vote option as a fraction of the votes cast.
type TallyRatios struct {
	Yes        decimal.Decimal `json:"yes"`
	No         decimal.Decimal `json:"no"`
	Abstain    decimal.Decimal `json:"abstain"`
	NoWithVeto decimal.Decimal `json:"no_with_veto"`
}

// TallyPercent is TallyRatios scaled to [0, 100].
type TallyPercent struct {
	Yes        decimal.Decimal `json:"yes"`
	No         decimal.Decimal `json:"no"`
	Abstain    decimal.Decimal `json:"abstain"`
	NoWithVeto decimal.Decimal `json:"no_with_veto"`
}

// PercentFromRatios multiplies every ratio by 100 and clamps it to [0, 100].
func PercentFromRatios(r TallyRatios) TallyPercent {
	return TallyPercent{
		Yes:        percent(r.Yes),
		No:         percent(r.No),
		Abstain:    percent(r.Abstain),
		NoWithVeto: percent(r.NoWithVeto),
	}
}

func percent(ratio decimal.Decimal) decimal.Decimal {
	p := ratio.Mul(hundred).Round(amount.DisplayPlaces)
	if p.GreaterThan(hundred) {
		return hundred
	}
	if p.IsNegative() {
		return decimal.Zero
	}
	return p
}

// RatiosFromCounts converts raw vote counts to ratios of their sum. A tally
// with no votes yields zero ratios.
func RatiosFromCounts(t lcd.TallyResult) TallyRatios {
	yes := amount.MustParseOrZero(t.YesCount)
	no := amount.MustParseOrZero(t.NoCount)
	abstain := amount.MustParseOrZero(t.AbstainCount)
	veto := amount.MustParseOrZero(t.NoWithVetoCount)

	total := decimal.Sum(yes, no, abstain, veto)
	if total.IsZero() {
		return TallyRatios{Yes: decimal.Zero, No: decimal.Zero, Abstain: decimal.Zero, NoWithVeto: decimal.Zero}
	}
	return TallyRatios{
		Yes:        yes.Div(total),
		No:         no.Div(total),
		Abstain:    abstain.Div(total),
		NoWithVeto: veto.Div(total),
	}
}

// Tally is a proposal tally in raw counts and percentages.
type Tally struct {
	Counts  lcd.TallyResult `json:"counts"`
	Total   decimal.Decimal `json:"total"`
	Percent TallyPercent    `json:"percent"`
	// Turnout is total votes over bonded tokens, when bonded is known.
	Turnout decimal.Decimal `json:"turnout"`
}

// Summarize builds a Tally. bonded may be zero when the pool is unknown.
func Summarize(t lcd.TallyResult, bonded decimal.Decimal) Tally {
	total := decimal.Sum(
		amount.MustParseOrZero(t.YesCount),
		amount.MustParseOrZero(t.NoCount),
		amount.MustParseOrZero(t.AbstainCount),
		amount.MustParseOrZero(t.NoWithVetoCount),
	)
	out := Tally{
		Counts:  t,
		Total:   total,
		Percent: PercentFromRatios(RatiosFromCounts(t)),
		Turnout: decimal.Zero,
	}
	if bonded.IsPositive() {
		out.Turnout = percent(decimal.Min(total.Div(bonded), one))
	}
	return out
}
