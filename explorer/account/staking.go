package account

import (
	"context"
	"time"

	"github.com/Cogwheel-Validator/spectra-explorer/explorer/amount"
	"github.com/Cogwheel-Validator/spectra-explorer/explorer/gather"
	"github.com/Cogwheel-Validator/spectra-explorer/explorer/lcd"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Staking view sections, also used in StakingView.Degraded.
const (
	SectionDelegations   = "delegations"
	SectionUnbonding     = "unbonding"
	SectionRedelegations = "redelegations"
)

type UnbondingEntry struct {
	Validator      string    `json:"validator"`
	Moniker        string    `json:"moniker"`
	CreationHeight string    `json:"creation_height"`
	CompletionTime time.Time `json:"completion_time"`
	Balance        Amount    `json:"balance"`
}

type RedelegationEntry struct {
	Source         string    `json:"source"`
	SourceMoniker  string    `json:"source_moniker"`
	Destination    string    `json:"destination"`
	DestMoniker    string    `json:"destination_moniker"`
	CreationHeight string    `json:"creation_height"`
	CompletionTime time.Time `json:"completion_time"`
	Balance        Amount    `json:"balance"`
}

// StakingView lists every staking position of an account.
type StakingView struct {
	Address       string              `json:"address"`
	Delegations   []Delegation        `json:"delegations"`
	Unbonding     []UnbondingEntry    `json:"unbonding"`
	Redelegations []RedelegationEntry `json:"redelegations"`
	Degraded      []string            `json:"degraded"`
}

// Staking returns delegations, unbonding entries and redelegations of addr
// with monikers resolved. Like Account it degrades instead of failing.
func (a *Aggregator) Staking(ctx context.Context, addr string) *StakingView {
	view := &StakingView{
		Address:       addr,
		Delegations:   []Delegation{},
		Unbonding:     []UnbondingEntry{},
		Redelegations: []RedelegationEntry{},
		Degraded:      []string{},
	}
	if addr == "" {
		return view
	}

	ctx, span := a.tracer.Start(ctx, "Aggregator.Staking")
	defer span.End()

	// one snapshot for all three sections
	monikers := a.monikerMap(ctx)

	var (
		unbonding []lcd.UnbondingDelegation
		redels    []lcd.RedelegationResponse
	)
	sections := []string{SectionDelegations, SectionUnbonding, SectionRedelegations}
	results := gather.Settle[struct{}](ctx,
		func(ctx context.Context) (struct{}, error) {
			resp, err := a.lcd.Delegations(ctx, addr)
			for _, d := range resp {
				raw := a.native(d.Balance)
				view.Delegations = append(view.Delegations, Delegation{
					Validator: d.Delegation.ValidatorAddress,
					Moniker:   monikers.Name(d.Delegation.ValidatorAddress),
					Shares:    amount.MustParseOrZero(d.Delegation.Shares),
					Amount:    a.amount(raw),
				})
			}
			return struct{}{}, err
		},
		func(ctx context.Context) (struct{}, error) {
			var err error
			unbonding, err = a.lcd.UnbondingDelegations(ctx, addr)
			return struct{}{}, err
		},
		func(ctx context.Context) (struct{}, error) {
			var err error
			redels, err = a.lcd.Redelegations(ctx, addr)
			return struct{}{}, err
		},
	)
	for i, r := range results {
		if !r.OK() {
			log.Warn().Err(r.Err).Str("address", addr).Str("section", sections[i]).Msg("Staking sub-fetch failed")
			a.fallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("bucket", sections[i])))
			view.Degraded = append(view.Degraded, sections[i])
		}
	}

	for _, u := range unbonding {
		for _, e := range u.Entries {
			view.Unbonding = append(view.Unbonding, UnbondingEntry{
				Validator:      u.ValidatorAddress,
				Moniker:        monikers.Name(u.ValidatorAddress),
				CreationHeight: e.CreationHeight,
				CompletionTime: e.CompletionTime,
				Balance:        a.amount(amount.MustParseOrZero(e.Balance)),
			})
		}
	}
	for _, r := range redels {
		src, dst := r.Redelegation.ValidatorSrcAddress, r.Redelegation.ValidatorDstAddress
		for _, e := range r.Entries {
			view.Redelegations = append(view.Redelegations, RedelegationEntry{
				Source:         src,
				SourceMoniker:  monikers.Name(src),
				Destination:    dst,
				DestMoniker:    monikers.Name(dst),
				CreationHeight: e.RedelegationEntry.CreationHeight,
				CompletionTime: e.RedelegationEntry.CompletionTime,
				Balance:        a.amount(amount.MustParseOrZero(e.Balance)),
			})
		}
	}
	return view
}
