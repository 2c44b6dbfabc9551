// Package account resolves addresses and builds the aggregated account views
// served by the explorer API.
package account

import (
	"context"
	"os"
	"time"

	"github.com/Cogwheel-Validator/spectra-explorer/explorer/config"
	"github.com/Cogwheel-Validator/spectra-explorer/explorer/lcd"
	"github.com/rs/zerolog"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "account").Logger()
}

// SetLogger allows setting a custom logger
func SetLogger(l zerolog.Logger) {
	log = l.With().Str("component", "account").Logger()
}

// Chain describes the native token and address prefixes of the served chain.
type Chain struct {
	Bech32Prefix string
	BaseDenom    string
	DisplayDenom string
	Decimals     int32
	// AssociationPath is the LCD route template used to look up the bech32
	// account of an EVM address. Must contain "{address}".
	AssociationPath string
}

// ChainFromProfile takes the address and denom settings of a chain profile.
func ChainFromProfile(p config.ChainProfile) Chain {
	return Chain{
		Bech32Prefix:    p.Bech32Prefix,
		BaseDenom:       p.BaseDenom,
		DisplayDenom:    p.DisplayDenom,
		Decimals:        p.Decimals,
		AssociationPath: p.AssociationPath,
	}
}

// ValoperPrefix is the operator address prefix, e.g. kiivaloper.
func (c Chain) ValoperPrefix() string {
	return c.Bech32Prefix + "valoper"
}

// LCD is the subset of the LCD client used by this package.
type LCD interface {
	Balances(ctx context.Context, address string) ([]lcd.Coin, error)
	Delegations(ctx context.Context, delegator string) ([]lcd.DelegationResponse, error)
	UnbondingDelegations(ctx context.Context, delegator string) ([]lcd.UnbondingDelegation, error)
	Redelegations(ctx context.Context, delegator string) ([]lcd.RedelegationResponse, error)
	Rewards(ctx context.Context, delegator string) (*lcd.RewardsResponse, error)
	WithdrawAddress(ctx context.Context, delegator string) (string, error)
	SearchTxs(ctx context.Context, s lcd.TxSearch) (*lcd.TxSearchResponse, error)
	Validators(ctx context.Context, status string) ([]lcd.Validator, error)
	DenomTrace(ctx context.Context, denom string) (*lcd.DenomTrace, error)
	CosmosAccount(ctx context.Context, pathTemplate, evmAddress string) (string, error)
}

var _ LCD = (*lcd.Client)(nil)
