package rpc

import (
	"context"
	"errors"

	"github.com/Cogwheel-Validator/spectra-explorer/explorer/account"
	"github.com/Cogwheel-Validator/spectra-explorer/explorer/config"
	"github.com/Cogwheel-Validator/spectra-explorer/explorer/evm"
	"github.com/Cogwheel-Validator/spectra-explorer/explorer/lcd"
	"github.com/go-chi/chi/v5"
)

// ChainReader is the part of the LCD client used by the explorer routes.
type ChainReader interface {
	NodeInfo(ctx context.Context) (*lcd.NodeInfoResponse, error)
	LatestBlock(ctx context.Context) (*lcd.BlockResponse, error)
	Block(ctx context.Context, height int64) (*lcd.BlockResponse, error)
	Tx(ctx context.Context, hash string) (*lcd.TxResponse, error)
	SearchTxs(ctx context.Context, s lcd.TxSearch) (*lcd.TxSearchResponse, error)
	Validator(ctx context.Context, operator string) (*lcd.Validator, error)
	StakingPool(ctx context.Context) (*lcd.Pool, error)
	SupplyOf(ctx context.Context, denom string) (lcd.Coin, error)
	SlashingParams(ctx context.Context) (*lcd.SlashingParams, error)
	SigningInfo(ctx context.Context, consAddress string) (*lcd.SigningInfo, error)
	Proposals(ctx context.Context, pq lcd.ProposalQuery) (*lcd.ProposalsResponse, error)
	Proposal(ctx context.Context, id uint64) (*lcd.Proposal, error)
	Tally(ctx context.Context, id uint64) (*lcd.TallyResult, error)
}

var _ ChainReader = (*lcd.Client)(nil)

// Deps are the collaborators of the API.
type Deps struct {
	LCD        ChainReader
	Profile    config.ChainProfile
	Resolver   *account.Resolver
	Aggregator *account.Aggregator
	Monikers   *account.MonikerLookup
	// Classifier is nil when no EVM endpoint is configured
	Classifier *evm.Classifier
	// PublicEVMRPC is announced to wallets in the Keplr payload
	PublicEVMRPC string
}

// API serves the explorer routes.
type API struct {
	lcd          ChainReader
	profile      config.ChainProfile
	resolver     *account.Resolver
	aggregator   *account.Aggregator
	monikers     *account.MonikerLookup
	classifier   *evm.Classifier
	publicEVMRPC string
}

func NewAPI(d Deps) (*API, error) {
	if d.LCD == nil || d.Resolver == nil || d.Aggregator == nil || d.Monikers == nil {
		return nil, errors.New("api needs an LCD client, resolver, aggregator and moniker lookup")
	}
	return &API{
		lcd:          d.LCD,
		profile:      d.Profile,
		resolver:     d.Resolver,
		aggregator:   d.Aggregator,
		monikers:     d.Monikers,
		classifier:   d.Classifier,
		publicEVMRPC: d.PublicEVMRPC,
	}, nil
}

// Routes registers every explorer route on r.
func (a *API) Routes(r chi.Router) {
	r.Get("/address/{address}", a.handleAddress)

	r.Get("/accounts/{address}", a.handleAccount)
	r.Get("/accounts/{address}/staking", a.handleAccountStaking)
	r.Get("/accounts/{address}/txs", a.handleAccountTxs)

	r.Get("/validators", a.handleValidators)
	r.Get("/validators/{operator}", a.handleValidator)

	r.Get("/blocks/latest", a.handleLatestBlock)
	r.Get("/blocks/{height}", a.handleBlock)
	r.Get("/txs/{hash}", a.handleTx)

	r.Get("/proposals", a.handleProposals)
	r.Get("/proposals/{id}", a.handleProposal)
	r.Get("/proposals/{id}/tally", a.handleTally)

	r.Get("/contracts/{address}/classification", a.handleClassification)

	r.Get("/chain/status", a.handleChainStatus)
	r.Get("/chain/keplr", a.handleKeplr)
	r.Get("/chain/supply", a.handleSupply)
	r.Get("/chain/staking-pool", a.handleStakingPool)
}

// Ready probes the LCD node info endpoint.
func (a *API) Ready(ctx context.Context) error {
	_, err := a.lcd.NodeInfo(ctx)
	return err
}

func (a *API) valconsPrefix() string {
	return a.profile.Bech32Prefix + "valcons"
}

func (a *API) valoperPrefix() string {
	return a.profile.Bech32Prefix + "valoper"
}
