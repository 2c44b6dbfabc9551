package rpc

import (
	"context"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"

	"github.com/Cogwheel-Validator/spectra-explorer/explorer/address"
	"github.com/Cogwheel-Validator/spectra-explorer/explorer/amount"
	"github.com/Cogwheel-Validator/spectra-explorer/explorer/gather"
	"github.com/Cogwheel-Validator/spectra-explorer/explorer/keplr"
	"github.com/Cogwheel-Validator/spectra-explorer/explorer/lcd"
	"github.com/Cogwheel-Validator/spectra-explorer/explorer/models"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// Degraded field names of the chain routes.
const (
	fieldNodeInfo    = "node_info"
	fieldLatestBlock = "latest_block"
	fieldVotingPower = "voting_power"
	fieldUptime      = "uptime"
	fieldTurnout     = "turnout"
	fieldBondedRatio = "bonded_ratio"
)

func (a *API) handleChainStatus(w http.ResponseWriter, r *http.Request) {
	var (
		info  *lcd.NodeInfoResponse
		block *lcd.BlockResponse
	)
	results := gather.Settle[struct{}](r.Context(),
		func(ctx context.Context) (struct{}, error) {
			var err error
			info, err = a.lcd.NodeInfo(ctx)
			return struct{}{}, err
		},
		func(ctx context.Context) (struct{}, error) {
			var err error
			block, err = a.lcd.LatestBlock(ctx)
			return struct{}{}, err
		},
	)
	if !results[0].OK() && !results[1].OK() {
		writeError(w, r, results[0].Err)
		return
	}

	out := models.ChainStatus{ChainID: a.profile.ChainID, Degraded: []string{}}
	if a.profile.EVMEnabled() {
		out.EVMChainID = strconv.FormatInt(a.profile.EVMChainID, 10)
	}
	if results[0].OK() {
		out.ChainID = info.DefaultNodeInfo.Network
		out.Moniker = info.DefaultNodeInfo.Moniker
		out.AppVersion = info.ApplicationVersion.Version
		out.CosmosSDKVersion = info.ApplicationVersion.CosmosSdkVersion
	} else {
		Logger.Warn().Err(results[0].Err).Msg("Node info unavailable")
		out.Degraded = append(out.Degraded, fieldNodeInfo)
	}
	if results[1].OK() {
		out.LatestHeight, _ = strconv.ParseInt(block.Block.Header.Height, 10, 64)
		out.LatestBlockTime = block.Block.Header.Time
	} else {
		Logger.Warn().Err(results[1].Err).Msg("Latest block unavailable")
		out.Degraded = append(out.Degraded, fieldLatestBlock)
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleKeplr(w http.ResponseWriter, r *http.Request) {
	info, err := keplr.SuggestChain(a.profile, a.publicEVMRPC)
	if err != nil {
		Logger.Error().Err(err).Msg("Failed to build Keplr chain info")
		writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (a *API) handleSupply(w http.ResponseWriter, r *http.Request) {
	coin, err := a.lcd.SupplyOf(r.Context(), a.profile.BaseDenom)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.SupplyResponse{
		Denom:        a.profile.BaseDenom,
		DisplayDenom: a.profile.DisplayDenom,
		Supply:       a.amount(amount.MustParseOrZero(coin.Amount)),
	})
}

func (a *API) handleStakingPool(w http.ResponseWriter, r *http.Request) {
	var (
		pool   *lcd.Pool
		supply lcd.Coin
	)
	results := gather.Settle[struct{}](r.Context(),
		func(ctx context.Context) (struct{}, error) {
			var err error
			pool, err = a.lcd.StakingPool(ctx)
			return struct{}{}, err
		},
		func(ctx context.Context) (struct{}, error) {
			var err error
			supply, err = a.lcd.SupplyOf(ctx, a.profile.BaseDenom)
			return struct{}{}, err
		},
	)
	if !results[0].OK() {
		writeError(w, r, results[0].Err)
		return
	}

	bonded := amount.MustParseOrZero(pool.BondedTokens)
	out := models.StakingPoolResponse{
		Bonded:    a.amount(bonded),
		NotBonded: a.amount(amount.MustParseOrZero(pool.NotBondedTokens)),
		Degraded:  []string{},
	}
	total := amount.MustParseOrZero(supply.Amount)
	if results[1].OK() && total.IsPositive() {
		ratio := bonded.Div(total).Mul(hundred).Round(2)
		out.BondedRatio = &ratio
	} else {
		if results[1].Err != nil {
			Logger.Warn().Err(results[1].Err).Msg("Supply unavailable for bonded ratio")
		}
		out.Degraded = append(out.Degraded, fieldBondedRatio)
	}
	writeJSON(w, http.StatusOK, out)
}

// proposerMonikers is best effort; blocks render without monikers when the
// validator set cannot be loaded.
func (a *API) proposerMonikers(ctx context.Context) map[string]string {
	vals, err := a.monikers.Validators(ctx)
	if err != nil {
		Logger.Warn().Err(err).Msg("Validator set unavailable, proposer monikers omitted")
		return map[string]string{}
	}
	return consensusMonikers(vals, a.valconsPrefix())
}

func (a *API) handleLatestBlock(w http.ResponseWriter, r *http.Request) {
	block, err := a.lcd.LatestBlock(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a.blockSummary(block, a.proposerMonikers(r.Context())))
}

func (a *API) handleBlock(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "height")
	height, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || height <= 0 {
		writeError(w, r, badRequest("invalid block height %q", raw))
		return
	}
	block, err := a.lcd.Block(r.Context(), height)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a.blockSummary(block, a.proposerMonikers(r.Context())))
}

func (a *API) handleTx(w http.ResponseWriter, r *http.Request) {
	hash := strings.TrimPrefix(strings.ToUpper(chi.URLParam(r, "hash")), "0X")
	if b, err := hex.DecodeString(hash); err != nil || len(b) != 32 {
		writeError(w, r, badRequest("invalid tx hash %q", chi.URLParam(r, "hash")))
		return
	}
	tx, err := a.lcd.Tx(r.Context(), hash)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txDetail(*tx))
}

func (a *API) handleValidators(w http.ResponseWriter, r *http.Request) {
	status, err := validatorStatus(r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	vals, err := a.monikers.Validators(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	bonded := bondedTotal(vals)
	out := make([]models.ValidatorSummary, 0, len(vals))
	for _, v := range vals {
		if status != "" && v.Status != status {
			continue
		}
		out = append(out, a.validatorSummary(v, bonded))
	}
	sortByTokens(out)
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleValidator(w http.ResponseWriter, r *http.Request) {
	operator := chi.URLParam(r, "operator")
	if !address.HasPrefix(operator, a.valoperPrefix()) {
		writeError(w, r, badRequest("%q is not a %s address", operator, a.valoperPrefix()))
		return
	}
	v, err := a.lcd.Validator(r.Context(), operator)
	if err != nil {
		writeError(w, r, err)
		return
	}

	cons, consErr := address.ConsensusAddress(v.ConsensusPubkey.Key, a.valconsPrefix())
	var (
		pool   *lcd.Pool
		params *lcd.SlashingParams
		info   *lcd.SigningInfo
	)
	results := gather.Settle[struct{}](r.Context(),
		func(ctx context.Context) (struct{}, error) {
			var err error
			pool, err = a.lcd.StakingPool(ctx)
			return struct{}{}, err
		},
		func(ctx context.Context) (struct{}, error) {
			var err error
			params, err = a.lcd.SlashingParams(ctx)
			return struct{}{}, err
		},
		func(ctx context.Context) (struct{}, error) {
			if consErr != nil {
				return struct{}{}, consErr
			}
			var err error
			info, err = a.lcd.SigningInfo(ctx, cons)
			return struct{}{}, err
		},
	)

	bonded := decimal.Zero
	if results[0].OK() {
		bonded = amount.MustParseOrZero(pool.BondedTokens)
	}
	out := models.ValidatorDetail{
		ValidatorSummary:  a.validatorSummary(*v, bonded),
		ConsensusAddress:  cons,
		Identity:          v.Description.Identity,
		Details:           v.Description.Details,
		MaxCommission:     amount.MustParseOrZero(v.Commission.CommissionRates.MaxRate).Mul(hundred).Round(2),
		MinSelfDelegation: v.MinSelfDelegation,
		Degraded:          []string{},
	}
	if !results[0].OK() {
		Logger.Warn().Err(results[0].Err).Str("validator", operator).Msg("Staking pool unavailable")
		out.Degraded = append(out.Degraded, fieldVotingPower)
	}

	if results[1].OK() && results[2].OK() {
		window, werr := strconv.ParseInt(params.SignedBlocksWindow, 10, 64)
		missed, merr := strconv.ParseInt(info.MissedBlocksCounter, 10, 64)
		if werr == nil && merr == nil {
			up := uptime(missed, window)
			out.Uptime = &up
			out.MissedBlocks = &missed
			out.SignedBlocksWindow = &window
		} else {
			out.Degraded = append(out.Degraded, fieldUptime)
		}
		out.Tombstoned = info.Tombstoned
	} else {
		for _, res := range results[1:] {
			if res.Err != nil {
				Logger.Warn().Err(res.Err).Str("validator", operator).Msg("Signing info unavailable")
			}
		}
		out.Degraded = append(out.Degraded, fieldUptime)
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleClassification(w http.ResponseWriter, r *http.Request) {
	if a.classifier == nil {
		writeError(w, r, errEVMDisabled)
		return
	}
	c, err := a.classifier.Classify(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
