package rpc

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Cogwheel-Validator/spectra-explorer/explorer/amount"
	"github.com/Cogwheel-Validator/spectra-explorer/explorer/gather"
	"github.com/Cogwheel-Validator/spectra-explorer/explorer/governance"
	"github.com/Cogwheel-Validator/spectra-explorer/explorer/lcd"
	"github.com/Cogwheel-Validator/spectra-explorer/explorer/models"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

func proposalID(r *http.Request) (uint64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, badRequest("invalid proposal id %q", raw)
	}
	return id, nil
}

func (a *API) handleProposals(w http.ResponseWriter, r *http.Request) {
	status, err := proposalStatus(r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := intParam(r, "limit", defaultPageLimit, 1, maxPageLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	// newest first unless asked otherwise
	reverse, err := boolParam(r, "reverse", true)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := a.lcd.Proposals(r.Context(), lcd.ProposalQuery{
		Status:  status,
		PageKey: r.URL.Query().Get("key"),
		Limit:   limit,
		Reverse: reverse,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := models.ProposalPage{
		Proposals: make([]models.ProposalSummary, 0, len(resp.Proposals)),
		NextKey:   resp.Pagination.NextKey,
	}
	for _, p := range resp.Proposals {
		out.Proposals = append(out.Proposals, proposalSummary(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleProposal(w http.ResponseWriter, r *http.Request) {
	id, err := proposalID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := a.lcd.Proposal(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, proposalDetail(*p))
}

// handleTally returns the live tally with percentages. Turnout needs the
// staking pool and is dropped when the pool is unavailable.
func (a *API) handleTally(w http.ResponseWriter, r *http.Request) {
	id, err := proposalID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var (
		tally *lcd.TallyResult
		pool  *lcd.Pool
	)
	results := gather.Settle[struct{}](r.Context(),
		func(ctx context.Context) (struct{}, error) {
			var err error
			tally, err = a.lcd.Tally(ctx, id)
			return struct{}{}, err
		},
		func(ctx context.Context) (struct{}, error) {
			var err error
			pool, err = a.lcd.StakingPool(ctx)
			return struct{}{}, err
		},
	)
	if !results[0].OK() {
		writeError(w, r, results[0].Err)
		return
	}

	bonded := decimal.Zero
	out := models.TallyResponse{ProposalID: id, Degraded: []string{}}
	if results[1].OK() {
		bonded = amount.MustParseOrZero(pool.BondedTokens)
	} else {
		Logger.Warn().Err(results[1].Err).Uint64("proposal", id).Msg("Staking pool unavailable, turnout omitted")
		out.Degraded = append(out.Degraded, fieldTurnout)
	}
	out.Tally = governance.Summarize(*tally, bonded)
	writeJSON(w, http.StatusOK, out)
}
