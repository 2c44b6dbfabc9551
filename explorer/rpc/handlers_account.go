package rpc

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Cogwheel-Validator/spectra-explorer/explorer/account"
	"github.com/Cogwheel-Validator/spectra-explorer/explorer/lcd"
	"github.com/Cogwheel-Validator/spectra-explorer/explorer/models"
	"github.com/go-chi/chi/v5"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

func (a *API) resolve(r *http.Request) (account.Resolution, error) {
	return a.resolver.Resolve(r.Context(), chi.URLParam(r, "address"))
}

func (a *API) handleAddress(w http.ResponseWriter, r *http.Request) {
	res, err := a.resolve(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleAccount never fails on LCD errors once the address resolved; failed
// buckets are reported in the view instead.
func (a *API) handleAccount(w http.ResponseWriter, r *http.Request) {
	res, err := a.resolve(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.AccountResponse{
		Resolution: res,
		Account:    a.aggregator.Account(r.Context(), res.Canonical),
	})
}

func (a *API) handleAccountStaking(w http.ResponseWriter, r *http.Request) {
	res, err := a.resolve(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.StakingResponse{
		Resolution: res,
		Staking:    a.aggregator.Staking(r.Context(), res.Canonical),
	})
}

func (a *API) handleAccountTxs(w http.ResponseWriter, r *http.Request) {
	res, err := a.resolve(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := intParam(r, "page", 1, 1, 10_000)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := intParam(r, "limit", defaultPageLimit, 1, maxPageLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := a.lcd.SearchTxs(r.Context(), lcd.TxSearch{
		Query: fmt.Sprintf("message.sender='%s'", res.Canonical),
		Page:  page,
		Limit: limit,
		Desc:  true,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := models.TxPage{
		Address: res.Canonical,
		Page:    page,
		Limit:   limit,
		Txs:     make([]models.TxSummary, 0, len(resp.TxResponses)),
	}
	total := resp.Total
	if total == "" && resp.Pagination != nil {
		total = resp.Pagination.Total
	}
	out.Total, _ = strconv.ParseInt(total, 10, 64)
	for _, t := range resp.TxResponses {
		out.Txs = append(out.Txs, txSummary(t))
	}
	writeJSON(w, http.StatusOK, out)
}
