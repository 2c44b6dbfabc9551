package rpc

import (
	"encoding/base64"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"github.com/Cogwheel-Validator/spectra-explorer/explorer/account"
	"github.com/Cogwheel-Validator/spectra-explorer/explorer/address"
	"github.com/Cogwheel-Validator/spectra-explorer/explorer/amount"
	"github.com/Cogwheel-Validator/spectra-explorer/explorer/governance"
	"github.com/Cogwheel-Validator/spectra-explorer/explorer/lcd"
	"github.com/Cogwheel-Validator/spectra-explorer/explorer/models"
	"github.com/shopspring/decimal"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

func (a *API) amount(raw decimal.Decimal) account.Amount {
	return account.Amount{Raw: raw, Display: amount.Display(raw, a.profile.Decimals)}
}

// base64ToHex renders a base64 hash the way explorers show it, upper-case hex.
func base64ToHex(s string) string {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return s
	}
	return strings.ToUpper(hex.EncodeToString(b))
}

// proposerAddress turns the base64 proposer of a block header into its
// valcons address.
func proposerAddress(b64, prefix string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", badRequest("invalid proposer address %q", b64)
	}
	return address.BytesToBech32(b, prefix)
}

// consensusMonikers indexes monikers by valcons address. Validators whose key
// cannot be decoded are skipped.
func consensusMonikers(vals []lcd.Validator, prefix string) map[string]string {
	out := make(map[string]string, len(vals))
	for _, v := range vals {
		cons, err := address.ConsensusAddress(v.ConsensusPubkey.Key, prefix)
		if err != nil {
			continue
		}
		out[cons] = v.Description.Moniker
	}
	return out
}

// votingPowerShare is tokens over the bonded total, in percent.
func votingPowerShare(tokens, bonded decimal.Decimal) decimal.Decimal {
	if !bonded.IsPositive() {
		return decimal.Zero
	}
	return tokens.Div(bonded).Mul(hundred).Round(2)
}

// uptime is 1 - missed/window, in percent and clamped to [0, 100].
func uptime(missed, window int64) decimal.Decimal {
	if window <= 0 {
		return decimal.Zero
	}
	ratio := one.Sub(decimal.NewFromInt(missed).Div(decimal.NewFromInt(window)))
	ratio = decimal.Max(decimal.Zero, decimal.Min(one, ratio))
	return ratio.Mul(hundred).Round(2)
}

func bondedTotal(vals []lcd.Validator) decimal.Decimal {
	total := decimal.Zero
	for _, v := range vals {
		if v.Status == lcd.StatusBonded {
			total = total.Add(amount.MustParseOrZero(v.Tokens))
		}
	}
	return total
}

func (a *API) validatorSummary(v lcd.Validator, bonded decimal.Decimal) models.ValidatorSummary {
	tokens := amount.MustParseOrZero(v.Tokens)
	power := decimal.Zero
	if v.Status == lcd.StatusBonded {
		power = votingPowerShare(tokens, bonded)
	}
	moniker := v.Description.Moniker
	if moniker == "" {
		moniker = account.UnknownMoniker
	}
	return models.ValidatorSummary{
		Operator:    v.OperatorAddress,
		Moniker:     moniker,
		Status:      v.Status,
		Jailed:      v.Jailed,
		Tokens:      a.amount(tokens),
		VotingPower: power,
		Commission:  amount.MustParseOrZero(v.Commission.CommissionRates.Rate).Mul(hundred).Round(2),
		Website:     v.Description.Website,
	}
}

// sortByTokens orders validators by stake, largest first.
func sortByTokens(out []models.ValidatorSummary) {
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Tokens.Raw.GreaterThan(out[j].Tokens.Raw)
	})
}

// messageActions lists the distinct message.action values of a tx in order.
func messageActions(events []lcd.Event) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, e := range events {
		if e.Type != "message" {
			continue
		}
		if action, ok := e.Attr("action"); ok && !seen[action] {
			seen[action] = true
			out = append(out, action)
		}
	}
	return out
}

func txSummary(t lcd.TxResponse) models.TxSummary {
	height, _ := strconv.ParseInt(t.Height, 10, 64)
	return models.TxSummary{
		Hash:      t.TxHash,
		Height:    height,
		Success:   t.Code == 0,
		Code:      t.Code,
		GasWanted: t.GasWanted,
		GasUsed:   t.GasUsed,
		Timestamp: t.Timestamp,
		Messages:  messageActions(t.Events),
	}
}

func txDetail(t lcd.TxResponse) models.TxDetail {
	events := t.Events
	if events == nil {
		events = []lcd.Event{}
	}
	d := models.TxDetail{
		TxSummary: txSummary(t),
		Codespace: t.Codespace,
		RawLog:    t.RawLog,
		Events:    events,
	}
	if len(t.Tx) > 0 {
		d.Tx = t.Tx
	}
	return d
}

func (a *API) blockSummary(b *lcd.BlockResponse, monikers map[string]string) models.BlockSummary {
	h := b.Block.Header
	height, _ := strconv.ParseInt(h.Height, 10, 64)
	out := models.BlockSummary{
		ChainID:    h.ChainID,
		Height:     height,
		Hash:       base64ToHex(b.BlockID.Hash),
		Time:       h.Time,
		Proposer:   h.ProposerAddress,
		TxCount:    len(b.Block.Data.Txs),
		Signatures: len(b.Block.LastCommit.Signatures),
	}
	if cons, err := proposerAddress(h.ProposerAddress, a.valconsPrefix()); err == nil {
		out.Proposer = cons
		out.ProposerMoniker = monikers[cons]
	}
	return out
}

// messageTypes reads the "@type" of each proposal message.
func messageTypes(msgs [][]byte) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, json.Get(m, "@type").ToString())
	}
	return out
}

func proposalSummary(p lcd.Proposal) models.ProposalSummary {
	id, _ := strconv.ParseUint(p.ID, 10, 64)
	return models.ProposalSummary{
		ID:            id,
		Title:         p.Title,
		Summary:       p.Summary,
		Status:        p.Status,
		Proposer:      p.Proposer,
		Expedited:     p.Expedited,
		SubmitTime:    p.SubmitTime,
		VotingEndTime: p.VotingEndTime,
		FinalTally:    governance.PercentFromRatios(governance.RatiosFromCounts(p.FinalTallyResult)),
	}
}

func proposalDetail(p lcd.Proposal) models.ProposalDetail {
	raws := make([][]byte, len(p.Messages))
	for i, m := range p.Messages {
		raws[i] = m
	}
	deposit := p.TotalDeposit
	if deposit == nil {
		deposit = []lcd.Coin{}
	}
	return models.ProposalDetail{
		ProposalSummary: proposalSummary(p),
		Metadata:        p.Metadata,
		MessageTypes:    messageTypes(raws),
		TotalDeposit:    deposit,
		DepositEndTime:  p.DepositEndTime,
		VotingStartTime: p.VotingStartTime,
	}
}

// proposalStatus maps the short status filter of the API to the gov enum.
func proposalStatus(s string) (string, error) {
	switch strings.ToLower(s) {
	case "":
		return "", nil
	case "deposit":
		return lcd.ProposalStatusDepositPeriod, nil
	case "voting":
		return lcd.ProposalStatusVotingPeriod, nil
	case "passed":
		return lcd.ProposalStatusPassed, nil
	case "rejected":
		return lcd.ProposalStatusRejected, nil
	case "failed":
		return lcd.ProposalStatusFailed, nil
	}
	return "", badRequest("unknown proposal status %q", s)
}

func validatorStatus(s string) (string, error) {
	switch strings.ToLower(s) {
	case "", "all":
		return "", nil
	case "bonded":
		return lcd.StatusBonded, nil
	case "unbonding":
		return lcd.StatusUnbonding, nil
	case "unbonded":
		return lcd.StatusUnbonded, nil
	}
	return "", badRequest("unknown validator status %q", s)
}
