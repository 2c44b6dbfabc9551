package account

import (
	"context"
	"fmt"

	"github.com/Cogwheel-Validator/spectra-explorer/explorer/amount"
	"github.com/Cogwheel-Validator/spectra-explorer/explorer/gather"
	"github.com/Cogwheel-Validator/spectra-explorer/explorer/lcd"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/Cogwheel-Validator/spectra-explorer/explorer/account"

// Bucket names, also used in AccountView.Degraded.
const (
	BucketBalance     = "balance"
	BucketStaked      = "staked"
	BucketRewards     = "rewards"
	BucketWithdrawals = "withdrawals"
)

// withdrawHistoryLimit caps how many withdraw transactions are summed.
const withdrawHistoryLimit = 100

// Amount is a raw on-chain amount and its rendering in display units.
type Amount struct {
	Raw     decimal.Decimal `json:"raw"`
	Display string          `json:"display"`
}

// Bucket is one of the four account totals with its share of their sum.
type Bucket struct {
	Amount
	Percent decimal.Decimal `json:"percent"`
}

// Delegation is a delegation joined with the validator moniker.
type Delegation struct {
	Validator string          `json:"validator"`
	Moniker   string          `json:"moniker"`
	Shares    decimal.Decimal `json:"shares"`
	Amount    Amount          `json:"amount"`
}

// CoinView is a bank balance entry. IBC vouchers carry their origin.
type CoinView struct {
	Denom     string `json:"denom"`
	Amount    string `json:"amount"`
	IBC       bool   `json:"ibc"`
	BaseDenom string `json:"base_denom,omitempty"`
	Path      string `json:"path,omitempty"`
}

// AccountView is the aggregated state of one account.
type AccountView struct {
	Address         string       `json:"address"`
	Denom           string       `json:"denom"`
	Balance         Bucket       `json:"balance"`
	Staked          Bucket       `json:"staked"`
	Rewards         Bucket       `json:"rewards"`
	Withdrawn       Bucket       `json:"withdrawn"`
	Total           Amount       `json:"total"`
	Delegations     []Delegation `json:"delegations"`
	Coins           []CoinView   `json:"coins"`
	WithdrawAddress string       `json:"withdraw_address"`
	// Degraded names the buckets whose fetch failed and were zeroed.
	Degraded []string `json:"degraded"`
}

// Aggregator builds AccountViews from concurrent LCD reads.
type Aggregator struct {
	lcd       LCD
	chain     Chain
	monikers  *MonikerLookup
	tracer    trace.Tracer
	fallbacks metric.Int64Counter
}

func NewAggregator(client LCD, chain Chain, monikers *MonikerLookup) *Aggregator {
	meter := otel.Meter(instrumentationName)
	fallbacks, err := meter.Int64Counter("explorer.account.fallbacks",
		metric.WithDescription("Account sub-fetches that failed and were replaced by defaults"))
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create fallback counter")
		fallbacks, _ = noop.Meter{}.Int64Counter("explorer.account.fallbacks")
	}

	return &Aggregator{
		lcd:       client,
		chain:     chain,
		monikers:  monikers,
		tracer:    otel.Tracer(instrumentationName),
		fallbacks: fallbacks,
	}
}

func (a *Aggregator) amount(raw decimal.Decimal) Amount {
	return Amount{Raw: raw, Display: amount.Display(raw, a.chain.Decimals)}
}

// native parses c when it is in the base denom and is zero otherwise.
func (a *Aggregator) native(c lcd.Coin) decimal.Decimal {
	if c.Denom != a.chain.BaseDenom {
		return decimal.Zero
	}
	return amount.MustParseOrZero(c.Amount)
}

func (a *Aggregator) emptyView(addr string) *AccountView {
	zero := Bucket{Amount: a.amount(decimal.Zero), Percent: decimal.Zero}
	return &AccountView{
		Address:     addr,
		Denom:       a.chain.DisplayDenom,
		Balance:     zero,
		Staked:      zero,
		Rewards:     zero,
		Withdrawn:   zero,
		Total:       a.amount(decimal.Zero),
		Delegations: []Delegation{},
		Coins:       []CoinView{},
		Degraded:    []string{},
	}
}

// Account aggregates balance, stake, rewards and withdrawals of addr. It never
// fails: a sub-fetch error is logged, counted and its bucket left at zero.
// An empty addr yields the default view.
func (a *Aggregator) Account(ctx context.Context, addr string) *AccountView {
	view := a.emptyView(addr)
	if addr == "" {
		return view
	}

	ctx, span := a.tracer.Start(ctx, "Aggregator.Account",
		trace.WithAttributes(attribute.String("account.address", addr)))
	defer span.End()

	var (
		balance, staked, rewards, withdrawn decimal.Decimal
		coins                               []CoinView
		delegations                         []Delegation
		withdrawAddr                        string
	)

	names := []string{BucketBalance, BucketStaked, BucketRewards, BucketWithdrawals}
	results := gather.Settle[struct{}](ctx,
		func(ctx context.Context) (struct{}, error) {
			var err error
			coins, balance, err = a.fetchBalance(ctx, addr)
			return struct{}{}, err
		},
		func(ctx context.Context) (struct{}, error) {
			var err error
			delegations, staked, err = a.fetchDelegations(ctx, addr)
			return struct{}{}, err
		},
		func(ctx context.Context) (struct{}, error) {
			var err error
			rewards, err = a.fetchRewards(ctx, addr)
			return struct{}{}, err
		},
		func(ctx context.Context) (struct{}, error) {
			var err error
			withdrawAddr, withdrawn, err = a.fetchWithdrawals(ctx, addr)
			return struct{}{}, err
		},
	)

	for i, r := range results {
		if r.OK() {
			continue
		}
		a.degrade(ctx, view, names[i], r.Err)
		switch names[i] {
		case BucketBalance:
			balance, coins = decimal.Zero, nil
		case BucketStaked:
			staked, delegations = decimal.Zero, nil
		case BucketRewards:
			rewards = decimal.Zero
		case BucketWithdrawals:
			// the recipient survives a failed history query
			withdrawn = decimal.Zero
		}
	}

	pct := amount.Percentages(balance, staked, rewards, withdrawn)
	view.Balance = Bucket{Amount: a.amount(balance), Percent: pct[0]}
	view.Staked = Bucket{Amount: a.amount(staked), Percent: pct[1]}
	view.Rewards = Bucket{Amount: a.amount(rewards), Percent: pct[2]}
	view.Withdrawn = Bucket{Amount: a.amount(withdrawn), Percent: pct[3]}
	view.Total = a.amount(decimal.Sum(balance, staked, rewards, withdrawn))
	if coins != nil {
		view.Coins = coins
	}
	if delegations != nil {
		view.Delegations = delegations
	}
	view.WithdrawAddress = withdrawAddr

	span.SetAttributes(attribute.Int("account.degraded", len(view.Degraded)))
	return view
}

func (a *Aggregator) degrade(ctx context.Context, view *AccountView, bucket string, err error) {
	log.Warn().Err(err).Str("address", view.Address).Str("bucket", bucket).Msg("Sub-fetch failed, using default")
	a.fallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("bucket", bucket)))
	trace.SpanFromContext(ctx).AddEvent("fallback", trace.WithAttributes(attribute.String("bucket", bucket)))
	view.Degraded = append(view.Degraded, bucket)
}

// fetchBalance lists every bank coin and sums the native denom. IBC vouchers
// are resolved to their origin; a failed trace keeps the raw denom.
func (a *Aggregator) fetchBalance(ctx context.Context, addr string) ([]CoinView, decimal.Decimal, error) {
	balances, err := a.lcd.Balances(ctx, addr)
	if err != nil {
		return nil, decimal.Zero, err
	}

	coins := make([]CoinView, len(balances))
	var traces []gather.Task[*lcd.DenomTrace]
	var traceIdx []int
	for i, c := range balances {
		coins[i] = CoinView{Denom: c.Denom, Amount: c.Amount}
		if lcd.IsIBCDenom(c.Denom) {
			coins[i].IBC = true
			denom := c.Denom
			traces = append(traces, func(ctx context.Context) (*lcd.DenomTrace, error) {
				return a.lcd.DenomTrace(ctx, denom)
			})
			traceIdx = append(traceIdx, i)
		}
	}

	for j, r := range gather.SettleLimit(ctx, 4, traces...) {
		i := traceIdx[j]
		if !r.OK() {
			log.Debug().Err(r.Err).Str("denom", coins[i].Denom).Msg("Denom trace lookup failed")
			continue
		}
		coins[i].BaseDenom = r.Value.BaseDenom
		coins[i].Path = r.Value.Path
	}

	return coins, amount.SumDenom(balances, a.chain.BaseDenom), nil
}

// fetchDelegations lists delegations joined with validator monikers. A failed
// validator snapshot leaves every moniker as UnknownMoniker.
func (a *Aggregator) fetchDelegations(ctx context.Context, addr string) ([]Delegation, decimal.Decimal, error) {
	resp, err := a.lcd.Delegations(ctx, addr)
	if err != nil {
		return nil, decimal.Zero, err
	}
	monikers := a.monikerMap(ctx)

	total := decimal.Zero
	out := make([]Delegation, 0, len(resp))
	for _, d := range resp {
		raw := a.native(d.Balance)
		total = total.Add(raw)
		out = append(out, Delegation{
			Validator: d.Delegation.ValidatorAddress,
			Moniker:   monikers.Name(d.Delegation.ValidatorAddress),
			Shares:    amount.MustParseOrZero(d.Delegation.Shares),
			Amount:    a.amount(raw),
		})
	}
	return out, total, nil
}

func (a *Aggregator) monikerMap(ctx context.Context) MonikerMap {
	if a.monikers == nil {
		return MonikerMap{}
	}
	m, err := a.monikers.Snapshot(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Validator snapshot unavailable")
		return MonikerMap{}
	}
	return m
}

func (a *Aggregator) fetchRewards(ctx context.Context, addr string) (decimal.Decimal, error) {
	resp, err := a.lcd.Rewards(ctx, addr)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.SumDecDenom(resp.Total, a.chain.BaseDenom), nil
}

// fetchWithdrawals returns the reward recipient and the native amount
// withdrawn by addr over its latest withdraw transactions.
func (a *Aggregator) fetchWithdrawals(ctx context.Context, addr string) (string, decimal.Decimal, error) {
	recipient, err := a.lcd.WithdrawAddress(ctx, addr)
	if err != nil {
		return "", decimal.Zero, fmt.Errorf("withdraw address: %w", err)
	}

	txs, err := a.lcd.SearchTxs(ctx, lcd.TxSearch{
		Query: fmt.Sprintf("withdraw_rewards.delegator='%s'", addr),
		Limit: withdrawHistoryLimit,
		Desc:  true,
	})
	if err != nil {
		return recipient, decimal.Zero, fmt.Errorf("withdraw history: %w", err)
	}
	return recipient, a.sumWithdrawals(txs.TxResponses, addr), nil
}

func (a *Aggregator) sumWithdrawals(txs []lcd.TxResponse, addr string) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		if tx.Code != 0 {
			continue
		}
		for _, ev := range tx.Events {
			if ev.Type != "withdraw_rewards" {
				continue
			}
			if d, ok := ev.Attr("delegator"); ok && d != addr {
				continue
			}
			raw, _ := ev.Attr("amount")
			coins, err := amount.ParseCoins(raw)
			if err != nil {
				log.Debug().Err(err).Str("tx", tx.TxHash).Msg("Skipping unparsable withdraw amount")
				continue
			}
			total = total.Add(amount.SumDenom(coins, a.chain.BaseDenom))
		}
	}
	return total
}
