package account

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Cogwheel-Validator/spectra-explorer/explorer/address"
	"github.com/Cogwheel-Validator/spectra-explorer/explorer/config"
	"github.com/Cogwheel-Validator/spectra-explorer/explorer/lcd"
	"github.com/shopspring/decimal"
	"github.com/zeebo/assert"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

var kii = Chain{
	Bech32Prefix: "kii",
	BaseDenom:    "ukii",
	DisplayDenom: "KII",
	Decimals:     6,
}

const (
	addr1    = "kii1zyg3zyg3zyg3zyg3zyg3zyg3zyg3zyg3ckdgys"
	valoperA = "kiivaloper1qqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqpzg4ndy"
	valoperB = "kiivaloper1qqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqzvmq9rm"
)

var errUpstream = &lcd.StatusError{Code: http.StatusInternalServerError, Body: "boom"}

type fakeLCD struct {
	balances      []lcd.Coin
	balancesErr   error
	delegations   []lcd.DelegationResponse
	delegErr      error
	unbonding     []lcd.UnbondingDelegation
	unbondingErr  error
	redelegations []lcd.RedelegationResponse
	rewards       *lcd.RewardsResponse
	rewardsErr    error
	withdrawAddr  string
	withdrawErr   error
	txs           []lcd.TxResponse
	txsErr        error
	validators    []lcd.Validator
	validatorsErr error
	traces        map[string]lcd.DenomTrace
	association   string
	associateErr  error

	validatorCalls atomic.Int32
}

func (f *fakeLCD) Balances(context.Context, string) ([]lcd.Coin, error) {
	return f.balances, f.balancesErr
}

func (f *fakeLCD) Delegations(context.Context, string) ([]lcd.DelegationResponse, error) {
	return f.delegations, f.delegErr
}

func (f *fakeLCD) UnbondingDelegations(context.Context, string) ([]lcd.UnbondingDelegation, error) {
	return f.unbonding, f.unbondingErr
}

func (f *fakeLCD) Redelegations(context.Context, string) ([]lcd.RedelegationResponse, error) {
	return f.redelegations, nil
}

func (f *fakeLCD) Rewards(context.Context, string) (*lcd.RewardsResponse, error) {
	if f.rewardsErr != nil {
		return nil, f.rewardsErr
	}
	if f.rewards == nil {
		return &lcd.RewardsResponse{}, nil
	}
	return f.rewards, nil
}

func (f *fakeLCD) WithdrawAddress(_ context.Context, delegator string) (string, error) {
	if f.withdrawErr != nil {
		return "", f.withdrawErr
	}
	if f.withdrawAddr == "" {
		return delegator, nil
	}
	return f.withdrawAddr, nil
}

func (f *fakeLCD) SearchTxs(context.Context, lcd.TxSearch) (*lcd.TxSearchResponse, error) {
	if f.txsErr != nil {
		return nil, f.txsErr
	}
	return &lcd.TxSearchResponse{TxResponses: f.txs}, nil
}

func (f *fakeLCD) Validators(context.Context, string) ([]lcd.Validator, error) {
	f.validatorCalls.Add(1)
	return f.validators, f.validatorsErr
}

func (f *fakeLCD) DenomTrace(_ context.Context, denom string) (*lcd.DenomTrace, error) {
	if t, ok := f.traces[denom]; ok {
		return &t, nil
	}
	return nil, lcd.ErrNotFound
}

func (f *fakeLCD) CosmosAccount(context.Context, string, string) (string, error) {
	return f.association, f.associateErr
}

func validator(op, moniker string) lcd.Validator {
	var v lcd.Validator
	v.OperatorAddress = op
	v.Description.Moniker = moniker
	return v
}

func delegation(op, amt string) lcd.DelegationResponse {
	var d lcd.DelegationResponse
	d.Delegation.ValidatorAddress = op
	d.Delegation.Shares = amt + ".000000000000000000"
	d.Balance = lcd.Coin{Denom: "ukii", Amount: amt}
	return d
}

func withdrawTx(delegator, amt string) lcd.TxResponse {
	return lcd.TxResponse{
		TxHash: "AB",
		Events: []lcd.Event{{
			Type: "withdraw_rewards",
			Attributes: []lcd.EventAttribute{
				{Key: "amount", Value: amt},
				{Key: "validator", Value: valoperA},
				{Key: "delegator", Value: delegator},
			},
		}},
	}
}

func fullFake() *fakeLCD {
	return &fakeLCD{
		balances:    []lcd.Coin{{Denom: "ukii", Amount: "4000000"}},
		delegations: []lcd.DelegationResponse{delegation(valoperA, "3000000"), delegation(valoperB, "1000000")},
		rewards:     &lcd.RewardsResponse{Total: []lcd.DecCoin{{Denom: "ukii", Amount: "1000000.500000000000000000"}, {Denom: "uatom", Amount: "7"}}},
		txs:         []lcd.TxResponse{withdrawTx(addr1, "1000000ukii,3uatom")},
		validators:  []lcd.Validator{validator(valoperA, "Alpha")},
	}
}

func TestAccount_EmptyAddress(t *testing.T) {
	f := fullFake()
	agg := NewAggregator(f, kii, NewMonikerLookup(f, 0))

	view := agg.Account(context.Background(), "")
	assert.NotNil(t, view)
	assert.Equal(t, view.Balance.Display, "0.00")
	assert.True(t, view.Balance.Percent.IsZero())
	assert.Equal(t, len(view.Delegations), 0)
	assert.Equal(t, f.validatorCalls.Load(), int32(0))
}

func TestAccount_AllZeroPercentages(t *testing.T) {
	f := &fakeLCD{}
	agg := NewAggregator(f, kii, NewMonikerLookup(f, 0))

	view := agg.Account(context.Background(), addr1)
	assert.Equal(t, len(view.Degraded), 0)
	for _, b := range []Bucket{view.Balance, view.Staked, view.Rewards, view.Withdrawn} {
		assert.Equal(t, b.Percent.String(), "0")
		assert.Equal(t, b.Display, "0.00")
	}
}

func TestAccount_Buckets(t *testing.T) {
	f := fullFake()
	agg := NewAggregator(f, kii, NewMonikerLookup(f, 0))

	view := agg.Account(context.Background(), addr1)
	assert.Equal(t, len(view.Degraded), 0)
	assert.Equal(t, view.Balance.Display, "4.00")
	assert.Equal(t, view.Staked.Display, "4.00")
	assert.Equal(t, view.Rewards.Display, "1.00")
	assert.Equal(t, view.Withdrawn.Display, "1.00")
	assert.Equal(t, view.Total.Display, "10.00")
	assert.Equal(t, view.Rewards.Raw.String(), "1000000.5")
	assert.Equal(t, view.Balance.Percent.String(), "40")
	assert.Equal(t, view.Staked.Percent.String(), "40")
	assert.Equal(t, view.Withdrawn.Percent.String(), "10")
	assert.Equal(t, view.WithdrawAddress, addr1)

	assert.Equal(t, len(view.Delegations), 2)
	assert.Equal(t, view.Delegations[0].Moniker, "Alpha")
	assert.Equal(t, view.Delegations[0].Amount.Display, "3.00")
}

func TestAccount_UnknownMoniker(t *testing.T) {
	f := fullFake()
	agg := NewAggregator(f, kii, NewMonikerLookup(f, 0))

	view := agg.Account(context.Background(), addr1)
	assert.Equal(t, view.Delegations[1].Validator, valoperB)
	assert.Equal(t, view.Delegations[1].Moniker, "Unknown")
}

func TestAccount_SingleBucketFailure(t *testing.T) {
	want := map[string]string{
		BucketBalance:     "4.00",
		BucketStaked:      "4.00",
		BucketRewards:     "1.00",
		BucketWithdrawals: "1.00",
	}
	tests := []struct {
		bucket string
		fail   func(f *fakeLCD)
	}{
		{BucketBalance, func(f *fakeLCD) { f.balancesErr = errUpstream }},
		{BucketStaked, func(f *fakeLCD) { f.delegErr = errUpstream }},
		{BucketRewards, func(f *fakeLCD) { f.rewardsErr = errUpstream }},
		{BucketWithdrawals, func(f *fakeLCD) { f.withdrawErr = errUpstream }},
	}

	for _, tt := range tests {
		t.Run(tt.bucket, func(t *testing.T) {
			f := fullFake()
			tt.fail(f)
			agg := NewAggregator(f, kii, NewMonikerLookup(f, 0))

			view := agg.Account(context.Background(), addr1)
			assert.NotNil(t, view)
			assert.DeepEqual(t, view.Degraded, []string{tt.bucket})

			buckets := map[string]Bucket{
				BucketBalance:     view.Balance,
				BucketStaked:      view.Staked,
				BucketRewards:     view.Rewards,
				BucketWithdrawals: view.Withdrawn,
			}
			for name, b := range buckets {
				if name == tt.bucket {
					assert.True(t, b.Raw.IsZero())
					assert.Equal(t, b.Display, "0.00")
					assert.True(t, b.Percent.IsZero())
					continue
				}
				assert.Equal(t, b.Display, want[name])
				assert.True(t, b.Percent.IsPositive())
			}
		})
	}
}

func TestAccount_RewardsFailurePercentages(t *testing.T) {
	f := fullFake()
	f.rewardsErr = errUpstream
	agg := NewAggregator(f, kii, NewMonikerLookup(f, 0))

	view := agg.Account(context.Background(), addr1)
	assert.Equal(t, view.Balance.Percent.String(), "44.44")
	assert.Equal(t, len(view.Delegations), 2)
}

func TestAccount_WithdrawAddressFailure(t *testing.T) {
	f := fullFake()
	f.withdrawErr = errUpstream
	agg := NewAggregator(f, kii, NewMonikerLookup(f, 0))

	view := agg.Account(context.Background(), addr1)
	assert.Equal(t, view.WithdrawAddress, "")
}

func TestAccount_HistoryFailureKeepsRecipient(t *testing.T) {
	f := fullFake()
	f.withdrawAddr = "kii1recipient"
	f.txsErr = errUpstream
	agg := NewAggregator(f, kii, NewMonikerLookup(f, 0))

	view := agg.Account(context.Background(), addr1)
	assert.DeepEqual(t, view.Degraded, []string{BucketWithdrawals})
	assert.True(t, view.Withdrawn.Raw.IsZero())
	assert.Equal(t, view.WithdrawAddress, "kii1recipient")
	assert.Equal(t, view.Balance.Display, "4.00")
}

func TestAccount_ForeignDenomDelegation(t *testing.T) {
	f := fullFake()
	foreign := delegation(valoperB, "5000000")
	foreign.Balance.Denom = "uatom"
	f.delegations = append(f.delegations, foreign)
	agg := NewAggregator(f, kii, NewMonikerLookup(f, 0))

	view := agg.Account(context.Background(), addr1)
	assert.Equal(t, view.Staked.Display, "4.00")
	assert.Equal(t, len(view.Delegations), 3)
	assert.True(t, view.Delegations[2].Amount.Raw.IsZero())

	staking := agg.Staking(context.Background(), addr1)
	assert.Equal(t, len(staking.Delegations), 3)
	assert.Equal(t, staking.Delegations[0].Amount.Display, "3.00")
	assert.True(t, staking.Delegations[2].Amount.Raw.IsZero())
	assert.Equal(t, staking.Delegations[2].Amount.Display, "0.00")
}

func TestAccount_SnapshotFailureKeepsDelegations(t *testing.T) {
	f := fullFake()
	f.validatorsErr = errors.New("lcd down")
	agg := NewAggregator(f, kii, NewMonikerLookup(f, 0))

	view := agg.Account(context.Background(), addr1)
	assert.Equal(t, len(view.Degraded), 0)
	assert.Equal(t, len(view.Delegations), 2)
	assert.Equal(t, view.Delegations[0].Moniker, UnknownMoniker)
}

func TestAccount_IBCCoins(t *testing.T) {
	atom := lcd.ComputeDenomHash("transfer/channel-0/uatom")
	f := fullFake()
	f.balances = append(f.balances,
		lcd.Coin{Denom: atom, Amount: "12"},
		lcd.Coin{Denom: "ibc/DEADBEEF", Amount: "1"},
	)
	f.traces = map[string]lcd.DenomTrace{atom: {Path: "transfer/channel-0", BaseDenom: "uatom"}}
	agg := NewAggregator(f, kii, nil)

	view := agg.Account(context.Background(), addr1)
	assert.Equal(t, len(view.Coins), 3)
	assert.False(t, view.Coins[0].IBC)
	assert.True(t, view.Coins[1].IBC)
	assert.Equal(t, view.Coins[1].BaseDenom, "uatom")
	assert.Equal(t, view.Coins[1].Path, "transfer/channel-0")
	// unresolved trace keeps the raw denom
	assert.True(t, view.Coins[2].IBC)
	assert.Equal(t, view.Coins[2].BaseDenom, "")
	assert.Equal(t, view.Balance.Display, "4.00")
}

func TestSumWithdrawals_SkipsOtherDelegatorsAndFailedTxs(t *testing.T) {
	agg := NewAggregator(&fakeLCD{}, kii, nil)
	failed := withdrawTx(addr1, "9000000ukii")
	failed.Code = 5

	total := agg.sumWithdrawals([]lcd.TxResponse{
		withdrawTx(addr1, "1500000ukii"),
		withdrawTx("kii1other", "7000000ukii"),
		failed,
		withdrawTx(addr1, "garbage"),
		withdrawTx(addr1, ""),
	}, addr1)
	assert.True(t, total.Equal(decimal.NewFromInt(1500000)))
}

func TestMonikerLookup_Cache(t *testing.T) {
	f := fullFake()

	cached := NewMonikerLookup(f, time.Minute)
	for i := 0; i < 3; i++ {
		m, err := cached.Snapshot(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, m.Name(valoperA), "Alpha")
	}
	assert.Equal(t, f.validatorCalls.Load(), int32(1))

	uncached := NewMonikerLookup(f, 0)
	for i := 0; i < 3; i++ {
		_, err := uncached.Snapshot(context.Background())
		assert.NoError(t, err)
	}
	assert.Equal(t, f.validatorCalls.Load(), int32(4))
}

func TestMonikerMap_Name(t *testing.T) {
	m := MonikerMap{valoperA: "Alpha", valoperB: ""}
	assert.Equal(t, m.Name(valoperA), "Alpha")
	assert.Equal(t, m.Name(valoperB), UnknownMoniker)
	assert.Equal(t, m.Name("kiivaloper1missing"), "Unknown")
	assert.Equal(t, MonikerMap(nil).Name(valoperA), "Unknown")
}

func TestStaking(t *testing.T) {
	f := fullFake()
	var u lcd.UnbondingDelegation
	u.ValidatorAddress = valoperB
	u.Entries = []lcd.UnbondingEntry{{CreationHeight: "10", Balance: "2500000"}}
	f.unbonding = []lcd.UnbondingDelegation{u}

	var r lcd.RedelegationResponse
	r.Redelegation.ValidatorSrcAddress = valoperA
	r.Redelegation.ValidatorDstAddress = valoperB
	r.Entries = make([]lcd.RedelegationEntryResponse, 1)
	r.Entries[0].Balance = "1000000"
	f.redelegations = []lcd.RedelegationResponse{r}

	agg := NewAggregator(f, kii, NewMonikerLookup(f, 0))
	view := agg.Staking(context.Background(), addr1)
	assert.Equal(t, len(view.Degraded), 0)
	assert.Equal(t, len(view.Delegations), 2)
	assert.Equal(t, len(view.Unbonding), 1)
	assert.Equal(t, view.Unbonding[0].Moniker, "Unknown")
	assert.Equal(t, view.Unbonding[0].Balance.Display, "2.50")
	assert.Equal(t, len(view.Redelegations), 1)
	assert.Equal(t, view.Redelegations[0].SourceMoniker, "Alpha")
	assert.Equal(t, view.Redelegations[0].DestMoniker, "Unknown")

	f.delegErr = errUpstream
	view = agg.Staking(context.Background(), addr1)
	assert.Equal(t, view.Degraded, []string{SectionDelegations})
	assert.Equal(t, len(view.Unbonding), 1)
}

func TestResolve(t *testing.T) {
	const hexAddr = "0x1111111111111111111111111111111111111111"
	moduleAcc, err := address.BytesToBech32(bytes.Repeat([]byte{0x22}, 32), "kii")
	assert.NoError(t, err)

	t.Run("hex without association", func(t *testing.T) {
		r := NewResolver(&fakeLCD{associateErr: fmt.Errorf("wrapped: %w", lcd.ErrNotFound)}, kii)
		res, err := r.Resolve(context.Background(), hexAddr)
		assert.NoError(t, err)
		assert.Equal(t, res.Canonical, addr1)
		assert.False(t, res.Associated)
	})

	t.Run("hex with association", func(t *testing.T) {
		r := NewResolver(&fakeLCD{association: moduleAcc}, kii)
		res, err := r.Resolve(context.Background(), hexAddr)
		assert.NoError(t, err)
		assert.Equal(t, res.Canonical, moduleAcc)
		assert.True(t, res.Associated)
	})

	t.Run("unusable association falls back", func(t *testing.T) {
		foreign, err := address.ConvertPrefix(addr1, "cosmos")
		assert.NoError(t, err)
		for _, assoc := range []string{foreign, "kii1associated", valoperA} {
			r := NewResolver(&fakeLCD{association: assoc}, kii)
			res, err := r.Resolve(context.Background(), hexAddr)
			assert.NoError(t, err)
			assert.Equal(t, res.Canonical, addr1)
			assert.False(t, res.Associated)
		}
	})

	t.Run("32 byte account", func(t *testing.T) {
		r := NewResolver(&fakeLCD{}, kii)
		res, err := r.Resolve(context.Background(), moduleAcc)
		assert.NoError(t, err)
		assert.Equal(t, res.Canonical, moduleAcc)
		assert.Equal(t, res.Kind, "bech32")
		assert.Equal(t, res.EVM, "")
	})

	t.Run("lookup outage falls back", func(t *testing.T) {
		r := NewResolver(&fakeLCD{associateErr: errUpstream}, kii)
		res, err := r.Resolve(context.Background(), hexAddr)
		assert.NoError(t, err)
		assert.Equal(t, res.Canonical, addr1)
		assert.False(t, res.Associated)
	})

	t.Run("bech32 passthrough", func(t *testing.T) {
		r := NewResolver(&fakeLCD{}, kii)
		res, err := r.Resolve(context.Background(), addr1)
		assert.NoError(t, err)
		assert.Equal(t, res.Canonical, addr1)
		assert.Equal(t, res.EVM, hexAddr)
	})

	t.Run("invalid", func(t *testing.T) {
		r := NewResolver(&fakeLCD{}, kii)
		for _, in := range []string{"", "0x1234", valoperA} {
			_, err := r.Resolve(context.Background(), in)
			assert.Error(t, err)
		}
	})
}

// Balance fetch through the real LCD client against a fake REST server.
func TestAccount_DisplayBalanceOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cosmos/bank/v1beta1/balances/" + addr1:
			_, _ = fmt.Fprint(w, `{"balances":[{"denom":"ukii","amount":"5000000"}],"pagination":{"next_key":null,"total":"1"}}`)
		case "/cosmos/distribution/v1beta1/delegators/" + addr1 + "/rewards":
			w.WriteHeader(http.StatusInternalServerError)
		case "/cosmos/staking/v1beta1/delegations/" + addr1:
			_, _ = fmt.Fprint(w, `{"delegation_responses":[],"pagination":{}}`)
		case "/cosmos/staking/v1beta1/validators":
			_, _ = fmt.Fprint(w, `{"validators":[],"pagination":{}}`)
		case "/cosmos/distribution/v1beta1/delegators/" + addr1 + "/withdraw_address":
			_, _ = fmt.Fprintf(w, `{"withdraw_address":%q}`, addr1)
		case "/cosmos/tx/v1beta1/txs":
			_, _ = fmt.Fprint(w, `{"tx_responses":[],"total":"0"}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client, err := lcd.NewClientWithFailover(srv.URL, nil, lcd.FailoverConfig{Timeout: time.Second})
	assert.NoError(t, err)
	defer client.Close()

	agg := NewAggregator(client, kii, NewMonikerLookup(client, 0))
	view := agg.Account(context.Background(), addr1)
	assert.Equal(t, view.Balance.Display, "5.00")
	assert.Equal(t, view.Denom, "KII")
	assert.Equal(t, view.Balance.Percent.String(), "100")
	assert.Equal(t, view.Degraded, []string{BucketRewards})
}

func TestChainFromProfile(t *testing.T) {
	c := ChainFromProfile(config.DefaultChainProfile())
	assert.Equal(t, c.Bech32Prefix, "kii")
	assert.Equal(t, c.BaseDenom, "ukii")
	assert.Equal(t, c.DisplayDenom, "KII")
	assert.Equal(t, c.Decimals, int32(6))
	assert.Equal(t, c.ValoperPrefix(), "kiivaloper")
	assert.Equal(t, c.AssociationPath, "/cosmos/evm/vm/v1/cosmos_account/{address}")
}

func TestFallbackCounterTagsSection(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	f := fullFake()
	f.unbondingErr = errUpstream
	f.rewardsErr = errUpstream
	agg := NewAggregator(f, kii, NewMonikerLookup(f, 0))

	view := agg.Staking(context.Background(), addr1)
	assert.DeepEqual(t, view.Degraded, []string{SectionUnbonding})
	agg.Account(context.Background(), addr1)

	var rm metricdata.ResourceMetrics
	assert.NoError(t, reader.Collect(context.Background(), &rm))

	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "explorer.account.fallbacks" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			assert.True(t, ok)
			for _, dp := range sum.DataPoints {
				v, _ := dp.Attributes.Value("bucket")
				counts[v.AsString()] += dp.Value
			}
		}
	}
	assert.Equal(t, counts[SectionUnbonding], int64(1))
	assert.Equal(t, counts[BucketRewards], int64(1))
	assert.Equal(t, counts[""], int64(0))
}
