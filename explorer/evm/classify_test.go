package evm

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Cogwheel-Validator/spectra-explorer/explorer/address"
	"github.com/ethereum/go-ethereum/common"
	"github.com/zeebo/assert"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	assert.NoError(t, err)
	return b
}

func TestClassifyBytecode(t *testing.T) {
	tests := []struct {
		name string
		code string
		want []Kind
	}{
		{name: "eoa", code: "", want: []Kind{KindAccount}},
		{name: "erc20", code: "6080604052348015600f57600080fd5b5063a9059cbb1460", want: []Kind{KindERC20}},
		{name: "erc721", code: "60806040526352211e", want: []Kind{KindERC721}},
		{name: "erc1155", code: "6080d9b67a2614", want: []Kind{KindERC1155}},
		{name: "minimal proxy", code: "363d3d373d3d3d363d73bebebebebebebebebebebebebebebebebebebebe5af43d82803e903d91602b57fd5bf3", want: []Kind{KindMinimalProxy}},
		{name: "upgradeable proxy", code: "7f360894a13ba1a3210667c828492db98dca3e2076cc3735a920a3ca505d382bbc", want: []Kind{KindUpgradeableProxy}},
		{name: "proxy exposing token selectors", code: "5c60da1b0070a08231", want: []Kind{KindUpgradeableProxy, KindERC20}},
		{name: "unknown", code: "6080604052", want: []Kind{KindUnknown}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, ClassifyBytecode(mustHex(t, tt.code)), tt.want)
		})
	}
}

type fakeProber struct {
	code    []byte
	balance *big.Int
	err     error
	got     common.Address
}

func (f *fakeProber) Probe(_ context.Context, addr common.Address) ([]byte, *big.Int, error) {
	f.got = addr
	return f.code, f.balance, f.err
}

func TestClassifier(t *testing.T) {
	p := &fakeProber{code: mustHex(t, "a9059cbb70a08231"), balance: big.NewInt(1_500_000_000_000_000_000)}
	c := NewClassifier(p)

	res, err := c.Classify(context.Background(), "0x1111111111111111111111111111111111111111")
	assert.NoError(t, err)
	assert.True(t, res.IsContract)
	assert.Equal(t, res.Primary, KindERC20)
	assert.False(t, res.Verified)
	assert.Equal(t, res.Notice, HeuristicNotice)
	assert.Equal(t, res.BalanceDisplay, "1.50")
	assert.Equal(t, res.CodeSize, 8)
}

func TestClassifier_Bech32Input(t *testing.T) {
	p := &fakeProber{balance: big.NewInt(0)}
	c := NewClassifier(p)

	bech, err := address.EVMToBech32("0x2222222222222222222222222222222222222222", "kii")
	assert.NoError(t, err)

	res, err := c.Classify(context.Background(), bech)
	assert.NoError(t, err)
	assert.Equal(t, p.got, common.HexToAddress("0x2222222222222222222222222222222222222222"))
	assert.Equal(t, res.Primary, KindAccount)
	assert.False(t, res.IsContract)
}

func TestClassifier_Errors(t *testing.T) {
	c := NewClassifier(&fakeProber{err: errors.New("rpc down")})

	_, err := c.Classify(context.Background(), "0x12")
	assert.True(t, errors.Is(err, address.ErrInvalidAddressFormat))

	_, err = c.Classify(context.Background(), "0x1111111111111111111111111111111111111111")
	assert.Error(t, err)
}

type rpcRequest struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
}

// fakeNode answers eth_getCode, eth_getBalance and eth_chainId, batched or not.
func fakeNode(t *testing.T, code string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)

		answer := func(req rpcRequest) string {
			var result string
			switch req.Method {
			case "eth_getCode":
				result = `"0x` + code + `"`
			case "eth_getBalance":
				result = `"0xde0b6b3a7640000"`
			case "eth_chainId":
				result = `"0x3f2"`
			default:
				return fmt.Sprintf(`{"jsonrpc":"2.0","id":%s,"error":{"code":-32601,"message":"method not found"}}`, req.ID)
			}
			return fmt.Sprintf(`{"jsonrpc":"2.0","id":%s,"result":%s}`, req.ID, result)
		}

		w.Header().Set("Content-Type", "application/json")
		if strings.HasPrefix(strings.TrimSpace(string(body)), "[") {
			var reqs []rpcRequest
			assert.NoError(t, json.Unmarshal(body, &reqs))
			parts := make([]string, len(reqs))
			for i, req := range reqs {
				parts[i] = answer(req)
			}
			_, _ = fmt.Fprint(w, "["+strings.Join(parts, ",")+"]")
			return
		}
		var req rpcRequest
		assert.NoError(t, json.Unmarshal(body, &req))
		_, _ = fmt.Fprint(w, answer(req))
	}))
}

func TestClient_FallsBackToSecondEndpoint(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer down.Close()
	up := fakeNode(t, "d9b67a26")
	defer up.Close()

	client, err := Dial(context.Background(), []string{down.URL, up.URL}, time.Second, time.Second)
	assert.NoError(t, err)
	defer client.Close()

	code, balance, err := client.Probe(context.Background(), common.HexToAddress("0x1111111111111111111111111111111111111111"))
	assert.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(code), "d9b67a26")
	assert.Equal(t, balance.String(), "1000000000000000000")

	id, err := client.ChainID(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, id.Int64(), int64(1010))

	res, err := NewClassifier(client).Classify(context.Background(), "0x1111111111111111111111111111111111111111")
	assert.NoError(t, err)
	assert.Equal(t, res.Primary, KindERC1155)
	assert.Equal(t, res.BalanceDisplay, "1.00")
}

func TestDial_NoEndpoints(t *testing.T) {
	_, err := Dial(context.Background(), nil, time.Second, time.Second)
	assert.True(t, errors.Is(err, ErrNoEndpoints))
}
