package lcd

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

const (
	nodeInfoPath    = "/cosmos/base/tendermint/v1beta1/node_info"
	latestBlockPath = "/cosmos/base/tendermint/v1beta1/blocks/latest"
	blockPath       = "/cosmos/base/tendermint/v1beta1/blocks/%d"
	txPath          = "/cosmos/tx/v1beta1/txs/%s"
	txSearchPath    = "/cosmos/tx/v1beta1/txs"
	balancesPath    = "/cosmos/bank/v1beta1/balances/%s"
	supplyOfPath    = "/cosmos/bank/v1beta1/supply/by_denom"
)

// maxPages bounds every next_key walk.
const maxPages = 100

// NodeInfo returns the node and application versions of the current endpoint.
func (c *Client) NodeInfo(ctx context.Context) (*NodeInfoResponse, error) {
	var out NodeInfoResponse
	if err := c.getJSON(ctx, nodeInfoPath, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LatestBlock returns the most recent block.
func (c *Client) LatestBlock(ctx context.Context) (*BlockResponse, error) {
	var out BlockResponse
	if err := c.getJSON(ctx, latestBlockPath, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Block returns the block at height.
func (c *Client) Block(ctx context.Context, height int64) (*BlockResponse, error) {
	if height <= 0 {
		return nil, fmt.Errorf("invalid height %d", height)
	}
	var out BlockResponse
	if err := c.getJSON(ctx, fmt.Sprintf(blockPath, height), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Tx returns an indexed transaction by hash.
func (c *Client) Tx(ctx context.Context, hash string) (*TxResponse, error) {
	var out GetTxResponse
	if err := c.getJSON(ctx, fmt.Sprintf(txPath, url.PathEscape(hash)), &out); err != nil {
		return nil, err
	}
	return &out.TxResponse, nil
}

// TxSearch describes an event query against the tx index.
type TxSearch struct {
	Query string
	Page  int
	Limit int
	// Desc orders newest first
	Desc bool
}

// SearchTxs runs a tx event query, e.g. "message.sender='kii1...'".
func (c *Client) SearchTxs(ctx context.Context, s TxSearch) (*TxSearchResponse, error) {
	q := url.Values{}
	q.Set("query", s.Query)
	if s.Page > 0 {
		q.Set("page", strconv.Itoa(s.Page))
	}
	if s.Limit > 0 {
		q.Set("limit", strconv.Itoa(s.Limit))
	}
	if s.Desc {
		q.Set("order_by", "ORDER_BY_DESC")
	}

	var out TxSearchResponse
	if err := c.getJSON(ctx, txSearchPath+"?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Balances returns every bank coin held by address.
func (c *Client) Balances(ctx context.Context, address string) ([]Coin, error) {
	return listAll(ctx, c, fmt.Sprintf(balancesPath, url.PathEscape(address)), nil,
		func(r *balancesResponse) ([]Coin, string) { return r.Balances, r.Pagination.NextKey })
}

// SupplyOf returns the total supply of denom.
func (c *Client) SupplyOf(ctx context.Context, denom string) (Coin, error) {
	q := url.Values{}
	q.Set("denom", denom)
	var out supplyOfResponse
	if err := c.getJSON(ctx, supplyOfPath+"?"+q.Encode(), &out); err != nil {
		return Coin{}, err
	}
	if out.Amount.Denom == "" {
		out.Amount.Denom = denom
	}
	return out.Amount, nil
}

// listAll follows pagination.next_key until the last page. params is not
// modified.
func listAll[R any, T any](ctx context.Context, c *Client, path string, params url.Values, page func(*R) ([]T, string)) ([]T, error) {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}

	var all []T
	for i := 0; i < maxPages; i++ {
		full := path
		if enc := q.Encode(); enc != "" {
			full += "?" + enc
		}

		var r R
		if err := c.getJSON(ctx, full, &r); err != nil {
			return nil, err
		}
		items, next := page(&r)
		all = append(all, items...)
		if next == "" {
			return all, nil
		}
		q.Set("pagination.key", next)
	}
	return nil, fmt.Errorf("%s: more than %d pages", path, maxPages)
}
