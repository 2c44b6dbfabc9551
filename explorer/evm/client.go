// Package evm reads contract state from the EVM JSON-RPC side of the chain.
package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "evm").Logger()
}

// SetLogger allows setting a custom logger
func SetLogger(l zerolog.Logger) {
	log = l.With().Str("component", "evm").Logger()
}

// ErrNoEndpoints is returned when no JSON-RPC URL could be dialed.
var ErrNoEndpoints = errors.New("no EVM JSON-RPC endpoint available")

type endpoint struct {
	url    string
	client *ethclient.Client
}

// Client talks to one or more EVM JSON-RPC endpoints, trying them in order.
type Client struct {
	endpoints   []endpoint
	callTimeout time.Duration
}

// Dial connects to every url. Unreachable urls are skipped; at least one
// must succeed.
func Dial(ctx context.Context, urls []string, connectTimeout, callTimeout time.Duration) (*Client, error) {
	c := &Client{callTimeout: callTimeout}
	var lastErr error

	for _, u := range urls {
		dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		client, err := ethclient.DialContext(dialCtx, u)
		cancel()
		if err != nil {
			lastErr = fmt.Errorf("failed to connect to RPC %s: %w", u, err)
			log.Warn().Err(err).Str("url", u).Msg("Skipping EVM endpoint")
			continue
		}
		c.endpoints = append(c.endpoints, endpoint{url: u, client: client})
	}

	if len(c.endpoints) == 0 {
		if lastErr == nil {
			return nil, ErrNoEndpoints
		}
		return nil, fmt.Errorf("%w: %w", ErrNoEndpoints, lastErr)
	}
	return c, nil
}

// Close releases every connection.
func (c *Client) Close() {
	for _, e := range c.endpoints {
		e.client.Close()
	}
}

// each calls fn against every endpoint until one succeeds.
func (c *Client) each(ctx context.Context, fn func(ctx context.Context, e endpoint) error) error {
	var lastErr error
	for _, e := range c.endpoints {
		callCtx := ctx
		var cancel context.CancelFunc = func() {}
		if c.callTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, c.callTimeout)
		}
		err := fn(callCtx, e)
		cancel()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = fmt.Errorf("%s: %w", e.url, err)
		log.Debug().Err(err).Str("url", e.url).Msg("EVM call failed, trying next endpoint")
	}
	if lastErr == nil {
		return ErrNoEndpoints
	}
	return lastErr
}

// ChainID returns the EIP-155 chain id.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	var id *big.Int
	err := c.each(ctx, func(ctx context.Context, e endpoint) error {
		var err error
		id, err = e.client.ChainID(ctx)
		return err
	})
	return id, err
}

// Probe fetches code and native balance of addr in a single batch.
func (c *Client) Probe(ctx context.Context, addr common.Address) ([]byte, *big.Int, error) {
	var (
		code    hexutil.Bytes
		balance *hexutil.Big
	)
	err := c.each(ctx, func(ctx context.Context, e endpoint) error {
		batch := []rpc.BatchElem{
			{Method: "eth_getCode", Args: []any{addr, "latest"}, Result: &code},
			{Method: "eth_getBalance", Args: []any{addr, "latest"}, Result: &balance},
		}
		if err := e.client.Client().BatchCallContext(ctx, batch); err != nil {
			return fmt.Errorf("RPC batch call failed: %w", err)
		}
		for _, b := range batch {
			if b.Error != nil {
				return fmt.Errorf("%s: %w", b.Method, b.Error)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	bal := big.NewInt(0)
	if balance != nil {
		bal = (*big.Int)(balance)
	}
	return code, bal, nil
}
