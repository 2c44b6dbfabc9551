package lcd

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	denomTracePath = "/ibc/apps/transfer/v1/denom_traces/%s"
	denomPath      = "/ibc/apps/transfer/v1/denoms/%s"
)

// IsIBCDenom reports whether denom is an ICS-20 voucher ("ibc/<hash>").
func IsIBCDenom(denom string) bool {
	return strings.HasPrefix(denom, "ibc/") && len(denom) > 4
}

// ComputeDenomHash returns the voucher denom of a full trace such as
// "transfer/channel-0/uatom".
func ComputeDenomHash(trace string) string {
	hash := sha256.Sum256([]byte(trace))
	return "ibc/" + strings.ToUpper(hex.EncodeToString(hash[:]))
}

// Hops splits the trace path into port/channel pairs.
func (t DenomTrace) Hops() []string {
	segments := strings.Split(t.Path, "/")
	hops := make([]string, 0, len(segments)/2)
	for i := 0; i+1 < len(segments); i += 2 {
		hops = append(hops, segments[i]+"/"+segments[i+1])
	}
	return hops
}

// IBCDenom recomputes the voucher denom of the trace.
func (t DenomTrace) IBCDenom() string {
	if t.Path == "" {
		return t.BaseDenom
	}
	return ComputeDenomHash(t.Path + "/" + t.BaseDenom)
}

// DenomTrace resolves an "ibc/<hash>" denom (or the bare hash). Chains that
// dropped the denom_traces route are asked through the newer denoms route.
func (c *Client) DenomTrace(ctx context.Context, denom string) (*DenomTrace, error) {
	hash := strings.TrimPrefix(denom, "ibc/")
	if hash == "" {
		return nil, fmt.Errorf("empty denom hash")
	}

	var out denomTraceResponse
	err := c.getJSON(ctx, fmt.Sprintf(denomTracePath, hash), &out)
	if err == nil {
		return &out.DenomTrace, nil
	}
	if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrUnexpectedStatus) {
		return nil, err
	}

	var v2 denomResponse
	if err2 := c.getJSON(ctx, fmt.Sprintf(denomPath, hash), &v2); err2 != nil {
		return nil, fmt.Errorf("%w (denom_traces: %v)", err2, err)
	}
	hops := make([]string, 0, len(v2.Denom.Trace))
	for _, h := range v2.Denom.Trace {
		hops = append(hops, h.PortID+"/"+h.ChannelID)
	}
	return &DenomTrace{Path: strings.Join(hops, "/"), BaseDenom: v2.Denom.Base}, nil
}
