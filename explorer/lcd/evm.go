package lcd

import (
	"context"
	"net/url"
	"strings"
)

// DefaultAssociationPath is the x/vm route that maps an EVM address to its
// bech32 account.
const DefaultAssociationPath = "/cosmos/evm/vm/v1/cosmos_account/{address}"

// CosmosAccount asks the chain for the bech32 account associated with an EVM
// address. pathTemplate must contain "{address}". An empty result means the
// chain reports no association.
func (c *Client) CosmosAccount(ctx context.Context, pathTemplate, evmAddress string) (string, error) {
	if pathTemplate == "" {
		pathTemplate = DefaultAssociationPath
	}
	path := strings.ReplaceAll(pathTemplate, "{address}", url.PathEscape(evmAddress))

	var out cosmosAccountResponse
	if err := c.getJSON(ctx, path, &out); err != nil {
		return "", err
	}
	return out.CosmosAddress, nil
}
