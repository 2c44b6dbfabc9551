package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// DefaultChainProfile is the KiiChain Oro testnet profile.
func DefaultChainProfile() ChainProfile {
	return ChainProfile{
		ChainID:         "oro_1336-1",
		ChainName:       "KiiChain Oro",
		EVMChainID:      1336,
		Bech32Prefix:    "kii",
		BaseDenom:       "ukii",
		DisplayDenom:    "KII",
		Decimals:        6,
		CoinType:        60,
		RPC:             "http://localhost:26657",
		Rest:            "http://localhost:1317",
		GasPrice:        GasPrice{Low: 0.01, Average: 0.025, High: 0.04},
		AssociationPath: "/cosmos/evm/vm/v1/cosmos_account/{address}",
	}
}

// LoadChainProfile reads a toml or json profile on top of the default
// profile. filePath may also be a remote source (see IsRemoteSource). An
// empty path returns the default.
func LoadChainProfile(filePath string) (*ChainProfile, error) {
	profile := DefaultChainProfile()
	if filePath == "" {
		return &profile, nil
	}

	source := filePath
	if IsRemoteSource(filePath) {
		local, cleanup, err := fetchRemote(filePath)
		if err != nil {
			return nil, err
		}
		defer cleanup()
		filePath = local
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain config file: %w", err)
	}

	if strings.HasSuffix(filePath, ".json") {
		if err := json.Unmarshal(data, &profile); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	} else {
		if err := toml.Unmarshal(data, &profile); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config: %w", err)
		}
	}

	if err := verifyChainProfile(&profile); err != nil {
		return nil, fmt.Errorf("invalid chain profile %s: %w", source, err)
	}
	return &profile, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func verifyChainProfile(p *ChainProfile) error {
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("field %s failed %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return err
	}
	return nil
}
