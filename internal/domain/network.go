package domain

import (
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

type NativeCurrency struct {
	Name     string
	Symbol   string
	Decimals uint8
}

// NetworkDescriptor carries everything an agent needs to add the network.
type NetworkDescriptor struct {
	ChainID     *big.Int
	Name        string
	Currency    NativeCurrency
	RPCURLs     []string
	ExplorerURL string
}

// PolygonAmoy is the default ledger network.
var PolygonAmoy = NetworkDescriptor{
	ChainID: big.NewInt(80002),
	Name:    "Polygon Amoy",
	Currency: NativeCurrency{
		Name:     "POL",
		Symbol:   "POL",
		Decimals: 18,
	},
	RPCURLs:     []string{"https://rpc-amoy.polygon.technology"},
	ExplorerURL: "https://amoy.polygonscan.com",
}

func (n NetworkDescriptor) Validate() error {
	if n.ChainID == nil || n.ChainID.Sign() <= 0 {
		return errors.New("network chain id must be positive")
	}
	if strings.TrimSpace(n.Name) == "" {
		return errors.New("network name is required")
	}
	if strings.TrimSpace(n.Currency.Symbol) == "" {
		return errors.New("network currency symbol is required")
	}
	if len(n.RPCURLs) == 0 {
		return errors.New("at least one network rpc url is required")
	}
	for _, raw := range append(append([]string{}, n.RPCURLs...), n.ExplorerURL) {
		if raw == "" {
			continue
		}
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Host == "" {
			return fmt.Errorf("invalid network url %q", raw)
		}
	}

	return nil
}

func (n NetworkDescriptor) ChainIDHex() string {
	if n.ChainID == nil {
		return ""
	}
	return hexutil.EncodeBig(n.ChainID)
}

func (n NetworkDescriptor) Matches(chainID *big.Int) bool {
	if n.ChainID == nil || chainID == nil {
		return false
	}
	return n.ChainID.Cmp(chainID) == 0
}
