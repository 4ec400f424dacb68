// Package ledger reads the EVM network through go-ethereum's ethclient.
package ledger

import (
	"context"
	"fmt"

	"github.com/bnema/poolwallet-cli/internal/domain"
	"github.com/bnema/poolwallet-cli/internal/ports"
	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

type Client struct {
	*ethclient.Client
}

var _ ports.Ledger = (*Client)(nil)

// Dial connects to a ledger RPC endpoint. Log subscriptions need a ws://
// endpoint; over HTTP they fail with rpc.ErrNotificationsUnsupported.
func Dial(ctx context.Context, endpoint string) (*Client, error) {
	rpcClient, err := gethrpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("dial ledger: %w", err)
	}
	return NewClient(rpcClient), nil
}

func NewClient(rpcClient *gethrpc.Client) *Client {
	return &Client{Client: ethclient.NewClient(rpcClient)}
}

// VerifyNetwork checks that the endpoint serves the configured chain.
func (c *Client) VerifyNetwork(ctx context.Context, network domain.NetworkDescriptor) error {
	chainID, err := c.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("read ledger chain id: %w", err)
	}
	if !network.Matches(chainID) {
		return fmt.Errorf("ledger endpoint serves chain %s, want %s: %w", chainID, network.ChainID, domain.ErrWrongNetwork)
	}
	return nil
}
