package application

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/bnema/poolwallet-cli/internal/domain"
	"github.com/bnema/poolwallet-cli/internal/ports"
	"go.uber.org/zap"
)

type switchChainParams struct {
	ChainID string `json:"chainId"`
}

type nativeCurrencyParams struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

type addChainParams struct {
	ChainID           string               `json:"chainId"`
	ChainName         string               `json:"chainName"`
	NativeCurrency    nativeCurrencyParams `json:"nativeCurrency"`
	RPCURLs           []string             `json:"rpcUrls"`
	BlockExplorerURLs []string             `json:"blockExplorerUrls,omitempty"`
}

// NetworkGuarantor keeps a signing agent on the required network.
type NetworkGuarantor struct {
	network domain.NetworkDescriptor
	logger  *zap.Logger
}

func NewNetworkGuarantor(network domain.NetworkDescriptor, logger *zap.Logger) *NetworkGuarantor {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &NetworkGuarantor{network: network, logger: logger}
}

func (g *NetworkGuarantor) Network() domain.NetworkDescriptor {
	return g.network
}

// EnsureNetwork is a no-op when the agent is already on the required chain.
func (g *NetworkGuarantor) EnsureNetwork(ctx context.Context, handle AgentHandle) error {
	_, err := g.ensure(ctx, handle.Agent)
	return err
}

func (g *NetworkGuarantor) ensure(ctx context.Context, agent ports.Agent) (*big.Int, error) {
	current, err := readChainID(ctx, agent)
	if err != nil {
		return nil, fmt.Errorf("read active chain: %w", err)
	}
	if g.network.Matches(current) {
		return current, nil
	}

	g.logger.Info("switching agent network",
		zap.String("from", current.String()),
		zap.String("to", g.network.ChainID.String()),
	)

	added := false
	if err := g.switchChain(ctx, agent); err != nil {
		if !isUnrecognizedChain(err) {
			return nil, switchFailure(err)
		}
		if err := g.addChain(ctx, agent); err != nil {
			if errors.Is(err, domain.ErrUserRejected) {
				return nil, fmt.Errorf("add network: %w", domain.ErrUserRejected)
			}
			return nil, fmt.Errorf("%w: %w", domain.ErrNetworkAddFailed, err)
		}
		added = true
	}

	current, err = readChainID(ctx, agent)
	if err != nil {
		return nil, fmt.Errorf("read active chain: %w", err)
	}
	if g.network.Matches(current) {
		return current, nil
	}

	// Some agents add the network without activating it.
	if added {
		if err := g.switchChain(ctx, agent); err != nil {
			return nil, switchFailure(err)
		}
		current, err = readChainID(ctx, agent)
		if err != nil {
			return nil, fmt.Errorf("read active chain: %w", err)
		}
		if g.network.Matches(current) {
			return current, nil
		}
	}

	return nil, fmt.Errorf("%w: agent reports chain %s, want %s", domain.ErrWrongNetwork, current, g.network.ChainID)
}

func (g *NetworkGuarantor) switchChain(ctx context.Context, agent ports.Agent) error {
	_, err := callAgent(ctx, agent, methodSwitchChain, switchChainParams{ChainID: g.network.ChainIDHex()})
	return err
}

func (g *NetworkGuarantor) addChain(ctx context.Context, agent ports.Agent) error {
	params := addChainParams{
		ChainID:   g.network.ChainIDHex(),
		ChainName: g.network.Name,
		NativeCurrency: nativeCurrencyParams{
			Name:     g.network.Currency.Name,
			Symbol:   g.network.Currency.Symbol,
			Decimals: g.network.Currency.Decimals,
		},
		RPCURLs: g.network.RPCURLs,
	}
	if g.network.ExplorerURL != "" {
		params.BlockExplorerURLs = []string{g.network.ExplorerURL}
	}

	g.logger.Info("adding network to agent", zap.String("chain", g.network.Name))
	_, err := callAgent(ctx, agent, methodAddChain, params)
	return err
}

func isUnrecognizedChain(err error) bool {
	agentErr, ok := domain.AsAgentError(err)
	return ok && agentErr.HasCode(domain.CodeUnrecognizedChain)
}

func switchFailure(err error) error {
	if errors.Is(err, domain.ErrUserRejected) {
		return fmt.Errorf("switch network: %w", domain.ErrUserRejected)
	}
	return fmt.Errorf("%w: %w", domain.ErrWrongNetwork, err)
}
