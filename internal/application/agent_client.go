package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/bnema/poolwallet-cli/internal/domain"
	"github.com/bnema/poolwallet-cli/internal/ports"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
)

// Agent methods used by this package.
const (
	methodAccounts        = "eth_accounts"
	methodRequestAccounts = "eth_requestAccounts"
	methodChainID         = "eth_chainId"
	methodSwitchChain     = "wallet_switchEthereumChain"
	methodAddChain        = "wallet_addEthereumChain"
	methodPersonalSign    = "personal_sign"
	methodSendTransaction = "eth_sendTransaction"
)

var errInvalidAgentResponse = errors.New("invalid agent response")

// callAgent checks the optional capability report before issuing a request.
func callAgent(ctx context.Context, agent ports.Agent, method string, params ...any) (json.RawMessage, error) {
	if agent == nil {
		return nil, domain.ErrAgentNotFound
	}
	if reporter, ok := agent.(ports.CapabilityReporter); ok && !reporter.Supports(method) {
		return nil, fmt.Errorf("%s: %w", method, domain.ErrCapabilityMissing)
	}

	return agent.Request(ctx, method, params...)
}

func readAccounts(ctx context.Context, agent ports.Agent, method string) ([]string, error) {
	raw, err := callAgent(ctx, agent, method)
	if err != nil {
		return nil, err
	}

	return decodeAccounts(raw)
}

func decodeAccounts(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var accounts []string
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return nil, fmt.Errorf("decode accounts: %w: %w", errInvalidAgentResponse, err)
	}

	return accounts, nil
}

func readChainID(ctx context.Context, agent ports.Agent) (*big.Int, error) {
	raw, err := callAgent(ctx, agent, methodChainID)
	if err != nil {
		return nil, err
	}

	return decodeChainID(raw)
}

// decodeChainID accepts a hex or decimal string, or a bare JSON number.
func decodeChainID(raw json.RawMessage) (*big.Int, error) {
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		var number json.Number
		if numErr := json.Unmarshal(raw, &number); numErr != nil {
			return nil, fmt.Errorf("decode chain id: %w: %w", errInvalidAgentResponse, err)
		}
		text = number.String()
	}

	chainID, ok := math.ParseBig256(strings.TrimSpace(text))
	if !ok || chainID.Sign() <= 0 {
		return nil, fmt.Errorf("decode chain id %q: %w", text, errInvalidAgentResponse)
	}

	return chainID, nil
}

func checksumAddress(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if !common.IsHexAddress(trimmed) {
		return "", fmt.Errorf("account %q: %w", raw, errInvalidAgentResponse)
	}

	return common.HexToAddress(trimmed).Hex(), nil
}

func decodeTxHash(raw json.RawMessage) (common.Hash, error) {
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return common.Hash{}, fmt.Errorf("decode transaction hash: %w: %w", errInvalidAgentResponse, err)
	}

	decoded, err := hexutil.Decode(text)
	if err != nil || len(decoded) != common.HashLength {
		return common.Hash{}, fmt.Errorf("transaction hash %q: %w", text, errInvalidAgentResponse)
	}

	return common.BytesToHash(decoded), nil
}

func decodeJSONString(raw json.RawMessage, out *string) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %w", errInvalidAgentResponse, err)
	}
	return nil
}
