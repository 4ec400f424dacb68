package domain

import (
	"fmt"
	"strings"
)

// AgentKind identifies the class of signing agent backing a session.
type AgentKind string

const (
	AgentMetaMask AgentKind = "metamask"
	AgentCoinbase AgentKind = "coinbase"
)

const (
	FlagMetaMask       = "isMetaMask"
	FlagCoinbaseWallet = "isCoinbaseWallet"
)

func ParseAgentKind(raw string) (AgentKind, error) {
	kind := AgentKind(strings.ToLower(strings.TrimSpace(raw)))
	if !kind.Valid() {
		return "", fmt.Errorf("unsupported agent kind %q", raw)
	}

	return kind, nil
}

func (k AgentKind) Valid() bool {
	switch k {
	case AgentMetaMask, AgentCoinbase:
		return true
	default:
		return false
	}
}

func (k AgentKind) DisplayName() string {
	switch k {
	case AgentMetaMask:
		return "MetaMask"
	case AgentCoinbase:
		return "Coinbase Wallet"
	default:
		return string(k)
	}
}

// IdentityFlag is the self-declared flag a provider of this kind sets.
func (k AgentKind) IdentityFlag() string {
	switch k {
	case AgentMetaMask:
		return FlagMetaMask
	case AgentCoinbase:
		return FlagCoinbaseWallet
	default:
		return ""
	}
}

// CompetingFlag is the identity flag of the other agent kind.
func (k AgentKind) CompetingFlag() string {
	switch k {
	case AgentMetaMask:
		return FlagCoinbaseWallet
	case AgentCoinbase:
		return FlagMetaMask
	default:
		return ""
	}
}
