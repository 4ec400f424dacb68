package domain

import (
	"math/big"
	"strings"
	"time"
)

type SessionState string

const (
	StateDisconnected    SessionState = "disconnected"
	StateConnecting      SessionState = "connecting"
	StateNetworkChecking SessionState = "network_checking"
	StateConnected       SessionState = "connected"
)

// Pending reports whether a handshake is in flight.
func (s SessionState) Pending() bool {
	return s == StateConnecting || s == StateNetworkChecking
}

type Connection struct {
	// Address is EIP-55 checksummed.
	Address     string
	ChainID     *big.Int
	AgentKind   AgentKind
	IsConnected bool
}

func (c Connection) Clone() Connection {
	if c.ChainID != nil {
		c.ChainID = new(big.Int).Set(c.ChainID)
	}
	return c
}

func (c Connection) SameAddress(address string) bool {
	return strings.EqualFold(strings.TrimSpace(c.Address), strings.TrimSpace(address))
}

// Snapshot is the persisted subset of a Connection. It only decides whether a
// silent reconnection probe is attempted.
type Snapshot struct {
	Address     string
	AgentKind   AgentKind
	IsConnected bool
	ChainID     *big.Int
	SavedAt     time.Time
}

func SnapshotFromConnection(c Connection, savedAt time.Time) Snapshot {
	c = c.Clone()
	return Snapshot{
		Address:     c.Address,
		AgentKind:   c.AgentKind,
		IsConnected: c.IsConnected,
		ChainID:     c.ChainID,
		SavedAt:     savedAt,
	}
}
