package application

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/bnema/poolwallet-cli/internal/domain"
)

type Balances struct {
	Token  *big.Int
	Native *big.Int
}

// SessionStatus is a point-in-time view used by status output.
type SessionStatus struct {
	State      domain.SessionState `json:"state" yaml:"state"`
	Connection *ConnectionView     `json:"connection,omitempty" yaml:"connection,omitempty"`
	Snapshot   *SnapshotView       `json:"snapshot,omitempty" yaml:"snapshot,omitempty"`
	Network    NetworkView         `json:"network" yaml:"network"`
}

type ConnectionView struct {
	Address   string           `json:"address" yaml:"address"`
	ChainID   string           `json:"chain_id" yaml:"chain_id"`
	AgentKind domain.AgentKind `json:"agent_kind" yaml:"agent_kind"`
}

type SnapshotView struct {
	Address   string           `json:"address" yaml:"address"`
	ChainID   string           `json:"chain_id" yaml:"chain_id"`
	AgentKind domain.AgentKind `json:"agent_kind" yaml:"agent_kind"`
	SavedAt   string           `json:"saved_at,omitempty" yaml:"saved_at,omitempty"`
}

type NetworkView struct {
	ChainID string `json:"chain_id" yaml:"chain_id"`
	Name    string `json:"name" yaml:"name"`
}

// Status reports the live session and the persisted snapshot.
func (s *SessionService) Status(ctx context.Context) (SessionStatus, error) {
	network := s.Network()
	status := SessionStatus{
		State:   s.State(),
		Network: NetworkView{ChainID: bigString(network.ChainID), Name: network.Name},
	}

	if conn, ok := s.Current(); ok {
		status.Connection = &ConnectionView{
			Address:   conn.Address,
			ChainID:   bigString(conn.ChainID),
			AgentKind: conn.AgentKind,
		}
	}

	snapshot, err := s.snapshots.Load(ctx)
	switch {
	case err == nil:
		view := &SnapshotView{
			Address:   snapshot.Address,
			ChainID:   bigString(snapshot.ChainID),
			AgentKind: snapshot.AgentKind,
		}
		if !snapshot.SavedAt.IsZero() {
			view.SavedAt = snapshot.SavedAt.UTC().Format(time.RFC3339)
		}
		status.Snapshot = view
	case errors.Is(err, domain.ErrSnapshotNotFound):
	default:
		return SessionStatus{}, err
	}

	return status, nil
}

func bigString(v *big.Int) string {
	if v == nil {
		return ""
	}
	return v.String()
}
