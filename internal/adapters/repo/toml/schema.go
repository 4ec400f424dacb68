package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version int            `toml:"version"`
	Session *sessionSchema `toml:"session,omitempty"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported session schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type sessionSchema struct {
	Address     string `toml:"address"`
	AgentKind   string `toml:"agent_kind"`
	IsConnected bool   `toml:"is_connected"`
	ChainID     string `toml:"chain_id,omitempty"`
	SavedAt     string `toml:"saved_at,omitempty"`
}
