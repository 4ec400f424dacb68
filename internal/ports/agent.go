package ports

import (
	"context"
	"encoding/json"
)

// Event names emitted by signing agents.
const (
	EventAccountsChanged = "accountsChanged"
	EventChainChanged    = "chainChanged"
	EventConnect         = "connect"
	EventDisconnect      = "disconnect"
)

// Agent is an EIP-1193 style request channel to a signing agent.
type Agent interface {
	Request(ctx context.Context, method string, params ...any) (json.RawMessage, error)
}

// EventSource delivers agent events. The returned func removes the handler.
type EventSource interface {
	On(event string, handler func(payload json.RawMessage)) (remove func())
}

// CapabilityReporter is implemented by agents that can tell ahead of time
// whether a method is supported.
type CapabilityReporter interface {
	Supports(method string) bool
}
