// Package rpc talks to a signing agent exposed as a JSON-RPC endpoint, such
// as a browser-extension bridge or a local wallet daemon.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/poolwallet-cli/internal/domain"
	"github.com/bnema/poolwallet-cli/internal/ports"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

// Agent forwards EIP-1193 requests over a go-ethereum RPC client.
type Agent struct {
	client  *gethrpc.Client
	methods map[string]bool
}

var (
	_ ports.Agent              = (*Agent)(nil)
	_ ports.CapabilityReporter = (*Agent)(nil)
)

type Option func(*Agent)

// WithMethods restricts the methods the agent reports as supported. Without
// it every method is attempted.
func WithMethods(methods ...string) Option {
	return func(a *Agent) {
		for _, method := range methods {
			if method = strings.TrimSpace(method); method != "" {
				a.methods[method] = true
			}
		}
	}
}

func NewAgent(client *gethrpc.Client, opts ...Option) *Agent {
	a := &Agent{client: client, methods: map[string]bool{}}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Dial connects to endpoint. ws:// and ipc endpoints also carry events.
func Dial(ctx context.Context, endpoint string, opts ...Option) (*Agent, error) {
	client, err := gethrpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("dial signing agent %q: %w", endpoint, err)
	}
	return NewAgent(client, opts...), nil
}

func (a *Agent) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	var result json.RawMessage
	if err := a.client.CallContext(ctx, &result, method, params...); err != nil {
		return nil, translateError(err)
	}
	return result, nil
}

func (a *Agent) Supports(method string) bool {
	if len(a.methods) == 0 {
		return true
	}
	return a.methods[method]
}

func (a *Agent) Close() {
	a.client.Close()
}

// translateError turns JSON-RPC error objects into domain.AgentError and
// leaves transport and context errors untouched.
func translateError(err error) error {
	var rpcErr gethrpc.Error
	if !errors.As(err, &rpcErr) {
		return err
	}

	agentErr := &domain.AgentError{Code: rpcErr.ErrorCode(), Message: rpcErr.Error()}

	var dataErr gethrpc.DataError
	if errors.As(err, &dataErr) && dataErr.ErrorData() != nil {
		if raw, marshalErr := json.Marshal(dataErr.ErrorData()); marshalErr == nil {
			agentErr.Data = raw
		}
	}

	return agentErr
}
