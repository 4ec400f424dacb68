// Package host exposes configured agent bridges as the provider slots the
// resolver inspects. Nothing is dialed until an agent is first used.
package host

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	agentrpc "github.com/bnema/poolwallet-cli/internal/adapters/agent/rpc"
	"github.com/bnema/poolwallet-cli/internal/domain"
	"github.com/bnema/poolwallet-cli/internal/ports"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

const defaultDialTimeout = 10 * time.Second

// DialFunc opens a client for an endpoint.
type DialFunc func(ctx context.Context, endpoint string) (*gethrpc.Client, error)

type Option func(*Host)

func WithDialer(dial DialFunc) Option {
	return func(h *Host) {
		if dial != nil {
			h.dial = dial
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// Host implements ports.Host from a Config. Providers sharing an endpoint
// share one connection.
type Host struct {
	clientID string
	logger   *zap.Logger
	dial     DialFunc

	injected *ports.InjectedProvider
	globals  map[string]*ports.InjectedProvider

	mu      sync.Mutex
	bridges map[string]*bridge
}

var _ ports.Host = (*Host)(nil)

func New(cfg Config, opts ...Option) *Host {
	h := &Host{
		clientID: cfg.ClientIdentifier,
		logger:   zap.NewNop(),
		dial:     gethrpc.DialContext,
		globals:  map[string]*ports.InjectedProvider{},
		bridges:  map[string]*bridge{},
	}
	for _, opt := range opts {
		opt(h)
	}

	if cfg.Injected != nil {
		h.injected = h.provider(*cfg.Injected)
	}
	for binding, provider := range cfg.Globals {
		h.globals[strings.ToLower(binding)] = h.provider(provider)
	}

	return h
}

func (h *Host) Injected() *ports.InjectedProvider {
	return h.injected
}

// Global looks bindings up case-insensitively; viper folds config keys.
func (h *Host) Global(binding string) *ports.InjectedProvider {
	return h.globals[strings.ToLower(binding)]
}

func (h *Host) ClientIdentifier() string {
	return h.clientID
}

// Close releases every dialed connection.
func (h *Host) Close() {
	h.mu.Lock()
	bridges := make([]*bridge, 0, len(h.bridges))
	for _, b := range h.bridges {
		bridges = append(bridges, b)
	}
	h.mu.Unlock()

	for _, b := range bridges {
		b.close()
	}
}

func (h *Host) provider(cfg ProviderConfig) *ports.InjectedProvider {
	p := &ports.InjectedProvider{
		Name:  cfg.Name,
		Flags: cfg.flagSet(),
	}
	if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
		b := h.bridgeFor(endpoint)
		p.Agent = &lazyAgent{bridge: b, methods: methodSet(cfg.Methods)}
		p.Events = &lazyEvents{bridge: b}
	}
	for _, sub := range cfg.Providers {
		p.Providers = append(p.Providers, h.provider(sub))
	}
	return p
}

func (h *Host) bridgeFor(endpoint string) *bridge {
	h.mu.Lock()
	defer h.mu.Unlock()

	if b, ok := h.bridges[endpoint]; ok {
		return b
	}
	b := &bridge{endpoint: endpoint, dial: h.dial, logger: h.logger}
	h.bridges[endpoint] = b
	return b
}

// bridge is one lazily dialed connection. A failed dial is not cached.
type bridge struct {
	endpoint string
	dial     DialFunc
	logger   *zap.Logger

	mu     sync.Mutex
	client *gethrpc.Client
	agent  *agentrpc.Agent
	events *agentrpc.Events
}

func (b *bridge) connect(ctx context.Context) (*agentrpc.Agent, *agentrpc.Events, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.client != nil {
		return b.agent, b.events, nil
	}

	client, err := b.dial(ctx, b.endpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("dial agent bridge %q: %w: %v", b.endpoint, domain.ErrAgentNotFound, err)
	}
	b.logger.Debug("agent bridge dialed", zap.String("endpoint", b.endpoint))

	b.client = client
	b.agent = agentrpc.NewAgent(client)
	b.events = agentrpc.NewEvents(client, b.logger)
	return b.agent, b.events, nil
}

func (b *bridge) close() {
	b.mu.Lock()
	client, events := b.client, b.events
	b.client, b.agent, b.events = nil, nil, nil
	b.mu.Unlock()

	if events != nil {
		events.Close()
	}
	if client != nil {
		client.Close()
	}
}

type lazyAgent struct {
	bridge  *bridge
	methods map[string]bool
}

var (
	_ ports.Agent              = (*lazyAgent)(nil)
	_ ports.CapabilityReporter = (*lazyAgent)(nil)
)

func (a *lazyAgent) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	agent, _, err := a.bridge.connect(ctx)
	if err != nil {
		return nil, err
	}
	return agent.Request(ctx, method, params...)
}

func (a *lazyAgent) Supports(method string) bool {
	if len(a.methods) == 0 {
		return true
	}
	return a.methods[method]
}

type lazyEvents struct {
	bridge *bridge
}

var _ ports.EventSource = (*lazyEvents)(nil)

func (e *lazyEvents) On(event string, handler func(json.RawMessage)) (remove func()) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultDialTimeout)
	defer cancel()

	_, events, err := e.bridge.connect(ctx)
	if err != nil {
		e.bridge.logger.Warn("agent events unavailable", zap.String("event", event), zap.Error(err))
		return func() {}
	}
	return events.On(event, handler)
}

func methodSet(methods []string) map[string]bool {
	set := map[string]bool{}
	for _, method := range methods {
		if method = strings.TrimSpace(method); method != "" {
			set[method] = true
		}
	}
	return set
}
