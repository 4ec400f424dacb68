package application

import (
	"context"
	"encoding/json"
	"math/big"
	"sync"

	"github.com/bnema/poolwallet-cli/internal/domain"
	"github.com/bnema/poolwallet-cli/internal/ports"
	"go.uber.org/zap"
)

// ChainResetHook is called after the agent reports a chain change. The
// surrounding application resets whatever depends on the active chain.
type ChainResetHook func(chainID *big.Int)

// sessionTransitions is the set of session methods the bridge drives. Every
// event-triggered mutation goes through them.
type sessionTransitions interface {
	primaryAccountChanged(handleID string, account string) (domain.AgentKind, bool)
	reauthorize(ctx context.Context, kind domain.AgentKind) (domain.Connection, error)
	recordChain(handleID string, chainID *big.Int) bool
	externalDisconnect(ctx context.Context, handleID string, reason string)
}

// EventBridge reconciles agent events into session transitions. It attaches
// at most once per agent handle.
type EventBridge struct {
	logger *zap.Logger

	mu       sync.Mutex
	session  sessionTransitions
	attached string
	removers []func()
	hooks    map[uint64]ChainResetHook
	nextHook uint64
	inflight sync.WaitGroup
}

func NewEventBridge(logger *zap.Logger) *EventBridge {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &EventBridge{logger: logger, hooks: map[uint64]ChainResetHook{}}
}

func (b *EventBridge) bind(session sessionTransitions) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.session = session
}

// Attach registers handlers on the handle's event source. It returns false
// when the handle is already attached or exposes no events. Attaching a
// different handle detaches the previous one first.
func (b *EventBridge) Attach(handle AgentHandle) bool {
	if handle.Events == nil {
		return false
	}

	b.mu.Lock()
	if b.attached == handle.ID {
		b.mu.Unlock()
		return false
	}
	previous := b.removers
	b.removers = nil
	b.attached = handle.ID
	b.mu.Unlock()

	for _, remove := range previous {
		remove()
	}

	removers := []func(){
		handle.Events.On(ports.EventAccountsChanged, func(payload json.RawMessage) { b.onAccountsChanged(handle, payload) }),
		handle.Events.On(ports.EventChainChanged, func(payload json.RawMessage) { b.onChainChanged(handle, payload) }),
		handle.Events.On(ports.EventConnect, func(payload json.RawMessage) { b.onConnect(handle, payload) }),
		handle.Events.On(ports.EventDisconnect, func(payload json.RawMessage) { b.onDisconnect(handle, payload) }),
	}

	b.mu.Lock()
	if b.attached != handle.ID {
		// Detached while registering.
		b.mu.Unlock()
		for _, remove := range removers {
			remove()
		}
		return false
	}
	b.removers = removers
	b.mu.Unlock()

	b.logger.Debug("event bridge attached", zap.String("handle", handle.ID))
	return true
}

func (b *EventBridge) Detach() {
	b.mu.Lock()
	removers := b.removers
	attached := b.attached
	b.removers = nil
	b.attached = ""
	b.mu.Unlock()

	for _, remove := range removers {
		remove()
	}
	if attached != "" {
		b.logger.Debug("event bridge detached", zap.String("handle", attached))
	}
}

// Attached returns the id of the attached handle, or "".
func (b *EventBridge) Attached() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attached
}

func (b *EventBridge) OnChainReset(hook ChainResetHook) (remove func()) {
	if hook == nil {
		return func() {}
	}

	b.mu.Lock()
	b.nextHook++
	id := b.nextHook
	b.hooks[id] = hook
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.hooks, id)
	}
}

// Wait blocks until reconnections started by account switches finish.
func (b *EventBridge) Wait() {
	b.inflight.Wait()
}

func (b *EventBridge) target() sessionTransitions {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session
}

func (b *EventBridge) onAccountsChanged(handle AgentHandle, payload json.RawMessage) {
	session := b.target()
	if session == nil {
		return
	}

	accounts, err := decodeAccounts(payload)
	if err != nil {
		b.logger.Warn("ignoring malformed accountsChanged event", zap.Error(err))
		return
	}
	if len(accounts) == 0 {
		session.externalDisconnect(context.Background(), handle.ID, "accounts cleared")
		return
	}

	kind, changed := session.primaryAccountChanged(handle.ID, accounts[0])
	if !changed {
		return
	}

	b.logger.Info("primary account changed, reauthorizing", zap.String("handle", handle.ID))
	b.inflight.Add(1)
	go func() {
		defer b.inflight.Done()
		if _, err := session.reauthorize(context.Background(), kind); err != nil {
			b.logger.Warn("reauthorization after account switch failed", zap.Error(err))
		}
	}()
}

func (b *EventBridge) onChainChanged(handle AgentHandle, payload json.RawMessage) {
	chainID, err := decodeChainID(payload)
	if err != nil {
		b.logger.Warn("malformed chainChanged event", zap.Error(err))
	}

	if session := b.target(); session != nil && chainID != nil {
		session.recordChain(handle.ID, chainID)
	}
	b.logger.Info("agent chain changed", zap.String("handle", handle.ID), zap.Stringer("chain_id", chainID))

	b.mu.Lock()
	hooks := make([]ChainResetHook, 0, len(b.hooks))
	for _, hook := range b.hooks {
		hooks = append(hooks, hook)
	}
	b.mu.Unlock()

	for _, hook := range hooks {
		hook(chainID)
	}
}

func (b *EventBridge) onConnect(handle AgentHandle, payload json.RawMessage) {
	var info struct {
		ChainID json.RawMessage `json:"chainId"`
	}
	if err := json.Unmarshal(payload, &info); err != nil || len(info.ChainID) == 0 {
		b.logger.Debug("agent connected", zap.String("handle", handle.ID))
		return
	}

	chainID, err := decodeChainID(info.ChainID)
	if err != nil {
		b.logger.Debug("agent connected with unreadable chain id", zap.String("handle", handle.ID), zap.Error(err))
		return
	}
	if session := b.target(); session != nil {
		session.recordChain(handle.ID, chainID)
	}
	b.logger.Debug("agent connected", zap.String("handle", handle.ID), zap.Stringer("chain_id", chainID))
}

func (b *EventBridge) onDisconnect(handle AgentHandle, payload json.RawMessage) {
	session := b.target()
	if session == nil {
		return
	}

	reason := "agent disconnected"
	var agentErr struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &agentErr); err == nil && agentErr.Message != "" {
		reason = agentErr.Message
	}
	session.externalDisconnect(context.Background(), handle.ID, reason)
}
