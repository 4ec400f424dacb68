package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/bnema/poolwallet-cli/internal/domain"
	"github.com/bnema/poolwallet-cli/internal/ports"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

const subscriptionNamespace = "wallet"

// Events relays agent events delivered as wallet_subscribe notifications.
// Subscriptions are opened on the first handler for an event and closed with
// the last one. A broken transport is reported once as a disconnect event.
type Events struct {
	client *gethrpc.Client
	logger *zap.Logger

	mu       sync.Mutex
	nextID   uint64
	handlers map[string]map[uint64]func(json.RawMessage)
	subs     map[string]*gethrpc.ClientSubscription
	lost     bool
	closed   bool
	wg       sync.WaitGroup
}

var _ ports.EventSource = (*Events)(nil)

func NewEvents(client *gethrpc.Client, logger *zap.Logger) *Events {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Events{
		client:   client,
		logger:   logger,
		handlers: map[string]map[uint64]func(json.RawMessage){},
		subs:     map[string]*gethrpc.ClientSubscription{},
	}
}

func (e *Events) On(event string, handler func(json.RawMessage)) (remove func()) {
	if handler == nil {
		return func() {}
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return func() {}
	}
	e.nextID++
	id := e.nextID
	if e.handlers[event] == nil {
		e.handlers[event] = map[uint64]func(json.RawMessage){}
	}
	e.handlers[event][id] = handler
	needsSub := e.subs[event] == nil && !e.lost
	e.mu.Unlock()

	if needsSub {
		e.subscribe(event)
	}

	var once sync.Once
	return func() {
		once.Do(func() { e.remove(event, id) })
	}
}

func (e *Events) subscribe(event string) {
	payloads := make(chan json.RawMessage, 8)
	sub, err := e.client.Subscribe(context.Background(), subscriptionNamespace, payloads, event)
	if err != nil {
		if errors.Is(err, gethrpc.ErrNotificationsUnsupported) {
			e.logger.Debug("agent transport carries no events", zap.String("event", event))
		} else {
			e.logger.Warn("subscribing to agent event failed", zap.String("event", event), zap.Error(err))
		}
		return
	}

	e.mu.Lock()
	if e.closed || e.subs[event] != nil || len(e.handlers[event]) == 0 {
		e.mu.Unlock()
		sub.Unsubscribe()
		return
	}
	e.subs[event] = sub
	e.wg.Add(1)
	e.mu.Unlock()

	go e.pump(event, sub, payloads)
}

func (e *Events) pump(event string, sub *gethrpc.ClientSubscription, payloads <-chan json.RawMessage) {
	defer e.wg.Done()

	for {
		select {
		case payload := <-payloads:
			e.dispatch(event, payload)
		case err, ok := <-sub.Err():
			if !ok || err == nil {
				return
			}
			e.transportLost(event, err)
			return
		}
	}
}

func (e *Events) transportLost(event string, err error) {
	e.mu.Lock()
	delete(e.subs, event)
	first := !e.lost && !e.closed
	e.lost = true
	e.mu.Unlock()

	if !first {
		return
	}

	e.logger.Warn("agent event stream lost", zap.String("event", event), zap.Error(err))
	payload, _ := json.Marshal(struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}{Code: domain.CodeDisconnected, Message: err.Error()})
	e.dispatch(ports.EventDisconnect, payload)
}

func (e *Events) dispatch(event string, payload json.RawMessage) {
	e.mu.Lock()
	targets := make([]func(json.RawMessage), 0, len(e.handlers[event]))
	for _, handler := range e.handlers[event] {
		targets = append(targets, handler)
	}
	e.mu.Unlock()

	for _, handler := range targets {
		handler(payload)
	}
}

func (e *Events) remove(event string, id uint64) {
	e.mu.Lock()
	delete(e.handlers[event], id)
	var sub *gethrpc.ClientSubscription
	if len(e.handlers[event]) == 0 {
		sub = e.subs[event]
		delete(e.subs, event)
	}
	e.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
}

// Close drops every subscription and waits for pumps to exit.
func (e *Events) Close() {
	e.mu.Lock()
	e.closed = true
	subs := make([]*gethrpc.ClientSubscription, 0, len(e.subs))
	for event, sub := range e.subs {
		subs = append(subs, sub)
		delete(e.subs, event)
	}
	e.handlers = map[string]map[uint64]func(json.RawMessage){}
	e.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
	e.wg.Wait()
}
