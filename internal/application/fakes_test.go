package application

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bnema/poolwallet-cli/internal/adapters/contracts"
	"github.com/bnema/poolwallet-cli/internal/domain"
	"github.com/bnema/poolwallet-cli/internal/ports"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testAddress      = "0x1111111111111111111111111111111111111111"
	otherTestAddress = "0x2222222222222222222222222222222222222222"
)

var (
	testToken = common.HexToAddress("0x000000000000000000000000000000000000a0a0")
	testPool  = common.HexToAddress("0x000000000000000000000000000000000000b0b0")
)

type agentCall struct {
	method string
	params []any
}

type agentHandler func(ctx context.Context, params []any) (any, error)

// fakeAgent answers requests from per-method handlers. Unknown methods fail
// with -32601.
type fakeAgent struct {
	mu          sync.Mutex
	handlers    map[string]agentHandler
	calls       []agentCall
	unsupported map[string]bool
}

func newFakeAgent() *fakeAgent {
	return &fakeAgent{handlers: map[string]agentHandler{}, unsupported: map[string]bool{}}
}

func (a *fakeAgent) on(method string, handler agentHandler) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handlers[method] = handler
}

func (a *fakeAgent) reply(method string, value any) {
	a.on(method, func(context.Context, []any) (any, error) { return value, nil })
}

func (a *fakeAgent) fail(method string, err error) {
	a.on(method, func(context.Context, []any) (any, error) { return nil, err })
}

func (a *fakeAgent) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	a.mu.Lock()
	a.calls = append(a.calls, agentCall{method: method, params: params})
	handler := a.handlers[method]
	a.mu.Unlock()

	if handler == nil {
		return nil, &domain.AgentError{Code: domain.CodeMethodNotFound, Message: "method not found"}
	}
	value, err := handler(ctx, params)
	if err != nil {
		return nil, err
	}
	return json.Marshal(value)
}

func (a *fakeAgent) methods() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.calls))
	for _, call := range a.calls {
		out = append(out, call.method)
	}
	return out
}

func (a *fakeAgent) count(method string) int {
	n := 0
	for _, m := range a.methods() {
		if m == method {
			n++
		}
	}
	return n
}

// capableAgent adds a capability report to fakeAgent.
type capableAgent struct {
	*fakeAgent
}

func (a capableAgent) Supports(method string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return !a.unsupported[method]
}

// fakeWallet is a fakeAgent backed by account and chain state.
type fakeWallet struct {
	*fakeAgent

	mu         sync.Mutex
	accounts   []string
	authorized bool
	chainID    int64
	known      map[int64]bool
}

func newFakeWallet(address string, chainID int64) *fakeWallet {
	w := &fakeWallet{
		fakeAgent: newFakeAgent(),
		accounts:  []string{address},
		chainID:   chainID,
		known:     map[int64]bool{chainID: true},
	}

	w.on(methodAccounts, func(context.Context, []any) (any, error) {
		w.mu.Lock()
		defer w.mu.Unlock()
		if !w.authorized {
			return []string{}, nil
		}
		return w.accounts, nil
	})
	w.on(methodRequestAccounts, func(context.Context, []any) (any, error) {
		w.mu.Lock()
		defer w.mu.Unlock()
		w.authorized = true
		return w.accounts, nil
	})
	w.on(methodChainID, func(context.Context, []any) (any, error) {
		w.mu.Lock()
		defer w.mu.Unlock()
		return hexutil.EncodeBig(big.NewInt(w.chainID)), nil
	})
	w.on(methodSwitchChain, func(_ context.Context, params []any) (any, error) {
		target := params[0].(switchChainParams)
		id, err := hexutil.DecodeBig(target.ChainID)
		if err != nil {
			return nil, err
		}
		w.mu.Lock()
		defer w.mu.Unlock()
		if !w.known[id.Int64()] {
			return nil, &domain.AgentError{Code: domain.CodeUnrecognizedChain, Message: "Unrecognized chain ID"}
		}
		w.chainID = id.Int64()
		return nil, nil
	})
	w.on(methodAddChain, func(_ context.Context, params []any) (any, error) {
		added := params[0].(addChainParams)
		id, err := hexutil.DecodeBig(added.ChainID)
		if err != nil {
			return nil, err
		}
		w.mu.Lock()
		defer w.mu.Unlock()
		w.known[id.Int64()] = true
		w.chainID = id.Int64()
		return nil, nil
	})

	return w
}

func (w *fakeWallet) setAuthorized(v bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.authorized = v
}

func (w *fakeWallet) currentChain() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.chainID
}

// fakeEvents is an in-memory event emitter. Handlers run outside the lock so
// they may remove themselves.
type fakeEvents struct {
	mu       sync.Mutex
	next     int
	handlers map[string]map[int]func(json.RawMessage)
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{handlers: map[string]map[int]func(json.RawMessage){}}
}

func (e *fakeEvents) On(event string, handler func(json.RawMessage)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.next++
	id := e.next
	if e.handlers[event] == nil {
		e.handlers[event] = map[int]func(json.RawMessage){}
	}
	e.handlers[event][id] = handler
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.handlers[event], id)
	}
}

func (e *fakeEvents) emit(t *testing.T, event string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	e.mu.Lock()
	handlers := make([]func(json.RawMessage), 0, len(e.handlers[event]))
	for _, h := range e.handlers[event] {
		handlers = append(handlers, h)
	}
	e.mu.Unlock()

	for _, h := range handlers {
		h(raw)
	}
}

func (e *fakeEvents) count(event string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.handlers[event])
}

// hookedEvents runs hook once, before the first handler registration.
type hookedEvents struct {
	*fakeEvents
	once sync.Once
	hook func()
}

func (e *hookedEvents) On(event string, handler func(json.RawMessage)) func() {
	e.once.Do(e.hook)
	return e.fakeEvents.On(event, handler)
}

type fakeHost struct {
	injected *ports.InjectedProvider
	globals  map[string]*ports.InjectedProvider
	clientID string
}

func (h *fakeHost) Injected() *ports.InjectedProvider { return h.injected }

func (h *fakeHost) Global(binding string) *ports.InjectedProvider { return h.globals[binding] }

func (h *fakeHost) ClientIdentifier() string { return h.clientID }

func provider(name string, agent ports.Agent, events ports.EventSource, flags ...string) *ports.InjectedProvider {
	set := map[string]bool{}
	for _, flag := range flags {
		set[flag] = true
	}
	return &ports.InjectedProvider{Name: name, Flags: set, Agent: agent, Events: events}
}

type memorySnapshots struct {
	mu       sync.Mutex
	snapshot *domain.Snapshot
	deletes  int
	saves    int
}

func (m *memorySnapshots) Load(context.Context) (domain.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapshot == nil {
		return domain.Snapshot{}, domain.ErrSnapshotNotFound
	}
	return *m.snapshot, nil
}

func (m *memorySnapshots) Save(_ context.Context, snapshot domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = &snapshot
	m.saves++
	return nil
}

func (m *memorySnapshots) Delete(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = nil
	m.deletes++
	return nil
}

func (m *memorySnapshots) stored() (domain.Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapshot == nil {
		return domain.Snapshot{}, false
	}
	return *m.snapshot, true
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// tickingClock moves forward one millisecond per reading.
type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

type recordedNotification struct {
	connected bool
	address   string
}

type notificationRecorder struct {
	mu  sync.Mutex
	got []recordedNotification
}

func (r *notificationRecorder) listener(connected bool, address string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, recordedNotification{connected: connected, address: address})
}

func (r *notificationRecorder) all() []recordedNotification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedNotification(nil), r.got...)
}

// fakeChain simulates the funding token and pool contracts. It serves as
// the ledger and as the agent's eth_sendTransaction backend.
type fakeChain struct {
	t *testing.T

	mu           sync.Mutex
	tokenABI     abi.ABI
	poolABI      abi.ABI
	fee          *big.Int
	balances     map[common.Address]*big.Int
	native       map[common.Address]*big.Int
	allowances   map[[2]common.Address]*big.Int
	receipts     map[common.Hash]*types.Receipt
	methods      map[common.Hash]string
	pending      map[common.Hash]int
	confirmed    map[common.Hash]bool
	receiptPolls int
	revert       map[string]bool
	submitErr    map[string]error
	journal      []string
	nonce        int64
	logs         []types.Log
}

func newFakeChain(t *testing.T) *fakeChain {
	t.Helper()
	tokenABI, err := abi.JSON(strings.NewReader(contracts.ERC20ABI))
	require.NoError(t, err)
	poolABI, err := abi.JSON(strings.NewReader(contracts.PoolABI))
	require.NoError(t, err)

	return &fakeChain{
		t:          t,
		tokenABI:   tokenABI,
		poolABI:    poolABI,
		fee:        big.NewInt(0),
		balances:   map[common.Address]*big.Int{},
		native:     map[common.Address]*big.Int{},
		allowances: map[[2]common.Address]*big.Int{},
		receipts:   map[common.Hash]*types.Receipt{},
		methods:    map[common.Hash]string{},
		pending:    map[common.Hash]int{},
		confirmed:  map[common.Hash]bool{},
		revert:     map[string]bool{},
		submitErr:  map[string]error{},
	}
}

func (c *fakeChain) fund(owner common.Address, token, native int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[owner] = big.NewInt(token)
	c.native[owner] = big.NewInt(native)
}

func (c *fakeChain) allowance(owner, spender common.Address) *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v := c.allowances[[2]common.Address{owner, spender}]; v != nil {
		return new(big.Int).Set(v)
	}
	return new(big.Int)
}

func (c *fakeChain) history() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.journal...)
}

func (c *fakeChain) method(to common.Address, data []byte) (*abi.Method, []any, error) {
	target := c.tokenABI
	if to == testPool {
		target = c.poolABI
	}
	method, err := target.MethodById(data[:4])
	if err != nil {
		return nil, nil, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	return method, args, err
}

// send handles eth_sendTransaction.
func (c *fakeChain) send(_ context.Context, params []any) (any, error) {
	tx := params[0].(sendTransactionParams)
	from := common.HexToAddress(tx.From)
	to := common.HexToAddress(tx.To)
	data, err := hexutil.Decode(tx.Data)
	if err != nil {
		return nil, err
	}
	method, args, err := c.method(to, data)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.submitErr[method.Name]; err != nil {
		return nil, err
	}

	c.nonce++
	hash := common.BigToHash(big.NewInt(c.nonce))
	receipt := &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: hash, BlockNumber: big.NewInt(c.nonce)}
	if c.revert[method.Name] {
		receipt.Status = types.ReceiptStatusFailed
	} else {
		receipt.Logs = c.apply(method.Name, from, to, args, hash)
	}

	c.receipts[hash] = receipt
	c.methods[hash] = method.Name
	c.pending[hash] = c.receiptPolls
	c.journal = append(c.journal, "submit:"+method.Name)
	return hash.Hex(), nil
}

func (c *fakeChain) apply(name string, from, to common.Address, args []any, hash common.Hash) []*types.Log {
	switch name {
	case "approve":
		c.allowances[[2]common.Address{from, args[0].(common.Address)}] = new(big.Int).Set(args[1].(*big.Int))
	case "transfer":
		amount := args[1].(*big.Int)
		c.balances[from] = new(big.Int).Sub(c.balances[from], amount)
		recipient := args[0].(common.Address)
		if c.balances[recipient] == nil {
			c.balances[recipient] = new(big.Int)
		}
		c.balances[recipient] = new(big.Int).Add(c.balances[recipient], amount)
	case "buyUnits":
		key := [2]common.Address{from, to}
		spent := c.allowances[key]
		if spent == nil {
			spent = new(big.Int)
		}
		c.allowances[key] = new(big.Int)
		c.balances[from] = new(big.Int).Sub(c.balances[from], spent)

		unitsBought := c.poolABI.Events["UnitsBought"]
		data, err := unitsBought.Inputs.NonIndexed().Pack(args[1].(*big.Int), spent)
		require.NoError(c.t, err)
		log := &types.Log{
			Address:     to,
			Topics:      []common.Hash{unitsBought.ID, common.BigToHash(args[0].(*big.Int)), common.BytesToHash(from.Bytes())},
			Data:        data,
			TxHash:      hash,
			BlockNumber: uint64(c.nonce),
		}
		c.logs = append(c.logs, *log)
		return []*types.Log{log}
	case "createPool":
		key := [2]common.Address{from, to}
		pulled := new(big.Int).Add(platformFee, args[4].(*big.Int))
		allowed := c.allowances[key]
		if allowed == nil {
			allowed = new(big.Int)
		}
		c.allowances[key] = new(big.Int).Sub(allowed, pulled)
		c.balances[from] = new(big.Int).Sub(c.balances[from], pulled)
	default:
		key := [2]common.Address{from, to}
		c.allowances[key] = new(big.Int)
	}
	return nil
}

func (c *fakeChain) ChainID(context.Context) (*big.Int, error) {
	return big.NewInt(80002), nil
}

func (c *fakeChain) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	method, args, err := c.method(*msg.To, msg.Data)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var value *big.Int
	switch method.Name {
	case "balanceOf":
		value = c.balances[args[0].(common.Address)]
	case "allowance":
		value = c.allowances[[2]common.Address{args[0].(common.Address), args[1].(common.Address)}]
	default:
		return nil, fmt.Errorf("unexpected call %s", method.Name)
	}
	if value == nil {
		value = new(big.Int)
	}
	return method.Outputs.Pack(value)
}

func (c *fakeChain) BalanceAt(_ context.Context, account common.Address, _ *big.Int) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v := c.native[account]; v != nil {
		return new(big.Int).Set(v), nil
	}
	return new(big.Int), nil
}

func (c *fakeChain) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	receipt, ok := c.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	if c.pending[hash] > 0 {
		c.pending[hash]--
		return nil, ethereum.NotFound
	}
	if !c.confirmed[hash] {
		c.confirmed[hash] = true
		c.journal = append(c.journal, "confirm:"+c.methods[hash])
	}
	return receipt, nil
}

func (c *fakeChain) FilterLogs(context.Context, ethereum.FilterQuery) ([]types.Log, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.Log(nil), c.logs...), nil
}

func (c *fakeChain) SubscribeFilterLogs(ctx context.Context, _ ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	c.mu.Lock()
	logs := append([]types.Log(nil), c.logs...)
	c.mu.Unlock()

	return event.NewSubscription(func(quit <-chan struct{}) error {
		for _, log := range logs {
			select {
			case ch <- log:
			case <-quit:
				return nil
			}
		}
		<-quit
		return nil
	}), nil
}

func mockAnyContext() interface{} {
	return mock.Anything
}
