package application

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/bnema/poolwallet-cli/internal/domain"
	"github.com/bnema/poolwallet-cli/internal/ports"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
)

const DefaultConnectTimeout = 30 * time.Second

type SessionDeps struct {
	Resolver       *Resolver
	Guarantor      *NetworkGuarantor
	Snapshots      ports.SnapshotRepository
	Listeners      *ListenerRegistry
	Bridge         *EventBridge
	Clock          ports.Clock
	Recorder       ports.Recorder
	Logger         *zap.Logger
	ConnectTimeout time.Duration
}

// SessionService owns the single live Connection. Every transition, whether
// caller- or event-triggered, goes through its methods. The mutex is never
// held across agent calls.
type SessionService struct {
	resolver       *Resolver
	guarantor      *NetworkGuarantor
	snapshots      ports.SnapshotRepository
	listeners      *ListenerRegistry
	bridge         *EventBridge
	clock          ports.Clock
	recorder       ports.Recorder
	logger         *zap.Logger
	connectTimeout time.Duration

	mu            sync.Mutex
	state         domain.SessionState
	conn          *domain.Connection
	handle        *AgentHandle
	nextRequestID uint64
	pendingID     uint64
	// epoch counts transitions that end a session; commit compares it to
	// detect a disconnect that landed during its side effects.
	epoch uint64
}

type handshakeResult struct {
	conn domain.Connection
	err  error
}

func NewSessionService(deps SessionDeps) *SessionService {
	s := &SessionService{
		resolver:       deps.Resolver,
		guarantor:      deps.Guarantor,
		snapshots:      deps.Snapshots,
		listeners:      deps.Listeners,
		bridge:         deps.Bridge,
		clock:          deps.Clock,
		recorder:       deps.Recorder,
		logger:         deps.Logger,
		connectTimeout: deps.ConnectTimeout,
		state:          domain.StateDisconnected,
	}
	if s.clock == nil {
		s.clock = ports.SystemClock{}
	}
	if s.recorder == nil {
		s.recorder = ports.NopRecorder{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.connectTimeout <= 0 {
		s.connectTimeout = DefaultConnectTimeout
	}
	if s.listeners == nil {
		s.listeners = NewListenerRegistry(s.clock)
	}
	if s.bridge == nil {
		s.bridge = NewEventBridge(s.logger)
	}
	if s.guarantor == nil {
		s.guarantor = NewNetworkGuarantor(domain.PolygonAmoy, s.logger)
	}
	s.bridge.bind(s)

	return s
}

func (s *SessionService) Listeners() *ListenerRegistry {
	return s.listeners
}

func (s *SessionService) Bridge() *EventBridge {
	return s.bridge
}

func (s *SessionService) Network() domain.NetworkDescriptor {
	return s.guarantor.Network()
}

func (s *SessionService) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Current returns a copy of the live connection.
func (s *SessionService) Current() (domain.Connection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil || s.state != domain.StateConnected {
		return domain.Connection{}, false
	}
	return s.conn.Clone(), true
}

func (s *SessionService) Handle() (AgentHandle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == nil || s.state != domain.StateConnected {
		return AgentHandle{}, false
	}
	return *s.handle, true
}

// Connect runs the interactive handshake. The caller stops waiting after the
// connect timeout; the agent prompt keeps running and its late result is
// dropped.
func (s *SessionService) Connect(ctx context.Context, kind domain.AgentKind) (domain.Connection, error) {
	conn, err := s.connect(ctx, kind)
	s.recorder.ConnectAttempt(string(kind), connectOutcome(err))
	return conn, err
}

func (s *SessionService) connect(ctx context.Context, kind domain.AgentKind) (domain.Connection, error) {
	handle, err := s.resolver.Resolve(kind)
	if err != nil {
		return domain.Connection{}, err
	}

	id, ok := s.begin()
	if !ok {
		return domain.Connection{}, domain.ErrAlreadyPending
	}

	logger := s.logger.With(zap.String("handle", handle.ID), zap.Uint64("request_id", id))
	logger.Debug("connect handshake started")

	results := make(chan handshakeResult, 1)
	go func() {
		conn, err := s.handshake(context.WithoutCancel(ctx), id, handle)
		results <- handshakeResult{conn: conn, err: err}
	}()

	timer := time.NewTimer(s.connectTimeout)
	defer timer.Stop()

	select {
	case result := <-results:
		if result.err != nil {
			logger.Debug("connect handshake failed", zap.Error(result.err))
			s.fail(ctx, id)
			return domain.Connection{}, result.err
		}
		if err := s.commit(ctx, id, handle, result.conn); err != nil {
			return domain.Connection{}, err
		}
		logger.Info("connected", zap.String("address", result.conn.Address))
		return result.conn.Clone(), nil
	case <-timer.C:
		logger.Warn("connect handshake timed out", zap.Duration("timeout", s.connectTimeout))
		s.fail(ctx, id)
		return domain.Connection{}, domain.ErrRequestTimeout
	case <-ctx.Done():
		s.fail(context.WithoutCancel(ctx), id)
		return domain.Connection{}, ctx.Err()
	}
}

func (s *SessionService) handshake(ctx context.Context, id uint64, handle AgentHandle) (domain.Connection, error) {
	preauthorized, err := readAccounts(ctx, handle.Agent, methodAccounts)
	if err != nil {
		s.logger.Debug("reading authorized accounts failed", zap.Error(err))
		preauthorized = nil
	}

	// Always prompt so the user sees which account is being connected.
	accounts, err := readAccounts(ctx, handle.Agent, methodRequestAccounts)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserRejected):
			return domain.Connection{}, fmt.Errorf("request accounts: %w", err)
		case isAgentCode(err, domain.CodeRequestPending):
			return domain.Connection{}, fmt.Errorf("request accounts: %w", domain.ErrAlreadyPending)
		case len(preauthorized) == 0:
			return domain.Connection{}, fmt.Errorf("%w: %w", domain.ErrAgentLocked, err)
		}
		s.logger.Debug("falling back to authorized accounts", zap.Error(err))
		accounts = preauthorized
	}
	if len(accounts) == 0 {
		return domain.Connection{}, domain.ErrAgentLocked
	}

	address, err := checksumAddress(accounts[0])
	if err != nil {
		return domain.Connection{}, err
	}

	if !s.advance(id, domain.StateNetworkChecking) {
		return domain.Connection{}, domain.ErrConnectionSuperseded
	}

	chainID, err := s.guarantor.ensure(ctx, handle.Agent)
	if err != nil {
		return domain.Connection{}, err
	}

	return domain.Connection{
		Address:     address,
		ChainID:     chainID,
		AgentKind:   handle.Kind,
		IsConnected: true,
	}, nil
}

// AutoConnect silently restores a persisted session. It never prompts: only
// eth_accounts and eth_chainId are issued. A session found on another chain
// is restored as is. Any failure clears the snapshot.
func (s *SessionService) AutoConnect(ctx context.Context) bool {
	if _, ok := s.Current(); ok {
		return true
	}

	snapshot, err := s.snapshots.Load(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrSnapshotNotFound) {
			s.logger.Warn("reading session snapshot failed", zap.Error(err))
			s.clearSnapshot(ctx)
		}
		return false
	}

	conn, handle, id, err := s.probe(ctx, snapshot)
	if err != nil {
		s.logger.Info("silent reconnection skipped", zap.Error(err))
		if id != 0 {
			s.fail(ctx, id)
		}
		s.clearSnapshot(ctx)
		return false
	}

	if err := s.commit(ctx, id, handle, conn); err != nil {
		s.logger.Info("silent reconnection superseded", zap.Error(err))
		return false
	}

	s.logger.Info("session restored", zap.String("address", conn.Address))
	return true
}

func (s *SessionService) probe(ctx context.Context, snapshot domain.Snapshot) (domain.Connection, AgentHandle, uint64, error) {
	if !snapshot.IsConnected || strings.TrimSpace(snapshot.Address) == "" {
		return domain.Connection{}, AgentHandle{}, 0, errors.New("snapshot is not connected")
	}

	handle, err := s.resolver.Resolve(snapshot.AgentKind)
	if err != nil {
		return domain.Connection{}, AgentHandle{}, 0, err
	}

	id, ok := s.begin()
	if !ok {
		return domain.Connection{}, AgentHandle{}, 0, domain.ErrAlreadyPending
	}

	accounts, err := readAccounts(ctx, handle.Agent, methodAccounts)
	if err != nil {
		return domain.Connection{}, AgentHandle{}, id, fmt.Errorf("read authorized accounts: %w", err)
	}
	if len(accounts) == 0 {
		return domain.Connection{}, AgentHandle{}, id, errors.New("agent reports no authorized accounts")
	}
	if !strings.EqualFold(accounts[0], snapshot.Address) {
		return domain.Connection{}, AgentHandle{}, id, errors.New("agent primary account differs from snapshot")
	}
	address, err := checksumAddress(accounts[0])
	if err != nil {
		return domain.Connection{}, AgentHandle{}, id, err
	}

	if !s.advance(id, domain.StateNetworkChecking) {
		return domain.Connection{}, AgentHandle{}, 0, domain.ErrConnectionSuperseded
	}

	chainID, err := readChainID(ctx, handle.Agent)
	if err != nil {
		return domain.Connection{}, AgentHandle{}, id, fmt.Errorf("read active chain: %w", err)
	}
	if !s.guarantor.Network().Matches(chainID) {
		// Still authorized: restore on the agent's chain and leave the
		// switch to Restore or EnsureNetwork.
		s.logger.Info("restoring session on another chain", zap.String("chain_id", chainID.String()))
	}

	return domain.Connection{
		Address:     address,
		ChainID:     chainID,
		AgentKind:   handle.Kind,
		IsConnected: true,
	}, handle, id, nil
}

// Disconnect always succeeds. Repeated calls reach the listener registry,
// whose throttle turns them into no-op notifications.
func (s *SessionService) Disconnect(ctx context.Context) {
	s.mu.Lock()
	s.epoch++
	s.pendingID = 0
	s.state = domain.StateDisconnected
	s.conn = nil
	s.handle = nil
	s.mu.Unlock()

	s.bridge.Detach()
	s.clearSnapshot(ctx)
	s.listeners.Notify(false, "")
}

// Restore returns the live connection, silently restoring a persisted one
// when needed. A restored session is then moved to the required network.
func (s *SessionService) Restore(ctx context.Context) (domain.Connection, error) {
	if conn, ok := s.Current(); ok {
		return conn, nil
	}
	if !s.AutoConnect(ctx) {
		return domain.Connection{}, domain.ErrNotConnected
	}

	if err := s.EnsureNetwork(ctx); err != nil {
		return domain.Connection{}, err
	}
	conn, ok := s.Current()
	if !ok {
		return domain.Connection{}, domain.ErrNotConnected
	}
	return conn, nil
}

// EnsureNetwork runs the guarantor against the live agent.
func (s *SessionService) EnsureNetwork(ctx context.Context) error {
	handle, ok := s.Handle()
	if !ok {
		return domain.ErrNotConnected
	}

	chainID, err := s.guarantor.ensure(ctx, handle.Agent)
	if err != nil {
		return err
	}
	s.recordChain(handle.ID, chainID)
	return nil
}

// SignMessage asks the agent to sign message with the connected account.
func (s *SessionService) SignMessage(ctx context.Context, message []byte) (string, error) {
	conn, ok := s.Current()
	handle, handleOK := s.Handle()
	if !ok || !handleOK {
		return "", domain.ErrNotConnected
	}

	raw, err := callAgent(ctx, handle.Agent, methodPersonalSign, hexutil.Encode(message), conn.Address)
	if err != nil {
		return "", fmt.Errorf("sign message: %w", err)
	}

	var signature string
	if err := decodeJSONString(raw, &signature); err != nil {
		return "", fmt.Errorf("decode signature: %w", err)
	}
	if _, err := hexutil.Decode(signature); err != nil {
		return "", fmt.Errorf("signature %q: %w", signature, errInvalidAgentResponse)
	}

	return signature, nil
}

func (s *SessionService) begin() (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Pending() {
		return 0, false
	}
	s.nextRequestID++
	s.pendingID = s.nextRequestID
	s.state = domain.StateConnecting
	return s.pendingID, true
}

// advance moves a pending request forward; false means it was superseded.
func (s *SessionService) advance(id uint64, state domain.SessionState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pendingID != id {
		return false
	}
	s.state = state
	return true
}

func (s *SessionService) commit(ctx context.Context, id uint64, handle AgentHandle, conn domain.Connection) error {
	s.mu.Lock()
	if s.pendingID != id {
		s.mu.Unlock()
		return domain.ErrConnectionSuperseded
	}
	stored := conn.Clone()
	s.pendingID = 0
	s.state = domain.StateConnected
	s.conn = &stored
	s.handle = &handle
	epoch := s.epoch
	s.mu.Unlock()

	s.bridge.Attach(handle)
	if err := s.snapshots.Save(ctx, domain.SnapshotFromConnection(conn, s.clock.Now())); err != nil {
		s.logger.Warn("saving session snapshot failed", zap.Error(err))
	}
	if s.endedSince(epoch) {
		s.undoCommit(ctx, false)
		return domain.ErrConnectionSuperseded
	}

	s.listeners.Notify(true, conn.Address)
	if s.endedSince(epoch) {
		s.undoCommit(ctx, true)
		return domain.ErrConnectionSuperseded
	}

	return nil
}

func (s *SessionService) endedSince(epoch uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch != epoch
}

// undoCommit reverts the side effects of a commit that a disconnect
// overtook. A session started after that disconnect is left alone.
func (s *SessionService) undoCommit(ctx context.Context, notified bool) {
	s.mu.Lock()
	idle := s.conn == nil && s.pendingID == 0
	s.mu.Unlock()
	if !idle {
		return
	}

	s.bridge.Detach()
	s.clearSnapshot(ctx)
	if notified {
		s.listeners.Notify(false, "")
	}
}

// fail abandons a pending request. A request that superseded a live
// connection leaves the session fully disconnected.
func (s *SessionService) fail(ctx context.Context, id uint64) {
	s.mu.Lock()
	if s.pendingID != id {
		s.mu.Unlock()
		return
	}
	hadConnection := s.conn != nil
	s.epoch++
	s.pendingID = 0
	s.state = domain.StateDisconnected
	s.conn = nil
	s.handle = nil
	s.mu.Unlock()

	if hadConnection {
		s.bridge.Detach()
		s.clearSnapshot(ctx)
		s.listeners.Notify(false, "")
	}
}

func (s *SessionService) clearSnapshot(ctx context.Context) {
	if err := s.snapshots.Delete(ctx); err != nil {
		s.logger.Warn("deleting session snapshot failed", zap.Error(err))
	}
}

func (s *SessionService) primaryAccountChanged(handleID string, account string) (domain.AgentKind, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle == nil || s.handle.ID != handleID || s.conn == nil || s.state != domain.StateConnected {
		return "", false
	}
	if s.conn.SameAddress(account) {
		return "", false
	}
	return s.handle.Kind, true
}

func (s *SessionService) reauthorize(ctx context.Context, kind domain.AgentKind) (domain.Connection, error) {
	return s.Connect(ctx, kind)
}

func (s *SessionService) recordChain(handleID string, chainID *big.Int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle == nil || s.handle.ID != handleID || s.conn == nil || chainID == nil {
		return false
	}
	s.conn.ChainID = new(big.Int).Set(chainID)
	return true
}

func (s *SessionService) externalDisconnect(ctx context.Context, handleID string, reason string) {
	s.mu.Lock()
	current := s.handle != nil && s.handle.ID == handleID
	s.mu.Unlock()
	if !current {
		return
	}

	s.logger.Info("agent ended the session", zap.String("handle", handleID), zap.String("reason", reason))
	s.Disconnect(ctx)
}

func connectOutcome(err error) string {
	switch {
	case err == nil:
		return "connected"
	case errors.Is(err, domain.ErrAgentNotFound):
		return "agent_not_found"
	case errors.Is(err, domain.ErrAgentLocked):
		return "agent_locked"
	case errors.Is(err, domain.ErrUserRejected):
		return "user_rejected"
	case errors.Is(err, domain.ErrRequestTimeout):
		return "timeout"
	case errors.Is(err, domain.ErrAlreadyPending):
		return "already_pending"
	case errors.Is(err, domain.ErrNetworkAddFailed):
		return "network_add_failed"
	case errors.Is(err, domain.ErrWrongNetwork):
		return "wrong_network"
	case errors.Is(err, domain.ErrConnectionSuperseded):
		return "superseded"
	default:
		return "error"
	}
}

func isAgentCode(err error, code int) bool {
	agentErr, ok := domain.AsAgentError(err)
	return ok && agentErr.HasCode(code)
}
