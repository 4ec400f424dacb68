package application

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/bnema/poolwallet-cli/internal/domain"
	"github.com/bnema/poolwallet-cli/internal/ports"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultReceiptPollInterval = 2 * time.Second

type Phase string

const (
	PhaseAuthorize Phase = "authorize"
	PhaseAct       Phase = "act"
)

type PhaseStep string

const (
	StepSubmitted PhaseStep = "submitted"
	StepConfirmed PhaseStep = "confirmed"
)

// PhaseEvent reports progress of one phase of an orchestrated transaction.
type PhaseEvent struct {
	OperationID string
	Kind        domain.TxKind
	Phase       Phase
	Step        PhaseStep
	TxHash      common.Hash
	At          time.Time
}

type PhaseObserver func(PhaseEvent)

// activeSession is the read side of SessionService used by the orchestrator.
type activeSession interface {
	Current() (domain.Connection, bool)
	Handle() (AgentHandle, bool)
}

type OrchestratorConfig struct {
	Token        common.Address
	Pool         common.Address
	PlatformFee  *big.Int
	PollInterval time.Duration
	Locale       domain.Locale
}

type OrchestratorDeps struct {
	Session   activeSession
	Ledger    ports.Ledger
	Codec     ports.ContractCodec
	Gate      ports.EligibilityGate
	Network   domain.NetworkDescriptor
	Config    OrchestratorConfig
	Clock     ports.Clock
	Recorder  ports.Recorder
	Logger    *zap.Logger
	Observers []PhaseObserver
}

// Orchestrator runs the authorize-then-act protocol. The act transaction is
// only submitted after the authorization receipt is observed. A confirmed
// authorization is not revoked when the act phase fails.
type Orchestrator struct {
	session  activeSession
	ledger   ports.Ledger
	codec    ports.ContractCodec
	gate     ports.EligibilityGate
	network  domain.NetworkDescriptor
	cfg      OrchestratorConfig
	clock    ports.Clock
	recorder ports.Recorder
	logger   *zap.Logger

	mu        sync.Mutex
	observers []PhaseObserver
}

type sendTransactionParams struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Data  string `json:"data"`
	Value string `json:"value"`
}

func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	o := &Orchestrator{
		session:   deps.Session,
		ledger:    deps.Ledger,
		codec:     deps.Codec,
		gate:      deps.Gate,
		network:   deps.Network,
		cfg:       deps.Config,
		clock:     deps.Clock,
		recorder:  deps.Recorder,
		logger:    deps.Logger,
		observers: append([]PhaseObserver(nil), deps.Observers...),
	}
	if o.clock == nil {
		o.clock = ports.SystemClock{}
	}
	if o.recorder == nil {
		o.recorder = ports.NopRecorder{}
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.cfg.PollInterval <= 0 {
		o.cfg.PollInterval = defaultReceiptPollInterval
	}
	if o.cfg.PlatformFee == nil {
		o.cfg.PlatformFee = new(big.Int)
	}
	if o.cfg.Locale == "" {
		o.cfg.Locale = domain.LocaleEnglish
	}
	if o.network.ChainID == nil {
		o.network = domain.PolygonAmoy
	}

	return o
}

func (o *Orchestrator) Observe(observer PhaseObserver) {
	if observer == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observers = append(o.observers, observer)
}

// Execute never reports partial success. Check AuthorizationTxHash on a
// failed result to detect a confirmed authorization.
func (o *Orchestrator) Execute(ctx context.Context, req domain.TransactionRequest) domain.TxResult {
	run := &execution{
		Orchestrator: o,
		id:           uuid.NewString(),
		req:          req,
	}
	run.logger = o.logger.With(zap.String("operation_id", run.id), zap.String("kind", string(req.Kind)))

	start := o.clock.Now()
	result := run.execute(ctx)

	outcome := "success"
	if result.Failure != nil {
		outcome = string(result.Failure.Reason)
		run.logger.Warn("transaction failed",
			zap.String("reason", outcome),
			zap.String("raw", result.Failure.Raw),
			zap.Bool("authorization_confirmed", result.AuthorizationConfirmed()),
		)
	} else {
		run.logger.Info("transaction confirmed", zap.Stringer("tx_hash", result.TxHash))
	}
	o.recorder.TransactionFinished(string(req.Kind), outcome)
	o.recorder.PhaseDuration("total", o.clock.Now().Sub(start))

	return result
}

type execution struct {
	*Orchestrator
	id     string
	req    domain.TransactionRequest
	logger *zap.Logger
}

func (e *execution) execute(ctx context.Context) domain.TxResult {
	if err := e.req.Validate(); err != nil {
		return e.failed(fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err))
	}

	conn, connected := e.session.Current()
	handle, handled := e.session.Handle()
	if !connected || !handled {
		return e.failed(domain.ErrNotConnected)
	}
	owner := common.HexToAddress(conn.Address)

	if e.gate != nil {
		allowed, err := e.gate.Allowed(ctx, conn.Address)
		if err != nil {
			return e.failed(fmt.Errorf("eligibility check: %w", err))
		}
		if !allowed {
			return e.failed(domain.ErrNotEligible)
		}
	}

	chainID, err := readChainID(ctx, handle.Agent)
	if err != nil {
		return e.failed(fmt.Errorf("read active chain: %w", err))
	}
	if !e.network.Matches(chainID) {
		return e.failed(fmt.Errorf("%w: agent reports chain %s", domain.ErrWrongNetwork, chainID))
	}

	required := e.req.SpendCeiling(e.cfg.PlatformFee)
	if e.req.Kind == domain.TxTransfer {
		required = new(big.Int).Set(e.req.Amount)
	}
	if err := e.preflight(ctx, owner, required); err != nil {
		return e.failed(err)
	}

	if e.req.Kind == domain.TxTransfer {
		return e.transfer(ctx, handle, owner)
	}
	return e.authorizeThenAct(ctx, handle, owner, required)
}

func (e *execution) preflight(ctx context.Context, owner common.Address, required *big.Int) error {
	balances, err := e.Balances(ctx, owner)
	if err != nil {
		return fmt.Errorf("read balances: %w", err)
	}
	if balances.Token.Cmp(required) < 0 {
		return fmt.Errorf("%w: have %s, need %s", domain.ErrInsufficientFundingBalance, balances.Token, required)
	}
	if balances.Native.Sign() == 0 {
		return domain.ErrInsufficientFeeBalance
	}
	return nil
}

func (e *execution) transfer(ctx context.Context, handle AgentHandle, owner common.Address) domain.TxResult {
	recipient := e.req.Args[0].(common.Address)
	data, err := e.codec.PackTransfer(recipient, e.req.Amount)
	if err != nil {
		return e.failed(fmt.Errorf("encode transfer: %w", err))
	}

	receipt, err := e.runPhase(ctx, PhaseAct, handle, owner, e.tokenAddress(), data)
	if err != nil {
		return e.failed(err)
	}

	return domain.TxResult{Success: true, TxHash: receipt.TxHash}
}

func (e *execution) authorizeThenAct(ctx context.Context, handle AgentHandle, owner common.Address, ceiling *big.Int) domain.TxResult {
	target := e.targetAddress()

	// Encode the act call first so a malformed request never leaves an
	// authorization behind.
	actData, err := e.codec.PackPoolCall(e.req.Kind, e.req.Args...)
	if err != nil {
		return e.failed(fmt.Errorf("encode %s: %w", e.req.Kind.ContractMethod(), err))
	}
	approveData, err := e.codec.PackApprove(target, ceiling)
	if err != nil {
		return e.failed(fmt.Errorf("encode approve: %w", err))
	}

	authReceipt, err := e.runPhase(ctx, PhaseAuthorize, handle, owner, e.tokenAddress(), approveData)
	if err != nil {
		failure := Classify(e.cfg.Locale, err)
		if failure.Reason == domain.ReasonUnclassified {
			failure = &domain.Failure{
				Reason:  domain.ReasonAuthorizationFailed,
				Message: domain.Message(e.cfg.Locale, domain.ReasonAuthorizationFailed),
				Raw:     failure.Raw,
			}
		}
		return domain.TxResult{Failure: failure}
	}

	actReceipt, err := e.runPhase(ctx, PhaseAct, handle, owner, target, actData)
	if err != nil {
		result := e.failed(err)
		result.AuthorizationTxHash = authReceipt.TxHash
		return result
	}

	result := domain.TxResult{
		Success:             true,
		TxHash:              actReceipt.TxHash,
		AuthorizationTxHash: authReceipt.TxHash,
	}
	result.Event = e.completionEvent(actReceipt, target)
	return result
}

// runPhase submits one transaction and blocks until its receipt is observed.
func (e *execution) runPhase(ctx context.Context, phase Phase, handle AgentHandle, from, to common.Address, data []byte) (*types.Receipt, error) {
	start := e.clock.Now()

	raw, err := callAgent(ctx, handle.Agent, methodSendTransaction, sendTransactionParams{
		From:  from.Hex(),
		To:    to.Hex(),
		Data:  hexutil.Encode(data),
		Value: "0x0",
	})
	if err != nil {
		return nil, fmt.Errorf("%s: send transaction: %w", phase, err)
	}
	hash, err := decodeTxHash(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", phase, err)
	}
	e.emit(phase, StepSubmitted, hash)
	e.logger.Info("transaction submitted", zap.String("phase", string(phase)), zap.Stringer("tx_hash", hash))

	receipt, err := e.waitReceipt(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", phase, err)
	}
	e.recorder.PhaseDuration(string(phase), e.clock.Now().Sub(start))
	if receipt.Status != types.ReceiptStatusSuccessful {
		if phase == PhaseAuthorize {
			return nil, fmt.Errorf("%w: transaction %s reverted", domain.ErrAuthorizationFailed, hash.Hex())
		}
		return nil, fmt.Errorf("transaction %s reverted", hash.Hex())
	}
	e.emit(phase, StepConfirmed, hash)

	return receipt, nil
}

func (e *execution) waitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		receipt, err := e.ledger.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("fetch receipt %s: %w", hash.Hex(), err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (e *execution) completionEvent(receipt *types.Receipt, target common.Address) *domain.PoolEvent {
	for _, log := range receipt.Logs {
		if log == nil || log.Address != target {
			continue
		}
		event, err := e.codec.DecodePoolEvent(*log)
		if err != nil {
			e.logger.Debug("skipping undecodable log", zap.Error(err))
			continue
		}
		if event != nil {
			return event
		}
	}
	return nil
}

func (e *execution) emit(phase Phase, step PhaseStep, hash common.Hash) {
	e.mu.Lock()
	observers := append([]PhaseObserver(nil), e.observers...)
	e.mu.Unlock()

	event := PhaseEvent{
		OperationID: e.id,
		Kind:        e.req.Kind,
		Phase:       phase,
		Step:        step,
		TxHash:      hash,
		At:          e.clock.Now(),
	}
	for _, observer := range observers {
		observer(event)
	}
}

func (e *execution) failed(err error) domain.TxResult {
	return domain.TxResult{Failure: Classify(e.cfg.Locale, err)}
}

func (e *execution) targetAddress() common.Address {
	if e.req.TargetContract != (common.Address{}) {
		return e.req.TargetContract
	}
	return e.cfg.Pool
}

func (e *execution) tokenAddress() common.Address {
	if e.req.Kind == domain.TxTransfer && e.req.TargetContract != (common.Address{}) {
		return e.req.TargetContract
	}
	return e.cfg.Token
}

// Allowance reads how much the pool contract may still spend for owner.
func (o *Orchestrator) Allowance(ctx context.Context, owner common.Address) (*big.Int, error) {
	data, err := o.codec.PackAllowance(owner, o.cfg.Pool)
	if err != nil {
		return nil, fmt.Errorf("encode allowance: %w", err)
	}

	out, err := o.ledger.CallContract(ctx, ethereum.CallMsg{To: &o.cfg.Token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call allowance: %w", err)
	}

	return o.codec.UnpackAmount("allowance", out)
}

// Balances reads the funding token and native balances concurrently.
func (o *Orchestrator) Balances(ctx context.Context, owner common.Address) (Balances, error) {
	var balances Balances

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := o.codec.PackBalanceOf(owner)
		if err != nil {
			return fmt.Errorf("encode balanceOf: %w", err)
		}
		out, err := o.ledger.CallContract(gctx, ethereum.CallMsg{To: &o.cfg.Token, Data: data}, nil)
		if err != nil {
			return fmt.Errorf("call balanceOf: %w", err)
		}
		balances.Token, err = o.codec.UnpackAmount("balanceOf", out)
		return err
	})
	g.Go(func() error {
		native, err := o.ledger.BalanceAt(gctx, owner, nil)
		if err != nil {
			return fmt.Errorf("read native balance: %w", err)
		}
		balances.Native = native
		return nil
	})

	if err := g.Wait(); err != nil {
		return Balances{}, err
	}
	return balances, nil
}
