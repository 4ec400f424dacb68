package domain

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type TxKind string

const (
	TxTransfer      TxKind = "transfer"
	TxCreatePool    TxKind = "create_pool"
	TxBuyUnits      TxKind = "buy_units"
	TxContribute    TxKind = "contribute"
	TxEndPool       TxKind = "end_pool"
	TxApproveResult TxKind = "approve_result"
)

func (k TxKind) Valid() bool {
	switch k {
	case TxTransfer, TxCreatePool, TxBuyUnits, TxContribute, TxEndPool, TxApproveResult:
		return true
	default:
		return false
	}
}

// RequiresAuthorization reports whether the kind is a pool contract call that
// needs a confirmed token approval first.
func (k TxKind) RequiresAuthorization() bool {
	return k.Valid() && k != TxTransfer
}

// CarriesPrincipal reports whether the request amount is added to the
// platform fee when computing the spend ceiling.
func (k TxKind) CarriesPrincipal() bool {
	switch k {
	case TxCreatePool, TxBuyUnits, TxContribute:
		return true
	default:
		return false
	}
}

func (k TxKind) ContractMethod() string {
	switch k {
	case TxTransfer:
		return "transfer"
	case TxCreatePool:
		return "createPool"
	case TxBuyUnits:
		return "buyUnits"
	case TxContribute:
		return "contribute"
	case TxEndPool:
		return "endPool"
	case TxApproveResult:
		return "approveResult"
	default:
		return ""
	}
}

// TransactionRequest describes one orchestrated operation. Amount is in the
// funding token's smallest unit. For TxTransfer, Args holds the recipient.
type TransactionRequest struct {
	Kind           TxKind
	Amount         *big.Int
	TargetContract common.Address
	Args           []any
}

func (r TransactionRequest) Validate() error {
	if !r.Kind.Valid() {
		return fmt.Errorf("unsupported transaction kind %q", r.Kind)
	}
	if r.Amount != nil && r.Amount.Sign() < 0 {
		return errors.New("amount must not be negative")
	}

	switch {
	case r.Kind == TxTransfer:
		if r.Amount == nil || r.Amount.Sign() == 0 {
			return errors.New("transfer amount must be positive")
		}
		if len(r.Args) != 1 {
			return errors.New("transfer requires exactly one recipient")
		}
		if _, ok := r.Args[0].(common.Address); !ok {
			return fmt.Errorf("transfer recipient must be an address, got %T", r.Args[0])
		}
	case r.Kind.CarriesPrincipal():
		if r.Amount == nil {
			return fmt.Errorf("%s requires an amount", r.Kind)
		}
	}

	return nil
}

// SpendCeiling is the approval amount needed before the dependent call.
func (r TransactionRequest) SpendCeiling(platformFee *big.Int) *big.Int {
	ceiling := new(big.Int)
	if platformFee != nil {
		ceiling.Add(ceiling, platformFee)
	}
	if r.Kind.CarriesPrincipal() && r.Amount != nil {
		ceiling.Add(ceiling, r.Amount)
	}
	return ceiling
}

type FailureReason string

const (
	ReasonUserRejected        FailureReason = "user_rejected"
	ReasonInsufficientFunding FailureReason = "insufficient_funding_balance"
	ReasonInsufficientFee     FailureReason = "insufficient_fee_balance"
	ReasonWrongNetwork        FailureReason = "wrong_network"
	ReasonAuthorizationFailed FailureReason = "authorization_failed"
	ReasonNotConnected        FailureReason = "not_connected"
	ReasonNotEligible         FailureReason = "not_eligible"
	ReasonInvalidRequest      FailureReason = "invalid_request"
	ReasonUnclassified        FailureReason = "unclassified"
)

// Failure is a classified transaction failure. Message is user-facing; Raw
// keeps the underlying agent or ledger message.
type Failure struct {
	Reason  FailureReason
	Message string
	Raw     string
}

func (f *Failure) Error() string {
	if f.Raw != "" && f.Raw != f.Message {
		return f.Message + ": " + f.Raw
	}
	return f.Message
}

// PoolEvent is a decoded completion event emitted by the pool contract.
type PoolEvent struct {
	Name        string
	PoolID      *big.Int
	Fields      map[string]any
	TxHash      common.Hash
	BlockNumber uint64
}

type TxResult struct {
	Success bool
	TxHash  common.Hash
	// AuthorizationTxHash is set once the approval confirmed, even when the
	// dependent call then failed.
	AuthorizationTxHash common.Hash
	Event               *PoolEvent
	Failure             *Failure
}

// AuthorizationConfirmed reports the partial state where the approval landed.
func (r TxResult) AuthorizationConfirmed() bool {
	return r.AuthorizationTxHash != (common.Hash{})
}
