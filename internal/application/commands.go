package application

import (
	"errors"
	"math/big"
	"strings"

	"github.com/bnema/poolwallet-cli/internal/domain"
	"github.com/ethereum/go-ethereum/common"
)

var errPoolIDRequired = errors.New("pool id is required")

func NewTransferRequest(to common.Address, amount *big.Int) domain.TransactionRequest {
	return domain.TransactionRequest{Kind: domain.TxTransfer, Amount: amount, Args: []any{to}}
}

// NewCreatePoolRequest seeds the pool with seed on creation. The contract
// pulls the seed together with the platform fee.
func NewCreatePoolRequest(title string, unitPrice, maxUnits, deadline, seed *big.Int) (domain.TransactionRequest, error) {
	if strings.TrimSpace(title) == "" {
		return domain.TransactionRequest{}, errors.New("pool title is required")
	}
	if unitPrice == nil || maxUnits == nil || deadline == nil {
		return domain.TransactionRequest{}, errors.New("unit price, max units and deadline are required")
	}
	if seed == nil {
		seed = new(big.Int)
	}

	return domain.TransactionRequest{
		Kind:   domain.TxCreatePool,
		Amount: seed,
		Args:   []any{title, unitPrice, maxUnits, deadline, seed},
	}, nil
}

// NewBuyUnitsRequest authorizes payment, the full price of units.
func NewBuyUnitsRequest(poolID, units, payment *big.Int) (domain.TransactionRequest, error) {
	if poolID == nil {
		return domain.TransactionRequest{}, errPoolIDRequired
	}
	if units == nil || units.Sign() <= 0 {
		return domain.TransactionRequest{}, errors.New("units must be positive")
	}

	return domain.TransactionRequest{
		Kind:   domain.TxBuyUnits,
		Amount: payment,
		Args:   []any{poolID, units},
	}, nil
}

func NewContributeRequest(poolID, amount *big.Int) (domain.TransactionRequest, error) {
	if poolID == nil {
		return domain.TransactionRequest{}, errPoolIDRequired
	}
	if amount == nil || amount.Sign() <= 0 {
		return domain.TransactionRequest{}, errors.New("contribution must be positive")
	}

	return domain.TransactionRequest{
		Kind:   domain.TxContribute,
		Amount: amount,
		Args:   []any{poolID, amount},
	}, nil
}

func NewEndPoolRequest(poolID *big.Int) (domain.TransactionRequest, error) {
	if poolID == nil {
		return domain.TransactionRequest{}, errPoolIDRequired
	}
	return domain.TransactionRequest{Kind: domain.TxEndPool, Args: []any{poolID}}, nil
}

func NewApproveResultRequest(poolID *big.Int, approved bool) (domain.TransactionRequest, error) {
	if poolID == nil {
		return domain.TransactionRequest{}, errPoolIDRequired
	}
	return domain.TransactionRequest{Kind: domain.TxApproveResult, Args: []any{poolID, approved}}, nil
}
