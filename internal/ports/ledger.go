package ports

import (
	"context"
	"math/big"

	"github.com/bnema/poolwallet-cli/internal/domain"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Ledger is the read side of the EVM network. TransactionReceipt returns
// ethereum.NotFound while a transaction is pending.
type Ledger interface {
	ChainID(ctx context.Context) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)
}

// ContractCodec encodes calls to the funding token and the pool contract and
// decodes pool contract events.
type ContractCodec interface {
	PackApprove(spender common.Address, amount *big.Int) ([]byte, error)
	PackAllowance(owner, spender common.Address) ([]byte, error)
	PackBalanceOf(owner common.Address) ([]byte, error)
	PackTransfer(to common.Address, amount *big.Int) ([]byte, error)
	UnpackAmount(method string, data []byte) (*big.Int, error)
	PackPoolCall(kind domain.TxKind, args ...any) ([]byte, error)
	// DecodePoolEvent returns nil without error for logs that are not pool events.
	DecodePoolEvent(log types.Log) (*domain.PoolEvent, error)
	PoolEventTopics() []common.Hash
}
