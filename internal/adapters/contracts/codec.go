package contracts

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/bnema/poolwallet-cli/internal/domain"
	"github.com/bnema/poolwallet-cli/internal/ports"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var errNotPoolCall = errors.New("transaction kind is not a pool contract call")

// Codec encodes funding token and pool contract calls with go-ethereum's ABI
// packer.
type Codec struct {
	token abi.ABI
	pool  abi.ABI
}

var _ ports.ContractCodec = (*Codec)(nil)

func NewCodec() (*Codec, error) {
	token, err := abi.JSON(strings.NewReader(ERC20ABI))
	if err != nil {
		return nil, fmt.Errorf("parse token abi: %w", err)
	}
	pool, err := abi.JSON(strings.NewReader(PoolABI))
	if err != nil {
		return nil, fmt.Errorf("parse pool abi: %w", err)
	}

	return &Codec{token: token, pool: pool}, nil
}

func (c *Codec) PackApprove(spender common.Address, amount *big.Int) ([]byte, error) {
	return c.token.Pack("approve", spender, amount)
}

func (c *Codec) PackAllowance(owner, spender common.Address) ([]byte, error) {
	return c.token.Pack("allowance", owner, spender)
}

func (c *Codec) PackBalanceOf(owner common.Address) ([]byte, error) {
	return c.token.Pack("balanceOf", owner)
}

func (c *Codec) PackTransfer(to common.Address, amount *big.Int) ([]byte, error) {
	return c.token.Pack("transfer", to, amount)
}

// UnpackAmount decodes the single uint256 returned by a token view method.
func (c *Codec) UnpackAmount(method string, data []byte) (*big.Int, error) {
	values, err := c.token.Unpack(method, data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unpack %s: expected 1 value, got %d", method, len(values))
	}
	amount, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unpack %s: unexpected type %T", method, values[0])
	}
	return amount, nil
}

func (c *Codec) PackPoolCall(kind domain.TxKind, args ...any) ([]byte, error) {
	if !kind.RequiresAuthorization() {
		return nil, fmt.Errorf("%s: %w", kind, errNotPoolCall)
	}
	return c.pool.Pack(kind.ContractMethod(), args...)
}

func (c *Codec) PoolEventTopics() []common.Hash {
	topics := make([]common.Hash, 0, len(c.pool.Events))
	for _, name := range []string{"PoolCreated", "UnitsBought", "Contributed", "PoolEnded", "ResultApproved"} {
		topics = append(topics, c.pool.Events[name].ID)
	}
	return topics
}

func (c *Codec) DecodePoolEvent(log types.Log) (*domain.PoolEvent, error) {
	if len(log.Topics) == 0 {
		return nil, nil
	}
	event, err := c.pool.EventByID(log.Topics[0])
	if err != nil {
		return nil, nil
	}

	fields := map[string]any{}
	if len(log.Data) > 0 {
		if err := c.pool.UnpackIntoMap(fields, event.Name, log.Data); err != nil {
			return nil, fmt.Errorf("decode %s data: %w", event.Name, err)
		}
	}

	var indexed abi.Arguments
	for _, input := range event.Inputs {
		if input.Indexed {
			indexed = append(indexed, input)
		}
	}
	if err := abi.ParseTopicsIntoMap(fields, indexed, log.Topics[1:]); err != nil {
		return nil, fmt.Errorf("decode %s topics: %w", event.Name, err)
	}

	decoded := &domain.PoolEvent{
		Name:        event.Name,
		Fields:      fields,
		TxHash:      log.TxHash,
		BlockNumber: log.BlockNumber,
	}
	if poolID, ok := fields["poolId"].(*big.Int); ok {
		decoded.PoolID = poolID
	}

	return decoded, nil
}
