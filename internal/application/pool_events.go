package application

import (
	"context"
	"fmt"
	"math/big"

	"github.com/bnema/poolwallet-cli/internal/domain"
	"github.com/bnema/poolwallet-cli/internal/ports"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// PoolEventStream replays and follows completion events of the pool contract.
type PoolEventStream struct {
	ledger ports.Ledger
	codec  ports.ContractCodec
	pool   common.Address
	logger *zap.Logger
}

func NewPoolEventStream(ledger ports.Ledger, codec ports.ContractCodec, pool common.Address, logger *zap.Logger) *PoolEventStream {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PoolEventStream{ledger: ledger, codec: codec, pool: pool, logger: logger}
}

func (s *PoolEventStream) query(from *big.Int) ethereum.FilterQuery {
	return ethereum.FilterQuery{
		FromBlock: from,
		Addresses: []common.Address{s.pool},
		Topics:    [][]common.Hash{s.codec.PoolEventTopics()},
	}
}

// History returns decoded events from block from onwards.
func (s *PoolEventStream) History(ctx context.Context, from *big.Int) ([]domain.PoolEvent, error) {
	logs, err := s.ledger.FilterLogs(ctx, s.query(from))
	if err != nil {
		return nil, fmt.Errorf("filter pool logs: %w", err)
	}

	events := make([]domain.PoolEvent, 0, len(logs))
	for _, log := range logs {
		if event := s.decode(log); event != nil {
			events = append(events, *event)
		}
	}
	return events, nil
}

// Follow delivers live events to sink until ctx is done or the subscription
// fails.
func (s *PoolEventStream) Follow(ctx context.Context, sink func(domain.PoolEvent)) error {
	logs := make(chan types.Log, 16)
	sub, err := s.ledger.SubscribeFilterLogs(ctx, s.query(nil), logs)
	if err != nil {
		return fmt.Errorf("subscribe pool logs: %w", err)
	}
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-sub.Err():
			if err == nil {
				return nil
			}
			return fmt.Errorf("pool log subscription: %w", err)
		case log := <-logs:
			if event := s.decode(log); event != nil {
				sink(*event)
			}
		}
	}
}

func (s *PoolEventStream) decode(log types.Log) *domain.PoolEvent {
	event, err := s.codec.DecodePoolEvent(log)
	if err != nil {
		s.logger.Debug("skipping undecodable pool log", zap.Uint64("block", log.BlockNumber), zap.Error(err))
		return nil
	}
	return event
}
