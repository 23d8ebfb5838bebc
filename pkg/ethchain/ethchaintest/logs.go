package ethchaintest

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/racer/pkg/racer"
)

// Logs builds ABI-encoded Racer contract logs for one deployment
type Logs struct {
	t        testing.TB
	contract common.Address
	index    uint
}

func NewLogs(t testing.TB, contract common.Address) *Logs {
	return &Logs{t: t, contract: contract}
}

func (l *Logs) CycleCreated(block uint64, creator common.Address, id, startingBlock, blockLength, votePrice int64) types.Log {
	l.t.Helper()
	return l.build(racer.EventCycleCreated, block,
		[]common.Hash{addressTopic(creator), intTopic(id)},
		big.NewInt(startingBlock), big.NewInt(blockLength), big.NewInt(votePrice),
	)
}

func (l *Logs) VotePlaced(block uint64, placer common.Address, voteID, cycleID int64, symbol racer.Symbol, amount, placement int64) types.Log {
	l.t.Helper()
	return l.build(racer.EventVotePlaced, block,
		[]common.Hash{addressTopic(placer), intTopic(voteID), intTopic(cycleID)},
		[4]byte(symbol), big.NewInt(amount), big.NewInt(placement),
	)
}

func (l *Logs) VoteClaimed(block uint64, placer common.Address, voteID, reward int64) types.Log {
	l.t.Helper()
	return l.build(racer.EventVoteClaimed, block,
		[]common.Hash{addressTopic(placer), intTopic(voteID)},
		big.NewInt(reward),
	)
}

func (l *Logs) build(name string, block uint64, indexed []common.Hash, values ...any) types.Log {
	l.t.Helper()

	ev := racer.ContractABI.Events[name]
	data, err := ev.Inputs.NonIndexed().Pack(values...)
	require.NoError(l.t, err)

	l.index++
	return types.Log{
		Address:     l.contract,
		Topics:      append([]common.Hash{ev.ID}, indexed...),
		Data:        data,
		BlockNumber: block,
		Index:       l.index,
	}
}

func addressTopic(a common.Address) common.Hash {
	return common.BytesToHash(a.Bytes())
}

func intTopic(n int64) common.Hash {
	return common.BigToHash(big.NewInt(n))
}
