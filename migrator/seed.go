package migrator

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/screwyprof/racer/indexer"
	"github.com/screwyprof/racer/pkg/racer"
)

// DemoSeedVersion changes whenever DemoSeed changes, invalidating cached template databases
const DemoSeedVersion = "v1"

// Demo placers
var (
	DemoAlice = common.HexToAddress("0x00000000000000000000000000000000000a11ce").Hex()
	DemoBob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b").Hex()
)

// Demo symbols
var (
	DemoRocket = racer.Symbol{0xF0, 0x9F, 0x9A, 0x80}
	DemoFrog   = racer.Symbol{0xF0, 0x9F, 0x90, 0xB8}
	DemoA      = racer.Symbol{'A'}
)

// Seed is a self-consistent slice of indexed chain state
type Seed struct {
	Cycles     []indexer.Cycle
	Votes      []indexer.Vote
	Claims     []indexer.VoteClaim
	SyncHeight uint64
}

// DemoSeed returns two cycles on one chain. Cycle 2 is current; its board is
// frog 5 (latest block 206), rocket 5 (latest block 210), A 1.
// Cycle 1 holds one claimed vote.
func DemoSeed(chainID uint64) Seed {
	n := decimal.NewFromInt
	creator := common.HexToAddress("0x00000000000000000000000000000000000c0de5").Hex()

	return Seed{
		Cycles: []indexer.Cycle{
			{ChainID: chainID, ID: n(1), BlockNumber: 100, Creator: creator, StartBlock: n(100), BlockLength: n(50), VotePrice: n(10)},
			{ChainID: chainID, ID: n(2), BlockNumber: 200, Creator: creator, StartBlock: n(200), BlockLength: n(100), VotePrice: n(5)},
		},
		Votes: []indexer.Vote{
			{ChainID: chainID, ID: n(1), CycleID: n(1), BlockNumber: 120, Placer: DemoAlice, Symbol: DemoRocket, Amount: n(7), Placement: n(1)},
			{ChainID: chainID, ID: n(2), CycleID: n(2), BlockNumber: 205, Placer: DemoAlice, Symbol: DemoRocket, Amount: n(3), Placement: n(1)},
			{ChainID: chainID, ID: n(3), CycleID: n(2), BlockNumber: 206, Placer: DemoBob, Symbol: DemoFrog, Amount: n(5), Placement: n(2)},
			{ChainID: chainID, ID: n(4), CycleID: n(2), BlockNumber: 210, Placer: DemoBob, Symbol: DemoRocket, Amount: n(2), Placement: n(3)},
			{ChainID: chainID, ID: n(5), CycleID: n(2), BlockNumber: 212, Placer: DemoAlice, Symbol: DemoA, Amount: n(1), Placement: n(4)},
		},
		Claims: []indexer.VoteClaim{
			{ChainID: chainID, VoteID: n(1), BlockNumber: 160, Reward: n(14)},
		},
		SyncHeight: 213,
	}
}
