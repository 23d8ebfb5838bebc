// Package racer decodes the Racer voting contract's event logs.
//
// Decoding is pure: DecodeLog maps a raw log to one of the contract events
// without touching the network, so it can be tested against fixed byte
// fixtures and reused by any transport that yields types.Log values.
package racer

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"

	"github.com/screwyprof/racer/pkg/numeric"
)

// Decoding errors
var (
	ErrUnknownEvent = errors.New("unknown contract event")
	ErrMalformedLog = errors.New("malformed contract log")
)

// Event names as declared by the contract
const (
	EventCycleCreated = "CycleCreated"
	EventVotePlaced   = "VotePlaced"
	EventVoteClaimed  = "VoteClaimed"
)

const contractJSON = `[
	{"type":"event","name":"CycleCreated","anonymous":false,"inputs":[
		{"name":"creator","type":"address","indexed":true},
		{"name":"id","type":"uint256","indexed":true},
		{"name":"startingBlock","type":"uint256","indexed":false},
		{"name":"blockLength","type":"uint256","indexed":false},
		{"name":"votePrice","type":"uint256","indexed":false}
	]},
	{"type":"event","name":"VotePlaced","anonymous":false,"inputs":[
		{"name":"placer","type":"address","indexed":true},
		{"name":"voteId","type":"uint256","indexed":true},
		{"name":"cycleId","type":"uint256","indexed":true},
		{"name":"symbol","type":"bytes4","indexed":false},
		{"name":"amount","type":"uint256","indexed":false},
		{"name":"placement","type":"uint256","indexed":false}
	]},
	{"type":"event","name":"VoteClaimed","anonymous":false,"inputs":[
		{"name":"placer","type":"address","indexed":true},
		{"name":"id","type":"uint256","indexed":true},
		{"name":"reward","type":"uint256","indexed":false}
	]}
]`

// ContractABI is the parsed event ABI of the Racer contract
var ContractABI = mustParseABI()

func mustParseABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(contractJSON))
	if err != nil {
		panic(err)
	}
	return parsed
}

// Symbol is the 4-byte token a vote is placed on
type Symbol [4]byte

// Event is one of CycleCreated, VotePlaced or VoteClaimed
type Event interface {
	eventName() string
}

// CycleCreated opens a new voting round
type CycleCreated struct {
	Creator     common.Address
	ID          decimal.Decimal
	StartBlock  decimal.Decimal
	BlockLength decimal.Decimal
	VotePrice   decimal.Decimal
}

// VotePlaced records a stake on a symbol within a cycle
type VotePlaced struct {
	Placer    common.Address
	VoteID    decimal.Decimal
	CycleID   decimal.Decimal
	Symbol    Symbol
	Amount    decimal.Decimal
	Placement decimal.Decimal
}

// VoteClaimed marks a vote's reward as paid out
type VoteClaimed struct {
	Placer common.Address
	VoteID decimal.Decimal
	Reward decimal.Decimal
}

func (CycleCreated) eventName() string { return EventCycleCreated }
func (VotePlaced) eventName() string   { return EventVotePlaced }
func (VoteClaimed) eventName() string  { return EventVoteClaimed }

// Name returns the contract-level name of e
func Name(e Event) string {
	return e.eventName()
}

// Log is a decoded event tagged with the block it was emitted in
type Log struct {
	Event       Event
	BlockNumber uint64
	TxHash      common.Hash
	Index       uint
}

// EventTopics returns the topic filter matching every Racer event
func EventTopics() [][]common.Hash {
	return [][]common.Hash{{
		ContractABI.Events[EventCycleCreated].ID,
		ContractABI.Events[EventVotePlaced].ID,
		ContractABI.Events[EventVoteClaimed].ID,
	}}
}

// DecodeLog maps a raw log onto its contract event
func DecodeLog(l types.Log) (Log, error) {
	if len(l.Topics) == 0 {
		return Log{}, fmt.Errorf("%w: no topics", ErrUnknownEvent)
	}

	ev, err := ContractABI.EventByID(l.Topics[0])
	if err != nil {
		return Log{}, fmt.Errorf("%w: %s", ErrUnknownEvent, l.Topics[0].Hex())
	}

	fields := make(map[string]any)
	if err := abi.ParseTopicsIntoMap(fields, indexed(ev.Inputs), l.Topics[1:]); err != nil {
		return Log{}, fmt.Errorf("%w: %s topics: %w", ErrMalformedLog, ev.Name, err)
	}
	if err := ev.Inputs.NonIndexed().UnpackIntoMap(fields, l.Data); err != nil {
		return Log{}, fmt.Errorf("%w: %s data: %w", ErrMalformedLog, ev.Name, err)
	}

	d := decoder{fields: fields}
	var event Event
	switch ev.Name {
	case EventCycleCreated:
		event = CycleCreated{
			Creator:     d.address("creator"),
			ID:          d.number("id"),
			StartBlock:  d.number("startingBlock"),
			BlockLength: d.number("blockLength"),
			VotePrice:   d.number("votePrice"),
		}
	case EventVotePlaced:
		event = VotePlaced{
			Placer:    d.address("placer"),
			VoteID:    d.number("voteId"),
			CycleID:   d.number("cycleId"),
			Symbol:    d.symbol("symbol"),
			Amount:    d.number("amount"),
			Placement: d.number("placement"),
		}
	case EventVoteClaimed:
		event = VoteClaimed{
			Placer: d.address("placer"),
			VoteID: d.number("id"),
			Reward: d.number("reward"),
		}
	default:
		return Log{}, fmt.Errorf("%w: %s", ErrUnknownEvent, ev.Name)
	}
	if d.err != nil {
		return Log{}, fmt.Errorf("%w: %s: %w", ErrMalformedLog, ev.Name, d.err)
	}

	return Log{
		Event:       event,
		BlockNumber: l.BlockNumber,
		TxHash:      l.TxHash,
		Index:       l.Index,
	}, nil
}

func indexed(args abi.Arguments) abi.Arguments {
	var out abi.Arguments
	for _, arg := range args {
		if arg.Indexed {
			out = append(out, arg)
		}
	}
	return out
}

// decoder pulls typed values out of an unpacked field map, keeping the first error
type decoder struct {
	fields map[string]any
	err    error
}

func (d *decoder) address(name string) common.Address {
	v, ok := d.fields[name].(common.Address)
	if !ok {
		d.fail(name)
	}
	return v
}

func (d *decoder) number(name string) decimal.Decimal {
	v, ok := d.fields[name].(*big.Int)
	if !ok {
		d.fail(name)
		return decimal.Zero
	}
	return numeric.FromBig(v)
}

func (d *decoder) symbol(name string) Symbol {
	v, ok := d.fields[name].([4]byte)
	if !ok {
		d.fail(name)
	}
	return Symbol(v)
}

func (d *decoder) fail(name string) {
	if d.err == nil {
		d.err = fmt.Errorf("field %q has type %T", name, d.fields[name])
	}
}
