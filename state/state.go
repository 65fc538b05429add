// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/golang/snappy"

	"github.com/vechain/incentives/cache"
	"github.com/vechain/incentives/kv"
	"github.com/vechain/incentives/stackedmap"
	"github.com/vechain/incentives/thor"
)

const (
	balanceBucket = kv.Bucket("b")
	storageBucket = kv.Bucket("s")

	cacheSize = 4096
)

type (
	balanceKey thor.Address
	storageKey struct {
		addr thor.Address
		key  thor.Bytes32
	}
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// State manages the ledger state.
type State struct {
	src    kv.Getter            // committed source, may be nil
	cache  *cache.LRU[any, any] // values loaded from src
	sm     *stackedmap.StackedMap[any, any]
	events []*Event
	marks  []int // events length at each checkpoint
}

// New create state object on top of the committed source.
// A nil source means an empty state.
func New(src kv.Getter) *State {
	lru, _ := cache.NewLRU[any, any](cacheSize)
	s := &State{
		src:   src,
		cache: lru,
	}
	s.sm = stackedmap.New(s.cacheGetter)
	return s
}

// NewMem creates an empty in-memory state.
func NewMem() *State {
	return New(nil)
}

// cacheGetter implements stackedmap.MapGetter.
func (s *State) cacheGetter(key any) (any, bool, error) {
	switch key.(type) {
	case balanceKey, storageKey:
	default:
		panic(fmt.Errorf("unexpected key type %+v", key))
	}
	v, err := s.cache.GetOrLoad(key, s.load)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (s *State) load(key any) (any, error) {
	switch k := key.(type) {
	case balanceKey:
		raw, err := s.loadRaw(balanceBucket, k[:])
		if err != nil {
			return nil, err
		}
		bal := new(big.Int)
		if len(raw) > 0 {
			if err := rlp.DecodeBytes(raw, bal); err != nil {
				return nil, err
			}
		}
		return bal, nil
	case storageKey:
		raw, err := s.loadRaw(storageBucket, append(k.addr.Bytes(), k.key.Bytes()...))
		if err != nil {
			return nil, err
		}
		return rlp.RawValue(raw), nil
	}
	panic(fmt.Errorf("unexpected key type %+v", key))
}

func (s *State) loadRaw(bucket kv.Bucket, key []byte) ([]byte, error) {
	if s.src == nil {
		return nil, nil
	}
	getter := bucket.NewGetter(s.src)
	enc, err := getter.Get(key)
	if err != nil {
		if getter.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return snappy.Decode(nil, enc)
}

// GetBalance returns balance for the given address.
func (s *State) GetBalance(addr thor.Address) (*big.Int, error) {
	v, _, err := s.sm.Get(balanceKey(addr))
	if err != nil {
		return nil, &Error{err}
	}
	return new(big.Int).Set(v.(*big.Int)), nil
}

// SetBalance set balance for the given address.
func (s *State) SetBalance(addr thor.Address, balance *big.Int) error {
	if balance.Sign() < 0 {
		return &Error{fmt.Errorf("negative balance for %v", addr)}
	}
	s.sm.Put(balanceKey(addr), new(big.Int).Set(balance))
	return nil
}

// GetRawStorage returns storage value in rlp raw for given address and key.
func (s *State) GetRawStorage(addr thor.Address, key thor.Bytes32) (rlp.RawValue, error) {
	v, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return v.(rlp.RawValue), nil
}

// SetRawStorage set storage value in rlp raw.
func (s *State) SetRawStorage(addr thor.Address, key thor.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// EncodeStorage set storage value encoded by given enc method.
// Error returned by end will be absorbed by State instance.
func (s *State) EncodeStorage(addr thor.Address, key thor.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
// Error returned by dec will be absorbed by State instance.
func (s *State) DecodeStorage(addr thor.Address, key thor.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// AddEvent appends an event to the current revision.
func (s *State) AddEvent(ev *Event) {
	s.events = append(s.events, ev.copy())
}

// Events returns all events emitted and not reverted.
func (s *State) Events() []*Event {
	out := make([]*Event, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev.copy())
	}
	return out
}

// EventCount returns the number of events emitted and not reverted.
func (s *State) EventCount() int {
	return len(s.events)
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	s.marks = append(s.marks, len(s.events))
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	if revision < 1 || revision > len(s.marks) {
		panic(fmt.Errorf("invalid revision %d", revision))
	}
	s.sm.PopTo(revision)
	s.events = s.events[:s.marks[revision-1]]
	s.marks = s.marks[:revision-1]
}

// Commit writes the latest value of every changed key into the putter.
func (s *State) Commit(putter kv.Putter) error {
	latest := make(map[any]any)
	var order []any
	for _, entry := range s.sm.Journal() {
		if _, ok := latest[entry.Key]; !ok {
			order = append(order, entry.Key)
		}
		latest[entry.Key] = entry.Value
	}

	balances := balanceBucket.NewPutter(putter)
	storages := storageBucket.NewPutter(putter)
	for _, key := range order {
		switch k := key.(type) {
		case balanceKey:
			enc, err := rlp.EncodeToBytes(latest[key].(*big.Int))
			if err != nil {
				return &Error{err}
			}
			if err := balances.Put(k[:], snappy.Encode(nil, enc)); err != nil {
				return &Error{err}
			}
		case storageKey:
			raw := latest[key].(rlp.RawValue)
			slot := append(k.addr.Bytes(), k.key.Bytes()...)
			if len(raw) == 0 {
				if err := storages.Delete(slot); err != nil {
					return &Error{err}
				}
				continue
			}
			if err := storages.Put(slot, snappy.Encode(nil, raw)); err != nil {
				return &Error{err}
			}
		}
	}
	s.cache.Purge()
	return nil
}
