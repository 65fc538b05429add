// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"github.com/pkg/errors"

	"github.com/vechain/incentives/thor"
)

// AddressSet is an enumerable set of addresses. Removal swaps the last element into the freed slot,
// so the order of elements is not stable.
type AddressSet struct {
	length *Raw[uint64]
	items  *Mapping[Index, thor.Address] // 1-based
	index  *Mapping[thor.Address, uint64]
}

func NewAddressSet(context *Context, pos thor.Bytes32) *AddressSet {
	return &AddressSet{
		length: NewRaw[uint64](context, pos.Child([]byte("length"))),
		items:  NewMapping[Index, thor.Address](context, pos.Child([]byte("items"))),
		index:  NewMapping[thor.Address, uint64](context, pos.Child([]byte("index"))),
	}
}

func (s *AddressSet) Len() (uint64, error) {
	return s.length.Get()
}

func (s *AddressSet) Contains(addr thor.Address) (bool, error) {
	i, err := s.index.Get(addr)
	if err != nil {
		return false, err
	}
	return i != 0, nil
}

// Add inserts addr, it returns false if addr was already present.
func (s *AddressSet) Add(addr thor.Address) (bool, error) {
	ok, err := s.Contains(addr)
	if err != nil || ok {
		return false, err
	}
	n, err := s.length.Get()
	if err != nil {
		return false, err
	}
	n++
	if err := s.items.Set(Index(n), addr); err != nil {
		return false, err
	}
	if err := s.index.Set(addr, n); err != nil {
		return false, err
	}
	return true, s.length.Set(n)
}

// Remove deletes addr, it returns false if addr was not present.
func (s *AddressSet) Remove(addr thor.Address) (bool, error) {
	i, err := s.index.Get(addr)
	if err != nil || i == 0 {
		return false, err
	}
	n, err := s.length.Get()
	if err != nil {
		return false, err
	}
	if i != n {
		last, err := s.items.Get(Index(n))
		if err != nil {
			return false, err
		}
		if err := s.items.Set(Index(i), last); err != nil {
			return false, err
		}
		if err := s.index.Set(last, i); err != nil {
			return false, err
		}
	}
	s.items.Delete(Index(n))
	s.index.Delete(addr)
	return true, s.length.Set(n - 1)
}

// All returns every element of the set.
func (s *AddressSet) All() ([]thor.Address, error) {
	n, err := s.length.Get()
	if err != nil {
		return nil, err
	}
	out := make([]thor.Address, 0, n)
	for i := uint64(1); i <= n; i++ {
		addr, err := s.items.Get(Index(i))
		if err != nil {
			return nil, errors.Wrapf(err, "read set item %d", i)
		}
		out = append(out, addr)
	}
	return out, nil
}
