// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/incentives/thor"
)

// Uint256 is a wrapper for storage and retrieval of an unsigned 256 bit integer.
// Values that don't fit into 256 bits, and negative values, are rejected.
type Uint256 struct {
	raw *Raw[*big.Int]
}

func NewUint256(context *Context, pos thor.Bytes32) *Uint256 {
	return &Uint256{raw: NewRaw[*big.Int](context, pos)}
}

func (u *Uint256) Get() (*big.Int, error) {
	return u.raw.Get()
}

func (u *Uint256) Set(value *big.Int) error {
	if value.Sign() < 0 {
		return errors.Errorf("uint256 underflow: %v", value)
	}
	if _, overflow := uint256.FromBig(value); overflow {
		return errors.Errorf("uint256 overflow: %v", value)
	}
	return u.raw.Set(value)
}

func (u *Uint256) Add(value *big.Int) error {
	storage, err := u.Get()
	if err != nil {
		return err
	}
	return u.Set(storage.Add(storage, value))
}

func (u *Uint256) Sub(value *big.Int) error {
	storage, err := u.Get()
	if err != nil {
		return err
	}
	return u.Set(storage.Sub(storage, value))
}
