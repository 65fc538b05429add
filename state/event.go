// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"math/big"

	"github.com/vechain/incentives/thor"
)

// Event is an entry emitted by a built-in contract.
type Event struct {
	Emitter thor.Address // the contract emitting the event
	Name    string
	Time    uint64
	Account thor.Address // the primary subject, e.g. the staker or delegator
	Party   thor.Address // secondary subject, e.g. the flagger or fee beneficiary
	Amount  *big.Int
	Extra   *big.Int `rlp:"nil"` // secondary quantity, e.g. pool shares or penalty
}

func (e *Event) copy() *Event {
	cpy := *e
	if e.Amount != nil {
		cpy.Amount = new(big.Int).Set(e.Amount)
	}
	if e.Extra != nil {
		cpy.Extra = new(big.Int).Set(e.Extra)
	}
	return &cpy
}
