// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

import (
	"math/big"

	"github.com/vechain/incentives/thor"
)

type OrderType string

const (
	ASC  OrderType = "asc"
	DESC OrderType = "desc"
)

// Range bounds event times, both ends inclusive. To below From means no upper bound.
type Range struct {
	From uint64 `json:"from"`
	To   uint64 `json:"to"`
}

type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

// Filter selects events. Empty fields match everything.
type Filter struct {
	RunID   string        `json:"runID"`
	Emitter *thor.Address `json:"emitter"`
	Account *thor.Address `json:"account"`
	Names   []string      `json:"names"`
	Range   *Range        `json:"range"`
	Order   OrderType     `json:"order"`
	Options *Options      `json:"options"`
}

// Event is a stored event.
type Event struct {
	Seq     uint64       `json:"seq"`
	RunID   string       `json:"runID"`
	Emitter thor.Address `json:"emitter"`
	Name    string       `json:"name"`
	Time    uint64       `json:"time"`
	Account thor.Address `json:"account"`
	Party   thor.Address `json:"party"`
	Amount  *big.Int     `json:"amount"`
	Extra   *big.Int     `json:"extra,omitempty"`
}
