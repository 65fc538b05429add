// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"math/big"

	"github.com/vechain/incentives/state"
	"github.com/vechain/incentives/thor"
)

// Context binds storage abstractions of a contract to its address in the state.
type Context struct {
	address thor.Address
	state   *state.State
}

func NewContext(address thor.Address, state *state.State) *Context {
	return &Context{
		address: address,
		state:   state,
	}
}

func (c *Context) Address() thor.Address {
	return c.address
}

func (c *Context) State() *state.State {
	return c.state
}

// Atomic runs fn inside a state checkpoint. Any error returned by fn, or a panic,
// reverts every balance, storage and event change made since the checkpoint.
func (c *Context) Atomic(fn func() error) (err error) {
	rev := c.state.NewCheckpoint()
	defer func() {
		if r := recover(); r != nil {
			c.state.RevertTo(rev)
			panic(r)
		}
		if err != nil {
			c.state.RevertTo(rev)
		}
	}()
	return fn()
}

// Emit journals an event emitted by the contract.
func (c *Context) Emit(name string, now uint64, account thor.Address, amount *big.Int, extra *big.Int) {
	c.EmitWithParty(name, now, account, thor.Address{}, amount, extra)
}

// EmitWithParty journals an event that involves a second account.
func (c *Context) EmitWithParty(name string, now uint64, account, party thor.Address, amount *big.Int, extra *big.Int) {
	if amount == nil {
		amount = new(big.Int)
	}
	c.state.AddEvent(&state.Event{
		Emitter: c.address,
		Name:    name,
		Time:    now,
		Account: account,
		Party:   party,
		Amount:  amount,
		Extra:   extra,
	})
}
