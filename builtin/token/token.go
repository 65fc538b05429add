// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"math/big"

	"github.com/vechain/incentives/builtin/events"
	"github.com/vechain/incentives/builtin/reverts"
	"github.com/vechain/incentives/builtin/solidity"
	"github.com/vechain/incentives/log"
	"github.com/vechain/incentives/state"
	"github.com/vechain/incentives/thor"
)

var (
	logger = log.WithContext("pkg", "token")

	slotTotalSupply = thor.Slot("total-supply")
)

// Receiver is a contract that reacts to tokens sent with TransferAndNotify.
type Receiver interface {
	OnTokenTransfer(now uint64, from thor.Address, amount *big.Int, data []byte) error
}

// Ledger is the fungible token interface the pools are built on.
type Ledger interface {
	BalanceOf(addr thor.Address) (*big.Int, error)
	Transfer(now uint64, from, to thor.Address, amount *big.Int) error
	TransferAndNotify(now uint64, from, to thor.Address, amount *big.Int, data []byte) error
}

var _ Ledger = (*Token)(nil)

// Token is the staking token. Balances live in the account balances of the state.
type Token struct {
	sctx        *solidity.Context
	totalSupply *solidity.Uint256
	receivers   map[thor.Address]Receiver
}

func New(addr thor.Address, st *state.State) *Token {
	sctx := solidity.NewContext(addr, st)
	return &Token{
		sctx:        sctx,
		totalSupply: solidity.NewUint256(sctx, slotTotalSupply),
		receivers:   make(map[thor.Address]Receiver),
	}
}

func (t *Token) Address() thor.Address {
	return t.sctx.Address()
}

// Register binds a receiver contract to its address. Only registered addresses accept TransferAndNotify.
func (t *Token) Register(addr thor.Address, r Receiver) {
	t.receivers[addr] = r
}

// Unregister removes the receiver at addr, if any.
func (t *Token) Unregister(addr thor.Address) {
	delete(t.receivers, addr)
}

// IsReceiver reports whether addr is a registered receiver.
func (t *Token) IsReceiver(addr thor.Address) bool {
	_, ok := t.receivers[addr]
	return ok
}

func (t *Token) BalanceOf(addr thor.Address) (*big.Int, error) {
	return t.sctx.State().GetBalance(addr)
}

func (t *Token) TotalSupply() (*big.Int, error) {
	return t.totalSupply.Get()
}

// Transfer moves amount from one account to another.
func (t *Token) Transfer(now uint64, from, to thor.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return reverts.New(reverts.InvalidArgument, "negative_amount")
	}
	if amount.Sign() == 0 || from == to {
		return nil
	}
	st := t.sctx.State()
	fromBal, err := st.GetBalance(from)
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return reverts.New(reverts.InsufficientFunds, "insufficient_balance")
	}
	toBal, err := st.GetBalance(to)
	if err != nil {
		return err
	}
	if err := st.SetBalance(from, fromBal.Sub(fromBal, amount)); err != nil {
		return err
	}
	if err := st.SetBalance(to, toBal.Add(toBal, amount)); err != nil {
		return err
	}
	t.sctx.EmitWithParty(events.Transfer, now, from, to, amount, nil)
	return nil
}

// TransferAndNotify transfers amount to a receiver contract and calls its OnTokenTransfer.
// A rejection by the receiver reverts the transfer.
func (t *Token) TransferAndNotify(now uint64, from, to thor.Address, amount *big.Int, data []byte) error {
	recv, ok := t.receivers[to]
	if !ok {
		return reverts.New(reverts.InvalidArgument, "not_a_receiver")
	}
	return t.sctx.Atomic(func() error {
		if err := t.Transfer(now, from, to, amount); err != nil {
			return err
		}
		if err := recv.OnTokenTransfer(now, from, amount, data); err != nil {
			logger.Debug("transfer rejected by receiver", "to", to, "error", err)
			return err
		}
		return nil
	})
}

// Mint creates amount new tokens for to.
func (t *Token) Mint(now uint64, to thor.Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return reverts.New(reverts.InvalidArgument, "non_positive_amount")
	}
	st := t.sctx.State()
	bal, err := st.GetBalance(to)
	if err != nil {
		return err
	}
	if err := t.totalSupply.Add(amount); err != nil {
		return err
	}
	if err := st.SetBalance(to, bal.Add(bal, amount)); err != nil {
		return err
	}
	t.sctx.Emit(events.Mint, now, to, amount, nil)
	return nil
}
