// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package brokerpool

import (
	"math/big"

	"github.com/vechain/incentives/builtin/events"
	"github.com/vechain/incentives/builtin/reverts"
	"github.com/vechain/incentives/builtin/token"
	"github.com/vechain/incentives/thor"
)

var _ token.Receiver = (*Pool)(nil)

// Invest moves amount tokens from delegator into the pool and mints pool-shares at the
// current rate. It returns the shares minted.
func (p *Pool) Invest(now uint64, delegator thor.Address, amount *big.Int) (*big.Int, error) {
	var minted *big.Int
	err := p.sctx.Atomic(func() error {
		if amount.Sign() <= 0 {
			return reverts.New(reverts.InvalidArgument, "amount_not_positive")
		}
		if err := p.ledger.Transfer(now, delegator, p.Address(), amount); err != nil {
			return err
		}
		var err error
		minted, err = p.invest(now, delegator, amount)
		return err
	})
	if err != nil {
		return nil, err
	}
	return minted, nil
}

// OnTokenTransfer invests tokens sent to the pool. Target names the delegator when set.
func (p *Pool) OnTokenTransfer(now uint64, from thor.Address, amount *big.Int, data []byte) error {
	payload, err := token.DecodePayload(data)
	if err != nil {
		return err
	}
	switch payload.Action {
	case token.ActionNone, token.ActionInvest:
		delegator := from
		if !payload.Target.IsZero() {
			delegator = payload.Target
		}
		if amount.Sign() <= 0 {
			return reverts.New(reverts.InvalidArgument, "amount_not_positive")
		}
		_, err := p.invest(now, delegator, amount)
		return err
	default:
		return reverts.New(reverts.InvalidArgument, "unsupported_action_"+payload.Action.String())
	}
}

// invest mints shares, at the real rate, for tokens that are already in the pool.
func (p *Pool) invest(now uint64, delegator thor.Address, amount *big.Int) (*big.Int, error) {
	value, err := p.RealValue(now)
	if err != nil {
		return nil, err
	}
	value.Sub(value, amount)
	supply, err := p.supply.Get()
	if err != nil {
		return nil, err
	}
	if supply.Sign() > 0 && value.Sign() <= 0 {
		return nil, reverts.New(reverts.PolicyRejection, "pool_value_zero")
	}
	minted := sharesFor(amount, value, supply)
	if minted.Sign() == 0 {
		return nil, reverts.New(reverts.InvalidArgument, "amount_too_small")
	}

	if delegator != p.cfg.Operator && p.cfg.MaintenanceMarginPercent > 0 {
		operatorShares, err := p.SharesOf(p.cfg.Operator)
		if err != nil {
			return nil, err
		}
		after := new(big.Int).Add(supply, minted)
		if marginShortfall(operatorShares, after, p.cfg.MaintenanceMarginPercent).Sign() > 0 {
			return nil, reverts.New(reverts.PolicyRejection, "operator_below_margin")
		}
	}

	if err := p.mint(delegator, minted); err != nil {
		return nil, err
	}
	p.sctx.Emit(events.Invested, now, delegator, amount, minted)
	logger.Debug("invested", "pool", p.Address(), "delegator", delegator, "amount", amount, "shares", minted)
	return minted, nil
}

// TransferShares moves pool-shares between holders.
func (p *Pool) TransferShares(now uint64, from, to thor.Address, amount *big.Int) error {
	return p.sctx.Atomic(func() error {
		if amount.Sign() < 0 {
			return reverts.New(reverts.InvalidArgument, "negative_amount")
		}
		if to == p.Address() {
			return reverts.New(reverts.InvalidArgument, "use_queue_payout")
		}
		return p.moveShares(from, to, amount)
	})
}
