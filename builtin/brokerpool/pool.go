// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package brokerpool implements the operator pool: delegators invest tokens for pool-shares,
// and the operator stakes the pooled tokens into sponsorships.
package brokerpool

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/incentives/builtin/reverts"
	"github.com/vechain/incentives/builtin/solidity"
	"github.com/vechain/incentives/builtin/token"
	"github.com/vechain/incentives/log"
	"github.com/vechain/incentives/state"
	"github.com/vechain/incentives/thor"
)

var (
	logger = log.WithContext("pkg", "brokerpool")

	slotConfig     = thor.Slot("config")
	slotShares     = thor.Slot("shares")
	slotSupply     = thor.Slot("supply")
	slotStakedInto = thor.Slot("staked-into")
	slotStaked     = thor.Slot("staked")
	slotCached     = thor.Slot("cached-value")
	slotQueue      = thor.Slot("queue")
	slotQueueHead  = thor.Slot("queue-head")
	slotQueueTail  = thor.Slot("queue-tail")
)

func SetLogger(l log.Logger) {
	logger = l
}

// Pool is an operator pool.
type Pool struct {
	sctx         *solidity.Context
	ledger       token.Ledger
	sponsorships Registry
	cfg          *Config

	config     *solidity.Raw[*Config]
	shares     *solidity.Mapping[thor.Address, *big.Int]
	supply     *solidity.Uint256
	stakedInto *solidity.AddressSet
	staked     *solidity.Mapping[thor.Address, *big.Int]
	cached     *solidity.Mapping[thor.Address, *big.Int]
	queue      *solidity.Mapping[solidity.Index, *QueueEntry]
	queueHead  *solidity.Raw[uint64]
	queueTail  *solidity.Raw[uint64]
}

func bind(addr thor.Address, st *state.State, ledger token.Ledger, reg Registry) *Pool {
	sctx := solidity.NewContext(addr, st)
	return &Pool{
		sctx:         sctx,
		ledger:       ledger,
		sponsorships: reg,
		config:       solidity.NewRaw[*Config](sctx, slotConfig),
		shares:       solidity.NewMapping[thor.Address, *big.Int](sctx, slotShares),
		supply:       solidity.NewUint256(sctx, slotSupply),
		stakedInto:   solidity.NewAddressSet(sctx, slotStakedInto),
		staked:       solidity.NewMapping[thor.Address, *big.Int](sctx, slotStaked),
		cached:       solidity.NewMapping[thor.Address, *big.Int](sctx, slotCached),
		queue:        solidity.NewMapping[solidity.Index, *QueueEntry](sctx, slotQueue),
		queueHead:    solidity.NewRaw[uint64](sctx, slotQueueHead),
		queueTail:    solidity.NewRaw[uint64](sctx, slotQueueTail),
	}
}

// New creates an operator pool at addr. An invalid configuration creates nothing.
func New(addr thor.Address, st *state.State, ledger token.Ledger, reg Registry, cfg *Config) (*Pool, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	p := bind(addr, st, ledger, reg)
	p.cfg = cfg
	if err := p.sctx.Atomic(func() error {
		return p.config.Set(cfg)
	}); err != nil {
		return nil, err
	}
	logger.Debug("created operator pool", "addr", addr, "operator", cfg.Operator, "share", cfg.OperatorSharePercent)
	return p, nil
}

// Load binds to a pool previously created at addr.
func Load(addr thor.Address, st *state.State, ledger token.Ledger, reg Registry) (*Pool, error) {
	p := bind(addr, st, ledger, reg)
	cfg, err := p.config.Get()
	if err != nil {
		return nil, errors.Wrapf(err, "load operator pool %v", addr)
	}
	if cfg.Operator.IsZero() {
		return nil, errors.Errorf("no operator pool at %v", addr)
	}
	p.cfg = cfg
	return p, nil
}

//
// Getters - no state change
//

func (p *Pool) Address() thor.Address {
	return p.sctx.Address()
}

func (p *Pool) Config() *Config {
	return p.cfg
}

func (p *Pool) Operator() thor.Address {
	return p.cfg.Operator
}

// SharesOf returns the pool-shares held by addr. Escrowed shares are held by the pool itself.
func (p *Pool) SharesOf(addr thor.Address) (*big.Int, error) {
	v, err := p.shares.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get shares")
	}
	return v, nil
}

func (p *Pool) TotalSupply() (*big.Int, error) {
	return p.supply.Get()
}

// Liquid returns the tokens the pool holds and has not staked.
func (p *Pool) Liquid() (*big.Int, error) {
	return p.ledger.BalanceOf(p.Address())
}

// StakedInto lists the sponsorships the pool has a stake in.
func (p *Pool) StakedInto() ([]thor.Address, error) {
	return p.stakedInto.All()
}

// StakedIn returns what the pool staked into sp, net of slashing.
func (p *Pool) StakedIn(sp thor.Address) (*big.Int, error) {
	v, err := p.staked.Get(sp)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get staked amount")
	}
	return v, nil
}

// OperatorFraction returns the operator's holdings and the supply.
func (p *Pool) OperatorFraction() (operator, supply *big.Int, err error) {
	if operator, err = p.SharesOf(p.cfg.Operator); err != nil {
		return nil, nil, err
	}
	if supply, err = p.supply.Get(); err != nil {
		return nil, nil, err
	}
	return operator, supply, nil
}

// ValueOf returns the approximate token value of the given pool-shares.
func (p *Pool) ValueOf(shares *big.Int) (*big.Int, error) {
	v, err := p.ApproximateValue()
	if err != nil {
		return nil, err
	}
	s, err := p.supply.Get()
	if err != nil {
		return nil, err
	}
	return shareValue(shares, v, s), nil
}

//
// Pool-share helpers
//

func (p *Pool) mint(to thor.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	bal, err := p.SharesOf(to)
	if err != nil {
		return err
	}
	if err := p.shares.Set(to, bal.Add(bal, amount)); err != nil {
		return err
	}
	return p.supply.Add(amount)
}

func (p *Pool) burn(from thor.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	bal, err := p.SharesOf(from)
	if err != nil {
		return err
	}
	if bal.Cmp(amount) < 0 {
		return reverts.New(reverts.InsufficientFunds, "insufficient_shares")
	}
	if err := p.shares.Set(from, bal.Sub(bal, amount)); err != nil {
		return err
	}
	return p.supply.Sub(amount)
}

func (p *Pool) moveShares(from, to thor.Address, amount *big.Int) error {
	if amount.Sign() == 0 || from == to {
		return nil
	}
	bal, err := p.SharesOf(from)
	if err != nil {
		return err
	}
	if bal.Cmp(amount) < 0 {
		return reverts.New(reverts.InsufficientFunds, "insufficient_shares")
	}
	if err := p.shares.Set(from, bal.Sub(bal, amount)); err != nil {
		return err
	}
	dst, err := p.SharesOf(to)
	if err != nil {
		return err
	}
	return p.shares.Set(to, dst.Add(dst, amount))
}

// shareValue is shares·value/supply, rounded down.
func shareValue(shares, value, supply *big.Int) *big.Int {
	if supply.Sign() == 0 {
		return new(big.Int)
	}
	v := new(big.Int).Mul(shares, value)
	return v.Quo(v, supply)
}

// sharesFor is amount·supply/value, the shares an amount buys at the given rate.
func sharesFor(amount, value, supply *big.Int) *big.Int {
	if supply.Sign() == 0 || value.Sign() == 0 {
		return new(big.Int).Set(amount)
	}
	s := new(big.Int).Mul(amount, supply)
	return s.Quo(s, value)
}

func ceilDiv(x, y *big.Int) *big.Int {
	q, m := new(big.Int).QuoRem(x, y, new(big.Int))
	if m.Sign() > 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}

func minInt(a, b *big.Int) *big.Int {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}
