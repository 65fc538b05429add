// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sponsorship

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/incentives/builtin/events"
	"github.com/vechain/incentives/builtin/policy"
	"github.com/vechain/incentives/builtin/reverts"
	"github.com/vechain/incentives/builtin/solidity"
	"github.com/vechain/incentives/builtin/token"
	"github.com/vechain/incentives/log"
	"github.com/vechain/incentives/state"
	"github.com/vechain/incentives/thor"
)

var (
	logger = log.WithContext("pkg", "sponsorship")

	slotConfig    = thor.Slot("config")
	slotGlobals   = thor.Slot("globals")
	slotTotals    = thor.Slot("totals")
	slotPositions = thor.Slot("positions")
	slotStakers   = thor.Slot("stakers")
	slotFlags     = thor.Slot("flags")
	slotVotes     = thor.Slot("votes")
	slotFlagCount = thor.Slot("flag-count")
)

func SetLogger(l log.Logger) {
	logger = l
}

// Sponsorship is a funding pool paying its balance out to stakers over time.
type Sponsorship struct {
	sctx     *solidity.Context
	ledger   token.Ledger
	dir      Directory
	cfg      *Config
	policies *policy.Set

	config    *solidity.Raw[*Config]
	globals   *solidity.Raw[*policy.Globals]
	totals    *solidity.Raw[*Totals]
	positions *solidity.Mapping[thor.Address, *policy.Position]
	stakers   *solidity.AddressSet
	flags     *solidity.Mapping[thor.Address, *Flag]
	votes     *solidity.Mapping[thor.Bytes32, bool]
	flagCount *solidity.Raw[uint64]
}

func bind(addr thor.Address, st *state.State, ledger token.Ledger, dir Directory) *Sponsorship {
	sctx := solidity.NewContext(addr, st)
	return &Sponsorship{
		sctx:      sctx,
		ledger:    ledger,
		dir:       dir,
		config:    solidity.NewRaw[*Config](sctx, slotConfig),
		globals:   solidity.NewRaw[*policy.Globals](sctx, slotGlobals),
		totals:    solidity.NewRaw[*Totals](sctx, slotTotals),
		positions: solidity.NewMapping[thor.Address, *policy.Position](sctx, slotPositions),
		stakers:   solidity.NewAddressSet(sctx, slotStakers),
		flags:     solidity.NewMapping[thor.Address, *Flag](sctx, slotFlags),
		votes:     solidity.NewMapping[thor.Bytes32, bool](sctx, slotVotes),
		flagCount: solidity.NewRaw[uint64](sctx, slotFlagCount),
	}
}

// New creates a sponsorship at addr. The policies are validated and attached here;
// an invalid configuration creates nothing.
func New(now uint64, addr thor.Address, st *state.State, ledger token.Ledger, dir Directory, cfg *Config) (*Sponsorship, error) {
	set, err := policy.Build(cfg.Policies)
	if err != nil {
		return nil, err
	}
	if cfg.MinimumStake == nil {
		cfg.MinimumStake = new(big.Int)
	}
	if cfg.MinimumStake.Sign() < 0 {
		return nil, reverts.New(reverts.Configuration, "negative_minimum_stake")
	}

	s := bind(addr, st, ledger, dir)
	s.cfg = cfg
	s.policies = set

	err = s.sctx.Atomic(func() error {
		if err := s.config.Set(cfg); err != nil {
			return err
		}
		g := policy.NewGlobals()
		g.LastUpdate = now
		if err := s.globals.Set(g); err != nil {
			return err
		}
		return s.totals.Set(newTotals())
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("created sponsorship", "addr", addr, "rate", set.Allocation.Rate(), "minOperators", cfg.MinOperatorCount)
	return s, nil
}

// Load binds to a sponsorship previously created at addr.
func Load(addr thor.Address, st *state.State, ledger token.Ledger, dir Directory) (*Sponsorship, error) {
	s := bind(addr, st, ledger, dir)
	cfg, err := s.config.Get()
	if err != nil {
		return nil, errors.Wrapf(err, "load sponsorship %v", addr)
	}
	if cfg.MinimumStake == nil {
		return nil, errors.Errorf("no sponsorship at %v", addr)
	}
	set, err := policy.Build(cfg.Policies)
	if err != nil {
		return nil, errors.Wrap(err, "rebuild policies")
	}
	s.cfg = cfg
	s.policies = set
	return s, nil
}

//
// Getters - no state change
//

func (s *Sponsorship) Address() thor.Address {
	return s.sctx.Address()
}

func (s *Sponsorship) Config() *Config {
	return s.cfg
}

func (s *Sponsorship) Policies() *policy.Set {
	return s.policies
}

// IsRunning reports whether the sponsorship was paying out as of its last update.
func (s *Sponsorship) IsRunning() (bool, error) {
	g, err := s.getGlobals()
	if err != nil {
		return false, err
	}
	return g.IsRunning(s.cfg.MinOperatorCount), nil
}

// Globals returns the accrual state advanced to now, without changing any state.
func (s *Sponsorship) Globals(now uint64) (*policy.Globals, error) {
	g, err := s.getGlobals()
	if err != nil {
		return nil, err
	}
	s.policies.Allocation.Settle(g, now, g.IsRunning(s.cfg.MinOperatorCount))
	return g, nil
}

// Balance returns the unallocated funds as of now.
func (s *Sponsorship) Balance(now uint64) (*big.Int, error) {
	g, err := s.Globals(now)
	if err != nil {
		return nil, err
	}
	return g.Balance, nil
}

func (s *Sponsorship) Totals() (*Totals, error) {
	return s.getTotals()
}

func (s *Sponsorship) StakeOf(staker thor.Address) (*big.Int, error) {
	p, err := s.getPosition(staker)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(p.Stake), nil
}

// Position returns the stored position of staker, an empty position if there is none.
func (s *Sponsorship) Position(staker thor.Address) (*policy.Position, error) {
	return s.getPosition(staker)
}

// AllocationOf returns what staker would be paid by a withdrawal at now.
func (s *Sponsorship) AllocationOf(now uint64, staker thor.Address) (*big.Int, error) {
	g, err := s.Globals(now)
	if err != nil {
		return nil, err
	}
	p, err := s.getPosition(staker)
	if err != nil {
		return nil, err
	}
	if p.IsEmpty() {
		return new(big.Int), nil
	}
	s.policies.Allocation.SettlePosition(g, p)
	return p.Unpaid, nil
}

// Stakers lists every staker with an open position.
func (s *Sponsorship) Stakers() ([]thor.Address, error) {
	return s.stakers.All()
}

// FlagOf returns the open flag against target, an empty flag if there is none.
func (s *Sponsorship) FlagOf(target thor.Address) (*Flag, error) {
	return s.getFlag(target)
}

//
// Storage helpers
//

func (s *Sponsorship) getGlobals() (*policy.Globals, error) {
	g, err := s.globals.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get globals")
	}
	if g == nil || g.Balance == nil {
		g = policy.NewGlobals()
	}
	return g, nil
}

func (s *Sponsorship) getTotals() (*Totals, error) {
	t, err := s.totals.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get totals")
	}
	if t == nil || t.Sponsored == nil {
		t = newTotals()
	}
	return t, nil
}

func (s *Sponsorship) getPosition(staker thor.Address) (*policy.Position, error) {
	p, err := s.positions.Get(staker)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get position")
	}
	if p == nil || p.Stake == nil {
		p = policy.NewPosition(0, new(big.Int))
	}
	return p, nil
}

func (s *Sponsorship) getFlag(target thor.Address) (*Flag, error) {
	f, err := s.flags.Get(target)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get flag")
	}
	if f == nil || f.VotesFor == nil {
		f = &Flag{}
	}
	return f, nil
}

// settle advances the globals to now and returns them for further mutation.
// The caller must store them back.
func (s *Sponsorship) settle(now uint64) (*policy.Globals, error) {
	g, err := s.getGlobals()
	if err != nil {
		return nil, err
	}
	if now < g.LastUpdate {
		return nil, reverts.New(reverts.InvalidArgument, "time_in_past")
	}
	running := g.IsRunning(s.cfg.MinOperatorCount)
	res := s.policies.Allocation.Settle(g, now, running)
	if res.InsolvencyStarted {
		logger.Info("sponsorship insolvent", "addr", s.Address(), "since", g.InsolventSince)
		s.sctx.Emit(events.InsolvencyStarted, now, thor.Address{}, g.Balance, new(big.Int).SetUint64(g.InsolventSince))
	}
	return g, nil
}

// credit adds forfeited or sponsored funds to the balance, ending an insolvency.
func (s *Sponsorship) credit(g *policy.Globals, now uint64, amount *big.Int) {
	if amount.Sign() <= 0 {
		return
	}
	if g.Insolvent {
		forfeited := s.policies.Allocation.Forfeited(g, now)
		s.sctx.Emit(events.InsolvencyEnded, now, thor.Address{}, forfeited, new(big.Int).SetUint64(g.InsolventSince))
		logger.Info("sponsorship solvent again", "addr", s.Address(), "forfeited", forfeited)
		g.Insolvent = false
		g.InsolventSince = 0
	}
	g.Balance.Add(g.Balance, amount)
}

func (s *Sponsorship) updateTotals(fn func(t *Totals)) error {
	t, err := s.getTotals()
	if err != nil {
		return err
	}
	fn(t)
	return s.totals.Set(t)
}

func (s *Sponsorship) pay(now uint64, to thor.Address, amount *big.Int) error {
	return s.ledger.Transfer(now, s.Address(), to, amount)
}
