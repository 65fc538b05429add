// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package policy holds the strategies a sponsorship is configured with.
// Every strategy is a pure function of the sponsorship or position state plus one parameter.
package policy

import (
	"math/big"

	"github.com/vechain/incentives/builtin/reverts"
)

// Named strategies.
const (
	StakeWeighted    = "StakeWeightedAllocation"
	DefaultLeave     = "DefaultLeave"
	AdminKick        = "AdminKick"
	VoteKick         = "VoteKick"
	MaxOperatorsJoin = "MaxOperatorsJoin"
	OperatorPoolOnly = "OperatorPoolOnlyJoin"
)

// MaxPenaltyPeriodSeconds caps the penalty period of the leave policy.
const MaxPenaltyPeriodSeconds = 30 * 24 * 60 * 60

// Config selects a named strategy and its parameter.
// An empty Name means the slot has no strategy attached.
type Config struct {
	Name  string
	Param *big.Int
}

func (c Config) IsEmpty() bool {
	return c.Name == ""
}

func (c Config) param() *big.Int {
	if c.Param == nil {
		return new(big.Int)
	}
	return c.Param
}

// Configs is the full policy setup of a sponsorship.
type Configs struct {
	Allocation Config
	Leave      Config
	Kick       Config
	Join       []Config
}

// Set is a validated, ready to use Configs.
type Set struct {
	Allocation Allocation
	Leave      Leave // nil when leaving is never penalised
	Kick       Kick  // nil when no kicking is possible
	Join       []Join
}

// Build validates every config and instantiates its strategy.
// Join strategies keep the order they were attached in.
func Build(cfgs Configs) (*Set, error) {
	alloc, err := NewAllocation(cfgs.Allocation)
	if err != nil {
		return nil, err
	}
	set := &Set{Allocation: alloc}
	if !cfgs.Leave.IsEmpty() {
		if set.Leave, err = NewLeave(cfgs.Leave); err != nil {
			return nil, err
		}
	}
	if !cfgs.Kick.IsEmpty() {
		if set.Kick, err = NewKick(cfgs.Kick); err != nil {
			return nil, err
		}
	}
	for _, cfg := range cfgs.Join {
		j, err := NewJoin(cfg)
		if err != nil {
			return nil, err
		}
		set.Join = append(set.Join, j)
	}
	return set, nil
}

func NewAllocation(cfg Config) (Allocation, error) {
	switch cfg.Name {
	case StakeWeighted:
		if cfg.param().Sign() <= 0 {
			return nil, reverts.New(reverts.Configuration, "allocation_rate_not_positive")
		}
		return &stakeWeighted{rate: new(big.Int).Set(cfg.Param)}, nil
	case "":
		return nil, reverts.New(reverts.Configuration, "allocation_policy_required")
	default:
		return nil, reverts.Newf(reverts.Configuration, "unknown_allocation_policy_%s", cfg.Name)
	}
}

func NewLeave(cfg Config) (Leave, error) {
	switch cfg.Name {
	case DefaultLeave:
		p := cfg.param()
		if p.Sign() < 0 || p.Cmp(big.NewInt(MaxPenaltyPeriodSeconds)) > 0 {
			return nil, reverts.New(reverts.Configuration, "penalty_period_too_long")
		}
		return &defaultLeave{penaltyPeriod: p.Uint64()}, nil
	default:
		return nil, reverts.Newf(reverts.Configuration, "unknown_leave_policy_%s", cfg.Name)
	}
}

func NewKick(cfg Config) (Kick, error) {
	p := cfg.param()
	if cfg.Name == AdminKick || cfg.Name == VoteKick {
		if p.Sign() < 0 || p.Cmp(big.NewInt(100)) > 0 {
			return nil, reverts.New(reverts.Configuration, "slash_percent_out_of_range")
		}
	}
	switch cfg.Name {
	case AdminKick:
		return &adminKick{slashPercent: p.Uint64()}, nil
	case VoteKick:
		return &voteKick{slashPercent: p.Uint64()}, nil
	default:
		return nil, reverts.Newf(reverts.Configuration, "unknown_kick_policy_%s", cfg.Name)
	}
}

func NewJoin(cfg Config) (Join, error) {
	switch cfg.Name {
	case MaxOperatorsJoin:
		p := cfg.param()
		if p.Sign() <= 0 || !p.IsUint64() {
			return nil, reverts.New(reverts.Configuration, "max_operators_not_positive")
		}
		return &maxOperators{max: p.Uint64()}, nil
	case OperatorPoolOnly:
		return operatorPoolOnly{}, nil
	default:
		return nil, reverts.Newf(reverts.Configuration, "unknown_join_policy_%s", cfg.Name)
	}
}
