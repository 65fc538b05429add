// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package brokerpool

import (
	"math/big"

	"github.com/vechain/incentives/builtin/reverts"
	"github.com/vechain/incentives/thor"
)

const (
	DefaultMaxSponsorships = 20
	DefaultMaxIterations   = 10
)

// Config is fixed when the pool is created. Percentages are whole numbers in [0, 100].
type Config struct {
	Operator thor.Address
	// MinOperatorStakePercent is the share of the supply the operator should hold.
	// Winnings are diverted to the operator while it holds less.
	MinOperatorStakePercent uint64
	// MaintenanceMarginPercent gates delegations that would leave the operator below it.
	MaintenanceMarginPercent  uint64
	OperatorSharePercent      uint64
	MaxDivertPercent          uint64
	MaxQueueSeconds           uint64
	StalenessThresholdPercent uint64
	StalenessFeePercent       uint64
	MaxSponsorships           uint64
}

func (c *Config) validate() error {
	if c.Operator.IsZero() {
		return reverts.New(reverts.Configuration, "operator_required")
	}
	if c.MinOperatorStakePercent >= 100 {
		return reverts.New(reverts.Configuration, "min_operator_stake_percent_too_high")
	}
	for _, p := range []uint64{
		c.MaintenanceMarginPercent,
		c.OperatorSharePercent,
		c.MaxDivertPercent,
		c.StalenessThresholdPercent,
		c.StalenessFeePercent,
	} {
		if p > 100 {
			return reverts.New(reverts.Configuration, "percent_out_of_range")
		}
	}
	if c.MaxSponsorships == 0 {
		c.MaxSponsorships = DefaultMaxSponsorships
	}
	return nil
}

// QueueEntry is a pending payout request. Its shares are held in escrow by the pool.
type QueueEntry struct {
	Delegator   thor.Address
	PoolShares  *big.Int
	RequestedAt uint64
}

func (e *QueueEntry) IsEmpty() bool {
	return e.PoolShares == nil
}

// Sponsorship is what the pool needs from a sponsorship it stakes into.
type Sponsorship interface {
	Address() thor.Address
	StakeOf(staker thor.Address) (*big.Int, error)
	AllocationOf(now uint64, staker thor.Address) (*big.Int, error)
	ReduceStake(now uint64, staker thor.Address, amount *big.Int) error
	Leave(now uint64, staker thor.Address) (returned, earnings *big.Int, err error)
	Withdraw(now uint64, staker thor.Address) (*big.Int, error)
}

// Registry resolves sponsorship addresses.
type Registry interface {
	Sponsorship(addr thor.Address) (Sponsorship, bool)
}
