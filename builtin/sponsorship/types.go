// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sponsorship

import (
	"math/big"

	"github.com/vechain/incentives/builtin/policy"
	"github.com/vechain/incentives/thor"
)

// Config is fixed when the sponsorship is created.
type Config struct {
	Owner            thor.Address
	MinimumStake     *big.Int
	MinOperatorCount uint64
	Policies         policy.Configs
}

// Totals are the running sums used to check that no value is created.
type Totals struct {
	Sponsored *big.Int // funds added by sponsors
	Forfeited *big.Int // penalties and slashes moved from stake into balance
	StakedIn  *big.Int
	Returned  *big.Int // stake paid back to stakers
	PaidOut   *big.Int // allocation paid to stakers
}

func newTotals() *Totals {
	return &Totals{
		Sponsored: new(big.Int),
		Forfeited: new(big.Int),
		StakedIn:  new(big.Int),
		Returned:  new(big.Int),
		PaidOut:   new(big.Int),
	}
}

// Flag is an open request to kick a staker.
type Flag struct {
	ID            uint64
	Flagger       thor.Address
	FlaggedAt     uint64
	VotesFor      *big.Int
	VotesAgainst  *big.Int
	EligibleStake *big.Int
}

func (f *Flag) IsEmpty() bool {
	return f.ID == 0
}

func (f *Flag) tally() *policy.Tally {
	return &policy.Tally{
		VotesFor:      f.VotesFor,
		VotesAgainst:  f.VotesAgainst,
		EligibleStake: f.EligibleStake,
	}
}

// StakeListener is notified when a sponsorship removes a staker against its will.
// Operator pools implement it.
type StakeListener interface {
	OnSlash(now uint64, sponsorship thor.Address, amount *big.Int) error
	OnKick(now uint64, sponsorship thor.Address, returned, earnings *big.Int) error
}

// Directory answers who the stakers are.
type Directory interface {
	IsOperatorPool(addr thor.Address) bool
	// StakeListener returns nil when addr is not listening.
	StakeListener(addr thor.Address) StakeListener
}
