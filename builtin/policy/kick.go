// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package policy

import (
	"math/big"

	"github.com/vechain/incentives/builtin/reverts"
	"github.com/vechain/incentives/thor"
)

// Verdict is the outcome of a flag.
type Verdict uint8

const (
	Pending Verdict = iota
	Kicked
	Dismissed
)

func (v Verdict) String() string {
	switch v {
	case Kicked:
		return "kicked"
	case Dismissed:
		return "dismissed"
	default:
		return "pending"
	}
}

// FlagRequest describes an attempt to flag a staker.
type FlagRequest struct {
	Flagger       thor.Address
	Target        thor.Address
	Owner         thor.Address
	FlaggerStaked bool
	TargetStaked  bool
	// EligibleStake is the stake able to vote: everything but the flagger's and the target's.
	EligibleStake *big.Int
}

// Tally is the running vote count of a flag.
type Tally struct {
	VotesFor      *big.Int
	VotesAgainst  *big.Int
	EligibleStake *big.Int
}

// Kick decides how stakers get removed.
type Kick interface {
	AuthorizeFlag(req *FlagRequest) error
	// Voting reports whether stakers vote on flags, otherwise the verdict is immediate.
	Voting() bool
	Decide(t *Tally) Verdict
	SlashAmount(stake *big.Int) *big.Int
}

func slash(stake *big.Int, percent uint64) *big.Int {
	amount := new(big.Int).Mul(stake, new(big.Int).SetUint64(percent))
	return amount.Quo(amount, big.NewInt(100))
}

// adminKick lets the sponsorship owner kick anyone.
type adminKick struct {
	slashPercent uint64
}

func (k *adminKick) AuthorizeFlag(req *FlagRequest) error {
	if req.Flagger != req.Owner {
		return reverts.New(reverts.AccessDenied, "only_owner_can_kick")
	}
	if !req.TargetStaked {
		return reverts.New(reverts.InvalidArgument, "target_not_staked")
	}
	return nil
}

func (k *adminKick) Voting() bool { return false }

func (k *adminKick) Decide(_ *Tally) Verdict { return Kicked }

func (k *adminKick) SlashAmount(stake *big.Int) *big.Int {
	return slash(stake, k.slashPercent)
}

// voteKick lets stakers flag each other and resolve the flag by stake weighted vote.
type voteKick struct {
	slashPercent uint64
}

func (k *voteKick) AuthorizeFlag(req *FlagRequest) error {
	if !req.FlaggerStaked {
		return reverts.New(reverts.AccessDenied, "only_stakers_can_flag")
	}
	if req.Flagger == req.Target {
		return reverts.New(reverts.InvalidArgument, "cannot_flag_self")
	}
	if !req.TargetStaked {
		return reverts.New(reverts.InvalidArgument, "target_not_staked")
	}
	if req.EligibleStake.Sign() == 0 {
		return reverts.New(reverts.PolicyRejection, "no_eligible_voters")
	}
	return nil
}

func (k *voteKick) Voting() bool { return true }

func (k *voteKick) Decide(t *Tally) Verdict {
	for2 := new(big.Int).Lsh(t.VotesFor, 1)
	if for2.Cmp(t.EligibleStake) > 0 {
		return Kicked
	}
	against2 := new(big.Int).Lsh(t.VotesAgainst, 1)
	if against2.Cmp(t.EligibleStake) >= 0 {
		return Dismissed
	}
	return Pending
}

func (k *voteKick) SlashAmount(stake *big.Int) *big.Int {
	return slash(stake, k.slashPercent)
}
