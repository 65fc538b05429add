// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sponsorship

import (
	"encoding/binary"
	"math/big"

	"github.com/vechain/incentives/builtin/events"
	"github.com/vechain/incentives/builtin/policy"
	"github.com/vechain/incentives/builtin/reverts"
	"github.com/vechain/incentives/thor"
)

// Flag asks for target to be kicked. Depending on the kick policy the verdict is immediate
// or left to a vote of the other stakers.
func (s *Sponsorship) Flag(now uint64, flagger, target thor.Address) (policy.Verdict, error) {
	verdict := policy.Pending
	err := s.sctx.Atomic(func() error {
		kick := s.policies.Kick
		if kick == nil {
			return reverts.New(reverts.PolicyRejection, "kicking_disabled")
		}
		existing, err := s.getFlag(target)
		if err != nil {
			return err
		}
		if !existing.IsEmpty() {
			return reverts.New(reverts.PolicyRejection, "already_flagged")
		}
		g, err := s.getGlobals()
		if err != nil {
			return err
		}
		flaggerPos, err := s.getPosition(flagger)
		if err != nil {
			return err
		}
		targetPos, err := s.getPosition(target)
		if err != nil {
			return err
		}
		eligible := new(big.Int).Sub(g.TotalStaked, targetPos.Stake)
		if flagger != target {
			eligible.Sub(eligible, flaggerPos.Stake)
		}
		if err := kick.AuthorizeFlag(&policy.FlagRequest{
			Flagger:       flagger,
			Target:        target,
			Owner:         s.cfg.Owner,
			FlaggerStaked: !flaggerPos.IsEmpty(),
			TargetStaked:  !targetPos.IsEmpty(),
			EligibleStake: eligible,
		}); err != nil {
			return err
		}
		s.sctx.EmitWithParty(events.Flagged, now, target, flagger, targetPos.Stake, nil)
		logger.Info("staker flagged", "sponsorship", s.Address(), "target", target, "flagger", flagger)

		if !kick.Voting() {
			verdict = kick.Decide(nil)
			if verdict == policy.Kicked {
				return s.kick(now, target)
			}
			return nil
		}

		id, err := s.flagCount.Get()
		if err != nil {
			return err
		}
		id++
		if err := s.flagCount.Set(id); err != nil {
			return err
		}
		return s.flags.Set(target, &Flag{
			ID:            id,
			Flagger:       flagger,
			FlaggedAt:     now,
			VotesFor:      new(big.Int),
			VotesAgainst:  new(big.Int),
			EligibleStake: eligible,
		})
	})
	if err != nil {
		return policy.Pending, err
	}
	return verdict, nil
}

// Vote casts voter's stake for or against kicking target. The flag resolves as soon as
// the kick policy reaches a verdict.
func (s *Sponsorship) Vote(now uint64, voter, target thor.Address, kick bool) (policy.Verdict, error) {
	verdict := policy.Pending
	err := s.sctx.Atomic(func() error {
		f, err := s.getFlag(target)
		if err != nil {
			return err
		}
		if f.IsEmpty() {
			return reverts.New(reverts.InvalidArgument, "not_flagged")
		}
		if voter == target || voter == f.Flagger {
			return reverts.New(reverts.AccessDenied, "party_cannot_vote")
		}
		p, err := s.getPosition(voter)
		if err != nil {
			return err
		}
		if p.IsEmpty() {
			return reverts.New(reverts.AccessDenied, "only_stakers_can_vote")
		}
		key := voteKey(f.ID, voter)
		voted, err := s.votes.Get(key)
		if err != nil {
			return err
		}
		if voted {
			return reverts.New(reverts.PolicyRejection, "already_voted")
		}
		if err := s.votes.Set(key, true); err != nil {
			return err
		}

		side := new(big.Int)
		if kick {
			f.VotesFor.Add(f.VotesFor, p.Stake)
			side.SetInt64(1)
		} else {
			f.VotesAgainst.Add(f.VotesAgainst, p.Stake)
		}
		s.sctx.EmitWithParty(events.Voted, now, voter, target, p.Stake, side)

		verdict = s.policies.Kick.Decide(f.tally())
		switch verdict {
		case policy.Kicked:
			s.flags.Delete(target)
			return s.kick(now, target)
		case policy.Dismissed:
			s.flags.Delete(target)
			s.sctx.EmitWithParty(events.FlagDismissed, now, target, f.Flagger, f.VotesAgainst, f.VotesFor)
			logger.Info("flag dismissed", "sponsorship", s.Address(), "target", target)
			return nil
		default:
			return s.flags.Set(target, f)
		}
	})
	if err != nil {
		return policy.Pending, err
	}
	return verdict, nil
}

// kick slashes target, then removes it paying back what is left of its stake and its earnings.
// An operator pool target hears about the slash before any funds move.
func (s *Sponsorship) kick(now uint64, target thor.Address) error {
	g, err := s.settle(now)
	if err != nil {
		return err
	}
	p, err := s.getPosition(target)
	if err != nil {
		return err
	}
	s.policies.Allocation.SettlePosition(g, p)

	slashed := s.policies.Kick.SlashAmount(p.Stake)
	returned := new(big.Int).Sub(p.Stake, slashed)
	earnings := new(big.Int).Set(p.Unpaid)

	if err := s.removeStaker(g, target, p); err != nil {
		return err
	}
	s.credit(g, now, slashed)
	if err := s.globals.Set(g); err != nil {
		return err
	}
	if err := s.updateTotals(func(t *Totals) {
		t.Forfeited.Add(t.Forfeited, slashed)
		t.Returned.Add(t.Returned, returned)
		t.PaidOut.Add(t.PaidOut, earnings)
	}); err != nil {
		return err
	}

	var listener StakeListener
	if s.dir != nil {
		listener = s.dir.StakeListener(target)
	}
	if slashed.Sign() > 0 {
		s.sctx.Emit(events.Slashed, now, target, slashed, nil)
		if listener != nil {
			if err := listener.OnSlash(now, s.Address(), slashed); err != nil {
				return err
			}
		}
	}

	if err := s.pay(now, target, new(big.Int).Add(returned, earnings)); err != nil {
		return err
	}
	s.sctx.Emit(events.Kicked, now, target, returned, earnings)
	logger.Info("staker kicked", "sponsorship", s.Address(), "target", target, "slashed", slashed, "returned", returned)

	if listener != nil {
		return listener.OnKick(now, s.Address(), returned, earnings)
	}
	return nil
}

func (s *Sponsorship) requireNotFlagged(staker thor.Address) error {
	f, err := s.getFlag(staker)
	if err != nil {
		return err
	}
	if !f.IsEmpty() {
		return reverts.New(reverts.PolicyRejection, "flagged")
	}
	return nil
}

func voteKey(flagID uint64, voter thor.Address) thor.Bytes32 {
	var id [8]byte
	binary.BigEndian.PutUint64(id[:], flagID)
	return thor.Blake2b(id[:], voter.Bytes())
}
