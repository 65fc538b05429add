// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package scenario

import (
	"context"
	"math/big"
	"time"

	"github.com/pkg/errors"

	"github.com/vechain/incentives/builtin/brokerpool"
	"github.com/vechain/incentives/builtin/reverts"
	"github.com/vechain/incentives/builtin/sponsorship"
	"github.com/vechain/incentives/engine"
	"github.com/vechain/incentives/log"
	"github.com/vechain/incentives/metrics"
	"github.com/vechain/incentives/state"
	"github.com/vechain/incentives/thor"
)

var (
	logger = log.WithContext("pkg", "scenario")

	metricSteps   = metrics.LazyLoadCounterVec("scenario_steps_count", []string{"scenario", "result"})
	metricRunTime = metrics.LazyLoadGaugeVec("scenario_clock_seconds", []string{"scenario"})
)

// Result summarizes a run.
type Result struct {
	Name     string
	Steps    int
	Reverts  int
	Events   int
	Elapsed  uint64
	Duration time.Duration
}

type runner struct {
	sc           *Scenario
	e            *engine.Engine
	clock        *engine.ManualClock
	sponsorships map[string]*sponsorship.Sponsorship
	pools        map[string]*brokerpool.Pool
}

// Play runs sc on a new engine over st, driven by its own manual clock.
func Play(ctx context.Context, sc *Scenario, st *state.State, sinks ...engine.Sink) (*Result, *engine.Engine, error) {
	clock := engine.NewManualClock(sc.Start)
	opts := []engine.Option{engine.WithClock(clock)}
	for _, s := range sinks {
		opts = append(opts, engine.WithSink(s))
	}
	e, err := engine.New(st, opts...)
	if err != nil {
		return nil, nil, err
	}
	res, err := Run(ctx, sc, e, clock)
	if err != nil {
		return nil, e, err
	}
	return res, e, nil
}

// Run plays sc against e. The engine must read its time from clock.
// A step that reverts unexpectedly, or a failed check, stops the run.
func Run(ctx context.Context, sc *Scenario, e *engine.Engine, clock *engine.ManualClock) (*Result, error) {
	start := time.Now()
	clock.Set(sc.Start)
	r := &runner{
		sc:           sc,
		e:            e,
		clock:        clock,
		sponsorships: make(map[string]*sponsorship.Sponsorship),
		pools:        make(map[string]*brokerpool.Pool),
	}
	before := e.State().EventCount()
	if err := r.setup(); err != nil {
		return nil, errors.Wrapf(err, "%v: setup", sc.Name)
	}

	res := &Result{Name: sc.Name}
	for i := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		st := &sc.Steps[i]
		clock.Advance(st.Advance)
		metricRunTime().SetWithLabel(int64(clock.Now()-sc.Start), map[string]string{"scenario": sc.Name})

		err := e.Exec(st.Op, func(now uint64) error { return ops[st.Op](r, now, st) })
		res.Steps++
		switch {
		case err == nil && st.ExpectRevert != "":
			return nil, errors.Errorf("%v: step %d (%v): expected revert %q", sc.Name, i, st.Op, st.ExpectRevert)
		case err == nil:
			metricSteps().AddWithLabel(1, map[string]string{"scenario": sc.Name, "result": "ok"})
		case reverts.IsRevertErr(err) && st.ExpectRevert != "" && reverts.Reason(err) == st.ExpectRevert:
			res.Reverts++
			metricSteps().AddWithLabel(1, map[string]string{"scenario": sc.Name, "result": "revert"})
		default:
			return nil, errors.Wrapf(err, "%v: step %d (%v)", sc.Name, i, st.Op)
		}
	}
	res.Events = e.State().EventCount() - before
	res.Elapsed = clock.Now() - sc.Start
	res.Duration = time.Since(start)
	logger.Info("scenario finished", "name", sc.Name, "steps", res.Steps, "reverts", res.Reverts, "events", res.Events)
	return res, nil
}

func (r *runner) setup() error {
	return r.e.Exec("setup", func(now uint64) error {
		for name, amount := range r.sc.Accounts {
			if err := r.e.Mint(now, Account(name), amount.Value()); err != nil {
				return err
			}
		}
		for i := range r.sc.Sponsorships {
			spec := &r.sc.Sponsorships[i]
			sp, err := r.e.CreateSponsorship(now, spec.config())
			if err != nil {
				return errors.Wrapf(err, "sponsorship %v", spec.Name)
			}
			r.sponsorships[spec.Name] = sp
			logger.Debug("sponsorship ready", "name", spec.Name, "addr", sp.Address())
		}
		for i := range r.sc.Pools {
			spec := &r.sc.Pools[i]
			p, err := r.e.CreatePool(spec.config())
			if err != nil {
				return errors.Wrapf(err, "pool %v", spec.Name)
			}
			r.pools[spec.Name] = p
			logger.Debug("pool ready", "name", spec.Name, "addr", p.Address())
		}
		return nil
	})
}

// address resolves a contract name first, then an account name.
func (r *runner) address(name string) thor.Address {
	if sp, ok := r.sponsorships[name]; ok {
		return sp.Address()
	}
	if p, ok := r.pools[name]; ok {
		return p.Address()
	}
	return Account(name)
}

func (r *runner) sponsorship(name string) (*sponsorship.Sponsorship, error) {
	if sp, ok := r.sponsorships[name]; ok {
		return sp, nil
	}
	return nil, errors.Errorf("unknown sponsorship %q", name)
}

func (r *runner) pool(name string) (*brokerpool.Pool, error) {
	if p, ok := r.pools[name]; ok {
		return p, nil
	}
	return nil, errors.Errorf("unknown pool %q", name)
}

func (r *runner) sponsorshipAddrs(names []string) []thor.Address {
	out := make([]thor.Address, 0, len(names))
	for _, n := range names {
		out = append(out, r.address(n))
	}
	return out
}

func maxIterations(st *Step) int {
	if st.MaxIterations > 0 {
		return st.MaxIterations
	}
	return brokerpool.DefaultMaxIterations
}

type opFunc func(r *runner, now uint64, st *Step) error

func withSponsorship(fn func(sp *sponsorship.Sponsorship, r *runner, now uint64, st *Step) error) opFunc {
	return func(r *runner, now uint64, st *Step) error {
		sp, err := r.sponsorship(st.Sponsorship)
		if err != nil {
			return err
		}
		return fn(sp, r, now, st)
	}
}

func withPool(fn func(p *brokerpool.Pool, r *runner, now uint64, st *Step) error) opFunc {
	return func(r *runner, now uint64, st *Step) error {
		p, err := r.pool(st.Pool)
		if err != nil {
			return err
		}
		return fn(p, r, now, st)
	}
}

var ops map[string]opFunc

func init() {
	ops = map[string]opFunc{
		"mint": func(r *runner, now uint64, st *Step) error {
			return r.e.Mint(now, r.address(st.Target), st.Amount.Value())
		},
		"transfer": func(r *runner, now uint64, st *Step) error {
			return r.e.Token().Transfer(now, r.address(st.From), r.address(st.Target), st.Amount.Value())
		},
		"sponsor": withSponsorship(func(sp *sponsorship.Sponsorship, r *runner, now uint64, st *Step) error {
			return sp.Sponsor(now, r.address(st.From), st.Amount.Value())
		}),
		"stake": withSponsorship(func(sp *sponsorship.Sponsorship, r *runner, now uint64, st *Step) error {
			return sp.Stake(now, r.address(st.From), st.Amount.Value())
		}),
		"reduceStake": withSponsorship(func(sp *sponsorship.Sponsorship, r *runner, now uint64, st *Step) error {
			return sp.ReduceStake(now, r.address(st.From), st.Amount.Value())
		}),
		"leave": withSponsorship(func(sp *sponsorship.Sponsorship, r *runner, now uint64, st *Step) error {
			_, _, err := sp.Leave(now, r.address(st.From))
			return err
		}),
		"withdraw": withSponsorship(func(sp *sponsorship.Sponsorship, r *runner, now uint64, st *Step) error {
			_, err := sp.Withdraw(now, r.address(st.From))
			return err
		}),
		"flag": withSponsorship(func(sp *sponsorship.Sponsorship, r *runner, now uint64, st *Step) error {
			_, err := sp.Flag(now, r.address(st.From), r.address(st.Target))
			return err
		}),
		"vote": withSponsorship(func(sp *sponsorship.Sponsorship, r *runner, now uint64, st *Step) error {
			_, err := sp.Vote(now, r.address(st.From), r.address(st.Target), st.Kick)
			return err
		}),
		"invest": withPool(func(p *brokerpool.Pool, r *runner, now uint64, st *Step) error {
			_, err := p.Invest(now, r.address(st.From), st.Amount.Value())
			return err
		}),
		"poolStake": withPool(func(p *brokerpool.Pool, r *runner, now uint64, st *Step) error {
			return p.Stake(now, r.caller(p, st), r.address(st.Sponsorship), st.Amount.Value())
		}),
		"unstake": withPool(func(p *brokerpool.Pool, r *runner, now uint64, st *Step) error {
			return p.Unstake(now, r.caller(p, st), r.address(st.Sponsorship), maxIterations(st))
		}),
		"poolReduceStake": withPool(func(p *brokerpool.Pool, r *runner, now uint64, st *Step) error {
			return p.ReduceStake(now, r.caller(p, st), r.address(st.Sponsorship), st.Amount.Value(), maxIterations(st))
		}),
		"withdrawWinnings": withPool(func(p *brokerpool.Pool, r *runner, now uint64, st *Step) error {
			_, err := p.WithdrawWinnings(now, r.sponsorshipAddrs(st.Sponsorships), maxIterations(st))
			return err
		}),
		"queuePayout": withPool(func(p *brokerpool.Pool, r *runner, now uint64, st *Step) error {
			return p.QueuePayout(now, r.address(st.From), st.Amount.Value(), maxIterations(st))
		}),
		"payOutQueue": withPool(func(p *brokerpool.Pool, r *runner, now uint64, st *Step) error {
			return p.PayOutQueue(now, maxIterations(st))
		}),
		"forceUnstake": withPool(func(p *brokerpool.Pool, r *runner, now uint64, st *Step) error {
			return p.ForceUnstake(now, r.address(st.From), r.address(st.Sponsorship), maxIterations(st))
		}),
		"updateValue": withPool(func(p *brokerpool.Pool, r *runner, now uint64, st *Step) error {
			_, err := p.UpdateApproximateValue(now, r.address(st.From), r.sponsorshipAddrs(st.Sponsorships))
			return err
		}),
		"transferShares": withPool(func(p *brokerpool.Pool, r *runner, now uint64, st *Step) error {
			return p.TransferShares(now, r.address(st.From), r.address(st.Target), st.Amount.Value())
		}),
		"check": func(r *runner, now uint64, st *Step) error {
			return r.check(now, st)
		},
	}
}

// caller defaults pool calls to the operator.
func (r *runner) caller(p *brokerpool.Pool, st *Step) thor.Address {
	if st.From == "" {
		return p.Operator()
	}
	return r.address(st.From)
}

func (r *runner) check(now uint64, st *Step) error {
	x := st.Expect
	if x == nil {
		return errors.New("check without expect")
	}
	who := r.address(x.Account)
	compare := func(what string, want Amount, got func() (*big.Int, error)) error {
		if !want.IsSet() {
			return nil
		}
		v, err := got()
		if err != nil {
			return err
		}
		if v.Cmp(want.Int) != 0 {
			return errors.Errorf("%v of %v: want %v, got %v", what, x.Account, want.Int, v)
		}
		return nil
	}

	if err := compare("balance", x.Balance, func() (*big.Int, error) { return r.e.Token().BalanceOf(who) }); err != nil {
		return err
	}
	if st.Sponsorship != "" {
		sp, err := r.sponsorship(st.Sponsorship)
		if err != nil {
			return err
		}
		if err := compare("stake", x.Stake, func() (*big.Int, error) { return sp.StakeOf(who) }); err != nil {
			return err
		}
		if err := compare("allocation", x.Allocation, func() (*big.Int, error) { return sp.AllocationOf(now, who) }); err != nil {
			return err
		}
		if x.Running != nil {
			running, err := sp.IsRunning()
			if err != nil {
				return err
			}
			if running != *x.Running {
				return errors.Errorf("running: want %v, got %v", *x.Running, running)
			}
		}
	}
	if st.Pool != "" {
		p, err := r.pool(st.Pool)
		if err != nil {
			return err
		}
		if err := compare("shares", x.Shares, func() (*big.Int, error) { return p.SharesOf(who) }); err != nil {
			return err
		}
		if err := compare("pool value", x.PoolValue, p.ApproximateValue); err != nil {
			return err
		}
		if x.QueueLength != nil {
			n, err := p.QueueLength()
			if err != nil {
				return err
			}
			if n != *x.QueueLength {
				return errors.Errorf("queue length: want %v, got %v", *x.QueueLength, n)
			}
		}
	}
	return nil
}
