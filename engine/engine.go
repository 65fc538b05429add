// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package engine hosts sponsorships and operator pools on a single state. It creates them at
// derived addresses, routes the callbacks between them and runs every call atomically.
package engine

import (
	"math/big"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/vechain/incentives/builtin"
	"github.com/vechain/incentives/builtin/brokerpool"
	"github.com/vechain/incentives/builtin/reverts"
	"github.com/vechain/incentives/builtin/solidity"
	"github.com/vechain/incentives/builtin/sponsorship"
	"github.com/vechain/incentives/builtin/token"
	"github.com/vechain/incentives/kv"
	"github.com/vechain/incentives/log"
	"github.com/vechain/incentives/metrics"
	"github.com/vechain/incentives/state"
	"github.com/vechain/incentives/thor"
)

var (
	logger = log.WithContext("pkg", "engine")

	metricCalls        = metrics.LazyLoadCounterVec("engine_calls_count", []string{"op", "result"})
	metricCallDuration = metrics.LazyLoadHistogramVec("engine_call_duration_us", []string{"op"}, metrics.BucketCallMicros)
)

// Sink receives the events of every successful call, in emission order.
type Sink interface {
	Write(evs []*state.Event) error
}

type Option func(*Engine)

func WithSink(s Sink) Option {
	return func(e *Engine) { e.sinks = append(e.sinks, s) }
}

func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// Engine serializes Exec and View. Contract handles it returns are only to be used inside them.
type Engine struct {
	mu      sync.Mutex
	st      *state.State
	clock   Clock
	sinks   []Sink
	token   *token.Token
	factory *factory
	dir     *directory

	sponsorships map[thor.Address]*sponsorship.Sponsorship
	pools        map[thor.Address]*brokerpool.Pool
	created      []thor.Address // registered by the call in progress
}

// New creates an engine over st. Contracts already created in st are loaded.
func New(st *state.State, opts ...Option) (*Engine, error) {
	e := &Engine{
		st:           st,
		clock:        SystemClock{},
		token:        builtin.Token(st),
		sponsorships: make(map[thor.Address]*sponsorship.Sponsorship),
		pools:        make(map[thor.Address]*brokerpool.Pool),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.factory = newFactory(st)
	e.dir = &directory{e}
	if err := e.load(); err != nil {
		return nil, err
	}
	return e, nil
}

// Open creates an engine over the state stored in db.
func Open(db kv.Getter, opts ...Option) (*Engine, error) {
	return New(state.New(db), opts...)
}

func (e *Engine) load() error {
	sps, err := e.factory.sponsorships.All()
	if err != nil {
		return errors.Wrap(err, "list sponsorships")
	}
	for _, addr := range sps {
		sp, err := sponsorship.Load(addr, e.st, e.token, e.dir)
		if err != nil {
			return err
		}
		e.register(addr, sp)
	}
	pools, err := e.factory.pools.All()
	if err != nil {
		return errors.Wrap(err, "list pools")
	}
	for _, addr := range pools {
		p, err := brokerpool.Load(addr, e.st, e.token, e.dir)
		if err != nil {
			return err
		}
		e.registerPool(addr, p)
	}
	if len(sps)+len(pools) > 0 {
		logger.Info("loaded contracts", "sponsorships", len(sps), "pools", len(pools))
	}
	return nil
}

func (e *Engine) register(addr thor.Address, sp *sponsorship.Sponsorship) {
	e.sponsorships[addr] = sp
	e.token.Register(addr, sp)
	e.created = append(e.created, addr)
}

func (e *Engine) registerPool(addr thor.Address, p *brokerpool.Pool) {
	e.pools[addr] = p
	e.token.Register(addr, p)
	e.created = append(e.created, addr)
}

// unregister drops the contracts created by a call whose changes were rolled back.
func (e *Engine) unregister() {
	for _, addr := range e.created {
		delete(e.sponsorships, addr)
		delete(e.pools, addr)
		e.token.Unregister(addr)
	}
	e.created = e.created[:0]
}

func (e *Engine) State() *state.State { return e.st }
func (e *Engine) Clock() Clock        { return e.clock }
func (e *Engine) Token() *token.Token { return e.token }

// Commit writes every change made so far into putter.
func (e *Engine) Commit(putter kv.Putter) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.Commit(putter)
}

// Exec runs fn at the current clock time. Every state change fn makes, events included, is
// rolled back if it fails.
func (e *Engine) Exec(op string, fn func(now uint64) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	now := e.clock.Now()
	before := e.st.EventCount()
	e.created = e.created[:0]

	sctx := solidity.NewContext(builtin.FactoryAddress, e.st)
	err := sctx.Atomic(func() error { return fn(now) })

	result := "ok"
	switch {
	case err == nil:
	case reverts.IsRevertErr(err):
		result = "revert"
	default:
		result = "error"
	}
	metricCalls().AddWithLabel(1, map[string]string{"op": op, "result": result})
	metricCallDuration().ObserveWithLabels(time.Since(start).Microseconds(), map[string]string{"op": op})

	if err != nil {
		e.unregister()
		if result == "revert" {
			logger.Debug("call reverted", "op", op, "now", now, "reason", reverts.Reason(err))
		} else {
			logger.Error("call failed", "op", op, "now", now, "err", err)
		}
		return err
	}

	if len(e.sinks) > 0 {
		evs := e.st.Events()[before:]
		for _, s := range e.sinks {
			if err := s.Write(evs); err != nil {
				return errors.Wrapf(err, "write events of %v", op)
			}
		}
	}
	logger.Debug("call executed", "op", op, "now", now, "events", e.st.EventCount()-before)
	return nil
}

// View runs fn at the current clock time without any other call in progress. Changes fn makes
// are discarded.
func (e *Engine) View(fn func(now uint64) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.created = e.created[:0]
	rev := e.st.NewCheckpoint()
	defer func() {
		e.st.RevertTo(rev)
		e.unregister()
	}()
	return fn(e.clock.Now())
}

// Mint creates tokens for to. It stands in for an external token faucet.
func (e *Engine) Mint(now uint64, to thor.Address, amount *big.Int) error {
	return e.token.Mint(now, to, amount)
}

// CreateSponsorship creates a sponsorship at the next derived address.
func (e *Engine) CreateSponsorship(now uint64, cfg *sponsorship.Config) (*sponsorship.Sponsorship, error) {
	var sp *sponsorship.Sponsorship
	err := e.factory.sctx.Atomic(func() error {
		addr, err := e.factory.next(e.factory.sponsorships)
		if err != nil {
			return err
		}
		sp, err = sponsorship.New(now, addr, e.st, e.token, e.dir, cfg)
		return err
	})
	if err != nil {
		return nil, err
	}
	e.register(sp.Address(), sp)
	logger.Info("sponsorship created", "addr", sp.Address(), "owner", cfg.Owner)
	return sp, nil
}

// CreatePool creates an operator pool at the next derived address.
func (e *Engine) CreatePool(cfg *brokerpool.Config) (*brokerpool.Pool, error) {
	var p *brokerpool.Pool
	err := e.factory.sctx.Atomic(func() error {
		addr, err := e.factory.next(e.factory.pools)
		if err != nil {
			return err
		}
		p, err = brokerpool.New(addr, e.st, e.token, e.dir, cfg)
		return err
	})
	if err != nil {
		return nil, err
	}
	e.registerPool(p.Address(), p)
	logger.Info("operator pool created", "addr", p.Address(), "operator", cfg.Operator)
	return p, nil
}

// Sponsorship returns the sponsorship at addr.
func (e *Engine) Sponsorship(addr thor.Address) (*sponsorship.Sponsorship, error) {
	if sp, ok := e.sponsorships[addr]; ok {
		return sp, nil
	}
	return nil, reverts.New(reverts.InvalidArgument, "unknown_sponsorship")
}

// Pool returns the operator pool at addr.
func (e *Engine) Pool(addr thor.Address) (*brokerpool.Pool, error) {
	if p, ok := e.pools[addr]; ok {
		return p, nil
	}
	return nil, reverts.New(reverts.InvalidArgument, "unknown_pool")
}

// Sponsorships lists sponsorship addresses in creation order.
func (e *Engine) Sponsorships() ([]thor.Address, error) {
	return e.factory.sponsorships.All()
}

// Pools lists operator pool addresses in creation order.
func (e *Engine) Pools() ([]thor.Address, error) {
	return e.factory.pools.All()
}
