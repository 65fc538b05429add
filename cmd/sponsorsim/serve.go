// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/beevik/ntp"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/incentives/api"
	"github.com/vechain/incentives/api/subscriptions"
	"github.com/vechain/incentives/engine"
	"github.com/vechain/incentives/metrics"
	"github.com/vechain/incentives/scenario"
	"github.com/vechain/incentives/state"
)

// maxClockOffset is the drift from NTP time tolerated when the wall clock drives views.
const maxClockOffset = 5 * time.Second

func serveAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	initLogger(ctx)
	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}
	exitCtx := handleExitSignal()

	st := state.NewMem()
	stateDesc := "Memory"
	if path := ctx.String(stateFlag.Name); path != "" {
		stateCacheMB = normalizeCacheSize(ctx.Int(cacheFlag.Name), 1)
		db, err := openStateDB(path, false)
		if err != nil {
			return err
		}
		defer func() { logger.Info("closing state database..."); db.Close() }()
		st = state.New(db)
		stateDesc = path
	}

	subs := subscriptions.New(strings.Split(ctx.String(apiCorsFlag.Name), ","))
	clock := engine.NewManualClock(0)
	opts := []engine.Option{engine.WithClock(clock), engine.WithSink(subs)}

	edb, err := openEventDB(ctx)
	if err != nil {
		return err
	}
	if edb != nil {
		defer func() { logger.Info("closing event database..."); edb.Close() }()
		opts = append(opts, engine.WithSink(edb))
	}
	e, err := engine.New(st, opts...)
	if err != nil {
		return err
	}

	reqLogs := &atomic.Bool{}
	reqLogs.Store(ctx.Bool(apiLogsEnabledFlag.Name))
	handler := api.New(e, edb, api.Options{
		AllowedOrigins:       ctx.String(apiCorsFlag.Name),
		EventsLimit:          ctx.Uint64(apiEventsLimitFlag.Name),
		PprofOn:              ctx.Bool(pprofFlag.Name),
		EnableReqLogger:      reqLogs,
		SlowQueriesThreshold: time.Duration(ctx.Int(apiSlowQueriesThresholdFlag.Name)) * time.Millisecond,
		Log5xxErrors:         ctx.Bool(apiLog5xxErrorsFlag.Name),
		EnableMetrics:        ctx.Bool(enableMetricsFlag.Name),
		Subscriptions:        subs,
	})
	apiURL, stop, err := startAPIServer(ctx, handler)
	if err != nil {
		return err
	}
	defer func() { logger.Info("stopping API server..."); stop() }()
	defer func() { logger.Info("closing subscriptions..."); subs.Close() }()

	delay := time.Duration(ctx.Int(scenarioDelayFlag.Name)) * time.Millisecond
	for _, f := range ctx.Args() {
		sc, err := scenario.Load(f)
		if err != nil {
			return err
		}
		select {
		case <-exitCtx.Done():
			return nil
		case <-time.After(delay):
		}
		res, err := scenario.Run(exitCtx, sc, e, clock)
		if err != nil {
			return err
		}
		logger.Info("scenario played", "name", res.Name, "steps", res.Steps, "events", res.Events)
	}

	clockDesc := fmt.Sprint(clock.Now())
	if ctx.Bool(wallClockFlag.Name) {
		go checkClockOffset()
		go followWallClock(exitCtx, clock)
		clockDesc = "System"
	}

	sps, pools := 0, 0
	if err := e.View(func(uint64) error {
		a, err := e.Sponsorships()
		if err != nil {
			return err
		}
		b, err := e.Pools()
		if err != nil {
			return err
		}
		sps, pools = len(a), len(b)
		return nil
	}); err != nil {
		return err
	}

	fmt.Printf(`Starting sponsorsim %v
    State        [ %v ]
    Contracts    [ %d sponsorships, %d pools ]
    Clock        [ %v ]
    API portal   [ %v ]
`, fullVersion(), stateDesc, sps, pools, clockDesc, apiURL)

	<-exitCtx.Done()
	return nil
}

// followWallClock keeps clock on the system time, in seconds, until ctx is done.
func followWallClock(ctx context.Context, clock *engine.ManualClock) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		clock.Set(engine.SystemClock{}.Now())
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func checkClockOffset() {
	resp, err := ntp.Query("pool.ntp.org")
	if err != nil {
		logger.Debug("failed to access NTP", "err", err)
		return
	}
	if resp.ClockOffset > maxClockOffset || resp.ClockOffset < -maxClockOffset {
		logger.Warn("clock offset detected", "offset", resp.ClockOffset)
	}
}
