// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"
)

var (
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Usage: "directory to persist the final state of each scenario, kept in memory when empty",
	}
	stateFlag = cli.StringFlag{
		Name:  "state",
		Usage: "state database written by a previous run",
	}
	eventDBFlag = cli.StringFlag{
		Name:  "event-db",
		Usage: "sqlite file to index events in, events are not indexed when empty",
	}
	cacheFlag = cli.IntFlag{
		Name:  "cache",
		Value: 16,
		Usage: "leveldb cache size in MiB of each state database",
	}
	parallelFlag = cli.IntFlag{
		Name:  "parallel",
		Value: 4,
		Usage: "number of scenarios to run at once",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Value: 3,
		Usage: "log verbosity (0-9)",
	}
	jsonLogsFlag = cli.BoolFlag{
		Name:  "json-logs",
		Usage: "output logs in JSON format",
	}
	apiAddrFlag = cli.StringFlag{
		Name:  "api-addr",
		Value: "localhost:8680",
		Usage: "API service listening address",
	}
	apiCorsFlag = cli.StringFlag{
		Name:  "api-cors",
		Value: "",
		Usage: "comma separated list of domains from which to accept cross origin requests to API",
	}
	apiTimeoutFlag = cli.IntFlag{
		Name:  "api-timeout",
		Value: 10000,
		Usage: "API request timeout value in milliseconds",
	}
	apiEventsLimitFlag = cli.Uint64Flag{
		Name:  "api-events-limit",
		Value: 1000,
		Usage: "limit the number of events returned by one query",
	}
	apiLogsEnabledFlag = cli.BoolFlag{
		Name:  "api-logs",
		Usage: "log every API request",
	}
	apiSlowQueriesThresholdFlag = cli.IntFlag{
		Name:  "api-slow-queries-threshold",
		Usage: "log API requests slower than this many milliseconds, 0 disables",
	}
	apiLog5xxErrorsFlag = cli.BoolFlag{
		Name:  "api-log-5xx",
		Usage: "log API requests answered with a 5xx status",
	}
	pprofFlag = cli.BoolFlag{
		Name:  "pprof",
		Usage: "turn on go-pprof",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:  "enable-metrics",
		Usage: "enables metrics collection",
	}
	scenarioDelayFlag = cli.IntFlag{
		Name:  "scenario-delay",
		Usage: "milliseconds to wait before playing each scenario, giving subscribers time to connect",
	}
	wallClockFlag = cli.BoolFlag{
		Name:  "wall-clock",
		Usage: "project views to the system time instead of the end of the last scenario",
	}
)

var atFlag = cli.Uint64Flag{
	Name:  "at",
	Usage: "time to project accruals to, the last stored update when 0",
}
