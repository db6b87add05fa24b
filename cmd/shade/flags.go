// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"time"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/shadefi/shade/log"
)

var (
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Value: defaultDataDir(),
		Usage: "directory for the ledger and event databases",
	}
	genesisFlag = cli.StringFlag{
		Name:  "genesis",
		Usage: "path to a YAML genesis file (dev genesis if not set)",
	}
	persistFlag = cli.BoolFlag{
		Name:  "persist",
		Usage: "store the ledger in data-dir instead of memory",
	}
	cacheSizeFlag = cli.IntFlag{
		Name:  "cache-size",
		Value: 4096,
		Usage: "number of ledger records kept in the in-memory cache",
	}
	apiAddrFlag = cli.StringFlag{
		Name:  "api-addr",
		Value: "localhost:8679",
		Usage: "API service listening address",
	}
	apiCorsFlag = cli.StringFlag{
		Name:  "api-cors",
		Value: "",
		Usage: "comma separated list of domains from which to accept cross origin requests to API",
	}
	apiEventsLimitFlag = cli.Uint64Flag{
		Name:  "api-events-limit",
		Value: 1000,
		Usage: "limit the number of events returned by /events API",
	}
	enableAPILogsFlag = cli.BoolFlag{
		Name:  "enable-api-logs",
		Usage: "enables API requests logging",
	}
	apiSlowQueriesThresholdFlag = cli.DurationFlag{
		Name:  "api-slow-queries-threshold",
		Value: 0,
		Usage: "log API requests slower than this duration (0 disables)",
	}
	verbosityFlag = cli.Uint64Flag{
		Name:  "verbosity",
		Value: log.LegacyLevelInfo,
		Usage: "log verbosity (0-9)",
	}
	jsonLogsFlag = cli.BoolFlag{
		Name:  "json-logs",
		Usage: "output logs in JSON format",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:  "enable-metrics",
		Usage: "enables metrics collection",
	}
	metricsAddrFlag = cli.StringFlag{
		Name:  "metrics-addr",
		Value: "localhost:2112",
		Usage: "metrics service listening address",
	}
	ntpServerFlag = cli.StringFlag{
		Name:  "ntp-server",
		Value: "pool.ntp.org",
		Usage: "NTP server used to check the local clock (empty disables)",
	}
	clockDriftFlag = cli.DurationFlag{
		Name:  "max-clock-drift",
		Value: 5 * time.Second,
		Usage: "warn when the local clock is off by more than this duration",
	}

	// sign command
	keyFlag = cli.StringFlag{
		Name:  "key",
		Usage: "hex encoded private key of the caller",
	}
	kindFlag = cli.StringFlag{
		Name:  "kind",
		Usage: "operation kind, e.g. stake",
	}
	argsFlag = cli.StringFlag{
		Name:  "args",
		Value: "{}",
		Usage: "operation arguments in JSON",
	}
	nonceFlag = cli.Uint64Flag{
		Name:  "nonce",
		Usage: "request nonce, unique per caller (current time in nanoseconds if not set)",
	}
	expiresInFlag = cli.DurationFlag{
		Name:  "expires-in",
		Value: 10 * time.Minute,
		Usage: "time until the signed request expires (at most 1h)",
	}
)
