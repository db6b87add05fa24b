// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/shadefi/shade/amount"
	"github.com/shadefi/shade/api"
	"github.com/shadefi/shade/api/operations"
	"github.com/shadefi/shade/builtin"
	"github.com/shadefi/shade/events"
	"github.com/shadefi/shade/genesis"
	"github.com/shadefi/shade/health"
	"github.com/shadefi/shade/identity"
	"github.com/shadefi/shade/ledger"
	"github.com/shadefi/shade/log"
	"github.com/shadefi/shade/metrics"
)

var (
	version   string
	gitCommit string
	gitTag    string

	logger = log.WithContext("pkg", "shade")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "Shade",
		Usage:     "Authorization based spending against pooled balances",
		Copyright: "2025 The VeChainThor developers",
		Flags: []cli.Flag{
			dataDirFlag,
			genesisFlag,
			persistFlag,
			cacheSizeFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiEventsLimitFlag,
			enableAPILogsFlag,
			apiSlowQueriesThresholdFlag,
			verbosityFlag,
			jsonLogsFlag,
			enableMetricsFlag,
			metricsAddrFlag,
			ntpServerFlag,
			clockDriftFlag,
		},
		Action: defaultAction,
		Commands: []cli.Command{
			{
				Name:   "dev-accounts",
				Usage:  "print the pre-funded accounts of the dev genesis",
				Action: devAccountsAction,
			},
			{
				Name:  "sign",
				Usage: "sign an operation for POST /operations",
				Flags: []cli.Flag{
					genesisFlag,
					keyFlag,
					kindFlag,
					argsFlag,
					nonceFlag,
					expiresInFlag,
				},
				Action: signAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	exitSignal := handleExitSignal()
	defer func() { logger.Info("exited") }()

	if err := initLogger(ctx); err != nil {
		return err
	}
	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	gene, err := selectGenesis(ctx)
	if err != nil {
		return err
	}

	dbs, err := openDatabases(ctx)
	if err != nil {
		return err
	}
	defer dbs.Close()

	l, err := ledger.New(dbs.store, ledger.Options{CacheSize: ctx.Int(cacheSizeFlag.Name)})
	if err != nil {
		return errors.Wrap(err, "open ledger")
	}
	feed := &events.Feed{}
	defer feed.Close()
	l.AddSink(dbs.eventDB)
	l.AddSink(feed)

	s := builtin.New(l)
	applied, err := gene.Apply(exitSignal, s)
	if err != nil {
		return errors.WithMessage(err, "apply genesis")
	}
	if !applied {
		logger.Info("resuming ledger", "dir", dbs.dir)
	}
	nodeHealth := health.New(l.Clock(), ctx.Duration(clockDriftFlag.Name))
	nodeHealth.Ready()

	var enableReqLogger atomic.Bool
	enableReqLogger.Store(ctx.Bool(enableAPILogsFlag.Name))
	handler, closeSubs := api.New(s, dbs.eventDB, feed, api.Options{
		AllowedOrigins:       ctx.String(apiCorsFlag.Name),
		EventsLimit:          ctx.Uint64(apiEventsLimitFlag.Name),
		EnableReqLogger:      &enableReqLogger,
		SlowQueriesThreshold: ctx.Duration(apiSlowQueriesThresholdFlag.Name),
		EnableMetrics:        ctx.Bool(enableMetricsFlag.Name),
		Health:               nodeHealth,
		DeploymentTag:        gene.ID(),
	})
	defer closeSubs()

	group, groupCtx := errgroup.WithContext(exitSignal)

	apiURL, err := serve(groupCtx, group, "api", ctx.String(apiAddrFlag.Name), handler)
	if err != nil {
		return err
	}
	metricsURL := ""
	if ctx.Bool(enableMetricsFlag.Name) {
		if metricsURL, err = serve(groupCtx, group, "metrics", ctx.String(metricsAddrFlag.Name), metrics.HTTPHandler()); err != nil {
			return err
		}
	}
	if server := ctx.String(ntpServerFlag.Name); server != "" {
		group.Go(func() error {
			watchClock(groupCtx, server, nodeHealth)
			return nil
		})
	}

	printStartupMessage(gene.ID(), dbs.dir, apiURL, metricsURL)
	return group.Wait()
}

// serve runs an http server in group until ctx is done.
func serve(ctx context.Context, group *errgroup.Group, name, addr string, handler http.Handler) (string, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", errors.Wrapf(err, "listen %s address", name)
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, IdleTimeout: 60 * time.Second}

	group.Go(func() error {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			return errors.Wrapf(err, "%s server", name)
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		logger.Info(fmt.Sprintf("stopping %s server...", name))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return "http://" + listener.Addr().String(), nil
}

func devAccountsAction(*cli.Context) error {
	for i, acc := range genesis.DevAccounts() {
		fmt.Printf("%d  address: %v  key: %x\n", i, acc.Address, crypto.FromECDSA(acc.PrivateKey))
	}
	fmt.Printf("dev pool seed: %v  balance per account: %s\n", genesis.DevPoolSeed, amount.Format(genesis.NewDevnet().Accounts[0].Balance))
	return nil
}

func signAction(ctx *cli.Context) error {
	key, err := crypto.HexToECDSA(ctx.String(keyFlag.Name))
	if err != nil {
		return errors.Wrap(err, "key")
	}
	kind := ctx.String(kindFlag.Name)
	if kind == "" {
		return errors.New("kind must be set")
	}
	gene, err := selectGenesis(ctx)
	if err != nil {
		return err
	}
	// the envelope carries args compacted, so sign them that way
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(ctx.String(argsFlag.Name))); err != nil {
		return errors.Wrap(err, "args")
	}

	nonce := ctx.Uint64(nonceFlag.Name)
	if nonce == 0 {
		nonce = uint64(time.Now().UnixNano())
	}
	env := &operations.Envelope{
		Kind:      kind,
		Caller:    identity.AddressOf(key),
		Nonce:     nonce,
		ExpiresAt: uint64(time.Now().Add(ctx.Duration(expiresInFlag.Name)).Unix()),
		Args:      json.RawMessage(buf.Bytes()),
	}
	if env.Signature, err = identity.Sign(env.SigningMessage(gene.ID()), key); err != nil {
		return err
	}
	out, err := json.Marshal(env)
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
