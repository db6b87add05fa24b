// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/beevik/ntp"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/shadefi/shade/eventdb"
	"github.com/shadefi/shade/genesis"
	"github.com/shadefi/shade/health"
	"github.com/shadefi/shade/log"
	"github.com/shadefi/shade/lvldb"
	"github.com/shadefi/shade/shade"
)

func initLogger(ctx *cli.Context) error {
	verbosity := ctx.Uint64(verbosityFlag.Name)
	if verbosity > 9 {
		return fmt.Errorf("invalid verbosity %d, expected 0-9", verbosity)
	}
	var level slog.LevelVar
	level.Set(log.FromLegacyLevel(int(verbosity)))

	log.SetDefault(log.NewLogger(newLogHandler(os.Stderr, &level, ctx.Bool(jsonLogsFlag.Name))))
	return nil
}

func newLogHandler(w io.Writer, level *slog.LevelVar, jsonLogs bool) slog.Handler {
	if jsonLogs {
		return log.JSONHandlerWithLevel(w, level)
	}
	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) && os.Getenv("TERM") != "dumb"
	}
	return log.NewTerminalHandlerWithLevel(w, level, useColor)
}

func selectGenesis(ctx *cli.Context) (*genesis.Genesis, error) {
	path := ctx.String(genesisFlag.Name)
	if path == "" {
		logger.Info("using dev genesis, see the dev-accounts command for keys")
		return genesis.NewDevnet(), nil
	}
	gene, err := genesis.Load(path)
	if err != nil {
		return nil, errors.WithMessage(err, "genesis")
	}
	return gene, nil
}

type databases struct {
	dir     string
	store   *lvldb.LevelDB
	eventDB *eventdb.EventDB
}

// openDatabases opens the ledger and event databases in data-dir when
// --persist is set, in memory otherwise.
func openDatabases(ctx *cli.Context) (*databases, error) {
	if !ctx.Bool(persistFlag.Name) {
		store, err := lvldb.NewMem()
		if err != nil {
			return nil, err
		}
		eventDB, err := eventdb.NewMem()
		if err != nil {
			store.Close()
			return nil, err
		}
		return &databases{"Memory", store, eventDB}, nil
	}

	dir := ctx.String(dataDirFlag.Name)
	if dir == "" {
		return nil, errors.New("unable to infer default data dir, use -data-dir to specify")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "create data dir [%v]", dir)
	}

	path := filepath.Join(dir, "ledger.db")
	store, err := lvldb.New(path, lvldb.Options{
		CacheSize:              128,
		OpenFilesCacheCapacity: 64,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open ledger database [%v]", path)
	}

	path = filepath.Join(dir, "events.db")
	eventDB, err := eventdb.New(path)
	if err != nil {
		store.Close()
		return nil, errors.Wrapf(err, "open event database [%v]", path)
	}
	return &databases{dir, store, eventDB}, nil
}

func (d *databases) Close() {
	logger.Info("closing event database...")
	if err := d.eventDB.Close(); err != nil {
		logger.Warn("failed to close event database", "err", err)
	}
	logger.Info("closing ledger database...")
	if err := d.store.Close(); err != nil {
		logger.Warn("failed to close ledger database", "err", err)
	}
}

// watchClock checks the local clock against server now and every ten minutes.
// Expiry checks rely on the local clock.
func watchClock(ctx context.Context, server string, h *health.Health) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		checkClockOffset(server, h)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func checkClockOffset(server string, h *health.Health) {
	resp, err := ntp.Query(server)
	if err != nil {
		logger.Debug("failed to access NTP", "err", err)
		return
	}
	if h.ClockChecked(resp.ClockOffset) {
		logger.Warn("clock offset detected", "offset", resp.ClockOffset)
	}
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		logger.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}

func defaultDataDir() string {
	if home := homeDir(); home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, "Library", "Application Support", "io.shade")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "io.shade")
		}
		return filepath.Join(home, ".shade")
	}
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

func printStartupMessage(tag shade.Bytes32, dataDir, apiURL, metricsURL string) {
	if metricsURL == "" {
		metricsURL = "Disabled"
	} else {
		metricsURL += "/metrics"
	}
	fmt.Printf(`Starting %v
    Deployment  [ %v ]
    Data dir    [ %v ]
    API portal  [ %v ]
    Metrics     [ %v ]
`,
		"Shade/"+fullVersion(),
		tag,
		dataDir,
		apiURL,
		metricsURL)
}
