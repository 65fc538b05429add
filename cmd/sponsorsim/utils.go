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
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/elastic/gosigar"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/incentives/eventdb"
	"github.com/vechain/incentives/log"
	"github.com/vechain/incentives/lvldb"
)

func fatal(args ...any) {
	var w io.Writer = os.Stdout
	if !isatty.IsTerminal(os.Stdout.Fd()) && isatty.IsTerminal(os.Stderr.Fd()) {
		w = os.Stderr
	}
	fmt.Fprint(w, "Fatal: ")
	fmt.Fprintln(w, args...)
	os.Exit(1)
}

func initLogger(ctx *cli.Context) {
	level := new(slog.LevelVar)
	level.Set(log.FromLegacyLevel(ctx.GlobalInt(verbosityFlag.Name)))

	var handler slog.Handler
	if ctx.GlobalBool(jsonLogsFlag.Name) {
		handler = log.JSONHandlerWithLevel(os.Stderr, level)
	} else {
		useColor := (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
		handler = log.NewTerminalHandlerWithLevel(os.Stderr, level, useColor)
	}
	log.SetDefault(log.NewLogger(handler))
}

// handleExitSignal returns a context canceled on the first interrupt. A second one exits.
func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		logger.Info("exit signal received", "signal", sig)
		cancel()
		<-exitSignalCh
		fatal("forced exit")
	}()
	return ctx
}

func makeDataDir(ctx *cli.Context) string {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		return ""
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		fatal(fmt.Sprintf("create data dir [%v]: %v", dataDir, err))
	}
	return dataDir
}

// stateCacheMB is the leveldb cache of each opened state, see normalizeCacheSize.
var stateCacheMB = 16

// openStateDB opens the committed state at path. A writable database fsyncs every commit.
func openStateDB(path string, readOnly bool) (*lvldb.LevelDB, error) {
	db, err := lvldb.New(path, lvldb.Options{
		CacheSize:              stateCacheMB,
		OpenFilesCacheCapacity: 64,
		ReadOnly:               readOnly,
		SyncBulk:               !readOnly,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open state database at [%v]", path)
	}
	return db, nil
}

// normalizeCacheSize caps the cache so that dbs states open at once fit in half the physical memory.
func normalizeCacheSize(sizeMB, dbs int) int {
	if sizeMB < 16 {
		sizeMB = 16
	}

	var mem gosigar.Mem
	if err := mem.Get(); err != nil {
		logger.Warn("failed to get total mem:", "err", err)
	} else {
		limitMB := int(mem.Total/1024/1024/2) / max(dbs, 1)
		if sizeMB > limitMB {
			sizeMB = max(limitMB, 16)
			logger.Warn("cache size(MB) limited", "limit", sizeMB)
		}
	}
	return sizeMB
}

func openEventDB(ctx *cli.Context) (*eventdb.EventDB, error) {
	path := ctx.String(eventDBFlag.Name)
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, errors.Wrapf(err, "create event db dir for [%v]", path)
	}
	db, err := eventdb.New(path, eventdb.NewRunID())
	if err != nil {
		return nil, errors.Wrapf(err, "open event database at [%v]", path)
	}
	return db, nil
}

func handleAPITimeout(h http.Handler, timeout time.Duration) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		h.ServeHTTP(w, r.WithContext(ctx))
	})
}

func startAPIServer(ctx *cli.Context, handler http.Handler) (string, func(), error) {
	addr := ctx.String(apiAddrFlag.Name)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen API addr [%v]", addr)
	}
	if timeout := ctx.Int(apiTimeoutFlag.Name); timeout > 0 {
		handler = handleAPITimeout(handler, time.Duration(timeout)*time.Millisecond)
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("API server stopped", "err", err)
		}
	}()
	return "http://" + listener.Addr().String() + "/", func() {
		srv.Close()
		<-done
	}, nil
}
