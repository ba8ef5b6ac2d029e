// Command fipmodule is the generic interop-module process entry point:
// it parses its own slave index and log level from argv, loads its own
// TOML configuration, and hands off to internal/slave's dispatch loop
// running internal/imexample's Handler, the example stand-in for a
// C-language interop module.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/flint-lang/fip/internal/fipcache"
	"github.com/flint-lang/fip/internal/fipconfig"
	"github.com/flint-lang/fip/internal/imexample"
	"github.com/flint-lang/fip/internal/slave"
	"github.com/flint-lang/fip/pkg/fiplog"
	"github.com/flint-lang/fip/pkg/fipmsg"
)

// protocolVersion must match cmd/fipmaster's; a mismatch is exactly
// what the connect handshake is meant to catch.
var protocolVersion = fipmsg.Version{Major: 1, Minor: 0, Patch: 0}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: %s <slave-index> <log-level>", os.Args[0])
	}

	level, _ := fiplog.ParseLevel(os.Args[2])
	log := fiplog.New(fmt.Sprintf("slave:%s", os.Args[1]), os.Stderr, level)

	projectRoot, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getwd: %w", err)
	}

	var cfg imexample.Config
	if err := fipconfig.LoadModule(projectRoot, "fip-c", &cfg); err != nil {
		return fmt.Errorf("loading module config: %w", err)
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(projectRoot, ".fip", "cache")
	}
	if err := os.MkdirAll(cfg.CacheDir, 0755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	cache, err := fipcache.Open(filepath.Join(cfg.CacheDir, "index.bdb"))
	if err != nil {
		return fmt.Errorf("opening cache index: %w", err)
	}
	defer cache.Close()

	handler := imexample.New(cfg, log, cache)
	return slave.Run(os.Stdin, os.Stdout, protocolVersion, handler, log)
}
