package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/flint-lang/fip/internal/fipcache"
	"github.com/flint-lang/fip/internal/fipconfig"
	"github.com/flint-lang/fip/internal/master"
	"github.com/flint-lang/fip/pkg/fiplog"
	"github.com/flint-lang/fip/pkg/fipmsg"
)

// protocolVersion is fipmaster's own compiled-in FIP version, exchanged
// in the ConnectRequest handshake.
var protocolVersion = fipmsg.Version{Major: 1, Minor: 0, Patch: 0}

var (
	projectRoot string
	logLevelStr string

	log *fiplog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "fipmaster",
	Short: "drives a fleet of FIP interop modules to resolve and compile foreign symbols",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		lvl, ok := fiplog.ParseLevel(logLevelStr)
		if !ok {
			return fmt.Errorf("unrecognized log level %q", logLevelStr)
		}
		log = fiplog.New("master", os.Stderr, lvl)
		log.SetColor(true)

		abs, err := filepath.Abs(projectRoot)
		if err != nil {
			return fmt.Errorf("resolving project root: %w", err)
		}
		projectRoot = abs
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&projectRoot, "project", ".", "project root (directory containing .fip/config)")
	rootCmd.PersistentFlags().StringVar(&logLevelStr, "log-level", "INFO", "log level: DEBUG, INFO, WARN, ERROR, FATAL")
	viper.BindPFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSymbolsCmd())
	rootCmd.AddCommand(newTagsCmd())
	rootCmd.AddCommand(newCompileCmd())
	rootCmd.AddCommand(newCacheCmd())
}

// masterConfigPath is where fipmaster's own enabled-modules TOML lives
// under the project root.
func masterConfigPath() string {
	return filepath.Join(projectRoot, ".fip", "fip.toml")
}

// spawnSession loads configuration, spawns every enabled module, and
// performs the version handshake, returning the ready MasterState.
// Callers are responsible for calling Shutdown.
func spawnSession() (*master.MasterState, error) {
	cfg, err := fipconfig.LoadMaster(masterConfigPath())
	if err != nil {
		return nil, fmt.Errorf("loading master config: %w", err)
	}

	m := master.New(protocolVersion, log)
	launch := master.DefaultLauncher(projectRoot)
	if err := m.Spawn(projectRoot, cfg.EnabledModules, launch); err != nil {
		return nil, fmt.Errorf("spawning modules: %w", err)
	}

	if err := m.Handshake(); err != nil {
		// The handshake is fatal; dump the suppressed log history so the
		// failure is diagnosable without re-running at DEBUG.
		fmt.Fprintln(os.Stderr, "recent log history:")
		for _, line := range log.Ring().Dump() {
			fmt.Fprintln(os.Stderr, line)
		}
		return nil, err
	}

	return m, nil
}

// runSession implements the bare "fipmaster" invocation: spawn, shake
// hands, then shut down cleanly. A real compiler front-end embeds
// internal/master directly rather than shelling out to this binary;
// this command exists so the protocol can be exercised end-to-end from
// the command line.
func runSession() error {
	m, err := spawnSession()
	if err != nil {
		return err
	}
	defer m.Shutdown(fipmsg.KillFinish)

	log.Info("handshake complete with %d module(s)", m.NumSlaves())
	return nil
}

func openCacheIndex() (*fipcache.Index, error) {
	dir := filepath.Join(projectRoot, ".fip", "cache")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	return fipcache.Open(filepath.Join(dir, "index.bdb"))
}
