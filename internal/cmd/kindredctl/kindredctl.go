// Package kindredctl implements the operator CLI for the lifecycle store.
package kindredctl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	entrypoint "github.com/louisbranch/kindred/internal/platform/cmd"
	"github.com/louisbranch/kindred/internal/platform/logging"
	lifecyclesqlite "github.com/louisbranch/kindred/internal/services/lifecycle/storage/sqlite"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Config holds kindredctl defaults read from the environment.
type Config struct {
	DBPath             string `env:"KINDRED_LIFECYCLE_DB_PATH" envDefault:"data/lifecycle.db"`
	Concurrency        int    `env:"KINDRED_LIFECYCLE_CONCURRENCY" envDefault:"8"`
	MaintenanceWeekday string `env:"KINDRED_LIFECYCLE_MAINTENANCE_WEEKDAY" envDefault:"monday"`

	Logging logging.Config
}

// Execute loads Config from the environment and runs the command line.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return err
	}
	root := NewRootCommand(cfg)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

// cli is the state shared by every subcommand.
type cli struct {
	cfg   Config
	clock func() time.Time
}

// NewRootCommand builds the kindredctl command tree.
func NewRootCommand(cfg Config) *cobra.Command {
	c := &cli{cfg: cfg, clock: time.Now}
	root := &cobra.Command{
		Use:           entrypoint.ServiceCtl,
		Short:         "Operate the kindred companion lifecycle",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.cfg.DBPath, "db-path", c.cfg.DBPath, "The lifecycle SQLite database path")
	root.PersistentFlags().StringVar(&c.cfg.Logging.Level, "log-level", c.cfg.Logging.Level, "Log level")

	root.AddCommand(
		c.newRunCommand(),
		c.newTickCommand(),
		c.newPlanCommand(),
		c.newSeedCommand(),
		c.newShowCommand(),
		c.newUnlockPathCommand(),
		c.newRunsCommand(),
	)
	return root
}

func (c *cli) logger(cmd *cobra.Command) *zap.Logger {
	logCfg := c.cfg.Logging
	logCfg.Format = "console"
	logger, err := logging.New(logCfg, entrypoint.ServiceCtl)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "logger: %v\n", err)
		return zap.NewNop()
	}
	return logger
}

func (c *cli) openStore(logger *zap.Logger) (*lifecyclesqlite.Store, error) {
	if dir := filepath.Dir(c.cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create lifecycle storage dir: %w", err)
		}
	}
	store, err := lifecyclesqlite.Open(c.cfg.DBPath, logger, lifecyclesqlite.WithClock(c.clock))
	if err != nil {
		return nil, fmt.Errorf("open lifecycle sqlite store: %w", err)
	}
	return store, nil
}

// withStore opens the store for the duration of fn.
func (c *cli) withStore(cmd *cobra.Command, fn func(store *lifecyclesqlite.Store, logger *zap.Logger) error) error {
	logger := c.logger(cmd)
	defer func() { _ = logger.Sync() }()
	store, err := c.openStore(logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Warn("close lifecycle sqlite store", zap.Error(closeErr))
		}
	}()
	return fn(store, logger)
}

func writeJSON(w io.Writer, payload any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}
