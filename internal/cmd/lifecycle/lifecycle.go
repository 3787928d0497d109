// Package lifecycle parses lifecycle command flags and launches the batch runtime.
package lifecycle

import (
	"context"
	"flag"

	entrypoint "github.com/louisbranch/kindred/internal/platform/cmd"
	"github.com/louisbranch/kindred/internal/platform/logging"
	lifecycleapp "github.com/louisbranch/kindred/internal/services/lifecycle/app"
	"github.com/louisbranch/kindred/internal/services/lifecycle/domain"
)

// Config holds lifecycle command configuration.
type Config struct {
	HTTPAddr           string  `env:"KINDRED_LIFECYCLE_HTTP_ADDR" envDefault:":8095"`
	HealthPort         int     `env:"KINDRED_LIFECYCLE_HEALTH_PORT" envDefault:"8096"`
	DBPath             string  `env:"KINDRED_LIFECYCLE_DB_PATH" envDefault:"data/lifecycle.db"`
	Schedule           string  `env:"KINDRED_LIFECYCLE_SCHEDULE" envDefault:"5 0 * * *"`
	CronToken          string  `env:"KINDRED_LIFECYCLE_CRON_TOKEN"`
	Concurrency        int     `env:"KINDRED_LIFECYCLE_CONCURRENCY" envDefault:"8"`
	MaintenanceWeekday string  `env:"KINDRED_LIFECYCLE_MAINTENANCE_WEEKDAY" envDefault:"monday"`
	DeliveryRate       float64 `env:"KINDRED_LIFECYCLE_DELIVERY_RATE" envDefault:"20"`
	DisableScheduler   bool    `env:"KINDRED_LIFECYCLE_DISABLE_SCHEDULER"`

	Logging logging.Config
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "The cron trigger HTTP listen address")
	fs.IntVar(&cfg.HealthPort, "health-port", cfg.HealthPort, "The gRPC health server port")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The lifecycle SQLite database path")
	fs.StringVar(&cfg.Schedule, "schedule", cfg.Schedule, "Cron schedule for the daily batch (UTC)")
	fs.StringVar(&cfg.CronToken, "cron-token", cfg.CronToken, "Bearer token required by the cron endpoint")
	fs.IntVar(&cfg.Concurrency, "concurrency", cfg.Concurrency, "Companions processed in parallel")
	fs.StringVar(&cfg.MaintenanceWeekday, "maintenance-weekday", cfg.MaintenanceWeekday, "Weekday of the weekly maintenance boundary")
	fs.Float64Var(&cfg.DeliveryRate, "delivery-rate", cfg.DeliveryRate, "Consequence deliveries per second (0 for unlimited)")
	fs.BoolVar(&cfg.DisableScheduler, "disable-scheduler", cfg.DisableScheduler, "Only run batches through the cron endpoint")
	fs.StringVar(&cfg.Logging.Level, "log-level", cfg.Logging.Level, "Log level")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if _, err := domain.ParseWeekday(cfg.MaintenanceWeekday); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the lifecycle runtime.
func Run(ctx context.Context, cfg Config) error {
	logger, err := logging.New(cfg.Logging, entrypoint.ServiceLifecycle)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	weekday, err := domain.ParseWeekday(cfg.MaintenanceWeekday)
	if err != nil {
		return err
	}
	return entrypoint.RunWithTelemetryAndOptions(ctx, entrypoint.ServiceLifecycle, entrypoint.RunOptions{Logger: logger}, func(ctx context.Context) error {
		return lifecycleapp.Run(ctx, lifecycleapp.RuntimeConfig{
			HTTPAddr:           cfg.HTTPAddr,
			HealthPort:         cfg.HealthPort,
			DBPath:             cfg.DBPath,
			Schedule:           cfg.Schedule,
			CronToken:          cfg.CronToken,
			Concurrency:        cfg.Concurrency,
			MaintenanceWeekday: weekday,
			DeliveryRate:       cfg.DeliveryRate,
			DisableScheduler:   cfg.DisableScheduler,
			Logger:             logger,
		})
	})
}
