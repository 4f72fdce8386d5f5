package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/perk-events/internal/config"
	"github.com/pfrederiksen/perk-events/internal/logger"
	"github.com/pfrederiksen/perk-events/internal/mailer"
	"github.com/pfrederiksen/perk-events/internal/metrics"
	"github.com/pfrederiksen/perk-events/internal/scraper"
	"github.com/pfrederiksen/perk-events/internal/store"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// app carries the process-wide flags and the client constructors the
// commands use. Tests replace the constructors with in-memory fakes.
type app struct {
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time

	openStore  func(ctx context.Context, cfg store.Config) (store.Store, error)
	openPage   func(ctx context.Context, opts scraper.BrowserOptions) (scraper.Page, func(), error)
	newMailer  func(apiKey string) (mailer.Mailer, error)
	pushMetric func(ctx context.Context, rec *metrics.Recorder, url, command string) error

	flagConfig  string
	flagEnvFile string
	flagVerbose bool
	flagTimeout time.Duration

	cfg   *config.Config
	log   *logger.Logger
	runID string
}

func newApp() *app {
	return &app{
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		now:       time.Now,
		openStore: store.Open,
		openPage: func(ctx context.Context, opts scraper.BrowserOptions) (scraper.Page, func(), error) {
			page, err := scraper.NewChromePage(ctx, opts)
			if err != nil {
				return nil, nil, err
			}
			return page, page.Close, nil
		},
		newMailer: func(apiKey string) (mailer.Mailer, error) {
			return mailer.NewResendMailer(apiKey)
		},
		pushMetric: func(ctx context.Context, rec *metrics.Recorder, url, command string) error {
			return rec.Push(ctx, url, command)
		},
	}
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(newApp())
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "perk-events",
		Short: "Track UNC HeelLife events that offer free food, credit or merchandise",
		Long: `A CLI tool that scrapes the HeelLife events listing for events with perks,
stores them, and emails a digest of tomorrow's events.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	cmd.PersistentFlags().StringVar(&a.flagConfig, "config", "", "YAML settings file")
	cmd.PersistentFlags().StringVar(&a.flagEnvFile, "env-file", "", "dotenv file to load (default .env when present)")
	cmd.PersistentFlags().BoolVar(&a.flagVerbose, "verbose", false, "Enable verbose logging")
	cmd.PersistentFlags().DurationVar(&a.flagTimeout, "timeout", 0, "Overall deadline for the command (0 disables)")

	cmd.AddCommand(
		newScrapeCmd(a),
		newDigestCmd(a),
		newUpsertCmd(a),
		newServeCmd(a),
	)

	return cmd
}

// setup loads configuration and installs the run's logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.LoadOptions{
		File:    a.flagConfig,
		EnvFile: a.flagEnvFile,
	})
	if err != nil {
		return err
	}
	a.cfg = cfg

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if a.flagVerbose {
		level = logger.LevelDebug
	}

	a.runID = uuid.NewString()
	a.log = logger.New(level, a.stderr).With(logger.Fields{
		"run_id":  a.runID,
		"command": cmd.Name(),
	})
	logger.SetDefault(a.log)

	return nil
}

// context derives the command context, bounded by --timeout when set.
func (a *app) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if a.flagTimeout > 0 {
		return context.WithTimeout(ctx, a.flagTimeout)
	}
	return context.WithCancel(ctx)
}

// openConfiguredStore opens the configured backend, or an in-memory store
// for dry runs.
func (a *app) openConfiguredStore(ctx context.Context, dryRun bool) (store.Store, error) {
	settings := a.cfg.StoreSettings()
	if dryRun {
		settings = store.Config{Backend: store.BackendMemory}
	}
	s, err := a.openStore(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", settings.Backend, err)
	}
	return s, nil
}

func (a *app) closeStore(ctx context.Context, s store.Store) {
	if err := s.Close(context.WithoutCancel(ctx)); err != nil {
		a.log.Warn("closing store", logger.Fields{"error": err.Error()})
	}
}

// finishMetrics records the run duration and pushes the registry when a
// Pushgateway is configured. Push failures are logged, never fatal.
func (a *app) finishMetrics(ctx context.Context, rec *metrics.Recorder, command string, start time.Time) {
	rec.ObserveRun(command, start)
	if a.cfg.PushgatewayURL == "" {
		return
	}
	if err := a.pushMetric(context.WithoutCancel(ctx), rec, a.cfg.PushgatewayURL, command); err != nil {
		a.log.Warn("pushing metrics", logger.Fields{"error": err.Error()})
	}
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
