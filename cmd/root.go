// Package cmd holds the ffexec cobra commands.
package cmd

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smazurov/ffexec/internal/config"
	"github.com/smazurov/ffexec/internal/events"
	"github.com/smazurov/ffexec/internal/logging"
	"github.com/smazurov/ffexec/internal/metrics"
	"github.com/smazurov/ffexec/internal/version"
	"github.com/smazurov/ffexec/pkg/process"
	"github.com/spf13/cobra"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string

	// Tools
	FFmpeg  string `toml:"tools.ffmpeg" env:"FFMPEG"`
	FFprobe string `toml:"tools.ffprobe" env:"FFPROBE"`

	// Runner settings
	GracePeriod time.Duration `toml:"run.grace_period" env:"GRACE_PERIOD"`

	// Batch settings
	JobsConcurrency int `toml:"jobs.concurrency" env:"JOBS_CONCURRENCY"`

	// Metrics settings
	MetricsTextfile string `toml:"metrics.textfile" env:"METRICS_TEXTFILE"`

	// Logging settings
	LoggingLevel   string `toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat  string `toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingJournal bool   `toml:"logging.journal" env:"LOGGING_JOURNAL"`
}

// App is the state shared by subcommands once flags and config are resolved.
type App struct {
	Options  Options
	Bus      *events.Bus
	Registry *prometheus.Registry
	Recorder *metrics.Recorder
}

func newApp() *App {
	reg := prometheus.NewRegistry()
	return &App{
		Bus:      events.New(),
		Registry: reg,
		Recorder: metrics.NewRecorder(reg),
	}
}

// Observers returns the lifecycle observers every runner should carry.
func (a *App) Observers() []process.Observer {
	return []process.Observer{a.Recorder, events.NewProcessPublisher(a.Bus)}
}

// RunnerOptions returns the options shared by every runner.
func (a *App) RunnerOptions(label string) []process.Option {
	opts := []process.Option{
		process.WithLabel(label),
		process.WithLogger(logging.GetLogger("process")),
		process.WithObserver(a.Observers()...),
	}
	if a.Options.GracePeriod > 0 {
		opts = append(opts, process.WithGracePeriod(a.Options.GracePeriod))
	}
	return opts
}

// FlushMetrics writes the metrics textfile when one is configured.
func (a *App) FlushMetrics() {
	if a.Options.MetricsTextfile == "" {
		return
	}
	if err := metrics.WriteTextfile(a.Options.MetricsTextfile, a.Registry); err != nil {
		logging.GetLogger("metrics").Warn("Failed to write metrics textfile", "path", a.Options.MetricsTextfile, "error", err)
	}
}

// CreateRootCmd creates the ffexec root command with all subcommands.
func CreateRootCmd() *cobra.Command {
	app := newApp()
	opts := &app.Options

	root := &cobra.Command{
		Use:   "ffexec",
		Short: "Build and run ffmpeg/ffprobe command lines",
		Long: `ffexec renders ffmpeg-family command lines from ordered inputs, outputs and options, ` +
			`and runs them as child processes. Settings come from flags, FFEXEC_* environment variables ` +
			`and a TOML config file, in that order of precedence.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadConfig(opts, cmd); err != nil {
				return err
			}

			logCfg := config.LoadLoggingConfig(opts.Config)
			logCfg.Level = opts.LoggingLevel
			logCfg.Format = opts.LoggingFormat
			logCfg.Journal = opts.LoggingJournal
			logging.Initialize(logCfg)
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.Config, "config", "c", "ffexec.toml", "Path to configuration file")
	flags.StringVar(&opts.FFmpeg, "ffmpeg", "ffmpeg", "ffmpeg executable name or path")
	flags.StringVar(&opts.FFprobe, "ffprobe", "ffprobe", "ffprobe executable name or path")
	flags.DurationVar(&opts.GracePeriod, "grace-period", 5*time.Second, "Time an interrupted child gets to exit before it is killed")
	flags.IntVar(&opts.JobsConcurrency, "jobs-concurrency", 0, "Jobs run at once (0 = number of CPUs)")
	flags.StringVar(&opts.MetricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file on exit")
	flags.StringVar(&opts.LoggingLevel, "logging-level", "info", "Global logging level (debug, info, warn, error)")
	flags.StringVar(&opts.LoggingFormat, "logging-format", "text", "Logging format (text, json)")
	flags.BoolVar(&opts.LoggingJournal, "logging-journal", false, "Also log to the systemd journal")

	root.AddCommand(
		CreateRunCmd(app),
		CreateProbeCmd(app),
		CreateJobsCmd(app),
		CreateVersionCmd(),
	)
	return root
}
