package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/earthboundkid/versioninfo/v2"
	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/lmittmann/tint"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"

	"github.com/dynoinc/incidentreport/internal/config"
	"github.com/dynoinc/incidentreport/internal/metrics"
	"github.com/dynoinc/incidentreport/internal/otel/trace"
	"github.com/dynoinc/incidentreport/internal/output"
	"github.com/dynoinc/incidentreport/internal/pagerduty"
	"github.com/dynoinc/incidentreport/internal/pipeline"
	"github.com/dynoinc/incidentreport/internal/tools"
)

type Config struct {
	// PagerDuty API configuration
	PagerDuty pagerduty.Config

	// Output configuration
	Confluence output.ConfluenceConfig
	Slack      output.SlackConfig

	// Observability configuration
	Tracing         trace.Config
	SentryDSN       string `envconfig:"SENTRY_DSN"`
	MetricsTextfile string `split_words:"true"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		slog.Error("pd failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) (err error) {
	opts, fset, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	if opts.help {
		fset.Usage()
		fmt.Fprintln(stderr)
		return envconfig.Usagef("pd", &Config{}, stderr, envconfig.DefaultListFormat)
	}
	if opts.version {
		fmt.Fprintln(stdout, versioninfo.Short())
		return nil
	}

	level := slog.LevelInfo
	if opts.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(stderr, &tint.Options{Level: level, TimeFormat: "15:04:05"}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env file: %w", err)
	}

	var c Config
	if err := envconfig.Process("pd", &c); err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	if c.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: c.SentryDSN, Release: versioninfo.Short()}); err != nil {
			return fmt.Errorf("initializing sentry: %w", err)
		}
		defer func() {
			if err != nil {
				sentry.CaptureException(err)
			}
			sentry.Flush(2 * time.Second)
		}()
	}

	if opts.profile != "" {
		p, err := config.LoadProfile(opts.profile)
		if err != nil {
			return err
		}
		opts.applyProfile(p)
	}

	if err := resolveAPIKey(&c.PagerDuty, opts.key); err != nil {
		return err
	}

	tp, err := trace.NewProvider(ctx, c.Tracing)
	if err != nil {
		return err
	}
	otel.SetTracerProvider(tp)
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Warn("shutting down tracer provider", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	apiMetrics, err := metrics.New(reg)
	if err != nil {
		return err
	}
	if c.MetricsTextfile != "" {
		defer func() {
			if err := metrics.WriteTextfile(c.MetricsTextfile, reg); err != nil {
				logger.Warn("writing metrics", "path", c.MetricsTextfile, "error", err)
			}
		}()
	}

	client, err := pagerduty.New(c.PagerDuty, pagerduty.WithMetrics(apiMetrics), pagerduty.WithLogger(logger))
	if err != nil {
		return err
	}

	if opts.mcp {
		logger.Info("serving MCP tools on stdio", "version", versioninfo.Short())
		return server.ServeStdio(tools.Server(client, logger))
	}

	popts, err := opts.pipelineOptions(time.Now())
	if err != nil {
		return err
	}

	sink, err := newSink(opts, &c, popts, stdout, logger)
	if err != nil {
		return err
	}

	reports, err := pipeline.Run(ctx, client, popts, logger)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		return nil
	}

	return sink.Write(ctx, reports...)
}

// resolveAPIKey picks the key from the flag, then the environment, then ~/.pd.
func resolveAPIKey(cfg *pagerduty.Config, flagKey string) error {
	if flagKey != "" {
		cfg.APIKey = flagKey
		return nil
	}
	if cfg.APIKey != "" {
		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("finding home directory: %w", err)
	}
	key, err := config.ReadKeyFile(home)
	if err != nil {
		return err
	}
	if key == "" {
		return errors.New("no PagerDuty API key: use -k, PD_PAGERDUTY_API_KEY or ~/.pd")
	}

	cfg.APIKey = key
	return nil
}

func newSink(opts *options, c *Config, popts pipeline.Options, stdout io.Writer, logger *slog.Logger) (output.Sink, error) {
	switch opts.format {
	case output.FormatConfluence:
		cfg := c.Confluence
		if opts.confluenceSpace != "" {
			cfg.SpaceKey = opts.confluenceSpace
		}
		if opts.confluenceTitle != "" {
			cfg.Title = opts.confluenceTitle
		}
		if cfg.Title == "" {
			cfg.Title = defaultTitle(popts)
		}
		return output.NewConfluence(cfg, nil, logger)
	case output.FormatSlack:
		cfg := c.Slack
		if opts.slackChannel != "" {
			cfg.ChannelID = opts.slackChannel
		}
		return output.NewSlack(cfg)
	default:
		return output.NewWriterSink(opts.format, stdout)
	}
}

func defaultTitle(popts pipeline.Options) string {
	title := "Incident report"
	switch {
	case popts.FullReport:
		title = "Full incident report"
	case popts.Group != "":
		title = "Incidents by " + popts.Group
	}
	return fmt.Sprintf("%s %s", title, popts.Window.String())
}
