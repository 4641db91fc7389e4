package main

import (
	"fmt"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/spf13/cobra"

	"pharmadmin/internal/client"
	"pharmadmin/internal/observability"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	apiURL     string
	token      string
	jsonOutput bool

	cfg    *Config
	client *client.Client
	logger observability.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "pharmadmin <command>",
		Short:         "Console for the pharmacy administration list API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", os.Getenv("PHARMADMIN_CONFIG"), "path to YAML config file")
	root.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "API server URL (overrides config)")
	root.PersistentFlags().StringVar(&a.token, "token", "", "bearer token (overrides config)")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "output as JSON")

	root.AddCommand(newListCmd(a))
	root.AddCommand(newBrowseCmd(a))
	root.AddCommand(newResourcesCmd(a))
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.apiURL != "" {
		cfg.APIURL = a.apiURL
	}
	if a.token != "" {
		cfg.APIToken = a.token
	}
	a.cfg = cfg

	logCfg := observability.ConfigFromEnv()
	logCfg.Output = cmd.ErrOrStderr()
	if os.Getenv("PHARMADMIN_LOG_LEVEL") == "" {
		logCfg.Level = "warn"
	}
	a.logger = observability.NewLogger(logCfg).WithComponent("console")

	a.client, err = client.New(client.Config{
		BaseURL:           cfg.APIURL,
		Token:             cfg.APIToken,
		Timeout:           cfg.RequestTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		MaxRetries:        cfg.MaxRetries,
		Backoff:           cfg.RetryBackoff,
		Logger:            a.logger,
	})
	return err
}

func initSentry() bool {
	dsn := os.Getenv("SENTRY_DSN")
	if dsn == "" {
		return false
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      envOr("SENTRY_ENVIRONMENT", "production"),
		Release:          envOr("APP_VERSION", "dev"),
		AttachStacktrace: true,
	})
	return err == nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	sentryEnabled := initSentry()
	err := newRootCmd().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if sentryEnabled {
			sentry.CaptureException(err)
		}
	}
	if sentryEnabled {
		sentry.Flush(2 * time.Second)
	}
	if err != nil {
		os.Exit(1)
	}
}
