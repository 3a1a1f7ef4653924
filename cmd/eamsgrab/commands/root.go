package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"eamsgrab/internal/components/osutil"
	"eamsgrab/internal/components/telemetry"
	"eamsgrab/internal/config"
	"eamsgrab/internal/eams"

	"github.com/mazen160/go-random"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	overrides  config.Overrides
	courses    string

	providers telemetry.Telemetry
)

var rootCmd = &cobra.Command{
	Use:   "eamsgrab",
	Short: "eamsgrab submits course elections to an EAMS deployment the moment they open.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(os.Stderr, verbose)

		var err error
		providers, err = telemetry.SetupFromEnv(cmd.Context(), "eamsgrab")
		if err != nil {
			slog.Warn("failed to setup telemetry, continuing without it", "err", err)
		}
		telemetry.InstrumentPerfStats(cmd.Context())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := providers.Shutdown(ctx)
		if err != nil {
			slog.Warn("failed to flush telemetry", "err", err)
		}
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "config.json5", "The config file, a config.local.json5 next to it is merged over it.")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Log debug output and write http transcripts to .dev/resty.")
	flags.StringVar(&overrides.ProfileId, "profile", "", "The election profile id, overrides "+config.EnvProfileId+".")
	flags.StringVar(&overrides.Cookie, "cookie", "", "The Cookie header of a logged in browser, overrides "+config.EnvCookie+".")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// splitTokens accepts tokens separated by commas or whitespace.
func splitTokens(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}

func loadConfig() config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		osutil.Fatal("failed to read config", err)
	}
	cfg.ApplyEnv(os.Getenv)
	overrides.Courses = splitTokens(courses)
	cfg.Apply(overrides)

	err = cfg.Validate()
	if err != nil {
		osutil.Fatal("invalid config", err)
	}
	slog.Debug("config loaded", "profile", cfg.ProfileId, "cookie_from", cfg.CookieSource)
	return cfg
}

func newTelemetry() telemetry.API {
	runId, err := random.String(6)
	if err != nil {
		slog.Warn("failed to generate run id", "err", err)
		return telemetry.NewSlogAPI(slog.Default())
	}
	return telemetry.NewSlogAPI(slog.Default().With("run", runId))
}

// connect creates a client from the config and warms its session up.
func connect(ctx context.Context, cfg config.Config, tel telemetry.API) *eams.Client {
	timing, err := cfg.ParseTiming()
	if err != nil {
		osutil.Fatal("invalid timing", err)
	}

	opts := eams.ClientOptions{
		BaseUrl:           cfg.BaseUrl,
		Cookie:            cfg.Cookie,
		UserAgent:         cfg.UserAgent,
		Timeout:           timing.RequestTimeout,
		RequestsPerSecond: cfg.MaxRequestsPerSecond,
		CloudflareBypass:  cfg.CloudflareBypass,
	}
	if verbose {
		output, err := telemetry.NewFilesystemOutput(".dev/resty")
		if err != nil {
			slog.Warn("http transcripts disabled", "err", err)
		} else {
			opts.Output = output
		}
	}

	client, err := eams.NewClient(opts, tel)
	if err != nil {
		osutil.Fatal("failed to create client", err)
	}
	err = client.Prepare(ctx, cfg.ProfileId)
	if err != nil {
		osutil.Fatal("failed to open election session", err)
	}
	return client
}
