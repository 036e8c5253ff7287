package cineadmincli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/phillip-england/cineadmin/internal/apiapp"
	"github.com/phillip-england/cineadmin/internal/clientapp"
	"github.com/phillip-england/cineadmin/internal/envutil"
	"github.com/phillip-england/cineadmin/internal/telemetry"
)

var ErrUsage = errors.New("usage")

// runtimeConfig is read from the environment before any server starts.
type runtimeConfig struct {
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
	Telemetry telemetry.Config
}

func Execute(args []string) error {
	if len(args) < 1 {
		return usageError()
	}

	switch args[0] {
	case "setup":
		return runSetup(args[1:])
	case "run":
		return runCommand(args[1:])
	case "help", "-h", "--help":
		PrintUsage(os.Stdout)
		return nil
	default:
		return usageError()
	}
}

func PrintUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: cineadmin setup [--env-file .env] [--force] [--api-base-url URL] [--client-addr :3000] [--api-addr :8080]")
	fmt.Fprintln(w, "       cineadmin run api|client|all")
}

func usageError() error {
	return fmt.Errorf("%w: cineadmin <setup|run> [...]", ErrUsage)
}

func runSetup(args []string) error {
	fs := flag.NewFlagSet("setup", flag.ContinueOnError)
	envPath := fs.String("env-file", ".env", "path to .env file")
	force := fs.Bool("force", false, "overwrite existing env file")
	apiBaseURL := fs.String("api-base-url", "http://localhost:8080", "base URL of the ticketing API")
	clientAddr := fs.String("client-addr", ":3000", "listen address of the admin pages")
	apiAddr := fs.String("api-addr", ":8080", "listen address of the local stand-in API")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !strings.HasPrefix(*apiBaseURL, "http://") && !strings.HasPrefix(*apiBaseURL, "https://") {
		return fmt.Errorf("--api-base-url must start with http:// or https://, got %q", *apiBaseURL)
	}

	values := map[string]string{
		"CLIENT_ADDR":   *clientAddr,
		"API_ADDR":      *apiAddr,
		"API_BASE_URL":  *apiBaseURL,
		"API_TIMEOUT":   "8s",
		"LOG_LEVEL":     "info",
		"OTEL_ENABLED":  "false",
		"OTEL_ENDPOINT": "",
	}

	if err := envutil.WriteDotEnv(*envPath, values, *force); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", *envPath)
	return nil
}

func runCommand(args []string) error {
	if len(args) < 1 {
		return errors.New("missing run target: api | client | all")
	}
	target := args[0]
	if target != "api" && target != "client" && target != "all" {
		return fmt.Errorf("unknown run target %q", target)
	}

	if err := envutil.LoadDotEnv(".env"); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	var rc runtimeConfig
	if err := envutil.Parse(&rc); err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	log := newLogger(os.Stderr, rc.LogLevel, rc.LogFormat)
	slog.SetDefault(log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdown, err := telemetry.Setup(ctx, "cineadmin-"+target, rc.Telemetry)
	if err != nil {
		return fmt.Errorf("set up tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Warn("tracing shutdown failed", "err", err)
		}
	}()

	switch target {
	case "api":
		return runAPI(ctx, log)
	case "client":
		return runClient(ctx, log)
	default:
		return runAll(ctx, log)
	}
}

func runAPI(ctx context.Context, log *slog.Logger) error {
	cfg, err := apiapp.DefaultConfigFromEnv()
	if err != nil {
		return fmt.Errorf("api config: %w", err)
	}
	return ignoreCanceled(apiapp.Run(ctx, cfg, log.With("app", "api")))
}

func runClient(ctx context.Context, log *slog.Logger) error {
	cfg, err := clientapp.DefaultConfigFromEnv()
	if err != nil {
		return fmt.Errorf("client config: %w", err)
	}
	return ignoreCanceled(clientapp.Run(ctx, cfg, log.With("app", "client")))
}

// runAll serves the stand-in API and the admin pages together. Either one
// failing stops the other.
func runAll(ctx context.Context, log *slog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return runAPI(gctx, log) })
	g.Go(func() error {
		select {
		case <-time.After(500 * time.Millisecond):
		case <-gctx.Done():
			return nil
		}
		return runClient(gctx, log)
	})
	return g.Wait()
}

func ignoreCanceled(err error) error {
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
