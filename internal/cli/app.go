package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/0x6d61/sofictl/internal/config"
	"github.com/0x6d61/sofictl/internal/credentials"
	"github.com/0x6d61/sofictl/internal/flow"
	"github.com/0x6d61/sofictl/internal/gateway"
	"github.com/0x6d61/sofictl/internal/preferences"
	"github.com/0x6d61/sofictl/internal/report"
	"github.com/0x6d61/sofictl/internal/settings"
	"github.com/0x6d61/sofictl/internal/transport"
)

// app is everything a command needs, wired from flags and config.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	client   *transport.DefaultClient
	session  *credentials.SessionProvider
	gateway  *gateway.Gateway
	store    settings.Store
	settings *settings.Manager
	sync     *preferences.Synchronizer
	flow     *flow.Session
	reporter report.Reporter

	out     io.Writer
	closers []func() error
}

// newApp resolves the configuration and builds the component graph:
// transport -> gateway -> synchronizer, store -> settings manager, both
// composed into a flow session.
func newApp(cmd *cobra.Command) (*app, error) {
	ctx := cmd.Context()

	// ---- 1. Configuration ----
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}

	// ---- 2. Logging ----
	verbose, _ := cmd.Flags().GetCount("verbose")
	logger := newLogger(cmd.ErrOrStderr(), verbose, cfg.Production())

	a := &app{cfg: cfg, logger: logger}

	// ---- 3. Output ----
	format, _ := cmd.Flags().GetString("format")
	if a.reporter, err = report.New(format); err != nil {
		return nil, err
	}
	a.out = cmd.OutOrStdout()
	if outputFile, _ := cmd.Flags().GetString("output"); outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return nil, fmt.Errorf("creating output file: %w", err)
		}
		a.out = f
		a.closers = append(a.closers, f.Close)
	}

	// ---- 4. Transport ----
	a.client, err = transport.NewClient(transport.ClientOptions{
		Timeout:            cfg.Timeout,
		ProxyURL:           cfg.Proxy,
		InsecureSkipVerify: cfg.Insecure,
		UserAgent:          cfg.UserAgent,
		MaxRPS:             cfg.MaxRPS,
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("creating HTTP client: %w", err)
	}

	// ---- 5. Credentials and gateway ----
	var provider credentials.Provider
	if cfg.CredentialsSource == config.CredentialsSession {
		a.session = credentials.NewSessionProvider()
		provider = a.session
	} else {
		provider = credentials.NewEnvProvider(logger, cfg.EnvFile)
	}
	a.gateway = gateway.New(a.client, gateway.Options{
		BaseURL:     cfg.BaseURL,
		Credentials: provider,
		Logger:      logger,
		Production:  cfg.Production(),
	})

	// ---- 6. Local settings ----
	a.store, err = openStore(ctx, cfg.Store)
	if err != nil {
		a.close()
		return nil, err
	}
	a.closers = append(a.closers, a.store.Close)
	a.settings = settings.NewManager(a.store, logger)
	a.settings.Load(ctx)

	// ---- 7. Synchronizer and flows ----
	a.sync = preferences.New(a.gateway, logger)
	a.flow = flow.NewSession(a.settings, a.sync, logger)

	logger.Debug("sofictl ready",
		"base_url", cfg.BaseURL,
		"mode", cfg.Mode,
		"credentials", cfg.CredentialsSource,
		"store", cfg.Store.Type,
	)
	return a, nil
}

// applyFlags lets explicitly set persistent flags win over the config.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.BaseURL, _ = flags.GetString("base-url")
	}
	if flags.Changed("mode") {
		cfg.Mode, _ = flags.GetString("mode")
	}
	if flags.Changed("proxy") {
		cfg.Proxy, _ = flags.GetString("proxy")
	}
	if flags.Changed("timeout") {
		cfg.Timeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("store") {
		cfg.Store.Type, _ = flags.GetString("store")
	}
	return cfg.Validate()
}

// newLogger writes text logs to w. Production mode never logs below Warn.
func newLogger(w io.Writer, verbose int, production bool) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case production:
	case verbose >= 2:
		level = slog.LevelDebug
	case verbose == 1:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func openStore(ctx context.Context, sc config.StoreConfig) (settings.Store, error) {
	switch sc.Type {
	case config.StoreMemory:
		return settings.NewMemoryStore(), nil
	case config.StoreRedis:
		return settings.NewRedisStore(ctx, sc.RedisURL)
	default:
		if dir := filepath.Dir(sc.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("creating settings directory: %w", err)
			}
		}
		return settings.NewSQLiteStore(sc.Path)
	}
}

// authenticate makes sure a backend call can log in: in session mode it
// prompts for credentials that have not been entered yet.
func (a *app) authenticate(cmd *cobra.Command) error {
	if a.session != nil {
		creds, _ := a.session.Credentials(cmd.Context())
		if creds.Empty() {
			identity, secret, err := promptCredentials(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := a.gateway.SetCredentials(identity, secret); err != nil {
				return err
			}
		}
	}
	return a.explain(a.gateway.EnsureAuthenticated(cmd.Context()))
}

// explain adds a hint to errors the user can fix locally.
func (a *app) explain(err error) error {
	if errors.Is(err, gateway.ErrMissingCredentials) {
		return fmt.Errorf("%w: set %s and %s", err, credentials.EnvUsername, credentials.EnvPassword)
	}
	return err
}

func (a *app) close() {
	if a.client != nil && a.logger != nil {
		st := a.client.Stats()
		a.logger.Debug("transport stats",
			"requests", st.TotalRequests,
			"total", st.TotalDuration,
			"avg", st.AvgDuration)
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && a.logger != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}

// withApp wraps a command body with app setup and teardown.
func withApp(run func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()
		return run(cmd, args, a)
	}
}

// withBackend is withApp plus an authenticated gateway.
func withBackend(run func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return withApp(func(cmd *cobra.Command, args []string, a *app) error {
		if err := a.authenticate(cmd); err != nil {
			return err
		}
		return run(cmd, args, a)
	})
}
