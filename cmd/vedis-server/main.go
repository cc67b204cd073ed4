package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/vedis-go/internal/core/service"
	"github.com/yndnr/vedis-go/internal/infra/buildinfo"
	"github.com/yndnr/vedis-go/internal/infra/confloader"
	"github.com/yndnr/vedis-go/internal/infra/shutdown"
	"github.com/yndnr/vedis-go/internal/infra/tlsroots"
	"github.com/yndnr/vedis-go/internal/server/config"
	"github.com/yndnr/vedis-go/internal/server/httpserver"
	"github.com/yndnr/vedis-go/internal/server/localserver"
	"github.com/yndnr/vedis-go/internal/server/redisserver"
	"github.com/yndnr/vedis-go/internal/storage/memory"
	"github.com/yndnr/vedis-go/internal/telemetry/logger"
	"github.com/yndnr/vedis-go/internal/telemetry/metric"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// options are the command-line inputs to run.
type options struct {
	ConfigFile string
	Flags      map[string]any
	LogOutput  io.Writer

	// onReady is called with the Redis listener address once serving.
	onReady func(net.Addr)
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "vedis-server",
		Usage:   "in-memory key-value server speaking RESP2",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "TCP port for the Redis protocol (overrides server.redis.addr)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error",
			},
		},
		Action: func(c *cli.Context) error {
			flags := make(map[string]any)
			if c.IsSet("port") {
				flags["server.redis.addr"] = net.JoinHostPort("", strconv.Itoa(c.Int("port")))
			}
			if c.IsSet("log-level") {
				flags["log.level"] = c.String("log-level")
			}
			return run(c.Context, options{
				ConfigFile: c.String("config"),
				Flags:      flags,
				LogOutput:  os.Stdout,
			})
		},
	}
}

func run(ctx context.Context, opts options) error {
	cfg, err := loadConfig(opts.ConfigFile, opts.Flags)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: opts.LogOutput,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	info := buildinfo.Get()
	log.Info("starting vedis-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", opts.ConfigFile)

	store := memory.New(memory.WithShards(cfg.Storage.Shards))
	latch := shutdown.NewLatch()

	metrics := metric.NewRegistry()
	metrics.MustRegister(metric.NewStoreCollector(store))

	dispatcher := service.NewDispatcher(store,
		service.WithTrigger(latch),
		service.WithObserver(metrics),
		service.WithLogger(log))

	shutdownHandler := shutdown.NewHandler(cfg.Server.ShutdownTimeout, latch)

	// Hooks run in reverse order of registration. Components started so
	// far are also stopped when a later one fails to start.
	var started []func(context.Context) error
	onShutdown := func(hook func(context.Context) error) {
		started = append(started, hook)
		shutdownHandler.OnShutdown(hook)
	}
	abort := func(err error) error {
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		for i := len(started) - 1; i >= 0; i-- {
			_ = started[i](stopCtx)
		}
		return err
	}

	tlsConfig, keyPair, err := loadTLS(cfg.Server.Redis.TLS, log)
	if err != nil {
		return fmt.Errorf("init tls: %w", err)
	}
	if keyPair != nil {
		onShutdown(func(context.Context) error {
			return keyPair.Stop()
		})
	}

	redisConfig := &redisserver.Config{
		Address:      cfg.Server.Redis.Addr,
		ReadTimeout:  cfg.Server.Redis.ReadTimeout,
		WriteTimeout: cfg.Server.Redis.WriteTimeout,
		IdleTimeout:  cfg.Server.Redis.IdleTimeout,
		RateLimit:    cfg.Server.Redis.RateLimit,
		MaxClients:   cfg.Server.Redis.MaxClients,
		Codec:        redisserver.RESP2{},
		TLS:          tlsConfig,
	}
	serverOpts := []redisserver.Option{
		redisserver.WithLogger(log),
		redisserver.WithConnObserver(metrics),
		redisserver.WithStopSignal(latch.Done()),
	}

	redisServer := redisserver.New(redisConfig, dispatcher, serverOpts...)
	if err := redisServer.Start(ctx); err != nil {
		return abort(fmt.Errorf("start redis server: %w", err))
	}
	onShutdown(func(ctx context.Context) error {
		log.Info("shutting down redis server",
			"active_connections", redisServer.ActiveConnections())
		return redisServer.Shutdown(ctx)
	})

	if path := cfg.Server.Redis.UnixSocket; path != "" {
		perm, err := localserver.ParsePerm(cfg.Server.Redis.UnixSocketPerm)
		if err != nil {
			return abort(err)
		}
		ln, err := localserver.Listen(path, perm)
		if err != nil {
			return abort(fmt.Errorf("start unix socket server: %w", err))
		}

		// Same limits as TCP; local peers do not need TLS.
		unixConfig := *redisConfig
		unixConfig.Address = path
		unixConfig.TLS = nil
		unixServer := redisserver.New(&unixConfig, dispatcher, serverOpts...)
		unixServer.Serve(ctx, ln)
		onShutdown(func(ctx context.Context) error {
			log.Info("shutting down unix socket server",
				"active_connections", unixServer.ActiveConnections())
			return unixServer.Shutdown(ctx)
		})
	}

	if cfg.Server.Metrics.Addr != "" {
		httpServer := httpserver.New(cfg.Server.Metrics.Addr, httpserver.NewRouter(&httpserver.RouterConfig{
			Metrics: metrics.Handler(),
			Ready:   func() bool { return !latch.Fired() },
			Logger:  log,
		}), log)
		if err := httpServer.Start(); err != nil {
			return abort(fmt.Errorf("start metrics server: %w", err))
		}
		onShutdown(func(ctx context.Context) error {
			log.Info("shutting down metrics server")
			return httpServer.Shutdown(ctx)
		})
		log.Info("metrics server listening", "addr", httpServer.Addr().String())
	}

	if opts.ConfigFile != "" {
		watcher, err := watchConfig(opts.ConfigFile, opts.Flags, log)
		if err != nil {
			log.Warn("config watcher disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown(func(context.Context) error {
				return watcher.Stop()
			})
		}
	}

	shutdownHandler.OnShutdown(func(context.Context) error {
		reason := shutdownHandler.Reason()
		metrics.ShutdownInitiated(string(reason))
		log.Info("shutdown initiated", "reason", string(reason), "keys", store.Len())
		return nil
	})

	if opts.onReady != nil {
		opts.onReady(redisServer.Addr())
	}

	if err := shutdownHandler.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig loads configuration from defaults, file, environment and flags.
func loadConfig(configFile string, flags map[string]any) (*config.ServerConfig, error) {
	cfg := config.Default()

	loaderOpts := []confloader.Option{}
	if configFile != "" {
		loaderOpts = append(loaderOpts, confloader.WithConfigFile(configFile))
	}
	if len(flags) > 0 {
		loaderOpts = append(loaderOpts, confloader.WithFlags(flags))
	}

	loader := confloader.NewLoader(loaderOpts...)
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadTLS builds the listener TLS config. It returns nils when TLS is
// disabled. The key pair follows certificate rotation on disk.
func loadTLS(cfg config.TLSConfig, log *slog.Logger) (*tls.Config, *tlsroots.KeyPair, error) {
	if !cfg.Enabled() {
		return nil, nil, nil
	}

	keyPair, err := tlsroots.LoadKeyPair(cfg.CertFile, cfg.KeyFile, tlsroots.WithLogger(log))
	if err != nil {
		return nil, nil, err
	}

	var clientCAs *x509.CertPool
	if cfg.ClientCAFile != "" {
		clientCAs, err = tlsroots.LoadCAPool(cfg.ClientCAFile)
		if err != nil {
			return nil, nil, err
		}
	}

	if err := keyPair.Watch(); err != nil {
		log.Warn("certificate reload disabled", "error", err)
	}
	return tlsroots.ServerConfig(keyPair, clientCAs), keyPair, nil
}

// watchConfig reloads the log level when the config file changes. Other
// settings need a restart.
func watchConfig(configFile string, flags map[string]any, log *slog.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(configFile); err != nil {
		_ = watcher.Stop()
		return nil, err
	}

	watcher.OnChange(func(path string) {
		cfg, err := loadConfig(configFile, flags)
		if err != nil {
			log.Warn("config reload failed", "path", path, "error", err)
			return
		}
		previous := logger.GetLevel()
		if err := logger.SetLevel(cfg.Log.Level); err != nil {
			log.Warn("config reload failed", "path", path, "error", err)
			return
		}
		if current := logger.GetLevel(); current != previous {
			log.Info("log level changed", "from", previous, "to", current)
		}
	})
	watcher.StartAsync()
	return watcher, nil
}
