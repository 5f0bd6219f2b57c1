package command

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/yndnr/vftledger-go/internal/core/service"
	"github.com/yndnr/vftledger-go/internal/infra/buildinfo"
	"github.com/yndnr/vftledger-go/internal/infra/confloader"
	"github.com/yndnr/vftledger-go/internal/infra/shutdown"
	"github.com/yndnr/vftledger-go/internal/server/config"
	"github.com/yndnr/vftledger-go/internal/storage"
	"github.com/yndnr/vftledger-go/internal/telemetry/logger"
	"github.com/yndnr/vftledger-go/internal/telemetry/metric"
)

// ServeCommand keeps the ledger open for background work.
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run checkpoints, snapshots, shard growth and the metrics endpoint",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "shutdown-timeout",
				Usage: "Time allowed for the final checkpoint and cleanup",
				Value: shutdown.DefaultTimeout,
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	e := getEnv(c)
	ctx, stop := shutdown.WithSignals(e.commandContext(c, "serve"))
	defer stop()
	log := logger.L(ctx)

	metrics := metric.NewRegistry()
	session, err := e.open(ctx, metrics, service.WithMetrics(metrics))
	if err != nil {
		return err
	}
	metrics.Prometheus().MustRegister(metric.NewCollector(session.svc))

	handler := shutdown.NewHandler(c.Duration("shutdown-timeout"), log)
	handler.OnShutdown("storage", shutdown.Close(session.Close))

	log.Info("starting vftledger",
		"version", buildinfo.Get().Version,
		"data_dir", e.cfg.Storage.DataDir,
		"config", config.Sanitize(e.cfg))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		source := func() (storage.LedgerState, error) {
			return session.svc.State(context.WithoutCancel(gctx))
		}
		return session.engine.Run(gctx, source)
	})

	if e.cfg.Growth.Enabled {
		grower := service.NewGrower(session.svc, e.cfg.Grower())
		g.Go(func() error {
			return ignoreCanceled(grower.Run(gctx))
		})
	}

	if e.cfg.Metrics.Enabled {
		srv, ln, err := listenMetrics(e.cfg.Metrics.Addr, metrics)
		if err != nil {
			stop()
			g.Wait()
			return errors.Join(err, handler.Shutdown())
		}
		log.Info("metrics listening", "addr", ln.Addr().String())
		g.Go(func() error {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if path := c.String("config"); path != "" {
		watcher, err := watchConfig(path, log)
		if err != nil {
			log.Warn("config watcher disabled", "error", err)
		} else {
			handler.OnShutdown("watcher", shutdown.Close(watcher.Stop))
			g.Go(func() error { return watcher.Run(gctx) })
		}
	}

	runErr := g.Wait()
	if runErr != nil {
		log.Error("serve stopped with error", "error", runErr)
	}
	if err := handler.Shutdown(); err != nil {
		return errors.Join(runErr, err)
	}
	log.Info("vftledger stopped")
	return runErr
}

func listenMetrics(addr string, metrics *metric.Registry) (*http.Server, net.Listener, error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("metrics listen %s: %w", addr, err)
	}
	return &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}, ln, nil
}

// watchConfig reloads the log level when the configuration file changes.
func watchConfig(path string, log logger.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(path); err != nil {
		watcher.Stop()
		return nil, err
	}
	watcher.OnChange(func(string) {
		cfg := config.Default()
		if err := confloader.NewLoader(confloader.WithConfigFile(path)).Load(cfg); err != nil {
			log.Warn("config reload failed", "error", err)
			return
		}
		if !logger.ValidLevel(cfg.Log.Level) {
			log.Warn("config reload ignored invalid log level", "level", cfg.Log.Level)
			return
		}
		if cfg.Log.Level != logger.GetLevel() {
			logger.SetLevel(cfg.Log.Level)
			log.Info("log level changed", "level", cfg.Log.Level)
		}
	})
	return watcher, nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
