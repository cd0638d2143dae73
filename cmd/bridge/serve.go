package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"flowise-telegram-bridge/internal/adapter/flowise"
	"flowise-telegram-bridge/internal/adapter/memory"
	"flowise-telegram-bridge/internal/adapter/openai"
	"flowise-telegram-bridge/internal/adapter/telegram"
	"flowise-telegram-bridge/internal/config"
	"flowise-telegram-bridge/internal/logutil"
	"flowise-telegram-bridge/internal/server"
	"flowise-telegram-bridge/internal/usecase/relay"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logutil.LoggerFromViper()
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			backend, err := newBackend(cfg)
			if err != nil {
				return err
			}

			history := memory.NewHistoryStore()
			rate := memory.NewRateGate(cfg.MinInterval, cfg.StaleAfter)
			sender := telegram.NewClient(cfg.TelegramAPIBase, cfg.TelegramToken, cfg.SendTimeout)
			svc := relay.NewService(history, rate, backend, sender, cfg, logger)

			ctx, stop := signal.NotifyContext(context.Background(),
				syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			go sweepLoop(ctx, rate, cfg.SweepInterval, logger)

			addr := net.JoinHostPort(cfg.Bind, strconv.Itoa(cfg.Port))
			srv := &http.Server{
				Addr:              addr,
				Handler:           server.New(svc, backendConfigured(cfg), logger).Handler(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.ListenAndServe()
			}()
			logger.Info("server_start", "addr", addr, "backend", cfg.BackendKind)

			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	cmd.Flags().String("server-bind", "", "Bind address (default 0.0.0.0).")
	cmd.Flags().Int("server-port", 0, "Listen port (default 8080).")
	_ = viper.BindPFlag("server.bind", cmd.Flags().Lookup("server-bind"))
	_ = viper.BindPFlag("server.port", cmd.Flags().Lookup("server-port"))

	return cmd
}

func newBackend(cfg config.Config) (relay.Backend, error) {
	switch cfg.BackendKind {
	case config.BackendFlowise:
		return flowise.NewClient(cfg.FlowiseURL, cfg.FlowiseAPIKey, cfg.RequestTimeout), nil
	case config.BackendOpenAI:
		return openai.NewClient(cfg.OpenAIKey, cfg.OpenAIModel, cfg.RequestTimeout), nil
	default:
		return nil, fmt.Errorf("unknown backend kind: %s", cfg.BackendKind)
	}
}

func backendConfigured(cfg config.Config) bool {
	switch cfg.BackendKind {
	case config.BackendFlowise:
		return cfg.FlowiseURL != ""
	case config.BackendOpenAI:
		return cfg.OpenAIKey != ""
	default:
		return false
	}
}

// sweepLoop periodically evicts stale rate-limiter entries so the last-seen
// map stays bounded over the life of the process.
func sweepLoop(ctx context.Context, rate *memory.RateGate, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if removed := rate.Sweep(now); removed > 0 {
				logger.Debug("rate_sweep", "removed", removed)
			}
		}
	}
}
