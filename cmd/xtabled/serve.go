package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/henderiw/xtable/internal/cfg"
	"github.com/henderiw/xtable/internal/logger"
	"github.com/henderiw/xtable/internal/server"
	"github.com/henderiw/xtable/pkg/objtable"
	"github.com/henderiw/xtable/pkg/testbuf"
)

const (
	serviceName     = "xtabled"
	shutdownTimeout = 10 * time.Second
)

var port uint16

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := cfg.Parse()
		if err != nil {
			return fmt.Errorf("error parsing config: %w", err)
		}
		if cmd.Flags().Changed("port") {
			config.Port = port
		}
		return run(cmd.Context(), config)
	},
}

func init() {
	serveCmd.Flags().Uint16VarP(&port, "port", "p", 0, "Port to listen on (overrides XTABLE_PORT)")
	rootCmd.AddCommand(serveCmd)
}

func run(ctx context.Context, config cfg.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	l, err := logger.NewLogger(ctx, logger.LoggerConfig{
		ServiceName:   serviceName,
		IsInternal:    !config.IsLocal(),
		IsDevelopment: config.IsLocal(),
		IsDebug:       config.Debug,
		InitialFields: []zap.Field{
			zap.String("environment", config.Environment),
		},
	})
	if err != nil {
		return err
	}
	defer l.Sync()

	objects := objtable.New(config.IDRange)
	sessions := testbuf.NewSessions(config.BufferLimit)
	defer func() {
		objects.Destroy()
		sessions.Clear()
		l.Info("registry torn down")
	}()

	srv := server.NewServer(ctx, config, l, objects, sessions)

	errCh := make(chan error, 1)
	go func() {
		l.Info("starting server",
			zap.String("addr", srv.Addr),
			logger.WithLimit(config.IDRange),
			zap.Uint64("id_space", config.IDRange.Size()),
			zap.Int("buffer_limit", config.BufferLimit),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	l.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	return nil
}
