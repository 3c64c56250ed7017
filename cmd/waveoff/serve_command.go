package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/ayusman/waveoff/internal/app"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Accept frames on the /opencv websocket and track gestures per connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			logger, err := ctx.logger()
			if err != nil {
				return err
			}

			lockPath := cfg.Store.Path + ".lock"
			lock := flock.New(lockPath)
			ok, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire lock: %w", err)
			}
			if !ok {
				return errors.New("another waveoff server is already using " + cfg.Store.Path)
			}
			defer lock.Unlock()

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			application, err := app.New(cfg, app.Options{Logger: logger})
			if err != nil {
				return err
			}
			defer func() {
				if err := application.Close(); err != nil {
					logger.Warn("shutdown incomplete", "error", err)
				}
			}()

			if ctx.configSeen {
				logger.Info("configuration loaded", "path", ctx.configPath)
			} else {
				logger.Info("configuration file not found, using defaults", "path", ctx.configPath)
			}
			return application.Serve(signalCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides [server] addr)")
	return cmd
}
