package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"civic_horizon/generator"
	"civic_horizon/server"
)

func serveCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the vision API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if addr != "" {
				cfg.Server.Addr = addr
			}
			ctx := cmd.Context()

			llm, err := buildLLM(ctx, cfg.LLM)
			if err != nil {
				return err
			}
			images, err := buildImages(ctx, cfg.Image)
			if err != nil {
				return err
			}
			agent, err := generator.NewAgent(llm, images)
			if err != nil {
				return err
			}
			agent.WithLogger(a.log)

			mail, err := buildMailer(cfg.Email, a.log)
			if err != nil {
				return err
			}
			srv, err := server.New(agent, mail, a.log, server.Options{
				RequestTimeout: cfg.Server.RequestTimeout,
				MaxBodyBytes:   cfg.Server.MaxBodyBytes,
			})
			if err != nil {
				return err
			}

			httpSrv := &http.Server{
				Addr:         cfg.Server.Addr,
				Handler:      srv.Routes(),
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
				IdleTimeout:  cfg.Server.IdleTimeout,
			}

			serverErrors := make(chan error, 1)
			go func() {
				a.log.Info().
					Str("addr", cfg.Server.Addr).
					Str("llm", cfg.LLM.Provider).
					Str("image", cfg.Image.Provider).
					Str("email", cfg.Email.Provider).
					Msg("vision server listening")
				serverErrors <- httpSrv.ListenAndServe()
			}()

			shutdown := make(chan os.Signal, 1)
			signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(shutdown)

			var runErr error
			select {
			case err := <-serverErrors:
				if !errors.Is(err, http.ErrServerClosed) {
					runErr = err
				}
			case sig := <-shutdown:
				a.log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
			defer cancel()
			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				a.log.Error().Err(err).Msg("graceful shutdown failed")
				if err := httpSrv.Close(); err != nil {
					a.log.Error().Err(err).Msg("forced shutdown failed")
				}
			}
			a.log.Info().Msg("server stopped")
			return runErr
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
