// Package main runs the calendar scheduling service that the task workflow
// posts events to. It inserts each event into the authorized user's primary
// Google Calendar.
//
// Usage:
//
//	calendarapi              # serve POST /schedule on TASKQUEST_CALENDAR_API_PORT
//	calendarapi authorize    # run the one-time console authorization and exit
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/omriShneor/taskquest/internal/calendarapi"
	"github.com/omriShneor/taskquest/internal/config"
	"github.com/omriShneor/taskquest/internal/gcal"
	"github.com/omriShneor/taskquest/internal/logging"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := config.LoadFromEnv()

	cmd := &cobra.Command{
		Use:          "calendarapi",
		Short:        "Calendar scheduling service backed by Google Calendar",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cfg)
		},
	}
	cmd.Flags().IntVar(&cfg.CalendarAPIPort, "port", cfg.CalendarAPIPort, "port to listen on")

	cmd.AddCommand(&cobra.Command{
		Use:   "authorize",
		Short: "Authorize Google Calendar access from the console and save the token",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(cfg.LogLevel, cfg.DevMode)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			store, err := newCredentialStore(cfg, logger)
			if err != nil {
				return err
			}
			lease, err := store.Acquire(cmd.Context())
			if err != nil {
				return err
			}
			lease.Release()
			fmt.Printf("Token saved to %s\n", cfg.GoogleTokenFile)
			return nil
		},
	})

	return cmd
}

func newCredentialStore(cfg *config.Config, logger *zap.Logger) (*gcal.CredentialStore, error) {
	oauthConfig, err := gcal.LoadOAuthConfig(cfg.GoogleCredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("loading Google credentials: %w", err)
	}
	authorizer := gcal.ConsoleAuthorizer{In: os.Stdin, Out: os.Stdout}
	return gcal.NewCredentialStore(oauthConfig, cfg.GoogleTokenFile, authorizer, logger), nil
}

func serve(cfg *config.Config) error {
	logger, err := logging.New(cfg.LogLevel, cfg.DevMode)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	store, err := newCredentialStore(cfg, logger)
	if err != nil {
		return err
	}
	if !store.HasToken() {
		logger.Warn("no Google token yet; the first scheduled event will prompt for authorization on this console")
	}

	srv := calendarapi.New(calendarapi.Config{
		Events: gcal.NewClient(store),
		Port:   cfg.CalendarAPIPort,
		Logger: logger,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("calendar service: %w", err)
	case <-sigChan:
	}

	logger.Info("shutting down calendar service")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
