package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/omriShneor/taskquest/internal/agent"
	"github.com/omriShneor/taskquest/internal/agent/tools"
	"github.com/omriShneor/taskquest/internal/calendar"
	"github.com/omriShneor/taskquest/internal/config"
	"github.com/omriShneor/taskquest/internal/database"
	"github.com/omriShneor/taskquest/internal/llm"
	"github.com/omriShneor/taskquest/internal/logging"
	"github.com/omriShneor/taskquest/internal/notify"
	"github.com/omriShneor/taskquest/internal/server"
)

var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := config.LoadFromEnv()

	cmd := &cobra.Command{
		Use:   "taskquest",
		Short: "TaskQuest - turn tasks into quests with XP and calendar events",
		Long: `TaskQuest breaks a task into subtasks, awards XP for each one and,
when the task mentions a date, puts it on your calendar.`,
		Version:      version,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&cfg.XPMode, "xp-mode", cfg.XPMode, "XP source: computed or narrative")

	cmd.AddCommand(newServeCommand(cfg))
	cmd.AddCommand(newRunCommand(cfg))

	return cmd
}

func newServeCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat page and JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cfg)
		},
	}
	cmd.Flags().IntVar(&cfg.HTTPPort, "port", cfg.HTTPPort, "port to listen on")
	return cmd
}

func newRunCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "run [task]",
		Short: "Run one task, or read tasks from stdin until 'exit'",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			workflow, err := initWorkflow(cfg, logger)
			if err != nil {
				return err
			}

			if len(args) > 0 {
				printRun(cmd.Context(), cmd.OutOrStdout(), workflow, strings.Join(args, " "))
				return nil
			}
			return repl(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), workflow)
		},
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(cfg.LogLevel, cfg.DevMode)
}

func initWorkflow(cfg *config.Config, logger *zap.Logger) (*agent.Agent, error) {
	if cfg.AnthropicAPIKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY is not set")
	}
	if cfg.CalendarEndpointURL == "" {
		return nil, errors.New("TASKQUEST_CALENDAR_ENDPOINT_URL is not set")
	}

	completer := llm.NewClient(cfg.AnthropicAPIKey, cfg.ClaudeModel, cfg.ClaudeTemperature)
	scheduler := calendar.NewClient(cfg.CalendarEndpointURL, cfg.Timezone, cfg.CalendarTimeout, logger.Named("calendar"))
	toolset := tools.NewToolset(completer, scheduler, scheduler.Location(), logger.Named("tools"))

	logger.Info("workflow configured",
		zap.String("model", cfg.ClaudeModel),
		zap.String("xp_mode", cfg.XPMode),
		zap.String("timezone", scheduler.Location().String()),
		zap.String("calendar_endpoint", cfg.CalendarEndpointURL))

	return agent.NewAgent(toolset, agent.Config{
		XPMode:  cfg.XPMode,
		Timeout: cfg.WorkflowTimeout,
		Logger:  logger.Named("agent"),
	}), nil
}

func initNotifyService(cfg *config.Config, logger *zap.Logger) *notify.Service {
	var emailNotifier notify.Notifier
	if resend := notify.NewResendNotifier(cfg.ResendAPIKey, cfg.EmailFrom); resend != nil {
		emailNotifier = resend
	}

	svc := notify.NewService(emailNotifier, cfg.NotifyEmail, logger.Named("notify"))
	if svc.IsEmailAvailable() {
		logger.Info("email notification service configured (Resend)")
	}
	return svc
}

func serve(cfg *config.Config) error {
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	workflow, err := initWorkflow(cfg, logger)
	if err != nil {
		return err
	}

	db, err := database.New(cfg.DBPath, logger.Named("db"))
	if err != nil {
		return fmt.Errorf("creating database: %w", err)
	}
	defer db.Close()

	srv := server.New(server.ServerConfig{
		DB:            db,
		Workflow:      workflow,
		NotifyService: initNotifyService(cfg, logger),
		Logger:        logger.Named("server"),
		Port:          cfg.HTTPPort,
		DevMode:       cfg.DevMode,
		WriteTimeout:  cfg.WorkflowTimeout + 30*time.Second,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	return waitForShutdown(srv, errCh, logger)
}

func waitForShutdown(srv *server.Server, errCh <-chan error, logger *zap.Logger) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-sigChan:
	}

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func repl(ctx context.Context, in io.Reader, out io.Writer, workflow server.Workflow) error {
	fmt.Fprintln(out, "Enter a task (or 'exit' to quit):")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		task := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(task) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		printRun(ctx, out, workflow, task)
	}
}

func printRun(ctx context.Context, out io.Writer, workflow server.Workflow, task string) {
	summary, err := workflow.Run(ctx, agent.TaskRequest{RawText: task})
	if err != nil {
		fmt.Fprintln(out, agent.GenericFailureMessage)
		return
	}
	fmt.Fprintln(out, summary.Render())
	fmt.Fprintln(out)
}
