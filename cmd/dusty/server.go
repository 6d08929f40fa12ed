package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/dustybot/dusty/internal/api"
	"github.com/dustybot/dusty/internal/chores"
	"github.com/dustybot/dusty/internal/config"
	"github.com/dustybot/dusty/internal/convo"
	"github.com/dustybot/dusty/internal/interpret"
	"github.com/dustybot/dusty/internal/lexicon"
	"github.com/dustybot/dusty/internal/people"
	"github.com/dustybot/dusty/internal/remind"
	"github.com/dustybot/dusty/internal/storage"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the dusty server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running dusty server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show dusty system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "dusty.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "dusty version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize structured logging.
	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	// Write PID file. Check if server is already running via health endpoint.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("dusty is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("dusty is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open storage.
	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	if err := seedUsers(store); err != nil {
		return fmt.Errorf("seeding users: %w", err)
	}

	loc, err := time.LoadLocation(cfg.Interpreter.Timezone)
	if err != nil {
		return fmt.Errorf("loading timezone %q: %w", cfg.Interpreter.Timezone, err)
	}
	clock := func() time.Time { return time.Now().In(loc) }

	// Build the interpreter pipeline.
	aliases := store.Aliases()
	surfaces := make([]string, 0, len(aliases))
	for surface := range aliases {
		surfaces = append(surfaces, surface)
	}
	tagger := lexicon.NewTagger(surfaces)
	resolver := people.NewResolver(store, cfg.Interpreter.FuzzyThreshold)
	convoStore := convo.NewStore(cfg.Interpreter.ContextTTL, clock)
	interpreter := interpret.New(tagger, resolver, convoStore, clock)

	// Outbound SMS. Without Twilio credentials, messages go to the log.
	var sender chores.Sender
	if cfg.Twilio.AccountSID != "" {
		sender = &chores.TwilioSender{
			AccountSID: cfg.Twilio.AccountSID,
			AuthToken:  cfg.Twilio.AuthToken,
			From:       cfg.Twilio.FromNumber,
			HTTPClient: &http.Client{Timeout: 15 * time.Second},
		}
		slog.Info("outbound SMS via Twilio", "from", cfg.Twilio.FromNumber)
	} else {
		sender = &chores.LogSender{}
		slog.Info("no Twilio credentials, outbound messages will be logged")
	}

	executor := chores.NewExecutor(store, convoStore, chores.PlainReplier{}, sender, clock)

	// Compose top-level router: public webhook + authed admin surface.
	webhookHandler := api.NewWebhookHandler(api.WebhookDeps{
		Users:       store,
		Interpreter: interpreter,
		Executor:    executor,
	})
	adminHandler := api.NewAdminHandler(api.AdminDeps{
		Store: store,
		Token: cfg.API.Token,
	})

	topRouter := chi.NewRouter()
	topRouter.Mount("/", webhookHandler)
	topRouter.Mount("/api", adminHandler)

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: topRouter,
	}

	// Start reminder worker.
	worker := remind.NewWorker(store, sender, cfg.Reminder.PollInterval, cfg.Reminder.LeadTime, clock)
	go worker.Run(ctx)

	// Build and start MCP server (stdio transport in a goroutine).
	mcpSrv := api.NewMCPServer(api.MCPDeps{
		Store:       store,
		Interpreter: interpreter,
		Executor:    executor,
	})
	stdioSrv := server.NewStdioServer(mcpSrv)
	go func() {
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("MCP stdio server error", "error", err)
		}
	}()
	slog.Info("MCP server started (stdio transport)")

	// Start server in a goroutine.
	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "dusty listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for signal or server error.
	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Graceful shutdown with timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// seedUsers registers household members from DUSTY_USER_<NAME> environment
// variables. The value is "phone[,alias...][,admin]", e.g.
// DUSTY_USER_BECKY="+15551234567,becks,admin".
func seedUsers(store *storage.Store) error {
	const prefix = "DUSTY_USER_"
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, prefix) || value == "" {
			continue
		}
		name := strings.ToLower(strings.TrimPrefix(key, prefix))

		if _, err := store.GetUserByName(name); err == nil {
			continue
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}

		parts := strings.Split(value, ",")
		user := storage.User{
			Name:  name,
			Phone: strings.TrimSpace(parts[0]),
		}
		var aliases []string
		for _, p := range parts[1:] {
			p = strings.ToLower(strings.TrimSpace(p))
			if p == "admin" {
				user.Admin = true
				continue
			}
			if p != "" {
				aliases = append(aliases, p)
			}
		}
		user.Aliases = strings.Join(aliases, ",")

		if _, err := store.CreateUser(user); err != nil {
			return fmt.Errorf("creating user %q: %w", name, err)
		}
		slog.Info("registered household member", "name", name, "admin", user.Admin)
	}
	return nil
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("dusty is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop dusty (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to dusty (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(serverURL + "/health")
	running := false
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == 200 {
			running = true
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	if cfg.Twilio.AccountSID != "" {
		printStatus("Outbound SMS", "Twilio (%s)", cfg.Twilio.FromNumber)
	} else {
		printStatus("Outbound SMS", "log only")
	}

	if running {
		apiClient := newAPIClient(cfg)
		if users, err := apiClient.listUsers(context.Background()); err == nil {
			printStatus("Members", "%d", len(users))
		}
		if open, err := apiClient.listChores(context.Background(), "", false); err == nil {
			printStatus("Open chores", "%d", len(open))
		}
	}

	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}
