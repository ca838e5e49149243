package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jobtrail/jobtrail/internal/classify"
	"github.com/jobtrail/jobtrail/internal/config"
	"github.com/jobtrail/jobtrail/internal/genai"
	"github.com/jobtrail/jobtrail/internal/mail"
	"github.com/jobtrail/jobtrail/internal/notify"
	"github.com/jobtrail/jobtrail/internal/record"
	"github.com/jobtrail/jobtrail/internal/store"
	jobsync "github.com/jobtrail/jobtrail/internal/sync"
	"github.com/jobtrail/jobtrail/internal/web"
)

var cfgFile string

func resolveConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "jobtrail",
		Short: "JobTrail - Track job applications from your inbox",
		Long: `JobTrail mines your Gmail inbox for job-application email and turns it
into a structured application tracker.

Each matching message is classified into company, role and application
status, deduplicated across sync passes, and kept up to date as new
mail arrives.`,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.jobtrail/config.yaml)")

	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(statusCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration interactively",
		Long:  "Create a new configuration file and authorize access to your Gmail account.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd.Context())
		},
	}
}

func syncCmd() *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync pass against the mailbox",
		Long: `Fetch and classify job-application email, then merge the results into
the local database. The first run sweeps the whole mailbox; later runs
only fetch messages received since the last successful pass.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), full)
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "Force a full mailbox sweep")

	return cmd
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Poll the mailbox continuously",
		Long: `Run sync passes on the configured interval until interrupted. When
notifications are enabled, a digest email is sent whenever applications
are added or change status.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context())
		},
	}
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the JobTrail API server.

Endpoints:
  GET  /classify              full mailbox sweep, returns all records
  POST /classify/incremental  classify mail received after lastFetchTime
  GET  /applications          the stored record set, no mailbox access
  GET  /healthz               liveness probe

All endpoints except /healthz require the configured bearer token.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on (default from config)")

	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show tracked application statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}
}

func runInit(ctx context.Context) error {
	configPath := resolveConfigPath()
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config already exists at %s; edit it directly or remove it first", configPath)
	}

	reader := bufio.NewReader(os.Stdin)
	cfg := &config.Config{}

	fmt.Println("JobTrail setup")
	fmt.Println()

	cfg.Gmail.CredentialsFile = prompt(reader, "Path to Gmail OAuth credentials.json")
	if p := prompt(reader, "Server port [8080]"); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("invalid port %q", p)
		}
		cfg.Server.Port = port
	}

	token := prompt(reader, "API bearer token (blank to generate one)")
	if token == "" {
		buf := make([]byte, 24)
		if _, err := rand.Read(buf); err != nil {
			return fmt.Errorf("failed to generate token: %w", err)
		}
		token = hex.EncodeToString(buf)
		fmt.Printf("Generated token: %s\n", token)
	}
	cfg.Server.AuthToken = token

	if key := prompt(reader, "AI API key (blank to use heuristics only)"); key != "" {
		cfg.AI.Enabled = true
		cfg.AI.APIKey = key
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := config.Save(configPath, cfg); err != nil {
		return err
	}
	fmt.Printf("Config written to %s\n", configPath)

	fmt.Println("\nAuthorizing Gmail access...")
	if err := mail.Authorize(ctx, cfg.Gmail.CredentialsFile, cfg.Gmail.TokenFile); err != nil {
		return fmt.Errorf("gmail authorization failed: %w", err)
	}
	fmt.Println("Done. Run 'jobtrail sync' to import your applications.")
	return nil
}

func runSync(ctx context.Context, full bool) error {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	engine, cleanup, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	st, err := store.NewStore(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	existing, watermark, err := st.Load()
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}

	var result *jobsync.Result
	if full || watermark.IsZero() {
		fmt.Println("Running full mailbox sweep...")
		result, err = engine.FullSync(ctx)
	} else {
		fmt.Printf("Syncing mail received after %s...\n", watermark.Format(time.RFC3339))
		result, err = engine.IncrementalSync(ctx, watermark, existing)
	}
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	if err := st.Save(result.Records, result.Watermark); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}

	fmt.Printf("Classified %d message(s); tracking %d application(s)\n", len(result.New), len(result.Records))
	return nil
}

func runWatch(ctx context.Context) error {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine, cleanup, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	st, err := store.NewStore(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	var notifier jobsync.Notifier
	if cfg.Notify.Enabled {
		n, err := notify.NewNotifier(cfg.Notify)
		if err != nil {
			return fmt.Errorf("failed to configure notifications: %w", err)
		}
		notifier = n
	}

	interval := time.Duration(cfg.Sync.PollIntervalSec) * time.Second
	fmt.Printf("Watching mailbox every %s. Press Ctrl+C to stop.\n", interval)

	watcher := jobsync.NewWatcher(engine, st, notifier, interval)
	if err := watcher.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

func runServe(port int) error {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if port == 0 {
		port = cfg.Server.Port
	}

	ctx := context.Background()
	engine, cleanup, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	st, err := store.NewStore(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	server := web.NewServer(port, cfg.Server.AuthToken, engine, st)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	return server.Start()
}

func runStatus() error {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return err
	}

	st, err := store.NewStore(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	set, watermark, err := st.Load()
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}
	counts, err := st.CountByStatus()
	if err != nil {
		return fmt.Errorf("failed to count applications: %w", err)
	}

	fmt.Println("JobTrail")
	fmt.Println("----------------------------------------")
	fmt.Printf("Tracked applications: %d\n", len(set))
	if watermark.IsZero() {
		fmt.Println("Last sync: never")
	} else {
		fmt.Printf("Last sync: %s\n", watermark.Format(time.RFC3339))
	}
	fmt.Println()
	statuses := []record.Status{
		record.StatusApplied,
		record.StatusReceived,
		record.StatusInterview,
		record.StatusOffer,
		record.StatusRejected,
	}
	for _, status := range statuses {
		fmt.Printf("  %-22s %d\n", status, counts[status])
	}
	return nil
}

// buildEngine wires the Gmail provider and classifier into a sync engine.
// The returned cleanup is a no-op today but keeps the call sites stable.
func buildEngine(ctx context.Context, cfg *config.Config) (*jobsync.Engine, func(), error) {
	provider, err := mail.NewGmailClient(ctx, cfg.Gmail.CredentialsFile, cfg.Gmail.TokenFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to Gmail: %w", err)
	}

	var gen classify.TextGenerator
	if cfg.AI.Enabled {
		gen = genai.NewClient(cfg.AI.APIKey, cfg.AI.Model, cfg.AI.BaseURL, time.Duration(cfg.AI.TimeoutSec)*time.Second)
	}

	classifier := classify.New(gen)
	return jobsync.NewEngine(provider, classifier, cfg.Sync.Workers), func() {}, nil
}

func prompt(reader *bufio.Reader, message string) string {
	fmt.Printf("%s: ", message)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}
