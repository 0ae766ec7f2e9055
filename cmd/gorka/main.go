package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/gork-labs/gorka-sub004/adapter"
	"github.com/gork-labs/gorka-sub004/config"
	"github.com/gork-labs/gorka-sub004/core"
	"github.com/gork-labs/gorka-sub004/logging"
	"github.com/gork-labs/gorka-sub004/model"
	anthropicmodel "github.com/gork-labs/gorka-sub004/model/anthropic"
	openaimodel "github.com/gork-labs/gorka-sub004/model/openai"
	"github.com/gork-labs/gorka-sub004/session"
	"github.com/gork-labs/gorka-sub004/spawner"
	"github.com/gork-labs/gorka-sub004/tools"
)

const version = "1.0.0"

var (
	flagConfig  string
	flagVerbose bool
	flagModel   string
	flagPersona string
	flagSystem  string
	flagContext string
	flagMaxAge  time.Duration
)

func newLogger(component string) *logging.OrchestratorLogger {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	return logging.New(&logging.Config{
		Level:     level,
		Format:    "text",
		Output:    os.Stderr,
		Component: component,
	})
}

func main() {
	root := &cobra.Command{
		Use:     "gorka",
		Short:   "gorka - bounded sub-agent orchestrator",
		Long:    "gorka delegates bounded units of work to specialized sub-agent personas,\nenforcing call, depth and parallelism budgets on every delegation.",
		Version: version,
	}
	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Path to YAML config file")
	root.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")

	runCmd := &cobra.Command{
		Use:   "run [prompt]",
		Short: "Spawn one sub-agent session and run it to completion",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runRun,
	}
	runCmd.Flags().StringVarP(&flagModel, "model", "m", "", "Model identifier (overrides config)")
	runCmd.Flags().StringVarP(&flagPersona, "persona", "p", "assistant", "Persona identity for the session")
	runCmd.Flags().StringVarP(&flagSystem, "system", "s", "You are a helpful assistant.", "System prompt handed to the persona")
	runCmd.Flags().StringVar(&flagContext, "context", "subagent", "Tool visibility context: main|subagent")
	root.AddCommand(runCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete sessions older than the configured inactivity age",
		RunE:  runSweep,
	}
	sweepCmd.Flags().DurationVar(&flagMaxAge, "max-age", 0, "Override the configured session TTL")
	root.AddCommand(sweepCmd)

	toolsCmd := &cobra.Command{
		Use:   "tools",
		Short: "List discovered tools per server with safety classification",
		RunE:  runTools,
	}
	toolsCmd.Flags().StringVar(&flagContext, "context", "subagent", "Tool visibility context: main|subagent")
	root.AddCommand(toolsCmd)

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the persisted session population",
		RunE:  runStats,
	}
	root.AddCommand(statsCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx, cancel
}

// newClient selects the provider by model identifier prefix. The model itself
// travels on every request, so the client only needs provider defaults.
func newClient(modelID string) model.Client {
	if strings.HasPrefix(strings.ToLower(modelID), "claude") {
		return anthropicmodel.NewClient()
	}
	return openaimodel.NewClient()
}

func newStore(cfg *config.Config) (session.Store, error) {
	if cfg.Sessions == "" {
		return session.NewMemoryStore(), nil
	}
	return session.NewFileStore(cfg.Sessions)
}

func buildRegistry(ctx context.Context, cfg *config.Config, logger logging.Logger) (*tools.Registry, error) {
	registry := tools.NewRegistry(func(o *tools.RegistryOptions) {
		o.Workspace = cfg.Workspace
		o.ExtraDirs = cfg.ExtraDirs
		o.Logger = logger
	})
	if err := registry.Refresh(ctx, cfg.Servers); err != nil {
		return nil, err
	}
	return registry, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagModel != "" {
		cfg.Model = flagModel
	}

	prompt := ""
	if len(args) > 0 {
		prompt = args[0]
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("error reading prompt from stdin: %w", err)
		}
		prompt = strings.TrimSpace(string(data))
	}
	if prompt == "" {
		return fmt.Errorf("no prompt provided")
	}

	reqContext := core.Context(flagContext)
	if reqContext != core.ContextMain && reqContext != core.ContextSubagent {
		return fmt.Errorf("invalid context %q: expected main or subagent", flagContext)
	}

	logger := newLogger("gorka")

	store, err := newStore(cfg)
	if err != nil {
		return err
	}
	sessions := session.NewManager(store, session.Budgets{
		MaxCalls:       cfg.Budgets.MaxCalls,
		MaxRefinements: cfg.Budgets.MaxRefinements,
		MaxDepth:       cfg.Budgets.MaxDepth,
	}, func(o *session.ManagerOptions) {
		o.Logger = logger
	})

	registry, err := buildRegistry(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer registry.Close()

	proxy := tools.NewProxy(registry, func(o *tools.ProxyOptions) {
		o.Logger = logger
	})

	sp := spawner.New(sessions, registry, proxy, newClient(cfg.Model), func(o *spawner.Options) {
		o.Adapters = adapter.NewDefaultRegistry()
		o.RequestTimeout = cfg.Budgets.RequestTimeout
		o.MaxParallel = cfg.Budgets.MaxParallel
		o.Logger = logger
	})

	start := time.Now()
	result, err := sp.Spawn(ctx, spawner.Request{
		Persona: core.Persona{ID: flagPersona, SystemPrompt: flagSystem},
		Prompt:  prompt,
		Model:   cfg.Model,
		Context: reqContext,
	})

	sessionID, calls := "", 0
	if result != nil {
		sessionID, calls = result.SessionID, result.CallCount
	}
	logger.LogSpawn(flagPersona, sessionID, calls, time.Since(start), err)
	if err != nil {
		return err
	}

	fmt.Printf("Session:  %s\n", result.SessionID)
	fmt.Printf("State:    %s\n", result.State)
	fmt.Printf("Calls:    %d\n", result.CallCount)
	fmt.Printf("Duration: %v\n\n", time.Since(start).Round(time.Millisecond))
	if result.FinalText != "" {
		fmt.Println(result.FinalText)
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	maxAge := cfg.Budgets.SessionTTL
	if flagMaxAge > 0 {
		maxAge = flagMaxAge
	}

	store, err := newStore(cfg)
	if err != nil {
		return err
	}
	sessions := session.NewManager(store, session.Budgets{})

	removed, err := sessions.Sweep(maxAge)
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d session(s) older than %v\n", removed, maxAge)
	return nil
}

func runTools(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	reqContext := core.Context(flagContext)
	if reqContext != core.ContextMain && reqContext != core.ContextSubagent {
		return fmt.Errorf("invalid context %q: expected main or subagent", flagContext)
	}

	logger := newLogger("tools")
	registry, err := buildRegistry(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer registry.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SERVER\tTOOL\tSAFE\tCONTEXT\tDESCRIPTION")
	for _, t := range registry.ToolsFor(reqContext) {
		desc := t.Description
		if len(desc) > 60 {
			desc = desc[:57] + "..."
		}
		fmt.Fprintf(w, "%s\t%s\t%v\t%s\t%s\n", t.ServerID, t.Name, t.Safe, t.Context, desc)
	}
	return w.Flush()
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	store, err := newStore(cfg)
	if err != nil {
		return err
	}
	sessions := session.NewManager(store, session.Budgets{})

	stats, err := sessions.Stats()
	if err != nil {
		return err
	}
	fmt.Printf("Total:     %d\n", stats.Total)
	fmt.Printf("Active:    %d\n", stats.Active)
	fmt.Printf("Completed: %d\n", stats.Completed)
	return nil
}
