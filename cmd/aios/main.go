package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"aios/internal/action"
	"aios/internal/agent"
	"aios/internal/client"
	"aios/internal/config"
	"aios/internal/device"
	"aios/internal/history"
	"aios/internal/protocol"
	"aios/internal/provider"
	"aios/internal/server"
)

var (
	// Global flags
	configPath string
	socketPath string
	verbose    bool

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "aios",
	Short: "AIOS agent daemon and control client",
	Long: `The AIOS agent turns free-text requests into LLM completions or
deterministic local interpretations and executes the device actions they
embed. "serve" runs the daemon; the other subcommands talk to a running
daemon over its unix socket.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// serveCmd runs the agent daemon
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the agent daemon",
	Long: `Starts the agent request server on the configured unix socket and
serves chat, action, status and clear requests until interrupted.`,
	RunE: runServe,
}

var chatCmd = &cobra.Command{
	Use:   "chat [text]",
	Short: "Send a chat message to the running agent",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runChat,
}

var actionCmd = &cobra.Command{
	Use:   "action [json descriptor]",
	Short: "Execute a device action directly, bypassing the AI layer",
	Long: `Sends a raw action descriptor to the agent, e.g.:
  aios action '{"action": "brightness", "level": 80}'`,
	Args: cobra.ExactArgs(1),
	RunE: runAction,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Query daemon liveness and host information",
	RunE:  runStatus,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the shared conversation history",
	RunE:  runClear,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "/etc/aios/agent.yaml", "config file path")
	rootCmd.PersistentFlags().StringVarP(&socketPath, "socket", "s", "", "agent socket path (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(actionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(clearCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if socketPath != "" {
		cfg.Socket = socketPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The persistent logger is built before the config is read; honor the
	// configured level unless --verbose already forced debug.
	if !verbose {
		if level, err := zapcore.ParseLevel(cfg.Logging.Level); err == nil {
			zapCfg := zap.NewProductionConfig()
			zapCfg.Level = zap.NewAtomicLevelAt(level)
			if rebuilt, err := zapCfg.Build(); err == nil {
				logger = rebuilt
			}
		}
	}

	logger.Info("starting agent daemon",
		zap.String("socket", cfg.Socket),
		zap.String("provider", cfg.LLM.Provider),
		zap.Bool("ai_configured", cfg.AIConfigured()))

	llm, err := provider.New(cfg)
	if err != nil {
		return err
	}

	controller := device.NewLinuxController()
	dispatcher := action.NewDispatcher(controller, cfg.ConfirmDangerous, logger)
	store := history.NewStore(cfg.History.Capacity)

	var archive *history.Archive
	if cfg.Archive.Enabled {
		archive, err = history.OpenArchive(cfg.Archive.Path)
		if err != nil {
			return fmt.Errorf("failed to open conversation archive: %w", err)
		}
		defer archive.Close()
	}

	engine, err := agent.New(agent.Options{
		Provider:   llm,
		Controller: controller,
		Dispatcher: dispatcher,
		Store:      store,
		Archive:    archive,
		Timeout:    cfg.LLMTimeout(),
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	srv := server.New(cfg, engine, dispatcher, controller, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.Serve(ctx)
}

func newClient() (*client.Client, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	return client.New(cfg.Socket), cfg, nil
}

func printResult(prefix string, result *action.Result) {
	if result == nil {
		return
	}
	status := "ok"
	if !result.Success {
		status = "failed"
	}
	fmt.Printf("%s [%s] %s\n", prefix, status, result.Message)
	if result.Data != nil {
		if data, err := json.MarshalIndent(result.Data, "", "  "); err == nil {
			fmt.Println(string(data))
		}
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	c, _, err := newClient()
	if err != nil {
		return err
	}

	text := ""
	for i, arg := range args {
		if i > 0 {
			text += " "
		}
		text += arg
	}

	resp, err := c.Chat(cmd.Context(), text)
	if err != nil {
		return err
	}

	fmt.Println(resp.Response)
	printResult("action:", resp.ActionResult)
	return nil
}

func runAction(cmd *cobra.Command, args []string) error {
	c, _, err := newClient()
	if err != nil {
		return err
	}

	resp, err := c.Action(cmd.Context(), json.RawMessage(args[0]))
	if err != nil {
		return err
	}
	if resp.Status != protocol.StatusOK {
		return fmt.Errorf("agent error: %s", resp.Message)
	}

	printResult("result:", resp.Result)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	c, _, err := newClient()
	if err != nil {
		return err
	}

	resp, err := c.Status(cmd.Context())
	if err != nil {
		return err
	}

	running := resp.Running != nil && *resp.Running
	aiConfigured := resp.AIConfigured != nil && *resp.AIConfigured
	fmt.Printf("running:       %v\n", running)
	fmt.Printf("ai configured: %v\n", aiConfigured)
	if resp.System != nil {
		fmt.Printf("host:          %s (%s, %s)\n", resp.System.Hostname, resp.System.Kernel, resp.System.Arch)
		fmt.Printf("memory:        %d MB free of %d MB\n", resp.System.MemoryFreeMB, resp.System.MemoryMB)
	}
	return nil
}

func runClear(cmd *cobra.Command, args []string) error {
	c, _, err := newClient()
	if err != nil {
		return err
	}

	resp, err := c.Clear(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Println(resp.Message)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
