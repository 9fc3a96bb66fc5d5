package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zldap/agent/internal/config"
	"github.com/zldap/agent/internal/download"
	"github.com/zldap/agent/internal/executor"
	"github.com/zldap/agent/internal/heartbeat"
	"github.com/zldap/agent/internal/identity"
	"github.com/zldap/agent/internal/logging"
	"github.com/zldap/agent/internal/uninstall"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:          "zldap-agent",
	Short:        "ZLDAP software deployment agent",
	Long:         `ZLDAP Agent - polls the deployment backend and installs or removes software on this endpoint.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ZLDAP Agent %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", buildDate)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the agent",
	Long:  `Start the heartbeat loop and process install and uninstall tasks until terminated.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runAgent(ctx, cfg, logger)
	},
}

var identityCmd = &cobra.Command{
	Use:   "identity",
	Short: "Print the host identity reported to the backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		logger, err := logging.New(cfg.LogLevel, "console", "")
		if err != nil {
			return err
		}
		defer logger.Sync()

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(identity.New(logger).Resolve())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(identityCmd)

	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func runAgent(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("starting ZLDAP agent",
		zap.String("version", version),
		zap.String("backend", cfg.BackendURL),
	)

	client := heartbeat.NewHTTPClient(cfg)

	manager := heartbeat.New(
		cfg,
		client,
		identity.New(logger),
		download.New(afero.NewOsFs(), client, cfg.ScratchRoot(), logger),
		executor.NewBuilder(uninstall.New(logger), logger),
		executor.New(logger),
		logger,
	)

	return manager.Run(ctx)
}
