package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"autoedu/internal/config"
	"autoedu/internal/logging"

	"github.com/spf13/cobra"
)

var (
	configPath string
	inputFile  string
	headless   bool
	resume     bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "autoedu",
	Short: "autoedu - UDISE+ student batch reconciliation",
	Long: `autoedu reconciles a local student batch against the UDISE+ portal.

It imports students into the logged-in school, resolves broken PENs through
the Aadhaar fallback search, files release requests for students active at
another school, and can bulk-correct section assignments. Every student in
the input ends up with exactly one remark and a Yes/No status in the report.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if cmd.Flags().Changed("headless") {
			cfg.Browser.Headless = headless
		}
		if cmd.Flags().Changed("resume") {
			cfg.Import.Resume = resume
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := logging.Initialize(cfg.Paths.LogsDir, cfg.Logging.Level); err != nil {
			return fmt.Errorf("initialize logging: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

var configCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Write a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("%s already exists", configPath)
		}
		if err := config.DefaultConfig().Save(configPath); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", configPath)
		return nil
	},
	// Config init must not require a loadable config.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "autoedu.yaml", "configuration file")
	rootCmd.PersistentFlags().BoolVar(&headless, "headless", false, "run the browser headless")
	rootCmd.PersistentFlags().BoolVar(&resume, "resume", false, "resume from the checkpoint database")
	rootCmd.PersistentFlags().StringVarP(&inputFile, "input", "i", "", "input batch file (.xlsx or .json)")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(sectionsCmd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
