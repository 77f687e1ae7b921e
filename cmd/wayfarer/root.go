package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/wayfarer/internal/cli"
	"github.com/aretw0/wayfarer/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "wayfarer",
	Short: "Wayfarer is a conversational trip planner",
	Long: `Wayfarer asks where, when and how you want to travel, searches for
transportation, lodging and activities, checks them against your budget and
writes a day-by-day plan.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Override log.level (debug, info, warn, error)")
}

// loadConfig reads --config and applies flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	return cfg, nil
}

// assemble loads the configuration and builds the planner.
func assemble(cmd *cobra.Command, opts ...cli.BuildOption) (*cli.Assembly, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return assembleFrom(cmd, cfg, opts...)
}

func assembleFrom(cmd *cobra.Command, cfg config.Config, opts ...cli.BuildOption) (*cli.Assembly, error) {
	return cli.Build(cmd.Context(), cfg, opts...)
}

// signalContext is cancelled on Ctrl+C or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
