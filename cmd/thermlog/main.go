// Thermlog samples 1-Wire temperature probes and exports the readings to
// CSV, SQLite and a Prometheus textfile.
//
// Usage:
//
//	thermlog [run] [--families DS18B20] [--csv] [--log] [--console] [flags]
//	thermlog probes
//	thermlog config
//
// Switches given on the command line are persisted in the configuration
// file and become the defaults of later runs.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"codeberg.org/mutker/thermlog/internal/collector"
	"codeberg.org/mutker/thermlog/internal/config"
	"codeberg.org/mutker/thermlog/internal/logger"
	"codeberg.org/mutker/thermlog/internal/onewire"
	"codeberg.org/mutker/thermlog/internal/pid"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "thermlog",
	Short:         "1-Wire temperature collector",
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runCollector,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Sample probes and export readings until interrupted",
	RunE:  runCollector,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	config.BindFlags(flags)
	config.BindSwitches(flags)
	flags.StringSlice("families", []string{string(onewire.FamilyDS18B20)}, "Probe families to sample")

	rootCmd.AddCommand(runCmd, probesCmd, configCmd)
}

func runCollector(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	store, err := config.OpenStore(cfg.ConfigFile)
	if err != nil {
		return err
	}
	overrides, err := config.OverridesFromFlags(cmd.Flags())
	if err != nil {
		return err
	}
	families, err := cmd.Flags().GetStringSlice("families")
	if err != nil {
		return err
	}

	bus := newBus(cfg)
	c, err := collector.New(collector.Options{
		Families:  families,
		Overrides: overrides,
		Config:    cfg,
		Store:     store,
		Detector:  bus,
		Sampler:   bus,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close collector")
		}
	}()

	if err := pid.Write(cfg.Collector.PIDDir); err != nil {
		return err
	}
	// Runs before Close, while the log file is still open.
	defer removePID(cfg.Collector.PIDDir)

	if err := c.Setup(); err != nil {
		logger.Error().Err(err).Str("state", c.State().String()).Msg("Startup failed")
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	return c.Run(ctx)
}

func removePID(dir string) {
	if err := pid.Remove(dir); err != nil {
		logger.Error().Err(err).Msg("Failed to remove PID file")
	}
}

func newBus(cfg *config.Config) *onewire.Sysfs {
	return onewire.NewSysfs(onewire.Config{
		BootConfig: cfg.OneWire.BootConfig,
		Modules:    cfg.OneWire.Modules,
		Devices:    cfg.OneWire.Devices,
	}, logger.Default().With("onewire"))
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}
