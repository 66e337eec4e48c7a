package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"codeberg.org/mutker/thermlog/internal/collector"
	"codeberg.org/mutker/thermlog/internal/config"
	"codeberg.org/mutker/thermlog/internal/logger"
	"github.com/spf13/cobra"
)

var probesCmd = &cobra.Command{
	Use:   "probes",
	Short: "Detect attached probes and print one reading of each",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(cmd.Flags())
		if err != nil {
			return err
		}
		names, err := cmd.Flags().GetStringSlice("families")
		if err != nil {
			return err
		}
		families, err := collector.ValidateFamilies(names)
		if err != nil {
			return err
		}

		bus := newBus(cfg)
		detected, err := collector.Detect(bus, families, logger.Default())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "FAMILY\tPROBE\tCOLUMN\tREADING")
		for _, d := range detected {
			for _, id := range d.Probes {
				reading, err := bus.Sample(cmd.Context(), d.Family, id)
				value := reading.String()
				if err != nil {
					value = err.Error()
				}
				fmt.Fprintf(w, "%s\t%s\t%s_%s\t%s\n", d.Family, id, d.Family, id, value)
			}
		}

		return w.Flush()
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the resolved configuration, persisting any switch given",
	RunE: func(cmd *cobra.Command, _ []string) error {
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
		flags, err := config.Resolve(store, overrides)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		rows := [][2]any{
			{"config", cfg.ConfigFile},
			{"log", flags.Log},
			{"console", flags.Console},
			{"csv", flags.CSV},
			{"sqlite", flags.SQLite},
			{"textfile", flags.Textfile},
			{"data_dir", cfg.Collector.DataDir},
			{"csv_prefix", cfg.Collector.CSVPrefix},
			{"log_dir", cfg.Collector.LogDir},
			{"sqlite_path", cfg.Collector.SQLitePath},
			{"textfile_path", cfg.Collector.TextfilePath},
			{"pid_dir", cfg.Collector.PIDDir},
			{"poll_interval", cfg.Collector.PollInterval},
			{"export_interval", cfg.Collector.ExportInterval},
			{"reset_after_export", cfg.Collector.ResetAfterExport},
			{"log_level", cfg.Collector.LogLevel},
			{"w1_devices", cfg.OneWire.Devices},
		}
		for _, r := range rows {
			fmt.Fprintf(w, "%v\t%v\n", r[0], r[1])
		}

		return w.Flush()
	},
}
