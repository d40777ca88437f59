package main

import (
	"fmt"

	"startercode/internal/catalog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var fetchOut string

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the catalog and save it as a snapshot file",
	Args:  cobra.NoArgs,
	RunE:  runFetch,
}

func init() {
	fetchCmd.Flags().StringVarP(&fetchOut, "out", "o", "", "Snapshot file to write (default output.snapshot_path)")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := fetchOut
	if out == "" {
		out = cfg.Output.SnapshotPath
	}

	if out == "" {
		return fmt.Errorf("no snapshot path: pass --out or set output.snapshot_path")
	}

	log := newLogger(cfg)

	datasets, err := newSource(cfg, log).Fetch(cmd.Context())
	if err != nil {
		return err
	}

	if err := catalog.SaveSnapshot(datasets, out); err != nil {
		return err
	}

	color.Green("\n✅ Saved %d datasets to %s", len(datasets), out)

	return nil
}
