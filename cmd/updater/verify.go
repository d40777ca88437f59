package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"startercode/internal/validator"
	"startercode/pkg/metadata"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var errVerifyFailed = errors.New("verification failed")

var verifyCmd = &cobra.Command{
	Use:   "verify [overview.md]",
	Short: "Check the overview table and its integrity block",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runVerify,
}

var signCmd = &cobra.Command{
	Use:   "sign [overview.md]",
	Short: "Validate the overview table and rewrite its integrity block",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSign,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(signCmd)
}

func overviewPath(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}

	return filepath.Join(cfg.Output.WorkDir, cfg.Overview.FileName), nil
}

func runVerify(_ *cobra.Command, args []string) error {
	path, err := overviewPath(args)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}

	fmt.Printf("📂 Reading: %s (%d bytes)\n", path, len(data))

	v := validator.NewMarkdownValidator()

	table := v.ValidateOverview(string(data), -1)
	table.PrintErrors(os.Stdout)

	integrity := v.ValidateIntegrity(string(data))
	integrity.PrintErrors(os.Stdout)
	integrity.PrintWarnings(os.Stdout)

	if !table.IsValid || !integrity.IsValid {
		return errVerifyFailed
	}

	if integrity.Stats.TotalRows != table.Stats.TotalRows {
		return fmt.Errorf("%w: signed for %d rows, table has %d", errVerifyFailed, integrity.Stats.TotalRows, table.Stats.TotalRows)
	}

	color.Green("✅ %d rows, integrity intact", table.Stats.TotalRows)

	return nil
}

func runSign(_ *cobra.Command, args []string) error {
	path, err := overviewPath(args)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}

	result := validator.NewMarkdownValidator().ValidateOverview(string(data), -1)
	if !result.IsValid {
		result.PrintErrors(os.Stdout)
		color.Yellow("⚠️  Signing as unvalidated")
	}

	signed := metadata.Sign(string(data), metadata.Options{
		Validated: result.IsValid,
		Rows:      result.Stats.TotalRows,
		Generator: "updater sign",
	})

	if err := os.WriteFile(path, []byte(signed), 0644); err != nil {
		return fmt.Errorf("error writing file: %w", err)
	}

	color.Green("✅ Signed and saved to: %s", path)

	return nil
}
