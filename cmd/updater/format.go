package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"startercode/internal/formatter"
	"startercode/pkg/metadata"

	"github.com/spf13/cobra"
)

var formatWrite bool

var formatCmd = &cobra.Command{
	Use:   "format [path]",
	Short: "Align markdown tables in a file or directory",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFormat,
}

func init() {
	formatCmd.Flags().BoolVarP(&formatWrite, "write", "w", false, "Write changes to file (default: dry-run)")
	rootCmd.AddCommand(formatCmd)
}

func runFormat(_ *cobra.Command, args []string) error {
	target := "."
	if len(args) == 1 {
		target = args[0]
	}

	fmt.Printf("📂 Scanning path: %s\n", target)

	changed := 0

	err := filepath.WalkDir(target, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}

		did, err := formatFile(path)
		if did {
			changed++
		}

		return err
	})
	if err != nil {
		return err
	}

	fmt.Printf("✅ %d file(s) need formatting\n", changed)

	return nil
}

// formatFile aligns one file. Signed files are re-signed so the integrity
// block stays valid.
func formatFile(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("error reading %s: %w", path, err)
	}

	original := string(data)
	meta, clean := metadata.Extract(original)

	formatted := formatter.FormatMarkdown(clean)
	if formatted == clean {
		return false, nil
	}

	if meta != nil {
		formatted = metadata.Sign(formatted, metadata.Options{
			Validated: meta.Validation,
			Rows:      meta.Rows,
			Generator: meta.Generator,
		})
	} else {
		formatted += "\n"
	}

	fmt.Printf("  ✏️  %s\n", path)

	if !formatWrite {
		return true, nil
	}

	if err := os.WriteFile(path, []byte(formatted), 0644); err != nil {
		return true, fmt.Errorf("error writing %s: %w", path, err)
	}

	return true, nil
}
