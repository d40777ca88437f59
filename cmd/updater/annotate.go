package main

import (
	"fmt"

	"startercode/internal/annotate"
	"startercode/internal/pipeline"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var annotateApply bool

var annotateCmd = &cobra.Command{
	Use:   "annotate",
	Short: "Write launch badges to the catalog's resource descriptions",
	Long: `Renders the catalog in memory and, for every resource with a notebook,
sets a Colab and Binder badge line on the resource through resource_patch.
Nothing is sent unless --apply is given or annotate.dry_run is false.`,
	Args: cobra.NoArgs,
	RunE: runAnnotateCmd,
}

func init() {
	annotateCmd.Flags().BoolVar(&annotateApply, "apply", false, "Send the patches (overrides annotate.dry_run)")
	rootCmd.AddCommand(annotateCmd)
}

func runAnnotateCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if annotateApply {
		cfg.Annotate.DryRun = false
	}

	log := newLogger(cfg)

	p, err := pipeline.New(cfg, newSource(cfg, log), log)
	if err != nil {
		return err
	}

	res, err := p.Run(cmd.Context())
	if err != nil {
		return err
	}

	a := annotate.NewAnnotator(cfg, log)

	ar, err := a.Apply(cmd.Context(), a.Build(res.Rows))
	if err != nil {
		return err
	}

	printAnnotateResult(ar)

	if len(ar.Errors) > 0 {
		return fmt.Errorf("%d resources could not be annotated", len(ar.Errors))
	}

	return nil
}

func printAnnotateResult(ar *annotate.Result) {
	if ar.DryRun {
		color.Cyan("ℹ️  Dry run: %d resources would be annotated", ar.Skipped)

		return
	}

	color.Green("✅ Annotated %d resources", ar.Patched)

	for _, err := range ar.Errors {
		color.Red("❌ %v", err)
	}
}
