package main

import (
	"errors"
	"fmt"

	"startercode/internal/annotate"
	"startercode/internal/normalizer"
	"startercode/internal/pipeline"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	runNoWrite  bool
	runAnnotate bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch the catalog, render starter code and write the overview",
	Long: `Runs the full update: fetch, normalize, classify, order and key the
resources, render every template family, build the overview and README, and
write the tree below output.work_dir.`,
	Args: cobra.NoArgs,
	RunE: runUpdate,
}

func init() {
	runCmd.Flags().BoolVar(&runNoWrite, "no-write", false, "Render in memory only")
	runCmd.Flags().BoolVar(&runAnnotate, "annotate", false, "Annotate catalog resources after writing (see annotate.dry_run)")
	rootCmd.AddCommand(runCmd)
}

func runUpdate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := newLogger(cfg)

	var opts []pipeline.Option
	if cfg.Logging.ShowProgress {
		opts = append(opts, pipeline.WithObserver(&barObserver{}))
	}

	p, err := pipeline.New(cfg, newSource(cfg, log), log, opts...)
	if err != nil {
		return err
	}

	color.Blue("🚀 Updating starter code for %s", cfg.Portal.Provider)

	res, err := p.Run(cmd.Context())
	if errors.Is(err, normalizer.ErrKeyCollision) {
		return fmt.Errorf("catalog violates key uniqueness, nothing written: %w", err)
	}

	if err != nil {
		return err
	}

	if !runNoWrite {
		if err := p.Write(res); err != nil {
			return fmt.Errorf("write failed, partial output left in %s: %w", cfg.Output.WorkDir, err)
		}
	}

	fmt.Println()
	fmt.Println(res.Report.Table())

	for _, f := range res.Report.Failures {
		color.Yellow("⚠️  %s: %v", f.Key, f.Err)
	}

	if runAnnotate || cfg.Annotate.Enabled {
		a := annotate.NewAnnotator(cfg, log)

		ar, err := a.Apply(cmd.Context(), a.Build(res.Rows))
		if err != nil {
			return err
		}

		printAnnotateResult(ar)
	}

	color.Green("✅ Rendered %d of %d classified rows", res.Report.Rendered, res.Report.Rendered+res.Report.Failed)

	return nil
}
