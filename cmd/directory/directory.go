package directory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aveslab/perchview/internal/analysis"
	"github.com/aveslab/perchview/internal/conf"
)

// Command creates the directory analysis command
func Command(settings *conf.Settings) *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "directory [path]",
		Short: "Analyze all audio files in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings.Input.Path = args[0]
			return runDirectory(cmd.Context(), settings, noCache)
		},
	}

	cmd.Flags().BoolVarP(&settings.Input.Recursive, "recursive", "r", settings.Input.Recursive, "Recursively analyze subdirectories")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Ignore cached results and re-run the analysis")
	cmd.Flags().StringVarP(&settings.Output.File.Path, "output", "o", settings.Output.File.Path, "Path for the analysis result file")
	cmd.Flags().StringVar(&settings.Output.File.Type, "format", settings.Output.File.Type, "Output format, table or csv")

	return cmd
}

func runDirectory(ctx context.Context, settings *conf.Settings, noCache bool) error {
	analyzer, cleanup, err := analysis.Bootstrap(settings)
	if err != nil {
		return err
	}
	defer cleanup()

	if noCache && analyzer.Cache != nil {
		if err := analyzer.Cache.Invalidate(settings.Input.Path); err != nil {
			return err
		}
	}

	run, err := analyzer.AnalyzeDirectory(ctx, settings.Input.Path, settings.Input.Recursive)
	if err != nil {
		return err
	}

	source := "analyzer"
	if run.FromCache {
		source = "cache"
	}
	fmt.Printf("Run %s: %d files scanned, %d analyzed, %d skipped, %d detections (%s) in %s\n",
		run.RunID, run.Scanned, run.Analyzed, len(run.Skipped), run.Results.Len(), source,
		run.Elapsed.Round(time.Millisecond))

	if strings.EqualFold(settings.Output.File.Type, "csv") {
		return analysis.WriteResultsCsv(run.Results, settings.Output.File.Path)
	}
	return analysis.WriteResultsTable(run.Results, settings.Output.File.Path)
}
