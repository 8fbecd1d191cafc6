package file

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/aveslab/perchview/internal/analysis"
	"github.com/aveslab/perchview/internal/conf"
)

// Command creates the file analysis command
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file [input.wav]",
		Short: "Analyze a single audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings.Input.Path = args[0]
			return runFile(settings)
		},
	}

	cmd.Flags().StringVarP(&settings.Output.File.Path, "output", "o", settings.Output.File.Path, "Path for the analysis result file")
	cmd.Flags().StringVar(&settings.Output.File.Type, "format", settings.Output.File.Type, "Output format, table or csv")

	return cmd
}

func runFile(settings *conf.Settings) error {
	analyzer, cleanup, err := analysis.Bootstrap(settings)
	if err != nil {
		return err
	}
	defer cleanup()

	rs, err := analyzer.AnalyzeFile(settings.Input.Path)
	if err != nil {
		return err
	}

	if strings.EqualFold(settings.Output.File.Type, "csv") {
		return analysis.WriteResultsCsv(rs, settings.Output.File.Path)
	}
	return analysis.WriteResultsTable(rs, settings.Output.File.Path)
}
