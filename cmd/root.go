package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aveslab/perchview/cmd/directory"
	"github.com/aveslab/perchview/cmd/file"
	"github.com/aveslab/perchview/cmd/serve"
	"github.com/aveslab/perchview/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "perchview",
		Short: "PerchView CLI",
		Long:  "Analyze audio recordings for bird vocalizations and browse the results in a web dashboard.",
	}

	setupFlags(rootCmd, settings)

	subcommands := []*cobra.Command{
		file.Command(settings),
		directory.Command(settings),
		serve.Command(settings),
	}

	rootCmd.AddCommand(subcommands...)

	return rootCmd
}

// setupFlags defines global flags shared by all subcommands and binds them
// to the configuration so command line arguments take precedence over the
// config file.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) {
	cmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", settings.Debug, "Enable debug output")
	cmd.PersistentFlags().StringVar(&settings.Perch.ModelPath, "model", settings.Perch.ModelPath, "Path to the TensorFlow Lite model file")
	cmd.PersistentFlags().StringVar(&settings.Perch.LabelPath, "labels", settings.Perch.LabelPath, "Path to the label file")
	cmd.PersistentFlags().Float64Var(&settings.Perch.MinConfidence, "min-confidence", settings.Perch.MinConfidence, "Minimum confidence for reported detections")
	cmd.PersistentFlags().Float64Var(&settings.Perch.Overlap, "overlap", settings.Perch.Overlap, "Overlap between analysis chunks in seconds")
	cmd.PersistentFlags().Float64Var(&settings.Perch.Latitude, "latitude", settings.Perch.Latitude, "Latitude of the recording site")
	cmd.PersistentFlags().Float64Var(&settings.Perch.Longitude, "longitude", settings.Perch.Longitude, "Longitude of the recording site")
	cmd.PersistentFlags().IntVar(&settings.Perch.Threads, "threads", settings.Perch.Threads, "Number of CPU threads for inference, 0 for auto")

	_ = viper.BindPFlag("debug", cmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("perch.modelpath", cmd.PersistentFlags().Lookup("model"))
	_ = viper.BindPFlag("perch.labelpath", cmd.PersistentFlags().Lookup("labels"))
	_ = viper.BindPFlag("perch.minconfidence", cmd.PersistentFlags().Lookup("min-confidence"))
	_ = viper.BindPFlag("perch.overlap", cmd.PersistentFlags().Lookup("overlap"))
	_ = viper.BindPFlag("perch.latitude", cmd.PersistentFlags().Lookup("latitude"))
	_ = viper.BindPFlag("perch.longitude", cmd.PersistentFlags().Lookup("longitude"))
	_ = viper.BindPFlag("perch.threads", cmd.PersistentFlags().Lookup("threads"))
}
