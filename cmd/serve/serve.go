package serve

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aveslab/perchview/internal/analysis"
	"github.com/aveslab/perchview/internal/conf"
	"github.com/aveslab/perchview/internal/httpcontroller"
	"github.com/aveslab/perchview/internal/logging"
)

// Command creates the serve command starting the web dashboard
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the analysis dashboard web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(settings)
		},
	}

	cmd.Flags().StringVarP(&settings.WebServer.Port, "port", "p", settings.WebServer.Port, "Port for the web server")

	return cmd
}

func runServe(settings *conf.Settings) error {
	settings.WebServer.Enabled = true

	analyzer, cleanup, err := analysis.Bootstrap(settings)
	if err != nil {
		return err
	}
	defer cleanup()

	server := httpcontroller.New(settings, analyzer, analyzer.Metrics)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logging.Info("Shutting down", "signal", sig.String())
		return server.Shutdown()
	}
}
