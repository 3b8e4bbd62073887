package cmd

import (
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the in-process scheduler",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	application, err := openApplication(ctx)
	if err != nil {
		return err
	}
	defer application.Close()

	return application.Run(ctx)
}
