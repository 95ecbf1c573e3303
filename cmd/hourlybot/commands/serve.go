package commands

import (
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook server and scheduler",
	RunE: func(cmd *cobra.Command, _ []string) error {
		application, log, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()
		return application.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
