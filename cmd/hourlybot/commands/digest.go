package commands

import (
	"github.com/spf13/cobra"
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Compose and send today's digest to all active users now",
	RunE: func(cmd *cobra.Command, _ []string) error {
		application, log, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()
		defer func() { _ = application.Close() }()

		return application.Dispatcher().OnDigestTick(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(digestCmd)
}
