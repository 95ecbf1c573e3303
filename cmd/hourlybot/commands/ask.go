package commands

import (
	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Send the current slot's question to all active users now",
	Long: "Resolves the latest elapsed slot and asks its question immediately, " +
		"bypassing the scheduler. Useful for verifying delivery end to end.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		application, log, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()
		defer func() { _ = application.Close() }()

		return application.Dispatcher().AskNow(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
