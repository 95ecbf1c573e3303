package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List subscribed users",
	RunE: func(cmd *cobra.Command, _ []string) error {
		application, log, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()
		defer func() { _ = application.Close() }()

		users, err := application.Repo().ActiveUsers(cmd.Context())
		if err != nil {
			return err
		}
		if len(users) == 0 {
			fmt.Println("no active users")
			return nil
		}
		for _, u := range users {
			reachable := "reachable"
			if u.ConversationRef == "" {
				reachable = "no conversation reference"
			}
			fmt.Printf("%s\t%s\t%s\n", u.ID, u.Name, reachable)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(usersCmd)
}
