package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "show the signed-in Entra ID accounts",
	RunE:  status,
}

func init() {
	RootCmd.AddCommand(statusCmd)
}

func status(cmd *cobra.Command, args []string) error {
	broker, _, err := newBroker()
	if err != nil {
		return err
	}

	authStatus := broker.Status(cmd.Context())
	if !authStatus.Authenticated {
		fmt.Fprintln(os.Stdout, "Not signed in")
		return nil
	}

	for _, account := range authStatus.Accounts {
		fmt.Fprintf(os.Stdout, "%s\t%s\t%s\n", account.ID, account.Username, account.Name)
	}
	return nil
}
