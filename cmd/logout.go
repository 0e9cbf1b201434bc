package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// logoutCmd represents the logout command
var logoutCmd = &cobra.Command{
	Use:   "logout <account-id>",
	Short: "remove an account from the token cache",
	RunE:  logout,
}

func init() {
	RootCmd.AddCommand(logoutCmd)
}

func logout(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return ErrTooFewArguments
	}
	if len(args) > 1 {
		return ErrTooManyArguments
	}

	broker, _, err := newBroker()
	if err != nil {
		return err
	}

	if err := broker.Logout(cmd.Context(), args[0]); err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, "Signed out")
	return nil
}
