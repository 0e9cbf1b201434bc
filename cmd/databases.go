package cmd

import (
	"fmt"
	"os"

	"github.com/deamwork/azure-redis/lib"
	"github.com/spf13/cobra"
)

var (
	databasesAccount      string
	databasesSubscription string
)

// databasesCmd represents the databases command
var databasesCmd = &cobra.Command{
	Use:   "databases",
	Short: "list the Redis databases in a subscription",
	RunE:  databases,
}

func init() {
	RootCmd.AddCommand(databasesCmd)
	databasesCmd.Flags().StringVarP(&databasesAccount, "account", "a", "", "Home account ID to use")
	databasesCmd.Flags().StringVarP(&databasesSubscription, "subscription", "s", "", "Azure subscription ID")
}

func databases(cmd *cobra.Command, args []string) error {
	if databasesSubscription == "" {
		return ErrTooFewArguments
	}

	broker, _, err := newBroker()
	if err != nil {
		return err
	}

	accountID, err := resolveAccountID(cmd.Context(), broker, databasesAccount)
	if err != nil {
		return err
	}

	discovery := lib.NewDiscovery(broker)
	for _, resource := range discovery.ListDatabases(cmd.Context(), accountID, databasesSubscription) {
		fmt.Fprintf(os.Stdout, "%s\t%s\t%s:%d\t%s\n", resource.Family, resource.Name, resource.Host, resource.Port, resource.ID)
	}
	return nil
}
