package cmd

import (
	"fmt"
	"os"

	"github.com/deamwork/azure-redis/lib"
	"github.com/spf13/cobra"
)

var subscriptionsAccount string

// subscriptionsCmd represents the subscriptions command
var subscriptionsCmd = &cobra.Command{
	Use:   "subscriptions",
	Short: "list the Azure subscriptions visible to your account",
	RunE:  subscriptions,
}

func init() {
	RootCmd.AddCommand(subscriptionsCmd)
	subscriptionsCmd.Flags().StringVarP(&subscriptionsAccount, "account", "a", "", "Home account ID to use")
}

func subscriptions(cmd *cobra.Command, args []string) error {
	broker, _, err := newBroker()
	if err != nil {
		return err
	}

	accountID, err := resolveAccountID(cmd.Context(), broker, subscriptionsAccount)
	if err != nil {
		return err
	}

	discovery := lib.NewDiscovery(broker)
	for _, subscription := range discovery.ListSubscriptions(cmd.Context(), accountID) {
		fmt.Fprintf(os.Stdout, "%s\t%s\t%s\n", subscription.SubscriptionID, subscription.DisplayName, subscription.State)
	}
	return nil
}
