package cmd

import (
	"fmt"
	"os"

	"github.com/deamwork/azure-redis/lib"
	"github.com/spf13/cobra"
)

var importAccount string

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <resource-id> [resource-id...]",
	Short: "import Redis databases into the database service by resource ID",
	RunE:  runImport,
}

func init() {
	RootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVarP(&importAccount, "account", "a", "", "Home account ID to use")
}

func runImport(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return ErrTooFewArguments
	}

	broker, cfg, err := newBroker()
	if err != nil {
		return err
	}
	if cfg.StoreEndpoint == "" {
		return ErrNoStoreEndpoint
	}

	accountID, err := resolveAccountID(cmd.Context(), broker, importAccount)
	if err != nil {
		return err
	}

	resolver := lib.NewResolver(lib.NewDiscovery(broker), broker)
	importer := lib.NewImporter(resolver, lib.NewHTTPStore(cfg.StoreEndpoint))

	requests := make([]lib.ImportRequest, len(args))
	for idx, id := range args {
		requests[idx] = lib.ImportRequest{ID: id}
	}

	failures := 0
	for _, result := range importer.ImportDatabases(cmd.Context(), accountID, requests) {
		if result.Status == lib.ImportSuccess {
			fmt.Fprintf(os.Stdout, "ok\t%s\n", result.ID)
			continue
		}
		failures++
		fmt.Fprintf(os.Stdout, "fail\t%s\t%s\n", result.ID, result.Message)
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d imports failed", failures, len(requests))
	}
	return nil
}
