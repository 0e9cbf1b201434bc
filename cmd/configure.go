package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/deamwork/azure-redis/lib"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configureTenant   string
	configureClientID string
	configureScheme   string
	configureStore    string
)

// configureCmd represents the configure command
var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "store the Entra ID application settings for a profile",
	RunE:  configure,
}

func init() {
	RootCmd.AddCommand(configureCmd)
	configureCmd.Flags().StringVarP(&configureTenant, "tenant", "", "", "Azure tenant ID")
	configureCmd.Flags().StringVarP(&configureClientID, "client-id", "", "", "Entra ID application (client) ID")
	configureCmd.Flags().StringVarP(&configureScheme, "redirect-scheme", "", "", "Custom scheme of the registered redirect URI")
	configureCmd.Flags().StringVarP(&configureStore, "store-endpoint", "", "", "Base URL of the database-management service")
}

func configure(cmd *cobra.Command, args []string) error {
	var err error

	if configureClientID == "" {
		configureClientID, err = lib.Prompt("Entra ID application (client) ID", false)
		if err != nil {
			return err
		}
		if configureClientID == "" {
			return fmt.Errorf("a client ID is required")
		}
	}

	if configureTenant == "" {
		configureTenant, err = lib.Prompt("Azure tenant ID ([common])", false)
		if err != nil {
			return err
		}
	}

	if configureStore == "" {
		configureStore, err = lib.Prompt("Database service URL (optional)", false)
		if err != nil {
			return err
		}
	}

	path, err := lib.ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	section := lib.DefaultProfile
	if profile != "" && profile != lib.DefaultProfile {
		section = "profile " + profile
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()

	fmt.Fprintf(file, "\n[%s]\n", section)
	fmt.Fprintf(file, "client_id = %s\n", configureClientID)
	if configureTenant != "" {
		fmt.Fprintf(file, "tenant_id = %s\n", configureTenant)
	}
	if configureScheme != "" {
		fmt.Fprintf(file, "redirect_scheme = %s\n", configureScheme)
	}
	if configureStore != "" {
		fmt.Fprintf(file, "store_endpoint = %s\n", configureStore)
	}

	log.Infof("Wrote profile %s to %s", section, path)
	return nil
}
