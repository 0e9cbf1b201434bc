package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/99designs/keyring"
	"github.com/deamwork/azure-redis/lib"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Errors returned from frontend commands
var (
	ErrTooManyArguments = errors.New("too many arguments")
	ErrTooFewArguments  = errors.New("too few arguments")
	ErrAccountRequired  = errors.New("pass --account: there is not exactly one signed-in account")
	ErrNoStoreEndpoint  = errors.New("store_endpoint missing from config; imports need the database service URL")
)

// global flags
var (
	backend string
	debug   bool
	profile string
	version string
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:               "azure-redis",
	Short:             "azure-redis discovers and imports Azure Cache for Redis databases with your Entra ID account",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: prerunE,
}

// Execute adds all child commands to the root command sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(vers string) {
	version = vers
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		switch err {
		case ErrTooFewArguments, ErrTooManyArguments:
			RootCmd.Usage()
		}
		os.Exit(1)
	}
}

func prerunE(cmd *cobra.Command, args []string) error {
	// Load backend from env var if not set as a flag
	if !cmd.Flags().Lookup("backend").Changed {
		backendFromEnv, ok := os.LookupEnv("AZURE_REDIS_BACKEND")
		if ok {
			backend = backendFromEnv
		}
	}

	if debug {
		log.SetLevel(log.DebugLevel)
	}

	return nil
}

func init() {
	backendsAvailable := []string{}
	for _, backendType := range keyring.AvailableBackends() {
		backendsAvailable = append(backendsAvailable, string(backendType))
	}
	RootCmd.PersistentFlags().StringVarP(&backend, "backend", "b", "", fmt.Sprintf("Secret backend to use %s", backendsAvailable))
	RootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	RootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "Config profile to use")
}

func openKeyring() (keyring.Keyring, error) {
	var allowedBackends []keyring.BackendType
	if backend != "" {
		allowedBackends = append(allowedBackends, keyring.BackendType(backend))
	}
	return lib.OpenKeyring(allowedBackends)
}

func newBroker() (*lib.Broker, *lib.Config, error) {
	cfg, err := lib.LoadConfig(profile)
	if err != nil {
		return nil, nil, err
	}

	kr, err := openKeyring()
	if err != nil {
		return nil, nil, err
	}

	broker, err := lib.NewBroker(cfg, kr)
	if err != nil {
		return nil, nil, err
	}
	return broker, cfg, nil
}

// resolveAccountID falls back to the sole signed-in account when no
// --account was given.
func resolveAccountID(ctx context.Context, broker *lib.Broker, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}

	status := broker.Status(ctx)
	if len(status.Accounts) == 1 {
		return status.Accounts[0].ID, nil
	}
	return "", ErrAccountRequired
}
