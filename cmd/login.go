package cmd

import (
	"fmt"
	"net/url"
	"os"

	"github.com/deamwork/azure-redis/lib"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	callbackCode  string
	callbackState string
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "sign in to Azure with your Entra ID account",
	RunE:  login,
}

func init() {
	RootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringVarP(&callbackCode, "code", "", "", "Authorization code from the callback (skips the prompt)")
	loginCmd.Flags().StringVarP(&callbackState, "state", "", "", "State from the callback (skips the prompt)")
}

func login(cmd *cobra.Command, args []string) error {
	broker, _, err := newBroker()
	if err != nil {
		return err
	}

	authURL, state, err := broker.StartLogin()
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Open this URL in your browser and sign in:\n\n%s\n\n", authURL)
	log.Debugf("login state: %s", state)

	code, echoedState := callbackCode, callbackState
	if code == "" {
		redirected, err := lib.Prompt("Paste the full redirect URL you were sent to", false)
		if err != nil {
			return err
		}
		code, echoedState, err = parseCallbackURL(redirected)
		if err != nil {
			return err
		}
	}

	result := broker.HandleCallback(cmd.Context(), code, echoedState)
	if result.Status != lib.CallbackSucceeded {
		return fmt.Errorf("login failed: %s", result.Error)
	}

	fmt.Fprintf(os.Stdout, "Signed in as %s (%s)\n", result.Account.Username, result.Account.ID)
	return nil
}

func parseCallbackURL(redirected string) (string, string, error) {
	parsed, err := url.Parse(redirected)
	if err != nil {
		return "", "", fmt.Errorf("could not parse redirect URL: %w", err)
	}

	query := parsed.Query()
	if e := query.Get("error"); e != "" {
		return "", "", fmt.Errorf("authorization was denied: %s: %s", e, query.Get("error_description"))
	}

	code, state := query.Get("code"), query.Get("state")
	if code == "" || state == "" {
		return "", "", fmt.Errorf("redirect URL is missing code or state")
	}
	return code, state, nil
}
