package lib

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/99designs/keyring"
	azure "github.com/AzureAD/microsoft-authentication-library-for-go/apps/public"
	log "github.com/sirupsen/logrus"
	"golang.org/x/xerrors"
)

const (
	// ScopeRedis is the resource scope requested at login. Entra ID refuses
	// authorization requests mixing two resource audiences, so the
	// management scope is only ever acquired silently afterwards.
	ScopeRedis      = "https://redis.azure.com/user_impersonation"
	ScopeManagement = "https://management.azure.com/user_impersonation"

	invalidStateMessage = "Invalid or expired authentication state"
)

var loginScopes = []string{ScopeRedis, "offline_access", "openid", "profile"}

// oauthClient is the slice of msal's public client the broker uses.
type oauthClient interface {
	Accounts(ctx context.Context) ([]azure.Account, error)
	RemoveAccount(ctx context.Context, account azure.Account) error
	AcquireTokenSilent(ctx context.Context, scopes []string, opts ...azure.AcquireSilentOption) (azure.AuthResult, error)
	AcquireTokenByAuthCode(ctx context.Context, code, redirectURI string, scopes []string, opts ...azure.AcquireByAuthCodeOption) (azure.AuthResult, error)
}

type authRequest struct {
	state    string
	verifier string
}

// Broker drives one authorization-code-with-PKCE login at a time and hands
// out silent scoped tokens for cached accounts. The pending request slot is
// single-occupancy: starting a new login unconditionally discards the
// previous attempt, so the last login always wins.
type Broker struct {
	client      oauthClient
	clientID    string
	authority   string
	redirectURI string

	mu      sync.Mutex
	pending *authRequest
}

// NewBroker builds a broker whose msal client persists its token cache in
// the given keyring.
func NewBroker(cfg *Config, kr keyring.Keyring) (*Broker, error) {
	if cfg.ClientID == "" {
		return nil, ErrMissingClientID
	}

	client, err := azure.New(cfg.ClientID,
		azure.WithAuthority(cfg.Authority()),
		azure.WithCache(newKeyringTokenCache(kr)),
	)
	if err != nil {
		return nil, xerrors.Errorf("creating msal client: %w", err)
	}

	return &Broker{
		client:      client,
		clientID:    cfg.ClientID,
		authority:   cfg.Authority(),
		redirectURI: cfg.RedirectURI(),
	}, nil
}

// StartLogin generates fresh PKCE material and returns the authorization
// URL plus the state the callback must echo. Any pending login attempt is
// replaced; its state becomes invalid immediately.
func (b *Broker) StartLogin() (string, string, error) {
	verifier, err := GenerateVerifier()
	if err != nil {
		return "", "", err
	}
	state, err := GenerateState()
	if err != nil {
		return "", "", err
	}

	b.mu.Lock()
	if b.pending != nil {
		log.Debugf("discarding pending login attempt %s", b.pending.state)
	}
	b.pending = &authRequest{state: state, verifier: verifier}
	b.mu.Unlock()

	// msal's AuthCodeURL does not expose the PKCE parameters, so the
	// authorize URL is assembled by hand.
	q := url.Values{}
	q.Set("client_id", b.clientID)
	q.Set("response_type", "code")
	q.Set("redirect_uri", b.redirectURI)
	q.Set("response_mode", "query")
	q.Set("scope", strings.Join(loginScopes, " "))
	q.Set("state", state)
	q.Set("code_challenge", ChallengeS256(verifier))
	q.Set("code_challenge_method", ChallengeMethod)
	q.Set("prompt", "select_account")

	return b.authority + "/oauth2/v2.0/authorize?" + q.Encode(), state, nil
}

// HandleCallback redeems an authorization code. The state is consumed the
// moment it is matched, before the exchange runs, so a retried callback
// always fails even if the exchange itself failed. Exchange failures come
// back as a Failed result carrying the provider's message, never as an
// error.
func (b *Broker) HandleCallback(ctx context.Context, code, state string) CallbackResult {
	b.mu.Lock()
	req := b.pending
	if req == nil || req.state != state {
		b.mu.Unlock()
		log.Debugf("callback with unknown state %s", state)
		return CallbackResult{Status: CallbackFailed, Error: invalidStateMessage}
	}
	b.pending = nil
	b.mu.Unlock()

	result, err := b.client.AcquireTokenByAuthCode(ctx, code, b.redirectURI,
		[]string{ScopeRedis}, azure.WithChallenge(req.verifier))
	if err != nil {
		log.Debugf("token exchange failed: %s", err)
		return CallbackResult{Status: CallbackFailed, Error: err.Error()}
	}

	account := toAccount(result.Account)
	log.Infof("signed in as %s", account.Username)
	return CallbackResult{Status: CallbackSucceeded, Account: &account}
}

// Status reports the accounts in the token cache. Cache failures collapse
// to logged-out rather than propagating.
func (b *Broker) Status(ctx context.Context) AuthStatus {
	accounts, err := b.client.Accounts(ctx)
	if err != nil {
		log.Errorf("reading token cache: %s", err)
		return AuthStatus{Authenticated: false, Accounts: []AccountSummary{}}
	}

	summaries := make([]AccountSummary, 0, len(accounts))
	for _, account := range accounts {
		summaries = append(summaries, AccountSummary{
			ID:       account.HomeAccountID,
			Username: account.PreferredUsername,
			Name:     account.Name,
		})
	}

	return AuthStatus{Authenticated: len(summaries) > 0, Accounts: summaries}
}

// Logout removes the account from the token cache. An unknown account ID is
// a no-op; cache errors propagate, unlike Status, because the caller must
// know a removal did not happen.
func (b *Broker) Logout(ctx context.Context, accountID string) error {
	accounts, err := b.client.Accounts(ctx)
	if err != nil {
		return xerrors.Errorf("reading token cache: %w", err)
	}

	for _, account := range accounts {
		if account.HomeAccountID == accountID {
			return b.client.RemoveAccount(ctx, account)
		}
	}

	log.Debugf("logout: account %s not in cache", accountID)
	return nil
}

// ScopedToken silently acquires a token for exactly one resource scope.
// Account not found, acquisition failure, and an incomplete result all
// report (zero, false); none of these is an error to the caller.
func (b *Broker) ScopedToken(ctx context.Context, accountID, scope string) (TokenResult, bool) {
	accounts, err := b.client.Accounts(ctx)
	if err != nil {
		log.Debugf("reading token cache: %s", err)
		return TokenResult{}, false
	}

	var account azure.Account
	var found bool
	for _, candidate := range accounts {
		if candidate.HomeAccountID == accountID {
			account = candidate
			found = true
			break
		}
	}
	if !found {
		log.Debugf("no cached account %s", accountID)
		return TokenResult{}, false
	}

	result, err := b.client.AcquireTokenSilent(ctx, []string{scope},
		azure.WithSilentAccount(account))
	if err != nil {
		log.Debugf("silent acquisition for scope %s failed: %s", scope, err)
		return TokenResult{}, false
	}
	if result.AccessToken == "" || result.ExpiresOn.IsZero() || result.Account.HomeAccountID == "" {
		log.Debug("silent acquisition returned an incomplete result")
		return TokenResult{}, false
	}

	return TokenResult{
		Token:     result.AccessToken,
		ExpiresOn: result.ExpiresOn,
		Account:   toAccount(result.Account),
	}, true
}

func toAccount(account azure.Account) Account {
	return Account{
		ID:       account.HomeAccountID,
		TenantID: account.Realm,
		Username: account.PreferredUsername,
		LocalID:  account.LocalAccountID,
		Name:     account.Name,
	}
}
