package lib

import (
	"context"
	"net/url"
	"testing"
	"time"

	azure "github.com/AzureAD/microsoft-authentication-library-for-go/apps/public"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

type fakeOAuthClient struct {
	accounts    []azure.Account
	accountsErr error

	removed   []string
	removeErr error

	byCodeResult azure.AuthResult
	byCodeErr    error
	byCodeCalls  int
	byCodeCode   string

	silentResult azure.AuthResult
	silentErr    error
	silentScopes []string
}

func (f *fakeOAuthClient) Accounts(ctx context.Context) ([]azure.Account, error) {
	return f.accounts, f.accountsErr
}

func (f *fakeOAuthClient) RemoveAccount(ctx context.Context, account azure.Account) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, account.HomeAccountID)
	return nil
}

func (f *fakeOAuthClient) AcquireTokenSilent(ctx context.Context, scopes []string, opts ...azure.AcquireSilentOption) (azure.AuthResult, error) {
	f.silentScopes = scopes
	return f.silentResult, f.silentErr
}

func (f *fakeOAuthClient) AcquireTokenByAuthCode(ctx context.Context, code, redirectURI string, scopes []string, opts ...azure.AcquireByAuthCodeOption) (azure.AuthResult, error) {
	f.byCodeCalls++
	f.byCodeCode = code
	return f.byCodeResult, f.byCodeErr
}

func testBroker(client oauthClient) *Broker {
	return &Broker{
		client:      client,
		clientID:    "11111111-2222-3333-4444-555555555555",
		authority:   "https://login.microsoftonline.com/common",
		redirectURI: "azure-redis://azure/oauth/callback",
	}
}

func testAzureAccount() azure.Account {
	return azure.Account{
		HomeAccountID:     "home-1",
		Realm:             "tenant-1",
		PreferredUsername: "user@example.com",
		LocalAccountID:    "local-1",
		Name:              "Example User",
	}
}

func successResult() azure.AuthResult {
	return azure.AuthResult{
		Account:     testAzureAccount(),
		AccessToken: "access-token",
		ExpiresOn:   time.Now().Add(time.Hour),
	}
}

func TestStartLoginAuthorizationURL(t *testing.T) {
	broker := testBroker(&fakeOAuthClient{})

	authURL, state, err := broker.StartLogin()
	require.NoError(t, err)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	assert.Equal(t, "/common/oauth2/v2.0/authorize", parsed.Path)

	q := parsed.Query()
	assert.Equal(t, broker.clientID, q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, broker.redirectURI, q.Get("redirect_uri"))
	assert.Equal(t, state, q.Get("state"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Len(t, q.Get("code_challenge"), 43)

	scope := q.Get("scope")
	assert.Contains(t, scope, ScopeRedis)
	assert.Contains(t, scope, "offline_access")
	assert.Contains(t, scope, "openid")
	assert.Contains(t, scope, "profile")
	// Entra ID forbids mixing resource audiences in one request.
	assert.NotContains(t, scope, ScopeManagement)
}

func TestLoginRoundTrip(t *testing.T) {
	client := &fakeOAuthClient{byCodeResult: successResult()}
	broker := testBroker(client)

	_, state, err := broker.StartLogin()
	require.NoError(t, err)

	result := broker.HandleCallback(context.Background(), "auth-code", state)
	assert.Equal(t, CallbackSucceeded, result.Status)
	require.NotNil(t, result.Account)
	assert.Equal(t, "home-1", result.Account.ID)
	assert.Equal(t, "tenant-1", result.Account.TenantID)
	assert.Equal(t, "user@example.com", result.Account.Username)
	assert.Equal(t, "local-1", result.Account.LocalID)
	assert.Equal(t, "auth-code", client.byCodeCode)
}

func TestStartLoginSingleSlot(t *testing.T) {
	client := &fakeOAuthClient{byCodeResult: successResult()}
	broker := testBroker(client)

	_, firstState, err := broker.StartLogin()
	require.NoError(t, err)
	_, secondState, err := broker.StartLogin()
	require.NoError(t, err)
	require.NotEqual(t, firstState, secondState)

	// The first attempt was discarded by the second StartLogin.
	result := broker.HandleCallback(context.Background(), "code", firstState)
	assert.Equal(t, CallbackFailed, result.Status)
	assert.Equal(t, invalidStateMessage, result.Error)
	assert.Zero(t, client.byCodeCalls)

	result = broker.HandleCallback(context.Background(), "code", secondState)
	assert.Equal(t, CallbackSucceeded, result.Status)
}

func TestCallbackConsumesStateEvenOnFailure(t *testing.T) {
	client := &fakeOAuthClient{byCodeErr: xerrors.New("AADSTS70008: expired code")}
	broker := testBroker(client)

	_, state, err := broker.StartLogin()
	require.NoError(t, err)

	result := broker.HandleCallback(context.Background(), "code", state)
	assert.Equal(t, CallbackFailed, result.Status)
	assert.Contains(t, result.Error, "AADSTS70008")

	// Retrying the same state must fail with the state message, and the
	// exchange must not run again.
	result = broker.HandleCallback(context.Background(), "code", state)
	assert.Equal(t, CallbackFailed, result.Status)
	assert.Equal(t, invalidStateMessage, result.Error)
	assert.Equal(t, 1, client.byCodeCalls)
}

func TestCallbackUnknownState(t *testing.T) {
	broker := testBroker(&fakeOAuthClient{})

	result := broker.HandleCallback(context.Background(), "code", "never-issued")
	assert.Equal(t, CallbackFailed, result.Status)
	assert.Equal(t, invalidStateMessage, result.Error)
}

func TestStatus(t *testing.T) {
	client := &fakeOAuthClient{accounts: []azure.Account{testAzureAccount()}}
	broker := testBroker(client)

	status := broker.Status(context.Background())
	assert.True(t, status.Authenticated)
	require.Len(t, status.Accounts, 1)
	assert.Equal(t, "home-1", status.Accounts[0].ID)
	assert.Equal(t, "user@example.com", status.Accounts[0].Username)
}

func TestStatusFailsOpenToLoggedOut(t *testing.T) {
	client := &fakeOAuthClient{accountsErr: xerrors.New("cache corrupted")}
	broker := testBroker(client)

	status := broker.Status(context.Background())
	assert.False(t, status.Authenticated)
	assert.NotNil(t, status.Accounts)
	assert.Empty(t, status.Accounts)
}

func TestLogoutUnknownAccountIsNoop(t *testing.T) {
	client := &fakeOAuthClient{}
	broker := testBroker(client)

	err := broker.Logout(context.Background(), "not-a-real-id")
	assert.NoError(t, err)
	assert.Empty(t, client.removed)
}

func TestLogoutRemovesAccount(t *testing.T) {
	client := &fakeOAuthClient{accounts: []azure.Account{testAzureAccount()}}
	broker := testBroker(client)

	require.NoError(t, broker.Logout(context.Background(), "home-1"))
	assert.Equal(t, []string{"home-1"}, client.removed)
}

func TestLogoutPropagatesCacheErrors(t *testing.T) {
	client := &fakeOAuthClient{
		accounts:  []azure.Account{testAzureAccount()},
		removeErr: xerrors.New("keychain locked"),
	}
	broker := testBroker(client)

	err := broker.Logout(context.Background(), "home-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keychain locked")
}

func TestScopedToken(t *testing.T) {
	client := &fakeOAuthClient{
		accounts:     []azure.Account{testAzureAccount()},
		silentResult: successResult(),
	}
	broker := testBroker(client)

	token, ok := broker.ScopedToken(context.Background(), "home-1", ScopeManagement)
	require.True(t, ok)
	assert.Equal(t, "access-token", token.Token)
	assert.Equal(t, "home-1", token.Account.ID)
	assert.Equal(t, []string{ScopeManagement}, client.silentScopes)
}

func TestScopedTokenAccountNotFound(t *testing.T) {
	broker := testBroker(&fakeOAuthClient{})

	_, ok := broker.ScopedToken(context.Background(), "home-1", ScopeRedis)
	assert.False(t, ok)
}

func TestScopedTokenAcquisitionFailure(t *testing.T) {
	client := &fakeOAuthClient{
		accounts:  []azure.Account{testAzureAccount()},
		silentErr: xerrors.New("no refresh token"),
	}
	broker := testBroker(client)

	_, ok := broker.ScopedToken(context.Background(), "home-1", ScopeRedis)
	assert.False(t, ok)
}

func TestScopedTokenIncompleteResult(t *testing.T) {
	incomplete := successResult()
	incomplete.AccessToken = ""

	client := &fakeOAuthClient{
		accounts:     []azure.Account{testAzureAccount()},
		silentResult: incomplete,
	}
	broker := testBroker(client)

	_, ok := broker.ScopedToken(context.Background(), "home-1", ScopeRedis)
	assert.False(t, ok)
}
