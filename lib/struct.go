package lib

import "time"

// Account is the identity handle for a signed-in Entra ID user. It mirrors
// the fields MSAL keeps in its token cache; ID is the home account ID and is
// the only field ever used for lookups.
type Account struct {
	ID       string `json:"id"`
	TenantID string `json:"tenantId"`
	Username string `json:"username"`
	LocalID  string `json:"localAccountId"`
	Name     string `json:"name"`
}

// TokenResult is a freshly acquired access token. It is produced per call
// and never stored.
type TokenResult struct {
	Token     string    `json:"token"`
	ExpiresOn time.Time `json:"expiresOn"`
	Account   Account   `json:"account"`
}

// Subscription is one Azure subscription visible to the signed-in account.
type Subscription struct {
	SubscriptionID string `json:"subscriptionId"`
	DisplayName    string `json:"displayName"`
	State          string `json:"state"`
}

type ResourceFamily string

const (
	FamilyStandard   ResourceFamily = "standard"
	FamilyEnterprise ResourceFamily = "enterprise"
)

// RedisResource is the normalized shape for both Azure Cache for Redis
// (standard) and Redis Enterprise databases. ID is the canonical Azure
// resource ID; comparisons on it are case-insensitive. Enterprise databases
// carry a composite cluster/database name.
type RedisResource struct {
	ID                       string         `json:"id"`
	Name                     string         `json:"name"`
	SubscriptionID           string         `json:"subscriptionId"`
	ResourceGroup            string         `json:"resourceGroup"`
	Location                 string         `json:"location"`
	Family                   ResourceFamily `json:"family"`
	Host                     string         `json:"host"`
	Port                     int            `json:"port"`
	SSLPort                  int            `json:"sslPort,omitempty"`
	ProvisioningState        string         `json:"provisioningState"`
	SKU                      string         `json:"sku,omitempty"`
	AccessKeysAuthentication string         `json:"accessKeysAuthentication,omitempty"`
}

type AuthType string

const (
	AuthTypeEntraID   AuthType = "entra-id"
	AuthTypeAccessKey AuthType = "access-key"
)

// ConnectionDetails is everything needed to open a connection to a resolved
// Redis resource. Derived per call, never stored.
type ConnectionDetails struct {
	Host           string   `json:"host"`
	Port           int      `json:"port"`
	Username       string   `json:"username,omitempty"`
	Password       string   `json:"password,omitempty"`
	TLS            bool     `json:"tls"`
	AuthType       AuthType `json:"authType"`
	AzureAccountID string   `json:"azureAccountId,omitempty"`
	SubscriptionID string   `json:"subscriptionId"`
	ResourceGroup  string   `json:"resourceGroup"`
	ResourceID     string   `json:"resourceId"`
}

type CallbackStatus string

const (
	CallbackSucceeded CallbackStatus = "succeeded"
	CallbackFailed    CallbackStatus = "failed"
)

// CallbackResult is the outcome of redeeming an authorization code. Auth
// failures are carried here as data, never as a returned error.
type CallbackResult struct {
	Status  CallbackStatus `json:"status"`
	Account *Account       `json:"account,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// AuthStatus reports whether any account is signed in.
type AuthStatus struct {
	Authenticated bool             `json:"authenticated"`
	Accounts      []AccountSummary `json:"accounts"`
}

type AccountSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

type ImportStatus string

const (
	ImportSuccess ImportStatus = "success"
	ImportFail    ImportStatus = "fail"
)

// ImportRequest names one database to import by its Azure resource ID.
type ImportRequest struct {
	ID string `json:"id"`
}

// ImportResult is the per-item outcome of a bulk import. Items succeed or
// fail independently of each other.
type ImportResult struct {
	ID      string       `json:"id"`
	Status  ImportStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}
