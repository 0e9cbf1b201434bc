package lib

import (
	"context"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"
)

const (
	// Standard caches speak TLS on their dedicated SSL port; Enterprise
	// databases use the same port with and without TLS. The asymmetry is
	// Azure's, not ours.
	defaultStandardTLSPort = 6380
	defaultEnterprisePort  = 10000
)

var subscriptionIDRe = regexp.MustCompile(`(?i)^/subscriptions/([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})(/|$)`)

// databaseLister is the slice of Discovery the resolver needs.
type databaseLister interface {
	ListDatabases(ctx context.Context, accountID, subscriptionID string) []RedisResource
}

// Resolver finds a single Redis resource by its Azure resource ID and turns
// it into connection parameters.
type Resolver struct {
	databases databaseLister
	tokens    TokenSource
}

func NewResolver(databases databaseLister, tokens TokenSource) *Resolver {
	return &Resolver{databases: databases, tokens: tokens}
}

// ResolveResource re-runs discovery in the subscription named by the
// resource ID and matches case-insensitively, since Azure resource IDs are
// case-insensitive by specification. A malformed ID and a missing resource
// are both just "not found".
func (r *Resolver) ResolveResource(ctx context.Context, accountID, resourceID string) (RedisResource, bool) {
	matches := subscriptionIDRe.FindStringSubmatch(resourceID)
	if len(matches) < 2 {
		log.Debugf("resource ID %q has no subscription segment", resourceID)
		return RedisResource{}, false
	}
	subscriptionID := matches[1]

	for _, resource := range r.databases.ListDatabases(ctx, accountID, subscriptionID) {
		if strings.EqualFold(resource.ID, resourceID) {
			return resource, true
		}
	}

	log.Debugf("resource %s not found in subscription %s", resourceID, subscriptionID)
	return RedisResource{}, false
}

// ResolveConnection acquires a fresh Redis-scoped token and builds the
// connection parameters for the resource. No token means not found; there
// is intentionally no fallback to access-key auth.
func (r *Resolver) ResolveConnection(ctx context.Context, accountID string, resource RedisResource) (ConnectionDetails, bool) {
	token, ok := r.tokens.ScopedToken(ctx, accountID, ScopeRedis)
	if !ok {
		log.Debugf("no redis-scoped token for account %s", accountID)
		return ConnectionDetails{}, false
	}

	return ConnectionDetails{
		Host:           resource.Host,
		Port:           tlsPort(resource),
		Username:       token.Account.LocalID,
		Password:       token.Token,
		TLS:            true,
		AuthType:       AuthTypeEntraID,
		AzureAccountID: token.Account.ID,
		SubscriptionID: resource.SubscriptionID,
		ResourceGroup:  resource.ResourceGroup,
		ResourceID:     resource.ID,
	}, true
}

func tlsPort(resource RedisResource) int {
	if resource.Family == FamilyStandard {
		if resource.SSLPort != 0 {
			return resource.SSLPort
		}
		return defaultStandardTLSPort
	}
	if resource.Port != 0 {
		return resource.Port
	}
	return defaultEnterprisePort
}
