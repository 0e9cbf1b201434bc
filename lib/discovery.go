package lib

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

const (
	managementHost = "https://management.azure.com"

	// Each ARM service pins its own api-version.
	subscriptionsAPIVersion   = "2022-12-01"
	redisAPIVersion           = "2023-08-01"
	redisEnterpriseAPIVersion = "2023-11-01"

	clusteringPolicyEnterprise = "EnterpriseCluster"

	Timeout = 60 * time.Second
)

var (
	ErrInvalidSubscriptionID = errors.New("subscription ID is not a valid UUID")
	ErrNoManagementToken     = errors.New("could not acquire a management API token")
)

var resourceGroupRe = regexp.MustCompile(`(?i)/resourcegroups/([^/]+)`)

// TokenSource hands out silent scoped tokens for a cached account. The
// Broker is the production implementation.
type TokenSource interface {
	ScopedToken(ctx context.Context, accountID, scope string) (TokenResult, bool)
}

// Discovery walks ARM's paginated listing APIs to enumerate subscriptions
// and Redis resources. Nothing is cached between calls: every listing
// re-queries Azure, trading latency for freshness.
type Discovery struct {
	tokens TokenSource
	client *http.Client

	// managementURL is swapped for a test server address in tests.
	managementURL string
}

func NewDiscovery(tokens TokenSource) *Discovery {
	return &Discovery{
		tokens:        tokens,
		client:        &http.Client{Timeout: Timeout},
		managementURL: managementHost,
	}
}

// ListSubscriptions returns every subscription the account can see. This is
// the UI-facing boundary: any failure, including a missing token, degrades
// to an empty list after logging.
func (d *Discovery) ListSubscriptions(ctx context.Context, accountID string) []Subscription {
	subscriptions, err := d.listSubscriptions(ctx, accountID)
	if err != nil {
		log.Errorf("listing subscriptions: %s", err)
		return []Subscription{}
	}
	return subscriptions
}

func (d *Discovery) listSubscriptions(ctx context.Context, accountID string) ([]Subscription, error) {
	token, ok := d.tokens.ScopedToken(ctx, accountID, ScopeManagement)
	if !ok {
		return nil, ErrNoManagementToken
	}

	listURL := fmt.Sprintf("%s/subscriptions?api-version=%s", d.managementURL, subscriptionsAPIVersion)
	entries, err := FetchAllPages[subscriptionEntry](ctx, d.client, listURL, token.Token)
	if err != nil {
		return nil, err
	}

	subscriptions := make([]Subscription, 0, len(entries))
	for _, entry := range entries {
		subscriptions = append(subscriptions, Subscription{
			SubscriptionID: entry.SubscriptionID,
			DisplayName:    entry.DisplayName,
			State:          entry.State,
		})
	}

	log.Debugf("found %d subscriptions", len(subscriptions))
	return subscriptions, nil
}

// ListDatabases returns every standard and enterprise Redis resource in the
// subscription, degrading to an empty list on failure like ListSubscriptions.
func (d *Discovery) ListDatabases(ctx context.Context, accountID, subscriptionID string) []RedisResource {
	resources, err := d.listDatabases(ctx, accountID, subscriptionID)
	if err != nil {
		log.Errorf("listing databases in subscription %s: %s", subscriptionID, err)
		return []RedisResource{}
	}
	return resources
}

func (d *Discovery) listDatabases(ctx context.Context, accountID, subscriptionID string) ([]RedisResource, error) {
	// Reject anything that is not a canonical UUID before it can reach a
	// URL path segment.
	if !validSubscriptionID(subscriptionID) {
		return nil, ErrInvalidSubscriptionID
	}

	token, ok := d.tokens.ScopedToken(ctx, accountID, ScopeManagement)
	if !ok {
		return nil, ErrNoManagementToken
	}

	var standard, enterprise []RedisResource
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		standard, err = d.listStandard(gctx, token.Token, subscriptionID)
		return err
	})
	g.Go(func() error {
		var err error
		enterprise, err = d.listEnterprise(gctx, token.Token, subscriptionID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Debugf("subscription %s: %d standard, %d enterprise", subscriptionID, len(standard), len(enterprise))
	return append(standard, enterprise...), nil
}

func (d *Discovery) listStandard(ctx context.Context, token, subscriptionID string) ([]RedisResource, error) {
	listURL := fmt.Sprintf("%s/subscriptions/%s/providers/Microsoft.Cache/redis?api-version=%s",
		d.managementURL, subscriptionID, redisAPIVersion)

	entries, err := FetchAllPages[standardCacheEntry](ctx, d.client, listURL, token)
	if err != nil {
		return nil, xerrors.Errorf("listing standard caches: %w", err)
	}

	resources := make([]RedisResource, 0, len(entries))
	for _, entry := range entries {
		resources = append(resources, RedisResource{
			ID:                entry.ID,
			Name:              entry.Name,
			SubscriptionID:    subscriptionID,
			ResourceGroup:     resourceGroupFromID(entry.ID),
			Location:          entry.Location,
			Family:            FamilyStandard,
			Host:              entry.Properties.HostName,
			Port:              entry.Properties.Port,
			SSLPort:           entry.Properties.SSLPort,
			ProvisioningState: entry.Properties.ProvisioningState,
			SKU:               entry.Properties.SKU.Name,
		})
	}
	return resources, nil
}

// listEnterprise is a two-level fetch: the paginated cluster listing, then
// one paginated database listing per cluster, fanned out under the shared
// concurrency ceiling. A broken cluster contributes zero databases instead
// of failing the subscription.
func (d *Discovery) listEnterprise(ctx context.Context, token, subscriptionID string) ([]RedisResource, error) {
	listURL := fmt.Sprintf("%s/subscriptions/%s/providers/Microsoft.Cache/redisEnterprise?api-version=%s",
		d.managementURL, subscriptionID, redisEnterpriseAPIVersion)

	clusters, err := FetchAllPages[enterpriseClusterEntry](ctx, d.client, listURL, token)
	if err != nil {
		return nil, xerrors.Errorf("listing enterprise clusters: %w", err)
	}

	perCluster := FanOut(ctx, clusters, DefaultFanOutLimit,
		func(ctx context.Context, cluster enterpriseClusterEntry) ([]RedisResource, error) {
			return d.listClusterDatabases(ctx, token, subscriptionID, cluster)
		})

	var resources []RedisResource
	for _, dbs := range perCluster {
		resources = append(resources, dbs...)
	}
	return resources, nil
}

func (d *Discovery) listClusterDatabases(ctx context.Context, token, subscriptionID string, cluster enterpriseClusterEntry) ([]RedisResource, error) {
	listURL := fmt.Sprintf("%s%s/databases?api-version=%s", d.managementURL, cluster.ID, redisEnterpriseAPIVersion)

	entries, err := FetchAllPages[enterpriseDatabaseEntry](ctx, d.client, listURL, token)
	if err != nil {
		return nil, xerrors.Errorf("listing databases of cluster %s: %w", cluster.Name, err)
	}

	resources := make([]RedisResource, 0, len(entries))
	for _, entry := range entries {
		dbName := entry.Name
		if idx := strings.LastIndex(dbName, "/"); idx >= 0 {
			dbName = dbName[idx+1:]
		}

		resources = append(resources, RedisResource{
			ID:                       entry.ID,
			Name:                     cluster.Name + "/" + dbName,
			SubscriptionID:           subscriptionID,
			ResourceGroup:            resourceGroupFromID(entry.ID),
			Location:                 cluster.Location,
			Family:                   FamilyEnterprise,
			Host:                     enterpriseHost(cluster, dbName, entry.Properties.ClusteringPolicy),
			Port:                     entry.Properties.Port,
			ProvisioningState:        entry.Properties.ProvisioningState,
			SKU:                      cluster.SKU.Name,
			AccessKeysAuthentication: entry.Properties.AccessKeysAuthentication,
		})
	}
	return resources, nil
}

// enterpriseHost prefers the hostname ARM reports on the cluster and only
// falls back to synthesizing one from the cluster name and normalized
// location. Clusters with the EnterpriseCluster policy expose one
// cluster-level endpoint; other policies expose one endpoint per database.
func enterpriseHost(cluster enterpriseClusterEntry, dbName, clusteringPolicy string) string {
	if cluster.Properties.HostName != "" {
		return cluster.Properties.HostName
	}

	location := strings.ReplaceAll(strings.ToLower(cluster.Location), " ", "")
	name := strings.ToLower(cluster.Name)
	if clusteringPolicy == clusteringPolicyEnterprise {
		return fmt.Sprintf("%s.%s.redisenterprise.cache.azure.net", name, location)
	}
	return fmt.Sprintf("%s-%s.%s.redisenterprise.cache.azure.net", name, strings.ToLower(dbName), location)
}

func resourceGroupFromID(resourceID string) string {
	matches := resourceGroupRe.FindStringSubmatch(resourceID)
	if len(matches) == 2 {
		return matches[1]
	}
	return ""
}

// validSubscriptionID accepts only the canonical RFC 4122 hex-dash form.
func validSubscriptionID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// Wire shapes of the three ARM listing endpoints.

type subscriptionEntry struct {
	SubscriptionID string `json:"subscriptionId"`
	DisplayName    string `json:"displayName"`
	State          string `json:"state"`
}

type standardCacheEntry struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Location   string `json:"location"`
	Properties struct {
		HostName          string `json:"hostName"`
		Port              int    `json:"port"`
		SSLPort           int    `json:"sslPort"`
		ProvisioningState string `json:"provisioningState"`
		SKU               struct {
			Name string `json:"name"`
		} `json:"sku"`
	} `json:"properties"`
}

type enterpriseClusterEntry struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	SKU      struct {
		Name string `json:"name"`
	} `json:"sku"`
	Properties struct {
		HostName          string `json:"hostName"`
		ProvisioningState string `json:"provisioningState"`
	} `json:"properties"`
}

type enterpriseDatabaseEntry struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Properties struct {
		Port                     int    `json:"port"`
		ClusteringPolicy         string `json:"clusteringPolicy"`
		ProvisioningState        string `json:"provisioningState"`
		AccessKeysAuthentication string `json:"accessKeysAuthentication"`
	} `json:"properties"`
}
