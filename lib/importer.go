package lib

import (
	"context"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	msgDatabaseNotFound    = "database not found"
	msgNoConnectionDetails = "could not get connection details"
	msgEntraAuthFailed     = "Entra ID authentication failed, please check the username or password and your access to this database"
	msgUnexpectedError     = "an unexpected error occurred"
)

// Substrings in a persistence error that mean Redis rejected the Entra ID
// credentials rather than anything else going wrong.
var authRejectionMarkers = []string{
	"wrongpass",
	"noauth",
	"please check the username or password",
}

// resourceResolver is the slice of Resolver the importer needs.
type resourceResolver interface {
	ResolveResource(ctx context.Context, accountID, resourceID string) (RedisResource, bool)
	ResolveConnection(ctx context.Context, accountID string, resource RedisResource) (ConnectionDetails, bool)
}

// Importer drives the persistence collaborator over a batch of requested
// imports. Every item succeeds or fails on its own; there is no early
// abort, and the result slice matches the input order.
type Importer struct {
	resolver resourceResolver
	store    DatabaseStore
}

func NewImporter(resolver resourceResolver, store DatabaseStore) *Importer {
	return &Importer{resolver: resolver, store: store}
}

type indexedRequest struct {
	idx     int
	request ImportRequest
}

type indexedResult struct {
	idx    int
	result ImportResult
}

// ImportDatabases imports each requested database independently and
// returns one result per request, in request order.
func (i *Importer) ImportDatabases(ctx context.Context, accountID string, requests []ImportRequest) []ImportResult {
	session := uuid.NewString()
	log.Debugf("import session %s: %d requests", session, len(requests))

	indexed := make([]indexedRequest, len(requests))
	for idx, request := range requests {
		indexed[idx] = indexedRequest{idx: idx, request: request}
	}

	// Failures are folded into the result type, so the fan-out layer never
	// sees an error and never drops an item.
	collected := FanOut(ctx, indexed, DefaultFanOutLimit,
		func(ctx context.Context, item indexedRequest) (indexedResult, error) {
			return indexedResult{
				idx:    item.idx,
				result: i.importOne(ctx, accountID, item.request),
			}, nil
		})

	results := make([]ImportResult, len(requests))
	for _, item := range collected {
		results[item.idx] = item.result
	}
	return results
}

func (i *Importer) importOne(ctx context.Context, accountID string, request ImportRequest) ImportResult {
	resource, ok := i.resolver.ResolveResource(ctx, accountID, request.ID)
	if !ok {
		return ImportResult{ID: request.ID, Status: ImportFail, Message: msgDatabaseNotFound}
	}

	connection, ok := i.resolver.ResolveConnection(ctx, accountID, resource)
	if !ok {
		return ImportResult{ID: request.ID, Status: ImportFail, Message: msgNoConnectionDetails}
	}

	provider := ProviderAzureCache
	if resource.Family == FamilyEnterprise {
		provider = ProviderAzureCacheEnterprise
	}

	_, err := i.store.Create(ctx, DatabaseRecord{
		Host:             connection.Host,
		Port:             connection.Port,
		Name:             resource.Name,
		NameFromProvider: resource.Name,
		Username:         connection.Username,
		Password:         connection.Password,
		TLS:              connection.TLS,
		Provider:         provider,
		ProviderDetails: ProviderDetails{
			SubscriptionID: connection.SubscriptionID,
			ResourceGroup:  connection.ResourceGroup,
			ResourceID:     connection.ResourceID,
			AzureAccountID: connection.AzureAccountID,
		},
	})
	if err != nil {
		log.Debugf("import of %s failed: %s", request.ID, err)
		return ImportResult{ID: request.ID, Status: ImportFail, Message: classifyImportError(err)}
	}

	log.Infof("imported %s", resource.Name)
	return ImportResult{ID: request.ID, Status: ImportSuccess}
}

// classifyImportError maps persistence failures to user-facing messages:
// Redis auth rejections get one fixed message, everything else passes
// through verbatim with a generic fallback for empty messages.
func classifyImportError(err error) string {
	message := err.Error()
	lower := strings.ToLower(message)
	for _, marker := range authRejectionMarkers {
		if strings.Contains(lower, marker) {
			return msgEntraAuthFailed
		}
	}
	if message == "" {
		return msgUnexpectedError
	}
	return message
}
