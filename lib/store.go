package lib

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"golang.org/x/xerrors"
)

const (
	ProviderAzureCache           = "AZURE_CACHE_REDIS"
	ProviderAzureCacheEnterprise = "AZURE_CACHE_REDIS_ENTERPRISE"
)

// DatabaseRecord is what the database-management service needs to persist
// one imported database.
type DatabaseRecord struct {
	Host             string          `json:"host"`
	Port             int             `json:"port"`
	Name             string          `json:"name"`
	NameFromProvider string          `json:"nameFromProvider"`
	Username         string          `json:"username,omitempty"`
	Password         string          `json:"password,omitempty"`
	TLS              bool            `json:"tls"`
	Provider         string          `json:"provider"`
	ProviderDetails  ProviderDetails `json:"providerDetails"`
}

type ProviderDetails struct {
	SubscriptionID string `json:"subscriptionId"`
	ResourceGroup  string `json:"resourceGroup"`
	ResourceID     string `json:"resourceId"`
	AzureAccountID string `json:"azureAccountId,omitempty"`
}

// DatabaseStore is the external persistence collaborator. Create returns
// the ID the service assigned; any failure comes back as an error for the
// import orchestrator to classify.
type DatabaseStore interface {
	Create(ctx context.Context, record DatabaseRecord) (string, error)
}

// HTTPStore talks to the database-management service over its REST API.
type HTTPStore struct {
	endpoint string
	client   *http.Client
}

func NewHTTPStore(endpoint string) *HTTPStore {
	return &HTTPStore{
		endpoint: endpoint,
		client:   &http.Client{Timeout: Timeout},
	}
}

func (s *HTTPStore) Create(ctx context.Context, record DatabaseRecord) (string, error) {
	body, err := json.Marshal(record)
	if err != nil {
		return "", xerrors.Errorf("encoding database record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"/api/databases", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", xerrors.Errorf("creating database %s: %w", record.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", xerrors.Errorf("database service returned %d: %s", resp.StatusCode, string(msg))
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", xerrors.Errorf("decoding create response: %w", err)
	}
	return created.ID, nil
}
