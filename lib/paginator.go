package lib

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"golang.org/x/xerrors"
)

// listPage is the wire shape every ARM listing endpoint shares: a value
// array plus an optional nextLink cursor pointing at the next page.
type listPage[T any] struct {
	Value    []T     `json:"value"`
	NextLink *string `json:"nextLink"`
}

// FetchAllPages drains a paginated ARM listing: GET the initial URL, then
// follow nextLink until it is absent. Pages are fetched strictly in
// sequence, and a failure on any page discards everything fetched so far.
// There is deliberately no page-count cap; termination relies on the ARM
// contract that nextLink eventually disappears.
func FetchAllPages[T any](ctx context.Context, client *http.Client, initialURL, token string) ([]T, error) {
	var items []T

	next := initialURL
	for next != "" {
		page, err := fetchPage[T](ctx, client, next, token)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Value...)
		next = ""
		if page.NextLink != nil {
			next = *page.NextLink
		}
	}

	return items, nil
}

func fetchPage[T any](ctx context.Context, client *http.Client, pageURL, token string) (listPage[T], error) {
	var page listPage[T]

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return page, xerrors.Errorf("building request for %s: %w", pageURL, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return page, xerrors.Errorf("fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return page, xerrors.Errorf("unexpected status %d from %s: %s", resp.StatusCode, pageURL, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return page, xerrors.Errorf("decoding page from %s: %w", pageURL, err)
	}

	return page, nil
}
