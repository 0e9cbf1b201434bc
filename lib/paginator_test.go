package lib

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchAllPagesFollowsNextLink(t *testing.T) {
	var calls int32

	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `{"value": ["c"]}`)
			return
		}
		fmt.Fprintf(w, `{"value": ["a", "b"], "nextLink": %q}`, server.URL+"/items?page=2")
	}))
	defer server.Close()

	items, err := FetchAllPages[string](context.Background(), server.Client(), server.URL+"/items", "tok")
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, items)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestFetchAllPagesSinglePage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"value": ["only"], "nextLink": null}`)
	}))
	defer server.Close()

	items, err := FetchAllPages[string](context.Background(), server.Client(), server.URL, "tok")
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, items)
}

func TestFetchAllPagesMidStreamFailure(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			http.Error(w, "throttled", http.StatusTooManyRequests)
			return
		}
		fmt.Fprintf(w, `{"value": ["a"], "nextLink": %q}`, server.URL+"?page=2")
	}))
	defer server.Close()

	items, err := FetchAllPages[string](context.Background(), server.Client(), server.URL, "tok")
	require.Error(t, err)
	// No partial results survive a mid-stream failure.
	assert.Nil(t, items)
	assert.Contains(t, err.Error(), "429")
}

func TestFetchAllPagesBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	_, err := FetchAllPages[string](context.Background(), server.Client(), server.URL, "tok")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
