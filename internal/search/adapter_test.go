package search

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"placelink/internal/core/resolve"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchParsesCandidates(t *testing.T) {
	var gotAuth, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"title":"Pizza House - Tel Aviv","url":"https://wolt.com/a","snippet":"Order now"},
			{"title":"Other","url":"https://wolt.com/b","snippet":""}
		]}`))
	}))
	defer srv.Close()

	a := NewHTTPAdapter(Options{Endpoint: srv.URL, APIKey: "secret"})
	candidates, err := a.Search(context.Background(), `"Pizza House" site:wolt.com`, 5)
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, `"Pizza House" site:wolt.com`, gotQuery)
	require.Len(t, candidates, 2)
	assert.Equal(t, "Pizza House - Tel Aviv", candidates[0].Title)
	assert.Equal(t, "https://wolt.com/a", candidates[0].URL)
}

func TestSearchTruncatesToLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"title":"a"},{"title":"b"},{"title":"c"}]}`))
	}))
	defer srv.Close()

	a := NewHTTPAdapter(Options{Endpoint: srv.URL})
	candidates, err := a.Search(context.Background(), "q", 2)
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
}

func TestSearchStatusErrors(t *testing.T) {
	tests := []struct {
		name      string
		code      int
		wantClass resolve.Class
	}{
		{name: "rate_limited", code: http.StatusTooManyRequests, wantClass: resolve.ClassTransient},
		{name: "server_error", code: http.StatusBadGateway, wantClass: resolve.ClassTransient},
		{name: "bad_request", code: http.StatusBadRequest, wantClass: resolve.ClassPermanent},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.code)
			}))
			defer srv.Close()

			a := NewHTTPAdapter(Options{Endpoint: srv.URL})
			_, err := a.Search(context.Background(), "q", 5)
			require.Error(t, err)

			var statusErr *resolve.StatusError
			require.True(t, errors.As(err, &statusErr))
			assert.Equal(t, tc.code, statusErr.Code)
			assert.Equal(t, tc.wantClass, resolve.Classify(err))
		})
	}
}

func TestSearchMalformedBodyIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	a := NewHTTPAdapter(Options{Endpoint: srv.URL})
	_, err := a.Search(context.Background(), "q", 5)
	require.Error(t, err)
	assert.Equal(t, resolve.ClassPermanent, resolve.Classify(err))
}
