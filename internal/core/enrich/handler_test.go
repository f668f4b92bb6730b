package enrich

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"placelink/internal/config"
	"placelink/internal/core/resolve"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandlerApp(t *testing.T, store *fakeStore, enq *fakeEnqueuer, cfg config.Config) *fiber.App {
	t.Helper()
	providers, err := config.LoadProviders("")
	require.NoError(t, err)

	svc := newTestService(store, &scriptedResolver{}, &fakePublisher{}, enq, cfg)
	h := NewHandler(svc, store, providers, cfg)

	app := fiber.New()
	app.Post("/v1/enrich", h.HandleCreate)
	app.Get("/v1/enrich/:provider/:placeId", h.HandleGet)
	return app
}

func postEnrich(t *testing.T, app *fiber.App, body map[string]interface{}) (*http.Response, createResponse) {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/v1/enrich", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var out createResponse
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp, out
}

func TestHandleCreateQueues(t *testing.T) {
	store := newFakeStore()
	enq := newFakeEnqueuer()
	cfg := testConfig()
	cfg.EnrichEnabled = true
	app := newHandlerApp(t, store, enq, cfg)

	resp, out := postEnrich(t, app, map[string]interface{}{
		"place_id": "place-1", "name": "Pizza House", "city_hint": "Tel Aviv",
	})

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.True(t, out.Queued)
	assert.NotEmpty(t, out.RequestID, "request id is generated when absent")
	assert.Len(t, enq.tasks, 1)
	assert.Contains(t, store.locks, "wolt/place-1", "lock held for the queued job")
}

func TestHandleCreateCacheHit(t *testing.T) {
	store := newFakeStore()
	url := "https://wolt.com/en/restaurant/pizza-house"
	store.entries["wolt/place-1"] = CacheEntry{URL: &url, Status: resolve.StatusFound, UpdatedAt: time.Now().UTC()}
	enq := newFakeEnqueuer()
	cfg := testConfig()
	cfg.EnrichEnabled = true
	app := newHandlerApp(t, store, enq, cfg)

	resp, out := postEnrich(t, app, map[string]interface{}{
		"place_id": "place-1", "name": "Pizza House",
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, out.Queued)
	require.NotNil(t, out.Entry)
	assert.Equal(t, resolve.StatusFound, out.Entry.Status)
	assert.Empty(t, enq.tasks, "cache hit never enqueues")
}

func TestHandleCreateLockHeld(t *testing.T) {
	store := newFakeStore()
	store.locks["wolt/place-1"] = "someone-else"
	enq := newFakeEnqueuer()
	cfg := testConfig()
	cfg.EnrichEnabled = true
	app := newHandlerApp(t, store, enq, cfg)

	resp, out := postEnrich(t, app, map[string]interface{}{
		"place_id": "place-1", "name": "Pizza House",
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, out.Queued)
	assert.Equal(t, "in_progress", out.Reason)
	assert.Empty(t, enq.tasks)
}

func TestHandleCreateValidation(t *testing.T) {
	cfg := testConfig()
	cfg.EnrichEnabled = true
	app := newHandlerApp(t, newFakeStore(), newFakeEnqueuer(), cfg)

	resp, _ := postEnrich(t, app, map[string]interface{}{"name": "Pizza House"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = postEnrich(t, app, map[string]interface{}{
		"place_id": "place-1", "name": "Pizza House", "provider": "nosuch",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleCreateDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.EnrichEnabled = false
	enq := newFakeEnqueuer()
	app := newHandlerApp(t, newFakeStore(), enq, cfg)

	resp, out := postEnrich(t, app, map[string]interface{}{
		"place_id": "place-1", "name": "Pizza House",
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, out.Queued)
	assert.Equal(t, "disabled", out.Reason)
	assert.Empty(t, enq.tasks)
}

func TestHandleGet(t *testing.T) {
	store := newFakeStore()
	url := "https://wolt.com/en/restaurant/pizza-house"
	store.entries["wolt/place-1"] = CacheEntry{URL: &url, Status: resolve.StatusFound, UpdatedAt: time.Now().UTC()}
	cfg := testConfig()
	cfg.EnrichEnabled = true
	app := newHandlerApp(t, store, newFakeEnqueuer(), cfg)

	req := httptest.NewRequest(http.MethodGet, "/v1/enrich/wolt/place-1", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/v1/enrich/wolt/missing", nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
