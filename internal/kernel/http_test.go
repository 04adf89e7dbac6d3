package kernel_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/orderdesk/internal/kernel"
	"github.com/shashiranjanraj/orderdesk/internal/testdb"
	"github.com/shashiranjanraj/orderdesk/pkg/database"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealth(t *testing.T) {
	testdb.Open(t)
	k, err := kernel.NewHTTPKernel(nil)
	require.NoError(t, err)

	w := get(t, k.Handler(), "/health")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Data["database"])
	assert.Equal(t, "disabled", body.Data["cache"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	restore := database.SetTestDB(nil)
	defer restore()
	assert.Equal(t, http.StatusServiceUnavailable, get(t, k.Handler(), "/health").Code)
}

func TestKernelFallbacks(t *testing.T) {
	testdb.Open(t)
	k, err := kernel.NewHTTPKernel(nil)
	require.NoError(t, err)

	w := get(t, k.Handler(), "/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Not found")

	w = httptest.NewRecorder()
	k.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = get(t, k.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "go_goroutines"))

	names := map[string]bool{}
	for _, r := range k.Router().Routes() {
		names[r.Name] = true
	}
	for _, n := range []string{"health", "orders.index", "orders.destroy", "graphql.post", "ws.orders.form"} {
		assert.True(t, names[n], n)
	}
	assert.False(t, names["ws.orders.feed"], "no feed without a hub")
}
