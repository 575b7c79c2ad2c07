package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listflow/listflow/internal/runtime"
)

const webhookConfig = "- onTrigger\n" +
	"    - set: greeting value: hello {{name}}\n" +
	"    - return: {{greeting}}\n"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := NewServer(runtime.NewEngine())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestTriggerEndpointExecutesSequence(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/triggers/onTrigger", map[string]any{
		"config":    webhookConfig,
		"sourceTag": "#hello",
		"docPath":   "a.md",
		"vars":      map[string]any{"name": "world"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Success bool   `json:"success"`
		Value   any    `json:"value"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.True(t, out.Success, "error: %s", out.Error)
	assert.Equal(t, "hello world", out.Value)
}

func TestTriggerEndpointUnknownKind(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/triggers/onWhatever", map[string]any{"config": webhookConfig})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTriggerEndpointBadConfig(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/triggers/onTrigger", map[string]any{
		"config": "just prose, no triggers",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestValidateEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/configs/validate", map[string]any{
		"config":    webhookConfig,
		"sourceTag": "#hello",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Valid    bool     `json:"valid"`
		Triggers []string `json:"triggers"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out.Valid)
	assert.Equal(t, []string{"onTrigger"}, out.Triggers)
}

func TestValidateEndpointInvalidConfig(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/configs/validate", map[string]any{"config": "nothing here"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Valid bool   `json:"valid"`
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.False(t, out.Valid)
	assert.NotEmpty(t, out.Error)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Fire one trigger so the counter has a sample.
	postJSON(t, ts.URL+"/v1/triggers/onTrigger", map[string]any{
		"config":    webhookConfig,
		"sourceTag": "#hello",
		"vars":      map[string]any{"name": "x"},
	})

	mresp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer mresp.Body.Close()
	data, err := io.ReadAll(mresp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "listflow_triggers_total")
}
