package httpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_ = json.NewEncoder(w).Encode(map[string]string{"name": "Null Audio Backend"})
	}))
	defer srv.Close()

	var out map[string]string
	require.NoError(t, GetJSON(context.Background(), nil, srv.URL, &out))
	assert.Equal(t, "Null Audio Backend", out["name"])
}

func TestSendJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(map[string]any{"switched": in["backend"] == "none"})
	}))
	defer srv.Close()

	var out map[string]bool
	err := SendJSON(context.Background(), NewClient(DefaultTimeout), http.MethodPut, srv.URL,
		map[string]string{"backend": "none"}, &out)
	require.NoError(t, err)
	assert.True(t, out["switched"])
}

func TestStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown backend", http.StatusBadRequest)
	}))
	defer srv.Close()

	err := GetJSON(context.Background(), nil, srv.URL, nil)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.Equal(t, "unknown backend", se.Body)
}
