package loadgen

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientOccurrences(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/occurrences", r.URL.Path)
		assert.Equal(t, []string{"111", "222"}, r.URL.Query()["code"])
		assert.Equal(t, "o1", r.URL.Query().Get("owner"))
		w.Write([]byte(`{"counts":{"111":3,"222":0}}`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	require.NoError(t, err)
	defer client.Close()

	counts, err := client.Occurrences(context.Background(), []string{"111", "222"}, "o1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts["111"])
	assert.Equal(t, int64(0), counts["222"])
}

func TestClientReferences(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/references/7310867001823", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"code":"7310867001823","references":[{},{}]}`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	require.NoError(t, err)
	defer client.Close()

	n, err := client.References(context.Background(), "7310867001823", "", 5)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestClientHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":"NOT_FOUND"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Occurrences(context.Background(), []string{"111"}, "")
	require.Error(t, err)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient("")
	assert.Error(t, err)

	_, err = NewClient("ftp://example.com")
	assert.Error(t, err)
}
