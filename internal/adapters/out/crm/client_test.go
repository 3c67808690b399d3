package crm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/appupdate/internal/logging"
)

func TestClient_ValidateToken(t *testing.T) {
	var gotPath, gotAuth, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotMethod = r.Method
		if gotAuth == "Bearer good" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL+"/api/", logging.Discard())
	require.NoError(t, err)

	ok, err := client.ValidateToken(context.Background(), "good")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/1/validate-token", gotPath)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "Bearer good", gotAuth)

	ok, err = client.ValidateToken(context.Background(), "bad")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClient_ValidateToken_Non200IsRejected(t *testing.T) {
	for _, status := range []int{http.StatusCreated, http.StatusNoContent, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		}))

		client, err := NewClient(srv.URL, logging.Discard())
		require.NoError(t, err)

		ok, err := client.ValidateToken(context.Background(), "token")
		require.NoError(t, err)
		assert.False(t, ok, "status %d", status)
		srv.Close()
	}
}

func TestClient_ValidateToken_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, logging.Discard(), WithTimeout(20*time.Millisecond))
	require.NoError(t, err)

	ok, err := client.ValidateToken(context.Background(), "token")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient("not a url", logging.Discard())
	assert.Error(t, err)
}
