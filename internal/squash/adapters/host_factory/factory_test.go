package hostfactory

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathantilsley/squash-commit-app/internal/squash/domain"
)

func testPrivateKey(t *testing.T) []byte {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
}

func TestAppFactory(t *testing.T) {
	t.Run("caches one host per installation", func(t *testing.T) {
		// given
		factory, err := NewAppFactory(12345, testPrivateKey(t), "", 0)
		require.NoError(t, err)

		// when
		first, err := factory.ForInstallation(1)
		require.NoError(t, err)
		again, err := factory.ForInstallation(1)
		require.NoError(t, err)
		other, err := factory.ForInstallation(2)
		require.NoError(t, err)

		// then
		assert.Same(t, first, again)
		assert.NotSame(t, first, other)
	})

	t.Run("rejects missing installation id", func(t *testing.T) {
		factory, err := NewAppFactory(12345, testPrivateKey(t), "", 0)
		require.NoError(t, err)

		_, err = factory.ForInstallation(0)

		assert.Error(t, err)
	})

	t.Run("rejects invalid private key", func(t *testing.T) {
		_, err := NewAppFactory(12345, []byte("not a key"), "", 0)

		assert.Error(t, err)
	})

	t.Run("enterprise base url", func(t *testing.T) {
		// given
		server := newEnterpriseServer(t)
		factory, err := NewAppFactory(12345, testPrivateKey(t), server.URL+"/api/v3/", 0)
		require.NoError(t, err)
		host, err := factory.ForInstallation(7)
		require.NoError(t, err)

		// when
		snap, err := host.InspectPullRequest(context.Background(), pr42)

		// then
		require.NoError(t, err)
		server.mu.Lock()
		defer server.mu.Unlock()
		assert.Equal(t, "abc123", snap.HeadSHA)
		assert.Equal(t, 1, server.tokenRequests)
		assert.Contains(t, server.tokenAuth, "Bearer ")
		assert.Equal(t, "token ghs_installation", server.apiAuth)
	})
}

var pr42 = domain.PullRequestRef{Repo: domain.Repository{Owner: "acme", Name: "widgets"}, Number: 42}

// enterpriseServer answers the installation token exchange and one pull
// request, both under the /api/v3/ prefix of GitHub Enterprise Server.
type enterpriseServer struct {
	*httptest.Server

	mu            sync.Mutex
	tokenRequests int
	tokenAuth     string
	apiAuth       string
}

func newEnterpriseServer(t *testing.T) *enterpriseServer {
	t.Helper()
	s := &enterpriseServer{}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v3/app/installations/7/access_tokens", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.tokenRequests++
		s.tokenAuth = r.Header.Get("Authorization")
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"token":      "ghs_installation",
			"expires_at": time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
		}))
	})
	mux.HandleFunc("GET /api/v3/repos/acme/widgets/pulls/42", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.apiAuth = r.Header.Get("Authorization")
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"number":  42,
			"commits": 1,
			"head":    map[string]any{"sha": "abc123", "ref": "feature-x"},
		}))
	})

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func TestTokenFactory(t *testing.T) {
	t.Run("same host for every installation", func(t *testing.T) {
		factory, err := NewTokenFactory(context.Background(), "ghp_test", "", 0)
		require.NoError(t, err)

		a, err := factory.ForInstallation(1)
		require.NoError(t, err)
		b, err := factory.ForInstallation(0)
		require.NoError(t, err)

		assert.Same(t, a, b)
	})

	t.Run("enterprise base url", func(t *testing.T) {
		// given
		server := newEnterpriseServer(t)
		factory, err := NewTokenFactory(context.Background(), "ghp_test", server.URL+"/api/v3/", 0)
		require.NoError(t, err)
		host, err := factory.ForInstallation(0)
		require.NoError(t, err)

		// when
		snap, err := host.InspectPullRequest(context.Background(), pr42)

		// then
		require.NoError(t, err)
		server.mu.Lock()
		defer server.mu.Unlock()
		assert.Equal(t, "feature-x", snap.HeadBranch)
		assert.Equal(t, "Bearer ghp_test", server.apiAuth)
		assert.Zero(t, server.tokenRequests)
	})

	t.Run("requires token", func(t *testing.T) {
		_, err := NewTokenFactory(context.Background(), "", "", 0)

		assert.Error(t, err)
	})
}
