// Package hostfactory builds authenticated GitHub hosts for the workflow.
package hostfactory

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bradleyfalzon/ghinstallation/v2"
	gogithub "github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	githubapi "github.com/nathantilsley/squash-commit-app/internal/squash/adapters/github_api"
	"github.com/nathantilsley/squash-commit-app/internal/squash/ports"
)

// DefaultTimeout bounds every GitHub API request; a timeout surfaces as a
// transient error.
const DefaultTimeout = 30 * time.Second

// AppFactory authenticates as a GitHub App installation. Installation
// transports cache their tokens, so one adapter is kept per installation.
type AppFactory struct {
	apps    *ghinstallation.AppsTransport
	baseURL string
	timeout time.Duration

	mu    sync.Mutex
	hosts map[int64]*githubapi.Adapter
}

// NewAppFactory parses privateKey and prepares App authentication. baseURL is
// the API root for GitHub Enterprise Server and may be empty for github.com.
func NewAppFactory(appID int64, privateKey []byte, baseURL string, timeout time.Duration) (*AppFactory, error) {
	apps, err := ghinstallation.NewAppsTransport(http.DefaultTransport, appID, privateKey)
	if err != nil {
		return nil, fmt.Errorf("creating app transport: %w", err)
	}
	if baseURL != "" {
		apps.BaseURL = baseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &AppFactory{
		apps:    apps,
		baseURL: baseURL,
		timeout: timeout,
		hosts:   make(map[int64]*githubapi.Adapter),
	}, nil
}

// ForInstallation implements ports.HostFactoryPort.
func (f *AppFactory) ForInstallation(installationID int64) (ports.GitHostPort, error) {
	if installationID == 0 {
		return nil, errors.New("delivery has no installation id")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if host, ok := f.hosts[installationID]; ok {
		return host, nil
	}

	itr := ghinstallation.NewFromAppsTransport(f.apps, installationID)
	if f.baseURL != "" {
		itr.BaseURL = f.baseURL
	}
	client, err := newClient(&http.Client{Transport: itr, Timeout: f.timeout}, f.baseURL)
	if err != nil {
		return nil, err
	}

	host := githubapi.New(client)
	f.hosts[installationID] = host
	return host, nil
}

// TokenFactory authenticates every request with a single token, such as a
// personal access token or the gh CLI's stored credential.
type TokenFactory struct {
	host *githubapi.Adapter
}

// NewTokenFactory creates a factory that ignores installation IDs.
func NewTokenFactory(ctx context.Context, token, baseURL string, timeout time.Duration) (*TokenFactory, error) {
	if token == "" {
		return nil, errors.New("github token required")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = timeout

	client, err := newClient(tc, baseURL)
	if err != nil {
		return nil, err
	}
	return &TokenFactory{host: githubapi.New(client)}, nil
}

// ForInstallation implements ports.HostFactoryPort.
func (f *TokenFactory) ForInstallation(int64) (ports.GitHostPort, error) {
	return f.host, nil
}

func newClient(hc *http.Client, baseURL string) (*gogithub.Client, error) {
	client := gogithub.NewClient(hc)
	if baseURL == "" {
		return client, nil
	}
	client, err := client.WithEnterpriseURLs(baseURL, baseURL)
	if err != nil {
		return nil, fmt.Errorf("configuring enterprise URL %q: %w", baseURL, err)
	}
	return client, nil
}
