// Package ports declares the capabilities the rewrite workflow consumes.
package ports

import (
	"context"

	"github.com/nathantilsley/squash-commit-app/internal/squash/domain"
)

// PullRequestPort reads pull request head state.
type PullRequestPort interface {
	InspectPullRequest(ctx context.Context, pr domain.PullRequestRef) (domain.PullRequestSnapshot, error)
}

// CommitPort reads and writes commit objects.
type CommitPort interface {
	ReadCommit(ctx context.Context, repo domain.Repository, sha string) (domain.Commit, error)
	// CreateCommit stores c and returns it with its SHA set.
	CreateCommit(ctx context.Context, repo domain.Repository, c domain.Commit) (domain.Commit, error)
}

// RefPort moves branch refs with compare-and-swap semantics.
type RefPort interface {
	// UpdateRef must fail with a *domain.ConflictError when the branch is not
	// at u.ExpectedSHA.
	UpdateRef(ctx context.Context, repo domain.Repository, u domain.RefUpdate) error
}

// GitHostPort is the full capability set of a hosting platform.
type GitHostPort interface {
	PullRequestPort
	CommitPort
	RefPort
}

// HostFactoryPort resolves a host client for a GitHub App installation.
// Token-authenticated factories ignore the installation ID.
type HostFactoryPort interface {
	ForInstallation(installationID int64) (GitHostPort, error)
}

// MessageDiffPort renders a human-readable diff between two commit messages.
type MessageDiffPort interface {
	ComputeDiff(baseName, headName string, base, head []byte) string
}

// EventHandlerPort receives pull request deliveries from a transport.
type EventHandlerPort interface {
	HandleEvent(ctx context.Context, ev domain.PullRequestEvent) error
}
