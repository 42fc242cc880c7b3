package app

import (
	"context"
	"fmt"

	"github.com/nathantilsley/squash-commit-app/internal/squash/domain"
	"github.com/nathantilsley/squash-commit-app/internal/squash/ports"
)

// CommitRefPort is the part of a git host the writer mutates.
type CommitRefPort interface {
	ports.CommitPort
	ports.RefPort
}

// RewriteTip creates an empty marker commit on top of parent and moves
// branch to it. parent must be the current tip of branch; if the branch has
// moved the ref update fails with a *domain.ConflictError and the branch is
// left untouched. The created commit is returned even when the ref update
// fails so callers can log it.
func RewriteTip(
	ctx context.Context,
	host CommitRefPort,
	repo domain.Repository,
	branch string,
	parent domain.Commit,
) (domain.Commit, error) {
	created, err := host.CreateCommit(ctx, repo, parent.EmptyChild())
	if err != nil {
		return domain.Commit{}, fmt.Errorf("creating empty commit on %s: %w", parent.SHA, err)
	}

	update := domain.RefUpdate{
		Branch:      branch,
		ExpectedSHA: parent.SHA,
		NewSHA:      created.SHA,
	}
	if err := host.UpdateRef(ctx, repo, update); err != nil {
		return created, fmt.Errorf("moving %s to %s: %w", branch, created.SHA, err)
	}
	return created, nil
}
