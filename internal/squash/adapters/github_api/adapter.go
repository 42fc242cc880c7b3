// Package githubapi implements the git host ports against the GitHub REST API.
package githubapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	gogithub "github.com/google/go-github/v68/github"

	"github.com/nathantilsley/squash-commit-app/internal/squash/domain"
)

// Adapter implements ports.GitHostPort using go-github.
type Adapter struct {
	client *gogithub.Client
}

// New creates a new GitHub API adapter.
func New(client *gogithub.Client) *Adapter {
	return &Adapter{client: client}
}

// InspectPullRequest fetches the commit count and head of a pull request.
func (a *Adapter) InspectPullRequest(
	ctx context.Context,
	ref domain.PullRequestRef,
) (domain.PullRequestSnapshot, error) {
	pr, _, err := a.client.PullRequests.Get(ctx, ref.Repo.Owner, ref.Repo.Name, ref.Number)
	if err != nil {
		return domain.PullRequestSnapshot{}, classify(
			"getting pull request", err, domain.NewNotFoundError("pull request", ref.String()),
		)
	}

	head := pr.GetHead()
	return domain.PullRequestSnapshot{
		CommitCount: pr.GetCommits(),
		HeadSHA:     head.GetSHA(),
		HeadBranch:  head.GetRef(),
		HeadRepo: domain.Repository{
			Owner: head.GetRepo().GetOwner().GetLogin(),
			Name:  head.GetRepo().GetName(),
		},
	}, nil
}

// ReadCommit fetches a git commit object.
func (a *Adapter) ReadCommit(ctx context.Context, repo domain.Repository, sha string) (domain.Commit, error) {
	c, _, err := a.client.Git.GetCommit(ctx, repo.Owner, repo.Name, sha)
	if err != nil {
		return domain.Commit{}, classify("getting commit", err, domain.NewNotFoundError("commit", sha))
	}
	return toDomainCommit(c), nil
}

// CreateCommit stores a new commit object. It does not move any ref.
func (a *Adapter) CreateCommit(ctx context.Context, repo domain.Repository, c domain.Commit) (domain.Commit, error) {
	parents := make([]*gogithub.Commit, 0, len(c.ParentSHAs))
	for _, sha := range c.ParentSHAs {
		parents = append(parents, &gogithub.Commit{SHA: gogithub.Ptr(sha)})
	}

	created, _, err := a.client.Git.CreateCommit(ctx, repo.Owner, repo.Name, &gogithub.Commit{
		Message: gogithub.Ptr(c.Message),
		Tree:    &gogithub.Tree{SHA: gogithub.Ptr(c.TreeSHA)},
		Parents: parents,
	}, nil)
	if err != nil {
		return domain.Commit{}, writeFailure("creating commit", err)
	}
	return toDomainCommit(created), nil
}

// UpdateRef moves a branch to u.NewSHA only while it still points at
// u.ExpectedSHA. The current value is checked first, then the update is sent
// without force so GitHub's fast-forward check rejects any move that lands
// in between. A deleted branch counts as moved.
func (a *Adapter) UpdateRef(ctx context.Context, repo domain.Repository, u domain.RefUpdate) error {
	current, _, err := a.client.Git.GetRef(ctx, repo.Owner, repo.Name, u.RefName())
	if err != nil {
		if statusCode(err) == http.StatusNotFound {
			return domain.NewConflictError(u.Branch, u.ExpectedSHA, "")
		}
		return writeFailure("getting ref", err)
	}
	if actual := current.GetObject().GetSHA(); actual != u.ExpectedSHA {
		return domain.NewConflictError(u.Branch, u.ExpectedSHA, actual)
	}

	_, _, err = a.client.Git.UpdateRef(ctx, repo.Owner, repo.Name, &gogithub.Reference{
		Ref:    gogithub.Ptr(u.RefName()),
		Object: &gogithub.GitObject{SHA: gogithub.Ptr(u.NewSHA)},
	}, false)
	if err != nil {
		if rejectedAsStale(err) {
			return domain.NewConflictError(u.Branch, u.ExpectedSHA, "")
		}
		return writeFailure("updating ref", err)
	}
	return nil
}

func toDomainCommit(c *gogithub.Commit) domain.Commit {
	parents := make([]string, 0, len(c.Parents))
	for _, p := range c.Parents {
		parents = append(parents, p.GetSHA())
	}
	return domain.Commit{
		SHA:        c.GetSHA(),
		TreeSHA:    c.GetTree().GetSHA(),
		ParentSHAs: parents,
		Message:    c.GetMessage(),
	}
}

// classify maps go-github errors onto the domain error taxonomy. Missing or
// inaccessible resources become notFound; rate limiting, server errors and
// transport failures become transient.
func classify(op string, err error, notFound *domain.NotFoundError) error {
	var rateErr *gogithub.RateLimitError
	var abuseErr *gogithub.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return domain.NewTransientError(op, err)
	}

	switch code := statusCode(err); {
	case code == 0:
		// No HTTP response: timeout, cancellation or connection failure.
		return domain.NewTransientError(op, err)
	case code == http.StatusUnauthorized,
		code == http.StatusForbidden,
		code == http.StatusNotFound,
		code == http.StatusUnprocessableEntity:
		return fmt.Errorf("%s: %w", op, notFound)
	case code >= http.StatusInternalServerError, code == http.StatusTooManyRequests:
		return domain.NewTransientError(op, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// writeFailure classifies a failed write. Writes only fail with a conflict
// or a transient error; a refused write (missing permission, unknown tree)
// is reported as transient with the API error kept for the logs.
func writeFailure(op string, err error) error {
	return domain.NewTransientError(op, err)
}

// rejectedAsStale reports whether GitHub refused a non-forced ref update
// because the branch no longer descends from the expected commit.
func rejectedAsStale(err error) bool {
	var errResp *gogithub.ErrorResponse
	if !errors.As(err, &errResp) || errResp.Response == nil {
		return false
	}
	switch errResp.Response.StatusCode {
	case http.StatusConflict:
		return true
	case http.StatusUnprocessableEntity:
		return strings.Contains(strings.ToLower(errResp.Message), "fast forward")
	default:
		return false
	}
}

func statusCode(err error) int {
	var errResp *gogithub.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return errResp.Response.StatusCode
	}
	return 0
}
