// Package memory provides an in-memory git host with the same contracts as
// the GitHub adapter: content-addressed commits and compare-and-swap refs.
package memory

import (
	"context"
	"crypto/sha1" //nolint:gosec // G505: matches git object hashing, not used for security
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/nathantilsley/squash-commit-app/internal/squash/domain"
)

// Op names a host operation for failure injection and call counting.
type Op string

const (
	OpInspect      Op = "inspect"
	OpReadCommit   Op = "read-commit"
	OpCreateCommit Op = "create-commit"
	OpUpdateRef    Op = "update-ref"
)

type pullRequest struct {
	headRepo domain.Repository
	branch   string
	commits  int
}

type repoState struct {
	pulls    map[int]pullRequest
	commits  map[string]domain.Commit
	branches map[string]string
}

// Host implements ports.GitHostPort in memory. It is safe for concurrent use.
type Host struct {
	mu    sync.Mutex
	repos map[domain.Repository]*repoState
	fail  map[Op]error
	calls map[Op]int

	// BeforeUpdateRef, when set, runs before the compare-and-swap with the
	// host unlocked. Tests use it to land a concurrent push.
	BeforeUpdateRef func(repo domain.Repository, u domain.RefUpdate)
}

// NewHost creates an empty host.
func NewHost() *Host {
	return &Host{
		repos: make(map[domain.Repository]*repoState),
		fail:  make(map[Op]error),
		calls: make(map[Op]int),
	}
}

func (h *Host) repo(r domain.Repository) *repoState {
	st, ok := h.repos[r]
	if !ok {
		st = &repoState{
			pulls:    make(map[int]pullRequest),
			commits:  make(map[string]domain.Commit),
			branches: make(map[string]string),
		}
		h.repos[r] = st
	}
	return st
}

// AddCommit stores c. When c.SHA is empty it is derived from the content.
func (h *Host) AddCommit(repo domain.Repository, c domain.Commit) domain.Commit {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.storeCommit(repo, c)
}

func (h *Host) storeCommit(repo domain.Repository, c domain.Commit) domain.Commit {
	if c.SHA == "" {
		c.SHA = hashCommit(c)
	}
	c.ParentSHAs = append([]string(nil), c.ParentSHAs...)
	h.repo(repo).commits[c.SHA] = c
	return c
}

// SetBranch points branch at sha unconditionally, like a force push.
func (h *Host) SetBranch(repo domain.Repository, branch, sha string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.repo(repo).branches[branch] = sha
}

// Branch returns the sha a branch points at.
func (h *Host) Branch(repo domain.Repository, branch string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sha, ok := h.repo(repo).branches[branch]
	return sha, ok
}

// Commit returns a stored commit.
func (h *Host) Commit(repo domain.Repository, sha string) (domain.Commit, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.repo(repo).commits[sha]
	return c, ok
}

// AddPullRequest registers a pull request whose head is the given branch.
func (h *Host) AddPullRequest(pr domain.PullRequestRef, branch string, commits int) {
	h.AddForkPullRequest(pr, pr.Repo, branch, commits)
}

// AddForkPullRequest registers a pull request whose head is a branch of
// headRepo.
func (h *Host) AddForkPullRequest(pr domain.PullRequestRef, headRepo domain.Repository, branch string, commits int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.repo(pr.Repo).pulls[pr.Number] = pullRequest{headRepo: headRepo, branch: branch, commits: commits}
}

// FailOn makes every subsequent call of op return err. A nil err clears it.
func (h *Host) FailOn(op Op, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err == nil {
		delete(h.fail, op)
		return
	}
	h.fail[op] = err
}

// Calls returns how many times op was invoked.
func (h *Host) Calls(op Op) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls[op]
}

func (h *Host) begin(op Op) error {
	h.calls[op]++
	return h.fail[op]
}

// InspectPullRequest implements ports.PullRequestPort.
func (h *Host) InspectPullRequest(
	_ context.Context,
	ref domain.PullRequestRef,
) (domain.PullRequestSnapshot, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.begin(OpInspect); err != nil {
		return domain.PullRequestSnapshot{}, err
	}
	st := h.repo(ref.Repo)
	pr, ok := st.pulls[ref.Number]
	if !ok {
		return domain.PullRequestSnapshot{}, domain.NewNotFoundError("pull request", ref.String())
	}
	return domain.PullRequestSnapshot{
		CommitCount: pr.commits,
		HeadSHA:     h.repo(pr.headRepo).branches[pr.branch],
		HeadBranch:  pr.branch,
		HeadRepo:    pr.headRepo,
	}, nil
}

// ReadCommit implements ports.CommitPort.
func (h *Host) ReadCommit(_ context.Context, repo domain.Repository, sha string) (domain.Commit, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.begin(OpReadCommit); err != nil {
		return domain.Commit{}, err
	}
	c, ok := h.repo(repo).commits[sha]
	if !ok {
		return domain.Commit{}, domain.NewNotFoundError("commit", sha)
	}
	return c, nil
}

// CreateCommit implements ports.CommitPort.
func (h *Host) CreateCommit(_ context.Context, repo domain.Repository, c domain.Commit) (domain.Commit, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.begin(OpCreateCommit); err != nil {
		return domain.Commit{}, err
	}
	for _, p := range c.ParentSHAs {
		if _, ok := h.repo(repo).commits[p]; !ok {
			return domain.Commit{}, domain.NewTransientError("creating commit", fmt.Errorf("parent %s does not exist", p))
		}
	}
	c.SHA = ""
	return h.storeCommit(repo, c), nil
}

// UpdateRef implements ports.RefPort with compare-and-swap semantics.
func (h *Host) UpdateRef(_ context.Context, repo domain.Repository, u domain.RefUpdate) error {
	if h.BeforeUpdateRef != nil {
		h.BeforeUpdateRef(repo, u)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.begin(OpUpdateRef); err != nil {
		return err
	}
	st := h.repo(repo)
	current, ok := st.branches[u.Branch]
	if !ok {
		return domain.NewConflictError(u.Branch, u.ExpectedSHA, "")
	}
	if current != u.ExpectedSHA {
		return domain.NewConflictError(u.Branch, u.ExpectedSHA, current)
	}
	next, ok := st.commits[u.NewSHA]
	if !ok {
		return domain.NewTransientError("updating ref", fmt.Errorf("object %s does not exist", u.NewSHA))
	}
	st.branches[u.Branch] = u.NewSHA

	// A commit stacked on the old tip adds one commit to every pull request
	// whose head is this branch.
	if slices.Contains(next.ParentSHAs, current) {
		for n, pr := range st.pulls {
			if pr.headRepo == repo && pr.branch == u.Branch {
				pr.commits++
				st.pulls[n] = pr
			}
		}
	}
	return nil
}

// hashCommit derives a sha from the commit content in git's commit layout.
func hashCommit(c domain.Commit) string {
	var body strings.Builder
	fmt.Fprintf(&body, "tree %s\n", c.TreeSHA)
	for _, p := range c.ParentSHAs {
		fmt.Fprintf(&body, "parent %s\n", p)
	}
	fmt.Fprintf(&body, "\n%s", c.Message)

	//nolint:gosec // G401: see import
	sum := sha1.Sum([]byte(fmt.Sprintf("commit %d\x00%s", body.Len(), body.String())))
	return hex.EncodeToString(sum[:])
}
