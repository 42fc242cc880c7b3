// Package app wires the rewrite workflow: inspect the pull request, read its
// head commit and replace the head with an empty marker commit.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nathantilsley/squash-commit-app/internal/squash/domain"
	"github.com/nathantilsley/squash-commit-app/internal/squash/ports"
)

// Reasons a run ends in StateDone without writing.
const (
	ReasonMultipleCommits  = "pull request has more than one commit"
	ReasonForkHead         = "head branch belongs to a fork"
	ReasonAlreadyRewritten = "head commit is already a marker commit"
	ReasonDryRun           = "dry run"
	ReasonIgnoredAction    = "action is not actionable"
)

// Result describes a single workflow run.
type Result struct {
	State    domain.State
	Trace    []domain.State // every state entered, in order
	Snapshot domain.PullRequestSnapshot
	Head     domain.Commit
	Planned  domain.Commit // commit that is (or would be) written
	Created  domain.Commit // zero unless a commit was created
	Reason   string        // set when the run ends without a write
}

// Rewritten reports whether the branch was moved.
func (r Result) Rewritten() bool {
	return r.State == domain.StateDone && r.Created.SHA != "" && r.Reason == ""
}

// Workflow runs the inspect, read, write sequence for one pull request.
// It holds no per-run state and may be shared between goroutines.
type Workflow struct {
	host   ports.GitHostPort
	logger *slog.Logger
	dryRun bool
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithDryRun stops every run after the head commit has been read.
func WithDryRun() Option {
	return func(w *Workflow) { w.dryRun = true }
}

// NewWorkflow creates a workflow against host.
func NewWorkflow(host ports.GitHostPort, logger *slog.Logger, opts ...Option) *Workflow {
	w := &Workflow{host: host, logger: logger}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type run struct {
	result Result
	logger *slog.Logger
}

func (r *run) enter(s domain.State) {
	r.result.State = s
	r.result.Trace = append(r.result.Trace, s)
	r.logger.Debug("workflow transition", "state", s.String())
}

func (r *run) done(reason string) Result {
	r.result.Reason = reason
	r.enter(domain.StateDone)
	return r.result
}

func (r *run) fail(err error, sha string) (Result, error) {
	failedIn := r.result.State
	r.enter(domain.StateFailed)

	attrs := []any{"state", failedIn.String(), "sha", sha, "error", err}
	if domain.IsConflict(err) {
		r.logger.Warn("branch moved during rewrite, leaving it alone", attrs...)
	} else {
		r.logger.Error("workflow failed", attrs...)
	}
	return r.result, err
}

// Run executes the workflow for pr. No step is retried; a failure leaves the
// result in StateFailed and returns the error for the caller to decide on
// redelivery.
func (w *Workflow) Run(ctx context.Context, pr domain.PullRequestRef) (Result, error) {
	r := &run{logger: w.logger.With("repo", pr.Repo.String(), "pr", pr.Number)}
	r.enter(domain.StateIdle)

	r.enter(domain.StateInspecting)
	snap, err := w.host.InspectPullRequest(ctx, pr)
	if err != nil {
		return r.fail(fmt.Errorf("inspecting pull request %s: %w", pr, err), "")
	}
	r.result.Snapshot = snap
	r.logger.Info("inspected pull request",
		"commits", snap.CommitCount, "head_sha", snap.HeadSHA, "head_branch", snap.HeadBranch)

	r.enter(domain.StateDeciding)
	if !snap.SingleCommit() {
		r.logger.Info("not a single commit pull request, skipping")
		return r.done(ReasonMultipleCommits), nil
	}
	if snap.FromFork(pr.Repo) {
		r.logger.Info("head branch is in a fork, skipping", "head_repo", snap.HeadRepo.String())
		return r.done(ReasonForkHead), nil
	}

	r.enter(domain.StateReading)
	head, err := w.host.ReadCommit(ctx, pr.Repo, snap.HeadSHA)
	if err != nil {
		return r.fail(fmt.Errorf("reading head commit: %w", err), snap.HeadSHA)
	}
	r.result.Head = head
	r.result.Planned = head.EmptyChild()

	if head.IsMarker() {
		r.logger.Info("head commit already rewritten, skipping", "sha", head.SHA)
		return r.done(ReasonAlreadyRewritten), nil
	}
	if w.dryRun {
		r.logger.Info("dry run, not writing", "sha", head.SHA, "tree", head.TreeSHA)
		return r.done(ReasonDryRun), nil
	}

	r.enter(domain.StateWriting)
	created, err := RewriteTip(ctx, w.host, pr.Repo, snap.HeadBranch, head)
	r.result.Created = created
	if err != nil {
		return r.fail(err, head.SHA)
	}
	r.result.Planned = created
	r.logger.Info("rewrote branch tip", "branch", snap.HeadBranch, "from", head.SHA, "to", created.SHA)

	return r.done(""), nil
}
