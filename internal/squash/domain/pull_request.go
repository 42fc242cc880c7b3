package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Repository identifies a remote repository.
type Repository struct {
	Owner string
	Name  string
}

func (r Repository) String() string {
	return r.Owner + "/" + r.Name
}

// PullRequestRef identifies a single pull request.
type PullRequestRef struct {
	Repo   Repository
	Number int
}

func (r PullRequestRef) String() string {
	return fmt.Sprintf("%s#%d", r.Repo, r.Number)
}

// PullRequestSnapshot is a point-in-time view of a pull request's head.
// It goes stale as soon as a new commit lands on the head branch.
type PullRequestSnapshot struct {
	CommitCount int
	HeadSHA     string
	HeadBranch  string
	HeadRepo    Repository // zero when the host did not report it
}

// SingleCommit reports whether the pull request is eligible for a rewrite.
func (s PullRequestSnapshot) SingleCommit() bool {
	return s.CommitCount <= 1
}

// FromFork reports whether the head branch lives outside base.
func (s PullRequestSnapshot) FromFork(base Repository) bool {
	if s.HeadRepo == (Repository{}) {
		return false
	}
	return !strings.EqualFold(s.HeadRepo.Owner, base.Owner) || !strings.EqualFold(s.HeadRepo.Name, base.Name)
}

var (
	// Accepted forms:
	//   - https://github.com/owner/repo/pull/123[/files]
	//   - owner/repo/pull/123
	//   - owner/repo/pr/123
	//   - owner/repo#123
	prURLPattern   = regexp.MustCompile(`github\.com/([^/]+)/([^/]+)/pull/(\d+)(?:/.*)?$`)
	prPathPattern  = regexp.MustCompile(`^([^/]+)/([^/]+)/(?:pull|pr)/(\d+)$`)
	prShortPattern = regexp.MustCompile(`^([^/]+)/([^/#]+)#(\d+)$`)
)

// ParsePullRequestRef parses a pull request reference from a URL or a short
// owner/repo#123 form.
func ParsePullRequestRef(s string) (PullRequestRef, error) {
	s = strings.TrimSpace(s)

	for _, re := range []*regexp.Regexp{prURLPattern, prPathPattern, prShortPattern} {
		matches := re.FindStringSubmatch(s)
		if len(matches) != 4 {
			continue
		}
		num, err := strconv.Atoi(matches[3])
		if err != nil {
			return PullRequestRef{}, fmt.Errorf("invalid PR number: %w", err)
		}
		if num <= 0 {
			return PullRequestRef{}, fmt.Errorf("invalid PR number: %d", num)
		}
		return PullRequestRef{
			Repo:   Repository{Owner: matches[1], Name: matches[2]},
			Number: num,
		}, nil
	}

	return PullRequestRef{}, fmt.Errorf(
		"invalid pull request reference %q, expected owner/repo#123 or https://github.com/owner/repo/pull/123",
		s,
	)
}
