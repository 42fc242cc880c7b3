package domain

import "strings"

// MarkerMessage is the message of every empty commit written by the app.
const MarkerMessage = `empty commit to preset the squash & merge commit subject from the pull request title

Created by https://github.com/gr2m/squash-commit-app`

// Commit is an immutable, content-addressed commit object.
type Commit struct {
	SHA        string
	TreeSHA    string
	ParentSHAs []string
	Message    string
}

// Subject returns the first line of the commit message.
func (c Commit) Subject() string {
	subject, _, _ := strings.Cut(c.Message, "\n")
	return subject
}

// IsMarker reports whether the commit was written by the app.
func (c Commit) IsMarker() bool {
	return strings.TrimSpace(c.Message) == strings.TrimSpace(MarkerMessage)
}

// EmptyChild returns the commit that keeps c's tree, has c as sole parent
// and carries MarkerMessage. The SHA is assigned by the host on creation.
func (c Commit) EmptyChild() Commit {
	return Commit{
		TreeSHA:    c.TreeSHA,
		ParentSHAs: []string{c.SHA},
		Message:    MarkerMessage,
	}
}

// RefUpdate moves a branch from ExpectedSHA to NewSHA. Hosts must reject the
// update when the branch no longer points at ExpectedSHA.
type RefUpdate struct {
	Branch      string
	ExpectedSHA string
	NewSHA      string
}

// RefName returns the ref path in the form the GitHub git API expects.
func (u RefUpdate) RefName() string {
	return "heads/" + u.Branch
}
