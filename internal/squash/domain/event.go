package domain

// EventKind is the action of a pull_request webhook delivery.
type EventKind string

const (
	EventOpened      EventKind = "opened"
	EventReopened    EventKind = "reopened"
	EventSynchronize EventKind = "synchronize"
)

// Actionable reports whether deliveries of this kind start a workflow.
// All actionable kinds are handled identically.
func (k EventKind) Actionable() bool {
	switch k {
	case EventOpened, EventReopened, EventSynchronize:
		return true
	}
	return false
}

// PullRequestEvent is a pull_request delivery reduced to what the workflow needs.
type PullRequestEvent struct {
	Kind           EventKind
	PullRequest    PullRequestRef
	InstallationID int64
	DeliveryID     string
}
