package domain

import "testing"

func TestCommit_EmptyChild(t *testing.T) {
	parent := Commit{SHA: "abc123", TreeSHA: "tree999", Message: "Add widget"}

	child := parent.EmptyChild()

	if child.TreeSHA != "tree999" {
		t.Errorf("TreeSHA = %q, want %q", child.TreeSHA, "tree999")
	}
	if len(child.ParentSHAs) != 1 || child.ParentSHAs[0] != "abc123" {
		t.Errorf("ParentSHAs = %v, want [abc123]", child.ParentSHAs)
	}
	if child.Message != MarkerMessage {
		t.Errorf("Message = %q, want MarkerMessage", child.Message)
	}
	if child.SHA != "" {
		t.Errorf("SHA = %q, want empty until created", child.SHA)
	}
}

func TestCommit_Subject(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{name: "single line", message: "Fix typo", want: "Fix typo"},
		{name: "with body", message: "Fix typo\n\nLonger description", want: "Fix typo"},
		{name: "empty", message: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (Commit{Message: tt.message}).Subject(); got != tt.want {
				t.Errorf("Subject() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCommit_IsMarker(t *testing.T) {
	if !(Commit{Message: MarkerMessage + "\n"}).IsMarker() {
		t.Error("IsMarker() = false for marker message with trailing newline")
	}
	if (Commit{Message: "Add widget"}).IsMarker() {
		t.Error("IsMarker() = true for regular commit")
	}
}

func TestRefUpdate_RefName(t *testing.T) {
	u := RefUpdate{Branch: "feature-x"}
	if got := u.RefName(); got != "heads/feature-x" {
		t.Errorf("RefName() = %q, want %q", got, "heads/feature-x")
	}
}

func TestEventKind_Actionable(t *testing.T) {
	tests := []struct {
		kind EventKind
		want bool
	}{
		{kind: EventOpened, want: true},
		{kind: EventReopened, want: true},
		{kind: EventSynchronize, want: true},
		{kind: "closed", want: false},
		{kind: "edited", want: false},
		{kind: "", want: false},
	}

	for _, tt := range tests {
		if got := tt.kind.Actionable(); got != tt.want {
			t.Errorf("EventKind(%q).Actionable() = %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestState_String(t *testing.T) {
	if got := StateWriting.String(); got != "writing" {
		t.Errorf("String() = %q, want %q", got, "writing")
	}
	if got := State(42).String(); got != "unknown" {
		t.Errorf("String() = %q, want %q", got, "unknown")
	}
	if !StateFailed.Terminal() || !StateDone.Terminal() || StateReading.Terminal() {
		t.Error("Terminal() misclassifies states")
	}
}
