package linediff

import (
	"strings"
	"testing"

	"github.com/nathantilsley/squash-commit-app/internal/squash/domain"
)

func TestAdapter_ComputeDiff(t *testing.T) {
	tests := []struct {
		name     string
		baseName string
		headName string
		base     []byte
		head     []byte
		want     string // Empty if no diff expected
	}{
		{
			name:     "identical messages return empty diff",
			baseName: "abc123",
			headName: "marker",
			base:     []byte("Add widget\n"),
			head:     []byte("Add widget\n"),
			want:     "",
		},
		{
			name:     "changed subject",
			baseName: "abc123",
			headName: "marker",
			base:     []byte("Fix typo\n"),
			head:     []byte("Fix typos\n"),
			want:     "--- abc123\n+++ marker\n@@ -1,2 +1,2 @@\n-Fix typo\n+Fix typos",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := New()
			got := adapter.ComputeDiff(tt.baseName, tt.headName, tt.base, tt.head)

			if tt.want == "" && got != "" {
				t.Errorf("ComputeDiff() expected empty diff, got:\n%s", got)
				return
			}

			if tt.want != "" && got == "" {
				t.Errorf("ComputeDiff() expected diff, got empty")
				return
			}

			if got != tt.want {
				t.Errorf("ComputeDiff() diff mismatch:\n--- Got ---\n%s\n--- Want ---\n%s", got, tt.want)
			}
		})
	}
}

func TestAdapter_ComputeDiff_MarkerPreview(t *testing.T) {
	adapter := New()

	diff := adapter.ComputeDiff("abc123", "squash-commit-app", []byte("Add widget\n"), []byte(domain.MarkerMessage))

	if !strings.Contains(diff, "-Add widget") {
		t.Errorf("expected removed subject '-Add widget' in:\n%s", diff)
	}
	if !strings.Contains(diff, "+empty commit to preset the squash & merge commit subject") {
		t.Errorf("expected marker subject in:\n%s", diff)
	}
	if !strings.HasPrefix(diff, "--- abc123\n+++ squash-commit-app\n") {
		t.Errorf("expected file headers, got:\n%s", diff)
	}
}
