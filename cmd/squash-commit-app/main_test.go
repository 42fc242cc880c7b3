package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	gogithub "github.com/google/go-github/v68/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathantilsley/squash-commit-app/internal/squash/adapters/webhook"
	"github.com/nathantilsley/squash-commit-app/internal/squash/app"
	"github.com/nathantilsley/squash-commit-app/internal/squash/domain"
)

var pr42 = domain.PullRequestRef{Repo: domain.Repository{Owner: "acme", Name: "widgets"}, Number: 42}

type recordingEvents struct {
	events []domain.PullRequestEvent
}

func (r *recordingEvents) HandleEvent(_ context.Context, ev domain.PullRequestEvent) error {
	r.events = append(r.events, ev)
	return nil
}

func TestSendWebhook_AcceptedByServer(t *testing.T) {
	// given
	events := &recordingEvents{}
	handler := webhook.New(events, "s3cret", slog.New(slog.NewTextHandler(io.Discard, nil)))
	server := httptest.NewServer(handler.Routes())
	defer server.Close()

	details := &gogithub.PullRequest{
		Commits: gogithub.Ptr(1),
		Head:    &gogithub.PullRequestBranch{Ref: gogithub.Ptr("feature-x"), SHA: gogithub.Ptr("abc123")},
	}
	cfg := triggerConfig{
		webhookURL: server.URL + "/webhook",
		secret:     "s3cret",
		installID:  99,
		action:     "opened",
	}
	payload := buildWebhookPayload(details, pr42, cfg.action, cfg.installID)

	// when
	var out bytes.Buffer
	err := sendWebhook(context.Background(), &out, cfg, payload, pr42, details)

	// then
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Webhook accepted (status 200)")
	require.Len(t, events.events, 1)
	assert.Equal(t, domain.EventOpened, events.events[0].Kind)
	assert.Equal(t, pr42, events.events[0].PullRequest)
	assert.Equal(t, int64(99), events.events[0].InstallationID)
	assert.NotEmpty(t, events.events[0].DeliveryID)
}

func TestSendWebhook_WrongSecret(t *testing.T) {
	// given
	handler := webhook.New(&recordingEvents{}, "s3cret", slog.New(slog.NewTextHandler(io.Discard, nil)))
	server := httptest.NewServer(handler.Routes())
	defer server.Close()

	details := &gogithub.PullRequest{}
	cfg := triggerConfig{webhookURL: server.URL + "/webhook", secret: "other", installID: 1, action: "opened"}

	// when
	var out bytes.Buffer
	err := sendWebhook(context.Background(), &out, cfg, buildWebhookPayload(details, pr42, "opened", 1), pr42, details)

	// then
	assert.ErrorContains(t, err, "status 401")
}

func TestResolveToken(t *testing.T) {
	t.Run("flag wins", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "from-env")

		token, err := resolveToken("from-flag", "")

		require.NoError(t, err)
		assert.Equal(t, "from-flag", token)
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "from-env")

		token, err := resolveToken("", "")

		require.NoError(t, err)
		assert.Equal(t, "from-env", token)
	})
}

func TestPrintResult(t *testing.T) {
	snap := domain.PullRequestSnapshot{CommitCount: 1, HeadSHA: "abc123", HeadBranch: "feature-x"}
	head := domain.Commit{SHA: "abc123", TreeSHA: "tree999", Message: "Add widget\n"}

	tests := []struct {
		name   string
		result app.Result
		want   []string
	}{
		{
			name: "rewritten",
			result: app.Result{
				State: domain.StateDone, Snapshot: snap, Head: head,
				Created: domain.Commit{SHA: "new456"},
			},
			want: []string{"rewritten", "abc123 -> new456"},
		},
		{
			name: "dry run shows message diff",
			result: app.Result{
				State: domain.StateDone, Snapshot: snap, Head: head,
				Planned: head.EmptyChild(), Reason: app.ReasonDryRun,
			},
			want: []string{"would write", "-Add widget", "+empty commit to preset"},
		},
		{
			name: "skipped",
			result: app.Result{
				State: domain.StateDone, Snapshot: domain.PullRequestSnapshot{CommitCount: 3},
				Reason: app.ReasonMultipleCommits,
			},
			want: []string{"skipped", app.ReasonMultipleCommits},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			printResult(&out, pr42, tt.result)

			for _, w := range tt.want {
				assert.True(t, strings.Contains(out.String(), w), "output %q missing %q", out.String(), w)
			}
		})
	}
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := newRootCmd()

	names := make([]string, 0, len(cmd.Commands()))
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}

	assert.Subset(t, names, []string{"serve", "run", "trigger"})
}
