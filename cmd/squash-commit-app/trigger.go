package main

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	gogithub "github.com/google/go-github/v68/github"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nathantilsley/squash-commit-app/internal/squash/domain"
)

type triggerConfig struct {
	token      string
	webhookURL string
	secret     string
	installID  int64
	action     string
}

func newTriggerCmd() *cobra.Command {
	cfg := triggerConfig{}

	cmd := &cobra.Command{
		Use:   "trigger <pr-url>",
		Short: "Send a signed pull_request webhook to a running server",
		Long: `Fetch a pull request from GitHub and deliver a synthetic pull_request
webhook for it to a running squash-commit-app server. Useful for testing a
deployment without pushing to the pull request.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.resolve(); err != nil {
				return err
			}
			pr, err := domain.ParsePullRequestRef(args[0])
			if err != nil {
				return fmt.Errorf("parsing PR URL: %w", err)
			}

			ctx := cmd.Context()
			details, err := fetchPRDetails(ctx, cfg.token, pr)
			if err != nil {
				return err
			}

			payload := buildWebhookPayload(details, pr, cfg.action, cfg.installID)
			return sendWebhook(ctx, cmd.OutOrStdout(), cfg, payload, pr, details)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.token, "token", "", "GitHub personal access token (or use GITHUB_TOKEN env var)")
	f.StringVar(&cfg.webhookURL, "url", "http://localhost:8080/webhook", "Webhook URL")
	f.StringVar(&cfg.secret, "secret", "", "Webhook secret for signing (read from WEBHOOK_SECRET env var if not set)")
	f.Int64Var(&cfg.installID, "installation-id", 0,
		"GitHub App installation ID (read from GITHUB_INSTALLATION_ID env var if not set)")
	f.StringVar(&cfg.action, "action", string(domain.EventSynchronize), "Pull request action to send")
	return cmd
}

func (c *triggerConfig) resolve() error {
	c.token = getEnvOrFlag(c.token, "GITHUB_TOKEN")
	c.secret = getEnvOrFlag(c.secret, "WEBHOOK_SECRET")

	if c.token == "" {
		return errors.New("github token required\nProvide via --token flag or GITHUB_TOKEN env var")
	}
	if c.secret == "" {
		return errors.New("webhook secret required\nProvide via --secret flag or WEBHOOK_SECRET env var")
	}

	if c.installID == 0 {
		if idStr := os.Getenv("GITHUB_INSTALLATION_ID"); idStr != "" {
			id, err := strconv.ParseInt(idStr, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid GITHUB_INSTALLATION_ID: %w", err)
			}
			c.installID = id
		}
	}
	if c.installID == 0 {
		return errors.New(
			"github App installation ID required\nProvide via --installation-id flag or GITHUB_INSTALLATION_ID env var",
		)
	}
	return nil
}

func getEnvOrFlag(flagValue, envKey string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(envKey)
}

func fetchPRDetails(ctx context.Context, token string, pr domain.PullRequestRef) (*gogithub.PullRequest, error) {
	client := gogithub.NewClient(nil).WithAuthToken(token)
	details, _, err := client.PullRequests.Get(ctx, pr.Repo.Owner, pr.Repo.Name, pr.Number)
	if err != nil {
		return nil, fmt.Errorf("fetching PR: %w", err)
	}
	return details, nil
}

func buildWebhookPayload(details *gogithub.PullRequest, pr domain.PullRequestRef, action string, installID int64) []byte {
	payload := map[string]any{
		"action": action,
		"number": pr.Number,
		"pull_request": map[string]any{
			"number":  pr.Number,
			"commits": details.GetCommits(),
			"head": map[string]any{
				"ref": details.GetHead().GetRef(),
				"sha": details.GetHead().GetSHA(),
			},
		},
		"repository": map[string]any{
			"name":  pr.Repo.Name,
			"owner": map[string]any{"login": pr.Repo.Owner},
		},
		"installation": map[string]any{"id": installID},
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		panic(fmt.Sprintf("marshaling payload: %v", err)) // Should never fail with map[string]any
	}
	return payloadBytes
}

func sendWebhook(
	ctx context.Context,
	out io.Writer,
	cfg triggerConfig,
	payload []byte,
	pr domain.PullRequestRef,
	details *gogithub.PullRequest,
) error {
	fmt.Fprintf(out, "Sending %s webhook to %s...\n", cfg.action, cfg.webhookURL)
	fmt.Fprintf(out, "  PR: %s (%d commit(s))\n", pr, details.GetCommits())
	fmt.Fprintf(out, "  Head: %s (%s)\n\n", details.GetHead().GetRef(), details.GetHead().GetSHA())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", "pull_request")
	req.Header.Set("X-Hub-Signature-256", "sha256="+signPayload(payload, cfg.secret))
	req.Header.Set("X-GitHub-Delivery", uuid.NewString())

	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	//nolint:errcheck // Best effort read for logging only
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusAccepted {
		fmt.Fprintf(out, "✓ Webhook accepted (status %d)\n", resp.StatusCode)
		if len(body) > 0 {
			fmt.Fprintf(out, "Response: %s\n", string(body))
		}
		return nil
	}

	fmt.Fprintf(out, "✗ Webhook failed (status %d)\n", resp.StatusCode)
	if len(body) > 0 {
		fmt.Fprintf(out, "Response: %s\n", string(body))
	}
	return fmt.Errorf("webhook returned status %d", resp.StatusCode)
}

// signPayload creates HMAC SHA256 signature for the payload
func signPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
