package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nathantilsley/squash-commit-app/internal/squash/domain"
	"github.com/nathantilsley/squash-commit-app/internal/squash/ports"
)

// Dispatcher turns pull request deliveries into workflow runs. Deliveries are
// at-least-once and may arrive concurrently for the same pull request.
type Dispatcher struct {
	hosts  ports.HostFactoryPort
	logger *slog.Logger
	opts   []Option
}

// NewDispatcher creates a dispatcher that resolves hosts through hosts.
func NewDispatcher(hosts ports.HostFactoryPort, logger *slog.Logger, opts ...Option) *Dispatcher {
	return &Dispatcher{hosts: hosts, logger: logger, opts: opts}
}

// Deliver runs the workflow for an actionable event. Other actions return a
// result in StateIdle and no error.
func (d *Dispatcher) Deliver(ctx context.Context, ev domain.PullRequestEvent) (Result, error) {
	logger := d.logger.With("delivery", ev.DeliveryID, "action", string(ev.Kind))

	if !ev.Kind.Actionable() {
		logger.Debug("ignoring pull request action")
		return Result{State: domain.StateIdle, Trace: []domain.State{domain.StateIdle}, Reason: ReasonIgnoredAction}, nil
	}

	host, err := d.hosts.ForInstallation(ev.InstallationID)
	if err != nil {
		logger.Error("resolving installation client", "installation", ev.InstallationID, "error", err)
		return Result{State: domain.StateFailed}, fmt.Errorf("resolving installation %d: %w", ev.InstallationID, err)
	}

	logger.Info("pull request opened or synchronized", "pr", ev.PullRequest.String())
	return NewWorkflow(host, logger, d.opts...).Run(ctx, ev.PullRequest)
}

// HandleEvent implements ports.EventHandlerPort.
func (d *Dispatcher) HandleEvent(ctx context.Context, ev domain.PullRequestEvent) error {
	_, err := d.Deliver(ctx, ev)
	return err
}
