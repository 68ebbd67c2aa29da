package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"shortloop/internal/config"
	"shortloop/internal/discovery"
	"shortloop/internal/schedule"
	"shortloop/internal/services"
)

// ExecPublisher shells out to an external command for the actual upload. The
// command receives the item through SHORTLOOP_* environment variables and
// must print the platform-assigned permanent id on stdout.
type ExecPublisher struct {
	command string
	timeout time.Duration
}

// NewExecPublisher builds a publisher around cfg.Command.
func NewExecPublisher(cfg config.Publish) (*ExecPublisher, error) {
	if strings.TrimSpace(cfg.Command) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "publish", "init", "publish.command is not set", nil)
	}
	return &ExecPublisher{
		command: cfg.Command,
		timeout: time.Duration(cfg.CommandTimeoutSecs) * time.Second,
	}, nil
}

// Publish implements Publisher. A command that cannot be started at all
// marks the session fatal; a nonzero exit is retryable.
func (p *ExecPublisher) Publish(ctx context.Context, item discovery.Item, decision schedule.Decision) (string, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", p.command)
	cmd.Env = append(cmd.Environ(),
		"SHORTLOOP_EPHEMERAL_ID="+item.EphemeralID,
		"SHORTLOOP_SOURCE_ID="+item.SourceID,
		"SHORTLOOP_URL="+item.Candidate.URL,
		"SHORTLOOP_TITLE="+item.Metadata.Title,
		"SHORTLOOP_DESCRIPTION="+item.Metadata.Description,
		"SHORTLOOP_TAGS="+strings.Join(item.Metadata.Tags, ","),
		"SHORTLOOP_PUBLISH_AT="+publishAtValue(decision),
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("publish command exited %d: %s", exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		// The command could not run at all; no attempt this run can work.
		return "", services.Wrap(services.ErrFatal, "publish", "exec", "publish command could not be started", err)
	}

	permanentID := lastNonEmptyLine(stdout.String())
	if permanentID == "" {
		return "", fmt.Errorf("publish command produced no permanent id (stderr: %s)", strings.TrimSpace(stderr.String()))
	}
	return permanentID, nil
}

func publishAtValue(decision schedule.Decision) string {
	if decision.PublishNow {
		return "now"
	}
	return decision.At.UTC().Format(time.RFC3339)
}

func lastNonEmptyLine(output string) string {
	lines := strings.Split(output, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
