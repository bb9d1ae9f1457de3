// Package notify tells the external messaging system about new assignments.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/runoshun/hora/internal/domain"
)

// Ensure notifiers implement domain.AssignmentNotifier.
var (
	_ domain.AssignmentNotifier = (*LogNotifier)(nil)
	_ domain.AssignmentNotifier = (*WebhookNotifier)(nil)
)

// LogNotifier only records assignments in the task log.
// It is used when no webhook is configured.
type LogNotifier struct {
	logger domain.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger domain.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// TaskAssigned logs the assignment.
func (n *LogNotifier) TaskAssigned(_ context.Context, taskID string, assignee domain.Identity) error {
	n.logger.Info(taskID, "notify", fmt.Sprintf("task assigned to %s", assignee))
	return nil
}

// AssignedEvent is the JSON body posted to the webhook.
type AssignedEvent struct {
	Event    string `json:"event"`
	TaskID   string `json:"task_id"`
	Assignee string `json:"assignee"`
}

// EventTaskAssigned is the event name of AssignedEvent.
const EventTaskAssigned = "task.assigned"

const defaultWebhookTimeout = 5 * time.Second

// WebhookNotifier posts assignment events to a chat webhook, which opens
// the conversation between requester and assignee.
type WebhookNotifier struct {
	client *http.Client
	url    string
}

// NewWebhookNotifier creates a WebhookNotifier for url.
// If client is nil, a client with a short timeout is used.
func NewWebhookNotifier(url string, client *http.Client) *WebhookNotifier {
	if client == nil {
		client = &http.Client{Timeout: defaultWebhookTimeout}
	}
	return &WebhookNotifier{client: client, url: url}
}

// TaskAssigned posts an AssignedEvent. Any non-2xx response is an error.
func (n *WebhookNotifier) TaskAssigned(ctx context.Context, taskID string, assignee domain.Identity) error {
	body, err := json.Marshal(AssignedEvent{
		Event:    EventTaskAssigned,
		TaskID:   taskID,
		Assignee: string(assignee),
	})
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("post webhook: unexpected status %s", resp.Status)
	}
	return nil
}
