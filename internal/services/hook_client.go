package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/issue-activity/backend/internal/models"
	"go.uber.org/zap"
)

const defaultHookTimeout = 5 * time.Second

// HookConfig points the client at the integration endpoint that receives
// every persisted activity.
type HookConfig struct {
	BaseURL string
	Enabled bool
	Timeout time.Duration
}

// HookError is a delivery the endpoint answered with a non-2xx status.
type HookError struct {
	Status int
	Body   string
}

func (e *HookError) Error() string {
	return fmt.Sprintf("activity hook returned %d: %s", e.Status, e.Body)
}

// HookClient posts activity records to the integration endpoint.
type HookClient struct {
	baseURL    string
	enabled    bool
	httpClient *http.Client
	log        *zap.Logger
}

func NewHookClient(cfg HookConfig, log *zap.Logger) *HookClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHookTimeout
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	return &HookClient{
		baseURL: base,
		enabled: cfg.Enabled && base != "",
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// Enabled reports whether deliveries are attempted at all.
func (c *HookClient) Enabled() bool {
	return c.enabled
}

func (c *HookClient) url(a models.IssueActivity) string {
	return fmt.Sprintf("%s/hooks/workspaces/%s/projects/%s/issues/%s/issue-activity-hooks/",
		c.baseURL, a.WorkspaceID, a.ProjectID, a.IssueID)
}

// Deliver posts one record. It makes a single attempt.
func (c *HookClient) Deliver(ctx context.Context, a models.IssueActivity) error {
	if !c.enabled {
		return nil
	}

	body, err := json.Marshal(a)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(a), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("activity hook unavailable: %w", err)
	}
	defer resp.Body.Close()

	c.log.Debug("activity hook delivered",
		zap.String("activity_id", a.ID.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &HookError{Status: resp.StatusCode, Body: string(b)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
