package dto

import "github.com/issue-activity/backend/internal/models"

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

type HistoryResponse struct {
	Activities []models.IssueActivity `json:"activities"`
	Limit      int                    `json:"limit"`
	Offset     int                    `json:"offset"`
}

type EnqueueResponse struct {
	Queued bool `json:"queued"`
	// Tracked is false for event types that will produce no activity.
	Tracked bool `json:"tracked"`
}
