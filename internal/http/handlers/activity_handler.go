package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/issue-activity/backend/internal/http/dto"
	"github.com/issue-activity/backend/internal/middleware"
	"github.com/issue-activity/backend/internal/models"
	"go.uber.org/zap"
)

type HistoryReader interface {
	ListByIssue(ctx context.Context, projectID, issueID uuid.UUID, limit, offset int) ([]models.IssueActivity, error)
}

type EventQueue interface {
	Enqueue(ctx context.Context, ev models.MutationEvent) error
}

type ActivityHandler struct {
	history   HistoryReader
	queue     EventQueue
	pageLimit int
	log       *zap.Logger
}

func NewActivityHandler(history HistoryReader, queue EventQueue, pageLimit int, log *zap.Logger) *ActivityHandler {
	if pageLimit <= 0 {
		pageLimit = 100
	}
	return &ActivityHandler{history: history, queue: queue, pageLimit: pageLimit, log: log}
}

// ListHistory returns an issue's activity, newest first.
func (h *ActivityHandler) ListHistory(c *fiber.Ctx) error {
	projectID, err := uuid.Parse(c.Params("projectId"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid project id")
	}
	issueID, err := uuid.Parse(c.Params("issueId"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid issue id")
	}

	limit := c.QueryInt("limit", h.pageLimit)
	if limit <= 0 || limit > h.pageLimit {
		limit = h.pageLimit
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		return fail(c, fiber.StatusBadRequest, "offset must not be negative")
	}

	activities, err := h.history.ListByIssue(c.UserContext(), projectID, issueID, limit, offset)
	if err != nil {
		h.log.Error("failed to list issue history",
			zap.String("issue_id", issueID.String()),
			zap.Error(err),
		)
		return fail(c, fiber.StatusInternalServerError, "failed to load history")
	}
	return c.JSON(dto.HistoryResponse{Activities: activities, Limit: limit, Offset: offset})
}

// Enqueue validates a mutation event and places it on the activity queue.
func (h *ActivityHandler) Enqueue(c *fiber.Ctx) error {
	var req dto.EnqueueActivityRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	ev := req.Event()
	if err := ev.Validate(); err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.queue.Enqueue(c.UserContext(), ev); err != nil {
		h.log.Error("failed to enqueue mutation event",
			zap.String("kind", ev.Type),
			zap.String("issue_id", ev.IssueID.String()),
			zap.Error(err),
		)
		return fail(c, fiber.StatusServiceUnavailable, "queue unavailable")
	}

	return c.Status(fiber.StatusAccepted).JSON(dto.EnqueueResponse{
		Queued:  true,
		Tracked: !ev.Kind().IsZero(),
	})
}

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Error: msg, RequestID: middleware.GetRequestID(c)})
}
