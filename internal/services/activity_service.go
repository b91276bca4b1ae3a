package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/issue-activity/backend/internal/activity"
	"github.com/issue-activity/backend/internal/events"
	"github.com/issue-activity/backend/internal/models"
	"github.com/issue-activity/backend/internal/repositories"
	"go.uber.org/zap"
)

// ActivityStore persists a diff's records atomically.
type ActivityStore interface {
	CreateBatch(ctx context.Context, drafts []models.IssueActivity) ([]models.IssueActivity, error)
}

// ActivitySink receives every persisted record.
type ActivitySink interface {
	Enabled() bool
	Deliver(ctx context.Context, a models.IssueActivity) error
}

var (
	_ ActivityStore     = (*repositories.ActivityRepo)(nil)
	_ ActivitySink      = (*HookClient)(nil)
	_ activity.Resolver = (*repositories.LookupRepo)(nil)
)

type ActivityService struct {
	store     ActivityStore
	resolver  activity.Resolver
	sink      ActivitySink
	publisher events.Publisher
	channel   string
	log       *zap.Logger
}

func NewActivityService(
	store ActivityStore,
	resolver activity.Resolver,
	sink ActivitySink,
	publisher events.Publisher,
	channel string,
	log *zap.Logger,
) *ActivityService {
	if channel == "" {
		channel = events.DefaultActivityChannel
	}
	return &ActivityService{
		store:     store,
		resolver:  resolver,
		sink:      sink,
		publisher: publisher,
		channel:   channel,
		log:       log,
	}
}

// Process turns one mutation event into persisted activity records, then
// hands each record to the sink and the live feed. Delivery and publish
// failures are logged and never fail the event. Events of a kind that is not
// tracked produce no records.
func (s *ActivityService) Process(ctx context.Context, ev models.MutationEvent) ([]models.IssueActivity, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}

	m, err := activity.Decode(ev)
	if err != nil {
		return nil, err
	}
	if m == nil {
		s.log.Debug("untracked event kind", zap.String("type", ev.Type), zap.String("issue_id", ev.IssueID.String()))
		return nil, nil
	}

	actor, err := s.resolver.Actor(ctx, ev.ActorID)
	if err != nil {
		return nil, fmt.Errorf("load actor: %w", err)
	}
	project, err := s.resolver.Project(ctx, ev.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}

	if u, ok := m.(activity.IssueUpdated); ok && len(u.SkippedBefore)+len(u.SkippedAfter) > 0 {
		s.log.Warn("skipped unreadable issue fields",
			zap.String("issue_id", ev.IssueID.String()),
			zap.Strings("current_instance", u.SkippedBefore),
			zap.Strings("requested_data", u.SkippedAfter),
		)
	}

	drafts, err := activity.Dispatch(ctx, activity.NewContext(*actor, *project, ev.IssueID, s.resolver), m)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.Kind(), err)
	}
	if len(drafts) == 0 {
		return nil, nil
	}

	saved, err := s.store.CreateBatch(ctx, drafts)
	if err != nil {
		return nil, fmt.Errorf("persist %d activities: %w", len(drafts), err)
	}

	s.deliver(ctx, m.Kind(), saved)
	s.publish(ctx, saved)
	return saved, nil
}

func (s *ActivityService) deliver(ctx context.Context, kind models.Kind, saved []models.IssueActivity) {
	if s.sink == nil || !s.sink.Enabled() {
		return
	}
	for _, a := range saved {
		err := s.sink.Deliver(ctx, a)
		if err == nil {
			continue
		}
		fields := []zap.Field{
			zap.String("kind", kind.String()),
			zap.String("issue_id", a.IssueID.String()),
			zap.String("actor_id", a.ActorID.String()),
			zap.String("activity_id", a.ID.String()),
			zap.Error(err),
		}
		var hookErr *HookError
		if errors.As(err, &hookErr) {
			fields = append(fields, zap.Int("status", hookErr.Status))
		}
		s.log.Warn("activity delivery failed", fields...)
	}
}

func (s *ActivityService) publish(ctx context.Context, saved []models.IssueActivity) {
	if s.publisher == nil {
		return
	}
	for _, a := range saved {
		ev, err := events.NewEvent(events.EventIssueActivity, a.IssueID, a)
		if err == nil {
			err = s.publisher.Publish(ctx, s.channel, ev)
		}
		if err != nil {
			s.log.Warn("activity publish failed",
				zap.String("activity_id", a.ID.String()),
				zap.String("issue_id", a.IssueID.String()),
				zap.Error(err),
			)
		}
	}
}
