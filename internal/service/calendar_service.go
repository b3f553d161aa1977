package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/playpulse/playpulse-api/internal/models"
	appErrors "github.com/playpulse/playpulse-api/pkg/errors"
)

type calendarScheduleSource interface {
	ListForParent(ctx context.Context, parentID string) ([]models.ScheduleRecord, error)
	ListByCoach(ctx context.Context, coachID string) ([]models.ScheduleRecord, error)
}

// CalendarService serves calendar events projected from stored schedules.
// Expanded events are cached per parent without the time filter, which is applied on every read.
type CalendarService struct {
	schedules calendarScheduleSource
	projector *ScheduleProjector
	coaches   coachLookup
	cache     *CacheService
	cacheTTL  time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewCalendarService constructs CalendarService. cache may be nil.
func NewCalendarService(schedules calendarScheduleSource, projector *ScheduleProjector, coaches coachLookup, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *CalendarService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if projector == nil {
		projector = NewScheduleProjector(logger)
	}
	return &CalendarService{
		schedules: schedules,
		projector: projector,
		coaches:   coaches,
		cache:     cache,
		cacheTTL:  cacheTTL,
		logger:    logger,
		now:       time.Now,
	}
}

// ParentEvents returns upcoming sessions of every program the parent is enrolled in.
func (s *CalendarService) ParentEvents(ctx context.Context, parentID string) ([]models.CalendarEvent, error) {
	key := calendarKey("parent", parentID)

	var expanded []models.CalendarEvent
	hit, err := s.cache.Get(ctx, key, &expanded)
	if err != nil || !hit {
		records, err := s.schedules.ListForParent(ctx, parentID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedules")
		}
		expanded = s.projector.Expand(records)
		_ = s.cache.Set(ctx, key, expanded, s.cacheTTL)
	}
	return UpcomingEvents(expanded, s.now()), nil
}

// CoachEvents returns the coach's own upcoming sessions.
func (s *CalendarService) CoachEvents(ctx context.Context, coachUserID string) ([]models.CalendarEvent, error) {
	coach, err := coachAccess{coaches: s.coaches}.coach(ctx, coachUserID)
	if err != nil {
		return nil, err
	}
	records, err := s.schedules.ListByCoach(ctx, coach.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedules")
	}
	return s.projector.Project(records, s.now()), nil
}
