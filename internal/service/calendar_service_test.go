package service

import (
	"context"
	"encoding/json"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playpulse/playpulse-api/internal/models"
	"github.com/playpulse/playpulse-api/internal/repository"
)

type memoryCacheRepo struct {
	items   map[string][]byte
	deleted []string
	gets    int
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{items: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.gets++
	raw, ok := m.items[key]
	if !ok {
		return repository.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.items[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	m.deleted = append(m.deleted, pattern)
	removed := 0
	for key := range m.items {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.items, key)
			removed++
		}
	}
	return removed, nil
}

func calendarRecords() []models.ScheduleRecord {
	dur := 1.0
	return []models.ScheduleRecord{{
		ProgramSchedule: models.ProgramSchedule{
			ID:        "sched-1",
			ProgramID: strPtr("program-1"),
			CoachID:   "coach-1",
			Duration:  &dur,
			Schedule:  []byte(`[{"date":"2024-05-01T09:00:00Z","activity":"Drills"},{"date":"2024-05-03T09:00:00Z","activity":"Match"}]`),
		},
		ProgramName: strPtr("Football"),
		CoachName:   strPtr("Ravi"),
	}}
}

func TestCalendarServiceParentEventsCachesUnfilteredProjection(t *testing.T) {
	repo := newScheduleRepoStub()
	repo.records = calendarRecords()
	cacheRepo := newMemoryCacheRepo()
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	svc := NewCalendarService(repo, nil, defaultCoaches(), cache, time.Minute, nil)
	svc.now = func() time.Time { return time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC) }

	events, err := svc.ParentEvents(context.Background(), "parent-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "sched-1-1", events[0].ID)
	assert.Equal(t, "Football - Match", events[0].Title)

	var cached []models.CalendarEvent
	require.NoError(t, json.Unmarshal(cacheRepo.items["calendar:parent:parent-1"], &cached))
	assert.Len(t, cached, 2)

	// Served from cache, filtered with the current clock.
	repo.records = nil
	svc.now = func() time.Time { return time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC) }
	events, err = svc.ParentEvents(context.Background(), "parent-1")
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestCalendarServiceParentEventsWithoutCache(t *testing.T) {
	repo := newScheduleRepoStub()
	repo.records = calendarRecords()
	svc := NewCalendarService(repo, nil, defaultCoaches(), nil, 0, nil)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }

	events, err := svc.ParentEvents(context.Background(), "parent-1")
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestCalendarServiceCoachEvents(t *testing.T) {
	repo := newScheduleRepoStub()
	repo.records = calendarRecords()
	svc := NewCalendarService(repo, nil, defaultCoaches(), nil, 0, nil)
	svc.now = func() time.Time { return time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC) }

	events, err := svc.CoachEvents(context.Background(), "coach-user-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, events[0].Start.Add(time.Hour), events[0].End)

	_, err = svc.CoachEvents(context.Background(), "nobody")
	require.Error(t, err)
}
