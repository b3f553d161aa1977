package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheServiceDisabledIsNoop(t *testing.T) {
	repo := newMemoryCacheRepo()
	svc := NewCacheService(repo, nil, 0, nil, false)

	require.NoError(t, svc.Set(context.Background(), calendarKey("parent", "p-1"), []string{"x"}, time.Minute))
	var dest []string
	hit, err := svc.Get(context.Background(), calendarKey("parent", "p-1"), &dest)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Empty(t, repo.items)
	assert.Zero(t, repo.gets)

	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
}

func TestCacheServiceInvalidateCalendarsLeavesOtherKeys(t *testing.T) {
	repo := newMemoryCacheRepo()
	repo.items[calendarKey("parent", "p-1")] = []byte(`[]`)
	repo.items[calendarKey("parent", "p-2")] = []byte(`[]`)
	repo.items["session:abc"] = []byte(`{}`)
	svc := NewCacheService(repo, NewMetricsService(), time.Minute, nil, true)

	removed, err := svc.InvalidateCalendars(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Contains(t, repo.items, "session:abc")
	assert.Len(t, repo.items, 1)
}

func TestCacheServiceMissIsNotAnError(t *testing.T) {
	svc := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, nil, true)

	var dest []string
	hit, err := svc.Get(context.Background(), calendarKey("coach", "c-1"), &dest)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheServiceInvalidateParentCalendarIsScoped(t *testing.T) {
	repo := newMemoryCacheRepo()
	repo.items["calendar:parent:p-1"] = []byte(`[]`)
	repo.items["calendar:parent:p-2"] = []byte(`[]`)
	svc := NewCacheService(repo, nil, time.Minute, nil, true)

	require.NoError(t, svc.InvalidateParentCalendar(context.Background(), "p-1"))
	assert.NotContains(t, repo.items, "calendar:parent:p-1")
	assert.Contains(t, repo.items, "calendar:parent:p-2")

	var nilSvc *CacheService
	assert.NoError(t, nilSvc.InvalidateParentCalendar(context.Background(), "p-1"))
}
