package cot

import (
	"context"
	"time"

	"github.com/quantbrief/oracle/internal/models"
)

// CacheStore is the durable tier of the positioning cache. A missing
// or zero timestamp from Load means "no cache".
type CacheStore interface {
	LoadPositioningCache(ctx context.Context) (map[string]models.PositioningRecord, time.Time, error)
	SavePositioningCache(ctx context.Context, data map[string]models.PositioningRecord, refreshedAt time.Time) error
}

// cacheValid reports whether a cache refreshed at refreshedAt is still
// usable at now. The feed publishes weekly on Friday afternoon: besides
// the age ceiling, any cache predating the most recent Friday 16:00
// cutover is stale once that cutover has passed.
func cacheValid(now, refreshedAt time.Time, maxAge time.Duration) bool {
	if refreshedAt.IsZero() {
		return false
	}
	if now.Sub(refreshedAt) > maxAge {
		return false
	}

	cutover := fridayCutover(now)
	if now.Before(cutover) {
		return true
	}
	return refreshedAt.After(cutover)
}

// fridayCutover returns 16:00 on the most recent Friday. On a Friday
// before 16:00 the cutover is later that day and has not passed yet.
func fridayCutover(now time.Time) time.Time {
	daysBack := (int(now.Weekday()) - int(time.Friday) + 7) % 7
	friday := now.AddDate(0, 0, -daysBack)
	return time.Date(friday.Year(), friday.Month(), friday.Day(), 16, 0, 0, 0, now.Location())
}
