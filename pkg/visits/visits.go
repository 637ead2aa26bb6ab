// Package visits records which days a visitor opened the app and derives
// visit streaks from them.
//
// Each visitor's history is a sorted list of distinct calendar dates
// (YYYY-MM-DD) stored as JSON in a [cache.Cache] under "visits:<id>".
// Recording the same day twice is a no-op.
package visits

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/appshell/pkg/cache"
	apperrors "github.com/matzehuels/appshell/pkg/errors"
)

// DateLayout is the calendar date format stored per visit.
const DateLayout = "2006-01-02"

const keyPrefix = "visits:"

// Streak summarizes a visitor's history.
type Streak struct {
	// Current is the length of the run of consecutive days ending today or
	// yesterday. It is 0 once a full day has been missed.
	Current int `json:"current"`
	// Longest is the longest run of consecutive days ever recorded.
	Longest int `json:"longest"`
	// Total is the number of distinct days visited.
	Total int `json:"total"`
	// LastVisit is the most recent recorded date, empty if none.
	LastVisit string `json:"last_visit,omitempty"`
}

// Tracker records visits in a cache backend.
type Tracker struct {
	store cache.Cache
	// mu serializes read-modify-write of a visitor's log within this process.
	mu sync.Mutex
}

// NewTracker creates a tracker over store. A nil store records nothing.
func NewTracker(store cache.Cache) *Tracker {
	if store == nil {
		store = cache.NewNullCache()
	}
	return &Tracker{store: store}
}

// NewVisitorID returns a fresh random visitor identifier.
func NewVisitorID() string {
	return uuid.NewString()
}

// Record adds the calendar day of at (in at's location) to the visitor's
// history. It reports whether the day was new.
func (t *Tracker) Record(ctx context.Context, visitorID string, at time.Time) (bool, error) {
	if err := apperrors.ValidateVisitorID(visitorID); err != nil {
		return false, err
	}
	day := at.Format(DateLayout)

	t.mu.Lock()
	defer t.mu.Unlock()

	dates, err := t.read(ctx, visitorID)
	if err != nil {
		return false, err
	}
	i, found := slices.BinarySearch(dates, day)
	if found {
		return false, nil
	}
	dates = slices.Insert(dates, i, day)

	data, err := json.Marshal(dates)
	if err != nil {
		return false, apperrors.Wrap(apperrors.ErrCodeInternal, err, "encode visits")
	}
	if err := t.store.Set(ctx, keyPrefix+visitorID, data, 0); err != nil {
		return false, apperrors.Wrap(apperrors.ErrCodeInternal, err, "save visits for %s", visitorID)
	}
	return true, nil
}

// Dates returns the visitor's recorded dates in ascending order.
func (t *Tracker) Dates(ctx context.Context, visitorID string) ([]string, error) {
	if err := apperrors.ValidateVisitorID(visitorID); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.read(ctx, visitorID)
}

// Streak computes the visitor's streak as of now.
func (t *Tracker) Streak(ctx context.Context, visitorID string, now time.Time) (Streak, error) {
	dates, err := t.Dates(ctx, visitorID)
	if err != nil {
		return Streak{}, err
	}
	return ComputeStreak(dates, now), nil
}

// read loads and normalizes a visitor's dates. Callers hold t.mu.
func (t *Tracker) read(ctx context.Context, visitorID string) ([]string, error) {
	data, ok, err := t.store.Get(ctx, keyPrefix+visitorID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "read visits for %s", visitorID)
	}
	if !ok {
		return nil, nil
	}
	var dates []string
	if err := json.Unmarshal(data, &dates); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "decode visits for %s", visitorID)
	}
	slices.Sort(dates)
	return slices.Compact(dates), nil
}

// ComputeStreak derives a Streak from dates as of now. Dates need not be
// sorted; unparseable entries and dates after now are ignored.
func ComputeStreak(dates []string, now time.Time) Streak {
	today := civil(now)
	days := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		t, err := time.Parse(DateLayout, d)
		if err != nil || t.After(today) {
			continue
		}
		days = append(days, t)
	}
	slices.SortFunc(days, func(a, b time.Time) int { return a.Compare(b) })
	days = slices.CompactFunc(days, func(a, b time.Time) bool { return a.Equal(b) })

	var s Streak
	s.Total = len(days)
	if len(days) == 0 {
		return s
	}
	s.LastVisit = days[len(days)-1].Format(DateLayout)

	run := 0
	for i, d := range days {
		if i > 0 && d.Sub(days[i-1]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		s.Longest = max(s.Longest, run)
	}

	if gap := today.Sub(days[len(days)-1]); gap <= 24*time.Hour {
		s.Current = run
	}
	return s
}

// civil truncates t to midnight UTC of its calendar date in t's location,
// matching how dates parsed with DateLayout are represented.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
