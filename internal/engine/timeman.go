package engine

import (
	"time"
)

// SearchLimits specifies constraints on a search. Time and Inc are the clock
// and increment of the side to move only.
type SearchLimits struct {
	Depth    int           // maximum depth (0 = engine default)
	Time     time.Duration // remaining clock time
	Inc      time.Duration // increment per move
	MoveTime time.Duration // fixed time per move (overrides clock)
	Infinite bool          // search until stopped or depth is exhausted
}

// TimeManager decides whether another iterative-deepening depth may start.
// It is consulted only between completed depths, so a running depth always
// finishes.
type TimeManager struct {
	budget    time.Duration // 0 = no time limit
	startTime time.Time
}

// NewTimeManager creates a new time manager.
func NewTimeManager() *TimeManager {
	return &TimeManager{}
}

// Budget returns the time a search with the given limits may use, 0 for none.
// With a clock it is remaining/20 + increment/2.
func Budget(limits SearchLimits) time.Duration {
	switch {
	case limits.Infinite:
		return 0
	case limits.MoveTime > 0:
		return limits.MoveTime
	case limits.Time > 0:
		return limits.Time/20 + limits.Inc/2
	}
	return 0
}

// Init initializes the time manager for a new search.
func (tm *TimeManager) Init(limits SearchLimits) {
	tm.startTime = time.Now()
	tm.budget = Budget(limits)
}

// Elapsed returns the time elapsed since search started.
func (tm *TimeManager) Elapsed() time.Duration {
	return time.Since(tm.startTime)
}

// Budget returns the allotted time, 0 when unlimited.
func (tm *TimeManager) Budget() time.Duration {
	return tm.budget
}

// Exceeded reports whether the budget is used up.
func (tm *TimeManager) Exceeded() bool {
	return tm.budget > 0 && tm.Elapsed() >= tm.budget
}
