package services

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// UnlockScheduler tracks one pending unlock timer per user and fires a
// callback when that user's upload gate opens. Every relevant state
// change (new upload, interval change) cancels the old timer before a
// new one is armed, so a user can never receive duplicate unlock
// notifications from overlapping schedules.
type UnlockScheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	notify func(userID string)
}

// NewUnlockScheduler creates a scheduler that invokes notify when a
// user's gate opens. notify runs on the timer goroutine.
func NewUnlockScheduler(notify func(userID string)) *UnlockScheduler {
	return &UnlockScheduler{
		timers: make(map[string]*time.Timer),
		notify: notify,
	}
}

// Reschedule recomputes the unlock moment from the last upload time and
// interval, replacing any pending timer for the user. A nil last upload
// time or an unlock moment in the past leaves no timer armed.
func (s *UnlockScheduler) Reschedule(userID string, lastUploadAt *time.Time, intervalHours int) {
	unlockAt := NextAllowedAt(lastUploadAt, intervalHours)

	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[userID]; ok {
		t.Stop()
		delete(s.timers, userID)
	}

	if unlockAt == nil {
		return
	}
	d := time.Until(*unlockAt)
	if d <= 0 {
		return
	}

	s.timers[userID] = time.AfterFunc(d, func() {
		s.fire(userID)
	})

	log.Debug().
		Str("user_id", userID).
		Time("unlock_at", *unlockAt).
		Msg("Unlock timer scheduled")
}

// Cancel drops any pending timer for the user.
func (s *UnlockScheduler) Cancel(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[userID]; ok {
		t.Stop()
		delete(s.timers, userID)
	}
}

// Pending reports whether a timer is armed for the user.
func (s *UnlockScheduler) Pending(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[userID]
	return ok
}

// Stop cancels all pending timers.
func (s *UnlockScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for userID, t := range s.timers {
		t.Stop()
		delete(s.timers, userID)
	}
}

func (s *UnlockScheduler) fire(userID string) {
	s.mu.Lock()
	delete(s.timers, userID)
	s.mu.Unlock()

	log.Debug().Str("user_id", userID).Msg("Upload gate opened")
	s.notify(userID)
}
