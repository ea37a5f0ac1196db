// Package scheduler runs deferred one-shot tasks keyed by chat, used for
// things like the delayed "resend code?" prompt. Tasks for a chat are
// cancelled together when its conversation moves on.
package scheduler

import (
	"sync"
	"time"
)

// Scheduler defers tasks per chat. Implementations must be safe for
// concurrent use from handler goroutines.
type Scheduler interface {
	After(chatID int64, d time.Duration, fn func())
	CancelAll(chatID int64)
	Stop()
}

type timerScheduler struct {
	mu     sync.Mutex
	next   int64
	timers map[int64]map[int64]*time.Timer
}

// New returns a timer-backed Scheduler.
func New() Scheduler {
	return &timerScheduler{timers: make(map[int64]map[int64]*time.Timer)}
}

// After runs fn once after d unless the chat's tasks are cancelled first.
// fn runs on the timer goroutine.
func (s *timerScheduler) After(chatID int64, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	id := s.next
	if s.timers[chatID] == nil {
		s.timers[chatID] = make(map[int64]*time.Timer)
	}
	s.timers[chatID][id] = time.AfterFunc(d, func() {
		s.forget(chatID, id)
		fn()
	})
}

// CancelAll drops every pending task for the chat. Tasks already firing may
// still complete.
func (s *timerScheduler) CancelAll(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.timers[chatID] {
		t.Stop()
	}
	delete(s.timers, chatID)
}

// Stop cancels everything across all chats.
func (s *timerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for chatID, byID := range s.timers {
		for _, t := range byID {
			t.Stop()
		}
		delete(s.timers, chatID)
	}
}

func (s *timerScheduler) forget(chatID, id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if byID, ok := s.timers[chatID]; ok {
		delete(byID, id)
		if len(byID) == 0 {
			delete(s.timers, chatID)
		}
	}
}
