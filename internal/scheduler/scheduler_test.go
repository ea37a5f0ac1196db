package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAfterFires(t *testing.T) {
	s := New()
	defer s.Stop()

	fired := make(chan struct{})
	s.After(1, 10*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("task never fired")
	}
}

func TestCancelAllStopsPending(t *testing.T) {
	s := New()
	defer s.Stop()

	var fired atomic.Int32
	s.After(1, 50*time.Millisecond, func() { fired.Add(1) })
	s.After(1, 50*time.Millisecond, func() { fired.Add(1) })
	s.CancelAll(1)

	time.Sleep(150 * time.Millisecond)
	assert.Zero(t, fired.Load())
}

func TestCancelAllIsPerChat(t *testing.T) {
	s := New()
	defer s.Stop()

	cancelled := make(chan struct{})
	kept := make(chan struct{})
	s.After(1, 30*time.Millisecond, func() { close(cancelled) })
	s.After(2, 30*time.Millisecond, func() { close(kept) })
	s.CancelAll(1)

	select {
	case <-kept:
	case <-time.After(time.Second):
		t.Fatal("other chat's task should still fire")
	}
	select {
	case <-cancelled:
		t.Fatal("cancelled task fired")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestStopCancelsEverything(t *testing.T) {
	s := New()

	var fired atomic.Int32
	for chat := int64(1); chat <= 3; chat++ {
		s.After(chat, 50*time.Millisecond, func() { fired.Add(1) })
	}
	s.Stop()

	time.Sleep(150 * time.Millisecond)
	assert.Zero(t, fired.Load())
}
