package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerFires(t *testing.T) {
	fired := make(chan string, 1)
	s := NewUnlockScheduler(func(userID string) {
		fired <- userID
	})
	defer s.Stop()

	// Gate opens ~50ms from now.
	last := time.Now().Add(-time.Hour + 50*time.Millisecond)
	s.Reschedule("u1", &last, 1)
	assert.True(t, s.Pending("u1"))

	select {
	case userID := <-fired:
		assert.Equal(t, "u1", userID)
	case <-time.After(2 * time.Second):
		t.Fatal("unlock timer never fired")
	}

	// Firing clears the pending timer.
	assert.Eventually(t, func() bool { return !s.Pending("u1") }, time.Second, 10*time.Millisecond)
}

func TestSchedulerRescheduleReplaces(t *testing.T) {
	fired := make(chan string, 2)
	s := NewUnlockScheduler(func(userID string) {
		fired <- userID
	})
	defer s.Stop()

	// First schedule would fire in ~50ms, the replacement pushes the
	// unlock far out. Only the replacement must survive.
	soon := time.Now().Add(-time.Hour + 50*time.Millisecond)
	s.Reschedule("u1", &soon, 1)
	later := time.Now()
	s.Reschedule("u1", &later, 1)

	require.True(t, s.Pending("u1"))

	select {
	case <-fired:
		t.Fatal("replaced timer fired")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestSchedulerNoTimerWhenGateOpen(t *testing.T) {
	s := NewUnlockScheduler(func(string) {})
	defer s.Stop()

	// Never uploaded: nothing to wait for.
	s.Reschedule("u1", nil, 3)
	assert.False(t, s.Pending("u1"))

	// Unlock moment already passed.
	past := time.Now().Add(-2 * time.Hour)
	s.Reschedule("u2", &past, 1)
	assert.False(t, s.Pending("u2"))
}

func TestSchedulerCancel(t *testing.T) {
	fired := make(chan string, 1)
	s := NewUnlockScheduler(func(userID string) {
		fired <- userID
	})
	defer s.Stop()

	last := time.Now().Add(-time.Hour + 50*time.Millisecond)
	s.Reschedule("u1", &last, 1)
	require.True(t, s.Pending("u1"))

	s.Cancel("u1")
	assert.False(t, s.Pending("u1"))

	select {
	case <-fired:
		t.Fatal("cancelled timer fired")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestSchedulerStop(t *testing.T) {
	s := NewUnlockScheduler(func(string) {})

	last := time.Now().Add(-time.Minute)
	s.Reschedule("u1", &last, 1)
	s.Reschedule("u2", &last, 3)
	require.True(t, s.Pending("u1"))
	require.True(t, s.Pending("u2"))

	s.Stop()
	assert.False(t, s.Pending("u1"))
	assert.False(t, s.Pending("u2"))
}
