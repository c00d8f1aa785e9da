package timeutil

import (
	"testing"
	"time"
)

func TestRealClockNow(t *testing.T) {
	clock := RealClock{}
	before := time.Now()
	now := clock.Now()
	after := time.Now()

	if now.Before(before) || now.After(after) {
		t.Errorf("Now() = %v, expected between %v and %v", now, before, after)
	}
}

func TestMockClockSleepRecording(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)

	clock.Sleep(200 * time.Millisecond)
	clock.Sleep(200 * time.Millisecond)

	sleeps := clock.Sleeps()
	if len(sleeps) != 2 {
		t.Fatalf("recorded %d sleeps, want 2", len(sleeps))
	}
	for i, d := range sleeps {
		if d != 200*time.Millisecond {
			t.Errorf("sleep %d = %v, want 200ms", i, d)
		}
	}

	if got := clock.Now(); got != start.Add(400*time.Millisecond) {
		t.Errorf("Now() = %v after two sleeps, want %v", got, start.Add(400*time.Millisecond))
	}
}

func TestMockClockAdvance(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)

	clock.Advance(time.Second)
	if got := clock.Since(start); got != time.Second {
		t.Errorf("Since(start) = %v, want 1s", got)
	}
}

func TestMockClockAfterDoesNotBlock(t *testing.T) {
	clock := NewMockClock(time.Now())
	select {
	case <-clock.After(time.Hour):
	default:
		t.Fatal("After should deliver immediately on the mock clock")
	}
}
