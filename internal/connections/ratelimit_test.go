package connections

import (
	"testing"
	"time"
)

func TestWindowLimiter_UnderQuota(t *testing.T) {
	clock := newFakeClock()
	l := NewWindowLimiter(5)
	l.SetClock(clock)

	for i := 0; i < 5; i++ {
		l.Wait()
	}
	if len(clock.slept) != 0 {
		t.Errorf("slept %v, want no blocking under quota", clock.slept)
	}
}

func TestWindowLimiter_ThirdCallBlocksUntilReset(t *testing.T) {
	clock := newFakeClock()
	l := NewWindowLimiter(2)
	l.SetClock(clock)

	l.Wait()
	l.Wait()
	l.Wait() // quota of 2 exhausted at t=0; must block until the window rolls

	if len(clock.slept) != 1 {
		t.Fatalf("slept %d times, want 1", len(clock.slept))
	}
	if clock.slept[0] != time.Minute {
		t.Errorf("blocked for %v, want full 60s window", clock.slept[0])
	}
}

func TestWindowLimiter_WindowRollsOver(t *testing.T) {
	clock := newFakeClock()
	l := NewWindowLimiter(2)
	l.SetClock(clock)

	l.Wait()
	l.Wait()

	clock.Advance(61 * time.Second)
	l.Wait() // new window, no blocking

	if len(clock.slept) != 0 {
		t.Errorf("slept %v, want none after window rollover", clock.slept)
	}
}

func TestWindowLimiter_Disabled(t *testing.T) {
	clock := newFakeClock()
	l := NewWindowLimiter(0)
	l.SetClock(clock)

	for i := 0; i < 100; i++ {
		l.Wait()
	}
	if len(clock.slept) != 0 {
		t.Errorf("disabled limiter blocked: %v", clock.slept)
	}
}

func TestWindowLimiter_NilReceiver(t *testing.T) {
	var l *WindowLimiter
	l.Wait() // must not panic
}
