package timeutil

import (
	"testing"
	"time"
)

func TestRealClock_Since(t *testing.T) {
	c := RealClock{}
	start := c.Now()
	if c.Since(start) < 0 {
		t.Error("Since returned a negative duration")
	}
}

func TestRealClock_Ticker(t *testing.T) {
	c := RealClock{}
	tk := c.NewTicker(time.Millisecond)
	defer tk.Stop()

	select {
	case <-tk.C():
	case <-time.After(time.Second):
		t.Fatal("real ticker did not fire within 1s")
	}
}

func TestMockClock_AdvanceFiresDueTicker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMockClock(start)
	tk := c.NewTicker(16 * time.Millisecond)

	c.Advance(10 * time.Millisecond)
	select {
	case <-tk.C():
		t.Fatal("ticker fired before its interval elapsed")
	default:
	}

	c.Advance(6 * time.Millisecond)
	select {
	case got := <-tk.C():
		if !got.Equal(start.Add(16 * time.Millisecond)) {
			t.Errorf("tick time = %v, want %v", got, start.Add(16*time.Millisecond))
		}
	default:
		t.Fatal("ticker did not fire once due")
	}

	if c.Since(start) != 16*time.Millisecond {
		t.Errorf("Since(start) = %v, want 16ms", c.Since(start))
	}
}

func TestMockTicker_Stop(t *testing.T) {
	c := NewMockClock(time.Unix(0, 0))
	tk := c.NewTicker(time.Millisecond)
	tk.Stop()

	c.Advance(5 * time.Millisecond)
	select {
	case <-tk.C():
		t.Fatal("stopped ticker fired")
	default:
	}
}
