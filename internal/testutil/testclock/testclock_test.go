package testclock

import (
	"testing"
	"time"
)

func TestClockSteps(t *testing.T) {
	c := New(time.Minute)
	if got := c.Now(); !got.Equal(DefaultStart) {
		t.Fatalf("first call: got %v want %v", got, DefaultStart)
	}
	if got := c.Now(); !got.Equal(DefaultStart.Add(time.Minute)) {
		t.Fatalf("second call: got %v", got)
	}
	c.Add(time.Hour)
	if got := c.Last(); !got.Equal(DefaultStart.Add(time.Hour + time.Minute)) {
		t.Fatalf("after add: got %v", got)
	}
}

func TestFrozenClock(t *testing.T) {
	c := New(0)
	c.Now()
	if got := c.Now(); !got.Equal(DefaultStart) {
		t.Fatalf("frozen clock moved: %v", got)
	}
}
