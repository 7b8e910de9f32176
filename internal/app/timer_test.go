package app

import "testing"

func TestCountdownExpiresExactlyOnce(t *testing.T) {
	ticks := 0
	expiries := 0
	c := NewCountdown(2, func(int) { ticks++ }, func() { expiries++ })

	c.Tick()
	if c.Remaining() != 1 {
		t.Fatalf("expected 1 remaining, got %d", c.Remaining())
	}
	c.Tick()
	c.Tick() // past zero: stopped, no second expiry
	c.Tick()

	if expiries != 1 {
		t.Fatalf("expected exactly one expiry, got %d", expiries)
	}
	if ticks != 2 {
		t.Fatalf("expected ticks to stop with the clock, got %d", ticks)
	}
	if c.Remaining() != 0 {
		t.Fatalf("expected clock pinned at 0, got %d", c.Remaining())
	}
}

func TestCountdownStopIsPermanent(t *testing.T) {
	expiries := 0
	c := NewCountdown(1, nil, func() { expiries++ })

	c.Stop()
	c.Tick()
	c.Tick()

	if expiries != 0 {
		t.Fatalf("expected no expiry after stop, got %d", expiries)
	}
	if c.Remaining() != 1 {
		t.Fatalf("expected clock frozen at 1, got %d", c.Remaining())
	}
}

func TestFormatClock(t *testing.T) {
	cases := map[int]string{
		0:   "0:00",
		9:   "0:09",
		90:  "1:30",
		180: "3:00",
	}
	for seconds, want := range cases {
		if got := formatClock(seconds); got != want {
			t.Fatalf("formatClock(%d) = %q, want %q", seconds, got, want)
		}
	}
}
