package model

import "testing"

func TestTimerTickCountsDownToAutoStop(t *testing.T) {
	timer := Timer{Duration: 5, Remaining: 5, Running: true}

	for i := 0; i < 4; i++ {
		expired := timer.Tick()
		if expired {
			t.Fatalf("Tick() %d expired early, remaining = %d", i+1, timer.Remaining)
		}
		if timer.Remaining < 0 {
			t.Fatalf("Tick() %d produced negative remaining: %d", i+1, timer.Remaining)
		}
	}

	if !timer.Tick() {
		t.Error("Tick() at remaining=1 should report expiry")
	}
	if timer.Remaining != 0 {
		t.Errorf("Remaining = %d, want 0", timer.Remaining)
	}
	if timer.Running {
		t.Error("Running = true after expiry, want auto-stop")
	}
}

func TestTimerTickStoppedIsNoOp(t *testing.T) {
	timer := Timer{Duration: 10, Remaining: 7, Running: false}
	if timer.Tick() {
		t.Error("Tick() on stopped timer reported expiry")
	}
	if timer.Remaining != 7 {
		t.Errorf("Remaining = %d, want 7 (stopped timers do not tick)", timer.Remaining)
	}
}

func TestTimerTickAtZeroStaysAtZero(t *testing.T) {
	timer := Timer{Running: true, Remaining: 0}
	timer.Tick()
	if timer.Remaining != 0 {
		t.Errorf("Remaining = %d, want 0", timer.Remaining)
	}
	if timer.Running {
		t.Error("timer still running after ticking at zero")
	}
}

func TestTimerSet(t *testing.T) {
	var timer Timer
	timer.Set(300)
	if timer.Duration != 300 || timer.Remaining != 300 {
		t.Errorf("Set(300) = {%d %d}, want duration and remaining both 300", timer.Duration, timer.Remaining)
	}

	timer.Set(-5)
	if timer.Duration != 0 || timer.Remaining != 0 {
		t.Errorf("Set(-5) = {%d %d}, want clamped to 0", timer.Duration, timer.Remaining)
	}
}

func TestTimerUpdateLeavesDurationAlone(t *testing.T) {
	timer := Timer{Duration: 600, Remaining: 100}
	timer.Update(400)
	if timer.Remaining != 400 {
		t.Errorf("Remaining = %d, want 400", timer.Remaining)
	}
	if timer.Duration != 600 {
		t.Errorf("Duration = %d, want 600 (Update must not touch duration)", timer.Duration)
	}
}

func TestTimerReset(t *testing.T) {
	tests := []struct {
		name  string
		timer Timer
		want  int
	}{
		{name: "with duration", timer: Timer{Duration: 900, Remaining: 12}, want: 900},
		{name: "duration never set", timer: Timer{Remaining: 12}, want: DefaultTimerDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.timer.Reset()
			if tt.timer.Remaining != tt.want {
				t.Errorf("Reset() remaining = %d, want %d", tt.timer.Remaining, tt.want)
			}
		})
	}
}

func TestTimerToggle(t *testing.T) {
	var timer Timer
	timer.Toggle()
	if !timer.Running {
		t.Error("Toggle() from stopped should run")
	}
	timer.Toggle()
	if timer.Running {
		t.Error("Toggle() from running should stop")
	}
}
