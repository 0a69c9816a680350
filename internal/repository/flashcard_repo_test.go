package repository

import (
	"math"
	"testing"
)

func TestSM2(t *testing.T) {
	tests := []struct {
		name         string
		interval     int
		ease         float64
		repetitions  int
		rating       int
		wantInterval int
		wantReps     int
	}{
		{"first success", 0, 2.5, 0, 3, 1, 1},
		{"second success", 1, 2.5, 1, 3, 6, 2},
		{"third success scales by ease", 6, 2.5, 2, 3, 15, 3},
		{"failure resets", 15, 2.5, 3, 1, 1, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			interval, _, reps := SM2(tc.interval, tc.ease, tc.repetitions, tc.rating)
			if interval != tc.wantInterval || reps != tc.wantReps {
				t.Errorf("expected interval %d reps %d, got %d %d", tc.wantInterval, tc.wantReps, interval, reps)
			}
		})
	}
}

func TestSM2_EaseFloor(t *testing.T) {
	ease := 1.35
	for i := 0; i < 5; i++ {
		_, ease, _ = SM2(1, ease, 0, 0)
	}
	if math.Abs(ease-1.3) > 1e-9 {
		t.Errorf("expected ease to bottom out at 1.3, got %v", ease)
	}
}
