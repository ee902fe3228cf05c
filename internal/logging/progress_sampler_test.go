package logging

import "testing"

func TestNewProgressSampler(t *testing.T) {
	tests := []struct {
		name       string
		bucketSize float64
		wantSize   float64
	}{
		{"default bucket size for zero", 0, 10},
		{"default bucket size for negative", -1, 10},
		{"custom bucket size", 25, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewProgressSampler(tt.bucketSize)
			if s.bucketSize != tt.wantSize {
				t.Errorf("bucketSize = %v, want %v", s.bucketSize, tt.wantSize)
			}
			if s.lastBucket != -1 {
				t.Errorf("lastBucket = %d, want -1", s.lastBucket)
			}
		})
	}
}

func TestProgressSampler_NilSampler(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog(50, "render") {
		t.Error("nil sampler should always log")
	}
	s.Reset()
}

func TestProgressSampler_StageChange(t *testing.T) {
	s := NewProgressSampler(10)
	if !s.ShouldLog(0, "decode") {
		t.Error("first stage should log")
	}
	if s.ShouldLog(0, "decode") {
		t.Error("same stage and bucket should not log")
	}
	if !s.ShouldLog(0, " render ") {
		t.Error("new stage should log")
	}
	if s.lastStage != "render" {
		t.Errorf("lastStage = %q, want render", s.lastStage)
	}
}

func TestProgressSampler_FrameBuckets(t *testing.T) {
	s := NewProgressSampler(25)
	var logged []int
	for done := 0; done <= 100; done++ {
		if s.ShouldLogFrames(done, 100, "render") {
			logged = append(logged, done)
		}
	}
	want := []int{0, 25, 50, 75, 100}
	if len(logged) != len(want) {
		t.Fatalf("logged at %v, want %v", logged, want)
	}
	for i := range want {
		if logged[i] != want[i] {
			t.Fatalf("logged at %v, want %v", logged, want)
		}
	}
}

func TestProgressSampler_UnknownTotal(t *testing.T) {
	s := NewProgressSampler(10)
	if !s.ShouldLogFrames(3, 0, "render") {
		t.Error("stage change should log even without a total")
	}
	if s.ShouldLogFrames(4, 0, "render") {
		t.Error("unknown percent should not log without a stage change")
	}
	s.Reset()
	if !s.ShouldLogFrames(4, 0, "render") {
		t.Error("reset should allow the stage to log again")
	}
}
