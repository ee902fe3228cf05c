package envelope

import (
	"errors"
	"math"
	"testing"

	"wavebars/internal/services"
)

func TestParams(t *testing.T) {
	tests := []struct {
		name       string
		sr, time   float64
		bars, over int
		window     int
		stride     int
	}{
		{"end to end scenario", 16000, 0.4, 4, 2, 1600, 800},
		{"defaults at 24k", 24000, 0.4, 50, 3, 192, 64},
		{"rounds window", 22050, 0.4, 50, 3, 176, 59},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			window, stride, err := Params(tt.sr, tt.time, tt.bars, tt.over)
			if err != nil {
				t.Fatalf("Params: %v", err)
			}
			if window != tt.window || stride != tt.stride {
				t.Fatalf("got window=%d stride=%d, want %d/%d", window, stride, tt.window, tt.stride)
			}
		})
	}
}

func TestParamsRejectsZeroWindowOrStride(t *testing.T) {
	tests := []struct {
		name       string
		sr, time   float64
		bars, over int
	}{
		{"window rounds to zero", 100, 0.01, 50, 1},
		{"stride rounds to zero", 1000, 0.1, 50, 8},
		{"zero bars", 16000, 0.4, 0, 3},
		{"zero oversample", 16000, 0.4, 50, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Params(tt.sr, tt.time, tt.bars, tt.over)
			if !errors.Is(err, services.ErrInvalidParameter) {
				t.Fatalf("expected ErrInvalidParameter, got %v", err)
			}
		})
	}
}

func TestExtractLength(t *testing.T) {
	// Divisible cases: the dropped trailing window makes the count
	// floor((padded-window)/stride).
	tests := []struct {
		n, window, stride int
	}{
		{16000, 1600, 800},
		{1000, 10, 5},
		{1000, 10, 10},
		{300, 4, 1},
	}
	for _, tt := range tests {
		wav := make([]float64, tt.n)
		env, err := Extract(wav, tt.window, tt.stride)
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		padded := tt.n + 2*(tt.window/2)
		want := (padded - tt.window) / tt.stride
		if len(env) != want {
			t.Fatalf("n=%d window=%d stride=%d: got %d values, want %d", tt.n, tt.window, tt.stride, len(env), want)
		}
	}
}

func TestExtractDropsTrailingPartialWindow(t *testing.T) {
	// padded = 10, window = 4, limit = 6: offsets 0 and 3 are pooled; offset
	// 6 is excluded by the strict bound.
	env, err := Extract(make([]float64, 6), 4, 3)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(env) != 2 {
		t.Fatalf("expected 2 values, got %d", len(env))
	}
}

func TestExtractRectifiesAndPools(t *testing.T) {
	wav := []float64{-4, -4, 2, 2, 2, 2, -1, -1}
	env, err := Extract(wav, 2, 2)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	// padded = [0 -4 -4 2 2 2 2 -1 -1 0], limit 8, offsets 0,2,4,6
	want := []float64{Compress(0), Compress(1), Compress(2), Compress(1)}
	if len(env) != len(want) {
		t.Fatalf("got %v, want %v", env, want)
	}
	for i := range want {
		if math.Abs(env[i]-want[i]) > 1e-12 {
			t.Fatalf("env[%d] = %v, want %v", i, env[i], want[i])
		}
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	wav := make([]float64, 4096)
	for i := range wav {
		wav[i] = math.Sin(float64(i)*0.37) * math.Cos(float64(i)*0.011)
	}
	a, err := Extract(wav, 64, 21)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	b, _ := Extract(wav, 64, 21)
	if len(a) != len(b) {
		t.Fatalf("length differs: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if math.Float64bits(a[i]) != math.Float64bits(b[i]) {
			t.Fatalf("value %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestCompressMonotonicAndBounded(t *testing.T) {
	prev := Compress(0)
	if prev != 0 {
		t.Fatalf("Compress(0) = %v, want 0", prev)
	}
	for x := 0.01; x < 10; x += 0.01 {
		v := Compress(x)
		if v < prev {
			t.Fatalf("Compress not monotonic at %v: %v < %v", x, v, prev)
		}
		if v >= 0.95 {
			t.Fatalf("Compress(%v) = %v, want < 0.95", x, v)
		}
		prev = v
	}
	if v := Compress(math.MaxFloat64); v > 0.95 {
		t.Fatalf("Compress(max) = %v", v)
	}
}

func TestNormalize(t *testing.T) {
	out, err := Normalize([]float32{1, -1, 1, -1})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	for i, v := range out {
		if math.Abs(math.Abs(v)-1) > 1e-12 {
			t.Fatalf("out[%d] = %v, want unit magnitude", i, v)
		}
	}

	scaled, err := Normalize([]float32{2, 4, 6, 8})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	// population std of 2,4,6,8 is sqrt(5)
	if math.Abs(scaled[0]-2/math.Sqrt(5)) > 1e-12 {
		t.Fatalf("scaled[0] = %v", scaled[0])
	}
}

func TestNormalizeRejectsDegenerateSignals(t *testing.T) {
	for name, samples := range map[string][]float32{
		"silence":  make([]float32, 128),
		"constant": {0.3, 0.3, 0.3, 0.3},
		"empty":    {},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Normalize(samples)
			if !errors.Is(err, services.ErrDegenerateSignal) {
				t.Fatalf("expected ErrDegenerateSignal, got %v", err)
			}
		})
	}
}

func TestMixdown(t *testing.T) {
	mono := Mixdown([][]float32{{1, 2, 3}, {3, 2, 1}})
	for i, v := range mono {
		if v != 2 {
			t.Fatalf("mono[%d] = %v, want 2", i, v)
		}
	}
	single := []float32{1, 2}
	if got := Mixdown([][]float32{single}); &got[0] != &single[0] {
		t.Fatal("expected single channel to pass through")
	}
}

func TestPad(t *testing.T) {
	env := Pad(Envelope{0.5, 0.6}, 5)
	if len(env) != 2+2+10 {
		t.Fatalf("unexpected padded length %d", len(env))
	}
	if env[1] != 0 || env[2] != 0.5 || env[3] != 0.6 || env[4] != 0 {
		t.Fatalf("unexpected padded layout %v", env)
	}
}

func TestBuildFailsOnSilentChannel(t *testing.T) {
	loud := []float32{0.5, -0.5, 0.5, -0.5, 0.5, -0.5, 0.5, -0.5}
	silent := make([]float32, len(loud))
	_, err := Build([][]float32{loud, silent}, 2, 1, 4)
	if !errors.Is(err, services.ErrDegenerateSignal) {
		t.Fatalf("expected ErrDegenerateSignal, got %v", err)
	}
	envs, err := Build([][]float32{loud}, 2, 1, 4)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(envs) != 1 || len(envs[0]) != 2+8+8 {
		t.Fatalf("unexpected envelopes: %d channels, len %d", len(envs), len(envs[0]))
	}
}
