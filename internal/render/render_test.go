package render

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"wavebars/internal/services"
)

var (
	black = RGB{0, 0, 0}
	white = RGB{1, 1, 1}
	red   = RGB{1, 0, 0}
	blue  = RGB{0, 0, 1}
)

func TestWriteFileRoundTripsSize(t *testing.T) {
	sizes := [][2]int{{400, 400}, {320, 180}, {1, 1}}
	for _, size := range sizes {
		r := New(size[0], size[1], white, black)
		path := filepath.Join(t.TempDir(), "7-000000.png")
		if err := r.WriteFile(path, [][]float64{{0.1, 0.5, 0.9, 0.3}}); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		f, err := os.Open(path)
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		cfg, format, err := image.DecodeConfig(f)
		f.Close()
		if err != nil {
			t.Fatalf("DecodeConfig: %v", err)
		}
		if format != "png" || cfg.Width != size[0] || cfg.Height != size[1] {
			t.Fatalf("got %s %dx%d, want png %dx%d", format, cfg.Width, cfg.Height, size[0], size[1])
		}
	}
}

func TestRenderSilenceIsBackground(t *testing.T) {
	bg := RGB{0.2, 0.4, 0.6}
	img, err := New(40, 30, bg, black).Render([][]float64{make([]float64, 10)})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := color.RGBA{R: 51, G: 102, B: 153, A: 255}
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			if got := img.RGBAAt(x, y); got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestRenderMonoBar(t *testing.T) {
	// One bar at full height: width 1/1.2 of the frame centered at pad, so
	// it covers x in [0, 50). Attack fills y in [0, 50), release [50, 100).
	img, err := New(100, 100, white, black).Render([][]float64{{1}})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := img.RGBAAt(25, 25); got != (color.RGBA{0, 0, 0, 255}) {
		t.Fatalf("attack pixel = %v, want opaque black", got)
	}
	release := img.RGBAAt(25, 75)
	if release.R < 49 || release.R > 53 || release.R != release.G || release.A != 255 {
		t.Fatalf("release pixel = %v, want ~51 gray from 0.8 alpha", release)
	}
	if got := img.RGBAAt(75, 50); got != (color.RGBA{255, 255, 255, 255}) {
		t.Fatalf("gap pixel = %v, want background", got)
	}
}

func TestRenderReleaseScaleShortensLowerSegment(t *testing.T) {
	r := New(100, 100, white, black)
	r.ReleaseScale = 0.5
	img, err := r.Render([][]float64{{1}})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := img.RGBAAt(25, 65); got.R > 60 {
		t.Fatalf("expected release segment at y=65, got %v", got)
	}
	if got := img.RGBAAt(25, 90); got != (color.RGBA{255, 255, 255, 255}) {
		t.Fatalf("expected background below scaled release, got %v", got)
	}
}

func TestRenderStereoBands(t *testing.T) {
	img, err := New(100, 100, white, red, blue).Render([][]float64{{1}, {1}})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := img.RGBAAt(25, 12); got != (color.RGBA{255, 0, 0, 255}) {
		t.Fatalf("upper band attack = %v, want red", got)
	}
	if got := img.RGBAAt(25, 62); got != (color.RGBA{0, 0, 255, 255}) {
		t.Fatalf("lower band attack = %v, want blue", got)
	}
	if got := img.RGBAAt(25, 37); got.R != 255 || got.G < 49 || got.G > 53 {
		t.Fatalf("upper band release = %v, want translucent red", got)
	}
}

func TestRenderRejectsBadInput(t *testing.T) {
	tests := []struct {
		name      string
		r         *Renderer
		snapshots [][]float64
	}{
		{"no channels", New(10, 10, white, black), nil},
		{"ragged channels", New(10, 10, white, black, black), [][]float64{{1, 2}, {1}}},
		{"missing color", New(10, 10, white, black), [][]float64{{1}, {1}}},
		{"zero size", New(0, 10, white, black), [][]float64{{1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.r.Render(tt.snapshots); !errors.Is(err, services.ErrInvalidParameter) {
				t.Fatalf("expected ErrInvalidParameter, got %v", err)
			}
		})
	}
}

func TestWriteFileReportsIOError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "7-000000.png")
	err := New(10, 10, white, black).WriteFile(path, [][]float64{{0.5}})
	if !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	r := New(64, 48, white, RGB{0.5, 0.3, 0.6})
	snap := [][]float64{{0, 0.2, 0.7, 0.9, 0.4, 0}}
	var a, b bytes.Buffer
	if err := r.Encode(&a, snap); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := r.Encode(&b, snap); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Fatal("expected identical encodings")
	}
	if _, err := png.Decode(&a); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestParseRGB(t *testing.T) {
	tests := []struct {
		in   string
		want RGB
	}{
		{"0.2,0.2,0.2", RGB{0.2, 0.2, 0.2}},
		{" 1, 0.5 ,0 ", RGB{1, 0.5, 0}},
		{"2,-1,0.5", RGB{1, 0, 0.5}},
	}
	for _, tt := range tests {
		got, err := ParseRGB(tt.in)
		if err != nil {
			t.Fatalf("ParseRGB(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseRGB(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
	for _, bad := range []string{"", "1,2", "1,2,3,4", "a,b,c", "1,,2", "nan,0,0"} {
		if _, err := ParseRGB(bad); !errors.Is(err, services.ErrInputFormat) {
			t.Fatalf("ParseRGB(%q): expected ErrInputFormat, got %v", bad, err)
		}
	}
	if got := MustParseRGB("0.5,0.3,0.6").String(); got != "0.5,0.3,0.6" {
		t.Fatalf("String() = %q", got)
	}
}

func TestParseSize(t *testing.T) {
	w, h, err := ParseSize("1920X1080")
	if err != nil || w != 1920 || h != 1080 {
		t.Fatalf("ParseSize = %d, %d, %v", w, h, err)
	}
	for _, bad := range []string{"400", "0x10", "axb", "-1x5", "10x"} {
		if _, _, err := ParseSize(bad); !errors.Is(err, services.ErrInputFormat) {
			t.Fatalf("ParseSize(%q): expected ErrInputFormat, got %v", bad, err)
		}
	}
}
