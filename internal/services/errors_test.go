package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"wavebars/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrIO, "decode", "ffmpeg", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"decode", "ffmpeg", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutDetail(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected nil marker to default to ErrIO, got %v", err)
	}
	if !strings.Contains(err.Error(), "stage failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestKindMapping(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{services.Wrap(services.ErrMediaFormat, "decode", "probe", "two streams", nil), "media_format"},
		{services.Wrap(services.ErrChannelMismatch, "pipeline", "stereo", "mono input", nil), "channel_mismatch"},
		{services.Wrap(services.ErrDegenerateSignal, "envelope", "normalize", "silent", nil), "degenerate_signal"},
		{services.Wrap(services.ErrInvalidParameter, "envelope", "params", "window", nil), "invalid_parameter"},
		{services.Wrap(services.ErrInputFormat, "cli", "color", "bad", nil), "input_format"},
		{fmt.Errorf("render: %w", context.Canceled), "canceled"},
		{errors.New("plain"), "internal"},
	}
	for _, tc := range cases {
		if got := services.Kind(tc.err); got != tc.want {
			t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
