package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMediaFormat marks media with the wrong stream layout or undecodable content.
	ErrMediaFormat = errors.New("media format error")
	// ErrIO marks probe/decode subprocess failures and unreadable inputs.
	ErrIO = errors.New("io error")
	// ErrChannelMismatch marks a stereo request against a non-stereo source.
	ErrChannelMismatch = errors.New("channel mismatch")
	// ErrDegenerateSignal marks a zero-variance channel (silence or DC).
	ErrDegenerateSignal = errors.New("degenerate signal")
	// ErrInvalidParameter marks derived parameters that cannot be used (window, stride, bounds).
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrInputFormat marks malformed user input such as colors or sizes.
	ErrInputFormat = errors.New("input format error")
	// ErrConfiguration marks unusable configuration.
	ErrConfiguration = errors.New("configuration error")
)

var markers = []struct {
	err  error
	kind string
}{
	{ErrMediaFormat, "media_format"},
	{ErrIO, "io"},
	{ErrChannelMismatch, "channel_mismatch"},
	{ErrDegenerateSignal, "degenerate_signal"},
	{ErrInvalidParameter, "invalid_parameter"},
	{ErrInputFormat, "input_format"},
	{ErrConfiguration, "configuration"},
}

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrIO
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns a short, stable name for the marker carried by err. Errors
// without a marker report "internal"; context cancellation reports "canceled".
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, m := range markers {
		if errors.Is(err, m.err) {
			return m.kind
		}
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	return "internal"
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "stage failure"
	}
	return strings.Join(parts, ": ")
}
