package config

import (
	"errors"
	"fmt"
	"math"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateDecoder(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateRender() error {
	r := c.Render
	if err := ensurePositiveFloats(map[string]float64{
		"render.rate":  r.Rate,
		"render.speed": r.Speed,
		"render.time":  r.Time,
	}); err != nil {
		return err
	}
	if err := ensurePositiveInts(map[string]int{
		"render.bars":       r.Bars,
		"render.oversample": r.Oversample,
		"render.width":      r.Width,
		"render.height":     r.Height,
	}); err != nil {
		return err
	}
	if r.PadRatio < 0 {
		return errors.New("render.pad_ratio must be >= 0")
	}
	if r.ReleaseAlpha < 0 || r.ReleaseAlpha > 1 {
		return errors.New("render.release_alpha must be between 0 and 1")
	}
	if r.ReleaseScale < 0 {
		return errors.New("render.release_scale must be >= 0")
	}
	return nil
}

func (c *Config) validateDecoder() error {
	switch c.Decoder.Backend {
	case BackendFFmpeg, BackendNative:
		return nil
	default:
		return fmt.Errorf("decoder.backend: unsupported value %q (expected %q or %q)", c.Decoder.Backend, BackendFFmpeg, BackendNative)
	}
}

func ensurePositiveFloats(values map[string]float64) error {
	for key, value := range values {
		if math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

func ensurePositiveInts(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
