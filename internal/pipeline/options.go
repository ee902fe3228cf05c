package pipeline

import (
	"fmt"
	"math"

	"wavebars/internal/config"
	"wavebars/internal/render"
	"wavebars/internal/services"
)

// Options are the render parameters for a run.
type Options struct {
	FramesDir  string
	Rate       float64
	Bars       int
	Speed      float64
	Time       float64
	Oversample int
	Stereo     bool
	Workers    int
	Renderer   render.Renderer
}

// OptionsFromConfig builds Options from the [render] and [paths] sections.
// Malformed colors fail with services.ErrInputFormat.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	r := cfg.Render
	fg, err := render.ParseRGB(r.FGColor)
	if err != nil {
		return Options{}, fmt.Errorf("fg_color: %w", err)
	}
	fg2, err := render.ParseRGB(r.FGColor2)
	if err != nil {
		return Options{}, fmt.Errorf("fg_color2: %w", err)
	}
	bg, err := render.ParseRGB(r.BGColor)
	if err != nil {
		return Options{}, fmt.Errorf("bg_color: %w", err)
	}
	renderer := render.New(r.Width, r.Height, bg, fg, fg2)
	renderer.PadRatio = r.PadRatio
	renderer.ReleaseAlpha = r.ReleaseAlpha
	renderer.ReleaseScale = r.ReleaseScale

	return Options{
		FramesDir:  cfg.Paths.FramesDir,
		Rate:       r.Rate,
		Bars:       r.Bars,
		Speed:      r.Speed,
		Time:       r.Time,
		Oversample: r.Oversample,
		Stereo:     r.Stereo,
		Workers:    r.Workers,
		Renderer:   *renderer,
	}, nil
}

// Validate checks the values the pipeline cannot run without.
func (o Options) Validate() error {
	switch {
	case o.FramesDir == "":
		return optionErr("frames directory is empty")
	case !positive(o.Rate):
		return optionErr(fmt.Sprintf("rate %v must be positive", o.Rate))
	case o.Bars < 1:
		return optionErr(fmt.Sprintf("bars %d must be positive", o.Bars))
	case !positive(o.Time):
		return optionErr(fmt.Sprintf("time %v must be positive", o.Time))
	case o.Oversample < 1:
		return optionErr(fmt.Sprintf("oversample %d must be positive", o.Oversample))
	case o.Renderer.Width < 1 || o.Renderer.Height < 1:
		return optionErr(fmt.Sprintf("size %dx%d must be positive", o.Renderer.Width, o.Renderer.Height))
	}
	want := 1
	if o.Stereo {
		want = 2
	}
	if len(o.Renderer.Foreground) < want {
		return optionErr(fmt.Sprintf("%d foreground colors for %d channels", len(o.Renderer.Foreground), want))
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

func optionErr(msg string) error {
	return services.Wrap(services.ErrInvalidParameter, "pipeline", "options", msg, nil)
}
