package render

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"

	"golang.org/x/image/vector"

	"wavebars/internal/fileutil"
	"wavebars/internal/services"
)

// Defaults for the bar geometry.
const (
	DefaultPadRatio     = 0.1
	DefaultReleaseAlpha = 0.8
	DefaultReleaseScale = 1.0
)

// Renderer draws snapshots at a fixed size. The zero values of PadRatio,
// ReleaseAlpha and ReleaseScale are used as given; start from New to get the
// defaults.
type Renderer struct {
	Width, Height int
	// Foreground holds one color per channel.
	Foreground   []RGB
	Background   RGB
	PadRatio     float64
	ReleaseAlpha float64
	ReleaseScale float64
}

// New returns a renderer with default bar geometry.
func New(width, height int, background RGB, foreground ...RGB) *Renderer {
	return &Renderer{
		Width:        width,
		Height:       height,
		Foreground:   foreground,
		Background:   background,
		PadRatio:     DefaultPadRatio,
		ReleaseAlpha: DefaultReleaseAlpha,
		ReleaseScale: DefaultReleaseScale,
	}
}

// Render rasterizes one snapshot per channel. All snapshots must share the
// same bar count.
func (r *Renderer) Render(snapshots [][]float64) (*image.RGBA, error) {
	if r.Width <= 0 || r.Height <= 0 {
		return nil, invalid(fmt.Sprintf("size %dx%d", r.Width, r.Height))
	}
	k := len(snapshots)
	if k == 0 {
		return nil, invalid("no channels")
	}
	if len(r.Foreground) < k {
		return nil, invalid(fmt.Sprintf("%d channels but %d foreground colors", k, len(r.Foreground)))
	}
	bars := len(snapshots[0])
	for i, snap := range snapshots {
		if len(snap) != bars {
			return nil, invalid(fmt.Sprintf("channel %d has %d bars, channel 0 has %d", i, len(snap), bars))
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(r.Background.NRGBA(1)), image.Point{}, draw.Src)
	if bars == 0 {
		return img, nil
	}

	w, h := float32(r.Width), float32(r.Height)
	width := 1 / (float64(bars) * (1 + 2*r.PadRatio))
	pad := r.PadRatio * width
	delta := 2*pad + width

	attack := vector.NewRasterizer(r.Width, r.Height)
	release := vector.NewRasterizer(r.Width, r.Height)
	for i, snap := range snapshots {
		attack.Reset(r.Width, r.Height)
		release.Reset(r.Width, r.Height)
		mid := float64(1+2*i) / float64(2*k)
		for t, v := range snap {
			if !(v > 0) {
				continue
			}
			half := v / 2 / float64(k)
			x := pad + float64(t)*delta
			x0, x1 := float32(x-width/2)*w, float32(x+width/2)*w
			addRect(attack, w, h, x0, float32(mid-half)*h, x1, float32(mid)*h)
			addRect(release, w, h, x0, float32(mid)*h, x1, float32(mid+r.ReleaseScale*half)*h)
		}
		fg := r.Foreground[i]
		attack.Draw(img, img.Bounds(), image.NewUniform(fg.NRGBA(1)), image.Point{})
		release.Draw(img, img.Bounds(), image.NewUniform(fg.NRGBA(r.ReleaseAlpha)), image.Point{})
	}
	return img, nil
}

// Encode renders snapshots and writes them to w as PNG.
func (r *Renderer) Encode(w io.Writer, snapshots [][]float64) error {
	img, err := r.Render(snapshots)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// WriteFile renders snapshots into path through a temp file and rename.
func (r *Renderer) WriteFile(path string, snapshots [][]float64) error {
	img, err := r.Render(snapshots)
	if err != nil {
		return err
	}
	return WriteFile(path, img)
}

// WriteFile encodes img as PNG at path atomically.
func WriteFile(path string, img image.Image) error {
	err := fileutil.WriteAtomic(path, func(w io.Writer) error {
		return png.Encode(w, img)
	})
	if err != nil {
		return services.Wrap(services.ErrIO, stageRender, "write frame", path, err)
	}
	return nil
}

// addRect adds the rectangle clipped to [0,w]x[0,h].
func addRect(z *vector.Rasterizer, w, h, x0, y0, x1, y1 float32) {
	x0, x1 = max(x0, 0), min(x1, w)
	y0, y1 = max(y0, 0), min(y1, h)
	if x1 <= x0 || y1 <= y0 {
		return
	}
	z.MoveTo(x0, y0)
	z.LineTo(x1, y0)
	z.LineTo(x1, y1)
	z.LineTo(x0, y1)
	z.ClosePath()
}

func invalid(msg string) error {
	return services.Wrap(services.ErrInvalidParameter, stageRender, "render", msg, nil)
}
