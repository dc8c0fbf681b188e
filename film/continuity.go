package film

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/teranos/zoetrope/jam"
)

// Continuity compares fresh stills against circled takes and flags
// drift beyond tolerance. It is the script supervisor of the booth:
// every frame that does not match the circled take gets written up.
type Continuity struct {
	circledDir string
	currentDir string
	tolerance  float64
	handler    *jam.Handler
}

// NewContinuity sets up a supervisor over the two directories.
// Tolerance starts at 5% of pixels.
func NewContinuity(circledDir, currentDir string) *Continuity {
	return &Continuity{
		circledDir: circledDir,
		currentDir: currentDir,
		tolerance:  0.05,
	}
}

// WithTolerance adjusts how much pixel drift is acceptable before a
// continuity break is declared. The fraction is of total pixels.
func (ct *Continuity) WithTolerance(fraction float64) *Continuity {
	if fraction >= 0 {
		ct.tolerance = fraction
	}
	return ct
}

// WithHandler routes continuity incidents into a jam handler so they
// show up in the session's incident report.
func (ct *Continuity) WithHandler(h *jam.Handler) *Continuity {
	ct.handler = h
	return ct
}

// Check compares the current still named name against its circled
// take. On a break it develops a red-marked drift image next to the
// current still and returns an error carrying the drift percentage.
func (ct *Continuity) Check(name string) error {
	circledPath := filepath.Join(ct.circledDir, name)
	currentPath := filepath.Join(ct.currentDir, name)

	circled, err := loadStill(circledPath)
	if err != nil {
		return fmt.Errorf("no circled take for %q: %w", name, err)
	}
	current, err := loadStill(currentPath)
	if err != nil {
		return fmt.Errorf("no current still for %q: %w", name, err)
	}

	drift := pixelDrift(circled, current)
	if drift <= ct.tolerance {
		return nil
	}

	markPath := filepath.Join(ct.currentDir, "drift_"+name)
	if err := ct.markDrift(circled, current, markPath); err != nil && ct.handler != nil {
		ct.handler.Record(jam.NewFlicker("capture", "could not develop drift marker", jam.Context{
			"still": name,
			"path":  markPath,
		}))
	}
	if ct.handler != nil {
		ct.handler.Record(jam.NewJam("capture", "continuity break", jam.Context{
			"still":     name,
			"drift":     drift,
			"tolerance": ct.tolerance,
		}))
	}
	return fmt.Errorf("continuity break on %q: %.2f%% drift (tolerance %.2f%%)", name, drift*100, ct.tolerance*100)
}

// Circle promotes the current still to the circled take, the frame
// future checks will be held against. The circled directory is
// created if it does not exist yet.
func (ct *Continuity) Circle(name string) error {
	current, err := os.Open(filepath.Join(ct.currentDir, name))
	if err != nil {
		return fmt.Errorf("no current still to circle: %w", err)
	}
	defer current.Close()

	if err := os.MkdirAll(ct.circledDir, 0755); err != nil {
		return fmt.Errorf("failed to create circled takes directory: %w", err)
	}
	circled, err := os.Create(filepath.Join(ct.circledDir, name))
	if err != nil {
		return fmt.Errorf("could not write circled take: %w", err)
	}
	defer circled.Close()

	_, err = circled.ReadFrom(current)
	return err
}

// pixelDrift returns the fraction of pixels that differ. Mismatched
// bounds count as total drift.
func pixelDrift(a, b image.Image) float64 {
	if a.Bounds() != b.Bounds() {
		return 1.0
	}
	bounds := a.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return 0
	}
	differing := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if a.At(x, y) != b.At(x, y) {
				differing++
			}
		}
	}
	return float64(differing) / float64(total)
}

// markDrift writes a copy of the current still with drifting pixels
// painted red and matching pixels dimmed, so the break is visible at
// a glance.
func (ct *Continuity) markDrift(circled, current image.Image, path string) error {
	bounds := current.Bounds()
	mark := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if !circled.Bounds().Eq(bounds) || circled.At(x, y) != current.At(x, y) {
				mark.Set(x, y, color.RGBA{R: 255, G: 0, B: 0, A: 255})
				continue
			}
			r, g, b, _ := current.At(x, y).RGBA()
			mark.Set(x, y, color.RGBA{
				R: uint8(r >> 9),
				G: uint8(g >> 9),
				B: uint8(b >> 9),
				A: 255,
			})
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return png.Encode(file, mark)
}

func loadStill(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	return img, err
}
