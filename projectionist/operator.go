package projectionist

import (
	"fmt"
	"testing"
	"time"

	"github.com/teranos/zoetrope/film"
	"github.com/teranos/zoetrope/jam"
)

// Operator extends Projectionist with smooth visual tracking
// capabilities, developing each marked moment of a screening into a
// PNG still.
type Operator struct {
	*Projectionist
	camera     *film.Camera
	frameCount int
	stillDir   string
}

// NewOperator creates a projectionist that can capture visual
// tracking shots of the screening.
func NewOperator(t *testing.T, model ReelModel, outputDir string) *Operator {
	cfg := film.DefaultConfig()
	cfg.Width = 80
	cfg.Height = 24
	cfg.OutputDir = outputDir

	return &Operator{
		Projectionist: NewProjectionist(t, model),
		camera:        film.NewCamera(cfg),
		frameCount:    0,
		stillDir:      outputDir,
	}
}

// WithCamera swaps in a camera with custom stock, for larger frames
// or different colors.
func (op *Operator) WithCamera(cfg film.Config) *Operator {
	op.camera = film.NewCamera(cfg)
	op.stillDir = cfg.OutputDir
	return op
}

// WithTimeout wraps the base WithTimeout method to return *Operator
func (op *Operator) WithTimeout(timeout time.Duration) *Operator {
	op.Projectionist.WithTimeout(timeout)
	return op
}

// Start wraps the base Start method to return *Operator
func (op *Operator) Start() *Operator {
	op.Projectionist.Start()
	return op
}

// WaitForIndex wraps the base method to return *Operator
func (op *Operator) WaitForIndex(expected int) *Operator {
	op.Projectionist.WaitForIndex(expected)
	return op
}

// WaitForText wraps the base method to return *Operator
func (op *Operator) WaitForText(text string) *Operator {
	op.Projectionist.WaitForText(text)
	return op
}

// WaitForSettle wraps the base method to return *Operator
func (op *Operator) WaitForSettle() *Operator {
	op.Projectionist.WaitForSettle()
	return op
}

// Stop wraps the base method to return the screening result
func (op *Operator) Stop() *Screening {
	return op.Projectionist.Stop()
}

// CaptureTrackingShot develops the current mirror view into a labeled
// PNG still.
//
// Capture failures are transient on CI filesystems, so the shot is
// retried per the jam handler's capture retry policy before being
// recorded as a flicker. A failed shot never fails the screening.
func (op *Operator) CaptureTrackingShot(label string) *Operator {
	currentView := op.getCurrentView()

	// Filename with a counter so repeated labels stay unique
	name := fmt.Sprintf("shot_%03d_%s.png", op.frameCount, label)

	retry, ok := op.jamHandler.GetRetryConfig("capture")
	if !ok || retry.MaxRetries < 1 {
		retry = jam.RetryConfig{MaxRetries: 1}
	}

	var err error
	backoff := retry.Backoff
	for attempt := 1; attempt <= retry.MaxRetries; attempt++ {
		if _, err = op.camera.Capture(currentView, name); err == nil {
			break
		}
		op.t.Logf("📸 Tracking shot attempt %d/%d failed: %v", attempt, retry.MaxRetries, err)
		if attempt < retry.MaxRetries {
			time.Sleep(backoff)
			if retry.Exponential {
				backoff *= 2
			}
		}
	}
	if err != nil {
		op.recordJam(jam.NewFlicker("capture", "tracking shot failed: "+err.Error(), jam.Context{
			"label": label,
			"still": name,
		}).WithAttempt(retry.MaxRetries))
		return op
	}

	op.frameCount++
	op.recordCue("tracking_shot", label)
	return op
}

// PressNextWithTrackingShot advances the carousel and captures the
// resulting frame.
func (op *Operator) PressNextWithTrackingShot(label string) *Operator {
	op.PressNext()
	return op.CaptureTrackingShot(label)
}

// PressPrevWithTrackingShot steps back and captures the resulting
// frame.
func (op *Operator) PressPrevWithTrackingShot(label string) *Operator {
	op.PressPrev()
	return op.CaptureTrackingShot(label)
}

// PressSelectWithTrackingShot confirms the active item and captures
// the resulting frame.
func (op *Operator) PressSelectWithTrackingShot(label string) *Operator {
	op.PressSelect()
	return op.CaptureTrackingShot(label)
}

// WaitForTextWithTrackingShot waits for text and captures the frame
// it appeared in.
func (op *Operator) WaitForTextWithTrackingShot(text string, label string) *Operator {
	op.WaitForText(text)
	return op.CaptureTrackingShot(label)
}

// WaitForSettleWithTrackingShot waits for the glide to finish and
// captures the settled frame.
func (op *Operator) WaitForSettleWithTrackingShot(label string) *Operator {
	op.WaitForSettle()
	return op.CaptureTrackingShot(label)
}

// ShotCount returns the number of tracking shots developed so far.
func (op *Operator) ShotCount() int {
	return op.frameCount
}
