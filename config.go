package zoetrope

import "time"

// Config defines the tuning constants for ring geometry and motion.
// The defaults reproduce the classic feel: a 300ms navigation
// cooldown and a 5% per-frame glide toward the rotation target.
type Config struct {
	Radius         float64       // Ring radius in abstract units
	CameraDistance float64       // Camera distance from the ring center, must exceed Radius
	Cooldown       time.Duration // Debounce window after a navigation command
	FrameInterval  time.Duration // Animation frame period
	Glide          float64       // Fraction of the remaining angle covered per frame
	SettleEpsilon  float64       // Residual angle below which rotation snaps to target
	MinScale       float64       // Smallest card scale at the back of the ring
	MaxVisible     int           // Cards drawn per frame, nearest first
	CardWidth      int           // Inner width of a full-scale card in cells
}

// DefaultConfig returns the standard carousel tuning.
func DefaultConfig() Config {
	return Config{
		Radius:         1.0,
		CameraDistance: 3.0,
		Cooldown:       300 * time.Millisecond,
		FrameInterval:  33 * time.Millisecond,
		Glide:          0.05,
		SettleEpsilon:  0.002,
		MinScale:       0.45,
		MaxVisible:     7,
		CardWidth:      26,
	}
}

// normalized fills zero or nonsense fields with defaults so a partial
// Config literal behaves.
func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.Radius <= 0 {
		c.Radius = d.Radius
	}
	if c.CameraDistance <= c.Radius {
		c.CameraDistance = c.Radius + (d.CameraDistance - d.Radius)
	}
	if c.Cooldown <= 0 {
		c.Cooldown = d.Cooldown
	}
	if c.FrameInterval <= 0 {
		c.FrameInterval = d.FrameInterval
	}
	if c.Glide <= 0 || c.Glide > 1 {
		c.Glide = d.Glide
	}
	if c.SettleEpsilon <= 0 {
		c.SettleEpsilon = d.SettleEpsilon
	}
	if c.MinScale <= 0 || c.MinScale > 1 {
		c.MinScale = d.MinScale
	}
	if c.MaxVisible < 1 {
		c.MaxVisible = d.MaxVisible
	}
	if c.CardWidth < 8 {
		c.CardWidth = d.CardWidth
	}
	return c
}
