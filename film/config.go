package film

import (
	"image/color"

	"github.com/caarlos0/env/v11"
)

// Config controls how terminal frames are developed into stills.
type Config struct {
	Width     int     `env:"ZOETROPE_STILL_WIDTH"  envDefault:"100"`
	Height    int     `env:"ZOETROPE_STILL_HEIGHT" envDefault:"30"`
	OutputDir string  `env:"ZOETROPE_STILL_DIR"    envDefault:"stills"`
	Tolerance float64 `env:"ZOETROPE_DRIFT_TOLERANCE" envDefault:"0.05"`

	// Colors are not environment-tunable; override them in code.
	Background color.RGBA
	Foreground color.RGBA
}

// DefaultConfig returns the stock darkroom settings: a 100x30 cell
// frame developed as light text on a near-black ground.
func DefaultConfig() Config {
	return Config{
		Width:      100,
		Height:     30,
		OutputDir:  "stills",
		Tolerance:  0.05,
		Background: color.RGBA{R: 18, G: 18, B: 24, A: 255},
		Foreground: color.RGBA{R: 220, G: 220, B: 230, A: 255},
	}
}

// ConfigFromEnv reads ZOETROPE_* overrides on top of the defaults.
// Parse failures fall back to the stock settings.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return DefaultConfig()
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return DefaultConfig()
	}
	return cfg
}
