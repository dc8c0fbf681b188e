// Package film develops terminal frames into PNG stills and keeps
// continuity between takes. The camera exposes rendered views onto a
// fixed character grid, the darkroom writes them out as images, and
// the continuity check compares fresh stills against blessed
// baselines so a drifting layout is caught before it ships.
package film

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ansiEscape matches CSI sequences so exposure can split styling off
// from the glyphs it colors.
var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// Camera exposes terminal views onto a character grid and develops
// them into PNG stills.
type Camera struct {
	cfg    Config
	gate   [][]rune
	ink    [][]color.RGBA
	cellW  int
	cellH  int
	face   font.Face
	ascent int
}

// NewCamera loads a camera with the given stock. Invalid frame
// dimensions fall back to the default stock.
func NewCamera(cfg Config) *Camera {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg = DefaultConfig()
	}
	gate := make([][]rune, cfg.Height)
	ink := make([][]color.RGBA, cfg.Height)
	for y := 0; y < cfg.Height; y++ {
		gate[y] = make([]rune, cfg.Width)
		ink[y] = make([]color.RGBA, cfg.Width)
		for x := 0; x < cfg.Width; x++ {
			gate[y][x] = ' '
			ink[y][x] = cfg.Foreground
		}
	}
	return &Camera{
		cfg:    cfg,
		gate:   gate,
		ink:    ink,
		cellW:  8,
		cellH:  16,
		face:   basicfont.Face7x13,
		ascent: 12,
	}
}

// Expose loads a rendered view into the gate, replacing the previous
// exposure. Lines beyond the frame are cropped.
func (c *Camera) Expose(view string) {
	c.clearGate()
	lines := strings.Split(view, "\n")
	for y, line := range lines {
		if y >= c.cfg.Height {
			break
		}
		c.exposeLine(y, line)
	}
}

// exposeLine walks one raw line, writing glyphs into gate row y and
// carrying whatever ink the SGR sequences along the way select.
func (c *Camera) exposeLine(y int, line string) {
	x := 0
	ink := c.cfg.Foreground
	for line != "" {
		loc := ansiEscape.FindStringIndex(line)
		if loc != nil && loc[0] == 0 {
			ink = sequenceInk(line[:loc[1]], ink, c.cfg.Foreground)
			line = line[loc[1]:]
			continue
		}
		chunk := line
		if loc != nil {
			chunk, line = line[:loc[0]], line[loc[0]:]
		} else {
			line = ""
		}
		for _, g := range chunk {
			if x >= c.cfg.Width {
				return
			}
			c.gate[y][x] = g
			c.ink[y][x] = ink
			x++
		}
	}
}

func (c *Camera) clearGate() {
	for y := range c.gate {
		for x := range c.gate[y] {
			c.gate[y][x] = ' '
			c.ink[y][x] = c.cfg.Foreground
		}
	}
}

// Frame renders the current exposure as an in-memory image.
func (c *Camera) Frame() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, c.cfg.Width*c.cellW, c.cfg.Height*c.cellH))
	draw.Draw(img, img.Bounds(), image.NewUniform(c.cfg.Background), image.Point{}, draw.Src)
	for y, row := range c.gate {
		for x, g := range row {
			if g == ' ' {
				continue
			}
			d := &font.Drawer{
				Dst:  img,
				Src:  image.NewUniform(c.ink[y][x]),
				Face: c.face,
				Dot: fixed.Point26_6{
					X: fixed.Int26_6((x * c.cellW) << 6),
					Y: fixed.Int26_6((y*c.cellH + c.ascent) << 6),
				},
			}
			d.DrawString(string(g))
		}
	}
	return img
}

// Still develops the current exposure into a PNG under the output
// directory, creating the directory if needed, and returns the path
// it was written to.
func (c *Camera) Still(name string) (string, error) {
	if err := os.MkdirAll(c.cfg.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(c.cfg.OutputDir, name)
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	if err := png.Encode(file, c.Frame()); err != nil {
		return "", err
	}
	return path, nil
}

// Capture is Expose followed by Still in one motion, for callers that
// only want the finished print.
func (c *Camera) Capture(view, name string) (string, error) {
	c.Expose(view)
	return c.Still(name)
}
