package film

import (
	"image/color"
	"strconv"
	"strings"
)

// basicInk holds the sixteen classic terminal colors, indexed by
// their SGR offset.
var basicInk = [16]color.RGBA{
	{0, 0, 0, 255},
	{128, 0, 0, 255},
	{0, 128, 0, 255},
	{128, 128, 0, 255},
	{0, 0, 128, 255},
	{128, 0, 128, 255},
	{0, 128, 128, 255},
	{192, 192, 192, 255},
	{128, 128, 128, 255},
	{255, 0, 0, 255},
	{0, 255, 0, 255},
	{255, 255, 0, 255},
	{0, 0, 255, 255},
	{255, 0, 255, 255},
	{0, 255, 255, 255},
	{255, 255, 255, 255},
}

// sequenceInk applies one CSI sequence to the current ink and returns
// the ink for the glyphs that follow it. Sequences that do not touch
// the foreground (bold, backgrounds, cursor movement) leave the ink
// alone; a reset restores the fallback.
func sequenceInk(seq string, current, fallback color.RGBA) color.RGBA {
	if !strings.HasSuffix(seq, "m") {
		return current
	}
	params := strings.TrimSuffix(strings.TrimPrefix(seq, "\x1b["), "m")
	if params == "" {
		return fallback
	}
	ink := current
	parts := strings.Split(params, ";")
	for i := 0; i < len(parts); i++ {
		code, err := strconv.Atoi(parts[i])
		if err != nil {
			continue
		}
		switch {
		case code == 0 || code == 39:
			ink = fallback
		case code >= 30 && code <= 37:
			ink = basicInk[code-30]
		case code >= 90 && code <= 97:
			ink = basicInk[code-90+8]
		case code == 38 || code == 48 || code == 58:
			// Extended colors carry their own arguments; consume
			// them as a unit so a background color is never
			// mistaken for a foreground one.
			picked, consumed, ok := extendedInk(parts[i+1:])
			if code == 38 && ok {
				ink = picked
			}
			i += consumed
		}
	}
	return ink
}

// extendedInk reads the arguments of a 38/48/58 extended-color code:
// "5;n" indexes the 256-color palette, "2;r;g;b" is direct RGB. The
// count of consumed arguments comes back even when the color is
// malformed so the caller can keep its place in the sequence.
func extendedInk(args []string) (color.RGBA, int, bool) {
	switch {
	case len(args) >= 2 && args[0] == "5":
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 0 || n > 255 {
			return color.RGBA{}, 2, false
		}
		return paletteInk(n), 2, true
	case len(args) >= 4 && args[0] == "2":
		r, errR := strconv.Atoi(args[1])
		g, errG := strconv.Atoi(args[2])
		b, errB := strconv.Atoi(args[3])
		if errR != nil || errG != nil || errB != nil {
			return color.RGBA{}, 4, false
		}
		return color.RGBA{uint8(r), uint8(g), uint8(b), 255}, 4, true
	}
	return color.RGBA{}, 0, false
}

// paletteInk resolves an xterm 256-color index across its three
// bands: classic colors below 16, the 6x6x6 cube through 231, and
// the grayscale ramp above that.
func paletteInk(n int) color.RGBA {
	switch {
	case n < 16:
		return basicInk[n]
	case n < 232:
		n -= 16
		return color.RGBA{cubeChannel(n / 36), cubeChannel(n / 6 % 6), cubeChannel(n % 6), 255}
	default:
		v := uint8(8 + 10*(n-232))
		return color.RGBA{v, v, v, 255}
	}
}

func cubeChannel(v int) uint8 {
	if v == 0 {
		return 0
	}
	return uint8(55 + 40*v)
}
