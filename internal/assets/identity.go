package assets

import (
	"fmt"
	"strings"
	"unicode"
)

// Fixed saturation/lightness for derived peer colors, hue comes from the id.
const (
	colorSaturation = 160.0 / 255.0
	colorLightness  = 120.0 / 255.0
)

// Color derives a deterministic display color for a peer id. The hue is the
// id modulo 360 with fixed saturation and lightness. Returned as "#rrggbb".
func Color(id int64) string {
	hue := float64(((id % 360) + 360) % 360)
	r, g, b := hslToRGB(hue, colorSaturation, colorLightness)
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func hslToRGB(h, s, l float64) (uint8, uint8, uint8) {
	c := (1 - abs(2*l-1)) * s
	x := c * (1 - abs(mod2(h/60)-1))
	m := l - c/2

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	return uint8((r + m) * 255), uint8((g + m) * 255), uint8((b + m) * 255)
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func mod2(f float64) float64 {
	for f >= 2 {
		f -= 2
	}
	return f
}

// Initials derives the one-or-two character thumbnail label for a title: the
// first alphanumeric rune of up to the first two whitespace-separated words,
// uppercased. Falls back to the first rune of the raw title.
func Initials(title string) string {
	var out []rune

	for _, word := range strings.Fields(title) {
		for _, r := range word {
			if unicode.IsLetter(r) || unicode.IsNumber(r) {
				out = append(out, unicode.ToUpper(r))
				break
			}
		}
		if len(out) > 1 {
			break
		}
	}

	if len(out) == 0 && title != "" {
		for _, r := range title {
			out = append(out, unicode.ToUpper(r))
			break
		}
	}

	return string(out)
}
