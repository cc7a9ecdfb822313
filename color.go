package xlsxturbo

import (
	"strings"
)

var namedColors = map[string]string{
	"white":   "#FFFFFF",
	"black":   "#000000",
	"red":     "#FF0000",
	"green":   "#00FF00",
	"blue":    "#0000FF",
	"yellow":  "#FFFF00",
	"cyan":    "#00FFFF",
	"magenta": "#FF00FF",
	"gray":    "#808080",
	"grey":    "#808080",
	"silver":  "#C0C0C0",
	"orange":  "#FFA500",
	"purple":  "#800080",
	"navy":    "#000080",
	"teal":    "#008080",
	"maroon":  "#800000",
}

// ParseColor normalizes "#RRGGBB" or a basic color name to upper-case
// "#RRGGBB". option names the setting the color came from, for errors.
func ParseColor(option, color string) (string, error) {
	c := strings.TrimSpace(color)
	if hex, ok := strings.CutPrefix(c, "#"); ok {
		if len(hex) != 6 {
			return "", configErr(option, color, "invalid hex color: expected 6 characters after #, got %d", len(hex))
		}
		for i := 0; i < len(hex); i++ {
			if !isHexDigit(hex[i]) {
				return "", configErr(option, color, "invalid hex color: '%c' is not a hex digit", hex[i])
			}
		}
		return "#" + strings.ToUpper(hex), nil
	}
	if v, ok := namedColors[strings.ToLower(c)]; ok {
		return v, nil
	}
	return "", configErr(option, color, "unknown color: use #RRGGBB or one of white, black, red, green, blue, yellow, cyan, magenta, gray, silver, orange, purple, navy, teal, maroon")
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}
