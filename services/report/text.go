package report

import (
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	remarksBaseSize  = 10.0
	remarksFloorSize = 6.0
	remarksSizeStep  = 0.5
)

// truncateToWidth shortens text with a trailing ellipsis until it fits the
// given width at the currently selected font.
func truncateToWidth(pdf *fpdf.Fpdf, text string, maxW float64) string {
	if pdf.GetStringWidth(text) <= maxW {
		return text
	}

	runes := []rune(text)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := strings.TrimRight(string(runes), " ") + "..."
		if pdf.GetStringWidth(candidate) <= maxW {
			return candidate
		}
	}
	return "..."
}

// fitRemarks finds a font size, starting at the base and stepping down to the
// floor, at which the wrapped remarks fit the fixed box height. If the floor
// size still overflows, line spacing is compressed instead of truncating
// content. Returns the chosen size, line height and wrapped lines.
func fitRemarks(pdf *fpdf.Fpdf, remarks string, boxW, boxH float64) (float64, float64, []string) {
	var lines []string

	for size := remarksBaseSize; size >= remarksFloorSize; size -= remarksSizeStep {
		pdf.SetFont(fontBody, "", size)
		lines = pdf.SplitText(remarks, boxW)
		lineH := size * 0.42
		if float64(len(lines))*lineH <= boxH {
			return size, lineH, lines
		}
	}

	pdf.SetFont(fontBody, "", remarksFloorSize)
	lines = pdf.SplitText(remarks, boxW)
	lineH := boxH / float64(len(lines))
	return remarksFloorSize, lineH, lines
}

func parseHexColor(hex string) (int, int, int) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 0, 0, 0
	}
	var rgb [3]int
	for i := 0; i < 3; i++ {
		v := 0
		for _, ch := range hex[i*2 : i*2+2] {
			v *= 16
			switch {
			case ch >= '0' && ch <= '9':
				v += int(ch - '0')
			case ch >= 'a' && ch <= 'f':
				v += int(ch-'a') + 10
			case ch >= 'A' && ch <= 'F':
				v += int(ch-'A') + 10
			default:
				return 0, 0, 0
			}
		}
		rgb[i] = v
	}
	return rgb[0], rgb[1], rgb[2]
}
