package transform

import (
	"strconv"
	"strings"

	"github.com/tendant/simple-meta/pkg/simplemeta"
)

// focus resolves the point of interest of a transform as fractions of the
// image size. Explicit positions win over the image focal point.
func focus(img *simplemeta.Image, position string) (x, y float64, ok bool) {
	if position != "" {
		return parsePosition(position)
	}
	if img.FocalPoint != nil {
		return img.FocalPoint.X, img.FocalPoint.Y, true
	}
	return 0, 0, false
}

// parsePosition understands "50% 25%" and keyword positions like
// "top-left" or "center-center".
func parsePosition(position string) (x, y float64, ok bool) {
	position = strings.ToLower(strings.TrimSpace(position))
	if parts := strings.Fields(position); len(parts) == 2 && strings.HasSuffix(parts[0], "%") {
		px, errX := strconv.ParseFloat(strings.TrimSuffix(parts[0], "%"), 64)
		py, errY := strconv.ParseFloat(strings.TrimSuffix(parts[1], "%"), 64)
		if errX != nil || errY != nil {
			return 0, 0, false
		}
		return clamp(px / 100), clamp(py / 100), true
	}

	vertical, horizontal, found := strings.Cut(position, "-")
	if !found {
		return 0, 0, false
	}
	y, okY := keywordOffset(vertical, "top", "bottom")
	x, okX := keywordOffset(horizontal, "left", "right")
	return x, y, okX && okY
}

func keywordOffset(word, start, end string) (float64, bool) {
	switch word {
	case start:
		return 0, true
	case "center":
		return 0.5, true
	case end:
		return 1, true
	}
	return 0, false
}

// positionKeyword snaps a point to the nearest of the nine keyword positions.
func positionKeyword(x, y float64) string {
	return thirds(y, "top", "bottom") + "-" + thirds(x, "left", "right")
}

func thirds(v float64, start, end string) string {
	switch {
	case v < 1.0/3:
		return start
	case v > 2.0/3:
		return end
	}
	return "center"
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func formatFraction(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
