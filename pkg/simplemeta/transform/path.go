package transform

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/tendant/simple-meta/pkg/simplemeta"
)

// PathStrategy encodes transforms in a directory next to the source file,
// the way Craft stores generated transforms:
// /uploads/hero.jpg -> /uploads/_1200x630_crop_center-center_82/hero.webp
type PathStrategy struct{}

// NewPathStrategy creates a new path transform strategy
func NewPathStrategy() *PathStrategy {
	return &PathStrategy{}
}

// Transform builds the transformed URL for img
func (s *PathStrategy) Transform(ctx context.Context, img *simplemeta.Image, opts simplemeta.TransformOptions) (string, error) {
	if img == nil || img.URL == "" {
		return "", ErrNoURL
	}
	if opts.IsZero() {
		return img.URL, nil
	}

	u, err := url.Parse(img.URL)
	if err != nil {
		return "", fmt.Errorf("parse image url: %w", err)
	}

	dir, file := path.Split(u.Path)
	if file == "" {
		return "", fmt.Errorf("image url %q has no file name", img.URL)
	}
	if opts.Format != "" {
		file = strings.TrimSuffix(file, path.Ext(file)) + "." + strings.ToLower(opts.Format)
	}

	u.Path = dir + segment(img, opts) + "/" + file
	return u.String(), nil
}

// segment names the transform directory: _{w}x{h}_{mode}_{position}_{quality}
func segment(img *simplemeta.Image, opts simplemeta.TransformOptions) string {
	dimension := func(n int) string {
		if n <= 0 {
			return "AUTO"
		}
		return strconv.Itoa(n)
	}

	mode := strings.ToLower(opts.Mode)
	if mode == "" {
		mode = "crop"
	}

	position := "center-center"
	if x, y, ok := focus(img, opts.Position); ok {
		position = positionKeyword(x, y)
	}

	parts := []string{"", dimension(opts.Width) + "x" + dimension(opts.Height), mode, position}
	if opts.Quality > 0 {
		parts = append(parts, strconv.Itoa(opts.Quality))
	}
	return strings.Join(parts, "_")
}
