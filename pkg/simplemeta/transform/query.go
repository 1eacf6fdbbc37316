package transform

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tendant/simple-meta/pkg/simplemeta"
)

// QueryStrategy renders transforms as query parameters understood by
// imgix style image CDNs: w, h, fm, fit, q and focal point cropping.
type QueryStrategy struct {
	CDNBaseURL string // e.g., "https://images.example.com"; empty keeps the source origin
	SignKey    string // optional; adds an "s" signature parameter
}

// NewQueryStrategy creates a new query transform strategy
func NewQueryStrategy(cdnBaseURL, signKey string) *QueryStrategy {
	// Ensure cdnBaseURL doesn't have trailing slash
	return &QueryStrategy{
		CDNBaseURL: strings.TrimSuffix(cdnBaseURL, "/"),
		SignKey:    signKey,
	}
}

// Transform builds the transformed URL for img
func (s *QueryStrategy) Transform(ctx context.Context, img *simplemeta.Image, opts simplemeta.TransformOptions) (string, error) {
	if img == nil || img.URL == "" {
		return "", ErrNoURL
	}

	u, err := url.Parse(img.URL)
	if err != nil {
		return "", fmt.Errorf("parse image url: %w", err)
	}

	if s.CDNBaseURL != "" {
		base, err := url.Parse(s.CDNBaseURL)
		if err != nil {
			return "", fmt.Errorf("parse CDN base url: %w", err)
		}
		u.Scheme = base.Scheme
		u.Host = base.Host
		u.Path = strings.TrimSuffix(base.Path, "/") + "/" + strings.TrimPrefix(u.Path, "/")
	}

	params := u.Query()
	if opts.Width > 0 {
		params.Set("w", strconv.Itoa(opts.Width))
	}
	if opts.Height > 0 {
		params.Set("h", strconv.Itoa(opts.Height))
	}
	if opts.Format != "" {
		params.Set("fm", strings.ToLower(opts.Format))
	}
	if opts.Quality > 0 {
		params.Set("q", strconv.Itoa(opts.Quality))
	}
	if fit := fitMode(opts.Mode); fit != "" {
		params.Set("fit", fit)
	}
	if x, y, ok := focus(img, opts.Position); ok && params.Get("fit") == "crop" {
		params.Set("crop", "focalpoint")
		params.Set("fp-x", formatFraction(x))
		params.Set("fp-y", formatFraction(y))
	}
	params.Del("s")
	u.RawQuery = params.Encode()

	if s.SignKey != "" {
		sum := md5.Sum([]byte(s.SignKey + u.EscapedPath() + "?" + u.RawQuery))
		params.Set("s", hex.EncodeToString(sum[:]))
		u.RawQuery = params.Encode()
	}

	return u.String(), nil
}

// fitMode maps transform modes onto CDN fit values
func fitMode(mode string) string {
	switch strings.ToLower(mode) {
	case "":
		return ""
	case "crop":
		return "crop"
	case "fit":
		return "clip"
	case "stretch":
		return "scale"
	case "letterbox":
		return "fill"
	}
	return strings.ToLower(mode)
}
