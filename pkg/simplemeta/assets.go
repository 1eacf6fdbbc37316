package simplemeta

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	ogImageKey      = "og:image"
	twitterImageKey = "twitter:image"
)

// transformAssets replaces image values with materialized URLs and adds the
// og:image and twitter:image companion keys.
func (r *resolution) transformAssets(ctx context.Context, meta *Bag) {
	meta.Range(func(key string, v Value) bool {
		img := v.Image()
		if img == nil {
			return true
		}

		opts := r.rules.transforms[key]
		meta.Set(key, String(r.transformedURL(ctx, key, img, opts)))

		switch key {
		case ogImageKey:
			if alt := r.altText(img); alt != "" {
				meta.Set(key+":alt", String(alt))
			}
			if mime := opts.MimeType(); mime != "" {
				meta.Set(key+":type", String(mime))
			}
			if opts.Width > 0 {
				meta.Set(key+":width", String(strconv.Itoa(opts.Width)))
			}
			if opts.Height > 0 {
				meta.Set(key+":height", String(strconv.Itoa(opts.Height)))
			}
		case twitterImageKey:
			if alt := r.altText(img); alt != "" {
				meta.Set(key+":alt", String(alt))
			}
		}
		return true
	})
}

// transformedURL runs the image through the imager or the native
// transformer. Failures are reported and yield "".
func (r *resolution) transformedURL(ctx context.Context, key string, img *Image, opts TransformOptions) string {
	ctx, span := tracer.Start(ctx, "simplemeta.Transform")
	defer span.End()
	span.SetAttributes(attribute.String("simplemeta.key", key), attribute.String("simplemeta.image", img.URL))

	transformer := r.transformer
	if r.settings.UseImagerIfInstalled && r.imager != nil {
		transformer = r.imager
		if opts.Position == "" && img.FocalPoint != nil {
			opts.Position = img.FocalPoint.Position()
		}
	}

	out, err := transformer.Transform(ctx, img, opts)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		r.fail(ctx, StageAssets, &TransformError{Key: key, URL: img.URL, Err: err})
		return ""
	}
	if out == "" {
		return ""
	}
	return r.absoluteURL(ctx, out)
}

// altText reads the configured alt-text field of an image.
func (r *resolution) altText(img *Image) string {
	if r.settings.AltTextFieldHandle == "" {
		return ""
	}
	raw, ok := img.Lookup(r.settings.AltTextFieldHandle)
	if !ok {
		return ""
	}
	alt, _ := textOf(raw)
	return alt
}

// absoluteURL resolves a site-relative URL against the current site base URL.
// Protocol-relative URLs get the site scheme, or https.
func (r *resolution) absoluteURL(ctx context.Context, raw string) string {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}

	var base *url.URL
	if site, err := r.currentSite(ctx); err == nil && site != nil && site.BaseURL != "" {
		base, _ = url.Parse(site.BaseURL)
	}

	if strings.HasPrefix(raw, "//") {
		scheme := "https"
		if base != nil && base.Scheme != "" {
			scheme = base.Scheme
		}
		return scheme + ":" + raw
	}

	if base == nil || base.Host == "" {
		return raw
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return base.ResolveReference(ref).String()
}
