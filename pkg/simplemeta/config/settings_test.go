package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tendant/simple-meta/pkg/simplemeta"
)

const settingsFile = `
cacheDuration: 30m
defaultProfile: page
fieldProfiles:
  page:
    title: [seoTitle, title]
    description: summary
imageTransformMap:
  og:image: {width: 600, height: 315, format: webp}
tagTemplateMap:
  default: <meta name="{{ key }}" content="{{ value }}">
  title: <title>{{ value }}</title>
siteName: Acme
`

func TestParseSettings(t *testing.T) {
	settings, err := ParseSettings(strings.NewReader(settingsFile))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if settings.CacheDuration != 30*time.Minute {
		t.Errorf("expected 30m cache duration, got %s", settings.CacheDuration)
	}
	if settings.SiteName.Name != "Acme" {
		t.Errorf("expected site name Acme, got %q", settings.SiteName.Name)
	}

	// present keys replace the defaults whole
	if len(settings.ImageTransformMap) != 1 {
		t.Errorf("expected one image transform, got %v", settings.ImageTransformMap)
	}
	if got := settings.ImageTransformMap["og:image"]; got.Width != 600 || got.Format != "webp" {
		t.Errorf("unexpected og:image transform: %+v", got)
	}
	if keys := settings.TagTemplateMap.Keys(); len(keys) != 2 || keys[0] != "default" || keys[1] != "title" {
		t.Errorf("unexpected tag templates: %v", keys)
	}

	// absent keys keep the defaults
	if !settings.CacheEnabled {
		t.Error("expected cache to stay enabled")
	}
	if settings.AutofillMap.Len() != 6 {
		t.Errorf("expected default autofill map, got %d keys", settings.AutofillMap.Len())
	}
	if settings.SitenameSeparator != "|" {
		t.Errorf("expected default separator, got %q", settings.SitenameSeparator)
	}
}

func TestParseSettingsErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown key", "cacheEnabld: true\n"},
		{"not a mapping", "- a\n- b\n"},
		{"invalid value", "sitenamePosition: middle\n"},
		{"undefined profile", "defaultProfile: missing\n"},
		{"malformed", "fieldProfiles: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSettings(strings.NewReader(tt.yaml))
			if !errors.Is(err, simplemeta.ErrInvalidSettings) {
				t.Errorf("expected ErrInvalidSettings, got %v", err)
			}
		})
	}
}

func TestParseSettingsEmpty(t *testing.T) {
	for _, doc := range []string{"", "# nothing\n", "~\n"} {
		settings, err := ParseSettings(strings.NewReader(doc))
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", doc, err)
		}
		if settings.CacheDuration != time.Hour {
			t.Errorf("expected defaults for %q", doc)
		}
	}
}

func TestLoadSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte(settingsFile), 0o644); err != nil {
		t.Fatal(err)
	}

	settings, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.DefaultProfile != "page" {
		t.Errorf("expected default profile page, got %q", settings.DefaultProfile)
	}

	if _, err := LoadSettings(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
