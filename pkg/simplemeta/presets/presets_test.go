package presets

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-meta/pkg/simplemeta"
)

const fixtures = `
entries:
  - uri: about
    section: pages
    title: About us
    fields:
      summary: Who we are
`

func pageSettings() simplemeta.Settings {
	settings := simplemeta.DefaultSettings()
	settings.FieldProfiles = map[string]simplemeta.Profile{
		"page": simplemeta.OrderedMapOf[simplemeta.Candidates](
			"title", simplemeta.Candidates{"title"},
			"description", simplemeta.Candidates{"summary"},
		),
	}
	settings.DefaultProfile = "page"
	return settings
}

func TestNewDevelopment(t *testing.T) {
	t.Run("default configuration", func(t *testing.T) {
		stack, err := NewDevelopment()
		require.NoError(t, err)
		require.NotNil(t, stack.Resolver)
		assert.False(t, stack.Resolver.Settings().CacheEnabled)

		bag, err := stack.Resolver.Resolve(context.Background(), simplemeta.Context{}, nil)
		require.NoError(t, err)
		assert.NotNil(t, bag)
	})

	t.Run("fixtures", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "fixtures.yaml")
		require.NoError(t, os.WriteFile(path, []byte(fixtures), 0o644))

		stack, err := NewDevelopment(WithDevFixtures(path), WithDevSettings(pageSettings()))
		require.NoError(t, err)
		assert.Len(t, stack.Store.List(), 1)

		ctx := simplemeta.WithRequestURI(context.Background(), "/about")
		bag, err := stack.Resolver.Resolve(ctx, simplemeta.Context{}, nil)
		require.NoError(t, err)
		assert.Equal(t, "About us | Development", bag.Value("title").Text())
		assert.Equal(t, "Who we are", bag.Value("og:description").Text())
		assert.Equal(t, 0, stack.Cache.Len())
	})

	t.Run("missing fixtures", func(t *testing.T) {
		_, err := NewDevelopment(WithDevFixtures(filepath.Join(t.TempDir(), "nope.yaml")))
		assert.Error(t, err)
	})

	t.Run("invalid settings", func(t *testing.T) {
		settings := simplemeta.DefaultSettings()
		settings.SitenamePosition = "middle"
		_, err := NewDevelopment(WithDevSettings(settings))
		assert.ErrorIs(t, err, simplemeta.ErrInvalidSettings)
	})
}

func TestNewTesting(t *testing.T) {
	entry := &simplemeta.Entry{URI: "about", Title: "About us", Fields: map[string]any{"summary": "Who we are"}}
	stack := NewTesting(t,
		WithTestSettings(pageSettings()),
		WithTestEntries(entry),
		WithTestSite(simplemeta.Site{Handle: "default", Name: "Acme", BaseURL: "https://acme.test"}),
	)

	ctx := simplemeta.WithRequestURI(context.Background(), "about")
	bag, err := stack.Resolver.Resolve(ctx, simplemeta.Context{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "About us | Acme", bag.Value("title").Text())
	assert.Equal(t, 1, stack.Cache.Len())

	html, err := stack.Tags.Render(ctx, bag)
	require.NoError(t, err)
	assert.Contains(t, html, "<title>About us | Acme</title>")
	assert.Contains(t, html, `<meta property="og:title" content="About us">`)
}
