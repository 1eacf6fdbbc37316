package memory_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-meta/pkg/simplemeta"
	"github.com/tendant/simple-meta/pkg/simplemeta/element/memory"
)

const fixtureYAML = `
entries:
  - id: 6f1c2b7e-3d4a-4b8e-9f10-1a2b3c4d5e6f
    uri: /blog/hello-world/
    section: blog
    type: article
    title: Hello world
    fields:
      summary: !markdown "A *short* summary"
      body: !html "<p>Body &amp; soul</p>"
      heroImage: !image
        url: https://cdn.example.com/hero.jpg
        title: Hero
        focalPoint: {x: 0.3, y: 0.6}
        fields:
          alt: A hero image
      tags: [go, seo]
      gallery:
        - url: https://cdn.example.com/1.jpg
        - url: https://cdn.example.com/2.jpg
  - uri: ""
    section: home
    title: Welcome
`

func loadStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.New()
	require.NoError(t, store.Load(strings.NewReader(fixtureYAML)))
	return store
}

func TestLoadFixtures(t *testing.T) {
	store := loadStore(t)
	ctx := context.Background()

	el, err := store.Element(ctx, uuid.MustParse("6f1c2b7e-3d4a-4b8e-9f10-1a2b3c4d5e6f"))
	require.NoError(t, err)

	entry, ok := el.(*simplemeta.Entry)
	require.True(t, ok)
	assert.Equal(t, "blog/hello-world", entry.URI)
	assert.Equal(t, []string{"blog:article", "blog"}, entry.ProfileHandles())
	assert.Equal(t, simplemeta.Markdown("A *short* summary"), entry.Fields["summary"])
	assert.Equal(t, simplemeta.RichText("<p>Body &amp; soul</p>"), entry.Fields["body"])
	assert.Equal(t, []string{"go", "seo"}, entry.Fields["tags"])

	hero, ok := entry.Fields["heroImage"].(*simplemeta.Image)
	require.True(t, ok)
	assert.Equal(t, "https://cdn.example.com/hero.jpg", hero.URL)
	require.NotNil(t, hero.FocalPoint)
	assert.Equal(t, 0.3, hero.FocalPoint.X)
	assert.Equal(t, "A hero image", hero.Fields["alt"])

	gallery, ok := entry.Fields["gallery"].([]*simplemeta.Image)
	require.True(t, ok)
	assert.Len(t, gallery, 2)

	assert.Equal(t, "Body & soul", simplemeta.PropertyValue(entry, "body", simplemeta.FieldTypeText).Text())
	assert.Equal(t, "A short summary", simplemeta.PropertyValue(entry, "summary", simplemeta.FieldTypeText).Text())
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	store := memory.New()
	err := store.Load(strings.NewReader("pages: []\n"))
	assert.Error(t, err)
}

func TestElementByURI(t *testing.T) {
	store := loadStore(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		uri   string
		title string
		err   error
	}{
		{name: "exact", uri: "blog/hello-world", title: "Hello world"},
		{name: "slashes and query", uri: "/blog/hello-world/?utm_source=x#top", title: "Hello world"},
		{name: "home", uri: "/", title: "Welcome"},
		{name: "missing", uri: "/nope", err: simplemeta.ErrElementNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el, err := store.ElementByURI(ctx, tt.uri)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			title, _ := el.Lookup("title")
			assert.Equal(t, tt.title, title)
		})
	}
}

func TestMatchedElement(t *testing.T) {
	store := loadStore(t)

	el, err := store.MatchedElement(context.Background())
	require.NoError(t, err)
	assert.Nil(t, el)

	ctx := simplemeta.WithRequestURI(context.Background(), "/blog/hello-world")
	el, err = store.MatchedElement(ctx)
	require.NoError(t, err)
	require.NotNil(t, el)
	title, _ := el.Lookup("title")
	assert.Equal(t, "Hello world", title)
}

func TestPutReplacesURI(t *testing.T) {
	store := memory.New()
	entry := &simplemeta.Entry{URI: "old", Title: "Moving"}
	store.Put(entry)
	require.NotEqual(t, uuid.Nil, entry.EntryID)

	moved := *entry
	moved.URI = "new"
	store.Put(&moved)

	_, err := store.ElementByURI(context.Background(), "old")
	assert.ErrorIs(t, err, simplemeta.ErrElementNotFound)
	_, err = store.ElementByURI(context.Background(), "new")
	assert.NoError(t, err)
	assert.Len(t, store.List(), 1)

	require.NoError(t, store.Remove(entry.EntryID))
	assert.ErrorIs(t, store.Remove(entry.EntryID), simplemeta.ErrElementNotFound)
}

func TestStoreRoutesResolver(t *testing.T) {
	store := loadStore(t)
	settings := simplemeta.DefaultSettings()
	settings.IncludeSitenameInTitle = false
	settings.FieldProfiles = map[string]simplemeta.Profile{
		"blog": simplemeta.OrderedMapOf[simplemeta.Candidates](
			"title", simplemeta.Candidates{"title"},
			"description", simplemeta.Candidates{"summary"},
			"image", simplemeta.Candidates{"heroImage"},
		),
	}
	settings.ProfileMap = map[string]string{"blog": "blog"}
	settings.ReturnImageAsset = true

	r, err := simplemeta.New(simplemeta.WithSettings(settings), simplemeta.WithRouter(store))
	require.NoError(t, err)

	ctx := simplemeta.WithRequestURI(context.Background(), "/blog/hello-world")
	bag, err := r.Resolve(ctx, simplemeta.Context{}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Hello world", bag.Value("og:title").Text())
	assert.Equal(t, "A short summary", bag.Value("description").Text())
	assert.Equal(t, "https://cdn.example.com/hero.jpg", bag.Value("og:image").Image().URL)
}
