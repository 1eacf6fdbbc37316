package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-meta/pkg/simplemeta"
)

func hero() *simplemeta.Image {
	return &simplemeta.Image{
		URL:        "https://example.com/uploads/hero.jpg",
		FocalPoint: &simplemeta.FocalPoint{X: 0.5, Y: 0.25},
	}
}

func TestQueryStrategy(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		strategy *QueryStrategy
		img      *simplemeta.Image
		opts     simplemeta.TransformOptions
		want     string
	}{
		{
			name:     "cdn with focal crop",
			strategy: NewQueryStrategy("https://images.example.com/", ""),
			img:      hero(),
			opts:     simplemeta.TransformOptions{Width: 1200, Height: 630, Format: "JPG", Mode: "crop", Quality: 82},
			want:     "https://images.example.com/uploads/hero.jpg?crop=focalpoint&fit=crop&fm=jpg&fp-x=0.5&fp-y=0.25&h=630&q=82&w=1200",
		},
		{
			name:     "cdn base path",
			strategy: NewQueryStrategy("https://cdn.example.com/assets", ""),
			img:      &simplemeta.Image{URL: "/uploads/a.png"},
			opts:     simplemeta.TransformOptions{Width: 600},
			want:     "https://cdn.example.com/assets/uploads/a.png?w=600",
		},
		{
			name:     "keeps source origin and query",
			strategy: NewQueryStrategy("", ""),
			img:      &simplemeta.Image{URL: "https://example.com/a.png?v=2"},
			opts:     simplemeta.TransformOptions{Width: 600},
			want:     "https://example.com/a.png?v=2&w=600",
		},
		{
			name:     "explicit position wins",
			strategy: NewQueryStrategy("", ""),
			img:      hero(),
			opts:     simplemeta.TransformOptions{Mode: "crop", Position: "0% 100%"},
			want:     "https://example.com/uploads/hero.jpg?crop=focalpoint&fit=crop&fp-x=0&fp-y=1",
		},
		{
			name:     "focal point ignored without crop",
			strategy: NewQueryStrategy("", ""),
			img:      hero(),
			opts:     simplemeta.TransformOptions{Width: 300, Mode: "fit"},
			want:     "https://example.com/uploads/hero.jpg?fit=clip&w=300",
		},
		{
			name:     "signed",
			strategy: NewQueryStrategy("", "secret"),
			img:      &simplemeta.Image{URL: "https://example.com/a.jpg"},
			opts:     simplemeta.TransformOptions{Width: 100},
			want:     "https://example.com/a.jpg?s=4ddd94d24287657652a302d2529af611&w=100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.strategy.Transform(ctx, tt.img, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := NewQueryStrategy("", "").Transform(ctx, &simplemeta.Image{}, simplemeta.TransformOptions{})
	assert.ErrorIs(t, err, ErrNoURL)
}

func TestPathStrategy(t *testing.T) {
	ctx := context.Background()
	strategy := NewPathStrategy()

	tests := []struct {
		name string
		img  *simplemeta.Image
		opts simplemeta.TransformOptions
		want string
	}{
		{
			name: "full transform",
			img:  hero(),
			opts: simplemeta.TransformOptions{Width: 1200, Height: 630, Format: "webp", Mode: "crop", Quality: 82},
			want: "https://example.com/uploads/_1200x630_crop_top-center_82/hero.webp",
		},
		{
			name: "auto height",
			img:  &simplemeta.Image{URL: "https://example.com/uploads/hero.jpg"},
			opts: simplemeta.TransformOptions{Width: 600},
			want: "https://example.com/uploads/_600xAUTO_crop_center-center/hero.jpg",
		},
		{
			name: "keyword position",
			img:  &simplemeta.Image{URL: "/uploads/hero.jpg"},
			opts: simplemeta.TransformOptions{Width: 600, Height: 600, Mode: "fit", Position: "bottom-right"},
			want: "/uploads/_600x600_fit_bottom-right/hero.jpg",
		},
		{
			name: "no options",
			img:  hero(),
			want: "https://example.com/uploads/hero.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := strategy.Transform(ctx, tt.img, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := strategy.Transform(ctx, &simplemeta.Image{URL: "https://example.com/"}, simplemeta.TransformOptions{Width: 10})
	assert.Error(t, err)
}

func TestParsePosition(t *testing.T) {
	tests := []struct {
		in   string
		x, y float64
		ok   bool
	}{
		{in: "50% 25%", x: 0.5, y: 0.25, ok: true},
		{in: "150% -10%", x: 1, y: 0, ok: true},
		{in: "top-left", x: 0, y: 0, ok: true},
		{in: "Center-Center", x: 0.5, y: 0.5, ok: true},
		{in: "bottom-right", x: 1, y: 1, ok: true},
		{in: "left-top", ok: false},
		{in: "middle", ok: false},
		{in: "a% b%", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			x, y, ok := parsePosition(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.x, x)
				assert.Equal(t, tt.y, y)
			}
		})
	}

	assert.Equal(t, "top-center", positionKeyword(0.5, 0.25))
	assert.Equal(t, "bottom-left", positionKeyword(0.1, 0.9))
}

func TestDelegatedStrategy(t *testing.T) {
	ctx := context.Background()
	strategy := NewDelegatedStrategy(
		map[string]simplemeta.Transformer{"Images.Example.com": NewQueryStrategy("", "")},
		simplemeta.NewPassthroughTransformer(),
	)
	opts := simplemeta.TransformOptions{Width: 100}

	got, err := strategy.Transform(ctx, &simplemeta.Image{URL: "https://images.example.com/a.jpg"}, opts)
	require.NoError(t, err)
	assert.Equal(t, "https://images.example.com/a.jpg?w=100", got)

	got, err = strategy.Transform(ctx, &simplemeta.Image{URL: "/local/a.jpg"}, opts)
	require.NoError(t, err)
	assert.Equal(t, "/local/a.jpg", got)

	strict := NewDelegatedStrategy(map[string]simplemeta.Transformer{}, nil)
	_, err = strict.Transform(ctx, &simplemeta.Image{URL: "https://other.example.com/a.jpg"}, opts)
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		want    any
		wantErr bool
	}{
		{name: "default", config: Config{}, want: &simplemeta.PassthroughTransformer{}},
		{name: "query", config: Config{Type: "QUERY", CDNBaseURL: "https://cdn.example.com"}, want: &QueryStrategy{}},
		{name: "path", config: Config{Type: TypePath}, want: &PathStrategy{}},
		{
			name:   "delegated",
			config: Config{Type: TypeDelegated, Backends: map[string]simplemeta.Transformer{"a": NewPathStrategy()}},
			want:   &DelegatedStrategy{},
		},
		{name: "delegated without backends", config: Config{Type: TypeDelegated}, wantErr: true},
		{name: "unknown", config: Config{Type: "magic"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, got)
		})
	}
}
