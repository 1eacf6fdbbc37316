// Command metatags resolves the meta of one URI against a fixture file and
// prints the rendered tags, for checking settings without a server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/tendant/simple-meta/pkg/simplemeta"
	"github.com/tendant/simple-meta/pkg/simplemeta/config"
	"github.com/tendant/simple-meta/pkg/simplemeta/presets"
)

func main() {
	var (
		settingsFile = flag.String("settings", "", "YAML settings file")
		fixtures     = flag.String("fixtures", "", "YAML element fixtures")
		uri          = flag.String("uri", "", "URI to resolve")
		siteName     = flag.String("site-name", "Development", "site name")
		baseURL      = flag.String("base-url", "http://localhost:8080", "site base URL")
		asJSON       = flag.Bool("json", false, "print the meta bag as JSON instead of tags")
	)
	flag.Parse()

	if err := run(*settingsFile, *fixtures, *uri, *siteName, *baseURL, *asJSON); err != nil {
		slog.Error("metatags failed", "err", err)
		os.Exit(1)
	}
}

func run(settingsFile, fixtures, uri, siteName, baseURL string, asJSON bool) error {
	settings := simplemeta.DefaultSettings()
	if settingsFile != "" {
		loaded, err := config.LoadSettings(settingsFile)
		if err != nil {
			return err
		}
		settings = loaded
	}

	opts := []presets.DevelopmentOption{
		presets.WithDevSettings(settings),
		presets.WithDevSite(simplemeta.Site{Handle: "default", Name: siteName, BaseURL: baseURL}),
		presets.WithDevLogger(slog.New(slog.NewTextHandler(os.Stderr, nil))),
	}
	if fixtures != "" {
		opts = append(opts, presets.WithDevFixtures(fixtures))
	}

	stack, err := presets.NewDevelopment(opts...)
	if err != nil {
		return err
	}

	ctx := simplemeta.WithRequestURI(context.Background(), uri)
	bag, err := stack.Resolver.Resolve(ctx, simplemeta.Context{"uri": uri}, nil)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", uri, err)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(bag)
	}

	html, err := stack.Tags.Render(ctx, bag)
	if err != nil {
		return err
	}
	fmt.Println(html)
	return nil
}
