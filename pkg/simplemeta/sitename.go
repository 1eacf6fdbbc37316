package simplemeta

import (
	"context"
	"errors"
	"strings"
)

// siteName picks the effective site name: the settings per-site map, the
// settings string, the host per-site map, the host default, then the
// current site's display name.
func (r *resolution) siteName(ctx context.Context) string {
	site, err := r.currentSite(ctx)
	if err != nil && !errors.Is(err, ErrSiteNotFound) {
		r.fail(ctx, StageSitename, err)
	}
	handle := ""
	if site != nil {
		handle = site.Handle
	}

	if configured := r.settings.SiteName; !configured.IsZero() {
		if len(configured.BySite) > 0 {
			return configured.BySite[handle]
		}
		return configured.Name
	}

	if len(r.hostSite.BySite) > 0 {
		if name, ok := r.hostSite.BySite[handle]; ok {
			return name
		}
	}
	if r.hostSite.Name != "" {
		return r.hostSite.Name
	}
	if site != nil {
		return site.Name
	}
	return ""
}

// addSitename decorates the title properties with the rendered site name.
func (r *resolution) addSitename(ctx context.Context, meta *Bag) {
	name := r.siteName(ctx)
	if name == "" {
		return
	}
	name = filterText(r.render(ctx, StageSitename, name))

	sep := r.settings.SitenameSeparator
	var pre, post string
	switch r.settings.SitenamePosition {
	case SitenameBefore:
		pre = name + " " + sep + " "
	case SitenameAfter:
		post = " " + sep + " " + name
	}

	cutset := " " + sep
	for _, property := range r.settings.SitenameTitleProperties {
		meta.Set(property, String(strings.Trim(pre+meta.Value(property).String()+post, cutset)))
	}
}
