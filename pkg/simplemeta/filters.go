package simplemeta

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// applyRestrictions truncates text values longer than their maxLength. The
// kept part plus the truncate suffix is exactly maxLength runes.
func (r *resolution) applyRestrictions(meta *Bag) {
	suffix := r.settings.TruncateSuffix
	suffixLen := len([]rune(suffix))

	meta.Range(func(key string, v Value) bool {
		pt, ok := r.rules.propertyTypes[key]
		if !ok || pt.Type != FieldTypeText || pt.MaxLength <= 0 || v.Kind() != KindString {
			return true
		}
		runes := []rune(norm.NFC.String(v.Text()))
		if len(runes) <= pt.MaxLength {
			return true
		}
		keep := pt.MaxLength - suffixLen
		if keep < 0 {
			keep = 0
		}
		meta.Set(key, String(string(runes[:keep])+suffix))
		return true
	})
}

// applyFilters HTML-encodes display text. Values that look like URLs pass
// through untouched.
func applyFilters(meta *Bag) {
	meta.Range(func(key string, v Value) bool {
		switch v.Kind() {
		case KindString:
			meta.Set(key, String(filterText(v.Text())))
		case KindList:
			items := v.Items()
			for i, item := range items {
				items[i] = filterText(item)
			}
			meta.Set(key, List(items...))
		}
		return true
	})
}

func filterText(s string) string {
	if isURLish(s) {
		return s
	}
	return escapeHTML(s)
}

func isURLish(s string) bool {
	return strings.HasPrefix(s, "http") || strings.HasPrefix(s, "//")
}

// EscapeHTML encodes & < > " and ' the way resolved values are filtered.
// Existing entities are kept, so escaping twice changes nothing.
func EscapeHTML(s string) string {
	return escapeHTML(s)
}

var entityPattern = regexp.MustCompile(`^&(?:[A-Za-z][A-Za-z0-9]*|#[0-9]+|#[xX][0-9A-Fa-f]+);`)

// escapeHTML encodes & < > " and ' without encoding existing entities again.
func escapeHTML(s string) string {
	if !strings.ContainsAny(s, `&<>"'`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 16)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '&':
			if m := entityPattern.FindString(s[i:]); m != "" {
				b.WriteString(m)
				i += len(m) - 1
				continue
			}
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&#039;")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
