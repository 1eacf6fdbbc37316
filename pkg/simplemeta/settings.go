package simplemeta

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// SitenamePosition places the site name relative to title values.
type SitenamePosition string

const (
	SitenameBefore SitenamePosition = "before"
	SitenameAfter  SitenamePosition = "after"
)

// PropertyType declares the type and length restrictions of a meta key.
type PropertyType struct {
	Type      FieldType `yaml:"type" json:"type"`
	MinLength int       `yaml:"minLength,omitempty" json:"minLength,omitempty"`
	MaxLength int       `yaml:"maxLength,omitempty" json:"maxLength,omitempty"`
}

// TransformOptions describe an image transform.
type TransformOptions struct {
	Width    int    `yaml:"width,omitempty" json:"width,omitempty"`
	Height   int    `yaml:"height,omitempty" json:"height,omitempty"`
	Format   string `yaml:"format,omitempty" json:"format,omitempty"`
	Mode     string `yaml:"mode,omitempty" json:"mode,omitempty"`
	Quality  int    `yaml:"quality,omitempty" json:"quality,omitempty"`
	Position string `yaml:"position,omitempty" json:"position,omitempty"`
}

// IsZero reports whether no option is set.
func (o TransformOptions) IsZero() bool {
	return o == TransformOptions{}
}

// MimeType maps the output format to a MIME type; jpg becomes image/jpeg.
func (o TransformOptions) MimeType() string {
	format := strings.ToLower(strings.TrimSpace(o.Format))
	switch format {
	case "":
		return ""
	case "jpg":
		return "image/jpeg"
	}
	return "image/" + format
}

// SiteName is either a single name or a map of site handle to name.
type SiteName struct {
	Name   string
	BySite map[string]string
}

func (s SiteName) IsZero() bool {
	return s.Name == "" && len(s.BySite) == 0
}

func (s *SiteName) UnmarshalYAML(node *yaml.Node) error {
	*s = SiteName{}
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag != "!!null" {
			s.Name = node.Value
		}
		return nil
	case yaml.MappingNode:
		return node.Decode(&s.BySite)
	}
	return fmt.Errorf("line %d: siteName must be a string or a mapping of site handles", node.Line)
}

func (s SiteName) MarshalYAML() (any, error) {
	if len(s.BySite) > 0 {
		return s.BySite, nil
	}
	return s.Name, nil
}

// Profile maps meta keys to candidate field handles.
type Profile = OrderedMap[Candidates]

// Settings configure a Resolver. Keys mirror the YAML configuration file.
type Settings struct {
	CacheEnabled            bool                        `yaml:"cacheEnabled"`
	CacheDuration           time.Duration               `yaml:"cacheDuration"`
	DefaultProfile          string                      `yaml:"defaultProfile"`
	FieldProfiles           map[string]Profile          `yaml:"fieldProfiles"`
	ProfileMap              map[string]string           `yaml:"profileMap"`
	AdditionalMeta          AdditionalMeta              `yaml:"additionalMeta"`
	DefaultMeta             OrderedMap[Candidates]      `yaml:"defaultMeta"`
	AutofillMap             OrderedMap[string]          `yaml:"autofillMap"`
	MetaPropertyTypes       map[string]PropertyType     `yaml:"metaPropertyTypes"`
	ImageTransformMap       map[string]TransformOptions `yaml:"imageTransformMap"`
	AltTextFieldHandle      string                      `yaml:"altTextFieldHandle"`
	TruncateSuffix          string                      `yaml:"truncateSuffix"`
	IncludeSitenameInTitle  bool                        `yaml:"includeSitenameInTitle"`
	SiteName                SiteName                    `yaml:"siteName"`
	SitenamePosition        SitenamePosition            `yaml:"sitenamePosition"`
	SitenameSeparator       string                      `yaml:"sitenameSeparator"`
	SitenameTitleProperties []string                    `yaml:"sitenameTitleProperties"`
	ApplyRestrictions       bool                        `yaml:"applyRestrictions"`
	ReturnImageAsset        bool                        `yaml:"returnImageAsset"`
	UseImagerIfInstalled    bool                        `yaml:"useImagerIfInstalled"`
	TagTemplateMap          OrderedMap[string]          `yaml:"tagTemplateMap"`
}

// DefaultSettings returns the library defaults.
func DefaultSettings() Settings {
	return Settings{
		CacheEnabled:   true,
		CacheDuration:  time.Hour,
		FieldProfiles:  map[string]Profile{},
		ProfileMap:     map[string]string{},
		TruncateSuffix: "…",
		AutofillMap: OrderedMapOf[string](
			"og:title", "title",
			"og:description", "description",
			"og:image", "image",
			"twitter:title", "title",
			"twitter:description", "description",
			"twitter:image", "image",
		),
		MetaPropertyTypes: map[string]PropertyType{
			"title,og:title,twitter:title":                   {Type: FieldTypeText, MinLength: 10, MaxLength: 60},
			"description,og:description,twitter:description": {Type: FieldTypeText, MinLength: 50, MaxLength: 300},
			"image,og:image,twitter:image":                   {Type: FieldTypeImage},
		},
		ImageTransformMap: map[string]TransformOptions{
			"image":         {Width: 1200, Height: 675, Format: "jpg"},
			"og:image":      {Width: 1200, Height: 630, Format: "jpg"},
			"twitter:image": {Width: 1200, Height: 600, Format: "jpg"},
		},
		IncludeSitenameInTitle:  true,
		SitenamePosition:        SitenameAfter,
		SitenameSeparator:       "|",
		SitenameTitleProperties: []string{"title"},
		UseImagerIfInstalled:    true,
		TagTemplateMap: OrderedMapOf[string](
			"default", `<meta name="{{ key }}" content="{{ value }}">`,
			"title", `<title>{{ value }}</title>`,
			"/^og:/,/^fb:/", `<meta property="{{ key }}" content="{{ value }}">`,
		),
	}
}

// Clone returns a copy that shares no maps or slices with s.
func (s Settings) Clone() Settings {
	out := s
	out.FieldProfiles = make(map[string]Profile, len(s.FieldProfiles))
	for k, v := range s.FieldProfiles {
		out.FieldProfiles[k] = v.Clone()
	}
	out.ProfileMap = cloneMap(s.ProfileMap)
	out.AdditionalMeta = s.AdditionalMeta.Clone()
	out.DefaultMeta = s.DefaultMeta.Clone()
	out.AutofillMap = s.AutofillMap.Clone()
	out.MetaPropertyTypes = cloneMap(s.MetaPropertyTypes)
	out.ImageTransformMap = cloneMap(s.ImageTransformMap)
	out.SiteName.BySite = cloneMap(s.SiteName.BySite)
	out.SitenameTitleProperties = append([]string(nil), s.SitenameTitleProperties...)
	out.TagTemplateMap = s.TagTemplateMap.Clone()
	return out
}

// Validate checks settings for misconfiguration.
func (s Settings) Validate() error {
	switch s.SitenamePosition {
	case SitenameBefore, SitenameAfter:
	default:
		return fmt.Errorf("%w: sitenamePosition must be 'before' or 'after', got %q", ErrInvalidSettings, s.SitenamePosition)
	}
	if s.CacheDuration < 0 {
		return fmt.Errorf("%w: cacheDuration cannot be negative", ErrInvalidSettings)
	}
	for key, pt := range s.MetaPropertyTypes {
		if !pt.Type.Valid() {
			return fmt.Errorf("%w: metaPropertyTypes %q has unknown type %q", ErrInvalidSettings, key, pt.Type)
		}
		if pt.MaxLength < 0 || pt.MinLength < 0 {
			return fmt.Errorf("%w: metaPropertyTypes %q has a negative length", ErrInvalidSettings, key)
		}
		if pt.MaxLength > 0 && pt.MaxLength <= len([]rune(s.TruncateSuffix)) {
			return fmt.Errorf("%w: metaPropertyTypes %q maxLength must exceed the truncate suffix", ErrInvalidSettings, key)
		}
	}
	for key, t := range s.ImageTransformMap {
		if t.Width < 0 || t.Height < 0 || t.Quality < 0 {
			return fmt.Errorf("%w: imageTransformMap %q has negative dimensions", ErrInvalidSettings, key)
		}
	}
	for name, profile := range s.FieldProfiles {
		var err error
		profile.Range(func(key string, c Candidates) bool {
			if len(c) == 0 {
				err = fmt.Errorf("%w: field profile %q has no candidates for %q", ErrInvalidSettings, name, key)
				return false
			}
			return true
		})
		if err != nil {
			return err
		}
	}
	if s.DefaultProfile != "" {
		if _, ok := s.FieldProfiles[s.DefaultProfile]; !ok {
			return fmt.Errorf("%w: default profile %q is not defined", ErrInvalidSettings, s.DefaultProfile)
		}
	}
	for handle, profile := range s.ProfileMap {
		if _, ok := s.FieldProfiles[profile]; !ok {
			return fmt.Errorf("%w: profileMap %q points to undefined profile %q", ErrInvalidSettings, handle, profile)
		}
	}
	return nil
}

// WithPatch returns a copy of s with patch shallow-merged in: every top-level
// key replaces the whole setting. Values may be of the setting's Go type or
// any YAML-encodable equivalent.
func (s Settings) WithPatch(patch map[string]any) (Settings, error) {
	out := s.Clone()
	if len(patch) == 0 {
		return out, nil
	}

	fields := settingsFields()
	rv := reflect.ValueOf(&out).Elem()

	keys := make([]string, 0, len(patch))
	for k := range patch {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		idx, ok := fields[key]
		if !ok {
			return s, fmt.Errorf("%w: unknown setting %q", ErrInvalidSettings, key)
		}
		field := rv.Field(idx)
		val := patch[key]

		if val != nil && reflect.TypeOf(val).AssignableTo(field.Type()) {
			field.Set(reflect.ValueOf(val))
			continue
		}

		raw, err := yaml.Marshal(val)
		if err != nil {
			return s, fmt.Errorf("%w: setting %q: %v", ErrInvalidSettings, key, err)
		}
		field.SetZero()
		if err := yaml.Unmarshal(raw, field.Addr().Interface()); err != nil {
			return s, fmt.Errorf("%w: setting %q: %v", ErrInvalidSettings, key, err)
		}
	}

	if err := out.Validate(); err != nil {
		return s, err
	}
	return out, nil
}

var (
	settingsFieldsOnce sync.Once
	settingsFieldIndex map[string]int
)

func settingsFields() map[string]int {
	settingsFieldsOnce.Do(func() {
		t := reflect.TypeOf(Settings{})
		settingsFieldIndex = make(map[string]int, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			name, _, _ := strings.Cut(t.Field(i).Tag.Get("yaml"), ",")
			if name != "" && name != "-" {
				settingsFieldIndex[name] = i
			}
		}
	})
	return settingsFieldIndex
}

// rules are the lookup tables derived from settings for one resolution.
type rules struct {
	propertyTypes map[string]PropertyType
	transforms    map[string]TransformOptions
	profileMap    map[string]string
	autofill      OrderedMap[string]
}

func (s Settings) rules() rules {
	return rules{
		propertyTypes: expandKeys(s.MetaPropertyTypes),
		transforms:    expandKeys(s.ImageTransformMap),
		profileMap:    expandKeys(s.ProfileMap),
		autofill:      s.AutofillMap.Expand(),
	}
}

// fieldType returns the declared type of a meta key, text by default.
func (r rules) fieldType(key string) FieldType {
	if pt, ok := r.propertyTypes[key]; ok && pt.Type.Valid() {
		return pt.Type
	}
	return FieldTypeText
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	if in == nil {
		return nil
	}
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
