package simplemeta

import (
	"context"
)

// profileFor picks the field profile of an element: the override profile,
// then the first profile-mapped handle of the element, then the default.
func (r *resolution) profileFor(element Element) string {
	if r.override.Profile != "" {
		return r.override.Profile
	}
	for _, handle := range element.ProfileHandles() {
		if name, ok := r.rules.profileMap[handle]; ok {
			return name
		}
	}
	return r.settings.DefaultProfile
}

// elementMeta evaluates the element's profile. A missing profile yields an
// empty bag.
func (r *resolution) elementMeta(ctx context.Context, element Element) *Bag {
	meta := NewBag()

	name := r.profileFor(element)
	if name == "" {
		return meta
	}
	profile, ok := r.settings.FieldProfiles[name]
	if !ok {
		r.logger.DebugContext(ctx, "field profile not defined", "profile", name, "element", element.ID())
		return meta
	}

	profile.Range(func(key string, candidates Candidates) bool {
		meta.Set(key, cascade(element, candidates, r.rules.fieldType(key)))
		return true
	})
	return meta
}

// processAdditionalMeta renders additional meta into the bag. Scalars replace
// the current value; list renders are appended to an existing list.
func (r *resolution) processAdditionalMeta(ctx context.Context, meta *Bag) {
	r.settings.AdditionalMeta.Range(func(key string, value AdditionalValue) bool {
		if recipe, ok := value.(Recipe); ok {
			value = recipe(r.data)
		}

		switch v := value.(type) {
		case StaticValue:
			meta.Set(key, String(r.render(ctx, StageAdditional, string(v))))
		case ListValue:
			var items []string
			if current := meta.Value(key); current.Kind() == KindList {
				items = current.Items()
			}
			rendered := 0
			for _, tpl := range v {
				if s := r.render(ctx, StageAdditional, tpl); s != "" {
					items = append(items, s)
					rendered++
				}
			}
			if rendered > 0 {
				meta.Set(key, List(items...))
			}
		default:
			meta.Set(key, String(""))
		}
		return true
	})
}

// render renders tpl against the resolution data, keeping tpl when the
// renderer fails.
func (r *resolution) render(ctx context.Context, stage Stage, tpl string) string {
	out, err := r.renderer.Render(ctx, tpl, r.data)
	if err != nil {
		r.fail(ctx, stage, &RenderError{Template: tpl, Err: err})
		return tpl
	}
	return out
}

// processDefaultMeta fills keys that are unset, null or "" from the context.
func (r *resolution) processDefaultMeta(meta *Bag) {
	r.settings.DefaultMeta.Range(func(key string, candidates Candidates) bool {
		if v := meta.Value(key); v.IsNull() || (v.Kind() == KindString && v.Text() == "") {
			meta.Set(key, cascade(r.data, candidates, r.rules.fieldType(key)))
		}
		return true
	})
}

// autofill copies values between alias keys. Only unset or null targets are
// filled; an empty string counts as set.
func (r *resolution) autofill(meta *Bag) {
	r.rules.autofill.Range(func(target, source string) bool {
		if meta.Has(target) {
			return true
		}
		if v, ok := meta.Get(source); ok && !v.IsNull() {
			meta.Set(target, v)
		}
		return true
	})
}
