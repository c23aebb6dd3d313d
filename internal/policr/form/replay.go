package form

import (
	"fmt"

	"github.com/pp-cti/policr/internal/policr/event"
	"github.com/pp-cti/policr/internal/policr/hierarchy"
	"github.com/pp-cti/policr/internal/policr/policy"
)

// recorder collects the warnings of one replay.
type recorder struct{ warnings []policy.Warning }

func (r *recorder) check(err error) bool {
	if err != nil {
		r.warnings = append(r.warnings, warn(err))
		return false
	}
	return true
}

// ApplyPolicy replays f against the session's active form. Rejected
// mutations become warnings and leave the form as it was.
func ApplyPolicy(s *policy.Session, f *PolicyForm) []policy.Warning {
	r := &recorder{}
	s.Header = OverlayHeader(s.Header, f.Header)

	switch s.Mode() {
	case event.ModeFlat:
		if len(f.Templates) > 0 {
			r.warnings = append(r.warnings, policy.Warning{Message: "event has no objects; templates ignored"})
		}
		s.Attributes = applyAttributes(r, s.Attributes, f.Attributes)
	case event.ModeNested:
		if len(f.Attributes) > 0 {
			r.warnings = append(r.warnings, policy.Warning{Message: "event has no flat attributes; attributes ignored"})
		}
		s.Objects = applyTemplates(r, s.Objects, f.Templates)
	default:
		r.warnings = append(r.warnings, policy.Warning{Message: "no event loaded; form ignored"})
	}
	return r.warnings
}

func applyAttributes(r *recorder, af policy.AttributeForm, attrs []Attribute) policy.AttributeForm {
	for i, a := range attrs {
		if i >= af.Len() {
			af = af.AddAttribute()
		}
		if next, err := af.SetName(i, a.Name); r.check(err) {
			af = next
		}
		if a.Scheme != "" {
			if next, err := af.SetScheme(i, a.Scheme); r.check(err) {
				af = next
			}
		}
		for _, k := range a.Params.sortedKeys() {
			if next, err := af.SetParameter(i, k, a.Params[k]); r.check(err) {
				af = next
			}
		}
		for _, k := range a.DPParams.sortedKeys() {
			if next, err := af.SetDPParameter(i, k, a.DPParams[k]); r.check(err) {
				af = next
			}
		}
	}
	return af
}

func applyTemplates(r *recorder, of policy.ObjectForm, templates []Template) policy.ObjectForm {
	for t, tpl := range templates {
		if t >= of.Len() {
			of = of.AddTemplate()
		}
		if next, err := of.SetTemplateName(t, tpl.Name); r.check(err) {
			of = next
		}
		if next, err := of.SetKMap(t, tpl.KMap); r.check(err) {
			of = next
		}
		if next, err := of.SetDP(t, tpl.DP); r.check(err) {
			of = next
		}
		if tpl.DP && tpl.DPPolicy != nil {
			of = applyDPPolicy(r, of, t, tpl.DPPolicy)
		}

		for a, attr := range tpl.Attributes {
			if a >= len(of.Templates()[t].Attributes) {
				if next, err := of.AddAttribute(t); r.check(err) {
					of = next
				}
			}
			if next, err := of.SetAttributeName(t, a, attr.Name); r.check(err) {
				of = next
			}
			if attr.Scheme != "" {
				if next, err := of.SetAttributeScheme(t, a, attr.Scheme); r.check(err) {
					of = next
				}
			}
			for _, k := range attr.Params.sortedKeys() {
				if next, err := of.SetAttributeParameter(t, a, k, attr.Params[k]); r.check(err) {
					of = next
				}
			}
		}

		// k is only meaningful once the quasi attributes are in place.
		if tpl.K != "" {
			if !of.CheckIfK(t) {
				r.warnings = append(r.warnings, policy.Warning{
					Field:   fmt.Sprintf("templates[%d]", t),
					Message: "k ignored: no quasi-identifier attribute",
				})
			} else if next, err := of.SetK(t, tpl.K); r.check(err) {
				of = next
			}
		}
	}
	return of
}

func applyDPPolicy(r *recorder, of policy.ObjectForm, t int, dp *DPPolicy) policy.ObjectForm {
	if next, err := of.SetDPAttributeNames(t, dp.AttributeNames); r.check(err) {
		of = next
	}
	if next, err := of.SetDPApplyToAll(t, dp.ApplyToAll); r.check(err) {
		of = next
	}
	if dp.Scheme != "" {
		if next, err := of.SetDPScheme(t, dp.Scheme); r.check(err) {
			of = next
		}
	}
	for _, k := range dp.Params.sortedKeys() {
		if next, err := of.SetDPParameter(t, k, dp.Params[k]); r.check(err) {
			of = next
		}
	}
	return of
}

// ApplyHierarchy replays f against hf. Rejected mutations become warnings.
func ApplyHierarchy(hf hierarchy.Form, f *HierarchyForm) (hierarchy.Form, []policy.Warning) {
	r := &recorder{}

	switch hf.Mode() {
	case event.ModeFlat:
		if len(f.Objects) > 0 {
			r.warnings = append(r.warnings, policy.Warning{Message: "policy has no templates; objects ignored"})
		}
		hf = applyEntries(r, hf, hierarchy.Flat, f.Attributes)
	case event.ModeNested:
		if len(f.Attributes) > 0 {
			r.warnings = append(r.warnings, policy.Warning{Message: "policy has no flat attributes; attributes ignored"})
		}
		for o, obj := range f.Objects {
			if o >= len(hf.Objects()) {
				if next, err := hf.AddObject(); r.check(err) {
					hf = next
				}
			}
			if next, err := hf.SetObjectName(o, obj.Name); r.check(err) {
				hf = next
			}
			hf = applyEntries(r, hf, o, obj.Attributes)
		}
	default:
		r.warnings = append(r.warnings, policy.Warning{Message: "policy has no hierarchy candidates; form ignored"})
	}
	return hf, r.warnings
}

func applyEntries(r *recorder, hf hierarchy.Form, object int, entries []HierarchyEntry) hierarchy.Form {
	count := func() int {
		if object == hierarchy.Flat {
			return len(hf.Entries())
		}
		return len(hf.Objects()[object].Entries)
	}
	for i, e := range entries {
		if i >= count() {
			if next, err := hf.AddEntry(object); r.check(err) {
				hf = next
			}
		}
		ref := hierarchy.Ref{Object: object, Entry: i}
		if next, err := hf.SetName(ref, e.Name); r.check(err) {
			hf = next
		}
		if next, err := hf.SetType(ref, e.Type); r.check(err) {
			hf = next
		}
		for h, level := range e.Levels {
			if h > 0 {
				if next, err := hf.InsertHierarchy(ref, h-1); r.check(err) {
					hf = next
				}
			}
			if next, err := hf.SetHierarchy(ref, h, level); r.check(err) {
				hf = next
			}
		}
	}
	return hf
}
