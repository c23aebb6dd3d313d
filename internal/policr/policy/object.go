package policy

import (
	"fmt"

	"github.com/pp-cti/policr/internal/policr/errs"
	"github.com/pp-cti/policr/internal/policr/event"
	"github.com/pp-cti/policr/internal/policr/scheme"
)

// ObjectAttributeRow is one attribute of a template.
type ObjectAttributeRow struct {
	Name string
	PET  PET
}

// TemplateRow is the working state of one per-object policy.
type TemplateRow struct {
	Name       string
	DP         bool
	KMap       bool
	K          int
	Attributes []ObjectAttributeRow
	DPPolicy   DPPolicy
}

func newTemplateRow() TemplateRow {
	return TemplateRow{
		Attributes: []ObjectAttributeRow{{PET: defaultPET()}},
		DPPolicy:   defaultDPPolicy(),
	}
}

func (t TemplateRow) clone() TemplateRow {
	out := t
	out.Attributes = make([]ObjectAttributeRow, len(t.Attributes))
	for i, a := range t.Attributes {
		out.Attributes[i] = ObjectAttributeRow{Name: a.Name, PET: a.PET.clone()}
	}
	out.DPPolicy = t.DPPolicy.clone()
	return out
}

// ObjectForm is the working document of a nested event. Like AttributeForm
// it is a value: operations return a new form and leave the receiver as is.
type ObjectForm struct {
	objects   []event.ObjectFields
	templates []TemplateRow
}

// NewObjectForm starts a form with one empty template.
func NewObjectForm(objects []event.ObjectFields) ObjectForm {
	return ObjectForm{objects: copyObjects(objects), templates: []TemplateRow{newTemplateRow()}}
}

func copyObjects(objects []event.ObjectFields) []event.ObjectFields {
	out := make([]event.ObjectFields, len(objects))
	for i, o := range objects {
		attrs := make([]string, len(o.Attributes))
		copy(attrs, o.Attributes)
		out[i] = event.ObjectFields{Name: o.Name, Attributes: attrs}
	}
	return out
}

func (f ObjectForm) clone() ObjectForm {
	ts := make([]TemplateRow, len(f.templates))
	for i, t := range f.templates {
		ts[i] = t.clone()
	}
	return ObjectForm{objects: f.objects, templates: ts}
}

// WithObjects keeps the templates and swaps the selectable objects.
func (f ObjectForm) WithObjects(objects []event.ObjectFields) ObjectForm {
	out := f.clone()
	out.objects = copyObjects(objects)
	return out
}

func (f ObjectForm) Objects() []event.ObjectFields { return copyObjects(f.objects) }

// Templates returns a copy of the working templates.
func (f ObjectForm) Templates() []TemplateRow { return f.clone().templates }

func (f ObjectForm) Len() int { return len(f.templates) }

func templateField(t int) string { return fmt.Sprintf("templates[%d]", t) }

func attrField(t, a int) string { return fmt.Sprintf("templates[%d].attributes[%d]", t, a) }

func (f ObjectForm) template(t int) error {
	if t < 0 || t >= len(f.templates) {
		return errs.Invalid(templateField(t), "no such template")
	}
	return nil
}

func (f ObjectForm) attribute(t, a int) error {
	if err := f.template(t); err != nil {
		return err
	}
	if a < 0 || a >= len(f.templates[t].Attributes) {
		return errs.Invalid(attrField(t, a), "no such attribute")
	}
	return nil
}

// relations returns the attribute names of the object a template is bound to.
func (f ObjectForm) relations(t int) []string {
	for _, o := range f.objects {
		if o.Name == f.templates[t].Name {
			return o.Attributes
		}
	}
	return nil
}

func (f ObjectForm) AddTemplate() ObjectForm {
	out := f.clone()
	out.templates = append(out.templates, newTemplateRow())
	return out
}

// RemoveTemplate drops template t. The last template is never removed.
func (f ObjectForm) RemoveTemplate(t int) (ObjectForm, error) {
	if err := f.template(t); err != nil {
		return f, err
	}
	if len(f.templates) == 1 {
		return f, nil
	}
	out := f.clone()
	out.templates = append(out.templates[:t], out.templates[t+1:]...)
	return out, nil
}

func (f ObjectForm) AddAttribute(t int) (ObjectForm, error) {
	if err := f.template(t); err != nil {
		return f, err
	}
	out := f.clone()
	out.templates[t].Attributes = append(out.templates[t].Attributes, ObjectAttributeRow{PET: defaultPET()})
	return out, nil
}

// RemoveAttribute drops attribute a of template t, keeping at least one.
func (f ObjectForm) RemoveAttribute(t, a int) (ObjectForm, error) {
	if err := f.attribute(t, a); err != nil {
		return f, err
	}
	if len(f.templates[t].Attributes) == 1 {
		return f, nil
	}
	out := f.clone()
	attrs := out.templates[t].Attributes
	out.templates[t].Attributes = append(attrs[:a], attrs[a+1:]...)
	return out, nil
}

// SetTemplateName binds template t to an object of the event. The template's
// attributes and DP policy start over.
func (f ObjectForm) SetTemplateName(t int, name string) (ObjectForm, error) {
	if err := f.template(t); err != nil {
		return f, err
	}
	for i, tr := range f.templates {
		if i != t && tr.Name == name {
			return f, errs.Invalid(templateField(t), "only 1 policy per object")
		}
	}
	known := false
	for _, o := range f.objects {
		if o.Name == name {
			known = true
			break
		}
	}
	if !known {
		return f, errs.Invalid(templateField(t), "%q is not an object of the event", name)
	}
	out := f.clone()
	tr := newTemplateRow()
	tr.DP = out.templates[t].DP
	tr.KMap = out.templates[t].KMap
	tr.Name = name
	out.templates[t] = tr
	return out, nil
}

// SetAttributeName names attribute a of template t and resets its technique.
func (f ObjectForm) SetAttributeName(t, a int, name string) (ObjectForm, error) {
	if err := f.attribute(t, a); err != nil {
		return f, err
	}
	tr := f.templates[t]
	for i, ar := range tr.Attributes {
		if i != a && ar.Name == name {
			return f, errs.Invalid(attrField(t, a), "only 1 policy per attribute")
		}
	}
	if tr.DP && containsName(tr.DPPolicy.AttributeNames, name) {
		return f, errs.Invalid(attrField(t, a), "%q is already covered by the dp policy", name)
	}
	if !containsName(f.relations(t), name) {
		return f, errs.Invalid(attrField(t, a), "%q is not an attribute of object %q", name, tr.Name)
	}
	out := f.clone()
	out.templates[t].Attributes[a] = ObjectAttributeRow{Name: name, PET: defaultPET()}
	return out, nil
}

// SetAttributeScheme selects the technique of attribute a. When no quasi
// attribute remains the template k is cleared.
func (f ObjectForm) SetAttributeScheme(t, a int, raw string) (ObjectForm, error) {
	if err := f.attribute(t, a); err != nil {
		return f, err
	}
	k, err := scheme.Parse(raw)
	if err != nil {
		return f, err
	}
	if !k.In(scheme.ObjectSchemes) {
		return f, errs.Invalid(attrField(t, a), "technique %q is not available for objects", k)
	}
	out := f.clone()
	out.templates[t].Attributes[a].PET = PET{Scheme: k, Metadata: Metadata{}}
	if !out.CheckIfK(t) {
		out.templates[t].K = 0
	}
	return out, nil
}

// SetAttributeParameter stores a PET parameter of attribute a. k is set on
// the template with SetK.
func (f ObjectForm) SetAttributeParameter(t, a int, key, raw string) (ObjectForm, error) {
	if err := f.attribute(t, a); err != nil {
		return f, err
	}
	p, err := scheme.ParseParam(key, scheme.PETParams)
	if err != nil {
		return f, err
	}
	if p == scheme.K {
		return f, errs.Invalid(attrField(t, a), "k is set on the template")
	}
	pet := f.templates[t].Attributes[a].PET
	if !pet.Scheme.Accepts(p) {
		return f, errs.Invalid(attrField(t, a), "technique %q takes no %s", pet.Scheme, p)
	}
	v, err := parseNumber(attrField(t, a), p, raw)
	if err != nil {
		return f, err
	}
	out := f.clone()
	out.templates[t].Attributes[a].PET.Metadata[string(p)] = v
	return out, nil
}

// SetDP toggles DP on template t. Turning it off discards the DP policy.
func (f ObjectForm) SetDP(t int, on bool) (ObjectForm, error) {
	if err := f.template(t); err != nil {
		return f, err
	}
	out := f.clone()
	out.templates[t].DP = on
	if !on {
		out.templates[t].DPPolicy = defaultDPPolicy()
	}
	return out, nil
}

func (f ObjectForm) SetKMap(t int, on bool) (ObjectForm, error) {
	if err := f.template(t); err != nil {
		return f, err
	}
	out := f.clone()
	out.templates[t].KMap = on
	return out, nil
}

// SetDPAttributeNames replaces the DP grouping of template t.
func (f ObjectForm) SetDPAttributeNames(t int, names []string) (ObjectForm, error) {
	if err := f.template(t); err != nil {
		return f, err
	}
	rel := f.relations(t)
	for _, n := range names {
		if !containsName(rel, n) {
			return f, errs.Invalid(templateField(t), "%q is not an attribute of object %q", n, f.templates[t].Name)
		}
	}
	out := f.clone()
	out.templates[t].DPPolicy.AttributeNames = append([]string{}, names...)
	return out, nil
}

func (f ObjectForm) SetDPApplyToAll(t int, on bool) (ObjectForm, error) {
	if err := f.template(t); err != nil {
		return f, err
	}
	out := f.clone()
	out.templates[t].DPPolicy.ApplyToAll = on
	return out, nil
}

func (f ObjectForm) SetDPScheme(t int, raw string) (ObjectForm, error) {
	if err := f.template(t); err != nil {
		return f, err
	}
	k, err := scheme.Parse(raw)
	if err != nil {
		return f, err
	}
	if !k.In(scheme.DPSchemes) {
		return f, errs.Invalid(templateField(t), "%q is not a dp mechanism", k)
	}
	out := f.clone()
	out.templates[t].DPPolicy.Scheme = k
	return out, nil
}

func (f ObjectForm) SetDPParameter(t int, key, raw string) (ObjectForm, error) {
	if err := f.template(t); err != nil {
		return f, err
	}
	p, err := scheme.ParseParam(key, scheme.DPParams)
	if err != nil {
		return f, err
	}
	dp := f.templates[t].DPPolicy
	if dp.Scheme != scheme.None && !dp.Scheme.Accepts(p) {
		return f, errs.Invalid(templateField(t), "mechanism %q takes no %s", dp.Scheme, p)
	}
	v, err := parseNumber(templateField(t), p, raw)
	if err != nil {
		return f, err
	}
	out := f.clone()
	out.templates[t].DPPolicy.Metadata[string(p)] = v
	return out, nil
}

// SetK sets the k-anonymity level of template t.
func (f ObjectForm) SetK(t int, raw string) (ObjectForm, error) {
	if err := f.template(t); err != nil {
		return f, err
	}
	k, err := parseK(templateField(t), raw)
	if err != nil {
		return f, err
	}
	out := f.clone()
	out.templates[t].K = k
	return out, nil
}

// CheckIfK reports whether template t has a quasi-identifier attribute, i.e.
// whether a k value is meaningful for it.
func (f ObjectForm) CheckIfK(t int) bool {
	if t < 0 || t >= len(f.templates) {
		return false
	}
	for _, a := range f.templates[t].Attributes {
		if a.PET.Scheme.IsQuasi() {
			return true
		}
	}
	return false
}

// Build finalizes the templates. Incomplete DP policies are reported as
// warnings and the templates are still emitted.
func (f ObjectForm) Build() ([]TemplateSpec, []Warning, error) {
	var warnings []Warning
	specs := make([]TemplateSpec, 0, len(f.templates))
	for t, tr := range f.templates {
		if tr.Name == "" {
			return nil, nil, errs.Invalid(templateField(t), "Object name cannot be None")
		}
		attrs := make([]ObjectAttributeSpec, 0, len(tr.Attributes))
		for a, ar := range tr.Attributes {
			if ar.Name == "" {
				return nil, nil, errs.Invalid(attrField(t, a), "attribute name cannot be None")
			}
			if ar.PET.Scheme == scheme.None {
				return nil, nil, errs.Invalid(attrField(t, a), "attribute technique cannot be None")
			}
			attrs = append(attrs, ObjectAttributeSpec{
				Name: ar.Name,
				PETs: []PET{{Scheme: ar.PET.Scheme, Metadata: finalizeMetadata(ar.PET.Metadata)}},
			})
		}
		if tr.DP {
			if blank(tr.DPPolicy.AttributeNames) {
				warnings = append(warnings, Warning{Field: templateField(t), Message: "no attribute selected in dp policy"})
			}
			if tr.DPPolicy.Scheme == scheme.None {
				warnings = append(warnings, Warning{Field: templateField(t), Message: "no mechanism selected for dp policy"})
			}
		}
		dp := tr.DPPolicy.clone()
		specs = append(specs, TemplateSpec{
			Name:       tr.Name,
			DP:         tr.DP,
			KAnonymity: tr.K > 0,
			K:          tr.K,
			KMap:       tr.KMap,
			Attributes: attrs,
			DPPolicy:   &dp,
		})
	}
	return sanitizeTemplates(specs), warnings, nil
}
