package hierarchy

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/pp-cti/policr/internal/policr/errs"
	"github.com/pp-cti/policr/internal/policr/event"
	"github.com/pp-cti/policr/internal/policr/policy"
)

// Build finalizes the form. Any entry without a type aborts the whole
// document. Regex levels that do not compile are reported as warnings.
// newID defaults to uuid.NewString when nil.
func (f Form) Build(h policy.Header, newID func() string) (*Document, []policy.Warning, error) {
	if f.cands.Mode == event.ModeNone {
		return nil, nil, errs.Invalid("", "couldn't generate hierarchy over no policy")
	}
	if newID == nil {
		newID = uuid.NewString
	}

	p := Policy{
		Description:  Description,
		Creator:      h.Creator,
		Organization: h.Organization,
		Version:      h.Version,
		Attributes:   []Entry{},
		Objects:      []ObjectEntry{},
	}
	var warnings []policy.Warning

	if f.cands.Mode == event.ModeFlat {
		for i, row := range f.entries {
			r := Attr(i)
			if row.Name == "" {
				return nil, nil, errs.Invalid(r.String(), "hierarchy attribute name cannot be None")
			}
			e, w, err := finalizeEntry(r, row)
			if err != nil {
				return nil, nil, err
			}
			warnings = append(warnings, w...)
			p.Attributes = append(p.Attributes, e)
		}
	} else {
		for o, obj := range f.objects {
			if obj.Name == "" {
				return nil, nil, errs.Invalid(objectField(o), "Object name cannot be None")
			}
			oe := ObjectEntry{Template: obj.Name, AttributeHierarchies: []Entry{}}
			for i, row := range obj.Entries {
				if row.Name == "" {
					continue
				}
				e, w, err := finalizeEntry(ObjAttr(o, i), row)
				if err != nil {
					return nil, nil, err
				}
				warnings = append(warnings, w...)
				oe.AttributeHierarchies = append(oe.AttributeHierarchies, e)
			}
			p.Objects = append(p.Objects, oe)
		}
	}

	p.UUID = newID()
	return &Document{HierarchyPolicy: p}, warnings, nil
}

func finalizeEntry(r Ref, row EntryRow) (Entry, []policy.Warning, error) {
	e := Entry{AttributeName: row.Name, AttributeType: row.Type}
	var warnings []policy.Warning

	switch row.Type {
	case Static, Interval:
		for _, raw := range row.Raw {
			g := Generalization{Generalization: []string{}, Interval: []string{}, Regex: []string{}}
			if row.Type == Static {
				g.Generalization = splitLevels(raw)
			} else {
				g.Interval = splitLevels(raw)
			}
			e.AttributeGeneralization = append(e.AttributeGeneralization, g)
		}
	case Regex:
		var first string
		if len(row.Raw) > 0 {
			first = row.Raw[0]
		}
		patterns := splitLevels(first)
		for _, pat := range patterns {
			if _, err := regexp.Compile(pat); err != nil {
				warnings = append(warnings, policy.Warning{Field: r.String(), Message: "regex " + pat + " does not compile: " + err.Error()})
			}
		}
		e.AttributeGeneralization = []Generalization{{Generalization: []string{}, Interval: []string{}, Regex: patterns}}
	default:
		return Entry{}, nil, errs.Invalid(r.String(), "hierarchy type cannot be none")
	}
	return e, warnings, nil
}

// splitLevels splits a raw level on commas. Values are kept verbatim.
func splitLevels(raw string) []string { return strings.Split(raw, ",") }
