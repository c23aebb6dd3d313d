package hierarchy

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"

	"github.com/pp-cti/policr/internal/policr/errs"
)

// Decode parses a hierarchy-policy document without checking its contents.
func Decode(data []byte) (*Document, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &errs.FormatError{Source: "hierarchy policy", Reason: "not valid JSON", Err: err}
	}
	body, ok := raw[Key]
	if !ok {
		return nil, &errs.FormatError{Source: "hierarchy policy", Reason: "missing " + Key + " key"}
	}
	var doc Document
	if err := json.Unmarshal(body, &doc.HierarchyPolicy); err != nil {
		return nil, &errs.FormatError{Source: "hierarchy policy", Reason: "unexpected " + Key + " layout", Err: err}
	}
	return &doc, nil
}

// Validate decodes a hierarchy policy and checks every entry.
func Validate(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read hierarchy: %w", err)
	}
	doc, err := Decode(data)
	if err != nil {
		return nil, err
	}
	p := doc.HierarchyPolicy

	if (len(p.Attributes) == 0) == (len(p.Objects) == 0) {
		return nil, errs.Invalid("", "exactly one of hierarchy_attributes and hierarchy_objects must be populated")
	}
	for i, e := range p.Attributes {
		if err := validateEntry(Attr(i), e); err != nil {
			return nil, err
		}
	}
	for o, obj := range p.Objects {
		if obj.Template == "" {
			return nil, errs.Invalid(objectField(o), "misp-object-template cannot be empty")
		}
		for i, e := range obj.AttributeHierarchies {
			if err := validateEntry(ObjAttr(o, i), e); err != nil {
				return nil, err
			}
		}
	}
	return doc, nil
}

func validateEntry(r Ref, e Entry) error {
	if e.AttributeName == "" {
		return errs.Invalid(r.String(), "attribute-name cannot be empty")
	}
	if e.AttributeType != Static && e.AttributeType != Regex && e.AttributeType != Interval {
		return errs.Invalid(r.String(), "hierarchy type cannot be none")
	}
	if len(e.AttributeGeneralization) == 0 {
		return errs.Invalid(r.String(), "attribute-generalization cannot be empty")
	}
	for _, g := range e.AttributeGeneralization {
		var populated []string
		switch e.AttributeType {
		case Static:
			populated = g.Generalization
		case Interval:
			populated = g.Interval
		case Regex:
			populated = g.Regex
		}
		if len(populated) == 0 {
			return errs.Invalid(r.String(), "%s hierarchy has an empty level", e.AttributeType)
		}
		if len(g.Generalization)+len(g.Interval)+len(g.Regex) != len(populated) {
			return errs.Invalid(r.String(), "only the %s array may be populated", e.AttributeType)
		}
		if e.AttributeType == Regex {
			for _, pat := range g.Regex {
				if _, err := regexp.Compile(pat); err != nil {
					return errs.Invalid(r.String(), "invalid regex %q: %v", pat, err)
				}
			}
		}
	}
	return nil
}
