package hierarchy

import (
	"github.com/pp-cti/policr/internal/policr/event"
	"github.com/pp-cti/policr/internal/policr/policy"
	"github.com/pp-cti/policr/internal/policr/scheme"
)

// Candidate is a field whose technique needs a generalization hierarchy.
type Candidate struct {
	Name   string
	Scheme scheme.Kind
	// Level is the generalization level of suppression and generalization
	// fields, 0 otherwise. It is shown to the user only.
	Level int
}

// ObjectCandidate is a template with at least one candidate attribute.
type ObjectCandidate struct {
	Name       string
	Attributes []Candidate
}

// Candidates are the fields of a privacy policy a hierarchy can be built for.
type Candidates struct {
	Mode       event.Mode
	Attributes []Candidate
	Objects    []ObjectCandidate
}

// Load parses a finalized privacy policy and collects its candidates.
func Load(data []byte) (*Candidates, error) {
	doc, err := policy.Decode(data)
	if err != nil {
		return nil, err
	}
	return FromPolicy(doc), nil
}

// FromPolicy collects the candidates of doc. Flat attributes win when both
// collections are populated.
func FromPolicy(doc *policy.Document) *Candidates {
	pp := doc.PrivacyPolicy
	switch {
	case len(pp.Attributes) > 0:
		c := &Candidates{Mode: event.ModeFlat, Attributes: []Candidate{}}
		for _, a := range pp.Attributes {
			if cand, ok := candidate(a.Name, a.PETs); ok {
				c.Attributes = append(c.Attributes, cand)
			}
		}
		return c
	case len(pp.Templates) > 0:
		c := &Candidates{Mode: event.ModeNested, Objects: []ObjectCandidate{}}
		for _, t := range pp.Templates {
			oc := ObjectCandidate{Name: t.Name}
			for _, a := range t.Attributes {
				if cand, ok := candidate(a.Name, a.PETs); ok {
					oc.Attributes = append(oc.Attributes, cand)
				}
			}
			if len(oc.Attributes) > 0 {
				c.Objects = append(c.Objects, oc)
			}
		}
		return c
	}
	return &Candidates{Mode: event.ModeNone}
}

func candidate(name string, pets []policy.PET) (Candidate, bool) {
	for _, p := range pets {
		if !p.Scheme.NeedsHierarchy() {
			continue
		}
		c := Candidate{Name: name, Scheme: p.Scheme}
		if p.Scheme.NeedsLevel() {
			c.Level = int(p.Metadata[string(scheme.Level)])
		}
		return c, true
	}
	return Candidate{}, false
}

// Attribute returns the flat candidate called name.
func (c *Candidates) Attribute(name string) (Candidate, bool) {
	for _, a := range c.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return Candidate{}, false
}

// Object returns the object candidate called name.
func (c *Candidates) Object(name string) (ObjectCandidate, bool) {
	for _, o := range c.Objects {
		if o.Name == name {
			return o, true
		}
	}
	return ObjectCandidate{}, false
}
