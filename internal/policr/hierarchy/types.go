package hierarchy

import (
	"strings"

	"github.com/pp-cti/policr/internal/policr/errs"
)

// Key is the top-level key of a hierarchy-policy document.
const Key = "Hierarchy-policy"

// Description is stamped into every generated document.
const Description = "This hierarchy policy was generated with PP-CTI's frontend."

// Type selects which inner array of a generalization is populated.
type Type string

const (
	TypeNone Type = "None"
	Static   Type = "static"
	Regex    Type = "regex"
	Interval Type = "interval"
)

// ParseType accepts the three hierarchy types and "None" (or empty) to unset.
func ParseType(s string) (Type, error) {
	v := strings.TrimSpace(s)
	switch strings.ToLower(v) {
	case "", "none":
		return TypeNone, nil
	case string(Static):
		return Static, nil
	case string(Regex):
		return Regex, nil
	case string(Interval):
		return Interval, nil
	}
	return TypeNone, errs.Invalid("attribute-type", "unknown hierarchy type %q", s)
}

// Generalization is one level of a hierarchy. Exactly one array is non-empty.
type Generalization struct {
	Generalization []string `json:"generalization"`
	Interval       []string `json:"interval"`
	Regex          []string `json:"regex"`
}

// Entry is the hierarchy of one field.
type Entry struct {
	AttributeName           string           `json:"attribute-name"`
	AttributeType           Type             `json:"attribute-type"`
	AttributeGeneralization []Generalization `json:"attribute-generalization"`
}

// ObjectEntry groups the hierarchies of one object template.
type ObjectEntry struct {
	Template             string  `json:"misp-object-template"`
	AttributeHierarchies []Entry `json:"attribute-hierarchies"`
}

// Policy is the body of a hierarchy-policy document. Exactly one of
// Attributes and Objects is populated.
type Policy struct {
	Description  string        `json:"hierarchy-description"`
	Creator      string        `json:"creator"`
	Organization string        `json:"organization"`
	Version      string        `json:"version"`
	UUID         string        `json:"uuid"`
	Attributes   []Entry       `json:"hierarchy_attributes"`
	Objects      []ObjectEntry `json:"hierarchy_objects"`
}

// Document is the file written for a hierarchy policy.
type Document struct {
	HierarchyPolicy Policy `json:"Hierarchy-policy"`
}
