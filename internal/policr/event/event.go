package event

import "encoding/json"

// Mode tells which builder a loaded event feeds.
type Mode string

const (
	ModeNone   Mode = "none"
	ModeFlat   Mode = "attributes"
	ModeNested Mode = "objects"
)

// Attribute is the subset of a captured attribute the builders read.
type Attribute struct {
	ObjectRelation string `json:"object_relation"`
	Type           string `json:"type,omitempty"`
	Category       string `json:"category,omitempty"`
}

// Object is a captured object with its nested attributes.
type Object struct {
	Name      string      `json:"name"`
	Attribute []Attribute `json:"Attribute"`
}

// Body is the content under the top-level "Event" key. Attribute and Object
// are nil when the key is absent.
type Body struct {
	Info      string          `json:"info,omitempty"`
	UUID      string          `json:"uuid,omitempty"`
	Date      string          `json:"date,omitempty"`
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
	Attribute *[]Attribute    `json:"Attribute,omitempty"`
	Object    *[]Object       `json:"Object,omitempty"`
}

// Capture is a whole event file.
type Capture struct {
	Event *Body `json:"Event"`
}

// ObjectFields lists the distinct relations seen under one object name.
type ObjectFields struct {
	Name       string   `json:"name"`
	Attributes []string `json:"attributes"`
}

// Fields are the names available for policy assignment.
type Fields struct {
	Mode       Mode           `json:"mode"`
	Attributes []string       `json:"attributes,omitempty"`
	Objects    []ObjectFields `json:"objects,omitempty"`
}

// HasAttribute reports whether name is a flat field of the event.
func (f *Fields) HasAttribute(name string) bool {
	if f == nil {
		return false
	}
	return contains(f.Attributes, name)
}

// Object returns the fields captured under the named object.
func (f *Fields) Object(name string) (ObjectFields, bool) {
	if f == nil {
		return ObjectFields{}, false
	}
	for _, o := range f.Objects {
		if o.Name == name {
			return o, true
		}
	}
	return ObjectFields{}, false
}

// Count returns the number of assignable fields.
func (f *Fields) Count() int {
	if f == nil {
		return 0
	}
	n := len(f.Attributes)
	for _, o := range f.Objects {
		n += len(o.Attributes)
	}
	return n
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
