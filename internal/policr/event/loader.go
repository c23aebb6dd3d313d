package event

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pp-cti/policr/internal/policr/errs"
	"github.com/pp-cti/policr/internal/policr/logger"
)

// Parse decodes an event file and checks for the top-level "Event" key.
func Parse(data []byte) (*Capture, error) {
	var c Capture
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, &errs.FormatError{Source: "event", Reason: "not valid JSON", Err: err}
	}
	if c.Event == nil {
		return nil, &errs.FormatError{Source: "event", Reason: "missing Event key"}
	}
	return &c, nil
}

// Load parses an event file and extracts the fields available for policy
// assignment. An event with neither attributes nor objects yields ModeNone.
func Load(data []byte) (*Fields, error) {
	c, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return Extract(c), nil
}

// LoadFile reads and loads the event at path.
func LoadFile(path string) (*Fields, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read event %s: %w", filepath.Base(path), err)
	}
	f, err := Load(data)
	if err != nil {
		return nil, err
	}
	logger.L().Debugw("event loaded", "path", path, "mode", f.Mode, "fields", f.Count())
	return f, nil
}

// Extract collects distinct names in first-seen order. Flat attributes take
// precedence when an event carries both shapes.
func Extract(c *Capture) *Fields {
	if c == nil || c.Event == nil {
		return &Fields{Mode: ModeNone}
	}
	ev := c.Event

	switch {
	case ev.Attribute != nil:
		f := &Fields{Mode: ModeFlat, Attributes: []string{}}
		for _, a := range *ev.Attribute {
			if !contains(f.Attributes, a.ObjectRelation) {
				f.Attributes = append(f.Attributes, a.ObjectRelation)
			}
		}
		return f

	case ev.Object != nil:
		f := &Fields{Mode: ModeNested, Objects: []ObjectFields{}}
		index := map[string]int{}
		for _, o := range *ev.Object {
			i, ok := index[o.Name]
			if !ok {
				i = len(f.Objects)
				index[o.Name] = i
				f.Objects = append(f.Objects, ObjectFields{Name: o.Name, Attributes: []string{}})
			}
			for _, a := range o.Attribute {
				if !contains(f.Objects[i].Attributes, a.ObjectRelation) {
					f.Objects[i].Attributes = append(f.Objects[i].Attributes, a.ObjectRelation)
				}
			}
		}
		return f
	}

	return &Fields{Mode: ModeNone}
}
