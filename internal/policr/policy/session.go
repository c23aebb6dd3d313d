package policy

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/pp-cti/policr/internal/policr/errs"
	"github.com/pp-cti/policr/internal/policr/event"
	"github.com/pp-cti/policr/internal/policr/logger"
)

// Session holds everything needed to produce one privacy policy: the
// document header, the loaded event and both working forms. Only the form
// matching the event's mode is used by Build.
type Session struct {
	Header     Header
	Attributes AttributeForm
	Objects    ObjectForm

	// NewID stamps the document uuid. Defaults to uuid.NewString.
	NewID func() string

	filename string
	mode     event.Mode
}

func NewSession(h Header) *Session {
	return &Session{
		Header:     h,
		Attributes: NewAttributeForm(nil),
		Objects:    NewObjectForm(nil),
		NewID:      uuid.NewString,
	}
}

// Filename is the name of the loaded event, empty if none.
func (s *Session) Filename() string { return s.filename }

func (s *Session) Mode() event.Mode { return s.mode }

// LoadEvent parses an event and points the matching form at its fields.
// Switching between flat and nested events resets the form that is no longer
// in use. On error the session is left unchanged.
func (s *Session) LoadEvent(filename string, data []byte) error {
	f, err := event.Load(data)
	if err != nil {
		return err
	}
	if f.Mode == event.ModeNone {
		return errs.Invalid("event", "event has neither attributes nor objects")
	}

	switch f.Mode {
	case event.ModeFlat:
		if s.mode == event.ModeNested {
			s.Objects = NewObjectForm(nil)
		}
		s.Attributes = s.Attributes.WithFields(f.Attributes)
	case event.ModeNested:
		if s.mode == event.ModeFlat {
			s.Attributes = NewAttributeForm(nil)
		}
		s.Objects = s.Objects.WithObjects(f.Objects)
	}
	s.mode = f.Mode
	s.filename = filename

	logger.L().Debugw("event loaded",
		"file", filename,
		"mode", f.Mode,
		"fields", f.Count(),
	)
	return nil
}

// Build finalizes the active form into a privacy-policy document.
func (s *Session) Build() (*Document, []Warning, error) {
	if s.filename == "" {
		return nil, nil, errs.Invalid("", "couldn't generate policy over no event")
	}

	pp := PrivacyPolicy{
		Creator:      s.Header.Creator,
		Organization: s.Header.Organization,
		Version:      s.Header.Version,
		Attributes:   []AttributeSpec{},
		Templates:    []TemplateSpec{},
	}
	var warnings []Warning
	switch s.mode {
	case event.ModeFlat:
		attrs, err := s.Attributes.Build()
		if err != nil {
			return nil, nil, err
		}
		pp.Attributes = attrs
	case event.ModeNested:
		templates, w, err := s.Objects.Build()
		if err != nil {
			return nil, nil, err
		}
		pp.Templates = templates
		warnings = w
	}

	newID := s.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	pp.UUID = newID()
	return &Document{PrivacyPolicy: pp}, warnings, nil
}

// Suffixes of generated document names.
const (
	PolicySuffix    = "policy"
	HierarchySuffix = "hierarchy"
)

// OutputName derives a document file name from the event file name,
// e.g. "case-42.json" with suffix "policy" gives "case-42-policy.json".
func OutputName(filename, suffix string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return base + "-" + suffix + ".json"
}
