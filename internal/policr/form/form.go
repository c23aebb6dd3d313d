package form

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/pp-cti/policr/internal/policr/errs"
	"github.com/pp-cti/policr/internal/policr/policy"
)

// Params maps a parameter name to the value as typed by the user.
type Params map[string]string

// sortedKeys keeps replay order stable.
func (p Params) sortedKeys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type Attribute struct {
	Name     string `yaml:"name"`
	Scheme   string `yaml:"scheme"`
	Params   Params `yaml:"params"`
	DPParams Params `yaml:"dp_params"`
}

type TemplateAttribute struct {
	Name   string `yaml:"name"`
	Scheme string `yaml:"scheme"`
	Params Params `yaml:"params"`
}

type DPPolicy struct {
	AttributeNames []string `yaml:"attribute_names"`
	ApplyToAll     bool     `yaml:"apply_to_all"`
	Scheme         string   `yaml:"scheme"`
	Params         Params   `yaml:"params"`
}

type Template struct {
	Name       string              `yaml:"name"`
	K          string              `yaml:"k"`
	KMap       bool                `yaml:"k_map"`
	DP         bool                `yaml:"dp"`
	DPPolicy   *DPPolicy           `yaml:"dp_policy"`
	Attributes []TemplateAttribute `yaml:"attributes"`
}

// PolicyForm is the YAML rendition of the privacy-policy form.
type PolicyForm struct {
	Header     *policy.Header `yaml:"header"`
	Attributes []Attribute    `yaml:"attributes"`
	Templates  []Template     `yaml:"templates"`
}

type HierarchyEntry struct {
	Name   string   `yaml:"name"`
	Type   string   `yaml:"type"`
	Levels []string `yaml:"levels"`
}

type HierarchyObject struct {
	Name       string           `yaml:"name"`
	Attributes []HierarchyEntry `yaml:"attributes"`
}

// HierarchyForm is the YAML rendition of the hierarchy form.
type HierarchyForm struct {
	Header     *policy.Header    `yaml:"header"`
	Attributes []HierarchyEntry  `yaml:"attributes"`
	Objects    []HierarchyObject `yaml:"objects"`
}

// decode rejects unknown keys so typos in a form do not pass silently.
func decode(source string, data []byte, out interface{}) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return &errs.FormatError{Source: source, Reason: "not a valid form", Err: err}
	}
	return nil
}

func ParsePolicy(data []byte) (*PolicyForm, error) {
	var f PolicyForm
	if err := decode("policy form", data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func ParseHierarchy(data []byte) (*HierarchyForm, error) {
	var f HierarchyForm
	if err := decode("hierarchy form", data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func LoadPolicy(path string) (*PolicyForm, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read form %s: %w", filepath.Base(path), err)
	}
	return ParsePolicy(data)
}

func LoadHierarchy(path string) (*HierarchyForm, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read form %s: %w", filepath.Base(path), err)
	}
	return ParseHierarchy(data)
}

// warn turns a rejected mutation into a warning, the way the form shows an
// alert and keeps going.
func warn(err error) policy.Warning {
	var ve *errs.ValidationError
	if errors.As(err, &ve) {
		return policy.Warning{Field: ve.Field, Message: ve.Message}
	}
	return policy.Warning{Message: err.Error()}
}

// OverlayHeader overlays the non-empty fields of override on base.
func OverlayHeader(base policy.Header, override *policy.Header) policy.Header {
	if override == nil {
		return base
	}
	if override.Creator != "" {
		base.Creator = override.Creator
	}
	if override.Organization != "" {
		base.Organization = override.Organization
	}
	if override.Version != "" {
		base.Version = override.Version
	}
	return base
}
