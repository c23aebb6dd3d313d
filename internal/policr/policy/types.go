package policy

import (
	"fmt"

	"github.com/pp-cti/policr/internal/policr/scheme"
)

// Metadata maps a parameter name to its value. A value of exactly 0 means
// unset and is dropped from finalized PET metadata.
type Metadata map[string]float64

func (m Metadata) clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// PET is one privacy-enhancing technique applied to a field.
type PET struct {
	Scheme   scheme.Kind `json:"scheme"`
	Metadata Metadata    `json:"metadata"`
}

func (p PET) clone() PET {
	return PET{Scheme: p.Scheme, Metadata: p.Metadata.clone()}
}

// DPParams is the DP mechanism of a flat attribute.
type DPParams struct {
	Scheme   scheme.Kind `json:"scheme"`
	Metadata Metadata    `json:"metadata"`
}

func (d DPParams) clone() DPParams {
	return DPParams{Scheme: d.Scheme, Metadata: d.Metadata.clone()}
}

// DPPolicy groups template attributes under one DP mechanism.
type DPPolicy struct {
	AttributeNames []string    `json:"attribute-names"`
	ApplyToAll     bool        `json:"apply-to-all"`
	Scheme         scheme.Kind `json:"scheme"`
	Metadata       Metadata    `json:"metadata"`
}

func (d DPPolicy) clone() DPPolicy {
	names := make([]string, len(d.AttributeNames))
	copy(names, d.AttributeNames)
	return DPPolicy{AttributeNames: names, ApplyToAll: d.ApplyToAll, Scheme: d.Scheme, Metadata: d.Metadata.clone()}
}

// defaultDPMetadata mirrors what the transformer expects for an untouched
// mechanism: zero noise parameters and wide bounds.
func defaultDPMetadata() Metadata {
	return Metadata{
		string(scheme.Epsilon):     0,
		string(scheme.Delta):       0,
		string(scheme.Sensitivity): 0,
		string(scheme.Lower):       -999,
		string(scheme.Upper):       999,
	}
}

func defaultPET() PET { return PET{Metadata: Metadata{}} }

func defaultDPParams() DPParams { return DPParams{Metadata: defaultDPMetadata()} }

func defaultDPPolicy() DPPolicy {
	return DPPolicy{AttributeNames: []string{}, Metadata: defaultDPMetadata()}
}

// AttributeSpec is a finalized flat attribute.
type AttributeSpec struct {
	Name     string    `json:"name"`
	Type     *string   `json:"type,omitempty"`
	PETs     []PET     `json:"pets"`
	DP       bool      `json:"dp"`
	DPPolicy *DPParams `json:"dp-policy,omitempty"`
}

// ObjectAttributeSpec is a finalized attribute nested in a template.
type ObjectAttributeSpec struct {
	Name string  `json:"name"`
	Type *string `json:"type,omitempty"`
	PETs []PET   `json:"pets"`
}

// TemplateSpec is a finalized per-object policy.
type TemplateSpec struct {
	Name       string                `json:"name"`
	DP         bool                  `json:"dp"`
	KAnonymity bool                  `json:"k-anonymity"`
	K          int                   `json:"k"`
	KMap       bool                  `json:"k-map"`
	Attributes []ObjectAttributeSpec `json:"attributes"`
	DPPolicy   *DPPolicy             `json:"dp-policy,omitempty"`
}

// PrivacyPolicy is the body of a privacy-policy document. Exactly one of
// Attributes and Templates is populated; the other is empty.
type PrivacyPolicy struct {
	Creator      string          `json:"creator"`
	Organization string          `json:"organization"`
	Version      string          `json:"version"`
	UUID         string          `json:"uuid"`
	Attributes   []AttributeSpec `json:"attributes"`
	Templates    []TemplateSpec  `json:"templates"`
}

// Document is the file written for a privacy policy.
type Document struct {
	PrivacyPolicy PrivacyPolicy `json:"Privacy-policy"`
}

// Header carries the static fields of a generated document.
type Header struct {
	Creator      string `json:"creator" yaml:"creator"`
	Organization string `json:"organization" yaml:"organization"`
	Version      string `json:"version" yaml:"version"`
}

// Warning is a non-fatal finding surfaced to the user.
type Warning struct {
	Field   string
	Message string
}

func (w Warning) String() string {
	if w.Field == "" {
		return w.Message
	}
	return fmt.Sprintf("%s: %s", w.Field, w.Message)
}
