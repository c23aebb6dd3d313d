package policy

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pp-cti/policr/internal/policr/errs"
	"github.com/pp-cti/policr/internal/policr/scheme"
)

// Key is the top-level key of a privacy-policy document.
const Key = "Privacy-policy"

// Decode parses a privacy-policy document without checking its contents.
func Decode(data []byte) (*Document, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &errs.FormatError{Source: "privacy policy", Reason: "not valid JSON", Err: err}
	}
	body, ok := raw[Key]
	if !ok {
		return nil, &errs.FormatError{Source: "privacy policy", Reason: "missing " + Key + " key"}
	}
	var doc Document
	if err := json.Unmarshal(body, &doc.PrivacyPolicy); err != nil {
		return nil, &errs.FormatError{Source: "privacy policy", Reason: "unexpected " + Key + " layout", Err: err}
	}
	return &doc, nil
}

// Validate decodes a privacy policy and checks it against the scheme catalog.
func Validate(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read policy: %w", err)
	}
	doc, err := Decode(data)
	if err != nil {
		return nil, err
	}
	pp := doc.PrivacyPolicy

	if (len(pp.Attributes) == 0) == (len(pp.Templates) == 0) {
		return nil, errs.Invalid("", "exactly one of attributes and templates must be populated")
	}

	for i, a := range pp.Attributes {
		field := rowField(i)
		if a.Name == "" {
			return nil, errs.Invalid(field, "attribute name cannot be None")
		}
		if a.DP {
			if a.DPPolicy == nil || !a.DPPolicy.Scheme.IsDP() {
				return nil, errs.Invalid(field, "dp attribute needs a dp mechanism")
			}
			continue
		}
		if err := validatePETs(field, a.PETs, scheme.AttributeSchemes); err != nil {
			return nil, err
		}
	}

	for t, tp := range pp.Templates {
		field := templateField(t)
		if tp.Name == "" {
			return nil, errs.Invalid(field, "Object name cannot be None")
		}
		if tp.KAnonymity != (tp.K > 0) {
			return nil, errs.Invalid(field, "k-anonymity must be set exactly when k > 0")
		}
		if tp.DP && tp.DPPolicy != nil && tp.DPPolicy.Scheme != scheme.None && !tp.DPPolicy.Scheme.IsDP() {
			return nil, errs.Invalid(field, "%q is not a dp mechanism", tp.DPPolicy.Scheme)
		}
		allowed := append([]scheme.Kind{scheme.QuasiKAnonymity}, scheme.ObjectSchemes...)
		for a, attr := range tp.Attributes {
			if attr.Name == "" {
				return nil, errs.Invalid(attrField(t, a), "attribute name cannot be None")
			}
			if err := validatePETs(attrField(t, a), attr.PETs, allowed); err != nil {
				return nil, err
			}
		}
	}
	return doc, nil
}

func validatePETs(field string, pets []PET, allowed []scheme.Kind) error {
	if len(pets) == 0 {
		return errs.Invalid(field, "attribute technique cannot be None")
	}
	for _, p := range pets {
		if !p.Scheme.In(allowed) {
			return errs.Invalid(field, "unknown technique %q", p.Scheme)
		}
		for k := range p.Metadata {
			if !p.Scheme.Accepts(scheme.Param(k)) {
				return errs.Invalid(field, "technique %q takes no %s", p.Scheme, k)
			}
		}
	}
	return nil
}
