package submit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pp-cti/policr/internal/policr/errs"
	"github.com/pp-cti/policr/internal/policr/logger"
)

// Top-level keys of the three submission parts.
const (
	EventKey     = "Event"
	PolicyKey    = "Privacy-policy"
	HierarchyKey = "Hierarchy-policy"
)

// Payload is the body posted to the transformer.
type Payload struct {
	Event           json.RawMessage `json:"Event"`
	PrivacyPolicy   json.RawMessage `json:"Privacy-policy"`
	HierarchyPolicy json.RawMessage `json:"Hierarchy-policy"`
}

type part struct {
	key   string
	label string
	in    Input
	dst   *json.RawMessage
}

// Assemble resolves the three inputs in order and unwraps each from its
// top-level key. The first invalid part fails the whole submission.
func Assemble(ctx context.Context, policy, hierarchy, event Input) (*Payload, error) {
	p := &Payload{}
	parts := []part{
		{PolicyKey, "privacy policy", policy, &p.PrivacyPolicy},
		{HierarchyKey, "hierarchy policy", hierarchy, &p.HierarchyPolicy},
		{EventKey, "event", event, &p.Event},
	}

	for _, pt := range parts {
		if pt.in == nil {
			return nil, errs.Invalid(pt.key, "no %s selected", pt.label)
		}
		data, err := pt.in.Resolve(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", pt.label, err)
		}
		body, ok := unwrap(data, pt.key)
		if !ok {
			return nil, errs.Invalid(pt.key, "invalid %s file contents", pt.label)
		}
		*pt.dst = body
		logger.L().Debugw("submission part resolved", "part", pt.key, "source", pt.in.String(), "bytes", len(body))
	}
	return p, nil
}

func unwrap(data []byte, key string) (json.RawMessage, bool) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false
	}
	body, ok := doc[key]
	if !ok || string(body) == "null" {
		return nil, false
	}
	return body, true
}

// PolicyUUID returns the uuid of the privacy policy, empty if absent.
func (p *Payload) PolicyUUID() string { return uuidOf(p.PrivacyPolicy) }

// HierarchyUUID returns the uuid of the hierarchy policy, empty if absent.
func (p *Payload) HierarchyUUID() string { return uuidOf(p.HierarchyPolicy) }

func uuidOf(body json.RawMessage) string {
	var v struct {
		UUID string `json:"uuid"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return ""
	}
	return v.UUID
}
