package policy

import "github.com/pp-cti/policr/internal/policr/scheme"

// Finalized documents pass through a fixed sequence of cleanup steps before
// they are written or submitted. The order matters: k is broadcast after
// zero stripping so an explicit template k always survives.

func sanitizeAttributes(specs []AttributeSpec) []AttributeSpec {
	for i := range specs {
		for j := range specs[i].PETs {
			stripZeros(specs[i].PETs[j].Metadata)
		}
		if specs[i].DP {
			specs[i].PETs = []PET{}
		} else {
			specs[i].DPPolicy = nil
		}
		specs[i].Type = strPtr("")
	}
	return specs
}

func sanitizeTemplates(specs []TemplateSpec) []TemplateSpec {
	steps := []func(*TemplateSpec){
		stripTemplateZeros,
		dropDisabledDP,
		markKAnonymity,
		injectTypes,
		broadcastK,
	}
	for i := range specs {
		for _, step := range steps {
			step(&specs[i])
		}
	}
	return specs
}

func stripZeros(m Metadata) {
	for k, v := range m {
		if v == 0 {
			delete(m, k)
		}
	}
}

func stripTemplateZeros(t *TemplateSpec) {
	for i := range t.Attributes {
		for j := range t.Attributes[i].PETs {
			stripZeros(t.Attributes[i].PETs[j].Metadata)
		}
	}
}

func dropDisabledDP(t *TemplateSpec) {
	if !t.DP {
		t.DPPolicy = nil
	}
}

// markKAnonymity renames plain quasi identifiers to the k-anonymity scheme
// the transformer implements for objects.
func markKAnonymity(t *TemplateSpec) {
	for i := range t.Attributes {
		for j := range t.Attributes[i].PETs {
			if t.Attributes[i].PETs[j].Scheme == scheme.Quasi {
				t.Attributes[i].PETs[j].Scheme = scheme.QuasiKAnonymity
			}
		}
	}
}

func injectTypes(t *TemplateSpec) {
	for i := range t.Attributes {
		t.Attributes[i].Type = strPtr("")
	}
}

func broadcastK(t *TemplateSpec) {
	if t.K == 0 {
		return
	}
	for i := range t.Attributes {
		for j := range t.Attributes[i].PETs {
			if t.Attributes[i].PETs[j].Scheme.IsQuasi() {
				t.Attributes[i].PETs[j].Metadata[string(scheme.K)] = float64(t.K)
			}
		}
	}
}
