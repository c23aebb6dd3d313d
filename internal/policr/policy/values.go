package policy

import (
	"math"
	"strconv"
	"strings"

	"github.com/pp-cti/policr/internal/policr/errs"
	"github.com/pp-cti/policr/internal/policr/scheme"
)

// parseNumber parses a form value for parameter p.
func parseNumber(field string, p scheme.Param, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		kind := "a number"
		if scheme.IntegerParam(p) {
			kind = "an int"
		}
		return 0, errs.Invalid(field, "%s must be %s", p, kind)
	}
	if v < 0 && p != scheme.Lower {
		return 0, errs.Invalid(field, "%s must not be negative", p)
	}
	return v, nil
}

// parseK parses a template k. Only whole numbers are accepted.
func parseK(field, raw string) (int, error) {
	k, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, errs.Invalid(field, "k must be integer")
	}
	if k < 0 {
		return 0, errs.Invalid(field, "k must not be negative")
	}
	return k, nil
}

// finalizeMetadata truncates integer parameters.
func finalizeMetadata(m Metadata) Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		if scheme.IntegerParam(scheme.Param(k)) {
			v = math.Trunc(v)
		}
		out[k] = v
	}
	return out
}

func containsName(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func blank(list []string) bool {
	for _, v := range list {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func strPtr(s string) *string { return &s }
