package scheme

import (
	"strings"

	"github.com/pp-cti/policr/internal/policr/errs"
)

// Kind identifies an anonymization technique. The catalog is closed: every
// value the builders accept is declared below.
type Kind string

const (
	None Kind = ""

	Quasi             Kind = "quasi"
	QuasiKAnonymity   Kind = "quasi/k-anonymity"
	Suppression       Kind = "suppression"
	Generalization    Kind = "generalization"
	PGP               Kind = "pgp"
	LDivDistinct      Kind = "l-div-distinct"
	LDivRecursive     Kind = "l-div-recursive"
	TClosOrdered      Kind = "t-clos-ordered"
	TClosHierarchical Kind = "t-clos-hierachical" // wire spelling used by the transformer

	Laplace              Kind = "laplace"
	LaplaceTruncated     Kind = "laplace truncated"
	Gaussian             Kind = "gaussian"
	GaussianAnalytics    Kind = "gaussian analytics"
	LaplaceBoundedDomain Kind = "laplace bounded domain"
	LaplaceBoundedNoise  Kind = "laplace bounded noise"
	Uniform              Kind = "uniform"
)

// Param is a metadata key.
type Param string

const (
	K           Param = "k"
	L           Param = "l"
	C           Param = "c"
	T           Param = "t"
	Level       Param = "level"
	Epsilon     Param = "epsilon"
	Delta       Param = "delta"
	Sensitivity Param = "sensitivity"
	Lower       Param = "lower"
	Upper       Param = "upper"
)

// Family groups kinds that share a parameter set.
type Family int

const (
	FamilyNone Family = iota
	FamilyQuasi
	FamilyGeneralization
	FamilyEncryption
	FamilyLDiversity
	FamilyTCloseness
	FamilyDP
)

// dpPrefix marks DP techniques in the flat attribute selector.
const dpPrefix = "dp "

var (
	// AttributeSchemes are offered for flat (attribute-level) policies.
	AttributeSchemes = []Kind{Quasi, Suppression, Generalization, PGP,
		Laplace, LaplaceTruncated, Gaussian, GaussianAnalytics,
		LaplaceBoundedDomain, LaplaceBoundedNoise, Uniform}

	// ObjectSchemes are offered for attributes nested in a template.
	ObjectSchemes = []Kind{Quasi, Suppression, Generalization, PGP}

	// DPSchemes are the mechanisms of a template DP policy.
	DPSchemes = []Kind{Laplace, LaplaceTruncated, Gaussian, GaussianAnalytics,
		LaplaceBoundedDomain, LaplaceBoundedNoise, Uniform}
)

// All returns every kind of the catalog in declaration order.
func All() []Kind {
	return []Kind{Quasi, QuasiKAnonymity, Suppression, Generalization, PGP,
		LDivDistinct, LDivRecursive, TClosOrdered, TClosHierarchical,
		Laplace, LaplaceTruncated, Gaussian, GaussianAnalytics,
		LaplaceBoundedDomain, LaplaceBoundedNoise, Uniform}
}

// Parse maps user input onto the catalog. DP kinds may carry a leading "dp ".
func Parse(s string) (Kind, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.TrimPrefix(v, dpPrefix)
	for _, k := range All() {
		if string(k) == v {
			return k, nil
		}
	}
	return None, errs.Invalid("scheme", "unknown technique %q", s)
}

// Family reports the family of k.
func (k Kind) Family() Family {
	switch k {
	case Quasi, QuasiKAnonymity:
		return FamilyQuasi
	case Suppression, Generalization:
		return FamilyGeneralization
	case PGP:
		return FamilyEncryption
	case LDivDistinct, LDivRecursive:
		return FamilyLDiversity
	case TClosOrdered, TClosHierarchical:
		return FamilyTCloseness
	case Laplace, LaplaceTruncated, Gaussian, GaussianAnalytics,
		LaplaceBoundedDomain, LaplaceBoundedNoise, Uniform:
		return FamilyDP
	default:
		return FamilyNone
	}
}

// Params returns the metadata keys k requires.
func (k Kind) Params() []Param {
	switch k.Family() {
	case FamilyQuasi:
		return []Param{K}
	case FamilyGeneralization:
		return []Param{Level}
	case FamilyLDiversity:
		if k == LDivRecursive {
			return []Param{L, C}
		}
		return []Param{L}
	case FamilyTCloseness:
		return []Param{T}
	case FamilyDP:
		if k == Uniform {
			return []Param{Delta, Sensitivity}
		}
		return []Param{Epsilon, Delta, Sensitivity}
	default:
		return nil
	}
}

// Accepts reports whether p is one of k's parameters.
func (k Kind) Accepts(p Param) bool {
	for _, q := range k.Params() {
		if q == p {
			return true
		}
	}
	return false
}

func (k Kind) IsDP() bool    { return k.Family() == FamilyDP }
func (k Kind) IsQuasi() bool { return k.Family() == FamilyQuasi }

// NeedsHierarchy reports whether the transformer needs a generalization
// hierarchy for fields using k.
func (k Kind) NeedsHierarchy() bool {
	switch k {
	case Quasi, QuasiKAnonymity, TClosHierarchical, Suppression, Generalization:
		return true
	}
	return false
}

// NeedsLevel reports whether k carries a generalization level.
func (k Kind) NeedsLevel() bool { return k.Family() == FamilyGeneralization }

// In reports whether k is part of set.
func (k Kind) In(set []Kind) bool {
	for _, s := range set {
		if s == k {
			return true
		}
	}
	return false
}

func (k Kind) String() string { return string(k) }

// IntegerParam reports whether p is truncated to an integer on finalize.
func IntegerParam(p Param) bool {
	switch p {
	case K, L, Level:
		return true
	}
	return false
}

// DPParams are the keys of a DP mechanism's metadata.
var DPParams = []Param{Epsilon, Delta, Sensitivity}

// PETParams are the keys a PET's metadata may hold.
var PETParams = []Param{K, L, C, T, Level}

// ParseParam validates a metadata key against allowed.
func ParseParam(s string, allowed []Param) (Param, error) {
	p := Param(strings.ToLower(strings.TrimSpace(s)))
	for _, a := range allowed {
		if a == p {
			return p, nil
		}
	}
	return "", errs.Invalid("parameter", "unknown parameter %q", s)
}
