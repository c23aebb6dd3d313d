package hierarchy

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pp-cti/policr/internal/policr/errs"
	"github.com/pp-cti/policr/internal/policr/event"
	"github.com/pp-cti/policr/internal/policr/policy"
	"github.com/pp-cti/policr/internal/policr/scheme"
)

const flatPolicy = `{"Privacy-policy":{"creator":"a","organization":"b","version":"1","uuid":"u",
	"attributes":[
		{"name":"age","type":"","pets":[{"scheme":"quasi","metadata":{"k":3}}],"dp":false},
		{"name":"zip","type":"","pets":[{"scheme":"generalization","metadata":{"level":2}}],"dp":false},
		{"name":"email","type":"","pets":[{"scheme":"pgp","metadata":{}}],"dp":false},
		{"name":"income","type":"","pets":[],"dp":true,"dp-policy":{"scheme":"laplace","metadata":{}}}
	],"templates":[]}}`

const nestedPolicy = `{"Privacy-policy":{"attributes":[],"templates":[
	{"name":"person","dp":false,"k-anonymity":true,"k":2,"k-map":false,"attributes":[
		{"name":"age","type":"","pets":[{"scheme":"quasi/k-anonymity","metadata":{"k":2}}]},
		{"name":"gender","type":"","pets":[{"scheme":"pgp","metadata":{}}]}]},
	{"name":"file","dp":false,"k-anonymity":false,"k":0,"k-map":false,"attributes":[
		{"name":"md5","type":"","pets":[{"scheme":"pgp","metadata":{}}]}]}
]}}`

var header = policy.Header{Creator: "analyst", Organization: "cert", Version: "1"}

func fixedID() string { return "hid" }

type stepper struct{ t *testing.T }

func (s stepper) do(f Form, err error) Form {
	s.t.Helper()
	require.NoError(s.t, err)
	return f
}

func TestLoadCandidates(t *testing.T) {
	c, err := Load([]byte(flatPolicy))
	require.NoError(t, err)
	assert.Equal(t, event.ModeFlat, c.Mode)
	assert.Equal(t, []Candidate{
		{Name: "age", Scheme: scheme.Quasi},
		{Name: "zip", Scheme: scheme.Generalization, Level: 2},
	}, c.Attributes)

	c, err = Load([]byte(nestedPolicy))
	require.NoError(t, err)
	assert.Equal(t, event.ModeNested, c.Mode)
	assert.Equal(t, []ObjectCandidate{
		{Name: "person", Attributes: []Candidate{{Name: "age", Scheme: scheme.QuasiKAnonymity}}},
	}, c.Objects)
}

func TestLoadFormatErrors(t *testing.T) {
	for _, data := range []string{`nope`, `{"Event":{}}`} {
		_, err := Load([]byte(data))
		require.Error(t, err)
		assert.True(t, errors.Is(err, errs.ErrFormat))
	}
}

func flatForm(t *testing.T) Form {
	t.Helper()
	c, err := Load([]byte(flatPolicy))
	require.NoError(t, err)
	return NewForm(c)
}

func generalizations(t *testing.T, doc *Document) string {
	t.Helper()
	b, err := json.Marshal(doc.HierarchyPolicy.Attributes[0].AttributeGeneralization)
	require.NoError(t, err)
	return string(b)
}

func TestBuild_StaticRoundTrip(t *testing.T) {
	s := stepper{t}
	f := flatForm(t)
	f = s.do(f.SetName(Attr(0), "age"))
	f = s.do(f.SetType(Attr(0), "static"))
	f = s.do(f.SetHierarchy(Attr(0), 0, "a,b,c"))
	f = s.do(f.InsertHierarchy(Attr(0), 0))
	f = s.do(f.SetHierarchy(Attr(0), 1, "d,e"))

	doc, warnings, err := f.Build(header, fixedID)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.JSONEq(t, `[
		{"generalization":["a","b","c"],"interval":[],"regex":[]},
		{"generalization":["d","e"],"interval":[],"regex":[]}
	]`, generalizations(t, doc))
	assert.Equal(t, Description, doc.HierarchyPolicy.Description)
	assert.Equal(t, "hid", doc.HierarchyPolicy.UUID)
	assert.Empty(t, doc.HierarchyPolicy.Objects)
}

func TestBuild_RegexUsesFirstLevelOnly(t *testing.T) {
	s := stepper{t}
	f := flatForm(t)
	f = s.do(f.SetName(Attr(0), "age"))
	f = s.do(f.SetType(Attr(0), "regex"))
	f = s.do(f.SetHierarchy(Attr(0), 0, "x|y,z"))
	f = s.do(f.InsertHierarchy(Attr(0), 0))
	f = s.do(f.SetHierarchy(Attr(0), 1, "ignored"))

	doc, warnings, err := f.Build(header, fixedID)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.JSONEq(t, `[{"generalization":[],"interval":[],"regex":["x|y","z"]}]`, generalizations(t, doc))
}

func TestBuild_IntervalKeepsRawValues(t *testing.T) {
	s := stepper{t}
	f := flatForm(t)
	f = s.do(f.SetName(Attr(0), "zip"))
	f = s.do(f.SetType(Attr(0), "interval"))
	f = s.do(f.SetHierarchy(Attr(0), 0, "0-10, 10-20"))

	doc, _, err := f.Build(header, fixedID)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"generalization":[],"interval":["0-10"," 10-20"],"regex":[]}]`, generalizations(t, doc))
}

func TestBuild_BadRegexWarns(t *testing.T) {
	s := stepper{t}
	f := flatForm(t)
	f = s.do(f.SetName(Attr(0), "age"))
	f = s.do(f.SetType(Attr(0), "regex"))
	f = s.do(f.SetHierarchy(Attr(0), 0, "(open,ok"))

	doc, warnings, err := f.Build(header, fixedID)
	require.NoError(t, err)
	require.NotNil(t, doc)
	require.Len(t, warnings, 1)
	assert.Equal(t, "hierarchy_attributes[0]", warnings[0].Field)
}

func TestBuild_NoneTypeAborts(t *testing.T) {
	s := stepper{t}
	f := flatForm(t)
	f = s.do(f.SetName(Attr(0), "age"))
	f = s.do(f.SetType(Attr(0), "static"))
	f = s.do(f.AddEntry(Flat))
	f = s.do(f.SetName(Attr(1), "zip"))
	f = s.do(f.SetType(Attr(1), "None"))
	before := f.Entries()

	doc, _, err := f.Build(header, fixedID)
	assert.Nil(t, doc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrValidation))
	assert.Contains(t, err.Error(), "hierarchy type cannot be none")
	assert.Equal(t, before, f.Entries())
}

func TestForm_NameRules(t *testing.T) {
	s := stepper{t}
	f := flatForm(t)
	f = s.do(f.SetName(Attr(0), "age"))
	f = s.do(f.AddEntry(Flat))

	tests := []struct {
		name  string
		value string
	}{
		{"duplicate", "age"},
		{"no hierarchy needed", "email"},
		{"unknown", "ssn"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.SetName(Attr(1), tt.value)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errs.ErrValidation))
			assert.Equal(t, f.Entries(), got.Entries())
		})
	}

	_, err := f.SetType(Attr(0), "tree")
	assert.True(t, errors.Is(err, errs.ErrValidation))
}

func TestForm_HierarchyLevels(t *testing.T) {
	s := stepper{t}
	f := flatForm(t)
	f = s.do(f.SetHierarchy(Attr(0), 0, "a"))
	f = s.do(f.InsertHierarchy(Attr(0), 0))
	f = s.do(f.SetHierarchy(Attr(0), 1, "c"))
	f = s.do(f.InsertHierarchy(Attr(0), 0))
	f = s.do(f.SetHierarchy(Attr(0), 1, "b"))
	assert.Equal(t, []string{"a", "b", "c"}, f.Entries()[0].Raw)

	f = s.do(f.RemoveHierarchy(Attr(0), 1))
	assert.Equal(t, []string{"a", "c"}, f.Entries()[0].Raw)

	f = s.do(f.RemoveHierarchy(Attr(0), 0))
	f = s.do(f.RemoveHierarchy(Attr(0), 0))
	assert.Equal(t, []string{"c"}, f.Entries()[0].Raw)

	_, err := f.SetHierarchy(Attr(0), 5, "x")
	assert.True(t, errors.Is(err, errs.ErrValidation))
}

func TestBuild_Objects(t *testing.T) {
	s := stepper{t}
	c, err := Load([]byte(nestedPolicy))
	require.NoError(t, err)
	f := NewForm(c)

	_, err = f.AddEntry(Flat)
	assert.True(t, errors.Is(err, errs.ErrValidation))
	_, err = f.SetObjectName(0, "file")
	assert.True(t, errors.Is(err, errs.ErrValidation), "file has no candidate attributes")

	f = s.do(f.SetObjectName(0, "person"))
	f = s.do(f.SetName(ObjAttr(0, 0), "age"))
	f = s.do(f.SetType(ObjAttr(0, 0), "static"))
	f = s.do(f.SetHierarchy(ObjAttr(0, 0), 0, "10-19,20-29"))
	f = s.do(f.AddEntry(0))

	_, err = f.SetName(ObjAttr(0, 1), "gender")
	assert.True(t, errors.Is(err, errs.ErrValidation))

	doc, _, err := f.Build(header, fixedID)
	require.NoError(t, err)
	b, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Hierarchy-policy":{
		"hierarchy-description":"This hierarchy policy was generated with PP-CTI's frontend.",
		"creator":"analyst","organization":"cert","version":"1","uuid":"hid",
		"hierarchy_attributes":[],
		"hierarchy_objects":[{"misp-object-template":"person","attribute-hierarchies":[
			{"attribute-name":"age","attribute-type":"static",
			 "attribute-generalization":[{"generalization":["10-19","20-29"],"interval":[],"regex":[]}]}
		]}]
	}}`, string(b))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		sentinel error
	}{
		{"flat ok", `{"Hierarchy-policy":{"hierarchy_attributes":[{"attribute-name":"age","attribute-type":"static",
			"attribute-generalization":[{"generalization":["a"],"interval":[],"regex":[]}]}],"hierarchy_objects":[]}}`, nil},
		{"missing key", `{"Privacy-policy":{}}`, errs.ErrFormat},
		{"none type", `{"Hierarchy-policy":{"hierarchy_attributes":[{"attribute-name":"age","attribute-type":"None",
			"attribute-generalization":[{"generalization":["a"],"interval":[],"regex":[]}]}]}}`, errs.ErrValidation},
		{"wrong array", `{"Hierarchy-policy":{"hierarchy_attributes":[{"attribute-name":"age","attribute-type":"regex",
			"attribute-generalization":[{"generalization":["a"],"interval":[],"regex":[]}]}]}}`, errs.ErrValidation},
		{"bad regex", `{"Hierarchy-policy":{"hierarchy_attributes":[{"attribute-name":"age","attribute-type":"regex",
			"attribute-generalization":[{"generalization":[],"interval":[],"regex":["("]}]}]}}`, errs.ErrValidation},
		{"both empty", `{"Hierarchy-policy":{"hierarchy_attributes":[],"hierarchy_objects":[]}}`, errs.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(strings.NewReader(tt.doc))
			if tt.sentinel == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel), err.Error())
		})
	}
}
