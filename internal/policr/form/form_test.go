package form

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pp-cti/policr/internal/policr/errs"
	"github.com/pp-cti/policr/internal/policr/hierarchy"
	"github.com/pp-cti/policr/internal/policr/policy"
)

const flatEvent = `{"Event":{"Attribute":[{"object_relation":"age"},{"object_relation":"zip"},{"object_relation":"email"}]}}`

const nestedEvent = `{"Event":{"Object":[{"name":"person","Attribute":[
	{"object_relation":"age"},{"object_relation":"zip"},{"object_relation":"gender"}]}]}}`

func session(t *testing.T, ev string) *policy.Session {
	t.Helper()
	s := policy.NewSession(policy.Header{Creator: "cfg", Organization: "org", Version: "1"})
	s.NewID = func() string { return "pid" }
	require.NoError(t, s.LoadEvent("case.json", []byte(ev)))
	return s
}

func TestParsePolicy_UnknownKey(t *testing.T) {
	_, err := ParsePolicy([]byte("attributes:\n  - name: age\n    schema: quasi\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrFormat))

	f, err := ParsePolicy(nil)
	require.NoError(t, err)
	assert.Empty(t, f.Attributes)
}

func TestApplyPolicy_Flat(t *testing.T) {
	f, err := ParsePolicy([]byte(`
header:
  creator: analyst
attributes:
  - name: age
    scheme: quasi
    params: {k: 4}
  - name: zip
    scheme: dp laplace
    dp_params: {epsilon: 0.5, sensitivity: 1}
  - name: age
    scheme: pgp
`))
	require.NoError(t, err)

	s := session(t, flatEvent)
	warnings := ApplyPolicy(s, f)
	require.Len(t, warnings, 1)
	assert.Equal(t, "attributes[2]", warnings[0].Field)
	assert.Equal(t, "only 1 policy per attribute", warnings[0].Message)

	// the rejected duplicate leaves row 2 without a name
	_, _, err = s.Build()
	assert.True(t, errors.Is(err, errs.ErrValidation))

	s.Attributes, err = s.Attributes.RemoveAttribute(2)
	require.NoError(t, err)
	doc, _, err := s.Build()
	require.NoError(t, err)
	assert.Equal(t, "analyst", doc.PrivacyPolicy.Creator)
	assert.Equal(t, "org", doc.PrivacyPolicy.Organization)

	b, err := json.Marshal(doc.PrivacyPolicy.Attributes)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"name":"age","type":"","pets":[{"scheme":"quasi","metadata":{"k":4}}],"dp":false},
		{"name":"zip","type":"","pets":[],"dp":true,"dp-policy":{"scheme":"laplace",
		 "metadata":{"epsilon":0.5,"delta":0,"sensitivity":1,"lower":-999,"upper":999}}}
	]`, string(b))
}

func TestApplyPolicy_Templates(t *testing.T) {
	f, err := ParsePolicy([]byte(`
templates:
  - name: person
    k: 3
    dp: true
    dp_policy:
      attribute_names: [gender]
      scheme: gaussian
      params: {epsilon: 0.2}
    attributes:
      - name: age
        scheme: quasi
      - name: zip
        scheme: generalization
        params: {level: 2}
      - name: gender
        scheme: pgp
`))
	require.NoError(t, err)

	s := session(t, nestedEvent)
	warnings := ApplyPolicy(s, f)
	require.Len(t, warnings, 1, "gender is in the dp grouping")
	assert.Equal(t, "templates[0].attributes[2]", warnings[0].Field)

	s.Objects, err = s.Objects.RemoveAttribute(0, 2)
	require.NoError(t, err)
	doc, w, err := s.Build()
	require.NoError(t, err)
	assert.Empty(t, w)

	tpl := doc.PrivacyPolicy.Templates[0]
	assert.True(t, tpl.KAnonymity)
	assert.Equal(t, 3, tpl.K)
	assert.Equal(t, "quasi/k-anonymity", string(tpl.Attributes[0].PETs[0].Scheme))
	assert.Equal(t, 3.0, tpl.Attributes[0].PETs[0].Metadata["k"])
	require.NotNil(t, tpl.DPPolicy)
	assert.Equal(t, []string{"gender"}, tpl.DPPolicy.AttributeNames)
}

func TestApplyPolicy_KWithoutQuasi(t *testing.T) {
	f, err := ParsePolicy([]byte(`
templates:
  - name: person
    k: 3
    attributes:
      - name: age
        scheme: pgp
`))
	require.NoError(t, err)
	s := session(t, nestedEvent)
	warnings := ApplyPolicy(s, f)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "k ignored")
	assert.Equal(t, 0, s.Objects.Templates()[0].K)
}

func TestApplyPolicy_ModeMismatch(t *testing.T) {
	f := &PolicyForm{Templates: []Template{{Name: "person"}}}
	warnings := ApplyPolicy(session(t, flatEvent), f)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "templates ignored")
}

const builtPolicy = `{"Privacy-policy":{"attributes":[
	{"name":"age","pets":[{"scheme":"quasi","metadata":{}}],"dp":false},
	{"name":"zip","pets":[{"scheme":"suppression","metadata":{"level":1}}],"dp":false}],"templates":[]}}`

func TestApplyHierarchy(t *testing.T) {
	f, err := ParseHierarchy([]byte(`
attributes:
  - name: age
    type: static
    levels: ["a,b,c", "d,e"]
  - name: zip
    type: regex
    levels: ["x|y,z"]
  - name: email
    type: static
`))
	require.NoError(t, err)

	c, err := hierarchy.Load([]byte(builtPolicy))
	require.NoError(t, err)
	hf, warnings := ApplyHierarchy(hierarchy.NewForm(c), f)
	require.Len(t, warnings, 1, "email needs no hierarchy")

	hf, err = hf.RemoveEntry(hierarchy.Attr(2))
	require.NoError(t, err)
	doc, w, err := hf.Build(policy.Header{}, func() string { return "hid" })
	require.NoError(t, err)
	assert.Empty(t, w)

	b, err := json.Marshal(doc.HierarchyPolicy.Attributes)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"attribute-name":"age","attribute-type":"static","attribute-generalization":[
			{"generalization":["a","b","c"],"interval":[],"regex":[]},
			{"generalization":["d","e"],"interval":[],"regex":[]}]},
		{"attribute-name":"zip","attribute-type":"regex","attribute-generalization":[
			{"generalization":[],"interval":[],"regex":["x|y","z"]}]}
	]`, string(b))
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "form.yaml")
	require.NoError(t, os.WriteFile(p, []byte("objects:\n  - name: person\n"), 0o644))

	hf, err := LoadHierarchy(p)
	require.NoError(t, err)
	require.Len(t, hf.Objects, 1)

	_, err = LoadPolicy(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestOverlayHeader(t *testing.T) {
	base := policy.Header{Creator: "a", Organization: "b", Version: "1"}
	assert.Equal(t, base, OverlayHeader(base, nil))
	assert.Equal(t, policy.Header{Creator: "a", Organization: "x", Version: "1"},
		OverlayHeader(base, &policy.Header{Organization: "x"}))
}
