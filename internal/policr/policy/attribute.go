package policy

import (
	"fmt"

	"github.com/pp-cti/policr/internal/policr/errs"
	"github.com/pp-cti/policr/internal/policr/scheme"
)

// AttributeRow is the working state of one flat attribute.
type AttributeRow struct {
	Name     string
	PET      PET
	DP       bool
	DPParams DPParams
}

func newAttributeRow() AttributeRow {
	return AttributeRow{PET: defaultPET(), DPParams: defaultDPParams()}
}

func (r AttributeRow) clone() AttributeRow {
	return AttributeRow{Name: r.Name, PET: r.PET.clone(), DP: r.DP, DPParams: r.DPParams.clone()}
}

// AttributeForm is the working document of a flat event. Every operation
// returns a new form; the receiver is never modified. On error the returned
// form equals the receiver.
type AttributeForm struct {
	fields []string
	rows   []AttributeRow
}

// NewAttributeForm starts a form with one empty row. fields is the closed
// list of names a row may take.
func NewAttributeForm(fields []string) AttributeForm {
	f := make([]string, len(fields))
	copy(f, fields)
	return AttributeForm{fields: f, rows: []AttributeRow{newAttributeRow()}}
}

func (f AttributeForm) clone() AttributeForm {
	rows := make([]AttributeRow, len(f.rows))
	for i, r := range f.rows {
		rows[i] = r.clone()
	}
	return AttributeForm{fields: f.fields, rows: rows}
}

// WithFields keeps the rows and swaps the list of selectable names.
func (f AttributeForm) WithFields(fields []string) AttributeForm {
	out := f.clone()
	out.fields = make([]string, len(fields))
	copy(out.fields, fields)
	return out
}

// Fields returns the selectable names.
func (f AttributeForm) Fields() []string {
	out := make([]string, len(f.fields))
	copy(out, f.fields)
	return out
}

// Rows returns a copy of the working rows.
func (f AttributeForm) Rows() []AttributeRow { return f.clone().rows }

func (f AttributeForm) Len() int { return len(f.rows) }

func (f AttributeForm) row(i int) error {
	if i < 0 || i >= len(f.rows) {
		return errs.Invalid(rowField(i), "no such attribute row")
	}
	return nil
}

func rowField(i int) string { return fmt.Sprintf("attributes[%d]", i) }

func (f AttributeForm) AddAttribute() AttributeForm {
	out := f.clone()
	out.rows = append(out.rows, newAttributeRow())
	return out
}

// RemoveAttribute drops row i. The last remaining row is never removed.
func (f AttributeForm) RemoveAttribute(i int) (AttributeForm, error) {
	if err := f.row(i); err != nil {
		return f, err
	}
	if len(f.rows) == 1 {
		return f, nil
	}
	out := f.clone()
	out.rows = append(out.rows[:i], out.rows[i+1:]...)
	return out, nil
}

// SetName assigns a field name to row i and resets its technique.
func (f AttributeForm) SetName(i int, name string) (AttributeForm, error) {
	if err := f.row(i); err != nil {
		return f, err
	}
	for j, r := range f.rows {
		if j != i && r.Name == name {
			return f, errs.Invalid(rowField(i), "only 1 policy per attribute")
		}
	}
	if !containsName(f.fields, name) {
		return f, errs.Invalid(rowField(i), "%q is not an attribute of the event", name)
	}
	out := f.clone()
	out.rows[i].Name = name
	out.rows[i].PET = defaultPET()
	return out, nil
}

// SetScheme selects the technique of row i. DP kinds switch the row into DP
// mode; any other kind switches it back.
func (f AttributeForm) SetScheme(i int, raw string) (AttributeForm, error) {
	if err := f.row(i); err != nil {
		return f, err
	}
	k, err := scheme.Parse(raw)
	if err != nil {
		return f, err
	}
	if !k.In(scheme.AttributeSchemes) {
		return f, errs.Invalid(rowField(i), "technique %q is not available for attributes", k)
	}
	out := f.clone()
	r := &out.rows[i]
	if k.IsDP() {
		r.DP = true
		r.PET = defaultPET()
		r.DPParams.Scheme = k
		return out, nil
	}
	r.DP = false
	r.DPParams = defaultDPParams()
	r.PET = PET{Scheme: k, Metadata: Metadata{}}
	return out, nil
}

// SetParameter stores a PET parameter of row i.
func (f AttributeForm) SetParameter(i int, key, raw string) (AttributeForm, error) {
	if err := f.row(i); err != nil {
		return f, err
	}
	p, err := scheme.ParseParam(key, scheme.PETParams)
	if err != nil {
		return f, err
	}
	r := f.rows[i]
	if r.DP || !r.PET.Scheme.Accepts(p) {
		return f, errs.Invalid(rowField(i), "technique %q takes no %s", r.PET.Scheme, p)
	}
	v, err := parseNumber(rowField(i), p, raw)
	if err != nil {
		return f, err
	}
	out := f.clone()
	out.rows[i].PET.Metadata[string(p)] = v
	return out, nil
}

// SetDPParameter stores a DP mechanism parameter of row i.
func (f AttributeForm) SetDPParameter(i int, key, raw string) (AttributeForm, error) {
	if err := f.row(i); err != nil {
		return f, err
	}
	p, err := scheme.ParseParam(key, scheme.DPParams)
	if err != nil {
		return f, err
	}
	r := f.rows[i]
	if !r.DP {
		return f, errs.Invalid(rowField(i), "attribute is not in dp mode")
	}
	if !r.DPParams.Scheme.Accepts(p) {
		return f, errs.Invalid(rowField(i), "mechanism %q takes no %s", r.DPParams.Scheme, p)
	}
	v, err := parseNumber(rowField(i), p, raw)
	if err != nil {
		return f, err
	}
	out := f.clone()
	out.rows[i].DPParams.Metadata[string(p)] = v
	return out, nil
}

// Build finalizes the rows into attribute specs in row order.
func (f AttributeForm) Build() ([]AttributeSpec, error) {
	specs := make([]AttributeSpec, 0, len(f.rows))
	for i, r := range f.rows {
		switch {
		case r.Name == "":
			return nil, errs.Invalid(rowField(i), "attribute name cannot be None")
		case !r.DP && r.PET.Scheme == scheme.None:
			return nil, errs.Invalid(rowField(i), "attribute technique cannot be None")
		case r.DP && r.DPParams.Scheme == scheme.None:
			return nil, errs.Invalid(rowField(i), "attribute dp technique cannot be None")
		}
		dp := DPParams{Scheme: r.DPParams.Scheme, Metadata: r.DPParams.Metadata.clone()}
		specs = append(specs, AttributeSpec{
			Name:     r.Name,
			PETs:     []PET{{Scheme: r.PET.Scheme, Metadata: finalizeMetadata(r.PET.Metadata)}},
			DP:       r.DP,
			DPPolicy: &dp,
		})
	}
	return sanitizeAttributes(specs), nil
}
