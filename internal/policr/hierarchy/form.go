package hierarchy

import (
	"fmt"

	"github.com/pp-cti/policr/internal/policr/errs"
	"github.com/pp-cti/policr/internal/policr/event"
)

// Flat addresses the entries of a flat policy in a Ref.
const Flat = -1

// Ref addresses one entry. Object is Flat for attribute entries, otherwise
// the index of the object row.
type Ref struct {
	Object int
	Entry  int
}

func Attr(i int) Ref { return Ref{Object: Flat, Entry: i} }

func ObjAttr(o, i int) Ref { return Ref{Object: o, Entry: i} }

func (r Ref) String() string {
	if r.Object == Flat {
		return fmt.Sprintf("hierarchy_attributes[%d]", r.Entry)
	}
	return fmt.Sprintf("hierarchy_objects[%d].attribute-hierarchies[%d]", r.Object, r.Entry)
}

func objectField(o int) string { return fmt.Sprintf("hierarchy_objects[%d]", o) }

// EntryRow is the working state of one field hierarchy. Raw holds the
// comma-separated levels as typed.
type EntryRow struct {
	Name string
	Type Type
	Raw  []string
}

func newEntryRow() EntryRow { return EntryRow{Type: TypeNone, Raw: []string{""}} }

func (e EntryRow) clone() EntryRow {
	raw := make([]string, len(e.Raw))
	copy(raw, e.Raw)
	return EntryRow{Name: e.Name, Type: e.Type, Raw: raw}
}

// ObjectRow groups the entries of one object template.
type ObjectRow struct {
	Name    string
	Entries []EntryRow
}

func newObjectRow() ObjectRow { return ObjectRow{Entries: []EntryRow{newEntryRow()}} }

func (o ObjectRow) clone() ObjectRow {
	entries := make([]EntryRow, len(o.Entries))
	for i, e := range o.Entries {
		entries[i] = e.clone()
	}
	return ObjectRow{Name: o.Name, Entries: entries}
}

// Form is the working hierarchy document for one privacy policy. Operations
// return a new Form; on error the receiver is returned unchanged.
type Form struct {
	cands   Candidates
	entries []EntryRow
	objects []ObjectRow
}

// NewForm starts a form over the candidates with one empty row.
func NewForm(c *Candidates) Form {
	f := Form{cands: *c}
	if c.Mode == event.ModeNested {
		f.objects = []ObjectRow{newObjectRow()}
	} else {
		f.entries = []EntryRow{newEntryRow()}
	}
	return f
}

func (f Form) clone() Form {
	out := Form{cands: f.cands}
	if f.entries != nil {
		out.entries = make([]EntryRow, len(f.entries))
		for i, e := range f.entries {
			out.entries[i] = e.clone()
		}
	}
	if f.objects != nil {
		out.objects = make([]ObjectRow, len(f.objects))
		for i, o := range f.objects {
			out.objects[i] = o.clone()
		}
	}
	return out
}

func (f Form) Mode() event.Mode { return f.cands.Mode }

func (f Form) Candidates() Candidates { return f.cands }

// Entries returns a copy of the flat entries.
func (f Form) Entries() []EntryRow { return f.clone().entries }

// Objects returns a copy of the object rows.
func (f Form) Objects() []ObjectRow { return f.clone().objects }

// list returns the entry slice a Ref points into.
func (f *Form) list(object int) (*[]EntryRow, error) {
	if object == Flat {
		if f.cands.Mode != event.ModeFlat {
			return nil, errs.Invalid("hierarchy_attributes", "policy has no flat attributes")
		}
		return &f.entries, nil
	}
	if object < 0 || object >= len(f.objects) {
		return nil, errs.Invalid(objectField(object), "no such object")
	}
	return &f.objects[object].Entries, nil
}

// edit applies fn to the entry at r in a copy of f.
func (f Form) edit(r Ref, fn func(out *Form, e *EntryRow) error) (Form, error) {
	out := f.clone()
	list, err := out.list(r.Object)
	if err != nil {
		return f, err
	}
	if r.Entry < 0 || r.Entry >= len(*list) {
		return f, errs.Invalid(r.String(), "no such entry")
	}
	if err := fn(&out, &(*list)[r.Entry]); err != nil {
		return f, err
	}
	return out, nil
}

// AddEntry appends an empty entry to the flat list or to object o.
func (f Form) AddEntry(object int) (Form, error) {
	out := f.clone()
	list, err := out.list(object)
	if err != nil {
		return f, err
	}
	*list = append(*list, newEntryRow())
	return out, nil
}

// RemoveEntry drops the entry at r. The last entry of a list is kept.
func (f Form) RemoveEntry(r Ref) (Form, error) {
	out := f.clone()
	list, err := out.list(r.Object)
	if err != nil {
		return f, err
	}
	if r.Entry < 0 || r.Entry >= len(*list) {
		return f, errs.Invalid(r.String(), "no such entry")
	}
	if len(*list) == 1 {
		return f, nil
	}
	*list = append((*list)[:r.Entry], (*list)[r.Entry+1:]...)
	return out, nil
}

// SetName picks the field an entry describes. The name must be a candidate
// and not used by a sibling entry.
func (f Form) SetName(r Ref, name string) (Form, error) {
	return f.edit(r, func(out *Form, e *EntryRow) error {
		list, _ := out.list(r.Object)
		for i, sib := range *list {
			if i != r.Entry && sib.Name == name {
				return errs.Invalid(r.String(), "only 1 hierarchy per attribute")
			}
		}
		if r.Object == Flat {
			if _, ok := out.cands.Attribute(name); !ok {
				return errs.Invalid(r.String(), "%q does not need a hierarchy", name)
			}
		} else {
			oc, _ := out.cands.Object(out.objects[r.Object].Name)
			found := false
			for _, a := range oc.Attributes {
				if a.Name == name {
					found = true
					break
				}
			}
			if !found {
				return errs.Invalid(r.String(), "%q does not need a hierarchy in object %q", name, oc.Name)
			}
		}
		e.Name = name
		return nil
	})
}

func (f Form) SetType(r Ref, raw string) (Form, error) {
	t, err := ParseType(raw)
	if err != nil {
		return f, err
	}
	return f.edit(r, func(_ *Form, e *EntryRow) error {
		e.Type = t
		return nil
	})
}

// SetHierarchy replaces raw level h of the entry.
func (f Form) SetHierarchy(r Ref, h int, raw string) (Form, error) {
	return f.edit(r, func(_ *Form, e *EntryRow) error {
		if h < 0 || h >= len(e.Raw) {
			return errs.Invalid(r.String(), "no hierarchy level %d", h)
		}
		e.Raw[h] = raw
		return nil
	})
}

// InsertHierarchy adds an empty level right after position h. h = -1
// inserts at the front.
func (f Form) InsertHierarchy(r Ref, h int) (Form, error) {
	return f.edit(r, func(_ *Form, e *EntryRow) error {
		if h < -1 || h >= len(e.Raw) {
			return errs.Invalid(r.String(), "no hierarchy level %d", h)
		}
		raw := make([]string, 0, len(e.Raw)+1)
		raw = append(raw, e.Raw[:h+1]...)
		raw = append(raw, "")
		raw = append(raw, e.Raw[h+1:]...)
		e.Raw = raw
		return nil
	})
}

// RemoveHierarchy drops level h. The last level is kept.
func (f Form) RemoveHierarchy(r Ref, h int) (Form, error) {
	return f.edit(r, func(_ *Form, e *EntryRow) error {
		if h < 0 || h >= len(e.Raw) {
			return errs.Invalid(r.String(), "no hierarchy level %d", h)
		}
		if len(e.Raw) == 1 {
			return nil
		}
		e.Raw = append(e.Raw[:h], e.Raw[h+1:]...)
		return nil
	})
}

func (f Form) AddObject() (Form, error) {
	if f.cands.Mode != event.ModeNested {
		return f, errs.Invalid("hierarchy_objects", "policy has no templates")
	}
	out := f.clone()
	out.objects = append(out.objects, newObjectRow())
	return out, nil
}

// RemoveObject drops object row o, keeping at least one.
func (f Form) RemoveObject(o int) (Form, error) {
	if o < 0 || o >= len(f.objects) {
		return f, errs.Invalid(objectField(o), "no such object")
	}
	if len(f.objects) == 1 {
		return f, nil
	}
	out := f.clone()
	out.objects = append(out.objects[:o], out.objects[o+1:]...)
	return out, nil
}

// SetObjectName binds object row o to a template and clears its entries.
func (f Form) SetObjectName(o int, name string) (Form, error) {
	if o < 0 || o >= len(f.objects) {
		return f, errs.Invalid(objectField(o), "no such object")
	}
	for i, obj := range f.objects {
		if i != o && obj.Name == name {
			return f, errs.Invalid(objectField(o), "only 1 hierarchy per object")
		}
	}
	if _, ok := f.cands.Object(name); !ok {
		return f, errs.Invalid(objectField(o), "%q has no attribute that needs a hierarchy", name)
	}
	out := f.clone()
	row := newObjectRow()
	row.Name = name
	out.objects[o] = row
	return out, nil
}
