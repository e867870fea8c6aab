/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package typedmodels

// AdminFields returns the editable fields of n for an edit form. The type column is only
// editable on the root; every other class already implies its type.
func AdminFields(n *Node) []string {
	var out []string
	for _, f := range n.Fields() {
		if f.Primary {
			continue
		}
		if f.Name == TypeField && !n.IsRoot() {
			continue
		}
		out = append(out, f.Name)
	}
	for _, f := range n.ManyToMany() {
		out = append(out, f.Name)
	}
	return out
}

// AdminPrepare types a record built from an edit form before it is saved. Blank instances of
// the root carry no type yet; they take the one submitted with the form.
func AdminPrepare(r *Record, formType string) error {
	if r.Type() == "" && formType != "" {
		if err := r.RecastTo(formType); err != nil {
			return err
		}
	}
	return r.CheckSave()
}
