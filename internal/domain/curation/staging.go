package curation

// Staging is the transient multi-select buffer of candidate ids awaiting
// bulk assignment. It keeps selection order. The zero value is empty and
// ready to use; a Staging belongs to exactly one session.
type Staging struct {
	ids []string
	set map[string]struct{}
}

// Has reports whether id is staged.
func (st *Staging) Has(id string) bool {
	_, ok := st.set[id]
	return ok
}

// Add stages id. Adding a staged id is a no-op.
func (st *Staging) Add(id string) {
	if st.Has(id) {
		return
	}
	if st.set == nil {
		st.set = make(map[string]struct{})
	}
	st.set[id] = struct{}{}
	st.ids = append(st.ids, id)
}

// Remove unstages id.
func (st *Staging) Remove(id string) {
	if !st.Has(id) {
		return
	}
	delete(st.set, id)
	st.ids = without(st.ids, id)
}

// Toggle flips id's selection and reports whether it is now staged.
func (st *Staging) Toggle(id string) bool {
	if st.Has(id) {
		st.Remove(id)
		return false
	}
	st.Add(id)
	return true
}

// IDs returns the staged ids in selection order.
func (st *Staging) IDs() []string {
	return append([]string(nil), st.ids...)
}

// Len returns the number of staged ids.
func (st *Staging) Len() int { return len(st.ids) }

// Clear empties the selection.
func (st *Staging) Clear() {
	st.ids = nil
	st.set = nil
}
