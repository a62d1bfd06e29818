// Package ordering implements drag-and-drop reordering of group sequences.
package ordering

// Reorder moves source to the position currently held by target and returns
// the new sequence. Every other element keeps its relative order. The input
// slice is never modified. When source equals target, or either id is not
// in seq, the result is an unchanged copy.
func Reorder(seq []string, source, target string) []string {
	out := append([]string(nil), seq...)
	if source == target {
		return out
	}
	from, to := indexOf(seq, source), indexOf(seq, target)
	if from < 0 || to < 0 {
		return out
	}

	out = append(out[:from], out[from+1:]...)
	out = append(out, "")
	copy(out[to+1:], out[to:])
	out[to] = source
	return out
}

// Positions maps each id to its zero-based index in seq. Order indices are
// always derived from position, never accumulated across moves.
func Positions(seq []string) map[string]int {
	pos := make(map[string]int, len(seq))
	for i, id := range seq {
		pos[id] = i
	}
	return pos
}

func indexOf(seq []string, id string) int {
	for i, s := range seq {
		if s == id {
			return i
		}
	}
	return -1
}
