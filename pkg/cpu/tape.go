package cpu

// Tape is the growable byte memory. It starts empty and grows to the right
// with zero cells on first access; it never shrinks.
type Tape struct {
	cells []byte
}

// Cell grows the tape until position p exists and returns a pointer to it.
func (t *Tape) Cell(p int) *byte {
	if p >= len(t.cells) {
		grow := p + 1 - len(t.cells)
		t.cells = append(t.cells, make([]byte, grow)...)
	}
	return &t.cells[p]
}

// At reads position p. Unvisited positions read as zero.
func (t *Tape) At(p int) byte {
	if p < 0 || p >= len(t.cells) {
		return 0
	}
	return t.cells[p]
}

func (t *Tape) Len() int {
	return len(t.cells)
}

// Bytes returns a copy of the cells touched so far.
func (t *Tape) Bytes() []byte {
	out := make([]byte, len(t.cells))
	copy(out, t.cells)
	return out
}
