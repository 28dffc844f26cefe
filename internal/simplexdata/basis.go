// Package simplexdata holds component D of the solver core: the basis
// (which columns/rows are basic and how nonbasics are positioned), the
// lifecycle stage that governs which derived state is trustworthy, and
// the simplex work arrays the engine reads and writes every iteration.
package simplexdata

import "github.com/pkg/errors"

// VarStatus is the status of a structural or slack variable, mirroring
// HEkk's HighsBasisStatus / nonbasic flag + move pair collapsed into one
// enum for Go ergonomics.
type VarStatus int

const (
	Lower VarStatus = iota
	Upper
	Zero
	Basic
	NonbasicFree
)

func (s VarStatus) String() string {
	switch s {
	case Lower:
		return "Lower"
	case Upper:
		return "Upper"
	case Zero:
		return "Zero"
	case Basic:
		return "Basic"
	case NonbasicFree:
		return "NonbasicFree"
	default:
		return "Unknown"
	}
}

// Move is the direction a nonbasic variable travels when it next enters
// the basis, used to seed CHUZC's ratio-test sign.
type Move int

const (
	MoveUp   Move = 1
	MoveDown Move = -1
	MoveNone Move = 0
)

// Basis is component D's basis record. Variables are indexed 0..NumCol-1
// for structurals and NumCol..NumCol+NumRow-1 for row slacks, following
// HEkk's convention of a single combined index space.
type Basis struct {
	NumCol int
	NumRow int

	// NonbasicFlag[v] is true when variable v is nonbasic.
	NonbasicFlag []bool
	// NonbasicMove[v] is the ratio-test travel direction for nonbasic v.
	NonbasicMove []Move
	// BasicIndex[i] is the variable occupying basic row i.
	BasicIndex []int
	// Status[v] is the display/bound status of variable v.
	Status []VarStatus

	Valid bool
}

// New returns the logical (slack) basis: every row's slack basic, every
// structural nonbasic with status Lower and move MoveUp, whatever its
// bounds (the engine's initWorkArrays then re-derives the status of each
// nonbasic from its actual bounds).
func New(numRow, numCol int) *Basis {
	b := &Basis{
		NumCol:       numCol,
		NumRow:       numRow,
		NonbasicFlag: make([]bool, numCol+numRow),
		NonbasicMove: make([]Move, numCol+numRow),
		BasicIndex:   make([]int, numRow),
		Status:       make([]VarStatus, numCol+numRow),
	}
	for j := 0; j < numCol; j++ {
		b.NonbasicFlag[j] = true
		b.Status[j] = Lower
		b.NonbasicMove[j] = MoveUp
	}
	for i := 0; i < numRow; i++ {
		v := numCol + i
		b.BasicIndex[i] = v
		b.Status[v] = Basic
	}
	b.Valid = true
	return b
}

// NumTot is the combined structural+slack variable count.
func (b *Basis) NumTot() int { return b.NumCol + b.NumRow }

// IsBasic reports whether variable v currently occupies a basic slot.
func (b *Basis) IsBasic(v int) bool { return !b.NonbasicFlag[v] }

// AppendCols extends the basis for n newly added, nonbasic-at-lower
// structural columns (spec.md 4.G: "append nonbasic structurals").
func (b *Basis) AppendCols(n int) {
	oldCol := b.NumCol
	for i := 0; i < n; i++ {
		b.NonbasicFlag = append(b.NonbasicFlag, true)
		b.NonbasicMove = append(b.NonbasicMove, MoveUp)
		b.Status = append(b.Status, Lower)
	}
	b.NumCol += n
	b.renumberSlacks(oldCol)
}

// AppendRows extends the basis for n newly added rows, whose slacks enter
// basic (spec.md 4.G: "append ... basic logicals").
func (b *Basis) AppendRows(n int) {
	base := b.NumCol + b.NumRow
	for i := 0; i < n; i++ {
		v := base + i
		b.NonbasicFlag = append(b.NonbasicFlag, false)
		b.NonbasicMove = append(b.NonbasicMove, MoveNone)
		b.Status = append(b.Status, Basic)
		b.BasicIndex = append(b.BasicIndex, v)
	}
	b.NumRow += n
}

// renumberSlacks repairs BasicIndex/variable numbering after NumCol grows
// from oldCol, since slack v = NumCol+i shifts when structural columns are
// appended (new columns go after existing structurals but before any
// slack, so existing slack entries and indices must shift up by n).
func (b *Basis) renumberSlacks(oldCol int) {
	n := b.NumCol - oldCol
	for k := len(b.Status) - 1; k >= b.NumCol; k-- {
		b.NonbasicFlag[k] = b.NonbasicFlag[k-n]
		b.NonbasicMove[k] = b.NonbasicMove[k-n]
		b.Status[k] = b.Status[k-n]
	}
	for k := oldCol; k < b.NumCol; k++ {
		b.NonbasicFlag[k], b.NonbasicMove[k], b.Status[k] = true, MoveUp, Lower
	}
	for i, v := range b.BasicIndex {
		if v >= oldCol {
			b.BasicIndex[i] = v + n
		}
	}
}

// DeleteCols removes structural columns per remap (old index -> new
// index, or -1 for deleted), requiring that no deleted column is
// currently basic (spec.md 4.G: caller must eject from basis first).
func (b *Basis) DeleteCols(remap []int) error {
	for v, r := range remap {
		if r == -1 && b.IsBasic(v) {
			return errors.Errorf("simplexdata: cannot delete basic column %d", v)
		}
	}
	newCol := 0
	newFlag := make([]bool, 0, len(remap))
	newMove := make([]Move, 0, len(remap))
	newStatus := make([]VarStatus, 0, len(remap))
	for v, r := range remap {
		if r == -1 {
			continue
		}
		newCol++
		newFlag = append(newFlag, b.NonbasicFlag[v])
		newMove = append(newMove, b.NonbasicMove[v])
		newStatus = append(newStatus, b.Status[v])
	}
	// Append the untouched slack block.
	for i := 0; i < b.NumRow; i++ {
		v := len(remap) + i
		newFlag = append(newFlag, b.NonbasicFlag[v])
		newMove = append(newMove, b.NonbasicMove[v])
		newStatus = append(newStatus, b.Status[v])
	}
	for i, v := range b.BasicIndex {
		if v < len(remap) {
			b.BasicIndex[i] = remap[v]
		} else {
			b.BasicIndex[i] = newCol + (v - len(remap))
		}
	}
	b.NonbasicFlag = newFlag
	b.NonbasicMove = newMove
	b.Status = newStatus
	b.NumCol = newCol
	return nil
}

// DeleteRows removes rows per remap. The cheap incremental path applies
// only when every deleted row is currently non-tight, i.e. its own slack
// occupies that row's basic slot (BasicIndex[i] == NumCol+i): the basic
// slot is simply dropped and the rest remapped. If any deleted row is
// tight (its slack nonbasic, some other variable holding that basic
// slot), there is no single variable to evict without a resolve, so the
// basis is invalidated per spec.md 4.G: it is reset to the logical
// (all-slack) basis at the reduced row count and Valid is cleared to
// signal the reset to whoever reuses it next (see Engine.resizeData).
func (b *Basis) DeleteRows(remap []int) error {
	for i, r := range remap {
		if r == -1 && b.BasicIndex[i] != b.NumCol+i {
			newNumRow := 0
			for _, r2 := range remap {
				if r2 != -1 {
					newNumRow++
				}
			}
			*b = *New(newNumRow, b.NumCol)
			b.Valid = false
			return nil
		}
	}
	newRow := 0
	newBasicIndex := make([]int, 0, len(b.BasicIndex))
	for i, v := range b.BasicIndex {
		if v >= b.NumCol && remap[v-b.NumCol] == -1 {
			continue
		}
		_ = i
		newBasicIndex = append(newBasicIndex, v)
		newRow++
	}
	newFlag := append([]bool(nil), b.NonbasicFlag[:b.NumCol]...)
	newMove := append([]Move(nil), b.NonbasicMove[:b.NumCol]...)
	newStatus := append([]VarStatus(nil), b.Status[:b.NumCol]...)
	for i, r := range remap {
		if r == -1 {
			continue
		}
		v := b.NumCol + i
		newFlag = append(newFlag, b.NonbasicFlag[v])
		newMove = append(newMove, b.NonbasicMove[v])
		newStatus = append(newStatus, b.Status[v])
	}
	for i, v := range newBasicIndex {
		if v >= b.NumCol {
			newBasicIndex[i] = b.NumCol + remap[v-b.NumCol]
		}
	}
	b.NonbasicFlag = newFlag
	b.NonbasicMove = newMove
	b.Status = newStatus
	b.BasicIndex = newBasicIndex
	b.NumRow = newRow
	return nil
}

// Clone deep-copies the basis.
func (b *Basis) Clone() *Basis {
	c := *b
	c.NonbasicFlag = append([]bool(nil), b.NonbasicFlag...)
	c.NonbasicMove = append([]Move(nil), b.NonbasicMove...)
	c.BasicIndex = append([]int(nil), b.BasicIndex...)
	c.Status = append([]VarStatus(nil), b.Status...)
	return &c
}
