// Package sparse implements the compressed row/column matrix storage used
// by the LP constraint matrix and the QP Hessian.
package sparse

import (
	"sort"

	"github.com/pkg/errors"
)

// Format identifies which orientation a Matrix is currently stored in.
type Format int

const (
	// ColWise stores the matrix as compressed sparse columns.
	ColWise Format = iota
	// RowWise stores the matrix as compressed sparse rows.
	RowWise
)

// Matrix is a compressed sparse matrix, stored either column-wise or
// row-wise. Only one orientation is canonical at a time; the other is
// produced on demand by EnsureColWise / EnsureRowWise.
type Matrix struct {
	Format Format

	NumRow int
	NumCol int

	// Start has length NumCol+1 (ColWise) or NumRow+1 (RowWise).
	// Start[k+1] >= Start[k] always (spec.md property 2).
	Start []int
	// Index holds row indices (ColWise) or column indices (RowWise).
	Index []int
	Value []float64
}

// New builds an empty matrix with the given orientation and dimensions.
func New(numRow, numCol int, format Format) *Matrix {
	n := numCol
	if format == RowWise {
		n = numRow
	}
	return &Matrix{
		Format: format,
		NumRow: numRow,
		NumCol: numCol,
		Start:  make([]int, n+1),
	}
}

// NewFromSlices builds a matrix directly from CSR/CSC-style slices. The
// caller retains ownership of nothing; slices are copied.
func NewFromSlices(numRow, numCol int, format Format, start, index []int, value []float64) (*Matrix, error) {
	m := &Matrix{
		Format: format,
		NumRow: numRow,
		NumCol: numCol,
		Start:  append([]int(nil), start...),
		Index:  append([]int(nil), index...),
		Value:  append([]float64(nil), value...),
	}
	if err := m.checkStarts(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Matrix) checkStarts() error {
	for k := 0; k+1 < len(m.Start); k++ {
		if m.Start[k+1] < m.Start[k] {
			return errors.Errorf("sparse: non-monotone start array at %d: %d > %d", k, m.Start[k], m.Start[k+1])
		}
	}
	if len(m.Start) > 0 && m.Start[len(m.Start)-1] != len(m.Index) {
		return errors.Errorf("sparse: start array end %d does not match index length %d", m.Start[len(m.Start)-1], len(m.Index))
	}
	return nil
}

// NumNz returns the number of stored non-zeros: the last entry of Start.
func (m *Matrix) NumNz() int {
	if len(m.Start) == 0 {
		return 0
	}
	return m.Start[len(m.Start)-1]
}

// majorMinor returns the number of major slices (columns if ColWise, rows if
// RowWise) and the length of the orthogonal dimension.
func (m *Matrix) majorMinor() (major, minor int) {
	if m.Format == ColWise {
		return m.NumCol, m.NumRow
	}
	return m.NumRow, m.NumCol
}

// GetRow extracts row i regardless of storage orientation, returning the
// column indices and values of its non-zero entries in ascending column
// order.
func (m *Matrix) GetRow(i int) (index []int, value []float64) {
	if i < 0 || i >= m.NumRow {
		return nil, nil
	}
	if m.Format == RowWise {
		lo, hi := m.Start[i], m.Start[i+1]
		return append([]int(nil), m.Index[lo:hi]...), append([]float64(nil), m.Value[lo:hi]...)
	}
	for col := 0; col < m.NumCol; col++ {
		lo, hi := m.Start[col], m.Start[col+1]
		for p := lo; p < hi; p++ {
			if m.Index[p] == i {
				index = append(index, col)
				value = append(value, m.Value[p])
				break
			}
		}
	}
	return index, value
}

// GetCol extracts column j regardless of storage orientation.
func (m *Matrix) GetCol(j int) (index []int, value []float64) {
	if j < 0 || j >= m.NumCol {
		return nil, nil
	}
	if m.Format == ColWise {
		lo, hi := m.Start[j], m.Start[j+1]
		return append([]int(nil), m.Index[lo:hi]...), append([]float64(nil), m.Value[lo:hi]...)
	}
	for row := 0; row < m.NumRow; row++ {
		lo, hi := m.Start[row], m.Start[row+1]
		for p := lo; p < hi; p++ {
			if m.Index[p] == j {
				index = append(index, row)
				value = append(value, m.Value[p])
				break
			}
		}
	}
	return index, value
}

// EnsureColWise converts the matrix to column-wise storage in place if
// necessary. Idempotent: calling it twice equals calling it once.
func (m *Matrix) EnsureColWise() {
	if m.Format == ColWise {
		return
	}
	m.convert(ColWise)
}

// EnsureRowWise converts the matrix to row-wise storage in place if
// necessary.
func (m *Matrix) EnsureRowWise() {
	if m.Format == RowWise {
		return
	}
	m.convert(RowWise)
}

func (m *Matrix) convert(to Format) {
	fromMajor, _ := m.majorMinor()
	toMajorCount := m.NumCol
	if to == RowWise {
		toMajorCount = m.NumRow
	}

	counts := make([]int, toMajorCount)
	for major := 0; major < fromMajor; major++ {
		lo, hi := m.Start[major], m.Start[major+1]
		for p := lo; p < hi; p++ {
			counts[m.Index[p]]++
		}
	}

	newStart := make([]int, toMajorCount+1)
	for k := 0; k < toMajorCount; k++ {
		newStart[k+1] = newStart[k] + counts[k]
	}

	newIndex := make([]int, len(m.Index))
	newValue := make([]float64, len(m.Value))
	cursor := append([]int(nil), newStart[:toMajorCount]...)
	for major := 0; major < fromMajor; major++ {
		lo, hi := m.Start[major], m.Start[major+1]
		for p := lo; p < hi; p++ {
			minor := m.Index[p]
			dst := cursor[minor]
			newIndex[dst] = major
			newValue[dst] = m.Value[p]
			cursor[minor]++
		}
	}

	m.Format = to
	m.Start = newStart
	m.Index = newIndex
	m.Value = newValue
}

// AddCols appends a compatibly-shaped block of columns. block must be
// ColWise (it is converted in place if not) and have block.NumRow ==
// m.NumRow. NumCol is updated atomically with the underlying arrays.
func (m *Matrix) AddCols(block *Matrix) error {
	if block.NumRow != m.NumRow {
		return errors.Errorf("sparse: AddCols row mismatch: have %d, block has %d", m.NumRow, block.NumRow)
	}
	block.EnsureColWise()
	wasRowWise := m.Format == RowWise
	if wasRowWise {
		m.EnsureColWise()
	}
	base := len(m.Index)
	for _, v := range block.Index {
		m.Index = append(m.Index, v)
	}
	m.Value = append(m.Value, block.Value...)
	for k := 0; k < block.NumCol; k++ {
		m.Start = append(m.Start, base+block.Start[k+1])
	}
	m.NumCol += block.NumCol
	if wasRowWise {
		m.EnsureRowWise()
	}
	return nil
}

// AddRows appends a compatibly-shaped block of rows. block must be
// RowWise and have block.NumCol == m.NumCol.
func (m *Matrix) AddRows(block *Matrix) error {
	if block.NumCol != m.NumCol {
		return errors.Errorf("sparse: AddRows col mismatch: have %d, block has %d", m.NumCol, block.NumCol)
	}
	block.EnsureRowWise()
	wasColWise := m.Format == ColWise
	if wasColWise {
		m.EnsureRowWise()
	}
	base := len(m.Index)
	m.Index = append(m.Index, block.Index...)
	m.Value = append(m.Value, block.Value...)
	for k := 0; k < block.NumRow; k++ {
		m.Start = append(m.Start, base+block.Start[k+1])
	}
	m.NumRow += block.NumRow
	if wasColWise {
		m.EnsureColWise()
	}
	return nil
}

// DeleteCols removes the columns named by idx. If idx is a Mask, it is
// overwritten in place with the old->new column index map (kept columns
// get their new index, deleted columns get -1).
func (m *Matrix) DeleteCols(idx IndexSet) error {
	wasRowWise := m.Format == RowWise
	if wasRowWise {
		m.EnsureColWise()
	}
	remap, err := m.deleteMajor(idx, m.NumCol)
	if err != nil {
		return err
	}
	m.NumCol = countKept(remap)
	if wasRowWise {
		m.EnsureRowWise()
	}
	writeBackMask(idx, remap)
	return nil
}

// DeleteRows removes the rows named by idx, remapping minor (column)
// indices are untouched; only the major dimension shrinks when RowWise,
// otherwise every stored entry's row index (Index) is remapped/dropped.
func (m *Matrix) DeleteRows(idx IndexSet) error {
	wasColWise := m.Format == ColWise
	if wasColWise {
		m.EnsureRowWise()
	}
	remap, err := m.deleteMajor(idx, m.NumRow)
	if err != nil {
		return err
	}
	m.NumRow = countKept(remap)
	if wasColWise {
		m.EnsureColWise()
	}
	writeBackMask(idx, remap)
	return nil
}

// deleteMajor removes major slices (columns if ColWise, rows if RowWise)
// named by idx and returns the old->new index map (-1 for deleted).
func (m *Matrix) deleteMajor(idx IndexSet, n int) ([]int, error) {
	toDelete := idx.Indices(n)
	del := make([]bool, n)
	for _, i := range toDelete {
		if i < 0 || i >= n {
			return nil, errors.Errorf("sparse: delete index %d out of range [0,%d)", i, n)
		}
		del[i] = true
	}

	remap := make([]int, n)
	newN := 0
	for i := 0; i < n; i++ {
		if del[i] {
			remap[i] = -1
			continue
		}
		remap[i] = newN
		newN++
	}

	newStart := make([]int, newN+1)
	newIndex := make([]int, 0, len(m.Index))
	newValue := make([]float64, 0, len(m.Value))
	cursor := 0
	for i := 0; i < n; i++ {
		if del[i] {
			continue
		}
		lo, hi := m.Start[i], m.Start[i+1]
		newIndex = append(newIndex, m.Index[lo:hi]...)
		newValue = append(newValue, m.Value[lo:hi]...)
		cursor++
		newStart[cursor] = len(newIndex)
	}

	m.Start = newStart
	m.Index = newIndex
	m.Value = newValue
	return remap, nil
}

func countKept(remap []int) int {
	n := 0
	for _, v := range remap {
		if v >= 0 {
			n++
		}
	}
	return n
}

func writeBackMask(idx IndexSet, remap []int) {
	if mask, ok := idx.(*Mask); ok {
		*mask = append(Mask(nil), remap...)
	}
}

// Assess rejects matrices containing values with |v| < smallTol (treated
// as zero, an error rather than a silent drop) or |v| > largeTol.
func (m *Matrix) Assess(smallTol, largeTol float64) error {
	for p, v := range m.Value {
		av := v
		if av < 0 {
			av = -av
		}
		if av != 0 && av < smallTol {
			return errors.Errorf("sparse: entry %d has magnitude %g below small tolerance %g", p, av, smallTol)
		}
		if av > largeTol {
			return errors.Errorf("sparse: entry %d has magnitude %g above large tolerance %g", p, av, largeTol)
		}
	}
	return nil
}

// ApplyRowScale multiplies every stored entry in row i by scale[i].
func (m *Matrix) ApplyRowScale(scale []float64) {
	if m.Format == RowWise {
		for row := 0; row < m.NumRow; row++ {
			lo, hi := m.Start[row], m.Start[row+1]
			for p := lo; p < hi; p++ {
				m.Value[p] *= scale[row]
			}
		}
		return
	}
	for p, r := range m.Index {
		m.Value[p] *= scale[r]
	}
}

// ApplyColScale multiplies every stored entry in column j by scale[j].
func (m *Matrix) ApplyColScale(scale []float64) {
	if m.Format == ColWise {
		for col := 0; col < m.NumCol; col++ {
			lo, hi := m.Start[col], m.Start[col+1]
			for p := lo; p < hi; p++ {
				m.Value[p] *= scale[col]
			}
		}
		return
	}
	for p, c := range m.Index {
		m.Value[p] *= scale[c]
	}
}

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	return &Matrix{
		Format: m.Format,
		NumRow: m.NumRow,
		NumCol: m.NumCol,
		Start:  append([]int(nil), m.Start...),
		Index:  append([]int(nil), m.Index...),
		Value:  append([]float64(nil), m.Value...),
	}
}

// Entries returns the (row, col, value) triples currently stored, useful
// for round-trip comparisons (spec.md property 1).
func (m *Matrix) Entries() []Entry {
	entries := make([]Entry, 0, len(m.Value))
	if m.Format == ColWise {
		for col := 0; col < m.NumCol; col++ {
			lo, hi := m.Start[col], m.Start[col+1]
			for p := lo; p < hi; p++ {
				entries = append(entries, Entry{Row: m.Index[p], Col: col, Value: m.Value[p]})
			}
		}
	} else {
		for row := 0; row < m.NumRow; row++ {
			lo, hi := m.Start[row], m.Start[row+1]
			for p := lo; p < hi; p++ {
				entries = append(entries, Entry{Row: row, Col: m.Index[p], Value: m.Value[p]})
			}
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Row != entries[j].Row {
			return entries[i].Row < entries[j].Row
		}
		return entries[i].Col < entries[j].Col
	})
	return entries
}

// Entry is a single (row, col, value) triple.
type Entry struct {
	Row, Col int
	Value    float64
}
