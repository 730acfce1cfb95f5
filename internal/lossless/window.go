package lossless

import "github.com/deepteams/vp8lpred/internal/pool"

// rowWindow is the scratch state of the predictor passes: two pixel rows of
// width+1 samples (the row above the one being coded and the row itself,
// each with one extra top-right context sample) plus two max-diff rows.
//
// Both pixel rows live in one pooled buffer. Rotating them only swaps the
// slot indices, never the data.
type rowWindow struct {
	buf     []uint32
	stride  int
	upper   int
	current int

	// Max-diff rows are separate allocations, used only with near-lossless.
	maxDiffs      [2][]uint8
	maxDiffCur    int
	maxDiffLower  int
	hasMaxDiffRow bool
}

// newRowWindow borrows the scratch rows for an image width pixels wide.
// withMaxDiffs also borrows the two max-diff rows.
func newRowWindow(width int, withMaxDiffs bool) *rowWindow {
	w := &rowWindow{
		stride:  width + 1,
		upper:   0,
		current: 1,
	}
	w.buf = pool.GetUint32(2 * w.stride)
	if withMaxDiffs {
		w.maxDiffs[0] = pool.GetUint8(width)
		w.maxDiffs[1] = pool.GetUint8(width)
		w.maxDiffCur = 0
		w.maxDiffLower = 1
		w.hasMaxDiffRow = true
	}
	return w
}

// release returns the buffers to the pool. w must not be used afterwards.
func (w *rowWindow) release() {
	pool.PutUint32(w.buf)
	w.buf = nil
	if w.hasMaxDiffRow {
		pool.PutUint8(w.maxDiffs[0])
		pool.PutUint8(w.maxDiffs[1])
		w.maxDiffs = [2][]uint8{}
	}
}

// upperRow returns the slot holding the row above the current one.
func (w *rowWindow) upperRow() []uint32 {
	return w.buf[w.upper*w.stride : (w.upper+1)*w.stride]
}

// currentRow returns the slot holding the row being coded.
func (w *rowWindow) currentRow() []uint32 {
	return w.buf[w.current*w.stride : (w.current+1)*w.stride]
}

// swap makes the current row the upper one.
func (w *rowWindow) swap() {
	w.upper, w.current = w.current, w.upper
}

// maxDiffRow returns the max-diff row of the current pixel row.
func (w *rowWindow) maxDiffRow() []uint8 {
	return w.maxDiffs[w.maxDiffCur]
}

// lowerMaxDiffRow returns the max-diff row being prepared for the next row.
func (w *rowWindow) lowerMaxDiffRow() []uint8 {
	return w.maxDiffs[w.maxDiffLower]
}

// swapMaxDiffs makes the prepared max-diff row current.
func (w *rowWindow) swapMaxDiffs() {
	w.maxDiffCur, w.maxDiffLower = w.maxDiffLower, w.maxDiffCur
}
