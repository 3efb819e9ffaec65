package jesd204

/*------------------------------------------------------------------
 *
 * Purpose:	Per-lane RX elastic buffer that absorbs inter-lane skew:
 *		lanes reach RECEIVE-DATA at different cycle counts (their
 *		CGS/ILAS recovery times differ), so each lane's recovered
 *		octets queue here until the core has a word from every
 *		lane to release in lockstep.
 *
 *---------------------------------------------------------------*/

// SkewFIFO is an unbounded FIFO of D-octet words. In practice it never
// grows past a few words: lanes desynchronize by at most a handful of
// cycles before ILAS recovery completes.
type SkewFIFO struct {
	words []([D]byte)
}

// NewSkewFIFO returns an empty SkewFIFO.
func NewSkewFIFO() *SkewFIFO { return &SkewFIFO{} }

// Reset discards any buffered words.
func (f *SkewFIFO) Reset() { f.words = f.words[:0] }

// Push enqueues one D-octet word.
func (f *SkewFIFO) Push(w [D]byte) { f.words = append(f.words, w) }

// Len reports the number of buffered words.
func (f *SkewFIFO) Len() int { return len(f.words) }

// Pop dequeues the oldest buffered word. Callers must check Len() > 0
// first; Pop panics on an empty FIFO.
func (f *SkewFIFO) Pop() [D]byte {
	w := f.words[0]
	f.words = f.words[1:]
	return w
}
