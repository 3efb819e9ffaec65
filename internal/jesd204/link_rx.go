package jesd204

import "fmt"

/*------------------------------------------------------------------
 *
 * Purpose:	Per-lane RX link state machine: RECEIVE-CGS ->
 *		ASSERT-SYNC -> RECEIVE-ILAS -> RECEIVE-DATA, per JESD204B
 *		section 5.3.3.4.
 *
 * Description:	jsyncOut mirrors the outbound SYNC~ line this lane
 *		drives back toward the transmitter: deasserted while
 *		hunting for CGS, asserted from ASSERT-SYNC onward so the
 *		transmitter knows it may leave SEND-CGS. A CGS pattern
 *		reappearing during RECEIVE-DATA is treated as the far
 *		end having restarted the link and drives the lane back
 *		to RECEIVE-CGS, deasserting jsyncOut again.
 *
 *---------------------------------------------------------------*/

// LinkRXState names a lane's position in the RX link state machine.
type LinkRXState int

const (
	LinkRXStateCGS LinkRXState = iota
	LinkRXStateAssertSync
	LinkRXStateILAS
	LinkRXStateData
)

func (st LinkRXState) String() string {
	switch st {
	case LinkRXStateCGS:
		return "RECEIVE-CGS"
	case LinkRXStateAssertSync:
		return "ASSERT-SYNC"
	case LinkRXStateILAS:
		return "RECEIVE-ILAS"
	case LinkRXStateData:
		return "RECEIVE-DATA"
	default:
		return "UNKNOWN"
	}
}

// LinkRX drives one lane's CGS/ILAS/DATA recovery.
type LinkRX struct {
	aligner       *Aligner
	cgsChecker    *CGSChecker
	ilasChecker   *ILASChecker
	deframer      *Deframer
	alignReplacer *AlignReplacer
	descrambler   *Descrambler

	scramble bool

	// ILASCheck, when set, sends the lane back to RECEIVE-CGS if the
	// received ILAS block doesn't match this lane's expected table,
	// instead of carrying the mismatch into RECEIVE-DATA as a status
	// flag only.
	ILASCheck bool

	state LinkRXState

	// LinkLoss latches true the cycle a CGS pattern reappears during
	// RECEIVE-DATA; cleared on the next Reset.
	LinkLoss bool
}

// NewLinkRX builds a LinkRX for lane lid.
func NewLinkRX(s *JesdSettings, lid int, withCounter, scramble bool) (*LinkRX, error) {
	if !scramble {
		return nil, fmt.Errorf("%w: scrambler-disabled mode is not supported, alignment logic assumes scrambling", ErrUnsupported)
	}
	ilasChecker, err := NewILASChecker(s, lid, withCounter)
	if err != nil {
		return nil, err
	}
	rx := &LinkRX{
		aligner:       NewAligner(),
		cgsChecker:    NewCGSChecker(),
		ilasChecker:   ilasChecker,
		deframer:      NewDeframer(s),
		alignReplacer: NewAlignReplacer(),
		descrambler:   NewDescrambler(),
		scramble:      scramble,
	}
	rx.Reset()
	return rx, nil
}

// Reset returns the lane to RECEIVE-CGS with every sub-component
// cleared.
func (rx *LinkRX) Reset() {
	rx.state = LinkRXStateCGS
	rx.LinkLoss = false
	rx.aligner.Reset()
	rx.ilasChecker.Reset()
	rx.descrambler.Reset()
}

// State reports the lane's current position in the state machine.
func (rx *LinkRX) State() LinkRXState { return rx.state }

// ILASValid reports whether the ILAS block received so far matched
// this lane's expected configuration.
func (rx *LinkRX) ILASValid() bool { return rx.ilasChecker.Valid() }

// Align reports whether this lane's PHY should run comma detection:
// asserted while the lane is hunting for or confirming CGS, released
// once ILAS begins and the byte boundary is committed.
func (rx *LinkRX) Align() bool {
	return rx.state == LinkRXStateCGS || rx.state == LinkRXStateAssertSync
}

// Step consumes one cycle of raw PHY octets/ctrl and returns the
// recovered transport data (valid only once synced) along with the
// outbound SYNC~ request line. lmfcZero marks this cycle as the start
// of a multiframe, the only cycle RECEIVE-CGS may leave on.
func (rx *LinkRX) Step(rawData [D]byte, rawCtrl [D]bool, lmfcZero bool) (out [D]byte, jsyncOut bool) {
	data, ctrl := rx.aligner.Step(rawData, rawCtrl)
	w := LaneWord{Data: data, Ctrl: ctrl}

	switch rx.state {
	case LinkRXStateCGS:
		if rx.cgsChecker.Valid(w) && lmfcZero {
			rx.state = LinkRXStateAssertSync
		}
		return [D]byte{}, false

	case LinkRXStateAssertSync:
		// The far end keeps sending CGS after seeing SYNC~ assert until
		// its next LMFC boundary; stay here until that stops, so the
		// ILAS checker only sees real ILAS octets.
		if rx.cgsChecker.Valid(w) {
			return [D]byte{}, true
		}
		rx.state = LinkRXStateILAS
		rx.ilasChecker.Reset()
		rx.ilasChecker.Step(w)
		if rx.ilasChecker.Done() {
			return [D]byte{}, rx.finishILAS()
		}
		return [D]byte{}, true

	case LinkRXStateILAS:
		rx.ilasChecker.Step(w)
		if rx.ilasChecker.Done() {
			return [D]byte{}, rx.finishILAS()
		}
		return [D]byte{}, true

	default: // LinkRXStateData
		if rx.cgsChecker.Valid(w) {
			rx.state = LinkRXStateCGS
			rx.LinkLoss = true
			return [D]byte{}, false
		}
		replaced := rx.alignReplacer.Step(w)
		deframed := rx.deframer.Step(replaced)
		if rx.scramble {
			return rx.descrambler.Step(deframed), true
		}
		return deframed, true
	}
}

// finishILAS moves the lane on from the fully-checked ILAS block: into
// RECEIVE-DATA, or back to RECEIVE-CGS when ILASCheck is set and the
// block didn't match this lane's expected configuration.
func (rx *LinkRX) finishILAS() (jsyncOut bool) {
	if rx.ILASCheck && !rx.ilasChecker.Valid() {
		rx.Reset()
		return false
	}
	rx.state = LinkRXStateData
	rx.descrambler.Reset()
	return true
}
