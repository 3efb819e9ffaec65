package jesd204

import "fmt"

/*------------------------------------------------------------------
 *
 * Purpose:	Per-lane TX link state machine: SEND-CGS -> SEND-ILAS ->
 *		SEND-DATA, per JESD204B section 5.3.3.5.
 *
 * Description:	jsync is the synchronized SYNC~ line from the far end,
 *		modeled active-high for "synced": true means the RX side
 *		has locked CGS and is ready to proceed, false means it is
 *		still hunting. SEND-CGS holds until jsync is asserted on an
 *		lmfc_zero cycle; SEND-DATA falls back to SEND-CGS only
 *		after jsync has been deasserted for linkSyncGuardCycles in
 *		a row, so a single-cycle glitch can't tear the link down.
 *
 *---------------------------------------------------------------*/

// LinkState names a lane's position in the TX/RX link state machine.
type LinkState int

const (
	LinkStateCGS LinkState = iota
	LinkStateILAS
	LinkStateData
)

func (st LinkState) String() string {
	switch st {
	case LinkStateCGS:
		return "CGS"
	case LinkStateILAS:
		return "ILAS"
	case LinkStateData:
		return "DATA"
	default:
		return "UNKNOWN"
	}
}

// linkSyncGuardCycles is the number of consecutive jsync-deasserted
// cycles SEND-DATA tolerates before falling back to SEND-CGS.
const linkSyncGuardCycles = 4

// LinkTX drives one lane's CGS/ILAS/DATA sequencing.
type LinkTX struct {
	scrambler *Scrambler
	framer    *Framer
	align     *AlignInserter
	cgsGen    *CGSGenerator
	ilasGen   *ILASGenerator

	scramble bool

	state         LinkState
	deassertCount int
}

// NewLinkTX builds a LinkTX for lane lid. scramble selects whether the
// DATA phase runs through the self-synchronous scrambler.
func NewLinkTX(s *JesdSettings, lid int, withCounter, scramble bool) (*LinkTX, error) {
	if !scramble {
		return nil, fmt.Errorf("%w: scrambler-disabled mode is not supported, alignment logic assumes scrambling", ErrUnsupported)
	}
	framer, err := NewFramer(s)
	if err != nil {
		return nil, err
	}
	ilasGen, err := NewILASGenerator(s, lid, withCounter)
	if err != nil {
		return nil, err
	}
	tx := &LinkTX{
		scrambler: NewScrambler(),
		framer:    framer,
		align:     NewAlignInserter(),
		cgsGen:    NewCGSGenerator(),
		ilasGen:   ilasGen,
		scramble:  scramble,
	}
	tx.Reset()
	return tx, nil
}

// Reset returns the lane to SEND-CGS with every sub-component cleared.
func (tx *LinkTX) Reset() {
	tx.state = LinkStateCGS
	tx.deassertCount = 0
	tx.scrambler.Reset()
	tx.framer.Reset()
	tx.ilasGen.Reset()
}

// State reports the lane's current position in the state machine.
func (tx *LinkTX) State() LinkState { return tx.state }

// Step advances the state machine one jesd cycle. jsync is the
// synchronized SYNC~ level (true = far end synced); lmfcZero marks
// this cycle as the start of a multiframe; data is this cycle's D
// octets of converter-mapped transport data, consumed only in
// SEND-DATA.
func (tx *LinkTX) Step(jsync, lmfcZero bool, data [D]byte) LaneWord {
	switch tx.state {
	case LinkStateCGS:
		out := tx.cgsGen.Step()
		if jsync && lmfcZero {
			tx.state = LinkStateILAS
			tx.ilasGen.Reset()
		}
		return out

	case LinkStateILAS:
		w := tx.ilasGen.Step()
		if tx.ilasGen.Done() {
			tx.state = LinkStateData
			tx.framer.Reset()
			tx.scrambler.Reset()
			tx.deassertCount = 0
		}
		return w

	default: // LinkStateData
		if !jsync {
			tx.deassertCount++
			if tx.deassertCount >= linkSyncGuardCycles {
				tx.Reset()
				return tx.cgsGen.Step()
			}
		} else {
			tx.deassertCount = 0
		}

		scrambled := data
		if tx.scramble {
			scrambled = tx.scrambler.Step(data)
		}
		framed := tx.framer.Step(scrambled)
		return tx.align.Step(framed)
	}
}
