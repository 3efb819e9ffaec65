package jesd204

import "fmt"

/*------------------------------------------------------------------
 *
 * Purpose:	JESD204B link parameters (L, M, F, S, N, N', K, CS, DID,
 *		BID) and the derived geometry every other component in
 *		this package is built against.
 *
 * Description:	JesdSettings is immutable once constructed. NewSettings
 *		validates every bound from the JESD204B parameter table
 *		and the internal consistency relation
 *		M*S*N' = 8*L*F before returning a usable value - an
 *		invalid combination never reaches a live component.
 *
 *---------------------------------------------------------------*/

// JesdSettings is the immutable, validated configuration shared by
// every component of one link. Construct with NewSettings.
type JesdSettings struct {
	L, M, F, S, N, Np, K, Cs int
	Did, Bid                 int

	// NibblesPerWord is ceil(Np/4), the nibble count one converter
	// sample expands to once padded to Np bits.
	NibblesPerWord int

	// OctetsPerFrame is the octet count one converter contributes to
	// a single frame (S samples of NibblesPerWord/2 octets each).
	// Used only by the transport mapper's internal nibble/octet
	// packing; the per-lane frame size is F (see OctetsPerLane).
	OctetsPerFrame int

	// OctetsPerLane is F: the number of octets one lane carries per
	// frame. Equal to the F field by construction - see Validate.
	OctetsPerLane int

	// LmfcCycles is the number of jesd cycles in one multiframe, at
	// the fixed 32-bit (D=4 octet) datapath width this package
	// supports.
	LmfcCycles int
}

// Option adjusts a JesdSettings before NewSettings returns it. Options
// run after every field is validated and derived, so an Option that
// needs to reject a combination should do so via Validate rather than
// panicking.
type Option func(*JesdSettings)

// NewSettings validates l, m, f, s, n, np, k, cs, did, bid against the
// JESD204B parameter bounds and the derived-geometry invariants, and
// returns an immutable JesdSettings. Options are applied last, once
// every field has its validated and derived value.
func NewSettings(l, m, f, s, n, np, k, cs, did, bid int, opts ...Option) (*JesdSettings, error) {
	if l < 1 || l > 8 {
		return nil, fmt.Errorf("%w: l=%d out of range [1,8]", ErrInvalidSettings, l)
	}
	if m < 1 || m > 256 {
		return nil, fmt.Errorf("%w: m=%d out of range [1,256]", ErrInvalidSettings, m)
	}
	if !validF(f) {
		return nil, fmt.Errorf("%w: f=%d not in {1,2,4..256}", ErrInvalidSettings, f)
	}
	if s < 1 || s > 32 {
		return nil, fmt.Errorf("%w: s=%d out of range [1,32]", ErrInvalidSettings, s)
	}
	if n < 1 || n > 32 {
		return nil, fmt.Errorf("%w: n=%d out of range [1,32]", ErrInvalidSettings, n)
	}
	if np < 1 || np > 32 {
		return nil, fmt.Errorf("%w: np=%d out of range [1,32]", ErrInvalidSettings, np)
	}
	if np < n {
		return nil, fmt.Errorf("%w: np=%d must be >= n=%d", ErrInvalidSettings, np, n)
	}
	if np%4 != 0 {
		return nil, fmt.Errorf("%w: np=%d must be a multiple of 4", ErrInvalidSettings, np)
	}
	if k < 1 || k > 32 {
		return nil, fmt.Errorf("%w: k=%d out of range [1,32]", ErrInvalidSettings, k)
	}
	if k*f < 17 {
		return nil, fmt.Errorf("%w: k=%d, f=%d violate 17/f <= k", ErrInvalidSettings, k, f)
	}
	if cs < 0 || cs > 3 {
		return nil, fmt.Errorf("%w: cs=%d out of range [0,3]", ErrInvalidSettings, cs)
	}
	if did < 0 || did > 0xff {
		return nil, fmt.Errorf("%w: did=%d out of range [0,255]", ErrInvalidSettings, did)
	}
	if bid < 0 || bid > 0xf {
		return nil, fmt.Errorf("%w: bid=%d out of range [0,15]", ErrInvalidSettings, bid)
	}

	nibblesPerWord := (np + 3) / 4

	if (s*nibblesPerWord)%2 != 0 {
		return nil, fmt.Errorf("%w: s=%d, np=%d yield a non-integral octets-per-frame", ErrInvalidSettings, s, np)
	}
	octetsPerFrame := s * nibblesPerWord / 2

	// F is the JESD204B standard's octets-per-frame-per-lane, and
	// must satisfy the transport relation M*S*N' = 8*L*F exactly.
	if m*s*np != 8*l*f {
		return nil, fmt.Errorf("%w: m*s*np (%d) != 8*l*f (%d)", ErrInvalidSettings, m*s*np, 8*l*f)
	}

	if (f*k)%4 != 0 {
		return nil, fmt.Errorf("%w: f=%d, k=%d yield a non-integral lmfc_cycles", ErrInvalidSettings, f, k)
	}
	lmfcCycles := f * k / 4
	if lmfcCycles < 1 {
		return nil, fmt.Errorf("%w: lmfc_cycles=%d must be >= 1", ErrInvalidSettings, lmfcCycles)
	}

	settings := &JesdSettings{
		L: l, M: m, F: f, S: s, N: n, Np: np, K: k, Cs: cs,
		Did: did, Bid: bid,
		NibblesPerWord: nibblesPerWord,
		OctetsPerFrame: octetsPerFrame,
		OctetsPerLane:  f,
		LmfcCycles:     lmfcCycles,
	}
	for _, opt := range opts {
		opt(settings)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Validate re-checks the derived-geometry invariants NewSettings
// already established. It exists so a JesdSettings built or mutated
// through Options can be re-verified without reconstructing it from
// scratch.
func (s *JesdSettings) Validate() error {
	if s.L < 1 || s.L > 8 {
		return fmt.Errorf("%w: l=%d out of range [1,8]", ErrInvalidSettings, s.L)
	}
	if s.M < 1 || s.M > 256 {
		return fmt.Errorf("%w: m=%d out of range [1,256]", ErrInvalidSettings, s.M)
	}
	if !validF(s.F) {
		return fmt.Errorf("%w: f=%d not in {1,2,4..256}", ErrInvalidSettings, s.F)
	}
	if s.S < 1 || s.S > 32 {
		return fmt.Errorf("%w: s=%d out of range [1,32]", ErrInvalidSettings, s.S)
	}
	if s.Np < 1 || s.Np > 32 || s.Np%4 != 0 {
		return fmt.Errorf("%w: np=%d invalid", ErrInvalidSettings, s.Np)
	}
	if s.N < 1 || s.N > s.Np {
		return fmt.Errorf("%w: n=%d out of range [1,%d]", ErrInvalidSettings, s.N, s.Np)
	}
	if s.K < 1 || s.K > 32 || s.K*s.F < 17 {
		return fmt.Errorf("%w: k=%d, f=%d violate 17/f <= k", ErrInvalidSettings, s.K, s.F)
	}
	if s.Cs < 0 || s.Cs > 3 {
		return fmt.Errorf("%w: cs=%d out of range [0,3]", ErrInvalidSettings, s.Cs)
	}
	if s.Did < 0 || s.Did > 0xff {
		return fmt.Errorf("%w: did=%d out of range [0,255]", ErrInvalidSettings, s.Did)
	}
	if s.Bid < 0 || s.Bid > 0xf {
		return fmt.Errorf("%w: bid=%d out of range [0,15]", ErrInvalidSettings, s.Bid)
	}
	if s.M*s.S*s.Np != 8*s.L*s.F {
		return fmt.Errorf("%w: m*s*np (%d) != 8*l*f (%d)", ErrInvalidSettings, s.M*s.S*s.Np, 8*s.L*s.F)
	}
	if s.LmfcCycles < 1 {
		return fmt.Errorf("%w: lmfc_cycles=%d must be >= 1", ErrInvalidSettings, s.LmfcCycles)
	}
	return nil
}

func validF(f int) bool {
	if f == 1 || f == 2 {
		return true
	}
	return f >= 4 && f <= 256
}

// configurationField is the bit placement of one field of the
// 14-octet configuration block; the checksum sums them in list order.
// Values already reflect the "value-1" encoding where required.
type configurationField struct {
	octet, offset, width int
	value                int
}

// ConfigurationOctets builds the 14-octet ILAS configuration block for
// lane lid (0..L-1), per JESD204B section 8.3. The last octet is the
// modulo-256 sum of the first 13.
func (s *JesdSettings) ConfigurationOctets(lid int) ([14]byte, error) {
	var octets [14]byte
	if lid < 0 || lid >= s.L {
		return octets, fmt.Errorf("%w: lid=%d out of range [0,%d)", ErrInvalidSettings, lid, s.L)
	}

	fields := []configurationField{
		{0, 0, 8, s.Did},
		{1, 0, 4, s.Bid},
		{2, 0, 5, lid},
		{3, 0, 5, s.L - 1},
		{3, 7, 1, 1}, // SCR
		{4, 0, 8, s.F - 1},
		{5, 0, 5, s.K - 1},
		{6, 0, 8, s.M - 1},
		{7, 0, 5, s.N - 1},
		{7, 6, 2, s.Cs},
		{8, 0, 5, s.Np - 1},
		{8, 5, 3, 1}, // SUBCLASSV
		{9, 0, 5, s.S - 1},
		{9, 5, 3, 1}, // JESDV
	}

	var checksum int
	for _, f := range fields {
		v := f.value & ((1 << f.width) - 1)
		octets[f.octet] |= byte(v << f.offset)
		checksum += v
	}
	octets[13] = byte(checksum % 256)
	return octets, nil
}
