package jesd204

import "errors"

/*------------------------------------------------------------------
 *
 * Purpose:	Construction-time error taxonomy for the JESD204B core.
 *		Only misuse at construction is a hard error; every
 *		runtime condition is a state output, never a panic.
 *
 *---------------------------------------------------------------*/

// Sentinel errors. Wrap with fmt.Errorf("...: %w", ErrX) and compare
// with errors.Is.
var (
	ErrInvalidSettings = errors.New("jesd204: invalid settings")
	ErrInvalidGeometry = errors.New("jesd204: invalid geometry")
	ErrUnsupported     = errors.New("jesd204: unsupported")
)
