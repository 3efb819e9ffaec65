package phy

/*------------------------------------------------------------------
 *
 * Purpose:	SYNC~ request line read from a GPIO character device pin,
 *		for boards where SYNC~ isn't carried in-band with the
 *		serial framing.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// GPIOSync is a SyncSource backed by one input line of a GPIO
// character device.
type GPIOSync struct {
	line      *gpiocdev.Line
	activeLow bool
}

// OpenGPIOSync requests offset on chip (e.g. "gpiochip0") as an input
// line reporting the SYNC~ request state. activeLow inverts the raw
// line value, for boards that wire SYNC~ as an open-drain active-low
// signal.
func OpenGPIOSync(chip string, offset int, activeLow bool) (*GPIOSync, error) {
	line, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsInput)
	if err != nil {
		return nil, fmt.Errorf("phy: request gpio line %s:%d: %w", chip, offset, err)
	}
	return &GPIOSync{line: line, activeLow: activeLow}, nil
}

// Close releases the underlying GPIO line.
func (g *GPIOSync) Close() error {
	return g.line.Close()
}

// Sync reads the current SYNC~ request state.
func (g *GPIOSync) Sync() (bool, error) {
	v, err := g.line.Value()
	if err != nil {
		return false, fmt.Errorf("phy: read gpio line: %w", err)
	}
	asserted := v != 0
	if g.activeLow {
		asserted = !asserted
	}
	return asserted, nil
}
