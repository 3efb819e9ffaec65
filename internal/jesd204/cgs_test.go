package jesd204

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCGSGeneratorChecker(t *testing.T) {
	var gen = NewCGSGenerator()
	var checker = NewCGSChecker()

	assert.True(t, checker.Valid(gen.Step()))
}

func TestCGSCheckerRejectsNonCGS(t *testing.T) {
	var checker = NewCGSChecker()

	var w LaneWord
	w.Data = [D]byte{CtrlK, CtrlK, CtrlK, 0x00}
	w.Ctrl = [D]bool{true, true, true, false}
	assert.False(t, checker.Valid(w))

	w.Data = [D]byte{CtrlK, CtrlK, CtrlK, CtrlK}
	w.Ctrl = [D]bool{true, true, true, false}
	assert.False(t, checker.Valid(w), "ctrl flag must also be set on every octet")
}
