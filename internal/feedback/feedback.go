// Package feedback runs LED indication patterns concurrently with
// gesture handling. Finite patterns (Blinker) run to completion on
// their own goroutine and are never cancelled; the indefinite station
// mode indicator (StationIndicator) has an explicit start/stop
// lifecycle. Multiple patterns may be in flight at once and race on
// the shared LED; the interleaving is cosmetic only.
package feedback

import (
	"time"

	"github.com/bitsplusatoms/hkbutton/internal/led"
	"github.com/bitsplusatoms/hkbutton/internal/logic"
)

// Spec describes one finite blink pattern: Cycles iterations of
// light-wait-dark-wait, with no leading wait before the first
// activation. Immutable once constructed.
type Spec struct {
	Color  led.Color
	Cycles int
	Delay  time.Duration
}

// Pattern parameters carried over from the firmware family: short
// confirmations for mapped gestures, a distinctive step marker for
// the reset sequence, and a longer error pattern so misclassified
// presses are visible in the field.
var (
	SingleSpec     = Spec{Color: led.White, Cycles: 1, Delay: 75 * time.Millisecond}
	DoubleSpec     = Spec{Color: led.White, Cycles: 2, Delay: 75 * time.Millisecond}
	TripleSpec     = Spec{Color: led.White, Cycles: 3, Delay: 75 * time.Millisecond}
	ResetStepSpec  = Spec{Color: led.Yellow, Cycles: 1, Delay: 150 * time.Millisecond}
	ErrorSpec      = Spec{Color: led.Red, Cycles: 4, Delay: 250 * time.Millisecond}
	AboutResetSpec = Spec{Color: led.Red, Cycles: 5, Delay: 100 * time.Millisecond}

	// identifyBurst is one burst of the identify pattern; the full
	// pattern is three bursts separated by identifyPause.
	identifyBurst = Spec{Color: led.Purple, Cycles: 3, Delay: 200 * time.Millisecond}

	// stationBurst is one burst of the station mode indicator, which
	// repeats indefinitely with stationPause between bursts.
	stationBurst = Spec{Color: led.Orange, Cycles: 4, Delay: 200 * time.Millisecond}
)

const (
	identifyPause = 500 * time.Millisecond
	stationPause  = time.Second
)

// ForKind returns the blink pattern for a dispatch outcome. The zero
// kind maps to a zero-cycle pattern, which the Blinker treats as a
// no-op.
func ForKind(k logic.FeedbackKind) Spec {
	switch k {
	case logic.FeedbackNone:
		return Spec{}
	case logic.FeedbackSingle:
		return SingleSpec
	case logic.FeedbackDouble:
		return DoubleSpec
	case logic.FeedbackTriple:
		return TripleSpec
	case logic.FeedbackResetStep:
		return ResetStepSpec
	default:
		return ErrorSpec
	}
}
