package feedback

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bitsplusatoms/hkbutton/internal/led"
)

// Blinker runs finite blink patterns on the indicator LED. Start
// spawns a goroutine per pattern; Run blocks. A Blinker never cancels
// a running pattern.
type Blinker struct {
	driver led.Driver
	sleep  func(time.Duration)
	log    *zap.Logger
	wg     sync.WaitGroup
}

// NewBlinker creates a Blinker driving the given LED. A nil sleep
// uses time.Sleep; tests inject a no-op.
func NewBlinker(driver led.Driver, sleep func(time.Duration), log *zap.Logger) *Blinker {
	if sleep == nil {
		sleep = time.Sleep
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Blinker{
		driver: driver,
		sleep:  sleep,
		log:    log,
	}
}

// Start runs the pattern on its own goroutine and returns immediately.
// The caller's thread of control is never blocked; LED errors are
// logged and the pattern carries on (feedback is best-effort).
func (b *Blinker) Start(spec Spec) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.Run(spec)
	}()
}

// Run executes the pattern to completion on the calling goroutine:
// Cycles iterations of light, wait, dark, with the inter-cycle wait
// only between cycles. Cycles <= 0 touches nothing and returns
// immediately.
func (b *Blinker) Run(spec Spec) {
	for i := 0; i < spec.Cycles; i++ {
		if i > 0 {
			b.sleep(spec.Delay)
		}
		b.set(spec.Color)
		b.sleep(spec.Delay)
		b.set(led.Black)
	}
}

// Identify runs the identify pattern to completion: three purple
// triple-blink bursts with a pause between them, LED off afterward.
func (b *Blinker) Identify() {
	for i := 0; i < 3; i++ {
		if i > 0 {
			b.sleep(identifyPause)
		}
		b.Run(identifyBurst)
	}
	b.set(led.Black)
}

// Wait blocks until every pattern started so far has finished.
// Used on shutdown and in tests.
func (b *Blinker) Wait() {
	b.wg.Wait()
}

func (b *Blinker) set(c led.Color) {
	var err error
	if c == led.Black {
		err = b.driver.Off()
	} else {
		err = b.driver.SetColor(c)
	}
	if err != nil {
		b.log.Warn("led write failed", zap.Error(err))
	}
}
