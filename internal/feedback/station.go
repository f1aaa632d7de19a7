package feedback

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bitsplusatoms/hkbutton/internal/led"
)

// StationIndicator repeats the "awaiting provisioning" blink pattern
// until stopped. At most one instance runs at a time: Start while
// running is a no-op, Stop while idle is a no-op. Stop guarantees the
// LED is off by the time it returns.
type StationIndicator struct {
	driver led.Driver
	sleep  func(d time.Duration, cancel <-chan struct{}) bool
	log    *zap.Logger

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewStationIndicator creates a stopped indicator. A nil sleep uses a
// real cancellable timer; tests inject an instant one.
func NewStationIndicator(driver led.Driver, sleep func(time.Duration, <-chan struct{}) bool, log *zap.Logger) *StationIndicator {
	if sleep == nil {
		sleep = timerSleep
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &StationIndicator{
		driver: driver,
		sleep:  sleep,
		log:    log,
	}
}

// Start begins the indefinite pattern on its own goroutine. Calling
// Start while the indicator is already running does nothing.
func (s *StationIndicator) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(s.stop, s.done)
	s.log.Info("station mode indicator started")
}

// Stop cancels the running pattern, waits for its goroutine to exit,
// and turns the LED off. Safe to call when the indicator is idle.
func (s *StationIndicator) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop == nil {
		return
	}
	close(s.stop)
	<-s.done
	s.stop = nil
	s.done = nil
	// The goroutine has exited, so nothing can re-light the LED
	// behind this write.
	if err := s.driver.Off(); err != nil {
		s.log.Warn("led off failed", zap.Error(err))
	}
	s.log.Info("station mode indicator stopped")
}

// Running reports whether the indicator is currently active.
func (s *StationIndicator) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop != nil
}

func (s *StationIndicator) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		for i := 0; i < stationBurst.Cycles; i++ {
			if i > 0 && !s.sleep(stationBurst.Delay, stop) {
				return
			}
			s.set(stationBurst.Color)
			if !s.sleep(stationBurst.Delay, stop) {
				return
			}
			s.set(led.Black)
		}
		if !s.sleep(stationPause, stop) {
			return
		}
	}
}

func (s *StationIndicator) set(c led.Color) {
	var err error
	if c == led.Black {
		err = s.driver.Off()
	} else {
		err = s.driver.SetColor(c)
	}
	if err != nil {
		s.log.Warn("led write failed", zap.Error(err))
	}
}

// timerSleep waits for d or until cancel is closed, returning false
// when cancelled.
func timerSleep(d time.Duration, cancel <-chan struct{}) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-cancel:
		return false
	}
}
