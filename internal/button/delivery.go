package button

import (
	"sync"
	"time"

	"github.com/bitsplusatoms/hkbutton/internal/logic"
)

// delivery owns the classifier for one pin and serializes gesture
// delivery. Classification and the emit callback run under one mutex,
// so the callback sees gestures in classification order even when
// edges and window-close ticks race. The callback must return
// quickly; long work belongs on another goroutine.
type delivery struct {
	mu         sync.Mutex
	classifier *Classifier
	emit       func(logic.Gesture)
}

func newDelivery(cfg Config, emit func(logic.Gesture)) *delivery {
	return &delivery{
		classifier: NewClassifier(cfg),
		emit:       emit,
	}
}

func (d *delivery) edge(pressed bool, now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if g := d.classifier.Process(Edge{Pressed: pressed, Time: now}); g != nil {
		d.emit(*g)
	}
}

func (d *delivery) tick(now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if g := d.classifier.Tick(now); g != nil {
		d.emit(*g)
	}
}
