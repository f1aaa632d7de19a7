//go:build !linux

package button

import (
	"errors"

	"github.com/bitsplusatoms/hkbutton/internal/logic"
)

// Watcher is not available on non-Linux platforms.
type Watcher struct{}

// NewWatcher returns an error on non-Linux platforms.
func NewWatcher(chip string, pin int, cfg Config, emit func(logic.Gesture)) (*Watcher, error) {
	return nil, errors.New("button: not supported on this platform (requires Linux)")
}

// Close is not implemented on non-Linux platforms.
func (w *Watcher) Close() error {
	return nil
}
