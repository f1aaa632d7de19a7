//go:build !linux

package system

import "errors"

// RealController is not available on non-Linux platforms.
type RealController struct{}

// NewRealController returns a stub on non-Linux platforms.
func NewRealController(provisioningPath, pairingPath string) *RealController {
	return &RealController{}
}

// ResetProvisioning is not implemented on non-Linux platforms.
func (c *RealController) ResetProvisioning() error {
	return errors.New("system: not supported on this platform (requires Linux)")
}

// ResetPairing is not implemented on non-Linux platforms.
func (c *RealController) ResetPairing() error {
	return errors.New("system: not supported")
}

// Restart is not implemented on non-Linux platforms.
func (c *RealController) Restart() error {
	return errors.New("system: not supported")
}
