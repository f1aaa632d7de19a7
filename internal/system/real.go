//go:build linux

package system

import (
	"fmt"
	"os"
	"syscall"
)

// RealController clears on-disk state and reboots via the kernel.
type RealController struct {
	provisioningPath string
	pairingPath      string
}

// NewRealController creates a controller for the given state paths.
func NewRealController(provisioningPath, pairingPath string) *RealController {
	return &RealController{
		provisioningPath: provisioningPath,
		pairingPath:      pairingPath,
	}
}

// ResetProvisioning removes the stored network configuration.
func (c *RealController) ResetProvisioning() error {
	if c.provisioningPath == "" {
		return nil
	}
	if err := os.RemoveAll(c.provisioningPath); err != nil {
		return fmt.Errorf("remove provisioning state: %w", err)
	}
	return nil
}

// ResetPairing removes the accessory pairing storage.
func (c *RealController) ResetPairing() error {
	if c.pairingPath == "" {
		return nil
	}
	if err := os.RemoveAll(c.pairingPath); err != nil {
		return fmt.Errorf("remove pairing storage: %w", err)
	}
	return nil
}

// Restart syncs filesystems and reboots. Requires CAP_SYS_BOOT.
func (c *RealController) Restart() error {
	syscall.Sync()
	if err := syscall.Reboot(syscall.LINUX_REBOOT_CMD_RESTART); err != nil {
		return fmt.Errorf("reboot: %w", err)
	}
	return nil
}
