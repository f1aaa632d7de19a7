// Package system performs the irreversible parts of a factory reset:
// clearing provisioning state, clearing pairing storage, and
// restarting the device.
package system

// Controller exposes the reset primitives. The real implementation
// touches the filesystem and reboots; tests use FakeController.
type Controller interface {
	// ResetProvisioning clears the stored network configuration.
	ResetProvisioning() error

	// ResetPairing clears the accessory pairing storage.
	ResetPairing() error

	// Restart reboots the device. On success it does not return.
	Restart() error
}
