package system

import "sync"

// FakeController records reset calls for test assertions.
// Safe for concurrent use: the reset action may run on its own
// goroutine.
type FakeController struct {
	mu sync.Mutex

	provisioningResets int
	pairingResets      int
	restarts           int

	// Calls records the primitive names in invocation order.
	calls []string

	// ProvisioningError, PairingError and RestartError, if set, are
	// returned by the corresponding primitive.
	ProvisioningError error
	PairingError      error
	RestartError      error
}

// NewFakeController creates a FakeController.
func NewFakeController() *FakeController {
	return &FakeController{}
}

// ResetProvisioning records the call.
func (f *FakeController) ResetProvisioning() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.provisioningResets++
	f.calls = append(f.calls, "provisioning")
	return f.ProvisioningError
}

// ResetPairing records the call.
func (f *FakeController) ResetPairing() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pairingResets++
	f.calls = append(f.calls, "pairing")
	return f.PairingError
}

// Restart records the call.
func (f *FakeController) Restart() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restarts++
	f.calls = append(f.calls, "restart")
	return f.RestartError
}

// Restarts returns how many times Restart was called.
func (f *FakeController) Restarts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.restarts
}

// ProvisioningResets returns how many times ResetProvisioning was called.
func (f *FakeController) ProvisioningResets() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.provisioningResets
}

// PairingResets returns how many times ResetPairing was called.
func (f *FakeController) PairingResets() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pairingResets
}

// Calls returns the primitive names in invocation order.
func (f *FakeController) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}
