// Package led provides indicator LED output with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package led

// Color is a 24-bit RGB color. Mono LEDs render any color other than
// Black as simply on; the distinction still matters for addressable
// LEDs and for naming patterns.
type Color uint32

const (
	Black  Color = 0x000000
	White  Color = 0xFFFFFF
	Red    Color = 0xFF0000
	Green  Color = 0x00FF00
	Blue   Color = 0x0000FF
	Yellow Color = 0xFFFF00
	Purple Color = 0xB603FC
	Orange Color = 0xFCB103
)

// Driver drives the indicator LED.
type Driver interface {
	// SetColor lights the LED. On a mono LED any color other than
	// Black means on.
	SetColor(c Color) error

	// Off turns the LED off.
	Off() error

	// Close turns the LED off and releases GPIO resources.
	Close() error
}

// DefaultPin is the indicator LED pin (BCM numbering).
const DefaultPin = 17
