package atlas

import "errors"

// Layer size limits.
const (
	// MinSize is the smallest layer side length.
	MinSize = 256

	// MaxSize is the largest layer side length accepted by Config.
	MaxSize = 1 << 15

	// DefaultPadding is the gap kept right of and below each rectangle.
	DefaultPadding = 1

	// maxLayerCount bounds layers so a layer index fits in AllocID.
	maxLayerCount = 1 << 16
)

// Config holds atlas allocator parameters.
type Config struct {
	// InitialSize is the side length of the first layer.
	InitialSize int

	// MaxDimension caps layer side length. Growth past it adds layers.
	// Callers usually clamp it to the device's MaxTextureDimension2D.
	MaxDimension int

	// Padding is the gap kept right of and below each rectangle.
	Padding int

	// MaxLayers caps the number of layers. Zero means no cap beyond
	// the 65536 layers addressable by AllocID.
	MaxLayers int
}

// DefaultConfig returns the default allocator configuration.
func DefaultConfig() Config {
	return Config{
		InitialSize:  MinSize,
		MaxDimension: MaxSize,
		Padding:      DefaultPadding,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.InitialSize < 1 {
		return &ConfigError{Field: "InitialSize", Reason: "must be positive"}
	}
	if c.MaxDimension < c.InitialSize {
		return &ConfigError{Field: "MaxDimension", Reason: "must be at least InitialSize"}
	}
	if c.MaxDimension > MaxSize {
		return &ConfigError{Field: "MaxDimension", Reason: "must be at most 32768"}
	}
	if c.Padding < 0 {
		return &ConfigError{Field: "Padding", Reason: "must be non-negative"}
	}
	if c.Padding >= c.InitialSize {
		return &ConfigError{Field: "Padding", Reason: "must be less than InitialSize"}
	}
	if c.MaxLayers < 0 || c.MaxLayers > maxLayerCount {
		return &ConfigError{Field: "MaxLayers", Reason: "must be in [0, 65536]"}
	}
	return nil
}

func (c *Config) layerCap() int {
	if c.MaxLayers == 0 {
		return maxLayerCount
	}
	return c.MaxLayers
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "atlas: invalid config." + e.Field + ": " + e.Reason
}

// Sentinel errors.
var (
	// ErrInvalidSize is returned for a non-positive rectangle size.
	ErrInvalidSize = errors.New("atlas: rectangle size must be positive")

	// ErrTooLarge is returned when a rectangle dimension exceeds MaxDimension.
	ErrTooLarge = errors.New("atlas: rectangle exceeds max dimension")

	// ErrNotAllocated is returned when removing an id that is not live,
	// including a second removal of the same id.
	ErrNotAllocated = errors.New("atlas: allocation not live")

	// ErrOutOfSpace is returned when growth cannot satisfy a request.
	ErrOutOfSpace = errors.New("atlas: out of texture space")
)
