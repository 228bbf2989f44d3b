package rigid

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config holds the parameters an Engine starts with.
type Config struct {
	// Gravity is applied as a force to every body not resting on a platform.
	GravityX float32
	GravityY float32

	// World size. The spatial index covers (0, 0, WorldWidth, WorldHeight)
	// and layer surfaces are created at this size.
	WorldWidth  float32
	WorldHeight float32

	// TickMillis is the clock period Run starts with.
	TickMillis int

	// ParallaxEnabled turns layer offset updates on.
	ParallaxEnabled bool

	// Debug prints per-tick phase timings to stderr.
	Debug bool
}

// DefaultConfig returns the default parameters: earth-like downward gravity
// on a 1024x768 world ticking at 60 Hz.
func DefaultConfig() Config {
	return Config{
		GravityX:        0,
		GravityY:        9.8,
		WorldWidth:      1024,
		WorldHeight:     768,
		TickMillis:      16,
		ParallaxEnabled: true,
	}
}

// ParseConfig decodes TOML data on top of DefaultConfig. Keys absent from
// data keep their default value.
func ParseConfig(data []byte) (Config, error) {
	conf := DefaultConfig()
	if _, err := toml.Decode(string(data), &conf); err != nil {
		return conf, fmt.Errorf("rigid: parse config: %w", err)
	}
	return conf, conf.Validate()
}

// LoadConfig reads the TOML file at path on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	// config file overwrites default parameters
	conf := DefaultConfig()
	if _, err := toml.DecodeFile(path, &conf); err != nil {
		return conf, fmt.Errorf("rigid: load config %s: %w", path, err)
	}
	return conf, conf.Validate()
}

// Validate checks that the world is non-empty and the tick period positive.
func (c Config) Validate() error {
	if !(c.WorldWidth > 0) || !(c.WorldHeight > 0) {
		return invalidParam("world size %gx%g must be positive", c.WorldWidth, c.WorldHeight)
	}
	if c.TickMillis <= 0 {
		return invalidParam("tick period %dms must be positive", c.TickMillis)
	}
	if !(Vec2{c.GravityX, c.GravityY}).IsFinite() {
		return invalidParam("gravity (%g, %g) must be finite", c.GravityX, c.GravityY)
	}
	return nil
}

// Gravity returns the configured gravity vector.
func (c Config) Gravity() Vec2 {
	return Vec2{c.GravityX, c.GravityY}
}
