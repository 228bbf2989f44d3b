package rigid

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	c := DefaultConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("DefaultConfig invalid: %v", err)
	}
	if c.Gravity() != (Vec2{0, 9.8}) {
		t.Errorf("Gravity = %v", c.Gravity())
	}
}

func TestParseConfigOverridesDefaults(t *testing.T) {
	c, err := ParseConfig([]byte(`
GravityY = 20.0
WorldWidth = 2048.0
Debug = true
`))
	if err != nil {
		t.Fatal(err)
	}
	if c.GravityY != 20 || c.WorldWidth != 2048 || !c.Debug {
		t.Errorf("parsed = %+v", c)
	}
	if c.WorldHeight != 768 || c.TickMillis != 16 || !c.ParallaxEnabled {
		t.Errorf("defaults lost: %+v", c)
	}
}

func TestParseConfigErrors(t *testing.T) {
	if _, err := ParseConfig([]byte("GravityY = ")); err == nil {
		t.Error("malformed TOML accepted")
	}
	_, err := ParseConfig([]byte("TickMillis = 0"))
	if !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("err = %v, want ErrInvalidParameter", err)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rigid.toml")
	if err := os.WriteFile(path, []byte("GravityX = -1.5\nParallaxEnabled = false\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.GravityX != -1.5 || c.ParallaxEnabled {
		t.Errorf("loaded = %+v", c)
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file err = %v, want os.ErrNotExist", err)
	}
}

func TestConfigValidate(t *testing.T) {
	c := DefaultConfig()
	c.WorldHeight = 0
	if err := c.Validate(); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("zero world err = %v", err)
	}
}
