package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"
)

type Bus struct {
	Name  string `yaml:"name"`  // i2creg name, "" = first bus
	Addr  uint16 `yaml:"addr"`  // e.g. 0x74
	Speed string `yaml:"speed"` // e.g. 400kHz, "" = leave as is
}

// Frequency parses Speed. An empty Speed returns 0.
func (b Bus) Frequency() (physic.Frequency, error) {
	var f physic.Frequency
	if b.Speed == "" {
		return 0, nil
	}
	if err := f.Set(b.Speed); err != nil {
		return 0, fmt.Errorf("bus speed %q: %w", b.Speed, err)
	}
	return f, nil
}

type Config struct {
	Driver       string `yaml:"driver"` // "i2c" | "sim"
	Bus          Bus    `yaml:"bus"`
	Frame        uint8  `yaml:"frame"`
	DisplayFrame *uint8 `yaml:"display_frame,omitempty"` // nil = leave the shown frame as is
	FPS          int    `yaml:"fps"`
}

// Default returns the configuration for an Adafruit breakout on the first bus.
func Default() *Config {
	return &Config{
		Driver: "i2c",
		Bus:    Bus{Addr: 0x74, Speed: "400kHz"},
		FPS:    10,
	}
}

// Load reads path over Default, so missing keys keep their default value.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
