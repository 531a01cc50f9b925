// Package platform performs board bring-up for an emulated Cortex-M
// machine: it decides the interrupt capacity, initializes the vector
// table before any driver exists, and then constructs the drivers that
// depend on it.
package platform

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config describes one microcontroller platform.
type Config struct {
	// DeviceInterrupts is the number of peripheral interrupts the part
	// implements beyond the 16 core exceptions. Must be > 0.
	DeviceInterrupts int `json:"device_interrupts"`

	// CPUFrequencyHz is the operating frequency fed to the SysTick and
	// DWT drivers. Must be > 0.
	CPUFrequencyHz float64 `json:"cpu_frequency_hz"`

	// SysTickOnCPUClock selects the processor clock for the SysTick
	// counter; false follows the external reference clock.
	SysTickOnCPUClock bool `json:"systick_on_cpu_clock"`

	// RAMBytes sizes the emulated RAM. Must be > 0.
	RAMBytes uint64 `json:"ram_bytes"`
}

// DefaultConfig models a generic mid-range Cortex-M4 part.
func DefaultConfig() *Config {
	return &Config{
		DeviceInterrupts:  42,
		CPUFrequencyHz:    96_000_000,
		SysTickOnCPUClock: true,
		RAMBytes:          1 << 20, // 1MB
	}
}

// LoadConfig loads a Config from a JSON file. Missing fields keep their
// defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read platform config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse platform config: %w", err)
	}

	return config, nil
}

// SaveConfig writes the Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize platform config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write platform config file: %w", err)
	}

	return nil
}

// Validate checks the config against the constraints above.
func (c *Config) Validate() error {
	if c.DeviceInterrupts <= 0 {
		return fmt.Errorf("device_interrupts must be > 0")
	}
	if c.CPUFrequencyHz <= 0 {
		return fmt.Errorf("cpu_frequency_hz must be > 0")
	}
	if c.RAMBytes == 0 {
		return fmt.Errorf("ram_bytes must be > 0")
	}
	return nil
}
