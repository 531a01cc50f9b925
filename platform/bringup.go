package platform

import (
	"fmt"

	"github.com/libhal/libhal-armcortex/dwt"
	"github.com/libhal/libhal-armcortex/emu"
	"github.com/libhal/libhal-armcortex/systick"
)

// Board is everything bring-up constructs.
type Board struct {
	// System is the emulated machine.
	System *emu.System
	// Ticker is the SysTick driver, constructed after the vector table.
	Ticker *systick.Timer
	// Clock is the DWT cycle counter.
	Clock *dwt.Counter
	// Config is the configuration the board was built from.
	Config *Config
}

// BringUp boots an emulated machine in the order real bring-up has to
// happen: the interrupt vector table first, then every driver that
// depends on it.
func BringUp(config *Config) (*Board, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("platform: %w", err)
	}

	system := emu.NewSystem(emu.WithRAMSize(config.RAMBytes))
	system.Controller().Initialize(config.DeviceInterrupts)

	source := systick.External
	if config.SysTickOnCPUClock {
		source = systick.Processor
	}

	ticker, err := systick.New(config.CPUFrequencyHz, source,
		systick.WithRegisters(system.SysTick),
		systick.WithController(system.Controller()),
	)
	if err != nil {
		return nil, fmt.Errorf("platform: systick: %w", err)
	}

	clock := dwt.New(config.CPUFrequencyHz,
		dwt.WithRegisters(system.DWT),
		dwt.WithCoreDebug(system.Core),
	)

	return &Board{
		System: system,
		Ticker: ticker,
		Clock:  clock,
		Config: config,
	}, nil
}
