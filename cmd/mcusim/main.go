// Package main provides the entry point for mcusim.
// mcusim boots an emulated Cortex-M machine, exercises its interrupt
// stack for a number of ticks, and reports delivery statistics.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/libhal/libhal-armcortex/emu"
	"github.com/libhal/libhal-armcortex/interrupt"
	"github.com/libhal/libhal-armcortex/platform"
)

var (
	configPath = flag.String("config", "", "Path to platform configuration JSON file")
	capacity   = flag.Int("capacity", 0, "Override the configured device interrupt count")
	ticks      = flag.Uint64("ticks", 1000, "Number of machine ticks to run")
	period     = flag.Duration("period", time.Millisecond, "SysTick period")
	verbose    = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	var config *platform.Config
	if *configPath != "" {
		var err error
		config, err = platform.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading platform config: %v\n", err)
			os.Exit(1)
		}
	} else {
		config = platform.DefaultConfig()
	}
	if *capacity > 0 {
		config.DeviceInterrupts = *capacity
	}

	board, err := platform.BringUp(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error bringing up board: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("Device interrupts: %d\n", config.DeviceInterrupts)
		fmt.Printf("CPU frequency: %.0f Hz\n", config.CPUFrequencyHz)
		fmt.Printf("RAM: %d bytes\n", config.RAMBytes)
	}

	report, err := runScenario(board, *ticks, *period)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running scenario: %v\n", err)
		os.Exit(1)
	}

	printReport(report)
}

// Report is the outcome of one scenario run.
type Report struct {
	Stats      emu.Stats
	Ticks      uint64
	Callbacks  uint64
	DeviceHits uint64
}

// runScenario schedules a periodic SysTick callback, pends one device
// interrupt per SysTick expiration, and steps the machine.
func runScenario(board *platform.Board, ticks uint64, period time.Duration) (*Report, error) {
	report := &Report{Ticks: ticks}

	const button = interrupt.IRQ(7)
	board.System.Controller().Enable(button, func() {
		report.DeviceHits++
	})

	err := board.Ticker.Schedule(func() {
		report.Callbacks++
		board.System.Trigger(button)
	}, period)
	if err != nil {
		return nil, err
	}

	board.System.Run(ticks)
	board.Ticker.Close()

	report.Stats = board.System.Stats()
	return report, nil
}

func printReport(report *Report) {
	stats := report.Stats
	totalCycles := stats.Cycles
	if totalCycles == 0 {
		totalCycles = 1 // Avoid division by zero
	}

	fmt.Printf("\n")
	fmt.Printf("Ticks run: %d\n", stats.Cycles)
	fmt.Printf("SysTick expirations: %d\n", stats.SysTicks)
	fmt.Printf("Timer callbacks: %d\n", report.Callbacks)
	fmt.Printf("\n")
	fmt.Printf("Interrupt delivery:\n")
	fmt.Printf("  Device dispatched: %4d (%5.1f per 1k ticks)\n",
		stats.Dispatched, 1000.0*float64(stats.Dispatched)/float64(totalCycles))
	fmt.Printf("  Device handled:    %4d\n", report.DeviceHits)
	fmt.Printf("  Suppressed:        %4d\n", stats.Suppressed)
}
