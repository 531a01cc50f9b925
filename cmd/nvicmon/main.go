// Package main provides nvicmon, an interactive monitor for the
// emulated interrupt controller. Keys drive the NVIC directly: select an
// IRQ with digits, enable, disable and pend it, and step the machine to
// watch deliveries happen.
package main

import (
	"flag"
	"fmt"
	"os"

	tty "github.com/mattn/go-tty"

	"github.com/libhal/libhal-armcortex/interrupt"
	"github.com/libhal/libhal-armcortex/platform"
)

var (
	configPath = flag.String("config", "", "Path to platform configuration JSON file")
	step       = flag.Uint64("step", 10, "Ticks to run per step key")
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

	board, err := platform.BringUp(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error bringing up board: %v\n", err)
		os.Exit(1)
	}

	ttyObj, err := tty.Open()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening terminal: %v\n", err)
		os.Exit(1)
	}
	defer ttyObj.Close()
	restore := ttyObj.MustRaw()
	defer restore()

	monitor(board, ttyObj)
}

// irqSelector accumulates digit keys into an IRQ number. A digit typed
// after any command starts a fresh number, so "3 e 7 e" selects 3 and
// then 7 rather than 37.
type irqSelector struct {
	limit    int
	selected interrupt.IRQ
	typing   bool
}

// digit folds one digit key into the selection and returns it. A number
// growing past the device interrupt count restarts from the new digit.
func (s *irqSelector) digit(r rune) interrupt.IRQ {
	d := interrupt.IRQ(r - '0')

	next := d
	if s.typing {
		next = s.selected*10 + d
	}
	if int(next) >= s.limit {
		next = d
	}
	if int(next) < s.limit {
		s.selected = next
	}
	s.typing = true

	return s.selected
}

// commit ends the current number entry and returns the selection.
func (s *irqSelector) commit() interrupt.IRQ {
	s.typing = false
	return s.selected
}

// monitor runs the key loop. The terminal is raw, so output lines end in
// \r\n.
func monitor(board *platform.Board, ttyObj *tty.TTY) {
	delivered := map[interrupt.IRQ]uint64{}
	sel := &irqSelector{limit: board.Config.DeviceInterrupts}

	fmt.Printf("nvicmon: %d device interrupts\r\n", board.Config.DeviceInterrupts)
	fmt.Printf("keys: 0-9 select, e enable, d disable, t trigger, s step, p print, q quit\r\n")

	for {
		r, err := ttyObj.ReadRune()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading key: %v\r\n", err)
			return
		}

		switch {
		case r >= '0' && r <= '9':
			fmt.Printf("IRQ %d selected\r\n", sel.digit(r))

		case r == 'e':
			irq := sel.commit()
			board.System.Controller().Enable(irq, func() {
				delivered[irq]++
			})
			fmt.Printf("IRQ %d enabled\r\n", irq)

		case r == 'd':
			irq := sel.commit()
			board.System.Controller().Disable(irq)
			fmt.Printf("IRQ %d disabled\r\n", irq)

		case r == 't':
			irq := sel.commit()
			board.System.Trigger(irq)
			fmt.Printf("IRQ %d pended\r\n", irq)

		case r == 's':
			sel.commit()
			board.System.Run(*step)
			stats := board.System.Stats()
			fmt.Printf("ran %d ticks, %d dispatched total\r\n",
				*step, stats.Dispatched)

		case r == 'p':
			printStatus(board, delivered, sel.commit())

		case r == 'q':
			fmt.Printf("bye\r\n")
			return
		}
	}
}

func printStatus(board *platform.Board, delivered map[interrupt.IRQ]uint64, selected interrupt.IRQ) {
	stats := board.System.Stats()
	fmt.Printf("selected IRQ: %d\r\n", selected)
	fmt.Printf("cycles: %d, dispatched: %d, suppressed: %d\r\n",
		stats.Cycles, stats.Dispatched, stats.Suppressed)
	for irq, count := range delivered {
		fmt.Printf("  IRQ %d: delivered %d\r\n", irq, count)
	}
}
