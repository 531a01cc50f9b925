// Package systick drives the Cortex-M SysTick timer as a one-shot
// scheduler for a caller-supplied callback. The peripheral exists on
// every Cortex-M part, which makes it the portable choice for a platform
// tick.
package systick

import (
	"errors"
	"time"

	"github.com/libhal/libhal-armcortex/interrupt"
	"github.com/libhal/libhal-armcortex/regs"
)

// ClockSource selects what clocks the SysTick counter.
type ClockSource uint8

const (
	// External follows the platform-defined external reference clock.
	// What that clock is depends on the part and board configuration.
	External ClockSource = iota
	// Processor follows the CPU clock.
	Processor
)

// ErrNotPermitted is returned when a Timer is constructed before the
// interrupt vector table is initialized. The driver cannot install its
// tick handler into a table that does not exist yet.
var ErrNotPermitted = errors.New("systick: interrupt vector table is not initialized")

// ErrDelayTooLong is returned when a requested delay does not fit the
// 24-bit reload register at the current clock frequency.
var ErrDelayTooLong = errors.New("systick: delay exceeds the 24-bit reload range")

// maxReload is the largest value the reload register implements.
const maxReload = 0x00FFFFFF

// Timer is the SysTick driver. One instance owns the peripheral.
type Timer struct {
	regs      *regs.SysTickRegisters
	ctl       *interrupt.Controller
	frequency float64
	source    ClockSource
}

// Option configures a Timer.
type Option func(*Timer)

// WithRegisters replaces the SysTick register view.
func WithRegisters(r *regs.SysTickRegisters) Option {
	return func(t *Timer) {
		t.regs = r
	}
}

// WithController replaces the interrupt controller the handler is
// installed through.
func WithController(c *interrupt.Controller) Option {
	return func(t *Timer) {
		t.ctl = c
	}
}

// New constructs the SysTick driver for a clock source running at
// frequency hertz. The interrupt vector table must already be
// initialized; construction is refused with ErrNotPermitted otherwise.
func New(frequency float64, source ClockSource, opts ...Option) (*Timer, error) {
	t := &Timer{
		regs:      regs.SysTick,
		ctl:       interrupt.Default(),
		frequency: frequency,
		source:    source,
	}

	for _, opt := range opts {
		opt(t)
	}

	if !t.ctl.Initialized() {
		return nil, ErrNotPermitted
	}

	t.RegisterCPUFrequency(frequency, source)

	return t, nil
}

// RegisterCPUFrequency reprograms the timer for a new clock frequency.
// Use it when the CPU's operating frequency changes after construction.
// Any scheduled callback is abandoned, since its deadline is no longer
// meaningful.
func (t *Timer) RegisterCPUFrequency(frequency float64, source ClockSource) {
	t.stop()
	t.frequency = frequency
	t.source = source

	// Reloads only happen when the count falls from 1 to 0, so zeroing
	// the live value keeps the counter parked until Schedule restarts it.
	t.regs.Current = 0

	control := regs.SysTickEnableInterrupt
	if source == Processor {
		control |= regs.SysTickClockSourceCPU
	}
	t.regs.Control = control
}

// IsRunning reports whether the countdown is active.
func (t *Timer) IsRunning() bool {
	return t.regs.Control&regs.SysTickEnableCounter != 0
}

// Cancel stops the countdown. Schedule reloads the counter, so nothing
// else needs resetting.
func (t *Timer) Cancel() {
	t.stop()
}

// Schedule arms the timer to run callback once after delay. Calling it
// from inside the currently executing callback is safe and is how a
// periodic timer is built. Delays below one counter cycle round up to
// one; delays past the 24-bit reload range fail with ErrDelayTooLong.
func (t *Timer) Schedule(callback func(), delay time.Duration) error {
	cycles := int64(delay.Seconds() * t.frequency)
	if cycles <= 1 {
		cycles = 1
	} else if cycles > maxReload {
		return ErrDelayTooLong
	}

	t.stop()

	// The slot for the SysTick exception always exists, so this cannot
	// be an invalid request once construction has checked Initialized.
	t.ctl.Enable(interrupt.SysTick, callback)

	t.regs.Current = 0
	t.regs.Reload = uint32(cycles)
	t.start()

	return nil
}

// Close parks the counter. The SysTick exception cannot be masked at the
// NVIC, but a parked counter never fires it.
func (t *Timer) Close() {
	t.stop()
}

func (t *Timer) start() {
	t.regs.Control |= regs.SysTickEnableCounter
}

func (t *Timer) stop() {
	t.regs.Control &^= regs.SysTickEnableCounter
}
