// Package dwt exposes the Data Watchpoint and Trace unit's cycle counter
// as a steady clock with a frequency fixed to the CPU clock. Available on
// Cortex-M3 parts and above.
package dwt

import "github.com/libhal/libhal-armcortex/regs"

// Counter reads CPU cycles from the DWT and widens the 32-bit hardware
// count to 64 bits.
type Counter struct {
	dwt       *regs.DWTRegisters
	core      *regs.CoreDebugRegisters
	frequency float64
	uptime    overflowCounter
}

// Option configures a Counter.
type Option func(*Counter)

// WithRegisters replaces the DWT register view.
func WithRegisters(r *regs.DWTRegisters) Option {
	return func(c *Counter) {
		c.dwt = r
	}
}

// WithCoreDebug replaces the core debug register view.
func WithCoreDebug(r *regs.CoreDebugRegisters) Option {
	return func(c *Counter) {
		c.core = r
	}
}

// New constructs the counter for a CPU running at frequency hertz and
// starts it counting from zero. The trace blocks are powered on first;
// without DEMCR's trace enable the cycle counter never advances.
func New(frequency float64, opts ...Option) *Counter {
	c := &Counter{
		dwt:       regs.DWT,
		core:      regs.CoreDebug,
		frequency: frequency,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.core.DEMCR |= regs.DemcrTraceEnable
	c.dwt.CycCnt = 0
	c.dwt.Ctrl |= regs.DwtCtrlCycCntEnable

	return c
}

// RegisterCPUFrequency updates the frequency reported alongside uptime.
// Use it when the CPU's operating frequency changes after construction.
func (c *Counter) RegisterCPUFrequency(frequency float64) {
	c.frequency = frequency
}

// Uptime returns the cycles counted since construction. Call it at least
// once per counter wrap (2^32 cycles) or the 64-bit count loses wraps.
func (c *Counter) Uptime() uint64 {
	return c.uptime.update(c.dwt.CycCnt)
}

// Frequency returns the counter's operating frequency in hertz.
func (c *Counter) Frequency() float64 {
	return c.frequency
}

// overflowCounter stitches successive 32-bit counter reads into a 64-bit
// count by treating a backwards read as one wraparound.
type overflowCounter struct {
	last  uint32
	wraps uint64
}

func (o *overflowCounter) update(now uint32) uint64 {
	if now < o.last {
		o.wraps++
	}
	o.last = now
	return o.wraps<<32 | uint64(now)
}
