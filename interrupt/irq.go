// Package interrupt manages the Cortex-M interrupt vector table and the
// NVIC enable state behind it.
//
// A vector table is a contiguous block of handler slots, one per IRQ
// number. Negative IRQ numbers are the 16 fixed core exceptions that open
// every table; device interrupts count up from zero. The table and the
// NVIC are process-wide hardware state, so the usual access path is the
// package-level functions, which drive a single controller bound to the
// live registers. Host-side code builds its own Controller around stubbed
// register views instead.
package interrupt

// IRQ identifies an interrupt request. Values in [-16, -1] are the core
// exceptions; values >= 0 are device interrupts, bounded only by the
// microcontroller's vector table length.
type IRQ int16

// Core exception IRQ numbers. This range is fixed and identical across
// all Cortex-M processors.
const (
	TopOfStack           IRQ = -16
	Reset                IRQ = -15
	NonMaskableInterrupt IRQ = -14
	HardFault            IRQ = -13
	MemManageFault       IRQ = -12
	BusFault             IRQ = -11
	UsageFault           IRQ = -10
	SoftwareCall         IRQ = -5
	PendSV               IRQ = -2
	SysTick              IRQ = -1
)

// CoreCount is the number of core exception slots at the front of every
// vector table.
const CoreCount = 16

// Index returns the storage slot for the IRQ: slot 0 belongs to
// TopOfStack, so device interrupt n lives at n+16. VTOR points at slot 0,
// which is the same arithmetic the hardware applies on a trap.
func (i IRQ) Index() int {
	return int(i) + CoreCount
}

// Num is satisfied by IRQ and by any device-specific interrupt
// enumeration whose underlying representation is int16.
type Num interface{ ~int16 }
