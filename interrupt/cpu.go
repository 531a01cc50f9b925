package interrupt

// CPU is the processor-level capability the controller needs beyond the
// memory-mapped registers: the global interrupt mask and the low-power
// wait instructions.
type CPU interface {
	// DisableInterrupts masks all maskable interrupts (CPSID i).
	DisableInterrupts()
	// EnableInterrupts lifts the global mask again (CPSIE i).
	EnableInterrupts()
	// WaitForInterrupt executes WFI or the closest host equivalent.
	WaitForInterrupt()
	// WaitForEvent executes WFE or the closest host equivalent.
	WaitForEvent()
}

// MaskCounter is a host-side CPU that tracks how many times the mask has
// been set without an intervening clear, so tests and the emulator can
// observe the disable/update/enable bracket around table swaps. Hardware
// targets install their own CPU with WithCPU.
type MaskCounter struct {
	depth int
}

// DisableInterrupts sets the mask (CPSID i). Repeated calls deepen the
// observable count without changing the masked state.
func (m *MaskCounter) DisableInterrupts() {
	m.depth++
}

// EnableInterrupts clears the mask (CPSIE i). Like the instruction it
// models, it is absolute: one call unmasks no matter how many disables
// preceded it.
func (m *MaskCounter) EnableInterrupts() {
	m.depth = 0
}

// Masked reports whether interrupts are currently masked.
func (m *MaskCounter) Masked() bool {
	return m.depth > 0
}

// WaitForInterrupt is a no-op on the host.
func (m *MaskCounter) WaitForInterrupt() {}

// WaitForEvent is a no-op on the host.
func (m *MaskCounter) WaitForEvent() {}
