package regs

// NVICRegisters is the Nested Vectored Interrupt Controller register
// block. The enable, pending and active arrays carry one bit per device
// interrupt, grouped in 32-bit words: word = irq / 32, bit = irq % 32.
// The set/clear register pairs use write-1-to-act semantics; writing 0
// has no effect.
type NVICRegisters struct {
	// ISER is the interrupt set-enable bit array. Offset 0x000.
	ISER [8]uint32
	_    [24]uint32
	// ICER is the interrupt clear-enable bit array. Offset 0x080.
	ICER [8]uint32
	_    [24]uint32
	// ISPR is the interrupt set-pending bit array. Offset 0x100.
	ISPR [8]uint32
	_    [24]uint32
	// ICPR is the interrupt clear-pending bit array. Offset 0x180.
	ICPR [8]uint32
	_    [24]uint32
	// IABR is the read-only interrupt active bit array. Offset 0x200.
	IABR [8]uint32
	_    [56]uint32
	// IP holds one 8-bit priority per device interrupt. Offset 0x300.
	IP [240]uint8
	_  [644]uint32
	// STIR is the software trigger interrupt register. Offset 0xE00.
	STIR uint32
}
