package regs

// SysTickRegisters is the SysTick timer register block.
type SysTickRegisters struct {
	// Control is the control and status register. Offset 0x000.
	Control uint32
	// Reload is the value loaded into Current when it falls from 1 to 0.
	// Only the low 24 bits are implemented. Offset 0x004.
	Reload uint32
	// Current is the live countdown value. Writing any value zeroes it
	// without firing the interrupt. Offset 0x008.
	Current uint32
	// Calib is the read-only calibration value register. Offset 0x00C.
	Calib uint32
}

// SysTick control register bits.
const (
	// SysTickEnableCounter starts the countdown when set and parks the
	// counter when cleared.
	SysTickEnableCounter uint32 = 1 << 0
	// SysTickEnableInterrupt fires the SysTick exception whenever the
	// count falls from 1 to 0.
	SysTickEnableInterrupt uint32 = 1 << 1
	// SysTickClockSourceCPU selects the processor clock; cleared, the
	// counter follows the platform's external reference clock.
	SysTickClockSourceCPU uint32 = 1 << 2
	// SysTickCountFlag is set when the count reaches zero and cleared by
	// the next read of the control register.
	SysTickCountFlag uint32 = 1 << 16
)
