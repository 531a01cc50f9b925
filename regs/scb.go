package regs

// SCBRegisters is the System Control Block register block.
type SCBRegisters struct {
	// CPUID is the read-only CPUID base register. Offset 0x000.
	CPUID uint32
	// ICSR is the interrupt control and state register. Offset 0x004.
	ICSR uint32
	// VTOR holds the physical address the processor reads the vector
	// table from on any trap. Offset 0x008. The field is pointer-width
	// rather than uint32 so the same view holds a 64-bit table address
	// on host builds; on a 32-bit target the layout is unchanged.
	VTOR uintptr
	// AIRCR is the application interrupt and reset control register.
	AIRCR uint32
	// SCR is the system control register.
	SCR uint32
	// CCR is the configuration control register.
	CCR uint32
	// SHP holds the system handler priority bytes (handlers 4..15).
	SHP [12]uint8
	// SHCSR is the system handler control and state register.
	SHCSR uint32
	// CFSR is the configurable fault status register.
	CFSR uint32
	// HFSR is the HardFault status register.
	HFSR uint32
	// DFSR is the debug fault status register.
	DFSR uint32
	// MMFAR is the MemManage fault address register.
	MMFAR uint32
	// BFAR is the BusFault address register.
	BFAR uint32
	// AFSR is the auxiliary fault status register.
	AFSR uint32
	// PFR, DFR, ADR, MMFR and ISAR are the read-only feature registers.
	PFR  [2]uint32
	DFR  uint32
	ADR  uint32
	MMFR [4]uint32
	ISAR [5]uint32
	_    [5]uint32
	// CPACR is the coprocessor access control register.
	CPACR uint32
}

// AIRCR fields. Writes to AIRCR are ignored unless the VECTKEY value is
// present in bits [31:16].
const (
	aircrVectKey     = 0x5FA << 16
	aircrSysResetReq = 1 << 2
)

// ICSRPendSTSet is the ICSR bit that latches a pending SysTick
// exception.
const ICSRPendSTSet uint32 = 1 << 26

// RequestReset asks the processor for a system reset through AIRCR. The
// reset is asynchronous, so hardware callers must halt afterwards and
// wait for it to take effect.
func (s *SCBRegisters) RequestReset() {
	s.AIRCR = aircrVectKey | aircrSysResetReq
}
