package regs

// DWTRegisters is the Data Watchpoint and Trace register block.
type DWTRegisters struct {
	// Ctrl is the control register. Offset 0x000.
	Ctrl uint32
	// CycCnt counts CPU cycles while enabled, wrapping at 32 bits.
	CycCnt uint32
	// CPICnt is the CPI overhead counter.
	CPICnt uint32
	// ExcCnt is the exception overhead counter.
	ExcCnt uint32
	// SleepCnt is the sleep cycle counter.
	SleepCnt uint32
	// LSUCnt is the load/store overhead counter.
	LSUCnt uint32
	// FoldCnt is the folded-instruction counter.
	FoldCnt uint32
	// PCSR is the read-only program counter sample register.
	PCSR uint32
	// Comparator register banks 0..3.
	Comp0     uint32
	Mask0     uint32
	Function0 uint32
	_         uint32
	Comp1     uint32
	Mask1     uint32
	Function1 uint32
	_         uint32
	Comp2     uint32
	Mask2     uint32
	Function2 uint32
	_         uint32
	Comp3     uint32
	Mask3     uint32
	Function3 uint32
}

// CoreDebugRegisters is the core debug register block.
type CoreDebugRegisters struct {
	// DHCSR is the debug halting control and status register.
	DHCSR uint32
	// DCRSR is the debug core register selector register.
	DCRSR uint32
	// DCRDR is the debug core register data register.
	DCRDR uint32
	// DEMCR is the debug exception and monitor control register.
	DEMCR uint32
}

const (
	// DemcrTraceEnable powers the trace and debug blocks (DWT, ITM, ETM,
	// TPIU). It must be set before the cycle counter will count.
	DemcrTraceEnable uint32 = 1 << 24
	// DwtCtrlCycCntEnable starts the cycle counter.
	DwtCtrlCycCntEnable uint32 = 1 << 0
)
