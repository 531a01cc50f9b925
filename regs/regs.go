// Package regs provides typed views of the ARM Cortex-M core peripheral
// register blocks at their fixed physical addresses.
//
// The views are plain structs whose field layout matches the hardware
// memory map, including the reserved gaps. On a real target the
// package-level pointers overlay the live peripherals. Host-side code
// (tests, the emu package) allocates fresh register structs and injects
// them instead, and must never dereference the hardware-bound defaults.
package regs

import "unsafe"

// Fixed physical addresses of the core peripheral blocks. These are part
// of the ARMv7-M memory map and are identical on every Cortex-M part.
const (
	SysTickAddress   uintptr = 0xE000E010
	NVICAddress      uintptr = 0xE000E100
	SCBAddress       uintptr = 0xE000ED00
	DWTAddress       uintptr = 0xE0001000
	CoreDebugAddress uintptr = 0xE000EDF0
)

// Live hardware register views.
var (
	NVIC      = (*NVICRegisters)(unsafe.Pointer(NVICAddress))
	SCB       = (*SCBRegisters)(unsafe.Pointer(SCBAddress))
	SysTick   = (*SysTickRegisters)(unsafe.Pointer(SysTickAddress))
	DWT       = (*DWTRegisters)(unsafe.Pointer(DWTAddress))
	CoreDebug = (*CoreDebugRegisters)(unsafe.Pointer(CoreDebugAddress))
)
