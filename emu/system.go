package emu

import (
	"unsafe"

	"github.com/libhal/libhal-armcortex/interrupt"
	"github.com/libhal/libhal-armcortex/regs"
)

const defaultRAMSize = 1 << 20

// Stats counts delivery activity across Tick calls.
type Stats struct {
	// Cycles is the number of ticks stepped.
	Cycles uint64
	// SysTicks is the number of SysTick expirations delivered.
	SysTicks uint64
	// Dispatched is the number of device interrupts delivered.
	Dispatched uint64
	// Suppressed is the number of expirations dropped because no vector
	// table was live to receive them.
	Suppressed uint64
}

// System wires stub register views, an interrupt controller and emulated
// RAM into a steppable Cortex-M machine. Drivers programmed against the
// register views behave under Tick the way they would under the real
// peripherals: the SysTick counter counts down and fires its exception,
// pended device interrupts dispatch through the published vector table,
// and nothing is delivered while the global mask is down.
type System struct {
	// Register views, injectable into any driver under test.
	NVIC    *regs.NVICRegisters
	SCB     *regs.SCBRegisters
	SysTick *regs.SysTickRegisters
	DWT     *regs.DWTRegisters
	Core    *regs.CoreDebugRegisters

	// RAM is the emulated memory of the part.
	RAM *Memory

	ctl  *interrupt.Controller
	cpu  *interrupt.MaskCounter
	boot *[2]interrupt.Handler

	stats Stats
}

// Option configures a System.
type Option func(*System)

// WithRAMSize sizes the emulated RAM.
func WithRAMSize(bytes uint64) Option {
	return func(s *System) {
		s.RAM = NewMemory(bytes)
	}
}

// bootTopOfStack and bootReset stand in for the two words at the front
// of the ROM table the hardware boots with. They are identities, never
// called.
func bootTopOfStack() {
	for {
	}
}

func bootReset() {
	for {
	}
}

// NewSystem builds a machine in its power-on state: VTOR pointing at the
// boot table, NVIC clear, SysTick parked.
func NewSystem(opts ...Option) *System {
	s := &System{
		NVIC:    &regs.NVICRegisters{},
		SCB:     &regs.SCBRegisters{},
		SysTick: &regs.SysTickRegisters{},
		DWT:     &regs.DWTRegisters{},
		Core:    &regs.CoreDebugRegisters{},
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.RAM == nil {
		s.RAM = NewMemory(defaultRAMSize)
	}

	s.boot = &[2]interrupt.Handler{bootTopOfStack, bootReset}
	s.SCB.VTOR = uintptr(unsafe.Pointer(s.boot))

	s.cpu = &interrupt.MaskCounter{}
	s.ctl = interrupt.NewController(
		interrupt.WithNVIC(s.NVIC),
		interrupt.WithSCB(s.SCB),
		interrupt.WithCPU(s.cpu),
	)

	return s
}

// Controller returns the machine's interrupt controller.
func (s *System) Controller() *interrupt.Controller {
	return s.ctl
}

// CPU returns the machine's interrupt mask state.
func (s *System) CPU() *interrupt.MaskCounter {
	return s.cpu
}

// BootVectors returns the stack and reset entries of the boot table, for
// round-trip checks after relocation.
func (s *System) BootVectors() [2]interrupt.Handler {
	return *s.boot
}

// Stats returns delivery statistics.
func (s *System) Stats() Stats {
	return s.stats
}

// Trigger pends a device interrupt, as a peripheral raising its line
// would. Core exceptions other than SysTick cannot be pended this way
// and are ignored.
func (s *System) Trigger(irq interrupt.IRQ) {
	if irq >= 0 {
		s.NVIC.ISPR[irq>>5] |= 1 << (irq & 0x1F)
		return
	}
	if irq == interrupt.SysTick {
		s.SCB.ICSR |= regs.ICSRPendSTSet
	}
}

// Tick advances the machine by one SysTick clock: settle the
// write-1-to-act registers, step the countdown, then deliver whatever
// the mask and enable state allow.
func (s *System) Tick() {
	s.stats.Cycles++
	s.settleNVIC()
	s.stepSysTick()
	s.dispatch()
}

// Run steps the machine for the given number of ticks.
func (s *System) Run(ticks uint64) {
	for i := uint64(0); i < ticks; i++ {
		s.Tick()
	}
}

// settleNVIC retires the write-1-to-act latches. Enable clears take
// effect at store time (the controller mirrors ICER writes into ISER),
// so consuming them again here would retroactively undo an enable made
// after the clear. Only pend clears are applied, and every latch reads
// back as zero afterwards, since hardware never holds a written clear
// bit.
func (s *System) settleNVIC() {
	for i := range s.NVIC.ICER {
		s.NVIC.ICER[i] = 0
		s.NVIC.ISPR[i] &^= s.NVIC.ICPR[i]
		s.NVIC.ICPR[i] = 0
	}
}

// stepSysTick runs one cycle of the countdown. A fall from 1 to 0 sets
// COUNTFLAG, pends the SysTick exception when the interrupt is enabled,
// and reloads.
func (s *System) stepSysTick() {
	st := s.SysTick
	if st.Control&regs.SysTickEnableCounter == 0 {
		return
	}

	if st.Current == 0 {
		st.Current = st.Reload
		return
	}

	st.Current--
	if st.Current != 0 {
		return
	}

	st.Control |= regs.SysTickCountFlag
	if st.Control&regs.SysTickEnableInterrupt != 0 {
		s.SCB.ICSR |= regs.ICSRPendSTSet
	}
	st.Current = st.Reload
}

// dispatch delivers pended exceptions through the published vector
// table. Nothing is delivered while the global mask is down; pending
// state is held, exactly as PRIMASK holds it on hardware. A pend with no
// live table is dropped and counted.
func (s *System) dispatch() {
	if s.cpu.Masked() {
		return
	}

	if s.SCB.ICSR&regs.ICSRPendSTSet != 0 {
		s.SCB.ICSR &^= regs.ICSRPendSTSet
		if s.deliver(interrupt.SysTick) {
			s.stats.SysTicks++
		}
	}

	table := s.ctl.VectorTable()
	for word := range s.NVIC.ISPR {
		ready := s.NVIC.ISPR[word] & s.NVIC.ISER[word]
		for ready != 0 {
			bit := uint32(0)
			for ; ready&(1<<bit) == 0; bit++ {
			}
			ready &^= 1 << bit
			irq := interrupt.IRQ(word*32 + int(bit))
			if irq.Index() >= len(table) {
				continue
			}
			s.NVIC.ISPR[word] &^= 1 << bit
			if s.deliver(irq) {
				s.stats.Dispatched++
			}
		}
	}
}

// deliver invokes the installed vector for irq, reporting whether a live
// table was there to receive it.
func (s *System) deliver(irq interrupt.IRQ) bool {
	if !s.ctl.Initialized() {
		s.stats.Suppressed++
		return false
	}

	s.ctl.VectorTable()[irq.Index()]()
	return true
}
