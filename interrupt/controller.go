package interrupt

import (
	"unsafe"

	"github.com/libhal/libhal-armcortex/regs"
)

// tableAlignment is the boundary VTOR requires of any relocated vector
// table: the low-order address bits must read as zero.
const tableAlignment = 512

// Controller owns the published vector table view and mirrors
// enable/disable decisions into the NVIC. A processor core has exactly
// one of these; the package-level default is bound to the live hardware
// registers, and host code constructs its own around stubbed views.
//
// Initialize and Revert bracket their updates with the global interrupt
// mask so a trap never fires through a half-written table. Enable,
// Disable and VerifyEnabled touch a single slot and a single bit and are
// not bracketed; racing them against Initialize or Revert is the
// caller's responsibility to avoid.
type Controller struct {
	nvic *regs.NVICRegisters
	scb  *regs.SCBRegisters
	cpu  CPU

	// table is the published view. Slot 0 holds the TopOfStack vector,
	// so the slot for irq is table[irq+CoreCount]. A nil table means
	// uninitialized.
	table []Handler

	// buffers caches the statically allocated table for each distinct
	// capacity handed to Initialize, so repeat calls reuse storage.
	buffers map[int][]Handler
}

// Option configures a Controller.
type Option func(*Controller)

// WithNVIC replaces the NVIC register view.
func WithNVIC(n *regs.NVICRegisters) Option {
	return func(c *Controller) {
		c.nvic = n
	}
}

// WithSCB replaces the SCB register view.
func WithSCB(s *regs.SCBRegisters) Option {
	return func(c *Controller) {
		c.scb = s
	}
}

// WithCPU replaces the CPU capability.
func WithCPU(cpu CPU) Option {
	return func(c *Controller) {
		c.cpu = cpu
	}
}

// NewController creates a controller bound to the hardware register
// views unless options override them.
func NewController(opts ...Option) *Controller {
	c := &Controller{
		nvic:    regs.NVIC,
		scb:     regs.SCB,
		cpu:     &MaskCounter{},
		buffers: map[int][]Handler{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Initialize statically allocates a 512-byte aligned vector table with
// capacity device slots beyond the 16 core ones, then publishes it via
// InitializeWithTable. Calling it again with the same capacity reuses
// the cached buffer and returns without touching anything. A different
// capacity allocates an additional table (wasteful but harmless) and
// relocates. A non-positive capacity is a usage error and panics.
func (c *Controller) Initialize(capacity int) {
	if capacity <= 0 {
		panic("interrupt: vector table capacity must be above 0")
	}

	buffer, ok := c.buffers[capacity]
	if !ok {
		buffer = alignedTable(capacity + CoreCount)
		c.buffers[capacity] = buffer
	}

	c.InitializeWithTable(buffer)
}

// Reinitialize forces a full default-table rebuild for the given
// capacity, bypassing the same-buffer guard. The cached buffer for that
// capacity is reused.
func (c *Controller) Reinitialize(capacity int) {
	c.Revert()
	c.Initialize(capacity)
}

// InitializeWithTable publishes the caller's buffer as the vector table
// and relocates VTOR to it. Use Initialize unless the table's placement
// must be controlled precisely.
//
// If the buffer is the one already published (same first-slot address
// and length), nothing happens. Otherwise the stack and reset vectors
// are carried forward from the table currently live in hardware, the
// four fault slots get their named default handlers, every other slot
// gets DefaultHandler, and the buffer goes live under the global
// interrupt mask.
//
// The buffer must have static storage duration, more than 16 slots, and
// 512-byte alignment of its first slot.
func (c *Controller) InitializeWithTable(table []Handler) {
	if len(table) <= CoreCount {
		panic("interrupt: vector table needs more than 16 slots")
	}

	if c.sameTable(table) {
		return
	}

	c.installDefaults(table)

	c.cpu.DisableInterrupts()
	c.table = table
	c.scb.VTOR = uintptr(unsafe.Pointer(&table[0]))
	c.cpu.EnableInterrupts()
}

// Revert masks all interrupts, clears every NVIC enable bit, and resets
// the published view to uninitialized. Meant for test harnesses and
// controlled re-bring-up only; never call it while a driver depends on a
// live interrupt. Interrupts stay globally masked until the next
// InitializeWithTable.
func (c *Controller) Revert() {
	c.cpu.DisableInterrupts()

	for i := range c.nvic.ICER {
		c.nvic.ICER[i] = 0xFFFFFFFF
		// Inert on hardware, see Disable.
		c.nvic.ISER[i] = 0
	}

	c.table = nil
}

// Initialized reports whether VTOR still points at this controller's
// published table. Hardware state is consulted instead of a cached flag,
// so a VTOR moved by other code reads as uninitialized here.
func (c *Controller) Initialized() bool {
	if len(c.table) == 0 {
		return false
	}
	return c.scb.VTOR == uintptr(unsafe.Pointer(&c.table[0]))
}

// Enable installs handler in the slot for irq and, for device
// interrupts, sets the NVIC enable bit. Core exceptions have no enable
// bit; installing the handler is all that "enabling" them means.
//
// An out-of-range or pre-initialization request is silently ignored:
// enable is reachable from fault paths where raising further errors
// helps nobody. Callers that need confirmation use VerifyEnabled.
func (c *Controller) Enable(irq IRQ, handler Handler) {
	if !c.valid(irq) {
		return
	}

	c.table[irq.Index()] = handler

	if irq >= 0 {
		// ISER reads back the enable set and writing zeros is inert, so
		// the read-modify-write both matches hardware and accumulates on
		// an in-memory register block. ICER must never be written this
		// way.
		c.nvic.ISER[irq>>5] |= 1 << (irq & 0x1F)
	}
}

// Disable sets the NVIC clear-enable bit for a device interrupt. The
// table slot keeps whatever handler was last installed; only delivery is
// masked, so a later Enable with the same handler resumes where it left
// off. Core exceptions cannot be masked this way and the call is a
// no-op for them, as it is for any invalid request.
func (c *Controller) Disable(irq IRQ) {
	if !c.valid(irq) {
		return
	}

	if irq < 0 {
		return
	}

	// The ICER store performs the disable on hardware, which also drops
	// the bit from what ISER reads back. An in-memory register block has
	// no such coupling, so mirror the clear into ISER explicitly; on
	// hardware that second store only writes set bits back (inert) and
	// zeros (ignored).
	c.nvic.ICER[irq>>5] = 1 << (irq & 0x1F)
	c.nvic.ISER[irq>>5] &^= 1 << (irq & 0x1F)
}

// VerifyEnabled reports whether handler occupies the slot for irq and,
// for device interrupts, whether the NVIC set-enable bit is live. An
// invalid request is false.
func (c *Controller) VerifyEnabled(irq IRQ, handler Handler) bool {
	if !c.valid(irq) {
		return false
	}

	if handlerWord(c.table[irq.Index()]) != handlerWord(handler) {
		return false
	}

	if irq < 0 {
		return true
	}

	return c.nvic.ISER[irq>>5]&(1<<(irq&0x1F)) != 0
}

// VectorTable returns the published table view, slot 0 first. Callers
// must treat it as read-only; slots change through Enable.
func (c *Controller) VectorTable() []Handler {
	return c.table
}

// DisableAll masks all maskable interrupts at the processor.
func (c *Controller) DisableAll() {
	c.cpu.DisableInterrupts()
}

// EnableAll lifts the processor-level interrupt mask.
func (c *Controller) EnableAll() {
	c.cpu.EnableInterrupts()
}

func (c *Controller) sameTable(table []Handler) bool {
	return len(c.table) == len(table) && &c.table[0] == &table[0]
}

// valid is the shared guard for single-slot operations: the table must
// be live and the slot for irq must exist.
func (c *Controller) valid(irq IRQ) bool {
	if !c.Initialized() {
		return false
	}

	idx := irq.Index()
	return idx >= 0 && idx < len(c.table)
}

// installDefaults fills the not-yet-published buffer. The stack and
// reset slots are copied from the table the hardware is using right now
// (read through VTOR, which may already be a relocated table rather than
// the ROM one) so those two values survive the move.
func (c *Controller) installDefaults(table []Handler) {
	if active := activeVectors(c.scb.VTOR); active != nil {
		table[TopOfStack.Index()] = active[0]
		table[Reset.Index()] = active[1]
	} else {
		// No live table to inherit from (VTOR never published). The
		// catch-all at least parks a trap through these slots instead of
		// calling a nil vector.
		table[TopOfStack.Index()] = DefaultHandler
		table[Reset.Index()] = DefaultHandler
	}

	table[HardFault.Index()] = HardFaultHandler
	table[MemManageFault.Index()] = MemManageFaultHandler
	table[BusFault.Index()] = BusFaultHandler
	table[UsageFault.Index()] = UsageFaultHandler

	// NMI, the reserved core slots, SVCall, PendSV and SysTick share the
	// catch-all, as does every device slot.
	table[NonMaskableInterrupt.Index()] = DefaultHandler
	for i := UsageFault.Index() + 1; i < CoreCount; i++ {
		table[i] = DefaultHandler
	}
	for i := CoreCount; i < len(table); i++ {
		table[i] = DefaultHandler
	}
}

// alignedTable allocates a slots-long table whose first slot sits on a
// 512-byte boundary, over-allocating to find one.
func alignedTable(slots int) []Handler {
	slotSize := int(unsafe.Sizeof(Handler(nil)))
	padding := tableAlignment / slotSize

	raw := make([]Handler, slots+padding)

	offset := 0
	if rem := uintptr(unsafe.Pointer(&raw[0])) % tableAlignment; rem != 0 {
		offset = (tableAlignment - int(rem)) / slotSize
	}

	return raw[offset : offset+slots : offset+slots]
}
