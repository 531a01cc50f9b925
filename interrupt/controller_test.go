package interrupt_test

import (
	"reflect"
	"testing"
	"unsafe"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/libhal/libhal-armcortex/interrupt"
	"github.com/libhal/libhal-armcortex/regs"
)

func TestInterrupt(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Interrupt Suite")
}

// The fake boot vectors stand in for the ROM table the hardware boots
// with. They are never invoked; only their identities matter.
func fakeTopOfStack() {
	for {
	}
}

func fakeReset() {
	for {
	}
}

// handlerPtr gives a comparable identity for a handler value.
func handlerPtr(h interrupt.Handler) uintptr {
	return reflect.ValueOf(h).Pointer()
}

func tableWords(table []interrupt.Handler) []uintptr {
	words := make([]uintptr, len(table))
	for i, h := range table {
		words[i] = handlerPtr(h)
	}
	return words
}

// recordingCPU notes the order of mask transitions around table swaps.
type recordingCPU struct {
	interrupt.MaskCounter
	events []string
}

func (r *recordingCPU) DisableInterrupts() {
	r.events = append(r.events, "disable")
	r.MaskCounter.DisableInterrupts()
}

func (r *recordingCPU) EnableInterrupts() {
	r.events = append(r.events, "enable")
	r.MaskCounter.EnableInterrupts()
}

var _ = Describe("Controller", func() {
	const capacity = 42

	var (
		nvic        *regs.NVICRegisters
		scb         *regs.SCBRegisters
		cpu         *recordingCPU
		ctl         *interrupt.Controller
		bootVectors *[2]interrupt.Handler
	)

	BeforeEach(func() {
		nvic = &regs.NVICRegisters{}
		scb = &regs.SCBRegisters{}
		cpu = &recordingCPU{}

		// Stand-in for the table the processor booted with, reachable
		// through VTOR exactly as the ROM table would be.
		bootVectors = &[2]interrupt.Handler{fakeTopOfStack, fakeReset}
		scb.VTOR = uintptr(unsafe.Pointer(bootVectors))

		ctl = interrupt.NewController(
			interrupt.WithNVIC(nvic),
			interrupt.WithSCB(scb),
			interrupt.WithCPU(cpu),
		)
	})

	dummyHandler := func() {}

	Describe("Initialize", func() {
		It("should publish a table with capacity+16 slots", func() {
			Expect(ctl.Initialized()).To(BeFalse())
			Expect(ctl.VectorTable()).To(BeEmpty())

			ctl.Initialize(capacity)

			table := ctl.VectorTable()
			Expect(table).To(HaveLen(capacity + interrupt.CoreCount))
			Expect(ctl.Initialized()).To(BeTrue())
			Expect(scb.VTOR).To(Equal(uintptr(unsafe.Pointer(&table[0]))))
		})

		It("should place the table on a 512-byte boundary", func() {
			ctl.Initialize(capacity)

			addr := uintptr(unsafe.Pointer(&ctl.VectorTable()[0]))
			Expect(addr % 512).To(BeZero())
		})

		It("should carry the stack and reset vectors forward from the live table", func() {
			ctl.Initialize(capacity)

			table := ctl.VectorTable()
			Expect(handlerPtr(table[interrupt.TopOfStack.Index()])).
				To(Equal(handlerPtr(fakeTopOfStack)))
			Expect(handlerPtr(table[interrupt.Reset.Index()])).
				To(Equal(handlerPtr(fakeReset)))
		})

		It("should install the named fault handlers", func() {
			ctl.Initialize(capacity)

			table := ctl.VectorTable()
			Expect(handlerPtr(table[interrupt.HardFault.Index()])).
				To(Equal(handlerPtr(interrupt.HardFaultHandler)))
			Expect(handlerPtr(table[interrupt.MemManageFault.Index()])).
				To(Equal(handlerPtr(interrupt.MemManageFaultHandler)))
			Expect(handlerPtr(table[interrupt.BusFault.Index()])).
				To(Equal(handlerPtr(interrupt.BusFaultHandler)))
			Expect(handlerPtr(table[interrupt.UsageFault.Index()])).
				To(Equal(handlerPtr(interrupt.UsageFaultHandler)))
		})

		It("should fill every remaining slot with the catch-all handler", func() {
			ctl.Initialize(capacity)

			table := ctl.VectorTable()
			catchAll := handlerPtr(interrupt.DefaultHandler)

			Expect(handlerPtr(table[interrupt.NonMaskableInterrupt.Index()])).
				To(Equal(catchAll))
			for i := interrupt.UsageFault.Index() + 1; i < interrupt.CoreCount; i++ {
				Expect(handlerPtr(table[i])).To(Equal(catchAll), "core slot %d", i)
			}
			for i := interrupt.CoreCount; i < len(table); i++ {
				Expect(handlerPtr(table[i])).To(Equal(catchAll), "device slot %d", i)
			}
		})

		It("should be a no-op when called again with the same capacity", func() {
			ctl.Initialize(capacity)
			table := ctl.VectorTable()
			first := &table[0]

			ctl.Enable(21, dummyHandler)
			ctl.Initialize(capacity)

			table = ctl.VectorTable()
			Expect(&table[0]).To(BeIdenticalTo(first))
			Expect(handlerPtr(table[interrupt.IRQ(21).Index()])).
				To(Equal(handlerPtr(dummyHandler)))
		})

		It("should relocate to a fresh table for a different capacity", func() {
			ctl.Initialize(capacity)
			first := &ctl.VectorTable()[0]

			ctl.Initialize(capacity + 8)

			table := ctl.VectorTable()
			Expect(table).To(HaveLen(capacity + 8 + interrupt.CoreCount))
			Expect(&table[0]).NotTo(BeIdenticalTo(first))
			Expect(ctl.Initialized()).To(BeTrue())
			Expect(scb.VTOR).To(Equal(uintptr(unsafe.Pointer(&table[0]))))
		})

		It("should bracket the swap with the global interrupt mask", func() {
			ctl.Initialize(capacity)

			Expect(cpu.events).To(Equal([]string{"disable", "enable"}))
			Expect(cpu.Masked()).To(BeFalse())
		})

		It("should fall back to the catch-all for stack and reset with no live table", func() {
			scb.VTOR = 0

			ctl.Initialize(capacity)

			table := ctl.VectorTable()
			catchAll := handlerPtr(interrupt.DefaultHandler)
			Expect(handlerPtr(table[interrupt.TopOfStack.Index()])).To(Equal(catchAll))
			Expect(handlerPtr(table[interrupt.Reset.Index()])).To(Equal(catchAll))
		})

		It("should panic on a non-positive capacity", func() {
			Expect(func() { ctl.Initialize(0) }).To(Panic())
			Expect(func() { ctl.Initialize(-3) }).To(Panic())
		})

		It("should panic on a buffer without room for the core exceptions", func() {
			buffer := make([]interrupt.Handler, interrupt.CoreCount)
			Expect(func() { ctl.InitializeWithTable(buffer) }).To(Panic())
		})
	})

	Describe("Reinitialize", func() {
		It("should rebuild the defaults in the cached buffer", func() {
			ctl.Initialize(capacity)
			first := &ctl.VectorTable()[0]
			ctl.Enable(21, dummyHandler)

			ctl.Reinitialize(capacity)

			table := ctl.VectorTable()
			Expect(&table[0]).To(BeIdenticalTo(first))
			Expect(handlerPtr(table[interrupt.IRQ(21).Index()])).
				To(Equal(handlerPtr(interrupt.DefaultHandler)))
			Expect(ctl.Initialized()).To(BeTrue())
		})

		It("should leave interrupts unmasked", func() {
			// Revert masks without unmasking; the CPSIE of the rebuild
			// must lift that mask absolutely, not by one level.
			ctl.Initialize(capacity)

			ctl.Reinitialize(capacity)

			Expect(cpu.Masked()).To(BeFalse())
		})
	})

	Describe("Enable", func() {
		BeforeEach(func() {
			ctl.Initialize(capacity)
		})

		It("should install the handler and set the enable bit for IRQ 21", func() {
			ctl.Enable(21, dummyHandler)

			Expect(handlerPtr(ctl.VectorTable()[interrupt.IRQ(21).Index()])).
				To(Equal(handlerPtr(dummyHandler)))
			Expect(nvic.ISER[0]).To(Equal(uint32(1 << 21)))
		})

		It("should install the handler and set the enable bit for IRQ 17", func() {
			ctl.Enable(17, dummyHandler)

			Expect(handlerPtr(ctl.VectorTable()[interrupt.IRQ(17).Index()])).
				To(Equal(handlerPtr(dummyHandler)))
			Expect(nvic.ISER[0]).To(Equal(uint32(1 << 17)))
		})

		It("should keep earlier enable bits in the same word", func() {
			ctl.Enable(17, dummyHandler)
			ctl.Enable(21, dummyHandler)

			Expect(nvic.ISER[0]).To(Equal(uint32(1<<17 | 1<<21)))
		})

		It("should use word arithmetic for IRQs past the first enable word", func() {
			ctl.Enable(37, dummyHandler)

			Expect(nvic.ISER[1]).To(Equal(uint32(1 << 5)))
			Expect(nvic.ISER[0]).To(BeZero())
		})

		It("should install a core exception handler without touching the NVIC", func() {
			before := nvic.ISER

			ctl.Enable(interrupt.SoftwareCall, dummyHandler)

			Expect(handlerPtr(ctl.VectorTable()[interrupt.SoftwareCall.Index()])).
				To(Equal(handlerPtr(dummyHandler)))
			Expect(nvic.ISER).To(Equal(before))
		})

		It("should silently ignore an out-of-range IRQ", func() {
			before := tableWords(ctl.VectorTable())
			iserBefore := nvic.ISER

			ctl.Enable(100, dummyHandler)

			Expect(tableWords(ctl.VectorTable())).To(Equal(before))
			Expect(nvic.ISER).To(Equal(iserBefore))
		})

		It("should silently ignore the first slot past the last device IRQ", func() {
			before := tableWords(ctl.VectorTable())

			ctl.Enable(capacity, dummyHandler)

			Expect(tableWords(ctl.VectorTable())).To(Equal(before))
			Expect(nvic.ISER[capacity/32]).To(BeZero())
		})

		It("should do nothing before initialization", func() {
			ctl.Revert()

			ctl.Enable(3, dummyHandler)

			Expect(nvic.ISER[0]).To(BeZero())
			Expect(ctl.VectorTable()).To(BeEmpty())
		})
	})

	Describe("Disable", func() {
		BeforeEach(func() {
			ctl.Initialize(capacity)
		})

		It("should set the clear-enable bit and keep the handler installed", func() {
			ctl.Enable(21, dummyHandler)

			ctl.Disable(21)

			Expect(nvic.ICER[0]).To(Equal(uint32(1 << 21)))
			Expect(handlerPtr(ctl.VectorTable()[interrupt.IRQ(21).Index()])).
				To(Equal(handlerPtr(dummyHandler)))
		})

		It("should be a no-op for core exceptions", func() {
			ctl.Disable(interrupt.SysTick)

			Expect(nvic.ICER).To(Equal([8]uint32{}))
		})

		It("should silently ignore an out-of-range IRQ", func() {
			ctl.Disable(100)

			Expect(nvic.ICER).To(Equal([8]uint32{}))
		})
	})

	Describe("VerifyEnabled", func() {
		BeforeEach(func() {
			ctl.Initialize(capacity)
		})

		It("should confirm an enabled device interrupt", func() {
			ctl.Enable(21, dummyHandler)

			Expect(ctl.VerifyEnabled(21, dummyHandler)).To(BeTrue())
		})

		It("should reject a handler that is not the installed one", func() {
			other := func() {}
			ctl.Enable(21, dummyHandler)

			Expect(ctl.VerifyEnabled(21, other)).To(BeFalse())
		})

		It("should require only the handler for core exceptions", func() {
			ctl.Enable(interrupt.PendSV, dummyHandler)

			Expect(ctl.VerifyEnabled(interrupt.PendSV, dummyHandler)).To(BeTrue())
			Expect(nvic.ISER).To(Equal([8]uint32{}))
		})

		It("should reject a device interrupt whose enable bit is not set", func() {
			ctl.Initialize(capacity)
			table := ctl.VectorTable()
			table[interrupt.IRQ(9).Index()] = dummyHandler
			nvic.ISER[0] = 0

			Expect(ctl.VerifyEnabled(9, dummyHandler)).To(BeFalse())
		})

		It("should reject an invalid request", func() {
			Expect(ctl.VerifyEnabled(100, dummyHandler)).To(BeFalse())
		})
	})

	Describe("disable keeps delivery masked but the vector intact", func() {
		It("should survive the enable/disable round trip", func() {
			ctl.Initialize(capacity)

			ctl.Enable(21, dummyHandler)
			Expect(ctl.VectorTable()[interrupt.IRQ(21).Index()]).NotTo(BeNil())
			Expect(nvic.ISER[0] & (1 << 21)).NotTo(BeZero())

			ctl.Disable(21)

			// The slot still holds the handler; only delivery is masked,
			// so the clear-enable bit records the request and the enable
			// bit reads back down.
			Expect(handlerPtr(ctl.VectorTable()[interrupt.IRQ(21).Index()])).
				To(Equal(handlerPtr(dummyHandler)))
			Expect(nvic.ICER[0]).To(Equal(uint32(1 << 21)))
			Expect(nvic.ISER[0] & (1 << 21)).To(BeZero())
			Expect(ctl.VerifyEnabled(21, dummyHandler)).To(BeFalse())

			ctl.Enable(21, dummyHandler)
			Expect(ctl.VerifyEnabled(21, dummyHandler)).To(BeTrue())
		})

		It("should not lose the first of back-to-back disables", func() {
			ctl.Initialize(capacity)
			ctl.Enable(17, dummyHandler)
			ctl.Enable(21, dummyHandler)

			ctl.Disable(17)
			ctl.Disable(21)

			Expect(nvic.ISER[0] & (1 << 17)).To(BeZero())
			Expect(nvic.ISER[0] & (1 << 21)).To(BeZero())
		})
	})

	Describe("Revert", func() {
		BeforeEach(func() {
			ctl.Initialize(capacity)
		})

		It("should mask every device interrupt and unpublish the table", func() {
			ctl.Revert()

			for i := range nvic.ICER {
				Expect(nvic.ICER[i]).To(Equal(uint32(0xFFFFFFFF)))
			}
			Expect(ctl.Initialized()).To(BeFalse())
			Expect(ctl.VectorTable()).To(BeEmpty())
		})

		It("should turn enable and disable into no-ops until reinitialized", func() {
			ctl.Revert()
			nvic.ICER = [8]uint32{}

			ctl.Enable(5, dummyHandler)
			ctl.Disable(5)

			Expect(nvic.ISER).To(Equal([8]uint32{}))
			Expect(nvic.ICER).To(Equal([8]uint32{}))

			ctl.Initialize(capacity)
			ctl.Enable(5, dummyHandler)
			Expect(nvic.ISER[0]).To(Equal(uint32(1 << 5)))
		})
	})

	Describe("Initialized", func() {
		It("should detect a VTOR moved by somebody else", func() {
			ctl.Initialize(capacity)
			Expect(ctl.Initialized()).To(BeTrue())

			scb.VTOR = uintptr(unsafe.Pointer(bootVectors))

			Expect(ctl.Initialized()).To(BeFalse())
		})
	})
})

var _ = Describe("MaskCounter", func() {
	It("should unmask on a single enable regardless of disable depth", func() {
		cpu := &interrupt.MaskCounter{}

		cpu.DisableInterrupts()
		cpu.DisableInterrupts()
		Expect(cpu.Masked()).To(BeTrue())

		cpu.EnableInterrupts()
		Expect(cpu.Masked()).To(BeFalse())
	})
})

// deviceIRQ mirrors a platform's generated interrupt enumeration.
type deviceIRQ int16

const (
	uart0 deviceIRQ = 5
	dma1  deviceIRQ = 33
)

var _ = Describe("Package-level surface", func() {
	var (
		nvic     *regs.NVICRegisters
		scb      *regs.SCBRegisters
		previous *interrupt.Controller
	)

	BeforeEach(func() {
		nvic = &regs.NVICRegisters{}
		scb = &regs.SCBRegisters{}
		boot := &[2]interrupt.Handler{fakeTopOfStack, fakeReset}
		scb.VTOR = uintptr(unsafe.Pointer(boot))

		previous = interrupt.SetDefault(interrupt.NewController(
			interrupt.WithNVIC(nvic),
			interrupt.WithSCB(scb),
			interrupt.WithCPU(&interrupt.MaskCounter{}),
		))
	})

	AfterEach(func() {
		interrupt.SetDefault(previous)
	})

	It("should accept device enumeration types", func() {
		handler := func() {}
		interrupt.Initialize(64)

		interrupt.Enable(uart0, handler)
		interrupt.Enable(dma1, handler)

		Expect(interrupt.VerifyEnabled(uart0, handler)).To(BeTrue())
		Expect(interrupt.VerifyEnabled(dma1, handler)).To(BeTrue())
		Expect(nvic.ISER[1]).To(Equal(uint32(1 << 1)))

		interrupt.Disable(dma1)
		Expect(nvic.ICER[1]).To(Equal(uint32(1 << 1)))

		interrupt.Revert()
		Expect(interrupt.Initialized()).To(BeFalse())
	})
})
