package interrupt

import "unsafe"

// Handler is a single vector table entry.
type Handler func()

// DefaultHandler is the catch-all installed in every slot that has no
// dedicated default. It never returns: an untreated trap parks the
// processor here so a debugger can see exactly what fired instead of the
// program continuing into undefined behavior.
func DefaultHandler() {
	for {
	}
}

// HardFaultHandler is the default HardFault handler. Each fault gets its
// own spin loop so the halted PC identifies which fault was taken.
func HardFaultHandler() {
	for {
	}
}

// MemManageFaultHandler is the default memory management fault handler.
func MemManageFaultHandler() {
	for {
	}
}

// BusFaultHandler is the default bus fault handler.
func BusFaultHandler() {
	for {
	}
}

// UsageFaultHandler is the default usage fault handler.
func UsageFaultHandler() {
	for {
	}
}

// handlerWord returns the word a Handler value occupies in a table slot,
// which is what gets compared when checking slot contents.
func handlerWord(h Handler) uintptr {
	return *(*uintptr)(unsafe.Pointer(&h))
}

// activeVectors reads the first two slots of the table the hardware is
// currently using, through the address held in VTOR. A zero VTOR yields
// nil; that only happens before bring-up publishes the boot table.
func activeVectors(addr uintptr) *[2]Handler {
	if addr == 0 {
		return nil
	}
	return (*[2]Handler)(unsafe.Pointer(addr))
}
