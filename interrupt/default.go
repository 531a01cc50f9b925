package interrupt

// std is the controller bound to the live hardware registers. There is
// one interrupt controller per core, so one controller per process.
var std = NewController()

// Default returns the process-wide controller.
func Default() *Controller {
	return std
}

// SetDefault replaces the process-wide controller and returns the
// previous one. Test harnesses use it to point the package-level
// functions at stubbed registers.
func SetDefault(c *Controller) *Controller {
	previous := std
	std = c
	return previous
}

// Initialize initializes the default controller's vector table with
// capacity device interrupt slots. See Controller.Initialize.
func Initialize(capacity int) {
	std.Initialize(capacity)
}

// Reinitialize forces a full rebuild of the default controller's table.
func Reinitialize(capacity int) {
	std.Reinitialize(capacity)
}

// InitializeWithTable publishes a caller-placed table on the default
// controller. See Controller.InitializeWithTable.
func InitializeWithTable(table []Handler) {
	std.InitializeWithTable(table)
}

// Revert resets the default controller to uninitialized.
func Revert() {
	std.Revert()
}

// Initialized reports whether the default controller's table is live.
func Initialized() bool {
	return std.Initialized()
}

// VectorTable returns the default controller's published table view.
func VectorTable() []Handler {
	return std.VectorTable()
}

// DisableAll masks all maskable interrupts at the processor.
func DisableAll() {
	std.DisableAll()
}

// EnableAll lifts the processor-level interrupt mask.
func EnableAll() {
	std.EnableAll()
}

// Enable installs handler for irq on the default controller. It accepts
// the IRQ type or any device-specific enumeration backed by int16.
func Enable[N Num](irq N, handler Handler) {
	std.Enable(IRQ(irq), handler)
}

// Disable masks delivery of a device interrupt on the default
// controller.
func Disable[N Num](irq N) {
	std.Disable(IRQ(irq))
}

// VerifyEnabled reports whether handler is installed (and, for device
// interrupts, enabled) on the default controller.
func VerifyEnabled[N Num](irq N, handler Handler) bool {
	return std.VerifyEnabled(IRQ(irq), handler)
}
