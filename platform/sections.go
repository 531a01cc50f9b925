package platform

import (
	"fmt"

	"github.com/libhal/libhal-armcortex/emu"
)

// Image describes where a program's sections live, the way a linker
// script describes them: the .data contents are staged at DataSource and
// belong at DataStart, and the region at BSSStart starts out undefined.
type Image struct {
	// DataStart is the destination of the .data section in RAM.
	DataStart uint64
	// DataSource is the staged copy of the .data contents in ROM.
	DataSource uint64
	// DataSize is the number of bytes to copy.
	DataSize uint64
	// BSSStart is the start of the uninitialized-data region in RAM.
	BSSStart uint64
	// BSSSize is the number of bytes to zero.
	BSSSize uint64
}

// InitializeDataSection copies the staged .data contents into place.
// Nothing may touch a global before this has run; loaders and debuggers
// sometimes do the copy for you, but a cold-booted MCU must not assume
// so.
func InitializeDataSection(memory *emu.Memory, image Image) error {
	if image.DataSize == 0 {
		return nil
	}

	data, err := memory.ReadBytes(image.DataSource, image.DataSize)
	if err != nil {
		return fmt.Errorf("platform: data section source: %w", err)
	}

	if err := memory.WriteBytes(image.DataStart, data); err != nil {
		return fmt.Errorf("platform: data section destination: %w", err)
	}

	return nil
}

// InitializeBSSSection zeroes the uninitialized-data region. Not needed
// when a C-runtime style startup object already did it.
func InitializeBSSSection(memory *emu.Memory, image Image) error {
	if image.BSSSize == 0 {
		return nil
	}

	if err := memory.WriteBytes(image.BSSStart, make([]byte, image.BSSSize)); err != nil {
		return fmt.Errorf("platform: bss section: %w", err)
	}

	return nil
}
