// Package emu provides host-side functional emulation of the Cortex-M
// core peripherals, so the interrupt stack can be exercised off real
// hardware. The register blocks are ordinary regs structs; the machine
// semantics the hardware would provide around them (SysTick countdown,
// NVIC pending delivery, the write-1-to-act register pairs) live here.
package emu

import (
	"encoding/binary"
	"fmt"

	"github.com/sarchlab/akita/v4/mem/mem"
)

// Memory models the MCU's RAM, backed by an Akita storage.
type Memory struct {
	storage *mem.Storage
	size    uint64
}

// NewMemory creates size bytes of emulated RAM.
func NewMemory(size uint64) *Memory {
	return &Memory{storage: mem.NewStorage(size), size: size}
}

// inBounds checks an access against the configured RAM size. The backing
// storage allocates in larger units and only rejects addresses past its
// capacity, so accesses between the RAM size and the unit boundary would
// otherwise succeed silently.
func (m *Memory) inBounds(addr, length uint64) bool {
	return length <= m.size && addr <= m.size-length
}

// ReadBytes fetches length bytes starting at addr.
func (m *Memory) ReadBytes(addr, length uint64) ([]byte, error) {
	if !m.inBounds(addr, length) {
		return nil, fmt.Errorf("emu: read %d bytes at 0x%X: past the %d byte RAM",
			length, addr, m.size)
	}

	data, err := m.storage.Read(addr, length)
	if err != nil {
		return nil, fmt.Errorf("emu: read %d bytes at 0x%X: %w", length, addr, err)
	}
	return data, nil
}

// WriteBytes stores data starting at addr.
func (m *Memory) WriteBytes(addr uint64, data []byte) error {
	if !m.inBounds(addr, uint64(len(data))) {
		return fmt.Errorf("emu: write %d bytes at 0x%X: past the %d byte RAM",
			len(data), addr, m.size)
	}

	if err := m.storage.Write(addr, data); err != nil {
		return fmt.Errorf("emu: write %d bytes at 0x%X: %w", len(data), addr, err)
	}
	return nil
}

// Read32 reads a little-endian word. An out-of-range address is a bug in
// the harness and panics.
func (m *Memory) Read32(addr uint64) uint32 {
	data, err := m.ReadBytes(addr, 4)
	if err != nil {
		panic(err)
	}
	return binary.LittleEndian.Uint32(data)
}

// Write32 writes a little-endian word. An out-of-range address is a bug
// in the harness and panics.
func (m *Memory) Write32(addr uint64, value uint32) {
	var data [4]byte
	binary.LittleEndian.PutUint32(data[:], value)
	if err := m.WriteBytes(addr, data[:]); err != nil {
		panic(err)
	}
}

// Read8 reads a single byte, panicking on an out-of-range address.
func (m *Memory) Read8(addr uint64) byte {
	data, err := m.ReadBytes(addr, 1)
	if err != nil {
		panic(err)
	}
	return data[0]
}

// Write8 writes a single byte, panicking on an out-of-range address.
func (m *Memory) Write8(addr uint64, value byte) {
	if err := m.WriteBytes(addr, []byte{value}); err != nil {
		panic(err)
	}
}
