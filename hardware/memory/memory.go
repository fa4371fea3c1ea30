// This file is part of Gopher8.
//
// Gopher8 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gopher8 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gopher8.  If not, see <https://www.gnu.org/licenses/>.

// Package memory implements the 4KB address space of the CHIP-8 machine.
// Addresses below the load origin (0x200) hold the built-in sprite font and
// are not writable once the RAM has been created. Program images occupy the
// address space from the load origin upwards.
package memory

import (
	"github.com/hexforge/gopher8/curated"
	"github.com/hexforge/gopher8/logger"
)

// RAMSize is the extent of the CHIP-8 address space in bytes.
const RAMSize = 4096

// OriginAddr is the address at which program images are loaded and at which
// execution begins.
const OriginAddr = 0x200

// MaxProgramSize is the largest program image that can fit in RAM.
const MaxProgramSize = RAMSize - OriginAddr

// GlyphSize is the number of bytes per built-in font sprite.
const GlyphSize = 5

// sentinel errors raised by the memory package.
const (
	AddressError  = "memory: address out of range (%#04x)"
	ImageTooLarge = "memory: program image too large (%d bytes, max %d)"
)

// RAM is the complete addressable memory of the CHIP-8 machine.
type RAM struct {
	data [RAMSize]uint8
}

// NewRAM is the preferred method of initialisation for the RAM type. The
// built-in font sprites are copied into the reserved area of the address
// space.
func NewRAM() *RAM {
	ram := &RAM{}
	copy(ram.data[:], fontData)
	return ram
}

// Read8 returns the byte at the specified address.
func (ram *RAM) Read8(address uint16) (uint8, error) {
	if int(address) >= RAMSize {
		return 0, curated.Errorf(AddressError, address)
	}
	return ram.data[address], nil
}

// Read16 returns the big-endian 16-bit value at the specified address. Used
// for instruction fetch.
func (ram *RAM) Read16(address uint16) (uint16, error) {
	if int(address)+1 >= RAMSize {
		return 0, curated.Errorf(AddressError, address)
	}
	return uint16(ram.data[address])<<8 | uint16(ram.data[address+1]), nil
}

// Write8 writes a byte to the specified address. Writes below the load
// origin are refused; the reserved area holds the font sprites and is not
// program-writable. A refused write is logged and is not an error.
func (ram *RAM) Write8(address uint16, data uint8) error {
	if int(address) >= RAMSize {
		return curated.Errorf(AddressError, address)
	}
	if address < OriginAddr {
		logger.Logf("memory", "refusing write to reserved address %#04x", address)
		return nil
	}
	ram.data[address] = data
	return nil
}

// LoadProgram copies a program image into RAM at the load origin. Images
// larger than the available space are a fatal load error.
func (ram *RAM) LoadProgram(data []byte) error {
	if len(data) > MaxProgramSize {
		return curated.Errorf(ImageTooLarge, len(data), MaxProgramSize)
	}

	// clear any previously loaded program before copying the new image
	for i := OriginAddr; i < RAMSize; i++ {
		ram.data[i] = 0
	}
	copy(ram.data[OriginAddr:], data)

	return nil
}

// GlyphAddress returns the address of the font sprite for the specified
// value. The font occupies the bottom of the address space, five bytes per
// glyph.
func (ram *RAM) GlyphAddress(value uint8) uint16 {
	return uint16(value) * GlyphSize
}
