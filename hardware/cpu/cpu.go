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

// Package cpu implements the instruction decode/execute engine of the CHIP-8
// machine: sixteen 8-bit registers, the 16-bit index register, the program
// counter, the subroutine call stack, the two 60Hz countdown timers and the
// 35 documented operations.
//
// Decoding is a flat classification over the fixed instruction set: a switch
// on the top nibble of the instruction, then on the sub-code where a family
// has more than one member. Instruction patterns that match no documented
// operation are no-ops; the program counter still advances by the fetch step.
//
// Per-instruction anomalies (return with an empty call stack, key indices
// beyond the keypad, memory access at the edge of the address space) are
// handled locally and never propagate out of a single instruction. Only a
// program counter outside of the address space, detected at fetch, is
// returned as an error.
package cpu

import (
	"math/rand"

	"github.com/hexforge/gopher8/curated"
	"github.com/hexforge/gopher8/hardware/keypad"
	"github.com/hexforge/gopher8/hardware/memory"
	"github.com/hexforge/gopher8/hardware/video"
	"github.com/hexforge/gopher8/logger"
)

// NumRegisters is the number of general purpose registers, V0 to VF.
const NumRegisters = 16

// flagRegister is VF. as well as being a general purpose register it receives
// the carry, borrow and collision flags.
const flagRegister = 0xf

// CPU implements the CHIP-8 interpreter core. The CPU is owned by the
// emulation goroutine; the Keys and LastKey fields are refreshed once per
// tick by the scheduler with the SetKeys() function.
type CPU struct {
	// general purpose registers. V[0xf] doubles as the flag register
	V [NumRegisters]uint8

	// the index register, base address for the memory-indexed operations
	I uint16

	// the program counter. always stepped by two on fetch
	PC uint16

	// return addresses for nested subroutine calls. CHIP-8 programs are
	// expected to nest no more than a dozen deep but there is no hard limit
	Stack []uint16

	// the two countdown timers, decremented at 60Hz by the scheduler, never
	// below zero
	DelayTimer uint8
	SoundTimer uint8

	// per-tick snapshot of the keypad and the index of the key newly pressed
	// since the previous tick (keypad.NoKey for none). the latter is consumed
	// only by the wait-for-key instruction
	Keys    [keypad.NumKeys]bool
	LastKey int

	mem *memory.RAM
	vid *video.Video
}

// NewCPU is the preferred method of initialisation for the CPU type.
func NewCPU(mem *memory.RAM, vid *video.Video) *CPU {
	cpu := &CPU{
		mem: mem,
		vid: vid,
	}
	cpu.Reset()
	return cpu
}

// Reset the CPU to its power-on state. Memory contents are not affected.
func (cpu *CPU) Reset() {
	for i := range cpu.V {
		cpu.V[i] = 0
	}
	cpu.I = 0
	cpu.PC = memory.OriginAddr
	cpu.Stack = make([]uint16, 0, 12)
	cpu.DelayTimer = 0
	cpu.SoundTimer = 0
	cpu.Keys = [keypad.NumKeys]bool{}
	cpu.LastKey = keypad.NoKey
}

// SetKeys stores the per-tick keypad snapshot and the newly-pressed key edge
// value. Called by the scheduler once per tick.
func (cpu *CPU) SetKeys(keys [keypad.NumKeys]bool, lastKey int) {
	cpu.Keys = keys
	cpu.LastKey = lastKey
}

// TickTimers decrements the delay and sound timers, each flooring at zero.
// Called by the scheduler at the 60Hz cadence.
func (cpu *CPU) TickTimers() {
	if cpu.DelayTimer > 0 {
		cpu.DelayTimer--
	}
	if cpu.SoundTimer > 0 {
		cpu.SoundTimer--
	}
}

// Step fetches the big-endian instruction at the program counter, advances
// the program counter by two and executes the instruction. A program counter
// outside of the address space is fatal and is returned as an error.
func (cpu *CPU) Step() error {
	opcode, err := cpu.mem.Read16(cpu.PC)
	if err != nil {
		return curated.Errorf("cpu: invalid program counter: %v", err)
	}
	cpu.PC += 2

	cpu.ExecuteInstruction(opcode)

	return nil
}

// ExecuteInstruction executes the effect of exactly one instruction. The
// program counter is assumed to have already been advanced past the
// instruction by the fetch step, so a "skip" adds two and the wait-for-key
// rewind subtracts two.
func (cpu *CPU) ExecuteInstruction(opcode uint16) {
	x := uint8(opcode>>8) & 0x0f
	y := uint8(opcode>>4) & 0x0f
	n := uint8(opcode) & 0x0f
	nn := uint8(opcode)
	nnn := opcode & 0x0fff

	switch opcode >> 12 {
	case 0x0:
		switch nn {
		case 0xe0:
			cpu.vid.Clear()
		case 0xee:
			if len(cpu.Stack) == 0 {
				logger.Log("cpu", "return with empty call stack")
				break
			}
			cpu.PC = cpu.Stack[len(cpu.Stack)-1]
			cpu.Stack = cpu.Stack[:len(cpu.Stack)-1]
		}
		// 0NNN (machine language routine) is not supported and is ignored

	case 0x1:
		cpu.PC = nnn

	case 0x2:
		cpu.Stack = append(cpu.Stack, cpu.PC)
		cpu.PC = nnn

	case 0x3:
		if cpu.V[x] == nn {
			cpu.PC += 2
		}

	case 0x4:
		if cpu.V[x] != nn {
			cpu.PC += 2
		}

	case 0x5:
		if n == 0x0 && cpu.V[x] == cpu.V[y] {
			cpu.PC += 2
		}

	case 0x6:
		cpu.V[x] = nn

	case 0x7:
		// 8-bit wraparound, no flag
		cpu.V[x] += nn

	case 0x8:
		cpu.alu(n, x, y)

	case 0x9:
		if n == 0x0 && cpu.V[x] != cpu.V[y] {
			cpu.PC += 2
		}

	case 0xa:
		cpu.I = nnn

	case 0xb:
		cpu.PC = nnn + uint16(cpu.V[0])

	case 0xc:
		cpu.V[x] = uint8(rand.Intn(256)) & nn

	case 0xd:
		cpu.drawSprite(x, y, n)

	case 0xe:
		switch nn {
		case 0x9e:
			if pressed, ok := cpu.keyState(cpu.V[x]); ok && pressed {
				cpu.PC += 2
			}
		case 0xa1:
			// an out of range key index suppresses the skip here too; it is
			// a no-op, not an unpressed key
			if pressed, ok := cpu.keyState(cpu.V[x]); ok && !pressed {
				cpu.PC += 2
			}
		}

	case 0xf:
		cpu.misc(nn, x)
	}
}

// keyState treats the value as a keypad index and returns the key state.
// Values beyond the keypad are logged and reported as invalid.
func (cpu *CPU) keyState(key uint8) (pressed bool, ok bool) {
	if key >= keypad.NumKeys {
		logger.Logf("cpu", "key index out of range (%#02x)", key)
		return false, false
	}
	return cpu.Keys[key], true
}

// alu implements the 8XY_ register-to-register family. The flag register is
// always written after the result so that the flag survives when X is F.
func (cpu *CPU) alu(n, x, y uint8) {
	switch n {
	case 0x0:
		cpu.V[x] = cpu.V[y]

	case 0x1:
		cpu.V[x] |= cpu.V[y]

	case 0x2:
		cpu.V[x] &= cpu.V[y]

	case 0x3:
		cpu.V[x] ^= cpu.V[y]

	case 0x4:
		sum := uint16(cpu.V[x]) + uint16(cpu.V[y])
		var carry uint8
		if sum > 0xff {
			carry = 1
		}
		cpu.V[x] = uint8(sum)
		cpu.V[flagRegister] = carry

	case 0x5:
		// the flag is set when there is NO borrow
		var noBorrow uint8
		if cpu.V[x] >= cpu.V[y] {
			noBorrow = 1
		}
		cpu.V[x] -= cpu.V[y]
		cpu.V[flagRegister] = noBorrow

	case 0x6:
		lsb := cpu.V[x] & 0x01
		cpu.V[x] >>= 1
		cpu.V[flagRegister] = lsb

	case 0x7:
		var noBorrow uint8
		if cpu.V[y] >= cpu.V[x] {
			noBorrow = 1
		}
		cpu.V[x] = cpu.V[y] - cpu.V[x]
		cpu.V[flagRegister] = noBorrow

	case 0xe:
		// the flag is the pre-shift least significant bit, as for the right
		// shift
		lsb := cpu.V[x] & 0x01
		cpu.V[x] <<= 1
		cpu.V[flagRegister] = lsb
	}
}

// drawSprite implements DXYN. The origin registers are read before the flag
// register is reset, so a sprite positioned by VF draws where the program
// expects.
func (cpu *CPU) drawSprite(x, y, n uint8) {
	ox := cpu.V[x]
	oy := cpu.V[y]
	cpu.V[flagRegister] = 0

	rows := make([]uint8, 0, n)
	for i := uint16(0); i < uint16(n); i++ {
		d, err := cpu.mem.Read8(cpu.I + i)
		if err != nil {
			logger.Logf("cpu", "sprite data out of range: %v", err)
			break
		}
		rows = append(rows, d)
	}

	if cpu.vid.DrawSprite(ox, oy, rows) {
		cpu.V[flagRegister] = 1
	}
}

// misc implements the FX__ family.
func (cpu *CPU) misc(nn, x uint8) {
	switch nn {
	case 0x07:
		cpu.V[x] = cpu.DelayTimer

	case 0x0a:
		// wait for a new key press. rewinding the program counter causes the
		// instruction to execute again on the next tick; the busy-wait is
		// the documented semantics of the instruction, not an error
		if cpu.LastKey == keypad.NoKey {
			cpu.PC -= 2
			break
		}
		cpu.V[x] = uint8(cpu.LastKey)

	case 0x15:
		cpu.DelayTimer = cpu.V[x]

	case 0x18:
		cpu.SoundTimer = cpu.V[x]

	case 0x1e:
		// no overflow flag
		cpu.I += uint16(cpu.V[x])

	case 0x29:
		cpu.I = cpu.mem.GlyphAddress(cpu.V[x])

	case 0x33:
		v := cpu.V[x]
		cpu.write8(cpu.I, v/100)
		cpu.write8(cpu.I+1, (v/10)%10)
		cpu.write8(cpu.I+2, v%10)

	case 0x55:
		for i := uint8(0); i <= x; i++ {
			cpu.write8(cpu.I+uint16(i), cpu.V[i])
		}
		cpu.I += uint16(x) + 1

	case 0x65:
		for i := uint8(0); i <= x; i++ {
			d, err := cpu.mem.Read8(cpu.I + uint16(i))
			if err != nil {
				logger.Logf("cpu", "register load out of range: %v", err)
				break
			}
			cpu.V[i] = d
		}
		cpu.I += uint16(x) + 1
	}
}

// write8 wraps memory writes from the executor. Address anomalies are logged
// and execution continues; they never unwind past the current instruction.
func (cpu *CPU) write8(address uint16, data uint8) {
	if err := cpu.mem.Write8(address, data); err != nil {
		logger.Logf("cpu", "memory write out of range: %v", err)
	}
}
