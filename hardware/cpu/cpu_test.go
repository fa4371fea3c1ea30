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

package cpu_test

import (
	"strings"
	"testing"

	"github.com/hexforge/gopher8/curated"
	"github.com/hexforge/gopher8/hardware/cpu"
	"github.com/hexforge/gopher8/hardware/keypad"
	"github.com/hexforge/gopher8/hardware/memory"
	"github.com/hexforge/gopher8/hardware/video"
	"github.com/hexforge/gopher8/logger"
	"github.com/hexforge/gopher8/test"
)

func newTestCPU() (*cpu.CPU, *memory.RAM, *video.Video) {
	ram := memory.NewRAM()
	vid := video.NewVideo()
	return cpu.NewCPU(ram, vid), ram, vid
}

func TestAddWithCarry(t *testing.T) {
	mc, _, _ := newTestCPU()

	// for all 8-bit values: the carry flag is set iff a+b > 255 and the
	// stored result is (a+b) mod 256
	for a := 0; a < 256; a++ {
		for b := 0; b < 256; b++ {
			mc.V[0x0] = uint8(a)
			mc.V[0x1] = uint8(b)
			mc.ExecuteInstruction(0x8014)

			test.Equate(t, mc.V[0x0], (a+b)%256)
			if a+b > 255 {
				test.Equate(t, mc.V[0xf], 1)
			} else {
				test.Equate(t, mc.V[0xf], 0)
			}
		}
	}
}

func TestSubtractWithBorrow(t *testing.T) {
	mc, _, _ := newTestCPU()

	// the flag records NO borrow: set iff minuend >= subtrahend
	for a := 0; a < 256; a++ {
		for b := 0; b < 256; b++ {
			mc.V[0x0] = uint8(a)
			mc.V[0x1] = uint8(b)
			mc.ExecuteInstruction(0x8015)

			test.Equate(t, mc.V[0x0], uint8(a-b))
			if a >= b {
				test.Equate(t, mc.V[0xf], 1)
			} else {
				test.Equate(t, mc.V[0xf], 0)
			}
		}
	}
}

func TestReverseSubtract(t *testing.T) {
	mc, _, _ := newTestCPU()

	mc.V[0x0] = 10
	mc.V[0x1] = 25
	mc.ExecuteInstruction(0x8017)
	test.Equate(t, mc.V[0x0], 15)
	test.Equate(t, mc.V[0xf], 1)

	mc.V[0x0] = 25
	mc.V[0x1] = 10
	mc.ExecuteInstruction(0x8017)
	test.Equate(t, mc.V[0x0], 0xf1)
	test.Equate(t, mc.V[0xf], 0)
}

func TestLogicalOps(t *testing.T) {
	mc, _, _ := newTestCPU()

	mc.V[0x2] = 0x0f
	mc.V[0x3] = 0x55

	mc.ExecuteInstruction(0x8230) // copy
	test.Equate(t, mc.V[0x2], 0x55)

	mc.V[0x2] = 0x0f
	mc.ExecuteInstruction(0x8231) // or
	test.Equate(t, mc.V[0x2], 0x5f)

	mc.V[0x2] = 0x0f
	mc.ExecuteInstruction(0x8232) // and
	test.Equate(t, mc.V[0x2], 0x05)

	mc.V[0x2] = 0x0f
	mc.ExecuteInstruction(0x8233) // xor
	test.Equate(t, mc.V[0x2], 0x5a)
}

func TestShifts(t *testing.T) {
	mc, _, _ := newTestCPU()

	// the flag is the pre-shift least significant bit, for both directions
	mc.V[0x2] = 0x05
	mc.ExecuteInstruction(0x8206)
	test.Equate(t, mc.V[0x2], 0x02)
	test.Equate(t, mc.V[0xf], 1)

	mc.V[0x2] = 0x04
	mc.ExecuteInstruction(0x8206)
	test.Equate(t, mc.V[0x2], 0x02)
	test.Equate(t, mc.V[0xf], 0)

	mc.V[0x2] = 0x81
	mc.ExecuteInstruction(0x820e)
	test.Equate(t, mc.V[0x2], 0x02)
	test.Equate(t, mc.V[0xf], 1)

	mc.V[0x2] = 0x80
	mc.ExecuteInstruction(0x820e)
	test.Equate(t, mc.V[0x2], 0x00)
	test.Equate(t, mc.V[0xf], 0)
}

func TestShiftFlagAliasing(t *testing.T) {
	mc, _, _ := newTestCPU()

	// when X is the flag register the flag write wins over the shift result
	mc.V[0xf] = 0x03
	mc.ExecuteInstruction(0x8f06)
	test.Equate(t, mc.V[0xf], 1)

	mc.V[0xf] = 0x02
	mc.ExecuteInstruction(0x8f06)
	test.Equate(t, mc.V[0xf], 0)

	mc.V[0xf] = 0x03
	mc.ExecuteInstruction(0x8f0e)
	test.Equate(t, mc.V[0xf], 1)
}

func TestAddFlagAliasing(t *testing.T) {
	mc, _, _ := newTestCPU()

	// the flag is written as part of the opcode even when X is F
	mc.V[0xf] = 0xff
	mc.V[0x1] = 0x01
	mc.ExecuteInstruction(0x8f14)
	test.Equate(t, mc.V[0xf], 1)

	mc.V[0xf] = 0x01
	mc.V[0x1] = 0x01
	mc.ExecuteInstruction(0x8f14)
	test.Equate(t, mc.V[0xf], 0)
}

func TestImmediateOps(t *testing.T) {
	mc, _, _ := newTestCPU()

	mc.ExecuteInstruction(0x60ab) // V0 := 0xab
	test.Equate(t, mc.V[0x0], 0xab)

	mc.ExecuteInstruction(0x7001) // V0 += 1
	test.Equate(t, mc.V[0x0], 0xac)

	// 8-bit wraparound without touching the flag
	mc.V[0xf] = 0x77
	mc.ExecuteInstruction(0x70ff)
	test.Equate(t, mc.V[0x0], 0xab)
	test.Equate(t, mc.V[0xf], 0x77)
}

func TestSkips(t *testing.T) {
	mc, _, _ := newTestCPU()

	pc := mc.PC

	// 3XNN: skip if equal
	mc.V[0x0] = 0x42
	mc.ExecuteInstruction(0x3042)
	test.Equate(t, mc.PC, pc+2)

	mc.PC = pc
	mc.ExecuteInstruction(0x3043)
	test.Equate(t, mc.PC, pc)

	// 4XNN: skip if not equal
	mc.PC = pc
	mc.ExecuteInstruction(0x4043)
	test.Equate(t, mc.PC, pc+2)

	// 5XY0/9XY0: register comparisons
	mc.PC = pc
	mc.V[0x1] = 0x42
	mc.ExecuteInstruction(0x5010)
	test.Equate(t, mc.PC, pc+2)

	mc.PC = pc
	mc.V[0x1] = 0x43
	mc.ExecuteInstruction(0x5010)
	test.Equate(t, mc.PC, pc)

	mc.PC = pc
	mc.ExecuteInstruction(0x9010)
	test.Equate(t, mc.PC, pc+2)
}

func TestJumps(t *testing.T) {
	mc, _, _ := newTestCPU()

	mc.ExecuteInstruction(0x1abc)
	test.Equate(t, mc.PC, 0x0abc)

	mc.V[0x0] = 0x10
	mc.ExecuteInstruction(0xb200)
	test.Equate(t, mc.PC, 0x0210)
}

func TestCallStackDiscipline(t *testing.T) {
	mc, _, _ := newTestCPU()

	// a sequence of N calls followed by N returns leaves the program counter
	// where it would have been without any calls
	pc := mc.PC
	for i := 0; i < 12; i++ {
		mc.ExecuteInstruction(0x2300)
		test.Equate(t, mc.PC, 0x0300)
		mc.PC = uint16(0x400 + i*2)
	}
	test.Equate(t, len(mc.Stack), 12)

	for i := 0; i < 12; i++ {
		mc.ExecuteInstruction(0x00ee)
	}
	test.Equate(t, len(mc.Stack), 0)
	test.Equate(t, mc.PC, pc)
}

func TestReturnWithEmptyStack(t *testing.T) {
	mc, _, _ := newTestCPU()

	// a warning condition, not an error. the program counter is unchanged
	pc := mc.PC
	mc.ExecuteInstruction(0x00ee)
	test.Equate(t, mc.PC, pc)
	test.Equate(t, len(mc.Stack), 0)
}

func TestIndexRegister(t *testing.T) {
	mc, _, _ := newTestCPU()

	mc.ExecuteInstruction(0xa123)
	test.Equate(t, mc.I, 0x0123)

	mc.V[0x4] = 0x10
	mc.ExecuteInstruction(0xf41e)
	test.Equate(t, mc.I, 0x0133)

	// font sprite base address: five bytes per glyph
	mc.V[0x4] = 0x0a
	mc.ExecuteInstruction(0xf429)
	test.Equate(t, mc.I, 50)
}

func TestRandomMasked(t *testing.T) {
	mc, _, _ := newTestCPU()

	// the random byte is masked with NN; bits outside the mask are never set
	for i := 0; i < 100; i++ {
		mc.ExecuteInstruction(0xc00f)
		if mc.V[0x0]&0xf0 != 0 {
			t.Fatal("random value not masked with NN")
		}
	}

	// a zero mask always produces zero
	mc.V[0x0] = 0xff
	mc.ExecuteInstruction(0xc000)
	test.Equate(t, mc.V[0x0], 0)
}

func TestTimerOps(t *testing.T) {
	mc, _, _ := newTestCPU()

	mc.V[0x3] = 60
	mc.ExecuteInstruction(0xf315)
	test.Equate(t, mc.DelayTimer, 60)

	mc.ExecuteInstruction(0xf318)
	test.Equate(t, mc.SoundTimer, 60)

	mc.ExecuteInstruction(0xf507)
	test.Equate(t, mc.V[0x5], 60)

	// timers floor at zero
	mc.DelayTimer = 1
	mc.SoundTimer = 0
	mc.TickTimers()
	mc.TickTimers()
	test.Equate(t, mc.DelayTimer, 0)
	test.Equate(t, mc.SoundTimer, 0)
}

func TestBCD(t *testing.T) {
	mc, ram, _ := newTestCPU()

	mc.I = 0x300
	mc.V[0x0] = 234
	mc.ExecuteInstruction(0xf033)

	d, _ := ram.Read8(0x300)
	test.Equate(t, d, 2)
	d, _ = ram.Read8(0x301)
	test.Equate(t, d, 3)
	d, _ = ram.Read8(0x302)
	test.Equate(t, d, 4)

	mc.V[0x0] = 7
	mc.ExecuteInstruction(0xf033)
	d, _ = ram.Read8(0x300)
	test.Equate(t, d, 0)
	d, _ = ram.Read8(0x301)
	test.Equate(t, d, 0)
	d, _ = ram.Read8(0x302)
	test.Equate(t, d, 7)
}

func TestStoreLoadRoundTrip(t *testing.T) {
	mc, _, _ := newTestCPU()

	for i := 0; i <= 0x7; i++ {
		mc.V[i] = uint8(i * 11)
	}

	mc.I = 0x300
	mc.ExecuteInstruction(0xf755)
	test.Equate(t, mc.I, 0x308)

	// clobber the registers then load them back from the same base address
	for i := 0; i <= 0x7; i++ {
		mc.V[i] = 0xff
	}

	mc.I = 0x300
	mc.ExecuteInstruction(0xf765)
	test.Equate(t, mc.I, 0x308)

	for i := 0; i <= 0x7; i++ {
		test.Equate(t, mc.V[i], i*11)
	}
}

func TestKeySkips(t *testing.T) {
	mc, _, _ := newTestCPU()

	var keys [keypad.NumKeys]bool
	keys[0x5] = true
	mc.SetKeys(keys, keypad.NoKey)

	pc := mc.PC

	// EX9E: skip if pressed
	mc.V[0x0] = 0x5
	mc.ExecuteInstruction(0xe09e)
	test.Equate(t, mc.PC, pc+2)

	mc.PC = pc
	mc.V[0x0] = 0x6
	mc.ExecuteInstruction(0xe09e)
	test.Equate(t, mc.PC, pc)

	// EXA1: skip if not pressed
	mc.PC = pc
	mc.ExecuteInstruction(0xe0a1)
	test.Equate(t, mc.PC, pc+2)

	mc.PC = pc
	mc.V[0x0] = 0x5
	mc.ExecuteInstruction(0xe0a1)
	test.Equate(t, mc.PC, pc)

	// a key index beyond the keypad is a no-op for both skips
	mc.PC = pc
	mc.V[0x0] = 0x20
	mc.ExecuteInstruction(0xe09e)
	test.Equate(t, mc.PC, pc)
	mc.ExecuteInstruction(0xe0a1)
	test.Equate(t, mc.PC, pc)
}

func TestKeyIndexOutOfRangeIsLogged(t *testing.T) {
	mc, _, _ := newTestCPU()

	logger.Clear()

	// both skip opcodes log the anomalous index instead of skipping
	pc := mc.PC
	mc.V[0x0] = 0x20
	mc.ExecuteInstruction(0xe09e)
	mc.ExecuteInstruction(0xe0a1)
	test.Equate(t, mc.PC, pc)

	tw := &test.Writer{}
	logger.Write(tw)
	if !strings.Contains(tw.String(), "key index out of range") {
		t.Fatal("expected out of range key index to appear in the log")
	}
}

func TestWaitForKey(t *testing.T) {
	mc, ram, _ := newTestCPU()

	// FX0A at the load origin, executed via Step() so the fetch/rewind
	// interplay is visible
	err := ram.LoadProgram([]byte{0xf3, 0x0a})
	test.ExpectedSuccess(t, err)

	// without a new key edge the program counter makes no net progress
	for i := 0; i < 3; i++ {
		err = mc.Step()
		test.ExpectedSuccess(t, err)
		test.Equate(t, mc.PC, memory.OriginAddr)
	}

	// a new key edge stores the key index and execution proceeds
	var keys [keypad.NumKeys]bool
	keys[0xb] = true
	mc.SetKeys(keys, 0xb)

	err = mc.Step()
	test.ExpectedSuccess(t, err)
	test.Equate(t, mc.PC, memory.OriginAddr+2)
	test.Equate(t, mc.V[0x3], 0x0b)
}

func TestDrawSprite(t *testing.T) {
	mc, _, vid := newTestCPU()

	// draw the built-in "0" glyph at the top-left corner
	mc.V[0x0] = 0
	mc.V[0x1] = 0
	mc.ExecuteInstruction(0xa000) // I := font base
	mc.ExecuteInstruction(0xd015) // draw 5 rows at (V0,V1)

	test.Equate(t, mc.V[0xf], 0)
	test.Equate(t, vid.Dirty(), true)

	glyph := []uint8{0xf0, 0x90, 0x90, 0x90, 0xf0}
	for y := 0; y < video.Height; y++ {
		for x := 0; x < video.Width; x++ {
			want := false
			if x < 8 && y < 5 {
				want = glyph[y]&(0x80>>x) != 0
			}
			if vid.Pixel(x, y) != want {
				t.Fatalf("unexpected pixel state at (%d,%d)", x, y)
			}
		}
	}

	// drawing the same glyph again erases it and raises the collision flag
	mc.ExecuteInstruction(0xd015)
	test.Equate(t, mc.V[0xf], 1)
	for x := 0; x < 8; x++ {
		test.Equate(t, vid.Pixel(x, 0), false)
	}
}

func TestClearScreen(t *testing.T) {
	mc, _, vid := newTestCPU()

	mc.ExecuteInstruction(0xa000)
	mc.ExecuteInstruction(0xd015)
	vid.ClearDirty()

	mc.ExecuteInstruction(0x00e0)
	test.Equate(t, vid.Dirty(), true)
	for _, p := range vid.Pixels() {
		if p != 0 {
			t.Fatal("expected all pixels off after 00E0")
		}
	}
}

func TestUnrecognizedOpcodes(t *testing.T) {
	mc, ram, _ := newTestCPU()

	// unmapped sub-codes are no-ops; the program counter still advances by
	// the fetch step
	err := ram.LoadProgram([]byte{0x80, 0x08, 0xe0, 0x00, 0xf0, 0xff, 0x00, 0x00})
	test.ExpectedSuccess(t, err)

	before := *mc
	for i := 0; i < 4; i++ {
		err = mc.Step()
		test.ExpectedSuccess(t, err)
	}

	test.Equate(t, mc.PC, memory.OriginAddr+8)
	for i := range mc.V {
		test.Equate(t, mc.V[i], before.V[i])
	}
	test.Equate(t, mc.I, before.I)
}

func TestInvalidProgramCounter(t *testing.T) {
	mc, _, _ := newTestCPU()

	// a program counter outside of the address space is fatal. the address
	// error is preserved in the error chain
	mc.PC = memory.RAMSize
	err := mc.Step()
	test.ExpectedFailure(t, err)
	if !curated.Has(err, memory.AddressError) {
		t.Fatal("expected the address error in the error chain")
	}
}
