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

// Package hardware assembles the sub-systems of the CHIP-8 machine into a
// single Chip8 type and provides the clock that drives them.
package hardware

import (
	"time"

	"github.com/hexforge/gopher8/cartridge"
	"github.com/hexforge/gopher8/curated"
	"github.com/hexforge/gopher8/display"
	"github.com/hexforge/gopher8/hardware/cpu"
	"github.com/hexforge/gopher8/hardware/keypad"
	"github.com/hexforge/gopher8/hardware/memory"
	"github.com/hexforge/gopher8/hardware/video"
	"github.com/hexforge/gopher8/logger"
)

// ClockFreq is the default instruction clock in Hz. CHIP-8 has no canonical
// clock speed. 700Hz is comfortable for most historic programs.
const ClockFreq = 700

// TimerFreq is the rate at which the delay and sound timers decrement.
const TimerFreq = 60

// Chip8 struct is the main container for the emulated components of the
// machine.
type Chip8 struct {
	CPU    *cpu.CPU
	Mem    *memory.RAM
	Video  *video.Video
	Keypad *keypad.Keypad

	disp display.Display

	// instruction clock in Hz and the derived number of instruction ticks
	// per timer tick
	clock        int
	timerDivisor int

	// number of instruction ticks since the last Reset()
	ticks uint64

	// keypad state from the previous tick. used for edge detection feeding
	// the CPU's wait-for-key state
	prevKeys [keypad.NumKeys]bool
}

// NewChip8 creates a new Chip8 emulation. The display argument can not be
// nil; use display.Stub for headless operation. A clock of zero or less
// selects the default ClockFreq.
func NewChip8(disp display.Display, clock int) *Chip8 {
	if clock <= 0 {
		clock = ClockFreq
	}

	ch8 := &Chip8{
		Mem:    memory.NewRAM(),
		Video:  video.NewVideo(),
		Keypad: keypad.NewKeypad(),
		disp:   disp,
		clock:  clock,
	}
	ch8.CPU = cpu.NewCPU(ch8.Mem, ch8.Video)

	// the timers run at TimerFreq regardless of the instruction clock, so
	// they tick once every clock/TimerFreq instructions (rounded)
	ch8.timerDivisor = (clock + TimerFreq/2) / TimerFreq
	if ch8.timerDivisor < 1 {
		ch8.timerDivisor = 1
	}

	logger.Logf("hardware", "instruction clock: %dHz (timer divisor %d)", clock, ch8.timerDivisor)

	return ch8
}

// AttachDisplay replaces the display the machine submits frames to. Must not
// be called while the machine is running.
func (ch8 *Chip8) AttachDisplay(disp display.Display) {
	ch8.disp = disp
}

// AttachCartridge loads a cartridge into memory and resets the machine.
func (ch8 *Chip8) AttachCartridge(cart cartridge.Cartridge) error {
	err := ch8.Mem.LoadProgram(cart.Data)
	if err != nil {
		return curated.Errorf("chip8: %v", err)
	}
	ch8.Reset()
	return nil
}

// Reset the machine to its initial state. Loaded program data is untouched.
func (ch8 *Chip8) Reset() {
	ch8.CPU.Reset()
	ch8.Video.Clear()
	ch8.Video.ClearDirty()
	ch8.ticks = 0
	ch8.prevKeys = [keypad.NumKeys]bool{}
}

// Clock returns the instruction clock the machine is running at, in Hz.
func (ch8 *Chip8) Clock() int {
	return ch8.clock
}

// Ticks returns the number of instructions executed since the last Reset().
func (ch8 *Chip8) Ticks() uint64 {
	return ch8.ticks
}

// Step executes one instruction and performs whatever housekeeping is due on
// this tick. This is the only way the machine should be advanced.
func (ch8 *Chip8) Step() error {
	// sample the keypad before the instruction so wait-for-key sees edges
	// that happened since the previous tick
	keys := ch8.Keypad.Snapshot()
	ch8.CPU.SetKeys(keys, keypad.FirstEdge(ch8.prevKeys, keys))
	ch8.prevKeys = keys

	err := ch8.CPU.Step()
	if err != nil {
		return err
	}

	ch8.ticks++

	if ch8.ticks%uint64(ch8.timerDivisor) == 0 {
		ch8.CPU.TickTimers()

		// frames are handed to the display at the timer rate. more often
		// than that is wasted work, the display can't show them
		if ch8.Video.Dirty() {
			ch8.disp.SubmitFrame(ch8.Video.Pixels())
			ch8.Video.ClearDirty()
		}
	}

	return nil
}

// RunForTicks executes the specified number of instructions as quickly as
// possible. Principally for testing.
func (ch8 *Chip8) RunForTicks(numTicks int) error {
	for i := 0; i < numTicks; i++ {
		err := ch8.Step()
		if err != nil {
			return err
		}
	}
	return nil
}

// Run the emulation at the machine's instruction clock until the
// continueCheck callback returns false. continueCheck is consulted before
// every instruction. A nil continueCheck will run the machine forever (or
// until an emulation error).
func (ch8 *Chip8) Run(continueCheck func() (bool, error)) error {
	if continueCheck == nil {
		continueCheck = func() (bool, error) { return true, nil }
	}

	period := time.Second / time.Duration(ch8.clock)

	for {
		cont, err := continueCheck()
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}

		start := time.Now()

		err = ch8.Step()
		if err != nil {
			return err
		}

		// sleep off the remainder of the instruction period. there is no
		// catch-up when a tick overruns; the machine just runs slow
		if sl := period - time.Since(start); sl > 0 {
			time.Sleep(sl)
		}
	}
}
