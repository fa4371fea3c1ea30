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

// Package keypad implements the 16-key keypad of the CHIP-8 machine and the
// synchronisation between the presentation side, which writes key states as
// host events arrive, and the emulation goroutine, which reads a snapshot of
// all 16 keys once per instruction tick.
//
// Each key is an independent atomic value. There is no atomicity across the
// whole vector: a snapshot may mix values from before and after a concurrent
// write. This is acceptable because edge detection is re-evaluated on every
// tick and a missed edge is recovered by the next tick's comparison. The one
// exception is the wait-for-key instruction's single-shot edge capture, which
// can miss a keypress shorter than one tick. That limitation is inherited
// from the machine being emulated and is not corrected.
package keypad

import (
	"sync/atomic"
)

// NumKeys is the number of keys on the CHIP-8 keypad, indexed 0x0 to 0xF.
const NumKeys = 16

// NoKey is the value used to indicate that no new key press has been
// detected.
const NoKey = -1

// Keypad bridges asynchronous host key events into per-tick snapshots.
type Keypad struct {
	keys [NumKeys]atomic.Bool
}

// NewKeypad is the preferred method of initialisation for the Keypad type.
func NewKeypad() *Keypad {
	return &Keypad{}
}

// KeyDown marks the specified key as pressed. Called from the presentation
// side. Key values outside the keypad range are ignored.
func (pad *Keypad) KeyDown(key uint8) {
	if key < NumKeys {
		pad.keys[key].Store(true)
	}
}

// KeyUp marks the specified key as released. Called from the presentation
// side. Key values outside the keypad range are ignored.
func (pad *Keypad) KeyUp(key uint8) {
	if key < NumKeys {
		pad.keys[key].Store(false)
	}
}

// Snapshot returns the current state of all 16 keys. Safe to call
// concurrently with KeyDown()/KeyUp() but with per-key visibility only; see
// the package documentation.
func (pad *Keypad) Snapshot() [NumKeys]bool {
	var snap [NumKeys]bool
	for i := range pad.keys {
		snap[i] = pad.keys[i].Load()
	}
	return snap
}

// FirstEdge returns the index of the first key, in index order, that has
// transitioned from unpressed to pressed between the two snapshots; or NoKey
// if there is no such key.
//
// Simultaneous new presses beyond the first are deliberately dropped. CHIP-8
// programs waiting on a key expect a single value and this first-match policy
// matches the behaviour of the machine being emulated.
func FirstEdge(prev, curr [NumKeys]bool) int {
	for i := range curr {
		if curr[i] && !prev[i] {
			return i
		}
	}
	return NoKey
}
