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

// Package display defines the interface between the emulated machine and
// whatever is putting pixels in front of the user. The emulation goroutine
// only ever talks to a Display through SubmitFrame() so backends are free to
// render on whatever thread their toolkit demands.
package display

// Event represents a request from the display backend to the controlling
// goroutine.
type Event int

// List of valid Events.
const (
	// the user has asked for the window to close. the emulation should stop.
	EventWindowClose Event = iota
)

// KeyReceiver is any type that can accept key up/down notifications from a
// display backend. In practice this is the hardware keypad.
type KeyReceiver interface {
	KeyDown(key uint8)
	KeyUp(key uint8)
}

// Display implementations present emulated frames to the user.
type Display interface {
	// SubmitFrame hands a completed frame to the display. The slice is one
	// byte per pixel in row-major order and is owned by the caller; the
	// display must copy anything it wants to keep. SubmitFrame must not
	// block the emulation.
	SubmitFrame(pixels []uint8)

	// SetEventChannel registers the channel on which the display posts
	// events back to the controlling goroutine.
	SetEventChannel(events chan Event)
}

// Stub is a Display that does nothing. Used when running without any
// display, in tests for instance.
type Stub struct{}

// SubmitFrame implements the Display interface.
func (s *Stub) SubmitFrame(pixels []uint8) {
}

// SetEventChannel implements the Display interface.
func (s *Stub) SetEventChannel(events chan Event) {
}
