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

// Package termdisplay renders the emulated screen into the terminal with
// termbox. One screen pixel is one terminal cell.
//
// The emulated keypad is driven from the 4x4 grid of host keys below:
//
//	1 2 3 4        1 2 3 C
//	q w e r   =>   4 5 6 D
//	a s d f        7 8 9 E
//	z x c v        A 0 B F
//
// Terminals report key presses, not key releases, so a pressed key is
// released automatically after a short hold period.
package termdisplay

import (
	"sync"
	"time"

	"github.com/hexforge/gopher8/curated"
	"github.com/hexforge/gopher8/display"
	"github.com/hexforge/gopher8/hardware/video"
	"github.com/hexforge/gopher8/logger"

	"github.com/nsf/termbox-go"
)

// how long an emulated key stays down after the terminal reports a press
const keyHold = 150 * time.Millisecond

// map of host characters to keypad key numbers
var keyMap = map[rune]uint8{
	'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xc,
	'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xd,
	'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xe,
	'z': 0xa, 'x': 0x0, 'c': 0xb, 'v': 0xf,
}

// TermDisplay is a termbox implementation of the display.Display interface.
type TermDisplay struct {
	keys display.KeyReceiver

	// connects the termbox event loop with the parent process
	eventChannel chan display.Event

	// termbox events arrive on their own goroutine and are forwarded to
	// Service() through this channel
	termEvents chan termbox.Event

	// pending key releases, keyed by keypad key number. protected by
	// releaseLock because timers fire on their own goroutines
	releaseLock sync.Mutex
	release     map[uint8]*time.Timer

	crit struct {
		section sync.Mutex
		pixels  []uint8
		render  bool
	}
}

// NewTermDisplay is the preferred method of initialisation for the
// TermDisplay type.
func NewTermDisplay(keys display.KeyReceiver) (*TermDisplay, error) {
	scr := &TermDisplay{
		keys:       keys,
		termEvents: make(chan termbox.Event, 8),
		release:    make(map[uint8]*time.Timer),
	}

	err := termbox.Init()
	if err != nil {
		return nil, curated.Errorf("termdisplay: %v", err)
	}
	termbox.SetInputMode(termbox.InputEsc)
	termbox.HideCursor()

	scr.crit.pixels = make([]uint8, video.NumPixels)
	scr.crit.render = true

	// termbox.PollEvent blocks so it gets its own goroutine. the pump ends
	// when Destroy() interrupts the poll
	go func() {
		for {
			ev := termbox.PollEvent()
			if ev.Type == termbox.EventInterrupt {
				return
			}
			scr.termEvents <- ev
		}
	}()

	w, h := termbox.Size()
	if w < video.Width || h < video.Height {
		logger.Logf("termdisplay", "terminal is %dx%d, screen will be cropped (need %dx%d)",
			w, h, video.Width, video.Height)
	}

	return scr, nil
}

// SubmitFrame implements the display.Display interface. It is called from the
// emulation goroutine.
func (scr *TermDisplay) SubmitFrame(pixels []uint8) {
	scr.crit.section.Lock()
	defer scr.crit.section.Unlock()

	copy(scr.crit.pixels, pixels)
	scr.crit.render = true
}

// SetEventChannel implements the display.Display interface.
func (scr *TermDisplay) SetEventChannel(events chan display.Event) {
	scr.eventChannel = events
}

// Service implements the guiCreator interface. It must be called often.
func (scr *TermDisplay) Service() {
	for {
		select {
		case ev := <-scr.termEvents:
			scr.serviceTermboxEvent(ev)
		default:
			scr.renderIfDirty()
			return
		}
	}
}

func (scr *TermDisplay) serviceTermboxEvent(ev termbox.Event) {
	switch ev.Type {
	case termbox.EventKey:
		if ev.Key == termbox.KeyEsc || ev.Key == termbox.KeyCtrlC {
			scr.postEvent(display.EventWindowClose)
			return
		}
		if key, ok := keyMap[ev.Ch]; ok {
			scr.pressKey(key)
		}

	case termbox.EventResize:
		scr.crit.section.Lock()
		scr.crit.render = true
		scr.crit.section.Unlock()
	}
}

// pressKey pushes an emulated key down and schedules its release. a repeated
// press extends the hold.
func (scr *TermDisplay) pressKey(key uint8) {
	scr.keys.KeyDown(key)

	scr.releaseLock.Lock()
	defer scr.releaseLock.Unlock()

	if tmr, ok := scr.release[key]; ok {
		tmr.Stop()
	}
	scr.release[key] = time.AfterFunc(keyHold, func() {
		scr.keys.KeyUp(key)
	})
}

func (scr *TermDisplay) renderIfDirty() {
	scr.crit.section.Lock()
	defer scr.crit.section.Unlock()

	if !scr.crit.render {
		return
	}
	scr.crit.render = false

	_ = termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)
	for y := 0; y < video.Height; y++ {
		for x := 0; x < video.Width; x++ {
			if scr.crit.pixels[y*video.Width+x] != 0 {
				termbox.SetCell(x, y, ' ', termbox.ColorWhite, termbox.ColorWhite)
			}
		}
	}
	_ = termbox.Flush()
}

func (scr *TermDisplay) postEvent(ev display.Event) {
	if scr.eventChannel == nil {
		return
	}
	select {
	case scr.eventChannel <- ev:
	default:
		logger.Log("termdisplay", "dropped gui event")
	}
}

// Destroy implements the guiCreator interface.
func (scr *TermDisplay) Destroy() {
	scr.releaseLock.Lock()
	for _, tmr := range scr.release {
		tmr.Stop()
	}
	scr.releaseLock.Unlock()

	termbox.Interrupt()
	termbox.Close()
}
