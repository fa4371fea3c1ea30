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

// Package sdldisplay is an SDL2 implementation of the display.Display
// interface. The emulated keypad is driven from the host keyboard: the number
// pad supplies keys 0 to 9 and the letter keys A to F supply the rest.
package sdldisplay

import (
	"fmt"
	"sync"

	"github.com/hexforge/gopher8/curated"
	"github.com/hexforge/gopher8/display"
	"github.com/hexforge/gopher8/hardware/video"
	"github.com/hexforge/gopher8/logger"
	"github.com/hexforge/gopher8/version"

	"github.com/veandco/go-sdl2/sdl"
)

const pixelDepth = 4

// map of sdl keycodes to keypad key numbers
var keyMap = map[sdl.Keycode]uint8{
	sdl.K_KP_0: 0x0, sdl.K_KP_1: 0x1, sdl.K_KP_2: 0x2, sdl.K_KP_3: 0x3,
	sdl.K_KP_4: 0x4, sdl.K_KP_5: 0x5, sdl.K_KP_6: 0x6, sdl.K_KP_7: 0x7,
	sdl.K_KP_8: 0x8, sdl.K_KP_9: 0x9,
	sdl.K_a: 0xa, sdl.K_b: 0xb, sdl.K_c: 0xc,
	sdl.K_d: 0xd, sdl.K_e: 0xe, sdl.K_f: 0xf,
}

// SdlDisplay is an SDL2 implementation of the display.Display interface.
type SdlDisplay struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture

	keys display.KeyReceiver

	// connects the SDL event loop with the parent process
	eventChannel chan display.Event

	// the fields in the critical section are accessed by both the emulation
	// goroutine (through SubmitFrame) and the main thread (through Service)
	crit struct {
		section sync.Mutex

		// pixels in the ABGR format the texture expects. rebuilt on every
		// SubmitFrame
		pixels []byte

		// whether the texture needs updating from the pixels field
		render bool
	}
}

// NewSdlDisplay is the preferred method of initialisation for the SdlDisplay
// type. It must be called from the main thread, as must Service() and
// Destroy().
func NewSdlDisplay(keys display.KeyReceiver, scale int) (*SdlDisplay, error) {
	scr := &SdlDisplay{keys: keys}

	if scale <= 0 {
		scale = 10
	}

	err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS)
	if err != nil {
		return nil, curated.Errorf("sdldisplay: %v", err)
	}

	w := int32(video.Width * scale)
	h := int32(video.Height * scale)

	ver, _, _ := version.Version()
	scr.window, err = sdl.CreateWindow(fmt.Sprintf("%s (%s)", version.ApplicationName, ver),
		int32(sdl.WINDOWPOS_UNDEFINED), int32(sdl.WINDOWPOS_UNDEFINED),
		w, h, uint32(sdl.WINDOW_SHOWN))
	if err != nil {
		return nil, curated.Errorf("sdldisplay: %v", err)
	}

	scr.renderer, err = sdl.CreateRenderer(scr.window, -1, uint32(sdl.RENDERER_ACCELERATED))
	if err != nil {
		return nil, curated.Errorf("sdldisplay: %v", err)
	}

	// texture is the size of the emulated screen. the renderer scales it to
	// the window
	scr.texture, err = scr.renderer.CreateTexture(uint32(sdl.PIXELFORMAT_ABGR8888),
		int(sdl.TEXTUREACCESS_STREAMING),
		int32(video.Width), int32(video.Height))
	if err != nil {
		return nil, curated.Errorf("sdldisplay: %v", err)
	}

	scr.crit.pixels = make([]byte, video.NumPixels*pixelDepth)

	// show an all-black screen until the first frame arrives
	scr.render()

	logger.Logf("sdldisplay", "window size: %dx%d (scale %d)", w, h, scale)

	return scr, nil
}

// SubmitFrame implements the display.Display interface. It is called from the
// emulation goroutine.
func (scr *SdlDisplay) SubmitFrame(pixels []uint8) {
	scr.crit.section.Lock()
	defer scr.crit.section.Unlock()

	for i, p := range pixels {
		var c byte
		if p != 0 {
			c = 255
		}
		o := i * pixelDepth
		scr.crit.pixels[o] = c
		scr.crit.pixels[o+1] = c
		scr.crit.pixels[o+2] = c
		scr.crit.pixels[o+3] = 255
	}

	scr.crit.render = true
}

// SetEventChannel implements the display.Display interface.
func (scr *SdlDisplay) SetEventChannel(events chan display.Event) {
	scr.eventChannel = events
}

// render copies the pixel buffer to the texture and presents it. called with
// the critical section already locked, except during initialisation.
func (scr *SdlDisplay) render() {
	err := scr.texture.Update(nil, scr.crit.pixels, video.Width*pixelDepth)
	if err != nil {
		logger.Log("sdldisplay", err.Error())
		return
	}

	err = scr.renderer.Copy(scr.texture, nil, nil)
	if err != nil {
		logger.Log("sdldisplay", err.Error())
		return
	}

	scr.renderer.Present()
}

// Service implements the guiCreator interface. One call services any pending
// SDL events and redraws the screen if a new frame has arrived. It must be
// called often and only from the main thread.
func (scr *SdlDisplay) Service() {
	for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
		switch ev := ev.(type) {
		case *sdl.QuitEvent:
			scr.postEvent(display.EventWindowClose)

		case *sdl.WindowEvent:
			if ev.Event == sdl.WINDOWEVENT_EXPOSED {
				scr.crit.section.Lock()
				scr.crit.render = true
				scr.crit.section.Unlock()
			}

		case *sdl.KeyboardEvent:
			// key repeats are of no use to the emulated keypad
			if ev.Repeat != 0 {
				break
			}

			if ev.Keysym.Sym == sdl.K_ESCAPE && ev.Type == sdl.KEYDOWN {
				scr.postEvent(display.EventWindowClose)
				break
			}

			key, ok := keyMap[ev.Keysym.Sym]
			if !ok {
				break
			}

			switch ev.Type {
			case sdl.KEYDOWN:
				scr.keys.KeyDown(key)
			case sdl.KEYUP:
				scr.keys.KeyUp(key)
			}
		}
	}

	scr.crit.section.Lock()
	if scr.crit.render {
		scr.render()
		scr.crit.render = false
	}
	scr.crit.section.Unlock()
}

func (scr *SdlDisplay) postEvent(ev display.Event) {
	if scr.eventChannel == nil {
		return
	}
	select {
	case scr.eventChannel <- ev:
	default:
		logger.Log("sdldisplay", "dropped gui event")
	}
}

// Destroy implements the guiCreator interface.
func (scr *SdlDisplay) Destroy() {
	if scr.texture != nil {
		_ = scr.texture.Destroy()
	}
	if scr.renderer != nil {
		_ = scr.renderer.Destroy()
	}
	if scr.window != nil {
		_ = scr.window.Destroy()
	}
	sdl.Quit()
}
