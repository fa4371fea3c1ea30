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

// Package video implements the monochrome framebuffer of the CHIP-8 machine.
// Sprite drawing is an XOR operation: a set sprite bit toggles the pixel
// underneath it and a pixel turned off this way is reported as a collision.
// Sprites are clipped at the right and bottom edges of the screen, they do
// not wrap.
package video

// screen dimensions. fixed for all CHIP-8 machines.
const (
	Width     = 64
	Height    = 32
	NumPixels = Width * Height
)

// Video is the framebuffer of the CHIP-8 machine. each cell is logically
// boolean; zero is off, anything else is on.
//
// Video is owned by the emulation goroutine. the presentation side only ever
// sees copies made with the Pixels() function.
type Video struct {
	pixels [NumPixels]uint8

	// whether the framebuffer has changed since the last call to ClearDirty()
	dirty bool
}

// NewVideo is the preferred method of initialisation for the Video type.
func NewVideo() *Video {
	return &Video{}
}

// Clear turns every pixel off and marks the framebuffer dirty.
func (vid *Video) Clear() {
	for i := range vid.pixels {
		vid.pixels[i] = 0
	}
	vid.dirty = true
}

// DrawSprite XOR-draws the sprite rows at the specified coordinates and
// returns whether any pixel was turned off by the operation. The origin is
// taken modulo the screen dimensions; the body of the sprite is clipped at
// the screen edges.
func (vid *Video) DrawSprite(x, y uint8, rows []uint8) bool {
	px := int(x) % Width
	py := int(y) % Height

	collision := false

	for r := 0; r < len(rows) && py+r < Height; r++ {
		for c := 0; c < 8 && px+c < Width; c++ {
			if rows[r]&(0x80>>c) == 0 {
				continue
			}
			p := &vid.pixels[(py+r)*Width+px+c]
			if *p != 0 {
				*p = 0
				collision = true
			} else {
				*p = 1
			}
		}
	}

	vid.dirty = true

	return collision
}

// Pixel returns the state of the pixel at the specified coordinates.
func (vid *Video) Pixel(x, y int) bool {
	return vid.pixels[y*Width+x] != 0
}

// Pixels returns a copy of the framebuffer, suitable for handing to the
// presentation side.
func (vid *Video) Pixels() []uint8 {
	c := make([]uint8, NumPixels)
	copy(c, vid.pixels[:])
	return c
}

// Dirty returns whether the framebuffer has changed since the last call to
// ClearDirty().
func (vid *Video) Dirty() bool {
	return vid.dirty
}

// ClearDirty acknowledges that the current framebuffer contents have been
// handed to the presentation side.
func (vid *Video) ClearDirty() {
	vid.dirty = false
}
