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

package video_test

import (
	"testing"

	"github.com/hexforge/gopher8/hardware/video"
	"github.com/hexforge/gopher8/test"
)

func TestClear(t *testing.T) {
	vid := video.NewVideo()
	vid.DrawSprite(0, 0, []uint8{0xff})
	vid.ClearDirty()

	vid.Clear()
	test.Equate(t, vid.Dirty(), true)

	for _, p := range vid.Pixels() {
		if p != 0 {
			t.Fatal("expected all pixels to be off after Clear()")
		}
	}
}

func TestDrawSprite(t *testing.T) {
	vid := video.NewVideo()

	// drawing onto a blank screen reports no collision
	collision := vid.DrawSprite(0, 0, []uint8{0xf0, 0x90})
	test.Equate(t, collision, false)
	test.Equate(t, vid.Dirty(), true)

	test.Equate(t, vid.Pixel(0, 0), true)
	test.Equate(t, vid.Pixel(3, 0), true)
	test.Equate(t, vid.Pixel(4, 0), false)
	test.Equate(t, vid.Pixel(0, 1), true)
	test.Equate(t, vid.Pixel(1, 1), false)
	test.Equate(t, vid.Pixel(3, 1), true)
}

func TestDrawSpriteDoubleXOR(t *testing.T) {
	vid := video.NewVideo()

	// a partial overlap to make sure the pre-draw state is non-trivial
	vid.DrawSprite(2, 1, []uint8{0x3c, 0x42})
	before := vid.Pixels()

	// drawing the same sprite twice restores the framebuffer. both draws
	// report a collision: the first overlaps the pixel at (8,2), the second
	// lands on everything the first draw turned on
	collision := vid.DrawSprite(4, 2, []uint8{0xff, 0xff})
	test.Equate(t, collision, true)
	collision = vid.DrawSprite(4, 2, []uint8{0xff, 0xff})
	test.Equate(t, collision, true)

	after := vid.Pixels()
	for i := range before {
		if before[i] != after[i] {
			t.Fatal("expected double-XOR to restore the framebuffer")
		}
	}
}

func TestDrawSpriteCollision(t *testing.T) {
	vid := video.NewVideo()

	vid.DrawSprite(0, 0, []uint8{0x80})
	collision := vid.DrawSprite(0, 0, []uint8{0x80})
	test.Equate(t, collision, true)
	test.Equate(t, vid.Pixel(0, 0), false)
}

func TestDrawSpriteClipping(t *testing.T) {
	vid := video.NewVideo()

	// a sprite drawn near the right edge only paints the in-bounds columns
	vid.DrawSprite(62, 0, []uint8{0xff})
	test.Equate(t, vid.Pixel(62, 0), true)
	test.Equate(t, vid.Pixel(63, 0), true)
	test.Equate(t, vid.Pixel(0, 0), false)
	test.Equate(t, vid.Pixel(1, 0), false)

	// and near the bottom edge only the in-bounds rows
	vid.Clear()
	vid.DrawSprite(0, 31, []uint8{0x80, 0x80, 0x80})
	test.Equate(t, vid.Pixel(0, 31), true)
	test.Equate(t, vid.Pixel(0, 0), false)
	test.Equate(t, vid.Pixel(0, 1), false)
}

func TestDrawSpriteOriginWrap(t *testing.T) {
	vid := video.NewVideo()

	// the origin is taken modulo the screen dimensions even though the body
	// of the sprite is clipped
	vid.DrawSprite(64, 32, []uint8{0x80})
	test.Equate(t, vid.Pixel(0, 0), true)
}
