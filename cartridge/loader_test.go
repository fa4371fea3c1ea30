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

package cartridge_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hexforge/gopher8/cartridge"
	"github.com/hexforge/gopher8/test"
)

func TestNewCartridge(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "pong.ch8")
	err := os.WriteFile(fn, []byte{0x12, 0x00}, 0o644)
	test.ExpectedSuccess(t, err)

	cart, err := cartridge.NewCartridge(fn)
	test.ExpectedSuccess(t, err)
	test.Equate(t, cart.Filename, fn)
	test.Equate(t, len(cart.Data), 2)
	test.Equate(t, cart.ShortName(), "pong")
}

func TestNewCartridgeMissingFile(t *testing.T) {
	_, err := cartridge.NewCartridge(filepath.Join(t.TempDir(), "no-such-file.ch8"))
	test.ExpectedFailure(t, err)
}
