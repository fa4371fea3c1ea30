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

// Package cartridge loads CHIP-8 program images from the file system. The
// image is raw binary: big-endian 16-bit instructions, loaded verbatim into
// emulated memory at the load origin. Whether the image actually fits in
// memory is checked when the cartridge is attached to the machine, not at
// load time.
package cartridge

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/hexforge/gopher8/curated"
	"github.com/hexforge/gopher8/logger"
)

// Cartridge is the loaded program image for attaching to the emulated
// machine.
type Cartridge struct {
	// filename of the loaded image
	Filename string

	// copy of the loaded data
	Data []byte
}

// NewCartridge reads the named file and returns a Cartridge ready for
// attachment.
func NewCartridge(filename string) (Cartridge, error) {
	logger.Logf("cartridge", "loading ROM: %s", filename)

	data, err := os.ReadFile(filename)
	if err != nil {
		return Cartridge{}, curated.Errorf("cartridge: %v", err)
	}

	logger.Logf("cartridge", "ROM loaded correctly (size = %d)", len(data))

	return Cartridge{
		Filename: filename,
		Data:     data,
	}, nil
}

// ShortName returns a shortened version of the cartridge filename, suitable
// for window titles and log entries.
func (cart Cartridge) ShortName() string {
	sn := filepath.Base(cart.Filename)
	return strings.TrimSuffix(sn, filepath.Ext(sn))
}
