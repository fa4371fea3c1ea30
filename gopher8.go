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

package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/hexforge/gopher8/cartridge"
	"github.com/hexforge/gopher8/display"
	"github.com/hexforge/gopher8/display/sdldisplay"
	"github.com/hexforge/gopher8/display/termdisplay"
	"github.com/hexforge/gopher8/hardware"
	"github.com/hexforge/gopher8/logger"
	"github.com/hexforge/gopher8/modalflag"
	"github.com/hexforge/gopher8/version"
)

type stateReq = string

const (
	// main thread should end as soon as possible.
	//
	// takes optional int argument, indicating the status code.
	reqQuit stateReq = "QUIT"

	// reset interrupt signal handling. used when an alternative handler is
	// more appropriate. the play mode installs its own handler so that the
	// emulation can shut down gracefully.
	//
	// takes no arguments.
	reqNoIntSig stateReq = "NOINTSIG"
)

type stateRequest struct {
	req  stateReq
	args interface{}
}

// guiCreator facilitates the creation, servicing and destruction of displays
// that need to be run in the main thread.
//
// Note that there is no Create() function because we need the freedom to
// create the display how we want. Instead the creator is a channel which
// accepts a function that returns an instance of guiCreator.
type guiCreator interface {
	// cleanup resources used by the display
	Destroy()

	// Service() should not pause or loop longer than necessary (if at all).
	// It MUST ONLY be called as part of a larger loop from the main thread.
	// It should service all events that are not safe to do in sub-threads.
	Service()
}

// communication between the main() function and the launch() function. this
// is required because many gui solutions (notably SDL) require window event
// handling (including creation) to occur on the main thread.
type mainSync struct {
	state   chan stateRequest
	creator chan func() (guiCreator, error)

	// the result of creator will be returned on either of these two channels.
	creation      chan guiCreator
	creationError chan error
}

// #mainthread
func main() {
	sync := &mainSync{
		state:         make(chan stateRequest),
		creator:       make(chan func() (guiCreator, error)),
		creation:      make(chan guiCreator),
		creationError: make(chan error),
	}

	// the value to use with os.Exit(). can be changed with reqQuit
	// stateRequest
	exitVal := 0

	// #ctrlc default handler. can be turned off with reqNoIntSig request
	intChan := make(chan os.Signal, 1)
	signal.Notify(intChan, os.Interrupt)

	// launch program as a go routine. further communication is through the
	// mainSync instance
	go launch(sync)

	// loop until done is true. every iteration of the loop we listen for:
	//
	//  1. interrupt signals
	//  2. new display creation functions
	//  3. state requests
	//  4. anything in the Service() function of the most recently created
	//     display
	//
	done := false
	var scr guiCreator
	for !done {
		select {
		case <-intChan:
			fmt.Println("\r")
			done = true

		case creator := <-sync.creator:
			var err error

			// destroy existing display
			if scr != nil {
				scr.Destroy()
			}

			scr, err = creator()
			if err != nil {
				sync.creationError <- err
				scr = nil
			} else {
				sync.creation <- scr
			}

		case state := <-sync.state:
			switch state.req {
			case reqQuit:
				done = true
				if scr != nil {
					scr.Destroy()
				}

				if state.args != nil {
					if v, ok := state.args.(int); ok {
						exitVal = v
					} else {
						panic(fmt.Sprintf("cannot convert %s arguments into int", reqQuit))
					}
				}

			case reqNoIntSig:
				signal.Reset(os.Interrupt)
				if state.args != nil {
					panic(fmt.Sprintf("%s does not accept any arguments", reqNoIntSig))
				}
			}

		default:
			if scr != nil {
				scr.Service()
			}
		}
	}

	fmt.Print("\r")
	os.Exit(exitVal)
}

// launch is called from main() as a goroutine. uses mainSync instance to
// indicate display creation and to quit.
func launch(sync *mainSync) {
	ver, rev, _ := version.Version()
	logger.Logf("gopher8", "%s (%s)", ver, rev)

	md := &modalflag.Modes{Output: os.Stdout}
	md.NewArgs(os.Args[1:])
	md.NewMode()
	md.AddSubModes("RUN")

	p, err := md.Parse()
	switch p {
	case modalflag.ParseHelp:
		sync.state <- stateRequest{req: reqQuit}
		return

	case modalflag.ParseError:
		fmt.Printf("* error: %v\n", err)
		sync.state <- stateRequest{req: reqQuit, args: 10}
		return
	}

	switch md.Mode() {
	case "RUN":
		err = play(md, sync)
	}

	if err != nil {
		fmt.Printf("* error in %s mode: %s\n", md.String(), err)
		sync.state <- stateRequest{req: reqQuit, args: 20}
		return
	}

	sync.state <- stateRequest{req: reqQuit}
}

func play(md *modalflag.Modes, sync *mainSync) error {
	md.NewMode()

	dispType := md.AddString("display", "SDL", "display type: SDL, TERM, NONE")
	scale := md.AddInt("scale", 10, "pixel scaling for the SDL display")
	clock := md.AddInt("clock", hardware.ClockFreq, "instruction clock in Hz")
	ticks := md.AddInt("ticks", 0, "stop after this many instructions (0 means run forever)")
	log := md.AddBool("log", false, "echo debugging log to stdout")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	// set debugging log echo
	if *log {
		logger.SetEcho(os.Stdout)
	} else {
		logger.SetEcho(nil)
	}

	switch len(md.RemainingArgs()) {
	case 0:
		return fmt.Errorf("CHIP-8 program required for %s mode", md)
	case 1:
		cart, err := cartridge.NewCartridge(md.GetArg(0))
		if err != nil {
			return err
		}

		events := make(chan display.Event, 2)

		var disp display.Display

		// the machine is created before the display so the display creators
		// can feed its keypad. the display is attached below
		ch8 := hardware.NewChip8(&display.Stub{}, *clock)

		switch strings.ToUpper(*dispType) {
		case "NONE":
			disp = &display.Stub{}

		case "TERM":
			// stdout belongs to termbox from here on
			logger.SetEcho(nil)

			sync.creator <- func() (guiCreator, error) {
				return termdisplay.NewTermDisplay(ch8.Keypad)
			}

			select {
			case g := <-sync.creation:
				disp = g.(display.Display)
			case err := <-sync.creationError:
				return err
			}

		case "SDL":
			sync.creator <- func() (guiCreator, error) {
				return sdldisplay.NewSdlDisplay(ch8.Keypad, *scale)
			}

			select {
			case g := <-sync.creation:
				disp = g.(display.Display)
			case err := <-sync.creationError:
				return err
			}

		default:
			return fmt.Errorf("unknown display type (%s)", *dispType)
		}

		disp.SetEventChannel(events)
		ch8.AttachDisplay(disp)

		err = ch8.AttachCartridge(cart)
		if err != nil {
			return err
		}

		// turn off fallback ctrl-c handling so the emulation can stop cleanly
		sync.state <- stateRequest{req: reqNoIntSig}
		intChan := make(chan os.Signal, 1)
		signal.Notify(intChan, os.Interrupt)

		startTime := time.Now()

		err = ch8.Run(func() (bool, error) {
			if *ticks > 0 && ch8.Ticks() >= uint64(*ticks) {
				return false, nil
			}
			select {
			case <-intChan:
				return false, nil
			case ev := <-events:
				if ev == display.EventWindowClose {
					return false, nil
				}
			default:
			}
			return true, nil
		})
		if err != nil {
			return err
		}

		elapsed := time.Since(startTime).Seconds()
		if elapsed > 0 {
			logger.Logf("gopher8", "%d instructions in %.2fs (%.0fHz)",
				ch8.Ticks(), elapsed, float64(ch8.Ticks())/elapsed)
		}

	default:
		return fmt.Errorf("too many arguments for %s mode", md)
	}

	return nil
}
