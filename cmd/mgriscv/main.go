// Copyright © 2019 mg
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/urfave/cli.v2"

	"github.com/master-g/mgriscv/pkg/device"
	"github.com/master-g/mgriscv/pkg/gdb"
	"github.com/master-g/mgriscv/pkg/image"
	"github.com/master-g/mgriscv/pkg/lcd"
	"github.com/master-g/mgriscv/pkg/memory"
	"github.com/master-g/mgriscv/pkg/pfic"
	"github.com/master-g/mgriscv/pkg/rv32"
	"github.com/master-g/mgriscv/pkg/systick"
	"github.com/master-g/mgriscv/pkg/usart"
)

const (
	defaultFlashBase = 0
	defaultFlashSize = 16 * 1024 * 1024

	defaultRAMBase = 0x20000000
	defaultRAMSize = 16 * 1024 * 1024

	lcdWidth  = 640
	lcdHeight = 480
)

func main() {
	app := &cli.App{
		Name:    "mgriscv",
		Usage:   "RV32IM simulator with GDB remote debug",
		Version: "v0.1.0",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "test",
				Aliases: []string{"t"},
				Usage:   "run built-in instruction tests",
			},
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "verbose logging of GDB remote traffic",
			},
			&cli.IntFlag{
				Name:    "gdb",
				Aliases: []string{"g"},
				Usage:   "enable the GDB server on `port`, 0 selects the default",
				Value:   -1,
			},
			&cli.StringFlag{
				Name:    "ram",
				Aliases: []string{"r"},
				Usage:   "override the RAM mapping, `base:size` in hex",
			},
			&cli.StringFlag{
				Name:    "flash",
				Aliases: []string{"f"},
				Usage:   "override the flash mapping, `base:size` in hex",
			},
			&cli.BoolFlag{
				Name:  "lcd",
				Usage: "attach the LCD display window",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// parseMapping decodes a base:size pair of hex numbers
func parseMapping(arg string, base, size uint32) (uint32, uint32, error) {
	if arg == "" {
		return base, size, nil
	}
	parts := strings.SplitN(arg, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("bad mapping %q, want base:size", arg)
	}
	b, err := strconv.ParseUint(parts[0], 16, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("bad mapping base %q: %v", parts[0], err)
	}
	s, err := strconv.ParseUint(parts[1], 16, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("bad mapping size %q: %v", parts[1], err)
	}
	return uint32(b), uint32(s), nil
}

func run(c *cli.Context) error {
	if c.Bool("test") {
		if !rv32.RunSelfTests(os.Stdout) {
			return cli.Exit("instruction tests failed", 1)
		}
		return nil
	}

	flashBase, flashSize, err := parseMapping(c.String("flash"), defaultFlashBase, defaultFlashSize)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	ramBase, ramSize, err := parseMapping(c.String("ram"), defaultRAMBase, defaultRAMSize)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	rv := rv32.New()

	ram := memory.New("ram", device.AttrReadable|device.AttrWritable, ramBase, ramSize)
	rv.AttachDevice(ram)

	flash := memory.New("flash", device.AttrReadable, flashBase, flashSize)
	rv.AttachDevice(flash)
	rv.SetFlash(flash)

	controller := pfic.New("pfic", pfic.Base)
	rv.AttachDevice(controller)
	rv.SetPFIC(controller)

	tick := systick.New("systick", systick.Base, controller)
	rv.AttachDevice(tick)
	defer tick.Close()

	rv.AttachDevice(usart.New("usart1", usart.Base))

	if c.Bool("lcd") {
		screen := lcd.New("mgriscv lcd", lcdWidth, lcdHeight)
		rv.AttachDevice(screen)
		screen.Start()
	}

	if c.NArg() < 1 {
		cli.ShowAppHelp(c)
		return cli.Exit("no image to load", 1)
	}
	if err := loadImage(rv, flash, c.Args().Get(0)); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	rv.Reset()

	if port := c.Int("gdb"); port >= 0 {
		if port == 0 {
			port = gdb.DefaultPort
		}
		server, err := gdb.New(rv, port, c.Bool("debug"))
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		fmt.Printf("gdb server listening on %v\n", server.Addr())
		server.Run()
		return nil
	}

	rv.FetchAndExecute(true)
	return nil
}

// loadImage places the program: ELF segments go through the bus to their
// physical addresses, anything inside flash bypasses the read-only
// attribute; raw binaries land at flash offset 0
func loadImage(rv *rv32.RV32, flash *memory.Memory, path string) error {
	segments, err := image.Load(path, flash.Base())
	if err != nil {
		return err
	}
	for _, seg := range segments {
		if seg.Addr >= flash.Base() && seg.Addr < flash.End() {
			flash.Load(seg.Addr-flash.Base(), seg.Data)
			continue
		}
		if err := rv.MemWrite(seg.Addr, seg.Data); err != nil {
			return fmt.Errorf("load segment at 0x%08x: %v", seg.Addr, err)
		}
	}
	return nil
}
