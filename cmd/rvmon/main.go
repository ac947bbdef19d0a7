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

// rvmon is a terminal monitor for the RV32 hart: registers, RAM and a
// live disassembly around the PC, stepped one instruction at a time.
package main

import (
	"encoding/binary"
	"fmt"
	"log"
	"os"
	"strings"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/master-g/mgriscv/pkg/device"
	"github.com/master-g/mgriscv/pkg/image"
	"github.com/master-g/mgriscv/pkg/memory"
	"github.com/master-g/mgriscv/pkg/rv32"
)

const (
	flashBase = 0
	flashSize = 64 * 1024

	ramBase = 0x20000000
	ramSize = 64 * 1024
)

var (
	rv    *rv32.RV32
	flash *memory.Memory
	ram   *memory.Memory

	paragraphRegs  *widgets.Paragraph
	paragraphCode  *widgets.Paragraph
	paragraphRAM   *widgets.Paragraph
	paragraphFlash *widgets.Paragraph
	paragraphTips  *widgets.Paragraph
)

// demo runs when no image is given on the command line
var demo = []rv32.Instr{
	rv32.EncodeI(rv32.OpImm, 1, 0, 0, 10),            // addi x1, x0, 10
	rv32.EncodeI(rv32.OpImm, 2, 0, 0, 0),             // addi x2, x0, 0
	rv32.EncodeR(rv32.OpReg, 2, 0, 2, 1, 0),          // add  x2, x2, x1
	rv32.EncodeI(rv32.OpImm, 1, 0, 1, -1),            // addi x1, x1, -1
	rv32.EncodeB(rv32.OpBranch, 1, 1, 0, -8),         // bne  x1, x0, -8
	rv32.EncodeU(rv32.OpLUI, 3, int32(ramBase)),      // lui  x3, 0x20000
	rv32.EncodeS(rv32.OpStore, 2, 3, 2, 0),           // sw   x2, 0(x3)
	rv32.InstrEBREAK,
}

func renderRegs(p *widgets.Paragraph) {
	sb := &strings.Builder{}
	for reg := uint32(0); reg < rv32.RegCount; reg += 2 {
		sb.WriteString(fmt.Sprintf("x%-2d: %08X  x%-2d: %08X\n",
			reg, rv.ReadReg(reg), reg+1, rv.ReadReg(reg+1)))
	}
	sb.WriteString(fmt.Sprintf("PC : [%08X](fg:cyan)", rv.PC))
	p.Text = sb.String()
}

func renderMem(p *widgets.Paragraph, mem *memory.Memory, addr uint32, numRow, numCol int) {
	curAddr := addr
	sb := &strings.Builder{}
	buf := make([]byte, 1)
	for row := 0; row < numRow; row++ {
		sb.WriteString(fmt.Sprintf("%08X:", curAddr))
		for col := 0; col < numCol; col++ {
			buf[0] = 0
			mem.Read(curAddr, buf)
			sb.WriteString(fmt.Sprintf(" %02X", buf[0]))
			curAddr++
		}
		sb.WriteRune('\n')
	}
	p.Text = sb.String()
}

func renderCode(p *widgets.Paragraph) {
	sb := strings.Builder{}
	start := int64(rv.PC) - 4*4
	if start < flashBase {
		start = flashBase
	}
	mem := flash.Bytes()
	for addr := uint32(start); addr < uint32(start)+24*4 && addr+4 <= flashBase+flashSize; addr += 4 {
		ir := rv32.Instr(binary.LittleEndian.Uint32(mem[addr-flashBase:]))
		line := fmt.Sprintf("%08X  %s", addr, rv32.Disassemble(addr, ir))
		if addr == rv.PC {
			sb.WriteString(fmt.Sprintf("[%s](fg:cyan)", line))
		} else {
			sb.WriteString(line)
		}
		sb.WriteRune('\n')
	}
	p.Text = sb.String()
}

func draw() {
	renderRegs(paragraphRegs)
	renderCode(paragraphCode)
	renderMem(paragraphFlash, flash, flashBase, 8, 16)
	renderMem(paragraphRAM, ram, ramBase, 8, 16)
	paragraphTips.Text = "SPACE = Step Instruction    R = RESET    Q = Quit"

	ui.Render(paragraphRegs, paragraphCode, paragraphFlash, paragraphRAM, paragraphTips)
}

func loadHart() {
	rv = rv32.New()
	flash = memory.New("flash", device.AttrReadable, flashBase, flashSize)
	ram = memory.New("ram", device.AttrReadable|device.AttrWritable, ramBase, ramSize)
	rv.AttachDevice(flash)
	rv.AttachDevice(ram)
	rv.SetFlash(flash)

	if len(os.Args) > 1 {
		segments, err := image.Load(os.Args[1], flashBase)
		if err != nil {
			log.Fatal(err)
		}
		for _, seg := range segments {
			if seg.Addr >= flash.Base() && seg.Addr < flash.End() {
				flash.Load(seg.Addr-flash.Base(), seg.Data)
			}
		}
	} else {
		rv32.LoadProgram(flash, demo)
	}

	rv.Reset()
}

func initLayout() {
	paragraphRegs = widgets.NewParagraph()
	paragraphRegs.Title = "Registers"
	paragraphRegs.SetRect(0, 0, 34, 20)

	paragraphCode = widgets.NewParagraph()
	paragraphCode.Title = "Disassembly"
	paragraphCode.SetRect(34, 0, 80, 26)

	paragraphFlash = widgets.NewParagraph()
	paragraphFlash.Title = "Flash"
	paragraphFlash.SetRect(0, 20, 34, 30)

	paragraphRAM = widgets.NewParagraph()
	paragraphRAM.Title = "RAM"
	paragraphRAM.SetRect(34, 26, 80, 36)

	paragraphTips = widgets.NewParagraph()
	paragraphTips.Title = "Tips"
	paragraphTips.SetRect(0, 36, 80, 39)
}

func main() {
	if err := ui.Init(); err != nil {
		log.Fatalf("failed to initialize termui: %v", err)
	}
	defer ui.Close()

	initLayout()
	loadHart()

	draw()

	for e := range ui.PollEvents() {
		if e.Type == ui.KeyboardEvent {
			if e.ID == "q" || e.ID == "Q" || e.ID == "<C-c>" {
				break
			} else if e.ID == "<Space>" {
				rv.FetchAndExecute(false)
			} else if e.ID == "r" || e.ID == "R" {
				rv.Reset()
			}
			draw()
		}
	}
}
