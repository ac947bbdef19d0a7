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

package rv32

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/master-g/mgriscv/pkg/bus"
	"github.com/master-g/mgriscv/pkg/device"
	"github.com/master-g/mgriscv/pkg/log"
	"github.com/master-g/mgriscv/pkg/memory"
	"github.com/master-g/mgriscv/pkg/pfic"
)

// RegCount number of general purpose registers; the debugger addresses
// the program counter as register RegCount
const RegCount = 32

// RV32 is one RV32IM hart plus its bus, CSR file and debug state
type RV32 struct {
	Regs [RegCount]uint32
	PC   uint32

	instr Instr
	csr   csrFile

	bus   *bus.Bus
	flash *memory.Memory
	pfic  *pfic.PFIC

	breakpoints []uint32
	activeIRQ   int
	pause       uint32 // atomic, set by the debugger pause watcher
}

// New creates an uninitialized hart with an empty bus
func New() *RV32 {
	return &RV32{
		bus: bus.New(),
	}
}

// AttachDevice maps a device on the bus
func (rv *RV32) AttachDevice(dev device.Device) {
	rv.bus.Attach(dev)
}

// SetFlash names the memory device instructions are fetched from
func (rv *RV32) SetFlash(flash *memory.Memory) {
	rv.flash = flash
}

// Flash returns the fetch device
func (rv *RV32) Flash() *memory.Memory {
	return rv.flash
}

// SetPFIC attaches the interrupt controller consulted between retirements
func (rv *RV32) SetPFIC(p *pfic.PFIC) {
	rv.pfic = p
}

// PFIC returns the attached interrupt controller
func (rv *RV32) PFIC() *pfic.PFIC {
	return rv.pfic
}

// Reset returns the hart to its power-on state. Devices keep their
// mappings, the dispatch caches are dropped.
func (rv *RV32) Reset() {
	rv.Regs = [RegCount]uint32{}
	rv.PC = 0
	rv.instr = 0
	rv.activeIRQ = 0
	rv.csr.init()
	rv.bus.Reset()
	atomic.StoreUint32(&rv.pause, 0)
}

// ReadReg reads a general purpose register
func (rv *RV32) ReadReg(reg uint32) uint32 {
	return rv.Regs[reg]
}

// WriteReg writes a general purpose register, x0 stays zero
func (rv *RV32) WriteReg(reg, val uint32) {
	if reg != 0 {
		rv.Regs[reg] = val
	}
}

// ReadCSR reads a CSR by its 12-bit address
func (rv *RV32) ReadCSR(addr uint32) uint32 {
	return rv.csr.read(addr)
}

// WriteCSR writes a CSR by its 12-bit address
func (rv *RV32) WriteCSR(addr, val uint32) {
	rv.csr.write(addr, val)
}

// MemRead dispatches a bus read of len(data) bytes
func (rv *RV32) MemRead(addr uint32, data []byte) error {
	return rv.bus.Read(addr, data)
}

// MemWrite dispatches a bus write of len(data) bytes
func (rv *RV32) MemWrite(addr uint32, data []byte) error {
	return rv.bus.Write(addr, data)
}

// memRead is the execution engine's read path: a failure is logged and
// the instruction still retires, a compiled test program does not touch
// unmapped memory
func (rv *RV32) memRead(addr uint32, data []byte) {
	if err := rv.bus.Read(addr, data); err != nil {
		log.Lf("rv32: read fault at 0x%08x: %v", addr, err)
	}
}

func (rv *RV32) memWrite(addr uint32, data []byte) {
	if err := rv.bus.Write(addr, data); err != nil {
		log.Lf("rv32: write fault at 0x%08x: %v", addr, err)
	}
}

// AddBreakpoint registers a debugger breakpoint, duplicates are benign
func (rv *RV32) AddBreakpoint(addr uint32) {
	rv.breakpoints = append(rv.breakpoints, addr)
}

// RemoveBreakpoint drops one breakpoint at addr, reporting whether one
// was found
func (rv *RV32) RemoveBreakpoint(addr uint32) bool {
	for i, bp := range rv.breakpoints {
		if bp == addr {
			rv.breakpoints = append(rv.breakpoints[:i], rv.breakpoints[i+1:]...)
			return true
		}
	}
	return false
}

// DetectBreakpoint reports whether a breakpoint is set at addr
func (rv *RV32) DetectBreakpoint(addr uint32) bool {
	for _, bp := range rv.breakpoints {
		if bp == addr {
			return true
		}
	}
	return false
}

// RequestPause asks a running continue loop to stop between retirements.
// Safe from any goroutine.
func (rv *RV32) RequestPause() {
	atomic.StoreUint32(&rv.pause, 1)
}

// ClearPause rearms the loop. The debugger calls it before resuming,
// ahead of starting its pause watcher, so a stale flag cannot survive
// into the next continue and a fresh one is never lost.
func (rv *RV32) ClearPause() {
	atomic.StoreUint32(&rv.pause, 0)
}

func (rv *RV32) paused() bool {
	return atomic.LoadUint32(&rv.pause) != 0
}

// FetchAndExecute is the shared single-step/continue loop. With forever
// set it runs until an EBREAK, a breakpoint, a debugger pause or the PC
// leaving flash; otherwise it retires exactly one instruction. Pending
// enabled interrupts are taken between retirements while mstatus.MIE is
// set.
func (rv *RV32) FetchAndExecute(forever bool) {
	if rv.flash == nil || !rv.flash.Contains(rv.PC) {
		log.Lf("rv32: pc 0x%08x out of flash bounds", rv.PC)
		return
	}

	base := rv.flash.Base()
	mem := rv.flash.Bytes()
	for {
		if !rv.flash.Contains(rv.PC) {
			break
		}
		if forever && rv.DetectBreakpoint(rv.PC) {
			break
		}
		if forever && rv.paused() {
			break
		}

		rv.instr = Instr(binary.LittleEndian.Uint32(mem[rv.PC-base:]))
		rv.execute(rv.instr)
		if rv.instr == InstrEBREAK {
			break
		}

		if rv.csr.mstatus&mstatusMIE != 0 && rv.pfic != nil {
			if irq := rv.pfic.PendingIRQ(); irq >= 0 && irq != rv.activeIRQ {
				rv.enterIRQ(irq, rv.PC, uint32(irq), 0)
			}
		}

		if !forever {
			break
		}
	}
}

// enterIRQ performs the controlled transfer into a handler: mepc, mcause
// and mtval are latched, MIE rotates into MPIE, and the PC is loaded from
// the vector table at (mtvec &^ 3) + irq*4.
func (rv *RV32) enterIRQ(irq int, mepc, mcause, mtval uint32) {
	rv.csr.mepc = mepc
	rv.csr.mcause = mcause
	rv.csr.mtval = mtval

	rv.csr.mstatus &^= mstatusMPIE
	if rv.csr.mstatus&mstatusMIE != 0 {
		rv.csr.mstatus |= mstatusMPIE
	}
	rv.csr.mstatus &^= mstatusMIE

	var buf [4]byte
	rv.memRead(rv.csr.mtvec&^3+uint32(irq)*4, buf[:])
	rv.PC = binary.LittleEndian.Uint32(buf[:])
	rv.activeIRQ = irq
}

// exitIRQ is the MRET path: the interrupted PC and the MIE rotation are
// restored and the active line's pending bit is cleared.
func (rv *RV32) exitIRQ() {
	rv.PC = rv.csr.mepc

	rv.csr.mstatus &^= mstatusMIE
	if rv.csr.mstatus&mstatusMPIE != 0 {
		rv.csr.mstatus |= mstatusMIE
	}
	rv.csr.mstatus &^= mstatusMPIE

	if rv.pfic != nil {
		rv.pfic.ClearPending(rv.activeIRQ)
	}
	rv.activeIRQ = 0
}

// ActiveIRQ returns the line currently being serviced, 0 outside handlers
func (rv *RV32) ActiveIRQ() int {
	return rv.activeIRQ
}
