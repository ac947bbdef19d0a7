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
	"testing"
	"time"

	"github.com/master-g/mgriscv/pkg/pfic"
	"github.com/master-g/mgriscv/pkg/systick"
)

// TestTimerInterrupt_EndToEnd wires the real timer through the PFIC into
// the trap pipeline: a spinning program is interrupted within host time
// and the handler leaves a sentinel in RAM.
func TestTimerInterrupt_EndToEnd(t *testing.T) {
	rv, flash := testBench()
	controller := rv.PFIC()
	tick := systick.New("systick", systick.Base, controller)
	defer tick.Close()
	rv.AttachDevice(tick)

	// main program spins in place, only the timer can break it out
	LoadProgram(flash, []Instr{
		EncodeJ(OpJAL, 0, 0),
	})
	rv.Reset()

	const table = 0x20000000
	const handlerAddr = 0x100
	installHandler(rv, flash, table, pfic.IRQSystick, handlerAddr, []Instr{
		EncodeU(OpLUI, 6, 0x20000<<12),
		EncodeI(OpImm, 7, funct3ADDI, 0, 0x55),
		EncodeS(OpStore, funct3SW, 6, 7, 0x400),
		InstrEBREAK,
	})

	// enable the timer line, then program a 10 ms countdown with the
	// IRQ-enable bit, all through the bus like guest code would
	var enable [4]byte
	binary.LittleEndian.PutUint32(enable[:], 1<<pfic.IRQSystick)
	rv.MemWrite(controller.Base()+0x100, enable[:])

	var word [4]byte
	binary.LittleEndian.PutUint32(word[:], 1000000) // CMP: 1e6 cycles at 100 MHz
	rv.MemWrite(systick.Base+0x10, word[:])
	binary.LittleEndian.PutUint32(word[:], 0b11) // CTLR: enable + IRQ enable
	rv.MemWrite(systick.Base, word[:])

	rv.WriteCSR(CSRMtvec, table)
	rv.WriteCSR(CSRMstatus, mstatusMIE)

	guard := time.AfterFunc(2*time.Second, rv.RequestPause)
	defer guard.Stop()

	start := time.Now()
	rv.FetchAndExecute(true)
	elapsed := time.Since(start)

	var sentinel [4]byte
	rv.MemRead(0x20000400, sentinel[:])
	if got := binary.LittleEndian.Uint32(sentinel[:]); got != 0x55 {
		t.Fatalf("sentinel = 0x%08x, want 0x55 (timer handler never ran)", got)
	}
	if elapsed > 100*time.Millisecond {
		t.Errorf("handler took %v, want under 100ms", elapsed)
	}
	// the spin loop never leaves address 0, so that is the interrupted PC
	if rv.ReadCSR(CSRMepc) != 0 {
		t.Errorf("mepc = 0x%08x, want 0", rv.ReadCSR(CSRMepc))
	}
	if rv.ReadCSR(CSRMcause) != pfic.IRQSystick {
		t.Errorf("mcause = %v, want %v", rv.ReadCSR(CSRMcause), pfic.IRQSystick)
	}
	if rv.ActiveIRQ() != pfic.IRQSystick {
		t.Errorf("ActiveIRQ() = %v, want %v inside the handler", rv.ActiveIRQ(), pfic.IRQSystick)
	}
}
