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
	"fmt"
	"io"

	"github.com/master-g/mgriscv/pkg/device"
	"github.com/master-g/mgriscv/pkg/memory"
	"github.com/master-g/mgriscv/pkg/pfic"
)

// selfTest is one assembled probe program plus the register values it
// must leave behind at the ebreak
type selfTest struct {
	name    string
	program []Instr
	want    map[uint32]uint32
}

var selfTests = []selfTest{
	{
		name: "arithmetic",
		program: []Instr{
			EncodeI(OpImm, 1, funct3ADDI, 0, 5),
			EncodeI(OpImm, 2, funct3ADDI, 0, -3),
			EncodeR(OpReg, 3, funct3ADDSUB, 1, 2, funct7Base),
			EncodeR(OpReg, 4, funct3ADDSUB, 1, 2, funct7Alt),
			InstrEBREAK,
		},
		want: map[uint32]uint32{1: 5, 2: 0xFFFFFFFD, 3: 2, 4: 8},
	},
	{
		name: "shifts",
		program: []Instr{
			EncodeU(OpLUI, 1, -1<<31),                                   // lui x1, 0x80000
			EncodeI(OpImm, 2, funct3SRLISRAI, 1, 1|int32(funct7Alt)<<5), // srai
			EncodeI(OpImm, 3, funct3SRLISRAI, 1, 1),                     // srli
			InstrEBREAK,
		},
		want: map[uint32]uint32{1: 0x80000000, 2: 0xC0000000, 3: 0x40000000},
	},
	{
		name: "muldiv",
		program: []Instr{
			EncodeI(OpImm, 1, funct3ADDI, 0, 7),
			EncodeI(OpImm, 2, funct3ADDI, 0, -3),
			EncodeR(OpReg, 3, funct3MUL, 1, 2, funct7M),
			EncodeR(OpReg, 4, funct3DIV, 1, 0, funct7M),
			EncodeR(OpReg, 5, funct3REM, 1, 0, funct7M),
			EncodeR(OpReg, 6, funct3DIV, 1, 2, funct7M),
			InstrEBREAK,
		},
		want: map[uint32]uint32{
			3: 0xFFFFFFEB, // -21
			4: 0xFFFFFFFF, // div by zero
			5: 7,          // rem by zero keeps dividend
			6: 0xFFFFFFFE, // -2
		},
	},
	{
		name: "branch loop",
		program: []Instr{
			EncodeI(OpImm, 1, funct3ADDI, 0, 10),
			EncodeI(OpImm, 1, funct3ADDI, 1, -1),
			EncodeB(OpBranch, funct3BNE, 1, 0, -4),
			InstrEBREAK,
		},
		want: map[uint32]uint32{1: 0},
	},
	{
		name: "memory roundtrip",
		program: []Instr{
			EncodeU(OpLUI, 1, 0x20000<<12),
			EncodeI(OpImm, 2, funct3ADDI, 0, 0x55),
			EncodeS(OpStore, funct3SW, 1, 2, 0),
			EncodeI(OpLoad, 3, funct3LW, 1, 0),
			InstrEBREAK,
		},
		want: map[uint32]uint32{2: 0x55, 3: 0x55},
	},
	{
		name: "load extension",
		program: []Instr{
			EncodeU(OpLUI, 1, 0x20000<<12),
			EncodeI(OpImm, 2, funct3ADDI, 0, -1),
			EncodeS(OpStore, funct3SB, 1, 2, 0),
			EncodeI(OpLoad, 3, funct3LB, 1, 0),
			EncodeI(OpLoad, 4, funct3LBU, 1, 0),
			InstrEBREAK,
		},
		want: map[uint32]uint32{3: 0xFFFFFFFF, 4: 0xFF},
	},
	{
		name: "csr scratch",
		program: []Instr{
			EncodeI(OpImm, 1, funct3ADDI, 0, 0x123),
			EncodeI(OpSystem, 0, funct3CSRRW, 1, CSRMscratch),
			EncodeI(OpSystem, 2, funct3CSRRS, 0, CSRMscratch),
			InstrEBREAK,
		},
		want: map[uint32]uint32{2: 0x123},
	},
}

// testBench builds a throwaway hart with 64K flash at zero, 64K RAM at
// the default RAM base and an interrupt controller
func testBench() (*RV32, *memory.Memory) {
	rv := New()
	flash := memory.New("flash", device.AttrReadable, 0, 0x10000)
	ram := memory.New("ram", device.AttrReadable|device.AttrWritable, 0x20000000, 0x10000)
	controller := pfic.New("pfic", pfic.Base)
	rv.AttachDevice(flash)
	rv.AttachDevice(ram)
	rv.AttachDevice(controller)
	rv.SetFlash(flash)
	rv.SetPFIC(controller)
	return rv, flash
}

// LoadProgram places assembled words into flash starting at its base
func LoadProgram(flash *memory.Memory, program []Instr) {
	buf := make([]byte, len(program)*4)
	for i, ir := range program {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(ir))
	}
	flash.Load(0, buf)
}

// RunSelfTests executes the built-in instruction tests and reports each
// group to out. Returns false when any group fails.
func RunSelfTests(out io.Writer) bool {
	pass := true
	for _, tc := range selfTests {
		rv, flash := testBench()
		LoadProgram(flash, tc.program)
		rv.Reset()
		rv.FetchAndExecute(true)

		ok := true
		for reg, want := range tc.want {
			if got := rv.ReadReg(reg); got != want {
				fmt.Fprintf(out, "  %s: x%d = 0x%08x, want 0x%08x\n", tc.name, reg, got, want)
				ok = false
			}
		}
		if ok {
			fmt.Fprintf(out, "%-18s ok\n", tc.name)
		} else {
			fmt.Fprintf(out, "%-18s FAILED\n", tc.name)
			pass = false
		}
	}
	return pass
}
