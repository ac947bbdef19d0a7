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

import "fmt"

var branchNames = map[uint32]string{
	funct3BEQ: "beq", funct3BNE: "bne", funct3BLT: "blt",
	funct3BGE: "bge", funct3BLTU: "bltu", funct3BGEU: "bgeu",
}

var loadNames = map[uint32]string{
	funct3LB: "lb", funct3LH: "lh", funct3LW: "lw",
	funct3LBU: "lbu", funct3LHU: "lhu",
}

var storeNames = map[uint32]string{
	funct3SB: "sb", funct3SH: "sh", funct3SW: "sw",
}

var mulDivNames = map[uint32]string{
	funct3MUL: "mul", funct3MULH: "mulh", funct3MULHSU: "mulhsu",
	funct3MULHU: "mulhu", funct3DIV: "div", funct3DIVU: "divu",
	funct3REM: "rem", funct3REMU: "remu",
}

var csrNames = map[uint32]string{
	funct3CSRRW: "csrrw", funct3CSRRS: "csrrs", funct3CSRRC: "csrrc",
	funct3CSRRWI: "csrrwi", funct3CSRRSI: "csrrsi", funct3CSRRCI: "csrrci",
}

// Disassemble renders one instruction word as a mnemonic line. Used by
// the monitor; unknown words come back as .word directives.
func Disassemble(pc uint32, ir Instr) string {
	switch ir.Opcode() {
	case OpLUI:
		return fmt.Sprintf("lui x%d, 0x%x", ir.Rd(), uint32(ir.ImmU())>>12)
	case OpAUIPC:
		return fmt.Sprintf("auipc x%d, 0x%x", ir.Rd(), uint32(ir.ImmU())>>12)
	case OpJAL:
		return fmt.Sprintf("jal x%d, 0x%x", ir.Rd(), pc+uint32(ir.ImmJ()))
	case OpJALR:
		return fmt.Sprintf("jalr x%d, %d(x%d)", ir.Rd(), ir.ImmI(), ir.Rs1())
	case OpBranch:
		if name, ok := branchNames[ir.Funct3()]; ok {
			return fmt.Sprintf("%s x%d, x%d, 0x%x", name, ir.Rs1(), ir.Rs2(), pc+uint32(ir.ImmB()))
		}
	case OpLoad:
		if name, ok := loadNames[ir.Funct3()]; ok {
			return fmt.Sprintf("%s x%d, %d(x%d)", name, ir.Rd(), ir.ImmI(), ir.Rs1())
		}
	case OpStore:
		if name, ok := storeNames[ir.Funct3()]; ok {
			return fmt.Sprintf("%s x%d, %d(x%d)", name, ir.Rs2(), ir.ImmS(), ir.Rs1())
		}
	case OpImm:
		return disasmOpImm(ir)
	case OpReg:
		return disasmOpReg(ir)
	case OpSystem:
		return disasmSystem(ir)
	}
	return fmt.Sprintf(".word 0x%08x", uint32(ir))
}

func disasmOpImm(ir Instr) string {
	name := ""
	switch ir.Funct3() {
	case funct3ADDI:
		name = "addi"
	case funct3SLTI:
		name = "slti"
	case funct3SLTIU:
		name = "sltiu"
	case funct3XORI:
		name = "xori"
	case funct3ORI:
		name = "ori"
	case funct3ANDI:
		name = "andi"
	case funct3SLLI:
		return fmt.Sprintf("slli x%d, x%d, %d", ir.Rd(), ir.Rs1(), uint32(ir.ImmI())&0x1F)
	case funct3SRLISRAI:
		name = "srli"
		if uint32(ir.ImmI())>>5&0x7F == funct7Alt {
			name = "srai"
		}
		return fmt.Sprintf("%s x%d, x%d, %d", name, ir.Rd(), ir.Rs1(), uint32(ir.ImmI())&0x1F)
	}
	return fmt.Sprintf("%s x%d, x%d, %d", name, ir.Rd(), ir.Rs1(), ir.ImmI())
}

func disasmOpReg(ir Instr) string {
	name := ""
	if ir.Funct7() == funct7M {
		name = mulDivNames[ir.Funct3()]
	} else {
		switch ir.Funct3() {
		case funct3ADDSUB:
			name = "add"
			if ir.Funct7() == funct7Alt {
				name = "sub"
			}
		case funct3SLL:
			name = "sll"
		case funct3SLT:
			name = "slt"
		case funct3SLTU:
			name = "sltu"
		case funct3XOR:
			name = "xor"
		case funct3SRLSRA:
			name = "srl"
			if ir.Funct7() == funct7Alt {
				name = "sra"
			}
		case funct3OR:
			name = "or"
		case funct3AND:
			name = "and"
		}
	}
	if name == "" {
		return fmt.Sprintf(".word 0x%08x", uint32(ir))
	}
	return fmt.Sprintf("%s x%d, x%d, x%d", name, ir.Rd(), ir.Rs1(), ir.Rs2())
}

func disasmSystem(ir Instr) string {
	if ir.Funct3() == funct3PRIV {
		if ir == InstrEBREAK {
			return "ebreak"
		}
		if ir.Funct7() == funct7MRET {
			return "mret"
		}
		return fmt.Sprintf(".word 0x%08x", uint32(ir))
	}
	name, ok := csrNames[ir.Funct3()]
	if !ok {
		return fmt.Sprintf(".word 0x%08x", uint32(ir))
	}
	if ir.Funct3() >= funct3CSRRWI {
		return fmt.Sprintf("%s x%d, 0x%x, %d", name, ir.Rd(), ir.CSR(), ir.Rs1())
	}
	return fmt.Sprintf("%s x%d, 0x%x, x%d", name, ir.Rd(), ir.CSR(), ir.Rs1())
}
