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

	"github.com/master-g/mgriscv/pkg/log"
)

// execute runs one decoded instruction: registers, memory and CSR effects
// first, then the PC update. Control transfers set the PC themselves,
// everything else advances by 4.
func (rv *RV32) execute(ir Instr) {
	switch ir.Opcode() {
	case OpLUI:
		rv.WriteReg(ir.Rd(), uint32(ir.ImmU()))
		rv.PC += 4
	case OpAUIPC:
		rv.WriteReg(ir.Rd(), rv.PC+uint32(ir.ImmU()))
		rv.PC += 4
	case OpJAL:
		rv.WriteReg(ir.Rd(), rv.PC+4)
		rv.PC += uint32(ir.ImmJ())
	case OpJALR:
		target := rv.ReadReg(ir.Rs1()) + uint32(ir.ImmI())
		rv.WriteReg(ir.Rd(), rv.PC+4)
		rv.PC = target
	case OpBranch:
		rv.execBranch(ir)
	case OpLoad:
		rv.execLoad(ir)
		rv.PC += 4
	case OpStore:
		rv.execStore(ir)
		rv.PC += 4
	case OpImm:
		rv.execOpImm(ir)
		rv.PC += 4
	case OpReg:
		rv.execOpReg(ir)
		rv.PC += 4
	case OpSystem:
		rv.execSystem(ir)
	default:
		log.Lf("rv32: unknown opcode 0b%07b at pc=0x%08x", ir.Opcode(), rv.PC)
		rv.PC += 4
	}
}

func (rv *RV32) execBranch(ir Instr) {
	rs1 := rv.ReadReg(ir.Rs1())
	rs2 := rv.ReadReg(ir.Rs2())

	taken := false
	switch ir.Funct3() {
	case funct3BEQ:
		taken = rs1 == rs2
	case funct3BNE:
		taken = rs1 != rs2
	case funct3BLT:
		taken = int32(rs1) < int32(rs2)
	case funct3BGE:
		taken = int32(rs1) >= int32(rs2)
	case funct3BLTU:
		taken = rs1 < rs2
	case funct3BGEU:
		taken = rs1 >= rs2
	default:
		log.Lf("rv32: unknown branch funct3 0b%03b at pc=0x%08x", ir.Funct3(), rv.PC)
	}

	if taken {
		rv.PC += uint32(ir.ImmB())
	} else {
		rv.PC += 4
	}
}

func (rv *RV32) execLoad(ir Instr) {
	addr := rv.ReadReg(ir.Rs1()) + uint32(ir.ImmI())

	var buf [4]byte
	switch ir.Funct3() {
	case funct3LB:
		rv.memRead(addr, buf[:1])
		rv.WriteReg(ir.Rd(), uint32(int32(int8(buf[0]))))
	case funct3LBU:
		rv.memRead(addr, buf[:1])
		rv.WriteReg(ir.Rd(), uint32(buf[0]))
	case funct3LH:
		rv.memRead(addr, buf[:2])
		rv.WriteReg(ir.Rd(), uint32(int32(int16(binary.LittleEndian.Uint16(buf[:2])))))
	case funct3LHU:
		rv.memRead(addr, buf[:2])
		rv.WriteReg(ir.Rd(), uint32(binary.LittleEndian.Uint16(buf[:2])))
	case funct3LW:
		rv.memRead(addr, buf[:4])
		rv.WriteReg(ir.Rd(), binary.LittleEndian.Uint32(buf[:4]))
	default:
		log.Lf("rv32: unknown load funct3 0b%03b at pc=0x%08x", ir.Funct3(), rv.PC)
	}
}

func (rv *RV32) execStore(ir Instr) {
	addr := rv.ReadReg(ir.Rs1()) + uint32(ir.ImmS())

	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], rv.ReadReg(ir.Rs2()))
	switch ir.Funct3() {
	case funct3SB:
		rv.memWrite(addr, buf[:1])
	case funct3SH:
		rv.memWrite(addr, buf[:2])
	case funct3SW:
		rv.memWrite(addr, buf[:4])
	default:
		log.Lf("rv32: unknown store funct3 0b%03b at pc=0x%08x", ir.Funct3(), rv.PC)
	}
}

func (rv *RV32) execOpImm(ir Instr) {
	rs1 := rv.ReadReg(ir.Rs1())
	imm := ir.ImmI()

	switch ir.Funct3() {
	case funct3ADDI:
		rv.WriteReg(ir.Rd(), rs1+uint32(imm))
	case funct3SLTI:
		rv.WriteReg(ir.Rd(), boolToReg(int32(rs1) < imm))
	case funct3SLTIU:
		rv.WriteReg(ir.Rd(), boolToReg(rs1 < uint32(imm)))
	case funct3XORI:
		rv.WriteReg(ir.Rd(), rs1^uint32(imm))
	case funct3ORI:
		rv.WriteReg(ir.Rd(), rs1|uint32(imm))
	case funct3ANDI:
		rv.WriteReg(ir.Rd(), rs1&uint32(imm))
	case funct3SLLI:
		rv.WriteReg(ir.Rd(), rs1<<(uint32(imm)&0x1F))
	case funct3SRLISRAI:
		shamt := uint32(imm) & 0x1F
		if uint32(imm)>>5&0x7F == funct7Alt {
			rv.WriteReg(ir.Rd(), uint32(int32(rs1)>>shamt))
		} else {
			rv.WriteReg(ir.Rd(), rs1>>shamt)
		}
	}
}

func (rv *RV32) execOpReg(ir Instr) {
	if ir.Funct7() == funct7M {
		rv.execMulDiv(ir)
		return
	}

	rs1 := rv.ReadReg(ir.Rs1())
	rs2 := rv.ReadReg(ir.Rs2())

	switch ir.Funct3() {
	case funct3ADDSUB:
		if ir.Funct7() == funct7Alt {
			rv.WriteReg(ir.Rd(), rs1-rs2)
		} else {
			rv.WriteReg(ir.Rd(), rs1+rs2)
		}
	case funct3SLL:
		rv.WriteReg(ir.Rd(), rs1<<(rs2&0x1F))
	case funct3SLT:
		rv.WriteReg(ir.Rd(), boolToReg(int32(rs1) < int32(rs2)))
	case funct3SLTU:
		rv.WriteReg(ir.Rd(), boolToReg(rs1 < rs2))
	case funct3XOR:
		rv.WriteReg(ir.Rd(), rs1^rs2)
	case funct3SRLSRA:
		if ir.Funct7() == funct7Alt {
			rv.WriteReg(ir.Rd(), uint32(int32(rs1)>>(rs2&0x1F)))
		} else {
			rv.WriteReg(ir.Rd(), rs1>>(rs2&0x1F))
		}
	case funct3OR:
		rv.WriteReg(ir.Rd(), rs1|rs2)
	case funct3AND:
		rv.WriteReg(ir.Rd(), rs1&rs2)
	}
}

// execMulDiv implements the M extension. Division by zero and the
// most-negative/-1 overflow follow the ISA: DIV/0 is -1, REM/0 is the
// dividend, overflow keeps the dividend for DIV and yields 0 for REM.
func (rv *RV32) execMulDiv(ir Instr) {
	rs1 := rv.ReadReg(ir.Rs1())
	rs2 := rv.ReadReg(ir.Rs2())

	switch ir.Funct3() {
	case funct3MUL:
		rv.WriteReg(ir.Rd(), uint32(int64(int32(rs1))*int64(int32(rs2))))
	case funct3MULH:
		rv.WriteReg(ir.Rd(), uint32(uint64(int64(int32(rs1))*int64(int32(rs2)))>>32))
	case funct3MULHSU:
		rv.WriteReg(ir.Rd(), uint32(uint64(int64(int32(rs1))*int64(rs2))>>32))
	case funct3MULHU:
		rv.WriteReg(ir.Rd(), uint32(uint64(rs1)*uint64(rs2)>>32))
	case funct3DIV:
		switch {
		case rs2 == 0:
			rv.WriteReg(ir.Rd(), 0xFFFFFFFF)
		case rs1 == 0x80000000 && rs2 == 0xFFFFFFFF:
			rv.WriteReg(ir.Rd(), rs1)
		default:
			rv.WriteReg(ir.Rd(), uint32(int32(rs1)/int32(rs2)))
		}
	case funct3DIVU:
		if rs2 == 0 {
			rv.WriteReg(ir.Rd(), 0xFFFFFFFF)
		} else {
			rv.WriteReg(ir.Rd(), rs1/rs2)
		}
	case funct3REM:
		switch {
		case rs2 == 0:
			rv.WriteReg(ir.Rd(), rs1)
		case rs1 == 0x80000000 && rs2 == 0xFFFFFFFF:
			rv.WriteReg(ir.Rd(), 0)
		default:
			rv.WriteReg(ir.Rd(), uint32(int32(rs1)%int32(rs2)))
		}
	case funct3REMU:
		if rs2 == 0 {
			rv.WriteReg(ir.Rd(), rs1)
		} else {
			rv.WriteReg(ir.Rd(), rs1%rs2)
		}
	}
}

// execSystem covers the Zicsr read-modify-write flavours plus EBREAK and
// MRET. All CSR flavours latch the old value into rd before computing the
// new one.
func (rv *RV32) execSystem(ir Instr) {
	if ir.Funct3() == funct3PRIV {
		switch {
		case ir == InstrEBREAK:
			// rendezvous point, the loop stops without advancing the PC
		case ir.Funct7() == funct7MRET:
			rv.exitIRQ()
		default:
			log.Lf("rv32: unknown system instruction 0x%08x at pc=0x%08x", uint32(ir), rv.PC)
			rv.PC += 4
		}
		return
	}

	addr := ir.CSR()
	old := rv.csr.read(addr)
	src := rv.ReadReg(ir.Rs1())
	uimm := ir.Rs1()

	rv.WriteReg(ir.Rd(), old)
	switch ir.Funct3() {
	case funct3CSRRW:
		rv.csr.write(addr, src)
	case funct3CSRRS:
		rv.csr.write(addr, old|src)
	case funct3CSRRC:
		rv.csr.write(addr, old&^src)
	case funct3CSRRWI:
		rv.csr.write(addr, uimm)
	case funct3CSRRSI:
		rv.csr.write(addr, old|uimm)
	case funct3CSRRCI:
		rv.csr.write(addr, old&^uimm)
	default:
		log.Lf("rv32: unknown system funct3 0b%03b at pc=0x%08x", ir.Funct3(), rv.PC)
	}
	rv.PC += 4
}

func boolToReg(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
