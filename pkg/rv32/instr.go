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

// Opcode families, the low 7 bits of the instruction word
const (
	OpLUI    = 0b0110111
	OpAUIPC  = 0b0010111
	OpJAL    = 0b1101111
	OpJALR   = 0b1100111
	OpBranch = 0b1100011
	OpLoad   = 0b0000011
	OpStore  = 0b0100011
	OpImm    = 0b0010011
	OpReg    = 0b0110011
	OpSystem = 0b1110011
)

// funct3 values within families
const (
	funct3ADDI     = 0b000
	funct3SLLI     = 0b001
	funct3SLTI     = 0b010
	funct3SLTIU    = 0b011
	funct3XORI     = 0b100
	funct3SRLISRAI = 0b101
	funct3ORI      = 0b110
	funct3ANDI     = 0b111

	funct3LB  = 0b000
	funct3LH  = 0b001
	funct3LW  = 0b010
	funct3LBU = 0b100
	funct3LHU = 0b101

	funct3SB = 0b000
	funct3SH = 0b001
	funct3SW = 0b010

	funct3BEQ  = 0b000
	funct3BNE  = 0b001
	funct3BLT  = 0b100
	funct3BGE  = 0b101
	funct3BLTU = 0b110
	funct3BGEU = 0b111

	funct3ADDSUB = 0b000
	funct3SLL    = 0b001
	funct3SLT    = 0b010
	funct3SLTU   = 0b011
	funct3XOR    = 0b100
	funct3SRLSRA = 0b101
	funct3OR     = 0b110
	funct3AND    = 0b111

	funct3MUL    = 0b000
	funct3MULH   = 0b001
	funct3MULHSU = 0b010
	funct3MULHU  = 0b011
	funct3DIV    = 0b100
	funct3DIVU   = 0b101
	funct3REM    = 0b110
	funct3REMU   = 0b111

	funct3PRIV   = 0b000
	funct3CSRRW  = 0b001
	funct3CSRRS  = 0b010
	funct3CSRRC  = 0b011
	funct3CSRRWI = 0b101
	funct3CSRRSI = 0b110
	funct3CSRRCI = 0b111
)

// funct7 values
const (
	funct7Base = 0b0000000
	funct7Alt  = 0b0100000 // SUB, SRA, SRAI
	funct7M    = 0b0000001 // multiply/divide extension
	funct7MRET = 0b0011000
)

// InstrEBREAK is the exact EBREAK encoding, the debugger rendezvous point
const InstrEBREAK Instr = 0x00100073

// Instr is one 32-bit instruction word with bit-field accessors
type Instr uint32

func (i Instr) Opcode() uint32 {
	return uint32(i) & 0x7F
}

func (i Instr) Rd() uint32 {
	return uint32(i) >> 7 & 0x1F
}

func (i Instr) Funct3() uint32 {
	return uint32(i) >> 12 & 0x7
}

func (i Instr) Rs1() uint32 {
	return uint32(i) >> 15 & 0x1F
}

func (i Instr) Rs2() uint32 {
	return uint32(i) >> 20 & 0x1F
}

func (i Instr) Funct7() uint32 {
	return uint32(i) >> 25 & 0x7F
}

// CSR returns the 12-bit CSR address carried in the I-immediate field,
// unsigned by definition
func (i Instr) CSR() uint32 {
	return uint32(i) >> 20
}

// ImmI reassembles inst[31:20], sign-extended from bit 11
func (i Instr) ImmI() int32 {
	return int32(i) >> 20
}

// ImmS reassembles inst[31:25]|inst[11:7], sign-extended from bit 11
func (i Instr) ImmS() int32 {
	return int32(i)>>25<<5 | int32(uint32(i)>>7&0x1F)
}

// ImmB reassembles the branch offset, bit 0 always zero, sign-extended
// from bit 12
func (i Instr) ImmB() int32 {
	raw := uint32(i)
	imm := raw>>31<<12 | raw>>7&1<<11 | raw>>25&0x3F<<5 | raw>>8&0xF<<1
	return int32(imm<<19) >> 19
}

// ImmU places inst[31:12] in the upper 20 bits, low 12 bits zero
func (i Instr) ImmU() int32 {
	return int32(uint32(i) & 0xFFFFF000)
}

// ImmJ reassembles the jump offset, bit 0 always zero, sign-extended
// from bit 20
func (i Instr) ImmJ() int32 {
	raw := uint32(i)
	imm := raw>>31<<20 | raw>>12&0xFF<<12 | raw>>20&1<<11 | raw>>21&0x3FF<<1
	return int32(imm<<11) >> 11
}

// Encode helpers, the inverse of the accessors above. The self tests and
// the monitor assemble their probe programs with these.

func EncodeR(opcode, rd, funct3, rs1, rs2, funct7 uint32) Instr {
	return Instr(opcode&0x7F | rd&0x1F<<7 | funct3&0x7<<12 |
		rs1&0x1F<<15 | rs2&0x1F<<20 | funct7&0x7F<<25)
}

func EncodeI(opcode, rd, funct3, rs1 uint32, imm int32) Instr {
	return Instr(opcode&0x7F | rd&0x1F<<7 | funct3&0x7<<12 |
		rs1&0x1F<<15 | uint32(imm)&0xFFF<<20)
}

func EncodeS(opcode, funct3, rs1, rs2 uint32, imm int32) Instr {
	v := uint32(imm)
	return Instr(opcode&0x7F | v&0x1F<<7 | funct3&0x7<<12 |
		rs1&0x1F<<15 | rs2&0x1F<<20 | v>>5&0x7F<<25)
}

func EncodeB(opcode, funct3, rs1, rs2 uint32, imm int32) Instr {
	v := uint32(imm)
	return Instr(opcode&0x7F | v>>11&1<<7 | v>>1&0xF<<8 | funct3&0x7<<12 |
		rs1&0x1F<<15 | rs2&0x1F<<20 | v>>5&0x3F<<25 | v>>12&1<<31)
}

func EncodeU(opcode, rd uint32, imm int32) Instr {
	return Instr(opcode&0x7F | rd&0x1F<<7 | uint32(imm)&0xFFFFF000)
}

func EncodeJ(opcode, rd uint32, imm int32) Instr {
	v := uint32(imm)
	return Instr(opcode&0x7F | rd&0x1F<<7 | v>>12&0xFF<<12 |
		v>>11&1<<20 | v>>1&0x3FF<<21 | v>>20&1<<31)
}
