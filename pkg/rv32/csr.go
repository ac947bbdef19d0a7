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

// Machine-mode CSR addresses
const (
	CSRMstatus  = 0x300
	CSRMtvec    = 0x305
	CSRMscratch = 0x340
	CSRMepc     = 0x341
	CSRMcause   = 0x342
	CSRMtval    = 0x343
	CSRMarchid  = 0xF12
	CSRMimpid   = 0xF13
)

// mstatus bits the core consumes
const (
	mstatusMIE  = 1 << 3 // global interrupt enable
	mstatusMPIE = 1 << 7 // previous MIE, rotated on trap entry/exit
)

// Identity values reported through marchid/mimpid
const (
	archID = 0xDC68D886
	impID  = 0xDC688001
)

// csrFile holds the exposed machine-mode registers. Unknown addresses
// read as zero and swallow writes, which is enough for the supported
// workloads.
type csrFile struct {
	mstatus  uint32
	mtvec    uint32
	mscratch uint32
	mepc     uint32
	mcause   uint32
	mtval    uint32
	marchid  uint32
	mimpid   uint32
}

func (c *csrFile) init() {
	*c = csrFile{
		marchid: archID,
		mimpid:  impID,
	}
}

func (c *csrFile) read(addr uint32) uint32 {
	switch addr {
	case CSRMstatus:
		return c.mstatus
	case CSRMtvec:
		return c.mtvec
	case CSRMscratch:
		return c.mscratch
	case CSRMepc:
		return c.mepc
	case CSRMcause:
		return c.mcause
	case CSRMtval:
		return c.mtval
	case CSRMarchid:
		return c.marchid
	case CSRMimpid:
		return c.mimpid
	}
	return 0
}

func (c *csrFile) write(addr, val uint32) {
	switch addr {
	case CSRMstatus:
		c.mstatus = val
	case CSRMtvec:
		c.mtvec = val
	case CSRMscratch:
		c.mscratch = val
	case CSRMepc:
		c.mepc = val
	case CSRMcause:
		c.mcause = val
	case CSRMtval:
		c.mtval = val
	}
	// marchid/mimpid and everything unknown are read-only or absent
}
