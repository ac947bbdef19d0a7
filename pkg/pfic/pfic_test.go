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

package pfic

import (
	"encoding/binary"
	"testing"
)

func word(val uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, val)
	return buf
}

func TestPFIC_EnableWindows(t *testing.T) {
	p := New("pfic", Base)

	// set-enable lines 3 and 40
	p.Write(Base+offSetEnable, word(1<<3))
	p.Write(Base+offSetEnable+4, word(1<<8))
	if !p.Enabled(3) {
		t.Errorf("Enabled(3) = false, want true")
	}
	if !p.Enabled(40) {
		t.Errorf("Enabled(40) = false, want true")
	}

	// readable through the raw state window
	buf := make([]byte, 4)
	p.Read(Base+offISR, buf)
	if got := binary.LittleEndian.Uint32(buf); got != 1<<3 {
		t.Errorf("ISR[0] = 0x%08x, want 0x%08x", got, uint32(1)<<3)
	}

	// clear-enable drops line 3 only
	p.Write(Base+offClearEnable, word(1<<3))
	if p.Enabled(3) {
		t.Errorf("Enabled(3) = true after clear, want false")
	}
	if !p.Enabled(40) {
		t.Errorf("Enabled(40) = false after unrelated clear, want true")
	}
}

func TestPFIC_PendingWindows(t *testing.T) {
	p := New("pfic", Base)

	p.Write(Base+offSetPending, word(1<<12))
	buf := make([]byte, 4)
	p.Read(Base+offIPR, buf)
	if got := binary.LittleEndian.Uint32(buf); got != 1<<12 {
		t.Errorf("IPR[0] = 0x%08x, want bit 12", got)
	}

	p.Write(Base+offClearPend, word(1<<12))
	p.Read(Base+offIPR, buf)
	if got := binary.LittleEndian.Uint32(buf); got != 0 {
		t.Errorf("IPR[0] = 0x%08x after clear, want 0", got)
	}
}

func TestPFIC_PriorityBytes(t *testing.T) {
	p := New("pfic", Base)

	p.Write(Base+offPriority+12, []byte{0x40})
	buf := make([]byte, 1)
	p.Read(Base+offPriority+12, buf)
	if buf[0] != 0x40 {
		t.Errorf("IPRIOR[12] = 0x%02x, want 0x40", buf[0])
	}
}

func TestPFIC_Arbitration(t *testing.T) {
	p := New("pfic", Base)

	if got := p.PendingIRQ(); got != -1 {
		t.Errorf("PendingIRQ() = %v, want -1 when idle", got)
	}

	// pending but not enabled is not eligible
	p.SetPending(12)
	if got := p.PendingIRQ(); got != -1 {
		t.Errorf("PendingIRQ() = %v, want -1 without enable", got)
	}

	p.Write(Base+offSetEnable, word(1<<12|1<<14))
	p.SetPending(14)

	// 14 gets a better (lower) priority than 12
	p.Write(Base+offPriority+12, []byte{0x80})
	p.Write(Base+offPriority+14, []byte{0x40})
	if got := p.PendingIRQ(); got != 14 {
		t.Errorf("PendingIRQ() = %v, want 14 (lower priority value)", got)
	}

	// equal priorities tie to the lowest index
	p.Write(Base+offPriority+14, []byte{0x80})
	if got := p.PendingIRQ(); got != 12 {
		t.Errorf("PendingIRQ() = %v, want 12 on tie", got)
	}

	p.ClearPending(12)
	if got := p.PendingIRQ(); got != 14 {
		t.Errorf("PendingIRQ() = %v, want 14 after clearing 12", got)
	}
}

func TestPFIC_HighLines(t *testing.T) {
	p := New("pfic", Base)

	// line 200 lives in word 6 bit 8
	p.Write(Base+offSetEnable+6*4, word(1<<8))
	p.SetPending(200)
	if got := p.PendingIRQ(); got != 200 {
		t.Errorf("PendingIRQ() = %v, want 200", got)
	}
}

func TestPFIC_Reset(t *testing.T) {
	p := New("pfic", Base)
	p.Write(Base+offSetEnable, word(1<<5))
	p.SetPending(5)
	p.Reset()
	if got := p.PendingIRQ(); got != -1 {
		t.Errorf("PendingIRQ() = %v after Reset, want -1", got)
	}
}
