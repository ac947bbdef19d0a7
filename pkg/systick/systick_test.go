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

package systick

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/master-g/mgriscv/pkg/pfic"
)

func word(val uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, val)
	return buf
}

func TestSystick_Registers(t *testing.T) {
	controller := pfic.New("pfic", pfic.Base)
	s := New("systick", Base, controller)
	defer s.Close()

	// CMP is 64 bits accessed as two halves
	s.Write(Base+offCMP, word(0x11223344))
	s.Write(Base+offCMP+4, word(0x55667788))

	buf := make([]byte, 4)
	s.Read(Base+offCMP, buf)
	if got := binary.LittleEndian.Uint32(buf); got != 0x11223344 {
		t.Errorf("CMP low = 0x%08x, want 0x11223344", got)
	}
	s.Read(Base+offCMP+4, buf)
	if got := binary.LittleEndian.Uint32(buf); got != 0x55667788 {
		t.Errorf("CMP high = 0x%08x, want 0x55667788", got)
	}
}

func TestSystick_CountReload(t *testing.T) {
	controller := pfic.New("pfic", pfic.Base)
	s := New("systick", Base, controller)
	defer s.Close()

	s.Write(Base+offCMP, word(0x1000))

	// reload from CMP when bits 4 and 5 are set
	s.Write(Base+offCTLR, word(1<<4|1<<5))
	buf := make([]byte, 4)
	s.Read(Base+offCNT, buf)
	if got := binary.LittleEndian.Uint32(buf); got != 0x1000 {
		t.Errorf("CNT = 0x%08x, want CMP reload 0x1000", got)
	}

	// reload from zero when only bit 5 is set
	s.Write(Base+offCTLR, word(1<<5))
	s.Read(Base+offCNT, buf)
	if got := binary.LittleEndian.Uint32(buf); got != 0 {
		t.Errorf("CNT = 0x%08x, want 0", got)
	}
}

func TestSystick_SoftwareIRQ(t *testing.T) {
	controller := pfic.New("pfic", pfic.Base)
	s := New("systick", Base, controller)
	defer s.Close()

	s.Write(Base+offCTLR, word(1<<31))

	controller.Write(pfic.Base+0x100, word(1<<pfic.IRQSoftware))
	if got := controller.PendingIRQ(); got != pfic.IRQSoftware {
		t.Errorf("PendingIRQ() = %v, want %v", got, pfic.IRQSoftware)
	}
}

func TestSystick_ExpiryRaisesIRQ(t *testing.T) {
	controller := pfic.New("pfic", pfic.Base)
	s := New("systick", Base, controller)
	defer s.Close()

	controller.Write(pfic.Base+0x100, word(1<<pfic.IRQSystick))

	// CMP of 1e6 cycles at 100 MHz is a 10 ms countdown
	s.Write(Base+offCMP, word(1000000))
	s.Write(Base+offCTLR, word(1<<0|1<<1))

	deadline := time.Now().Add(100 * time.Millisecond)
	for time.Now().Before(deadline) {
		if controller.PendingIRQ() == pfic.IRQSystick {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if got := controller.PendingIRQ(); got != pfic.IRQSystick {
		t.Fatalf("timer IRQ not pending within 100ms")
	}

	buf := make([]byte, 4)
	s.Read(Base+offSR, buf)
	if got := binary.LittleEndian.Uint32(buf); got&1 == 0 {
		t.Errorf("SR = 0x%08x, want ready bit set", got)
	}

	// a 0-write clears the ready bit
	s.Write(Base+offSR, word(0))
	s.Read(Base+offSR, buf)
	if got := binary.LittleEndian.Uint32(buf); got != 0 {
		t.Errorf("SR = 0x%08x after clear, want 0", got)
	}
}
