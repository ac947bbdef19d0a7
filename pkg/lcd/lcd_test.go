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

package lcd

import (
	"encoding/binary"
	"testing"
)

func TestLCD_FramebufferRoundTrip(t *testing.T) {
	l := New("lcd", 4, 4)

	pixel := []byte{0x44, 0x33, 0x22, 0x11}
	if err := l.Write(BufBase+8, pixel); err != nil {
		t.Fatalf("Write(framebuffer) = %v, want nil", err)
	}

	buf := make([]byte, 4)
	if err := l.Read(BufBase+8, buf); err != nil {
		t.Fatalf("Read(framebuffer) = %v, want nil", err)
	}
	if binary.LittleEndian.Uint32(buf) != 0x11223344 {
		t.Errorf("pixel = %x, want 44332211", buf)
	}
}

func TestLCD_FlushEvent(t *testing.T) {
	l := New("lcd", 4, 4)

	val := make([]byte, 4)
	binary.LittleEndian.PutUint32(val, CtrlFlush)
	l.Write(Base+offCTRL, val)

	select {
	case <-l.Flushed():
	default:
		t.Errorf("no flush event after CTRL flush write")
	}

	// repeated flushes never block the bus side
	l.Write(Base+offCTRL, val)
	l.Write(Base+offCTRL, val)
}

func TestLCD_MouseWindow(t *testing.T) {
	l := New("lcd", 4, 4)
	l.SetMouse(17, 29, true)

	buf := make([]byte, 4)
	l.Read(Base+offMouseX, buf)
	if got := binary.LittleEndian.Uint32(buf); got != 17 {
		t.Errorf("MOUSEX = %v, want 17", got)
	}
	l.Read(Base+offMouseY, buf)
	if got := binary.LittleEndian.Uint32(buf); got != 29 {
		t.Errorf("MOUSEY = %v, want 29", got)
	}
	l.Read(Base+offMouseSt, buf)
	if got := binary.LittleEndian.Uint32(buf); got != 1 {
		t.Errorf("MOUSE_ST = %v, want 1", got)
	}

	l.SetMouse(17, 29, false)
	l.Read(Base+offMouseSt, buf)
	if got := binary.LittleEndian.Uint32(buf); got != 0 {
		t.Errorf("MOUSE_ST = %v, want 0", got)
	}
}
