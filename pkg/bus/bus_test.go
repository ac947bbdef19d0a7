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

package bus

import (
	"errors"
	"testing"

	"github.com/master-g/mgriscv/pkg/device"
	"github.com/master-g/mgriscv/pkg/memory"
)

func TestBus_ReadWrite(t *testing.T) {
	b := New()
	ram := memory.New("ram", device.AttrReadable|device.AttrWritable, 0x1000, 0x100)
	b.Attach(ram)

	if err := b.Write(0x1010, []byte{0xDE, 0xAD, 0xBE, 0xEF}); err != nil {
		t.Fatalf("Write() = %v, want nil", err)
	}
	buf := make([]byte, 4)
	if err := b.Read(0x1010, buf); err != nil {
		t.Fatalf("Read() = %v, want nil", err)
	}
	if buf[0] != 0xDE || buf[3] != 0xEF {
		t.Errorf("Read() = %x, want deadbeef", buf)
	}
}

func TestBus_Unmapped(t *testing.T) {
	b := New()
	b.Attach(memory.New("ram", device.AttrReadable|device.AttrWritable, 0x1000, 0x100))

	buf := make([]byte, 1)
	if err := b.Read(0x2000, buf); !errors.Is(err, ErrUnmapped) {
		t.Errorf("Read(unmapped) = %v, want ErrUnmapped", err)
	}
	if err := b.Write(0xFFF, buf); !errors.Is(err, ErrUnmapped) {
		t.Errorf("Write(below range) = %v, want ErrUnmapped", err)
	}
	// 0x1100 is one past the end, exclusive bound
	if err := b.Read(0x1100, buf); !errors.Is(err, ErrUnmapped) {
		t.Errorf("Read(end) = %v, want ErrUnmapped", err)
	}
	if err := b.Read(0x10FF, buf); err != nil {
		t.Errorf("Read(last byte) = %v, want nil", err)
	}
}

func TestBus_CacheSwitchesDevices(t *testing.T) {
	b := New()
	lo := memory.New("lo", device.AttrReadable|device.AttrWritable, 0x0, 0x100)
	hi := memory.New("hi", device.AttrReadable|device.AttrWritable, 0x1000, 0x100)
	b.Attach(lo)
	b.Attach(hi)

	// alternate between devices, the one-slot cache must never return
	// bytes from the wrong one
	b.Write(0x10, []byte{0x11})
	b.Write(0x1010, []byte{0x22})
	buf := make([]byte, 1)
	b.Read(0x10, buf)
	if buf[0] != 0x11 {
		t.Errorf("lo read = 0x%02x, want 0x11", buf[0])
	}
	b.Read(0x1010, buf)
	if buf[0] != 0x22 {
		t.Errorf("hi read = 0x%02x, want 0x22", buf[0])
	}
	b.Read(0x10, buf)
	if buf[0] != 0x11 {
		t.Errorf("lo read after switch = 0x%02x, want 0x11", buf[0])
	}
}

func TestBus_AttachShadowing(t *testing.T) {
	b := New()
	old := memory.New("old", device.AttrReadable|device.AttrWritable, 0x0, 0x100)
	b.Attach(old)
	old.Write(0x0, []byte{0xAA})

	// a later attachment covering the same range wins the scan
	shadow := memory.New("shadow", device.AttrReadable|device.AttrWritable, 0x0, 0x100)
	b.Attach(shadow)

	buf := make([]byte, 1)
	b.Read(0x0, buf)
	if buf[0] != 0x00 {
		t.Errorf("Read() = 0x%02x, want 0x00 from the shadowing device", buf[0])
	}
}
