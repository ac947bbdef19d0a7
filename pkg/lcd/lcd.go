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
	"errors"
	"sync"
	"sync/atomic"

	"github.com/master-g/mgriscv/pkg/device"
)

// Fixed mapping: a control window followed by the pixel buffer
const (
	Base    = 0xA0000000
	BufBase = 0xA1000000
)

// Control window offsets
const (
	offCTRL    = 0
	offMouseX  = 4
	offMouseY  = 8
	offMouseSt = 12
)

// CtrlFlush guest writes this bit to push the pixel buffer to the host
const CtrlFlush = 1 << 0

var errBadRegister = errors.New("lcd: access outside register window")

// LCD is the framebuffer device: four control registers and a pixel
// buffer in ARGB8888. The display goroutine, when started, consumes
// flush events and publishes mouse state back into the register window;
// it touches nothing else.
type LCD struct {
	device.Region

	width  int
	height int

	mu       sync.Mutex
	framebuf []byte

	mousex  uint32 // atomic, display side writes
	mousey  uint32
	mouseSt uint32

	flush chan struct{}
	quit  chan struct{}
	done  chan struct{}
}

// New creates the device without a host window; Start attaches one
func New(name string, width, height int) *LCD {
	bufLen := uint32(width * height * 4)
	return &LCD{
		Region: device.NewRegion(name, 0, Base, BufBase+bufLen-Base),
		width:    width,
		height:   height,
		framebuf: make([]byte, bufLen),
		flush:    make(chan struct{}, 1),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (l *LCD) Read(addr uint32, data []byte) error {
	if addr >= BufBase {
		l.mu.Lock()
		copy(data, l.framebuf[addr-BufBase:])
		l.mu.Unlock()
		return nil
	}

	var val uint32
	switch addr - Base {
	case offCTRL:
		val = 0
	case offMouseX:
		val = atomic.LoadUint32(&l.mousex)
	case offMouseY:
		val = atomic.LoadUint32(&l.mousey)
	case offMouseSt:
		val = atomic.LoadUint32(&l.mouseSt)
	default:
		return errBadRegister
	}
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], val)
	copy(data, buf[:])
	return nil
}

func (l *LCD) Write(addr uint32, data []byte) error {
	if addr >= BufBase {
		l.mu.Lock()
		copy(l.framebuf[addr-BufBase:], data)
		l.mu.Unlock()
		return nil
	}

	switch addr - Base {
	case offCTRL:
		var buf [4]byte
		copy(buf[:], data)
		if binary.LittleEndian.Uint32(buf[:])&CtrlFlush != 0 {
			select {
			case l.flush <- struct{}{}:
			default:
			}
		}
	default:
		return errBadRegister
	}
	return nil
}

// Pixels copies the current frame into dst
func (l *LCD) Pixels(dst []byte) {
	l.mu.Lock()
	copy(dst, l.framebuf)
	l.mu.Unlock()
}

// SetMouse publishes host mouse state into the register window
func (l *LCD) SetMouse(x, y int32, pressed bool) {
	atomic.StoreUint32(&l.mousex, uint32(x))
	atomic.StoreUint32(&l.mousey, uint32(y))
	var st uint32
	if pressed {
		st = 1
	}
	atomic.StoreUint32(&l.mouseSt, st)
}

// Flushed reports pending flush requests to the display side
func (l *LCD) Flushed() <-chan struct{} {
	return l.flush
}
