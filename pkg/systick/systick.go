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
	"errors"
	"sync"
	"time"

	"github.com/master-g/mgriscv/pkg/device"
	"github.com/master-g/mgriscv/pkg/pfic"
)

// Freq is the simulated core clock the CMP countdown is scaled against
const Freq = 100000000

// Default mapping
const (
	Base = 0xE000F000
	size = 0x18
)

// Register offsets from the device base. CNT and CMP are 64 bits wide,
// guest code accesses them as two 32-bit halves.
const (
	offCTLR = 0x00
	offSR   = 0x04
	offCNT  = 0x08
	offCMP  = 0x10
)

// CTLR bits
const (
	ctlrEnable    = 1 << 0
	ctlrIRQEnable = 1 << 1
	ctlrInitHigh  = 1 << 4
	ctlrReload    = 1 << 5
	ctlrSWI       = 1 << 31
)

var errBadRegister = errors.New("systick: access outside register window")

// Systick is the system timer. Enabling it starts a host-time countdown
// of CMP/(Freq/1000) milliseconds; on expiry the SR ready bit is set and,
// when the IRQ-enable bit is on, the timer line goes pending in the PFIC.
type Systick struct {
	device.Region

	mu   sync.Mutex
	ctlr uint32
	sr   uint32
	cnt  uint64
	cmp  uint64

	pfic *pfic.PFIC
	quit chan struct{}
	done chan struct{}
}

// New creates the timer and starts its countdown goroutine
func New(name string, base uint32, controller *pfic.PFIC) *Systick {
	s := &Systick{
		Region: device.NewRegion(name, 0, base, size),
		pfic: controller,
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go s.run()
	return s
}

// Close stops the countdown goroutine and waits for it to exit
func (s *Systick) Close() {
	close(s.quit)
	<-s.done
}

func (s *Systick) run() {
	defer close(s.done)
	for {
		s.mu.Lock()
		enabled := s.ctlr&ctlrEnable != 0
		cmp := s.cmp
		s.mu.Unlock()

		wait := time.Millisecond
		if enabled {
			wait = time.Duration(cmp/(Freq/1000)) * time.Millisecond
		}
		select {
		case <-s.quit:
			return
		case <-time.After(wait):
		}
		if !enabled {
			continue
		}

		s.mu.Lock()
		fire := s.ctlr&ctlrEnable != 0
		irq := s.ctlr&ctlrIRQEnable != 0
		if fire {
			s.sr |= 1
		}
		s.mu.Unlock()
		if fire && irq {
			s.pfic.SetPending(pfic.IRQSystick)
		}
	}
}

func (s *Systick) Read(addr uint32, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch addr - s.Region.Base() {
	case offCTLR:
		return readWord(s.ctlr, data)
	case offSR:
		return readWord(s.sr, data)
	case offCNT:
		return readWord(uint32(s.cnt), data)
	case offCNT + 4:
		return readWord(uint32(s.cnt>>32), data)
	case offCMP:
		return readWord(uint32(s.cmp), data)
	case offCMP + 4:
		return readWord(uint32(s.cmp>>32), data)
	}
	return errBadRegister
}

func (s *Systick) Write(addr uint32, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	val := writeWord(data)
	switch addr - s.Region.Base() {
	case offSR:
		// only a 0-write clears the ready bit, the timer sets it
		if val&1 == 0 {
			s.sr = 0
		}
	case offCTLR:
		s.ctlr = val
		if val&ctlrReload != 0 {
			if val&ctlrInitHigh != 0 {
				s.cnt = s.cmp
			} else {
				s.cnt = 0
			}
		}
		if val&ctlrSWI != 0 {
			s.pfic.SetPending(pfic.IRQSoftware)
		}
	case offCNT:
		s.cnt = s.cnt&^0xFFFFFFFF | uint64(val)
	case offCNT + 4:
		s.cnt = s.cnt&0xFFFFFFFF | uint64(val)<<32
	case offCMP:
		s.cmp = s.cmp&^0xFFFFFFFF | uint64(val)
	case offCMP + 4:
		s.cmp = s.cmp&0xFFFFFFFF | uint64(val)<<32
	default:
		return errBadRegister
	}
	return nil
}

func readWord(val uint32, data []byte) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], val)
	copy(data, buf[:])
	return nil
}

func writeWord(data []byte) uint32 {
	var buf [4]byte
	copy(buf[:], data)
	return binary.LittleEndian.Uint32(buf[:])
}
