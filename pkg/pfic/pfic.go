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
	"errors"
	"sync"

	"github.com/master-g/mgriscv/pkg/device"
)

// Fixed IRQ line assignments
const (
	IRQSystick  = 12
	IRQSoftware = 14
)

// Default mapping
const (
	Base = 0xE000E000
	size = 0x1000
)

// Register windows, offsets from the device base. The set/clear windows
// take 1-bits as the lines to flip; reads come back from the raw state.
const (
	offISR         = 0x000 // enable state, 8 words
	offIPR         = 0x020 // pending state, 8 words
	offSetEnable   = 0x100
	offClearEnable = 0x180
	offSetPending  = 0x200
	offClearPend   = 0x280
	offPriority    = 0x400 // one byte per IRQ line
)

var errBadRegister = errors.New("pfic: access outside register windows")

// PFIC is the programmable fast interrupt controller. IPR and ISR are
// written from the executing goroutine, the timer goroutine and the
// debugger, so all register state sits behind one mutex.
type PFIC struct {
	device.Region

	mu     sync.Mutex
	isr    [8]uint32 // enable bits
	ipr    [8]uint32 // pending bits
	iprior [256]byte // per-IRQ priority, lower value wins
}

// New creates the controller mapped at base
func New(name string, base uint32) *PFIC {
	return &PFIC{
		Region: device.NewRegion(name, 0, base, size),
	}
}

func (p *PFIC) Read(addr uint32, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	offset := addr - p.Region.Base()
	switch {
	case offset < offISR+0x20:
		return readWord(p.isr[(offset-offISR)>>2], data)
	case offset >= offIPR && offset < offIPR+0x20:
		return readWord(p.ipr[(offset-offIPR)>>2], data)
	case offset >= offPriority && offset < offPriority+0x100:
		data[0] = p.iprior[offset-offPriority]
		for i := 1; i < len(data); i++ {
			data[i] = 0
		}
		return nil
	}
	return errBadRegister
}

func (p *PFIC) Write(addr uint32, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	offset := addr - p.Region.Base()
	switch {
	case offset >= offSetEnable && offset < offSetEnable+0x20:
		p.isr[(offset-offSetEnable)>>2] |= writeWord(data)
	case offset >= offClearEnable && offset < offClearEnable+0x20:
		p.isr[(offset-offClearEnable)>>2] &^= writeWord(data)
	case offset >= offSetPending && offset < offSetPending+0x20:
		p.ipr[(offset-offSetPending)>>2] |= writeWord(data)
	case offset >= offClearPend && offset < offClearPend+0x20:
		p.ipr[(offset-offClearPend)>>2] &^= writeWord(data)
	case offset >= offPriority && offset < offPriority+0x100:
		p.iprior[offset-offPriority] = data[0]
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

// SetPending marks an IRQ line pending. Safe from any goroutine.
func (p *PFIC) SetPending(irq int) {
	p.mu.Lock()
	p.ipr[irq/32] |= 1 << uint(irq%32)
	p.mu.Unlock()
}

// ClearPending drops an IRQ line's pending bit
func (p *PFIC) ClearPending(irq int) {
	p.mu.Lock()
	p.ipr[irq/32] &^= 1 << uint(irq%32)
	p.mu.Unlock()
}

// Enabled reports whether the line's enable bit is set
func (p *PFIC) Enabled(irq int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.isr[irq/32]&(1<<uint(irq%32)) != 0
}

// PendingIRQ arbitrates: among the lines that are both enabled and
// pending it picks the one with the numerically smallest priority byte,
// ties to the lowest index. Returns -1 when no line is eligible.
func (p *PFIC) PendingIRQ() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	resIdx := -1
	resPrior := -1
	for i := 0; i < 8; i++ {
		if p.ipr[i] == 0 {
			continue
		}
		for j := 0; j < 32; j++ {
			mask := uint32(1) << uint(j)
			if p.ipr[i]&mask == 0 || p.isr[i]&mask == 0 {
				continue
			}
			idx := i*32 + j
			prior := int(p.iprior[idx])
			if resIdx == -1 || prior < resPrior {
				resIdx = idx
				resPrior = prior
			}
		}
	}
	return resIdx
}

// Reset clears all enable, pending and priority state
func (p *PFIC) Reset() {
	p.mu.Lock()
	p.isr = [8]uint32{}
	p.ipr = [8]uint32{}
	p.iprior = [256]byte{}
	p.mu.Unlock()
}
