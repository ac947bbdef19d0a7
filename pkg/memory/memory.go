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

package memory

import (
	"errors"

	"github.com/master-g/mgriscv/pkg/device"
)

var (
	// ErrNotReadable read on a device without the readable attribute
	ErrNotReadable = errors.New("memory: device not readable")
	// ErrNotWritable write on a device without the writable attribute
	ErrNotWritable = errors.New("memory: device not writable")
)

// Memory is a plain byte-array device, used for both flash and RAM
type Memory struct {
	device.Region
	mem []byte
}

// New creates a memory device covering [base, base+size)
func New(name string, attr, base, size uint32) *Memory {
	return &Memory{
		Region: device.NewRegion(name, attr, base, size),
		mem:  make([]byte, size),
	}
}

// Read copies len(data) bytes out of the backing array
func (m *Memory) Read(addr uint32, data []byte) error {
	if m.Attr()&device.AttrReadable == 0 {
		return ErrNotReadable
	}
	offset := addr - m.Region.Base()
	copy(data, m.mem[offset:])
	return nil
}

// Write copies len(data) bytes into the backing array
func (m *Memory) Write(addr uint32, data []byte) error {
	if m.Attr()&device.AttrWritable == 0 {
		return ErrNotWritable
	}
	offset := addr - m.Region.Base()
	copy(m.mem[offset:], data)
	return nil
}

// Bytes exposes the backing array. The execution loop fetches instruction
// words straight from flash through this.
func (m *Memory) Bytes() []byte {
	return m.mem
}

// Load places an image into the backing array regardless of the writable
// attribute. Loaders use it to fill read-only flash before reset.
func (m *Memory) Load(offset uint32, data []byte) {
	copy(m.mem[offset:], data)
}

// Reset clears the backing array
func (m *Memory) Reset() {
	for i := range m.mem {
		m.mem[i] = 0
	}
}
