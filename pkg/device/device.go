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

package device

const (
	// AttrReadable device accepts bus reads
	AttrReadable = 1 << 0
	// AttrWritable device accepts bus writes
	AttrWritable = 1 << 1
)

// Device is a peripheral mapped into the physical address space.
// Read and Write receive the absolute address and a buffer whose length
// is the access width (1, 2 or 4 bytes).
type Device interface {
	Name() string
	Attr() uint32
	Base() uint32
	End() uint32
	Read(addr uint32, data []byte) error
	Write(addr uint32, data []byte) error
}

// Region carries the fields every device shares. Embed it and implement
// Read/Write on top.
type Region struct {
	name string
	attr uint32
	base uint32
	end  uint32
}

// NewRegion creates the shared device part for the range [base, base+size)
func NewRegion(name string, attr, base, size uint32) Region {
	return Region{
		name: name,
		attr: attr,
		base: base,
		end:  base + size,
	}
}

func (r *Region) Name() string {
	return r.name
}

func (r *Region) Attr() uint32 {
	return r.attr
}

func (r *Region) Base() uint32 {
	return r.base
}

// End returns the first address past the device, not a valid address itself
func (r *Region) End() uint32 {
	return r.end
}

// Contains reports whether addr falls inside the device range
func (r *Region) Contains(addr uint32) bool {
	return addr >= r.base && addr < r.end
}
