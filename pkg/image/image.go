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

package image

import (
	"bytes"
	"debug/elf"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrBadImage image file is empty, or carries the ELF magic but is not a
// loadable 32-bit ELF
var ErrBadImage = errors.New("image: unrecognized format")

var elfMagic = []byte{0x7F, 'E', 'L', 'F'}

// Segment is one loadable span of a program image
type Segment struct {
	Addr uint32
	Data []byte
}

// Load reads an ELF32 or raw binary image. ELF PT_LOAD headers become
// one segment each at their physical address; anything without the ELF
// magic is treated as a raw binary and produces a single segment at
// rawBase.
func Load(path string, rawBase uint32) ([]Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrBadImage, path)
	}

	if len(data) >= len(elfMagic) && bytes.Equal(data[:len(elfMagic)], elfMagic) {
		return loadELF(path, data)
	}
	return []Segment{{Addr: rawBase, Data: data}}, nil
}

func loadELF(path string, data []byte) ([]Segment, error) {
	f, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBadImage, path, err)
	}
	defer f.Close()

	if f.Class != elf.ELFCLASS32 {
		return nil, fmt.Errorf("%w: %s is not a 32-bit ELF", ErrBadImage, path)
	}

	var segments []Segment
	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD || prog.Filesz == 0 {
			continue
		}
		buf := make([]byte, prog.Filesz)
		if _, err := io.ReadFull(prog.Open(), buf); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrBadImage, path, err)
		}
		segments = append(segments, Segment{
			Addr: uint32(prog.Paddr),
			Data: buf,
		})
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: %s has no loadable segments", ErrBadImage, path)
	}
	return segments, nil
}
