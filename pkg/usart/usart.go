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

package usart

import (
	"encoding/binary"
	"errors"
	"io"
	"os"

	"github.com/master-g/mgriscv/pkg/device"
)

// Default mapping for USART1
const (
	Base = 0x40013800
	size = 0x10
)

// Register offsets from the device base
const (
	offSTATR = 0x0
	offDATAR = 0x4
	offBRR   = 0x8
	offCTLR1 = 0xC
)

// CTLR1 transmit-enable bit; DATAR writes only reach the host while set
const ctlrTE = 1 << 13

var errBadRegister = errors.New("usart: access outside register window")

// USART is the serial port register window. Transmitted bytes are echoed
// to the out writer, stdout unless redirected with SetOutput.
type USART struct {
	device.Region
	ctlr1 uint32
	out   io.Writer
}

// New creates the device mapped at base
func New(name string, base uint32) *USART {
	return &USART{
		Region: device.NewRegion(name, 0, base, size),
		out:  os.Stdout,
	}
}

// SetOutput redirects transmitted bytes, nil restores stdout
func (u *USART) SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	u.out = w
}

func (u *USART) Read(addr uint32, data []byte) error {
	switch addr - u.Region.Base() {
	case offSTATR, offDATAR, offBRR:
		for i := range data {
			data[i] = 0
		}
	case offCTLR1:
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], u.ctlr1)
		copy(data, buf[:])
	default:
		return errBadRegister
	}
	return nil
}

func (u *USART) Write(addr uint32, data []byte) error {
	switch addr - u.Region.Base() {
	case offSTATR, offBRR:
	case offDATAR:
		if u.ctlr1&ctlrTE != 0 {
			u.out.Write(data[:1])
		}
	case offCTLR1:
		var buf [4]byte
		copy(buf[:], data)
		u.ctlr1 = binary.LittleEndian.Uint32(buf[:])
	default:
		return errBadRegister
	}
	return nil
}
