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

	"github.com/master-g/mgriscv/pkg/device"
)

// ErrUnmapped access to an address no attached device covers
var ErrUnmapped = errors.New("bus: unmapped address")

// Bus dispatches reads and writes to the attached devices. The most
// recently hit device is cached per direction; a miss falls back to a
// scan of the device list, newest attachment first.
type Bus struct {
	devices  []device.Device
	devRead  device.Device
	devWrite device.Device
}

// New creates an empty bus
func New() *Bus {
	return &Bus{}
}

// Attach prepends a device, so it shadows earlier attachments on overlap
func (b *Bus) Attach(dev device.Device) {
	b.devices = append([]device.Device{dev}, b.devices...)
}

// Reset drops the dispatch caches, the device list is kept
func (b *Bus) Reset() {
	b.devRead = nil
	b.devWrite = nil
}

func (b *Bus) find(addr uint32) device.Device {
	for _, dev := range b.devices {
		if addr >= dev.Base() && addr < dev.End() {
			return dev
		}
	}
	return nil
}

// Read dispatches a read of len(data) bytes at addr
func (b *Bus) Read(addr uint32, data []byte) error {
	if dev := b.devRead; dev != nil && addr >= dev.Base() && addr < dev.End() {
		return dev.Read(addr, data)
	}
	dev := b.find(addr)
	if dev == nil {
		return ErrUnmapped
	}
	b.devRead = dev
	return dev.Read(addr, data)
}

// Write dispatches a write of len(data) bytes at addr
func (b *Bus) Write(addr uint32, data []byte) error {
	if dev := b.devWrite; dev != nil && addr >= dev.Base() && addr < dev.End() {
		return dev.Write(addr, data)
	}
	dev := b.find(addr)
	if dev == nil {
		return ErrUnmapped
	}
	b.devWrite = dev
	return dev.Write(addr, data)
}
