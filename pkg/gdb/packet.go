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

package gdb

import (
	"bytes"
	"fmt"
	"time"

	"github.com/master-g/mgriscv/pkg/log"
)

// PacketSize is the maximum payload advertised through qSupported
const PacketSize = 30 * 1024

// pauseByte is GDB's Ctrl-C, sent raw outside any packet during continue
const pauseByte = 0x03

// Reader states. Packets arrive framed as $<payload>#<checksum>, with
// $, #, { and * escaped inside the payload as '{' followed by the byte
// XOR 0x20. The checksum is the low byte of the sum of the wire form of
// the payload, two lowercase hex digits.
const (
	stateInvalid = iota
	stateNormal
	stateEscape
	stateChecksum0
	stateChecksum1
)

func escapeNeeded(b byte) bool {
	return b == '$' || b == '#' || b == '{' || b == '*'
}

func hexDigit(b byte) (int, bool) {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0'), true
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 10, true
	case b >= 'A' && b <= 'F':
		return int(b-'A') + 10, true
	}
	return 0, false
}

// nextByte hands out the next byte from the client, refilling the chunk
// buffer as needed
func (s *Server) nextByte() (byte, error) {
	if s.rpos >= s.rlen {
		n, err := s.client.Read(s.rbuf[:])
		if err != nil {
			return 0, err
		}
		s.rlen = n
		s.rpos = 0
	}
	b := s.rbuf[s.rpos]
	s.rpos++
	return b, nil
}

// readPacket runs the framing state machine until a packet passes its
// checksum. A good packet is acked with '+'; a checksum mismatch, a
// non-hex checksum digit or a payload over PacketSize gets '-' and the
// reader keeps listening; only a dead socket ends the session.
func (s *Server) readPacket() (string, error) {
	for {
		state := stateInvalid
		var payload bytes.Buffer
		var sum byte
		check := 0
		bad := false

	packet:
		for {
			b, err := s.nextByte()
			if err != nil {
				return "", err
			}

			switch state {
			case stateInvalid:
				if b == '$' {
					state = stateNormal
				}
			case stateNormal:
				switch {
				case b == '#':
					state = stateChecksum0
				case b == '{':
					sum += b
					state = stateEscape
				default:
					if payload.Len() >= PacketSize {
						bad = true
					} else {
						payload.WriteByte(b)
					}
					sum += b
				}
			case stateEscape:
				if payload.Len() >= PacketSize {
					bad = true
				} else {
					payload.WriteByte(b ^ 0x20)
				}
				sum += b
				state = stateNormal
			case stateChecksum0:
				d, ok := hexDigit(b)
				if !ok {
					bad = true
				}
				check = d << 4
				state = stateChecksum1
			case stateChecksum1:
				d, ok := hexDigit(b)
				if !ok {
					bad = true
				}
				check |= d
				break packet
			}
		}

		if s.debug {
			log.Lf("%s <-$%s", time.Now().Format("2006-01-02 15:04:05"), payload.String())
		}

		if bad || byte(check) != sum {
			if _, err := s.client.Write([]byte{'-'}); err != nil {
				return "", err
			}
			continue
		}
		if _, err := s.client.Write([]byte{'+'}); err != nil {
			return "", err
		}
		return payload.String(), nil
	}
}

// writePacket frames and sends one payload, then waits for the ack byte.
// A '-' is not retried: TCP already guarantees delivery, so a reject
// means the packet itself was bad and resending reproduces it.
func (s *Server) writePacket(payload string) error {
	var buf bytes.Buffer
	buf.WriteByte('$')
	var sum byte
	for i := 0; i < len(payload); i++ {
		b := payload[i]
		if escapeNeeded(b) {
			buf.WriteByte('{')
			buf.WriteByte(b ^ 0x20)
			sum += '{'
			sum += b ^ 0x20
		} else {
			buf.WriteByte(b)
			sum += b
		}
	}
	fmt.Fprintf(&buf, "#%02x", sum)

	if _, err := s.client.Write(buf.Bytes()); err != nil {
		return err
	}
	if s.debug {
		log.Lf("%s ->$%s", time.Now().Format("2006-01-02 15:04:05"), payload)
	}

	_, err := s.nextByte()
	return err
}
