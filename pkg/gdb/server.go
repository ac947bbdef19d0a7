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
	"encoding/hex"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/master-g/mgriscv/pkg/log"
	"github.com/master-g/mgriscv/pkg/rv32"
)

// DefaultPort is used when the server is enabled without a port
const DefaultPort = 3333

// pollInterval bounds the pause watcher's receive so it can observe
// shutdown between reads
const pollInterval = 500 * time.Millisecond

// Server speaks the GDB Remote Serial Protocol on a TCP listener. One
// client at a time; after a kill or a dropped socket the listener
// re-accepts.
type Server struct {
	rv     *rv32.RV32
	debug  bool
	ln     net.Listener
	client net.Conn

	rbuf [1024]byte
	rpos int
	rlen int
}

// New binds the listener. Port 0 picks an ephemeral port, Addr tells
// which one.
func New(rv *rv32.RV32, port int, debug bool) (*Server, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, err
	}
	return &Server{
		rv:    rv,
		debug: debug,
		ln:    ln,
	}, nil
}

// Addr returns the listener address
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Close shuts the listener down, unblocking Run
func (s *Server) Close() {
	s.ln.Close()
}

// Run accepts clients and serves them one after another until the
// listener is closed
func (s *Server) Run() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.client = conn
		s.rpos = 0
		s.rlen = 0
		s.serveClient()
		conn.Close()
		s.client = nil
	}
}

// serveClient dispatches packets by their first byte until the client
// kills the session or the socket dies
func (s *Server) serveClient() {
	for {
		packet, err := s.readPacket()
		if err != nil {
			return
		}
		if packet == "" {
			continue
		}

		cmd, rest := packet[0], packet[1:]
		switch cmd {
		case '?':
			err = s.writeStop()
		case 'q':
			err = s.handleQuery(rest)
		case 'g':
			err = s.handleReadRegs()
		case 'p':
			err = s.handleReadReg(rest)
		case 'm':
			err = s.handleReadMem(rest)
		case 'M':
			err = s.handleWriteMem(rest)
		case 's':
			s.rv.FetchAndExecute(false)
			err = s.writeStop()
		case 'c':
			err = s.handleContinue()
		case 'z':
			err = s.handleRemoveBreakpoint(rest)
		case 'Z':
			err = s.handleAddBreakpoint(rest)
		case 'k':
			return
		default:
			err = s.writePacket("")
		}
		if err != nil {
			return
		}
	}
}

func (s *Server) writeStop() error {
	return s.writePacket("S05")
}

func (s *Server) writeError() error {
	return s.writePacket("E01")
}

func (s *Server) handleQuery(query string) error {
	switch {
	case strings.HasPrefix(query, "Supported"):
		return s.writePacket(fmt.Sprintf("PacketSize=%d", PacketSize))
	case strings.HasPrefix(query, "Attached"):
		return s.writePacket("1")
	case strings.HasPrefix(query, "Rcmd,"):
		cmd, err := hex.DecodeString(query[len("Rcmd,"):])
		if err != nil {
			return s.writeError()
		}
		if strings.HasPrefix(string(cmd), "reset") {
			s.rv.Reset()
			return s.writePacket("OK")
		}
	}
	return s.writePacket("")
}

// handleReadRegs renders the 32 general registers little-endian, two hex
// digits per byte
func (s *Server) handleReadRegs() error {
	var sb strings.Builder
	for reg := uint32(0); reg < rv32.RegCount; reg++ {
		val := s.rv.ReadReg(reg)
		for i := 0; i < 4; i++ {
			fmt.Fprintf(&sb, "%02x", byte(val>>(8*uint(i))))
		}
	}
	return s.writePacket(sb.String())
}

// handleReadReg reads one register; the debugger addresses the PC as
// register 32
func (s *Server) handleReadReg(rest string) error {
	reg, err := strconv.ParseUint(rest, 16, 32)
	if err != nil || reg > rv32.RegCount {
		return s.writeError()
	}

	val := s.rv.PC
	if reg < rv32.RegCount {
		val = s.rv.ReadReg(uint32(reg))
	}
	var sb strings.Builder
	for i := 0; i < 4; i++ {
		fmt.Fprintf(&sb, "%02x", byte(val>>(8*uint(i))))
	}
	return s.writePacket(sb.String())
}

func (s *Server) handleReadMem(rest string) error {
	parts := strings.SplitN(rest, ",", 2)
	if len(parts) != 2 {
		return s.writeError()
	}
	addr, err1 := strconv.ParseUint(parts[0], 16, 32)
	length, err2 := strconv.ParseUint(parts[1], 16, 32)
	if err1 != nil || err2 != nil || length > PacketSize/2 {
		return s.writeError()
	}

	var sb strings.Builder
	buf := make([]byte, 1)
	for i := uint64(0); i < length; i++ {
		buf[0] = 0
		s.rv.MemRead(uint32(addr+i), buf)
		fmt.Fprintf(&sb, "%02x", buf[0])
	}
	return s.writePacket(sb.String())
}

func (s *Server) handleWriteMem(rest string) error {
	colon := strings.IndexByte(rest, ':')
	if colon < 0 {
		return s.writeError()
	}
	parts := strings.SplitN(rest[:colon], ",", 2)
	if len(parts) != 2 {
		return s.writeError()
	}
	addr, err1 := strconv.ParseUint(parts[0], 16, 32)
	length, err2 := strconv.ParseUint(parts[1], 16, 32)
	data, err3 := hex.DecodeString(rest[colon+1:])
	if err1 != nil || err2 != nil || err3 != nil || uint64(len(data)) < length {
		return s.writeError()
	}

	for i := uint64(0); i < length; i++ {
		if err := s.rv.MemWrite(uint32(addr+i), data[i:i+1]); err != nil {
			log.Lf("gdb: write at 0x%08x: %v", uint32(addr+i), err)
			return s.writeError()
		}
	}
	return s.writePacket("OK")
}

// handleContinue resumes execution with a pause watcher on the socket.
// The watcher is joined before the stop reply goes out, so the reply
// never races the Ctrl-C byte.
func (s *Server) handleContinue() error {
	s.rv.ClearPause()

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go s.watchPause(done, &wg)

	s.rv.FetchAndExecute(true)

	close(done)
	wg.Wait()
	s.client.SetReadDeadline(time.Time{})
	return s.writeStop()
}

// watchPause owns the receive side during continue: it waits for GDB's
// raw Ctrl-C byte with a bounded deadline so it can also observe the
// executing side finishing.
func (s *Server) watchPause(done chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	buf := make([]byte, 1)
	for {
		select {
		case <-done:
			return
		default:
		}

		s.client.SetReadDeadline(time.Now().Add(pollInterval))
		n, err := s.client.Read(buf)
		if n > 0 && buf[0] == pauseByte {
			s.rv.RequestPause()
			return
		}
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			// dead socket: stop the hart so the session can wind down
			s.rv.RequestPause()
			return
		}
	}
}

func breakpointAddr(rest string) (uint32, bool) {
	parts := strings.Split(rest, ",")
	if len(parts) < 2 {
		return 0, false
	}
	addr, err := strconv.ParseUint(parts[1], 16, 32)
	if err != nil {
		return 0, false
	}
	return uint32(addr), true
}

func (s *Server) handleAddBreakpoint(rest string) error {
	addr, ok := breakpointAddr(rest)
	if !ok {
		return s.writeError()
	}
	s.rv.AddBreakpoint(addr)
	return s.writePacket("OK")
}

func (s *Server) handleRemoveBreakpoint(rest string) error {
	addr, ok := breakpointAddr(rest)
	if !ok || !s.rv.RemoveBreakpoint(addr) {
		return s.writeError()
	}
	return s.writePacket("OK")
}
