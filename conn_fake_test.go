// Copyright 2021 The LimeSuite-Go Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package lime_test

import (
	"time"

	lime "github.com/bljohnson44/LimeSuite"
)

type regWrite struct {
	Addr  uint16
	Value uint16
}

// fakeConn is a scripted in-memory board: a register file, a canned status
// register value and logs of everything written. gomock is awkward for the
// polled multi-register sequences the PLL paths produce, so those tests use
// this instead.
type fakeConn struct {
	regs     map[uint16]uint16
	status   uint16 // returned for reads of the PLL status register 0x0021
	spiValue uint16 // data returned for every LMS7002M SPI read
	writeErr map[uint16]error

	writes    []regWrite
	spiWrites []uint32
	sent      [][]byte
	recv      []byte
	shortSend int // index of the SendData call that comes up short; -1 never

	sendAborts int
	recvAborts int
	resets     int
}

var _ lime.ConnectionInterface = (*fakeConn)(nil)

func newFakeConn() *fakeConn {
	return &fakeConn{
		regs:      map[uint16]uint16{},
		status:    0x5, // config done (bit 0), search done (bit 2), no error
		spiValue:  0x5A5A,
		writeErr:  map[uint16]error{},
		shortSend: -1,
	}
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) ReadRegister(addr uint16) (uint16, error) {
	if addr == 0x0021 {
		return c.status, nil
	}
	return c.regs[addr], nil
}

func (c *fakeConn) WriteRegister(addr, value uint16) error {
	if err := c.writeErr[addr]; err != nil {
		return err
	}
	c.writes = append(c.writes, regWrite{addr, value})
	c.regs[addr] = value
	return nil
}

func (c *fakeConn) ReadRegisters(addrs []uint16) ([]uint16, error) {
	vals := make([]uint16, len(addrs))
	for i, addr := range addrs {
		vals[i], _ = c.ReadRegister(addr)
	}
	return vals, nil
}

func (c *fakeConn) WriteRegisters(addrs, values []uint16) error {
	for i := range addrs {
		if err := c.WriteRegister(addrs[i], values[i]); err != nil {
			return err
		}
	}
	return nil
}

func (c *fakeConn) ReadLMS7002MSPI(words []uint32, channel int) ([]uint32, error) {
	vals := make([]uint32, len(words))
	for i := range vals {
		vals[i] = uint32(c.spiValue)
	}
	return vals, nil
}

func (c *fakeConn) WriteLMS7002MSPI(words []uint32, channel int) error {
	c.spiWrites = append(c.spiWrites, words...)
	return nil
}

func (c *fakeConn) SendData(buf []byte, epIndex int, timeout time.Duration) (int, error) {
	idx := len(c.sent)
	c.sent = append(c.sent, append([]byte(nil), buf...))
	if idx == c.shortSend {
		return len(buf) - 4, nil
	}
	return len(buf), nil
}

func (c *fakeConn) ReceiveData(buf []byte, epIndex int, timeout time.Duration) (int, error) {
	return copy(buf, c.recv), nil
}

func (c *fakeConn) AbortSending(epIndex int) error {
	c.sendAborts++
	return nil
}

func (c *fakeConn) AbortReading(epIndex int) error {
	c.recvAborts++
	return nil
}

func (c *fakeConn) ResetStreamBuffers() error {
	c.resets++
	return nil
}

// All values written to addr, in order.
func (c *fakeConn) writesTo(addr uint16) []uint16 {
	var vals []uint16
	for _, w := range c.writes {
		if w.Addr == addr {
			vals = append(vals, w.Value)
		}
	}
	return vals
}

func (c *fakeConn) wroteSPI(word uint32) bool {
	for _, w := range c.spiWrites {
		if w == word {
			return true
		}
	}
	return false
}
