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

// USB transport for LimeSDR-USB boards: register and SPI transactions ride
// vendor control requests, stream data rides the bulk endpoints.
package lime

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/google/gousb"
)

const (
	limeVid = 0x1d50
	limePid = 0x6108

	limeInEp  = 1
	limeOutEp = 1
)

//go:generate stringer -type Request
type Request uint8

const (
	ReqRegWrite    Request = 0x21
	ReqRegRead     Request = 0x22
	ReqLMSSPIWrite Request = 0x23
	ReqLMSSPIRead  Request = 0x24
	ReqStreamReset Request = 0x25
)

const (
	rTypeControlIn  uint8 = gousb.ControlIn | gousb.ControlVendor | gousb.ControlInterface
	rTypeControlOut uint8 = gousb.ControlOut | gousb.ControlVendor | gousb.ControlInterface
)

// Encapsulates the USB resources of one board.
type USBConnection struct {
	ctx *gousb.Context
	// dev also implements the control endpoint.
	dev      *gousb.Device
	intf     *gousb.Interface
	intfDone func()
	// Bulk stream endpoints.
	epOut *gousb.OutEndpoint
	epIn  *gousb.InEndpoint

	mu         sync.Mutex
	sendCancel context.CancelFunc
	recvCancel context.CancelFunc
}

func OpenUSBConnection() (*USBConnection, error) {
	c := &USBConnection{}
	c.ctx = gousb.NewContext()

	var err error
	c.dev, err = c.ctx.OpenDeviceWithVIDPID(limeVid, limePid)
	if c.dev == nil && err == nil {
		return nil, fmt.Errorf("LimeSDR-USB device not found")
	}
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("Opening LimeSDR-USB device: %v", err)
	}

	// The default interface is always #0 alt #0 in the currently active
	// config.
	c.intf, c.intfDone, err = c.dev.DefaultInterface()
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("Claiming default interface: %v", err)
	}

	c.epOut, err = c.intf.OutEndpoint(limeOutEp)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("Opening output endpoint: %v", err)
	}
	c.epIn, err = c.intf.InEndpoint(limeInEp)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("Opening input endpoint: %v", err)
	}
	return c, nil
}

func (c *USBConnection) Close() error {
	glog.V(1).Infof("Closing USB connection")
	if c.intfDone != nil {
		c.intfDone()
		c.intfDone = nil
	}
	if c.intf != nil {
		c.intf.Close()
		c.intf = nil
	}
	if c.dev != nil {
		c.dev.Close()
		c.dev = nil
	}
	if c.ctx != nil {
		c.ctx.Close()
		c.ctx = nil
	}
	return nil
}

func (c *USBConnection) ReadRegister(addr uint16) (uint16, error) {
	vals, err := c.ReadRegisters([]uint16{addr})
	if err != nil {
		return 0, err
	}
	return vals[0], nil
}

func (c *USBConnection) WriteRegister(addr, value uint16) error {
	return c.WriteRegisters([]uint16{addr}, []uint16{value})
}

func (c *USBConnection) ReadRegisters(addrs []uint16) ([]uint16, error) {
	if err := c.controlOut(ReqRegRead, uint16(len(addrs)), addrs); err != nil {
		return nil, err
	}
	vals := make([]uint16, len(addrs))
	if err := c.controlIn(ReqRegRead, uint16(len(addrs)), vals); err != nil {
		return nil, err
	}
	return vals, nil
}

func (c *USBConnection) WriteRegisters(addrs, values []uint16) error {
	if len(addrs) != len(values) {
		return fmt.Errorf("WriteRegisters: %d addresses, %d values", len(addrs), len(values))
	}
	pairs := make([]uint16, 0, 2*len(addrs))
	for i := range addrs {
		pairs = append(pairs, addrs[i], values[i])
	}
	return c.controlOut(ReqRegWrite, uint16(len(addrs)), pairs)
}

func (c *USBConnection) ReadLMS7002MSPI(words []uint32, channel int) ([]uint32, error) {
	if err := c.controlOut(ReqLMSSPIRead, uint16(channel), words); err != nil {
		return nil, err
	}
	vals := make([]uint32, len(words))
	if err := c.controlIn(ReqLMSSPIRead, uint16(channel), vals); err != nil {
		return nil, err
	}
	return vals, nil
}

func (c *USBConnection) WriteLMS7002MSPI(words []uint32, channel int) error {
	return c.controlOut(ReqLMSSPIWrite, uint16(channel), words)
}

func (c *USBConnection) SendData(buf []byte, epIndex int, timeout time.Duration) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	c.mu.Lock()
	c.sendCancel = cancel
	c.mu.Unlock()

	n, err := c.epOut.WriteContext(ctx, buf)
	glog.V(2).Infof("[usb-bulk OUT ep%d]: wrote %d bytes. data[:%d]:\n%s",
		epIndex, n, dumpLen(buf), hex.Dump(buf[:dumpLen(buf)]))
	return n, err
}

func (c *USBConnection) ReceiveData(buf []byte, epIndex int, timeout time.Duration) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	c.mu.Lock()
	c.recvCancel = cancel
	c.mu.Unlock()

	n, err := c.epIn.ReadContext(ctx, buf)
	glog.V(2).Infof("[usb-bulk IN ep%d]: read %d bytes. data[:%d]:\n%s",
		epIndex, n, dumpLen(buf), hex.Dump(buf[:dumpLen(buf)]))
	return n, err
}

func (c *USBConnection) AbortSending(epIndex int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendCancel != nil {
		c.sendCancel()
		c.sendCancel = nil
	}
	return nil
}

func (c *USBConnection) AbortReading(epIndex int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.recvCancel != nil {
		c.recvCancel()
		c.recvCancel = nil
	}
	return nil
}

func (c *USBConnection) ResetStreamBuffers() error {
	return c.controlOut(ReqStreamReset, 0, []byte{})
}

func (c *USBConnection) controlIn(request Request, val uint16, data interface{}) error {
	if binary.Size(data) == -1 {
		return fmt.Errorf("Failed to get data size")
	}
	buf := make([]byte, binary.Size(data))
	n, err := c.dev.Control(rTypeControlIn, uint8(request), val, 0, buf)
	if err != nil {
		return fmt.Errorf("dev.Control failed %v", err)
	}
	if n != len(buf) {
		return fmt.Errorf("Failed to read entire buffer %v vs %v", n, len(buf))
	}
	r := bytes.NewReader(buf)
	if err := binary.Read(r, binary.LittleEndian, data); err != nil {
		return fmt.Errorf("binary.Read failed: %v", err)
	}
	glog.V(2).Infof("[usb-ctrl IN]: request = %v, val = %x, data =\n%s",
		request, val, hex.Dump(buf))
	return nil
}

func (c *USBConnection) controlOut(request Request, val uint16, data interface{}) error {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, data); err != nil {
		return fmt.Errorf("binary.Write failed: %v", err)
	}
	n, err := c.dev.Control(rTypeControlOut, uint8(request), val, 0, buf.Bytes())
	if err != nil {
		return fmt.Errorf("dev.Control failed %v", err)
	}
	if n != buf.Len() {
		return fmt.Errorf("Failed to write entire buffer %v vs %v", n, buf.Len())
	}
	glog.V(2).Infof("[usb-ctrl OUT]: request = %v, val = %x, data =\n%s",
		request, val, hex.Dump(buf.Bytes()))
	return nil
}

func dumpLen(buf []byte) int {
	if len(buf) > 32 {
		return 32
	}
	return len(buf)
}
