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

// FPGA device session. Owns the transport; all register traffic to one board
// goes through a single FPGA value.
package lime

import (
	"time"

	"github.com/golang/glog"
)

// Interface control register 0x000A.
const (
	rxEn       uint16 = 1      // controls both receiver and transmitter
	txEn       uint16 = 1 << 1 // used for wfm playback from fpga
	streamLoad uint16 = 1 << 2
)

// Timestamp/loss clear register 0x0009. Both bits clear on a rising edge.
const (
	smplNrClr    uint16 = 1
	txPctLossClr uint16 = 1 << 1
)

const (
	addrDirectClk     uint16 = 0x0005
	addrSmplClr       uint16 = 0x0009
	addrInterfaceCtrl uint16 = 0x000A
	addrEpSelect      uint16 = 0xFFFF
)

type FPGA struct {
	conn ConnectionInterface
}

func NewFPGA(conn ConnectionInterface) *FPGA {
	return &FPGA{conn}
}

func (f *FPGA) Connection() ConnectionInterface {
	return f.conn
}

func (f *FPGA) StartStreaming() error {
	const op = "StartStreaming"
	ctrl, err := f.conn.ReadRegister(addrInterfaceCtrl)
	if err != nil {
		return &IOError{op, "failed to read interface control", err}
	}
	if err = f.conn.WriteRegister(addrInterfaceCtrl, ctrl|rxEn); err != nil {
		return &IOError{op, "failed to write interface control", err}
	}
	return nil
}

// Stops both the receiver and the waveform player, regardless of which was
// running.
func (f *FPGA) StopStreaming() error {
	const op = "StopStreaming"
	ctrl, err := f.conn.ReadRegister(addrInterfaceCtrl)
	if err != nil {
		return &IOError{op, "failed to read interface control", err}
	}
	if err = f.conn.WriteRegister(addrInterfaceCtrl, ctrl&^(rxEn|txEn)); err != nil {
		return &IOError{op, "failed to write interface control", err}
	}
	return nil
}

// Resets the hardware timestamp counter to 0 by pulsing the clear bits
// (clear, set, clear); the counter reset triggers on the rising edge.
// Streaming must be stopped first.
func (f *FPGA) ResetTimestamp() error {
	const op = "ResetTimestamp"
	ctrl, err := f.conn.ReadRegister(addrInterfaceCtrl)
	if err != nil {
		return &IOError{op, "failed to read interface control", err}
	}
	if ctrl&rxEn != 0 {
		return &PermissionError{op, "streaming must be stopped to reset timestamp"}
	}

	clr, err := f.conn.ReadRegister(addrSmplClr)
	if err != nil {
		return &IOError{op, "failed to read clear register", err}
	}
	pulse := txPctLossClr | smplNrClr
	for _, v := range []uint16{clr &^ pulse, clr | pulse, clr &^ pulse} {
		if err = f.conn.WriteRegister(addrSmplClr, v); err != nil {
			return &IOError{op, "failed to write clear register", err}
		}
	}
	return nil
}

// Captures raw stream data into buf, bypassing packet parsing. Streaming is
// restarted around the capture and the read endpoint is aborted afterwards.
// Returns the number of bytes received.
func (f *FPGA) ReadRawStreamData(buf []byte, epIndex int, timeout time.Duration) (int, error) {
	const op = "ReadRawStreamData"
	if err := f.conn.WriteRegister(addrEpSelect, 1<<uint(epIndex)); err != nil {
		return 0, &IOError{op, "failed to select endpoint", err}
	}
	if err := f.StopStreaming(); err != nil {
		return 0, err
	}
	if err := f.conn.ResetStreamBuffers(); err != nil {
		return 0, &IOError{op, "failed to reset stream buffers", err}
	}
	if err := f.conn.WriteRegister(0x0008, 0x0100|0x2); err != nil {
		return 0, &IOError{op, "failed to set capture mode", err}
	}
	if err := f.conn.WriteRegister(0x0007, 1); err != nil {
		return 0, &IOError{op, "failed to select capture channel", err}
	}
	if err := f.StartStreaming(); err != nil {
		return 0, err
	}
	n, err := f.conn.ReceiveData(buf, epIndex, timeout)
	glog.V(1).Infof("[%s] received %d/%d bytes", op, n, len(buf))
	f.StopStreaming()
	f.conn.AbortReading(epIndex)
	if err != nil {
		return n, &IOError{op, "receive failed", err}
	}
	return n, nil
}
