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

// Board transport abstraction.
package lime

import (
	"io"
	"time"
)

// LMS7002M SPI words encode {write flag: 1 bit, address: 15 bits, data: 16
// bits}. Page selection is performed by writing sentinel data values to the
// channel-select register.
const (
	spiWriteFlag = uint32(1) << 31

	lmsAddrChannel = 0x0020

	lmsChannelA  = 0xFFFD
	lmsChannelB  = 0xFFFE
	lmsChannelAB = 0xFFFF
)

func spiRead(addr uint16) uint32 {
	return uint32(addr) << 16
}

func spiWrite(addr, data uint16) uint32 {
	return spiWriteFlag | uint32(addr)<<16 | uint32(data)
}

//go:generate mockgen -destination=mocks/connection.go -package=mocks github.com/bljohnson44/LimeSuite ConnectionInterface

// Synchronous transport to the board: 16-bit register file, SPI bridge to the
// LMS7002M transceiver, and bulk stream endpoints. All register batches are
// order-preserving. The device is a shared mutable resource; exactly one
// orchestrating goroutine may use a connection at a time.
type ConnectionInterface interface {
	io.Closer

	ReadRegister(addr uint16) (uint16, error)
	WriteRegister(addr, value uint16) error
	ReadRegisters(addrs []uint16) ([]uint16, error)
	WriteRegisters(addrs, values []uint16) error

	ReadLMS7002MSPI(words []uint32, channel int) ([]uint32, error)
	WriteLMS7002MSPI(words []uint32, channel int) error

	SendData(buf []byte, epIndex int, timeout time.Duration) (int, error)
	ReceiveData(buf []byte, epIndex int, timeout time.Duration) (int, error)
	AbortSending(epIndex int) error
	AbortReading(epIndex int) error
	ResetStreamBuffers() error
}
