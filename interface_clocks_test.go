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
	"errors"
	"reflect"
	"testing"

	lime "github.com/bljohnson44/LimeSuite"
)

// LMS7002M SPI words used by the calibration paths, with the fake's canned
// read value 0x5A5A coming back on restore.
const (
	spiSelectPageA  = 0x8020FFFD
	spiSelectPageB  = 0x8020FFFE
	spiSelectPageAB = 0x8020FFFF
	spiRestoreCh    = 0x80205A5A
	spiRxPattern0   = 0x80210E9F
	spiRestore21    = 0x80215A5A
)

func TestSetInterfaceFreqFixedPhase(t *testing.T) {
	conn := newFakeConn()
	f := lime.NewFPGA(conn)

	// Gateware revision registers read back 0: no phase search support.
	if err := f.SetInterfaceFreq(30.72e6, 30.72e6, 0); err != nil {
		t.Fatalf("SetInterfaceFreq failed: %v", err)
	}
	if len(conn.spiWrites) != 0 {
		t.Errorf("transceiver written to on the fixed-phase path: %v", conn.spiWrites)
	}
	// RX side first, then TX; second output of each pair carries the
	// empirical phase (127.55 and 97.94 degrees at 30.72 MS/s, C=42).
	if got := conn.writesTo(0x0024); !reflect.DeepEqual(got, []uint16{0, 119, 0, 91}) {
		t.Errorf("phase count writes = %v, want [0 119 0 91]", got)
	}
}

func TestSetInterfaceFreqDirectClocking(t *testing.T) {
	conn := newFakeConn()
	f := lime.NewFPGA(conn)

	if err := f.SetInterfaceFreq(1e6, 1e6, 0); err != nil {
		t.Fatalf("SetInterfaceFreq failed: %v", err)
	}
	// RX routes clock 1 direct, then TX routes clock 0.
	if got := conn.writesTo(0x0005); !reflect.DeepEqual(got, []uint16{0x2, 0x3}) {
		t.Errorf("direct clock writes = %v, want [0x2 0x3]", got)
	}
	if got := conn.writesTo(0x0023); got != nil {
		t.Errorf("PLL control written on the direct clocking path: %v", got)
	}
}

func TestSetInterfaceFreqPhaseSearch(t *testing.T) {
	conn := newFakeConn()
	conn.regs[0] = 0xF
	conn.regs[1] = 2
	conn.regs[2] = 7
	f := lime.NewFPGA(conn)

	if err := f.SetInterfaceFreq(30.72e6, 30.72e6, 0); err != nil {
		t.Fatalf("SetInterfaceFreq failed: %v", err)
	}

	for _, word := range []uint32{spiSelectPageA, spiSelectPageB, spiSelectPageAB,
		spiRxPattern0, spiRestore21} {
		if !conn.wroteSPI(word) {
			t.Errorf("SPI word %#08x never written", word)
		}
	}
	// Channel select restored last.
	if last := conn.spiWrites[len(conn.spiWrites)-1]; last != spiRestoreCh {
		t.Errorf("last SPI write = %#08x, want %#08x", last, spiRestoreCh)
	}
	// Stream interface: disabled for the TX pattern load, playback enabled
	// for the TX search, cleared on restore.
	if got := conn.writesTo(0x000A); !reflect.DeepEqual(got, []uint16{0x0000, 0x0200, 0x0000}) {
		t.Errorf("interface control writes = %#04x, want [0x0000 0x0200 0x0000]", got)
	}
	if got := conn.writesTo(0xFFFF); !reflect.DeepEqual(got, []uint16{0x1}) {
		t.Errorf("endpoint select writes = %v, want [1]", got)
	}
	// One full-turn search per side: round(360 / (45/42)) - 1 steps.
	if got := conn.writesTo(0x0024); !reflect.DeepEqual(got, []uint16{335, 335}) {
		t.Errorf("phase count writes = %v, want [335 335]", got)
	}
	searchMode := false
	for _, v := range conn.writesTo(0x0023) {
		if v&(1<<14) != 0 {
			searchMode = true
		}
	}
	if !searchMode {
		t.Error("phase search mode bit never set in PLL control")
	}
}

func TestSetInterfaceFreqEndpointSelectError(t *testing.T) {
	conn := newFakeConn()
	conn.regs[0] = 0xF
	conn.regs[1] = 2
	conn.regs[2] = 7
	conn.writeErr[0xFFFF] = errors.New("usb stall")
	f := lime.NewFPGA(conn)

	var ioErr *lime.IOError
	err := f.SetInterfaceFreq(30.72e6, 30.72e6, 0)
	if !errors.As(err, &ioErr) {
		t.Errorf("got %v, want IOError", err)
	}
	// Transceiver state is still restored on the error path.
	if last := conn.spiWrites[len(conn.spiWrites)-1]; last != spiRestoreCh {
		t.Errorf("last SPI write = %#08x, want %#08x", last, spiRestoreCh)
	}
}

func TestSetInterfaceFreqPhaseSearchFallback(t *testing.T) {
	conn := newFakeConn()
	conn.regs[0] = 0xF
	conn.regs[1] = 2
	conn.regs[2] = 7
	conn.status = 0xD // search done with error; config path still succeeds
	f := lime.NewFPGA(conn)

	// Both searches fail fast; the fixed-phase fallback saves the call.
	if err := f.SetInterfaceFreq(30.72e6, 30.72e6, 0); err != nil {
		t.Fatalf("SetInterfaceFreq failed: %v", err)
	}
	if got := conn.writesTo(0x0024); !reflect.DeepEqual(got, []uint16{335, 0, 119, 335, 0, 91}) {
		t.Errorf("phase count writes = %v, want [335 0 119 335 0 91]", got)
	}
	// Backed-up transceiver state is restored even though the searches
	// failed.
	if last := conn.spiWrites[len(conn.spiWrites)-1]; last != spiRestoreCh {
		t.Errorf("last SPI write = %#08x, want %#08x", last, spiRestoreCh)
	}
	if got := conn.writesTo(0x000A); got[len(got)-1] != 0 {
		t.Errorf("interface control not cleared on restore: %#04x", got)
	}
}
