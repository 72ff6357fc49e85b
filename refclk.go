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

// Reference clock estimation via the gateware frequency counter.
package lime

import (
	"math"
	"time"

	"github.com/golang/glog"
)

// Fixed USB-controller cycle count the gateware counts reference edges
// against.
const refClkCounterCycles = 16777210

// Standard reference rates the measurement snaps to, ascending.
var refClkTable = []float64{30.72e6, 38.4e6, 40e6, 52e6}

const refClkMeasureTimeout = 500 * time.Millisecond

// Measures the board reference clock against the USB controller clock and
// snaps the estimate to the nearest standard rate.
//
// The snap is a forward scan over the ascending rate table that stops at the
// first point where the distance to the estimate starts increasing. An
// estimate exactly between two table entries snaps to the higher one.
func (f *FPGA) DetectRefClk(fx3Clk float64) (float64, error) {
	const op = "DetectRefClk"
	if err := f.conn.WriteRegisters([]uint16{0x61, 0x63}, []uint16{0x0, 0x0}); err != nil {
		return 0, &IOError{op, "failed to reset measurement registers", err}
	}
	start := time.Now()
	if err := f.conn.WriteRegister(0x61, 0x4); err != nil {
		return 0, &IOError{op, "failed to start measurement", err}
	}

	for {
		completed, err := f.conn.ReadRegister(0x65)
		if err != nil {
			return 0, &IOError{op, "failed to read completion register", err}
		}
		if completed&0x4 != 0 {
			break
		}
		if time.Since(start) > refClkMeasureTimeout {
			return 0, &DeviceTimeoutError{op}
		}
	}

	vals, err := f.conn.ReadRegisters([]uint16{0x72, 0x73})
	if err != nil {
		return 0, &IOError{op, "failed to read clock counter", err}
	}
	count := float64(uint32(vals[0]) | uint32(vals[1])<<16)
	count *= fx3Clk / refClkCounterCycles
	glog.V(1).Infof("[%s] estimated reference clock %1.4f MHz", op, count/1e6)

	i := 0
	delta := 100e6
	for i < len(refClkTable) {
		if delta < math.Abs(count-refClkTable[i]) {
			break
		}
		delta = math.Abs(count - refClkTable[i])
		i++
	}
	glog.Infof("[%s] reference clock %1.2f MHz", op, refClkTable[i-1]/1e6)
	return refClkTable[i-1], nil
}
