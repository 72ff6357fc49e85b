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

// Detects the board reference clock and configures the RX/TX interface
// clocks.
package main

import (
	"flag"

	lime "github.com/bljohnson44/LimeSuite"

	"github.com/golang/glog"
)

var (
	txRateFlag  = flag.Float64("tx", 30.72e6, "TX interface rate, Hz")
	rxRateFlag  = flag.Float64("rx", 30.72e6, "RX interface rate, Hz")
	channelFlag = flag.Int("channel", 0, "RF channel (0 or 1)")
	fx3ClkFlag  = flag.Float64("fx3clk", 100e6, "USB controller clock, Hz")
	detectFlag  = flag.Bool("detect", true, "Measure the board reference clock first")
)

func main() {
	flag.Parse()
	defer glog.Flush()

	conn, err := lime.OpenUSBConnection()
	if err != nil {
		glog.Exitf("Failed to open device: %v", err)
	}
	defer conn.Close()

	fpga := lime.NewFPGA(conn)
	if *detectFlag {
		refClk, err := fpga.DetectRefClk(*fx3ClkFlag)
		if err != nil {
			glog.Exitf("Reference clock detection failed: %v", err)
		}
		glog.Infof("Reference clock: %.2f MHz", refClk/1e6)
	}

	if err = fpga.SetInterfaceFreq(*txRateFlag, *rxRateFlag, *channelFlag); err != nil {
		glog.Exitf("Interface clock configuration failed: %v", err)
	}
	glog.Infof("Interface clocks configured: TX %.3f MHz, RX %.3f MHz",
		*txRateFlag/1e6, *rxRateFlag/1e6)
}
