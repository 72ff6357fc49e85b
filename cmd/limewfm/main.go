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

// Uploads a waveform recording for FPGA playback, or captures raw stream
// data into a recording.
package main

import (
	"flag"
	"time"

	lime "github.com/bljohnson44/LimeSuite"

	"github.com/golang/glog"
)

var (
	playFlag    = flag.String("play", "", "Recording file (.json.gz) to upload for playback")
	captureFlag = flag.String("capture", "", "Output recording file for raw capture")
	bytesFlag   = flag.Int("bytes", 1 << 20, "Raw capture size, bytes")
	epFlag      = flag.Int("ep", 0, "Stream endpoint index")
	rateFlag    = flag.Float64("rate", 30.72e6, "Sample rate stored with captures, Hz")
	mimoFlag    = flag.Bool("mimo", false, "Parse captured data as dual channel")
	int16Flag   = flag.Bool("int16", false, "Treat playback samples as full-scale 16 bit")
)

func play(fpga *lime.FPGA) {
	rec, err := lime.LoadRecording(*playFlag)
	if err != nil {
		glog.Exitf("Failed to load recording: %v", err)
	}
	format := lime.FormatInt12
	if *int16Flag {
		format = lime.FormatInt16
	}
	if err = fpga.UploadWaveform(rec.Channels, format, *epFlag); err != nil {
		glog.Exitf("Waveform upload failed: %v", err)
	}
	glog.Infof("Uploaded %d samples x %d channels", len(rec.Channels[0]), len(rec.Channels))
}

func capture(fpga *lime.FPGA) {
	buf := make([]byte, *bytesFlag)
	n, err := fpga.ReadRawStreamData(buf, *epFlag, 3*time.Second)
	if err != nil {
		glog.Exitf("Raw capture failed: %v", err)
	}
	rec := &lime.Recording{
		SampleRate: *rateFlag,
		Channels:   lime.UnpackSamples(buf[:n], *mimoFlag, true),
	}
	if err = rec.Save(*captureFlag); err != nil {
		glog.Exitf("Failed to save recording: %v", err)
	}
	glog.Infof("Captured %d bytes to %s", n, *captureFlag)
}

func main() {
	flag.Parse()
	defer glog.Flush()

	if (*playFlag == "") == (*captureFlag == "") {
		glog.Exit("Specify exactly one of -play or -capture")
	}

	conn, err := lime.OpenUSBConnection()
	if err != nil {
		glog.Exitf("Failed to open device: %v", err)
	}
	defer conn.Close()
	fpga := lime.NewFPGA(conn)

	if *playFlag != "" {
		play(fpga)
	} else {
		capture(fpga)
	}
}
