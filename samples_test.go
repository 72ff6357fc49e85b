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

func TestPackSamplesSizes(t *testing.T) {
	samples := [][]lime.Complex16{
		make([]lime.Complex16, 5),
		make([]lime.Complex16, 5),
	}
	cases := []struct {
		mimo, compressed bool
		want             int
	}{
		{false, true, 15},
		{true, true, 30},
		{false, false, 20},
		{true, false, 40},
	}
	for _, c := range cases {
		buf := lime.PackSamples(samples, 5, c.mimo, c.compressed)
		if len(buf) != c.want {
			t.Errorf("PackSamples(mimo=%v, compressed=%v) = %d bytes, want %d",
				c.mimo, c.compressed, len(buf), c.want)
		}
	}
}

func TestPackSamplesCompressedLayout(t *testing.T) {
	samples := [][]lime.Complex16{{{I: 0x123, Q: 0x456}}}
	buf := lime.PackSamples(samples, 1, false, true)
	want := []byte{0x23, 0x61, 0x45}
	if !reflect.DeepEqual(buf, want) {
		t.Errorf("packed bytes = %#02x, want %#02x", buf, want)
	}
}

func TestPackUnpackCompressed(t *testing.T) {
	// 12-bit signed extremes and a few mid-range values.
	ch0 := []lime.Complex16{{0, 0}, {1, -1}, {2047, -2048}, {-1365, 1365}}
	ch1 := []lime.Complex16{{-2048, 2047}, {100, -100}, {5, -5}, {1024, -1024}}

	single := [][]lime.Complex16{ch0}
	buf := lime.PackSamples(single, len(ch0), false, true)
	if got := lime.UnpackSamples(buf, false, true); !reflect.DeepEqual(got, single) {
		t.Errorf("single channel round trip: got %v, want %v", got, single)
	}

	mimo := [][]lime.Complex16{ch0, ch1}
	buf = lime.PackSamples(mimo, len(ch0), true, true)
	if got := lime.UnpackSamples(buf, true, true); !reflect.DeepEqual(got, mimo) {
		t.Errorf("dual channel round trip: got %v, want %v", got, mimo)
	}
}

func TestPackUnpackUncompressed(t *testing.T) {
	ch0 := []lime.Complex16{{0, 0}, {32767, -32768}, {-1, 1}}
	ch1 := []lime.Complex16{{256, -256}, {-32768, 32767}, {12345, -12345}}

	single := [][]lime.Complex16{ch0}
	buf := lime.PackSamples(single, len(ch0), false, false)
	if got := lime.UnpackSamples(buf, false, false); !reflect.DeepEqual(got, single) {
		t.Errorf("single channel round trip: got %v, want %v", got, single)
	}

	mimo := [][]lime.Complex16{ch0, ch1}
	buf = lime.PackSamples(mimo, len(ch0), true, false)
	if got := lime.UnpackSamples(buf, true, false); !reflect.DeepEqual(got, mimo) {
		t.Errorf("dual channel round trip: got %v, want %v", got, mimo)
	}
}

func TestUploadWaveformPacketization(t *testing.T) {
	conn := newFakeConn()
	f := lime.NewFPGA(conn)

	// 1500 samples: one full 1020-sample packet plus a 480-sample remainder.
	samples := [][]lime.Complex16{make([]lime.Complex16, 1500)}
	for i := range samples[0] {
		v := int16(i % 2048)
		samples[0][i] = lime.Complex16{I: v, Q: -v}
	}
	if err := f.UploadWaveform(samples, lime.FormatInt12, 2); err != nil {
		t.Fatalf("UploadWaveform failed: %v", err)
	}

	if len(conn.sent) != 2 {
		t.Fatalf("sent %d packets, want 2", len(conn.sent))
	}
	if len(conn.sent[0]) != 3076 || len(conn.sent[1]) != 1456 {
		t.Errorf("packet sizes = %d, %d, want 3076, 1456",
			len(conn.sent[0]), len(conn.sent[1]))
	}
	if conn.sent[0][8] != 0x20 {
		t.Errorf("load flag byte = %#02x, want 0x20", conn.sent[0][8])
	}
	if conn.sent[0][9] != 0xF4 || conn.sent[0][10] != 0x0B {
		t.Errorf("packet 0 payload size bytes = %#02x %#02x, want 0xF4 0x0B",
			conn.sent[0][9], conn.sent[0][10])
	}
	if conn.sent[1][9] != 0xA0 || conn.sent[1][10] != 0x05 {
		t.Errorf("packet 1 payload size bytes = %#02x %#02x, want 0xA0 0x05",
			conn.sent[1][9], conn.sent[1][10])
	}

	var payload []byte
	for _, pkt := range conn.sent {
		payload = append(payload, pkt[16:]...)
	}
	if got := lime.UnpackSamples(payload, false, true); !reflect.DeepEqual(got, samples) {
		t.Error("unpacked payload does not match uploaded samples")
	}

	regs := []struct {
		addr uint16
		want []uint16
	}{
		{0xFFFF, []uint16{0x4}}, // endpoint 2
		{0x000C, []uint16{0x1}}, // single channel
		{0x000E, []uint16{0x2}}, // 12-bit samples
		{0x000D, []uint16{0x4}}, // WFM load mode
	}
	for _, r := range regs {
		if got := conn.writesTo(r.addr); !reflect.DeepEqual(got, r.want) {
			t.Errorf("register 0x%04X writes = %v, want %v", r.addr, got, r.want)
		}
	}
	if conn.sendAborts != 1 {
		t.Errorf("send aborts = %d, want 1", conn.sendAborts)
	}
}

func TestUploadWaveformInt16Scaling(t *testing.T) {
	conn := newFakeConn()
	f := lime.NewFPGA(conn)

	samples := [][]lime.Complex16{{
		{I: 0x100, Q: -0x100}, {I: 0x200, Q: -0x200},
		{I: 0x300, Q: -0x300}, {I: 0x400, Q: -0x400},
	}}
	if err := f.UploadWaveform(samples, lime.FormatInt16, 0); err != nil {
		t.Fatalf("UploadWaveform failed: %v", err)
	}
	got := lime.UnpackSamples(conn.sent[0][16:], false, true)
	want := [][]lime.Complex16{{
		{I: 0x10, Q: -0x10}, {I: 0x20, Q: -0x20},
		{I: 0x30, Q: -0x30}, {I: 0x40, Q: -0x40},
	}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("uploaded %v, want %v", got, want)
	}
}

func TestUploadWaveformPayloadTruncation(t *testing.T) {
	conn := newFakeConn()
	f := lime.NewFPGA(conn)

	// 5 single-channel samples pack to 15 bytes; the payload is clipped to
	// 12, so the last sample is dropped while the call still succeeds.
	samples := [][]lime.Complex16{{
		{I: 1, Q: -1}, {I: 2, Q: -2}, {I: 3, Q: -3}, {I: 4, Q: -4}, {I: 5, Q: -5},
	}}
	if err := f.UploadWaveform(samples, lime.FormatInt12, 0); err != nil {
		t.Fatalf("UploadWaveform failed: %v", err)
	}
	if len(conn.sent) != 1 || len(conn.sent[0]) != 28 {
		t.Fatalf("sent %d packets (first %d bytes), want 1 packet of 28 bytes",
			len(conn.sent), len(conn.sent[0]))
	}
	got := lime.UnpackSamples(conn.sent[0][16:], false, true)
	if !reflect.DeepEqual(got, [][]lime.Complex16{samples[0][:4]}) {
		t.Errorf("uploaded %v, want the first 4 samples", got)
	}
}

func TestUploadWaveformShortWrite(t *testing.T) {
	conn := newFakeConn()
	conn.shortSend = 0
	f := lime.NewFPGA(conn)

	samples := [][]lime.Complex16{make([]lime.Complex16, 100)}
	err := f.UploadWaveform(samples, lime.FormatInt12, 0)
	var ioErr *lime.IOError
	if !errors.As(err, &ioErr) {
		t.Errorf("got %v, want IOError", err)
	}
	if len(conn.sent) != 1 {
		t.Errorf("sent %d packets after short write, want 1", len(conn.sent))
	}
	// Endpoint is still released on the failure path.
	if conn.sendAborts != 1 {
		t.Errorf("send aborts = %d, want 1", conn.sendAborts)
	}
}

func TestUploadWaveformChannelCount(t *testing.T) {
	conn := newFakeConn()
	f := lime.NewFPGA(conn)

	samples := make([][]lime.Complex16, 3)
	var rangeErr *lime.RangeError
	if err := f.UploadWaveform(samples, lime.FormatInt12, 0); !errors.As(err, &rangeErr) {
		t.Errorf("got %v, want RangeError", err)
	}
}
