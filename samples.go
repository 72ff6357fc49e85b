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

// Sample packing between the host representation and the FPGA stream packet
// payload, and the waveform upload path built on it.
package lime

import (
	"encoding/binary"
	"time"

	"github.com/golang/glog"
)

// One complex I/Q sample. The compressed wire format carries 12 significant
// bits per component.
type Complex16 struct {
	I int16 `json:"i"`
	Q int16 `json:"q"`
}

// Stream packet: 16-byte header (counter plus control bytes) followed by the
// payload. Capacity fits 1020 uncompressed 16-bit samples.
const (
	packetHeaderSize  = 16
	packetPayloadSize = 4080
	samples16InPkt    = 1020
)

const (
	wfmLoadFlag    = 0x1 << 5
	sendTimeout    = 500 * time.Millisecond
	wfmSettleDelay = 500 * time.Millisecond
)

// Host sample layout accepted by UploadWaveform.
type WaveformFormat int

const (
	// Samples already hold 12-bit values.
	FormatInt12 WaveformFormat = iota
	// Full-scale 16-bit samples; the low 4 bits are discarded on upload.
	FormatInt16
)

// Packs count samples per channel into the FPGA packet payload layout.
// Compressed packing stores two 12-bit signed components in 3 bytes:
// byte0 = I low 8 bits, byte1 = I high 4 bits | Q low 4 bits << 4,
// byte2 = Q high 8 bits. Channels interleave per time-sample when mimo.
// Uncompressed packing stores raw little-endian 16-bit I/Q pairs.
func PackSamples(samples [][]Complex16, count int, mimo, compressed bool) []byte {
	if compressed {
		bytesPerSample := 3
		if mimo {
			bytesPerSample = 6
		}
		buf := make([]byte, count*bytesPerSample)
		b := 0
		for src := 0; src < count; src++ {
			s := samples[0][src]
			buf[b] = byte(s.I)
			buf[b+1] = byte((s.I>>8)&0x0F) | byte(s.Q<<4)
			buf[b+2] = byte(s.Q >> 4)
			b += 3
			if mimo {
				s = samples[1][src]
				buf[b] = byte(s.I)
				buf[b+1] = byte((s.I>>8)&0x0F) | byte(s.Q<<4)
				buf[b+2] = byte(s.Q >> 4)
				b += 3
			}
		}
		return buf
	}

	bytesPerSample := 4
	if mimo {
		bytesPerSample = 8
	}
	buf := make([]byte, count*bytesPerSample)
	b := 0
	for src := 0; src < count; src++ {
		s := samples[0][src]
		binary.LittleEndian.PutUint16(buf[b:], uint16(s.I))
		binary.LittleEndian.PutUint16(buf[b+2:], uint16(s.Q))
		b += 4
		if mimo {
			s = samples[1][src]
			binary.LittleEndian.PutUint16(buf[b:], uint16(s.I))
			binary.LittleEndian.PutUint16(buf[b+2:], uint16(s.Q))
			b += 4
		}
	}
	return buf
}

// Parses an FPGA packet payload back into per-channel samples; the exact
// inverse of PackSamples. Each compressed 12-bit component is sign extended
// to 16 bits (left shift 4, arithmetic shift right 4).
func UnpackSamples(buf []byte, mimo, compressed bool) [][]Complex16 {
	channels := 1
	if mimo {
		channels = 2
	}
	if compressed {
		count := len(buf) / (3 * channels)
		samples := newSampleChannels(channels, count)
		b := 0
		for collected := 0; collected < count; collected++ {
			for ch := 0; ch < channels; ch++ {
				i := int16(buf[b]) | int16(buf[b+1])<<8
				i <<= 4
				q := int16(buf[b+1]) | int16(buf[b+2])<<8
				samples[ch][collected] = Complex16{i >> 4, q >> 4}
				b += 3
			}
		}
		return samples
	}

	count := len(buf) / (4 * channels)
	samples := newSampleChannels(channels, count)
	b := 0
	for collected := 0; collected < count; collected++ {
		for ch := 0; ch < channels; ch++ {
			samples[ch][collected] = Complex16{
				int16(binary.LittleEndian.Uint16(buf[b:])),
				int16(binary.LittleEndian.Uint16(buf[b+2:])),
			}
			b += 4
		}
	}
	return samples
}

func newSampleChannels(channels, count int) [][]Complex16 {
	samples := make([][]Complex16, channels)
	for ch := range samples {
		samples[ch] = make([]Complex16, count)
	}
	return samples
}

// Loads a waveform into FPGA memory for playback. samples holds one or two
// channels of equal length. The buffer is packetized in compressed format and
// sent over the transport endpoint; after the last packet a settle delay is
// applied before the endpoint is aborted, even when a send came up short.
func (f *FPGA) UploadWaveform(samples [][]Complex16, format WaveformFormat, epIndex int) error {
	const op = "UploadWaveform"
	chCount := len(samples)
	if chCount != 1 && chCount != 2 {
		return &RangeError{op, "channel count must be 1 or 2"}
	}

	src := samples
	if format == FormatInt16 {
		src = make([][]Complex16, chCount)
		for ch := range samples {
			src[ch] = make([]Complex16, len(samples[ch]))
			for i, s := range samples[ch] {
				src[ch][i] = Complex16{s.I >> 4, s.Q >> 4}
			}
		}
	}
	return f.uploadWFM(src, epIndex)
}

// Float variant of UploadWaveform: samples hold interleaved I/Q float32
// pairs per channel, scaled to 12-bit full scale before packing.
func (f *FPGA) UploadWaveformFloat(samples [][]float32, epIndex int) error {
	const op = "UploadWaveform"
	chCount := len(samples)
	if chCount != 1 && chCount != 2 {
		return &RangeError{op, "channel count must be 1 or 2"}
	}

	const mult = 2047.5
	src := make([][]Complex16, chCount)
	for ch := range samples {
		count := len(samples[ch]) / 2
		src[ch] = make([]Complex16, count)
		for i := 0; i < count; i++ {
			src[ch][i] = Complex16{
				int16(samples[ch][2*i] * mult),
				int16(samples[ch][2*i+1] * mult),
			}
		}
	}
	return f.uploadWFM(src, epIndex)
}

// Packetizes src in compressed format and streams it over the endpoint. A
// packet payload whose byte length is not a multiple of 4 is truncated to
// one; the clipped trailing sample still counts as consumed, so it is warned
// about but never transmitted and the upload reports success.
func (f *FPGA) uploadWFM(src [][]Complex16, epIndex int) error {
	const op = "UploadWaveform"
	chCount := len(src)

	if err := f.conn.WriteRegister(addrEpSelect, 1<<uint(epIndex)); err != nil {
		return &IOError{op, "failed to select endpoint", err}
	}
	chMask := uint16(0x1)
	if chCount == 2 {
		chMask = 0x3
	}
	if err := f.conn.WriteRegister(0x000C, chMask); err != nil {
		return &IOError{op, "failed to write channel mask", err}
	}
	// 12-bit samples.
	if err := f.conn.WriteRegister(0x000E, 0x2); err != nil {
		return &IOError{op, "failed to write sample width", err}
	}
	mode, err := f.conn.ReadRegister(0x000D)
	if err != nil {
		return &IOError{op, "failed to read load mode register", err}
	}
	if err = f.conn.WriteRegister(0x000D, mode|0x4); err != nil {
		return &IOError{op, "failed to write load mode register", err}
	}

	cnt := len(src[0])
	samplesUsed := 0
	pkt := make([]byte, packetHeaderSize+packetPayloadSize)
	batch := make([][]Complex16, chCount)
	for cnt > 0 {
		samplesToSend := cnt
		if samplesToSend > samples16InPkt/chCount {
			samplesToSend = samples16InPkt / chCount
		}
		for ch := range src {
			batch[ch] = src[ch][samplesUsed:]
		}
		samplesUsed += samplesToSend

		payload := PackSamples(batch, samplesToSend, chCount == 2, true)
		payloadSize := (len(payload) / 4) * 4
		if len(payload)%4 != 0 {
			glog.Warning("Packet samples count not multiple of 4")
		}
		for i := range pkt[:packetHeaderSize] {
			pkt[i] = 0
		}
		pkt[8] = wfmLoadFlag
		pkt[9] = byte(payloadSize)
		pkt[10] = byte(payloadSize >> 8)
		copy(pkt[packetHeaderSize:], payload[:payloadSize])

		toSend := packetHeaderSize + payloadSize
		n, err := f.conn.SendData(pkt[:toSend], epIndex, sendTimeout)
		if err != nil || n != toSend {
			glog.Warningf("[%s] short write: sent %d of %d bytes (%v)", op, n, toSend, err)
			break
		}
		cnt -= samplesToSend
	}

	// Give the FPGA time to commit the last packet before releasing the
	// endpoint. Applies on the failure path too.
	time.Sleep(wfmSettleDelay)
	f.conn.AbortSending(epIndex)
	if cnt != 0 {
		return &IOError{op, "failed to upload waveform", nil}
	}
	return nil
}
