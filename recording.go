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

// IQ recording persistence: captured or to-be-played sample buffers stored
// as gzipped JSON.
package lime

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/mat"
)

// A recorded (or prepared) sample buffer with one slice per channel.
type Recording struct {
	SampleRate float64       `json:"fs"`
	Channels   [][]Complex16 `json:"iq"`
}

// Exported for testing.
func LoadRecordingIo(src io.Reader) (*Recording, error) {
	zipper, err := gzip.NewReader(src)
	if err != nil {
		return nil, fmt.Errorf("gzip NewReader failed %v", err)
	}
	var rec Recording
	decoder := json.NewDecoder(zipper)
	if err = decoder.Decode(&rec); err != nil {
		return nil, fmt.Errorf("JSON decoder failed %v", err)
	}
	return &rec, nil
}

// Loads a recording from file.
func LoadRecording(filename string) (*Recording, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("Error opening recording file: %v", err)
	}
	defer f.Close()
	return LoadRecordingIo(f)
}

// Exported for testing.
func (r *Recording) SaveIo(dst io.Writer) error {
	zipper := gzip.NewWriter(dst)
	encoder := json.NewEncoder(zipper)
	if err := encoder.Encode(r); err != nil {
		return fmt.Errorf("JSON encoder failed %v", err)
	}
	if err := zipper.Close(); err != nil {
		return fmt.Errorf("gzip close failed %v", err)
	}
	return nil
}

func (r *Recording) Save(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("Error creating recording file: %v", err)
	}
	defer f.Close()
	return r.SaveIo(f)
}

// Collects all samples in a single m (#channels) by 2n (interleaved I/Q)
// matrix for analysis.
func (r *Recording) SampleMatrix() mat.Matrix {
	rows := len(r.Channels)
	cols := 2 * len(r.Channels[0])
	data := make([]float64, rows*cols)
	for ch := 0; ch < rows; ch++ {
		for i, s := range r.Channels[ch] {
			data[ch*cols+2*i] = float64(s.I)
			data[ch*cols+2*i+1] = float64(s.Q)
		}
	}
	return mat.NewDense(rows, cols, data)
}
