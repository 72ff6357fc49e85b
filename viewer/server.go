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

// Serves saved IQ recordings over HTTP: recording lists with change
// notifications, per-channel samples, and power spectra.
package main

import (
	"flag"
	"fmt"
	"math"
	"math/cmplx"
	"net/http"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	lime "github.com/bljohnson44/LimeSuite"
	"github.com/bljohnson44/LimeSuite/util"

	"github.com/fsnotify/fsnotify"
	"github.com/golang/glog"
	"github.com/labstack/echo"
	"gonum.org/v1/gonum/dsp/fourier"
)

var (
	portFlag = flag.Int("port", 8080, "Server HTTP port number")
	dirFlag  = flag.String("dir", "recordings", "Input recordings directory to display")
)

const recExt = ".json.gz"

type RecordingMetadata struct {
	Name       string  `json:"Name"`
	SampleRate float64 `json:"SampleRate"`
	Channels   int     `json:"Channels"`
	NumSamples int     `json:"NumSamples"`
}

// A go-routine that waits for directory changes.
// Notifies changes by publishing a message via broker.
func watchDirectoryChanges(broker *util.Broker[fsnotify.Event]) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		glog.Errorf("NewWatcher failed: %v", err)
		return
	}
	defer watcher.Close()

	if err = watcher.Add(*dirFlag); err != nil {
		glog.Errorf("watcher.Add failed: %v", err)
		return
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				glog.Warning("watcher.Events is not ok. Aborting")
				return
			}
			glog.V(1).Infof("Watcher event: %v", event)
			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create ||
				event.Op&fsnotify.Remove == fsnotify.Remove ||
				event.Op&fsnotify.Rename == fsnotify.Rename {
				if strings.HasSuffix(event.Name, recExt) {
					broker.Publish(event)
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				glog.Warning("watcher.Errors is not ok. Aborting")
				return
			}
			glog.Warningf("Watcher error: %v", err)
		}
	}
}

func waitForRecordings(c echo.Context, watcher *util.Broker[fsnotify.Event]) {
	var wg sync.WaitGroup
	timedOut := time.NewTimer(5 * time.Minute)

	wg.Add(1)
	go func() {
		defer wg.Done()
		dirChanged := watcher.Subscribe()
		defer watcher.Unsubscribe(dirChanged)

		select {
		case <-timedOut.C:
			glog.V(1).Infof("Timed out")
		case <-c.Request().Context().Done():
			glog.V(1).Infof("Client disconnected")
		case <-dirChanged:
			glog.V(1).Infof("Received dir notification from broker")
		}
	}()
	wg.Wait()
}

func loadRecording(name string) (*lime.Recording, error) {
	return lime.LoadRecording(path.Join(*dirFlag, name+recExt))
}

// Power spectrum of one channel, dBFS per FFT bin.
func spectrum(samples []lime.Complex16) []float64 {
	seq := make([]complex128, len(samples))
	for i, s := range samples {
		seq[i] = complex(float64(s.I)/2048.0, float64(s.Q)/2048.0)
	}
	fft := fourier.NewCmplxFFT(len(seq))
	coeff := fft.Coefficients(nil, seq)

	power := make([]float64, len(coeff))
	for i := range coeff {
		// Shift DC to the center bin.
		shifted := coeff[(i+len(coeff)/2)%len(coeff)]
		power[i] = 20 * math.Log10(cmplx.Abs(shifted)/float64(len(coeff))+1e-12)
	}
	return power
}

func main() {
	flag.Parse()
	defer glog.Flush()

	watchBroker := util.NewBroker[fsnotify.Event]()
	go watchBroker.Start()
	go watchDirectoryChanges(watchBroker)

	e := echo.New()

	// Returns list of recording files in directory.
	e.GET("/recordings", func(c echo.Context) error {
		if c.QueryParam("wait") != "false" {
			waitForRecordings(c, watchBroker)
		}
		files, err := filepath.Glob(path.Join(*dirFlag, "*"+recExt))
		if err != nil {
			glog.Errorf("Glob failed: %v", err)
			return err
		}
		for i, f := range files {
			files[i] = strings.TrimSuffix(filepath.Base(f), recExt)
		}
		return c.JSON(http.StatusOK, files)
	})

	// Returns metadata for a single recording.
	e.GET("/data/:recording", func(c echo.Context) error {
		rec, err := loadRecording(c.Param("recording"))
		if err != nil {
			glog.Errorf("Error loading recording file: %v", err)
			return err
		}
		numSamples := 0
		if len(rec.Channels) > 0 {
			numSamples = len(rec.Channels[0])
		}
		return c.JSON(http.StatusOK, RecordingMetadata{
			Name:       c.Param("recording"),
			SampleRate: rec.SampleRate,
			Channels:   len(rec.Channels),
			NumSamples: numSamples,
		})
	})

	// Returns raw samples from one channel of a recording.
	e.GET("/data/:recording/:channel", func(c echo.Context) error {
		rec, err := loadRecording(c.Param("recording"))
		if err != nil {
			glog.Errorf("Error loading recording file: %v", err)
			return err
		}
		ch, err := strconv.Atoi(c.Param("channel"))
		if err != nil || ch < 0 || ch >= len(rec.Channels) {
			return c.String(http.StatusInternalServerError, "Invalid channel")
		}
		return c.JSON(http.StatusOK, rec.Channels[ch])
	})

	// Returns the power spectrum of one channel of a recording.
	e.GET("/spectrum/:recording/:channel", func(c echo.Context) error {
		rec, err := loadRecording(c.Param("recording"))
		if err != nil {
			glog.Errorf("Error loading recording file: %v", err)
			return err
		}
		ch, err := strconv.Atoi(c.Param("channel"))
		if err != nil || ch < 0 || ch >= len(rec.Channels) {
			return c.String(http.StatusInternalServerError, "Invalid channel")
		}
		return c.JSON(http.StatusOK, spectrum(rec.Channels[ch]))
	})

	glog.Fatal(e.Start(fmt.Sprintf(":%d", *portFlag)))
}
