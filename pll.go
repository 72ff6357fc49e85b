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

// On-board PLL synthesis: integer divider search, divider register
// programming with polled completion, and output phase calibration.
package lime

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/golang/glog"
)

// PLL control register 0x0023 trigger and mode bits.
const (
	pllCfgStart uint16 = 0x1
	phCfgStart  uint16 = 0x2
	pllRstStart uint16 = 0x4
	phCfgUpDn   uint16 = 1 << 13
	phCfgMode   uint16 = 1 << 14
)

const (
	addrPLLCtrl   uint16 = 0x0023
	addrPhaseCnt  uint16 = 0x0024
	addrPLLStatus uint16 = 0x0021
)

// Polling contract for PLL configuration and phase calibration. These are
// externally observable, not tuning knobs.
const (
	PLLConfigTimeout = 3 * time.Second
	PLLPollInterval  = 10 * time.Millisecond
)

// Hardware limits of the clock synthesizer.
const (
	pllLowerLimit = 5e6
	vcoMin        = 600e6
	vcoMax        = 1300e6
)

// One physical PLL output tap to configure.
type PLLClock struct {
	// Physical output index (C0, C1, ...).
	Index int
	// Target output frequency, Hz.
	OutFrequency float64
	// Desired phase offset, degrees. Ignored when FindPhase is set.
	PhaseShiftDeg float64
	// Output unused; pass the VCO through without a divider.
	Bypass bool
	// Run the hardware phase-search calibration instead of applying a
	// fixed shift.
	FindPhase bool
	// Written back: frequency actually achieved after divider rounding.
	ActualFrequency float64
}

// Integer dividers placing a common VCO for a set of outputs.
// Fvco = inputFreq * M / N, output i = Fvco / C[i].
type PLLSolution struct {
	Fvco float64
	N    int
	M    int
	C    []int
}

// Finds integer dividers placing the VCO inside [600, 1300] MHz while
// maximizing the number of outputs that divide it exactly.
//
// Candidate VCO frequencies are every integer multiple of every requested
// output that lands inside the VCO range, visited in ascending order. Among
// the candidates with the best exact-divider score, the (N, M) pair with the
// smallest |candidate - inputFreq*M/N| wins; a later candidate whose
// deviation ties the best replaces it. Callers must not assume any tie-break
// beyond that.
func SolvePLLDividers(inputFreq float64, clocks []PLLClock) (*PLLSolution, error) {
	const op = "SolvePLLDividers"
	if inputFreq < pllLowerLimit {
		return nil, &RangeError{op, fmt.Sprintf("input frequency must be >= %g MHz", pllLowerLimit/1e6)}
	}
	for i := range clocks {
		if clocks[i].OutFrequency < pllLowerLimit && !clocks[i].Bypass {
			return nil, &RangeError{op, fmt.Sprintf("clock %d must be >= %g MHz", i, pllLowerLimit/1e6)}
		}
	}

	// All available VCO frequencies: output multiples inside the VCO range.
	vcoSet := map[uint64]struct{}{}
	for i := range clocks {
		out := clocks[i].OutFrequency
		if out == 0 || clocks[i].Bypass {
			continue
		}
		freq := out * float64(int(vcoMin/out)+1)
		for freq >= vcoMin && freq <= vcoMax {
			vcoSet[uint64(freq)] = struct{}{}
			freq += out
		}
	}
	candidates := make([]uint64, 0, len(vcoSet))
	for freq := range vcoSet {
		candidates = append(candidates, freq)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })

	// Score each candidate by how many outputs get an exact integer divider.
	bestScore := 0
	scores := make([]int, len(candidates))
	for ci, cand := range candidates {
		for i := range clocks {
			if clocks[i].OutFrequency == 0 || clocks[i].Bypass {
				continue
			}
			if int(cand)%int(clocks[i].OutFrequency) == 0 {
				scores[ci]++
			}
		}
		if scores[ci] > bestScore {
			bestScore = scores[ci]
		}
	}

	var n, m int
	bestDeviation := 1e9
	var fvco float64
	for ci, cand := range candidates {
		if scores[ci] != bestScore {
			continue
		}
		coef := float32(float64(cand) / inputFreq)
		nTemp := 1
		mTemp := int(coef + 0.5)
		for inputFreq/float64(nTemp) > pllLowerLimit {
			nTemp++
			mTemp = int(coef*float32(nTemp) + 0.5)
			if mTemp > 255 {
				nTemp--
				mTemp = int(coef*float32(nTemp) + 0.5)
				break
			}
		}
		deviation := math.Abs(float64(cand) - inputFreq*float64(mTemp)/float64(nTemp))
		if deviation <= bestDeviation {
			bestDeviation = deviation
			fvco = float64(cand)
			m = mTemp
			n = nTemp
		}
	}

	if n == 0 {
		return nil, &RangeError{op, "no VCO candidates for the requested outputs"}
	}
	fvco = inputFreq * float64(m) / float64(n)
	glog.V(1).Infof("M=%d, N=%d, Fvco=%.3f MHz", m, n, fvco/1e6)
	if fvco < vcoMin || fvco > vcoMax {
		return nil, &RangeError{op, fmt.Sprintf("VCO (%g MHz) out of range [%g:%g] MHz",
			fvco/1e6, vcoMin/1e6, vcoMax/1e6)}
	}

	sol := &PLLSolution{Fvco: fvco, N: n, M: m, C: make([]int, len(clocks))}
	for i := range clocks {
		if clocks[i].OutFrequency <= 0 {
			sol.C[i] = 1
			continue
		}
		sol.C[i] = int(fvco/clocks[i].OutFrequency + 0.5)
	}
	return sol, nil
}

// Programs one of the FPGA PLLs: derives dividers for the requested outputs,
// writes them in a single batched register transaction, triggers
// configuration and polls the status register for completion. Per-output
// phase is then calibrated according to each clock's FindPhase mode; the
// achieved frequency is written back into clocks.
func (f *FPGA) SetPLLFrequency(pllIndex uint8, inputFreq float64, clocks []PLLClock) error {
	const op = "SetPllFrequency"
	if pllIndex > 15 {
		return &RangeError{op, fmt.Sprintf("PLL index (%d) out of range [0-15]", pllIndex)}
	}
	if len(clocks) == 0 {
		return &RangeError{op, "no clocks to configure"}
	}
	sol, err := SolvePLLDividers(inputFreq, clocks)
	if err != nil {
		return err
	}

	// Route this PLL through synthesis rather than the direct clock bitmap.
	drct, err := f.conn.ReadRegister(addrDirectClk)
	if err != nil {
		return &IOError{op, "failed to read direct clock control", err}
	}
	if err = f.conn.WriteRegister(addrDirectClk, drct&^(1<<uint(pllIndex))); err != nil {
		return &IOError{op, "failed to write direct clock control", err}
	}

	ctrl, err := f.conn.ReadRegister(0x0003)
	if err != nil {
		return &IOError{op, "failed to read control register", err}
	}
	ctrl &^= 0x1F << 3 // clear PLL index
	ctrl &^= pllCfgStart
	ctrl &^= phCfgStart
	ctrl &^= pllRstStart
	ctrl &^= phCfgUpDn
	ctrl |= uint16(pllIndex) << 3

	reg25, err := f.conn.ReadRegister(0x0025)
	if err != nil {
		return &IOError{op, "failed to read register 0x0025", err}
	}

	addrs := []uint16{0x0025, addrPLLCtrl}
	values := []uint16{reg25 | 0x80, ctrl}
	if !clocks[0].FindPhase {
		addrs = append(addrs, addrPLLCtrl)
		values = append(values, ctrl|pllRstStart)
	}
	if err = f.conn.WriteRegisters(addrs, values); err != nil {
		return &IOError{op, "PLLRST, failed to write registers", err}
	}
	if err = f.waitPLLStatus(op + ": PLLRST"); err != nil {
		return err
	}

	addrs = []uint16{addrPLLCtrl}
	values = []uint16{ctrl &^ pllRstStart}

	mLow := sol.M / 2
	mHigh := mLow + sol.M%2
	nLow := sol.N / 2
	nHigh := nLow + sol.N%2

	mnOddByp := uint16(sol.M%2)<<3 | uint16(sol.N%2)<<1
	if sol.M == 1 {
		mnOddByp |= 1 << 2 // bypass M
	}
	if sol.N == 1 {
		mnOddByp |= 1 // bypass N
	}
	addrs = append(addrs, 0x0026, 0x002A, 0x002B)
	values = append(values, mnOddByp, uint16(nHigh<<8|nLow), uint16(mHigh<<8|mLow))

	c7c0OddsByps := uint16(0x5555)  // bypass all C
	c15c8OddsByps := uint16(0x5555) // bypass all C
	for i := range clocks {
		c := sol.C[i]
		cLow := c / 2
		cHigh := cLow + c%2
		if i < 8 {
			if !clocks[i].Bypass && c != 1 {
				c7c0OddsByps &^= 1 << uint(i*2) // enable output
			}
			c7c0OddsByps |= uint16(c%2) << uint(i*2+1)
		} else {
			if !clocks[i].Bypass && c != 1 {
				c15c8OddsByps &^= 1 << uint((i-8)*2)
			}
			c15c8OddsByps |= uint16(c%2) << uint((i-8)*2+1)
		}
		addrs = append(addrs, uint16(0x002E+i))
		values = append(values, uint16(cHigh<<8|cLow))
		clocks[i].ActualFrequency = (inputFreq * float64(sol.M) / float64(sol.N)) / float64(cHigh+cLow)
	}
	addrs = append(addrs, 0x0027, 0x0028)
	values = append(values, c7c0OddsByps, c15c8OddsByps)
	if len(clocks) != 4 || clocks[0].Index == 3 {
		addrs = append(addrs, addrPLLCtrl)
		values = append(values, ctrl|pllCfgStart)
	}
	if err = f.conn.WriteRegisters(addrs, values); err != nil {
		return &IOError{op, "PLLCFG, failed to write registers", err}
	}
	if err = f.waitPLLStatus(op + ": PLLCFG"); err != nil {
		return err
	}
	// The trigger is edge sensitive; de-assert it once done is observed.
	if err = f.conn.WriteRegister(addrPLLCtrl, ctrl); err != nil {
		return &IOError{op, "failed to clear PLLCFG trigger", err}
	}

	for i := range clocks {
		c := sol.C[i]
		fOutMHz := (sol.Fvco / float64(c)) / 1e6
		fStepUs := 1 / (8 * fOutMHz * float64(c))
		fStepDeg := (360 * fStepUs) / (1 / fOutMHz)
		if !clocks[i].FindPhase {
			steps := int(math.Round(clocks[i].PhaseShiftDeg / fStepDeg))
			if err = f.setPLLPhase(clocks[i].Index, steps, &ctrl); err != nil {
				return err
			}
		} else {
			steps := int(math.Round(360/fStepDeg)) - 1
			return f.findPLLPhase(clocks[i].Index, steps, ctrl)
		}
	}
	return nil
}

// Applies a fixed phase shift of nSteps to one output counter, then polls the
// status register until the shift completes. The control register image is
// updated in place so subsequent outputs start from the written state.
func (f *FPGA) setPLLPhase(clockIndex, nSteps int, ctrl *uint16) error {
	const op = "SetPllFrequency"
	prev := *ctrl &^ pllCfgStart
	cntInd := uint16(clockIndex+2) & 0x1F // C0 index 2, C1 index 3...
	*ctrl &^= 0xF << 8
	*ctrl &^= phCfgMode
	*ctrl |= cntInd << 8
	if nSteps >= 0 {
		*ctrl |= phCfgUpDn
	} else {
		*ctrl &^= phCfgUpDn
	}

	addrs := []uint16{addrPLLCtrl, addrPhaseCnt, addrPLLCtrl, addrPLLCtrl}
	values := []uint16{prev, uint16(abs(nSteps)), *ctrl, *ctrl | phCfgStart}
	if err := f.conn.WriteRegisters(addrs, values); err != nil {
		return &IOError{op, "PHCFG, failed to write registers", err}
	}
	if err := f.waitPLLStatus(op + ": PHCFG"); err != nil {
		return err
	}
	if err := f.conn.WriteRegister(addrPLLCtrl, *ctrl&^phCfgStart); err != nil {
		return &IOError{op, "failed to clear PHCFG trigger", err}
	}
	return nil
}

// Runs the hardware phase-search calibration on one output counter. Uses the
// search completion encoding of the status register: bit 2 done, bit 3 error
// (the PLL configuration path reports done on bit 0 and an error code in bits
// 7..14 instead). The trigger is de-asserted before returning, success or
// failure; a failure is reported to the caller, which decides the fallback.
func (f *FPGA) findPLLPhase(clockIndex, nSteps int, ctrl uint16) error {
	const op = "SetPllFrequency: find phase"
	cntInd := uint16(clockIndex+2) & 0x1F
	ctrl &^= pllCfgStart
	ctrl &^= 0xF << 8
	ctrl |= cntInd << 8
	ctrl |= phCfgUpDn
	ctrl |= phCfgMode

	addrs := []uint16{addrPLLCtrl, addrPhaseCnt, addrPLLCtrl}
	values := []uint16{ctrl, uint16(abs(nSteps)), ctrl | phCfgStart}
	if err := f.conn.WriteRegisters(addrs, values); err != nil {
		return &IOError{op, "failed to write registers", err}
	}

	done := false
	searchError := false
	deadline := time.Now().Add(PLLConfigTimeout)
	for !done && time.Now().Before(deadline) {
		status, err := f.conn.ReadRegister(addrPLLStatus)
		if err != nil {
			return &IOError{op, "failed to read status register", err}
		}
		done = status&0x4 != 0
		searchError = status&0x8 != 0
		if done {
			break
		}
		time.Sleep(PLLPollInterval)
	}

	if err := f.conn.WriteRegister(addrPLLCtrl, ctrl&^phCfgStart); err != nil {
		return &IOError{op, "failed to clear PHCFG trigger", err}
	}
	if !done {
		return &DeviceTimeoutError{op}
	}
	if searchError {
		return &DeviceBusyError{op, 1}
	}
	return nil
}

// Polls the busy/status register until the done bit is set, a nonzero error
// code appears, or the deadline elapses.
func (f *FPGA) waitPLLStatus(op string) error {
	deadline := time.Now().Add(PLLConfigTimeout)
	for {
		status, err := f.conn.ReadRegister(addrPLLStatus)
		if err != nil {
			return &IOError{op, "failed to read status register", err}
		}
		if code := uint8(status >> 7); code != 0 {
			return &DeviceBusyError{op, code}
		}
		if status&0x1 != 0 {
			return nil
		}
		if !time.Now().Before(deadline) {
			return &DeviceTimeoutError{op}
		}
		time.Sleep(PLLPollInterval)
	}
}

// Routes a clock output through the direct (non-PLL) source.
func (f *FPGA) SetDirectClocking(clockIndex int) error {
	const op = "SetDirectClocking"
	drct, err := f.conn.ReadRegister(addrDirectClk)
	if err != nil {
		return &IOError{op, "failed to read direct clock control", err}
	}
	if err = f.conn.WriteRegister(addrDirectClk, drct|1<<uint(clockIndex)); err != nil {
		return &IOError{op, "failed to write direct clock control", err}
	}
	return nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
