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

// Interface clock orchestration: dual RX/TX clock pairs for the LimeLight
// port, with hardware-assisted phase search on gateware revisions that
// support it.
package lime

import (
	"errors"

	"github.com/golang/glog"
)

// Empirical interface phase, degrees: phase = C1 + C2*rate.
const (
	rxPhC1 = 89.46
	rxPhC2 = 1.24e-6
	txPhC1 = 89.61
	txPhC2 = 2.71e-7
)

// LMS7002M registers saved around a phase-search calibration. The first
// eight are backed up per channel page; the remaining four addresses are
// only targets of the calibration test pattern.
var lmsBackupAddrs = []uint16{
	0x021, 0x022, 0x023, 0x024, 0x027, 0x02A,
	0x400, 0x40C, 0x40B, 0x400, 0x40B, 0x400,
}

const lmsBackupRegCount = 8 // len(lmsBackupAddrs) - 4

// Calibration test patterns written to lmsBackupAddrs before phase search.
var (
	lmsRxTestPattern = []uint16{
		0x0E9F, 0x0FFF, 0x5550, 0xE4E4, 0xE4E4, 0x0086,
		0x028D, 0x00FF, 0x5555, 0x02CD, 0xAAAA, 0x02ED,
	}
	lmsTxTestPattern = []uint16{0x0E9F, 0x0FFF, 0x5550, 0xE4E4, 0xE4E4, 0x0484}
)

// Configures RX and TX interface clocks with explicit phase offsets. Rates
// below 5 MHz are routed through direct clocking instead of PLL synthesis.
// Returns nil only when both sides succeeded.
func (f *FPGA) SetInterfaceFreqWithPhase(txRate, rxRate, txPhase, rxPhase float64) error {
	var rxStatus, txStatus error
	if rxRate >= pllLowerLimit {
		clocks := []PLLClock{
			{Index: 0, OutFrequency: rxRate},
			{Index: 1, OutFrequency: rxRate, PhaseShiftDeg: rxPhase},
		}
		rxStatus = f.SetPLLFrequency(1, rxRate, clocks)
	} else {
		rxStatus = f.SetDirectClocking(1)
	}

	if txRate >= pllLowerLimit {
		clocks := []PLLClock{
			{Index: 0, OutFrequency: txRate},
			{Index: 1, OutFrequency: txRate, PhaseShiftDeg: txPhase},
		}
		txStatus = f.SetPLLFrequency(0, txRate, clocks)
	} else {
		txStatus = f.SetDirectClocking(0)
	}
	return errors.Join(rxStatus, txStatus)
}

// Configures RX and TX interface clocks for one RF channel. Gateware
// revisions that support it run a hardware phase search against a known
// LMS7002M test pattern; the transceiver registers touched by the pattern
// are backed up first and restored unconditionally afterwards. Older
// revisions, and any side whose search fails, fall back to the empirical
// fixed-phase formula.
func (f *FPGA) SetInterfaceFreq(txRate, rxRate float64, channel int) error {
	const op = "SetInterfaceFreq"
	pllInd := uint8(0)
	if channel == 1 {
		pllInd = 2
	}

	phaseSearch := false
	if rxRate >= pllLowerLimit && txRate >= pllLowerLimit {
		vals, err := f.conn.ReadRegisters([]uint16{0, 1, 2})
		if err != nil {
			return &IOError{op, "failed to read gateware revision", err}
		}
		if (vals[0] == 0xE && vals[1] > 1 && vals[2] > 0xE) ||
			(vals[0] == 0xF && vals[1] > 1 && vals[2] > 6) {
			phaseSearch = true
		}
	}
	if !phaseSearch {
		return f.SetInterfaceFreqWithPhase(txRate, rxRate,
			txPhC1+txPhC2*txRate, rxPhC1+rxPhC2*rxRate)
	}

	backup, err := f.backupLMSRegisters(channel)
	if err != nil {
		return err
	}
	// Restore is a finalizer, not a success path: it must run even when a
	// calibration error propagates.
	defer f.restoreLMSRegisters(backup, channel)

	// RX: both outputs of the RX PLL search against the RX test pattern.
	if err := f.writeLMSPattern(lmsRxTestPattern, channel); err != nil {
		return err
	}
	rxClocks := []PLLClock{
		{Index: 1, OutFrequency: rxRate, PhaseShiftDeg: rxPhC1 + rxPhC2*rxRate, FindPhase: true},
		{Index: 1, OutFrequency: rxRate, PhaseShiftDeg: rxPhC1 + rxPhC2*rxRate, FindPhase: true},
	}
	var rxStatus error
	if err := f.SetPLLFrequency(pllInd+1, rxRate, rxClocks); err != nil {
		glog.Warningf("[%s] RX phase search failed (%v), using fixed phase", op, err)
		rxClocks[0].Index = 0
		rxClocks[0].PhaseShiftDeg = 0
		rxClocks[0].FindPhase = false
		rxClocks[1].FindPhase = false
		rxStatus = f.SetPLLFrequency(pllInd+1, rxRate, rxClocks)
	}

	// TX: stream interface disabled for pattern load, then enabled for
	// waveform playback while the TX side searches.
	if err := f.conn.WriteRegister(addrEpSelect, 1<<uint(channel)); err != nil {
		return errors.Join(rxStatus, &IOError{op, "failed to select endpoint", err})
	}
	if err := f.conn.WriteRegister(addrInterfaceCtrl, 0x0000); err != nil {
		return errors.Join(rxStatus, &IOError{op, "failed to disable stream interface", err})
	}
	if err := f.writeLMSPattern(lmsTxTestPattern, channel); err != nil {
		return errors.Join(rxStatus, err)
	}
	txClocks := []PLLClock{
		{Index: 1, OutFrequency: txRate, PhaseShiftDeg: txPhC1 + txPhC2*txRate, FindPhase: true},
		{Index: 1, OutFrequency: txRate, PhaseShiftDeg: txPhC1 + txPhC2*txRate, FindPhase: true},
	}
	if err := f.conn.WriteRegister(addrInterfaceCtrl, 0x0200); err != nil {
		return errors.Join(rxStatus, &IOError{op, "failed to enable playback", err})
	}
	var txStatus error
	if err := f.SetPLLFrequency(pllInd, txRate, txClocks); err != nil {
		glog.Warningf("[%s] TX phase search failed (%v), using fixed phase", op, err)
		txClocks[0].Index = 0
		txClocks[0].PhaseShiftDeg = 0
		txClocks[0].FindPhase = false
		txClocks[1].FindPhase = false
		txStatus = f.SetPLLFrequency(pllInd, txRate, txClocks)
	}

	return errors.Join(rxStatus, txStatus)
}

// Snapshot of LMS7002M state taken before a phase-search calibration.
type lmsBackup struct {
	channelReg uint16
	pageA      []uint32
	pageB      []uint32
}

func (f *FPGA) backupLMSRegisters(channel int) (*lmsBackup, error) {
	const op = "SetInterfaceFreq: backup"
	vals, err := f.conn.ReadLMS7002MSPI([]uint32{spiRead(lmsAddrChannel)}, channel)
	if err != nil {
		return nil, &IOError{op, "failed to read channel register", err}
	}
	b := &lmsBackup{channelReg: uint16(vals[0])}

	words := make([]uint32, lmsBackupRegCount)
	for page, dst := range []*[]uint32{&b.pageA, &b.pageB} {
		sentinel := uint16(lmsChannelA)
		if page == 1 {
			sentinel = lmsChannelB
		}
		if err = f.conn.WriteLMS7002MSPI([]uint32{spiWrite(lmsAddrChannel, sentinel)}, channel); err != nil {
			return nil, &IOError{op, "failed to select channel page", err}
		}
		for i := 0; i < lmsBackupRegCount; i++ {
			words[i] = spiRead(lmsBackupAddrs[i])
		}
		if *dst, err = f.conn.ReadLMS7002MSPI(words, channel); err != nil {
			return nil, &IOError{op, "failed to read backup registers", err}
		}
	}
	// Leave both pages selected for the test pattern writes.
	if err = f.conn.WriteLMS7002MSPI([]uint32{spiWrite(lmsAddrChannel, lmsChannelAB)}, channel); err != nil {
		return nil, &IOError{op, "failed to select channel page", err}
	}
	return b, nil
}

// Restores the LMS7002M registers captured by backupLMSRegisters. Failures
// are logged, not returned: by the time this runs the calibration outcome is
// already decided.
func (f *FPGA) restoreLMSRegisters(b *lmsBackup, channel int) {
	const op = "SetInterfaceFreq: restore"
	words := make([]uint32, lmsBackupRegCount)
	for page, src := range [][]uint32{b.pageA, b.pageB} {
		sentinel := uint16(lmsChannelA)
		if page == 1 {
			sentinel = lmsChannelB
		}
		if err := f.conn.WriteLMS7002MSPI([]uint32{spiWrite(lmsAddrChannel, sentinel)}, channel); err != nil {
			glog.Errorf("[%s] failed to select channel page: %v", op, err)
		}
		for i := 0; i < lmsBackupRegCount; i++ {
			words[i] = spiWrite(lmsBackupAddrs[i], uint16(src[i]))
		}
		if err := f.conn.WriteLMS7002MSPI(words, channel); err != nil {
			glog.Errorf("[%s] failed to restore registers: %v", op, err)
		}
	}
	if err := f.conn.WriteLMS7002MSPI([]uint32{spiWrite(lmsAddrChannel, b.channelReg)}, channel); err != nil {
		glog.Errorf("[%s] failed to restore channel register: %v", op, err)
	}
	if err := f.conn.WriteRegister(addrInterfaceCtrl, 0); err != nil {
		glog.Errorf("[%s] failed to clear interface control: %v", op, err)
	}
}

func (f *FPGA) writeLMSPattern(pattern []uint16, channel int) error {
	words := make([]uint32, len(pattern))
	for i, data := range pattern {
		words[i] = spiWrite(lmsBackupAddrs[i], data)
	}
	if err := f.conn.WriteLMS7002MSPI(words, channel); err != nil {
		return &IOError{"SetInterfaceFreq", "failed to load test pattern", err}
	}
	return nil
}
