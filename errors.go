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

// Error types reported by device operations.
package lime

import "fmt"

// RangeError reports a frequency or index outside the hardware-valid range.
// Never retried.
type RangeError struct {
	Op  string
	Msg string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

// DeviceTimeoutError reports that the busy bit never cleared within the
// operation deadline.
type DeviceTimeoutError struct {
	Op string
}

func (e *DeviceTimeoutError) Error() string {
	return fmt.Sprintf("%s: timeout, busy bit is still 1", e.Op)
}

// DeviceBusyError reports a nonzero error code read back from the status
// register.
type DeviceBusyError struct {
	Op   string
	Code uint8
}

func (e *DeviceBusyError) Error() string {
	return fmt.Sprintf("%s: device reported error code %d", e.Op, e.Code)
}

// PermissionError reports an operation that is invalid in the current device
// state. No hardware mutation is attempted.
type PermissionError struct {
	Op  string
	Msg string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

// IOError reports a failed transport read or write.
type IOError struct {
	Op  string
	Msg string
	Err error
}

func (e *IOError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
