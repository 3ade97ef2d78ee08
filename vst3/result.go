// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vst3

import "strconv"

// Result is a plugin API status code. Remote failures travel as results,
// never as errors.
type Result int32

const (
	ResultNoInterface     Result = -1
	ResultOK              Result = 0
	ResultFalse           Result = 1
	ResultInvalidArgument Result = 2
	ResultNotImplemented  Result = 3
	ResultInternalError   Result = 4
	ResultNotInitialized  Result = 5
	ResultOutOfMemory     Result = 6
)

// OK reports whether r is ResultOK
func (r Result) OK() bool {
	return r == ResultOK
}

func (r Result) String() string {
	switch r {
	case ResultNoInterface:
		return "kNoInterface"
	case ResultOK:
		return "kResultOk"
	case ResultFalse:
		return "kResultFalse"
	case ResultInvalidArgument:
		return "kInvalidArgument"
	case ResultNotImplemented:
		return "kNotImplemented"
	case ResultInternalError:
		return "kInternalError"
	case ResultNotInitialized:
		return "kNotInitialized"
	case ResultOutOfMemory:
		return "kOutOfMemory"
	default:
		return "Result(" + strconv.Itoa(int(r)) + ")"
	}
}
