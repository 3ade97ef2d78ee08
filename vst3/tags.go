// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vst3

import (
	"strconv"

	rpc "github.com/luxfi/vst3rpc"
)

// Wire tags. Tags are unique across the control, callback and instance
// unions, so any frame can be named without knowing its channel.
const (
	// responses
	TagAck                rpc.Tag = 1
	TagResultResponse     rpc.Tag = 2
	TagConstructResponse  rpc.Tag = 3
	TagInitializeResponse rpc.Tag = 4
	TagGetStateResponse   rpc.Tag = 5
	TagCountResponse      rpc.Tag = 6
	TagValueResponse      rpc.Tag = 7
	TagStringResponse     rpc.Tag = 8
	TagClassInfoResponse  rpc.Tag = 9
	TagProcessResponse    rpc.Tag = 10

	// control
	TagConstruct           rpc.Tag = 32
	TagDestruct            rpc.Tag = 33
	TagInitialize          rpc.Tag = 34
	TagTerminate           rpc.Tag = 35
	TagSetState            rpc.Tag = 36
	TagGetState            rpc.Tag = 37
	TagSetComponentState   rpc.Tag = 38
	TagSetComponentHandler rpc.Tag = 39
	TagGetParameterCount   rpc.Tag = 40
	TagGetParamNormalized  rpc.Tag = 41
	TagSetParamNormalized  rpc.Tag = 42
	TagConnect             rpc.Tag = 43
	TagDisconnect          rpc.Tag = 44
	TagCountClasses        rpc.Tag = 45
	TagGetClassInfo        rpc.Tag = 46

	// callback
	TagGetHostName      rpc.Tag = 64
	TagRestartComponent rpc.Tag = 65
	TagBeginEdit        rpc.Tag = 66
	TagPerformEdit      rpc.Tag = 67
	TagEndEdit          rpc.Tag = 68

	// instance
	TagSetupProcessing   rpc.Tag = 96
	TagSetActive         rpc.Tag = 97
	TagSetProcessing     rpc.Tag = 98
	TagProcess           rpc.Tag = 99
	TagGetLatencySamples rpc.Tag = 100
	TagGetTailSamples    rpc.Tag = 101
)

// ControlUnion accepts requests on the control channel
var ControlUnion = rpc.UnionFunc(func(tag rpc.Tag) rpc.Request {
	switch tag {
	case TagConstruct:
		return &Construct{}
	case TagDestruct:
		return &Destruct{}
	case TagInitialize:
		return &Initialize{}
	case TagTerminate:
		return &Terminate{}
	case TagSetState:
		return &SetState{}
	case TagGetState:
		return &GetState{}
	case TagSetComponentState:
		return &SetComponentState{}
	case TagSetComponentHandler:
		return &SetComponentHandler{}
	case TagGetParameterCount:
		return &GetParameterCount{}
	case TagGetParamNormalized:
		return &GetParamNormalized{}
	case TagSetParamNormalized:
		return &SetParamNormalized{}
	case TagConnect:
		return &Connect{}
	case TagDisconnect:
		return &Disconnect{}
	case TagCountClasses:
		return &CountClasses{}
	case TagGetClassInfo:
		return &GetClassInfo{}
	}
	return nil
})

// CallbackUnion accepts requests on the callback channel
var CallbackUnion = rpc.UnionFunc(func(tag rpc.Tag) rpc.Request {
	switch tag {
	case TagGetHostName:
		return &GetHostName{}
	case TagRestartComponent:
		return &RestartComponent{}
	case TagBeginEdit:
		return &BeginEdit{}
	case TagPerformEdit:
		return &PerformEdit{}
	case TagEndEdit:
		return &EndEdit{}
	}
	return nil
})

// InstanceUnion accepts requests on per instance fast channels
var InstanceUnion = rpc.UnionFunc(func(tag rpc.Tag) rpc.Request {
	switch tag {
	case TagSetupProcessing:
		return &SetupProcessing{}
	case TagSetActive:
		return &SetActive{}
	case TagSetProcessing:
		return &SetProcessing{}
	case TagProcess:
		return &Process{}
	case TagGetLatencySamples:
		return &GetLatencySamples{}
	case TagGetTailSamples:
		return &GetTailSamples{}
	case TagSetState:
		return &SetState{}
	case TagGetState:
		return &GetState{}
	}
	return nil
})

var tagNames = map[rpc.Tag]string{
	TagAck:                 "Ack",
	TagResultResponse:      "ResultResponse",
	TagConstructResponse:   "ConstructResponse",
	TagInitializeResponse:  "InitializeResponse",
	TagGetStateResponse:    "GetStateResponse",
	TagCountResponse:       "CountResponse",
	TagValueResponse:       "ValueResponse",
	TagStringResponse:      "StringResponse",
	TagClassInfoResponse:   "ClassInfoResponse",
	TagProcessResponse:     "ProcessResponse",
	TagConstruct:           "Construct",
	TagDestruct:            "Destruct",
	TagInitialize:          "Initialize",
	TagTerminate:           "Terminate",
	TagSetState:            "SetState",
	TagGetState:            "GetState",
	TagSetComponentState:   "SetComponentState",
	TagSetComponentHandler: "SetComponentHandler",
	TagGetParameterCount:   "GetParameterCount",
	TagGetParamNormalized:  "GetParamNormalized",
	TagSetParamNormalized:  "SetParamNormalized",
	TagConnect:             "Connect",
	TagDisconnect:          "Disconnect",
	TagCountClasses:        "CountClasses",
	TagGetClassInfo:        "GetClassInfo",
	TagGetHostName:         "GetHostName",
	TagRestartComponent:    "RestartComponent",
	TagBeginEdit:           "BeginEdit",
	TagPerformEdit:         "PerformEdit",
	TagEndEdit:             "EndEdit",
	TagSetupProcessing:     "SetupProcessing",
	TagSetActive:           "SetActive",
	TagSetProcessing:       "SetProcessing",
	TagProcess:             "Process",
	TagGetLatencySamples:   "GetLatencySamples",
	TagGetTailSamples:      "GetTailSamples",
}

// TagName returns the message name for tag
func TagName(tag rpc.Tag) string {
	if name, ok := tagNames[tag]; ok {
		return name
	}
	return "Tag(" + strconv.FormatUint(uint64(tag), 10) + ")"
}
