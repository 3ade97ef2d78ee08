// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vst3

import (
	"math/bits"
	"strconv"
	"strings"
)

// Capability is one optional interface a plugin object may implement. The
// catalogue is closed: a proxy answers queries for exactly these.
type Capability uint8

const (
	AudioPresentationLatency Capability = iota
	AudioProcessor
	AutomationState
	Component
	ConnectionPoint
	EditController
	EditController2
	EditControllerHostEditing
	InfoListener
	KeyswitchController
	MidiLearn
	MidiMapping
	NoteExpressionController
	NoteExpressionPhysicalUIMapping
	ParameterFunctionName
	PluginBase
	PrefetchableSupport
	ProcessContextRequirements
	ProgramListData
	UnitData
	UnitInfo
	XmlRepresentationController

	// NumCapabilities is the size of the catalogue
	NumCapabilities
)

var capabilityNames = [NumCapabilities]string{
	AudioPresentationLatency:        "IAudioPresentationLatency",
	AudioProcessor:                  "IAudioProcessor",
	AutomationState:                 "IAutomationState",
	Component:                       "IComponent",
	ConnectionPoint:                 "IConnectionPoint",
	EditController:                  "IEditController",
	EditController2:                 "IEditController2",
	EditControllerHostEditing:       "IEditControllerHostEditing",
	InfoListener:                    "IInfoListener",
	KeyswitchController:             "IKeyswitchController",
	MidiLearn:                       "IMidiLearn",
	MidiMapping:                     "IMidiMapping",
	NoteExpressionController:        "INoteExpressionController",
	NoteExpressionPhysicalUIMapping: "INoteExpressionPhysicalUIMapping",
	ParameterFunctionName:           "IParameterFunctionName",
	PluginBase:                      "IPluginBase",
	PrefetchableSupport:             "IPrefetchableSupport",
	ProcessContextRequirements:      "IProcessContextRequirements",
	ProgramListData:                 "IProgramListData",
	UnitData:                        "IUnitData",
	UnitInfo:                        "IUnitInfo",
	XmlRepresentationController:     "IXmlRepresentationController",
}

// Valid reports whether c is part of the catalogue
func (c Capability) Valid() bool {
	return c < NumCapabilities
}

func (c Capability) String() string {
	if !c.Valid() {
		return "Capability(" + strconv.Itoa(int(c)) + ")"
	}
	return capabilityNames[c]
}

// ParseCapability resolves an interface name, with or without the leading I,
// case insensitively
func ParseCapability(s string) (Capability, bool) {
	for c, name := range capabilityNames {
		if strings.EqualFold(s, name) || strings.EqualFold(s, name[1:]) {
			return Capability(c), true
		}
	}
	return 0, false
}

// Catalogue returns every capability in declaration order
func Catalogue() []Capability {
	all := make([]Capability, NumCapabilities)
	for i := range all {
		all[i] = Capability(i)
	}
	return all
}

// CapabilitySet is a set of capabilities, one bit each
type CapabilitySet uint32

// NewCapabilitySet builds a set from its members
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	var s CapabilitySet
	for _, c := range caps {
		s = s.With(c)
	}
	return s
}

func (s CapabilitySet) Has(c Capability) bool {
	return c.Valid() && s&(1<<c) != 0
}

func (s CapabilitySet) With(c Capability) CapabilitySet {
	if !c.Valid() {
		return s
	}
	return s | 1<<c
}

func (s CapabilitySet) Without(c Capability) CapabilitySet {
	return s &^ (1 << c)
}

// Len returns the number of members
func (s CapabilitySet) Len() int {
	return bits.OnesCount32(uint32(s & allCapabilities))
}

// Slice returns the members in catalogue order
func (s CapabilitySet) Slice() []Capability {
	out := make([]Capability, 0, s.Len())
	for c := Capability(0); c < NumCapabilities; c++ {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

func (s CapabilitySet) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, c := range s.Slice() {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(c.String())
	}
	sb.WriteByte('}')
	return sb.String()
}

const allCapabilities = CapabilitySet(1<<NumCapabilities - 1)
