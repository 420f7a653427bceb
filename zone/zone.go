// Package zone implements the Zone State Model: an in-memory projection of
// a ZNS namespace's zone table and device-advertised limits, mirroring the
// write-pointer state machine a real ZNS controller enforces in hardware.
package zone

import (
	"github.com/pkg/errors"

	"github.com/LinJ0/TraceIO/driver"
)

// State is a zone's position in the ZNS state machine.
type State int

const (
	Empty State = iota
	ImplicitOpen
	ExplicitOpen
	Closed
	Full
	ReadOnly
	Offline
)

func (s State) String() string {
	switch s {
	case Empty:
		return "EMPTY"
	case ImplicitOpen:
		return "IMPLICIT_OPEN"
	case ExplicitOpen:
		return "EXPLICIT_OPEN"
	case Closed:
		return "CLOSED"
	case Full:
		return "FULL"
	case ReadOnly:
		return "READ_ONLY"
	case Offline:
		return "OFFLINE"
	default:
		return "UNKNOWN"
	}
}

// Type identifies a zone's write-ordering requirement.
type Type int

const (
	TypeSeqWriteRequired Type = iota
)

// Descriptor is one zone's current state.
type Descriptor struct {
	Zslba uint64
	Zcap  uint64
	Wp    uint64
	State State
	Type  Type
}

// Action identifies a Zone-Mgmt-Send action, independent of the trs wire
// encoding, so Model.Apply has no dependency on the trs package.
type Action int

const (
	ActionWrite Action = iota // Write/Append consuming nlb LBAs
	ActionOpen
	ActionClose
	ActionFinish
	ActionReset
)

// ErrInvalidTransition is returned when apply is attempted on a zone whose
// current state forbids the requested action (e.g. a write to a Full zone).
var ErrInvalidTransition = errors.New("zone: invalid state transition")

// Model is the per-namespace zone table plus device limits.
type Model struct {
	ZoneSize       uint64
	ZoneCount      uint64
	MaxOpen        uint32
	MaxActive      uint32
	MaxAppendSize  uint32
	Zones          []Descriptor
}

// Discover populates the zone table from a namespace's advertised geometry,
// initializing every zone as Empty with its write pointer at its start LBA —
// the state a ZNS namespace reports before anything has ever been written.
func Discover(ns driver.NamespaceInfo) *Model {
	m := &Model{
		ZoneSize:      ns.ZoneSizeSectors,
		ZoneCount:     ns.NumZones,
		MaxOpen:       ns.MaxOpenZones,
		MaxActive:     ns.MaxActiveZones,
		MaxAppendSize: ns.MaxZoneAppendSize,
		Zones:         make([]Descriptor, ns.NumZones),
	}
	for i := range m.Zones {
		zslba := uint64(i) * ns.ZoneSizeSectors
		m.Zones[i] = Descriptor{
			Zslba: zslba,
			Zcap:  ns.ZoneSizeSectors,
			Wp:    zslba,
			State: Empty,
			Type:  TypeSeqWriteRequired,
		}
	}
	return m
}

// ZoneIndex returns the zone index containing slba.
func (m *Model) ZoneIndex(slba uint64) uint64 {
	return slba / m.ZoneSize
}

// Apply adjusts one zone's state following the ZNS zone state machine:
// Write/Append advances the write pointer, Open/Close/Finish/Reset change
// state without moving the write pointer except where noted below. A failed
// command (success=false) leaves state unchanged. nlb is only meaningful
// for ActionWrite.
func (m *Model) Apply(zidx uint64, action Action, nlb uint64, success bool) error {
	if zidx >= uint64(len(m.Zones)) {
		return errors.Errorf("zone: index %d out of range (%d zones)", zidx, len(m.Zones))
	}
	if !success {
		return nil
	}
	z := &m.Zones[zidx]

	switch action {
	case ActionWrite:
		switch z.State {
		case Empty, Closed:
			z.State = ImplicitOpen
			z.Wp += nlb
		case ImplicitOpen, ExplicitOpen:
			z.Wp += nlb
		default:
			return ErrInvalidTransition
		}
		if z.Wp == z.Zslba+z.Zcap {
			z.State = Full
		}

	case ActionOpen:
		switch z.State {
		case Empty, ImplicitOpen, Closed:
			z.State = ExplicitOpen
		case ExplicitOpen:
			// already open
		default:
			return ErrInvalidTransition
		}

	case ActionClose:
		switch z.State {
		case ImplicitOpen, ExplicitOpen:
			z.State = Closed
		case Empty, Closed:
			// no-op
		default:
			return ErrInvalidTransition
		}

	case ActionFinish:
		switch z.State {
		case Empty:
			z.Wp = z.Zslba + z.Zcap
			z.State = Full
		case ImplicitOpen, ExplicitOpen, Closed:
			z.Wp = z.Zslba + z.Zcap
			z.State = Full
		case Full:
			// no-op
		default:
			return ErrInvalidTransition
		}

	case ActionReset:
		switch z.State {
		case Empty, ImplicitOpen, ExplicitOpen, Closed, Full:
			z.State = Empty
			z.Wp = z.Zslba
		default:
			return ErrInvalidTransition
		}

	default:
		return errors.Errorf("zone: unknown action %d", action)
	}
	return nil
}

// ResetAll resets every zone to Empty, as the dispatcher does before the
// first submission of a ZNS replay.
func (m *Model) ResetAll() {
	for i := range m.Zones {
		m.Zones[i].State = Empty
		m.Zones[i].Wp = m.Zones[i].Zslba
	}
}
