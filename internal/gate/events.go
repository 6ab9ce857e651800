package gate

import (
	"fmt"
	"strings"
)

type EventKind int

const (
	KindArrival EventKind = iota + 1
	KindDeparture
	KindRequestEntry
)

func (k EventKind) String() string {
	switch k {
	case KindArrival:
		return "arrival"
	case KindDeparture:
		return "departure"
	case KindRequestEntry:
		return "request_entry"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is the closed set of inputs the processor accepts: Arrival,
// Departure and RequestEntry.
type Event interface {
	Kind() EventKind
	isEvent()
}

// Arrival is reported by the entry sensor when a car drives in.
type Arrival struct{}

// Departure is reported by the exit sensor when a car leaves.
type Departure struct{}

// RequestEntry is published by a gate when a car is waiting in front of it.
type RequestEntry struct {
	GateID string
}

func (Arrival) Kind() EventKind      { return KindArrival }
func (Departure) Kind() EventKind    { return KindDeparture }
func (RequestEntry) Kind() EventKind { return KindRequestEntry }

func (Arrival) isEvent()      {}
func (Departure) isEvent()    {}
func (RequestEntry) isEvent() {}

// Validate checks an event payload at the boundary.
func Validate(ev Event) error {
	switch e := ev.(type) {
	case nil:
		return &ValidationError{Field: "event", Reason: "missing"}
	case RequestEntry:
		if strings.TrimSpace(e.GateID) == "" {
			return &ValidationError{Field: "gate_id", Reason: "must not be empty"}
		}
	case *Arrival:
		if e == nil {
			return &ValidationError{Field: "event", Reason: "missing"}
		}
	case *Departure:
		if e == nil {
			return &ValidationError{Field: "event", Reason: "missing"}
		}
	case *RequestEntry:
		if e == nil {
			return &ValidationError{Field: "event", Reason: "missing"}
		}
		return Validate(*e)
	}
	return nil
}

// ParseEvent builds an event from its wire name. The gate id is only
// consulted for request_entry.
func ParseEvent(name, gateID string) (Event, error) {
	var ev Event
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "arrival", "car_in":
		ev = Arrival{}
	case "departure", "car_out":
		ev = Departure{}
	case "request_entry", "request":
		ev = RequestEntry{GateID: strings.TrimSpace(gateID)}
	default:
		return nil, &ValidationError{Field: "event", Reason: fmt.Sprintf("unknown kind %q", name)}
	}
	if err := Validate(ev); err != nil {
		return nil, err
	}
	return ev, nil
}
