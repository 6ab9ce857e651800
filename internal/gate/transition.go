package gate

import "fmt"

type TransitionKind int

const (
	TransitionCarIn TransitionKind = iota + 1
	TransitionCarOut
	TransitionQueued
	TransitionGateOpen
	TransitionFull
)

var transitionNames = map[TransitionKind]string{
	TransitionCarIn:    "car_in",
	TransitionCarOut:   "car_out",
	TransitionQueued:   "queued",
	TransitionGateOpen: "gate_open",
	TransitionFull:     "full",
}

func (k TransitionKind) String() string {
	if name, ok := transitionNames[k]; ok {
		return name
	}
	return fmt.Sprintf("transition(%d)", int(k))
}

func (k TransitionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *TransitionKind) UnmarshalText(text []byte) error {
	for kind, name := range transitionNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown transition kind %q", text)
}

// Transition is one observable state change of the gate.
type Transition struct {
	Kind       TransitionKind `json:"kind"`
	SpacesUsed int            `json:"spaces_used"`
	GateID     string         `json:"gate_id,omitempty"`
	QueueDepth int            `json:"queue_depth"`
}

func (t Transition) String() string {
	switch t.Kind {
	case TransitionCarIn:
		return fmt.Sprintf("car in spaces used:%d", t.SpacesUsed)
	case TransitionCarOut:
		return fmt.Sprintf("car out spaces used:%d", t.SpacesUsed)
	case TransitionQueued:
		return "CAR PARK FULL please wait until gate opens"
	case TransitionGateOpen:
		return fmt.Sprintf("GATE OPEN - GATE:%s", t.GateID)
	case TransitionFull:
		return "CAR PARK FULL - CLOSING GATE"
	default:
		return t.Kind.String()
	}
}
